package testutil

import (
	"time"

	"github.com/whoknows/weather/internal/domain"
)

// NewWeather — валидный payload для тестов.
func NewWeather(city string, tempC float64) *domain.Weather {
	return &domain.Weather{
		City:         city,
		Country:      "DK",
		TemperatureC: tempC,
		FeelsLikeC:   tempC - 2,
		HumidityPct:  70,
		PressureHpa:  1013,
		WindSpeedMS:  4.5,
		Condition:    "Clouds",
		Description:  "broken clouds",
		ObservedAt:   time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}
