package ports

import (
	"time"

	"github.com/whoknows/weather/internal/domain"
)

// WeatherMetrics — fire-and-forget наблюдение за оркестратором.
type WeatherMetrics interface {
	ObserveResolve(endpoint string, status domain.Status, elapsed time.Duration)
	ObserveProviderCall(outcome string, elapsed time.Duration)
}
