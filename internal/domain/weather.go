package domain

import (
	"strings"
	"time"
)

// Weather — разобранный ответ погодного провайдера.
// Для кэша и оркестратора это непрозрачное значение: хранится и отдаётся без изменений.
type Weather struct {
	City         string    `json:"city"`
	Country      string    `json:"country,omitempty"`
	TemperatureC float64   `json:"temperature_c"`
	FeelsLikeC   float64   `json:"feels_like_c"`
	HumidityPct  float64   `json:"humidity_pct"`
	PressureHpa  float64   `json:"pressure_hpa"`
	WindSpeedMS  float64   `json:"wind_speed_ms"`
	Condition    string    `json:"condition"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon,omitempty"`
	ObservedAt   time.Time `json:"observed_at"`
}

// Clone — копия значения, чтобы внешние изменения не попадали в кэш.
func (w *Weather) Clone() *Weather {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

// NormalizeKey — ключ кэша из пользовательского идентификатора города:
// обрезает пробелы по краям и приводит к нижнему регистру ("London" == "london").
func NormalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Freshness — состояние записи кэша относительно текущего времени.
type Freshness int

const (
	FreshnessAbsent Freshness = iota
	FreshnessFresh
	FreshnessStale
	FreshnessExpired
)

func (f Freshness) String() string {
	switch f {
	case FreshnessFresh:
		return "fresh"
	case FreshnessStale:
		return "stale"
	case FreshnessExpired:
		return "expired"
	default:
		return "absent"
	}
}

// CacheEntry — последний успешно полученный payload для ключа.
// Инвариант: StaleUntil >= FreshUntil. Флагов не храним: состояние
// вычисляется из двух границ и текущего времени.
type CacheEntry struct {
	Key        string
	Payload    *Weather
	FreshUntil time.Time
	StaleUntil time.Time
}

// Freshness — классификация записи на момент now. nil-запись — FreshnessAbsent.
func (e *CacheEntry) Freshness(now time.Time) Freshness {
	switch {
	case e == nil:
		return FreshnessAbsent
	case now.Before(e.FreshUntil):
		return FreshnessFresh
	case now.Before(e.StaleUntil):
		return FreshnessStale
	default:
		return FreshnessExpired
	}
}

// Status — итог Resolve, единственное, на что смотрит вызывающий код.
type Status string

const (
	StatusFresh              Status = "fresh"
	StatusStale              Status = "stale"
	StatusUnavailableTimeout Status = "unavailable-timeout"
	StatusUnavailableError   Status = "unavailable-error"
)

// Available — есть ли в результате payload.
func (s Status) Available() bool {
	return s == StatusFresh || s == StatusStale
}

// FetchResult — результат оркестратора. Payload != nil только для fresh/stale.
type FetchResult struct {
	Status  Status
	Payload *Weather
}
