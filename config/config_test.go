package config_test

import (
	"slices"
	"strings"
	"testing"
	"time"

	cfg "github.com/whoknows/weather/config"
)

// TestLoadWithPrefix_Defaults — проверка наличия значений по умолчанию.
func TestLoadWithPrefix_Defaults(t *testing.T) {
	t.Parallel()

	c, err := cfg.LoadWithPrefix("WEATHER_TEST_DEFAULTS")
	if err != nil {
		t.Fatalf("LoadWithPrefix error: %v", err)
	}

	// HTTP
	if c.HTTP.Addr != ":8080" || c.HTTP.GinMode != "debug" {
		t.Fatalf("HTTP defaults wrong: %+v", c.HTTP)
	}
	if c.HTTP.ReadTimeout != 10*time.Second || c.HTTP.WriteTimeout != 10*time.Second {
		t.Fatalf("HTTP timeouts wrong: %+v", c.HTTP)
	}
	if c.HTTP.ReadHeaderTimeout != 5*time.Second || c.HTTP.IdleTimeout != 60*time.Second {
		t.Fatalf("HTTP header/idle timeouts wrong: %+v", c.HTTP)
	}
	if c.HTTP.HandlerTimeout != 8*time.Second {
		t.Fatalf("HTTP.HandlerTimeout: want 8s, got %v", c.HTTP.HandlerTimeout)
	}

	// Tracing
	if c.Tracing.Enabled {
		t.Fatalf("Tracing.Enabled: want false, got true")
	}
	if c.Tracing.ServiceName != "weather-app" || c.Tracing.Endpoint != "jaeger:4318" || c.Tracing.SampleRatio != 1 {
		t.Fatalf("Tracing defaults wrong: %+v", c.Tracing)
	}

	// Provider / Breaker
	if !strings.Contains(c.Provider.BaseURL, "openweathermap.org") || c.Provider.Timeout != 10*time.Second {
		t.Fatalf("Provider defaults wrong: %+v", c.Provider)
	}
	if !c.Breaker.Enabled || c.Breaker.FailureThreshold != 5 || c.Breaker.OpenTimeout != 2*time.Minute {
		t.Fatalf("Breaker defaults wrong: %+v", c.Breaker)
	}

	// Cache и политики точек вызова
	if c.Cache.TTLFresh != 300*time.Second || c.Cache.TTLStale != 36000*time.Second || c.Cache.Capacity != 10000 {
		t.Fatalf("Cache defaults wrong: %+v", c.Cache)
	}
	if c.API.SoftDeadline != 5*time.Second || c.Page.SoftDeadline != 3*time.Second {
		t.Fatalf("soft deadlines wrong: api=%v page=%v", c.API.SoftDeadline, c.Page.SoftDeadline)
	}
	if c.Refresh.AttemptTimeout != 10*time.Second || !c.Refresh.Coalesce {
		t.Fatalf("Refresh defaults wrong: %+v", c.Refresh)
	}
	if c.DefaultCity != "Copenhagen" {
		t.Fatalf("DefaultCity: want Copenhagen, got %q", c.DefaultCity)
	}

	// Warmer
	if len(c.Warmer.Cities) != 0 || c.Warmer.Interval != 4*time.Minute || c.Warmer.Timeout != time.Minute {
		t.Fatalf("Warmer defaults wrong: %+v", c.Warmer)
	}

	// Kafka
	if c.Kafka.Enabled {
		t.Fatalf("Kafka.Enabled: want false")
	}
	if !slices.Equal(c.Kafka.Brokers, []string{"kafka:9092"}) {
		t.Fatalf("Kafka.Brokers: want [kafka:9092], got %v", c.Kafka.Brokers)
	}
	if c.Kafka.Topic != "weather-refresh" || c.Kafka.GroupID != "weather" || c.Kafka.StartOffset != "last" {
		t.Fatalf("Kafka defaults wrong: %+v", c.Kafka)
	}
	if c.Kafka.ProcessTimeout != 15*time.Second || c.Kafka.RetryInitial != 1*time.Second || c.Kafka.RetryMax != 30*time.Second {
		t.Fatalf("Kafka timeouts wrong: %+v", c.Kafka)
	}

	// Logger
	if c.Logger.IsProd {
		t.Fatalf("Logger.IsProd: want false, got true")
	}

	if err := c.Validate(); err != nil {
		t.Fatalf("defaults must be valid: %v", err)
	}
}

// Меняем окружение.
func TestLoadWithPrefix_Overrides(t *testing.T) {
	const p = "WEATHER_TEST_OVR"

	t.Setenv(p+"_HTTP_ADDR", ":9999")
	t.Setenv(p+"_HTTP_GIN_MODE", "release")
	t.Setenv(p+"_HTTP_HANDLER_TIMEOUT", "4500ms")

	t.Setenv(p+"_TRACING_OTEL_ENABLED", "true")
	t.Setenv(p+"_TRACING_OTEL_SERVICE_NAME", "svc")
	t.Setenv(p+"_TRACING_OTEL_SAMPLE_RATIO", "0.25")

	t.Setenv(p+"_PROVIDER_API_KEY", "secret")
	t.Setenv(p+"_PROVIDER_TIMEOUT", "3s")
	t.Setenv(p+"_BREAKER_ENABLED", "false")

	t.Setenv(p+"_CACHE_TTL_FRESH", "1m")
	t.Setenv(p+"_CACHE_TTL_STALE", "0s")
	t.Setenv(p+"_CACHE_CAPACITY", "0")
	t.Setenv(p+"_API_SOFT_DEADLINE", "1500ms")
	t.Setenv(p+"_PAGE_SOFT_DEADLINE", "700ms")
	t.Setenv(p+"_REFRESH_COALESCE", "false")

	t.Setenv(p+"_WARMER_CITIES", "Oslo,Rome,Paris")
	t.Setenv(p+"_WARMER_INTERVAL", "0s")

	t.Setenv(p+"_KAFKA_ENABLED", "true")
	t.Setenv(p+"_KAFKA_BROKERS", "k1:9092,k2:9093")
	t.Setenv(p+"_KAFKA_START_OFFSET", "first")

	t.Setenv(p+"_LOGGER_IS_PROD", "true")
	t.Setenv(p+"_DEFAULT_CITY", "Aarhus")

	c, err := cfg.LoadWithPrefix(p)
	if err != nil {
		t.Fatalf("LoadWithPrefix error: %v", err)
	}

	if c.HTTP.Addr != ":9999" || c.HTTP.GinMode != "release" || c.HTTP.HandlerTimeout != 4500*time.Millisecond {
		t.Fatalf("HTTP overrides wrong: %+v", c.HTTP)
	}
	if !c.Tracing.Enabled || c.Tracing.ServiceName != "svc" || c.Tracing.SampleRatio != 0.25 {
		t.Fatalf("Tracing overrides wrong: %+v", c.Tracing)
	}
	if c.Provider.APIKey != "secret" || c.Provider.Timeout != 3*time.Second || c.Breaker.Enabled {
		t.Fatalf("Provider/Breaker overrides wrong: %+v %+v", c.Provider, c.Breaker)
	}
	if c.Cache.TTLFresh != time.Minute || c.Cache.TTLStale != 0 || c.Cache.Capacity != 0 {
		t.Fatalf("Cache overrides wrong: %+v", c.Cache)
	}
	if c.API.SoftDeadline != 1500*time.Millisecond || c.Page.SoftDeadline != 700*time.Millisecond {
		t.Fatalf("soft deadline overrides wrong: api=%v page=%v", c.API.SoftDeadline, c.Page.SoftDeadline)
	}
	if c.Refresh.Coalesce {
		t.Fatalf("Refresh.Coalesce override wrong")
	}
	if !slices.Equal(c.Warmer.Cities, []string{"Oslo", "Rome", "Paris"}) || c.Warmer.Interval != 0 {
		t.Fatalf("Warmer overrides wrong: %+v", c.Warmer)
	}
	if !c.Kafka.Enabled || !slices.Equal(c.Kafka.Brokers, []string{"k1:9092", "k2:9093"}) || c.Kafka.StartOffset != "first" {
		t.Fatalf("Kafka overrides wrong: %+v", c.Kafka)
	}
	if !c.Logger.IsProd || c.DefaultCity != "Aarhus" {
		t.Fatalf("Logger/DefaultCity overrides wrong: %+v %q", c.Logger, c.DefaultCity)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("overrides must be valid: %v", err)
	}
}

// Тоже меняем окружение — но с невалидным значением.
func TestLoadWithPrefix_InvalidValue_ReturnsError(t *testing.T) {
	const p = "WEATHER_TEST_BAD"
	t.Setenv(p+"_HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := cfg.LoadWithPrefix(p); err == nil {
		t.Fatalf("expected error for invalid duration, got nil")
	}
}

func TestValidate_RejectsBrokenPolicies(t *testing.T) {
	c, err := cfg.LoadWithPrefix("WEATHER_TEST_VALIDATE")
	if err != nil {
		t.Fatalf("LoadWithPrefix error: %v", err)
	}

	c.API.SoftDeadline = -time.Second
	c.Cache.TTLFresh = 0
	c.Cache.TTLStale = -time.Second

	err = c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"API_SOFT_DEADLINE", "CACHE_TTL_FRESH", "CACHE_TTL_STALE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error must mention %s: %v", want, err)
		}
	}
}
