package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix — префикс переменных окружения (WEATHER_HTTP_ADDR и т.д.).
const Prefix = "WEATHER"

type HTTP struct {
	Addr              string        `default:":8080" envconfig:"ADDR"`
	GinMode           string        `default:"debug" envconfig:"GIN_MODE"`
	ReadTimeout       time.Duration `default:"10s" envconfig:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `default:"10s" envconfig:"WRITE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `default:"5s" envconfig:"READ_HEADER_TIMEOUT"`
	IdleTimeout       time.Duration `default:"60s" envconfig:"IDLE_TIMEOUT"`
	// HandlerTimeout — внешняя граница запроса поверх мягкого дедлайна.
	HandlerTimeout  time.Duration `default:"8s" envconfig:"HANDLER_TIMEOUT"`
	GracefulTimeout time.Duration `default:"5s" envconfig:"GRACEFUL_TIMEOUT"`
	StaticDir       string        `default:"" envconfig:"STATIC_DIR"`
}

type Tracing struct {
	Enabled     bool    `default:"false" envconfig:"OTEL_ENABLED"`
	ServiceName string  `default:"weather-app" envconfig:"OTEL_SERVICE_NAME"`
	Endpoint    string  `default:"jaeger:4318" envconfig:"OTEL_ENDPOINT"`
	SampleRatio float64 `default:"1" envconfig:"OTEL_SAMPLE_RATIO"`
}

type Logger struct {
	IsProd bool `default:"false" envconfig:"IS_PROD"`
}

type Provider struct {
	BaseURL string        `default:"https://api.openweathermap.org/data/2.5/weather" envconfig:"BASE_URL"`
	APIKey  string        `envconfig:"API_KEY"`
	Timeout time.Duration `default:"10s" envconfig:"TIMEOUT"`
}

type Breaker struct {
	Enabled          bool          `default:"true" envconfig:"ENABLED"`
	FailureThreshold uint32        `default:"5" envconfig:"FAILURE_THRESHOLD"`
	OpenTimeout      time.Duration `default:"2m" envconfig:"OPEN_TIMEOUT"`
	Interval         time.Duration `default:"1m" envconfig:"INTERVAL"`
	HalfOpenRequests uint32        `default:"5" envconfig:"HALF_OPEN_REQUESTS"`
}

type Cache struct {
	TTLFresh time.Duration `default:"300s" envconfig:"TTL_FRESH"`
	TTLStale time.Duration `default:"36000s" envconfig:"TTL_STALE"`
	// Capacity — 0 означает без ограничения.
	Capacity int `default:"10000" envconfig:"CAPACITY"`
}

// Endpoint — политика одной точки вызова.
type Endpoint struct {
	SoftDeadline time.Duration `envconfig:"SOFT_DEADLINE"`
}

type Refresh struct {
	AttemptTimeout time.Duration `default:"10s" envconfig:"ATTEMPT_TIMEOUT"`
	Coalesce       bool          `default:"true" envconfig:"COALESCE"`
}

type Warmer struct {
	Cities   []string      `envconfig:"CITIES"`
	Interval time.Duration `default:"4m" envconfig:"INTERVAL"`
	Timeout  time.Duration `default:"1m" envconfig:"TIMEOUT"`
}

type Kafka struct {
	Enabled        bool          `default:"false" envconfig:"ENABLED"`
	Brokers        []string      `default:"kafka:9092" envconfig:"BROKERS"`
	Topic          string        `default:"weather-refresh" envconfig:"TOPIC"`
	GroupID        string        `default:"weather" envconfig:"GROUP_ID"`
	StartOffset    string        `default:"last" envconfig:"START_OFFSET"`
	ProcessTimeout time.Duration `default:"15s" envconfig:"PROCESS_TIMEOUT"`
	RetryInitial   time.Duration `default:"1s" envconfig:"RETRY_INITIAL"`
	RetryMax       time.Duration `default:"30s" envconfig:"RETRY_MAX"`
}

type Config struct {
	HTTP        HTTP
	Tracing     Tracing
	Logger      Logger
	Provider    Provider
	Breaker     Breaker
	Cache       Cache
	API         Endpoint `envconfig:"API"`
	Page        Endpoint `envconfig:"PAGE"`
	Refresh     Refresh
	Warmer      Warmer
	Kafka       Kafka
	DefaultCity string `default:"Copenhagen" envconfig:"DEFAULT_CITY"`
}

// Load — конфигурация из окружения с префиксом WEATHER.
func Load() (Config, error) { return LoadWithPrefix(Prefix) }

// LoadWithPrefix — то же с произвольным префиксом (тесты, несколько инстансов).
func LoadWithPrefix(prefix string) (Config, error) {
	var c Config
	if err := envconfig.Process(prefix, &c); err != nil {
		return Config{}, err
	}
	// У API и страницы разные дефолты, поэтому они не в тегах.
	if c.API.SoftDeadline == 0 {
		c.API.SoftDeadline = 5 * time.Second
	}
	if c.Page.SoftDeadline == 0 {
		c.Page.SoftDeadline = 3 * time.Second
	}
	return c, nil
}

// Validate — проверка значений, которые сломают оркестратор молча.
func (c Config) Validate() error {
	var errs []error
	if c.API.SoftDeadline <= 0 {
		errs = append(errs, fmt.Errorf("API_SOFT_DEADLINE must be positive, got %s", c.API.SoftDeadline))
	}
	if c.Page.SoftDeadline <= 0 {
		errs = append(errs, fmt.Errorf("PAGE_SOFT_DEADLINE must be positive, got %s", c.Page.SoftDeadline))
	}
	if c.Cache.TTLFresh <= 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL_FRESH must be positive, got %s", c.Cache.TTLFresh))
	}
	if c.Cache.TTLStale < 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL_STALE must not be negative, got %s", c.Cache.TTLStale))
	}
	if c.Cache.Capacity < 0 {
		errs = append(errs, fmt.Errorf("CACHE_CAPACITY must not be negative, got %d", c.Cache.Capacity))
	}
	if c.Refresh.AttemptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REFRESH_ATTEMPT_TIMEOUT must be positive, got %s", c.Refresh.AttemptTimeout))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS must be set when KAFKA_ENABLED"))
	}
	return errors.Join(errs...)
}
