package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var _ ports.WeatherProvider = (*Client)(nil)

// ErrAPIKeyMissing — ключ OpenWeatherMap не задан в конфигурации.
var ErrAPIKeyMissing = errors.New("openweather api key is not configured")

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"
	maxBodyBytes   = 1 << 20
)

// Config — параметры клиента.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client — клиент current-weather эндпоинта OpenWeatherMap.
// Ровно один исходящий GET на вызов Fetch, без ретраев.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient — конструктор. Если httpClient == nil, создаётся клиент с otelhttp-транспортом
// и таймаутом cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: base,
		http:    httpClient,
	}
}

type currentWeatherPayload struct {
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Fetch — текущая погода для города. Все отказы возвращаются как *domain.ProviderError.
// Контекст проверяется до и после единственного блокирующего вызова.
func (c *Client) Fetch(ctx context.Context, city string) (*domain.Weather, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewTransportError(err)
	}
	if c.apiKey == "" {
		return nil, domain.NewTransportError(ErrAPIKeyMissing)
	}

	values := url.Values{}
	values.Set("appid", c.apiKey)
	values.Set("units", "metric")
	values.Set("q", strings.TrimSpace(city))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), http.NoBody)
	if err != nil {
		return nil, domain.NewTransportError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, domain.NewTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := ctx.Err(); err != nil {
		return nil, domain.NewTransportError(err)
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ep errorPayload
		if json.NewDecoder(body).Decode(&ep) == nil && ep.Message != "" {
			return nil, domain.NewStatusError(resp.StatusCode, errors.New(ep.Message))
		}
		return nil, domain.NewStatusError(resp.StatusCode, nil)
	}

	var payload currentWeatherPayload
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, domain.NewParseError(err)
	}
	if payload.Main == nil {
		return nil, domain.NewParseError(errors.New("missing main block"))
	}

	return toDomain(&payload, city), nil
}

func toDomain(p *currentWeatherPayload, requested string) *domain.Weather {
	w := &domain.Weather{
		City:         p.Name,
		Country:      p.Sys.Country,
		TemperatureC: p.Main.Temp,
		FeelsLikeC:   p.Main.FeelsLike,
		HumidityPct:  p.Main.Humidity,
		PressureHpa:  p.Main.Pressure,
		WindSpeedMS:  p.Wind.Speed,
		ObservedAt:   time.Unix(p.Dt, 0).UTC(),
	}
	if w.City == "" {
		w.City = strings.TrimSpace(requested)
	}
	if p.Dt == 0 {
		w.ObservedAt = time.Now().UTC()
	}
	if len(p.Weather) > 0 {
		w.Condition = p.Weather[0].Main
		w.Description = p.Weather[0].Description
		w.Icon = p.Weather[0].Icon
	}
	return w
}
