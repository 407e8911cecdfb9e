package rest

import (
	"context"
	"embed"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/ports"
	"github.com/whoknows/weather/pkg/httpx"
	"github.com/whoknows/weather/pkg/validate"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	// DefaultCity — город, если параметр city не передан.
	DefaultCity = "Copenhagen"

	staleWarning      = `110 - "Response is Stale"`
	retryAfterSeconds = 30
)

// Handler — HTTP-обработчики погоды. JSON API и HTML-страница работают
// через разные политики, но с общим кэшем и провайдером.
type Handler struct {
	api         ports.WeatherResolver
	page        ports.WeatherResolver
	log         ports.Logger
	timeout     time.Duration
	defaultCity string
	now         func() time.Time
}

// NewHandler — DI-конструктор. timeout <= 0 — без внешнего ограничения на запрос.
func NewHandler(api, page ports.WeatherResolver, log ports.Logger, timeout time.Duration, defaultCity string) *Handler {
	if defaultCity == "" {
		defaultCity = DefaultCity
	}
	return &Handler{
		api:         api,
		page:        page,
		log:         log,
		timeout:     timeout,
		defaultCity: defaultCity,
		now:         time.Now,
	}
}

type weatherResponse struct {
	City    string          `json:"city"`
	Status  domain.Status   `json:"status"`
	Stale   bool            `json:"stale"`
	Weather *domain.Weather `json:"weather,omitempty"`
	Message string          `json:"message,omitempty"`
}

type pageData struct {
	City    string
	Status  domain.Status
	Stale   bool
	Weather *domain.Weather
	Message string
	Error   string
}

func (h *Handler) getWeatherJSON(c *gin.Context) {
	city, err := h.cityParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.resolve(c, h.api, city)
	writeStatusHeaders(c, res.Status)
	c.JSON(httpStatus(res.Status), weatherResponse{
		City:    city,
		Status:  res.Status,
		Stale:   res.Status == domain.StatusStale,
		Weather: res.Payload,
		Message: statusMessage(res.Status),
	})
}

func (h *Handler) getWeatherPage(c *gin.Context) {
	city, err := h.cityParam(c)
	if err != nil {
		c.HTML(http.StatusBadRequest, "weather.html", pageData{City: c.Query("city"), Error: err.Error()})
		return
	}

	res := h.resolve(c, h.page, city)
	writeStatusHeaders(c, res.Status)
	c.HTML(httpStatus(res.Status), "weather.html", pageData{
		City:    city,
		Status:  res.Status,
		Stale:   res.Status == domain.StatusStale,
		Weather: res.Payload,
		Message: statusMessage(res.Status),
	})
}

// resolve — вызов резолвера под таймаутом обработчика.
func (h *Handler) resolve(c *gin.Context, r ports.WeatherResolver, city string) domain.FetchResult {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	return r.Resolve(ctx, city, h.now())
}

// cityParam — город из query; пустой → город по умолчанию.
func (h *Handler) cityParam(c *gin.Context) (string, error) {
	raw, ok := c.GetQuery("city")
	if !ok || raw == "" {
		return h.defaultCity, nil
	}
	city, err := validate.City(raw)
	if err != nil {
		h.log.Infof(c.Request.Context(), "rejected city err=%v", err)
		return "", validate.ErrInvalidCity
	}
	return city, nil
}

func writeStatusHeaders(c *gin.Context, s domain.Status) {
	c.Header(httpx.StatusHeader, string(s))
	switch s {
	case domain.StatusStale:
		c.Header("Warning", staleWarning)
	case domain.StatusUnavailableTimeout, domain.StatusUnavailableError:
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
}

func httpStatus(s domain.Status) int {
	if s.Available() {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func statusMessage(s domain.Status) string {
	switch s {
	case domain.StatusStale:
		return "weather data may be outdated"
	case domain.StatusUnavailableTimeout:
		return "weather provider is slow to respond, please retry in a moment"
	case domain.StatusUnavailableError:
		return "weather is temporarily unavailable, please retry later"
	default:
		return ""
	}
}
