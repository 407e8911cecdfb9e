package breaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/ports"
	"github.com/whoknows/weather/pkg/metrics"
)

var _ ports.WeatherProvider = (*Provider)(nil)

// ErrCircuitOpen — breaker разомкнут или полуоткрыт и лимит пробных запросов исчерпан.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Settings — параметры breaker'а.
type Settings struct {
	Name             string
	MaxRequests      uint32        // пробных запросов в half-open
	Interval         time.Duration // период сброса счётчиков в closed
	Timeout          time.Duration // сколько держать open до half-open
	FailureThreshold uint32        // подряд идущих отказов до размыкания
}

// Provider — декоратор ports.WeatherProvider с circuit breaker'ом.
// Ретраев не добавляет: отказ breaker'а — обычная транспортная ошибка для оркестратора.
type Provider struct {
	next ports.WeatherProvider
	cb   *gobreaker.CircuitBreaker
	log  ports.Logger
}

// New — оборачивает next. Нулевые поля Settings заменяются значениями по умолчанию.
func New(next ports.WeatherProvider, s Settings, log ports.Logger) *Provider {
	if s.Name == "" {
		s.Name = "openweather"
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 5
	}
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.Timeout <= 0 {
		s.Timeout = 2 * time.Minute
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}

	p := &Provider{next: next, log: log}
	threshold := s.FailureThreshold
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			p.log.Warnf(context.Background(), "circuit breaker %s: %s -> %s", name, from, to)
		},
		IsSuccessful: isSuccessful,
	})
	metrics.BreakerState.WithLabelValues(s.Name).Set(float64(gobreaker.StateClosed))
	return p
}

// Fetch — вызов next через breaker.
func (p *Provider) Fetch(ctx context.Context, city string) (*domain.Weather, error) {
	res, err := p.cb.Execute(func() (interface{}, error) {
		return p.next.Fetch(ctx, city)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domain.NewTransportError(fmt.Errorf("%w: %v", ErrCircuitOpen, err))
		}
		return nil, err
	}
	w, ok := res.(*domain.Weather)
	if !ok || w == nil {
		return nil, domain.NewParseError(errors.New("empty provider payload"))
	}
	return w, nil
}

// State — текущее состояние breaker'а.
func (p *Provider) State() gobreaker.State {
	return p.cb.State()
}

// isSuccessful — что не считается отказом провайдера: отмена вызывающим
// и клиентские 4xx (кроме 429), например неизвестный город.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var pe *domain.ProviderError
	if errors.As(err, &pe) && pe.Kind == domain.ProviderErrStatus {
		return pe.StatusCode >= 400 && pe.StatusCode < 500 && pe.StatusCode != http.StatusTooManyRequests
	}
	return false
}
