package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/whoknows/weather/internal/domain"
)

// FakeClock — управляемые часы для кэша и оркестратора.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// FetchFunc — сценарий ответа FakeProvider.
type FetchFunc func(ctx context.Context, city string) (*domain.Weather, error)

// FakeProvider — скриптуемый ports.WeatherProvider со счётчиком вызовов.
// Done получает ключ после завершения каждого вызова (буфер 64).
type FakeProvider struct {
	fn    FetchFunc
	calls atomic.Int32
	Done  chan string
}

func NewFakeProvider(fn FetchFunc) *FakeProvider {
	return &FakeProvider{fn: fn, Done: make(chan string, 64)}
}

func (p *FakeProvider) Fetch(ctx context.Context, city string) (*domain.Weather, error) {
	p.calls.Add(1)
	w, err := p.fn(ctx, city)
	select {
	case p.Done <- city:
	default:
	}
	return w, err
}

// Calls — сколько раз был вызван Fetch.
func (p *FakeProvider) Calls() int { return int(p.calls.Load()) }

// Respond — мгновенный успешный ответ.
func Respond(w *domain.Weather) FetchFunc {
	return func(context.Context, string) (*domain.Weather, error) { return w.Clone(), nil }
}

// Fail — мгновенный отказ.
func Fail(err error) FetchFunc {
	return func(context.Context, string) (*domain.Weather, error) { return nil, err }
}

// Slow — ответ через d, либо транспортная ошибка при отмене ctx.
func Slow(d time.Duration, w *domain.Weather) FetchFunc {
	return func(ctx context.Context, _ string) (*domain.Weather, error) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return w.Clone(), nil
		case <-ctx.Done():
			return nil, domain.NewTransportError(ctx.Err())
		}
	}
}

// Gated — ответ только после закрытия release, либо транспортная ошибка при отмене ctx.
func Gated(release <-chan struct{}, w *domain.Weather) FetchFunc {
	return func(ctx context.Context, _ string) (*domain.Weather, error) {
		select {
		case <-release:
			return w.Clone(), nil
		case <-ctx.Done():
			return nil, domain.NewTransportError(ctx.Err())
		}
	}
}
