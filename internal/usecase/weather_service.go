package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/ports"
	"github.com/whoknows/weather/pkg/ctxmeta"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// ErrServiceClosed — сервис остановлен, новые попытки не запускаются.
var ErrServiceClosed = errors.New("weather service closed")

// ErrEmptyCity — пустой ключ после нормализации.
var ErrEmptyCity = errors.New("empty city")

const (
	defaultSoftDeadline   = 5 * time.Second
	defaultTTLFresh       = 5 * time.Minute
	defaultAttemptTimeout = 10 * time.Second
)

// Policy — параметры конкретной точки вызова (JSON API, HTML-страница и т.д.).
type Policy struct {
	Name         string
	SoftDeadline time.Duration // сколько вызывающий готов ждать провайдера
	TTLFresh     time.Duration
	TTLStale     time.Duration
}

func (p Policy) normalized() Policy {
	if p.Name == "" {
		p.Name = "default"
	}
	if p.SoftDeadline <= 0 {
		p.SoftDeadline = defaultSoftDeadline
	}
	if p.TTLFresh <= 0 {
		p.TTLFresh = defaultTTLFresh
	}
	if p.TTLStale < 0 {
		p.TTLStale = 0
	}
	return p
}

// Options — настройки сервиса, общие для всех политик.
type Options struct {
	// AttemptTimeout — верхняя граница жизни одной попытки, в том числе отвязанной от запроса.
	AttemptTimeout time.Duration
	// Coalesce — объединять одновременные попытки по (key, ttlFresh, ttlStale).
	Coalesce bool
}

// WeatherService — оркестратор cache-and-fetch с мягким дедлайном.
// Попытка обращения к провайдеру живёт в контексте сервиса, а не запроса:
// вызывающий может уйти по дедлайну, а успешный результат всё равно попадёт в кэш.
type WeatherService struct {
	cache    ports.WeatherCache
	provider ports.WeatherProvider
	log      ports.Logger
	metrics  ports.WeatherMetrics
	tracer   trace.Tracer

	attemptTimeout time.Duration
	coalesce       bool
	group          singleflight.Group

	baseCtx context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
}

// NewWeatherService — DI-конструктор. m может быть nil.
func NewWeatherService(
	cache ports.WeatherCache,
	provider ports.WeatherProvider,
	log ports.Logger,
	m ports.WeatherMetrics,
	opts Options,
) *WeatherService {
	if m == nil {
		m = noopMetrics{}
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	return &WeatherService{
		cache:          cache,
		provider:       provider,
		log:            log,
		metrics:        m,
		tracer:         otel.Tracer("github.com/whoknows/weather/internal/usecase"),
		attemptTimeout: opts.AttemptTimeout,
		coalesce:       opts.Coalesce,
		baseCtx:        baseCtx,
		cancel:         cancel,
	}
}

// Resolve — получить погоду для города не дольше policy.SoftDeadline.
// Никогда не возвращает ошибку: отказы провайдера выражены статусом.
//  1. FRESH в кэше — сразу fresh, без обращения к провайдеру;
//  2. иначе запускается попытка и идёт гонка {результат, мягкий дедлайн, ctx вызывающего};
//  3. успех в бюджете — fresh с новым payload (кэш уже обновлён попыткой);
//  4. отказ в бюджете — stale при наличии STALE-записи, иначе unavailable-error;
//  5. дедлайн — stale при наличии STALE-записи, иначе unavailable-timeout; попытка продолжает работу.
//
// EXPIRED-записи не отдаются никогда.
func (s *WeatherService) Resolve(ctx context.Context, city string, now time.Time, policy Policy) domain.FetchResult {
	start := time.Now()
	p := policy.normalized()
	key := domain.NormalizeKey(city)

	ctx, span := s.tracer.Start(ctx, "weather.resolve", trace.WithAttributes(
		attribute.String("weather.city", key),
		attribute.String("weather.policy", p.Name),
	))
	defer span.End()

	res := s.resolve(ctx, key, now, p)

	span.SetAttributes(attribute.String("weather.status", string(res.Status)))
	s.metrics.ObserveResolve(p.Name, res.Status, time.Since(start))
	return res
}

func (s *WeatherService) resolve(ctx context.Context, key string, now time.Time, p Policy) domain.FetchResult {
	if key == "" {
		s.log.Warnf(ctx, "resolve rejected: empty city")
		return domain.FetchResult{Status: domain.StatusUnavailableError}
	}

	entry, _ := s.cache.Get(ctx, key)
	var fallback *domain.Weather
	switch entry.Freshness(now) {
	case domain.FreshnessFresh:
		return domain.FetchResult{Status: domain.StatusFresh, Payload: entry.Payload}
	case domain.FreshnessStale:
		fallback = entry.Payload
	}

	resCh := s.startAttempt(ctx, key, p)

	timer := time.NewTimer(p.SoftDeadline)
	defer timer.Stop()

	select {
	case r := <-resCh:
		if r.Err == nil {
			return domain.FetchResult{Status: domain.StatusFresh, Payload: r.Val.(*domain.Weather).Clone()}
		}
		if fallback != nil {
			s.log.Warnf(ctx, "serving stale city=%s policy=%s: %v", key, p.Name, r.Err)
			return domain.FetchResult{Status: domain.StatusStale, Payload: fallback}
		}
		s.log.Warnf(ctx, "weather unavailable city=%s policy=%s: %v", key, p.Name, r.Err)
		return domain.FetchResult{Status: domain.StatusUnavailableError}

	case <-timer.C:
		return s.onDeadline(ctx, key, p, fallback, "soft deadline")

	case <-ctx.Done():
		return s.onDeadline(ctx, key, p, fallback, ctx.Err().Error())
	}
}

func (s *WeatherService) onDeadline(ctx context.Context, key string, p Policy, fallback *domain.Weather, reason string) domain.FetchResult {
	if fallback != nil {
		s.log.Infof(ctx, "%s reached city=%s policy=%s, serving stale", reason, key, p.Name)
		return domain.FetchResult{Status: domain.StatusStale, Payload: fallback}
	}
	s.log.Warnf(ctx, "%s reached city=%s policy=%s, nothing to serve", reason, key, p.Name)
	return domain.FetchResult{Status: domain.StatusUnavailableTimeout}
}

// Refresh — синхронно обновить запись, без мягкого дедлайна. Ожидание ограничено ctx;
// если ctx истёк раньше, попытка доживает в фоне и всё равно обновит кэш.
func (s *WeatherService) Refresh(ctx context.Context, city string, policy Policy) error {
	p := policy.normalized()
	key := domain.NormalizeKey(city)
	if key == "" {
		return ErrEmptyCity
	}

	select {
	case r := <-s.startAttempt(ctx, key, p):
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WarmUp — прогрев кэша списком городов. Отказы по отдельным городам только логируются.
func (s *WeatherService) WarmUp(ctx context.Context, cities []string, policy Policy) error {
	if len(cities) == 0 {
		s.log.Warnf(ctx, "cache warm-up skipped: no cities")
		return nil
	}

	start := time.Now()
	var ok, failed int
	for _, city := range cities {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Refresh(ctx, city, policy); err != nil {
			failed++
			s.log.Warnf(ctx, "warm-up failed city=%s err=%v", city, err)
			continue
		}
		ok++
	}
	s.log.Infof(ctx, "cache warmed ok=%d failed=%d in %s", ok, failed, time.Since(start))
	return nil
}

// Close — отменяет все фоновые попытки и ждёт их завершения (не дольше ctx).
func (s *WeatherService) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait detached attempts: %w", ctx.Err())
	}
}

// startAttempt — запускает попытку в отдельной горутине и возвращает канал с её результатом.
// Канал буферизован: если вызывающий уже ушёл, горутина не блокируется.
func (s *WeatherService) startAttempt(ctx context.Context, key string, p Policy) <-chan singleflight.Result {
	ch := make(chan singleflight.Result, 1)

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		ch <- singleflight.Result{Err: ErrServiceClosed}
		return ch
	}
	s.wg.Add(1)
	s.mu.RUnlock()

	attemptCtx := ctxmeta.Detach(s.baseCtx, ctx)

	go func() {
		defer s.wg.Done()
		if !s.coalesce {
			v, err := s.attempt(attemptCtx, key, p)
			ch <- singleflight.Result{Val: v, Err: err}
			return
		}
		v, err, shared := s.group.Do(flightKey(key, p), func() (interface{}, error) {
			return s.attempt(attemptCtx, key, p)
		})
		ch <- singleflight.Result{Val: v, Err: err, Shared: shared}
	}()
	return ch
}

// attempt — один вызов провайдера; при успехе пишет результат в кэш.
func (s *WeatherService) attempt(ctx context.Context, key string, p Policy) (*domain.Weather, error) {
	ctx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "weather.refresh", trace.WithAttributes(attribute.String("weather.city", key)))
	defer span.End()

	start := time.Now()
	w, err := s.provider.Fetch(ctx, key)
	if err == nil && w == nil {
		err = domain.NewParseError(errors.New("empty provider payload"))
	}
	elapsed := time.Since(start)
	s.metrics.ObserveProviderCall(providerOutcome(err), elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider call failed")
		s.log.Warnf(ctx, "provider fetch failed city=%s took=%s err=%v", key, elapsed, err)
		return nil, err
	}

	s.cache.Put(ctx, key, w, p.TTLFresh, p.TTLStale)
	s.log.Infof(ctx, "weather refreshed city=%s took=%s", key, elapsed)
	return w, nil
}

func flightKey(key string, p Policy) string {
	return fmt.Sprintf("%s|%d|%d", key, p.TTLFresh, p.TTLStale)
}

func providerOutcome(err error) string {
	if err == nil {
		return "success"
	}
	if kind := domain.ProviderErrorKindOf(err); kind != "" {
		return string(kind)
	}
	return string(domain.ProviderErrTransport)
}

type noopMetrics struct{}

func (noopMetrics) ObserveResolve(string, domain.Status, time.Duration) {}
func (noopMetrics) ObserveProviderCall(string, time.Duration)           {}
