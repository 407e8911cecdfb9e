package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/ports"
	"github.com/whoknows/weather/pkg/validate"
)

var (
	_ ports.WeatherResolver  = (*Resolver)(nil)
	_ ports.WeatherRefresher = (*Resolver)(nil)
)

// ErrInvalidMessage — подсказку на обновление невозможно обработать ни при каком повторе.
var ErrInvalidMessage = errors.New("invalid refresh message")

// Resolver — WeatherService, привязанный к политике конкретной точки вызова.
type Resolver struct {
	svc    *WeatherService
	policy Policy
}

// WithPolicy — точка вызова со своей политикой поверх общего кэша и провайдера.
func (s *WeatherService) WithPolicy(p Policy) *Resolver {
	return &Resolver{svc: s, policy: p.normalized()}
}

// Resolve — см. WeatherService.Resolve.
func (r *Resolver) Resolve(ctx context.Context, city string, now time.Time) domain.FetchResult {
	return r.svc.Resolve(ctx, city, now, r.policy)
}

// Policy — итоговая политика после подстановки значений по умолчанию.
func (r *Resolver) Policy() Policy { return r.policy }

type refreshMessage struct {
	City string `json:"city"`
}

// RefreshFromMessage — обновить запись по подсказке из Kafka (raw JSON {"city": "..."}).
// Шаги:
//  1. строгий парсинг JSON (DisallowUnknownFields, без хвостовых данных);
//  2. валидация города (validate.City);
//  3. синхронный Refresh с TTL политики.
//
// Ошибки шагов 1–2 оборачивают ErrInvalidMessage.
func (r *Resolver) RefreshFromMessage(ctx context.Context, raw []byte) error {
	var msg refreshMessage
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&msg); err != nil {
		r.svc.log.Warnf(ctx, "invalid json err=%v", err)
		return fmt.Errorf("%w: invalid json: %w", ErrInvalidMessage, err)
	}

	// Убеждаемся, что после объекта нет лишних данных.
	if err := dec.Decode(new(struct{})); err != io.EOF {
		r.svc.log.Warnf(ctx, "invalid json: trailing data")
		return fmt.Errorf("%w: invalid json: trailing data", ErrInvalidMessage)
	}

	city, err := validate.City(msg.City)
	if err != nil {
		r.svc.log.Warnf(ctx, "validation failed err=%v", err)
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if err := r.svc.Refresh(ctx, city, r.policy); err != nil {
		return fmt.Errorf("refresh %s: %w", city, err)
	}
	return nil
}

// WarmUp — прогрев кэша с TTL этой политики.
func (r *Resolver) WarmUp(ctx context.Context, cities []string) error {
	return r.svc.WarmUp(ctx, cities, r.policy)
}
