package ports

import (
	"context"
	"time"

	"github.com/whoknows/weather/internal/domain"
)

// WeatherCache — кэш последних успешных ответов провайдера с двумя горизонтами.
// Требования к реализации: потокобезопасность; Get возвращает копию и не сравнивает время;
// Put всегда успешен и атомарен для конкурентных читателей.
type WeatherCache interface {
	// Get — текущая запись по ключу; (nil, false), если запись никогда не сохранялась.
	Get(ctx context.Context, key string) (*domain.CacheEntry, bool)

	// Put — перезаписать запись: FreshUntil = now+ttlFresh, StaleUntil = FreshUntil+ttlStale.
	Put(ctx context.Context, key string, payload *domain.Weather, ttlFresh, ttlStale time.Duration)
}
