package ports

import (
	"context"
	"time"

	"github.com/whoknows/weather/internal/domain"
)

// WeatherResolver — точка вызова оркестратора с уже выбранной политикой.
// Никогда не возвращает ошибку: все отказы выражены через domain.Status.
type WeatherResolver interface {
	Resolve(ctx context.Context, city string, now time.Time) domain.FetchResult
}

// WeatherRefresher — принудительное обновление записи по внешней подсказке (Kafka).
type WeatherRefresher interface {
	RefreshFromMessage(ctx context.Context, raw []byte) error
}
