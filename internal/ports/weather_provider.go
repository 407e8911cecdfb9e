package ports

import (
	"context"

	"github.com/whoknows/weather/internal/domain"
)

// WeatherProvider — один исходящий запрос к погодному провайдеру.
// Без ретраев и собственной политики дедлайнов; любые отказы возвращаются как *domain.ProviderError.
type WeatherProvider interface {
	Fetch(ctx context.Context, city string) (*domain.Weather, error)
}
