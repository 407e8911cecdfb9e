package ports

import "context"

// MessageConsumer — фоновый источник подсказок на обновление кэша.
type MessageConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
