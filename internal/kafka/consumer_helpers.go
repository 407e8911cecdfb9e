package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/usecase"
	"github.com/whoknows/weather/pkg/metrics"
)

// verdict — что делать с оффсетом после попытки обработки.
type verdict int

const (
	verdictCommit verdict = iota // коммитим и читаем дальше
	verdictRetry                 // повторяем то же сообщение
	verdictStop                  // выходим без коммита
)

// handleMessage обрабатывает одну подсказку и решает судьбу оффсета.
func (c *Consumer) handleMessage(ctx context.Context, topic string, msg *kafka.Message) verdict {
	ctxTimeout, cancel := context.WithTimeout(ctx, c.processTimeout)
	err := c.refresher.RefreshFromMessage(ctxTimeout, msg.Value)
	cancel()

	switch {
	case err == nil:
		metrics.KafkaMessagesProcessed.WithLabelValues(topic).Inc()
		return verdictCommit
	case errors.Is(err, usecase.ErrInvalidMessage):
		// Невалидные данные: повтор ничего не даст
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		c.log.Warnf(ctx, "invalid message offset=%d: %v (skipped)", msg.Offset, err)
		return verdictCommit
	case ctx.Err() != nil, errors.Is(err, usecase.ErrServiceClosed):
		c.log.Warnf(ctx, "refresh interrupted offset=%d: %v (not committed)", msg.Offset, err)
		return verdictStop
	case domain.ProviderErrorKindOf(err) != "":
		// Провайдер недоступен: подсказка best-effort, следующий запрос всё равно обновит запись
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		c.log.Warnf(ctx, "refresh failed offset=%d: %v (committed)", msg.Offset, err)
		return verdictCommit
	default:
		// Не уложились в processTimeout
		metrics.KafkaMessagesFailed.WithLabelValues(topic).Inc()
		c.log.Warnf(ctx, "process failed offset=%d: %v", msg.Offset, err)
		return verdictRetry
	}
}

// commitSafely пытается закоммитить оффсет и залогировать ошибку.
func (c *Consumer) commitSafely(ctx context.Context, msg *kafka.Message) {
	if commitErr := c.reader.CommitMessages(ctx, *msg); commitErr != nil {
		c.log.Warnf(ctx, "commit failed offset=%d: %v", msg.Offset, commitErr)
	}
}

// sleepWithBackoff ждет backoff или останавливается по контексту.
func (c *Consumer) sleepWithBackoff(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// nextBackoff возвращает следующее время ожидания повтора с учетом retryMax.
func (c *Consumer) nextBackoff(current time.Duration) time.Duration {
	current *= 2
	if current > c.retryMax {
		return c.retryMax
	}
	return current
}

// withJitterEqual — умеренная случайность: половина задержки фиксирована,
// вторая половина — случайная. Баланс между стабильностью и случайностью.
func (c *Consumer) withJitterEqual(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	jitter := time.Duration(c.jitterRand.Int63n(int64(d-half) + 1))
	return half + jitter
}
