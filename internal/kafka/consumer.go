package kafka

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/whoknows/weather/internal/ports"
	"github.com/whoknows/weather/internal/usecase"
	"github.com/whoknows/weather/pkg/metrics"
)

// Проверка, что Consumer удовлетворяет интерфейсу верхнего уровня (порт приложения).
var _ ports.MessageConsumer = (*Consumer)(nil)

// reader — минимальный контракт над источником (kafka.Reader),
// чтобы легко подменять его моками в тестах.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// refresher — зависимость на оркестратор, который
// парсит/валидирует подсказку и синхронно обновляет запись кэша.
type refresher interface {
	RefreshFromMessage(ctx context.Context, raw []byte) error
}

// Consumer — обёртка над kafka.Reader + зависимостями (usecase, logger).
// Подсказки best-effort: оффсет не коммитится только пока обработку прерывает
// таймаут, контекст или остановка сервиса.
type Consumer struct {
	reader         reader
	refresher      refresher
	log            ports.Logger
	processTimeout time.Duration
	retryInitial   time.Duration
	retryMax       time.Duration
	jitterRand     *rand.Rand
	closeOnce      sync.Once
}

// NewConsumer — конструктор. readerConfig() настроен на ручной коммит оффсетов.
func NewConsumer(cfg *ConsumerConfig, r refresher, log ports.Logger) *Consumer {
	reader := kafka.NewReader(cfg.ReaderConfig())

	// Параметры по умолчанию (если не заданы в конфиге)
	pt := cfg.ProcessTimeout
	if pt <= 0 {
		pt = 5 * time.Second
	}

	rInit := cfg.RetryInitial
	if rInit <= 0 {
		rInit = 1 * time.Second
	}

	rMax := cfg.RetryMax
	if rMax <= 0 {
		rMax = 30 * time.Second
	}

	return &Consumer{
		reader:         reader,
		refresher:      r,
		log:            log,
		processTimeout: pt,
		retryInitial:   rInit,
		retryMax:       rMax,
		// jitterRand — источник случайности, чтобы рассинхронизировать экспоненциальный backoff.
		jitterRand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run — читает подсказки без авто-коммита и обрабатывает их строго по одной.
// Оффсет коммитится, когда подсказка обработана, невалидна или провайдер ответил отказом.
// Прерванную по таймауту подсказку Run повторяет с backoff до коммита, следующее
// сообщение не читается: иначе его коммит сдвинул бы оффсет группы за пропущенное.
// Остановка сервиса завершает Run без коммита, подсказку получит следующий консьюмер группы.
func (c *Consumer) Run(ctx context.Context) error {
	rc := c.reader.Config()
	c.log.Infof(ctx, "refresh consumer started topic=%s group_id=%s brokers=%v", rc.Topic, rc.GroupID, rc.Brokers)

	fetchRetry := c.retryInitial
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Временная ошибка брокера/сети
			sleep := c.withJitterEqual(fetchRetry)
			c.log.Warnf(ctx, "fetch failed: %v (will retry in %s)", err, sleep)
			if !c.sleepWithBackoff(ctx, sleep) {
				return ctx.Err()
			}
			fetchRetry = c.nextBackoff(fetchRetry)
			continue
		}

		fetchRetry = c.retryInitial
		metrics.KafkaMessagesConsumed.WithLabelValues(rc.Topic).Inc()

		if err := c.process(ctx, rc.Topic, &msg); err != nil {
			return err
		}
	}
}

// process — обрабатывает одно сообщение до коммита. Возвращает ошибку,
// только если обработку нужно прекратить без коммита.
func (c *Consumer) process(ctx context.Context, topic string, msg *kafka.Message) error {
	backoff := c.retryInitial
	for attempt := 1; ; attempt++ {
		switch c.handleMessage(ctx, topic, msg) {
		case verdictCommit:
			c.commitSafely(ctx, msg)
			return nil
		case verdictStop:
			if err := ctx.Err(); err != nil {
				return err
			}
			return fmt.Errorf("refresh consumer stopped at offset=%d: %w", msg.Offset, usecase.ErrServiceClosed)
		}

		sleep := c.withJitterEqual(backoff)
		c.log.Warnf(ctx, "retrying offset=%d attempt=%d in %s", msg.Offset, attempt+1, sleep)
		if !c.sleepWithBackoff(ctx, sleep) {
			return ctx.Err()
		}
		backoff = c.nextBackoff(backoff)
	}
}

// Close - закрывает reader. Вызывается при остановке приложения.
func (c *Consumer) Close() (retErr error) {
	c.closeOnce.Do(func() {
		retErr = c.reader.Close()
	})
	return retErr
}
