package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"

	"github.com/whoknows/weather/internal/domain"
	"github.com/whoknows/weather/internal/kafka/mocks"
	"github.com/whoknows/weather/internal/usecase"
)

type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

var testRC = kafka.ReaderConfig{Topic: "weather-refresh", GroupID: "g1", Brokers: []string{"b:9092"}}

// runAsync запускает Consumer.Run в отдельном горутине и возвращает канал с ошибкой.
func runAsync(ctx context.Context, c *Consumer) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	return errCh
}

func newTestConsumer(r reader, s refresher) *Consumer {
	return &Consumer{
		reader: r, refresher: s, log: nopLogger{},
		processTimeout: 30 * time.Millisecond,
		retryInitial:   5 * time.Millisecond,
		retryMax:       10 * time.Millisecond,
		jitterRand:     rand.New(rand.NewSource(1)),
	}
}

// expectBlockingFetch — следующий FetchMessage блокируется до отмены контекста.
func expectBlockingFetch(r *mocks.Mockreader) {
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		})
}

// runBriefly — даёт циклу обработать первое сообщение и останавливает его.
func runBriefly(t *testing.T, c *Consumer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, c)

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for Run to stop")
	}
}

// Успешное обновление + коммит
func TestRun_OK_Commits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockrefresher(ctrl)

	r.EXPECT().Config().Return(testRC).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 1, Value: []byte(`{"city":"Paris"}`)}, nil)
	s.EXPECT().RefreshFromMessage(gomock.Any(), []byte(`{"city":"Paris"}`)).Return(nil)
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)
	expectBlockingFetch(r)

	runBriefly(t, newTestConsumer(r, s))
}

// Невалидная подсказка => тоже коммитим (чтобы не ретраить мусор)
func TestRun_InvalidMessage_Commits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockrefresher(ctrl)

	r.EXPECT().Config().Return(testRC).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 7, Value: []byte("bad")}, nil)
	s.EXPECT().RefreshFromMessage(gomock.Any(), []byte("bad")).
		Return(fmt.Errorf("%w: invalid json", usecase.ErrInvalidMessage))
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)
	expectBlockingFetch(r)

	runBriefly(t, newTestConsumer(r, s))
}

// Отказ провайдера => коммитим: подсказки best-effort
func TestRun_ProviderFailure_Commits(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockrefresher(ctrl)

	r.EXPECT().Config().Return(testRC).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 4, Value: []byte(`{"city":"Paris"}`)}, nil)
	s.EXPECT().RefreshFromMessage(gomock.Any(), gomock.Any()).
		Return(domain.NewStatusError(503, nil))
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)
	expectBlockingFetch(r)

	runBriefly(t, newTestConsumer(r, s))
}

// Не уложились в processTimeout => то же сообщение повторяется до коммита,
// следующий FetchMessage только после него
func TestRun_ProcessTimeout_RetriesSameOffsetBeforeNextFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockrefresher(ctrl)

	r.EXPECT().Config().Return(testRC).AnyTimes()
	gomock.InOrder(
		r.EXPECT().FetchMessage(gomock.Any()).
			Return(kafka.Message{Offset: 2, Value: []byte(`{"city":"Paris"}`)}, nil),
		s.EXPECT().RefreshFromMessage(gomock.Any(), []byte(`{"city":"Paris"}`)).Return(context.DeadlineExceeded),
		s.EXPECT().RefreshFromMessage(gomock.Any(), []byte(`{"city":"Paris"}`)).Return(nil),
		r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
				if len(msgs) != 1 || msgs[0].Offset != 2 {
					t.Errorf("want commit of offset 2, got %+v", msgs)
				}
				return nil
			}),
		r.EXPECT().FetchMessage(gomock.Any()).
			DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
				<-ctx.Done()
				return kafka.Message{}, ctx.Err()
			}),
	)

	runBriefly(t, newTestConsumer(r, s))
}

// Таймаут повторяется до остановки => без коммита и без чтения следующего сообщения
func TestRun_ProcessTimeout_NoCommitUntilCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockrefresher(ctrl)

	r.EXPECT().Config().Return(testRC).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 2, Value: []byte("x")}, nil).Times(1)
	s.EXPECT().RefreshFromMessage(gomock.Any(), []byte("x")).Return(context.DeadlineExceeded).MinTimes(2)
	// CommitMessages не ожидается: лишний вызов уронит тест как "unexpected call".

	runBriefly(t, newTestConsumer(r, s))
}

// Сервис остановлен => Run завершается без коммита, подсказку получит следующий консьюмер
func TestRun_ServiceClosed_StopsWithoutCommit(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockrefresher(ctrl)

	r.EXPECT().Config().Return(testRC).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 5, Value: []byte(`{"city":"Oslo"}`)}, nil).Times(1)
	s.EXPECT().RefreshFromMessage(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("refresh Oslo: %w", usecase.ErrServiceClosed)).Times(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := newTestConsumer(r, s).Run(ctx); !errors.Is(err, usecase.ErrServiceClosed) {
		t.Fatalf("want ErrServiceClosed, got %v", err)
	}
}

// Ошибки FetchMessage ретраятся; по отмене контекста — корректный выход
func TestRun_FetchError_RetryThenStopOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockrefresher(ctrl)

	r.EXPECT().Config().Return(testRC).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(_ context.Context) (kafka.Message, error) {
			return kafka.Message{}, errors.New("broker error")
		}).AnyTimes()

	c := newTestConsumer(r, s)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	if err := c.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}

// CommitMessages вернул ошибку — получаем предупреждение; цикл живёт дальше
func TestRun_CommitWarnOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockrefresher(ctrl)

	r.EXPECT().Config().Return(testRC).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 3, Value: []byte("ok")}, nil)
	s.EXPECT().RefreshFromMessage(gomock.Any(), []byte("ok")).Return(nil)
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).
		Return(errors.New("temporary"))
	expectBlockingFetch(r)

	runBriefly(t, newTestConsumer(r, s))
}

func TestClose_DelegatesToReaderOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockrefresher(ctrl)

	r.EXPECT().Close().Return(nil).Times(1)

	c := newTestConsumer(r, s)
	if err := c.Close(); err != nil {
		t.Fatalf("expected nil from Close, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close must be a no-op, got %v", err)
	}
}

func TestBackoffHelpers(t *testing.T) {
	c := newTestConsumer(nil, nil)

	if got := c.nextBackoff(4 * time.Millisecond); got != 8*time.Millisecond {
		t.Fatalf("nextBackoff: got %s", got)
	}
	if got := c.nextBackoff(8 * time.Millisecond); got != c.retryMax {
		t.Fatalf("nextBackoff must cap at retryMax, got %s", got)
	}
	for i := 0; i < 50; i++ {
		d := c.withJitterEqual(10 * time.Millisecond)
		if d < 5*time.Millisecond || d > 10*time.Millisecond {
			t.Fatalf("withJitterEqual out of range: %s", d)
		}
	}
}
