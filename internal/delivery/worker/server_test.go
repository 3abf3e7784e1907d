package worker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/delivery/worker/handler"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/constants"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSalesUsecase struct {
	mock.Mock
}

func (m *mockSalesUsecase) HandleCheckoutEvent(ctx context.Context, event *entity.CheckoutEvent) (*usecase.SalesReport, error) {
	args := m.Called(ctx, event)
	report, _ := args.Get(0).(*usecase.SalesReport)

	return report, args.Error(1)
}

func newTestHandler(salesUC usecase.SalesUsecase) (*handler.CheckoutHandler, *config.Config, *slog.Logger) {
	cfg := &config.Config{PubSub: &config.PubSubConfig{Provider: constants.PubSubProviderLocal}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return handler.NewCheckoutHandler(handler.CheckoutHandlerParams{
		Config:  cfg,
		Logger:  logger,
		SalesUC: salesUC,
	}), cfg, logger
}

func pushBody(t *testing.T, data string, attributes map[string]string) string {
	t.Helper()

	var msg handler.PubSubMessage
	msg.Message.Data = data
	msg.Message.Attributes = attributes
	msg.Message.MessageID = "1"
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return string(body)
}

func encodedEvent(t *testing.T, event *entity.CheckoutEvent) string {
	t.Helper()

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(raw)
}

func TestPush(t *testing.T) {
	event := &entity.CheckoutEvent{
		CheckoutID: uuid.New(),
		Items:      []entity.CheckoutEventItem{{ProductID: uuid.New(), StoreID: uuid.New(), Quantity: 1}},
	}

	tests := []struct {
		name       string
		body       func(t *testing.T) string
		result     error
		called     bool
		wantStatus int
	}{
		{
			name:       "processed",
			body:       func(t *testing.T) string { return pushBody(t, encodedEvent(t, event), nil) },
			called:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "database outage is retried",
			body:       func(t *testing.T) string { return pushBody(t, encodedEvent(t, event), nil) },
			result:     errors.New("connection refused"),
			called:     true,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "invalid event is acknowledged",
			body:       func(t *testing.T) string { return pushBody(t, encodedEvent(t, event), nil) },
			result:     errors.WithStack(domainerrors.ErrValidationFailed),
			called:     true,
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad base64",
			body:       func(t *testing.T) string { return pushBody(t, "%%%", nil) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad event json",
			body:       func(t *testing.T) string { return pushBody(t, base64.StdEncoding.EncodeToString([]byte("{")), nil) },
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salesUC := &mockSalesUsecase{}
			if tt.called {
				report := &usecase.SalesReport{CheckoutID: event.CheckoutID}
				if tt.result != nil {
					report = nil
				}
				salesUC.On("HandleCheckoutEvent", mock.Anything, mock.MatchedBy(func(got *entity.CheckoutEvent) bool {
					return got.CheckoutID == event.CheckoutID
				})).Return(report, tt.result).Once()
			}

			h, cfg, logger := newTestHandler(salesUC)
			e := NewEcho(cfg, logger, h)

			req := httptest.NewRequest(http.MethodPost, PushPath, strings.NewReader(tt.body(t)))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			salesUC.AssertExpectations(t)
		})
	}
}

func TestProcess_RequestIDFromAttributes(t *testing.T) {
	salesUC := &mockSalesUsecase{}
	salesUC.On("HandleCheckoutEvent", mock.MatchedBy(func(ctx context.Context) bool {
		return deliverycontext.GetRequestIDFromContext(ctx) == "from-attributes"
	}), mock.Anything).Return(&usecase.SalesReport{}, nil).Once()

	h, _, _ := newTestHandler(salesUC)
	raw, err := json.Marshal(&entity.CheckoutEvent{CheckoutID: uuid.New(), RequestID: "from-event"})
	require.NoError(t, err)

	require.NoError(t, h.Process(context.Background(), raw, map[string]string{"request_id": "from-attributes"}))
	salesUC.AssertExpectations(t)
}

// fakeAcknowledger records how a delivery was settled.
type fakeAcknowledger struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.acked = true

	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue

	return nil
}

func (a *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	return a.Nack(0, false, requeue)
}

type stubProcessor struct {
	err        error
	attributes map[string]string
}

func (p *stubProcessor) Process(_ context.Context, _ []byte, attributes map[string]string) error {
	p.attributes = attributes

	return p.err
}

func TestQueueConsumer_Handle(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	settle := func(err error) (*fakeAcknowledger, *stubProcessor) {
		ack := &fakeAcknowledger{}
		processor := &stubProcessor{err: err}
		c := &queueConsumer{logger: logger, processor: processor}
		c.handle(context.Background(), amqp.Delivery{
			Acknowledger:  ack,
			DeliveryTag:   1,
			CorrelationId: "corr-1",
			Headers:       amqp.Table{"event_type": "checkout.completed", "attempt": int32(2)},
			Body:          []byte("{}"),
		})

		return ack, processor
	}

	ack, processor := settle(nil)
	assert.True(t, ack.acked)
	assert.Equal(t, map[string]string{"event_type": "checkout.completed", "request_id": "corr-1"}, processor.attributes)

	ack, _ = settle(errors.New("malformed"))
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeue)

	// Failures the handler classifies as retryable go back on the queue.
	salesUC := &mockSalesUsecase{}
	salesUC.On("HandleCheckoutEvent", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()
	h, _, _ := newTestHandler(salesUC)
	raw, err := json.Marshal(&entity.CheckoutEvent{CheckoutID: uuid.New()})
	require.NoError(t, err)

	retryAck := &fakeAcknowledger{}
	c := &queueConsumer{logger: logger, processor: h}
	c.handle(context.Background(), amqp.Delivery{Acknowledger: retryAck, DeliveryTag: 2, Body: raw})
	assert.True(t, retryAck.nacked)
	assert.True(t, retryAck.requeue)
}

func TestQueueConsumer_DisabledProvider(t *testing.T) {
	c := &queueConsumer{
		cfg:    &config.Config{PubSub: &config.PubSubConfig{Provider: constants.PubSubProviderGoogle}},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	assert.NoError(t, c.Serve(context.Background()))
}
