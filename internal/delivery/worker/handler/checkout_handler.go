// Package handler contains the handlers of the worker delivery.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brunoeugeniodev/NaLojaTem/config"
	deliverycontext "github.com/brunoeugeniodev/NaLojaTem/internal/delivery/context"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/constants"
	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/entity"
	domainerrors "github.com/brunoeugeniodev/NaLojaTem/internal/domain/errors"
	"github.com/brunoeugeniodev/NaLojaTem/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// PubSubMessage represents the structure of a Pub/Sub push message
type PubSubMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// retryableError marks a failure the broker should redeliver.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.err)
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// IsRetryable reports whether err should trigger a redelivery.
func IsRetryable(err error) bool {
	var re *retryableError

	return errors.As(err, &re)
}

// classify marks every failure that is not a business error as retryable:
// a bad event will never succeed, a database outage might.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	return &retryableError{err: err}
}

// CheckoutHandler processes checkout events delivered by push or by queue.
type CheckoutHandler struct {
	verifyPushAuth bool
	logger         *slog.Logger
	salesUC        usecase.SalesUsecase
}

// CheckoutHandlerParams holds dependencies for the CheckoutHandler
type CheckoutHandlerParams struct {
	fx.In

	Config  *config.Config
	Logger  *slog.Logger
	SalesUC usecase.SalesUsecase
}

// NewCheckoutHandler creates a new checkout event handler
func NewCheckoutHandler(params CheckoutHandlerParams) *CheckoutHandler {
	// Only Google signs its push requests, and not in the develop environment.
	verifyPushAuth := params.Config.PubSub != nil &&
		params.Config.PubSub.Provider == constants.PubSubProviderGoogle &&
		params.Config.Env.Env != constants.EnvDevelop

	return &CheckoutHandler{
		verifyPushAuth: verifyPushAuth,
		logger:         params.Logger,
		salesUC:        params.SalesUC,
	}
}

// HandlePush answers a Pub/Sub push request. 503 asks Pub/Sub to retry; any
// other status acknowledges the message.
func (h *CheckoutHandler) HandlePush(c echo.Context) error {
	if h.verifyPushAuth {
		if err := verifyPubSubToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg PubSubMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	err = h.Process(c.Request().Context(), data, pushMsg.Message.Attributes)
	if IsRetryable(err) {
		return c.NoContent(http.StatusServiceUnavailable)
	}
	if err != nil && errors.Is(err, errMalformedEvent) {
		return c.NoContent(http.StatusBadRequest)
	}

	// Business failures are acknowledged so they are not redelivered forever.
	return c.NoContent(http.StatusOK)
}

var errMalformedEvent = errors.New("malformed checkout event")

// Process decodes one checkout event and hands it to the sales usecase. The
// returned error is retryable when redelivery may succeed.
func (h *CheckoutHandler) Process(ctx context.Context, data []byte, attributes map[string]string) error {
	var event entity.CheckoutEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to parse checkout event", slog.Any("error", err))

		return errors.Wrap(errMalformedEvent, err.Error())
	}

	requestID := extractRequestID(ctx, attributes, &event)
	ctx, reqLogger := deliverycontext.Scope(ctx, h.logger, requestID)

	reqLogger.Info("[Worker] Processing checkout event",
		slog.String("checkout_id", event.CheckoutID.String()),
		slog.Int("items", len(event.Items)),
	)

	report, err := h.salesUC.HandleCheckoutEvent(ctx, &event)
	if err = classify(err); err != nil {
		reqLogger.Error("[Worker] Failed to process checkout event",
			slog.String("checkout_id", event.CheckoutID.String()),
			slog.Any("error", err),
			slog.Bool("retryable", IsRetryable(err)),
		)

		return err
	}

	reqLogger.Info("[Worker] Checkout event processed",
		slog.String("checkout_id", event.CheckoutID.String()),
		slog.Int("stores", len(report.Sales)),
		slog.Int("skipped_items", report.SkippedItems),
	)

	return nil
}

// extractRequestID prefers message attributes, then the event payload, then
// the X-Request-Id of the push request, and finally generates one.
func extractRequestID(ctx context.Context, attributes map[string]string, event *entity.CheckoutEvent) string {
	if requestID := attributes["request_id"]; requestID != "" {
		return requestID
	}
	if event.RequestID != "" {
		return event.RequestID
	}
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.New().String()
}

// verifyPubSubToken verifies the JWT token from Google Pub/Sub push requests
// Reference: https://cloud.google.com/pubsub/docs/push#authenticating_standard_push_requests
func verifyPubSubToken(req *http.Request) error {
	const bearerPrefix = "Bearer "

	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		return errors.New("missing authorization header")
	}
	token, ok := strings.CutPrefix(authHeader, bearerPrefix)
	if !ok {
		return errors.New("invalid authorization header format")
	}

	// The audience is the URL of this endpoint.
	scheme := "https"
	if req.TLS == nil {
		scheme = "http"
	}
	audience := fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)

	payload, err := idtoken.Validate(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}
	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	return nil
}
