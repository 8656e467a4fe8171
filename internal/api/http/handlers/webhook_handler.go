package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/p2p-exchange-bot/internal/observability"
	"github.com/spec-kit/p2p-exchange-bot/internal/persistence"
	"github.com/spec-kit/p2p-exchange-bot/internal/service"
	"github.com/spec-kit/p2p-exchange-bot/internal/telegram"
	apperrors "github.com/spec-kit/p2p-exchange-bot/pkg/util"
)

// WebhookHandler receives Telegram updates and answers them with the
// rendered outcome, using the "reply with method payload" convention.
type WebhookHandler struct {
	exchange *service.ExchangeService
	redis    *persistence.Redis
	client   *telegram.Client
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(exchange *service.ExchangeService, redis *persistence.Redis, client *telegram.Client, metrics *observability.Metrics, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		exchange: exchange,
		redis:    redis,
		client:   client,
		metrics:  metrics,
		logger:   logger,
	}
}

// Handle processes POST /telegram/webhook.
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	var update telegram.Update
	if err := c.BodyParser(&update); err != nil {
		return apperrors.NewValidationError("malformed update payload", nil)
	}

	ctx := c.UserContext()

	if h.redis.SeenUpdate(ctx, update.UpdateID) {
		h.metrics.RecordUpdate("duplicate")
		return c.JSON(fiber.Map{"ok": true})
	}

	switch {
	case update.Message != nil && update.Message.From != nil:
		h.metrics.RecordUpdate("message")
		ident := service.Identity{
			TelegramID:  update.Message.From.ID,
			DisplayName: update.Message.From.DisplayName(),
		}
		outcome, err := h.exchange.HandleCommand(ctx, ident, update.Message.Text)
		if err != nil {
			return err
		}
		h.metrics.RecordOutcome(string(outcome.Kind))
		return c.JSON(RenderOutcome(update.Message.Chat.ID, outcome))

	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		h.metrics.RecordUpdate("callback_query")
		callback := update.CallbackQuery
		h.acknowledge(callback.ID)

		chatID := callback.From.ID
		if callback.Message != nil {
			chatID = callback.Message.Chat.ID
		}

		ident := service.Identity{
			TelegramID:  callback.From.ID,
			DisplayName: callback.From.DisplayName(),
		}
		outcome, err := h.exchange.HandleAction(ctx, ident, callback.Data)
		if err != nil {
			return err
		}
		h.metrics.RecordOutcome(string(outcome.Kind))
		return c.JSON(RenderOutcome(chatID, outcome))
	}

	h.metrics.RecordUpdate("ignored")
	return c.JSON(fiber.Map{"ok": true})
}

// acknowledge clears the client-side progress indicator. Best effort; the
// webhook reply must not wait on the Bot API.
func (h *WebhookHandler) acknowledge(callbackID string) {
	if h.client == nil || !h.client.Configured() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.client.AnswerCallbackQuery(ctx, callbackID); err != nil {
			h.logger.Debug("callback ack failed", zap.Error(err))
		}
	}()
}
