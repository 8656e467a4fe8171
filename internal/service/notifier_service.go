package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
	"github.com/spec-kit/p2p-exchange-bot/internal/events"
	"github.com/spec-kit/p2p-exchange-bot/internal/repository"
	"github.com/spec-kit/p2p-exchange-bot/internal/telegram"
)

// NotifierService pushes deal lifecycle notifications to the counterparty.
// The webhook reply only reaches the acting user; the other side of the
// deal learns about it through these messages. Delivery is best effort and
// never fails the originating command.
type NotifierService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	client     *telegram.Client
	logger     *zap.Logger
}

// NewNotifierService creates the service.
func NewNotifierService(dispatcher events.Dispatcher, users repository.UserRepository, client *telegram.Client, logger *zap.Logger) *NotifierService {
	return &NotifierService{
		dispatcher: dispatcher,
		users:      users,
		client:     client,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to deal lifecycle events.
func (n *NotifierService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventDealCreated, n.handleDealCreated)
	n.dispatcher.Subscribe(events.EventDealCompleted, n.handleDealStatusChanged)
	n.dispatcher.Subscribe(events.EventDealDisputed, n.handleDealStatusChanged)
}

func (n *NotifierService) handleDealCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DealCreatedPayload)
	if !ok {
		return nil
	}
	text := fmt.Sprintf("🔒 Deal #%d opened against your offer: %s %s at %s. Funds are in escrow.",
		payload.DealID, payload.Amount.StringFixed(0), payload.Currency, payload.Price.StringFixed(2))
	n.notify(ctx, payload.SellerID, text)
	return nil
}

func (n *NotifierService) handleDealStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DealStatusChangedPayload)
	if !ok {
		return nil
	}

	counterparty := payload.SellerID
	if event.ActorID == payload.SellerID {
		counterparty = payload.BuyerID
	}

	var text string
	switch payload.NewStatus {
	case domain.DealStatusCompleted:
		text = fmt.Sprintf("✅ Deal #%d was completed by the other party.", payload.DealID)
	case domain.DealStatusDispute:
		text = fmt.Sprintf("⚠️ A dispute was opened on deal #%d. An administrator will contact you.", payload.DealID)
	default:
		return nil
	}
	n.notify(ctx, counterparty, text)
	return nil
}

func (n *NotifierService) notify(ctx context.Context, userID int64, text string) {
	if n.client == nil || !n.client.Configured() {
		return
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("notification target lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	msg := telegram.SendMessage{
		ChatID:    user.TelegramID,
		Text:      text,
		ParseMode: "HTML",
	}
	if err := n.client.SendMessage(ctx, msg); err != nil {
		n.logger.Warn("notification delivery failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}
