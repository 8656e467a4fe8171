package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOfferCreated  EventType = "offer_created"
	EventDealCreated   EventType = "deal_created"
	EventDealCompleted EventType = "deal_completed"
	EventDealDisputed  EventType = "deal_disputed"
	EventRoleChanged   EventType = "role_changed"
)

// Event represents a domain event emitted by services. ActorID is the user
// whose command produced the event.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   int64       `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// OfferCreatedPayload payload.
type OfferCreatedPayload struct {
	OfferID   int64           `json:"offer_id"`
	SellerID  int64           `json:"seller_id"`
	Price     decimal.Decimal `json:"price"`
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount"`
	Currency  string          `json:"currency"`
}

// DealCreatedPayload payload.
type DealCreatedPayload struct {
	DealID   int64           `json:"deal_id"`
	OfferID  int64           `json:"offer_id"`
	BuyerID  int64           `json:"buyer_id"`
	SellerID int64           `json:"seller_id"`
	Amount   decimal.Decimal `json:"amount"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// DealStatusChangedPayload payload for completion and dispute events.
type DealStatusChangedPayload struct {
	DealID    int64             `json:"deal_id"`
	BuyerID   int64             `json:"buyer_id"`
	SellerID  int64             `json:"seller_id"`
	OldStatus domain.DealStatus `json:"old_status"`
	NewStatus domain.DealStatus `json:"new_status"`
	Amount    decimal.Decimal   `json:"amount"`
	Currency  string            `json:"currency"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}
