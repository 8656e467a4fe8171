package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
	"github.com/spec-kit/p2p-exchange-bot/internal/events"
	"github.com/spec-kit/p2p-exchange-bot/internal/repository"
	apperrors "github.com/spec-kit/p2p-exchange-bot/pkg/util"
)

// OfferService owns seller listings.
type OfferService struct {
	offers     repository.OfferRepository
	dispatcher events.Dispatcher
}

// OfferInput describes an offer submission.
type OfferInput struct {
	Price     decimal.Decimal
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Currency  string
}

// NewOfferService constructs the service.
func NewOfferService(offers repository.OfferRepository, dispatcher events.Dispatcher) *OfferService {
	return &OfferService{offers: offers, dispatcher: dispatcher}
}

// Create validates and inserts an active offer for the seller. A seller may
// post unlimited concurrent offers.
func (s *OfferService) Create(ctx context.Context, sellerID int64, input OfferInput) (*domain.Offer, error) {
	if err := validateOfferInput(input); err != nil {
		return nil, err
	}

	offer := &domain.Offer{
		SellerID:  sellerID,
		Price:     input.Price,
		MinAmount: input.MinAmount,
		MaxAmount: input.MaxAmount,
		Currency:  strings.TrimSpace(input.Currency),
	}
	if err := s.offers.Create(ctx, offer); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventOfferCreated,
		ActorID: sellerID,
		Payload: events.OfferCreatedPayload{
			OfferID:   offer.ID,
			SellerID:  offer.SellerID,
			Price:     offer.Price,
			MinAmount: offer.MinAmount,
			MaxAmount: offer.MaxAmount,
			Currency:  offer.Currency,
		},
	})
	return offer, nil
}

// ListActive returns the cheapest active offers joined with seller
// summaries for buyer browsing.
func (s *OfferService) ListActive(ctx context.Context, limit int) ([]domain.OfferListing, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.offers.ListActive(ctx, limit)
}

// GetActive fetches an offer that still accepts deals.
func (s *OfferService) GetActive(ctx context.Context, id int64) (*domain.Offer, error) {
	offer, err := s.offers.GetActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("offer", map[string]any{"offer_id": id})
		}
		return nil, err
	}
	return offer, nil
}

func validateOfferInput(input OfferInput) error {
	if !input.Price.IsPositive() {
		return apperrors.NewValidationError("price must be positive", map[string]any{"price": input.Price.String()})
	}
	if !input.MinAmount.IsPositive() {
		return apperrors.NewValidationError("minimum amount must be positive", map[string]any{"min_amount": input.MinAmount.String()})
	}
	if input.MinAmount.GreaterThan(input.MaxAmount) {
		return apperrors.NewValidationError("minimum amount exceeds maximum", map[string]any{
			"min_amount": input.MinAmount.String(),
			"max_amount": input.MaxAmount.String(),
		})
	}
	if strings.TrimSpace(input.Currency) == "" {
		return apperrors.NewValidationError("currency is required", nil)
	}
	return nil
}

func (s *OfferService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
