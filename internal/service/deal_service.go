package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
	"github.com/spec-kit/p2p-exchange-bot/internal/events"
	"github.com/spec-kit/p2p-exchange-bot/internal/repository"
	apperrors "github.com/spec-kit/p2p-exchange-bot/pkg/util"
)

// DealService coordinates the deal state machine: escrow entry on
// initiation, conditional transitions to completed or dispute, settlement
// of participant stats on completion.
type DealService struct {
	deals      repository.DealRepository
	offers     repository.OfferRepository
	dispatcher events.Dispatcher
}

// DealDependencies bundles repositories for the deal service.
type DealDependencies struct {
	DealRepo   repository.DealRepository
	OfferRepo  repository.OfferRepository
	Dispatcher events.Dispatcher
}

// NewDealService constructs the service.
func NewDealService(deps DealDependencies) *DealService {
	return &DealService{
		deals:      deps.DealRepo,
		offers:     deps.OfferRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Initiate creates a deal from an active offer. Seller, price and currency
// are copied from the offer; the escrow lock is immediate and
// unconditional. The requested amount must sit inside the offer bounds and
// defaults to the offer minimum when absent.
func (s *DealService) Initiate(ctx context.Context, buyerID, offerID int64, requested *decimal.Decimal) (*domain.Deal, error) {
	offer, err := s.offers.GetActiveByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("offer", map[string]any{"offer_id": offerID})
		}
		return nil, err
	}
	if offer.SellerID == buyerID {
		return nil, apperrors.NewValidationError("cannot trade on your own offer", map[string]any{"offer_id": offerID})
	}

	amount := offer.MinAmount
	if requested != nil {
		if requested.LessThan(offer.MinAmount) || requested.GreaterThan(offer.MaxAmount) {
			return nil, apperrors.NewValidationError("amount outside offer bounds", map[string]any{
				"amount":     requested.String(),
				"min_amount": offer.MinAmount.String(),
				"max_amount": offer.MaxAmount.String(),
			})
		}
		amount = *requested
	}

	deal := &domain.Deal{
		OfferID:  offer.ID,
		BuyerID:  buyerID,
		SellerID: offer.SellerID,
		Amount:   amount,
		Price:    offer.Price,
		Currency: offer.Currency,
		Status:   domain.DealStatusEscrow,
	}
	if err := s.deals.Create(ctx, deal); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// another buyer consumed the offer first
			return nil, apperrors.NewNotFound("offer", map[string]any{"offer_id": offerID})
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventDealCreated,
		ActorID: buyerID,
		Payload: events.DealCreatedPayload{
			DealID:   deal.ID,
			OfferID:  deal.OfferID,
			BuyerID:  deal.BuyerID,
			SellerID: deal.SellerID,
			Amount:   deal.Amount,
			Price:    deal.Price,
			Currency: deal.Currency,
		},
	})
	return deal, nil
}

// Complete moves a deal from escrow to completed. Either participant may
// call it; the transition settles balance, totals, completed-deal counters
// and rating for both parties in the same transaction.
func (s *DealService) Complete(ctx context.Context, actorID, dealID int64) (*domain.Deal, error) {
	if err := s.authorize(ctx, actorID, dealID, domain.DealStatusCompleted); err != nil {
		return nil, err
	}

	deal, err := s.deals.Complete(ctx, dealID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewStaleTransition("deal already transitioned", map[string]any{"deal_id": dealID})
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventDealCompleted,
		ActorID: actorID,
		Payload: events.DealStatusChangedPayload{
			DealID:    deal.ID,
			BuyerID:   deal.BuyerID,
			SellerID:  deal.SellerID,
			OldStatus: domain.DealStatusEscrow,
			NewStatus: deal.Status,
			Amount:    deal.Amount,
			Currency:  deal.Currency,
		},
	})
	return deal, nil
}

// OpenDispute moves a deal from escrow to dispute. Resolution is an
// administrative process outside the core.
func (s *DealService) OpenDispute(ctx context.Context, actorID, dealID int64) (*domain.Deal, error) {
	if err := s.authorize(ctx, actorID, dealID, domain.DealStatusDispute); err != nil {
		return nil, err
	}

	deal, err := s.deals.OpenDispute(ctx, dealID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewStaleTransition("deal already transitioned", map[string]any{"deal_id": dealID})
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:    events.EventDealDisputed,
		ActorID: actorID,
		Payload: events.DealStatusChangedPayload{
			DealID:    deal.ID,
			BuyerID:   deal.BuyerID,
			SellerID:  deal.SellerID,
			OldStatus: domain.DealStatusEscrow,
			NewStatus: deal.Status,
			Amount:    deal.Amount,
			Currency:  deal.Currency,
		},
	})
	return deal, nil
}

// ListForUser returns the newest deals the user participates in.
func (s *DealService) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.DealView, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.deals.ListForUser(ctx, userID, limit)
}

// authorize loads the deal and checks membership and transition validity
// before any row is touched, so unauthorized callers and stale transitions
// surface as distinct error kinds.
func (s *DealService) authorize(ctx context.Context, actorID, dealID int64, next domain.DealStatus) error {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("deal", map[string]any{"deal_id": dealID})
		}
		return err
	}
	if !deal.IsParticipant(actorID) {
		return apperrors.NewUnauthorized("only deal participants may act on it")
	}
	if !domain.CanTransition(deal.Status, next) {
		return apperrors.NewStaleTransition("deal already transitioned", map[string]any{
			"deal_id": dealID,
			"status":  deal.Status,
		})
	}
	return nil
}

func (s *DealService) publish(ctx context.Context, event events.Event) {
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
