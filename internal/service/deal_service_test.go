package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
	apperrors "github.com/spec-kit/p2p-exchange-bot/pkg/util"
)

func TestInitiate_CopiesOfferFieldsAndEntersEscrow(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)
	offer := f.seedOffer(seller.ID, "95.50", "1000", "50000", "USDT")

	deal, err := f.dealSvc.Initiate(context.Background(), buyer.ID, offer.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, offer.ID, deal.OfferID)
	assert.Equal(t, buyer.ID, deal.BuyerID)
	assert.Equal(t, seller.ID, deal.SellerID)
	assert.True(t, deal.Amount.Equal(decimal.RequireFromString("1000")))
	assert.True(t, deal.Price.Equal(decimal.RequireFromString("95.50")))
	assert.Equal(t, "USDT", deal.Currency)
	assert.Equal(t, domain.DealStatusEscrow, deal.Status)
}

func TestInitiate_UnknownOffer(t *testing.T) {
	f := newFixture()
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)

	_, err := f.dealSvc.Initiate(context.Background(), buyer.ID, 404, nil)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	assert.Empty(t, f.deals.byID)
}

func TestInitiate_ConsumesOffer(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)
	rival := f.seedUser(3, "carol", domain.RoleBuyer)
	offer := f.seedOffer(seller.ID, "100", "10", "20", "USDT")

	_, err := f.dealSvc.Initiate(context.Background(), buyer.ID, offer.ID, nil)
	require.NoError(t, err)

	_, err = f.dealSvc.Initiate(context.Background(), rival.ID, offer.ID, nil)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	assert.Len(t, f.deals.byID, 1)
}

func TestInitiate_OwnOfferRejected(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	offer := f.seedOffer(seller.ID, "100", "10", "20", "USDT")

	_, err := f.dealSvc.Initiate(context.Background(), seller.ID, offer.ID, nil)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestInitiate_RequestedAmountBounds(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)

	offer := f.seedOffer(seller.ID, "100", "10", "20", "USDT")
	amount := decimal.RequireFromString("15")
	deal, err := f.dealSvc.Initiate(context.Background(), buyer.ID, offer.ID, &amount)
	require.NoError(t, err)
	assert.True(t, deal.Amount.Equal(amount))

	second := f.seedOffer(seller.ID, "100", "10", "20", "USDT")
	tooBig := decimal.RequireFromString("25")
	_, err = f.dealSvc.Initiate(context.Background(), buyer.ID, second.ID, &tooBig)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	tooSmall := decimal.RequireFromString("5")
	_, err = f.dealSvc.Initiate(context.Background(), buyer.ID, second.ID, &tooSmall)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestComplete_SettlesBothParticipants(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)
	offer := f.seedOffer(seller.ID, "95.50", "1000", "50000", "USDT")

	deal, err := f.dealSvc.Initiate(context.Background(), buyer.ID, offer.ID, nil)
	require.NoError(t, err)

	completed, err := f.dealSvc.Complete(context.Background(), buyer.ID, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DealStatusCompleted, completed.Status)

	sellerAfter, err := f.userSvc.Get(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.True(t, sellerAfter.Balance.Equal(deal.Amount))
	assert.True(t, sellerAfter.TotalSold.Equal(deal.Amount))
	assert.Equal(t, 1, sellerAfter.CompletedDeals)
	assert.True(t, sellerAfter.Rating.Equal(decimal.RequireFromString("0.25")))

	buyerAfter, err := f.userSvc.Get(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.True(t, buyerAfter.Balance.IsZero())
	assert.True(t, buyerAfter.TotalBought.Equal(deal.Amount))
	assert.Equal(t, 1, buyerAfter.CompletedDeals)
}

func TestComplete_DoubleCompletionFails(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)
	offer := f.seedOffer(seller.ID, "100", "10", "20", "USDT")

	deal, err := f.dealSvc.Initiate(context.Background(), buyer.ID, offer.ID, nil)
	require.NoError(t, err)

	_, err = f.dealSvc.Complete(context.Background(), buyer.ID, deal.ID)
	require.NoError(t, err)

	_, err = f.dealSvc.Complete(context.Background(), buyer.ID, deal.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	// settlement applied exactly once
	sellerAfter, err := f.userSvc.Get(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sellerAfter.CompletedDeals)
}

func TestComplete_EitherParticipantMayCall(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)
	offer := f.seedOffer(seller.ID, "100", "10", "20", "USDT")

	deal, err := f.dealSvc.Initiate(context.Background(), buyer.ID, offer.ID, nil)
	require.NoError(t, err)

	completed, err := f.dealSvc.Complete(context.Background(), seller.ID, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DealStatusCompleted, completed.Status)
}

func TestComplete_StrangerUnauthorized(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)
	stranger := f.seedUser(3, "mallory", domain.RoleBuyer)
	offer := f.seedOffer(seller.ID, "100", "10", "20", "USDT")

	deal, err := f.dealSvc.Initiate(context.Background(), buyer.ID, offer.ID, nil)
	require.NoError(t, err)

	_, err = f.dealSvc.Complete(context.Background(), stranger.ID, deal.ID)
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)

	unchanged, err := f.deals.GetByID(context.Background(), deal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DealStatusEscrow, unchanged.Status)
}

func TestOpenDispute_FromEscrowOnly(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)

	offer := f.seedOffer(seller.ID, "100", "10", "20", "USDT")
	deal, err := f.dealSvc.Initiate(context.Background(), buyer.ID, offer.ID, nil)
	require.NoError(t, err)

	disputed, err := f.dealSvc.OpenDispute(context.Background(), seller.ID, deal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DealStatusDispute, disputed.Status)

	// dispute is semi-terminal: completion is no longer possible
	_, err = f.dealSvc.Complete(context.Background(), buyer.ID, deal.ID)
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestOpenDispute_UnknownDeal(t *testing.T) {
	f := newFixture()
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)

	_, err := f.dealSvc.OpenDispute(context.Background(), buyer.ID, 404)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}

func TestListForUser_NewestFirstAndScoped(t *testing.T) {
	f := newFixture()
	seller := f.seedUser(1, "bob", domain.RoleSeller)
	buyer := f.seedUser(2, "alice", domain.RoleBuyer)
	other := f.seedUser(3, "carol", domain.RoleBuyer)

	first := f.seedOffer(seller.ID, "100", "10", "20", "USDT")
	second := f.seedOffer(seller.ID, "101", "10", "20", "USDT")

	d1, err := f.dealSvc.Initiate(context.Background(), buyer.ID, first.ID, nil)
	require.NoError(t, err)
	d2, err := f.dealSvc.Initiate(context.Background(), buyer.ID, second.ID, nil)
	require.NoError(t, err)

	views, err := f.dealSvc.ListForUser(context.Background(), buyer.ID, 10)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, d2.ID, views[0].ID)
	assert.Equal(t, d1.ID, views[1].ID)
	assert.Equal(t, "alice", views[0].BuyerName)
	assert.Equal(t, "bob", views[0].SellerName)

	none, err := f.dealSvc.ListForUser(context.Background(), other.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
