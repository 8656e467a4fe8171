package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealStatus enumerates lifecycle states for deals.
type DealStatus string

const (
	// DealStatusPending is kept for schema completeness; no flow assigns it.
	DealStatusPending   DealStatus = "pending"
	DealStatusEscrow    DealStatus = "escrow"
	DealStatusCompleted DealStatus = "completed"
	// DealStatusCancelled is reserved; no transition currently produces it.
	DealStatusCancelled DealStatus = "cancelled"
	DealStatusDispute   DealStatus = "dispute"
)

// Deal is a concrete agreement between one buyer and one seller derived
// from an offer. Amount, price and currency are frozen at creation and
// never recalculated from the live offer.
type Deal struct {
	ID        int64
	OfferID   int64
	BuyerID   int64
	SellerID  int64
	Amount    decimal.Decimal
	Price     decimal.Decimal
	Currency  string
	Status    DealStatus
	CreatedAt time.Time
}

// IsParticipant reports whether the given user is the deal's buyer or
// seller. Complete and dispute are authorized by membership, not by role.
func (d *Deal) IsParticipant(userID int64) bool {
	return d.BuyerID == userID || d.SellerID == userID
}

var allowedTransitions = map[DealStatus][]DealStatus{
	DealStatusPending:   {},
	DealStatusEscrow:    {DealStatusCompleted, DealStatusDispute},
	DealStatusCompleted: {},
	DealStatusCancelled: {},
	DealStatusDispute:   {},
}

// CanTransition reports whether moving a deal from current to next is
// permitted. Dispute can be entered only from escrow; completed, cancelled
// and dispute are terminal within the core.
func CanTransition(current, next DealStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// DealView joins a deal with the display names of both participants for
// the deals listing.
type DealView struct {
	Deal
	BuyerName  string
	SellerName string
}
