package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a seller's standing listing of price and transaction-size bounds.
// Immutable after creation except for IsActive, which flips to false once
// the offer is consumed by a deal.
type Offer struct {
	ID        int64
	SellerID  int64
	Price     decimal.Decimal
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Currency  string
	IsActive  bool
	CreatedAt time.Time
}

// OfferListing joins an active offer with the seller summary shown to
// browsing buyers.
type OfferListing struct {
	Offer
	SellerName           string
	SellerRating         decimal.Decimal
	SellerCompletedDeals int
}
