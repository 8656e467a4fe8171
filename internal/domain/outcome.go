package domain

// OutcomeKind tags the result of a handled command or action.
type OutcomeKind string

const (
	OutcomeMainMenu      OutcomeKind = "main_menu"
	OutcomeProfile       OutcomeKind = "profile"
	OutcomeBalance       OutcomeKind = "balance"
	OutcomeOffers        OutcomeKind = "offers"
	OutcomeSellForm      OutcomeKind = "sell_form"
	OutcomeOfferCreated  OutcomeKind = "offer_created"
	OutcomeDeals         OutcomeKind = "deals"
	OutcomeDealCreated   OutcomeKind = "deal_created"
	OutcomeDealCompleted OutcomeKind = "deal_completed"
	OutcomeDisputeOpened OutcomeKind = "dispute_opened"
	OutcomeRejected      OutcomeKind = "rejected"
)

// Rejection carries a recoverable failure surfaced to the user instead of
// the transport layer: validation problems, unknown offers/deals, callers
// outside a deal, stale transitions, wrong trading mode.
type Rejection struct {
	Code    string
	Message string
}

// Outcome is the tagged result the core hands to the presentation adapter.
// Only the fields relevant to Kind are populated; User is always set for
// outcomes that render the caller's mode or stats.
type Outcome struct {
	Kind      OutcomeKind
	User      *User
	Offers    []OfferListing
	Deals     []DealView
	Offer     *Offer
	Deal      *Deal
	Rejection *Rejection
}
