package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
	apperrors "github.com/spec-kit/p2p-exchange-bot/pkg/util"
)

// Identity is the caller as seen in the webhook envelope.
type Identity struct {
	TelegramID  int64
	DisplayName string
}

// ExchangeService is the narrow synchronous API the presentation adapter
// talks to. It resolves the caller, routes commands and callback actions to
// the directory/offer/deal services, and folds recoverable failures into
// rejected outcomes so only store errors reach the transport layer.
type ExchangeService struct {
	users  *UserService
	offers *OfferService
	deals  *DealService

	offersPageSize int
	dealsPageSize  int
}

// ExchangeDependencies bundles the core services.
type ExchangeDependencies struct {
	Users          *UserService
	Offers         *OfferService
	Deals          *DealService
	OffersPageSize int
	DealsPageSize  int
}

// NewExchangeService constructs the service.
func NewExchangeService(deps ExchangeDependencies) *ExchangeService {
	offersPage := deps.OffersPageSize
	if offersPage <= 0 {
		offersPage = 5
	}
	dealsPage := deps.DealsPageSize
	if dealsPage <= 0 {
		dealsPage = 10
	}
	return &ExchangeService{
		users:          deps.Users,
		offers:         deps.Offers,
		deals:          deps.Deals,
		offersPageSize: offersPage,
		dealsPageSize:  dealsPage,
	}
}

// Codes carried by rejected outcomes beyond the error-kind codes.
const (
	RejectionRoleRequired = "ROLE_REQUIRED"
)

// HandleCommand processes a free-text command. The caller is created
// lazily on first contact.
func (s *ExchangeService) HandleCommand(ctx context.Context, ident Identity, text string) (*domain.Outcome, error) {
	user, err := s.users.GetOrCreate(ctx, ident.TelegramID, ident.DisplayName)
	if err != nil {
		return nil, err
	}

	switch strings.TrimSpace(text) {
	case "/start":
		return &domain.Outcome{Kind: domain.OutcomeMainMenu, User: user}, nil
	case "/profile":
		return &domain.Outcome{Kind: domain.OutcomeProfile, User: user}, nil
	case "/balance":
		return &domain.Outcome{Kind: domain.OutcomeBalance, User: user}, nil
	case "/buy":
		return s.browseOffers(ctx, user)
	case "/sell":
		return s.sellForm(user)
	case "/deals":
		return s.listDeals(ctx, user)
	}

	if user.Role == domain.RoleSeller && strings.Contains(strings.TrimSpace(text), " ") {
		return s.submitOffer(ctx, user, text)
	}

	return &domain.Outcome{Kind: domain.OutcomeMainMenu, User: user}, nil
}

// HandleAction processes an inline-keyboard callback token.
func (s *ExchangeService) HandleAction(ctx context.Context, ident Identity, action string) (*domain.Outcome, error) {
	user, err := s.users.GetOrCreate(ctx, ident.TelegramID, ident.DisplayName)
	if err != nil {
		return nil, err
	}

	switch action {
	case "menu":
		return &domain.Outcome{Kind: domain.OutcomeMainMenu, User: user}, nil
	case "profile":
		return &domain.Outcome{Kind: domain.OutcomeProfile, User: user}, nil
	case "balance":
		return &domain.Outcome{Kind: domain.OutcomeBalance, User: user}, nil
	case "buy":
		return s.browseOffers(ctx, user)
	case "sell":
		return s.sellForm(user)
	case "deals":
		return s.listDeals(ctx, user)
	case "switch_buyer":
		return s.switchRole(ctx, user, domain.RoleBuyer)
	case "switch_seller":
		return s.switchRole(ctx, user, domain.RoleSeller)
	}

	if id, ok := actionID(action, "buy_"); ok {
		deal, err := s.deals.Initiate(ctx, user.ID, id, nil)
		if err != nil {
			return s.fold(user, err)
		}
		return &domain.Outcome{Kind: domain.OutcomeDealCreated, User: user, Deal: deal}, nil
	}
	if id, ok := actionID(action, "complete_"); ok {
		deal, err := s.deals.Complete(ctx, user.ID, id)
		if err != nil {
			return s.fold(user, err)
		}
		return &domain.Outcome{Kind: domain.OutcomeDealCompleted, User: user, Deal: deal}, nil
	}
	if id, ok := actionID(action, "dispute_"); ok {
		deal, err := s.deals.OpenDispute(ctx, user.ID, id)
		if err != nil {
			return s.fold(user, err)
		}
		return &domain.Outcome{Kind: domain.OutcomeDisputeOpened, User: user, Deal: deal}, nil
	}

	return &domain.Outcome{Kind: domain.OutcomeMainMenu, User: user}, nil
}

func (s *ExchangeService) browseOffers(ctx context.Context, user *domain.User) (*domain.Outcome, error) {
	if user.Role != domain.RoleBuyer {
		return rejected(user, RejectionRoleRequired, "switch to buyer mode via your profile"), nil
	}
	listings, err := s.offers.ListActive(ctx, s.offersPageSize)
	if err != nil {
		return nil, err
	}
	return &domain.Outcome{Kind: domain.OutcomeOffers, User: user, Offers: listings}, nil
}

func (s *ExchangeService) sellForm(user *domain.User) (*domain.Outcome, error) {
	if user.Role != domain.RoleSeller {
		return rejected(user, RejectionRoleRequired, "switch to seller mode via your profile"), nil
	}
	return &domain.Outcome{Kind: domain.OutcomeSellForm, User: user}, nil
}

func (s *ExchangeService) listDeals(ctx context.Context, user *domain.User) (*domain.Outcome, error) {
	deals, err := s.deals.ListForUser(ctx, user.ID, s.dealsPageSize)
	if err != nil {
		return nil, err
	}
	return &domain.Outcome{Kind: domain.OutcomeDeals, User: user, Deals: deals}, nil
}

func (s *ExchangeService) switchRole(ctx context.Context, user *domain.User, role domain.Role) (*domain.Outcome, error) {
	updated, err := s.users.SetRole(ctx, user.ID, role)
	if err != nil {
		return s.fold(user, err)
	}
	return &domain.Outcome{Kind: domain.OutcomeProfile, User: updated}, nil
}

// submitOffer parses the four-field listing "price min max currency".
func (s *ExchangeService) submitOffer(ctx context.Context, user *domain.User, text string) (*domain.Outcome, error) {
	parts := strings.Fields(text)
	if len(parts) != 4 {
		return rejected(user, "VALIDATION_FAILED", "expected: price min max currency"), nil
	}

	price, err := decimal.NewFromString(parts[0])
	if err != nil {
		return rejected(user, "VALIDATION_FAILED", "price is not a number"), nil
	}
	minAmount, err := decimal.NewFromString(parts[1])
	if err != nil {
		return rejected(user, "VALIDATION_FAILED", "minimum amount is not a number"), nil
	}
	maxAmount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return rejected(user, "VALIDATION_FAILED", "maximum amount is not a number"), nil
	}

	offer, err := s.offers.Create(ctx, user.ID, OfferInput{
		Price:     price,
		MinAmount: minAmount,
		MaxAmount: maxAmount,
		Currency:  parts[3],
	})
	if err != nil {
		return s.fold(user, err)
	}
	return &domain.Outcome{Kind: domain.OutcomeOfferCreated, User: user, Offer: offer}, nil
}

// fold turns recoverable domain errors into rejected outcomes; store
// errors propagate to the transport boundary.
func (s *ExchangeService) fold(user *domain.User, err error) (*domain.Outcome, error) {
	domainErr := apperrors.ToDomainError(err)
	if !domainErr.Recoverable() {
		return nil, err
	}
	return rejected(user, domainErr.Code, domainErr.Message), nil
}

func rejected(user *domain.User, code, message string) *domain.Outcome {
	return &domain.Outcome{
		Kind:      domain.OutcomeRejected,
		User:      user,
		Rejection: &domain.Rejection{Code: code, Message: message},
	}
}

func actionID(action, prefix string) (int64, bool) {
	if !strings.HasPrefix(action, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(action, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
