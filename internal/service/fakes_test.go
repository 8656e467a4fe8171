package service

import (
	"context"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
)

// In-memory repository fakes mirroring the Postgres semantics the services
// rely on: conditional transitions report pgx.ErrNoRows on zero rows, deal
// creation consumes the offer, completion settles both participants.

type fakeUserRepo struct {
	nextID int64
	byID   map[int64]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[int64]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.nextID++
	user.ID = r.nextID
	user.Balance = decimal.Zero
	user.TotalBought = decimal.Zero
	user.TotalSold = decimal.Zero
	user.Rating = decimal.Zero
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.byID[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	for _, user := range r.byID {
		if user.TelegramID == telegramID {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) UpdateRole(_ context.Context, id int64, role domain.Role) error {
	user, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	return nil
}

type fakeOfferRepo struct {
	nextID int64
	byID   map[int64]*domain.Offer
	users  *fakeUserRepo
}

func newFakeOfferRepo(users *fakeUserRepo) *fakeOfferRepo {
	return &fakeOfferRepo{byID: make(map[int64]*domain.Offer), users: users}
}

func (r *fakeOfferRepo) Create(_ context.Context, offer *domain.Offer) error {
	r.nextID++
	offer.ID = r.nextID
	offer.IsActive = true
	offer.CreatedAt = time.Now()
	clone := *offer
	r.byID[offer.ID] = &clone
	return nil
}

func (r *fakeOfferRepo) GetActiveByID(_ context.Context, id int64) (*domain.Offer, error) {
	offer, ok := r.byID[id]
	if !ok || !offer.IsActive {
		return nil, pgx.ErrNoRows
	}
	clone := *offer
	return &clone, nil
}

func (r *fakeOfferRepo) ListActive(_ context.Context, limit int) ([]domain.OfferListing, error) {
	active := make([]*domain.Offer, 0, len(r.byID))
	for _, offer := range r.byID {
		if offer.IsActive {
			active = append(active, offer)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].Price.LessThan(active[j].Price)
	})
	if len(active) > limit {
		active = active[:limit]
	}

	listings := make([]domain.OfferListing, 0, len(active))
	for _, offer := range active {
		listing := domain.OfferListing{Offer: *offer}
		if seller, ok := r.users.byID[offer.SellerID]; ok {
			listing.SellerName = seller.DisplayName
			listing.SellerRating = seller.Rating
			listing.SellerCompletedDeals = seller.CompletedDeals
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

type fakeDealRepo struct {
	nextID int64
	byID   map[int64]*domain.Deal
	offers *fakeOfferRepo
	users  *fakeUserRepo
}

func newFakeDealRepo(offers *fakeOfferRepo, users *fakeUserRepo) *fakeDealRepo {
	return &fakeDealRepo{byID: make(map[int64]*domain.Deal), offers: offers, users: users}
}

func (r *fakeDealRepo) Create(_ context.Context, deal *domain.Deal) error {
	offer, ok := r.offers.byID[deal.OfferID]
	if !ok || !offer.IsActive {
		return pgx.ErrNoRows
	}
	offer.IsActive = false

	r.nextID++
	deal.ID = r.nextID
	deal.CreatedAt = time.Now().Add(time.Duration(r.nextID) * time.Millisecond)
	clone := *deal
	r.byID[deal.ID] = &clone
	return nil
}

func (r *fakeDealRepo) GetByID(_ context.Context, id int64) (*domain.Deal, error) {
	deal, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *deal
	return &clone, nil
}

func (r *fakeDealRepo) ListForUser(_ context.Context, userID int64, limit int) ([]domain.DealView, error) {
	matched := make([]*domain.Deal, 0, len(r.byID))
	for _, deal := range r.byID {
		if deal.BuyerID == userID || deal.SellerID == userID {
			matched = append(matched, deal)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	views := make([]domain.DealView, 0, len(matched))
	for _, deal := range matched {
		view := domain.DealView{Deal: *deal}
		if buyer, ok := r.users.byID[deal.BuyerID]; ok {
			view.BuyerName = buyer.DisplayName
		}
		if seller, ok := r.users.byID[deal.SellerID]; ok {
			view.SellerName = seller.DisplayName
		}
		views = append(views, view)
	}
	return views, nil
}

func (r *fakeDealRepo) Complete(_ context.Context, id int64) (*domain.Deal, error) {
	deal, ok := r.byID[id]
	if !ok || deal.Status != domain.DealStatusEscrow {
		return nil, pgx.ErrNoRows
	}
	deal.Status = domain.DealStatusCompleted

	ratingStep := decimal.RequireFromString("0.25")
	five := decimal.NewFromInt(5)

	if seller, found := r.users.byID[deal.SellerID]; found {
		seller.Balance = seller.Balance.Add(deal.Amount)
		seller.TotalSold = seller.TotalSold.Add(deal.Amount)
		seller.CompletedDeals++
		seller.Rating = decimal.Min(five, seller.Rating.Add(ratingStep))
	}
	if buyer, found := r.users.byID[deal.BuyerID]; found {
		buyer.TotalBought = buyer.TotalBought.Add(deal.Amount)
		buyer.CompletedDeals++
		buyer.Rating = decimal.Min(five, buyer.Rating.Add(ratingStep))
	}

	clone := *deal
	return &clone, nil
}

func (r *fakeDealRepo) OpenDispute(_ context.Context, id int64) (*domain.Deal, error) {
	deal, ok := r.byID[id]
	if !ok || deal.Status != domain.DealStatusEscrow {
		return nil, pgx.ErrNoRows
	}
	deal.Status = domain.DealStatusDispute
	clone := *deal
	return &clone, nil
}

type fixture struct {
	users    *fakeUserRepo
	offers   *fakeOfferRepo
	deals    *fakeDealRepo
	userSvc  *UserService
	offerSvc *OfferService
	dealSvc  *DealService
	exchange *ExchangeService
}

func newFixture() *fixture {
	users := newFakeUserRepo()
	offers := newFakeOfferRepo(users)
	deals := newFakeDealRepo(offers, users)

	userSvc := NewUserService(users, nil)
	offerSvc := NewOfferService(offers, nil)
	dealSvc := NewDealService(DealDependencies{DealRepo: deals, OfferRepo: offers})

	return &fixture{
		users:    users,
		offers:   offers,
		deals:    deals,
		userSvc:  userSvc,
		offerSvc: offerSvc,
		dealSvc:  dealSvc,
		exchange: NewExchangeService(ExchangeDependencies{
			Users:  userSvc,
			Offers: offerSvc,
			Deals:  dealSvc,
		}),
	}
}

func (f *fixture) seedUser(telegramID int64, name string, role domain.Role) *domain.User {
	user, err := f.userSvc.GetOrCreate(context.Background(), telegramID, name)
	if err != nil {
		panic(err)
	}
	if role != user.Role {
		user, err = f.userSvc.SetRole(context.Background(), user.ID, role)
		if err != nil {
			panic(err)
		}
	}
	return user
}

func (f *fixture) seedOffer(sellerID int64, price, minAmount, maxAmount, currency string) *domain.Offer {
	offer, err := f.offerSvc.Create(context.Background(), sellerID, OfferInput{
		Price:     decimal.RequireFromString(price),
		MinAmount: decimal.RequireFromString(minAmount),
		MaxAmount: decimal.RequireFromString(maxAmount),
		Currency:  currency,
	})
	if err != nil {
		panic(err)
	}
	return offer
}
