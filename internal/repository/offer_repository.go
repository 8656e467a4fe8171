package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
)

// OfferRepository encapsulates offer persistence.
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	GetActiveByID(ctx context.Context, id int64) (*domain.Offer, error)
	ListActive(ctx context.Context, limit int) ([]domain.OfferListing, error)
}

type offerRepository struct {
	pool *pgxpool.Pool
}

// NewOfferRepository instantiates repository.
func NewOfferRepository(pool *pgxpool.Pool) OfferRepository {
	return &offerRepository{pool: pool}
}

func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	const query = `
        INSERT INTO offers (seller_id, price, min_amount, max_amount, currency)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, is_active, created_at`

	return r.pool.QueryRow(ctx, query,
		offer.SellerID,
		offer.Price,
		offer.MinAmount,
		offer.MaxAmount,
		offer.Currency,
	).Scan(&offer.ID, &offer.IsActive, &offer.CreatedAt)
}

func (r *offerRepository) GetActiveByID(ctx context.Context, id int64) (*domain.Offer, error) {
	const query = `
        SELECT id, seller_id, price, min_amount, max_amount, currency, is_active, created_at
        FROM offers WHERE id=$1 AND is_active=true`

	var offer domain.Offer
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&offer.ID,
		&offer.SellerID,
		&offer.Price,
		&offer.MinAmount,
		&offer.MaxAmount,
		&offer.Currency,
		&offer.IsActive,
		&offer.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *offerRepository) ListActive(ctx context.Context, limit int) ([]domain.OfferListing, error) {
	const query = `
        SELECT o.id, o.seller_id, o.price, o.min_amount, o.max_amount, o.currency, o.is_active, o.created_at,
               u.display_name, u.rating, u.completed_deals
        FROM offers o
        JOIN users u ON o.seller_id = u.id
        WHERE o.is_active = true
        ORDER BY o.price ASC
        LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]domain.OfferListing, 0, limit)
	for rows.Next() {
		var listing domain.OfferListing
		if err := rows.Scan(
			&listing.ID,
			&listing.SellerID,
			&listing.Price,
			&listing.MinAmount,
			&listing.MaxAmount,
			&listing.Currency,
			&listing.IsActive,
			&listing.CreatedAt,
			&listing.SellerName,
			&listing.SellerRating,
			&listing.SellerCompletedDeals,
		); err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}
