package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/p2p-exchange-bot/internal/domain"
)

// DealRepository encapsulates deal persistence and the store-side half of
// the status machine. Transitions are conditional on the expected prior
// status; zero affected rows surface as pgx.ErrNoRows so concurrent
// duplicate calls cannot both report success.
type DealRepository interface {
	// Create consumes the referenced offer and inserts the deal in one
	// transaction. Returns pgx.ErrNoRows when the offer is no longer active.
	Create(ctx context.Context, deal *domain.Deal) error
	GetByID(ctx context.Context, id int64) (*domain.Deal, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]domain.DealView, error)
	// Complete flips escrow to completed and settles both participants'
	// balance/stat fields in one transaction.
	Complete(ctx context.Context, id int64) (*domain.Deal, error)
	// OpenDispute flips escrow to dispute.
	OpenDispute(ctx context.Context, id int64) (*domain.Deal, error)
}

type dealRepository struct {
	pool *pgxpool.Pool
}

// NewDealRepository instantiates repository.
func NewDealRepository(pool *pgxpool.Pool) DealRepository {
	return &dealRepository{pool: pool}
}

const dealColumns = `id, offer_id, buyer_id, seller_id, amount, price, currency, status, created_at`

func (r *dealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const consumeOffer = `
        UPDATE offers SET is_active=false WHERE id=$1 AND is_active=true`

	cmd, err := tx.Exec(ctx, consumeOffer, deal.OfferID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	const insertDeal = `
        INSERT INTO deals (offer_id, buyer_id, seller_id, amount, price, currency, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`

	if err := tx.QueryRow(ctx, insertDeal,
		deal.OfferID,
		deal.BuyerID,
		deal.SellerID,
		deal.Amount,
		deal.Price,
		deal.Currency,
		deal.Status,
	).Scan(&deal.ID, &deal.CreatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *dealRepository) GetByID(ctx context.Context, id int64) (*domain.Deal, error) {
	const query = `
        SELECT ` + dealColumns + `
        FROM deals WHERE id=$1`

	return scanDeal(r.pool.QueryRow(ctx, query, id))
}

func (r *dealRepository) ListForUser(ctx context.Context, userID int64, limit int) ([]domain.DealView, error) {
	const query = `
        SELECT d.id, d.offer_id, d.buyer_id, d.seller_id, d.amount, d.price, d.currency, d.status, d.created_at,
               buyer.display_name, seller.display_name
        FROM deals d
        JOIN users buyer ON d.buyer_id = buyer.id
        JOIN users seller ON d.seller_id = seller.id
        WHERE d.buyer_id = $1 OR d.seller_id = $1
        ORDER BY d.created_at DESC
        LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]domain.DealView, 0, limit)
	for rows.Next() {
		var view domain.DealView
		if err := rows.Scan(
			&view.ID,
			&view.OfferID,
			&view.BuyerID,
			&view.SellerID,
			&view.Amount,
			&view.Price,
			&view.Currency,
			&view.Status,
			&view.CreatedAt,
			&view.BuyerName,
			&view.SellerName,
		); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, rows.Err()
}

func (r *dealRepository) Complete(ctx context.Context, id int64) (*domain.Deal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const transition = `
        UPDATE deals SET status=$1 WHERE id=$2 AND status=$3
        RETURNING ` + dealColumns

	deal, err := scanDeal(tx.QueryRow(ctx, transition, domain.DealStatusCompleted, id, domain.DealStatusEscrow))
	if err != nil {
		return nil, err
	}

	const settleSeller = `
        UPDATE users SET balance = balance + $1,
                         total_sold = total_sold + $1,
                         completed_deals = completed_deals + 1,
                         rating = LEAST(5, rating + 0.25),
                         updated_at = NOW()
        WHERE id=$2`

	if _, err := tx.Exec(ctx, settleSeller, deal.Amount, deal.SellerID); err != nil {
		return nil, err
	}

	const settleBuyer = `
        UPDATE users SET total_bought = total_bought + $1,
                         completed_deals = completed_deals + 1,
                         rating = LEAST(5, rating + 0.25),
                         updated_at = NOW()
        WHERE id=$2`

	if _, err := tx.Exec(ctx, settleBuyer, deal.Amount, deal.BuyerID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return deal, nil
}

func (r *dealRepository) OpenDispute(ctx context.Context, id int64) (*domain.Deal, error) {
	const transition = `
        UPDATE deals SET status=$1 WHERE id=$2 AND status=$3
        RETURNING ` + dealColumns

	return scanDeal(r.pool.QueryRow(ctx, transition, domain.DealStatusDispute, id, domain.DealStatusEscrow))
}

func scanDeal(row pgx.Row) (*domain.Deal, error) {
	var deal domain.Deal
	if err := row.Scan(
		&deal.ID,
		&deal.OfferID,
		&deal.BuyerID,
		&deal.SellerID,
		&deal.Amount,
		&deal.Price,
		&deal.Currency,
		&deal.Status,
		&deal.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &deal, nil
}
