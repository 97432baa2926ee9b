package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eveexchange/backend/internal/domain"
)

// PortfolioStore implements domain.PortfolioStore using PostgreSQL.
// Component lists are stored as JSONB.
type PortfolioStore struct {
	pool *pgxpool.Pool
}

// NewPortfolioStore creates a new PortfolioStore backed by the given pool.
func NewPortfolioStore(pool *pgxpool.Pool) *PortfolioStore {
	return &PortfolioStore{pool: pool}
}

// Create inserts a portfolio and returns its generated id.
func (s *PortfolioStore) Create(ctx context.Context, p domain.Portfolio) (int64, error) {
	components, err := json.Marshal(p.Components)
	if err != nil {
		return 0, fmt.Errorf("postgres: marshal components: %w", err)
	}

	const query = `
		INSERT INTO portfolios (
			user_id, name, description, kind, efficiency, components,
			industry_type_id, industry_quantity, manufactured_quantity
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING portfolio_id`

	var id int64
	err = s.pool.QueryRow(ctx, query,
		p.UserID, p.Name, p.Description, p.Kind, p.Efficiency, components,
		p.IndustryTypeID, p.IndustryQuantity, p.ManufacturedQuantity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: create portfolio: %w", err)
	}
	return id, nil
}

// Delete removes a user's portfolio, or reports domain.ErrNotFound.
func (s *PortfolioStore) Delete(ctx context.Context, userID, portfolioID int64) error {
	const query = `DELETE FROM portfolios WHERE user_id = $1 AND portfolio_id = $2`

	tag, err := s.pool.Exec(ctx, query, userID, portfolioID)
	if err != nil {
		return fmt.Errorf("postgres: delete portfolio %d: %w", portfolioID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get returns one of a user's portfolios by id.
func (s *PortfolioStore) Get(ctx context.Context, userID, portfolioID int64) (domain.Portfolio, error) {
	const query = portfolioColumns + ` WHERE user_id = $1 AND portfolio_id = $2`

	row := s.pool.QueryRow(ctx, query, userID, portfolioID)
	p, err := scanPortfolio(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Portfolio{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Portfolio{}, fmt.Errorf("postgres: get portfolio %d: %w", portfolioID, err)
	}
	return p, nil
}

// ListByUser returns all of a user's portfolios, oldest first.
func (s *PortfolioStore) ListByUser(ctx context.Context, userID int64) ([]domain.Portfolio, error) {
	const query = portfolioColumns + ` WHERE user_id = $1 ORDER BY portfolio_id`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list portfolios %d: %w", userID, err)
	}
	defer rows.Close()

	var portfolios []domain.Portfolio
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list portfolios rows: %w", err)
	}
	return portfolios, nil
}

// CountByUser returns how many portfolios a user owns.
func (s *PortfolioStore) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM portfolios WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count portfolios %d: %w", userID, err)
	}
	return count, nil
}

const portfolioColumns = `
	SELECT portfolio_id, user_id, name, description, kind, efficiency,
	       components, industry_type_id, industry_quantity,
	       manufactured_quantity, created_at
	FROM portfolios`

func scanPortfolio(row pgx.Row) (domain.Portfolio, error) {
	var p domain.Portfolio
	var components []byte
	err := row.Scan(
		&p.PortfolioID, &p.UserID, &p.Name, &p.Description, &p.Kind,
		&p.Efficiency, &components, &p.IndustryTypeID, &p.IndustryQuantity,
		&p.ManufacturedQuantity, &p.CreatedAt,
	)
	if err != nil {
		return domain.Portfolio{}, err
	}
	if components != nil {
		if err := json.Unmarshal(components, &p.Components); err != nil {
			return domain.Portfolio{}, fmt.Errorf("unmarshal components: %w", err)
		}
	}
	return p, nil
}

// Compile-time interface check.
var _ domain.PortfolioStore = (*PortfolioStore)(nil)
