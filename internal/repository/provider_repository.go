package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthfirst/provider-auth/internal/domain"
)

// ProviderRepository defines persistence access for providers.
type ProviderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Provider, error)
}

// ErrStoreUnavailable is returned when no database pool is configured.
var ErrStoreUnavailable = errors.New("provider store unavailable")

type providerRepository struct {
	pool *pgxpool.Pool
}

// NewProviderRepository returns a Postgres-backed implementation.
func NewProviderRepository(pool *pgxpool.Pool) ProviderRepository {
	return &providerRepository{pool: pool}
}

const providerColumns = `id, first_name, last_name, email, phone, specialization, license_number,
        years_of_experience, verification_status, is_active, created_at, updated_at`

func (r *providerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Provider, error) {
	if r.pool == nil {
		return nil, ErrStoreUnavailable
	}
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id=$1`
	return scanProvider(r.pool.QueryRow(ctx, query, id))
}

func scanProvider(row pgx.Row) (*domain.Provider, error) {
	var p domain.Provider
	if err := row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
		&p.Specialization,
		&p.LicenseNumber,
		&p.YearsOfExperience,
		&p.VerificationStatus,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
