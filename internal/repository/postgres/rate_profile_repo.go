package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const rateProfileColumns = `id, workspace_id, name, default_daily_rate, cost_per_day, margin_coefficient, created_at, updated_at`

// RateProfileRepository implements domain.RateProfileRepository using PostgreSQL
type RateProfileRepository struct {
	pool *pgxpool.Pool
}

// NewRateProfileRepository creates a new RateProfileRepository
func NewRateProfileRepository(pool *pgxpool.Pool) *RateProfileRepository {
	return &RateProfileRepository{pool: pool}
}

// Create creates a new rate profile
func (r *RateProfileRepository) Create(profile *domain.RateProfile) (*domain.RateProfile, error) {
	nums, err := numericArgs(profile.DefaultDailyRate, profile.CostPerDay, &profile.MarginCoefficient)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(context.Background(),
		`INSERT INTO rate_profiles (workspace_id, name, default_daily_rate, cost_per_day, margin_coefficient)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+rateProfileColumns,
		profile.WorkspaceID, profile.Name, nums[0], nums[1], nums[2])
	return scanRateProfile(row)
}

// GetByID retrieves a rate profile by ID within a workspace
func (r *RateProfileRepository) GetByID(workspaceID int32, id int32) (*domain.RateProfile, error) {
	row := r.pool.QueryRow(context.Background(),
		`SELECT `+rateProfileColumns+` FROM rate_profiles WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id)
	return scanRateProfile(row)
}

// GetByIDs retrieves the listed profiles of a workspace keyed by ID.
// Unknown IDs are absent from the map.
func (r *RateProfileRepository) GetByIDs(workspaceID int32, ids []int32) (map[int32]*domain.RateProfile, error) {
	profiles := make(map[int32]*domain.RateProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	rows, err := r.pool.Query(context.Background(),
		`SELECT `+rateProfileColumns+` FROM rate_profiles WHERE workspace_id = $1 AND id = ANY($2)`,
		workspaceID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		profile, err := scanRateProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles[profile.ID] = profile
	}
	return profiles, rows.Err()
}

// GetAllByWorkspace retrieves all rate profiles of a workspace ordered by name
func (r *RateProfileRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.RateProfile, error) {
	rows, err := r.pool.Query(context.Background(),
		`SELECT `+rateProfileColumns+` FROM rate_profiles WHERE workspace_id = $1 ORDER BY name`,
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*domain.RateProfile
	for rows.Next() {
		profile, err := scanRateProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

// Update updates a rate profile
func (r *RateProfileRepository) Update(profile *domain.RateProfile) (*domain.RateProfile, error) {
	nums, err := numericArgs(profile.DefaultDailyRate, profile.CostPerDay, &profile.MarginCoefficient)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(context.Background(),
		`UPDATE rate_profiles
		 SET name = $3, default_daily_rate = $4, cost_per_day = $5, margin_coefficient = $6, updated_at = NOW()
		 WHERE workspace_id = $1 AND id = $2
		 RETURNING `+rateProfileColumns,
		profile.WorkspaceID, profile.ID, profile.Name, nums[0], nums[1], nums[2])
	return scanRateProfile(row)
}

// IsReferenced reports whether any budget line of the workspace uses the profile
func (r *RateProfileRepository) IsReferenced(workspaceID int32, id int32) (bool, error) {
	var referenced bool
	err := r.pool.QueryRow(context.Background(),
		`SELECT EXISTS (
			SELECT 1 FROM budget_lines l
			JOIN budget_sections s ON s.id = l.section_id
			JOIN quotes q ON q.id = s.quote_id
			WHERE q.workspace_id = $1 AND l.profile_id = $2
		 )`,
		workspaceID, id,
	).Scan(&referenced)
	return referenced, err
}

func scanRateProfile(row pgx.Row) (*domain.RateProfile, error) {
	var p domain.RateProfile
	var defaultRate, costPerDay, coefficient pgtype.Numeric
	if err := row.Scan(&p.ID, &p.WorkspaceID, &p.Name, &defaultRate, &costPerDay, &coefficient, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRateProfileNotFound
		}
		return nil, err
	}
	p.DefaultDailyRate = pgNumericToOptionalDecimal(defaultRate)
	p.CostPerDay = pgNumericToOptionalDecimal(costPerDay)
	p.MarginCoefficient = pgNumericToDecimal(coefficient)
	return &p, nil
}
