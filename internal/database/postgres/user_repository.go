package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/linklytics/internal/database"
	"github.com/vadimbarashkov/linklytics/internal/models"
)

type userRecord struct {
	ID          string         `db:"id"`
	Name        sql.NullString `db:"name"`
	Email       string         `db:"email"`
	Role        string         `db:"role"`
	LC          sql.NullString `db:"lc"`
	Designation sql.NullString `db:"designation"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *userRecord) ToUser() *models.User {
	return &models.User{
		ID:          r.ID,
		Name:        r.Name.String,
		Email:       r.Email,
		Role:        r.Role,
		LC:          r.LC.String,
		Designation: r.Designation.String,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// UserRepository backs the account records the analytics scope keys on.
// Account lifecycle beyond this lives in an external identity surface.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, id, name, email, role string) (*models.User, error) {
	const op = "database.postgres.UserRepository.Create"

	rec := new(userRecord)
	query := `INSERT INTO users(id, name, email, role)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		RETURNING *`

	err := r.db.GetContext(ctx, rec, query, id, name, email, role)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrEmailExists)
		}

		return nil, fmt.Errorf("%s: failed to create user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

// Ensure inserts the user record if it does not exist yet. Existing records
// are left untouched so locally accumulated fields survive.
func (r *UserRepository) Ensure(ctx context.Context, id, name, email, role string) error {
	const op = "database.postgres.UserRepository.Ensure"

	query := `INSERT INTO users(id, name, email, role)
		VALUES ($1, NULLIF($2, ''), $3, $4)
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, id, name, email, role); err != nil {
		return fmt.Errorf("%s: failed to ensure user record: %w", op, err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	const op = "database.postgres.UserRepository.GetByID"

	rec := new(userRecord)
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "database.postgres.UserRepository.GetByEmail"

	rec := new(userRecord)
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, rec, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get user record: %w", op, err)
	}

	return rec.ToUser(), nil
}
