package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/linklytics/internal/database"
	"github.com/vadimbarashkov/linklytics/internal/models"
)

type linkRecord struct {
	ID          string         `db:"id"`
	Slug        string         `db:"slug"`
	Destination string         `db:"destination"`
	Title       sql.NullString `db:"title"`
	IsActive    bool           `db:"is_active"`
	OwnerID     string         `db:"owner_id"`
	ClickCount  int64          `db:"click_count"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r *linkRecord) ToLink() *models.Link {
	return &models.Link{
		ID:          r.ID,
		Slug:        r.Slug,
		Destination: r.Destination,
		Title:       r.Title.String,
		IsActive:    r.IsActive,
		OwnerID:     r.OwnerID,
		ClickCount:  r.ClickCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// LinkRepository owns the slug -> link mapping. Slugs are stored normalized;
// uniqueness is enforced by the database constraint, not by application-level
// locking, so concurrent creates with the same slug race safely.
type LinkRepository struct {
	db *sqlx.DB
}

func NewLinkRepository(db *sqlx.DB) *LinkRepository {
	return &LinkRepository{
		db: db,
	}
}

const linkColumns = `l.id, l.slug, l.destination, l.title, l.is_active, l.owner_id, l.created_at, l.updated_at,
		(SELECT COUNT(*) FROM click_events e WHERE e.link_id = l.id) AS click_count`

func (r *LinkRepository) Create(ctx context.Context, id, slug, destination, title, ownerID string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Create"

	rec := new(linkRecord)
	query := `INSERT INTO links(id, slug, destination, title, owner_id)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING id, slug, destination, title, is_active, owner_id, created_at, updated_at, 0 AS click_count`

	err := r.db.GetContext(ctx, rec, query, id, slug, destination, title, ownerID)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrSlugExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) GetByID(ctx context.Context, id string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetByID"

	rec := new(linkRecord)
	query := `SELECT ` + linkColumns + `
		FROM links l
		WHERE l.id = $1`

	err := r.db.GetContext(ctx, rec, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// GetBySlug resolves a normalized slug with no side effects on read.
func (r *LinkRepository) GetBySlug(ctx context.Context, slug string) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.GetBySlug"

	rec := new(linkRecord)
	query := `SELECT ` + linkColumns + `
		FROM links l
		WHERE l.slug = $1`

	err := r.db.GetContext(ctx, rec, query, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

// List returns links annotated with their click counts, newest first. An empty
// ownerID returns all links.
func (r *LinkRepository) List(ctx context.Context, ownerID string) ([]models.Link, error) {
	const op = "database.postgres.LinkRepository.List"

	query := `SELECT ` + linkColumns + `
		FROM links l
		WHERE $1 = '' OR l.owner_id = $1
		ORDER BY l.created_at DESC`

	var recs []linkRecord
	if err := r.db.SelectContext(ctx, &recs, query, ownerID); err != nil {
		return nil, fmt.Errorf("%s: failed to list link records: %w", op, err)
	}

	links := make([]models.Link, 0, len(recs))
	for i := range recs {
		links = append(links, *recs[i].ToLink())
	}

	return links, nil
}

func (r *LinkRepository) Count(ctx context.Context, ownerID string) (int64, error) {
	const op = "database.postgres.LinkRepository.Count"

	var count int64
	query := `SELECT COUNT(*) FROM links WHERE $1 = '' OR owner_id = $1`

	if err := r.db.GetContext(ctx, &count, query, ownerID); err != nil {
		return 0, fmt.Errorf("%s: failed to count link records: %w", op, err)
	}

	return count, nil
}

// Update applies a partial update. Unchanged fields stay nil in upd.
func (r *LinkRepository) Update(ctx context.Context, id string, upd models.LinkUpdate) (*models.Link, error) {
	const op = "database.postgres.LinkRepository.Update"

	set := []string{"updated_at = NOW()"}
	args := []any{id}

	appendSet := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Slug != nil {
		appendSet("slug", *upd.Slug)
	}
	if upd.Destination != nil {
		appendSet("destination", *upd.Destination)
	}
	if upd.Title != nil {
		// Same empty-string folding as Create, so a cleared title round-trips
		// to NULL instead of ''.
		args = append(args, *upd.Title)
		set = append(set, fmt.Sprintf("title = NULLIF($%d, '')", len(args)))
	}
	if upd.IsActive != nil {
		appendSet("is_active", *upd.IsActive)
	}

	rec := new(linkRecord)
	query := fmt.Sprintf(`UPDATE links l
		SET %s
		WHERE l.id = $1
		RETURNING %s`, strings.Join(set, ", "), linkColumns)

	err := r.db.GetContext(ctx, rec, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
		}
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrSlugExists)
		}

		return nil, fmt.Errorf("%s: failed to update link record: %w", op, err)
	}

	return rec.ToLink(), nil
}

func (r *LinkRepository) Delete(ctx context.Context, id string) error {
	const op = "database.postgres.LinkRepository.Delete"

	query := `DELETE FROM links WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: failed to delete link record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrLinkNotFound)
	}

	return nil
}
