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

type clickEventRecord struct {
	ID        string         `db:"id"`
	LinkID    string         `db:"link_id"`
	CreatedAt time.Time      `db:"created_at"`
	IP        sql.NullString `db:"ip"`
	UserAgent sql.NullString `db:"user_agent"`
	Referer   sql.NullString `db:"referer"`
	Country   sql.NullString `db:"country"`
	City      sql.NullString `db:"city"`
	Region    sql.NullString `db:"region"`
	Device    sql.NullString `db:"device"`
	Browser   sql.NullString `db:"browser"`
	OS        sql.NullString `db:"os"`
}

func (r *clickEventRecord) ToClickEvent() *models.ClickEvent {
	return &models.ClickEvent{
		ID:        r.ID,
		LinkID:    r.LinkID,
		CreatedAt: r.CreatedAt,
		IP:        r.IP.String,
		UserAgent: r.UserAgent.String,
		Referer:   r.Referer.String,
		Country:   r.Country.String,
		City:      r.City.String,
		Region:    r.Region.String,
		Device:    r.Device.String,
		Browser:   r.Browser.String,
		OS:        r.OS.String,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ClickEventRepository is the append-only click log and the read side the
// aggregator scans. Events are never updated or deleted by the application.
type ClickEventRepository struct {
	db *sqlx.DB
}

func NewClickEventRepository(db *sqlx.DB) *ClickEventRepository {
	return &ClickEventRepository{
		db: db,
	}
}

// Insert appends one event. created_at is assigned by the database; across
// concurrent writers there is no insertion-order guarantee beyond that
// timestamp, so every aggregation below sorts and groups by it explicitly.
func (r *ClickEventRepository) Insert(ctx context.Context, event *models.ClickEvent) error {
	const op = "database.postgres.ClickEventRepository.Insert"

	query := `INSERT INTO click_events(id, link_id, ip, user_agent, referer, country, city, region, device, browser, os)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.LinkID,
		nullable(event.IP), nullable(event.UserAgent), nullable(event.Referer),
		nullable(event.Country), nullable(event.City), nullable(event.Region),
		nullable(event.Device), nullable(event.Browser), nullable(event.OS),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to insert click event: %w", op, err)
	}

	return nil
}

func (r *ClickEventRepository) ListRecentByLink(ctx context.Context, linkID string, limit int) ([]models.ClickEvent, error) {
	const op = "database.postgres.ClickEventRepository.ListRecentByLink"

	query := `SELECT id, link_id, created_at, ip, user_agent, referer, country, city, region, device, browser, os
		FROM click_events
		WHERE link_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	var recs []clickEventRecord
	if err := r.db.SelectContext(ctx, &recs, query, linkID, limit); err != nil {
		return nil, fmt.Errorf("%s: failed to list click events: %w", op, err)
	}

	events := make([]models.ClickEvent, 0, len(recs))
	for i := range recs {
		events = append(events, *recs[i].ToClickEvent())
	}

	return events, nil
}

// scopeClause builds the WHERE fragment for a scope. The since bound is always
// present as an argument; callers pass time.Time{} for "no lower bound".
func scopeClause(scope database.Scope, since time.Time) (string, []any) {
	clause := `($1 = '' OR e.link_id = $1)
		AND ($2 = '' OR EXISTS (SELECT 1 FROM links l WHERE l.id = e.link_id AND l.owner_id = $2))
		AND ($3::timestamptz IS NULL OR e.created_at >= $3)`

	var sinceArg any
	if !since.IsZero() {
		sinceArg = since
	}

	return clause, []any{scope.LinkID, scope.OwnerID, sinceArg}
}

func (r *ClickEventRepository) Count(ctx context.Context, scope database.Scope, since time.Time) (int64, error) {
	const op = "database.postgres.ClickEventRepository.Count"

	clause, args := scopeClause(scope, since)
	query := `SELECT COUNT(*) FROM click_events e WHERE ` + clause

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to count click events: %w", op, err)
	}

	return count, nil
}

// CountDistinctIP approximates unique clicks by counting distinct non-null IP
// values. Shared IPs undercount, rotating IPs overcount; that is the intended
// coarseness of the heuristic.
func (r *ClickEventRepository) CountDistinctIP(ctx context.Context, scope database.Scope, since time.Time) (int64, error) {
	const op = "database.postgres.ClickEventRepository.CountDistinctIP"

	clause, args := scopeClause(scope, since)
	query := `SELECT COUNT(DISTINCT e.ip) FROM click_events e WHERE e.ip IS NOT NULL AND ` + clause

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("%s: failed to count distinct ips: %w", op, err)
	}

	return count, nil
}

// DailyCounts buckets events by UTC calendar day, ordered by day ascending.
// Days with no events are omitted.
func (r *ClickEventRepository) DailyCounts(ctx context.Context, scope database.Scope, since time.Time) ([]models.DayCount, error) {
	const op = "database.postgres.ClickEventRepository.DailyCounts"

	clause, args := scopeClause(scope, since)
	query := `SELECT date_trunc('day', e.created_at AT TIME ZONE 'UTC') AS day, COUNT(*) AS count
		FROM click_events e
		WHERE ` + clause + `
		GROUP BY day
		ORDER BY day`

	var rows []struct {
		Day   time.Time `db:"day"`
		Count int64     `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to bucket click events by day: %w", op, err)
	}

	counts := make([]models.DayCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, models.DayCount{Day: row.Day, Count: row.Count})
	}

	return counts, nil
}

var dimensionColumns = map[database.Dimension]string{
	database.DimCountry: "country",
	database.DimDevice:  "device",
	database.DimBrowser: "browser",
	database.DimOS:      "os",
}

// CountByDimension groups events by one dimension, substituting 'Unknown' for
// absent values, sorted descending by count and truncated to limit.
func (r *ClickEventRepository) CountByDimension(ctx context.Context, scope database.Scope, dim database.Dimension, since time.Time, limit int) ([]models.ValueCount, error) {
	const op = "database.postgres.ClickEventRepository.CountByDimension"

	column, ok := dimensionColumns[dim]
	if !ok {
		return nil, fmt.Errorf("%s: unknown dimension: %q", op, dim)
	}

	clause, args := scopeClause(scope, since)
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT COALESCE(e.%s, 'Unknown') AS value, COUNT(*) AS count
		FROM click_events e
		WHERE %s
		GROUP BY value
		ORDER BY count DESC, value
		LIMIT $%d`, column, clause, len(args))

	var rows []struct {
		Value string `db:"value"`
		Count int64  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to group click events by %s: %w", op, column, err)
	}

	counts := make([]models.ValueCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, models.ValueCount{Value: row.Value, Count: row.Count})
	}

	return counts, nil
}

// RefererCounts groups events by raw referer value. Host extraction and the
// "Direct / None" label are the aggregator's concern; NULL referers come back
// as an empty-string group.
func (r *ClickEventRepository) RefererCounts(ctx context.Context, scope database.Scope, since time.Time) ([]models.ValueCount, error) {
	const op = "database.postgres.ClickEventRepository.RefererCounts"

	clause, args := scopeClause(scope, since)
	query := `SELECT COALESCE(e.referer, '') AS value, COUNT(*) AS count
		FROM click_events e
		WHERE ` + clause + `
		GROUP BY value
		ORDER BY count DESC, value`

	var rows []struct {
		Value string `db:"value"`
		Count int64  `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to group click events by referer: %w", op, err)
	}

	counts := make([]models.ValueCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, models.ValueCount{Value: row.Value, Count: row.Count})
	}

	return counts, nil
}

// TopLinks orders links by total click volume descending. An empty ownerID
// scopes globally.
func (r *ClickEventRepository) TopLinks(ctx context.Context, ownerID string, k int) ([]models.LinkCount, error) {
	const op = "database.postgres.ClickEventRepository.TopLinks"

	query := `SELECT ` + linkColumns + `
		FROM links l
		WHERE $1 = '' OR l.owner_id = $1
		ORDER BY click_count DESC, l.created_at DESC
		LIMIT $2`

	var recs []linkRecord
	if err := r.db.SelectContext(ctx, &recs, query, ownerID, k); err != nil {
		return nil, fmt.Errorf("%s: failed to rank links by clicks: %w", op, err)
	}

	counts := make([]models.LinkCount, 0, len(recs))
	for i := range recs {
		counts = append(counts, models.LinkCount{Link: *recs[i].ToLink(), Count: recs[i].ClickCount})
	}

	return counts, nil
}
