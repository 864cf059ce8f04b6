package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Enrichment lifecycle states for a link record.
const (
	EnrichStatusPending    = "pending"
	EnrichStatusProcessing = "processing"
	EnrichStatusEnriched   = "enriched"
	EnrichStatusFailed     = "failed"
)

// Link is a discovered feed link and its enrichment state.
type Link struct {
	ID             string
	URL            string
	CanonicalURL   string
	Domain         string
	Title          string
	FallbackTitle  string
	Description    string
	Author         string
	ImageURL       string
	PublishedAt    time.Time
	EnrichStatus   string
	EnrichSource   string
	EnrichAttempts int
	LastError      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const linkColumns = `
	id, url, canonical_url, domain, title, fallback_title, description,
	author, image_url, published_at, enrich_status, enrich_source,
	enrich_attempts, last_error, created_at, updated_at`

func scanLink(row pgx.Row) (*Link, error) {
	var (
		link        Link
		id          pgtype.UUID
		canonical   pgtype.Text
		domain      pgtype.Text
		title       pgtype.Text
		fallback    pgtype.Text
		description pgtype.Text
		author      pgtype.Text
		imageURL    pgtype.Text
		publishedAt pgtype.Timestamptz
		source      pgtype.Text
		lastError   pgtype.Text
	)

	err := row.Scan(
		&id, &link.URL, &canonical, &domain, &title, &fallback, &description,
		&author, &imageURL, &publishedAt, &link.EnrichStatus, &source,
		&link.EnrichAttempts, &lastError, &link.CreatedAt, &link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	link.ID = fromUUID(id)
	link.CanonicalURL = fromText(canonical)
	link.Domain = fromText(domain)
	link.Title = fromText(title)
	link.FallbackTitle = fromText(fallback)
	link.Description = fromText(description)
	link.Author = fromText(author)
	link.ImageURL = fromText(imageURL)
	link.PublishedAt = fromTimestamptz(publishedAt)
	link.EnrichSource = fromText(source)
	link.LastError = fromText(lastError)

	return &link, nil
}

// InsertLink records a newly discovered link in pending state. The known
// title and description, when supplied by the feed, become fallback data for
// enrichment. Re-inserting an existing URL returns the existing record's id.
func (db *DB) InsertLink(ctx context.Context, url, knownTitle, knownDescription string) (string, error) {
	var id pgtype.UUID

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO links (url, fallback_title, description, enrich_status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO UPDATE SET updated_at = now()
		RETURNING id
	`, url, toText(knownTitle), toText(knownDescription), EnrichStatusPending).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert link: %w", err)
	}

	return fromUUID(id), nil
}

// GetLink returns a single link record, or nil when it does not exist.
func (db *DB) GetLink(ctx context.Context, id string) (*Link, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, toUUID(id))

	link, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get link: %w", err)
	}

	return link, nil
}

// ClaimPendingLinks atomically claims up to limit pending links whose
// attempt counter is below maxAttempts, marking them processing so that
// concurrent workers never claim the same row.
func (db *DB) ClaimPendingLinks(ctx context.Context, limit, maxAttempts int) ([]Link, error) {
	rows, err := db.Pool.Query(ctx, `
		UPDATE links SET enrich_status = $1, updated_at = now()
		WHERE id IN (
			SELECT id FROM links
			WHERE enrich_status = $2 AND enrich_attempts < $3
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+linkColumns,
		EnrichStatusProcessing, EnrichStatusPending, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("claim pending links: %w", err)
	}
	defer rows.Close()

	var links []Link

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claimed link: %w", err)
		}

		links = append(links, *link)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate claimed links: %w", rows.Err())
	}

	return links, nil
}

// EnrichmentUpdate carries the outcome of enriching one link.
type EnrichmentUpdate struct {
	CanonicalURL string
	Domain       string
	Title        string
	Description  string
	Author       string
	ImageURL     string
	PublishedAt  time.Time
	Source       string
}

// SaveEnrichment persists a completed enrichment and marks the link
// enriched.
func (db *DB) SaveEnrichment(ctx context.Context, id string, update EnrichmentUpdate) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE links SET
			canonical_url = $2,
			domain = $3,
			title = $4,
			description = COALESCE(NULLIF($5, ''), description),
			author = COALESCE(NULLIF($6, ''), author),
			image_url = COALESCE(NULLIF($7, ''), image_url),
			published_at = COALESCE($8, published_at),
			enrich_source = $9,
			enrich_status = $10,
			last_error = NULL,
			updated_at = now()
		WHERE id = $1
	`, toUUID(id), toText(update.CanonicalURL), toText(update.Domain), toText(update.Title),
		update.Description, update.Author, update.ImageURL, toTimestamptz(update.PublishedAt),
		toText(update.Source), EnrichStatusEnriched)
	if err != nil {
		return fmt.Errorf("save enrichment: %w", err)
	}

	return nil
}

// MarkEnrichmentFailed increments the attempt counter and returns the link
// to pending so it can be retried until the attempt gate closes.
func (db *DB) MarkEnrichmentFailed(ctx context.Context, id, errMsg string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE links SET
			enrich_status = $2,
			enrich_attempts = enrich_attempts + 1,
			last_error = $3,
			updated_at = now()
		WHERE id = $1
	`, toUUID(id), EnrichStatusPending, toText(errMsg))
	if err != nil {
		return fmt.Errorf("mark enrichment failed: %w", err)
	}

	return nil
}

// ListEnrichedTitles returns recently enriched links with their stored
// titles, for blocked-title auditing.
func (db *DB) ListEnrichedTitles(ctx context.Context, limit int) ([]Link, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+linkColumns+`
		FROM links
		WHERE enrich_status = $1 AND title IS NOT NULL
		ORDER BY updated_at DESC
		LIMIT $2
	`, EnrichStatusEnriched, limit)
	if err != nil {
		return nil, fmt.Errorf("list enriched titles: %w", err)
	}
	defer rows.Close()

	var links []Link

	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enriched link: %w", err)
		}

		links = append(links, *link)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate enriched links: %w", rows.Err())
	}

	return links, nil
}

// ResetEnrichment flips links back to pending with a cleared title and
// attempt counter, forcing re-enrichment.
func (db *DB) ResetEnrichment(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	uuids := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		uuids = append(uuids, toUUID(id))
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE links SET
			enrich_status = $2,
			enrich_attempts = 0,
			title = NULL,
			enrich_source = NULL,
			updated_at = now()
		WHERE id = ANY($1)
	`, uuids, EnrichStatusPending)
	if err != nil {
		return 0, fmt.Errorf("reset enrichment: %w", err)
	}

	return tag.RowsAffected(), nil
}

func toUUID(id string) pgtype.UUID {
	u, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}

	return pgtype.UUID{Bytes: u, Valid: true}
}

func fromUUID(uid pgtype.UUID) string {
	if !uid.Valid {
		return ""
	}

	return uuid.UUID(uid.Bytes).String()
}
