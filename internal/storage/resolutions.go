package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/newsfold/linkresolver/internal/core/rcache"
)

// GetResolution returns the cached resolution for originalURL, or nil when
// no row exists.
func (db *DB) GetResolution(ctx context.Context, originalURL string) (*rcache.Entry, error) {
	var entry rcache.Entry

	err := db.Pool.QueryRow(ctx, `
		SELECT original_url, canonical_url, redirect_chain, resolved_at, expires_at
		FROM link_resolutions
		WHERE original_url = $1
	`, originalURL).Scan(&entry.OriginalURL, &entry.CanonicalURL, &entry.RedirectChain, &entry.ResolvedAt, &entry.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get resolution: %w", err)
	}

	return &entry, nil
}

// UpsertResolution stores a resolution keyed by original URL, refreshing the
// timestamps on conflict.
func (db *DB) UpsertResolution(ctx context.Context, entry *rcache.Entry) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO link_resolutions (original_url, canonical_url, redirect_chain, resolved_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (original_url) DO UPDATE SET
			canonical_url = EXCLUDED.canonical_url,
			redirect_chain = EXCLUDED.redirect_chain,
			resolved_at = EXCLUDED.resolved_at,
			expires_at = EXCLUDED.expires_at
	`, entry.OriginalURL, entry.CanonicalURL, entry.RedirectChain, entry.ResolvedAt, entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert resolution: %w", err)
	}

	return nil
}

// DeleteResolution removes a single cached resolution.
func (db *DB) DeleteResolution(ctx context.Context, originalURL string) error {
	if _, err := db.Pool.Exec(ctx, `DELETE FROM link_resolutions WHERE original_url = $1`, originalURL); err != nil {
		return fmt.Errorf("delete resolution: %w", err)
	}

	return nil
}

// DeleteExpiredResolutions removes all cached resolutions past expiry and
// returns the number deleted.
func (db *DB) DeleteExpiredResolutions(ctx context.Context) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM link_resolutions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired resolutions: %w", err)
	}

	return tag.RowsAffected(), nil
}
