package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/strum/internal/models"
	"github.com/desertthunder/strum/internal/shared"
)

// serviceName tags cached rows so a second provider could share the table.
const serviceName = "spotify"

// PageCache implements page-granular caching over sqlite.
//
// SavePage is idempotent: re-fetching a page replaces its entries wholesale,
// and track rows are deduplicated by the UNIQUE(service, service_id)
// constraint. LoadPage treats any malformed row as a miss wrapped in
// [shared.ErrCacheCorrupt] so callers fall back to the network.
type PageCache struct {
	db *sql.DB
}

// NewPageCache creates a PageCache over an open database.
func NewPageCache(db *sql.DB) *PageCache {
	return &PageCache{db: db}
}

// SavePage persists one fetched page inside a transaction: upsert the track
// rows, delete the page's previous entries, insert the new ordering.
func (c *PageCache) SavePage(page models.Page) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, track := range page.Tracks {
		if err := upsertTrack(tx, track); err != nil {
			return err
		}
	}

	_, err = tx.Exec(
		`DELETE FROM page_entries WHERE source = ? AND page_key = ? AND page_offset = ?`,
		string(page.Source), page.Key, page.Offset,
	)
	if err != nil {
		return fmt.Errorf("failed to clear page entries: %w", err)
	}

	for i, track := range page.Tracks {
		_, err = tx.Exec(
			`INSERT INTO page_entries (source, page_key, page_offset, position, page_limit, total, service_id, fetched_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			string(page.Source), page.Key, page.Offset, i, page.Limit, page.Total, track.ID, page.FetchedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert page entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit page: %w", err)
	}
	return nil
}

// LoadPage retrieves one cached page.
//
// A page with no entries fails with [sql.ErrNoRows]; rows that no longer join
// to a track fail with [shared.ErrCacheCorrupt].
func (c *PageCache) LoadPage(id models.PageID) (*models.Page, error) {
	rows, err := c.db.Query(
		`SELECT e.page_limit, e.total, e.fetched_at,
		        t.service_id, t.title, t.artist, t.album, t.duration_ms, t.uri, t.preview_url
		 FROM page_entries e
		 LEFT JOIN tracks t ON t.service = ? AND t.service_id = e.service_id
		 WHERE e.source = ? AND e.page_key = ? AND e.page_offset = ?
		 ORDER BY e.position`,
		serviceName, string(id.Source), id.Key, id.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query page: %w", err)
	}
	defer rows.Close()

	page := models.Page{Source: id.Source, Key: id.Key, Offset: id.Offset}
	for rows.Next() {
		var (
			fetchedAt  time.Time
			serviceID  sql.NullString
			title      sql.NullString
			artist     sql.NullString
			album      sql.NullString
			durationMS sql.NullInt64
			uri        sql.NullString
			previewURL sql.NullString
		)
		err = rows.Scan(&page.Limit, &page.Total, &fetchedAt,
			&serviceID, &title, &artist, &album, &durationMS, &uri, &previewURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrCacheCorrupt, err)
		}
		if !serviceID.Valid {
			return nil, fmt.Errorf("%w: page entry without track row", shared.ErrCacheCorrupt)
		}

		page.FetchedAt = fetchedAt
		page.Tracks = append(page.Tracks, models.Track{
			ID:         serviceID.String,
			Title:      title.String,
			Artist:     artist.String,
			Album:      album.String,
			Duration:   time.Duration(durationMS.Int64) * time.Millisecond,
			URI:        uri.String,
			PreviewURL: previewURL.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCacheCorrupt, err)
	}
	if len(page.Tracks) == 0 {
		return nil, sql.ErrNoRows
	}

	return &page, nil
}

// LoadPages returns every cached page, for seeding the state's library map on
// startup.
func (c *PageCache) LoadPages() ([]models.Page, error) {
	rows, err := c.db.Query(
		`SELECT DISTINCT source, page_key, page_offset FROM page_entries`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var ids []models.PageID
	for rows.Next() {
		var id models.PageID
		var source string
		if err := rows.Scan(&source, &id.Key, &id.Offset); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrCacheCorrupt, err)
		}
		id.Source = models.PageSource(source)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCacheCorrupt, err)
	}

	var pages []models.Page
	for _, id := range ids {
		page, err := c.LoadPage(id)
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, shared.ErrCacheCorrupt) {
			continue
		}
		if err != nil {
			return nil, err
		}
		pages = append(pages, *page)
	}
	return pages, nil
}

// CacheTrack stores one track row. Returns nil when the track already exists.
func (c *PageCache) CacheTrack(track models.Track) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertTrack(tx, track); err != nil {
		return err
	}
	return tx.Commit()
}

// Track retrieves one cached track by provider id.
func (c *PageCache) Track(trackID string) (*models.Track, error) {
	row := c.db.QueryRow(
		`SELECT service_id, title, artist, album, duration_ms, uri, preview_url
		 FROM tracks WHERE service = ? AND service_id = ?`,
		serviceName, trackID,
	)

	var t models.Track
	var durationMS int64
	var artist, album, uri, previewURL sql.NullString
	err := row.Scan(&t.ID, &t.Title, &artist, &album, &durationMS, &uri, &previewURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: track %s not cached", shared.ErrNotFound, trackID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrCacheCorrupt, err)
	}

	t.Artist = artist.String
	t.Album = album.String
	t.Duration = time.Duration(durationMS) * time.Millisecond
	t.URI = uri.String
	t.PreviewURL = previewURL.String
	return &t, nil
}

// upsertTrack inserts a track row, updating mutable fields on conflict so a
// refreshed preview URL wins over a stale one.
func upsertTrack(tx *sql.Tx, track models.Track) error {
	_, err := tx.Exec(
		`INSERT INTO tracks (service, service_id, title, artist, album, duration_ms, uri, preview_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(service, service_id) DO UPDATE SET
		   title = excluded.title,
		   artist = excluded.artist,
		   album = excluded.album,
		   duration_ms = excluded.duration_ms,
		   uri = excluded.uri,
		   preview_url = excluded.preview_url`,
		serviceName, track.ID, track.Title, track.Artist, track.Album,
		track.Duration.Milliseconds(), track.URI, track.PreviewURL,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}
