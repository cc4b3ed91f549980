package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nattapol/cert-portal/pkg/certportal"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements certportal.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "slug") {
				return certportal.ErrSlugTaken
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return certportal.ErrEventNotFound
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Event operations

func (r *Repository) CreateEvent(ctx context.Context, event *certportal.Event) error {
	query := `
		INSERT INTO events (
			id, name, slug, theme_color, poster_url, logo_url,
			storage_bucket_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		event.ID, event.Name, event.Slug, event.ThemeColor,
		event.PosterURL, event.LogoURL, event.StorageBucketURL,
		event.CreatedAt, event.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create event", err)
	}

	return nil
}

func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*certportal.Event, error) {
	query := `
		SELECT id, name, slug, theme_color, poster_url, logo_url,
		       storage_bucket_url, created_at, updated_at
		FROM events WHERE id = $1`

	event, err := r.scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, certportal.ErrEventNotFound
		}
		return nil, r.handlePostgresError("get event", err)
	}

	return event, nil
}

func (r *Repository) GetEventBySlug(ctx context.Context, slug string) (*certportal.Event, error) {
	query := `
		SELECT id, name, slug, theme_color, poster_url, logo_url,
		       storage_bucket_url, created_at, updated_at
		FROM events WHERE slug = $1`

	event, err := r.scanEvent(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, certportal.ErrEventNotFound
		}
		return nil, r.handlePostgresError("get event by slug", err)
	}

	return event, nil
}

func (r *Repository) scanEvent(row pgx.Row) (*certportal.Event, error) {
	var event certportal.Event
	err := row.Scan(
		&event.ID, &event.Name, &event.Slug, &event.ThemeColor,
		&event.PosterURL, &event.LogoURL, &event.StorageBucketURL,
		&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *Repository) ListEvents(ctx context.Context) ([]*certportal.EventWithCount, error) {
	query := `
		SELECT e.id, e.name, e.slug, e.theme_color, e.poster_url, e.logo_url,
		       e.storage_bucket_url, e.created_at, e.updated_at,
		       COUNT(c.id) AS certificate_count
		FROM events e
		LEFT JOIN certificates c ON c.event_id = e.id
		GROUP BY e.id
		ORDER BY e.created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, r.handlePostgresError("list events", err)
	}
	defer rows.Close()

	var result []*certportal.EventWithCount
	for rows.Next() {
		var e certportal.EventWithCount
		err := rows.Scan(
			&e.ID, &e.Name, &e.Slug, &e.ThemeColor,
			&e.PosterURL, &e.LogoURL, &e.StorageBucketURL,
			&e.CreatedAt, &e.UpdatedAt, &e.CertificateCount)
		if err != nil {
			return nil, r.handlePostgresError("list events", err)
		}
		result = append(result, &e)
	}

	return result, rows.Err()
}

func (r *Repository) UpdateEvent(ctx context.Context, event *certportal.Event) error {
	// The slug column is intentionally absent from the SET list.
	query := `
		UPDATE events
		SET name = $2, theme_color = $3, poster_url = $4, logo_url = $5,
		    storage_bucket_url = $6, updated_at = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		event.ID, event.Name, event.ThemeColor, event.PosterURL,
		event.LogoURL, event.StorageBucketURL, event.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update event", err)
	}
	if tag.RowsAffected() == 0 {
		return certportal.ErrEventNotFound
	}

	return nil
}

func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	// certificates.event_id carries ON DELETE CASCADE; the owned rows go
	// with the event.
	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete event", err)
	}
	if tag.RowsAffected() == 0 {
		return certportal.ErrEventNotFound
	}

	return nil
}

// Certificate operations

func (r *Repository) CreateCertificate(ctx context.Context, cert *certportal.Certificate) error {
	query := `
		INSERT INTO certificates (
			id, event_id, user_identifier, user_name, filename,
			download_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		cert.ID, cert.EventID, cert.UserIdentifier, cert.UserName,
		cert.Filename, cert.DownloadCount, cert.CreatedAt, cert.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create certificate", err)
	}

	return nil
}

func (r *Repository) CreateCertificates(ctx context.Context, certs []*certportal.Certificate) error {
	for _, cert := range certs {
		if err := r.CreateCertificate(ctx, cert); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) GetCertificate(ctx context.Context, id uuid.UUID) (*certportal.Certificate, error) {
	query := `
		SELECT id, event_id, user_identifier, user_name, filename,
		       download_count, created_at, updated_at
		FROM certificates WHERE id = $1`

	var cert certportal.Certificate
	err := r.db.QueryRow(ctx, query, id).Scan(
		&cert.ID, &cert.EventID, &cert.UserIdentifier, &cert.UserName,
		&cert.Filename, &cert.DownloadCount, &cert.CreatedAt, &cert.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, certportal.ErrCertificateNotFound
		}
		return nil, r.handlePostgresError("get certificate", err)
	}

	return &cert, nil
}

func (r *Repository) GetResolvedCertificate(ctx context.Context, id uuid.UUID) (*certportal.ResolvedCertificate, error) {
	query := `
		SELECT c.id, c.event_id, c.user_identifier, c.user_name, c.filename,
		       c.download_count, c.created_at, c.updated_at,
		       e.slug, e.storage_bucket_url
		FROM certificates c
		JOIN events e ON e.id = c.event_id
		WHERE c.id = $1`

	var rc certportal.ResolvedCertificate
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rc.ID, &rc.EventID, &rc.UserIdentifier, &rc.UserName, &rc.Filename,
		&rc.DownloadCount, &rc.CreatedAt, &rc.UpdatedAt,
		&rc.EventSlug, &rc.StorageBucketURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, certportal.ErrCertificateNotFound
		}
		return nil, r.handlePostgresError("get resolved certificate", err)
	}

	return &rc, nil
}

func (r *Repository) ListCertificatesByEvent(ctx context.Context, eventID uuid.UUID) ([]*certportal.Certificate, error) {
	query := `
		SELECT id, event_id, user_identifier, user_name, filename,
		       download_count, created_at, updated_at
		FROM certificates WHERE event_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, r.handlePostgresError("list certificates", err)
	}
	defer rows.Close()

	return r.collectCertificates(rows)
}

func (r *Repository) SearchCertificates(ctx context.Context, eventID uuid.UUID, query string) ([]*certportal.Certificate, error) {
	// Exact match on the identifier, ILIKE substring on the name. The
	// identifier comparison stays case sensitive.
	sql := `
		SELECT id, event_id, user_identifier, user_name, filename,
		       download_count, created_at, updated_at
		FROM certificates
		WHERE event_id = $1
		  AND (user_identifier = $2 OR user_name ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, sql, eventID, query)
	if err != nil {
		return nil, r.handlePostgresError("search certificates", err)
	}
	defer rows.Close()

	return r.collectCertificates(rows)
}

func (r *Repository) FindByIdentifier(ctx context.Context, eventID uuid.UUID, identifier string) (*certportal.Certificate, error) {
	query := `
		SELECT id, event_id, user_identifier, user_name, filename,
		       download_count, created_at, updated_at
		FROM certificates
		WHERE event_id = $1 AND user_identifier = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var cert certportal.Certificate
	err := r.db.QueryRow(ctx, query, eventID, identifier).Scan(
		&cert.ID, &cert.EventID, &cert.UserIdentifier, &cert.UserName,
		&cert.Filename, &cert.DownloadCount, &cert.CreatedAt, &cert.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, certportal.ErrCertificateNotFound
		}
		return nil, r.handlePostgresError("find by identifier", err)
	}

	return &cert, nil
}

func (r *Repository) collectCertificates(rows pgx.Rows) ([]*certportal.Certificate, error) {
	var result []*certportal.Certificate
	for rows.Next() {
		var cert certportal.Certificate
		err := rows.Scan(
			&cert.ID, &cert.EventID, &cert.UserIdentifier, &cert.UserName,
			&cert.Filename, &cert.DownloadCount, &cert.CreatedAt, &cert.UpdatedAt)
		if err != nil {
			return nil, r.handlePostgresError("scan certificate", err)
		}
		result = append(result, &cert)
	}
	return result, rows.Err()
}

func (r *Repository) DeleteCertificate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM certificates WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete certificate", err)
	}
	if tag.RowsAffected() == 0 {
		return certportal.ErrCertificateNotFound
	}

	return nil
}

func (r *Repository) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	// Single atomic increment at the store layer. Never read the counter
	// here and write it back; concurrent downloads must not lose updates.
	query := `
		UPDATE certificates
		SET download_count = download_count + 1, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return r.handlePostgresError("increment download count", err)
	}
	if tag.RowsAffected() == 0 {
		return certportal.ErrCertificateNotFound
	}

	return nil
}
