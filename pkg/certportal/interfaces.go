package certportal

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for event and certificate persistence.
//
// IncrementDownloadCount must be implemented as a single atomic
// increment-by-one at the store layer, never as a fetch followed by a
// write-back, so that concurrent downloads of the same certificate do not
// lose updates.
type Repository interface {
	// Event operations
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*Event, error)
	ListEvents(ctx context.Context) ([]*EventWithCount, error)
	UpdateEvent(ctx context.Context, event *Event) error
	// DeleteEvent removes the event and, at the data layer, every
	// certificate it owns.
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// Certificate operations
	CreateCertificate(ctx context.Context, cert *Certificate) error
	CreateCertificates(ctx context.Context, certs []*Certificate) error
	GetCertificate(ctx context.Context, id uuid.UUID) (*Certificate, error)
	// GetResolvedCertificate returns the certificate joined with the owning
	// event's slug and storage bucket URL.
	GetResolvedCertificate(ctx context.Context, id uuid.UUID) (*ResolvedCertificate, error)
	ListCertificatesByEvent(ctx context.Context, eventID uuid.UUID) ([]*Certificate, error)
	// SearchCertificates matches user_identifier exactly (case sensitive)
	// or user_name as a case-insensitive substring, within one event.
	SearchCertificates(ctx context.Context, eventID uuid.UUID, query string) ([]*Certificate, error)
	// FindByIdentifier matches user_identifier exactly within one event.
	FindByIdentifier(ctx context.Context, eventID uuid.UUID, identifier string) (*Certificate, error)
	DeleteCertificate(ctx context.Context, id uuid.UUID) error

	// IncrementDownloadCount atomically adds one to the certificate's
	// download counter.
	IncrementDownloadCount(ctx context.Context, id uuid.UUID) error
}

// BlobStore defines the interface for storage backends holding the
// certificate PDFs and event assets.
type BlobStore interface {
	// Upload stores content under the given object key
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams stores content with an explicit content type
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download retrieves content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete removes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for a stored object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
