package certportal

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the certificate portal.
type Service interface {
	// ResolveDownload increments the certificate's download counter
	// best-effort and returns the redirect target
	// "{storage_bucket_url}/{event.slug}/{filename}". A missing id fails
	// with ErrMissingParameter before any store access; an unresolvable id
	// fails with ErrCertificateNotFound. Counter failures are logged and
	// never propagate.
	ResolveDownload(ctx context.Context, certificateID string) (string, error)

	// Event operations
	CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*Event, error)
	ListEvents(ctx context.Context) ([]*EventWithCount, error)
	UpdateEvent(ctx context.Context, req UpdateEventRequest) (*Event, error)
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// Certificate operations
	CreateCertificate(ctx context.Context, req CreateCertificateRequest) (*Certificate, error)
	GetCertificate(ctx context.Context, id uuid.UUID) (*Certificate, error)
	ListCertificates(ctx context.Context, eventID uuid.UUID) ([]*Certificate, error)
	SearchCertificates(ctx context.Context, req SearchCertificatesRequest) ([]*Certificate, error)
	FindCertificateByIdentifier(ctx context.Context, eventID uuid.UUID, identifier string) (*Certificate, error)
	DeleteCertificate(ctx context.Context, id uuid.UUID) error

	// Roster and file operations
	ImportCertificates(ctx context.Context, req ImportCertificatesRequest) (int, error)
	UploadFiles(ctx context.Context, req UploadFilesRequest) ([]string, error)
	AddCertificateWithFile(ctx context.Context, req AddCertificateWithFileRequest) (*Certificate, error)
}
