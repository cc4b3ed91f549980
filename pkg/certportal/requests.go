package certportal

import (
	"io"

	"github.com/google/uuid"
)

// Request DTOs

// CreateEventRequest contains parameters for creating an event.
//
// Slug is optional; when empty it is derived from Name. StorageBucketURL
// is optional when the service was configured with a default bucket URL.
type CreateEventRequest struct {
	Name             string
	Slug             string
	ThemeColor       string
	PosterURL        *string
	LogoURL          *string
	StorageBucketURL string
}

// UpdateEventRequest contains the mutable event fields. The slug is
// deliberately absent: changing it would orphan every stored object under
// the old prefix.
type UpdateEventRequest struct {
	EventID    uuid.UUID
	Name       string
	ThemeColor string
	PosterURL  *string
	LogoURL    *string
}

// CreateCertificateRequest contains parameters for registering a single
// certificate row. The file itself must already exist in the blob store
// under "{event.slug}/{filename}"; this is not verified here and a
// dangling filename surfaces as a broken download link.
type CreateCertificateRequest struct {
	EventID        uuid.UUID
	UserIdentifier string
	UserName       string
	Filename       string
}

// AddCertificateWithFileRequest uploads one PDF and registers its row in a
// single call (the admin "single entry" flow).
type AddCertificateWithFileRequest struct {
	EventID        uuid.UUID
	UserIdentifier string
	UserName       string
	Filename       string
	File           io.Reader
}

// ImportCertificatesRequest bulk-creates certificate rows for one event
// from a CSV roster with header "user_identifier,user_name,filename".
type ImportCertificatesRequest struct {
	EventID uuid.UUID
	Roster  io.Reader
}

// UploadFilesRequest relays pre-rendered PDFs into the event's storage
// namespace. Keys become "{event.slug}/{filename}".
type UploadFilesRequest struct {
	EventSlug string
	Files     []UploadFile
}

// UploadFile is one named file in an UploadFilesRequest.
type UploadFile struct {
	Filename string
	Content  io.Reader
}

// SearchCertificatesRequest contains parameters for the public search.
type SearchCertificatesRequest struct {
	EventID uuid.UUID
	Query   string
}
