package certportal

import (
	"time"

	"github.com/google/uuid"
)

// Event is a named grouping of certificates issued together. Its slug is
// both the public routing key and the storage path prefix for every file
// belonging to the event, so it is immutable once created.
type Event struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	ThemeColor       string     `json:"theme_color,omitempty"`
	PosterURL        *string    `json:"poster_url,omitempty"`
	LogoURL          *string    `json:"logo_url,omitempty"`
	StorageBucketURL string     `json:"storage_bucket_url"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Certificate binds a recipient identity to a stored PDF inside an event's
// storage namespace. Filename must match the object key suffix the PDF was
// uploaded under; the full key is "{event.slug}/{filename}".
//
// UserIdentifier is an exact-match search key (employee code, phone
// number) and is not required to be unique. UserName is matched
// case-insensitively as a substring.
type Certificate struct {
	ID             uuid.UUID `json:"id"`
	EventID        uuid.UUID `json:"event_id"`
	UserIdentifier string    `json:"user_identifier"`
	UserName       string    `json:"user_name"`
	Filename       string    `json:"filename"`
	DownloadCount  int64     `json:"download_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EventWithCount is an event together with the number of certificates it
// owns, as shown on the admin listing.
type EventWithCount struct {
	Event
	CertificateCount int64 `json:"certificate_count"`
}

// ResolvedCertificate is a certificate joined with the owning event fields
// needed to compose the download redirect target.
type ResolvedCertificate struct {
	Certificate
	EventSlug        string `json:"event_slug"`
	StorageBucketURL string `json:"storage_bucket_url"`
}
