package certportal

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrMissingParameter indicates a required request parameter was absent
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrEventNotFound indicates an event was not found
	ErrEventNotFound = errors.New("event not found")

	// ErrCertificateNotFound indicates a certificate was not found
	ErrCertificateNotFound = errors.New("certificate not found")

	// ErrSlugTaken indicates another event already owns the slug
	ErrSlugTaken = errors.New("event slug already in use")

	// ErrInvalidSlug indicates a slug is not URL-safe
	ErrInvalidSlug = errors.New("invalid event slug")

	// ErrSlugImmutable indicates an attempt to change an event's slug
	ErrSlugImmutable = errors.New("event slug cannot be changed")

	// ErrNoBlobStore indicates a file operation was requested on a service
	// configured without a blob store
	ErrNoBlobStore = errors.New("no blob store configured")

	// ErrUploadFailed indicates an upload operation failed
	ErrUploadFailed = errors.New("upload failed")
)

// EventError represents an error related to event operations
type EventError struct {
	EventID uuid.UUID
	Op      string
	Err     error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event operation %s failed for event %s: %v", e.Op, e.EventID, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

// CertificateError represents an error related to certificate operations
type CertificateError struct {
	CertificateID uuid.UUID
	Op            string
	Err           error
}

func (e *CertificateError) Error() string {
	return fmt.Sprintf("certificate operation %s failed for certificate %s: %v", e.Op, e.CertificateID, e.Err)
}

func (e *CertificateError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
