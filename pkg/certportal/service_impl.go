package certportal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository Repository
	blobStore  BlobStore
	bucketURL  string
	logger     *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the blob storage backend holding certificate PDFs
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobStore = store
	}
}

// WithBucketURL sets the public base URL stamped onto newly created events
// as their storage_bucket_url.
func WithBucketURL(url string) Option {
	return func(s *service) {
		s.bucketURL = strings.TrimSuffix(url, "/")
	}
}

// WithLogger sets the logger used for absorbed failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Download resolution

// ResolveDownload performs the download-accounting and redirect flow. The
// counter increment and the lookup are two independently awaited store
// calls on purpose: an increment failure is logged and discarded so the
// download path stays available, while a lookup failure is fatal to the
// request.
func (s *service) ResolveDownload(ctx context.Context, certificateID string) (string, error) {
	if strings.TrimSpace(certificateID) == "" {
		return "", ErrMissingParameter
	}

	id, err := uuid.Parse(certificateID)
	if err != nil {
		return "", ErrCertificateNotFound
	}

	if err := s.repository.IncrementDownloadCount(ctx, id); err != nil {
		// Counter accuracy is traded for availability of the download.
		s.logger.Error("download count increment failed", "certificate_id", id, "err", err)
	}

	resolved, err := s.repository.GetResolvedCertificate(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCertificateNotFound) {
			return "", ErrCertificateNotFound
		}
		s.logger.Error("certificate lookup failed", "certificate_id", id, "err", err)
		return "", ErrCertificateNotFound
	}

	return fmt.Sprintf("%s/%s/%s", resolved.StorageBucketURL, resolved.EventSlug, resolved.Filename), nil
}

// Event operations

func (s *service) CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("event name is required: %w", ErrMissingParameter)
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if !ValidSlug(slug) {
		return nil, ErrInvalidSlug
	}

	bucketURL := strings.TrimSuffix(req.StorageBucketURL, "/")
	if bucketURL == "" {
		bucketURL = s.bucketURL
	}
	if bucketURL == "" {
		return nil, fmt.Errorf("storage bucket URL is required: %w", ErrMissingParameter)
	}

	now := time.Now().UTC()
	event := &Event{
		ID:               uuid.New(),
		Name:             req.Name,
		Slug:             slug,
		ThemeColor:       req.ThemeColor,
		PosterURL:        req.PosterURL,
		LogoURL:          req.LogoURL,
		StorageBucketURL: bucketURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repository.CreateEvent(ctx, event); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, ErrSlugTaken
		}
		return nil, &EventError{EventID: event.ID, Op: "create", Err: err}
	}

	return event, nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repository.GetEvent(ctx, id)
}

func (s *service) GetEventBySlug(ctx context.Context, slug string) (*Event, error) {
	if slug == "" {
		return nil, ErrMissingParameter
	}
	return s.repository.GetEventBySlug(ctx, slug)
}

func (s *service) ListEvents(ctx context.Context) ([]*EventWithCount, error) {
	return s.repository.ListEvents(ctx)
}

func (s *service) UpdateEvent(ctx context.Context, req UpdateEventRequest) (*Event, error) {
	event, err := s.repository.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		event.Name = req.Name
	}
	if req.ThemeColor != "" {
		event.ThemeColor = req.ThemeColor
	}
	if req.PosterURL != nil {
		event.PosterURL = req.PosterURL
	}
	if req.LogoURL != nil {
		event.LogoURL = req.LogoURL
	}
	event.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateEvent(ctx, event); err != nil {
		return nil, &EventError{EventID: event.ID, Op: "update", Err: err}
	}

	return event, nil
}

func (s *service) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	// Certificate rows go with the event; the cascade lives in the data
	// layer, not here.
	if err := s.repository.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return ErrEventNotFound
		}
		return &EventError{EventID: id, Op: "delete", Err: err}
	}
	return nil
}

// Certificate operations

func (s *service) CreateCertificate(ctx context.Context, req CreateCertificateRequest) (*Certificate, error) {
	if req.UserIdentifier == "" || req.UserName == "" || req.Filename == "" {
		return nil, fmt.Errorf("user_identifier, user_name and filename are required: %w", ErrMissingParameter)
	}

	// The owning event must exist; whether {slug}/{filename} actually
	// resolves in the object store is not checked here.
	if _, err := s.repository.GetEvent(ctx, req.EventID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cert := &Certificate{
		ID:             uuid.New(),
		EventID:        req.EventID,
		UserIdentifier: req.UserIdentifier,
		UserName:       req.UserName,
		Filename:       req.Filename,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repository.CreateCertificate(ctx, cert); err != nil {
		return nil, &CertificateError{CertificateID: cert.ID, Op: "create", Err: err}
	}

	return cert, nil
}

func (s *service) GetCertificate(ctx context.Context, id uuid.UUID) (*Certificate, error) {
	return s.repository.GetCertificate(ctx, id)
}

func (s *service) ListCertificates(ctx context.Context, eventID uuid.UUID) ([]*Certificate, error) {
	return s.repository.ListCertificatesByEvent(ctx, eventID)
}

func (s *service) SearchCertificates(ctx context.Context, req SearchCertificatesRequest) ([]*Certificate, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrMissingParameter
	}
	return s.repository.SearchCertificates(ctx, req.EventID, query)
}

func (s *service) FindCertificateByIdentifier(ctx context.Context, eventID uuid.UUID, identifier string) (*Certificate, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrMissingParameter
	}
	return s.repository.FindByIdentifier(ctx, eventID, identifier)
}

func (s *service) DeleteCertificate(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteCertificate(ctx, id); err != nil {
		if errors.Is(err, ErrCertificateNotFound) {
			return ErrCertificateNotFound
		}
		return &CertificateError{CertificateID: id, Op: "delete", Err: err}
	}
	return nil
}

// Roster and file operations

func (s *service) ImportCertificates(ctx context.Context, req ImportCertificatesRequest) (int, error) {
	event, err := s.repository.GetEvent(ctx, req.EventID)
	if err != nil {
		return 0, err
	}

	rows, err := ParseRoster(req.Roster)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	certs := make([]*Certificate, 0, len(rows))
	for _, row := range rows {
		certs = append(certs, &Certificate{
			ID:             uuid.New(),
			EventID:        event.ID,
			UserIdentifier: row.UserIdentifier,
			UserName:       row.UserName,
			Filename:       row.Filename,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.repository.CreateCertificates(ctx, certs); err != nil {
		return 0, &EventError{EventID: event.ID, Op: "import", Err: err}
	}

	return len(certs), nil
}

func (s *service) UploadFiles(ctx context.Context, req UploadFilesRequest) ([]string, error) {
	if s.blobStore == nil {
		return nil, ErrNoBlobStore
	}
	if req.EventSlug == "" {
		return nil, fmt.Errorf("event slug is required: %w", ErrMissingParameter)
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("no files received: %w", ErrMissingParameter)
	}

	event, err := s.repository.GetEventBySlug(ctx, req.EventSlug)
	if err != nil {
		return nil, err
	}

	uploaded := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		key := fmt.Sprintf("%s/%s", event.Slug, f.Filename)
		err := s.blobStore.UploadWithParams(ctx, f.Content, UploadParams{
			ObjectKey: key,
			MimeType:  "application/pdf",
		})
		if err != nil {
			return uploaded, &StorageError{Key: key, Op: "upload", Err: err}
		}
		uploaded = append(uploaded, key)
	}

	return uploaded, nil
}

func (s *service) AddCertificateWithFile(ctx context.Context, req AddCertificateWithFileRequest) (*Certificate, error) {
	if s.blobStore == nil {
		return nil, ErrNoBlobStore
	}
	if req.UserIdentifier == "" || req.UserName == "" || req.Filename == "" || req.File == nil {
		return nil, fmt.Errorf("identifier, name and file are required: %w", ErrMissingParameter)
	}

	event, err := s.repository.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	// Upload first so the row never points at a file that was refused.
	key := fmt.Sprintf("%s/%s", event.Slug, req.Filename)
	err = s.blobStore.UploadWithParams(ctx, req.File, UploadParams{
		ObjectKey: key,
		MimeType:  "application/pdf",
	})
	if err != nil {
		return nil, &StorageError{Key: key, Op: "upload", Err: err}
	}

	return s.CreateCertificate(ctx, CreateCertificateRequest{
		EventID:        event.ID,
		UserIdentifier: req.UserIdentifier,
		UserName:       req.UserName,
		Filename:       req.Filename,
	})
}
