package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nattapol/cert-portal/pkg/certportal"
)

// Repository implements certportal.Repository using in-memory storage. It
// stands in for the relational store in tests and development, including
// the data-layer behaviors the service relies on: cascade deletion of
// certificates with their event and a lock-protected counter increment.
type Repository struct {
	mu           sync.RWMutex
	events       map[uuid.UUID]*certportal.Event
	eventsBySlug map[string]uuid.UUID
	certificates map[uuid.UUID]*certportal.Certificate
	certsByEvent map[uuid.UUID][]uuid.UUID
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		events:       make(map[uuid.UUID]*certportal.Event),
		eventsBySlug: make(map[string]uuid.UUID),
		certificates: make(map[uuid.UUID]*certportal.Certificate),
		certsByEvent: make(map[uuid.UUID][]uuid.UUID),
	}
}

// Event operations

func (r *Repository) CreateEvent(ctx context.Context, event *certportal.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.eventsBySlug[event.Slug]; taken {
		return certportal.ErrSlugTaken
	}

	// Copy to avoid external modifications
	eventCopy := *event
	r.events[event.ID] = &eventCopy
	r.eventsBySlug[event.Slug] = event.ID

	return nil
}

func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*certportal.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[id]
	if !exists {
		return nil, certportal.ErrEventNotFound
	}

	eventCopy := *event
	return &eventCopy, nil
}

func (r *Repository) GetEventBySlug(ctx context.Context, slug string) (*certportal.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.eventsBySlug[slug]
	if !exists {
		return nil, certportal.ErrEventNotFound
	}

	eventCopy := *r.events[id]
	return &eventCopy, nil
}

func (r *Repository) ListEvents(ctx context.Context) ([]*certportal.EventWithCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*certportal.EventWithCount, 0, len(r.events))
	for id, event := range r.events {
		result = append(result, &certportal.EventWithCount{
			Event:            *event,
			CertificateCount: int64(len(r.certsByEvent[id])),
		})
	}

	// Newest first, as on the admin listing
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *Repository) UpdateEvent(ctx context.Context, event *certportal.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.events[event.ID]
	if !exists {
		return certportal.ErrEventNotFound
	}
	if existing.Slug != event.Slug {
		return certportal.ErrSlugImmutable
	}

	eventCopy := *event
	r.events[event.ID] = &eventCopy

	return nil
}

func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, exists := r.events[id]
	if !exists {
		return certportal.ErrEventNotFound
	}

	for _, certID := range r.certsByEvent[id] {
		delete(r.certificates, certID)
	}
	delete(r.certsByEvent, id)
	delete(r.eventsBySlug, event.Slug)
	delete(r.events, id)

	return nil
}

// Certificate operations

func (r *Repository) CreateCertificate(ctx context.Context, cert *certportal.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.insertCertificate(cert)
}

func (r *Repository) CreateCertificates(ctx context.Context, certs []*certportal.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cert := range certs {
		if err := r.insertCertificate(cert); err != nil {
			return err
		}
	}
	return nil
}

// insertCertificate requires r.mu to be held.
func (r *Repository) insertCertificate(cert *certportal.Certificate) error {
	if _, exists := r.events[cert.EventID]; !exists {
		return certportal.ErrEventNotFound
	}

	certCopy := *cert
	r.certificates[cert.ID] = &certCopy
	r.certsByEvent[cert.EventID] = append(r.certsByEvent[cert.EventID], cert.ID)

	return nil
}

func (r *Repository) GetCertificate(ctx context.Context, id uuid.UUID) (*certportal.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cert, exists := r.certificates[id]
	if !exists {
		return nil, certportal.ErrCertificateNotFound
	}

	certCopy := *cert
	return &certCopy, nil
}

func (r *Repository) GetResolvedCertificate(ctx context.Context, id uuid.UUID) (*certportal.ResolvedCertificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cert, exists := r.certificates[id]
	if !exists {
		return nil, certportal.ErrCertificateNotFound
	}
	event, exists := r.events[cert.EventID]
	if !exists {
		return nil, certportal.ErrEventNotFound
	}

	return &certportal.ResolvedCertificate{
		Certificate:      *cert,
		EventSlug:        event.Slug,
		StorageBucketURL: event.StorageBucketURL,
	}, nil
}

func (r *Repository) ListCertificatesByEvent(ctx context.Context, eventID uuid.UUID) ([]*certportal.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.certsByEvent[eventID]
	result := make([]*certportal.Certificate, 0, len(ids))
	for _, id := range ids {
		certCopy := *r.certificates[id]
		result = append(result, &certCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *Repository) SearchCertificates(ctx context.Context, eventID uuid.UUID, query string) ([]*certportal.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Identifier compares exactly; name matching is a case-insensitive
	// substring. The two predicates deliberately stay distinct.
	nameQuery := strings.ToLower(query)

	var result []*certportal.Certificate
	for _, id := range r.certsByEvent[eventID] {
		cert := r.certificates[id]
		if cert.UserIdentifier == query || strings.Contains(strings.ToLower(cert.UserName), nameQuery) {
			certCopy := *cert
			result = append(result, &certCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *Repository) FindByIdentifier(ctx context.Context, eventID uuid.UUID, identifier string) (*certportal.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.certsByEvent[eventID] {
		cert := r.certificates[id]
		if cert.UserIdentifier == identifier {
			certCopy := *cert
			return &certCopy, nil
		}
	}

	return nil, certportal.ErrCertificateNotFound
}

func (r *Repository) DeleteCertificate(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cert, exists := r.certificates[id]
	if !exists {
		return certportal.ErrCertificateNotFound
	}

	ids := r.certsByEvent[cert.EventID]
	for i, certID := range ids {
		if certID == id {
			r.certsByEvent[cert.EventID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	delete(r.certificates, id)

	return nil
}

func (r *Repository) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cert, exists := r.certificates[id]
	if !exists {
		return certportal.ErrCertificateNotFound
	}

	cert.DownloadCount++
	return nil
}
