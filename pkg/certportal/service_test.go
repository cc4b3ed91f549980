package certportal_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/nattapol/cert-portal/pkg/certportal"
	"github.com/nattapol/cert-portal/pkg/certportal/repo/memory"
	memorystorage "github.com/nattapol/cert-portal/pkg/certportal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []certportal.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []certportal.Option{},
			expectError: true,
		},
		{
			name: "with repository should succeed",
			options: []certportal.Option{
				certportal.WithRepository(memory.New()),
			},
			expectError: false,
		},
		{
			name: "with repository and blob store should succeed",
			options: []certportal.Option{
				certportal.WithRepository(memory.New()),
				certportal.WithBlobStore(memorystorage.New()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := certportal.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func setupTestService(t *testing.T) certportal.Service {
	repo := memory.New()
	store := memorystorage.New()

	svc, err := certportal.New(
		certportal.WithRepository(repo),
		certportal.WithBlobStore(store),
		certportal.WithBucketURL("https://pub-abc.r2.dev"),
	)
	require.NoError(t, err)
	require.NotNil(t, svc)

	return svc
}

func createTestEvent(t *testing.T, svc certportal.Service, name string) *certportal.Event {
	event, err := svc.CreateEvent(context.Background(), certportal.CreateEventRequest{Name: name})
	require.NoError(t, err)
	require.NotNil(t, event)
	return event
}

func createTestCertificate(t *testing.T, svc certportal.Service, eventID uuid.UUID, identifier, name, filename string) *certportal.Certificate {
	cert, err := svc.CreateCertificate(context.Background(), certportal.CreateCertificateRequest{
		EventID:        eventID,
		UserIdentifier: identifier,
		UserName:       name,
		Filename:       filename,
	})
	require.NoError(t, err)
	require.NotNil(t, cert)
	return cert
}

func TestResolveDownload(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	event := createTestEvent(t, svc, "Demo Day")
	require.Equal(t, "demo-day", event.Slug)
	cert := createTestCertificate(t, svc, event.ID, "EMP001", "Jane Smith", "EMP001.pdf")

	target, err := svc.ResolveDownload(ctx, cert.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "https://pub-abc.r2.dev/demo-day/EMP001.pdf", target)

	// Each successful resolution bumps the counter
	got, err := svc.GetCertificate(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.DownloadCount)

	_, err = svc.ResolveDownload(ctx, cert.ID.String())
	require.NoError(t, err)
	got, err = svc.GetCertificate(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.DownloadCount)
}

func TestResolveDownloadErrors(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"empty id", "", certportal.ErrMissingParameter},
		{"blank id", "   ", certportal.ErrMissingParameter},
		{"non-uuid id", "not-a-uuid", certportal.ErrCertificateNotFound},
		{"unknown id", uuid.New().String(), certportal.ErrCertificateNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := svc.ResolveDownload(ctx, tt.id)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, target)
		})
	}
}

// failingCounterRepo simulates a store where the counter update fails while
// lookups keep working.
type failingCounterRepo struct {
	certportal.Repository
}

func (r *failingCounterRepo) IncrementDownloadCount(ctx context.Context, id uuid.UUID) error {
	return errors.New("counter store down")
}

func TestResolveDownloadSurvivesCounterFailure(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	svc, err := certportal.New(
		certportal.WithRepository(&failingCounterRepo{Repository: repo}),
		certportal.WithBucketURL("https://pub-abc.r2.dev"),
	)
	require.NoError(t, err)

	event, err := svc.CreateEvent(ctx, certportal.CreateEventRequest{Name: "Demo Day"})
	require.NoError(t, err)
	cert, err := svc.CreateCertificate(ctx, certportal.CreateCertificateRequest{
		EventID:        event.ID,
		UserIdentifier: "EMP001",
		UserName:       "Jane Smith",
		Filename:       "EMP001.pdf",
	})
	require.NoError(t, err)

	// The download still resolves; only the accounting is lost.
	target, err := svc.ResolveDownload(ctx, cert.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "https://pub-abc.r2.dev/demo-day/EMP001.pdf", target)

	got, err := svc.GetCertificate(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.DownloadCount)
}

func TestResolveDownloadConcurrent(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	event := createTestEvent(t, svc, "Concurrency Summit")
	cert := createTestCertificate(t, svc, event.ID, "EMP042", "Grace Hopper", "EMP042.pdf")

	const downloads = 50
	var wg sync.WaitGroup
	for i := 0; i < downloads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ResolveDownload(ctx, cert.ID.String())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.GetCertificate(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(downloads), got.DownloadCount)
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	t.Run("derives slug from name", func(t *testing.T) {
		event, err := svc.CreateEvent(ctx, certportal.CreateEventRequest{Name: "Annual Tech Conference 2026"})
		require.NoError(t, err)
		assert.Equal(t, "annual-tech-conference-2026", event.Slug)
		assert.Equal(t, "https://pub-abc.r2.dev", event.StorageBucketURL)
		assert.NotEqual(t, uuid.Nil, event.ID)
	})

	t.Run("explicit slug wins over derived", func(t *testing.T) {
		event, err := svc.CreateEvent(ctx, certportal.CreateEventRequest{
			Name: "Some Long Event Name",
			Slug: "short",
		})
		require.NoError(t, err)
		assert.Equal(t, "short", event.Slug)
	})

	t.Run("duplicate slug rejected", func(t *testing.T) {
		_, err := svc.CreateEvent(ctx, certportal.CreateEventRequest{Name: "Clash", Slug: "clash"})
		require.NoError(t, err)

		_, err = svc.CreateEvent(ctx, certportal.CreateEventRequest{Name: "Other", Slug: "clash"})
		assert.ErrorIs(t, err, certportal.ErrSlugTaken)
	})

	t.Run("invalid slug rejected", func(t *testing.T) {
		_, err := svc.CreateEvent(ctx, certportal.CreateEventRequest{Name: "Bad", Slug: "has space"})
		assert.ErrorIs(t, err, certportal.ErrInvalidSlug)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		_, err := svc.CreateEvent(ctx, certportal.CreateEventRequest{})
		assert.ErrorIs(t, err, certportal.ErrMissingParameter)
	})

	t.Run("explicit bucket URL overrides default and is trimmed", func(t *testing.T) {
		event, err := svc.CreateEvent(ctx, certportal.CreateEventRequest{
			Name:             "Special Bucket",
			StorageBucketURL: "https://cdn.example.com/",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com", event.StorageBucketURL)
	})
}

func TestCreateEventRequiresBucketURL(t *testing.T) {
	svc, err := certportal.New(certportal.WithRepository(memory.New()))
	require.NoError(t, err)

	_, err = svc.CreateEvent(context.Background(), certportal.CreateEventRequest{Name: "No Bucket"})
	assert.ErrorIs(t, err, certportal.ErrMissingParameter)
}

func TestUpdateEvent(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	event := createTestEvent(t, svc, "Original Name")
	poster := "https://cdn.example.com/poster.png"

	updated, err := svc.UpdateEvent(ctx, certportal.UpdateEventRequest{
		EventID:    event.ID,
		Name:       "Renamed Event",
		ThemeColor: "#336699",
		PosterURL:  &poster,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Event", updated.Name)
	assert.Equal(t, "#336699", updated.ThemeColor)
	require.NotNil(t, updated.PosterURL)
	assert.Equal(t, poster, *updated.PosterURL)

	// The slug never moves, even when the name does.
	assert.Equal(t, event.Slug, updated.Slug)

	_, err = svc.UpdateEvent(ctx, certportal.UpdateEventRequest{EventID: uuid.New(), Name: "Ghost"})
	assert.ErrorIs(t, err, certportal.ErrEventNotFound)
}

func TestDeleteEventCascades(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	event := createTestEvent(t, svc, "Doomed Event")
	cert := createTestCertificate(t, svc, event.ID, "EMP007", "James", "EMP007.pdf")

	require.NoError(t, svc.DeleteEvent(ctx, event.ID))

	_, err := svc.GetEvent(ctx, event.ID)
	assert.ErrorIs(t, err, certportal.ErrEventNotFound)

	_, err = svc.GetCertificate(ctx, cert.ID)
	assert.ErrorIs(t, err, certportal.ErrCertificateNotFound)

	assert.ErrorIs(t, svc.DeleteEvent(ctx, event.ID), certportal.ErrEventNotFound)
}

func TestCreateCertificate(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	event := createTestEvent(t, svc, "Cert Event")

	t.Run("success", func(t *testing.T) {
		cert := createTestCertificate(t, svc, event.ID, "EMP001", "Jane Smith", "EMP001.pdf")
		assert.Equal(t, event.ID, cert.EventID)
		assert.Equal(t, int64(0), cert.DownloadCount)
	})

	t.Run("unknown event rejected", func(t *testing.T) {
		_, err := svc.CreateCertificate(ctx, certportal.CreateCertificateRequest{
			EventID:        uuid.New(),
			UserIdentifier: "EMP001",
			UserName:       "Jane Smith",
			Filename:       "EMP001.pdf",
		})
		assert.ErrorIs(t, err, certportal.ErrEventNotFound)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		_, err := svc.CreateCertificate(ctx, certportal.CreateCertificateRequest{
			EventID:  event.ID,
			UserName: "Jane Smith",
		})
		assert.ErrorIs(t, err, certportal.ErrMissingParameter)
	})
}

func TestSearchCertificates(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	event := createTestEvent(t, svc, "Search Event")

	createTestCertificate(t, svc, event.ID, "EMP001", "Jane Smith", "EMP001.pdf")
	createTestCertificate(t, svc, event.ID, "EMP002", "John Smith", "EMP002.pdf")
	createTestCertificate(t, svc, event.ID, "0812345678", "Alice Wong", "0812345678.pdf")

	t.Run("identifier matches exactly", func(t *testing.T) {
		certs, err := svc.SearchCertificates(ctx, certportal.SearchCertificatesRequest{
			EventID: event.ID,
			Query:   "EMP001",
		})
		require.NoError(t, err)
		require.Len(t, certs, 1)
		assert.Equal(t, "Jane Smith", certs[0].UserName)
	})

	t.Run("name matches case-insensitive substring", func(t *testing.T) {
		certs, err := svc.SearchCertificates(ctx, certportal.SearchCertificatesRequest{
			EventID: event.ID,
			Query:   "smith",
		})
		require.NoError(t, err)
		assert.Len(t, certs, 2)
	})

	t.Run("blank query rejected", func(t *testing.T) {
		_, err := svc.SearchCertificates(ctx, certportal.SearchCertificatesRequest{
			EventID: event.ID,
			Query:   "   ",
		})
		assert.ErrorIs(t, err, certportal.ErrMissingParameter)
	})
}

func TestFindCertificateByIdentifier(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	event := createTestEvent(t, svc, "Lookup Event")
	createTestCertificate(t, svc, event.ID, "EMP001", "Jane Smith", "EMP001.pdf")

	cert, err := svc.FindCertificateByIdentifier(ctx, event.ID, "EMP001")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", cert.UserName)

	_, err = svc.FindCertificateByIdentifier(ctx, event.ID, "emp001")
	assert.ErrorIs(t, err, certportal.ErrCertificateNotFound)

	_, err = svc.FindCertificateByIdentifier(ctx, event.ID, "")
	assert.ErrorIs(t, err, certportal.ErrMissingParameter)
}

func TestImportCertificates(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	event := createTestEvent(t, svc, "Import Event")

	t.Run("valid roster", func(t *testing.T) {
		csv := "user_identifier,user_name,filename\n" +
			"EMP001,Jane Smith,EMP001.pdf\n" +
			"EMP002,John Doe,EMP002.pdf\n"

		count, err := svc.ImportCertificates(ctx, certportal.ImportCertificatesRequest{
			EventID: event.ID,
			Roster:  strings.NewReader(csv),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		certs, err := svc.ListCertificates(ctx, event.ID)
		require.NoError(t, err)
		assert.Len(t, certs, 2)
	})

	t.Run("empty roster rejected", func(t *testing.T) {
		_, err := svc.ImportCertificates(ctx, certportal.ImportCertificatesRequest{
			EventID: event.ID,
			Roster:  strings.NewReader(""),
		})
		assert.ErrorIs(t, err, certportal.ErrEmptyRoster)
	})

	t.Run("wrong header rejected", func(t *testing.T) {
		csv := "id,name,file\nEMP001,Jane Smith,EMP001.pdf\n"
		_, err := svc.ImportCertificates(ctx, certportal.ImportCertificatesRequest{
			EventID: event.ID,
			Roster:  strings.NewReader(csv),
		})
		assert.ErrorIs(t, err, certportal.ErrRosterHeader)
	})

	t.Run("unknown event rejected before parsing", func(t *testing.T) {
		_, err := svc.ImportCertificates(ctx, certportal.ImportCertificatesRequest{
			EventID: uuid.New(),
			Roster:  strings.NewReader("user_identifier,user_name,filename\nEMP001,Jane,a.pdf\n"),
		})
		assert.ErrorIs(t, err, certportal.ErrEventNotFound)
	})
}

func TestUploadFiles(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)
	event := createTestEvent(t, svc, "Upload Event")

	t.Run("stores files under the event slug", func(t *testing.T) {
		uploaded, err := svc.UploadFiles(ctx, certportal.UploadFilesRequest{
			EventSlug: event.Slug,
			Files: []certportal.UploadFile{
				{Filename: "EMP001.pdf", Content: strings.NewReader("%PDF-1.4 one")},
				{Filename: "EMP002.pdf", Content: strings.NewReader("%PDF-1.4 two")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{
			fmt.Sprintf("%s/EMP001.pdf", event.Slug),
			fmt.Sprintf("%s/EMP002.pdf", event.Slug),
		}, uploaded)
	})

	t.Run("missing slug rejected", func(t *testing.T) {
		_, err := svc.UploadFiles(ctx, certportal.UploadFilesRequest{
			Files: []certportal.UploadFile{{Filename: "a.pdf", Content: strings.NewReader("x")}},
		})
		assert.ErrorIs(t, err, certportal.ErrMissingParameter)
	})

	t.Run("no files rejected", func(t *testing.T) {
		_, err := svc.UploadFiles(ctx, certportal.UploadFilesRequest{EventSlug: event.Slug})
		assert.ErrorIs(t, err, certportal.ErrMissingParameter)
	})

	t.Run("unknown slug rejected", func(t *testing.T) {
		_, err := svc.UploadFiles(ctx, certportal.UploadFilesRequest{
			EventSlug: "no-such-event",
			Files:     []certportal.UploadFile{{Filename: "a.pdf", Content: strings.NewReader("x")}},
		})
		assert.ErrorIs(t, err, certportal.ErrEventNotFound)
	})
}

func TestUploadFilesWithoutBlobStore(t *testing.T) {
	svc, err := certportal.New(
		certportal.WithRepository(memory.New()),
		certportal.WithBucketURL("https://pub-abc.r2.dev"),
	)
	require.NoError(t, err)

	_, err = svc.UploadFiles(context.Background(), certportal.UploadFilesRequest{
		EventSlug: "any",
		Files:     []certportal.UploadFile{{Filename: "a.pdf", Content: strings.NewReader("x")}},
	})
	assert.ErrorIs(t, err, certportal.ErrNoBlobStore)
}

func TestAddCertificateWithFile(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	store := memorystorage.New()

	svc, err := certportal.New(
		certportal.WithRepository(repo),
		certportal.WithBlobStore(store),
		certportal.WithBucketURL("https://pub-abc.r2.dev"),
	)
	require.NoError(t, err)

	event, err := svc.CreateEvent(ctx, certportal.CreateEventRequest{Name: "Single Entry Event"})
	require.NoError(t, err)

	cert, err := svc.AddCertificateWithFile(ctx, certportal.AddCertificateWithFileRequest{
		EventID:        event.ID,
		UserIdentifier: "EMP099",
		UserName:       "Ada Lovelace",
		Filename:       "EMP099.pdf",
		File:           strings.NewReader("%PDF-1.4 single"),
	})
	require.NoError(t, err)
	assert.Equal(t, "EMP099.pdf", cert.Filename)

	// The PDF landed under the event slug with the right content type.
	meta, err := store.GetObjectMeta(ctx, fmt.Sprintf("%s/EMP099.pdf", event.Slug))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", meta.ContentType)

	// And the row resolves end to end.
	target, err := svc.ResolveDownload(ctx, cert.ID.String())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("https://pub-abc.r2.dev/%s/EMP099.pdf", event.Slug), target)

	_, err = svc.AddCertificateWithFile(ctx, certportal.AddCertificateWithFileRequest{
		EventID:        event.ID,
		UserIdentifier: "EMP100",
		UserName:       "No File",
		Filename:       "EMP100.pdf",
	})
	assert.ErrorIs(t, err, certportal.ErrMissingParameter)
}

func TestListEventsWithCounts(t *testing.T) {
	ctx := context.Background()
	svc := setupTestService(t)

	a := createTestEvent(t, svc, "Event A")
	b := createTestEvent(t, svc, "Event B")
	createTestCertificate(t, svc, a.ID, "EMP001", "Jane", "EMP001.pdf")
	createTestCertificate(t, svc, a.ID, "EMP002", "John", "EMP002.pdf")

	events, err := svc.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)

	counts := make(map[uuid.UUID]int64, len(events))
	for _, e := range events {
		counts[e.ID] = e.CertificateCount
	}
	assert.Equal(t, int64(2), counts[a.ID])
	assert.Equal(t, int64(0), counts[b.ID])
}
