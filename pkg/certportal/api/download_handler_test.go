package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/nattapol/cert-portal/pkg/certportal"
	"github.com/nattapol/cert-portal/pkg/certportal/api"
	"github.com/nattapol/cert-portal/pkg/certportal/repo/memory"
	memorystorage "github.com/nattapol/cert-portal/pkg/certportal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestService(t *testing.T) certportal.Service {
	svc, err := certportal.New(
		certportal.WithRepository(memory.New()),
		certportal.WithBlobStore(memorystorage.New()),
		certportal.WithBucketURL("https://pub-abc.r2.dev"),
	)
	require.NoError(t, err)
	return svc
}

func seedCertificate(t *testing.T, svc certportal.Service) *certportal.Certificate {
	ctx := context.Background()
	event, err := svc.CreateEvent(ctx, certportal.CreateEventRequest{Name: "Demo Day"})
	require.NoError(t, err)

	cert, err := svc.CreateCertificate(ctx, certportal.CreateCertificateRequest{
		EventID:        event.ID,
		UserIdentifier: "EMP001",
		UserName:       "Jane Smith",
		Filename:       "EMP001.pdf",
	})
	require.NoError(t, err)
	return cert
}

func TestDownloadRedirect(t *testing.T) {
	svc := setupTestService(t)
	cert := seedCertificate(t, svc)
	handler := api.NewDownloadHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/download?id="+cert.ID.String(), nil)
	rec := httptest.NewRecorder()
	handler.Resolve(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://pub-abc.r2.dev/demo-day/EMP001.pdf", rec.Header().Get("Location"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	got, err := svc.GetCertificate(context.Background(), cert.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.DownloadCount)
}

func TestDownloadMissingID(t *testing.T) {
	handler := api.NewDownloadHandler(setupTestService(t))

	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	rec := httptest.NewRecorder()
	handler.Resolve(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Missing ID", body["error"])
}

func TestDownloadUnknownCertificate(t *testing.T) {
	handler := api.NewDownloadHandler(setupTestService(t))

	tests := []struct {
		name string
		id   string
	}{
		{"unknown uuid", uuid.New().String()},
		{"malformed id", "not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/download?id="+tt.id, nil)
			rec := httptest.NewRecorder()
			handler.Resolve(rec, req)

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Certificate not found", body["error"])
		})
	}
}
