package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/enexview/internal/config"
	"github.com/xxxsen/enexview/internal/filestore"
	"github.com/xxxsen/enexview/internal/repo"
	"github.com/xxxsen/enexview/internal/service"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<en-export>
	<note>
		<title>Trip plan</title>
		<content><![CDATA[<en-note><p>Pack the bags</p></en-note>]]></content>
	</note>
</en-export>`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := repo.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repo.ApplyMigrations(db))

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	importRepo := repo.NewImportRepo(db)
	cache := service.NewSessionCache(8, time.Minute)
	deps := RouterDeps{
		Imports:   NewImportHandler(service.NewImportService(importRepo, store, cache), 1024*1024),
		Notes:     NewNoteHandler(service.NewNoteService(importRepo, cache)),
		Resources: NewResourceHandler(service.NewResourceService(importRepo, store)),
	}
	engine := gin.New()
	RegisterRoutes(engine.Group("/api/v1"), deps)
	return engine
}

func uploadRequest(t *testing.T, fields map[string]string, fileContent string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if fileContent != "" {
		part, err := writer.CreateFormFile("file", "notes.enex")
		require.NoError(t, err)
		_, err = part.Write([]byte(fileContent))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())
	req := httptest.NewRequest("POST", "/api/v1/enex", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealthEndpoint(t *testing.T) {
	engine := newTestRouter(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

func TestUploadEndpoint(t *testing.T) {
	engine := newTestRouter(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, nil, sampleExport))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "importId")
	require.Contains(t, rec.Body.String(), "noteCount")
}

func TestUploadEndpointRejectsMissingFile(t *testing.T) {
	engine := newTestRouter(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, map[string]string{"hash": ""}, ""))
	require.Contains(t, rec.Body.String(), "file is required")
}

func TestUploadEndpointRejectsBadHash(t *testing.T) {
	engine := newTestRouter(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, map[string]string{"hash": "not-a-hash"}, sampleExport))
	require.Contains(t, rec.Body.String(), "hash must be 64 hex characters")
}

func TestUploadEndpointReportsParseErrors(t *testing.T) {
	engine := newTestRouter(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, uploadRequest(t, nil, "<wrong></wrong>"))
	// gin escapes angle brackets in JSON output, so match the tail only.
	require.Contains(t, rec.Body.String(), "root element")
}

func TestLookupEndpointValidatesHash(t *testing.T) {
	engine := newTestRouter(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/imports/lookup?hash=zz", nil))
	require.Contains(t, rec.Body.String(), "hash must be 64 hex characters")
}

func TestNoteRoutesUnknownImport(t *testing.T) {
	engine := newTestRouter(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/imports/unknown/notes", nil))
	require.Contains(t, rec.Body.String(), "import session not found")
}
