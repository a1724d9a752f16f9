package server_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alkime/lectio/internal/api"
	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/internal/config"
	"github.com/alkime/lectio/internal/server"
	"github.com/alkime/lectio/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, mutate ...func(*config.Config)) *server.Server {
	t.Helper()

	ctx := context.Background()

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "lectio.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	scripture, err := store.SampleScripture()
	require.NoError(t, err)
	require.NoError(t, st.Seed(ctx, scripture))

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<h1>lectio</h1>"), 0o600))

	cfg := &config.Config{
		Env:              "test",
		Port:             "8080",
		HSTSMaxAge:       31536000,
		CSPMode:          "relaxed",
		LogLevel:         "info",
		HistogramBuckets: 10,
		StaticDir:        staticDir,
	}
	for _, m := range mutate {
		m(cfg)
	}

	// Create a test logger (discard output)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	srv, err := server.New(cfg, logger, st, scripture)
	require.NoError(t, err)

	return srv
}

func serve(t *testing.T, srv *server.Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	return w
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newServer(t)

	w := serve(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code, "Health endpoint should return 200 OK")
	assert.Contains(t, w.Body.String(), "healthy")
	assert.Contains(t, w.Body.String(), "lectio")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestStaticFallback(t *testing.T) {
	t.Parallel()

	srv := newServer(t)

	w := serve(t, srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lectio")

	w = serve(t, srv, httptest.NewRequest(http.MethodGet, "/missing.js", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequireToken(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(c *config.Config) { c.APIToken = "secret" })

	w := serve(t, srv, httptest.NewRequest(http.MethodGet, "/api/bibles", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/bibles", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(t, srv, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/bibles", nil)
	req.Header.Set("Authorization", "Bearer secret")
	assert.Equal(t, http.StatusOK, serve(t, srv, req).Code)

	// Health stays open.
	assert.Equal(t, http.StatusOK, serve(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
}

func TestBooksShape(t *testing.T) {
	t.Parallel()

	srv := newServer(t)

	w := serve(t, srv, httptest.NewRequest(http.MethodGet, "/api/bibles/1/books", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var rows []map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "Genesis", rows[0]["Books"]["canon_book_name"])
	assert.InDelta(t, 1, rows[0]["CanonBooks"]["canonical_order"], 0)

	w = serve(t, srv, httptest.NewRequest(http.MethodGet, "/api/bibles/abc/books", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = serve(t, srv, httptest.NewRequest(http.MethodGet, "/api/bibles/42/books", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerses(t *testing.T) {
	t.Parallel()

	srv := newServer(t)

	tests := []struct {
		name   string
		query  string
		status int
		body   string
	}{
		{name: "found", query: "book=Genesis&chapter=1&start=1&end=1", status: http.StatusOK, body: "1 In the beginning God created"},
		{name: "other version", query: "book=Genesis&chapter=1&start=1&end=1&version=WEB", status: http.StatusOK, body: "heavens"},
		{name: "bad range", query: "book=Genesis&chapter=1&start=0&end=1", status: http.StatusBadRequest, body: "Invalid verse range"},
		{name: "past end", query: "book=Genesis&chapter=1&start=1&end=9", status: http.StatusBadRequest, body: "Verse end exceeds chapter"},
		{name: "missing version", query: "book=Genesis&chapter=1&start=1&end=1&version=ESV", status: http.StatusNotFound, body: "Passage not found"},
		{name: "missing params", query: "book=Genesis", status: http.StatusUnprocessableEntity, body: "detail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := serve(t, srv, httptest.NewRequest(http.MethodGet, "/api/verses?"+tt.query, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func upload(t *testing.T, fields map[string]string, audio []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if audio != nil {
		part, err := mw.CreateFormFile("file", "recording.webm")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}

	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/recordings", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestCreateRecording_Validation(t *testing.T) {
	t.Parallel()

	srv := newServer(t)

	base := func() map[string]string {
		return map[string]string{
			"bible_id":          "1",
			"chapter_id":        "1",
			"verse_index_start": "1",
			"verse_index_end":   "2",
		}
	}

	w := serve(t, srv, upload(t, base(), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	fields := base()
	fields["verse_index_end"] = "40"
	w = serve(t, srv, upload(t, fields, []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Verse end exceeds chapter")

	fields = base()
	fields["chapter_id"] = "999"
	w = serve(t, srv, upload(t, fields, []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid chapter")

	w = serve(t, srv, upload(t, base(), []byte{}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Empty file")

	delete(fields, "verse_index_start")
	w = serve(t, srv, upload(t, fields, []byte("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDownloadArchive(t *testing.T) {
	t.Parallel()

	srv := newServer(t)

	fields := map[string]string{
		"bible_id":          "1",
		"chapter_id":        "1",
		"verse_index_start": "1",
		"verse_index_end":   "1",
	}

	for range 2 {
		w := serve(t, srv, upload(t, fields, []byte("audio")))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := serve(t, srv, httptest.NewRequest(http.MethodGet, "/api/bibles/1/download", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)

	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}

	assert.Equal(t, []string{"Genesis/01.bin", "Genesis/01_002.bin"}, names)
}

func TestClientAgainstServer(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	client, err := api.NewClient(ts.URL)
	require.NoError(t, err)

	ctx := context.Background()

	translations, err := client.ListTranslations(ctx)
	require.NoError(t, err)
	require.Len(t, translations, 1)
	assert.Equal(t, "Sample Bible (English)", translations[0].Label())

	versions, err := client.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"KJV", "WEB"}, versions)

	books, err := client.ListBooks(ctx, translations[0].ID)
	require.NoError(t, err)
	require.NotEmpty(t, books)
	assert.Equal(t, "Genesis", books[0].DisplayName)

	chapters, err := client.ListChapters(ctx, books[0].ID)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, 5, chapters[0].VerseCount)

	text, err := client.FetchVerseText(ctx, catalog.Passage{
		BookName: "Genesis", ChapterNumber: 1, VerseStart: 1, VerseEnd: 2, Version: "KJV",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "1 In the beginning"))

	id, err := client.SubmitRecording(ctx, catalog.Submission{
		TranslationID:     translations[0].ID,
		ChapterID:         chapters[0].ID,
		VerseStart:        1,
		VerseEnd:          2,
		DurationSeconds:   6,
		TranscriptionText: "one two three",
		Audio:             []byte("ID3 fake mp3"),
		AudioMIME:         "audio/mpeg",
	})
	require.NoError(t, err)

	recordings, err := client.ListRecordings(ctx, translations[0].ID)
	require.NoError(t, err)
	require.Len(t, recordings, 1)
	assert.Equal(t, id, recordings[0].ID)
	require.NotNil(t, recordings[0].WPM)
	assert.InDelta(t, 30.0, *recordings[0].WPM, 1e-9)

	summary, err := client.FetchSummaryStats(ctx, translations[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.InDelta(t, 30.0, summary.Median, 1e-9)

	audio, mime, err := client.FetchAudio(ctx, id)
	require.NoError(t, err)
	data, err := io.ReadAll(audio)
	require.NoError(t, err)
	require.NoError(t, audio.Close())
	assert.Equal(t, "audio/mpeg", mime)
	assert.Equal(t, []byte("ID3 fake mp3"), data)

	end := 3
	require.NoError(t, client.UpdateRecording(ctx, id, api.RecordingUpdate{VerseEnd: &end}))

	require.NoError(t, client.DeleteRecording(ctx, id))
	require.ErrorIs(t, client.DeleteRecording(ctx, id), api.ErrNotFound)

	_, err = client.ListBooks(ctx, 42)
	require.ErrorIs(t, err, api.ErrNotFound)
}
