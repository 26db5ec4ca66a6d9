package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cunhadas/cadastro-api/internal/config"
	"github.com/cunhadas/cadastro-api/internal/db"
	apphttp "github.com/cunhadas/cadastro-api/internal/http"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              BIGSERIAL PRIMARY KEY,
	nome_completo   TEXT NOT NULL,
	email           TEXT NOT NULL,
	senha           TEXT NOT NULL,
	data_nascimento DATE NOT NULL,
	endereco        JSONB NOT NULL,
	numero          TEXT,
	complemento     TEXT,
	cunhado         TEXT,
	foto_url        TEXT,
	perfil          TEXT NOT NULL DEFAULT 'usuario'
)`

type fixedUploader struct {
	url string
}

func (f *fixedUploader) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	return f.url, nil
}

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		Port:           0,
		JWTSecret:      "test-secret-key",
		TokenTTL:       2 * time.Hour,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxUploadBytes: 10 << 20,
	}
}

func setupTestRouter(t *testing.T, uploaderURL string) (*gin.Engine, *pgxpool.Pool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := os.Getenv("TEST_DB_DSN")

	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping integration test")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)

	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}

	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("failed to ensure schema: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE users RESTART IDENTITY`); err != nil {
		t.Fatalf("failed to truncate users: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router := apphttp.NewRouter(logger, pool, &fixedUploader{url: uploaderURL}, testConfig(), nil)

	return router, pool
}

// helpers

func multipartRequest(t *testing.T, method, path string, fields map[string]string, fotoName, token string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	if fotoName != "" {
		fw, err := w.CreateFormFile("foto", fotoName)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte("image-bytes"))
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

func do(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func mustJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

// The full register → login → read → update-with-photo → read-again journey.
func TestUserLifecycle(t *testing.T) {
	uploadedURL := "https://fotos-test.s3.sa-east-1.amazonaws.com/1_perfil.png"
	router, _ := setupTestRouter(t, uploadedURL)

	fields := map[string]string{
		"nome_completo":   "Ana Souza",
		"email":           "ana@example.com",
		"senha":           "senha-segura",
		"data_nascimento": "1995-05-20",
		"cep":             "69000000",
		"logradouro":      "Av. Sete de Setembro",
		"bairro":          "Centro",
		"cidade":          "Manaus",
		"estado":          "AM",
		"numero":          "42",
	}

	// register without a photo
	w := do(router, multipartRequest(t, http.MethodPost, "/users", fields, "", ""))

	if w.Code != http.StatusCreated {
		t.Fatalf("register: got status %d, body=%s", w.Code, w.Body.String())
	}

	var created struct {
		ID     int64  `json:"id"`
		Perfil string `json:"perfil"`
	}
	mustJSON(t, w, &created)

	if created.Perfil != "usuario" {
		t.Fatalf("got perfil %q, want usuario", created.Perfil)
	}

	// login
	loginBody := `{"email":"ana@example.com","senha":"senha-segura"}`
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(loginBody))
	req.Header.Set("Content-Type", "application/json")
	w = do(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login: got status %d, body=%s", w.Code, w.Body.String())
	}

	var login struct {
		Token        string `json:"token"`
		Perfil       string `json:"perfil"`
		NomeCompleto string `json:"nome_completo"`
		ID           int64  `json:"id"`
	}
	mustJSON(t, w, &login)

	if login.ID != created.ID || login.NomeCompleto != "Ana Souza" {
		t.Fatalf("login payload mismatch: %+v", login)
	}

	// read back: photo must be null before any upload
	path := fmt.Sprintf("/users/%d", created.ID)
	req = httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = do(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get: got status %d, body=%s", w.Code, w.Body.String())
	}

	var fetched struct {
		NomeCompleto   string  `json:"nome_completo"`
		Email          string  `json:"email"`
		DataNascimento string  `json:"data_nascimento"`
		FotoURL        *string `json:"foto_url"`
	}
	mustJSON(t, w, &fetched)

	if fetched.FotoURL != nil {
		t.Fatalf("expected null foto_url, got %q", *fetched.FotoURL)
	}

	if fetched.Email != "ana@example.com" || fetched.DataNascimento != "1995-05-20" {
		t.Fatalf("stored fields differ from the registration: %+v", fetched)
	}

	// update with a photo
	updateFields := map[string]string{
		"nome_completo":   "Ana Souza Lima",
		"data_nascimento": "1995-05-20",
		"cep":             "69000000",
		"logradouro":      "Av. Sete de Setembro",
		"bairro":          "Centro",
		"cidade":          "Manaus",
		"estado":          "AM",
		"numero":          "42",
	}
	w = do(router, multipartRequest(t, http.MethodPut, path, updateFields, "perfil.png", login.Token))

	if w.Code != http.StatusOK {
		t.Fatalf("update: got status %d, body=%s", w.Code, w.Body.String())
	}

	// read again: photo set, other fields as updated, email untouched
	req = httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = do(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("get after update: got status %d, body=%s", w.Code, w.Body.String())
	}

	mustJSON(t, w, &fetched)

	if fetched.FotoURL == nil || *fetched.FotoURL != uploadedURL {
		t.Fatalf("foto_url not replaced by the upload result: %+v", fetched.FotoURL)
	}

	if fetched.NomeCompleto != "Ana Souza Lima" || fetched.Email != "ana@example.com" {
		t.Fatalf("unexpected fields after update: %+v", fetched)
	}

	// a second update without a photo keeps the URL
	w = do(router, multipartRequest(t, http.MethodPut, path, updateFields, "", login.Token))

	if w.Code != http.StatusOK {
		t.Fatalf("second update: got status %d, body=%s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = do(router, req)
	mustJSON(t, w, &fetched)

	if fetched.FotoURL == nil || *fetched.FotoURL != uploadedURL {
		t.Fatalf("photo URL lost on a photo-less update: %+v", fetched.FotoURL)
	}
}

func TestAdminBootstrapIsIdempotent(t *testing.T) {
	_, pool := setupTestRouter(t, "")

	ctx := context.Background()

	if err := db.EnsureAdminUser(ctx, pool); err != nil {
		t.Fatalf("first bootstrap failed: %v", err)
	}

	if err := db.EnsureAdminUser(ctx, pool); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	var count int

	err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE perfil = 'admin'`).Scan(&count)

	if err != nil {
		t.Fatalf("count failed: %v", err)
	}

	if count != 1 {
		t.Fatalf("got %d admin rows, want exactly 1", count)
	}
}

func TestListOrderingForAdmin(t *testing.T) {
	router, pool := setupTestRouter(t, "")

	ctx := context.Background()

	if err := db.EnsureAdminUser(ctx, pool); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	// two regular accounts after the admin
	for _, email := range []string{"b@example.com", "a@example.com"} {
		fields := map[string]string{
			"nome_completo":   "Usuária " + email,
			"email":           email,
			"senha":           "senha-segura",
			"data_nascimento": "1990-01-01",
			"cep":             "69000000",
		}
		w := do(router, multipartRequest(t, http.MethodPost, "/users", fields, "", ""))
		if w.Code != http.StatusCreated {
			t.Fatalf("register %s: got status %d, body=%s", email, w.Code, w.Body.String())
		}
	}

	loginBody := fmt.Sprintf(`{"email":%q,"senha":%q}`, db.DefaultAdminEmail, db.DefaultAdminPassword)
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(loginBody))
	req.Header.Set("Content-Type", "application/json")
	w := do(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("admin login: got status %d, body=%s", w.Code, w.Body.String())
	}

	var login struct {
		Token string `json:"token"`
	}
	mustJSON(t, w, &login)

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = do(router, req)

	if w.Code != http.StatusOK {
		t.Fatalf("list: got status %d, body=%s", w.Code, w.Body.String())
	}

	var rows []struct {
		ID int64 `json:"id"`
	}
	mustJSON(t, w, &rows)

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	for i := 1; i < len(rows); i++ {
		if rows[i].ID <= rows[i-1].ID {
			t.Fatalf("rows not in ascending id order: %+v", rows)
		}
	}
}
