package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/oncoscan/oncoscan-api/internal/audit"
	"github.com/oncoscan/oncoscan-api/internal/core/domain"
	"github.com/oncoscan/oncoscan-api/internal/core/service"
	"github.com/oncoscan/oncoscan-api/internal/imaging"
	"github.com/oncoscan/oncoscan-api/internal/model"
)

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Username]; ok {
		return nil, domain.ErrUserExists
	}
	copied := *user
	copied.ID = "u-" + user.Username
	r.users[user.Username] = &copied
	out := copied
	return &out, nil
}

func (r *memUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.users))
	for name := range r.users {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*domain.User, 0, len(names))
	for _, name := range names {
		copied := *r.users[name]
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memUserRepo) UpdateRole(_ context.Context, username, role string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	copied := *u
	return &copied, nil
}

type memCompanyRepo struct {
	mu      sync.Mutex
	profile *domain.CompanyProfile
}

func (r *memCompanyRepo) Get(_ context.Context) (*domain.CompanyProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profile == nil {
		return nil, domain.ErrCompanyNotFound
	}
	copied := *r.profile
	return &copied, nil
}

func (r *memCompanyRepo) Upsert(_ context.Context, profile *domain.CompanyProfile) (*domain.CompanyProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profile == nil {
		copied := *profile
		copied.ID = "company-1"
		copied.CreatedAt = time.Now().UTC()
		r.profile = &copied
	} else {
		r.profile.Name = profile.Name
		r.profile.Address = profile.Address
		r.profile.ContactEmail = profile.ContactEmail
		r.profile.LogoURL = profile.LogoURL
	}
	copied := *r.profile
	return &copied, nil
}

type testServer struct {
	e        *echo.Echo
	auditLog *audit.Log
}

// newTestServer wires the full stack with in-memory repositories, the
// simulator backend, and a real CSV audit log. Echo middleware registers
// prometheus collectors globally, so the router is built once per process.
var (
	serverOnce sync.Once
	server     *testServer
)

func getTestServer(t *testing.T) *testServer {
	t.Helper()
	serverOnce.Do(func() {
		nop := zerolog.Nop()
		ctx := context.Background()

		userRepo := newMemUserRepo()
		authSvc := service.NewAuthService(userRepo, "test-secret", time.Hour, nop)
		authSvc.EnsureSeedUser(ctx)

		adminSvc := service.NewAdminService(userRepo, &memCompanyRepo{}, nop)
		if _, err := adminSvc.CreateUser(ctx, "chief_admin", "adminpass", "Chief Admin", domain.RoleAdmin); err != nil {
			panic(fmt.Sprintf("seed admin: %v", err))
		}

		modelSvc := model.New(model.Config{SimulateDelay: time.Millisecond}, nop)
		if err := modelSvc.Load(); err != nil {
			panic(fmt.Sprintf("load model: %v", err))
		}

		dir, err := os.MkdirTemp("", "oncoscan-api-test")
		if err != nil {
			panic(err)
		}
		auditLog := audit.NewLog(filepath.Join(dir, "audit_log.csv"))
		predictions := service.NewPredictionService(modelSvc, imaging.NewDecoder(), auditLog, nil, filepath.Join(dir, "uploads"), nop)

		e := NewRouter(Dependencies{
			Auth:        authSvc,
			Admin:       adminSvc,
			Predictions: predictions,
			Model:       modelSvc,
			Audit:       auditLog,
			Logger:      nop,
		})
		server = &testServer{e: e, auditLog: auditLog}
	})
	return server
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) token(t *testing.T, username, password string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := s.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("token request for %s: %d %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if resp.TokenType != "bearer" || resp.AccessToken == "" {
		t.Fatalf("malformed token response: %+v", resp)
	}
	return resp.AccessToken
}

func authedRequest(method, target, token string, body *bytes.Buffer, contentType string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return resp.Detail
}

func scanPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = uint8((i * 7) % 256)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func uploadBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestRouter_TokenAndIdentity(t *testing.T) {
	s := getTestServer(t)
	token := s.token(t, "doc_user", "securepass")

	rec := s.do(authedRequest(http.MethodGet, "/users/me", token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /users/me: %d %s", rec.Code, rec.Body.String())
	}

	var me struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode identity: %v", err)
	}
	if me.UserID != "doc_user" || me.Role != domain.RoleDoctor {
		t.Fatalf("unexpected identity: %+v", me)
	}
	if me.Username != "Dr. Alice Onco" {
		t.Fatalf("expected seeded display name, got %q", me.Username)
	}
}

func TestRouter_TokenRejectsBadPassword(t *testing.T) {
	s := getTestServer(t)

	form := url.Values{"username": {"doc_user"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	rec := s.do(req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if d := detail(t, rec); d != "incorrect username or password" {
		t.Fatalf("unexpected detail: %q", d)
	}
}

func TestRouter_MeRequiresToken(t *testing.T) {
	s := getTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/users/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if detail(t, rec) == "" {
		t.Fatalf("error envelope missing detail")
	}

	rec = s.do(authedRequest(http.MethodGet, "/users/me", "not-a-jwt", nil, ""))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", rec.Code)
	}
}

func TestRouter_Predict(t *testing.T) {
	s := getTestServer(t)
	token := s.token(t, "doc_user", "securepass")

	before, err := s.auditLog.Tail(1000)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}

	body, contentType := uploadBody(t, "chest_scan.png", scanPNG(t))
	rec := s.do(authedRequest(http.MethodPost, "/predict", token, body, contentType))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /predict: %d %s", rec.Code, rec.Body.String())
	}

	var result domain.PredictionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.UserID != "doc_user" || result.Filename != "chest_scan.png" {
		t.Fatalf("unexpected result attribution: %+v", result)
	}
	if result.ScanModality != domain.ModalityCT {
		t.Fatalf("expected CT for .png, got %q", result.ScanModality)
	}
	if result.ProbabilityMalignancy < 0 || result.ProbabilityMalignancy > 1 {
		t.Fatalf("probability out of range: %v", result.ProbabilityMalignancy)
	}
	if result.PrimaryFinding != domain.FindingFor(result.ProbabilityMalignancy) {
		t.Fatalf("finding %q inconsistent with probability %v", result.PrimaryFinding, result.ProbabilityMalignancy)
	}
	if result.AuditID == "" {
		t.Fatalf("missing audit id")
	}

	after, err := s.auditLog.Tail(1000)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("audit log grew by %d rows, want 1", len(after)-len(before))
	}
	last := after[len(after)-1]
	if last.AuditID != result.AuditID || last.UserID != "doc_user" {
		t.Fatalf("audit row mismatch: %+v", last)
	}
}

func TestRouter_PredictUnparseableUpload(t *testing.T) {
	s := getTestServer(t)
	token := s.token(t, "doc_user", "securepass")

	body, contentType := uploadBody(t, "notes.txt", []byte("not an image at all"))
	rec := s.do(authedRequest(http.MethodPost, "/predict", token, body, contentType))
	if rec.Code != http.StatusOK {
		t.Fatalf("unparseable upload must still predict: %d %s", rec.Code, rec.Body.String())
	}

	var result domain.PredictionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.ScanModality != domain.ModalityUnknown || result.PrimaryFinding != domain.FindingNone {
		t.Fatalf("unexpected synthetic result: %+v", result)
	}
}

func TestRouter_PredictMissingFile(t *testing.T) {
	s := getTestServer(t)
	token := s.token(t, "doc_user", "securepass")

	var empty bytes.Buffer
	w := multipart.NewWriter(&empty)
	_ = w.Close()

	rec := s.do(authedRequest(http.MethodPost, "/predict", token, &empty, w.FormDataContentType()))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if d := detail(t, rec); d != "file is required" {
		t.Fatalf("unexpected detail: %q", d)
	}
}

func TestRouter_AdminRoutesForbiddenForDoctor(t *testing.T) {
	s := getTestServer(t)
	token := s.token(t, "doc_user", "securepass")

	targets := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/admin/users"},
		{http.MethodPost, "/admin/users"},
		{http.MethodGet, "/admin/company"},
		{http.MethodGet, "/admin/audits"},
		{http.MethodPost, "/models/reload"},
	}
	for _, target := range targets {
		rec := s.do(authedRequest(target.method, target.path, token, nil, ""))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", target.method, target.path, rec.Code)
		}
		if d := detail(t, rec); d != "admin role required" {
			t.Fatalf("%s %s: unexpected detail %q", target.method, target.path, d)
		}
	}
}

func TestRouter_AdminLifecycle(t *testing.T) {
	s := getTestServer(t)
	token := s.token(t, "chief_admin", "adminpass")

	// The seeded accounts are visible.
	rec := s.do(authedRequest(http.MethodGet, "/admin/users", token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin/users: %d %s", rec.Code, rec.Body.String())
	}
	var users []domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	found := map[string]bool{}
	for _, u := range users {
		found[u.Username] = true
	}
	if !found["doc_user"] || !found["chief_admin"] {
		t.Fatalf("seeded users missing from listing: %+v", users)
	}

	// Create, then promote.
	body := bytes.NewBufferString(`{"username":"dr_resident","password":"pw12345","full_name":"Dr. Resident"}`)
	rec = s.do(authedRequest(http.MethodPost, "/admin/users", token, body, echo.MIMEApplicationJSON))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /admin/users: %d %s", rec.Code, rec.Body.String())
	}
	var created domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created user: %v", err)
	}
	if created.Role != domain.RoleDoctor {
		t.Fatalf("default role should be doctor, got %q", created.Role)
	}

	rec = s.do(authedRequest(http.MethodPost, "/admin/users/dr_resident/role?role=admin", token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("role update: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(authedRequest(http.MethodPost, "/admin/users/ghost/role?role=admin", token, nil, ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user role update: expected 404, got %d", rec.Code)
	}

	// Company profile: null envelope first, then upsert and read back.
	rec = s.do(authedRequest(http.MethodGet, "/admin/company", token, nil, ""))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"company":null}` {
		t.Fatalf("GET /admin/company before upsert: %d %s", rec.Code, rec.Body.String())
	}

	body = bytes.NewBufferString(`{"name":"OncoScan Clinic","contact_email":"info@clinic.example"}`)
	rec = s.do(authedRequest(http.MethodPost, "/admin/company", token, body, echo.MIMEApplicationJSON))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /admin/company: %d %s", rec.Code, rec.Body.String())
	}
	var upsert struct {
		Status    string `json:"status"`
		CompanyID string `json:"company_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &upsert); err != nil {
		t.Fatalf("decode upsert response: %v", err)
	}
	if upsert.Status != "ok" || upsert.CompanyID == "" {
		t.Fatalf("unexpected upsert response: %+v", upsert)
	}

	rec = s.do(authedRequest(http.MethodGet, "/admin/company", token, nil, ""))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "OncoScan Clinic") {
		t.Fatalf("GET /admin/company after upsert: %d %s", rec.Code, rec.Body.String())
	}

	// Audit tail is admin-visible.
	rec = s.do(authedRequest(http.MethodGet, "/admin/audits?limit=5", token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin/audits: %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_ModelStatusAndReload(t *testing.T) {
	s := getTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status: %d", rec.Code)
	}
	var status struct {
		Service string          `json:"service"`
		Model   json.RawMessage `json:"model"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Service != "oncoscan" || len(status.Model) == 0 {
		t.Fatalf("unexpected status payload: %s", rec.Body.String())
	}

	token := s.token(t, "chief_admin", "adminpass")
	rec = s.do(authedRequest(http.MethodPost, "/models/reload", token, nil, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /models/reload: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"state":"ready"`) {
		t.Fatalf("reload should leave the model ready: %s", rec.Body.String())
	}
}

func TestRouter_Health(t *testing.T) {
	s := getTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health: %d", rec.Code)
	}

	// No database wired in tests, so the readiness probe is not registered.
	rec = s.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /health/ready without mongo: expected 404, got %d", rec.Code)
	}
}
