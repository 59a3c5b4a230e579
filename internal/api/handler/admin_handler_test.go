package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
)

type stubAdminService struct {
	users   []*domain.User
	company *domain.CompanyProfile
}

func (s *stubAdminService) ListUsers(_ context.Context) ([]*domain.User, error) {
	return s.users, nil
}

func (s *stubAdminService) CreateUser(_ context.Context, username, _, fullName, role string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			return nil, domain.ErrUserExists
		}
	}
	if role == "" {
		role = domain.RoleDoctor
	}
	user := &domain.User{ID: "u-" + username, Username: username, FullName: fullName, Role: role}
	s.users = append(s.users, user)
	return user, nil
}

func (s *stubAdminService) SetUserRole(_ context.Context, username, role string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			u.Role = role
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *stubAdminService) GetCompany(_ context.Context) (*domain.CompanyProfile, error) {
	if s.company == nil {
		return nil, domain.ErrCompanyNotFound
	}
	return s.company, nil
}

func (s *stubAdminService) UpsertCompany(_ context.Context, name, address, contactEmail, logoURL string) (*domain.CompanyProfile, error) {
	s.company = &domain.CompanyProfile{
		ID:           "company-1",
		Name:         name,
		Address:      address,
		ContactEmail: contactEmail,
		LogoURL:      logoURL,
	}
	return s.company, nil
}

type stubAuditLog struct {
	records []domain.AuditRecord
	gotTail int
}

func (l *stubAuditLog) Append(rec domain.AuditRecord) error {
	l.records = append(l.records, rec)
	return nil
}

func (l *stubAuditLog) Tail(limit int) ([]domain.AuditRecord, error) {
	l.gotTail = limit
	if limit > len(l.records) {
		limit = len(l.records)
	}
	return l.records[len(l.records)-limit:], nil
}

func newAdminContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAdminHandler_ListUsersEmpty(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{}, &stubAuditLog{})

	c, rec := newAdminContext(t, http.MethodGet, "/admin/users", "")
	if err := h.ListUsers(c); err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("empty store must serialize as [], got %q", body)
	}
}

func TestAdminHandler_CreateUser(t *testing.T) {
	svc := &stubAdminService{}
	h := NewAdminHandler(svc, &stubAuditLog{})

	c, rec := newAdminContext(t, http.MethodPost, "/admin/users",
		`{"username":"dr_new","password":"pw","full_name":"Dr. New","role":"admin"}`)
	if err := h.CreateUser(c); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.Username != "dr_new" || user.Role != domain.RoleAdmin {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAdminHandler_CreateUserValidation(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{}, &stubAuditLog{})

	cases := []string{
		`{"password":"pw"}`,
		`{"username":"x"}`,
		`{"username":"x","password":"pw","role":"superuser"}`,
	}
	for _, body := range cases {
		c, _ := newAdminContext(t, http.MethodPost, "/admin/users", body)
		err := h.CreateUser(c)

		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 HTTPError, got %v", body, err)
		}
	}
}

func TestAdminHandler_CreateUserDuplicate(t *testing.T) {
	svc := &stubAdminService{users: []*domain.User{{Username: "dr_new"}}}
	h := NewAdminHandler(svc, &stubAuditLog{})

	c, _ := newAdminContext(t, http.MethodPost, "/admin/users",
		`{"username":"dr_new","password":"pw"}`)
	if err := h.CreateUser(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAdminHandler_SetRole(t *testing.T) {
	svc := &stubAdminService{users: []*domain.User{{Username: "doc_user", Role: domain.RoleDoctor}}}
	h := NewAdminHandler(svc, &stubAuditLog{})

	c, rec := newAdminContext(t, http.MethodPost, "/admin/users/doc_user/role?role=admin", "")
	c.SetParamNames("username")
	c.SetParamValues("doc_user")

	if err := h.SetRole(c); err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.users[0].Role != domain.RoleAdmin {
		t.Fatalf("role not persisted: %+v", svc.users[0])
	}
}

func TestAdminHandler_SetRoleInvalid(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{}, &stubAuditLog{})

	c, _ := newAdminContext(t, http.MethodPost, "/admin/users/doc_user/role?role=superuser", "")
	c.SetParamNames("username")
	c.SetParamValues("doc_user")

	err := h.SetRole(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestAdminHandler_SetRoleUnknownUser(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{}, &stubAuditLog{})

	c, _ := newAdminContext(t, http.MethodPost, "/admin/users/ghost/role?role=admin", "")
	c.SetParamNames("username")
	c.SetParamValues("ghost")

	if err := h.SetRole(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAdminHandler_GetCompanyAbsent(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{}, &stubAuditLog{})

	c, rec := newAdminContext(t, http.MethodGet, "/admin/company", "")
	if err := h.GetCompany(c); err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"company":null}` {
		t.Fatalf("expected null envelope, got %q", body)
	}
}

func TestAdminHandler_UpsertThenGetCompany(t *testing.T) {
	svc := &stubAdminService{}
	h := NewAdminHandler(svc, &stubAuditLog{})

	c, rec := newAdminContext(t, http.MethodPost, "/admin/company",
		`{"name":"OncoScan Clinic","address":"1 Main St","contact_email":"info@clinic.example"}`)
	if err := h.UpsertCompany(c); err != nil {
		t.Fatalf("UpsertCompany: %v", err)
	}

	var upsert map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &upsert); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if upsert["status"] != "ok" || upsert["company_id"] != "company-1" {
		t.Fatalf("unexpected upsert response: %v", upsert)
	}

	c, rec = newAdminContext(t, http.MethodGet, "/admin/company", "")
	if err := h.GetCompany(c); err != nil {
		t.Fatalf("GetCompany: %v", err)
	}

	var envelope struct {
		Company *companyView `json:"company"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Company == nil || envelope.Company.Name != "OncoScan Clinic" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestAdminHandler_UpsertCompanyValidation(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{}, &stubAuditLog{})

	cases := []string{
		`{}`,
		`{"name":"Clinic","contact_email":"not-an-email"}`,
	}
	for _, body := range cases {
		c, _ := newAdminContext(t, http.MethodPost, "/admin/company", body)
		err := h.UpsertCompany(c)

		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400 HTTPError, got %v", body, err)
		}
	}
}

func TestAdminHandler_ListAudits(t *testing.T) {
	auditLog := &stubAuditLog{records: []domain.AuditRecord{
		{AuditID: "a1"}, {AuditID: "a2"}, {AuditID: "a3"},
	}}
	h := NewAdminHandler(&stubAdminService{}, auditLog)

	c, rec := newAdminContext(t, http.MethodGet, "/admin/audits?limit=2", "")
	if err := h.ListAudits(c); err != nil {
		t.Fatalf("ListAudits: %v", err)
	}
	if auditLog.gotTail != 2 {
		t.Fatalf("limit not forwarded, got %d", auditLog.gotTail)
	}

	var records []domain.AuditRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(records) != 2 || records[1].AuditID != "a3" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestAdminHandler_ListAuditsDefaultLimit(t *testing.T) {
	auditLog := &stubAuditLog{}
	h := NewAdminHandler(&stubAdminService{}, auditLog)

	c, rec := newAdminContext(t, http.MethodGet, "/admin/audits", "")
	if err := h.ListAudits(c); err != nil {
		t.Fatalf("ListAudits: %v", err)
	}
	if auditLog.gotTail != defaultAuditLimit {
		t.Fatalf("expected default limit %d, got %d", defaultAuditLimit, auditLog.gotTail)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("empty log must serialize as [], got %q", body)
	}
}

func TestAdminHandler_ListAuditsBadLimit(t *testing.T) {
	h := NewAdminHandler(&stubAdminService{}, &stubAuditLog{})

	for _, target := range []string{"/admin/audits?limit=-1", "/admin/audits?limit=abc"} {
		c, _ := newAdminContext(t, http.MethodGet, target, "")
		err := h.ListAudits(c)

		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("target %s: expected 400 HTTPError, got %v", target, err)
		}
	}
}
