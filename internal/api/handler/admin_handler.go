package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/oncoscan/oncoscan-api/internal/core/domain"
	"github.com/oncoscan/oncoscan-api/internal/core/ports"
)

const defaultAuditLimit = 50

// AdminHandler serves the role-gated administrative routes. Role enforcement
// happens in middleware; handlers assume an admin identity.
type AdminHandler struct {
	admin ports.AdminService
	audit ports.AuditLog
}

func NewAdminHandler(admin ports.AdminService, audit ports.AuditLog) *AdminHandler {
	return &AdminHandler{admin: admin, audit: audit}
}

// ListUsers returns every user record.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.User
// @Failure      403  {object}  errorResponse
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.admin.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []*domain.User{}
	}
	return c.JSON(http.StatusOK, users)
}

// CreateUser creates a user with a hashed password.
//
// @Summary      Create a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New user"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /admin/users [post]
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.admin.CreateUser(c.Request().Context(), req.Username, req.Password, req.FullName, req.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// SetRole changes an existing user's role.
//
// @Summary      Change a user's role
// @Tags         admin
// @Produce      json
// @Param        username  path   string  true  "Username"
// @Param        role      query  string  true  "New role (admin or doctor)"
// @Success      200   {object}  domain.User
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /admin/users/{username}/role [post]
func (h *AdminHandler) SetRole(c echo.Context) error {
	username := c.Param("username")
	role := c.QueryParam("role")
	if !domain.ValidRole(role) {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be one of: admin doctor")
	}

	user, err := h.admin.SetUserRole(c.Request().Context(), username, role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// GetCompany returns the singleton company profile, or a null envelope when
// none has been created yet.
//
// @Summary      Company profile
// @Tags         admin
// @Produce      json
// @Success      200  {object}  companyEnvelope
// @Router       /admin/company [get]
func (h *AdminHandler) GetCompany(c echo.Context) error {
	profile, err := h.admin.GetCompany(c.Request().Context())
	if err != nil {
		if errors.Is(err, domain.ErrCompanyNotFound) {
			return c.JSON(http.StatusOK, companyEnvelope{})
		}
		return err
	}
	return c.JSON(http.StatusOK, companyEnvelope{Company: &companyView{
		ID:           profile.ID,
		Name:         profile.Name,
		Address:      profile.Address,
		ContactEmail: profile.ContactEmail,
		LogoURL:      profile.LogoURL,
	}})
}

// UpsertCompany creates or mutates the single profile row.
//
// @Summary      Upsert company profile
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      companyRequest  true  "Company profile"
// @Success      200   {object}  companyUpsertResponse
// @Failure      400   {object}  errorResponse
// @Router       /admin/company [post]
func (h *AdminHandler) UpsertCompany(c echo.Context) error {
	var req companyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.admin.UpsertCompany(c.Request().Context(), req.Name, req.Address, req.ContactEmail, req.LogoURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, companyUpsertResponse{Status: "ok", CompanyID: profile.ID})
}

// ListAudits returns the tail of the audit log.
//
// @Summary      Recent audit records
// @Tags         admin
// @Produce      json
// @Param        limit  query     int  false  "Max records (default 50)"
// @Success      200    {array}   domain.AuditRecord
// @Failure      403    {object}  errorResponse
// @Router       /admin/audits [get]
func (h *AdminHandler) ListAudits(c echo.Context) error {
	limit := defaultAuditLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	records, err := h.audit.Tail(limit)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.AuditRecord{}
	}
	return c.JSON(http.StatusOK, records)
}
