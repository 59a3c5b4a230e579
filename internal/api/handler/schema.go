package handler

// --- Request / Response types ---

type tokenRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type createUserRequest struct {
	Username string `json:"username"  validate:"required"`
	FullName string `json:"full_name"`
	Password string `json:"password"  validate:"required"`
	Role     string `json:"role"      validate:"omitempty,oneof=admin doctor"`
}

type companyRequest struct {
	Name         string `json:"name"          validate:"required"`
	Address      string `json:"address"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email"`
	LogoURL      string `json:"logo_url"`
}

type companyUpsertResponse struct {
	Status    string `json:"status"`
	CompanyID string `json:"company_id"`
}

type companyView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactEmail string `json:"contact_email"`
	LogoURL      string `json:"logo_url"`
}

type companyEnvelope struct {
	Company *companyView `json:"company"`
}

type statusResponse struct {
	Service string `json:"service"`
	Model   any    `json:"model"`
}
