package domain

import "time"

// CompanyProfile is the singleton organisation record. At most one profile
// exists; upserts mutate the same row in place.
type CompanyProfile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	LogoURL      string    `json:"logo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
