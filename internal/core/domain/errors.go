package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("could not validate credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInactiveAccount    = errors.New("inactive user")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrCompanyNotFound    = errors.New("company profile not found")
	ErrModelLoad          = errors.New("model load failed")
	ErrModelNotReady      = errors.New("model not loaded")
	ErrDecode             = errors.New("unable to decode scan")
)
