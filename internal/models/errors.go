package models

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidCredentials   = errors.New("incorrect email or password")
	ErrUnauthorized         = errors.New("could not validate credentials")
	ErrMisconfigured        = errors.New("admin credentials not configured")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrValidation           = errors.New("validation failed")
)
