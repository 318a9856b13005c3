package settings

import "errors"

var (
	ErrNotFound      = errors.New("settings record not found")
	ErrAlreadyExists = errors.New("settings record already exists")
)
