package services

import (
	"errors"

	"kbconsole/repository"
)

var (
	ErrNotFound     = repository.ErrNotFound
	ErrConflict     = repository.ErrStaleWrite
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)
