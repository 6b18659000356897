package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateFavorite is returned when the (user, article) pair already exists.
	ErrDuplicateFavorite = errors.New("article already favorited")
	// ErrStaleWrite is returned when a conditional update matched no row because the
	// row changed underneath the caller.
	ErrStaleWrite = errors.New("record changed concurrently")
)
