package repository

import "errors"

var (
	ErrNotFound        = errors.New("document not found")
	ErrInvalidID       = errors.New("invalid document id")
	ErrAlreadyArchived = errors.New("order already archived")
)
