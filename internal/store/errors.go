package store

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateReminder = errors.New("reminder already sent")
	ErrMinimumObjectives = errors.New("objective count would fall below the minimum")
	ErrForbidden         = errors.New("forbidden")
)
