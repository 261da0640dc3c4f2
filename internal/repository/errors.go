package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist in the database.
var ErrNotFound = errors.New("not found")

// ErrQuotaExceeded is returned by AppendURLs when the append would push an
// owner's URL list past the limit. Nothing is written in that case.
var ErrQuotaExceeded = errors.New("image quota exceeded")
