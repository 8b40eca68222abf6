package store

import "errors"

// ErrConnection is returned when the store connection fails.
var ErrConnection = errors.New("store connection failed")
