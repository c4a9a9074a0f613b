package database

import "errors"

// ErrNotFound is returned by repositories when a record does not exist.
// Lookups on absent ids are a normal outcome, not an infrastructure error.
var ErrNotFound = errors.New("record not found")
