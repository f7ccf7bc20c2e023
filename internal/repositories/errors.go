package repositories

import "errors"

// ErrDuplicate is returned by Create when a unique field is already taken.
var ErrDuplicate = errors.New("record already exists")
