package mappings

import "errors"

// ErrNotFound indicates the requested mapping does not exist.
var ErrNotFound = errors.New("mapping not found")
