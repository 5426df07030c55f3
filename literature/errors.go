package literature

import "errors"

// ErrSearchFailed is returned when the search API answers with an error or
// an unreadable body.
var ErrSearchFailed = errors.New("literature search failed")
