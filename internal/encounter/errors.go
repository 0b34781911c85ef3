package encounter

import "errors"

// Error kinds surfaced to the HTTP boundary. Ownership mismatches are folded
// into ErrNotFound so a caller cannot distinguish "wrong owner" from "no such
// record".
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("not authorized")
	ErrNotFound     = errors.New("encounter not found")
)
