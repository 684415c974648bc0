package fetch

import (
	"errors"
	"fmt"
)

// UpstreamError reports an upstream that is unreachable or answered with an
// error status after retries were exhausted. Status is zero for transport
// failures.
type UpstreamError struct {
	Status  int
	Cause   error
	Timeout bool
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream unreachable: %v", e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// ErrDecode marks upstream bodies that are not a decodable raster image, so
// callers can tell "upstream unreachable" from "upstream returned garbage".
var ErrDecode = errors.New("upstream body is not a decodable image")
