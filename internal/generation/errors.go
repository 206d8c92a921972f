package generation

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ProviderError carries the HTTP status code reported by a backend so the
// retry layer can classify it.
type ProviderError struct {
	Code int
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (code %d): %v", e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// embeddedCode matches a status code serialized inside an error message,
// e.g. `{"error": {"code": 503, ...}}`.
var embeddedCode = regexp.MustCompile(`"code"\s*:\s*(\d{3})`)

// CodeOf extracts the provider status code from err, checking a wrapped
// ProviderError first and falling back to scanning the message. Returns 0
// when no code is found.
func CodeOf(err error) int {
	if err == nil {
		return 0
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Code
	}
	if m := embeddedCode.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return code
	}
	return 0
}

// IsTransient reports whether err is worth retrying: rate limiting or a
// server-side failure.
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case 429, 500, 503:
		return true
	}
	return false
}
