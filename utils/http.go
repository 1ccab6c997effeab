// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient returns the client used for game API calls. The timeout is
// the only limit applied to a request; callers do not retry.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}
