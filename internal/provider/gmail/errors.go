package gmail

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// IsTransient reports whether err is a Gmail failure worth retrying:
// throttling (429, or 403 with a rate-limit reason) and server errors.
func IsTransient(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return true
	case apiErr.Code >= 500 && apiErr.Code <= 599:
		return true
	case apiErr.Code == http.StatusForbidden:
		for _, item := range apiErr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}
