package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUnsuccessful is returned when the envelope reports success=false.
var ErrUnsuccessful = errors.New("request unsuccessful")

// HTTPError is a non-2xx response, passed to the caller unmodified.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %d %s. Body: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// newHTTPError consumes and closes the response body.
func newHTTPError(req *Request, resp *http.Response) *HTTPError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return &HTTPError{
		Method:     req.Method,
		Path:       req.Path,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an HTTPError.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 response.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsLoggedOut reports whether err means the session is gone and the user has
// to authenticate again.
func IsLoggedOut(err error) bool {
	return errors.Is(err, ErrRefreshFailed)
}
