package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/pct1089547896/games-marketplace-sub000/pkg/errors"
)

type upstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError turns a non-2xx response into an AppError, keeping the
// upstream message when the body uses the standard error envelope. The body
// is consumed and closed.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%s returned %d: read body: %w", upstream, resp.StatusCode, err)
	}

	msg := string(raw)
	var env upstreamError
	if json.Unmarshal(raw, &env) == nil && env.Error != nil {
		msg = env.Error.Message
	}
	msg = fmt.Sprintf("%s: %s", upstream, msg)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case http.StatusNotFound:
		return apperrors.NotFound(upstream, msg)
	case http.StatusConflict:
		return apperrors.Conflict(msg)
	case http.StatusGone:
		return apperrors.Gone(msg)
	}
	if resp.StatusCode >= 500 {
		return apperrors.Unavailable(msg)
	}
	return fmt.Errorf("%s returned %d", upstream, resp.StatusCode)
}
