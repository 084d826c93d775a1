package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// HTTPStatus maps an error to the status a transport should answer with.
// Validation errors are the caller's fault; everything else is ours.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch GetCode(err) {
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	}
	if IsClientError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	se := asServiceError(err)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", se.Message))
	if se.Cause != nil && se.Cause.Error() != se.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %s\n", se.Cause))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", se.Code))

	return sb.String()
}

// Body is the JSON representation of an error returned by transports.
type Body struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Category string            `json:"category"`
	Details  map[string]string `json:"details,omitempty"`
	Cause    string            `json:"cause,omitempty"`
}

// ToBody converts any error into its transport representation.
// Non-service errors are reported as internal.
func ToBody(err error) Body {
	se := asServiceError(err)
	b := Body{
		Code:     se.Code,
		Message:  se.Message,
		Category: string(se.Category),
		Details:  se.Details,
	}
	if se.Cause != nil && se.Cause.Error() != se.Message {
		b.Cause = se.Cause.Error()
	}
	return b
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(ToBody(err))
}

// LogAttrs formats an error as slog attributes.
func LogAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	var se *ServiceError
	if !errors.As(err, &se) {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", se.Code),
		slog.String("error", se.Error()),
		slog.String("severity", string(se.Severity)),
	}
	for k, v := range se.Details {
		attrs = append(attrs, slog.String("detail_"+k, v))
	}
	return attrs
}

func asServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return Wrap(ErrCodeInternal, err)
}
