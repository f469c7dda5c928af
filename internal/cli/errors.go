// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/parley-tui/internal/api"
	"github.com/jeranaias/parley-tui/internal/auth"
	"github.com/jeranaias/parley-tui/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
)

// ErrNotSignedIn is returned by commands that need a stored token.
var ErrNotSignedIn = errors.New("未登录，请先运行 parley login")

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError is a missing or malformed command argument.
type UsageError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// ErrMissingArgument creates an error for a missing required argument.
func ErrMissingArgument(argName, usage string) error {
	return &UsageError{Field: argName, Reason: "required argument missing", Example: usage}
}

// ErrUnsupportedFormat creates an error for an unknown export format.
func ErrUnsupportedFormat(format string, supported []string) error {
	return &UsageError{
		Field:   "format",
		Value:   format,
		Reason:  "unsupported format",
		Example: fmt.Sprintf("supported formats: %v", supported),
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON in JSON mode.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		resp := NewJSONErrorResponse("", err)
		resp.Fields = errorFields(err)
		resp.WriteTo(w)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), displayText(err))
}

// displayText prefers the server's detail over the wrapped chain.
func displayText(err error) string {
	var apiErr *api.APIError
	var netErr *api.NetworkError
	if errors.As(err, &apiErr) || errors.As(err, &netErr) {
		return api.UserMessage(err)
	}
	return err.Error()
}

func errorFields(err error) map[string]any {
	fields := map[string]any{"error_type": errorType(err)}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		fields["status"] = apiErr.Status
	}
	var usage *UsageError
	if errors.As(err, &usage) {
		fields["field"] = usage.Field
	}
	return fields
}

func errorType(err error) string {
	switch GetExitCode(err) {
	case ExitUsageError:
		return "usage_error"
	case ExitConfigError:
		return "config_error"
	case ExitAuthError:
		return "auth_error"
	case ExitNetworkError:
		return "network_error"
	case ExitNotFoundError:
		return "not_found_error"
	}
	return "generic_error"
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	var authValidation *auth.ValidationError
	if errors.As(err, &usage) || errors.As(err, &authValidation) {
		return ExitUsageError
	}

	var cfgErr config.ValidationError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	if errors.Is(err, ErrNotSignedIn) || api.IsUnauthorized(err) {
		return ExitAuthError
	}
	if errors.Is(err, api.ErrNotFound) {
		return ExitNotFoundError
	}

	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return ExitNetworkError
	}

	return ExitGeneralError
}
