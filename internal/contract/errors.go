package contract

import (
	"errors"
	"fmt"

	"github.com/huangsam/sonarissues/schema"
)

// ConfigurationError reports a missing or invalid part of the export context.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// FetchErrorKind classifies why a fetch was aborted.
type FetchErrorKind string

// All fetch failure kinds.
const (
	RemoteStatusError FetchErrorKind = "remote-status"
	DecodeError       FetchErrorKind = "decode"
	TimeoutError      FetchErrorKind = "timeout"
	TransportError    FetchErrorKind = "transport"
	CanceledError     FetchErrorKind = "canceled"
	PageLimitError    FetchErrorKind = "page-limit"
)

// Response body excerpts kept on fetch errors.
const (
	MaxStatusBody = 200
	MaxDecodeBody = 300
)

// FetchError aborts a paginated fetch. No partial result accompanies it.
type FetchError struct {
	Kind       FetchErrorKind
	Page       int
	StatusCode int    // set for RemoteStatusError
	Body       string // truncated response body, when one was read
	Err        error
}

func (e *FetchError) Error() string {
	switch e.Kind {
	case RemoteStatusError:
		return fmt.Sprintf("fetch page %d: HTTP %d: %s", e.Page, e.StatusCode, e.Body)
	case DecodeError:
		return fmt.Sprintf("fetch page %d: response is not valid JSON: %v. Raw response: %s", e.Page, e.Err, e.Body)
	case TimeoutError:
		return fmt.Sprintf("fetch page %d: request timed out, check your network: %v", e.Page, e.Err)
	case CanceledError:
		return fmt.Sprintf("fetch page %d: canceled: %v", e.Page, e.Err)
	case PageLimitError:
		return fmt.Sprintf("fetch page %d: page limit reached before the last page", e.Page)
	default:
		return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchKind reports whether err is a FetchError of the given kind.
func IsFetchKind(err error, kind FetchErrorKind) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}

// ExportError reports a single format writer failure.
type ExportError struct {
	Format schema.OutputFormat
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s export to %s failed: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
