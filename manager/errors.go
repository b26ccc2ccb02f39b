package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/gaborage/go-myob/http"
)

// Kind classifies a non-success API response.
type Kind string

const (
	KindBadRequest          Kind = "BadRequest"
	KindUnauthorized        Kind = "Unauthorized"
	KindForbidden           Kind = "Forbidden"
	KindRateLimitExceeded   Kind = "RateLimitExceeded"
	KindNotFound            Kind = "NotFound"
	KindConflict            Kind = "Conflict"
	KindInternalServerError Kind = "InternalServerError"
	KindGatewayTimeout      Kind = "GatewayTimeout"
	KindUnknown             Kind = "Unknown"
)

// rateLimitErrorName marks a 403 caused by the vendor's request quota
const rateLimitErrorName = "RateLimitError"

// Sentinel errors for use with errors.Is.
var (
	ErrBadRequest          = errors.New("myob: bad request")
	ErrUnauthorized        = errors.New("myob: unauthorized")
	ErrForbidden           = errors.New("myob: forbidden")
	ErrRateLimitExceeded   = errors.New("myob: rate limit exceeded")
	ErrNotFound            = errors.New("myob: not found")
	ErrConflict            = errors.New("myob: conflict")
	ErrInternalServerError = errors.New("myob: internal server error")
	ErrGatewayTimeout      = errors.New("myob: gateway timeout")
	ErrUnknownResponse     = errors.New("myob: unexpected response")

	ErrUnknownMethod    = errors.New("myob: unknown method")
	ErrMissingParameter = errors.New("myob: missing parameter")
	ErrInvalidParameter = errors.New("myob: invalid parameter")
	ErrDecode           = errors.New("myob: undecodable response body")
	ErrConfiguration    = errors.New("myob: invalid endpoint configuration")
)

var kindSentinels = map[Kind]error{
	KindBadRequest:          ErrBadRequest,
	KindUnauthorized:        ErrUnauthorized,
	KindForbidden:           ErrForbidden,
	KindRateLimitExceeded:   ErrRateLimitExceeded,
	KindNotFound:            ErrNotFound,
	KindConflict:            ErrConflict,
	KindInternalServerError: ErrInternalServerError,
	KindGatewayTimeout:      ErrGatewayTimeout,
	KindUnknown:             ErrUnknownResponse,
}

var statusKinds = map[int]Kind{
	400: KindBadRequest,
	401: KindUnauthorized,
	403: KindForbidden,
	404: KindNotFound,
	409: KindConflict,
	500: KindInternalServerError,
	504: KindGatewayTimeout,
}

// ErrorEntry is one element of the API's "Errors" list.
type ErrorEntry struct {
	Name              string `json:"Name"`
	Message           string `json:"Message"`
	AdditionalDetails string `json:"AdditionalDetails"`
	ErrorCode         int    `json:"ErrorCode"`
	Severity          string `json:"Severity"`
	LearnMore         string `json:"LearnMore"`
}

// APIError is returned for every response status other than 200 and 201.
type APIError struct {
	Kind       Kind
	StatusCode int
	// Problem is "Name: Message AdditionalDetails" from the first error
	// entry, or the status reason phrase when the body carries none.
	Problem  string
	Errors   []ErrorEntry
	Response *http.Response
}

func (e *APIError) Error() string {
	return fmt.Sprintf("myob: %s (%d): %s", e.Kind, e.StatusCode, e.Problem)
}

// Is matches the sentinel of the error's kind. A rate limit error is also
// a forbidden error.
func (e *APIError) Is(target error) bool {
	if target == kindSentinels[e.Kind] {
		return true
	}
	return e.Kind == KindRateLimitExceeded && target == ErrForbidden
}

var (
	firstErrorPath     = jp.MustParseString("$.Errors[0]")
	firstErrorNamePath = jp.MustParseString("$.Errors[0].Name")
)

func newAPIError(resp *http.Response) *APIError {
	doc := parseBody(resp.Body)

	kind, ok := statusKinds[resp.StatusCode]
	if !ok {
		kind = KindUnknown
	}
	if kind == KindForbidden && firstString(firstErrorNamePath, doc) == rateLimitErrorName {
		kind = KindRateLimitExceeded
	}

	problem, ok := problemFrom(doc)
	if !ok {
		problem = resp.Reason
	}

	return &APIError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Problem:    problem,
		Errors:     decodeEntries(resp.Body),
		Response:   resp,
	}
}

// parseBody returns the decoded JSON document, or nil.
func parseBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil
	}
	return doc
}

func firstString(path jp.Expr, doc any) string {
	if doc == nil {
		return ""
	}
	for _, v := range path.Get(doc) {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// problemFrom composes the problem string from the first error entry. The
// entry must carry Name, Message and AdditionalDetails; a null Message
// renders empty.
func problemFrom(doc any) (string, bool) {
	if doc == nil {
		return "", false
	}
	found := firstErrorPath.Get(doc)
	if len(found) == 0 {
		return "", false
	}
	entry, ok := found[0].(map[string]any)
	if !ok {
		return "", false
	}
	name, hasName := entry["Name"]
	message, hasMessage := entry["Message"]
	details, hasDetails := entry["AdditionalDetails"]
	if !hasName || !hasMessage || !hasDetails {
		return "", false
	}
	return fmt.Sprintf("%s: %s %s", literal(name), literal(message), literal(details)), true
}

func literal(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func decodeEntries(body []byte) []ErrorEntry {
	var envelope struct {
		Errors []ErrorEntry `json:"Errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Errors
}

// MissingParameterError is returned before any network traffic when a call
// lacks required parameters.
type MissingParameterError struct {
	Method   string
	Missing  []string
	Required []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("myob: %s: missing parameters [%s]; endpoint requires [%s]",
		e.Method, strings.Join(e.Missing, ", "), strings.Join(e.Required, ", "))
}

func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// ParameterError reports a parameter whose value cannot be used.
type ParameterError struct {
	Name  string
	Value any
	Err   error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("myob: parameter %q (%v): %v", e.Name, e.Value, e.Err)
}

func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

// DecodeError reports a success response whose JSON body cannot be parsed.
type DecodeError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("myob: decode %d response: %v", e.StatusCode, e.Err)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an endpoint table that compiles to colliding
// method names.
type ConfigurationError struct {
	Manager string
	Method  string
	Path    string
	Verb    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("myob: %s: %s %q compiles to duplicate method name %q",
		e.Manager, e.Verb, e.Path, e.Method)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// errorType labels err for instrumentation.
func errorType(err error) string {
	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return string(apiErr.Kind)
	case errors.Is(err, ErrDecode):
		return "decode"
	case http.IsErrorType(err, http.TimeoutError):
		return string(http.TimeoutError)
	case http.IsErrorType(err, http.NetworkError):
		return string(http.NetworkError)
	case http.IsErrorType(err, http.InterceptorError):
		return string(http.InterceptorError)
	default:
		return "error"
	}
}
