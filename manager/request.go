package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gaborage/go-myob/endpoints"
)

// Reserved parameter names. Any other parameter that is not a URL key is
// a filter term.
const (
	ParamData         = "data"
	ParamOrderBy      = "orderby"
	ParamFormat       = "format"
	ParamHeaders      = "headers"
	ParamPage         = "page"
	ParamLimit        = "limit"
	ParamTemplateName = "templatename"
	ParamTimeout      = "timeout"
	ParamRawFilter    = "raw_filter"
)

// API header names.
const (
	HeaderAuthorization = "Authorization"
	HeaderKey           = "x-myobapi-key"
	HeaderVersion       = "x-myobapi-version"
	HeaderCompanyToken  = "x-myobapi-cftoken"
)

var reserved = map[string]bool{
	ParamOrderBy:      true,
	ParamFormat:       true,
	ParamHeaders:      true,
	ParamPage:         true,
	ParamLimit:        true,
	ParamTemplateName: true,
	ParamTimeout:      true,
	ParamRawFilter:    true,
}

var filterOperators = []string{"lt", "gt"}

// Params are the named arguments of a method call: URL keys, "data", the
// reserved control parameters and filter terms.
type Params map[string]any

// Request is a fully built API request.
type Request struct {
	// Method is the compiled method name
	Method     string
	Verb       endpoints.Verb
	HTTPMethod string
	URL        string
	Query      url.Values
	Headers    map[string]string
	Body       []byte
	// Timeout bounds the round trip when positive
	Timeout time.Duration
}

// BuildRequest validates params against the named method and assembles
// the request without sending it.
func (m *Manager) BuildRequest(name string, params Params) (*Request, error) {
	method, ok := m.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %sManager has no method %q", ErrUnknownMethod, m.name, name)
	}

	if missing := missingParams(method.Required, params); len(missing) > 0 {
		return nil, &MissingParameterError{
			Method:   name,
			Missing:  missing,
			Required: append([]string(nil), method.Required...),
		}
	}

	req := &Request{
		Method:     name,
		Verb:       method.Verb,
		HTTPMethod: method.Verb.HTTPMethod(),
		URL:        expandURL(method, params),
	}

	var err error
	if req.Headers, err = m.buildHeaders(params); err != nil {
		return nil, err
	}
	if req.Query, err = m.buildQuery(method, params); err != nil {
		return nil, err
	}
	if method.Verb.Mutating() {
		if req.Body, err = encodeBody(params[ParamData]); err != nil {
			return nil, err
		}
	}
	if v, ok := params[ParamTimeout]; ok {
		if req.Timeout, err = toTimeout(v); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func missingParams(required []string, params Params) []string {
	var missing []string
	for _, key := range required {
		if _, ok := params[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

func expandURL(method *Method, params Params) string {
	if len(method.URLKeys) == 0 {
		return method.URLTemplate
	}
	pairs := make([]string, 0, 2*len(method.URLKeys))
	for _, key := range method.URLKeys {
		pairs = append(pairs, "["+key+"]", url.PathEscape(fmt.Sprint(params[key])))
	}
	return strings.NewReplacer(pairs...).Replace(method.URLTemplate)
}

// buildHeaders sets the credential headers; a "headers" parameter is
// merged last and wins.
func (m *Manager) buildHeaders(params Params) (map[string]string, error) {
	headers := map[string]string{
		HeaderAuthorization: "Bearer " + m.creds.AccessToken(),
		HeaderKey:           m.creds.ConsumerKey(),
		HeaderVersion:       m.apiVersion,
	}
	if m.companyID != "" {
		// Company files signed in through SSO have no stored token.
		if token, ok := m.creds.CompanyFileToken(m.companyID); ok {
			headers[HeaderCompanyToken] = token
		}
	}

	raw, ok := params[ParamHeaders]
	if !ok || raw == nil {
		return headers, nil
	}
	switch extra := raw.(type) {
	case map[string]string:
		for k, v := range extra {
			headers[k] = v
		}
	case map[string]any:
		for k, v := range extra {
			headers[k] = fmt.Sprint(v)
		}
	default:
		return nil, &ParameterError{Name: ParamHeaders, Value: raw, Err: errors.New("expected a string map")}
	}
	return headers, nil
}

func (m *Manager) buildQuery(method *Method, params Params) (url.Values, error) {
	query := url.Values{}

	filter, err := buildFilter(method, params)
	if err != nil {
		return nil, err
	}
	if filter != "" {
		query.Set("$filter", filter)
	}

	if v, ok := params[ParamOrderBy]; ok {
		query.Set("$orderby", fmt.Sprint(v))
	}

	pageSize := m.pageSize
	if v, ok := params[ParamLimit]; ok {
		limit, err := toInt(ParamLimit, v)
		if err != nil {
			return nil, err
		}
		if limit < 0 {
			return nil, &ParameterError{Name: ParamLimit, Value: v, Err: errors.New("must not be negative")}
		}
		pageSize = limit
		query.Set("$top", strconv.Itoa(limit))
	}
	if v, ok := params[ParamPage]; ok {
		page, err := toInt(ParamPage, v)
		if err != nil {
			return nil, err
		}
		if page < 1 {
			return nil, &ParameterError{Name: ParamPage, Value: v, Err: errors.New("pages start at 1")}
		}
		query.Set("$skip", strconv.Itoa((page-1)*pageSize))
	}

	if v, ok := params[ParamFormat]; ok {
		query.Set(ParamFormat, fmt.Sprint(v))
	}
	if v, ok := params[ParamTemplateName]; ok {
		query.Set(ParamTemplateName, fmt.Sprint(v))
	}
	if method.Verb.Mutating() {
		query.Set("returnBody", "true")
	}
	return query, nil
}

// buildFilter renders the OData $filter expression. raw_filter comes first,
// then one clause per filter key in lexical key order. Values of one key are
// OR-joined, clauses are parenthesised and AND-joined.
func buildFilter(method *Method, params Params) (string, error) {
	var clauses []string
	if v, ok := params[ParamRawFilter]; ok {
		clauses = append(clauses, fmt.Sprint(v))
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if isFilterKey(method, k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		field, op := splitOperator(k)
		values := asList(params[k])
		if len(values) == 0 {
			return "", &ParameterError{Name: k, Value: params[k], Err: errors.New("empty filter value list")}
		}
		terms := make([]string, len(values))
		for i, v := range values {
			terms[i] = field + " " + op + " " + Literal(v)
		}
		clauses = append(clauses, strings.Join(terms, " or "))
	}

	for i, c := range clauses {
		clauses[i] = "(" + c + ")"
	}
	return strings.Join(clauses, " and "), nil
}

func isFilterKey(method *Method, key string) bool {
	if key == ParamData || reserved[key] {
		return false
	}
	for _, k := range method.URLKeys {
		if k == key {
			return false
		}
	}
	return true
}

// splitOperator maps "Field__lt" to ("Field", "lt"); plain keys compare
// with eq.
func splitOperator(key string) (field, op string) {
	for _, candidate := range filterOperators {
		if trimmed, ok := strings.CutSuffix(key, "__"+candidate); ok {
			return trimmed, candidate
		}
	}
	return key, "eq"
}

// asList treats slices and arrays (other than []byte) as value lists and
// anything else as a single value.
func asList(v any) []any {
	if v == nil {
		return []any{nil}
	}
	rv := reflect.ValueOf(v)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Type().Elem().Kind() == reflect.Uint8 {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range rv.Len() {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Literal renders a filter value as an OData literal: booleans and nil
// bare, Date and time.Time as datetime'...', everything else single-quoted
// with embedded quotes doubled.
func Literal(v any) string {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x)
	case Date:
		return "datetime'" + x.String() + "'"
	case time.Time:
		return "datetime'" + formatDateTime(x) + "'"
	case []byte:
		return quote(string(x))
	case nil:
		return "null"
	default:
		return quote(fmt.Sprint(v))
	}
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// formatDateTime renders the wall clock as "YYYY-MM-DD HH:MM:SS", with
// microseconds appended when non-zero.
func formatDateTime(t time.Time) string {
	if t.Nanosecond()/1000 != 0 {
		return t.Format("2006-01-02 15:04:05.000000")
	}
	return t.Format(time.DateTime)
}

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate normalises its arguments the way time.Date does.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String renders YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func encodeBody(data any) ([]byte, error) {
	switch b := data.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, &ParameterError{Name: ParamData, Value: data, Err: err}
	}
	return body, nil
}

func toInt(name string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float32:
		if float32(int(n)) == n {
			return int(n), nil
		}
	case float64:
		if float64(int(n)) == n {
			return int(n), nil
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), nil
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, nil
		}
	}
	return 0, &ParameterError{Name: name, Value: v, Err: errors.New("not an integer")}
}

// toTimeout accepts a time.Duration, a number of seconds or a duration
// string such as "30s".
func toTimeout(v any) (time.Duration, error) {
	var d time.Duration
	switch t := v.(type) {
	case time.Duration:
		d = t
	case int:
		d = time.Duration(t) * time.Second
	case int64:
		d = time.Duration(t) * time.Second
	case float64:
		d = time.Duration(t * float64(time.Second))
	case string:
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return 0, &ParameterError{Name: ParamTimeout, Value: v, Err: err}
		}
		d = parsed
	default:
		return 0, &ParameterError{Name: ParamTimeout, Value: v, Err: errors.New("expected a duration or seconds")}
	}
	if d <= 0 {
		return 0, &ParameterError{Name: ParamTimeout, Value: v, Err: errors.New("must be positive")}
	}
	return d, nil
}
