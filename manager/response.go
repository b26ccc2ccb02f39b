package manager

import (
	"encoding/json"
	"strings"

	"github.com/gaborage/go-myob/endpoints"
	"github.com/gaborage/go-myob/http"
)

// Result is the outcome of a successful call.
type Result struct {
	StatusCode  int
	ContentType string
	// Body is the raw response body
	Body []byte
	// Data is the decoded JSON document; nil for non-JSON bodies and for a
	// JSON null
	Data any

	decoded bool
}

// IsJSON reports whether the body was decoded as JSON, including a body
// of null.
func (r *Result) IsJSON() bool {
	return r.decoded
}

// Decode unmarshals the JSON body into v.
func (r *Result) Decode(v any) error {
	body := r.Body
	if len(body) == 0 && r.Data != nil {
		var err error
		if body, err = json.Marshal(r.Data); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{StatusCode: r.StatusCode, Body: r.Body, Err: err}
	}
	return nil
}

// Object returns Data as a JSON object.
func (r *Result) Object() (map[string]any, bool) {
	m, ok := r.Data.(map[string]any)
	return m, ok
}

// List returns Data as a JSON array.
func (r *Result) List() ([]any, bool) {
	l, ok := r.Data.([]any)
	return l, ok
}

// classify turns a transport response into a Result or an error. 200 and
// 201 are the only success codes.
func classify(verb endpoints.Verb, resp *http.Response) (*Result, error) {
	result := &Result{
		StatusCode:  resp.StatusCode,
		ContentType: resp.ContentType(),
		Body:        resp.Body,
	}

	switch resp.StatusCode {
	case 200:
		if !strings.HasPrefix(result.ContentType, "application/json") {
			return result, nil
		}
		data, err := decodeDocument(resp.Body)
		if err != nil {
			// DELETE may answer 200 with an empty body.
			if verb == endpoints.Delete && len(resp.Body) == 0 {
				result.Data = map[string]any{}
				result.decoded = true
				return result, nil
			}
			return nil, &DecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
		}
		result.Data = data
		result.decoded = true
		return result, nil
	case 201:
		data, err := decodeDocument(resp.Body)
		if err != nil {
			return nil, &DecodeError{StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
		}
		result.Data = data
		result.decoded = true
		return result, nil
	default:
		return nil, newAPIError(resp)
	}
}

func decodeDocument(body []byte) (any, error) {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	return data, nil
}
