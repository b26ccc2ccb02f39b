// Package endpoints holds the static AccountRight endpoint table and the
// rules that expand its entries into concrete, callable endpoints.
package endpoints

import (
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"
)

// Verb is an endpoint table verb. ALL is a list-flavoured GET; CRUD is a
// macro for the five concrete verbs.
type Verb string

const (
	All    Verb = "ALL"
	Get    Verb = "GET"
	Post   Verb = "POST"
	Put    Verb = "PUT"
	Delete Verb = "DELETE"
	CRUD   Verb = "CRUD"
)

// ErrUnknownVerb is returned for verbs outside the table vocabulary.
var ErrUnknownVerb = errors.New("unknown verb")

// Order is the total order of concrete verbs. It fixes the disambiguation
// order of method names.
var Order = []Verb{All, Get, Post, Put, Delete}

// Rank returns the verb's position in Order, or len(Order) when it is not a
// concrete verb.
func (v Verb) Rank() int {
	for i, o := range Order {
		if o == v {
			return i
		}
	}
	return len(Order)
}

// Concrete reports whether v is one of the five callable verbs.
func (v Verb) Concrete() bool {
	return v.Rank() < len(Order)
}

// HTTPMethod returns the transport method; ALL issues a GET.
func (v Verb) HTTPMethod() string {
	switch v {
	case All, Get:
		return nethttp.MethodGet
	case Post:
		return nethttp.MethodPost
	case Put:
		return nethttp.MethodPut
	case Delete:
		return nethttp.MethodDelete
	default:
		return ""
	}
}

// Mutating reports whether calls with this verb carry a request body.
func (v Verb) Mutating() bool {
	return v == Put || v == Post
}

// ParseVerb accepts a verb name in any case.
func ParseVerb(s string) (Verb, error) {
	v := Verb(strings.ToUpper(strings.TrimSpace(s)))
	if v == CRUD || v.Concrete() {
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVerb, s)
}
