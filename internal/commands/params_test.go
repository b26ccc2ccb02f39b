package commands

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-myob/manager"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{name: "plain string", raw: "Smith", want: "Smith"},
		{name: "string with spaces", raw: "Acme Ltd", want: "Acme Ltd"},
		{name: "boolean", raw: "true", want: true},
		{name: "number", raw: "42", want: json.Number("42")},
		{name: "null", raw: "null", want: nil},
		{name: "list", raw: `["Customer","Supplier"]`, want: []any{"Customer", "Supplier"}},
		{name: "quoted json string", raw: `"42"`, want: "42"},
		{name: "trailing garbage stays a string", raw: "1 2", want: "1 2"},
		{name: "date", raw: "date:2024-01-31", want: manager.NewDate(2024, time.January, 31)},
		{name: "datetime", raw: "datetime:2024-01-31T10:30:00Z", want: time.Date(2024, time.January, 31, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValue(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseValueLocalDatetime(t *testing.T) {
	got, err := parseValue("datetime:2024-01-31T10:30:00")
	require.NoError(t, err)
	ts, ok := got.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 10, ts.Hour())
}

func TestParseValueBadDate(t *testing.T) {
	_, err := parseValue("date:31/01/2024")
	assert.Error(t, err)
}

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"uid=abc", "LastName__ge=M", "raw_filter=Name eq 'x=y'"})
	require.NoError(t, err)
	assert.Equal(t, manager.Params{
		"uid":          "abc",
		"LastName__ge": "M",
		"raw_filter":   "Name eq 'x=y'",
	}, params)

	_, err = parseParams([]string{"=value"})
	assert.Error(t, err)

	_, err = parseParams([]string{"d=date:nope"})
	assert.ErrorContains(t, err, "parameter d")
}
