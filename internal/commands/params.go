package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gaborage/go-myob/manager"
)

const (
	datePrefix     = "date:"
	datetimePrefix = "datetime:"
)

// parseParams turns key=value arguments into call parameters. Values are
// read as JSON when they parse as JSON and as plain strings otherwise.
// date:YYYY-MM-DD and datetime:<RFC 3339> produce filter dates.
func parseParams(args []string) (manager.Params, error) {
	params := make(manager.Params, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", arg)
		}
		value, err := parseValue(raw)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", key, err)
		}
		params[key] = value
	}
	return params, nil
}

func parseValue(raw string) (any, error) {
	switch {
	case strings.HasPrefix(raw, datePrefix):
		t, err := time.Parse(time.DateOnly, strings.TrimPrefix(raw, datePrefix))
		if err != nil {
			return nil, err
		}
		return manager.DateOf(t), nil
	case strings.HasPrefix(raw, datetimePrefix):
		s := strings.TrimPrefix(raw, datetimePrefix)
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			if t, err = time.Parse("2006-01-02T15:04:05", s); err != nil {
				return nil, err
			}
		}
		return t, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw, nil
	}
	return v, nil
}
