package endpoints

import (
	"fmt"
	"strings"
)

// UIDPlaceholder is appended to paths of verbs that address one record.
const UIDPlaceholder = "[uid]/"

type transform struct {
	path func(base string) string
	hint func(noun string) string
}

var transforms = map[Verb]transform{
	All: {
		path: func(base string) string { return base },
		hint: func(noun string) string {
			return fmt.Sprintf("Return all %s for an AccountRight company file.", Pluralise(noun))
		},
	},
	Get: {
		path: func(base string) string { return base + UIDPlaceholder },
		hint: func(noun string) string { return fmt.Sprintf("Return selected %s.", noun) },
	},
	Put: {
		path: func(base string) string { return base + UIDPlaceholder },
		hint: func(noun string) string { return fmt.Sprintf("Update selected %s.", noun) },
	},
	Post: {
		path: func(base string) string { return base },
		hint: func(noun string) string { return fmt.Sprintf("Create new %s.", noun) },
	},
	Delete: {
		path: func(base string) string { return base + UIDPlaceholder },
		hint: func(noun string) string { return fmt.Sprintf("Delete selected %s.", noun) },
	},
}

// Expand turns a table entry, whose Hint is a noun phrase, into concrete
// entries with final paths and descriptions. CRUD yields five entries in
// Order; any other verb yields one.
func Expand(e Entry) ([]Entry, error) {
	if e.Verb == CRUD {
		out := make([]Entry, 0, len(Order))
		for _, v := range Order {
			out = append(out, apply(v, e.Path, e.Hint))
		}
		return out, nil
	}
	if !e.Verb.Concrete() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVerb, e.Verb)
	}
	return []Entry{apply(e.Verb, e.Path, e.Hint)}, nil
}

// ExpandAll expands every entry, preserving table order.
func ExpandAll(entries []Entry) ([]Entry, error) {
	var out []Entry
	for _, e := range entries {
		expanded, err := Expand(e)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func apply(v Verb, base, noun string) Entry {
	t := transforms[v]
	return Entry{Verb: v, Path: t.path(base), Hint: t.hint(noun)}
}

// Pluralise applies the English heuristic the endpoint hints use: a
// trailing "y" becomes "ies", a trailing "rix" becomes "rices", anything
// else gains an "s". It is not locale aware.
func Pluralise(s string) string {
	switch {
	case strings.HasSuffix(s, "y"):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(s, "rix"):
		return s[:len(s)-1] + "ces"
	default:
		return s + "s"
	}
}
