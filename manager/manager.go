// Package manager compiles endpoint table entries into named methods on a
// resource manager and executes them against the AccountRight API.
package manager

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/gaborage/go-myob/endpoints"
	"github.com/gaborage/go-myob/http"
	"github.com/gaborage/go-myob/logger"
)

const (
	// DefaultBaseURL is the AccountRight API root.
	DefaultBaseURL = "https://api.myob.com/accountright/"
	// DefaultAPIVersion is sent as x-myobapi-version.
	DefaultAPIVersion = "v2"
	// DefaultPageSize is the server's page size, used to turn a page
	// number into an offset when no limit is given.
	DefaultPageSize = 400
)

var placeholderPattern = regexp.MustCompile(`\[([^\]]*)\]`)

// Credentials supplies the secrets a manager sends with each request.
type Credentials interface {
	ConsumerKey() string
	AccessToken() string
	CompanyFileToken(companyID string) (string, bool)
}

// Method is one compiled, callable endpoint.
type Method struct {
	Name string
	Verb endpoints.Verb
	// Path is the entry's sub-path below the manager prefix
	Path string
	// URLTemplate is the absolute URL with [key] placeholders
	URLTemplate string
	URLKeys     []string
	// Required lists URLKeys in order of appearance, then "data" for PUT and POST
	Required []string
	Hint     string
}

// Signature renders "name(key1, key2)".
func (m Method) Signature() string {
	return m.Name + "(" + strings.Join(m.Required, ", ") + ")"
}

// Manager groups the compiled methods of one resource prefix. It is
// immutable after New and safe for concurrent use.
type Manager struct {
	name       string
	prefix     string
	companyID  string
	baseURL    string
	apiVersion string
	pageSize   int

	creds  Credentials
	client http.Client
	log    logger.Logger

	methods map[string]*Method
	names   []string
}

type options struct {
	name       *string
	companyID  string
	entries    []endpoints.Entry
	raw        []endpoints.Entry
	client     http.Client
	log        logger.Logger
	apiBase    string
	apiVersion string
	pageSize   int
}

// Option configures a Manager.
type Option func(*options)

// WithCompanyID scopes the manager to one company file.
func WithCompanyID(id string) Option {
	return func(o *options) { o.companyID = id }
}

// WithEntries adds endpoint table entries. Their paths and hints are
// expanded, CRUD entries into five methods.
func WithEntries(entries ...endpoints.Entry) Option {
	return func(o *options) { o.entries = append(o.entries, entries...) }
}

// WithRawEntries adds concrete entries whose path and hint are used as given.
func WithRawEntries(entries ...endpoints.Entry) Option {
	return func(o *options) { o.raw = append(o.raw, entries...) }
}

// WithClient sets the transport.
func WithClient(c http.Client) Option {
	return func(o *options) { o.client = c }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithBaseURL overrides the API root. A missing trailing slash is added.
func WithBaseURL(u string) Option {
	return func(o *options) { o.apiBase = u }
}

// WithAPIVersion overrides the x-myobapi-version header value.
func WithAPIVersion(v string) Option {
	return func(o *options) { o.apiVersion = v }
}

// WithPageSize sets the page size used for offsets when no limit is given.
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithName overrides the name derived from the prefix.
func WithName(name string) Option {
	return func(o *options) { o.name = &name }
}

// New compiles a manager for prefix, e.g. "Sale/Invoice/" or "" for the
// API root.
func New(prefix string, creds Credentials, opts ...Option) (*Manager, error) {
	if creds == nil {
		return nil, fmt.Errorf("manager %q: credentials are required", prefix)
	}

	o := options{
		apiBase:    DefaultBaseURL,
		apiVersion: DefaultAPIVersion,
		pageSize:   DefaultPageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.NewNop()
	}
	if o.client == nil {
		o.client = http.NewClient(o.log)
	}
	if o.pageSize <= 0 {
		o.pageSize = DefaultPageSize
	}

	m := &Manager{
		name:       segmentName(prefix),
		prefix:     prefix,
		companyID:  o.companyID,
		apiVersion: o.apiVersion,
		pageSize:   o.pageSize,
		creds:      creds,
		client:     o.client,
		log:        o.log,
		methods:    make(map[string]*Method),
	}
	if o.name != nil {
		m.name = *o.name
	}

	m.baseURL = strings.TrimSuffix(o.apiBase, "/") + "/"
	if m.companyID != "" {
		m.baseURL += url.PathEscape(m.companyID) + "/"
	}
	m.baseURL += prefix

	if err := m.compile(o.entries, o.raw); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew is New for static tables; it panics on error.
func MustNew(prefix string, creds Credentials, opts ...Option) *Manager {
	m, err := New(prefix, creds, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// compile expands the table entries, appends the raw ones and orders the
// result by verb so that name disambiguation is deterministic.
func (m *Manager) compile(entries, raw []endpoints.Entry) error {
	expanded, err := endpoints.ExpandAll(entries)
	if err != nil {
		return fmt.Errorf("manager %s: %w", m.name, err)
	}
	for _, e := range raw {
		if !e.Verb.Concrete() {
			return fmt.Errorf("manager %s: raw entry %q: %w: %q", m.name, e.Path, endpoints.ErrUnknownVerb, e.Verb)
		}
	}
	concrete := append(expanded, raw...)
	sort.SliceStable(concrete, func(i, j int) bool {
		return concrete[i].Verb.Rank() < concrete[j].Verb.Rank()
	})

	for _, e := range concrete {
		if err := m.add(e); err != nil {
			return err
		}
	}

	m.names = make([]string, 0, len(m.methods))
	for name := range m.methods {
		m.names = append(m.names, name)
	}
	sort.Strings(m.names)
	return nil
}

func (m *Manager) add(e endpoints.Entry) error {
	verb := strings.ToLower(string(e.Verb))
	name := strings.ToLower(segmentName(e.Path))

	_, taken := m.methods[name]
	switch {
	case name == "":
		name = verb
		_, taken = m.methods[name]
	case taken:
		name = verb + "_" + name
		_, taken = m.methods[name]
	}
	if taken {
		return &ConfigurationError{Manager: m.name, Method: name, Path: e.Path, Verb: string(e.Verb)}
	}

	template := m.baseURL + e.Path
	var keys []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(template, -1) {
		keys = append(keys, match[1])
	}
	required := append([]string(nil), keys...)
	if e.Verb.Mutating() {
		required = append(required, ParamData)
	}

	m.methods[name] = &Method{
		Name:        name,
		Verb:        e.Verb,
		Path:        e.Path,
		URLTemplate: template,
		URLKeys:     keys,
		Required:    required,
		Hint:        e.Hint,
	}
	return nil
}

// segmentName joins the literal segments of a path with "_", dropping
// placeholder segments and the trailing slash.
func segmentName(path string) string {
	segments := strings.Split(strings.TrimRight(path, "/"), "/")
	kept := segments[:0]
	for _, s := range segments {
		if !strings.Contains(s, "[") {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, "_")
}

// Name returns the manager name, e.g. "Sale_Invoice".
func (m *Manager) Name() string { return m.name }

// Prefix returns the resource prefix the manager was built for.
func (m *Manager) Prefix() string { return m.prefix }

// CompanyID returns the company file id, or "" for unscoped managers.
func (m *Manager) CompanyID() string { return m.companyID }

// BaseURL returns the URL every method path is appended to.
func (m *Manager) BaseURL() string { return m.baseURL }

// Methods returns the compiled methods sorted by name.
func (m *Manager) Methods() []Method {
	out := make([]Method, 0, len(m.names))
	for _, name := range m.names {
		out = append(out, m.methods[name].clone())
	}
	return out
}

// Method returns the named method.
func (m *Manager) Method(name string) (Method, bool) {
	method, ok := m.methods[name]
	if !ok {
		return Method{}, false
	}
	return method.clone(), true
}

// Has reports whether the manager has a method called name.
func (m *Manager) Has(name string) bool {
	_, ok := m.methods[name]
	return ok
}

func (m *Method) clone() Method {
	c := *m
	c.URLKeys = append([]string(nil), m.URLKeys...)
	c.Required = append([]string(nil), m.Required...)
	return c
}

// String lists the methods one per line, signatures right-aligned.
func (m *Manager) String() string {
	header := m.name + "Manager:"
	if len(m.names) == 0 {
		return header
	}

	width := 0
	for _, name := range m.names {
		width = max(width, len(m.methods[name].Signature()))
	}
	lines := make([]string, 0, len(m.names))
	for _, name := range m.names {
		method := m.methods[name]
		lines = append(lines, fmt.Sprintf("%*s - %s", width, method.Signature(), method.Hint))
	}
	return header + "\n    " + strings.Join(lines, "\n    ")
}
