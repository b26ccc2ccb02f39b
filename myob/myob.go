// Package myob is the entry point of the AccountRight SDK. A Myob value
// lists company files; a CompanyFile exposes one resource manager per
// endpoint group.
package myob

import (
	"context"
	"strings"

	"github.com/gaborage/go-myob/endpoints"
	"github.com/gaborage/go-myob/http"
	"github.com/gaborage/go-myob/logger"
	"github.com/gaborage/go-myob/manager"
)

// Credentials is what every manager needs from the credential holder.
type Credentials = manager.Credentials

type settings struct {
	client     http.Client
	log        logger.Logger
	baseURL    string
	apiVersion string
	pageSize   int
}

// Option configures a Myob client and every manager it creates.
type Option func(*settings)

// WithClient shares one transport between all managers.
func WithClient(c http.Client) Option {
	return func(s *settings) { s.client = c }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithBaseURL overrides the AccountRight API root.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.baseURL = u }
}

// WithAPIVersion overrides the x-myobapi-version header.
func WithAPIVersion(v string) Option {
	return func(s *settings) { s.apiVersion = v }
}

// WithPageSize sets the page size used to compute offsets.
func WithPageSize(n int) Option {
	return func(s *settings) { s.pageSize = n }
}

// managerOptions translates the client settings for manager.New.
func (s *settings) managerOptions(extra ...manager.Option) []manager.Option {
	opts := []manager.Option{
		manager.WithClient(s.client),
		manager.WithLogger(s.log),
	}
	if s.baseURL != "" {
		opts = append(opts, manager.WithBaseURL(s.baseURL))
	}
	if s.apiVersion != "" {
		opts = append(opts, manager.WithAPIVersion(s.apiVersion))
	}
	if s.pageSize > 0 {
		opts = append(opts, manager.WithPageSize(s.pageSize))
	}
	return append(opts, extra...)
}

// Myob is the API root.
type Myob struct {
	info         *manager.Manager
	companyFiles *CompanyFiles
}

// New builds a client. Without WithClient a default transport is created
// and shared by all managers.
func New(creds Credentials, opts ...Option) (*Myob, error) {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.client == nil {
		s.client = http.NewClient(s.log)
	}

	info, err := manager.New("", creds, s.managerOptions(
		manager.WithRawEntries(endpoints.Entry{
			Verb: endpoints.Get,
			Path: "Info/",
			Hint: "Return API build information for each individual endpoint.",
		}),
	)...)
	if err != nil {
		return nil, err
	}

	companyFiles, err := newCompanyFiles(creds, s)
	if err != nil {
		return nil, err
	}

	return &Myob{info: info, companyFiles: companyFiles}, nil
}

// Info returns API build information for each endpoint.
func (m *Myob) Info(ctx context.Context) (*manager.Result, error) {
	return m.info.Call(ctx, "info", nil)
}

// CompanyFiles returns the company file listing.
func (m *Myob) CompanyFiles() *CompanyFiles {
	return m.companyFiles
}

func (m *Myob) String() string {
	return "Myob:\n    " + strings.Join([]string{"companyfiles", "info"}, "\n    ")
}
