package myob

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gaborage/go-myob/endpoints"
	"github.com/gaborage/go-myob/manager"
)

// ErrUnexpectedPayload is returned when a company file response does not
// have the expected shape.
var ErrUnexpectedPayload = errors.New("myob: unexpected company file payload")

// CompanyFiles lists and opens company files.
type CompanyFiles struct {
	creds    Credentials
	settings *settings
	manager  *manager.Manager
}

func newCompanyFiles(creds Credentials, s *settings) (*CompanyFiles, error) {
	m, err := manager.New("", creds, s.managerOptions(
		manager.WithName("CompanyFile"),
		manager.WithRawEntries(
			endpoints.Entry{Verb: endpoints.All, Path: "", Hint: "Return a list of company files."},
			endpoints.Entry{Verb: endpoints.Get, Path: "[id]/", Hint: "List endpoints available for a company file."},
		),
	)...)
	if err != nil {
		return nil, err
	}
	return &CompanyFiles{creds: creds, settings: s, manager: m}, nil
}

// All returns every company file the signed-in user can access.
func (c *CompanyFiles) All(ctx context.Context) ([]*CompanyFile, error) {
	res, err := c.manager.Call(ctx, "all", nil)
	if err != nil {
		return nil, err
	}
	list, ok := res.List()
	if !ok {
		return nil, fmt.Errorf("%w: expected a list", ErrUnexpectedPayload)
	}

	files := make([]*CompanyFile, 0, len(list))
	for _, item := range list {
		raw, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: expected an object, got %T", ErrUnexpectedPayload, item)
		}
		cf, err := newCompanyFile(raw, c.creds, c.settings)
		if err != nil {
			return nil, err
		}
		files = append(files, cf)
	}
	return files, nil
}

// Get opens the company file id. With call set it fetches the file's
// details through a manager scoped to the file, so its cftoken is sent;
// otherwise it returns a file carrying only its id.
func (c *CompanyFiles) Get(ctx context.Context, id string, call bool) (*CompanyFile, error) {
	if !call {
		return newCompanyFile(map[string]any{"Id": id}, c.creds, c.settings)
	}

	scoped, err := manager.New("", c.creds, c.settings.managerOptions(
		manager.WithCompanyID(id),
		manager.WithRawEntries(endpoints.Entry{Verb: endpoints.Get}),
	)...)
	if err != nil {
		return nil, err
	}
	res, err := scoped.Call(ctx, "get", nil)
	if err != nil {
		return nil, err
	}

	obj, ok := res.Object()
	if !ok {
		return nil, fmt.Errorf("%w: expected an object", ErrUnexpectedPayload)
	}
	raw, ok := obj["CompanyFile"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing CompanyFile", ErrUnexpectedPayload)
	}
	return newCompanyFile(raw, c.creds, c.settings)
}

// Manager exposes the listing manager.
func (c *CompanyFiles) Manager() *manager.Manager {
	return c.manager
}

func (c *CompanyFiles) String() string {
	return c.manager.String()
}

// CompanyFile is one AccountRight company file with a manager per
// resource group, e.g. "contacts" or "invoices".
type CompanyFile struct {
	ID   string
	Name string
	// Data is the raw company file document
	Data map[string]any

	managers map[string]*manager.Manager
}

func newCompanyFile(raw map[string]any, creds Credentials, s *settings) (*CompanyFile, error) {
	id, ok := raw["Id"].(string)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: missing Id", ErrUnexpectedPayload)
	}
	name, _ := raw["Name"].(string)

	cf := &CompanyFile{
		ID:       id,
		Name:     name,
		Data:     raw,
		managers: make(map[string]*manager.Manager),
	}
	for _, spec := range endpoints.Specs() {
		m, err := manager.New(spec.Prefix, creds, s.managerOptions(
			manager.WithCompanyID(id),
			manager.WithEntries(spec.Entries...),
		)...)
		if err != nil {
			return nil, err
		}
		cf.managers[spec.Name] = m
	}
	return cf, nil
}

// Manager returns the resource manager with the given accessor name.
func (cf *CompanyFile) Manager(name string) (*manager.Manager, bool) {
	m, ok := cf.managers[name]
	return m, ok
}

// Managers returns the accessor names, sorted.
func (cf *CompanyFile) Managers() []string {
	names := make([]string, 0, len(cf.managers))
	for name := range cf.managers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (cf *CompanyFile) String() string {
	return "CompanyFile:\n    " + strings.Join(cf.Managers(), "\n    ")
}
