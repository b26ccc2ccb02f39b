package myob

import (
	"context"
	"encoding/json"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-myob/config"
	"github.com/gaborage/go-myob/credentials"
	"github.com/gaborage/go-myob/logger"
	"github.com/gaborage/go-myob/manager"
	"github.com/gaborage/go-myob/trace"
)

const (
	testCompanyID = "DummyCompanyId"
	testCFToken   = "!encoded-userpass="
)

type fakeAPI struct {
	server *httptest.Server

	mu      sync.Mutex
	headers map[string]nethttp.Header
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{headers: make(map[string]nethttp.Header)}

	mux := nethttp.NewServeMux()
	mux.HandleFunc("GET /accountright/{$}", api.json(`[{"Id":"`+testCompanyID+`","Name":"Acme"},{"Id":"cf-2","Name":"Other"}]`))
	mux.HandleFunc("GET /accountright/Info/", api.json(`[{"Name":"Contact","Version":"2024.1"}]`))
	mux.HandleFunc("GET /accountright/"+testCompanyID+"/{$}", api.json(`{"CompanyFile":{"Id":"`+testCompanyID+`","Name":"Acme","Country":"AU"}}`))
	mux.HandleFunc("GET /accountright/"+testCompanyID+"/Contact/Customer/", api.json(`{"Items":[{"DisplayID":"CUS-1"}]}`))
	mux.HandleFunc("GET /accountright/broken/{$}", api.json(`{"Nope":true}`))

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func (a *fakeAPI) json(body string) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		a.mu.Lock()
		a.headers[r.URL.Path] = r.Header.Clone()
		a.mu.Unlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}

func (a *fakeAPI) headersFor(path string) nethttp.Header {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.headers[path]
}

func (a *fakeAPI) baseURL() string {
	return a.server.URL + "/accountright/"
}

func newTestCredentials(t *testing.T) *credentials.PartnerCredentials {
	t.Helper()
	creds, err := credentials.New("KeyToTheKingdom", "TellNoOne", "http://localhost/callback",
		credentials.WithToken("access-token", "refresh-token", time.Now().Add(time.Hour)),
		credentials.WithCompanyFileCredentials(map[string]string{testCompanyID: testCFToken}),
	)
	require.NoError(t, err)
	return creds
}

func newTestClient(t *testing.T, api *fakeAPI) *Myob {
	t.Helper()
	client, err := New(newTestCredentials(t), WithBaseURL(api.baseURL()), WithLogger(logger.NewNop()))
	require.NoError(t, err)
	return client
}

func TestMyobString(t *testing.T) {
	client, err := New(newTestCredentials(t))
	require.NoError(t, err)
	assert.Equal(t, "Myob:\n    companyfiles\n    info", client.String())
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestInfo(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(t, api)

	res, err := client.Info(context.Background())
	require.NoError(t, err)

	list, ok := res.List()
	require.True(t, ok)
	assert.Len(t, list, 1)

	headers := api.headersFor("/accountright/Info/")
	require.NotNil(t, headers)
	assert.Equal(t, "Bearer access-token", headers.Get(manager.HeaderAuthorization))
	assert.Equal(t, "KeyToTheKingdom", headers.Get(manager.HeaderKey))
	assert.Empty(t, headers.Get(manager.HeaderCompanyToken))
}

func TestCompanyFilesString(t *testing.T) {
	client, err := New(newTestCredentials(t))
	require.NoError(t, err)

	expected := "CompanyFileManager:\n" +
		"      all() - Return a list of company files.\n" +
		"    get(id) - List endpoints available for a company file."
	assert.Equal(t, expected, client.CompanyFiles().String())
	assert.Equal(t, "CompanyFile", client.CompanyFiles().Manager().Name())
}

func TestCompanyFilesAll(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(t, api)

	files, err := client.CompanyFiles().All(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, testCompanyID, files[0].ID)
	assert.Equal(t, "Acme", files[0].Name)
	assert.Equal(t, "cf-2", files[1].ID)

	assert.Empty(t, api.headersFor("/accountright/").Get(manager.HeaderCompanyToken))
}

func TestCompanyFilesGet(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(t, api)

	cf, err := client.CompanyFiles().Get(context.Background(), testCompanyID, true)
	require.NoError(t, err)
	assert.Equal(t, testCompanyID, cf.ID)
	assert.Equal(t, "Acme", cf.Name)
	assert.Equal(t, "AU", cf.Data["Country"])

	headers := api.headersFor("/accountright/" + testCompanyID + "/")
	require.NotNil(t, headers)
	assert.Equal(t, testCFToken, headers.Get(manager.HeaderCompanyToken))
}

func TestCompanyFilesGetWithoutCall(t *testing.T) {
	client, err := New(newTestCredentials(t))
	require.NoError(t, err)

	cf, err := client.CompanyFiles().Get(context.Background(), "offline", false)
	require.NoError(t, err)
	assert.Equal(t, "offline", cf.ID)
	assert.Empty(t, cf.Name)
	assert.Equal(t, map[string]any{"Id": "offline"}, cf.Data)
}

func TestCompanyFilesGetUnexpectedPayload(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(t, api)

	_, err := client.CompanyFiles().Get(context.Background(), "broken", true)
	assert.ErrorIs(t, err, ErrUnexpectedPayload)
}

func TestCompanyFileManagers(t *testing.T) {
	client, err := New(newTestCredentials(t))
	require.NoError(t, err)
	cf, err := client.CompanyFiles().Get(context.Background(), testCompanyID, false)
	require.NoError(t, err)

	expected := "CompanyFile:\n" +
		"    banking\n" +
		"    company\n" +
		"    contacts\n" +
		"    credit_refunds\n" +
		"    credit_settlements\n" +
		"    customer_payments\n" +
		"    debit_refunds\n" +
		"    debit_settlements\n" +
		"    general_ledger\n" +
		"    inventory\n" +
		"    invoices\n" +
		"    orders\n" +
		"    purchase_bills\n" +
		"    purchase_orders\n" +
		"    quotes\n" +
		"    supplier_payments"
	assert.Equal(t, expected, cf.String())

	contacts, ok := cf.Manager("contacts")
	require.True(t, ok)
	assert.Equal(t, "Contact", contacts.Name())
	assert.Equal(t, testCompanyID, contacts.CompanyID())

	_, ok = cf.Manager("nope")
	assert.False(t, ok)
}

func TestCompanyFileManagerCall(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(t, api)

	files, err := client.CompanyFiles().All(context.Background())
	require.NoError(t, err)
	contacts, ok := files[0].Manager("contacts")
	require.True(t, ok)

	res, err := contacts.Call(context.Background(), "customer", nil)
	require.NoError(t, err)

	var page struct {
		Items []struct{ DisplayID string }
	}
	require.NoError(t, res.Decode(&page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "CUS-1", page.Items[0].DisplayID)

	headers := api.headersFor("/accountright/" + testCompanyID + "/Contact/Customer/")
	assert.Equal(t, testCFToken, headers.Get(manager.HeaderCompanyToken))
}

func TestNewFromConfig(t *testing.T) {
	api := newFakeAPI(t)

	yamlDoc := []byte(`
api:
  baseurl: ` + api.baseURL() + `
  version: v3
  timeout: 2s
  ratelimit:
    enabled: true
    persecond: 100
    burst: 10
`)
	cfg, err := config.LoadFromBytes(yamlDoc)
	require.NoError(t, err)

	client, err := NewFromConfig(cfg, newTestCredentials(t), logger.NewNop())
	require.NoError(t, err)

	ctx := trace.WithRequestID(context.Background(), "req-123")
	_, err = client.Info(ctx)
	require.NoError(t, err)

	headers := api.headersFor("/accountright/Info/")
	assert.Equal(t, "v3", headers.Get(manager.HeaderVersion))
	assert.Equal(t, "req-123", headers.Get(trace.HeaderXRequestID))
}

func TestAPIErrorsPropagate(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(nethttp.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"Errors": []map[string]any{{"Name": "OAuthTokenIsInvalid", "Message": "expired", "AdditionalDetails": "Bearer"}},
		})
	}))
	t.Cleanup(server.Close)

	client, err := New(newTestCredentials(t), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.CompanyFiles().All(context.Background())
	assert.ErrorIs(t, err, manager.ErrUnauthorized)

	var apiErr *manager.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "OAuthTokenIsInvalid: expired Bearer", apiErr.Problem)
}
