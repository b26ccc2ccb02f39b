package endpoints

import (
	"errors"
	nethttp "net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluralise(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"company", "companies"},
		{"matrix", "matrices"},
		{"item", "items"},
		{"inventory item price matrix", "inventory item price matrices"},
		{"cost center tracking category", "cost center tracking categories"},
		{"", "s"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, Pluralise(tt.in))
		})
	}
}

func TestVerbOrder(t *testing.T) {
	assert.Less(t, All.Rank(), Get.Rank())
	assert.Less(t, Get.Rank(), Post.Rank())
	assert.Less(t, Post.Rank(), Put.Rank())
	assert.Less(t, Put.Rank(), Delete.Rank())
	assert.Equal(t, len(Order), CRUD.Rank())
	assert.False(t, CRUD.Concrete())
}

func TestVerbHTTPMethod(t *testing.T) {
	assert.Equal(t, nethttp.MethodGet, All.HTTPMethod())
	assert.Equal(t, nethttp.MethodGet, Get.HTTPMethod())
	assert.Equal(t, nethttp.MethodPost, Post.HTTPMethod())
	assert.Equal(t, nethttp.MethodPut, Put.HTTPMethod())
	assert.Equal(t, nethttp.MethodDelete, Delete.HTTPMethod())
	assert.Empty(t, CRUD.HTTPMethod())

	assert.True(t, Put.Mutating())
	assert.True(t, Post.Mutating())
	assert.False(t, All.Mutating())
	assert.False(t, Delete.Mutating())
}

func TestParseVerb(t *testing.T) {
	v, err := ParseVerb(" put ")
	require.NoError(t, err)
	assert.Equal(t, Put, v)

	v, err = ParseVerb("crud")
	require.NoError(t, err)
	assert.Equal(t, CRUD, v)

	_, err = ParseVerb("PATCH")
	assert.True(t, errors.Is(err, ErrUnknownVerb))
}

func TestExpandCRUD(t *testing.T) {
	got, err := Expand(Entry{Verb: CRUD, Path: "Customer/", Hint: "customer contact"})
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Verb: All, Path: "Customer/", Hint: "Return all customer contacts for an AccountRight company file."},
		{Verb: Get, Path: "Customer/[uid]/", Hint: "Return selected customer contact."},
		{Verb: Post, Path: "Customer/", Hint: "Create new customer contact."},
		{Verb: Put, Path: "Customer/[uid]/", Hint: "Update selected customer contact."},
		{Verb: Delete, Path: "Customer/[uid]/", Hint: "Delete selected customer contact."},
	}, got)
}

func TestExpandEveryCRUDEntryYieldsFive(t *testing.T) {
	for _, spec := range Specs() {
		for _, e := range spec.Entries {
			if e.Verb != CRUD {
				continue
			}
			got, err := Expand(e)
			require.NoError(t, err)
			assert.Len(t, got, 5, "%s %s", spec.Name, e.Path)
		}
	}
}

func TestExpandSingleVerb(t *testing.T) {
	got, err := Expand(Entry{Verb: Put, Path: "ItemPriceMatrix/", Hint: "inventory item price matrix"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ItemPriceMatrix/[uid]/", got[0].Path)
	assert.Equal(t, "Update selected inventory item price matrix.", got[0].Hint)

	_, err = Expand(Entry{Verb: "PATCH"})
	assert.True(t, errors.Is(err, ErrUnknownVerb))
}

func TestExpandAll(t *testing.T) {
	spec, ok := Lookup("supplier_payments")
	require.True(t, ok)

	got, err := ExpandAll(spec.Entries)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "Return all purchase supplier payments for an AccountRight company file.", got[0].Hint)

	_, err = ExpandAll([]Entry{{Verb: "NOPE"}})
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	assert.Equal(t, []string{
		"banking", "company", "contacts", "credit_refunds", "credit_settlements",
		"customer_payments", "debit_refunds", "debit_settlements", "general_ledger",
		"inventory", "invoices", "orders", "purchase_bills", "purchase_orders",
		"quotes", "supplier_payments",
	}, Names())

	seen := map[string]bool{}
	for _, spec := range Specs() {
		assert.False(t, seen[spec.Prefix], "duplicate prefix %s", spec.Prefix)
		seen[spec.Prefix] = true
		assert.NotEmpty(t, spec.Entries)
		assert.Regexp(t, `/$`, spec.Prefix)
	}
}

func TestSpecsReturnsCopy(t *testing.T) {
	specs := Specs()
	specs[0].Entries[0].Hint = "mutated"

	again, ok := Lookup(specs[0].Name)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", again.Entries[0].Hint)

	_, ok = Lookup("payroll")
	assert.False(t, ok)
}
