package endpoints

import "sort"

// Entry is one row of a resource group: a verb, a sub-path relative to the
// group prefix (placeholders in square brackets) and a hint. Table rows
// carry a noun phrase as hint; expanded rows carry the final description.
type Entry struct {
	Verb Verb
	Path string
	Hint string
}

// Spec describes one resource group of a company file.
type Spec struct {
	// Prefix is the path below the company file, e.g. "Sale/Invoice/"
	Prefix string
	// Name is the accessor name on a company file, e.g. "invoices"
	Name    string
	Entries []Entry
}

func crud(path, noun string) Entry { return Entry{Verb: CRUD, Path: path, Hint: noun} }
func all(path, noun string) Entry  { return Entry{Verb: All, Path: path, Hint: noun} }

// listGetPostDelete is the shape shared by payment, refund and settlement
// resources.
func listGetPostDelete(noun string) []Entry {
	return []Entry{
		{Verb: All, Hint: noun},
		{Verb: Get, Hint: noun},
		{Verb: Post, Hint: noun},
		{Verb: Delete, Hint: noun},
	}
}

var table = []Spec{
	{
		Prefix: "Banking/",
		Name:   "banking",
		Entries: []Entry{
			all("", "banking type"),
			crud("SpendMoneyTxn/", "spend money transaction"),
			crud("ReceiveMoneyTxn/", "receive money transaction"),
			crud("TransferMoneyTxn/", "transfer money transaction"),
		},
	},
	{
		Prefix: "Contact/",
		Name:   "contacts",
		Entries: []Entry{
			all("", "contact type"),
			crud("Customer/", "customer contact"),
			crud("Employee/", "employee card"),
			crud("Supplier/", "supplier contact"),
		},
	},
	{Prefix: "Sale/CustomerPayment/", Name: "customer_payments", Entries: listGetPostDelete("sale customer payment")},
	{Prefix: "Sale/CreditRefund/", Name: "credit_refunds", Entries: listGetPostDelete("sale credit refund")},
	{Prefix: "Sale/CreditSettlement/", Name: "credit_settlements", Entries: listGetPostDelete("sale credit settlement")},
	{
		Prefix: "Sale/Invoice/",
		Name:   "invoices",
		Entries: []Entry{
			all("", "sale invoice type"),
			crud("Item/", "item type sale invoice"),
			crud("Service/", "service type sale invoice"),
		},
	},
	{
		Prefix: "Sale/Order/",
		Name:   "orders",
		Entries: []Entry{
			all("", "sale order type"),
			crud("Item/", "item type sale order"),
			crud("Service/", "service type sale order"),
		},
	},
	{
		Prefix: "Sale/Quote/",
		Name:   "quotes",
		Entries: []Entry{
			all("", "sale quote type"),
			crud("Item/", "item type sale quote"),
			crud("Service/", "service type sale quote"),
		},
	},
	{
		Prefix: "GeneralLedger/",
		Name:   "general_ledger",
		Entries: []Entry{
			crud("TaxCode/", "tax code"),
			crud("Account/", "account"),
			crud("Category/", "cost center tracking category"),
			crud("Job/", "job"),
			crud("GeneralJournal/", "general journal"),
			all("JournalTransaction/", "transaction journal"),
			{Verb: Get, Path: "JournalTransaction/", Hint: "transaction journal"},
			all("AccountRegister/", "account register"),
			all("AccountingProperties/", "accounting property setting"),
		},
	},
	{
		Prefix: "Inventory/",
		Name:   "inventory",
		Entries: []Entry{
			crud("Item/", "inventory item"),
			all("ItemPriceMatrix/", "inventory item price matrix"),
			{Verb: Get, Path: "ItemPriceMatrix/", Hint: "inventory item price matrix"},
			{Verb: Put, Path: "ItemPriceMatrix/", Hint: "inventory item price matrix"},
			crud("Location/", "inventory location"),
			crud("Adjustment/", "inventory adjustment"),
		},
	},
	{
		Prefix: "Purchase/Bill/",
		Name:   "purchase_bills",
		Entries: []Entry{
			all("", "purchase bill type"),
			crud("Item/", "item type purchase bill"),
			crud("Service/", "service type purchase bill"),
			crud("Miscellaneous/", "miscellaneous type purchase bill"),
		},
	},
	{Prefix: "Purchase/DebitRefund/", Name: "debit_refunds", Entries: listGetPostDelete("purchase debit refund")},
	{Prefix: "Purchase/DebitSettlement/", Name: "debit_settlements", Entries: listGetPostDelete("purchase debit settlement")},
	{
		Prefix: "Purchase/Order/",
		Name:   "purchase_orders",
		Entries: []Entry{
			all("", "purchase order type"),
			crud("Item/", "item type purchase order"),
		},
	},
	{
		Prefix:  "Purchase/SupplierPayment/",
		Name:    "supplier_payments",
		Entries: []Entry{crud("", "purchase supplier payment")},
	},
	{
		Prefix:  "Company/",
		Name:    "company",
		Entries: []Entry{all("Preferences/", "company data file preference")},
	},
}

// Specs returns the endpoint table in declaration order. The result is a
// copy; callers may modify it freely.
func Specs() []Spec {
	out := make([]Spec, len(table))
	for i, s := range table {
		s.Entries = append([]Entry(nil), s.Entries...)
		out[i] = s
	}
	return out
}

// Lookup returns the resource group with the given accessor name.
func Lookup(name string) (Spec, bool) {
	for _, s := range table {
		if s.Name == name {
			s.Entries = append([]Entry(nil), s.Entries...)
			return s, true
		}
	}
	return Spec{}, false
}

// Names returns the accessor names of every resource group, sorted.
func Names() []string {
	names := make([]string, len(table))
	for i, s := range table {
		names[i] = s.Name
	}
	sort.Strings(names)
	return names
}
