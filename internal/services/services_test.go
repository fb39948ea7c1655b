package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/facturo/auth"
	"github.com/diewo77/facturo/internal/billing"
	"github.com/diewo77/facturo/internal/config"
	"github.com/diewo77/facturo/internal/db"
	"github.com/diewo77/facturo/internal/models"
	"github.com/diewo77/facturo/internal/numbering"
	"github.com/diewo77/facturo/internal/plan"
	"github.com/diewo77/facturo/internal/store"
	"github.com/diewo77/facturo/validation"
)

type testEnv struct {
	store    *store.Store
	limits   *billing.Evaluator
	clients  *ClientService
	products *ProductService
	company  *CompanyService
	invoices *InvoiceService
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := db.Open(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return store.New(conn)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := newTestStore(t)
	limits := billing.NewEvaluator(plan.Default(), st)
	return &testEnv{
		store:    st,
		limits:   limits,
		clients:  NewClientService(st, limits, nil),
		products: NewProductService(st),
		company:  NewCompanyService(st),
		invoices: NewInvoiceService(st, limits, numbering.NewAssigner(st, nil), nil),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (e *testEnv) client(t *testing.T, id auth.Identity, name string) *models.Client {
	t.Helper()
	c := &models.Client{Name: name}
	require.NoError(t, e.clients.Create(context.Background(), id, c))
	return c
}

func (e *testEnv) product(t *testing.T, tenant, name string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, UnitPrice: dec("10.00"), TaxRate: dec("21"), Active: true}
	require.NoError(t, e.products.Create(context.Background(), tenant, p))
	return p
}

func simpleInvoice(clientID, productID uint) CreateInvoiceInput {
	return CreateInvoiceInput{
		ClientID: clientID,
		Date:     "2025-06-01",
		Lines:    []LineInput{{ProductID: productID, Quantity: dec("1"), UnitPrice: dec("10.00"), TaxRate: dec("21")}},
	}
}

func TestCreateInvoice_StarterExample(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_a", Plan: plan.Starter}
	c := e.client(t, id, "Acme")
	p := e.product(t, id.TenantID, "Widget")

	for i := 0; i < 3; i++ {
		_, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
		require.NoError(t, err)
	}

	inv, err := e.invoices.Create(ctx, id, CreateInvoiceInput{
		ClientID: c.ID,
		Date:     "2025-06-15",
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: dec("2"), UnitPrice: dec("10.00"), TaxRate: dec("21")},
			{ProductID: p.ID, Quantity: dec("1"), UnitPrice: dec("5.50"), TaxRate: dec("10")},
			{ProductID: p.ID, Quantity: dec("3"), UnitPrice: dec("2.00"), TaxRate: dec("0")},
			{ProductID: p.ID, Quantity: dec("1"), UnitPrice: dec("100.00"), TaxRate: dec("21")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-0004", inv.Number)
	assert.Equal(t, models.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "131.50", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "25.75", inv.TaxTotal.StringFixed(2))
	assert.Equal(t, "157.25", inv.Total.StringFixed(2))
	require.Len(t, inv.Lines, 4)
	assert.Equal(t, "Widget", inv.Lines[0].Description)
	assert.Equal(t, "Acme", inv.Client.Name)

	stored, err := e.invoices.Get(ctx, id.TenantID, inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(dec("157.25")))
	assert.True(t, stored.Total.Equal(stored.Subtotal.Add(stored.TaxTotal)))
}

func TestCreateInvoice_MonthlyLimit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_free", Plan: plan.Free}
	c := e.client(t, id, "Acme")
	p := e.product(t, id.TenantID, "Widget")

	for i := 0; i < 10; i++ {
		_, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
		require.NoError(t, err)
	}

	_, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	var limitErr *billing.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, billing.ResourceInvoice, limitErr.Resource)
	assert.Equal(t, plan.Limit(10), limitErr.Limit)

	// unknown plans get the free limits
	_, err = e.invoices.Create(ctx, auth.Identity{TenantID: id.TenantID, Plan: "enterprise"}, simpleInvoice(c.ID, p.ID))
	assert.ErrorAs(t, err, &limitErr)
}

func TestCreateClient_Limit(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_free", Plan: plan.Free}

	for i := 0; i < 5; i++ {
		e.client(t, id, fmt.Sprintf("Client %d", i))
	}
	err := e.clients.Create(ctx, id, &models.Client{Name: "One too many"})
	var limitErr *billing.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Contains(t, limitErr.Error(), "5")
	assert.Contains(t, limitErr.Error(), "free_user")

	require.NoError(t, e.clients.Create(ctx, auth.Identity{TenantID: id.TenantID, Plan: plan.Pro}, &models.Client{Name: "Pro is unlimited"}))
}

func TestCreateClient_Validation(t *testing.T) {
	e := newTestEnv(t)
	err := e.clients.Create(context.Background(), auth.Identity{TenantID: "user_a", Plan: plan.Pro}, &models.Client{})
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Violations["name"])
}

func TestCreateInvoice_Validation(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.invoices.Create(context.Background(), auth.Identity{TenantID: "user_a", Plan: plan.Pro}, CreateInvoiceInput{
		Date:   "15/06/2025",
		Status: "archived",
		Lines: []LineInput{
			{Quantity: dec("0"), UnitPrice: dec("-1"), TaxRate: dec("101")},
			{ProductID: 1, Quantity: dec("1.005"), UnitPrice: dec("1.234"), TaxRate: dec("21.125")},
		},
	})

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, validation.Violations{
		"client_id":           "required",
		"date":                "invalid_date",
		"status":              "invalid_status",
		"lines[0].product_id": "required",
		"lines[0].quantity":   "must_be_positive",
		"lines[0].unit_price": "must_not_be_negative",
		"lines[0].tax_rate":   "out_of_range",
		"lines[1].quantity":   "too_many_decimals",
		"lines[1].unit_price": "too_many_decimals",
		"lines[1].tax_rate":   "too_many_decimals",
	}, verr.Violations)
}

func TestCreateInvoice_AmountBounds(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_a", Plan: plan.Pro}
	c := e.client(t, id, "Acme")
	p := e.product(t, id.TenantID, "Widget")

	line := func(qty, price, rate string) CreateInvoiceInput {
		in := simpleInvoice(c.ID, p.ID)
		in.Lines = []LineInput{{ProductID: p.ID, Quantity: dec(qty), UnitPrice: dec(price), TaxRate: dec(rate)}}
		return in
	}

	tests := []struct {
		name string
		in   CreateInvoiceInput
		want validation.Violations
	}{
		{"quantity too large", line("1000000000000", "1", "0"), validation.Violations{
			"lines[0].quantity": "out_of_range",
			"lines":             "out_of_range",
		}},
		{"price too large", line("1", "1000000000000", "0"), validation.Violations{
			"lines[0].unit_price": "out_of_range",
			"lines":               "out_of_range",
		}},
		{"total too large", line("999999", "999999.99", "21"), validation.Violations{
			"lines": "out_of_range",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.invoices.Create(ctx, id, tt.in)
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Violations)
		})
	}

	inv, err := e.invoices.Create(ctx, id, line("999.99", "123456789.01", "21.33"))
	require.NoError(t, err)
	assert.Equal(t, "149788624204.61194167", inv.Total.String())
}

func TestCreateInvoice_Ownership(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	a := auth.Identity{TenantID: "user_a", Plan: plan.Pro}
	b := auth.Identity{TenantID: "user_b", Plan: plan.Pro}
	ca := e.client(t, a, "A's client")
	pa := e.product(t, a.TenantID, "A's product")
	cb := e.client(t, b, "B's client")
	pb := e.product(t, b.TenantID, "B's product")

	_, err := e.invoices.Create(ctx, a, simpleInvoice(cb.ID, pa.ID))
	assert.ErrorIs(t, err, store.ErrNotFound, "client of another tenant")

	_, err = e.invoices.Create(ctx, a, simpleInvoice(ca.ID, pb.ID))
	assert.ErrorIs(t, err, store.ErrNotFound, "product of another tenant")
}

func TestCreateInvoice_DuplicateProductsAndEmptyLines(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_a", Plan: plan.Pro}
	c := e.client(t, id, "Acme")
	p := e.product(t, id.TenantID, "Widget")

	in := simpleInvoice(c.ID, p.ID)
	in.Lines = append(in.Lines, LineInput{ProductID: p.ID, Description: "Same widget again", Quantity: dec("2"), UnitPrice: dec("10.00"), TaxRate: dec("21")})
	inv, err := e.invoices.Create(ctx, id, in)
	require.NoError(t, err)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, "Same widget again", inv.Lines[1].Description)
	assert.True(t, inv.Subtotal.Equal(dec("30")))

	empty, err := e.invoices.Create(ctx, id, CreateInvoiceInput{ClientID: c.ID, Date: "2025-06-02"})
	require.NoError(t, err)
	assert.True(t, empty.Total.IsZero())
	assert.Equal(t, "2025-0002", empty.Number)
}

func TestCreateInvoice_NumberPerYear(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_a", Plan: plan.Pro}
	c := e.client(t, id, "Acme")
	p := e.product(t, id.TenantID, "Widget")

	in := simpleInvoice(c.ID, p.ID)
	first, err := e.invoices.Create(ctx, id, in)
	require.NoError(t, err)
	in.Date = "2024-12-31"
	prior, err := e.invoices.Create(ctx, id, in)
	require.NoError(t, err)
	in.Date = "2025-01-01"
	second, err := e.invoices.Create(ctx, id, in)
	require.NoError(t, err)

	assert.Equal(t, "2025-0001", first.Number)
	assert.Equal(t, "2024-0001", prior.Number)
	assert.Equal(t, "2025-0002", second.Number)
}

// staleFinder reports no prior invoice for its first n lookups, as a
// concurrent request that read before the other one committed would.
type staleFinder struct {
	st    *store.Store
	stale int32
	calls atomic.Int32
}

func (f *staleFinder) LatestInvoiceNumber(ctx context.Context, tenantID string, year int) (string, bool, error) {
	if f.calls.Add(1) <= f.stale {
		return "", false, nil
	}
	return f.st.LatestInvoiceNumber(ctx, tenantID, year)
}

func TestCreateInvoice_RetriesNumberConflict(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_a", Plan: plan.Pro}
	c := e.client(t, id, "Acme")
	p := e.product(t, id.TenantID, "Widget")
	_, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	require.NoError(t, err)

	finder := &staleFinder{st: e.store, stale: 1}
	svc := NewInvoiceService(e.store, e.limits, numbering.NewAssigner(finder, nil), nil)
	inv, err := svc.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	require.NoError(t, err)
	assert.Equal(t, "2025-0002", inv.Number)
	assert.Equal(t, int32(2), finder.calls.Load())

	finder = &staleFinder{st: e.store, stale: 100}
	svc = NewInvoiceService(e.store, e.limits, numbering.NewAssigner(finder, nil), nil, WithMaxAttempts(2))
	_, err = svc.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.Equal(t, int32(2), finder.calls.Load())
}

func TestCreateInvoice_ResumesAfterMalformedNumber(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_a", Plan: plan.Pro}
	c := e.client(t, id, "Acme")
	p := e.product(t, id.TenantID, "Widget")

	first, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	require.NoError(t, err)
	require.Equal(t, "2025-0001", first.Number)
	second, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	require.NoError(t, err)
	require.NoError(t, e.store.DB().Model(&models.Invoice{}).Where("id = ?", second.ID).Update("number", "LEGACY").Error)

	third, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	require.NoError(t, err)
	assert.Equal(t, "2025-0002", third.Number)
}

func TestUpdateInvoice(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_a", Plan: plan.Pro}
	c := e.client(t, id, "Acme")
	other := e.client(t, id, "Globex")
	p := e.product(t, id.TenantID, "Widget")
	inv, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	require.NoError(t, err)

	paid := models.InvoiceStatusPaid
	notes := "paid by transfer"
	date := "2026-02-01"
	updated, err := e.invoices.Update(ctx, id.TenantID, inv.ID, UpdateInvoiceInput{
		ClientID: &other.ID,
		Date:     &date,
		Status:   &paid,
		Notes:    &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, inv.Number, updated.Number, "number is never reassigned")
	assert.Equal(t, other.ID, updated.ClientID)
	assert.True(t, updated.Total.Equal(inv.Total), "totals untouched without new lines")

	lines := []LineInput{
		{ProductID: p.ID, Quantity: dec("3"), UnitPrice: dec("0.33"), TaxRate: dec("5.5")},
	}
	updated, err = e.invoices.Update(ctx, id.TenantID, inv.ID, UpdateInvoiceInput{Lines: &lines})
	require.NoError(t, err)

	stored, err := e.invoices.Get(ctx, id.TenantID, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.Equal(t, models.InvoiceStatusPaid, stored.Status)
	assert.Equal(t, "2026-02-01", stored.Date.Format(validation.DateLayout))
	assert.True(t, stored.Subtotal.Equal(dec("0.99")))
	assert.True(t, stored.TaxTotal.Equal(dec("0.05445")))
	assert.True(t, stored.Total.Equal(dec("1.04445")))
	assert.Equal(t, updated.Total.String(), stored.Total.String())

	none := []LineInput{}
	_, err = e.invoices.Update(ctx, id.TenantID, inv.ID, UpdateInvoiceInput{Lines: &none})
	require.NoError(t, err)
	stored, err = e.invoices.Get(ctx, id.TenantID, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Lines)
	assert.True(t, stored.Total.IsZero())

	_, err = e.invoices.Update(ctx, "user_b", inv.ID, UpdateInvoiceInput{Notes: &notes})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteInvoice(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_a", Plan: plan.Pro}
	c := e.client(t, id, "Acme")
	p := e.product(t, id.TenantID, "Widget")
	inv, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	require.NoError(t, err)

	assert.ErrorIs(t, e.invoices.Delete(ctx, "user_b", inv.ID), store.ErrNotFound)
	require.NoError(t, e.invoices.Delete(ctx, id.TenantID, inv.ID))
	_, err = e.invoices.Get(ctx, id.TenantID, inv.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestInvoiceDocument(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	id := auth.Identity{TenantID: "user_a", Plan: plan.Pro}
	c := e.client(t, id, "Acme")
	p := e.product(t, id.TenantID, "Widget")
	inv, err := e.invoices.Create(ctx, id, simpleInvoice(c.ID, p.ID))
	require.NoError(t, err)

	doc, err := e.invoices.Document(ctx, id.TenantID, inv.ID)
	require.NoError(t, err)
	assert.Nil(t, doc.Company)
	assert.Equal(t, "12.10", doc.Totals.Total.StringFixed(2))
	assert.Equal(t, "Acme", doc.Invoice.Client.Name)

	require.NoError(t, e.company.Create(ctx, id.TenantID, &models.CompanyProfile{Name: "Facturo Labs", TaxID: "B12345678"}))
	doc, err = e.invoices.Document(ctx, id.TenantID, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, doc.Company)
	assert.Equal(t, "Facturo Labs", doc.Company.Name)

	_, err = e.invoices.Document(ctx, "user_b", inv.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCompanyService(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	var verr *validation.Error
	require.ErrorAs(t, e.company.Create(ctx, "user_a", &models.CompanyProfile{Name: "No tax id"}), &verr)
	assert.Equal(t, "required", verr.Violations["tax_id"])

	require.NoError(t, e.company.Create(ctx, "user_a", &models.CompanyProfile{Name: "Facturo Labs", TaxID: "B1"}))
	assert.ErrorIs(t, e.company.Create(ctx, "user_a", &models.CompanyProfile{Name: "Again", TaxID: "B2"}), store.ErrDuplicate)

	p, err := e.company.Update(ctx, "user_a", models.CompanyProfile{Name: "Facturo Labs S.L.", TaxID: "B1", IBAN: "ES00"})
	require.NoError(t, err)
	assert.Equal(t, "user_a", p.UserID)

	got, err := e.company.Get(ctx, "user_a")
	require.NoError(t, err)
	assert.Equal(t, "Facturo Labs S.L.", got.Name)
	assert.Equal(t, "ES00", got.IBAN)

	require.NoError(t, e.company.Delete(ctx, "user_a"))
	assert.ErrorIs(t, e.company.Delete(ctx, "user_a"), store.ErrNotFound)
	_, err = e.company.Update(ctx, "user_a", models.CompanyProfile{Name: "x", TaxID: "y"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name string
		p    models.Product
		want validation.Violations
	}{
		{"valid", models.Product{Name: "Widget", UnitPrice: dec("9.99"), TaxRate: dec("21")}, nil},
		{"free product", models.Product{Name: "Sample", UnitPrice: dec("0"), TaxRate: dec("0")}, nil},
		{"no name", models.Product{UnitPrice: dec("1"), TaxRate: dec("21")}, validation.Violations{"name": "required"}},
		{"negative price", models.Product{Name: "x", UnitPrice: dec("-1"), TaxRate: dec("21")}, validation.Violations{"unit_price": "must_not_be_negative"}},
		{"rate over 100", models.Product{Name: "x", UnitPrice: dec("1"), TaxRate: dec("100.01")}, validation.Violations{"tax_rate": "out_of_range"}},
		{"three decimals", models.Product{Name: "x", UnitPrice: dec("1.001"), TaxRate: dec("21")}, validation.Violations{"unit_price": "too_many_decimals"}},
		{"price too large", models.Product{Name: "x", UnitPrice: dec("1000000000000"), TaxRate: dec("21")}, validation.Violations{"unit_price": "out_of_range"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProduct(&tt.p)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Violations)
		})
	}
}

func TestProductService_Update(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	p := e.product(t, "user_a", "Widget")

	updated, err := e.products.Update(ctx, "user_a", p.ID, models.Product{Name: "Widget v2", UnitPrice: dec("12.50"), TaxRate: dec("10"), Active: false})
	require.NoError(t, err)
	assert.Equal(t, "user_a", updated.UserID)
	assert.False(t, updated.Active)

	_, err = e.products.Update(ctx, "user_b", p.ID, models.Product{Name: "Hijack", UnitPrice: dec("1"), TaxRate: dec("0")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
