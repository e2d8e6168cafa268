package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go-bizpos/internal/events"
	"go-bizpos/internal/models"
	"go-bizpos/internal/pos"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return NewStore(db), db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	testDay = time.Date(2026, 6, 10, 15, 0, 0, 0, time.UTC)
	bea     = pos.Operator{ID: 7, Name: "Bea", Role: "cashier"}
)

func newTestPOS(store *Store) (*pos.Ledger, *pos.Committer) {
	ledger := pos.NewLedger(store, pos.WithClock(func() time.Time { return testDay }), pos.WithLocation(time.UTC))
	return ledger, pos.NewCommitter(store, ledger)
}

func seedProduct(t *testing.T, store *Store, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: dec(price), CostPrice: dec(price).Div(dec("2")), Category: "Food", CurrentStock: stock}
	require.NoError(t, store.CreateProduct(context.Background(), p, 1))
	return p
}

func seedService(t *testing.T, store *Store, name, price string) *models.Service {
	t.Helper()
	svc := &models.Service{Name: name, Price: dec(price), DurationMinutes: 30, Active: true}
	require.NoError(t, store.CreateService(context.Background(), svc))
	return svc
}

func cartFor(t *testing.T, store *Store, adds ...pos.CatalogEntry) *pos.Cart {
	t.Helper()
	c := pos.NewCart()
	for _, e := range adds {
		require.NoError(t, c.AddItem(e))
	}
	return c
}

func entry(t *testing.T, store *Store, typ pos.ItemType, id uint) pos.CatalogEntry {
	t.Helper()
	e, err := store.CatalogEntry(context.Background(), typ, id)
	require.NoError(t, err)
	return e
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestEnsureRegisterIsIdempotent(t *testing.T) {
	store, db := newTestStore(t)
	ledger, _ := newTestPOS(store)
	ctx := context.Background()

	first, err := ledger.Today(ctx, bea)
	require.NoError(t, err)
	second, err := ledger.Today(ctx, bea)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "2026-06-10", first.Date)
	assert.Equal(t, pos.RegisterOpen, first.Status)
	assert.True(t, first.OpeningAmount.IsZero())
	for _, m := range pos.PaymentMethods {
		assert.True(t, first.TotalPayments[m].IsZero())
	}
	assert.Equal(t, int64(1), count(t, db, &models.CashRegister{}))

	_, err = ledger.Open(ctx, bea, dec("100"))
	assert.ErrorIs(t, err, pos.ErrRegisterExists)
}

func TestConcurrentTodayCreatesOneRegister(t *testing.T) {
	store, db := newTestStore(t)
	ledger, _ := newTestPOS(store)
	ctx := context.Background()

	const sessions = 8
	ids := make([]uint, sessions)
	errs := make([]error, sessions)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			reg, err := ledger.Today(ctx, bea)
			errs[i] = err
			if err == nil {
				ids[i] = reg.ID
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int64(1), count(t, db, &models.CashRegister{}))
}

func TestOpenRegisterWithFloat(t *testing.T) {
	store, _ := newTestStore(t)
	ledger, _ := newTestPOS(store)
	ctx := context.Background()

	reg, err := ledger.Open(ctx, bea, dec("150.00"))
	require.NoError(t, err)
	assert.True(t, dec("150").Equal(reg.OpeningAmount))

	today, err := ledger.Today(ctx, bea)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, today.ID)
	assert.True(t, dec("150").Equal(today.OpeningAmount))
}

func TestCommitSaleScenario(t *testing.T) {
	store, db := newTestStore(t)
	ledger, committer := newTestPOS(store)
	ctx := context.Background()

	a := seedProduct(t, store, "A", "10.00", 5)
	b := seedService(t, store, "B", "25.00")

	c := cartFor(t, store,
		entry(t, store, pos.ItemProduct, a.ID),
		entry(t, store, pos.ItemProduct, a.ID),
		entry(t, store, pos.ItemService, b.ID),
	)
	require.NoError(t, c.SetDiscount(dec("5.00")))
	require.NoError(t, c.SetPaymentMethod(pos.PaymentPix))

	sale, err := committer.Commit(ctx, bea, c, decimal.Zero)
	require.NoError(t, err)
	assert.NotZero(t, sale.ID)
	assert.True(t, dec("45").Equal(sale.Subtotal))
	assert.True(t, dec("40").Equal(sale.Total))

	// stock moved through an "out" movement
	p, err := store.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.CurrentStock)
	mvs, err := store.ListMovements(ctx, a.ID, 10)
	require.NoError(t, err)
	require.Len(t, mvs, 2)
	assert.Equal(t, MovementOut, mvs[0].Type)
	assert.Equal(t, 2, mvs[0].Quantity)
	require.NotNil(t, mvs[0].SaleID)
	assert.Equal(t, sale.ID, *mvs[0].SaleID)

	// register totals
	reg, err := ledger.Get(ctx, bea, sale.CashRegisterID)
	require.NoError(t, err)
	assert.True(t, dec("40").Equal(reg.TotalSales))
	assert.True(t, dec("40").Equal(reg.TotalPayments[pos.PaymentPix]))
	assert.True(t, reg.TotalPayments[pos.PaymentCash].IsZero())
	assert.True(t, reg.TotalPayments[pos.PaymentCredit].IsZero())
	assert.True(t, reg.TotalPayments[pos.PaymentDebit].IsZero())
	require.Len(t, reg.Sales, 1)
	assert.Equal(t, sale.Reference, reg.Sales[0].Reference)
	require.Len(t, reg.Sales[0].Items, 2)

	// stored sale is a snapshot
	stored, err := store.GetSaleByReference(ctx, sale.Reference)
	require.NoError(t, err)
	assert.Equal(t, pos.SaleCompleted, stored.Status)
	assert.Equal(t, pos.PaymentPix, stored.Payment.Method)
	assert.True(t, dec("40").Equal(stored.Payment.Amount))

	// outbox
	var outbox []models.OutboxEvent
	require.NoError(t, db.Find(&outbox).Error)
	require.Len(t, outbox, 1)
	assert.Equal(t, events.EventSaleCompleted, outbox[0].EventName)
	var env events.EventEnvelope
	require.NoError(t, json.Unmarshal(outbox[0].Payload, &env))
	assert.NoError(t, env.Validate(events.EventSaleCompleted, 1))

	// cart reset
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Discount.IsZero())
	assert.Equal(t, pos.DefaultPaymentMethod, c.PaymentMethod)
}

func TestCommitSaleRollsBackOnShortStock(t *testing.T) {
	store, db := newTestStore(t)
	_, committer := newTestPOS(store)
	ctx := context.Background()

	a := seedProduct(t, store, "A", "10.00", 2)
	b := seedProduct(t, store, "B", "3.00", 1)
	c := cartFor(t, store,
		entry(t, store, pos.ItemProduct, a.ID),
		entry(t, store, pos.ItemProduct, b.ID),
	)

	// B is sold out elsewhere before checkout
	_, err := store.RecordMovement(ctx, &models.StockMovement{ProductID: b.ID, Type: MovementOut, Quantity: 1, Reason: "spoiled"})
	require.NoError(t, err)

	_, err = committer.Commit(ctx, bea, c, decimal.Zero)
	assert.ErrorIs(t, err, pos.ErrOutOfStock)

	pa, err := store.GetProduct(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pa.CurrentStock, "A was not decremented")
	assert.Zero(t, count(t, db, &models.Sale{}))
	assert.Zero(t, count(t, db, &models.SaleItem{}))
	assert.Zero(t, count(t, db, &models.OutboxEvent{}))
	assert.Len(t, c.Items, 2, "cart kept")

	reg, err := store.registerByDay(ctx, bea.ID, "2026-06-10")
	require.NoError(t, err)
	assert.True(t, reg.TotalSales.IsZero())
}

func TestCommitSaleValidationWritesNothing(t *testing.T) {
	store, db := newTestStore(t)
	_, committer := newTestPOS(store)
	ctx := context.Background()

	svc := seedService(t, store, "Cut", "30")
	c := cartFor(t, store, entry(t, store, pos.ItemService, svc.ID))
	require.NoError(t, c.SetDiscount(dec("30")))

	_, err := committer.Commit(ctx, bea, c, decimal.Zero)
	assert.ErrorIs(t, err, pos.ErrNonPositiveTotal)

	_, err = committer.Commit(ctx, bea, pos.NewCart(), decimal.Zero)
	assert.ErrorIs(t, err, pos.ErrEmptyCart)

	assert.Zero(t, count(t, db, &models.Sale{}))
	assert.Zero(t, count(t, db, &models.CashRegister{}))
}

func TestCloseRegister(t *testing.T) {
	store, db := newTestStore(t)
	ledger, committer := newTestPOS(store)
	ctx := context.Background()

	svc := seedService(t, store, "Cut", "40")
	c := cartFor(t, store, entry(t, store, pos.ItemService, svc.ID))
	require.NoError(t, c.SetPaymentMethod(pos.PaymentPix))
	sale, err := committer.Commit(ctx, bea, c, decimal.Zero)
	require.NoError(t, err)

	amount := dec("40.00")
	closed, err := ledger.Close(ctx, bea, sale.CashRegisterID, &amount)
	require.NoError(t, err)
	assert.Equal(t, pos.RegisterClosed, closed.Status)
	require.NotNil(t, closed.ClosingAmount)
	assert.True(t, dec("40").Equal(*closed.ClosingAmount))
	require.NotNil(t, closed.ExpectedAmount)
	assert.True(t, dec("40").Equal(*closed.ExpectedAmount))
	assert.NotNil(t, closed.ClosedAt)

	_, err = ledger.Close(ctx, bea, sale.CashRegisterID, nil)
	assert.ErrorIs(t, err, pos.ErrRegisterClosed)

	// appends are refused at the data layer too
	direct := &pos.Sale{Reference: "late", Date: testDay, Total: dec("5"), Payment: pos.Payment{Method: pos.PaymentCash}, Status: pos.SaleCompleted}
	_, err = store.CommitSale(ctx, sale.CashRegisterID, direct)
	assert.ErrorIs(t, err, pos.ErrRegisterClosed)

	c2 := cartFor(t, store, entry(t, store, pos.ItemService, svc.ID))
	_, err = committer.Commit(ctx, bea, c2, decimal.Zero)
	assert.ErrorIs(t, err, pos.ErrRegisterClosed)

	assert.Equal(t, int64(1), count(t, db, &models.Sale{}))

	var names []string
	require.NoError(t, db.Model(&models.OutboxEvent{}).Order("id").Pluck("event_name", &names).Error)
	assert.Equal(t, []string{events.EventSaleCompleted, events.EventRegisterClosed}, names)
}

func TestCloseRegisterForbiddenForOtherCashier(t *testing.T) {
	store, _ := newTestStore(t)
	ledger, _ := newTestPOS(store)
	ctx := context.Background()

	reg, err := ledger.Today(ctx, bea)
	require.NoError(t, err)

	_, err = ledger.Close(ctx, pos.Operator{ID: 99, Name: "Zed"}, reg.ID, nil)
	assert.ErrorIs(t, err, pos.ErrForbidden)

	after, err := store.GetRegister(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, pos.RegisterOpen, after.Status)

	_, err = store.GetRegister(ctx, 4242)
	assert.ErrorIs(t, err, pos.ErrNotFound)
}

func TestListRegisters(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i, day := range []string{"2026-06-08", "2026-06-09", "2026-06-10"} {
		reg := pos.NewCashRegister(bea, day, decimal.NewFromInt(int64(i)), testDay)
		_, err := store.CreateRegister(ctx, reg)
		require.NoError(t, err)
	}
	_, err := store.CreateRegister(ctx, pos.NewCashRegister(pos.Operator{ID: 8}, "2026-06-09", decimal.Zero, testDay))
	require.NoError(t, err)

	regs, err := store.ListRegisters(ctx, bea.ID, "2026-06-09", "2026-06-10")
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, "2026-06-10", regs[0].Date)
	assert.Equal(t, "2026-06-09", regs[1].Date)
}

func TestRecordMovement(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Milk", "4.50", 3)

	got, err := store.RecordMovement(ctx, &models.StockMovement{ProductID: p.ID, Type: MovementIn, Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, 10, got.CurrentStock)

	got, err = store.RecordMovement(ctx, &models.StockMovement{ProductID: p.ID, Type: MovementAdjustment, Quantity: -4})
	require.NoError(t, err)
	assert.Equal(t, 6, got.CurrentStock)

	_, err = store.RecordMovement(ctx, &models.StockMovement{ProductID: p.ID, Type: MovementOut, Quantity: 7})
	assert.ErrorIs(t, err, pos.ErrOutOfStock)

	_, err = store.RecordMovement(ctx, &models.StockMovement{ProductID: p.ID, Type: "gift", Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidMovement)

	_, err = store.RecordMovement(ctx, &models.StockMovement{ProductID: 999, Type: MovementIn, Quantity: 1})
	assert.ErrorIs(t, err, pos.ErrNotFound)

	mvs, err := store.ListMovements(ctx, p.ID, 10)
	require.NoError(t, err)
	assert.Len(t, mvs, 3, "initial stock, in, adjustment")
}

func TestUpdateProductIgnoresStock(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Bread", "2.00", 4)

	got, err := store.UpdateProduct(ctx, p.ID, map[string]any{"price": dec("2.50"), "current_stock": 100})
	require.NoError(t, err)
	assert.Equal(t, 4, got.CurrentStock)
	assert.True(t, dec("2.5").Equal(got.Price))

	require.NoError(t, store.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, store.DeleteProduct(ctx, p.ID), pos.ErrNotFound)
}

func TestCatalogEntry(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, store, "Soap", "3.20", 0)
	off := &models.Service{Name: "Old", Price: dec("1"), Active: false}
	require.NoError(t, store.CreateService(ctx, off))

	e, err := store.CatalogEntry(ctx, pos.ItemProduct, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, e.Stock)
	assert.ErrorIs(t, pos.NewCart().AddItem(e), pos.ErrOutOfStock)

	_, err = store.CatalogEntry(ctx, pos.ItemService, off.ID)
	assert.ErrorIs(t, err, pos.ErrNotFound)

	_, err = store.CatalogEntry(ctx, "bundle", 1)
	assert.ErrorIs(t, err, pos.ErrInvalidItemType)
}

func TestSearchCustomers(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	for _, c := range []models.Customer{
		{Name: "Maria Silva", Phone: "5511999990000", Email: "maria@example.com"},
		{Name: "Ana Maria", Phone: "5511888880000", Email: "ana@example.com"},
		{Name: "Bruno", Phone: "5521777770000", Email: "bruno@maria.dev"},
		{Name: "Carlos", Phone: "5531666660000", Document: "12345"},
	} {
		c := c
		require.NoError(t, store.CreateCustomer(ctx, &c))
	}

	got, err := store.SearchCustomers(ctx, "MARIA", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Maria Silva", got[0].Name, "prefix match ranks first")
	assert.Equal(t, "Ana Maria", got[1].Name)
	assert.Equal(t, "Bruno", got[2].Name)

	got, err = store.SearchCustomers(ctx, "1234", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Carlos", got[0].Name)

	got, err = store.SearchCustomers(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUsers(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	n, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	u := &models.User{Username: "bea", Name: "Bea", PasswordHash: "x", Role: "cashier"}
	require.NoError(t, store.CreateUser(ctx, u))
	assert.ErrorIs(t, store.CreateUser(ctx, &models.User{Username: "bea"}), ErrUserExists)

	got, err := store.UserByUsername(ctx, "bea")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = store.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, pos.ErrNotFound)
}

func TestSalesReport(t *testing.T) {
	store, _ := newTestStore(t)
	_, committer := newTestPOS(store)
	ctx := context.Background()

	a := seedProduct(t, store, "A", "10.00", 10)
	svc := seedService(t, store, "Cut", "25.00")

	c1 := cartFor(t, store, entry(t, store, pos.ItemProduct, a.ID), entry(t, store, pos.ItemProduct, a.ID))
	require.NoError(t, c1.SetPaymentMethod(pos.PaymentCash))
	_, err := committer.Commit(ctx, bea, c1, decimal.Zero)
	require.NoError(t, err)

	c2 := cartFor(t, store, entry(t, store, pos.ItemService, svc.ID))
	require.NoError(t, c2.SetPaymentMethod(pos.PaymentPix))
	_, err = committer.Commit(ctx, bea, c2, decimal.Zero)
	require.NoError(t, err)

	report, err := store.SalesReport(ctx, testDay.Add(-time.Hour), testDay.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.TotalOrders)
	assert.True(t, dec("45").Equal(report.TotalRevenue), "revenue %s", report.TotalRevenue)
	require.Len(t, report.ByPayment, 2)
	assert.Equal(t, "cash", report.ByPayment[0].PaymentMethod)
	assert.True(t, dec("20").Equal(report.ByPayment[0].Total))
	require.NotEmpty(t, report.TopSelling)
	assert.Equal(t, "A", report.TopSelling[0].Name)
	assert.Equal(t, int64(2), report.TopSelling[0].Sold)
	assert.Len(t, report.RecentSales, 2)

	empty, err := store.SalesReport(ctx, testDay.AddDate(0, 0, 1), testDay.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)
	assert.True(t, empty.TotalRevenue.IsZero())
}

func TestOutboxLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	_, committer := newTestPOS(store)
	ctx := context.Background()

	svc := seedService(t, store, "Cut", "25.00")
	for i := 0; i < 2; i++ {
		c := cartFor(t, store, entry(t, store, pos.ItemService, svc.ID))
		_, err := committer.Commit(ctx, bea, c, decimal.Zero)
		require.NoError(t, err)
	}

	pending, err := store.PendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Less(t, pending[0].ID, pending[1].ID)

	require.NoError(t, store.MarkFailed(ctx, pending[0].ID))
	require.NoError(t, store.MarkPublished(ctx, pending[0].ID, time.Now()))

	pending, err = store.PendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, events.EventSaleCompleted, pending[0].EventName)
}
