package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/products"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

var fixedNow = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

type memoryState struct {
	sales  []Sale
	items  []SaleItem
	stock  map[int64]products.StockLevel
	nextID int64
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		sales:  append([]Sale(nil), s.sales...),
		items:  append([]SaleItem(nil), s.items...),
		stock:  make(map[int64]products.StockLevel, len(s.stock)),
		nextID: s.nextID,
	}
	for k, v := range s.stock {
		out.stock[k] = v
	}
	return out
}

// memoryRepo restores its snapshot when the callback fails.
type memoryRepo struct {
	mu         sync.Mutex
	state      memoryState
	failOn     int64
	insertErr  error
	txCalls    int
	saleNumber map[string]struct{}
}

func newMemoryRepo(levels ...products.StockLevel) *memoryRepo {
	repo := &memoryRepo{
		state:      memoryState{stock: map[int64]products.StockLevel{}},
		saleNumber: map[string]struct{}{},
	}
	for _, level := range levels {
		repo.state.stock[level.ProductID] = level
	}
	return repo
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txCalls++
	snapshot := m.state.clone()
	if err := fn(ctx, m); err != nil {
		m.state = snapshot
		return err
	}
	for _, sale := range m.state.sales {
		m.saleNumber[sale.SaleNumber] = struct{}{}
	}
	return nil
}

func (m *memoryRepo) GetSale(_ context.Context, id int64) (Sale, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sale := range m.state.sales {
		if sale.ID == id {
			for _, item := range m.state.items {
				if item.SaleID == id {
					sale.Items = append(sale.Items, item)
				}
			}
			return sale, nil
		}
	}
	return Sale{}, fmt.Errorf("%w: sale %d", ErrSaleNotFound, id)
}

func (m *memoryRepo) InsertSale(_ context.Context, sale Sale) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	for _, existing := range m.state.sales {
		if existing.SaleNumber == sale.SaleNumber {
			return 0, &pgconn.PgError{Code: "23505", ConstraintName: "sales_sale_number_key"}
		}
	}
	m.state.nextID++
	sale.ID = m.state.nextID
	m.state.sales = append(m.state.sales, sale)
	return sale.ID, nil
}

func (m *memoryRepo) InsertItem(_ context.Context, item SaleItem) (int64, error) {
	m.state.nextID++
	item.ID = m.state.nextID
	m.state.items = append(m.state.items, item)
	return item.ID, nil
}

func (m *memoryRepo) DecrementStock(_ context.Context, productID int64, qty decimal.Decimal) (products.StockLevel, error) {
	if m.failOn == productID {
		return products.StockLevel{}, errors.New("connection reset")
	}
	level, ok := m.state.stock[productID]
	if !ok {
		return products.StockLevel{}, products.NotFound(productID)
	}
	level.StockQuantity -= StockDecrement(qty)
	m.state.stock[productID] = level
	return level, nil
}

func (m *memoryRepo) stockOf(id int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.stock[id].StockQuantity
}

type recordingHook struct {
	events  []SaleRecordedEvent
	ctxErrs []error
	err     error
}

func (r *recordingHook) HandleSaleRecorded(ctx context.Context, evt SaleRecordedEvent) error {
	r.events = append(r.events, evt)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}

func newTestService(repo RepositoryPort, cfg ServiceConfig, hook IntegrationHandler) *Service {
	svc := NewService(repo, cfg, hook, nil, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validInput() RecordSaleInput {
	return RecordSaleInput{
		UserID:        1,
		PaymentMethod: PaymentCash,
		Items: []ItemInput{
			{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("1.50"), TaxRate: decPtr("0.08")},
			{ProductID: 2, Quantity: dec("1"), UnitPrice: dec("8.50"), TaxRate: decPtr("0.25")},
		},
		CashReceived: decPtr("20"),
		ChangeGiven:  decPtr("6.135"),
	}
}

func TestRecordSaleCommitsHeaderItemsAndStock(t *testing.T) {
	repo := newMemoryRepo(
		products.StockLevel{ProductID: 1, StockQuantity: 10, MinStockLevel: 2},
		products.StockLevel{ProductID: 2, StockQuantity: 5, MinStockLevel: 1},
	)
	svc := newTestService(repo, ServiceConfig{}, nil)

	summary, err := svc.RecordSale(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, 2, summary.ItemCount)
	require.True(t, summary.Subtotal.Equal(dec("11.50")))
	require.True(t, summary.TotalAmount.Equal(summary.Subtotal.Add(summary.TaxAmount)))
	require.Regexp(t, `^SALE-\d+-[0-9A-F]{8}$`, summary.SaleNumber)

	require.Equal(t, int64(8), repo.stockOf(1))
	require.Equal(t, int64(4), repo.stockOf(2))

	sale, err := svc.GetSale(context.Background(), summary.SaleID)
	require.NoError(t, err)
	require.Equal(t, summary.SaleNumber, sale.SaleNumber)
	require.Equal(t, fixedNow, sale.CreatedAt)
	require.Len(t, sale.Items, 2)
	require.True(t, sale.Items[0].TotalPrice.Equal(dec("3.00")))
	require.True(t, sale.CashReceived.Valid)
}

func TestRecordSaleValidationRejectsBeforeStorage(t *testing.T) {
	cases := map[string]func(*RecordSaleInput){
		"missing user":    func(in *RecordSaleInput) { in.UserID = 0 },
		"empty items":     func(in *RecordSaleInput) { in.Items = nil },
		"bad method":      func(in *RecordSaleInput) { in.PaymentMethod = "crypto" },
		"missing product": func(in *RecordSaleInput) { in.Items[0].ProductID = 0 },
		"zero quantity":   func(in *RecordSaleInput) { in.Items[0].Quantity = decimal.Zero },
		"negative price":  func(in *RecordSaleInput) { in.Items[1].UnitPrice = dec("-1") },
		"tax above one":   func(in *RecordSaleInput) { in.Items[1].TaxRate = decPtr("1.5") },
		"negative cash":   func(in *RecordSaleInput) { in.CashReceived = decPtr("-5") },
		"negative change": func(in *RecordSaleInput) { in.ChangeGiven = decPtr("-0.01") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newMemoryRepo(products.StockLevel{ProductID: 1, StockQuantity: 10})
			svc := newTestService(repo, ServiceConfig{}, nil)
			input := validInput()
			mutate(&input)

			_, err := svc.RecordSale(context.Background(), input)
			require.ErrorIs(t, err, shared.ErrInvalidInput)
			require.Zero(t, repo.txCalls)
		})
	}
}

func TestRecordSaleAllowsNegativeStockByDefault(t *testing.T) {
	repo := newMemoryRepo(products.StockLevel{ProductID: 1, StockQuantity: 1})
	svc := newTestService(repo, ServiceConfig{}, nil)

	input := validInput()
	input.Items = []ItemInput{{ProductID: 1, Quantity: dec("3"), UnitPrice: dec("1")}}
	_, err := svc.RecordSale(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, int64(-2), repo.stockOf(1))
}

func TestRecordSaleEnforceStockRollsBack(t *testing.T) {
	repo := newMemoryRepo(
		products.StockLevel{ProductID: 1, StockQuantity: 10},
		products.StockLevel{ProductID: 2, StockQuantity: 0},
	)
	svc := newTestService(repo, ServiceConfig{EnforceStock: true}, nil)

	_, err := svc.RecordSale(context.Background(), validInput())
	require.ErrorIs(t, err, shared.ErrInvalidOperation)
	require.ErrorIs(t, err, products.ErrNegativeStock)
	var negErr *products.NegativeStockError
	require.ErrorAs(t, err, &negErr)
	require.Equal(t, int64(2), negErr.ProductID)
	require.Equal(t, int64(0), negErr.CurrentStock)

	require.Equal(t, int64(10), repo.stockOf(1))
	require.Empty(t, repo.state.sales)
	require.Empty(t, repo.state.items)
}

func TestRecordSaleRollsBackOnDecrementFailure(t *testing.T) {
	repo := newMemoryRepo(
		products.StockLevel{ProductID: 1, StockQuantity: 10},
		products.StockLevel{ProductID: 2, StockQuantity: 10},
	)
	repo.failOn = 2
	svc := newTestService(repo, ServiceConfig{}, nil)

	_, err := svc.RecordSale(context.Background(), validInput())
	require.ErrorIs(t, err, shared.ErrStorageFailure)
	require.True(t, shared.IsInternal(err))

	require.Equal(t, int64(10), repo.stockOf(1))
	require.Empty(t, repo.state.sales)
	require.Empty(t, repo.state.items)
}

func TestRecordSaleUnknownProductRollsBack(t *testing.T) {
	repo := newMemoryRepo(products.StockLevel{ProductID: 1, StockQuantity: 10})
	svc := newTestService(repo, ServiceConfig{}, nil)

	_, err := svc.RecordSale(context.Background(), validInput())
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.True(t, products.IsNotFound(err))
	require.Equal(t, int64(10), repo.stockOf(1))
	require.Empty(t, repo.state.sales)
}

func TestRecordSaleDuplicateNumberIsStorageFailure(t *testing.T) {
	repo := newMemoryRepo(
		products.StockLevel{ProductID: 1, StockQuantity: 10},
		products.StockLevel{ProductID: 2, StockQuantity: 10},
	)
	svc := newTestService(repo, ServiceConfig{}, nil)
	svc.newNumber = func(time.Time) string { return "SALE-1-DEADBEEF" }

	_, err := svc.RecordSale(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.RecordSale(context.Background(), validInput())
	require.ErrorIs(t, err, shared.ErrStorageFailure)
	require.ErrorIs(t, err, shared.ErrDuplicateSaleNumber)
	require.Len(t, repo.state.sales, 1)
	require.Equal(t, int64(8), repo.stockOf(1))
}

func TestRecordSaleNumbersAreUnique(t *testing.T) {
	repo := newMemoryRepo(
		products.StockLevel{ProductID: 1, StockQuantity: 1000},
		products.StockLevel{ProductID: 2, StockQuantity: 1000},
	)
	svc := newTestService(repo, ServiceConfig{}, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for n := 0; n < 50; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordSale(context.Background(), validInput())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, repo.saleNumber, 50)
	require.Equal(t, int64(900), repo.stockOf(1))
	require.Equal(t, int64(950), repo.stockOf(2))
}

func TestRecordSaleFractionalQuantityRoundsStockUp(t *testing.T) {
	cases := []struct {
		quantity string
		want     int64
	}{
		{"1.6", 8},
		{"0.5", 9},
		{"1.2", 8},
		{"3", 7},
	}
	for _, tc := range cases {
		t.Run(tc.quantity, func(t *testing.T) {
			repo := newMemoryRepo(products.StockLevel{ProductID: 1, StockQuantity: 10})
			svc := newTestService(repo, ServiceConfig{}, nil)

			input := validInput()
			input.Items = []ItemInput{{ProductID: 1, Quantity: dec(tc.quantity), UnitPrice: dec("2")}}
			summary, err := svc.RecordSale(context.Background(), input)
			require.NoError(t, err)
			require.True(t, summary.Subtotal.Equal(dec(tc.quantity).Mul(dec("2"))))
			require.Equal(t, tc.want, repo.stockOf(1))
		})
	}
}

func TestRecordSaleRepeatedHalfUnitsDrainStock(t *testing.T) {
	repo := newMemoryRepo(products.StockLevel{ProductID: 1, StockQuantity: 4})
	svc := newTestService(repo, ServiceConfig{}, nil)

	input := validInput()
	input.Items = []ItemInput{{ProductID: 1, Quantity: dec("0.5"), UnitPrice: dec("2")}}
	for n := 0; n < 4; n++ {
		_, err := svc.RecordSale(context.Background(), input)
		require.NoError(t, err)
	}
	require.Zero(t, repo.stockOf(1))
}

func TestRecordSaleExplicitZeroDefaultTaxRate(t *testing.T) {
	repo := newMemoryRepo(products.StockLevel{ProductID: 1, StockQuantity: 10})
	zero := decimal.Zero
	svc := newTestService(repo, ServiceConfig{DefaultTaxRate: &zero}, nil)

	input := validInput()
	input.Items = []ItemInput{{ProductID: 1, Quantity: dec("2"), UnitPrice: dec("5")}}
	summary, err := svc.RecordSale(context.Background(), input)
	require.NoError(t, err)
	require.True(t, summary.TaxAmount.IsZero(), summary.TaxAmount.String())
	require.True(t, summary.TotalAmount.Equal(dec("10")))

	svc = newTestService(repo, ServiceConfig{}, nil)
	summary, err = svc.RecordSale(context.Background(), input)
	require.NoError(t, err)
	require.True(t, summary.TaxAmount.Equal(dec("0.8")))
}

func TestRecordSaleHookOutlivesCancelledRequest(t *testing.T) {
	repo := newMemoryRepo(
		products.StockLevel{ProductID: 1, StockQuantity: 10},
		products.StockLevel{ProductID: 2, StockQuantity: 10},
	)
	hook := &recordingHook{}
	svc := newTestService(repo, ServiceConfig{}, hook)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.RecordSale(ctx, validInput())
	require.NoError(t, err)
	require.Len(t, hook.ctxErrs, 1)
	require.NoError(t, hook.ctxErrs[0])
}

func TestRecordSaleInvokesHookAfterCommit(t *testing.T) {
	repo := newMemoryRepo(
		products.StockLevel{ProductID: 1, StockQuantity: 3, MinStockLevel: 2},
		products.StockLevel{ProductID: 2, StockQuantity: 10, MinStockLevel: 2},
	)
	hook := &recordingHook{err: errors.New("broker down")}
	svc := newTestService(repo, ServiceConfig{}, hook)

	summary, err := svc.RecordSale(context.Background(), validInput())
	require.NoError(t, err, "hook failures must not fail the sale")
	require.Len(t, hook.events, 1)

	evt := hook.events[0]
	require.Equal(t, summary.SaleID, evt.SaleID)
	require.Equal(t, fixedNow, evt.RecordedAt)
	require.Len(t, evt.StockLevels, 2)
	require.True(t, evt.StockLevels[0].Low())
	require.False(t, evt.StockLevels[1].Low())
}

func TestRecordSaleHookSkippedOnFailure(t *testing.T) {
	repo := newMemoryRepo()
	hook := &recordingHook{}
	svc := newTestService(repo, ServiceConfig{}, hook)

	_, err := svc.RecordSale(context.Background(), validInput())
	require.Error(t, err)
	require.Empty(t, hook.events)
}

func TestGetSaleErrors(t *testing.T) {
	svc := newTestService(newMemoryRepo(), ServiceConfig{}, nil)

	_, err := svc.GetSale(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.GetSale(context.Background(), 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.ErrorIs(t, err, ErrSaleNotFound)
}
