package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
	"github.com/bitfantasy/partsdesk/internal/inventory/sse"
	"github.com/bitfantasy/partsdesk/internal/inventory/testutil"
)

func TestSaleCreate(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "samsung")
	model := testutil.SeedModel(t, env.db, cat, "galaxy s21")
	screen := testutil.SeedPart(t, env.db, model, "Display", "OLED", 89.5, 10)
	battery := testutil.SeedPart(t, env.db, model, "Battery", "4000mAh", 25, 3)

	client := &sse.Client{ID: "c1", Events: make(chan sse.Event, 10)}
	env.hub.Register(client)
	defer env.hub.Unregister("c1")

	sale, err := env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{
		ModelID: model.ID,
		Items: []SaleItemRequest{
			{PartID: screen.ID, Quantity: 2, PricePerUnit: price(89.5)},
			{PartID: battery.ID, Quantity: 1, PricePerUnit: price(25)},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sale.TotalAmount != 204 {
		t.Errorf("expected total 204, got %v", sale.TotalAmount)
	}
	if len(sale.Items) != 2 || sale.Items[0].LineNo != 1 || sale.Items[0].Part == nil {
		t.Fatalf("unexpected items: %+v", sale.Items)
	}
	if sale.CreatedBy != "clerk" || sale.State != entity.LifecycleActive {
		t.Errorf("unexpected sale header: %+v", sale)
	}

	if p := testutil.ReloadPart(t, env.db, screen.ID); p.Quantity != 8 || p.SoldCount != 2 {
		t.Errorf("screen: expected qty 8 sold 2, got %d/%d", p.Quantity, p.SoldCount)
	}
	if p := testutil.ReloadPart(t, env.db, battery.ID); p.Quantity != 2 || p.SoldCount != 1 {
		t.Errorf("battery: expected qty 2 sold 1, got %d/%d", p.Quantity, p.SoldCount)
	}
	if n := testutil.CountRows(t, env.db, &entity.StockMovement{}); n != 2 {
		t.Errorf("expected 2 stock movements, got %d", n)
	}

	got := map[string]int{}
	for len(client.Events) > 0 {
		ev := <-client.Events
		got[ev.EventType]++
	}
	if got[sse.EventSaleCreated] != 1 {
		t.Errorf("expected one sale_created event, got %v", got)
	}
	if got[sse.EventStockLow] != 1 {
		t.Errorf("expected one stock_low event for the battery, got %v", got)
	}
}

func TestSaleCreateRepeatedPartCompounds(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "apple")
	model := testutil.SeedModel(t, env.db, cat, "iphone 12")
	part := testutil.SeedPart(t, env.db, model, "Camera", "Rear", 40, 5)

	_, err := env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{
		ModelID: model.ID,
		Items: []SaleItemRequest{
			{PartID: part.ID, Quantity: 3, PricePerUnit: price(40)},
			{PartID: part.ID, Quantity: 3, PricePerUnit: price(40)},
		},
	})
	var ins *InsufficientStockError
	if !errors.As(err, &ins) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if ins.Available != 2 || ins.Requested != 3 {
		t.Errorf("expected available 2 requested 3, got %d/%d", ins.Available, ins.Requested)
	}
	if p := testutil.ReloadPart(t, env.db, part.ID); p.Quantity != 5 || p.SoldCount != 0 {
		t.Errorf("stock must be unchanged, got qty %d sold %d", p.Quantity, p.SoldCount)
	}

	sale, err := env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{
		ModelID: model.ID,
		Items: []SaleItemRequest{
			{PartID: part.ID, Quantity: 2, PricePerUnit: price(40)},
			{PartID: part.ID, Quantity: 3, PricePerUnit: price(40)},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sale.TotalAmount != 200 {
		t.Errorf("expected total 200, got %v", sale.TotalAmount)
	}
	if p := testutil.ReloadPart(t, env.db, part.ID); p.Quantity != 0 || p.SoldCount != 5 {
		t.Errorf("expected qty 0 sold 5, got %d/%d", p.Quantity, p.SoldCount)
	}
}

func TestSaleCreateRollsBack(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "xiaomi")
	model := testutil.SeedModel(t, env.db, cat, "redmi 9")
	first := testutil.SeedPart(t, env.db, model, "Charging Port", "USB-C", 12, 10)
	second := testutil.SeedPart(t, env.db, model, "Back Cover", "Glass", 15, 1)

	tests := []struct {
		name  string
		items []SaleItemRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "insufficient stock on second line",
			items: []SaleItemRequest{
				{PartID: first.ID, Quantity: 4, PricePerUnit: price(12)},
				{PartID: second.ID, Quantity: 2, PricePerUnit: price(15)},
			},
			check: func(t *testing.T, err error) {
				var ins *InsufficientStockError
				if !errors.As(err, &ins) {
					t.Fatalf("expected InsufficientStockError, got %v", err)
				}
				want := "Insufficient quantity for part Glass. Available: 1, Requested: 2"
				if err.Error() != want {
					t.Errorf("expected %q, got %q", want, err.Error())
				}
			},
		},
		{
			name: "price mismatch on second line",
			items: []SaleItemRequest{
				{PartID: first.ID, Quantity: 1, PricePerUnit: price(12)},
				{PartID: second.ID, Quantity: 1, PricePerUnit: price(14.5)},
			},
			check: func(t *testing.T, err error) {
				var pm *PriceMismatchError
				if !errors.As(err, &pm) {
					t.Fatalf("expected PriceMismatchError, got %v", err)
				}
				want := "Price mismatch for part Glass. Expected: 15, Got: 14.5"
				if err.Error() != want {
					t.Errorf("expected %q, got %q", want, err.Error())
				}
			},
		},
		{
			name: "unknown part",
			items: []SaleItemRequest{
				{PartID: first.ID, Quantity: 1, PricePerUnit: price(12)},
				{PartID: "missing", Quantity: 1, PricePerUnit: price(1)},
			},
			check: func(t *testing.T, err error) {
				var nf *NotFoundError
				if !errors.As(err, &nf) || nf.Entity != "Part" {
					t.Fatalf("expected part NotFoundError, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{ModelID: model.ID, Items: tt.items})
			tt.check(t, err)

			if p := testutil.ReloadPart(t, env.db, first.ID); p.Quantity != 10 || p.SoldCount != 0 {
				t.Errorf("first part changed: qty %d sold %d", p.Quantity, p.SoldCount)
			}
			if p := testutil.ReloadPart(t, env.db, second.ID); p.Quantity != 1 {
				t.Errorf("second part changed: qty %d", p.Quantity)
			}
			if n := testutil.CountRows(t, env.db, &entity.Sale{}); n != 0 {
				t.Errorf("expected no sales, got %d", n)
			}
			if n := testutil.CountRows(t, env.db, &entity.SaleItem{}); n != 0 {
				t.Errorf("expected no sale items, got %d", n)
			}
			if n := testutil.CountRows(t, env.db, &entity.StockMovement{}); n != 0 {
				t.Errorf("expected no movements, got %d", n)
			}
		})
	}
}

func TestSaleCreateModelNotFound(t *testing.T) {
	env := newSvcEnv(t)

	_, err := env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{
		ModelID: "missing",
		Items:   []SaleItemRequest{{PartID: "p", Quantity: 1, PricePerUnit: price(1)}},
	})
	var nf *NotFoundError
	if !errors.As(err, &nf) || err.Error() != "Model not found" {
		t.Fatalf("expected Model not found, got %v", err)
	}
}

func TestSaleCreateValidation(t *testing.T) {
	env := newSvcEnv(t)

	cases := []*CreateSaleRequest{
		{ModelID: "m"},
		{ModelID: "m", Items: []SaleItemRequest{{PartID: "p", Quantity: 0, PricePerUnit: price(1)}}},
		{ModelID: "m", Items: []SaleItemRequest{{PartID: "p", Quantity: 1}}},
		{ModelID: "m", Items: []SaleItemRequest{{PartID: "p", Quantity: 1, PricePerUnit: price(-1)}}},
	}
	for i, req := range cases {
		_, err := env.svc.Sale.Create(env.ctx, "clerk", req)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestPriceMatchesTolerance(t *testing.T) {
	tests := []struct {
		expected, got float64
		want          bool
	}{
		{10, 10, true},
		{10, 10.01, true},
		{10, 9.99, true},
		{10, 10.02, false},
		{0.1, 0.11, true},
		{100, 100.011, false},
		{100, 100.009, true},
		{100, 99.989, false},
		{19.99, 19.97, false},
	}
	for _, tt := range tests {
		if got := priceMatches(tt.expected, tt.got, 0.01); got != tt.want {
			t.Errorf("priceMatches(%v, %v) = %v, want %v", tt.expected, tt.got, got, tt.want)
		}
	}
}

func TestSaleCreateBoundaries(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "vivo")
	model := testutil.SeedModel(t, env.db, cat, "y20")
	part := testutil.SeedPart(t, env.db, model, "Back Cover", "Blue", 100, 10)

	sell := func(qty int, unit float64) (*entity.Sale, error) {
		return env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{
			ModelID: model.ID,
			Items:   []SaleItemRequest{{PartID: part.ID, Quantity: qty, PricePerUnit: price(unit)}},
		})
	}

	var pm *PriceMismatchError
	if _, err := sell(1, 100.011); !errors.As(err, &pm) {
		t.Fatalf("expected PriceMismatchError for 0.011 over, got %v", err)
	}
	if p := testutil.ReloadPart(t, env.db, part.ID); p.Quantity != 10 {
		t.Errorf("price mismatch must leave stock at 10, got %d", p.Quantity)
	}

	if _, err := sell(1, 100.009); err != nil {
		t.Fatalf("0.009 over must be accepted: %v", err)
	}
	if p := testutil.ReloadPart(t, env.db, part.ID); p.Quantity != 9 {
		t.Errorf("expected qty 9, got %d", p.Quantity)
	}

	var ise *InsufficientStockError
	if _, err := sell(10, 100); !errors.As(err, &ise) {
		t.Fatalf("expected InsufficientStockError for stock+1, got %v", err)
	}
	if ise.Available != 9 || ise.Requested != 10 {
		t.Errorf("unexpected error detail %+v", ise)
	}
	if p := testutil.ReloadPart(t, env.db, part.ID); p.Quantity != 9 {
		t.Errorf("insufficient stock must leave qty 9, got %d", p.Quantity)
	}

	sale, err := sell(9, 100)
	if err != nil {
		t.Fatalf("selling exactly the stock must succeed: %v", err)
	}
	if sale.TotalAmount != 900 {
		t.Errorf("expected total 900, got %v", sale.TotalAmount)
	}
	if p := testutil.ReloadPart(t, env.db, part.ID); p.Quantity != 0 {
		t.Errorf("expected qty 0, got %d", p.Quantity)
	}
}

func TestSaleCreateRoundsUnitPriceToCents(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "nokia")
	model := testutil.SeedModel(t, env.db, cat, "g21")
	cover := testutil.SeedPart(t, env.db, model, "Cover", "Black", 100, 200)
	glass := testutil.SeedPart(t, env.db, model, "Glass", "Clear", 12.34, 50)

	sale, err := env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{
		ModelID: model.ID,
		Items: []SaleItemRequest{
			{PartID: cover.ID, Quantity: 100, PricePerUnit: price(100.005)},
			{PartID: glass.ID, Quantity: 3, PricePerUnit: price(12.3449)},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stored, err := env.svc.Sale.Get(env.ctx, sale.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	sum := decimal.Zero
	for _, it := range stored.Items {
		unit := decimal.NewFromFloat(it.PricePerUnit)
		if !unit.Equal(unit.Round(2)) {
			t.Errorf("line %d: unit price %v has more than two decimals", it.LineNo, it.PricePerUnit)
		}
		sum = sum.Add(decimal.NewFromInt(int64(it.Quantity)).Mul(unit))
	}
	if !sum.Equal(decimal.NewFromFloat(stored.TotalAmount)) {
		t.Errorf("line total %s does not match sale total %v", sum, stored.TotalAmount)
	}
	if !sum.Equal(decimal.RequireFromString("10038.02")) {
		t.Errorf("expected 10001.00 + 37.02, got %s", sum)
	}
}

func TestSaleCreateReturnsCommittedSaleWhenReloadFails(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "honor")
	model := testutil.SeedModel(t, env.db, cat, "x8")
	part := testutil.SeedPart(t, env.db, model, "Charger", "USB-C", 15, 4)

	// 事务内不读 sales 表，只有提交后的重新读取会失败
	env.db.Callback().Query().Before("gorm:query").Register("test:fail_sales", func(db *gorm.DB) {
		if db.Statement.Table == "sales" {
			db.AddError(errors.New("injected failure"))
		}
	})

	sale, err := env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{
		ModelID: model.ID,
		Items:   []SaleItemRequest{{PartID: part.ID, Quantity: 2, PricePerUnit: price(15)}},
	})
	if err != nil {
		t.Fatalf("committed sale must not report an error: %v", err)
	}
	if sale == nil || sale.ID == "" || sale.TotalAmount != 30 {
		t.Fatalf("unexpected sale %+v", sale)
	}
	if p := testutil.ReloadPart(t, env.db, part.ID); p.Quantity != 2 {
		t.Errorf("expected qty 2, got %d", p.Quantity)
	}
}

func TestSaleConcurrentOversell(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "oppo")
	model := testutil.SeedModel(t, env.db, cat, "a5")
	part := testutil.SeedPart(t, env.db, model, "Speaker", "Loud", 8, 5)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{
				ModelID: model.ID,
				Items:   []SaleItemRequest{{PartID: part.ID, Quantity: 3, PricePerUnit: price(8)}},
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one sale to commit, got %d", success)
	}
	p := testutil.ReloadPart(t, env.db, part.ID)
	if p.Quantity != 2 || p.SoldCount != 3 {
		t.Errorf("expected qty 2 sold 3, got %d/%d", p.Quantity, p.SoldCount)
	}
	if n := testutil.CountRows(t, env.db, &entity.Sale{}); n != 1 {
		t.Errorf("expected one sale, got %d", n)
	}
}

func TestSaleQueriesAndStatus(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "nokia")
	model := testutil.SeedModel(t, env.db, cat, "3310")
	part := testutil.SeedPart(t, env.db, model, "Keypad", "Rubber", 5, 20)

	var ids []string
	for i := 0; i < 3; i++ {
		sale, err := env.svc.Sale.Create(env.ctx, "clerk", &CreateSaleRequest{
			ModelID: model.ID,
			Items:   []SaleItemRequest{{PartID: part.ID, Quantity: i + 1, PricePerUnit: price(5)}},
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, sale.ID)
	}

	list, err := env.svc.Sale.List(env.ctx, 1, 2, repository.SaleFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Total != 3 || len(list.Items) != 2 {
		t.Errorf("expected total 3 and page of 2, got %d/%d", list.Total, len(list.Items))
	}
	if list.Summary.TotalSales != 3 || list.Summary.TotalAmount != 30 || list.Summary.TotalItems != 6 {
		t.Errorf("unexpected summary %+v", list.Summary)
	}

	recent, err := env.svc.Sale.Recent(env.ctx)
	if err != nil || len(recent) != 3 {
		t.Fatalf("Recent: %v (%d)", err, len(recent))
	}

	now := time.Now()
	inRange, err := env.svc.Sale.Range(env.ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil || len(inRange) != 3 {
		t.Fatalf("Range: %v (%d)", err, len(inRange))
	}
	if _, err := env.svc.Sale.Range(env.ctx, now, now.Add(-time.Hour)); err == nil {
		t.Error("expected error for inverted range")
	}

	voided, err := env.svc.Sale.UpdateStatus(env.ctx, ids[0], &UpdateStatusRequest{State: "retired"})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if voided.State != entity.LifecycleRetired {
		t.Errorf("expected retired, got %s", voided.State)
	}
	if p := testutil.ReloadPart(t, env.db, part.ID); p.Quantity != 14 {
		t.Errorf("status change must not touch stock, got qty %d", p.Quantity)
	}
	if _, err := env.svc.Sale.UpdateStatus(env.ctx, ids[0], &UpdateStatusRequest{State: "shipped"}); err == nil {
		t.Error("expected validation error for unknown state")
	}
	if _, err := env.svc.Sale.UpdateStatus(env.ctx, "missing", &UpdateStatusRequest{State: "active"}); err == nil {
		t.Error("expected not found for unknown sale")
	}

	list, _ = env.svc.Sale.List(env.ctx, 1, 20, repository.SaleFilter{})
	if list.Total != 2 || list.Summary.TotalAmount != 25 {
		t.Errorf("retired sale must drop out of listing, got total %d amount %v", list.Total, list.Summary.TotalAmount)
	}
}
