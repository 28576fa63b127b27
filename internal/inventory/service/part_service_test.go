package service

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/bitfantasy/partsdesk/internal/inventory/testutil"
)

func TestPartCreateDerivesCategory(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "samsung")
	model := testutil.SeedModel(t, env.db, cat, "a52")

	res, err := env.svc.Part.Create(env.ctx, "admin", &CreatePartRequest{
		Name: "Screen", Type: "OLED", ModelID: model.ID, Price: price(70), Quantity: intPtr(6),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	p := res.Part
	if p.CategoryID != cat.ID || p.Category == nil || p.Model == nil {
		t.Errorf("category must be derived from model, got %+v", p)
	}
	if p.Threshold != entity.DefaultLowStockThreshold {
		t.Errorf("expected default threshold %d, got %d", entity.DefaultLowStockThreshold, p.Threshold)
	}

	movements, total, err := env.svc.Part.Movements(env.ctx, p.ID, 1, 20)
	if err != nil || total != 1 || movements[0].Kind != entity.MovementRestock || movements[0].Delta != 6 {
		t.Errorf("expected one restock movement of 6, got %v %+v", err, movements)
	}

	_, err = env.svc.Part.Create(env.ctx, "admin", &CreatePartRequest{
		Name: "Screen", Type: "OLED", ModelID: model.ID, Price: price(75),
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Errorf("expected ConflictError, got %v", err)
	}
}

func TestPartCreateUsesThresholdSetting(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "vivo")
	model := testutil.SeedModel(t, env.db, cat, "y20")

	_, err := env.svc.Setting.Upsert(env.ctx, &UpsertSettingRequest{
		Key: entity.SettingKeyDefaultThreshold, Value: json.RawMessage(`8`), Category: "threshold",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	res, err := env.svc.Part.Create(env.ctx, "admin", &CreatePartRequest{
		Name: "Battery", Type: "5000mAh", ModelID: model.ID, Price: price(15),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Part.Threshold != 8 {
		t.Errorf("expected threshold 8 from settings, got %d", res.Part.Threshold)
	}
}

func TestPartReactivation(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "realme")
	model := testutil.SeedModel(t, env.db, cat, "c11")
	part := testutil.SeedPart(t, env.db, model, "Screen", "LCD", 30, 2)

	if err := env.svc.Part.Delete(env.ctx, part.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := env.svc.Part.Delete(env.ctx, part.ID); err == nil {
		t.Error("deleting a retired part should fail")
	}

	res, err := env.svc.Part.Create(env.ctx, "admin", &CreatePartRequest{
		Name: "Screen", Type: "LCD", ModelID: model.ID, Price: price(35), Quantity: intPtr(9), Threshold: intPtr(1),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !res.Reactivated || res.Part.ID != part.ID {
		t.Fatalf("expected reactivation, got %+v", res)
	}
	if res.Part.Price != 35 || res.Part.Quantity != 9 || res.Part.Threshold != 1 {
		t.Errorf("reactivated part must take submitted values, got %+v", res.Part)
	}
}

func TestPartUpdateAndRestock(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "apple")
	other := testutil.SeedCategory(t, env.db, "used")
	model := testutil.SeedModel(t, env.db, cat, "iphone 13")
	moved := testutil.SeedModel(t, env.db, other, "iphone 13 used")
	part := testutil.SeedPart(t, env.db, model, "Camera", "Rear", 45, 10)

	updated, err := env.svc.Part.Update(env.ctx, "admin", part.ID, &UpdatePartRequest{
		ModelID: &moved.ID, Quantity: intPtr(4), Reason: "stock count",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ModelID != moved.ID || updated.CategoryID != other.ID {
		t.Errorf("category must be re-derived, got model %s category %s", updated.ModelID, updated.CategoryID)
	}
	if updated.Quantity != 4 {
		t.Errorf("expected qty 4, got %d", updated.Quantity)
	}

	restocked, err := env.svc.Part.Restock(env.ctx, "admin", part.ID, &RestockRequest{Quantity: 6, Price: price(50)})
	if err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if restocked.Quantity != 10 || restocked.Price != 50 {
		t.Errorf("expected qty 10 price 50, got %d/%v", restocked.Quantity, restocked.Price)
	}
	if _, err := env.svc.Part.Restock(env.ctx, "admin", part.ID, &RestockRequest{Quantity: 0}); err == nil {
		t.Error("expected validation error for zero restock")
	}

	movements, total, _ := env.svc.Part.Movements(env.ctx, part.ID, 1, 20)
	if total != 2 {
		t.Fatalf("expected 2 movements, got %d", total)
	}
	kinds := map[entity.MovementKind]int{}
	for _, m := range movements {
		kinds[m.Kind] += m.Delta
	}
	if kinds[entity.MovementAdjustment] != -6 || kinds[entity.MovementRestock] != 6 {
		t.Errorf("unexpected movements %+v", kinds)
	}
}

func TestPartQueries(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "honor")
	model := testutil.SeedModel(t, env.db, cat, "x8")
	testutil.SeedPart(t, env.db, model, "Screen", "LCD", 30, 12)
	testutil.SeedPart(t, env.db, model, "Battery", "Std", 10, 2)
	testutil.SeedPart(t, env.db, model, "Flex", "Power", 4, 5)

	parts, _ := env.svc.Part.List(env.ctx)
	if len(parts) != 3 || parts[0].Quantity != 2 {
		t.Errorf("expected ascending quantity, got %+v", parts)
	}
	low, _ := env.svc.Part.AtOrBelow(env.ctx, 5)
	if len(low) != 2 {
		t.Errorf("expected 2 parts at or below 5, got %d", len(low))
	}
	if _, err := env.svc.Part.AtOrBelow(env.ctx, -1); err == nil {
		t.Error("expected error for negative threshold")
	}
	byModel, err := env.svc.Part.ListByModel(env.ctx, model.ID)
	if err != nil || len(byModel) != 3 {
		t.Errorf("ListByModel: %v (%d)", err, len(byModel))
	}
	_, err = env.svc.Part.ListByModel(env.ctx, "missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError for unknown model, got %v", err)
	}
}
