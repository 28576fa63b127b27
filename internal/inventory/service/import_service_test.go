package service

import (
	"errors"
	"testing"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/bitfantasy/partsdesk/internal/inventory/testutil"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func TestImportParts(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "samsung")
	model := testutil.SeedModel(t, env.db, cat, "galaxy s21")
	existing := testutil.SeedPart(t, env.db, model, "Battery", "Std", 20, 2)

	data := buildWorkbook(t, [][]interface{}{
		{"Category", "Model", "Name", "Type", "Price", "Quantity", "Threshold"},
		{"samsung", "Galaxy S21", "Display Assembly", "OLED", 89.5, 10, 3},
		{"SAMSUNG", "GALAXY S21", "Battery", "Std", 22, 4, ""},
		{"SAMSUNG", "GALAXY S99", "Screen", "OLED", 10, 1, ""},
		{"SAMSUNG", "GALAXY S21", "Flex", "Power", "cheap", 1, ""},
	})

	res, err := env.svc.Import.Import(env.ctx, "admin", "stock.xlsx", data)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 1 || res.Restocked != 1 || res.Failed != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(res.Errors) != 2 || res.Errors[0].Row != 4 || res.Errors[1].Row != 5 {
		t.Errorf("unexpected row errors %+v", res.Errors)
	}
	if res.ArchiveKey != "" {
		t.Errorf("no archive expected without object storage, got %s", res.ArchiveKey)
	}

	p := testutil.ReloadPart(t, env.db, existing.ID)
	if p.Quantity != 6 || p.Price != 22 {
		t.Errorf("expected restock to qty 6 price 22, got %d/%v", p.Quantity, p.Price)
	}
	movements, _, _ := env.svc.Part.Movements(env.ctx, existing.ID, 1, 10)
	if len(movements) != 1 || movements[0].Kind != entity.MovementImport {
		t.Errorf("expected an import movement, got %+v", movements)
	}

	parts, _ := env.svc.Part.ListByModel(env.ctx, model.ID)
	if len(parts) != 2 {
		t.Errorf("expected 2 parts on the model, got %d", len(parts))
	}
}

func TestImportCSV(t *testing.T) {
	env := newSvcEnv(t)
	cat := testutil.SeedCategory(t, env.db, "xiaomi")
	model := testutil.SeedModel(t, env.db, cat, "redmi note 12")

	csvText := "Category,Model,Name,Type,Price,Quantity,Threshold\n" +
		"xiaomi,Redmi Note 12,屏幕总成,LCD,45,6,2\n" +
		"xiaomi,Redmi Note 12,尾插,USB-C,8,,\n"

	tests := []struct {
		name string
		data func(t *testing.T) []byte
	}{
		{"utf8 with bom", func(t *testing.T) []byte { return append([]byte("\xef\xbb\xbf"), csvText...) }},
		{"gbk", func(t *testing.T) []byte {
			gbk, err := simplifiedchinese.GBK.NewEncoder().String(csvText)
			if err != nil {
				t.Fatalf("encode gbk: %v", err)
			}
			return []byte(gbk)
		}},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.svc.Import.Import(env.ctx, "admin", "stock.CSV", tt.data(t))
			if err != nil {
				t.Fatalf("Import: %v", err)
			}
			// 第二次导入同一文件全部视为入库
			if i == 0 && (res.Created != 2 || res.Failed != 0) {
				t.Errorf("unexpected result %+v", res)
			}
			if i == 1 && (res.Restocked != 2 || res.Failed != 0) {
				t.Errorf("unexpected result %+v", res)
			}
		})
	}

	parts, _ := env.svc.Part.ListByModel(env.ctx, model.ID)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	for _, p := range parts {
		if p.Name == "屏幕总成" && p.Quantity != 12 {
			t.Errorf("expected screen quantity 12 after two imports, got %d", p.Quantity)
		}
		if p.Name != "屏幕总成" && p.Name != "尾插" {
			t.Errorf("unexpected part name %q", p.Name)
		}
	}
}

func TestImportRejectsNonWorkbook(t *testing.T) {
	env := newSvcEnv(t)

	_, err := env.svc.Import.Import(env.ctx, "admin", "notes.txt", []byte("not a spreadsheet"))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestImportTemplate(t *testing.T) {
	env := newSvcEnv(t)

	f, err := env.svc.Import.Template()
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(importSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 || len(rows[0]) != len(importHeaders) || rows[0][0] != "Category" {
		t.Errorf("unexpected template rows %v", rows)
	}
}
