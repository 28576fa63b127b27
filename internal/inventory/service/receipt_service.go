package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bitfantasy/partsdesk/internal/inventory/entity"
	"github.com/jung-kurt/gofpdf"
)

// ReceiptService 单笔销售小票
type ReceiptService struct {
	*deps
	shopName string
}

func NewReceiptService(d *deps) *ReceiptService {
	return &ReceiptService{deps: d, shopName: "Mobile Parts"}
}

// Render 生成销售小票 PDF
func (s *ReceiptService) Render(ctx context.Context, saleID string) ([]byte, *entity.Sale, error) {
	sale, err := s.repos.Sale.FindByID(ctx, saleID)
	if err != nil {
		return nil, nil, notFoundOr(err, "Sale", saleID)
	}

	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Receipt "+sale.ID, false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, s.shopName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "Receipt #"+sale.ID, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, sale.CreatedAt.Format("2006-01-02 15:04"), "", 1, "C", false, 0, "")
	if sale.Model != nil {
		pdf.CellFormat(0, 5, "Model: "+sale.Model.Name, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	// Table Header
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(8, 7, "#", "1", 0, "C", false, 0, "")
	pdf.CellFormat(52, 7, "Part", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 7, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(12, 7, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(14, 7, "Price", "1", 0, "C", false, 0, "")
	pdf.CellFormat(14, 7, "Total", "1", 1, "C", false, 0, "")

	// Table Rows
	pdf.SetFont("Arial", "", 9)
	for _, item := range sale.Items {
		name, partType := item.PartID, ""
		if item.Part != nil {
			name, partType = item.Part.Name, item.Part.Type
		}
		pdf.CellFormat(8, 7, fmt.Sprintf("%d", item.LineNo), "1", 0, "C", false, 0, "")
		pdf.CellFormat(52, 7, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(28, 7, partType, "1", 0, "L", false, 0, "")
		pdf.CellFormat(12, 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(14, 7, fmt.Sprintf("%.2f", item.PricePerUnit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(14, 7, fmt.Sprintf("%.2f", item.LineTotal()), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(114, 7, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(14, 7, fmt.Sprintf("%.2f", sale.TotalAmount), "", 1, "R", false, 0, "")
	if !sale.State.IsActive() {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, "VOIDED", "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), sale, nil
}
