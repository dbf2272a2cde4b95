package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
)

const lowStockSheet = "Low stock"

var lowStockHeader = []any{
	"ID", "Name", "Category", "Location", "Unit",
	"In stock", "Reorder point", "Ideal stock", "Suggested order", "Unit cost (EUR)", "Vendor ID",
}

// LowStockWorkbook renders rows as a single sheet XLSX file. Suggested order is
// the gap to ideal stock, never negative.
func LowStockWorkbook(rows []models.InventoryItem) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", lowStockSheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(lowStockSheet, "A1", &lowStockHeader); err != nil {
		return nil, err
	}
	lastCol, err := excelize.ColumnNumberToName(len(lowStockHeader))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(lowStockSheet, "A1", lastCol+"1", bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(lowStockSheet, "B", "B", 32); err != nil {
		return nil, err
	}

	for i, item := range rows {
		suggested := item.IdealStock.Sub(item.InStock)
		if suggested.IsNegative() {
			suggested = decimal.Zero
		}
		var vendor any = ""
		if item.VendorID != nil {
			vendor = *item.VendorID
		}
		row := []any{
			item.ID,
			item.Name,
			item.Category,
			item.Location.DisplayName(),
			item.Unit,
			item.InStock.InexactFloat64(),
			item.ReorderPoint.InexactFloat64(),
			item.IdealStock.InexactFloat64(),
			suggested.InexactFloat64(),
			decimal.New(item.UnitCostCents, -2).InexactFloat64(),
			vendor,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(lowStockSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
