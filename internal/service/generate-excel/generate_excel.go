package generate_excel

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"erp-golang/internal/storage"
)

type GenerateExcelStorage interface {
	GetProducts(ctx context.Context, category string) ([]storage.Product, error)
}

type GenerateExcelService struct {
	storage GenerateExcelStorage
}

func NewGenerateService(storage GenerateExcelStorage) *GenerateExcelService {
	return &GenerateExcelService{storage: storage}
}

// GenerateCostReport выгружает кэшированную себестоимость каталога в
// xlsx, сгруппированную по категориям.
func (g *GenerateExcelService) GenerateCostReport(ctx context.Context, category string) ([]byte, error) {
	products, err := g.storage.GetProducts(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("fetch data: %w", err)
	}

	// Группировка по категории, внутри — по имени
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Category != products[j].Category {
			return products[i].Category < products[j].Category
		}
		return products[i].Name < products[j].Name
	})

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Себестоимость"
	f.SetSheetName("Sheet1", sheet)

	// --- СТИЛИ ---
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	moneyStyle, _ := f.NewStyle(&excelize.Style{
		NumFmt: 2, // 0.00
	})
	categoryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Italic: true},
	})

	headers := []string{"Категория", "Изделие", "Ед.", "Материалы", "Работы", "Накладные", "Себестоимость", "Цена", "Наценка %"}
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	rowNum := 1
	prevCategory := ""
	for _, p := range products {
		rowNum++

		// Строка-разделитель при смене категории
		if p.Category != prevCategory {
			f.SetCellValue(sheet, cellName(1, rowNum), p.Category)
			f.SetCellStyle(sheet, cellName(1, rowNum), cellName(1, rowNum), categoryStyle)
			prevCategory = p.Category
			rowNum++
		}

		f.SetCellValue(sheet, cellName(2, rowNum), p.Name)
		f.SetCellValue(sheet, cellName(3, rowNum), p.Unit)
		f.SetCellValue(sheet, cellName(4, rowNum), p.MaterialCost)
		f.SetCellValue(sheet, cellName(5, rowNum), p.LaborCost)
		f.SetCellValue(sheet, cellName(6, rowNum), p.OverheadCost)
		f.SetCellValue(sheet, cellName(7, rowNum), p.TotalCost)
		f.SetCellValue(sheet, cellName(8, rowNum), p.SellingPrice)
		f.SetCellValue(sheet, cellName(9, rowNum), p.Margin)
		f.SetCellStyle(sheet, cellName(4, rowNum), cellName(9, rowNum), moneyStyle)
	}

	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
	})
	f.SetColWidth(sheet, "A", "B", 28)
	f.SetColWidth(sheet, "C", "I", 14)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	return cell
}
