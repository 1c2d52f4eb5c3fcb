package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/tripdesk/tripdesk/internal/application/service"
	"github.com/tripdesk/tripdesk/internal/domain/money"
)

// ExcelExporter renders analytics rollups as xlsx workbooks for the
// finance team's offline tooling.
type ExcelExporter struct {
	sheetName   string
	companyName string
	logger      *zap.Logger
}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter(sheetName, companyName string, logger *zap.Logger) *ExcelExporter {
	if sheetName == "" {
		sheetName = "Report"
	}
	return &ExcelExporter{
		sheetName:   sheetName,
		companyName: companyName,
		logger:      logger,
	}
}

// SpendWorkbook renders a spend rollup. The caller owns the returned
// file and must Close it.
func (e *ExcelExporter) SpendWorkbook(a *service.SpendAnalytics) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet, err := e.prepareSheet(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	e.writeHeader(f, sheet, "Trip Spend", a.Range.From, a.Range.To, a.GroupBy)

	e.setCell(f, sheet, "A6", titleFor(a.GroupBy))
	e.setCell(f, sheet, "B6", "Trips")
	e.setCell(f, sheet, "C6", "Total")
	e.setCell(f, sheet, "D6", "Mean per trip")

	row := 7
	for _, group := range a.Groups {
		e.setCell(f, sheet, cell("A", row), group.Key)
		e.setCell(f, sheet, cell("B", row), group.TripCount)
		e.setCell(f, sheet, cell("C", row), money.Format(group.TotalCents))
		e.setCell(f, sheet, cell("D", row), money.Format(group.MeanTripCents))
		row++
	}

	row++
	e.setCell(f, sheet, cell("A", row), "All trips")
	e.setCell(f, sheet, cell("B", row), a.TripCount)
	e.setCell(f, sheet, cell("C", row), money.Format(a.TotalCents))

	e.logger.Info("Spend workbook rendered",
		zap.String("group_by", a.GroupBy),
		zap.Int("groups", len(a.Groups)))
	return f, nil
}

// ViolationWorkbook renders a violation rollup. The caller owns the
// returned file and must Close it.
func (e *ExcelExporter) ViolationWorkbook(a *service.ViolationAnalytics) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet, err := e.prepareSheet(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	e.writeHeader(f, sheet, "Policy Violations", a.Range.From, a.Range.To, a.GroupBy)

	e.setCell(f, sheet, "A6", titleFor(a.GroupBy))
	e.setCell(f, sheet, "B6", "Count")
	e.setCell(f, sheet, "C6", "Blockers")
	e.setCell(f, sheet, "D6", "Warnings")
	e.setCell(f, sheet, "E6", "Computed sum")

	row := 7
	for _, group := range a.Groups {
		e.setCell(f, sheet, cell("A", row), group.Key)
		e.setCell(f, sheet, cell("B", row), group.Count)
		e.setCell(f, sheet, cell("C", row), group.Blockers)
		e.setCell(f, sheet, cell("D", row), group.Warnings)
		e.setCell(f, sheet, cell("E", row), money.Format(group.ComputedSumCents))
		row++
	}

	row++
	e.setCell(f, sheet, cell("A", row), "All violations")
	e.setCell(f, sheet, cell("B", row), a.Total)
	e.setCell(f, sheet, cell("C", row), a.Blockers)
	e.setCell(f, sheet, cell("D", row), a.Warnings)

	e.logger.Info("Violation workbook rendered",
		zap.String("group_by", a.GroupBy),
		zap.Int("groups", len(a.Groups)))
	return f, nil
}

// prepareSheet renames the default sheet so downstream tooling can rely
// on a stable sheet name.
func (e *ExcelExporter) prepareSheet(f *excelize.File) (string, error) {
	def := f.GetSheetName(0)
	if def != e.sheetName {
		if err := f.SetSheetName(def, e.sheetName); err != nil {
			return "", fmt.Errorf("failed to rename sheet: %w", err)
		}
	}
	return e.sheetName, nil
}

func (e *ExcelExporter) writeHeader(f *excelize.File, sheet, title, from, to, groupBy string) {
	if e.companyName != "" {
		e.setCell(f, sheet, "A1", e.companyName)
	}
	e.setCell(f, sheet, "A2", title)
	e.setCell(f, sheet, "A3", "Period")
	e.setCell(f, sheet, "B3", from+" to "+to)
	e.setCell(f, sheet, "A4", "Grouped by")
	e.setCell(f, sheet, "B4", groupBy)
}

// setCell sets a cell value in the Excel file
func (e *ExcelExporter) setCell(f *excelize.File, sheet, cellRef string, value interface{}) {
	if err := f.SetCellValue(sheet, cellRef, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cellRef),
			zap.Error(err))
	}
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func titleFor(groupBy string) string {
	switch groupBy {
	case service.GroupByCode:
		return "Violation code"
	case service.GroupByEmployee:
		return "Employee"
	default:
		return "Department"
	}
}
