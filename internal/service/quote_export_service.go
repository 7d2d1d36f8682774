package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/repository/storage"
	"github.com/dafibh/atelier/atelier-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	breakdownSheet  = "Breakdown"
	scheduleSheet   = "Schedule"
)

var ErrExportStorageNotConfigured = errors.New("export storage not configured")

// ExportResult locates an uploaded quote workbook
type ExportResult struct {
	ObjectPath string    `json:"objectPath"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// QuoteExportService renders quote breakdowns as XLSX workbooks and stores them
type QuoteExportService struct {
	calculation    *QuoteCalculationService
	storage        storage.ExportRepository
	urlTTL         time.Duration
	eventPublisher websocket.EventPublisher
}

// NewQuoteExportService creates a new QuoteExportService. storage may be nil,
// in which case workbooks can still be built but not exported.
func NewQuoteExportService(calculation *QuoteCalculationService, storage storage.ExportRepository, urlTTL time.Duration) *QuoteExportService {
	return &QuoteExportService{
		calculation: calculation,
		storage:     storage,
		urlTTL:      urlTTL,
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *QuoteExportService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// IsEnabled indicates whether exports can be uploaded
func (s *QuoteExportService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// Export builds the workbook of a quote, uploads it and returns a presigned URL
func (s *QuoteExportService) Export(ctx context.Context, workspaceID int32, quoteID int32) (*ExportResult, error) {
	if !s.IsEnabled() {
		return nil, ErrExportStorageNotConfigured
	}

	breakdown, err := s.calculation.GetBreakdown(workspaceID, quoteID)
	if err != nil {
		return nil, err
	}

	data, err := BuildWorkbook(breakdown)
	if err != nil {
		return nil, err
	}

	objectPath := storage.ExportObjectPath(workspaceID, breakdown.Quote.OrderNumber, ".xlsx")
	if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(data), xlsxContentType, int64(len(data))); err != nil {
		return nil, err
	}

	url, err := s.storage.GeneratePresignedURL(ctx, objectPath, s.urlTTL)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		ObjectPath: objectPath,
		URL:        url,
		ExpiresAt:  time.Now().Add(s.urlTTL).UTC(),
	}

	log.Info().
		Int32("workspace_id", workspaceID).
		Int32("quote_id", quoteID).
		Str("object_path", objectPath).
		Int("bytes", len(data)).
		Msg("Quote exported")

	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, websocket.QuoteExported(quoteID, map[string]interface{}{
			"quoteId":    quoteID,
			"objectPath": objectPath,
		}))
	}
	return result, nil
}

// BuildWorkbook renders the breakdown sheet (sections, lines, totals) and the
// payment schedule sheet. Money cells hold strings formatted to the cent so the
// workbook shows exactly the amounts the quote computes.
func BuildWorkbook(b *QuoteBreakdown) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), breakdownSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	if _, err := f.NewSheet(scheduleSheet); err != nil {
		return nil, fmt.Errorf("create schedule sheet: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create bold style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	widths := map[string]float64{"A": 42, "B": 14, "C": 12, "D": 12, "E": 16, "F": 16, "G": 16, "H": 12}
	for col, w := range widths {
		if err := f.SetColWidth(breakdownSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	q := b.Quote
	setRow(f, breakdownSheet, 1, sanitizeCell(q.Name))
	f.SetCellStyle(breakdownSheet, "A1", "A1", titleStyle)
	setRow(f, breakdownSheet, 2, "Order number", q.OrderNumber)
	setRow(f, breakdownSheet, 3, "Contract type", string(q.ContractType))
	setRow(f, breakdownSheet, 4, "Status", string(q.Status))

	row := 6
	setRow(f, breakdownSheet, row, "Description", "Kind", "Days", "Daily rate", "Service", "Purchase", "Total", "Margin %")
	f.SetCellStyle(breakdownSheet, cell("A", row), cell("H", row), boldStyle)
	row++

	for _, section := range b.Sections {
		setRow(f, breakdownSheet, row, sanitizeCell(section.Section.Title), "", domain.FormatMoney(section.TotalSoldDays),
			"", "", "", domain.FormatMoney(section.TotalAmount))
		f.SetCellStyle(breakdownSheet, cell("A", row), cell("H", row), boldStyle)
		row++

		for _, lf := range section.Lines {
			line := lf.Line
			setRow(f, breakdownSheet, row,
				"  "+sanitizeCell(line.Description),
				string(line.Kind),
				optionalMoney(line.Days),
				optionalMoney(line.DailyRate),
				domain.FormatMoney(lf.ServiceOnlyAmount),
				domain.FormatMoney(lf.PurchaseAmount),
				domain.FormatMoney(lf.TotalAmount),
				domain.FormatMoney(lf.MarginRate),
			)
			row++
		}
	}

	row++
	t := b.Totals
	summary := []struct {
		label string
		value decimal.Decimal
	}{
		{"Sections total", t.SectionsTotal},
		{"Service subtotal", t.ServiceSubtotal},
		{"Purchase subtotal", t.PurchaseSubtotal},
		{"Contingency", t.ContingencyAmount},
		{"Final amount", t.FinalAmount},
		{"VAT", b.VATTotal},
		{"Estimated cost", b.Profitability.EstimatedCost},
		{"Gross margin", b.Profitability.GrossMargin},
		{"Margin rate %", b.Profitability.MarginRate},
	}
	for _, item := range summary {
		setRow(f, breakdownSheet, row, "", "", "", "", "", item.label, domain.FormatMoney(item.value))
		f.SetCellStyle(breakdownSheet, cell("F", row), cell("F", row), boldStyle)
		row++
	}

	setRow(f, scheduleSheet, 1, "Billing date", "Label", "Type", "Percent", "Amount", "Rounding")
	f.SetCellStyle(scheduleSheet, "A1", "F1", boldStyle)
	row = 2
	for _, sm := range b.Schedule {
		m := sm.Milestone
		label := ""
		if m.Label != nil {
			label = sanitizeCell(*m.Label)
		}
		setRow(f, scheduleSheet, row,
			m.BillingDate.Format("2006-01-02"),
			label,
			string(m.AmountType),
			optionalMoney(m.Percent),
			domain.FormatMoney(sm.Amount),
			domain.FormatMoney(sm.Residue),
		)
		row++
	}
	row++
	setRow(f, scheduleSheet, row, "", "", "", "Scheduled", domain.FormatMoney(t.ScheduledTotal))
	row++
	covered := "no"
	if t.ScheduleCovered {
		covered = "yes"
	}
	setRow(f, scheduleSheet, row, "", "", "", "Covered", covered)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// setRow writes values into consecutive columns starting at A
func setRow(f *excelize.File, sheet string, row int, values ...string) {
	for i, v := range values {
		name, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			continue
		}
		f.SetCellValue(sheet, name, v)
	}
}

func optionalMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return domain.FormatMoney(*d)
}

// sanitizeCell prefixes values Excel would evaluate as formulas
func sanitizeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
