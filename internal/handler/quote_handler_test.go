package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/service"
	"github.com/dafibh/atelier/atelier-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quoteFixture struct {
	e        *echo.Echo
	handler  *QuoteHandler
	quotes   *testutil.MockQuoteRepository
	profiles *testutil.MockRateProfileRepository
	storage  *testutil.MockExportRepository
	events   *testutil.MockEventPublisher
}

// newQuoteFixture wires real services over in-memory repositories.
// Workspace 1 owns a developer profile (600/day sold, 400/day cost) with ID 1.
func newQuoteFixture(t *testing.T, withStorage bool) *quoteFixture {
	t.Helper()

	f := &quoteFixture{
		e:        echo.New(),
		quotes:   testutil.NewMockQuoteRepository(),
		profiles: testutil.NewMockRateProfileRepository(),
		storage:  testutil.NewMockExportRepository(),
		events:   testutil.NewMockEventPublisher(),
	}
	f.quotes.Now = func() time.Time { return time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC) }
	f.profiles.ReferencedBy = f.quotes

	rate := decimal.NewFromInt(600)
	cost := decimal.NewFromInt(400)
	f.profiles.AddProfile(&domain.RateProfile{
		ID:                1,
		WorkspaceID:       1,
		Name:              "Developer",
		DefaultDailyRate:  &rate,
		CostPerDay:        &cost,
		MarginCoefficient: decimal.NewFromInt(1),
	})

	calculation := service.NewQuoteCalculationService(f.quotes, f.profiles)
	quoteService := service.NewQuoteService(f.quotes, f.profiles, calculation)
	workflow := service.NewQuoteWorkflowService(f.quotes, calculation)
	tasks := service.NewTaskDerivationService(testutil.NewMockTaskRepository(), calculation)

	var exportService *service.QuoteExportService
	if withStorage {
		exportService = service.NewQuoteExportService(calculation, f.storage, 15*time.Minute)
	} else {
		exportService = service.NewQuoteExportService(calculation, nil, 15*time.Minute)
	}

	quoteService.SetEventPublisher(f.events)
	workflow.SetEventPublisher(f.events)
	tasks.SetEventPublisher(f.events)
	exportService.SetEventPublisher(f.events)

	f.handler = NewQuoteHandler(quoteService, calculation, workflow, tasks, exportService)
	return f
}

func (f *quoteFixture) call(t *testing.T, h echo.HandlerFunc, method, body string, params ...string) (int, []byte) {
	t.Helper()
	c, rec := newJSONContext(f.e, method, "/api/v1/quotes", body, 1, params...)
	require.NoError(t, h(c))
	return rec.Code, rec.Body.Bytes()
}

// createQuote creates a fixed price quote and returns it decoded
func (f *quoteFixture) createQuote(t *testing.T) QuoteResponse {
	t.Helper()
	code, body := f.call(t, f.handler.CreateQuote, http.MethodPost,
		`{"name": "Brand website", "contractType": "fixed_price"}`)
	require.Equal(t, http.StatusCreated, code, string(body))

	var quote QuoteResponse
	require.NoError(t, json.Unmarshal(body, &quote))
	return quote
}

// buildBudget adds a section with a 9 day developer line and a 180.00 purchase: 5580.00 in total
func (f *quoteFixture) buildBudget(t *testing.T, quoteID int32) QuoteResponse {
	t.Helper()
	id := fmt.Sprint(quoteID)

	code, body := f.call(t, f.handler.AddSection, http.MethodPost, `{"title": "Build"}`, "id", id)
	require.Equal(t, http.StatusCreated, code, string(body))
	var quote QuoteResponse
	require.NoError(t, json.Unmarshal(body, &quote))
	sectionID := fmt.Sprint(quote.Sections[0].ID)

	code, body = f.call(t, f.handler.AddLine, http.MethodPost,
		`{"description": "Front-end integration", "kind": "service", "profileId": 1, "days": "9"}`,
		"id", id, "sectionId", sectionID)
	require.Equal(t, http.StatusCreated, code, string(body))

	code, body = f.call(t, f.handler.AddLine, http.MethodPost,
		`{"description": "Font license", "kind": "purchase", "directAmount": "180"}`,
		"id", id, "sectionId", sectionID)
	require.Equal(t, http.StatusCreated, code, string(body))

	require.NoError(t, json.Unmarshal(body, &quote))
	return quote
}

func (f *quoteFixture) addPercentMilestone(t *testing.T, quoteID int32, percent string) QuoteResponse {
	t.Helper()
	code, body := f.call(t, f.handler.AddMilestone, http.MethodPost,
		fmt.Sprintf(`{"billingDate": "2026-04-01", "amountType": "percent", "percent": %q}`, percent),
		"id", fmt.Sprint(quoteID))
	require.Equal(t, http.StatusCreated, code, string(body))

	var quote QuoteResponse
	require.NoError(t, json.Unmarshal(body, &quote))
	return quote
}

func decodeProblem(t *testing.T, body []byte) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	require.NoError(t, json.Unmarshal(body, &problem))
	return problem
}

func TestCreateQuote_Success(t *testing.T) {
	f := newQuoteFixture(t, false)

	quote := f.createQuote(t)

	assert.Equal(t, "Brand website", quote.Name)
	assert.Equal(t, "fixed_price", quote.ContractType)
	assert.Equal(t, "to_sign", quote.Status)
	assert.Equal(t, "D202603001", quote.OrderNumber)
	assert.Equal(t, "0.00", quote.TotalAmount)
	assert.Empty(t, quote.Sections)
	assert.Equal(t, []string{"quote.created"}, f.events.Types())
}

func TestCreateQuote_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing name", `{"contractType": "fixed_price"}`, "name"},
		{"unknown contract type", `{"name": "Audit", "contractType": "retainer"}`, "contractType"},
		{"contingency not a number", `{"name": "Audit", "contractType": "fixed_price", "contingencyPercentage": "ten"}`, "contingencyPercentage"},
		{"contingency over 100", `{"name": "Audit", "contractType": "fixed_price", "contingencyPercentage": "120"}`, "contingencyPercentage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t, false)

			code, body := f.call(t, f.handler.CreateQuote, http.MethodPost, tt.body)

			assert.Equal(t, http.StatusBadRequest, code)
			problem := decodeProblem(t, body)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.wantField, problem.Errors[0].Field)
		})
	}
}

func TestCreateQuote_InvalidBody(t *testing.T) {
	f := newQuoteFixture(t, false)

	code, body := f.call(t, f.handler.CreateQuote, http.MethodPost, `{"name": `)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid request body", decodeProblem(t, body).Detail)
}

func TestQuoteHandler_RequiresWorkspace(t *testing.T) {
	f := newQuoteFixture(t, false)
	c, rec := newJSONContext(f.e, http.MethodGet, "/api/v1/quotes", "", 0)

	require.NoError(t, f.handler.ListQuotes(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetQuote_NotFoundAndInvalidID(t *testing.T) {
	f := newQuoteFixture(t, false)

	code, _ := f.call(t, f.handler.GetQuote, http.MethodGet, "", "id", "42")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.call(t, f.handler.GetQuote, http.MethodGet, "", "id", "abc")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetQuote_OtherWorkspaceIsHidden(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.createQuote(t)

	c, rec := newJSONContext(f.e, http.MethodGet, "/api/v1/quotes", "", 2, "id", fmt.Sprint(quote.ID))
	require.NoError(t, f.handler.GetQuote(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBuildBudget_TotalsFollowLines(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)

	require.Len(t, quote.Sections, 1)
	section := quote.Sections[0]
	require.Len(t, section.Lines, 2)

	line := section.Lines[0]
	assert.Equal(t, "service", line.Kind)
	require.NotNil(t, line.DailyRate)
	assert.Equal(t, "600.00", *line.DailyRate, "daily rate defaults to the profile rate")
	assert.Equal(t, "5400.00", line.TotalAmount)

	assert.Equal(t, "5580.00", section.TotalAmount)
	assert.Equal(t, "5580.00", quote.TotalAmount)
	assert.Equal(t, "5580.00", quote.FinalAmount)
	assert.Equal(t, "5580.00", f.quotes.StoredTotal(quote.ID).StringFixed(2))
}

func TestAddLine_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantField string
	}{
		{"unknown kind", `{"description": "x", "kind": "gift"}`, http.StatusBadRequest, "kind"},
		{"purchase without amount", `{"description": "x", "kind": "purchase"}`, http.StatusBadRequest, "directAmount"},
		{"service with direct amount", `{"description": "x", "kind": "service", "directAmount": "10"}`, http.StatusBadRequest, "directAmount"},
		{"days not a number", `{"description": "x", "kind": "service", "days": "two"}`, http.StatusBadRequest, "days"},
		{"vat over 100", `{"description": "x", "kind": "fixed_amount", "directAmount": "10", "vatRate": "150"}`, http.StatusBadRequest, "vatRate"},
		{"unknown profile", `{"description": "x", "kind": "service", "profileId": 99, "days": "1"}`, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t, false)
			quote := f.createQuote(t)
			id := fmt.Sprint(quote.ID)

			_, body := f.call(t, f.handler.AddSection, http.MethodPost, `{"title": "Build"}`, "id", id)
			var withSection QuoteResponse
			require.NoError(t, json.Unmarshal(body, &withSection))

			code, body := f.call(t, f.handler.AddLine, http.MethodPost, tt.body,
				"id", id, "sectionId", fmt.Sprint(withSection.Sections[0].ID))

			assert.Equal(t, tt.wantCode, code, string(body))
			if tt.wantField != "" {
				problem := decodeProblem(t, body)
				require.Len(t, problem.Errors, 1)
				assert.Equal(t, tt.wantField, problem.Errors[0].Field)
			}
		})
	}
}

func TestUpdateAndDeleteLine_RecomputeTotal(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)
	id := fmt.Sprint(quote.ID)
	lines := quote.Sections[0].Lines

	code, body := f.call(t, f.handler.UpdateLine, http.MethodPut,
		`{"description": "Front-end integration", "kind": "service", "profileId": 1, "dailyRate": "650", "days": "10"}`,
		"id", id, "lineId", fmt.Sprint(lines[0].ID))
	require.Equal(t, http.StatusOK, code, string(body))

	var updated QuoteResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "6680.00", updated.TotalAmount)

	code, body = f.call(t, f.handler.DeleteLine, http.MethodDelete, "", "id", id, "lineId", fmt.Sprint(lines[1].ID))
	require.Equal(t, http.StatusOK, code, string(body))
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "6500.00", updated.TotalAmount)

	code, _ = f.call(t, f.handler.DeleteLine, http.MethodDelete, "", "id", id, "lineId", "999")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestDeleteSection_DropsItsLines(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)

	code, body := f.call(t, f.handler.DeleteSection, http.MethodDelete, "",
		"id", fmt.Sprint(quote.ID), "sectionId", fmt.Sprint(quote.Sections[0].ID))
	require.Equal(t, http.StatusOK, code, string(body))

	var updated QuoteResponse
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Empty(t, updated.Sections)
	assert.Equal(t, "0.00", updated.TotalAmount)
}

func TestAddMilestone_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"bad date", `{"billingDate": "01/04/2026", "amountType": "percent", "percent": "30"}`, "billingDate"},
		{"missing date", `{"amountType": "percent", "percent": "30"}`, "billingDate"},
		{"unknown amount type", `{"billingDate": "2026-04-01", "amountType": "share"}`, "amountType"},
		{"percent over 100", `{"billingDate": "2026-04-01", "amountType": "percent", "percent": "130"}`, "percent"},
		{"fixed without amount", `{"billingDate": "2026-04-01", "amountType": "fixed"}`, "fixedAmount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t, false)
			quote := f.createQuote(t)

			code, body := f.call(t, f.handler.AddMilestone, http.MethodPost, tt.body, "id", fmt.Sprint(quote.ID))

			assert.Equal(t, http.StatusBadRequest, code, string(body))
			problem := decodeProblem(t, body)
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.wantField, problem.Errors[0].Field)
		})
	}
}

func TestGetCoverage(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)
	id := fmt.Sprint(quote.ID)

	f.addPercentMilestone(t, quote.ID, "30")

	code, body := f.call(t, f.handler.GetCoverage, http.MethodGet, "", "id", id)
	require.Equal(t, http.StatusOK, code, string(body))

	var coverage CoverageResponse
	require.NoError(t, json.Unmarshal(body, &coverage))
	assert.False(t, coverage.Covered)
	assert.Equal(t, "5580.00", coverage.FinalAmount)
	assert.Equal(t, "1674.00", coverage.ScheduledTotal)
	require.Len(t, coverage.Milestones, 1)
	assert.Equal(t, "1674.00", coverage.Milestones[0].Amount)

	f.addPercentMilestone(t, quote.ID, "70")

	_, body = f.call(t, f.handler.GetCoverage, http.MethodGet, "", "id", id)
	require.NoError(t, json.Unmarshal(body, &coverage))
	assert.True(t, coverage.Covered)
	assert.Equal(t, "5580.00", coverage.ScheduledTotal)
}

func TestGetTotalsAndBreakdown(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)
	id := fmt.Sprint(quote.ID)

	code, body := f.call(t, f.handler.GetTotals, http.MethodGet, "", "id", id)
	require.Equal(t, http.StatusOK, code, string(body))

	var totals TotalsResponse
	require.NoError(t, json.Unmarshal(body, &totals))
	assert.Equal(t, quote.ID, totals.QuoteID)
	assert.Equal(t, "5580.00", totals.SectionsTotal)
	assert.Equal(t, "5400.00", totals.ServiceSubtotal)
	assert.Equal(t, "180.00", totals.PurchaseSubtotal)
	assert.Equal(t, "5580.00", totals.FinalAmount)
	assert.Equal(t, "5580.00", totals.CachedTotal)

	code, body = f.call(t, f.handler.GetBreakdown, http.MethodGet, "", "id", id)
	require.Equal(t, http.StatusOK, code, string(body))

	var breakdown BreakdownResponse
	require.NoError(t, json.Unmarshal(body, &breakdown))
	assert.False(t, breakdown.TotalStale)
	require.Len(t, breakdown.Sections, 1)
	require.Len(t, breakdown.Sections[0].Lines, 2)
	assert.Equal(t, "3600.00", breakdown.Sections[0].Lines[0].EstimatedCost)
	assert.Equal(t, "1800.00", breakdown.Sections[0].Lines[0].GrossMargin)
}

func TestRecompute_RepairsStaleTotal(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)
	f.quotes.SetCachedTotal(quote.ID, decimal.NewFromInt(12))

	code, body := f.call(t, f.handler.Recompute, http.MethodPost, "", "id", fmt.Sprint(quote.ID))
	require.Equal(t, http.StatusOK, code, string(body))

	var totals TotalsResponse
	require.NoError(t, json.Unmarshal(body, &totals))
	assert.Equal(t, "5580.00", totals.CachedTotal)
	assert.True(t, f.quotes.StoredTotal(quote.ID).Equal(decimal.NewFromInt(5580)))
}

func TestChangeStatus_FixedPriceNeedsCoverage(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)
	id := fmt.Sprint(quote.ID)
	f.addPercentMilestone(t, quote.ID, "30")

	code, body := f.call(t, f.handler.ChangeStatus, http.MethodPatch, `{"status": "signed"}`, "id", id)
	assert.Equal(t, http.StatusConflict, code, string(body))

	f.addPercentMilestone(t, quote.ID, "70")

	code, body = f.call(t, f.handler.ChangeStatus, http.MethodPatch, `{"status": "signed"}`, "id", id)
	require.Equal(t, http.StatusOK, code, string(body))

	var signed QuoteResponse
	require.NoError(t, json.Unmarshal(body, &signed))
	assert.Equal(t, "signed", signed.Status)
	assert.Contains(t, f.events.Types(), "quote.status_changed")
}

func TestChangeStatus_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		from     domain.QuoteStatus
		body     string
		wantCode int
	}{
		{"unknown status", domain.QuoteStatusToSign, `{"status": "archived"}`, http.StatusBadRequest},
		{"terminal status", domain.QuoteStatusLost, `{"status": "to_sign"}`, http.StatusConflict},
		{"skipping to completed", domain.QuoteStatusToSign, `{"status": "completed"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t, false)
			quote := f.createQuote(t)
			f.quotes.SetStatus(quote.ID, tt.from)

			code, body := f.call(t, f.handler.ChangeStatus, http.MethodPatch, tt.body, "id", fmt.Sprint(quote.ID))

			assert.Equal(t, tt.wantCode, code, string(body))
		})
	}
}

func TestUpdateProfile_ReferencedByQuoteIsConflict(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)
	f.quotes.SetStatus(quote.ID, domain.QuoteStatusSigned)
	profiles := NewRateProfileHandler(service.NewRateProfileService(f.profiles))

	c, rec := newJSONContext(f.e, http.MethodPut, "/api/v1/rate-profiles/1",
		`{"name": "Developer", "defaultDailyRate": "600", "costPerDay": "450"}`, 1, "id", "1")
	require.NoError(t, profiles.UpdateProfile(c))
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "Rate profile is referenced by budget lines and cannot be changed", decodeProblem(t, rec.Body.Bytes()).Detail)

	code, body := f.call(t, f.handler.GetBreakdown, http.MethodGet, "", "id", fmt.Sprint(quote.ID))
	require.Equal(t, http.StatusOK, code, string(body))
	var breakdown BreakdownResponse
	require.NoError(t, json.Unmarshal(body, &breakdown))
	assert.Equal(t, "3600.00", breakdown.Profitability.EstimatedCost)
	assert.Equal(t, "1800.00", breakdown.Profitability.GrossMargin)
}

func TestLockedQuote_RejectsEdits(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)
	f.quotes.SetStatus(quote.ID, domain.QuoteStatusSigned)

	code, body := f.call(t, f.handler.AddLine, http.MethodPost,
		`{"description": "Extra", "kind": "fixed_amount", "directAmount": "50"}`,
		"id", fmt.Sprint(quote.ID), "sectionId", fmt.Sprint(quote.Sections[0].ID))

	assert.Equal(t, http.StatusConflict, code)
	assert.True(t, strings.HasPrefix(decodeProblem(t, body).Detail, "Quote"))
}

func TestDeriveTasks(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.buildBudget(t, f.createQuote(t).ID)
	id := fmt.Sprint(quote.ID)

	code, _ := f.call(t, f.handler.DeriveTasks, http.MethodPost, "", "id", id)
	assert.Equal(t, http.StatusConflict, code, "tasks need an accepted quote")

	f.quotes.SetStatus(quote.ID, domain.QuoteStatusWon)

	code, body := f.call(t, f.handler.DeriveTasks, http.MethodPost, "", "id", id)
	require.Equal(t, http.StatusOK, code, string(body))

	var result TaskDerivationResponse
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "72", result.Tasks[0].EstimatedHours)

	// Deriving again refreshes the same task
	_, body = f.call(t, f.handler.DeriveTasks, http.MethodPost, "", "id", id)
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	code, body = f.call(t, f.handler.GetTasks, http.MethodGet, "", "id", id)
	require.Equal(t, http.StatusOK, code)
	var tasks []TaskResponse
	require.NoError(t, json.Unmarshal(body, &tasks))
	assert.Len(t, tasks, 1)
}

func TestExportQuote(t *testing.T) {
	f := newQuoteFixture(t, true)
	quote := f.buildBudget(t, f.createQuote(t).ID)

	code, body := f.call(t, f.handler.ExportQuote, http.MethodPost, "", "id", fmt.Sprint(quote.ID))
	require.Equal(t, http.StatusCreated, code, string(body))

	var result service.ExportResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Contains(t, result.URL, "https://exports.test/")
	assert.Contains(t, result.ObjectPath, "D202603001")
	assert.Len(t, f.storage.Objects, 1)
	assert.Contains(t, f.events.Types(), "quote.exported")
}

func TestExportQuote_StorageNotConfigured(t *testing.T) {
	f := newQuoteFixture(t, false)
	quote := f.createQuote(t)

	code, _ := f.call(t, f.handler.ExportQuote, http.MethodPost, "", "id", fmt.Sprint(quote.ID))

	assert.Equal(t, http.StatusConflict, code)
}

func TestListAndDeleteQuotes(t *testing.T) {
	f := newQuoteFixture(t, false)
	first := f.createQuote(t)
	second := f.createQuote(t)
	f.quotes.SetStatus(second.ID, domain.QuoteStatusStandby)

	c, rec := newJSONContext(f.e, http.MethodGet, "/api/v1/quotes?status=standby", "", 1)
	require.NoError(t, f.handler.ListQuotes(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []QuoteSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "D202603002", list[0].OrderNumber)

	code, _ := f.call(t, f.handler.DeleteQuote, http.MethodDelete, "", "id", fmt.Sprint(first.ID))
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = f.call(t, f.handler.GetQuote, http.MethodGet, "", "id", fmt.Sprint(first.ID))
	assert.Equal(t, http.StatusNotFound, code)
}
