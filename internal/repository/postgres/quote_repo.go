package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	quoteColumns = `id, workspace_id, order_number, name, contract_type, contingency_percentage, status, total_amount, created_at, updated_at`

	sectionColumns = `id, quote_id, title, position, created_at, updated_at`

	lineColumns = `id, section_id, description, position, kind, profile_id, assignee_id, daily_rate, days,
		direct_amount, attached_purchase_amount, vat_rate, created_at, updated_at`

	milestoneColumns = `id, quote_id, label, billing_date, amount_type, percent, fixed_amount, created_at, updated_at`
)

// QuoteRepository implements domain.QuoteRepository using PostgreSQL.
// Sections, lines and milestones are owned by their quote and removed with it (ON DELETE CASCADE).
type QuoteRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(pool *pgxpool.Pool) *QuoteRepository {
	return &QuoteRepository{pool: pool, now: time.Now}
}

// Create inserts a quote header. The order number increment is allocated from the
// per-workspace monthly sequence in the same transaction.
func (r *QuoteRepository) Create(quote *domain.Quote) (*domain.Quote, error) {
	ctx := context.Background()

	contingency, err := optionalDecimalToPgNumeric(quote.ContingencyPercentage)
	if err != nil {
		return nil, err
	}
	total, err := decimalToPgNumeric(quote.TotalAmount)
	if err != nil {
		return nil, err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := r.now().UTC()
	var increment int32
	err = tx.QueryRow(ctx,
		`INSERT INTO order_number_sequences (workspace_id, year, month, last_value)
		 VALUES ($1, $2, $3, 1)
		 ON CONFLICT (workspace_id, year, month)
		 DO UPDATE SET last_value = order_number_sequences.last_value + 1
		 RETURNING last_value`,
		quote.WorkspaceID, now.Year(), int(now.Month()),
	).Scan(&increment)
	if err != nil {
		return nil, fmt.Errorf("allocate order number: %w", err)
	}
	orderNumber := domain.FormatOrderNumber(now.Year(), int(now.Month()), increment)

	row := tx.QueryRow(ctx,
		`INSERT INTO quotes (workspace_id, order_number, name, contract_type, contingency_percentage, status, total_amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+quoteColumns,
		quote.WorkspaceID, orderNumber, quote.Name, string(quote.ContractType), contingency, string(quote.Status), total)
	created, err := scanQuote(row)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// Begin opens the transaction the ...Tx methods run in
func (r *QuoteRepository) Begin(ctx context.Context) (domain.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// GetByID loads the full quote tree: header, sections, lines and milestones.
// The four queries are sent as one batch.
func (r *QuoteRepository) GetByID(workspaceID int32, id int32) (*domain.Quote, error) {
	return r.getByID(context.Background(), r.pool, workspaceID, id)
}

// GetByIDTx loads the full quote tree within a transaction, seeing its uncommitted writes
func (r *QuoteRepository) GetByIDTx(tx interface{}, workspaceID int32, id int32) (*domain.Quote, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	return r.getByID(context.Background(), pgxTx, workspaceID, id)
}

func (r *QuoteRepository) getByID(ctx context.Context, q querier, workspaceID int32, id int32) (*domain.Quote, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT `+quoteColumns+` FROM quotes WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	batch.Queue(`SELECT s.id, s.quote_id, s.title, s.position, s.created_at, s.updated_at
		FROM budget_sections s
		JOIN quotes q ON q.id = s.quote_id
		WHERE q.workspace_id = $1 AND s.quote_id = $2
		ORDER BY s.position, s.id`, workspaceID, id)
	batch.Queue(`SELECT l.id, l.section_id, l.description, l.position, l.kind, l.profile_id, l.assignee_id,
			l.daily_rate, l.days, l.direct_amount, l.attached_purchase_amount, l.vat_rate, l.created_at, l.updated_at
		FROM budget_lines l
		JOIN budget_sections s ON s.id = l.section_id
		JOIN quotes q ON q.id = s.quote_id
		WHERE q.workspace_id = $1 AND s.quote_id = $2
		ORDER BY l.position, l.id`, workspaceID, id)
	batch.Queue(`SELECT m.id, m.quote_id, m.label, m.billing_date, m.amount_type, m.percent, m.fixed_amount, m.created_at, m.updated_at
		FROM payment_milestones m
		JOIN quotes q ON q.id = m.quote_id
		WHERE q.workspace_id = $1 AND m.quote_id = $2
		ORDER BY m.billing_date, m.id`, workspaceID, id)

	br := q.SendBatch(ctx, batch)
	defer br.Close()

	quote, err := scanQuote(br.QueryRow())
	if err != nil {
		return nil, err
	}

	sections, err := collectSections(br)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	bySection := make(map[int32]*domain.BudgetSection, len(sections))
	for _, s := range sections {
		bySection[s.ID] = s
	}
	quote.Sections = sections

	lines, err := collectLines(br)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	for _, line := range lines {
		if section, ok := bySection[line.SectionID]; ok {
			section.Lines = append(section.Lines, line)
		}
	}

	milestones, err := collectMilestones(br)
	if err != nil {
		return nil, fmt.Errorf("load milestones: %w", err)
	}
	quote.Milestones = milestones

	return quote, nil
}

// GetAllByWorkspace returns quote headers without their children, newest first
func (r *QuoteRepository) GetAllByWorkspace(workspaceID int32, status *domain.QuoteStatus) ([]*domain.Quote, error) {
	var statusArg pgtype.Text
	if status != nil {
		statusArg = pgtype.Text{String: string(*status), Valid: true}
	}

	rows, err := r.pool.Query(context.Background(),
		`SELECT `+quoteColumns+` FROM quotes
		 WHERE workspace_id = $1 AND ($2::text IS NULL OR status = $2)
		 ORDER BY created_at DESC, id DESC`,
		workspaceID, statusArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []*domain.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}

// UpdateTx stores the editable header fields of a quote within a transaction
func (r *QuoteRepository) UpdateTx(tx interface{}, quote *domain.Quote) (*domain.Quote, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	contingency, err := optionalDecimalToPgNumeric(quote.ContingencyPercentage)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(context.Background(),
		`UPDATE quotes SET name = $3, contract_type = $4, contingency_percentage = $5, updated_at = NOW()
		 WHERE workspace_id = $1 AND id = $2
		 RETURNING `+quoteColumns,
		quote.WorkspaceID, quote.ID, quote.Name, string(quote.ContractType), contingency)
	return scanQuote(row)
}

// UpdateTotalAmount stores the cached total of a quote
func (r *QuoteRepository) UpdateTotalAmount(workspaceID int32, id int32, total decimal.Decimal) error {
	return r.updateTotalAmount(context.Background(), r.pool, workspaceID, id, total)
}

// UpdateTotalAmountTx stores the cached total within the transaction that changed the quote
func (r *QuoteRepository) UpdateTotalAmountTx(tx interface{}, workspaceID int32, id int32, total decimal.Decimal) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}
	return r.updateTotalAmount(context.Background(), pgxTx, workspaceID, id, total)
}

func (r *QuoteRepository) updateTotalAmount(ctx context.Context, q querier, workspaceID int32, id int32, total decimal.Decimal) error {
	num, err := decimalToPgNumeric(total)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE quotes SET total_amount = $3, updated_at = NOW() WHERE workspace_id = $1 AND id = $2`,
		workspaceID, id, num)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuoteNotFound
	}
	return nil
}

// UpdateStatus stores a new status. Transition rules are enforced by the caller.
func (r *QuoteRepository) UpdateStatus(workspaceID int32, id int32, status domain.QuoteStatus) (*domain.Quote, error) {
	row := r.pool.QueryRow(context.Background(),
		`UPDATE quotes SET status = $3, updated_at = NOW()
		 WHERE workspace_id = $1 AND id = $2
		 RETURNING `+quoteColumns,
		workspaceID, id, string(status))
	return scanQuote(row)
}

// Delete removes a quote and, by cascade, its sections, lines and milestones
func (r *QuoteRepository) Delete(workspaceID int32, id int32) error {
	tag, err := r.pool.Exec(context.Background(),
		`DELETE FROM quotes WHERE workspace_id = $1 AND id = $2`, workspaceID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuoteNotFound
	}
	return nil
}

// CreateSectionTx inserts a section within a transaction
func (r *QuoteRepository) CreateSectionTx(tx interface{}, section *domain.BudgetSection) (*domain.BudgetSection, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	var created domain.BudgetSection
	err = pgxTx.QueryRow(context.Background(),
		`INSERT INTO budget_sections (quote_id, title, position)
		 VALUES ($1, $2, $3)
		 RETURNING `+sectionColumns,
		section.QuoteID, section.Title, section.Position,
	).Scan(&created.ID, &created.QuoteID, &created.Title, &created.Position, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteSectionTx removes a section and its lines within a transaction
func (r *QuoteRepository) DeleteSectionTx(tx interface{}, quoteID int32, sectionID int32) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(context.Background(),
		`DELETE FROM budget_sections WHERE quote_id = $1 AND id = $2`, quoteID, sectionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSectionNotFound
	}
	return nil
}

// CreateLineTx inserts a budget line within a transaction
func (r *QuoteRepository) CreateLineTx(tx interface{}, line *domain.BudgetLine) (*domain.BudgetLine, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	nums, err := lineNumerics(line)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(context.Background(),
		`INSERT INTO budget_lines (section_id, description, position, kind, profile_id, assignee_id,
			daily_rate, days, direct_amount, attached_purchase_amount, vat_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+lineColumns,
		line.SectionID, line.Description, line.Position, string(line.Kind), line.ProfileID, line.AssigneeID,
		nums[0], nums[1], nums[2], nums[3], nums[4])
	return scanLine(row)
}

// UpdateLineTx replaces the editable fields of a budget line within a transaction
func (r *QuoteRepository) UpdateLineTx(tx interface{}, line *domain.BudgetLine) (*domain.BudgetLine, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	nums, err := lineNumerics(line)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(context.Background(),
		`UPDATE budget_lines
		 SET description = $2, position = $3, kind = $4, profile_id = $5, assignee_id = $6,
			daily_rate = $7, days = $8, direct_amount = $9, attached_purchase_amount = $10, vat_rate = $11,
			updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+lineColumns,
		line.ID, line.Description, line.Position, string(line.Kind), line.ProfileID, line.AssigneeID,
		nums[0], nums[1], nums[2], nums[3], nums[4])
	return scanLine(row)
}

// DeleteLineTx removes a line belonging to one of the quote's sections within a transaction
func (r *QuoteRepository) DeleteLineTx(tx interface{}, quoteID int32, lineID int32) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(context.Background(),
		`DELETE FROM budget_lines l
		 USING budget_sections s
		 WHERE l.section_id = s.id AND s.quote_id = $1 AND l.id = $2`,
		quoteID, lineID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}
	return nil
}

// CreateMilestoneTx inserts a payment milestone within a transaction
func (r *QuoteRepository) CreateMilestoneTx(tx interface{}, milestone *domain.PaymentMilestone) (*domain.PaymentMilestone, error) {
	pgxTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}
	nums, err := numericArgs(milestone.Percent, milestone.FixedAmount)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(context.Background(),
		`INSERT INTO payment_milestones (quote_id, label, billing_date, amount_type, percent, fixed_amount)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+milestoneColumns,
		milestone.QuoteID, milestone.Label, pgtype.Date{Time: milestone.BillingDate, Valid: true},
		string(milestone.AmountType), nums[0], nums[1])
	return scanMilestone(row)
}

// DeleteMilestoneTx removes a payment milestone within a transaction
func (r *QuoteRepository) DeleteMilestoneTx(tx interface{}, quoteID int32, milestoneID int32) error {
	pgxTx, err := asTx(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(context.Background(),
		`DELETE FROM payment_milestones WHERE quote_id = $1 AND id = $2`, quoteID, milestoneID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMilestoneNotFound
	}
	return nil
}

// Helper functions

func lineNumerics(line *domain.BudgetLine) ([]pgtype.Numeric, error) {
	return numericArgs(line.DailyRate, line.Days, line.DirectAmount, line.AttachedPurchaseAmount, line.VATRate)
}

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var q domain.Quote
	var contractType, status string
	var contingency, total pgtype.Numeric
	err := row.Scan(&q.ID, &q.WorkspaceID, &q.OrderNumber, &q.Name, &contractType, &contingency,
		&status, &total, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuoteNotFound
		}
		return nil, err
	}
	q.ContractType = domain.ContractType(contractType)
	q.Status = domain.QuoteStatus(status)
	q.ContingencyPercentage = pgNumericToOptionalDecimal(contingency)
	q.TotalAmount = pgNumericToDecimal(total)
	return &q, nil
}

func collectSections(br pgx.BatchResults) ([]*domain.BudgetSection, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []*domain.BudgetSection
	for rows.Next() {
		var s domain.BudgetSection
		if err := rows.Scan(&s.ID, &s.QuoteID, &s.Title, &s.Position, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sections = append(sections, &s)
	}
	return sections, rows.Err()
}

func collectLines(br pgx.BatchResults) ([]*domain.BudgetLine, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*domain.BudgetLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanLine(row pgx.Row) (*domain.BudgetLine, error) {
	var l domain.BudgetLine
	var kind string
	var dailyRate, days, directAmount, attachedPurchase, vatRate pgtype.Numeric
	err := row.Scan(&l.ID, &l.SectionID, &l.Description, &l.Position, &kind, &l.ProfileID, &l.AssigneeID,
		&dailyRate, &days, &directAmount, &attachedPurchase, &vatRate, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLineNotFound
		}
		return nil, err
	}
	l.Kind = domain.LineKind(kind)
	l.DailyRate = pgNumericToOptionalDecimal(dailyRate)
	l.Days = pgNumericToOptionalDecimal(days)
	l.DirectAmount = pgNumericToOptionalDecimal(directAmount)
	l.AttachedPurchaseAmount = pgNumericToOptionalDecimal(attachedPurchase)
	l.VATRate = pgNumericToOptionalDecimal(vatRate)
	return &l, nil
}

func collectMilestones(br pgx.BatchResults) ([]*domain.PaymentMilestone, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []*domain.PaymentMilestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func scanMilestone(row pgx.Row) (*domain.PaymentMilestone, error) {
	var m domain.PaymentMilestone
	var amountType string
	var billingDate pgtype.Date
	var percent, fixedAmount pgtype.Numeric
	err := row.Scan(&m.ID, &m.QuoteID, &m.Label, &billingDate, &amountType, &percent, &fixedAmount,
		&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMilestoneNotFound
		}
		return nil, err
	}
	m.BillingDate = billingDate.Time
	m.AmountType = domain.AmountType(amountType)
	m.Percent = pgNumericToOptionalDecimal(percent)
	m.FixedAmount = pgNumericToOptionalDecimal(fixedAmount)
	return &m, nil
}
