package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/atelier/atelier-backend/internal/domain"
	"github.com/dafibh/atelier/atelier-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// MockWorkspaceRepository is a mock implementation of domain.WorkspaceRepository
type MockWorkspaceRepository struct {
	Workspaces map[int32]*domain.Workspace
	Members    map[string]int32
	GetAllErr  error
}

// NewMockWorkspaceRepository creates a new MockWorkspaceRepository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		Workspaces: make(map[int32]*domain.Workspace),
		Members:    make(map[string]int32),
	}
}

// AddWorkspace registers a workspace and optionally members that belong to it
func (m *MockWorkspaceRepository) AddWorkspace(ws *domain.Workspace, memberAuth0IDs ...string) {
	m.Workspaces[ws.ID] = ws
	for _, id := range memberAuth0IDs {
		m.Members[id] = ws.ID
	}
}

// GetByID retrieves a workspace by ID
func (m *MockWorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	if ws, ok := m.Workspaces[id]; ok {
		return ws, nil
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetByMemberAuth0ID retrieves the workspace of a member
func (m *MockWorkspaceRepository) GetByMemberAuth0ID(auth0ID string) (*domain.Workspace, error) {
	if id, ok := m.Members[auth0ID]; ok {
		return m.GetByID(id)
	}
	return nil, domain.ErrWorkspaceNotFound
}

// GetAllWorkspaces returns every workspace ordered by ID
func (m *MockWorkspaceRepository) GetAllWorkspaces() ([]*domain.Workspace, error) {
	if m.GetAllErr != nil {
		return nil, m.GetAllErr
	}
	result := make([]*domain.Workspace, 0, len(m.Workspaces))
	for _, ws := range m.Workspaces {
		result = append(result, ws)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// MockRateProfileRepository is a mock implementation of domain.RateProfileRepository
type MockRateProfileRepository struct {
	Profiles map[int32]*domain.RateProfile
	// ReferencedBy, when set, answers IsReferenced from its stored lines
	ReferencedBy *MockQuoteRepository
	nextID       int32
}

// NewMockRateProfileRepository creates a new MockRateProfileRepository
func NewMockRateProfileRepository() *MockRateProfileRepository {
	return &MockRateProfileRepository{
		Profiles: make(map[int32]*domain.RateProfile),
		nextID:   1,
	}
}

// AddProfile stores a profile as is, assigning an ID when missing
func (m *MockRateProfileRepository) AddProfile(profile *domain.RateProfile) *domain.RateProfile {
	if profile.ID == 0 {
		profile.ID = m.nextID
	}
	if profile.ID >= m.nextID {
		m.nextID = profile.ID + 1
	}
	m.Profiles[profile.ID] = profile
	return profile
}

// Create creates a new profile
func (m *MockRateProfileRepository) Create(profile *domain.RateProfile) (*domain.RateProfile, error) {
	profile.ID = 0
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	return m.AddProfile(profile), nil
}

// GetByID retrieves a profile within a workspace
func (m *MockRateProfileRepository) GetByID(workspaceID int32, id int32) (*domain.RateProfile, error) {
	if p, ok := m.Profiles[id]; ok && p.WorkspaceID == workspaceID {
		return p, nil
	}
	return nil, domain.ErrRateProfileNotFound
}

// GetByIDs retrieves the profiles of a workspace among ids
func (m *MockRateProfileRepository) GetByIDs(workspaceID int32, ids []int32) (map[int32]*domain.RateProfile, error) {
	result := make(map[int32]*domain.RateProfile)
	for _, id := range ids {
		if p, ok := m.Profiles[id]; ok && p.WorkspaceID == workspaceID {
			result[id] = p
		}
	}
	return result, nil
}

// GetAllByWorkspace returns the profiles of a workspace ordered by name
func (m *MockRateProfileRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.RateProfile, error) {
	var result []*domain.RateProfile
	for _, p := range m.Profiles {
		if p.WorkspaceID == workspaceID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Update replaces a stored profile
func (m *MockRateProfileRepository) Update(profile *domain.RateProfile) (*domain.RateProfile, error) {
	existing, ok := m.Profiles[profile.ID]
	if !ok || existing.WorkspaceID != profile.WorkspaceID {
		return nil, domain.ErrRateProfileNotFound
	}
	profile.CreatedAt = existing.CreatedAt
	profile.UpdatedAt = time.Now()
	m.Profiles[profile.ID] = profile
	return profile, nil
}

// IsReferenced reports whether a line stored in ReferencedBy uses the profile
func (m *MockRateProfileRepository) IsReferenced(workspaceID int32, id int32) (bool, error) {
	if m.ReferencedBy == nil {
		return false, nil
	}
	return m.ReferencedBy.ReferencesProfile(workspaceID, id), nil
}

// MockQuoteRepository is an in-memory domain.QuoteRepository holding whole quote trees.
// GetByID hands out copies so callers never mutate stored state by accident.
type MockQuoteRepository struct {
	Quotes map[int32]*domain.Quote
	// Now drives order number allocation
	Now func() time.Time
	// UpdateTotalErr, when set, is returned by UpdateTotalAmount and UpdateTotalAmountTx
	UpdateTotalErr error
	// BeginErr, when set, is returned by Begin
	BeginErr error

	mu          sync.Mutex
	sequences   map[string]int32
	nextQuoteID int32
	nextChildID int32
}

// NewMockQuoteRepository creates a new MockQuoteRepository
func NewMockQuoteRepository() *MockQuoteRepository {
	return &MockQuoteRepository{
		Quotes:      make(map[int32]*domain.Quote),
		Now:         time.Now,
		sequences:   make(map[string]int32),
		nextQuoteID: 1,
		nextChildID: 1,
	}
}

// Begin snapshots every stored quote. Writes apply immediately and Rollback restores
// the snapshot unless the transaction was committed.
func (m *MockQuoteRepository) Begin(ctx context.Context) (domain.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	snapshot := make(map[int32]*domain.Quote, len(m.Quotes))
	for id, q := range m.Quotes {
		snapshot[id] = cloneQuote(q)
	}
	return &mockQuoteTx{repo: m, snapshot: snapshot}, nil
}

type mockQuoteTx struct {
	repo     *MockQuoteRepository
	snapshot map[int32]*domain.Quote
	done     bool
}

func (tx *mockQuoteTx) Commit(ctx context.Context) error {
	if tx.done {
		return errTxClosed
	}
	tx.done = true
	return nil
}

func (tx *mockQuoteTx) Rollback(ctx context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	m := tx.repo
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.Quotes {
		delete(m.Quotes, id)
	}
	for id, q := range tx.snapshot {
		m.Quotes[id] = q
	}
	return nil
}

var errTxClosed = errors.New("transaction already closed")

func checkTx(tx interface{}) error {
	t, ok := tx.(*mockQuoteTx)
	if !ok {
		return errors.New("invalid transaction type")
	}
	if t.done {
		return errTxClosed
	}
	return nil
}

func (m *MockQuoteRepository) childID() int32 {
	id := m.nextChildID
	m.nextChildID++
	return id
}

// Create stores a quote header and allocates its order number
func (m *MockQuoteRepository) Create(quote *domain.Quote) (*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	key := fmt.Sprintf("%d/%04d%02d", quote.WorkspaceID, now.Year(), int(now.Month()))
	m.sequences[key]++

	quote.ID = m.nextQuoteID
	m.nextQuoteID++
	quote.OrderNumber = domain.FormatOrderNumber(now.Year(), int(now.Month()), m.sequences[key])
	quote.CreatedAt = now
	quote.UpdatedAt = now
	m.Quotes[quote.ID] = cloneQuote(quote)
	return quote, nil
}

// GetByID returns a copy of the full quote tree
func (m *MockQuoteRepository) GetByID(workspaceID int32, id int32) (*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.Quotes[id]
	if !ok || q.WorkspaceID != workspaceID {
		return nil, domain.ErrQuoteNotFound
	}
	return cloneQuote(q), nil
}

// GetByIDTx returns a copy of the full quote tree, including uncommitted writes
func (m *MockQuoteRepository) GetByIDTx(tx interface{}, workspaceID int32, id int32) (*domain.Quote, error) {
	if err := checkTx(tx); err != nil {
		return nil, err
	}
	return m.GetByID(workspaceID, id)
}

// GetAllByWorkspace returns quote headers, newest first
func (m *MockQuoteRepository) GetAllByWorkspace(workspaceID int32, status *domain.QuoteStatus) ([]*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Quote
	for _, q := range m.Quotes {
		if q.WorkspaceID != workspaceID {
			continue
		}
		if status != nil && q.Status != *status {
			continue
		}
		header := *q
		header.Sections = nil
		header.Milestones = nil
		result = append(result, &header)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// UpdateTx stores the header fields of a quote
func (m *MockQuoteRepository) UpdateTx(tx interface{}, quote *domain.Quote) (*domain.Quote, error) {
	if err := checkTx(tx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Quotes[quote.ID]
	if !ok || stored.WorkspaceID != quote.WorkspaceID {
		return nil, domain.ErrQuoteNotFound
	}
	stored.Name = quote.Name
	stored.ContractType = quote.ContractType
	stored.ContingencyPercentage = quote.ContingencyPercentage
	stored.UpdatedAt = m.Now()
	return quote, nil
}

// UpdateTotalAmount stores the cached total
func (m *MockQuoteRepository) UpdateTotalAmount(workspaceID int32, id int32, total decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateTotalErr != nil {
		return m.UpdateTotalErr
	}
	stored, ok := m.Quotes[id]
	if !ok || stored.WorkspaceID != workspaceID {
		return domain.ErrQuoteNotFound
	}
	stored.TotalAmount = total
	return nil
}

// UpdateTotalAmountTx stores the cached total within a transaction
func (m *MockQuoteRepository) UpdateTotalAmountTx(tx interface{}, workspaceID int32, id int32, total decimal.Decimal) error {
	if err := checkTx(tx); err != nil {
		return err
	}
	return m.UpdateTotalAmount(workspaceID, id, total)
}

// UpdateStatus stores a new status
func (m *MockQuoteRepository) UpdateStatus(workspaceID int32, id int32, status domain.QuoteStatus) (*domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Quotes[id]
	if !ok || stored.WorkspaceID != workspaceID {
		return nil, domain.ErrQuoteNotFound
	}
	stored.Status = status
	stored.UpdatedAt = m.Now()
	return cloneQuote(stored), nil
}

// Delete removes a quote and its children
func (m *MockQuoteRepository) Delete(workspaceID int32, id int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Quotes[id]
	if !ok || stored.WorkspaceID != workspaceID {
		return domain.ErrQuoteNotFound
	}
	delete(m.Quotes, id)
	return nil
}

// CreateSectionTx adds a section to a stored quote
func (m *MockQuoteRepository) CreateSectionTx(tx interface{}, section *domain.BudgetSection) (*domain.BudgetSection, error) {
	if err := checkTx(tx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Quotes[section.QuoteID]
	if !ok {
		return nil, domain.ErrQuoteNotFound
	}
	section.ID = m.childID()
	section.CreatedAt = m.Now()
	section.UpdatedAt = section.CreatedAt
	copied := *section
	copied.Lines = nil
	stored.Sections = append(stored.Sections, &copied)
	return section, nil
}

// DeleteSectionTx removes a section and its lines
func (m *MockQuoteRepository) DeleteSectionTx(tx interface{}, quoteID int32, sectionID int32) error {
	if err := checkTx(tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Quotes[quoteID]
	if !ok {
		return domain.ErrQuoteNotFound
	}
	for i, s := range stored.Sections {
		if s.ID == sectionID {
			stored.Sections = append(stored.Sections[:i], stored.Sections[i+1:]...)
			return nil
		}
	}
	return domain.ErrSectionNotFound
}

// CreateLineTx adds a line to a stored section
func (m *MockQuoteRepository) CreateLineTx(tx interface{}, line *domain.BudgetLine) (*domain.BudgetLine, error) {
	if err := checkTx(tx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	section := m.findSection(line.SectionID)
	if section == nil {
		return nil, domain.ErrSectionNotFound
	}
	line.ID = m.childID()
	line.CreatedAt = m.Now()
	line.UpdatedAt = line.CreatedAt
	copied := *line
	copied.Profile = nil
	section.Lines = append(section.Lines, &copied)
	return line, nil
}

// UpdateLineTx replaces a stored line
func (m *MockQuoteRepository) UpdateLineTx(tx interface{}, line *domain.BudgetLine) (*domain.BudgetLine, error) {
	if err := checkTx(tx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	section := m.findSection(line.SectionID)
	if section == nil {
		return nil, domain.ErrLineNotFound
	}
	for i, l := range section.Lines {
		if l.ID == line.ID {
			copied := *line
			copied.Profile = nil
			copied.CreatedAt = l.CreatedAt
			copied.UpdatedAt = m.Now()
			section.Lines[i] = &copied
			return line, nil
		}
	}
	return nil, domain.ErrLineNotFound
}

// DeleteLineTx removes a line from a quote
func (m *MockQuoteRepository) DeleteLineTx(tx interface{}, quoteID int32, lineID int32) error {
	if err := checkTx(tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Quotes[quoteID]
	if !ok {
		return domain.ErrQuoteNotFound
	}
	for _, s := range stored.Sections {
		for i, l := range s.Lines {
			if l.ID == lineID {
				s.Lines = append(s.Lines[:i], s.Lines[i+1:]...)
				return nil
			}
		}
	}
	return domain.ErrLineNotFound
}

// CreateMilestoneTx adds a milestone to a stored quote
func (m *MockQuoteRepository) CreateMilestoneTx(tx interface{}, milestone *domain.PaymentMilestone) (*domain.PaymentMilestone, error) {
	if err := checkTx(tx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Quotes[milestone.QuoteID]
	if !ok {
		return nil, domain.ErrQuoteNotFound
	}
	milestone.ID = m.childID()
	milestone.CreatedAt = m.Now()
	milestone.UpdatedAt = milestone.CreatedAt
	copied := *milestone
	stored.Milestones = append(stored.Milestones, &copied)
	return milestone, nil
}

// DeleteMilestoneTx removes a milestone from a quote
func (m *MockQuoteRepository) DeleteMilestoneTx(tx interface{}, quoteID int32, milestoneID int32) error {
	if err := checkTx(tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.Quotes[quoteID]
	if !ok {
		return domain.ErrQuoteNotFound
	}
	for i, ms := range stored.Milestones {
		if ms.ID == milestoneID {
			stored.Milestones = append(stored.Milestones[:i], stored.Milestones[i+1:]...)
			return nil
		}
	}
	return domain.ErrMilestoneNotFound
}

// SetCachedTotal overwrites the stored total, simulating drift
func (m *MockQuoteRepository) SetCachedTotal(id int32, total decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.Quotes[id]; ok {
		stored.TotalAmount = total
	}
}

// SetStatus overwrites the stored status without going through the workflow
func (m *MockQuoteRepository) SetStatus(id int32, status domain.QuoteStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.Quotes[id]; ok {
		stored.Status = status
	}
}

// StoredTotal returns the cached total as stored
func (m *MockQuoteRepository) StoredTotal(id int32) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.Quotes[id]; ok {
		return stored.TotalAmount
	}
	return decimal.Zero
}

// ReferencesProfile reports whether a stored line of the workspace uses the profile
func (m *MockQuoteRepository) ReferencesProfile(workspaceID int32, profileID int32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.Quotes {
		if q.WorkspaceID != workspaceID {
			continue
		}
		for _, s := range q.Sections {
			for _, l := range s.Lines {
				if l.ProfileID != nil && *l.ProfileID == profileID {
					return true
				}
			}
		}
	}
	return false
}

func (m *MockQuoteRepository) findSection(sectionID int32) *domain.BudgetSection {
	for _, q := range m.Quotes {
		for _, s := range q.Sections {
			if s.ID == sectionID {
				return s
			}
		}
	}
	return nil
}

func cloneQuote(q *domain.Quote) *domain.Quote {
	copied := *q
	copied.Sections = make([]*domain.BudgetSection, 0, len(q.Sections))
	for _, s := range q.Sections {
		section := *s
		section.Lines = make([]*domain.BudgetLine, 0, len(s.Lines))
		for _, l := range s.Lines {
			line := *l
			section.Lines = append(section.Lines, &line)
		}
		copied.Sections = append(copied.Sections, &section)
	}
	copied.Milestones = make([]*domain.PaymentMilestone, 0, len(q.Milestones))
	for _, ms := range q.Milestones {
		milestone := *ms
		copied.Milestones = append(copied.Milestones, &milestone)
	}
	return &copied
}

// MockTaskRepository is a mock implementation of domain.TaskRepository keyed by derivation key
type MockTaskRepository struct {
	Tasks  []*domain.ExecutionTask
	nextID int32
}

// NewMockTaskRepository creates a new MockTaskRepository
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{nextID: 1}
}

// UpsertByKey inserts the task or refreshes the one with the same derivation key
func (m *MockTaskRepository) UpsertByKey(task *domain.ExecutionTask) (*domain.ExecutionTask, bool, error) {
	now := time.Now()
	for _, existing := range m.Tasks {
		if existing.DerivationKey == task.DerivationKey {
			existing.Description = task.Description
			existing.AssigneeID = task.AssigneeID
			existing.ProfileID = task.ProfileID
			existing.EstimatedHours = task.EstimatedHours
			existing.DailyRate = task.DailyRate
			existing.UpdatedAt = now
			copied := *existing
			return &copied, false, nil
		}
	}

	task.ID = m.nextID
	m.nextID++
	task.CreatedAt = now
	task.UpdatedAt = now
	copied := *task
	m.Tasks = append(m.Tasks, &copied)
	return task, true, nil
}

// GetByQuote returns the tasks derived from a quote ordered by line
func (m *MockTaskRepository) GetByQuote(workspaceID int32, quoteID int32) ([]*domain.ExecutionTask, error) {
	var result []*domain.ExecutionTask
	for _, t := range m.Tasks {
		if t.WorkspaceID == workspaceID && t.QuoteID == quoteID {
			copied := *t
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LineID < result[j].LineID })
	return result, nil
}

// MockExportRepository is a mock implementation of storage.ExportRepository
type MockExportRepository struct {
	Objects     map[string][]byte
	ContentType map[string]string
	UploadErr   error
}

// NewMockExportRepository creates a new MockExportRepository
func NewMockExportRepository() *MockExportRepository {
	return &MockExportRepository{
		Objects:     make(map[string][]byte),
		ContentType: make(map[string]string),
	}
}

// Upload stores the object in memory
func (m *MockExportRepository) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[objectPath] = body
	m.ContentType[objectPath] = contentType
	return objectPath, nil
}

// Delete removes a stored object
func (m *MockExportRepository) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	delete(m.ContentType, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for a stored object
func (m *MockExportRepository) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if _, ok := m.Objects[objectPath]; !ok {
		return "", fmt.Errorf("object %s not found", objectPath)
	}
	return fmt.Sprintf("https://exports.test/%s?expires=%d", objectPath, int(expiry.Seconds())), nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// PublishedEvent is one event recorded by MockEventPublisher
type PublishedEvent struct {
	WorkspaceID int32
	Event       websocket.Event
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(workspaceID int32, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{WorkspaceID: workspaceID, Event: event})
}

// Types returns the types of the recorded events in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Event.Type)
	}
	return types
}
