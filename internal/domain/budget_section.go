package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrSectionNotFound      = errors.New("budget section not found")
	ErrSectionTitleRequired = errors.New("section title is required")
	ErrSectionTitleTooLong  = errors.New("section title exceeds maximum length")
)

// BudgetSection groups the lines of a quote under a title
type BudgetSection struct {
	ID        int32         `json:"id"`
	QuoteID   int32         `json:"quoteId"`
	Title     string        `json:"title"`
	Position  int32         `json:"position"`
	Lines     []*BudgetLine `json:"lines"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (s *BudgetSection) Validate() error {
	if s.Title == "" {
		return ErrSectionTitleRequired
	}
	if len(s.Title) > MaxNameLength {
		return ErrSectionTitleTooLong
	}
	return nil
}

// TotalAmount sums the line totals. Line order does not matter.
func (s *BudgetSection) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.TotalAmount())
	}
	return RoundMoney(total)
}

// TotalSoldDays sums the days of the lines that carry a profile
func (s *BudgetSection) TotalSoldDays() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		if line.ProfileID != nil && line.Days != nil {
			total = total.Add(*line.Days)
		}
	}
	return total
}

// SortedLines returns the lines by ascending position, ties broken by ID
func (s *BudgetSection) SortedLines() []*BudgetLine {
	lines := make([]*BudgetLine, len(s.Lines))
	copy(lines, s.Lines)
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Position != lines[j].Position {
			return lines[i].Position < lines[j].Position
		}
		return lines[i].ID < lines[j].ID
	})
	return lines
}

// NextLinePosition returns the position after the last line
func (s *BudgetSection) NextLinePosition() int32 {
	var maxPos int32
	for _, line := range s.Lines {
		if line.Position > maxPos {
			maxPos = line.Position
		}
	}
	return maxPos + 1
}
