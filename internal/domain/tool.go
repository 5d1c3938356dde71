package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ToolStatus string

const (
	ToolStatusAvailable   ToolStatus = "available"
	ToolStatusMaintenance ToolStatus = "maintenance"
	ToolStatusRented      ToolStatus = "rented"
)

func (s ToolStatus) Valid() bool {
	switch s {
	case ToolStatusAvailable, ToolStatusMaintenance, ToolStatusRented:
		return true
	}
	return false
}

type Tool struct {
	ID          int32           `json:"id"`
	OwnerID     int32           `json:"owner_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	DailyRate   decimal.Decimal `json:"daily_rate"`
	Category    string          `json:"category"`
	Status      ToolStatus      `json:"status"`
	ImageURL    string          `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	OwnerName string `json:"owner_name,omitempty"` // populated when fetching tool details
}

// Validate checks the fields every stored tool must satisfy.
func (t *Tool) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: tool name is required", ErrInvalidInput)
	}
	if !t.DailyRate.IsPositive() {
		return fmt.Errorf("%w: daily rate must be greater than zero", ErrInvalidInput)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: unknown tool status %q", ErrInvalidInput, t.Status)
	}
	return nil
}

// ToolDetail is a tool together with the review summary shown on its page.
type ToolDetail struct {
	Tool
	Ratings RatingStats `json:"ratings"`
}

// ToolPatch carries the fields of a partial tool update. Nil fields are left
// unchanged.
type ToolPatch struct {
	Name        *string
	Description *string
	DailyRate   *decimal.Decimal
	Category    *string
	Status      *ToolStatus
	ImageURL    *string
}

func (p ToolPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.DailyRate == nil &&
		p.Category == nil && p.Status == nil && p.ImageURL == nil
}

func (p ToolPatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: tool name cannot be empty", ErrInvalidInput)
	}
	if p.DailyRate != nil && !p.DailyRate.IsPositive() {
		return fmt.Errorf("%w: daily rate must be greater than zero", ErrInvalidInput)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown tool status %q", ErrInvalidInput, *p.Status)
	}
	return nil
}

// Apply copies the set fields onto t.
func (p ToolPatch) Apply(t *Tool) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DailyRate != nil {
		t.DailyRate = *p.DailyRate
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.ImageURL != nil {
		t.ImageURL = *p.ImageURL
	}
}

// ToolFilter narrows a catalog search. Query matches name or category,
// case-insensitively.
type ToolFilter struct {
	Query    string
	Category string
	OwnerID  int32
}

// Matches applies the filter to a single tool.
func (f ToolFilter) Matches(t *Tool) bool {
	if f.OwnerID != 0 && t.OwnerID != f.OwnerID {
		return false
	}
	if f.Category != "" && !strings.EqualFold(t.Category, f.Category) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(t.Name), q) && !strings.Contains(strings.ToLower(t.Category), q) {
			return false
		}
	}
	return true
}
