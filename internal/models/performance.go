package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Sort orders accepted by the performance list endpoint.
const (
	SortStartDate = "startDate"
	SortEndDate   = "endDate"
	SortTitle     = "title"

	DefaultPageSize = 6
)

type PerformanceListItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"postUrl"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type PerformanceDetail struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	PosterURL      string   `json:"postUrl"`
	Cast           []string `json:"cast"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	Runtime        string   `json:"runtime"`
	StartTimeGuide string   `json:"dtguidance"`
	Place          string   `json:"place"`
	TicketPrice    string   `json:"ticketPrice"`
	TicketVendor   string   `json:"ticketVendor"`
	TicketURL      string   `json:"ticketUrl"`
}

// CalendarPerformance is a date-ranged entry of the monthly calendar.
type CalendarPerformance struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// PerformanceFilters are the query parameters of GET /api/performances.
// A nil IsFestival lists both festivals and concerts.
type PerformanceFilters struct {
	IsFestival *bool
	Keyword    string
	Page       int
	Size       int
	Sort       string
}

// DefaultPerformanceFilters returns the first page, six items, sorted by start date.
func DefaultPerformanceFilters() PerformanceFilters {
	return PerformanceFilters{Page: 0, Size: DefaultPageSize, Sort: SortStartDate}
}

// CachedPerformance is a [PerformanceDetail] stored in the local cache.
type CachedPerformance struct {
	Detail    PerformanceDetail
	FetchedAt time.Time
}

func (c *CachedPerformance) Key() int64           { return c.Detail.ID }
func (c *CachedPerformance) CreatedAt() time.Time { return c.FetchedAt }

func (c *CachedPerformance) Validate() error {
	if c.Detail.ID <= 0 {
		return fmt.Errorf("cached performance requires a positive id, got %d", c.Detail.ID)
	}
	if c.Detail.Title == "" {
		return fmt.Errorf("cached performance %d has no title", c.Detail.ID)
	}
	return nil
}

// Payload encodes the detail for storage.
func (c *CachedPerformance) Payload() ([]byte, error) {
	return json.Marshal(c.Detail)
}
