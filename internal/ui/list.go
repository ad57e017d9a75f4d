package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/stagelog/internal/formatter"
	"github.com/desertthunder/stagelog/internal/models"
)

var _ list.Item = performanceItem{}

// performanceItem wraps [models.PerformanceListItem] to implement [list.Item].
type performanceItem struct {
	performance models.PerformanceListItem
	interested  bool
	now         time.Time
}

func (i performanceItem) FilterValue() string { return i.performance.Title }

func (i performanceItem) Title() string {
	if i.interested {
		return styles.star.Render("★ ") + i.performance.Title
	}
	return i.performance.Title
}

func (i performanceItem) Description() string {
	p := i.performance
	return fmt.Sprintf("%s • %s • %s",
		formatter.FormatDateRange(p.StartDate, p.EndDate),
		formatter.Status(p.StartDate, p.EndDate, i.now),
		formatter.DDay(p.StartDate, i.now),
	)
}
