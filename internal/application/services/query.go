package services

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/ports"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit inside an int32 for every limit
	MaxPage = math.MaxInt32 / MaxLimit
)

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// ParseTaskQuery converts raw list parameters into a TaskQuery.
// Paging and sorting never fail: bad values fall back to defaults or are
// clamped. Bad filter values are reported as validation errors.
func ParseTaskQuery(raw ports.RawTaskQuery) (ports.TaskQuery, error) {
	q := ports.TaskQuery{
		Page:  ClampPage(parseIntOr(raw.Page, DefaultPage)),
		Limit: ClampLimit(parseIntOr(raw.Limit, DefaultLimit)),
		Sort:  parseSort(raw.SortBy, raw.SortOrder),
	}

	if v := strings.TrimSpace(raw.Status); v != "" {
		status := entities.TaskStatus(v)
		if !status.IsValid() {
			return q, entities.NewValidationError("status", "must be one of: pending, in-progress, completed, cancelled")
		}
		q.Status = &status
	}

	if v := strings.TrimSpace(raw.Priority); v != "" {
		priority := entities.Priority(v)
		if !priority.IsValid() {
			return q, entities.NewValidationError("priority", "must be one of: low, medium, high")
		}
		q.Priority = &priority
	}

	if v := strings.TrimSpace(raw.Category); v != "" {
		q.Category = &v
	}

	if v := strings.TrimSpace(raw.IsCompleted); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, entities.NewValidationError("isCompleted", "must be true or false")
		}
		q.IsCompleted = &b
	}

	if v := strings.TrimSpace(raw.DueBefore); v != "" {
		t, err := ParseDate(v)
		if err != nil {
			return q, entities.NewValidationError("dueBefore", "must be a valid date")
		}
		q.DueBefore = &t
	}

	if v := strings.TrimSpace(raw.DueAfter); v != "" {
		t, err := ParseDate(v)
		if err != nil {
			return q, entities.NewValidationError("dueAfter", "must be a valid date")
		}
		q.DueAfter = &t
	}

	if raw.Tags != "" {
		if tags := entities.NormalizeTags(strings.Split(raw.Tags, ",")); len(tags) > 0 {
			q.Tags = tags
		}
	}

	return q, nil
}

// ParseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC midnight)
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		t, perr := time.Parse(layout, s)
		if perr == nil {
			return t, nil
		}
		err = perr
	}
	return time.Time{}, err
}

func parseIntOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func parseSort(by, order string) ports.SortKey {
	key := ports.SortKey{Field: ports.SortByCreatedAt, Order: ports.SortDesc}
	if f := ports.SortField(by); f.IsValid() {
		key.Field = f
	}
	if strings.EqualFold(order, string(ports.SortAsc)) {
		key.Order = ports.SortAsc
	}
	return key
}

// ClampPage bounds page to [1, MaxPage]
func ClampPage(page int) int {
	if page < 1 {
		return DefaultPage
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}

// ClampLimit bounds limit to [1, MaxLimit]
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Skip is the number of results preceding page
func Skip(page, limit int) int {
	return (ClampPage(page) - 1) * ClampLimit(limit)
}

// NewPagination computes page metadata for total matching results
func NewPagination(page, limit int, total int64) ports.Pagination {
	pages := int((total + int64(limit) - 1) / int64(limit))
	return ports.Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// toFilter returns the store filter for q scoped to ownerID
func toFilter(ownerID string, q ports.TaskQuery) ports.TaskFilter {
	return ports.TaskFilter{
		OwnerID:     ownerID,
		Status:      q.Status,
		Priority:    q.Priority,
		Category:    q.Category,
		IsCompleted: q.IsCompleted,
		DueAfter:    q.DueAfter,
		DueBefore:   q.DueBefore,
		Tags:        q.Tags,
	}
}
