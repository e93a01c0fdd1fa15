package patent

import (
	"strings"
	"time"

	"github.com/turtacn/patentdesk/pkg/errors"
)

// Pagination bounds for Search.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps (page-1)*limit far from integer overflow. Any page past
	// the last one is empty, so clamping does not change results.
	MaxPage = 1_000_000
)

// SortField is a whitelisted ordering key. The repository maps each value to
// a column; nothing caller-supplied reaches the SQL text.
type SortField string

const (
	SortCreatedAt       SortField = "createdAt"
	SortUpdatedAt       SortField = "updatedAt"
	SortTitle           SortField = "title"
	SortStatus          SortField = "status"
	SortUniquenessScore SortField = "uniquenessScore"
	SortMarketPotential SortField = "marketPotential"
)

var sortFields = map[string]SortField{
	"createdat":       SortCreatedAt,
	"updatedat":       SortUpdatedAt,
	"title":           SortTitle,
	"status":          SortStatus,
	"uniquenessscore": SortUniquenessScore,
	"marketpotential": SortMarketPotential,
}

// DefaultSort is applied when sortBy is empty or names an unknown field.
const DefaultSort = "createdAt_DESC"

// DateRange bounds creation time. Each end is RFC3339 or YYYY-MM-DD; a
// date-only To covers the whole day.
type DateRange struct {
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// SearchInput is the loosely typed filter object accepted from clients.
type SearchInput struct {
	Query          string     `json:"query,omitempty"`
	TechnicalField string     `json:"technical_field,omitempty"`
	Jurisdictions  []string   `json:"jurisdictions,omitempty"`
	Status         []string   `json:"status,omitempty"`
	DateRange      *DateRange `json:"date_range,omitempty"`
	SortBy         string     `json:"sort_by,omitempty"`
	Page           int        `json:"page,omitempty"`
	Limit          int        `json:"limit,omitempty"`
}

// SearchCriteria is a validated SearchInput.
type SearchCriteria struct {
	Query          string
	TechnicalField string
	Jurisdictions  []string
	Statuses       []Status
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	SortField      SortField
	SortDesc       bool
	Page           int
	Limit          int
}

// Offset is the number of rows skipped before the requested page.
func (c SearchCriteria) Offset() int {
	return (c.Page - 1) * c.Limit
}

// Normalize validates the input and fills defaults. Unknown statuses fail
// with ErrCodePatentStatusInvalid; malformed dates fail validation.
func (in SearchInput) Normalize() (SearchCriteria, error) {
	c := SearchCriteria{
		Query:          strings.TrimSpace(in.Query),
		TechnicalField: strings.TrimSpace(in.TechnicalField),
		Jurisdictions:  NormalizeJurisdictions(in.Jurisdictions),
		Page:           in.Page,
		Limit:          in.Limit,
	}

	for _, s := range in.Status {
		if strings.TrimSpace(s) == "" {
			continue
		}
		st, err := ParseStatus(s)
		if err != nil {
			return SearchCriteria{}, err
		}
		c.Statuses = append(c.Statuses, st)
	}

	if in.DateRange != nil {
		var err error
		if c.CreatedFrom, err = parseBound(in.DateRange.From, false); err != nil {
			return SearchCriteria{}, err
		}
		if c.CreatedTo, err = parseBound(in.DateRange.To, true); err != nil {
			return SearchCriteria{}, err
		}
		if c.CreatedFrom != nil && c.CreatedTo != nil && c.CreatedFrom.After(*c.CreatedTo) {
			return SearchCriteria{}, errors.InvalidParam("date range start is after its end")
		}
	}

	c.SortField, c.SortDesc = ParseSort(in.SortBy)

	switch {
	case c.Page < 1:
		c.Page = DefaultPage
	case c.Page > MaxPage:
		c.Page = MaxPage
	}
	switch {
	case c.Limit <= 0:
		c.Limit = DefaultPageSize
	case c.Limit > MaxPageSize:
		c.Limit = MaxPageSize
	}
	return c, nil
}

// ParseSort splits "<field>_<ASC|DESC>". An unknown field yields the default
// ordering; a missing or unknown direction yields descending.
func ParseSort(sortBy string) (SortField, bool) {
	sortBy = strings.TrimSpace(sortBy)
	if sortBy == "" {
		sortBy = DefaultSort
	}
	name, dir := sortBy, ""
	if i := strings.LastIndex(sortBy, "_"); i >= 0 {
		name, dir = sortBy[:i], sortBy[i+1:]
	}
	field, ok := sortFields[strings.ToLower(name)]
	if !ok {
		return SortCreatedAt, true
	}
	return field, !strings.EqualFold(dir, "ASC")
}

func parseBound(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, errors.InvalidParam("invalid date, expected RFC3339 or YYYY-MM-DD").WithDetail("date=" + s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// SearchResult is one page of matches plus the total match count.
type SearchResult struct {
	Items      []*Patent `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	TotalPages int       `json:"total_pages"`
}

// NewSearchResult assembles a page. A nil items slice is replaced by an empty
// one so clients always see a list.
func NewSearchResult(items []*Patent, total int, c SearchCriteria) *SearchResult {
	if items == nil {
		items = []*Patent{}
	}
	return &SearchResult{
		Items:      items,
		TotalCount: total,
		Page:       c.Page,
		TotalPages: TotalPages(total, c.Limit),
	}
}

// TotalPages returns ceil(total/limit), or 0 when there is nothing to page.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
