package httpapi

import (
	"net/url"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// DateRange scopes sales, finance and report queries. Preset is one of the backend's named ranges
// ("today", "week", "month", ...); when From is set the range is custom and Preset is ignored.
type DateRange struct {
	Preset string
	From   time.Time
	To     time.Time
}

// Today is the default range of the live views.
var Today = DateRange{Preset: "today"}

// Custom returns an inclusive range between two calendar days.
func Custom(from, to time.Time) DateRange {
	return DateRange{From: from, To: to}
}

// IsCustom reports whether the range is given by dates.
func (r DateRange) IsCustom() bool {
	return !r.From.IsZero()
}

// String is the canonical form used in query keys.
func (r DateRange) String() string {
	if r.IsCustom() {
		return r.From.Format(dateLayout) + ".." + r.To.Format(dateLayout)
	}
	if r.Preset == "" {
		return Today.Preset
	}
	return r.Preset
}

func (r DateRange) apply(q url.Values) {
	if r.IsCustom() {
		q.Set("date_range", "custom")
		q.Set("date_from", r.From.Format(dateLayout))
		to := r.To
		if to.IsZero() {
			to = r.From
		}
		q.Set("date_to", to.Format(dateLayout))
		return
	}
	q.Set("date_range", r.String())
}

// Page selects a page of a paginated list.
type Page struct {
	Number int
	Limit  int
}

func (p Page) apply(q url.Values) {
	if p.Number > 0 {
		q.Set("page", strconv.Itoa(p.Number))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
		q.Set("per_page", strconv.Itoa(p.Limit))
	}
}

// TableFilters narrow the table list.
type TableFilters struct {
	Status string
}

// OrderFilters narrow the order list.
type OrderFilters struct {
	Status string
	Page   Page
	Date   DateRange
}
