// ABOUTME: Merges an investor's meetings, followups and interactions into one timeline
// ABOUTME: Pure filtering and sorting with locale-aware string ordering
package activity

import (
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/confideleapcrm/irdesk/models"
)

// Type classifies an activity row. The empty Type is an interaction with
// an unrecognised outcome.
type Type string

const (
	TypeMeeting       Type = "Meeting"
	TypeFollowup      Type = "Followup"
	TypeInterested    Type = "Interested"
	TypeNotInterested Type = "Not Interested"
)

// ParseType accepts display names and snake_case forms.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", " ")) {
	case "meeting", "meetings":
		return TypeMeeting, true
	case "followup", "follow up", "followups":
		return TypeFollowup, true
	case "interested":
		return TypeInterested, true
	case "not interested":
		return TypeNotInterested, true
	}
	return "", false
}

type Source string

const (
	SourceMeeting     Source = "meeting"
	SourceFollowup    Source = "followup"
	SourceInteraction Source = "interaction"
)

// Row is one timeline entry.
type Row struct {
	Type        Type
	Source      Source
	SourceID    models.ID
	CompanyID   models.ID
	CompanyName string
	// Date is the filter and sort date; zero when the record has none.
	Date    time.Time
	Content string
	Status  string
}

var keyPrefixes = map[Source]string{
	SourceMeeting:     "m-",
	SourceFollowup:    "f-",
	SourceInteraction: "i-",
}

// Key identifies the row across sources: m-, f- or i- plus the record id.
func (r Row) Key() string {
	return keyPrefixes[r.Source] + r.SourceID.String()
}

// DisplayDate formats Date for tables; empty when the record has no date.
func (r Row) DisplayDate() string {
	if r.Date.IsZero() {
		return ""
	}
	return r.Date.Format("2006-01-02 15:04")
}

type SortKey string

const (
	SortDate     SortKey = "date"
	SortCompany  SortKey = "company"
	SortActivity SortKey = "activity"
)

// Filters narrows and orders the timeline. Zero values disable a filter.
type Filters struct {
	// CompanyIDs is the parent-level company restriction applied first.
	CompanyIDs  []models.ID
	From        time.Time
	To          time.Time
	CompanyName string
	Type        Type
	SortBy      SortKey
	Descending  bool
}

type Result struct {
	Rows []Row
	// Companies lists the company names present in the date range.
	Companies []string
}

// NameLookup resolves company ids to display names.
type NameLookup interface {
	CompanyName(id models.ID) (string, bool)
}

// DefaultRange is the trailing five-day window ending today.
func DefaultRange(now time.Time) (from, to time.Time) {
	today := startOfDay(now)
	return today.AddDate(0, 0, -4), today
}

func startOfDay(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// recordDate prefers the record's creation time and falls back to its own date.
func recordDate(created, fallback *models.Time) time.Time {
	if t := created.Value(); !t.IsZero() {
		return t
	}
	return fallback.Value()
}

// Build produces the filtered, sorted timeline. It does no I/O.
func Build(meetings []models.Meeting, followups []models.Followup, interactions []models.Interaction, names NameLookup, f Filters) Result {
	var allowed map[models.ID]bool
	if len(f.CompanyIDs) > 0 {
		allowed = make(map[models.ID]bool, len(f.CompanyIDs))
		for _, id := range f.CompanyIDs {
			allowed[id] = true
		}
	}
	keep := func(id models.ID) bool { return allowed == nil || allowed[id] }
	resolve := func(id models.ID, fallback string) string {
		if names != nil && !id.IsZero() {
			if name, ok := names.CompanyName(id); ok && name != "" {
				return name
			}
		}
		return fallback
	}

	var rows []Row
	for _, m := range meetings {
		if !keep(m.CompanyID) {
			continue
		}
		content := m.Title
		if content == "" {
			content = m.Notes
		}
		rows = append(rows, Row{
			Type:        TypeMeeting,
			Source:      SourceMeeting,
			SourceID:    m.ID,
			CompanyID:   m.CompanyID,
			CompanyName: resolve(m.CompanyID, m.CompanyName),
			Date:        recordDate(m.CreatedAt, m.MeetingDatetime),
			Content:     content,
			Status:      m.Status,
		})
	}
	for _, fu := range followups {
		if !keep(fu.CompanyID) {
			continue
		}
		rows = append(rows, Row{
			Type:        TypeFollowup,
			Source:      SourceFollowup,
			SourceID:    fu.ID,
			CompanyID:   fu.CompanyID,
			CompanyName: resolve(fu.CompanyID, fu.CompanyName),
			Date:        recordDate(fu.CreatedAt, fu.FollowupDate),
			Content:     fu.Notes,
			Status:      fu.Status,
		})
	}
	for _, in := range interactions {
		if !keep(in.CompanyID) {
			continue
		}
		row := Row{
			Source:      SourceInteraction,
			SourceID:    in.ID,
			CompanyID:   in.CompanyID,
			CompanyName: resolve(in.CompanyID, in.CompanyName),
			Date:        recordDate(in.CreatedAt, in.InteractionDate),
		}
		switch in.Outcome {
		case models.OutcomeInterested:
			row.Type, row.Content = TypeInterested, in.Notes
		case models.OutcomeNotInterested:
			row.Type, row.Content = TypeNotInterested, in.Notes
		case models.OutcomeFollowUp:
			row.Type, row.Content = TypeFollowup, in.Notes
		}
		rows = append(rows, row)
	}

	if !f.From.IsZero() || !f.To.IsZero() {
		var lo, hi time.Time
		if !f.From.IsZero() {
			lo = startOfDay(f.From)
		}
		if !f.To.IsZero() {
			hi = endOfDay(f.To)
		}
		rows = slices.DeleteFunc(rows, func(r Row) bool {
			if r.Date.IsZero() {
				return true
			}
			return (!lo.IsZero() && r.Date.Before(lo)) || (!hi.IsZero() && r.Date.After(hi))
		})
	}

	col := collate.New(language.English, collate.IgnoreCase)
	companies := distinctCompanies(rows, col)

	if f.CompanyName != "" {
		rows = slices.DeleteFunc(rows, func(r Row) bool { return r.CompanyName != f.CompanyName })
	}

	if f.Type != "" {
		interestedCompanies := make(map[string]bool)
		if f.Type == TypeInterested {
			for _, r := range rows {
				if r.Type == TypeInterested {
					interestedCompanies[r.CompanyName] = true
				}
			}
		}
		rows = slices.DeleteFunc(rows, func(r Row) bool {
			if r.Type == f.Type {
				return false
			}
			return !(f.Type == TypeInterested && r.Type == TypeMeeting && interestedCompanies[r.CompanyName])
		})
	}

	sortRows(rows, f.SortBy, f.Descending, col)
	return Result{Rows: rows, Companies: companies}
}

func distinctCompanies(rows []Row, col *collate.Collator) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if r.CompanyName == "" || seen[r.CompanyName] {
			continue
		}
		seen[r.CompanyName] = true
		out = append(out, r.CompanyName)
	}
	col.SortStrings(out)
	return out
}

func dateKey(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func sortRows(rows []Row, key SortKey, desc bool, col *collate.Collator) {
	cmp := func(a, b Row) int {
		switch key {
		case SortCompany:
			return col.CompareString(a.CompanyName, b.CompanyName)
		case SortActivity:
			return col.CompareString(string(a.Type), string(b.Type))
		default:
			ka, kb := dateKey(a.Date), dateKey(b.Date)
			switch {
			case ka < kb:
				return -1
			case ka > kb:
				return 1
			}
			return 0
		}
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		if desc {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
}
