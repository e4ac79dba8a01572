// ABOUTME: In-memory stand-in for the investor-relations API used by package tests
// ABOUTME: Supports failure injection per operation and call counting
package apitest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/confideleapcrm/irdesk/models"
)

// ErrInjected is returned by operations configured to fail.
var ErrInjected = errors.New("injected failure")

// Backend is a concurrency-safe fake of api.Client.
type Backend struct {
	mu     sync.Mutex
	nextID int

	Rows         []models.InvestorListRow
	Investors    map[models.ID]models.Investor
	Companies    []models.Company
	Meetings     []models.Meeting
	Followups    []models.Followup
	Interactions []models.Interaction

	// MeetStatus is returned as google_create_status by GenerateMeet.
	MeetStatus string

	fail  map[string]error
	calls map[string]int

	// BeforeListRows, when set, runs at the start of every ListRows call.
	BeforeListRows func(models.ListType)
}

func New() *Backend {
	return &Backend{
		nextID:     100,
		Investors:  make(map[models.ID]models.Investor),
		MeetStatus: models.GoogleStatusCreated,
		fail:       make(map[string]error),
		calls:      make(map[string]int),
	}
}

// Fail makes op return err (ErrInjected when err is nil). op is a method
// name, optionally suffixed with ":<list type>" for ListRows.
func (b *Backend) Fail(op string, err error) {
	if err == nil {
		err = ErrInjected
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail[op] = err
}

// Recover clears an injected failure.
func (b *Backend) Recover(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.fail, op)
}

// Calls returns how often op ran.
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

func (b *Backend) enter(ops ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, op := range ops {
		b.calls[op]++
	}
	for _, op := range ops {
		if err, ok := b.fail[op]; ok {
			return err
		}
	}
	return nil
}

func (b *Backend) newID() models.ID {
	b.nextID++
	return models.ID(strconv.Itoa(b.nextID))
}

func (b *Backend) now() *models.Time {
	return models.NewTime(time.Now())
}

// AddRow seeds a row and returns it with an assigned id.
func (b *Backend) AddRow(row models.InvestorListRow) models.InvestorListRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	if row.ID.IsZero() {
		row.ID = b.newID()
	}
	b.Rows = append(b.Rows, row)
	return row
}

// AddMeeting seeds a meeting and returns it with an assigned id.
func (b *Backend) AddMeeting(m models.Meeting) models.Meeting {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.ID.IsZero() {
		m.ID = b.newID()
	}
	b.Meetings = append(b.Meetings, m)
	return m
}

// RowsFor returns the stored rows of an investor and company.
func (b *Backend) RowsFor(investorID, companyID models.ID) []models.InvestorListRow {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.InvestorListRow
	for _, r := range b.Rows {
		if r.SamePair(investorID, companyID) {
			out = append(out, r)
		}
	}
	return out
}

// Meeting returns the stored meeting with id.
func (b *Backend) Meeting(id models.ID) (models.Meeting, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.Meetings {
		if m.ID == id {
			return m, true
		}
	}
	return models.Meeting{}, false
}

func (b *Backend) ListRows(_ context.Context, listType models.ListType) ([]models.InvestorListRow, error) {
	if b.BeforeListRows != nil {
		b.BeforeListRows(listType)
	}
	if err := b.enter("ListRows", "ListRows:"+string(listType)); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.InvestorListRow{}
	for _, r := range b.Rows {
		if r.ListType == listType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *Backend) CreateRow(_ context.Context, in models.RowInput) (*models.InvestorListRow, error) {
	if err := b.enter("CreateRow"); err != nil {
		return nil, err
	}
	if !in.ListType.Valid() {
		return nil, fmt.Errorf("invalid list type %q", in.ListType)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	row := models.InvestorListRow{
		ID:         b.newID(),
		InvestorID: in.InvestorID,
		ListType:   in.ListType,
		CompanyID:  in.CompanyID,
		Snapshot:   in.Snapshot,
		CreatedAt:  b.now(),
	}
	b.Rows = append(b.Rows, row)
	return &row, nil
}

func (b *Backend) UpdateRow(_ context.Context, id models.ID, in models.RowInput) (*models.InvestorListRow, error) {
	if err := b.enter("UpdateRow"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Rows {
		if b.Rows[i].ID != id {
			continue
		}
		// PUT replaces the row; only the id and creation time survive.
		r := &b.Rows[i]
		r.InvestorID = in.InvestorID
		r.ListType = in.ListType
		r.CompanyID = in.CompanyID
		r.Snapshot = in.Snapshot
		r.UpdatedAt = b.now()
		out := *r
		return &out, nil
	}
	return nil, fmt.Errorf("row %s not found", id)
}

func (b *Backend) DeleteRow(_ context.Context, id models.ID) error {
	if err := b.enter("DeleteRow"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	before := len(b.Rows)
	b.Rows = slices.DeleteFunc(b.Rows, func(r models.InvestorListRow) bool { return r.ID == id })
	if len(b.Rows) == before {
		return fmt.Errorf("row %s not found", id)
	}
	return nil
}

func (b *Backend) ClearList(_ context.Context, listType models.ListType) error {
	if err := b.enter("ClearList"); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Rows = slices.DeleteFunc(b.Rows, func(r models.InvestorListRow) bool { return r.ListType == listType })
	return nil
}

func (b *Backend) SearchInvestors(_ context.Context, q models.TargetingQuery) (*models.TargetingPage, error) {
	if err := b.enter("SearchInvestors"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []models.Investor
	for _, inv := range b.Investors {
		if q.Search == "" || strings.Contains(strings.ToLower(inv.Name+" "+inv.Firm), strings.ToLower(q.Search)) {
			matched = append(matched, inv)
		}
	}
	slices.SortFunc(matched, func(a, c models.Investor) int { return strings.Compare(a.Name, c.Name) })
	return &models.TargetingPage{Investors: matched, Total: len(matched), Page: max(q.Page, 1), Limit: q.Limit}, nil
}

func (b *Backend) GetInvestor(_ context.Context, id models.ID) (*models.Investor, error) {
	if err := b.enter("GetInvestor"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	inv, ok := b.Investors[id]
	if !ok {
		return nil, fmt.Errorf("investor %s not found", id)
	}
	return &inv, nil
}

func (b *Backend) SearchCompanies(_ context.Context, query string, limit int) ([]models.Company, error) {
	if err := b.enter("SearchCompanies"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.Company
	for _, c := range b.Companies {
		if query == "" || strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			out = append(out, c)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (b *Backend) ListMeetings(_ context.Context, investorID models.ID) ([]models.Meeting, error) {
	if err := b.enter("ListMeetings"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Meeting{}
	for _, m := range b.Meetings {
		if m.InvestorID == investorID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (b *Backend) CreateMeeting(_ context.Context, in models.MeetingInput) (*models.Meeting, error) {
	if err := b.enter("CreateMeeting"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	m := models.Meeting{
		ID:              b.newID(),
		InvestorID:      in.InvestorID,
		CompanyID:       in.CompanyID,
		Title:           in.Title,
		Status:          in.Status,
		MeetingDatetime: in.MeetingDatetime,
		DurationMinutes: in.DurationMinutes,
		Notes:           in.Notes,
		CreatedAt:       b.now(),
	}
	if m.Status == "" {
		m.Status = models.MeetingScheduled
	}
	b.Meetings = append(b.Meetings, m)
	return &m, nil
}

func (b *Backend) UpdateMeeting(_ context.Context, id models.ID, in models.MeetingInput) (*models.Meeting, error) {
	if err := b.enter("UpdateMeeting"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Meetings {
		m := &b.Meetings[i]
		if m.ID != id {
			continue
		}
		if in.Status != "" {
			m.Status = in.Status
		}
		if in.MeetingDatetime != nil {
			m.MeetingDatetime = in.MeetingDatetime
		}
		if in.MeetLink != "" {
			m.MeetLink = in.MeetLink
		}
		if in.Notes != "" {
			m.Notes = in.Notes
		}
		out := *m
		return &out, nil
	}
	return nil, fmt.Errorf("meeting %s not found", id)
}

func (b *Backend) GenerateMeet(_ context.Context, meetingID models.ID) (*models.MeetLinkResult, error) {
	if err := b.enter("GenerateMeet"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.MeetStatus != models.GoogleStatusCreated {
		return &models.MeetLinkResult{GoogleCreateStatus: b.MeetStatus}, nil
	}
	link := "https://meet.google.com/fake-" + meetingID.String()
	for i := range b.Meetings {
		if b.Meetings[i].ID == meetingID {
			b.Meetings[i].MeetLink = link
		}
	}
	return &models.MeetLinkResult{MeetLink: link, GoogleCreateStatus: models.GoogleStatusCreated}, nil
}

func (b *Backend) ListFollowups(_ context.Context, investorID models.ID) ([]models.Followup, error) {
	if err := b.enter("ListFollowups"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Followup{}
	for _, f := range b.Followups {
		if f.InvestorID == investorID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (b *Backend) CreateFollowup(_ context.Context, in models.FollowupInput) (*models.Followup, error) {
	if err := b.enter("CreateFollowup"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	f := models.Followup{
		ID:           b.newID(),
		InvestorID:   in.InvestorID,
		CompanyID:    in.CompanyID,
		FollowupDate: in.FollowupDate,
		Status:       in.Status,
		Notes:        in.Notes,
		CreatedAt:    b.now(),
	}
	b.Followups = append(b.Followups, f)
	return &f, nil
}

func (b *Backend) ListInteractions(_ context.Context, investorID models.ID) ([]models.Interaction, error) {
	if err := b.enter("ListInteractions"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.Interaction{}
	for _, i := range b.Interactions {
		if i.InvestorID == investorID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (b *Backend) CreateInteraction(_ context.Context, in models.InteractionInput) (*models.Interaction, error) {
	if err := b.enter("CreateInteraction"); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	i := models.Interaction{
		ID:              b.newID(),
		InvestorID:      in.InvestorID,
		CompanyID:       in.CompanyID,
		Outcome:         in.Outcome,
		Notes:           in.Notes,
		InteractionDate: now,
		CreatedAt:       now,
	}
	b.Interactions = append(b.Interactions, i)
	return &i, nil
}
