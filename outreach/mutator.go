// ABOUTME: Optimistic list mutations against the investor-relations API
// ABOUTME: Announces rows before the write, then confirms or retracts them through the dispatcher
package outreach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confideleapcrm/irdesk/db"
	"github.com/confideleapcrm/irdesk/events"
	"github.com/confideleapcrm/irdesk/models"
)

var (
	// ErrGoogleNotConnected means the acting user must connect Google before
	// a meet link can be generated.
	ErrGoogleNotConnected = errors.New("google account not connected")
	// ErrNoMeeting means the investor has no meeting for the company.
	ErrNoMeeting = errors.New("no meeting found for investor and company")
)

// Backend is the part of the API client the mutator writes through.
type Backend interface {
	GetInvestor(ctx context.Context, id models.ID) (*models.Investor, error)
	ListRows(ctx context.Context, listType models.ListType) ([]models.InvestorListRow, error)
	CreateRow(ctx context.Context, in models.RowInput) (*models.InvestorListRow, error)
	UpdateRow(ctx context.Context, id models.ID, in models.RowInput) (*models.InvestorListRow, error)
	DeleteRow(ctx context.Context, id models.ID) error
	ListMeetings(ctx context.Context, investorID models.ID) ([]models.Meeting, error)
	CreateMeeting(ctx context.Context, in models.MeetingInput) (*models.Meeting, error)
	UpdateMeeting(ctx context.Context, id models.ID, in models.MeetingInput) (*models.Meeting, error)
	GenerateMeet(ctx context.Context, meetingID models.ID) (*models.MeetLinkResult, error)
	CreateFollowup(ctx context.Context, in models.FollowupInput) (*models.Followup, error)
	CreateInteraction(ctx context.Context, in models.InteractionInput) (*models.Interaction, error)
}

// Journal records mutation state transitions.
type Journal interface {
	Record(ctx context.Context, rec db.MutationRecord) error
}

type Mutator struct {
	backend Backend
	events  *events.Dispatcher
	logger  *slog.Logger
	journal Journal
	now     func() time.Time
}

type Option func(*Mutator)

func WithLogger(l *slog.Logger) Option {
	return func(m *Mutator) { m.logger = l }
}

func WithJournal(j Journal) Option {
	return func(m *Mutator) { m.journal = j }
}

func WithClock(now func() time.Time) Option {
	return func(m *Mutator) { m.now = now }
}

func New(backend Backend, dispatcher *events.Dispatcher, opts ...Option) *Mutator {
	m := &Mutator{
		backend: backend,
		events:  dispatcher,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// begin announces an optimistic row and returns its pending mutation.
func (m *Mutator) begin(ctx context.Context, kind string, listType models.ListType, investorID, companyID models.ID, snap models.InvestorSnapshot) *Mutation {
	row := &models.InvestorListRow{
		ID:         models.NewTempID(m.now()),
		InvestorID: investorID,
		ListType:   listType,
		CompanyID:  companyID,
		Snapshot:   snap,
		Optimistic: true,
		CreatedAt:  models.NewTime(m.now()),
	}
	mut := newMutation(kind, row)
	m.events.PublishList(ctx, events.ListChange{Action: events.ActionAdded, ListType: listType, Item: row})
	m.track(ctx, mut)
	return mut
}

func (m *Mutator) confirm(ctx context.Context, mut *Mutation, row *models.InvestorListRow) {
	if err := mut.Confirm(row.ID); err != nil {
		m.logger.Error("invalid mutation transition", "error", err)
		return
	}
	confirmed := *row
	confirmed.Optimistic = false
	m.events.PublishList(ctx, events.ListChange{
		Action:   events.ActionConfirmed,
		ListType: mut.ListType,
		TempID:   mut.TempID,
		Item:     &confirmed,
	})
	m.track(ctx, mut)
}

func (m *Mutator) rollback(ctx context.Context, mut *Mutation, cause error) {
	if err := mut.RollBack(cause); err != nil {
		m.logger.Error("invalid mutation transition", "error", err)
		return
	}
	m.events.PublishList(ctx, events.ListChange{Action: events.ActionRemoved, ListType: mut.ListType, ID: mut.TempID})
	m.logger.Error("mutation rolled back", "kind", mut.Kind, "temp_id", mut.TempID, "list", mut.ListType, "error", cause)
	m.track(ctx, mut)
}

func (m *Mutator) track(ctx context.Context, mut *Mutation) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Record(ctx, mut.record()); err != nil {
		m.logger.Warn("failed to journal mutation", "temp_id", mut.TempID, "error", err)
	}
}

// refreshRow replaces an already confirmed server row with a newer copy.
func (m *Mutator) refreshRow(ctx context.Context, listType models.ListType, row *models.InvestorListRow) {
	updated := *row
	updated.Optimistic = false
	m.events.PublishList(ctx, events.ListChange{
		Action:   events.ActionConfirmed,
		ListType: listType,
		TempID:   row.ID,
		Item:     &updated,
	})
}

// announceRemoved retracts a server row that another write made obsolete.
func (m *Mutator) announceRemoved(ctx context.Context, listType models.ListType, id models.ID) {
	m.events.PublishList(ctx, events.ListChange{Action: events.ActionRemoved, ListType: listType, ID: id})
}

// resolveSnapshot returns a copy of given, or builds one from the investor record.
func (m *Mutator) resolveSnapshot(ctx context.Context, investorID models.ID, companyName string, given *models.InvestorSnapshot) (models.InvestorSnapshot, error) {
	if given != nil {
		snap := *given
		if companyName != "" {
			snap.CompanyName = companyName
		}
		return snap, nil
	}
	inv, err := m.backend.GetInvestor(ctx, investorID)
	if err != nil {
		return models.InvestorSnapshot{}, fmt.Errorf("failed to load investor %s: %w", investorID, err)
	}
	var company *models.Company
	if companyName != "" {
		company = &models.Company{Name: companyName}
	}
	return inv.Snapshot(company), nil
}

// AddRequest adds an investor to a list. Snapshot is fetched from the
// investor record when nil.
type AddRequest struct {
	InvestorID  models.ID
	CompanyID   models.ID
	CompanyName string
	ListType    models.ListType
	Snapshot    *models.InvestorSnapshot
}

// AddToList optimistically adds a list row.
func (m *Mutator) AddToList(ctx context.Context, req AddRequest) (*models.InvestorListRow, error) {
	return m.addToList(ctx, "add_to_list", req)
}

// QuickInterested adds row's investor to the interested list reusing the
// row's cached snapshot instead of fetching the investor.
func (m *Mutator) QuickInterested(ctx context.Context, row models.InvestorListRow) (*models.InvestorListRow, error) {
	snap := row.Snapshot
	return m.addToList(ctx, "quick_interested", AddRequest{
		InvestorID: row.InvestorID,
		CompanyID:  row.CompanyID,
		ListType:   models.ListInterested,
		Snapshot:   &snap,
	})
}

func (m *Mutator) addToList(ctx context.Context, kind string, req AddRequest) (*models.InvestorListRow, error) {
	if !req.ListType.Valid() {
		return nil, fmt.Errorf("cannot add to list %q", req.ListType)
	}
	if req.InvestorID.IsZero() {
		return nil, errors.New("investor id is required")
	}
	snap, err := m.resolveSnapshot(ctx, req.InvestorID, req.CompanyName, req.Snapshot)
	if err != nil {
		return nil, err
	}

	mut := m.begin(ctx, kind, req.ListType, req.InvestorID, req.CompanyID, snap)
	row, err := m.backend.CreateRow(ctx, models.RowInput{
		InvestorID: req.InvestorID,
		ListType:   req.ListType,
		CompanyID:  req.CompanyID,
		Snapshot:   snap,
	})
	if err != nil {
		err = fmt.Errorf("failed to add investor to %s: %w", req.ListType, err)
		m.rollback(ctx, mut, err)
		return nil, err
	}
	m.confirm(ctx, mut, row)
	return row, nil
}

// UpsertResult describes what UpsertListMembership did.
type UpsertResult struct {
	Row *models.InvestorListRow
	// Converted is the interested row turned into a meeting row in place.
	Converted models.ID
	// Swept are leftover interested rows deleted for the same pair.
	Swept   []models.ID
	Created bool
}

// UpsertListMembership makes sure the investor and company have one row in
// listType. An existing row of that type is updated. For meetings a matching
// interested row is converted in place and any other interested rows of the
// pair are deleted. Each step logs its own failure; only failing to end up
// with any row is an error.
func (m *Mutator) UpsertListMembership(ctx context.Context, investorID, companyID models.ID, listType models.ListType, snap models.InvestorSnapshot) (*UpsertResult, error) {
	if !listType.Valid() {
		return nil, fmt.Errorf("cannot upsert into list %q", listType)
	}
	input := models.RowInput{InvestorID: investorID, ListType: listType, CompanyID: companyID, Snapshot: snap}
	res := &UpsertResult{}

	if existing := m.findRow(ctx, listType, investorID, companyID); existing != nil {
		updated, err := m.backend.UpdateRow(ctx, existing.ID, input)
		if err != nil {
			m.logger.Warn("failed to update existing list row", "id", existing.ID, "list", listType, "error", err)
			res.Row = existing
		} else {
			res.Row = updated
		}
	}

	var interested []models.InvestorListRow
	if listType == models.ListMeeting {
		var err error
		interested, err = m.backend.ListRows(ctx, models.ListInterested)
		if err != nil {
			m.logger.Warn("failed to list interested rows", "error", err)
		}
	}

	if res.Row == nil && listType == models.ListMeeting {
		for i := range interested {
			if !interested[i].SamePair(investorID, companyID) {
				continue
			}
			converted, err := m.backend.UpdateRow(ctx, interested[i].ID, input)
			if err != nil {
				m.logger.Warn("failed to convert interested row", "id", interested[i].ID, "error", err)
				break
			}
			res.Row = converted
			res.Converted = interested[i].ID
			break
		}
	}

	if res.Row == nil {
		created, err := m.backend.CreateRow(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s row: %w", listType, err)
		}
		res.Row = created
		res.Created = true
	}

	if listType == models.ListMeeting {
		for _, r := range interested {
			if !r.SamePair(investorID, companyID) || r.ID == res.Converted || r.ID == res.Row.ID {
				continue
			}
			if err := m.backend.DeleteRow(ctx, r.ID); err != nil {
				m.logger.Warn("failed to sweep leftover interested row", "id", r.ID, "error", err)
				continue
			}
			res.Swept = append(res.Swept, r.ID)
		}
	}
	return res, nil
}

func (m *Mutator) findRow(ctx context.Context, listType models.ListType, investorID, companyID models.ID) *models.InvestorListRow {
	rows, err := m.backend.ListRows(ctx, listType)
	if err != nil {
		m.logger.Warn("failed to list rows", "list", listType, "error", err)
		return nil
	}
	for i := range rows {
		if rows[i].SamePair(investorID, companyID) {
			return &rows[i]
		}
	}
	return nil
}

// announceUpsert publishes removals for interested rows the upsert replaced.
func (m *Mutator) announceUpsert(ctx context.Context, res *UpsertResult) {
	if !res.Converted.IsZero() {
		m.announceRemoved(ctx, models.ListInterested, res.Converted)
	}
	for _, id := range res.Swept {
		m.announceRemoved(ctx, models.ListInterested, id)
	}
}

// GenerateMeetLink asks the server for a video-meeting link.
func (m *Mutator) GenerateMeetLink(ctx context.Context, meetingID models.ID) (string, error) {
	res, err := m.backend.GenerateMeet(ctx, meetingID)
	if err != nil {
		return "", fmt.Errorf("failed to generate meet link: %w", err)
	}
	if res.GoogleCreateStatus == models.GoogleStatusNoRefreshToken {
		return "", ErrGoogleNotConnected
	}
	if res.MeetLink == "" {
		return "", fmt.Errorf("server returned no meet link (status %q)", res.GoogleCreateStatus)
	}
	return res.MeetLink, nil
}
