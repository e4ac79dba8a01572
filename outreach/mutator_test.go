package outreach

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confideleapcrm/irdesk/apitest"
	"github.com/confideleapcrm/irdesk/db"
	"github.com/confideleapcrm/irdesk/events"
	"github.com/confideleapcrm/irdesk/liststore"
	"github.com/confideleapcrm/irdesk/models"
)

type memoryJournal struct {
	mu      sync.Mutex
	records []db.MutationRecord
}

func (j *memoryJournal) Record(_ context.Context, rec db.MutationRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *memoryJournal) states() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []string
	for _, r := range j.records {
		out = append(out, r.State)
	}
	return out
}

type fixture struct {
	backend    *apitest.Backend
	dispatcher *events.Dispatcher
	store      *liststore.Store
	mutator    *Mutator
	journal    *memoryJournal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := apitest.New()
	b.Investors["1"] = models.Investor{ID: "1", Name: "Ada Lovelace", Firm: "Analytical Capital", Email: "ada@example.com"}
	b.Investors["2"] = models.Investor{ID: "2", Name: "Grace Hopper", Firm: "Cobol Partners"}
	d := events.NewDispatcher(nil)
	s := liststore.New(b, nil)
	t.Cleanup(s.Attach(d))
	j := &memoryJournal{}
	return &fixture{
		backend:    b,
		dispatcher: d,
		store:      s,
		mutator:    New(b, d, WithJournal(j)),
		journal:    j,
	}
}

func (f *fixture) load(t *testing.T, lt models.ListType) {
	t.Helper()
	require.NoError(t, f.store.LoadList(context.Background(), lt))
	f.store.RefreshCounts(context.Background())
}

func at(s string) *models.Time {
	t, ok := models.ParseTime(s)
	if !ok {
		panic("bad time " + s)
	}
	return models.NewTime(t)
}

func TestAddToListConfirms(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, models.ListInterested)

	row, err := f.mutator.AddToList(ctx, AddRequest{InvestorID: "1", CompanyID: "A", CompanyName: "Acme", ListType: models.ListInterested})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", row.Snapshot.Name)
	assert.Equal(t, "Acme", row.Snapshot.CompanyName)

	rows := f.store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, row.ID, rows[0].ID)
	assert.False(t, rows[0].Optimistic)
	assert.Equal(t, 1, f.store.Counts().Interested)
	assert.Equal(t, []string{db.MutationPending, db.MutationConfirmed}, f.journal.states())
}

func TestAddToListRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.AddRow(models.InvestorListRow{InvestorID: "2", CompanyID: "B", ListType: models.ListInterested})
	f.load(t, models.ListInterested)
	before := f.store.Counts()

	var sawTemp bool
	f.dispatcher.Subscribe(events.ListChanged, func(_ context.Context, evt events.Event) {
		change := evt.Detail.(events.ListChange)
		if change.Action == events.ActionAdded {
			for _, r := range f.store.Rows() {
				if models.IsTempID(r.ID) {
					sawTemp = true
				}
			}
		}
	})

	f.backend.Fail("CreateRow", nil)
	_, err := f.mutator.AddToList(ctx, AddRequest{InvestorID: "1", CompanyID: "A", ListType: models.ListInterested})
	require.ErrorIs(t, err, apitest.ErrInjected)

	assert.True(t, sawTemp)
	for _, r := range f.store.Rows() {
		assert.False(t, strings.HasPrefix(r.ID.String(), "tmp-"))
	}
	assert.Equal(t, before, f.store.Counts())
	assert.Equal(t, []string{db.MutationPending, db.MutationRolledBack}, f.journal.states())
}

func TestAddToListFailsBeforeAnnouncingWhenInvestorMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.mutator.AddToList(ctx, AddRequest{InvestorID: "404", ListType: models.ListInterested})
	assert.Error(t, err)
	assert.Empty(t, f.journal.states())
	assert.Zero(t, f.backend.Calls("CreateRow"))
}

func TestAddToListRejectsMatching(t *testing.T) {
	f := newFixture(t)
	_, err := f.mutator.AddToList(context.Background(), AddRequest{InvestorID: "1", ListType: models.ListMatching})
	assert.Error(t, err)
}

func TestQuickInterestedReusesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	followup := f.backend.AddRow(models.InvestorListRow{
		InvestorID: "9", CompanyID: "A", ListType: models.ListFollowups,
		Snapshot: models.InvestorSnapshot{Name: "Cached Name"},
	})

	row, err := f.mutator.QuickInterested(ctx, followup)
	require.NoError(t, err)
	assert.Equal(t, "Cached Name", row.Snapshot.Name)
	assert.Equal(t, models.ListInterested, row.ListType)
	assert.Zero(t, f.backend.Calls("GetInvestor"))
}

func TestScheduleMeetingConvertsInterestedRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	interested := f.backend.AddRow(models.InvestorListRow{InvestorID: "1", CompanyID: "A", ListType: models.ListInterested})
	f.load(t, models.ListInterested)

	res, err := f.mutator.ScheduleMeeting(ctx, ScheduleRequest{
		InvestorID: "1", CompanyID: "A", CompanyName: "Acme",
		Datetime: time.Date(2024, 2, 1, 10, 0, 0, 0, time.Local), DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, interested.ID, res.Row.ID)

	pair := f.backend.RowsFor("1", "A")
	require.Len(t, pair, 1)
	assert.Equal(t, models.ListMeeting, pair[0].ListType)
	assert.Equal(t, res.Meeting.ID, pair[0].Snapshot.Meeting.ID)

	assert.Empty(t, f.store.Rows())
	assert.Equal(t, 0, f.store.Counts().Interested)
	assert.Equal(t, 1, f.store.Counts().Meetings)
	assert.Len(t, f.store.CachedRows(models.ListMeeting), 1)
}

// companylessBackend creates rows without the company, the way older
// servers do, and records every row update it receives.
type companylessBackend struct {
	*apitest.Backend
	mu      sync.Mutex
	updates []models.RowInput
}

func (b *companylessBackend) CreateRow(ctx context.Context, in models.RowInput) (*models.InvestorListRow, error) {
	in.CompanyID = ""
	return b.Backend.CreateRow(ctx, in)
}

func (b *companylessBackend) UpdateRow(ctx context.Context, id models.ID, in models.RowInput) (*models.InvestorListRow, error) {
	b.mu.Lock()
	b.updates = append(b.updates, in)
	b.mu.Unlock()
	return b.Backend.UpdateRow(ctx, id, in)
}

func TestScheduleMeetingStampsCompanyWithFullRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := &companylessBackend{Backend: f.backend}
	mutator := New(b, f.dispatcher)
	f.load(t, models.ListMeeting)

	res, err := mutator.ScheduleMeeting(ctx, ScheduleRequest{
		InvestorID: "1", CompanyID: "A", CompanyName: "Acme",
		Datetime: time.Date(2024, 2, 1, 10, 0, 0, 0, time.Local), DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ID("A"), res.Row.CompanyID)

	require.Len(t, b.updates, 1)
	stamp := b.updates[0]
	assert.Equal(t, models.ID("1"), stamp.InvestorID)
	assert.Equal(t, models.ListMeeting, stamp.ListType)
	assert.Equal(t, models.ID("A"), stamp.CompanyID)
	assert.Equal(t, "Ada Lovelace", stamp.Snapshot.Name)
	require.NotNil(t, stamp.Snapshot.Meeting)
	assert.Equal(t, res.Meeting.ID, stamp.Snapshot.Meeting.ID)

	pair := f.backend.RowsFor("1", "A")
	require.Len(t, pair, 1)
	assert.Equal(t, models.ListMeeting, pair[0].ListType)
	assert.Equal(t, "Ada Lovelace", pair[0].Snapshot.Name)

	rows := f.store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, models.ID("A"), rows[0].CompanyID)
	assert.False(t, rows[0].Optimistic)
	assert.Equal(t, 1, f.store.Counts().Meetings)
}

func TestScheduleMeetingSweepsDuplicateInterestedRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.AddRow(models.InvestorListRow{InvestorID: "1", CompanyID: "A", ListType: models.ListInterested})
	f.backend.AddRow(models.InvestorListRow{InvestorID: "1", CompanyID: "A", ListType: models.ListInterested})
	f.backend.AddRow(models.InvestorListRow{InvestorID: "1", CompanyID: "B", ListType: models.ListInterested})
	f.load(t, models.ListMeeting)

	_, err := f.mutator.ScheduleMeeting(ctx, ScheduleRequest{InvestorID: "1", CompanyID: "A", Datetime: time.Now()})
	require.NoError(t, err)

	pair := f.backend.RowsFor("1", "A")
	require.Len(t, pair, 1)
	assert.Equal(t, models.ListMeeting, pair[0].ListType)
	assert.Len(t, f.backend.RowsFor("1", "B"), 1)

	rows := f.store.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, pair[0].ID, rows[0].ID)
	assert.Equal(t, 1, f.store.Counts().Interested)
	assert.Equal(t, 1, f.store.Counts().Meetings)
}

func TestScheduleMeetingWithoutInterestedRowCreates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, models.ListMeeting)

	res, err := f.mutator.ScheduleMeeting(ctx, ScheduleRequest{InvestorID: "2", CompanyID: "A", Datetime: time.Now()})
	require.NoError(t, err)
	require.NotNil(t, res.Row)
	assert.Len(t, f.backend.RowsFor("2", "A"), 1)
	assert.Len(t, f.store.Rows(), 1)
	assert.False(t, models.IsTempID(f.store.Rows()[0].ID))
}

func TestScheduleMeetingIsIdempotentForExistingMeetingRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, models.ListMeeting)
	req := ScheduleRequest{InvestorID: "2", CompanyID: "A", Datetime: time.Now()}

	_, err := f.mutator.ScheduleMeeting(ctx, req)
	require.NoError(t, err)
	_, err = f.mutator.ScheduleMeeting(ctx, req)
	require.NoError(t, err)

	assert.Len(t, f.backend.RowsFor("2", "A"), 1)
	assert.Len(t, f.store.Rows(), 1)
}

func TestScheduleMeetingRollsBackWhenMeetingFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, models.ListMeeting)
	f.backend.Fail("CreateMeeting", nil)

	_, err := f.mutator.ScheduleMeeting(ctx, ScheduleRequest{InvestorID: "1", CompanyID: "A", Datetime: time.Now()})
	require.Error(t, err)
	assert.Empty(t, f.store.Rows())
	assert.Zero(t, f.store.Counts().Meetings)
	assert.Empty(t, f.backend.RowsFor("1", "A"))
}

func TestScheduleMeetingReportsMissingGoogleConnection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.MeetStatus = models.GoogleStatusNoRefreshToken

	res, err := f.mutator.ScheduleMeeting(ctx, ScheduleRequest{
		InvestorID: "1", CompanyID: "A", Datetime: time.Now(), GenerateLink: true,
	})
	require.ErrorIs(t, err, ErrGoogleNotConnected)
	require.NotNil(t, res)
	require.NotNil(t, res.Meeting)
	assert.Len(t, f.backend.RowsFor("1", "A"), 1)
}

func TestScheduleMeetingGeneratesLink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.mutator.ScheduleMeeting(ctx, ScheduleRequest{
		InvestorID: "1", CompanyID: "A", Datetime: time.Now(), GenerateLink: true,
	})
	require.NoError(t, err)
	assert.Contains(t, res.MeetLink, "meet.google.com")
}

func TestMarkDoneTargetsLatestMeeting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	older := f.backend.AddMeeting(models.Meeting{InvestorID: "1", CompanyID: "A", Status: models.MeetingScheduled, MeetingDatetime: at("2024-02-01T10:00")})
	newer := f.backend.AddMeeting(models.Meeting{InvestorID: "1", CompanyID: "A", Status: models.MeetingScheduled, MeetingDatetime: at("2024-02-03T10:00")})

	updated, err := f.mutator.MarkMeetingDone(ctx, "1", "A")
	require.NoError(t, err)
	assert.Equal(t, newer.ID, updated.ID)

	got, _ := f.backend.Meeting(newer.ID)
	assert.Equal(t, models.MeetingCompleted, got.Status)
	got, _ = f.backend.Meeting(older.ID)
	assert.Equal(t, models.MeetingScheduled, got.Status)
}

func TestSetMeetingStatusWithoutMeeting(t *testing.T) {
	f := newFixture(t)
	f.backend.AddMeeting(models.Meeting{InvestorID: "1", CompanyID: "B"})

	_, err := f.mutator.SetMeetingStatus(context.Background(), "1", "A", models.MeetingCancelled)
	assert.ErrorIs(t, err, ErrNoMeeting)
}

func TestSetMeetingStatusRevertsOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.backend.AddRow(models.InvestorListRow{
		InvestorID: "1", CompanyID: "A", ListType: models.ListMeeting,
		Snapshot: models.InvestorSnapshot{Meeting: &models.MeetingInfo{Status: models.MeetingScheduled}},
	})
	f.backend.AddMeeting(models.Meeting{InvestorID: "1", CompanyID: "A", Status: models.MeetingScheduled, MeetingDatetime: at("2024-02-01T10:00")})
	f.load(t, models.ListMeeting)

	var seen []string
	f.dispatcher.Subscribe(events.PostMeetOutcomeSaved, func(_ context.Context, evt events.Event) {
		seen = append(seen, evt.Detail.(events.OutcomeDetail).Meeting.Status)
	})
	f.backend.Fail("UpdateMeeting", nil)

	_, err := f.mutator.SetMeetingStatus(ctx, "1", "A", models.MeetingNoShow)
	require.Error(t, err)
	assert.Equal(t, []string{models.MeetingNoShow, models.MeetingScheduled}, seen)
	assert.Equal(t, models.MeetingScheduled, f.store.Rows()[0].Snapshot.Meeting.Status)
}

func TestCreateFollowupAddsRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, models.ListFollowups)

	var created int
	f.dispatcher.Subscribe(events.FollowupCreated, func(context.Context, events.Event) { created++ })

	res, err := f.mutator.CreateFollowup(ctx, FollowupRequest{
		InvestorID: "1", CompanyID: "A", Date: time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local), Notes: "send deck",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	require.NotNil(t, res.Row.Snapshot.Followup)
	assert.Equal(t, res.Followup.ID, res.Row.Snapshot.Followup.ID)
	assert.Len(t, f.store.Rows(), 1)
	assert.Equal(t, 1, f.store.Counts().Followups)
}

func TestRecordOutcomeNotInterested(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	meeting := f.backend.AddMeeting(models.Meeting{InvestorID: "1", CompanyID: "A", Status: models.MeetingScheduled})
	f.load(t, models.ListNotInterested)

	var names []events.Name
	for _, n := range []events.Name{events.InteractionCreated, events.PostMeetOutcomeSaved} {
		f.dispatcher.Subscribe(n, func(_ context.Context, evt events.Event) { names = append(names, evt.Name) })
	}

	res, err := f.mutator.RecordOutcome(ctx, OutcomeRequest{
		InvestorID: "1", CompanyID: "A", MeetingID: meeting.ID,
		Outcome: models.OutcomeNotInterested, Notes: "too early",
	})
	require.NoError(t, err)
	assert.Equal(t, "too early", res.Row.Snapshot.NotInterestedNote)
	assert.Equal(t, models.MeetingCompleted, res.Meeting.Status)
	assert.Equal(t, []events.Name{events.InteractionCreated, events.PostMeetOutcomeSaved}, names)
	assert.Equal(t, 1, f.store.Counts().NotInterested)
}

func TestRecordOutcomeFollowUpCreatesFollowup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	when := time.Date(2024, 4, 1, 0, 0, 0, 0, time.Local)

	res, err := f.mutator.RecordOutcome(ctx, OutcomeRequest{
		InvestorID: "2", CompanyID: "B", Outcome: models.OutcomeFollowUp, FollowupDate: &when,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Followup)
	assert.Equal(t, models.ListFollowups, res.Row.ListType)
	assert.Equal(t, res.Followup.ID, res.Row.Snapshot.Followup.ID)
}

func TestRecordOutcomeRejectsUnknownOutcome(t *testing.T) {
	f := newFixture(t)
	_, err := f.mutator.RecordOutcome(context.Background(), OutcomeRequest{InvestorID: "1", Outcome: "maybe"})
	assert.Error(t, err)
	assert.Zero(t, f.backend.Calls("CreateInteraction"))
}

func TestRecordOutcomeRollsBackWhenInteractionFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.load(t, models.ListInterested)
	f.backend.Fail("CreateInteraction", nil)

	_, err := f.mutator.RecordOutcome(ctx, OutcomeRequest{InvestorID: "1", CompanyID: "A", Outcome: models.OutcomeInterested})
	require.Error(t, err)
	assert.Empty(t, f.store.Rows())
	assert.Zero(t, f.store.Counts().Interested)
}

func TestMutationTransitions(t *testing.T) {
	m := newMutation("add_to_list", &models.InvestorListRow{ID: "tmp-1-a", ListType: models.ListInterested})
	assert.Equal(t, Pending, m.State())
	require.NoError(t, m.Confirm("9"))
	assert.Equal(t, models.ID("9"), m.ServerID())
	assert.Error(t, m.Confirm("10"))
	assert.Error(t, m.RollBack(nil))

	r := newMutation("add_to_list", &models.InvestorListRow{ID: "tmp-2-b"})
	require.NoError(t, r.RollBack(apitest.ErrInjected))
	assert.Equal(t, RolledBack, r.State())
	assert.ErrorIs(t, r.Err(), apitest.ErrInjected)
	assert.Error(t, r.Confirm("1"))
	assert.Equal(t, db.MutationRolledBack, r.record().State)
}
