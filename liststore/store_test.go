package liststore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confideleapcrm/irdesk/apitest"
	"github.com/confideleapcrm/irdesk/events"
	"github.com/confideleapcrm/irdesk/models"
)

func at(s string) *models.Time {
	t, ok := models.ParseTime(s)
	if !ok {
		panic("bad time " + s)
	}
	return models.NewTime(t)
}

func seed(b *apitest.Backend) {
	b.AddRow(models.InvestorListRow{InvestorID: "1", CompanyID: "A", ListType: models.ListInterested})
	b.AddRow(models.InvestorListRow{InvestorID: "2", CompanyID: "B", ListType: models.ListInterested})
	b.AddRow(models.InvestorListRow{InvestorID: "3", CompanyID: "C", ListType: models.ListInterested})
	b.AddRow(models.InvestorListRow{InvestorID: "4", CompanyID: "A", ListType: models.ListFollowups})
	b.AddRow(models.InvestorListRow{InvestorID: "5", CompanyID: "C", ListType: models.ListNotInterested})
	b.AddRow(models.InvestorListRow{InvestorID: "6", CompanyID: "B", ListType: models.ListMeeting})
	b.AddRow(models.InvestorListRow{InvestorID: "7", CompanyID: "", ListType: models.ListMeeting})
}

func TestLoadListReplacesRows(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	s := New(b, nil)

	require.NoError(t, s.LoadList(ctx, models.ListInterested))
	assert.Equal(t, models.ListInterested, s.Current())
	assert.Len(t, s.Rows(), 3)

	require.NoError(t, s.LoadList(ctx, models.ListFollowups))
	rows := s.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, models.ID("4"), rows[0].InvestorID)
}

func TestLoadListErrorKeepsState(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	s := New(b, nil)
	require.NoError(t, s.LoadList(ctx, models.ListInterested))

	b.Fail("ListRows:followups", nil)
	assert.Error(t, s.LoadList(ctx, models.ListFollowups))
	assert.Equal(t, models.ListInterested, s.Current())
	assert.Len(t, s.Rows(), 3)
}

func TestDuplicateConcurrentLoadIsNoOp(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	b.BeforeListRows = func(models.ListType) {
		once.Do(func() {
			close(started)
			<-release
		})
	}
	s := New(b, nil)

	done := make(chan error, 1)
	go func() { done <- s.LoadList(ctx, models.ListInterested) }()
	<-started

	require.NoError(t, s.LoadList(ctx, models.ListInterested))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, b.Calls("ListRows"))
	assert.Len(t, s.Rows(), 3)
}

func TestMatchingModeUsesSearch(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	b.Investors["1"] = models.Investor{ID: "1", Name: "Ada Capital"}
	b.Investors["2"] = models.Investor{ID: "2", Name: "Bob Ventures"}
	s := New(b, nil)
	s.SetQuery(models.TargetingQuery{Search: "ada", Page: 1, Limit: 25})

	require.NoError(t, s.LoadList(ctx, models.ListMatching))
	assert.Nil(t, s.Rows())
	page := s.SearchResults()
	require.NotNil(t, page)
	require.Len(t, page.Investors, 1)
	assert.Equal(t, "Ada Capital", page.Investors[0].Name)
	assert.Zero(t, b.Calls("ListRows"))
}

func TestMeetingListResolvesLatestStatus(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	b.AddRow(models.InvestorListRow{
		InvestorID: "6", CompanyID: "B", ListType: models.ListMeeting,
		Snapshot: models.InvestorSnapshot{Meeting: &models.MeetingInfo{Status: models.MeetingScheduled}},
	})
	b.AddMeeting(models.Meeting{InvestorID: "6", CompanyID: "B", Status: models.MeetingScheduled, MeetingDatetime: at("2024-02-01T10:00")})
	b.AddMeeting(models.Meeting{InvestorID: "6", CompanyID: "B", Status: models.MeetingCompleted, MeetingDatetime: at("2024-02-03T10:00")})
	b.AddMeeting(models.Meeting{InvestorID: "6", CompanyID: "Z", Status: models.MeetingCancelled, MeetingDatetime: at("2024-03-01T10:00")})
	s := New(b, nil)

	require.NoError(t, s.LoadList(ctx, models.ListMeeting))
	rows := s.Rows()
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Snapshot.Meeting)
	assert.Equal(t, models.MeetingCompleted, rows[0].Snapshot.Meeting.Status)
	assert.Equal(t, 1, b.Calls("ListMeetings"))
}

func TestMeetingLookupFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	b.AddRow(models.InvestorListRow{
		InvestorID: "6", CompanyID: "B", ListType: models.ListMeeting,
		Snapshot: models.InvestorSnapshot{Meeting: &models.MeetingInfo{Status: models.MeetingScheduled}},
	})
	b.Fail("ListMeetings", nil)
	s := New(b, nil)

	require.NoError(t, s.LoadList(ctx, models.ListMeeting))
	assert.Equal(t, models.MeetingScheduled, s.Rows()[0].Snapshot.Meeting.Status)
}

func TestRefreshCountsToleratesFailures(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	b.Fail("ListRows:followups", nil)
	s := New(b, nil)

	s.RefreshCounts(ctx)
	c := s.Counts()
	assert.Equal(t, 3, c.Interested)
	assert.Equal(t, 0, c.Followups)
	assert.Equal(t, 1, c.NotInterested)
	assert.Equal(t, 2, c.Meetings)
	assert.Equal(t, c.Meetings, c.Meeting)
}

func TestRefreshCountsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	s := New(b, nil)

	s.RefreshCounts(ctx)
	first := s.Counts()
	s.RefreshCounts(ctx)
	assert.Equal(t, first, s.Counts())
}

func TestCompanyFilterMatchesBadges(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	s := New(b, nil)
	s.RefreshCounts(ctx)
	require.NoError(t, s.LoadList(ctx, models.ListInterested))

	s.SetCompanyFilter([]models.ID{"A", "B"})
	counts := s.DisplayCounts()

	for _, lt := range models.DisplayLists {
		want := 0
		for _, r := range s.CachedRows(lt) {
			if r.CompanyID == "A" || r.CompanyID == "B" {
				want++
			}
		}
		assert.Equal(t, want, counts.Get(lt), "list %s", lt)
	}
	assert.Len(t, s.Rows(), counts.Get(models.ListInterested))

	s.SetCompanyFilter(nil)
	assert.Equal(t, s.Counts(), s.DisplayCounts())
	assert.Len(t, s.Rows(), 3)
}

func TestRemoveSingleReloads(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	s := New(b, nil)
	require.NoError(t, s.LoadList(ctx, models.ListInterested))
	s.RefreshCounts(ctx)

	target := s.Rows()[0].ID
	require.NoError(t, s.RemoveSingle(ctx, target))
	assert.Len(t, s.Rows(), 2)
	assert.Equal(t, 2, s.Counts().Interested)
}

func TestRemoveSelectedContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	s := New(b, nil)
	require.NoError(t, s.LoadList(ctx, models.ListInterested))

	rows := s.Rows()
	err := s.RemoveSelected(ctx, []models.ID{"missing", rows[0].ID, rows[1].ID})
	assert.Error(t, err)
	assert.Equal(t, 3, b.Calls("DeleteRow"))
	assert.Len(t, s.Rows(), 1)
	assert.Equal(t, 1, s.Counts().Interested)
}

func TestRemoveAllInList(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	s := New(b, nil)
	require.NoError(t, s.LoadList(ctx, models.ListInterested))

	require.NoError(t, s.RemoveAllInList(ctx, models.ListInterested))
	assert.Empty(t, s.Rows())
	assert.Zero(t, s.Counts().Interested)
	assert.Equal(t, 1, s.Counts().Followups)

	assert.Error(t, s.RemoveAllInList(ctx, models.ListMatching))
}

func TestListEventsAddConfirmRemove(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	d := events.NewDispatcher(nil)
	s := New(b, nil)
	defer s.Attach(d)()
	require.NoError(t, s.LoadList(ctx, models.ListInterested))
	s.RefreshCounts(ctx)

	var changes int
	s.OnChange(func() { changes++ })

	temp := models.NewTempID(time.Now())
	d.PublishList(ctx, events.ListChange{
		Action: events.ActionAdded, ListType: models.ListInterested,
		Item: &models.InvestorListRow{ID: temp, InvestorID: "9", CompanyID: "A", ListType: models.ListInterested, Optimistic: true},
	})
	assert.Equal(t, 4, s.Counts().Interested)
	assert.Equal(t, temp, s.Rows()[0].ID)

	d.PublishList(ctx, events.ListChange{
		Action: events.ActionConfirmed, ListType: models.ListInterested, TempID: temp,
		Item: &models.InvestorListRow{ID: "500", InvestorID: "9", CompanyID: "A", ListType: models.ListInterested},
	})
	_, stillTemp := s.Row(temp)
	assert.False(t, stillTemp)
	confirmed, ok := s.Row("500")
	require.True(t, ok)
	assert.False(t, confirmed.Optimistic)
	assert.Equal(t, 4, s.Counts().Interested)

	d.PublishList(ctx, events.ListChange{Action: events.ActionRemoved, ListType: models.ListInterested, ID: "500"})
	_, ok = s.Row("500")
	assert.False(t, ok)
	assert.Equal(t, 3, s.Counts().Interested)
	assert.Equal(t, 3, changes)
}

func TestAddedRowForOtherListOnlyCounts(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	seed(b)
	d := events.NewDispatcher(nil)
	s := New(b, nil)
	s.Attach(d)
	require.NoError(t, s.LoadList(ctx, models.ListInterested))
	s.RefreshCounts(ctx)

	d.PublishList(ctx, events.ListChange{
		Action: events.ActionAdded, ListType: models.ListMeeting,
		Item: &models.InvestorListRow{ID: "tmp-1-x", InvestorID: "9", ListType: models.ListMeeting},
	})
	assert.Len(t, s.Rows(), 3)
	assert.Equal(t, 3, s.Counts().Meetings)
	assert.Equal(t, 3, s.Counts().Meeting)
}

func TestOutcomePatchesMeetingRows(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	b.AddRow(models.InvestorListRow{
		InvestorID: "6", CompanyID: "B", ListType: models.ListMeeting,
		Snapshot: models.InvestorSnapshot{Meeting: &models.MeetingInfo{Status: models.MeetingScheduled}},
	})
	d := events.NewDispatcher(nil)
	s := New(b, nil)
	s.Attach(d)
	require.NoError(t, s.LoadList(ctx, models.ListMeeting))
	s.RefreshCounts(ctx)

	d.Publish(ctx, events.Event{Name: events.PostMeetOutcomeSaved, Detail: events.OutcomeDetail{
		InvestorID: "6", CompanyID: "B",
		Meeting: &models.Meeting{ID: "77", Status: models.MeetingCompleted},
	}})

	assert.Equal(t, models.MeetingCompleted, s.Rows()[0].Snapshot.Meeting.Status)
	assert.Equal(t, models.MeetingCompleted, s.CachedRows(models.ListMeeting)[0].Snapshot.Meeting.Status)
}
