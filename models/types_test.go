// ABOUTME: Tests for investor-relations data models
// ABOUTME: Validates id decoding, snapshot normalisation, counts and meeting selection
package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDDecodesNumbersAndStrings(t *testing.T) {
	var row struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "tmp-1-x", "c": null}`), &row))

	assert.Equal(t, ID("42"), row.A)
	assert.Equal(t, ID("tmp-1-x"), row.B)
	assert.True(t, row.C.IsZero())

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 42, "b": "tmp-1-x", "c": null}`, string(out))
}

func TestIDKeepsNonCanonicalNumbersQuoted(t *testing.T) {
	var row struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "007", "b": "+5", "c": -3}`), &row))
	assert.Equal(t, ID("007"), row.A)

	out, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "007", "b": "+5", "c": -3}`, string(out))

	out, err = json.Marshal(RowInput{InvestorID: "007", ListType: ListInterested})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"investor_id":"007"`)
}

func TestTempID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewTempID(now)

	assert.True(t, IsTempID(id))
	assert.Contains(t, id.String(), "tmp-1700000000123-")
	assert.NotEqual(t, id, NewTempID(now))
	assert.False(t, IsTempID("17"))
}

func TestParseTimeZonelessIsLocal(t *testing.T) {
	got, ok := ParseTime("2024-01-15T23:59:59")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 23, 59, 59, 0, time.Local), got)

	_, ok = ParseTime("not a date")
	assert.False(t, ok)
}

func TestSnapshotNormalisesFieldVariants(t *testing.T) {
	data := []byte(`{
		"id": 9,
		"investor_id": "inv-1",
		"list_type": "meeting",
		"company_id": 3,
		"snapshot": {
			"investor_name": "Ada",
			"firm_name": "Lovelace Capital",
			"fit_score": "0.8",
			"meeting": {"meetingStatus": "completed", "meetingDatetime": "2024-02-03T10:00"},
			"not_interested_note": "n/a"
		}
	}`)

	var row InvestorListRow
	require.NoError(t, json.Unmarshal(data, &row))

	assert.Equal(t, ID("9"), row.ID)
	assert.Equal(t, ID("3"), row.CompanyID)
	assert.Equal(t, "Ada", row.Snapshot.Name)
	assert.Equal(t, "Lovelace Capital", row.Snapshot.Firm)
	require.NotNil(t, row.Snapshot.PortfolioFit)
	assert.InDelta(t, 0.8, *row.Snapshot.PortfolioFit, 1e-9)
	require.NotNil(t, row.Snapshot.Meeting)
	assert.Equal(t, MeetingCompleted, row.Snapshot.Meeting.Status)
	assert.Equal(t, 3, row.Snapshot.Meeting.Datetime.Day())
	assert.Equal(t, "n/a", row.Snapshot.NotInterestedNote)
}

func TestSnapshotFlattenedMeetingFields(t *testing.T) {
	var s InvestorSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Bo","meeting_status":"scheduled","scheduled_at":"2024-03-01"}`), &s))

	require.NotNil(t, s.Meeting)
	assert.Equal(t, MeetingScheduled, s.Meeting.Status)
	assert.Equal(t, time.March, s.Meeting.Datetime.Month())
}

func TestSnapshotEncodedAsString(t *testing.T) {
	var row InvestorListRow
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"snapshot":"{\"name\":\"Cy\"}"}`), &row))
	assert.Equal(t, "Cy", row.Snapshot.Name)
}

func TestMeetingStatusVariants(t *testing.T) {
	for _, body := range []string{
		`{"id":1,"meeting_status":"completed"}`,
		`{"id":1,"status":"completed"}`,
		`{"id":1,"meetingStatus":"completed"}`,
	} {
		var m Meeting
		require.NoError(t, json.Unmarshal([]byte(body), &m))
		assert.Equal(t, MeetingCompleted, m.Status, body)
	}
}

func TestLatestMeetingPicksMostRecentForCompany(t *testing.T) {
	first, _ := ParseTime("2024-02-01T10:00")
	second, _ := ParseTime("2024-02-03T10:00")
	other, _ := ParseTime("2024-03-01T10:00")
	meetings := []Meeting{
		{ID: "m2", CompanyID: "c1", MeetingDatetime: NewTime(second)},
		{ID: "m1", CompanyID: "c1", MeetingDatetime: NewTime(first)},
		{ID: "m3", CompanyID: "c2", MeetingDatetime: NewTime(other)},
	}

	latest := LatestMeeting(meetings, "c1")
	require.NotNil(t, latest)
	assert.Equal(t, ID("m2"), latest.ID)

	assert.Equal(t, ID("m3"), LatestMeeting(meetings, "").ID)
	assert.Nil(t, LatestMeeting(meetings, "c9"))
}

func TestLatestMeetingFallsBackToCreatedAtAndLastWinsTies(t *testing.T) {
	at, _ := ParseTime("2024-02-01T10:00")
	meetings := []Meeting{
		{ID: "a", CompanyID: "c1", CreatedAt: NewTime(at)},
		{ID: "b", CompanyID: "c1", CreatedAt: NewTime(at)},
	}
	assert.Equal(t, ID("b"), LatestMeeting(meetings, "c1").ID)
}

func TestCountsNeverNegative(t *testing.T) {
	var c Counts
	c.Add(ListMeeting, 2)
	assert.Equal(t, 2, c.Meetings)
	assert.Equal(t, 2, c.Meeting)

	c.Add(ListInterested, -1)
	assert.Equal(t, 0, c.Interested)
}

func TestParseListType(t *testing.T) {
	lt, ok := ParseListType("follow-up")
	assert.True(t, ok)
	assert.Equal(t, ListFollowups, lt)

	_, ok = ParseListType("archived")
	assert.False(t, ok)

	assert.True(t, ListMaybe.Valid())
	assert.False(t, ListMatching.Valid())
}
