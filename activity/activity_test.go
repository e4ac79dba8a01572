package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confideleapcrm/irdesk/apitest"
	"github.com/confideleapcrm/irdesk/models"
)

type names map[models.ID]string

func (n names) CompanyName(id models.ID) (string, bool) {
	name, ok := n[id]
	return name, ok
}

func at(s string) *models.Time {
	t, ok := models.ParseTime(s)
	if !ok {
		panic("bad time " + s)
	}
	return models.NewTime(t)
}

func day(s string) time.Time {
	return at(s).Time
}

func TestDateRangeIsInclusive(t *testing.T) {
	meetings := []models.Meeting{{ID: "1", CompanyID: "A", CreatedAt: at("2024-01-15T23:59:59")}}

	res := Build(meetings, nil, nil, nil, Filters{From: day("2024-01-15"), To: day("2024-01-15")})
	require.Len(t, res.Rows, 1)
	assert.Equal(t, TypeMeeting, res.Rows[0].Type)

	res = Build(meetings, nil, nil, nil, Filters{From: day("2024-01-16"), To: day("2024-01-16")})
	assert.Empty(t, res.Rows)
}

func TestRowsWithoutDateDroppedWhenRangeSet(t *testing.T) {
	followups := []models.Followup{{ID: "1"}, {ID: "2", CreatedAt: at("2024-01-10T08:00")}}

	assert.Len(t, Build(nil, followups, nil, nil, Filters{}).Rows, 2)
	res := Build(nil, followups, nil, nil, Filters{From: day("2024-01-01")})
	require.Len(t, res.Rows, 1)
	assert.Equal(t, models.ID("2"), res.Rows[0].SourceID)
}

func TestRowKeysArePrefixedBySource(t *testing.T) {
	meetings := []models.Meeting{{ID: "7", CreatedAt: at("2024-01-15T09:30")}}
	followups := []models.Followup{{ID: "7"}}
	interactions := []models.Interaction{{ID: "7", Outcome: models.OutcomeInterested}}

	res := Build(meetings, followups, interactions, nil, Filters{})
	require.Len(t, res.Rows, 3)

	keys := map[string]Row{}
	for _, r := range res.Rows {
		keys[r.Key()] = r
	}
	require.Contains(t, keys, "m-7")
	require.Contains(t, keys, "f-7")
	require.Contains(t, keys, "i-7")
	assert.Equal(t, "2024-01-15 09:30", keys["m-7"].DisplayDate())
	assert.Empty(t, keys["f-7"].DisplayDate())
}

func TestInterestedFilterIncludesMeetingsOfInterestedCompanies(t *testing.T) {
	lookup := names{"A": "Acme", "B": "Beta"}
	interactions := []models.Interaction{{ID: "i1", CompanyID: "A", Outcome: models.OutcomeInterested, CreatedAt: at("2024-01-02")}}
	meetings := []models.Meeting{
		{ID: "m1", CompanyID: "A", CreatedAt: at("2024-01-03")},
		{ID: "m2", CompanyID: "B", CreatedAt: at("2024-01-04")},
	}

	res := Build(meetings, nil, interactions, lookup, Filters{Type: TypeInterested, SortBy: SortDate})
	require.Len(t, res.Rows, 2)
	assert.Equal(t, models.ID("i1"), res.Rows[0].SourceID)
	assert.Equal(t, models.ID("m1"), res.Rows[1].SourceID)
}

func TestInteractionOutcomeMapping(t *testing.T) {
	interactions := []models.Interaction{
		{ID: "1", Outcome: models.OutcomeInterested, Notes: "keen"},
		{ID: "2", Outcome: models.OutcomeNotInterested, Notes: "pass"},
		{ID: "3", Outcome: models.OutcomeFollowUp, Notes: "later"},
		{ID: "4", Outcome: "voicemail", Notes: "left message"},
	}
	res := Build(nil, nil, interactions, nil, Filters{SortBy: SortActivity})
	require.Len(t, res.Rows, 4)

	byID := map[models.ID]Row{}
	for _, r := range res.Rows {
		byID[r.SourceID] = r
	}
	assert.Equal(t, TypeInterested, byID["1"].Type)
	assert.Equal(t, TypeNotInterested, byID["2"].Type)
	assert.Equal(t, TypeFollowup, byID["3"].Type)
	assert.Equal(t, Type(""), byID["4"].Type)
	assert.Empty(t, byID["4"].Content)

	res = Build(nil, nil, interactions, nil, Filters{Type: TypeFollowup})
	require.Len(t, res.Rows, 1)
	assert.Equal(t, models.ID("3"), res.Rows[0].SourceID)
}

func TestParentCompanyFilterAppliesFirst(t *testing.T) {
	lookup := names{"A": "Acme", "B": "Beta"}
	meetings := []models.Meeting{
		{ID: "m1", CompanyID: "A", CreatedAt: at("2024-01-03")},
		{ID: "m2", CompanyID: "B", CreatedAt: at("2024-01-04")},
	}
	res := Build(meetings, nil, nil, lookup, Filters{CompanyIDs: []models.ID{"B"}})
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"Beta"}, res.Companies)
}

func TestCompaniesComputedBeforeNameFilter(t *testing.T) {
	meetings := []models.Meeting{
		{ID: "m1", CompanyName: "zeta", CreatedAt: at("2024-01-03")},
		{ID: "m2", CompanyName: "Alpha", CreatedAt: at("2024-01-04")},
		{ID: "m3", CompanyName: "Old", CreatedAt: at("2023-01-04")},
	}
	res := Build(meetings, nil, nil, nil, Filters{From: day("2024-01-01"), CompanyName: "Alpha"})
	assert.Equal(t, []string{"Alpha", "zeta"}, res.Companies)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "Alpha", res.Rows[0].CompanyName)
}

func TestNameLookupFallsBackToRecord(t *testing.T) {
	meetings := []models.Meeting{{ID: "m1", CompanyID: "X", CompanyName: "Denormalised"}}
	res := Build(meetings, nil, nil, names{}, Filters{})
	assert.Equal(t, "Denormalised", res.Rows[0].CompanyName)

	res = Build(meetings, nil, nil, names{"X": "Directory"}, Filters{})
	assert.Equal(t, "Directory", res.Rows[0].CompanyName)
}

func TestSortOrders(t *testing.T) {
	meetings := []models.Meeting{
		{ID: "1", CompanyName: "beta", CreatedAt: at("2024-01-02")},
		{ID: "2", CompanyName: "Alpha", CreatedAt: at("2024-01-03")},
		{ID: "3", CompanyName: "Gamma"},
	}
	ids := func(rows []Row) []models.ID {
		var out []models.ID
		for _, r := range rows {
			out = append(out, r.SourceID)
		}
		return out
	}

	assert.Equal(t, []models.ID{"3", "1", "2"}, ids(Build(meetings, nil, nil, nil, Filters{SortBy: SortDate}).Rows))
	assert.Equal(t, []models.ID{"2", "1", "3"}, ids(Build(meetings, nil, nil, nil, Filters{SortBy: SortDate, Descending: true}).Rows))
	assert.Equal(t, []models.ID{"2", "1", "3"}, ids(Build(meetings, nil, nil, nil, Filters{SortBy: SortCompany}).Rows))
}

func TestDefaultRange(t *testing.T) {
	now := time.Date(2024, 3, 2, 15, 30, 0, 0, time.Local)
	from, to := DefaultRange(now)
	assert.Equal(t, time.Date(2024, 2, 27, 0, 0, 0, 0, time.Local), from)
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.Local), to)
}

func TestParseType(t *testing.T) {
	ty, ok := ParseType("not_interested")
	assert.True(t, ok)
	assert.Equal(t, TypeNotInterested, ty)
	_, ok = ParseType("lunch")
	assert.False(t, ok)
}

func TestDirectoryLoadsOnce(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	b.Companies = []models.Company{{ID: "A", Name: "Acme"}, {ID: "B", Name: "Beta"}}
	dir := NewDirectory(b, nil)

	require.NoError(t, dir.Ensure(ctx, []models.ID{"A"}))
	require.NoError(t, dir.Ensure(ctx, []models.ID{"B", "Z"}))
	assert.Equal(t, 1, b.Calls("SearchCompanies"))

	name, ok := dir.CompanyName("B")
	assert.True(t, ok)
	assert.Equal(t, "Beta", name)
	assert.Len(t, dir.Companies(), 2)
}

func TestDirectoryRetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	b.Companies = []models.Company{{ID: "A", Name: "Acme"}}
	b.Fail("SearchCompanies", nil)
	dir := NewDirectory(b, nil)

	assert.Error(t, dir.Ensure(ctx, []models.ID{"A"}))
	b.Recover("SearchCompanies")
	require.NoError(t, dir.Ensure(ctx, []models.ID{"A"}))
	assert.Equal(t, 2, b.Calls("SearchCompanies"))
}

func TestForInvestorResolvesNames(t *testing.T) {
	ctx := context.Background()
	b := apitest.New()
	b.Companies = []models.Company{{ID: "A", Name: "Acme"}}
	b.AddMeeting(models.Meeting{InvestorID: "1", CompanyID: "A", CreatedAt: at("2024-01-03")})
	b.Interactions = []models.Interaction{{ID: "i", InvestorID: "1", CompanyID: "A", Outcome: models.OutcomeInterested, CreatedAt: at("2024-01-04")}}

	res, err := ForInvestor(ctx, b, NewDirectory(b, nil), "1", Filters{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"Acme"}, res.Companies)

	b.Fail("ListFollowups", nil)
	_, err = ForInvestor(ctx, b, nil, "1", Filters{})
	assert.Error(t, err)
}
