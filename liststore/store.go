// ABOUTME: Client-side state for the displayed investor list and global counts
// ABOUTME: Loads lists, refreshes counts, applies the company filter and reacts to list events
package liststore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/confideleapcrm/irdesk/events"
	"github.com/confideleapcrm/irdesk/models"
)

// meetingLookupLimit caps concurrent per-investor meeting fetches.
const meetingLookupLimit = 8

// Backend is the part of the API client the store needs.
type Backend interface {
	ListRows(ctx context.Context, listType models.ListType) ([]models.InvestorListRow, error)
	DeleteRow(ctx context.Context, id models.ID) error
	ClearList(ctx context.Context, listType models.ListType) error
	SearchInvestors(ctx context.Context, q models.TargetingQuery) (*models.TargetingPage, error)
	ListMeetings(ctx context.Context, investorID models.ID) ([]models.Meeting, error)
}

// Store holds the current list's rows keyed by id, the counts of every
// displayed list and a cached copy of each list used for filtered counts.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.Mutex
	current  models.ListType
	rows     map[models.ID]*models.InvestorListRow
	order    []models.ID
	query    models.TargetingQuery
	search   *models.TargetingPage
	counts   models.Counts
	cache    map[models.ListType][]models.InvestorListRow
	filter   map[models.ID]struct{}
	inFlight map[models.ListType]bool
	onChange []func()
}

func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend:  backend,
		logger:   logger,
		rows:     make(map[models.ID]*models.InvestorListRow),
		cache:    make(map[models.ListType][]models.InvestorListRow),
		inFlight: make(map[models.ListType]bool),
	}
}

// OnChange registers f to run after the store's state changes.
func (s *Store) OnChange(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, f)
}

func (s *Store) notify() {
	s.mu.Lock()
	hooks := slices.Clone(s.onChange)
	s.mu.Unlock()
	for _, f := range hooks {
		f()
	}
}

// LoadList replaces the displayed rows with listType. A second call for the
// same list type while one is outstanding returns nil without fetching.
func (s *Store) LoadList(ctx context.Context, listType models.ListType) error {
	s.mu.Lock()
	if s.inFlight[listType] {
		s.mu.Unlock()
		s.logger.Debug("list load already in flight", "list", listType)
		return nil
	}
	s.inFlight[listType] = true
	query := s.query
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, listType)
		s.mu.Unlock()
	}()

	if listType == models.ListMatching {
		page, err := s.backend.SearchInvestors(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to search investors: %w", err)
		}
		s.mu.Lock()
		s.current = listType
		s.search = page
		s.mu.Unlock()
		s.notify()
		return nil
	}

	rows, err := s.backend.ListRows(ctx, listType)
	if err != nil {
		return fmt.Errorf("failed to load %s list: %w", listType, err)
	}
	if listType == models.ListMeeting {
		s.resolveMeetingStatuses(ctx, rows)
	}

	s.mu.Lock()
	s.current = listType
	s.rows = make(map[models.ID]*models.InvestorListRow, len(rows))
	s.order = make([]models.ID, 0, len(rows))
	for i := range rows {
		row := rows[i]
		if _, dup := s.rows[row.ID]; dup {
			continue
		}
		s.rows[row.ID] = &row
		s.order = append(s.order, row.ID)
	}
	s.mu.Unlock()
	s.notify()
	return nil
}

// resolveMeetingStatuses rewrites each row's cached meeting from the latest
// meeting record for its investor and company. Lookup failures leave the
// cached snapshot in place.
func (s *Store) resolveMeetingStatuses(ctx context.Context, rows []models.InvestorListRow) {
	var investors []models.ID
	seen := make(map[models.ID]bool)
	for _, r := range rows {
		if !r.InvestorID.IsZero() && !seen[r.InvestorID] {
			seen[r.InvestorID] = true
			investors = append(investors, r.InvestorID)
		}
	}

	var mu sync.Mutex
	meetings := make(map[models.ID][]models.Meeting, len(investors))
	var g errgroup.Group
	g.SetLimit(meetingLookupLimit)
	for _, id := range investors {
		g.Go(func() error {
			list, err := s.backend.ListMeetings(ctx, id)
			if err != nil {
				s.logger.Warn("failed to resolve meeting status", "investor_id", id, "error", err)
				return nil
			}
			mu.Lock()
			meetings[id] = list
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range rows {
		list, ok := meetings[rows[i].InvestorID]
		if !ok {
			continue
		}
		if latest := models.LatestMeeting(list, rows[i].CompanyID); latest != nil {
			ApplyMeeting(&rows[i].Snapshot, latest)
		}
	}
}

// ApplyMeeting copies the authoritative meeting record onto a snapshot.
// The snapshot gets a fresh MeetingInfo so copies of the row are unaffected.
func ApplyMeeting(snap *models.InvestorSnapshot, m *models.Meeting) {
	var info models.MeetingInfo
	if snap.Meeting != nil {
		info = *snap.Meeting
	}
	info.ID = m.ID
	if m.Status != "" {
		info.Status = m.Status
	}
	if m.MeetingDatetime != nil {
		info.Datetime = m.MeetingDatetime
	}
	if m.MeetLink != "" {
		info.Link = m.MeetLink
	}
	snap.Meeting = &info
}

// RefreshCounts fetches every displayed list in parallel and replaces the
// counts and the per-list cache. A failed fetch counts as an empty list.
func (s *Store) RefreshCounts(ctx context.Context) {
	results := make([][]models.InvestorListRow, len(models.DisplayLists))
	var g errgroup.Group
	for i, lt := range models.DisplayLists {
		g.Go(func() error {
			rows, err := s.backend.ListRows(ctx, lt)
			if err != nil {
				s.logger.Warn("failed to fetch list for counts", "list", lt, "error", err)
				rows = nil
			}
			results[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	var counts models.Counts
	cache := make(map[models.ListType][]models.InvestorListRow, len(results))
	for i, lt := range models.DisplayLists {
		counts.Set(lt, len(results[i]))
		cache[lt] = results[i]
	}

	s.mu.Lock()
	s.counts = counts
	s.cache = cache
	s.mu.Unlock()
	s.notify()
}

// RemoveSingle deletes one row, then reloads the current list and counts.
func (s *Store) RemoveSingle(ctx context.Context, id models.ID) error {
	err := s.backend.DeleteRow(ctx, id)
	if err != nil {
		err = fmt.Errorf("failed to remove row %s: %w", id, err)
	}
	return errors.Join(err, s.reload(ctx))
}

// RemoveAllInList clears listType, then reloads the current list and counts.
func (s *Store) RemoveAllInList(ctx context.Context, listType models.ListType) error {
	if !listType.Valid() {
		return fmt.Errorf("cannot clear %q", listType)
	}
	err := s.backend.ClearList(ctx, listType)
	if err != nil {
		err = fmt.Errorf("failed to clear %s list: %w", listType, err)
	}
	return errors.Join(err, s.reload(ctx))
}

// RemoveSelected deletes each id, continuing past failures, then reloads.
func (s *Store) RemoveSelected(ctx context.Context, ids []models.ID) error {
	var errs []error
	for _, id := range ids {
		if err := s.backend.DeleteRow(ctx, id); err != nil {
			s.logger.Warn("failed to remove selected row", "id", id, "error", err)
			errs = append(errs, fmt.Errorf("row %s: %w", id, err))
		}
	}
	errs = append(errs, s.reload(ctx))
	return errors.Join(errs...)
}

func (s *Store) reload(ctx context.Context) error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()

	var err error
	if current != "" {
		err = s.LoadList(ctx, current)
	}
	s.RefreshCounts(ctx)
	return err
}

// SetQuery sets the search used by the matching list.
func (s *Store) SetQuery(q models.TargetingQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

func (s *Store) Query() models.TargetingQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetCompanyFilter restricts rows and counts to the given companies. An
// empty set removes the filter.
func (s *Store) SetCompanyFilter(ids []models.ID) {
	s.mu.Lock()
	if len(ids) == 0 {
		s.filter = nil
	} else {
		s.filter = make(map[models.ID]struct{}, len(ids))
		for _, id := range ids {
			s.filter[id] = struct{}{}
		}
	}
	s.mu.Unlock()
	s.notify()
}

// CompanyFilter returns the selected company ids in no particular order.
func (s *Store) CompanyFilter() []models.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]models.ID, 0, len(s.filter))
	for id := range s.filter {
		ids = append(ids, id)
	}
	return ids
}

func (s *Store) passes(row *models.InvestorListRow) bool {
	if s.filter == nil {
		return true
	}
	_, ok := s.filter[row.CompanyID]
	return ok
}

// Current returns the displayed list type.
func (s *Store) Current() models.ListType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Rows returns copies of the displayed rows in order, with the company
// filter applied. It is empty in matching mode.
func (s *Store) Rows() []models.InvestorListRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == models.ListMatching {
		return nil
	}
	out := make([]models.InvestorListRow, 0, len(s.order))
	for _, id := range s.order {
		row, ok := s.rows[id]
		if !ok || !s.passes(row) {
			continue
		}
		out = append(out, *row)
	}
	return out
}

// Row returns the displayed row with id.
func (s *Store) Row(id models.ID) (models.InvestorListRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return models.InvestorListRow{}, false
	}
	return *row, true
}

// SearchResults returns the last matching-mode page.
func (s *Store) SearchResults() *models.TargetingPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// Counts returns the unfiltered counts.
func (s *Store) Counts() models.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// CachedRows returns the cached rows of listType, as last refreshed or patched.
func (s *Store) CachedRows(listType models.ListType) []models.InvestorListRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cache[listType])
}

// DisplayCounts returns the counts to badge each list with. With a company
// filter they are derived from the cached lists so they match what renders.
func (s *Store) DisplayCounts() models.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter == nil {
		return s.counts
	}
	var c models.Counts
	for _, lt := range models.DisplayLists {
		n := 0
		for i := range s.cache[lt] {
			if s.passes(&s.cache[lt][i]) {
				n++
			}
		}
		c.Set(lt, n)
	}
	return c
}

// Attach subscribes the store to list and outcome events. The returned
// func unsubscribes.
func (s *Store) Attach(d *events.Dispatcher) func() {
	offList := d.Subscribe(events.ListChanged, func(_ context.Context, evt events.Event) {
		change, ok := evt.Detail.(events.ListChange)
		if !ok {
			s.logger.Warn("unexpected list event detail", "type", fmt.Sprintf("%T", evt.Detail))
			return
		}
		s.applyListChange(change)
		s.notify()
	})
	offOutcome := d.Subscribe(events.PostMeetOutcomeSaved, func(_ context.Context, evt events.Event) {
		detail, ok := evt.Detail.(events.OutcomeDetail)
		if !ok || detail.Meeting == nil {
			return
		}
		s.applyMeetingOutcome(detail)
		s.notify()
	})
	return func() {
		offList()
		offOutcome()
	}
}

func (s *Store) applyListChange(change events.ListChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch change.Action {
	case events.ActionAdded:
		if change.Item == nil {
			return
		}
		row := *change.Item
		if s.current == change.ListType {
			if _, exists := s.rows[row.ID]; !exists {
				s.rows[row.ID] = &row
				s.order = append([]models.ID{row.ID}, s.order...)
			}
		}
		s.cache[change.ListType] = append(s.cache[change.ListType], row)
		s.counts.Add(change.ListType, 1)

	case events.ActionConfirmed:
		if change.Item == nil {
			return
		}
		row := *change.Item
		row.Optimistic = false
		if row.ListType == "" {
			row.ListType = change.ListType
		}
		if _, ok := s.rows[change.TempID]; ok {
			delete(s.rows, change.TempID)
			if _, dup := s.rows[row.ID]; dup {
				s.order = slices.DeleteFunc(s.order, func(id models.ID) bool { return id == change.TempID })
			} else {
				for i, id := range s.order {
					if id == change.TempID {
						s.order[i] = row.ID
					}
				}
			}
			s.rows[row.ID] = &row
		}
		hadTemp := false
		cached := slices.DeleteFunc(s.cache[change.ListType], func(r models.InvestorListRow) bool {
			if r.ID == change.TempID {
				hadTemp = true
				return true
			}
			return false
		})
		if i := slices.IndexFunc(cached, func(r models.InvestorListRow) bool { return r.ID == row.ID }); i >= 0 {
			cached[i] = row
			if hadTemp {
				s.counts.Add(change.ListType, -1)
			}
		} else {
			cached = append(cached, row)
			if !hadTemp {
				s.counts.Add(change.ListType, 1)
			}
		}
		s.cache[change.ListType] = cached

	case events.ActionRemoved:
		// A converted row keeps its id, so only the named list loses it.
		inCurrent := change.ListType == "" || change.ListType == s.current
		if _, ok := s.rows[change.ID]; ok && inCurrent {
			delete(s.rows, change.ID)
			s.order = slices.DeleteFunc(s.order, func(id models.ID) bool { return id == change.ID })
		}
		lists := []models.ListType{change.ListType}
		if change.ListType == "" {
			lists = models.DisplayLists
		}
		for _, lt := range lists {
			before := len(s.cache[lt])
			s.cache[lt] = slices.DeleteFunc(s.cache[lt], func(r models.InvestorListRow) bool { return r.ID == change.ID })
			if len(s.cache[lt]) < before {
				s.counts.Add(lt, len(s.cache[lt])-before)
			}
		}
	}
}

func (s *Store) applyMeetingOutcome(detail events.OutcomeDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == models.ListMeeting {
		for _, row := range s.rows {
			if row.SamePair(detail.InvestorID, detail.CompanyID) {
				ApplyMeeting(&row.Snapshot, detail.Meeting)
			}
		}
	}
	cached := s.cache[models.ListMeeting]
	for i := range cached {
		if cached[i].SamePair(detail.InvestorID, detail.CompanyID) {
			ApplyMeeting(&cached[i].Snapshot, detail.Meeting)
		}
	}
}
