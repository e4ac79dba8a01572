// ABOUTME: Shared company id to name cache for activity rows
// ABOUTME: Loads the company directory in one batch the first time an id is unknown
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/confideleapcrm/irdesk/models"
)

// DirectoryPageSize is how many companies one directory load fetches.
const DirectoryPageSize = 1000

type CompanySource interface {
	SearchCompanies(ctx context.Context, query string, limit int) ([]models.Company, error)
}

// Directory is safe for concurrent use.
type Directory struct {
	src    CompanySource
	logger *slog.Logger

	fetchMu sync.Mutex

	mu     sync.RWMutex
	names  map[models.ID]string
	loaded bool
}

func NewDirectory(src CompanySource, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{src: src, logger: logger, names: make(map[models.ID]string)}
}

func (d *Directory) CompanyName(id models.ID) (string, bool) {
	if d == nil {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[id]
	return name, ok
}

// Ensure loads the directory if any of ids is unknown and it has not been
// loaded yet. A failed load is retried on the next call.
func (d *Directory) Ensure(ctx context.Context, ids []models.ID) error {
	if !d.missing(ids) {
		return nil
	}
	d.fetchMu.Lock()
	defer d.fetchMu.Unlock()
	if !d.missing(ids) {
		return nil
	}
	return d.fetch(ctx)
}

// Load fetches the directory unless it is already loaded.
func (d *Directory) Load(ctx context.Context) error {
	d.fetchMu.Lock()
	defer d.fetchMu.Unlock()
	d.mu.RLock()
	loaded := d.loaded
	d.mu.RUnlock()
	if loaded {
		return nil
	}
	return d.fetch(ctx)
}

func (d *Directory) fetch(ctx context.Context) error {
	companies, err := d.src.SearchCompanies(ctx, "", DirectoryPageSize)
	if err != nil {
		return fmt.Errorf("failed to load company directory: %w", err)
	}
	d.mu.Lock()
	for _, c := range companies {
		d.names[c.ID] = c.Name
	}
	d.loaded = true
	d.mu.Unlock()
	d.logger.Debug("company directory loaded", "companies", len(companies))
	return nil
}

func (d *Directory) missing(ids []models.ID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.loaded {
		return false
	}
	for _, id := range ids {
		if id.IsZero() {
			continue
		}
		if _, ok := d.names[id]; !ok {
			return true
		}
	}
	return false
}

// Put records a name learned elsewhere.
func (d *Directory) Put(c models.Company) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[c.ID] = c.Name
}

// Companies returns the known companies sorted by name.
func (d *Directory) Companies() []models.Company {
	d.mu.RLock()
	out := make([]models.Company, 0, len(d.names))
	for id, name := range d.names {
		out = append(out, models.Company{ID: id, Name: name})
	}
	d.mu.RUnlock()
	slices.SortFunc(out, func(a, b models.Company) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

// Fetcher is the part of the API client that lists an investor's records.
type Fetcher interface {
	ListMeetings(ctx context.Context, investorID models.ID) ([]models.Meeting, error)
	ListFollowups(ctx context.Context, investorID models.ID) ([]models.Followup, error)
	ListInteractions(ctx context.Context, investorID models.ID) ([]models.Interaction, error)
}

// ForInvestor fetches the three collections concurrently, resolves company
// names and builds the timeline. A directory failure falls back to the
// names carried on the records.
func ForInvestor(ctx context.Context, f Fetcher, dir *Directory, investorID models.ID, filters Filters) (Result, error) {
	var (
		meetings     []models.Meeting
		followups    []models.Followup
		interactions []models.Interaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		meetings, err = f.ListMeetings(gctx, investorID)
		return err
	})
	g.Go(func() (err error) {
		followups, err = f.ListFollowups(gctx, investorID)
		return err
	})
	g.Go(func() (err error) {
		interactions, err = f.ListInteractions(gctx, investorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("failed to load activity for investor %s: %w", investorID, err)
	}

	if dir != nil {
		var ids []models.ID
		for _, m := range meetings {
			ids = append(ids, m.CompanyID)
		}
		for _, fu := range followups {
			ids = append(ids, fu.CompanyID)
		}
		for _, in := range interactions {
			ids = append(ids, in.CompanyID)
		}
		if err := dir.Ensure(ctx, ids); err != nil {
			dir.logger.Warn("company names unavailable", "error", err)
		}
	}
	return Build(meetings, followups, interactions, dir, filters), nil
}
