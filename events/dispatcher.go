// ABOUTME: In-process publish/subscribe dispatcher for cross-component state propagation
// ABOUTME: Synchronous delivery in subscription order with per-handler panic isolation
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/confideleapcrm/irdesk/models"
)

// Name identifies an event channel.
type Name string

const (
	ListChanged          Name = "investorListChanged"
	MeetingCreated       Name = "investorMeetingCreated"
	FollowupCreated      Name = "investorFollowupCreated"
	InteractionCreated   Name = "investorInteractionCreated"
	PostMeetOutcomeSaved Name = "investorPostMeetOutcomeSaved"
)

// Action describes what happened to a list row.
type Action string

const (
	ActionAdded     Action = "added"
	ActionConfirmed Action = "confirmed"
	ActionRemoved   Action = "removed"
)

// Event is a named notification with a payload.
type Event struct {
	Name   Name
	Detail any
}

// ListChange is the detail of a ListChanged event.
//
// added carries Item (the optimistic row); confirmed carries TempID and the
// server Item; removed carries ID (temp or server id).
type ListChange struct {
	Action   Action
	ListType models.ListType
	Item     *models.InvestorListRow
	TempID   models.ID
	ID       models.ID
}

// MeetingDetail is the detail of MeetingCreated.
type MeetingDetail struct {
	Meeting models.Meeting
}

// FollowupDetail is the detail of FollowupCreated.
type FollowupDetail struct {
	Followup models.Followup
}

// InteractionDetail is the detail of InteractionCreated.
type InteractionDetail struct {
	Interaction models.Interaction
}

// OutcomeDetail is the detail of PostMeetOutcomeSaved.
type OutcomeDetail struct {
	InvestorID models.ID
	CompanyID  models.ID
	Meeting    *models.Meeting
	Outcome    string
}

// Handler receives published events.
type Handler func(context.Context, Event)

type subscription struct {
	id      int64
	handler Handler
}

// Dispatcher fans events out to subscribers. It holds no history: events
// published while nobody is subscribed are lost.
type Dispatcher struct {
	mu     sync.RWMutex
	subs   map[Name][]subscription
	nextID int64
	logger *slog.Logger
}

// NewDispatcher creates an isolated dispatcher.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		subs:   make(map[Name][]subscription),
		logger: logger,
	}
}

// Subscribe registers h for name and returns a func that removes it.
func (d *Dispatcher) Subscribe(name Name, h Handler) func() {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	d.subs[name] = append(d.subs[name], subscription{id: id, handler: h})
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			list := d.subs[name]
			for i, s := range list {
				if s.id == id {
					d.subs[name] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers evt to every current subscriber before returning.
func (d *Dispatcher) Publish(ctx context.Context, evt Event) {
	if d == nil {
		return
	}
	d.mu.RLock()
	handlers := make([]subscription, len(d.subs[evt.Name]))
	copy(handlers, d.subs[evt.Name])
	d.mu.RUnlock()

	for _, s := range handlers {
		d.deliver(ctx, s, evt)
	}
}

// PublishList is shorthand for a ListChanged event.
func (d *Dispatcher) PublishList(ctx context.Context, change ListChange) {
	d.Publish(ctx, Event{Name: ListChanged, Detail: change})
}

func (d *Dispatcher) deliver(ctx context.Context, s subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked", "event", evt.Name, "subscription", s.id, "panic", r)
		}
	}()
	s.handler(ctx, evt)
}

// Subscribers returns the number of handlers registered for name.
func (d *Dispatcher) Subscribers(name Name) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs[name])
}
