// ABOUTME: Lifecycle of a single optimistic mutation
// ABOUTME: Pending until the server confirms it or the write fails and it is rolled back
package outreach

import (
	"fmt"

	"github.com/confideleapcrm/irdesk/db"
	"github.com/confideleapcrm/irdesk/models"
)

type State int

const (
	Pending State = iota
	Confirmed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return db.MutationPending
	case Confirmed:
		return db.MutationConfirmed
	case RolledBack:
		return db.MutationRolledBack
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Mutation tracks one optimistic row from creation to resolution.
type Mutation struct {
	Kind       string
	TempID     models.ID
	ListType   models.ListType
	InvestorID models.ID
	CompanyID  models.ID

	state    State
	serverID models.ID
	err      error
}

func newMutation(kind string, row *models.InvestorListRow) *Mutation {
	return &Mutation{
		Kind:       kind,
		TempID:     row.ID,
		ListType:   row.ListType,
		InvestorID: row.InvestorID,
		CompanyID:  row.CompanyID,
	}
}

func (m *Mutation) State() State {
	return m.state
}

// ServerID is the id of the confirmed row.
func (m *Mutation) ServerID() models.ID {
	return m.serverID
}

// Err is the failure that rolled the mutation back.
func (m *Mutation) Err() error {
	return m.err
}

// Confirm moves a pending mutation to Confirmed.
func (m *Mutation) Confirm(serverID models.ID) error {
	if m.state != Pending {
		return fmt.Errorf("cannot confirm %s mutation %s", m.state, m.TempID)
	}
	m.state = Confirmed
	m.serverID = serverID
	return nil
}

// RollBack moves a pending mutation to RolledBack.
func (m *Mutation) RollBack(cause error) error {
	if m.state != Pending {
		return fmt.Errorf("cannot roll back %s mutation %s", m.state, m.TempID)
	}
	m.state = RolledBack
	m.err = cause
	return nil
}

func (m *Mutation) record() db.MutationRecord {
	rec := db.MutationRecord{
		TempID:     m.TempID.String(),
		Kind:       m.Kind,
		ListType:   string(m.ListType),
		InvestorID: m.InvestorID.String(),
		CompanyID:  m.CompanyID.String(),
		State:      m.state.String(),
		ServerID:   m.serverID.String(),
	}
	if m.err != nil {
		rec.ErrorMessage = m.err.Error()
	}
	return rec
}
