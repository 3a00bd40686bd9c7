// Package connection implements the connection-request aggregate for the
// Kinship social graph.
//
// PURPOSE: Represents the authoritative record of a connection request
// between two members, from the moment one member reaches out until the
// addressee accepts or declines. The set of all accepted records forms the
// undirected social graph the rest of the product (mutual counts,
// suggestions, trust scores, messaging gate) is derived from.
//
// DOMAIN ROLE: Record is an Aggregate Root. All mutation goes through the
// two named operations — creation (sendRequest) and resolution (respond) —
// and each mutation emits exactly one domain event for the notification
// layer to fan out.
//
// KEY RULES:
//   - One record per unordered member pair, in any status. A declined
//     record still blocks a new request; re-requests after decline are an
//     explicit non-goal of the current design.
//   - pending is the only non-terminal status. accepted and declined are
//     terminal; no transition leaves a terminal state.
//   - respondedAt is set if and only if the record is terminal.
package connection

import (
	"time"

	"kinship-backend/internal/domain/shared"
)

// Status is the lifecycle state of a connection record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusDeclined
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined:
		return true
	}
	return false
}

// Decision is the addressee's answer to a pending request. It is a subset of
// Status on purpose: pending is not a decision.
type Decision = Status

// RelationStatus is the connection state between two members as seen by a
// specific viewer. The UI renders its button state directly from this.
type RelationStatus string

const (
	RelationNone            RelationStatus = "none"
	RelationPendingSent     RelationStatus = "pending_sent"
	RelationPendingReceived RelationStatus = "pending_received"
	RelationAccepted        RelationStatus = "accepted"
	RelationDeclined        RelationStatus = "declined"
)

// Record represents a single connection request between two members.
// This is a rich domain model: state transitions are methods that enforce
// the state machine and emit domain events.
type Record struct {
	id          shared.ConnectionID
	requesterID shared.MemberID
	addresseeID shared.MemberID
	status      Status
	createdAt   time.Time
	respondedAt *time.Time

	events []shared.DomainEvent
}

// NewRecord creates a pending connection request with validation.
//
// Rules enforced:
//   - requester and addressee must be different members
//   - the record starts pending with no respondedAt
//   - a ConnectionRequested event is generated
//
// Pair uniqueness is deliberately NOT checked here: two independent clients
// can race on the same pair, so uniqueness over the unordered pair is
// enforced by the repository's conditional write, not in memory.
func NewRecord(requesterID, addresseeID shared.MemberID) (*Record, error) {
	if requesterID.Equals(addresseeID) {
		return nil, shared.ErrSelfConnection
	}

	record := &Record{
		id:          shared.NewConnectionID(),
		requesterID: requesterID,
		addresseeID: addresseeID,
		status:      StatusPending,
		createdAt:   time.Now(),
	}

	record.addEvent(shared.NewConnectionChangedEvent(
		shared.EventTypeConnectionRequested, record.id, requesterID, addresseeID, string(StatusPending)))

	return record, nil
}

// Reconstruct creates a record from persistence (no events generated).
func Reconstruct(id shared.ConnectionID, requesterID, addresseeID shared.MemberID, status Status, createdAt time.Time, respondedAt *time.Time) *Record {
	return &Record{
		id:          id,
		requesterID: requesterID,
		addresseeID: addresseeID,
		status:      status,
		createdAt:   createdAt,
		respondedAt: respondedAt,
	}
}

// Getters (read-only access to internal state)

// ID returns the connection record identifier.
func (r *Record) ID() shared.ConnectionID {
	return r.id
}

// RequesterID returns the member who sent the request.
func (r *Record) RequesterID() shared.MemberID {
	return r.requesterID
}

// AddresseeID returns the member the request was sent to.
func (r *Record) AddresseeID() shared.MemberID {
	return r.addresseeID
}

// Status returns the current lifecycle state.
func (r *Record) Status() Status {
	return r.status
}

// CreatedAt returns when the request was sent.
func (r *Record) CreatedAt() time.Time {
	return r.createdAt
}

// RespondedAt returns when the request was resolved, or nil while pending.
func (r *Record) RespondedAt() *time.Time {
	return r.respondedAt
}

// PairKey returns the canonical key for the unordered pair of members.
func (r *Record) PairKey() string {
	return shared.PairKey(r.requesterID, r.addresseeID)
}

// Involves reports whether the record touches the given member.
func (r *Record) Involves(memberID shared.MemberID) bool {
	return r.requesterID.Equals(memberID) || r.addresseeID.Equals(memberID)
}

// Other returns the member on the opposite side of the record from memberID.
func (r *Record) Other(memberID shared.MemberID) shared.MemberID {
	if r.requesterID.Equals(memberID) {
		return r.addresseeID
	}
	return r.requesterID
}

// IsAcceptedEdge reports whether this record contributes an undirected edge
// to the social graph.
func (r *Record) IsAcceptedEdge() bool {
	return r.status == StatusAccepted
}

// Business Methods

// Respond resolves a pending request with the addressee's decision.
//
// Rules enforced:
//   - only the addressee may respond
//   - a terminal record cannot be resolved again (first write wins; the
//     repository enforces the same rule with a conditional update so two
//     racing responders cannot both succeed)
//   - respondedAt is set together with the terminal status
func (r *Record) Respond(decision Decision, respondingMemberID shared.MemberID) error {
	if !r.addresseeID.Equals(respondingMemberID) {
		return shared.ErrNotAddressee
	}
	if r.status.IsTerminal() {
		return shared.ErrAlreadyResolved
	}
	if decision != StatusAccepted && decision != StatusDeclined {
		return shared.ErrUnknownDecision
	}

	now := time.Now()
	r.status = decision
	r.respondedAt = &now

	eventType := shared.EventTypeConnectionAccepted
	if decision == StatusDeclined {
		eventType = shared.EventTypeConnectionDeclined
	}
	r.addEvent(shared.NewConnectionChangedEvent(eventType, r.id, r.requesterID, r.addresseeID, string(decision)))

	return nil
}

// RelationTo returns the viewer-relative status of this record.
func (r *Record) RelationTo(viewerID shared.MemberID) RelationStatus {
	switch r.status {
	case StatusAccepted:
		return RelationAccepted
	case StatusDeclined:
		return RelationDeclined
	case StatusPending:
		if r.requesterID.Equals(viewerID) {
			return RelationPendingSent
		}
		return RelationPendingReceived
	}
	return RelationNone
}

// ValidateInvariants ensures all business rules are satisfied.
func (r *Record) ValidateInvariants() error {
	if r.requesterID.Equals(r.addresseeID) {
		return shared.ErrSelfConnection
	}
	if !r.status.IsValid() {
		return shared.ErrUnknownDecision
	}
	if r.status.IsTerminal() != (r.respondedAt != nil) {
		return shared.ErrInvalidRecordState
	}
	if r.id.IsEmpty() || r.createdAt.IsZero() {
		return shared.ErrInvalidRecordState
	}
	return nil
}

// Domain events

// UncommittedEvents returns events that haven't been published yet.
func (r *Record) UncommittedEvents() []shared.DomainEvent {
	return r.events
}

// MarkEventsCommitted clears the events after publication.
func (r *Record) MarkEventsCommitted() {
	r.events = nil
}

func (r *Record) addEvent(event shared.DomainEvent) {
	r.events = append(r.events, event)
}
