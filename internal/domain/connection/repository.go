package connection

import (
	"context"

	"kinship-backend/internal/domain/shared"
)

// Page describes offset pagination for list reads.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPage is used when the caller does not specify pagination.
var DefaultPage = Page{Limit: 50, Offset: 0}

// Repository is the persistence port for connection records.
//
// Implementations back the two correctness rules the ledger relies on at the
// storage layer, because independent client processes are not co-located and
// cannot coordinate with in-process locks:
//
//   - Create enforces uniqueness over the unordered member pair: of two
//     concurrent creates for the same pair, exactly one succeeds and the
//     other fails with ErrDuplicateConnection.
//   - Resolve is conditional on the record still being pending: of two
//     concurrent resolutions, the first write wins and the second fails
//     with ErrAlreadyResolved.
type Repository interface {
	// Create persists a new pending record.
	// Fails with shared.ErrDuplicateConnection if any record exists for the
	// unordered pair, regardless of status.
	Create(ctx context.Context, record *Record) error

	// FindByID returns the record with the given id.
	// Fails with shared.ErrConnectionNotFound if the id is unknown.
	FindByID(ctx context.Context, id shared.ConnectionID) (*Record, error)

	// FindByPair returns the record for the unordered pair {a, b} in any
	// status, or shared.ErrConnectionNotFound if none exists.
	FindByPair(ctx context.Context, a, b shared.MemberID) (*Record, error)

	// Resolve persists the terminal status of a record that was resolved in
	// memory via Record.Respond. Fails with shared.ErrAlreadyResolved if the
	// stored record is no longer pending, and shared.ErrConnectionNotFound
	// if it vanished.
	Resolve(ctx context.Context, record *Record) error

	// FindByMember lists records involving the member, optionally filtered
	// by status, ordered by creation time descending.
	FindByMember(ctx context.Context, memberID shared.MemberID, status *Status, page Page) ([]*Record, error)

	// AcceptedNeighbors returns the members with an accepted edge to memberID.
	AcceptedNeighbors(ctx context.Context, memberID shared.MemberID) ([]shared.MemberID, error)

	// RelatedMembers returns every member with a record involving memberID
	// in any status. This is the suggestion generator's exclusion set.
	RelatedMembers(ctx context.Context, memberID shared.MemberID) ([]shared.MemberID, error)

	// CountAcceptedByMember returns the member's accepted-edge count, used
	// by the trust aggregator without materializing the neighbor list.
	CountAcceptedByMember(ctx context.Context, memberID shared.MemberID) (int, error)
}
