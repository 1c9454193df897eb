package models

// TransactionStatus is the ordered lifecycle of a ledger transaction and its
// entries. Soft deletion is tracked separately so a deleted record keeps the
// last status it reached.
type TransactionStatus string

const (
	StatusDraft    TransactionStatus = "Draft"
	StatusProposed TransactionStatus = "Proposed"
	StatusPosted   TransactionStatus = "Posted"
	StatusApproved TransactionStatus = "Approved"
)

var statusRank = map[TransactionStatus]int{
	StatusDraft:    0,
	StatusProposed: 1,
	StatusPosted:   2,
	StatusApproved: 3,
}

// Rank returns the position of the status in the lifecycle order.
// Unknown statuses rank below Draft.
func (s TransactionStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// CanTransition reports whether the lifecycle allows moving to the target
// status. Only single forward steps are legal: Draft -> Proposed -> Posted
// -> Approved.
func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	target, ok := statusRank[to]
	if !ok {
		return false
	}
	return target == from+1
}

// LifecycleFlags is the legacy four-boolean view of the lifecycle, kept on
// the wire for compatibility with existing consumers of the record layer.
type LifecycleFlags struct {
	WasProposed bool `json:"wasProposed"`
	WasPosted   bool `json:"wasPosted"`
	WasApproved bool `json:"wasApproved"`
	WasDeleted  bool `json:"wasDeleted"`
}

// DeriveFlags expands a status plus the deleted marker into the legacy flag
// set. Flags are cumulative: an approved transaction was also proposed and
// posted.
func DeriveFlags(status TransactionStatus, deleted bool) LifecycleFlags {
	rank := status.Rank()
	return LifecycleFlags{
		WasProposed: rank >= statusRank[StatusProposed],
		WasPosted:   rank >= statusRank[StatusPosted],
		WasApproved: rank >= statusRank[StatusApproved],
		WasDeleted:  deleted,
	}
}

// StatusFromFlags collapses legacy flags back into the ordered status,
// taking the furthest stage reached.
func StatusFromFlags(flags LifecycleFlags) (TransactionStatus, bool) {
	status := StatusDraft
	if flags.WasProposed {
		status = StatusProposed
	}
	if flags.WasPosted {
		status = StatusPosted
	}
	if flags.WasApproved {
		status = StatusApproved
	}
	return status, flags.WasDeleted
}
