// Package transfer executes copy and move batches across the local/remote boundary. Items run
// strictly one after another; each is classified by locality and type, checked against a
// batch-wide collision decision, transferred with byte-accounted progress and, for moves,
// deleted at the source only after the copy succeeded.
package transfer

import (
	"errors"
	"time"
)

// Exported variables.
var (
	ErrBatchActive    = errors.New("a transfer batch is already running")
	ErrBatchCancelled = errors.New("transfer batch cancelled")
	ErrNoDestination  = errors.New("no destination directory")
	ErrSameLocation   = errors.New("source and destination are the same")
)

// Op is the user-facing operation of a batch.
type Op int

// Op values.
const (
	OpCopy Op = iota
	OpMove
)

func (o Op) String() string {
	if o == OpMove {
		return "move"
	}

	return "copy"
}

// Decision is the single batch-wide answer to destination name collisions.
type Decision int

// Decision values.
const (
	OverwriteAll Decision = iota
	SkipAll
	// CancelBatch is honoured for moves only; a copy treats it as SkipAll.
	CancelBatch
)

func (d Decision) String() string {
	switch d {
	case OverwriteAll:
		return "overwrite"
	case SkipAll:
		return "skip"
	case CancelBatch:
		return "cancel"
	}

	return "unknown"
}

// CollisionResolver is asked once per batch when any destination name already exists.
type CollisionResolver func(op Op, names []string) Decision

// ItemState is the position of one item in its per-item state machine.
type ItemState int

// ItemState values.
const (
	Pending ItemState = iota
	CollisionCheck
	Skipped
	Overwriting
	InFlight
	Succeeded
	PendingDeletion
	Deleted
	DeleteFailed
	Failed
)

var itemStateNames = [...]string{
	Pending:         "pending",
	CollisionCheck:  "collision-check",
	Skipped:         "skipped",
	Overwriting:     "overwriting",
	InFlight:        "in-flight",
	Succeeded:       "succeeded",
	PendingDeletion: "pending-deletion",
	Deleted:         "deleted",
	DeleteFailed:    "delete-failed",
	Failed:          "failed",
}

func (s ItemState) String() string {
	if s < 0 || int(s) >= len(itemStateNames) {
		return "unknown"
	}

	return itemStateNames[s]
}

// Terminal reports whether no further transition follows s.
func (s ItemState) Terminal() bool {
	switch s {
	case Skipped, Succeeded, Deleted, DeleteFailed, Failed:
		return true
	case Pending, CollisionCheck, Overwriting, InFlight, PendingDeletion:
		return false
	}

	return false
}

// Succeeded reports whether the item's bytes reached the destination. A failed source delete
// after a successful move-copy still counts.
func (s ItemState) Succeeded() bool {
	return s == Succeeded || s == Deleted || s == DeleteFailed
}

// Batch is one user-initiated copy or move of several sources into one directory.
type Batch struct {
	Op      Op
	Sources []string
	DestDir string
}

// ItemResult is the outcome of one source.
type ItemResult struct {
	Source string
	Dest   string
	Kind   Kind
	IsDir  bool
	State  ItemState
	// Bytes is the item's fixed estimate, folded into the completed bytes on success.
	Bytes int64
	// Reason explains a skip.
	Reason string
	Err    error
}

// BatchResult is the outcome of one batch.
type BatchResult struct {
	Op             Op
	DestDir        string
	Items          []ItemResult
	TotalBytes     int64
	CompletedBytes int64
	// Resynced lists the mirror directories re-listed after the batch.
	Resynced  []string
	Cancelled bool
	Duration  time.Duration
}

// Count returns how many items ended in one of the given states.
func (r *BatchResult) Count(states ...ItemState) int {
	count := 0

	for _, item := range r.Items {
		for _, state := range states {
			if item.State == state {
				count++

				break
			}
		}
	}

	return count
}

// SucceededCount counts items whose bytes reached the destination.
func (r *BatchResult) SucceededCount() int {
	return r.Count(Succeeded, Deleted, DeleteFailed)
}

// ProgressSnapshot is one observation of batch progress.
type ProgressSnapshot struct {
	Item string
	// Index is the 1-based position of the current item, Total the number of items.
	Index    int
	Total    int
	Progress float64
	// Speed is in bytes per second.
	Speed          float64
	ETA            time.Duration
	Op             Op
	Completed      bool
	CompletedBytes int64
	TotalBytes     int64
}
