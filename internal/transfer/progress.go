package transfer

import (
	"time"

	"github.com/joe/pane-mirror/internal/clock"
)

// Exported constants.
const (
	// ThrottleInterval bounds snapshot delivery to five per second.
	ThrottleInterval = 200 * time.Millisecond
	// FloorSpeed is reported until the transfer tool reports its first byte.
	FloorSpeed = 10 * 1024 * 1024
)

// Aggregator folds per-item byte reports into batch-wide snapshots. Progress never decreases
// within a batch and stays within [0, 1]. Not safe for concurrent use; the runner serializes
// its callbacks.
type Aggregator struct {
	clock   clock.TimeProvider
	emitter EventEmitter
	op      Op

	totalBytes     int64
	completedBytes int64
	totalItems     int

	item        string
	index       int
	itemSize    int64
	transferred int64
	itemStart   time.Time
	speed       float64

	reported float64
	lastEmit time.Time
}

// NewAggregator creates an Aggregator for a batch with a fixed byte estimate.
func NewAggregator(op Op, totalBytes int64, totalItems int, timeProvider clock.TimeProvider, emitter EventEmitter) *Aggregator {
	if emitter == nil {
		emitter = nopEmitter{}
	}

	return &Aggregator{
		clock:      timeProvider,
		emitter:    emitter,
		op:         op,
		totalBytes: totalBytes,
		totalItems: totalItems,
	}
}

// StartItem begins the index-th item (1-based) and always publishes its 0% snapshot.
func (a *Aggregator) StartItem(index int, name string, size int64) {
	a.item = name
	a.index = index
	a.itemSize = size
	a.transferred = 0
	a.speed = 0
	a.itemStart = a.clock.Now()

	a.publish(false)
}

// Update records the bytes transferred so far within the current item and the tool's speed.
// Snapshots are throttled except the one reaching the item's size.
func (a *Aggregator) Update(bytes int64, speed float64) {
	if bytes < a.transferred {
		bytes = a.transferred
	}

	if a.itemSize > 0 && bytes > a.itemSize {
		bytes = a.itemSize
	}

	a.transferred = bytes
	a.speed = speed

	reachedEnd := a.itemSize > 0 && bytes == a.itemSize
	if !reachedEnd && a.clock.Now().Sub(a.lastEmit) < ThrottleInterval {
		return
	}

	a.publish(false)
}

// FinishItem ends the current item. A successful item folds its full estimate into the
// completed bytes; a failed one contributes nothing. The completion snapshot is always
// published.
func (a *Aggregator) FinishItem(success bool) {
	if success {
		a.completedBytes += a.itemSize
	}

	a.transferred = 0

	a.publish(true)
}

// CompletedBytes returns the sum of the estimates of successful items so far.
func (a *Aggregator) CompletedBytes() int64 {
	return a.completedBytes
}

// Snapshot returns the current state without publishing it.
func (a *Aggregator) Snapshot() ProgressSnapshot {
	progress := a.fraction()
	if progress < a.reported {
		progress = a.reported
	}

	speed := a.currentSpeed()

	var eta time.Duration

	remaining := a.totalBytes - a.completedBytes - a.counted()
	if speed > 0 && remaining > 0 {
		eta = time.Duration(float64(remaining) / speed * float64(time.Second))
	}

	return ProgressSnapshot{
		Item:           a.item,
		Index:          a.index,
		Total:          a.totalItems,
		Progress:       progress,
		Speed:          speed,
		ETA:            eta,
		Op:             a.op,
		CompletedBytes: a.completedBytes,
		TotalBytes:     a.totalBytes,
	}
}

func (a *Aggregator) publish(completed bool) {
	snapshot := a.Snapshot()
	snapshot.Completed = completed

	a.reported = snapshot.Progress
	a.lastEmit = a.clock.Now()

	a.emitter.Emit(ProgressUpdated{Snapshot: snapshot})
}

func (a *Aggregator) fraction() float64 {
	if a.totalBytes <= 0 {
		return 1
	}

	fraction := float64(a.completedBytes+a.counted()) / float64(a.totalBytes)

	return min(1, max(0, fraction))
}

// counted is the share of the current item's bytes that moves the batch fraction. An item
// without an estimate has no share in the total, so its bytes only feed the speed.
func (a *Aggregator) counted() int64 {
	if a.itemSize <= 0 {
		return 0
	}

	return a.transferred
}

// currentSpeed prefers the tool's figure, then the observed item rate, then the floor.
func (a *Aggregator) currentSpeed() float64 {
	if a.speed > 0 {
		return a.speed
	}

	if a.transferred == 0 {
		return FloorSpeed
	}

	elapsed := a.clock.Now().Sub(a.itemStart).Seconds()
	if elapsed <= 0 {
		return FloorSpeed
	}

	return float64(a.transferred) / elapsed
}
