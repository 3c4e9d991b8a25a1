package worker

import "fmt"

// Stage names a step of a run, for diagnostics.
type Stage string

const (
	StageTopIDs    Stage = "top-ID fetch"
	StageRoots     Stage = "root-item fetch"
	StageChildren  Stage = "child-item fetch"
	StageAggregate Stage = "aggregation"
)

// StageError ties a failure to the stage and item that caused it.
type StageError struct {
	Stage  Stage
	ItemID int // 0 when the failure is not about a single item
	Err    error
}

func (e *StageError) Error() string {
	if e.ItemID != 0 {
		return fmt.Sprintf("%s failed for item %d: %v", e.Stage, e.ItemID, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
