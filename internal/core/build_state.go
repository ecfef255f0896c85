package core

import "time"

// Lifecycle is the per-build reporting state. A build moves from Started to
// Finished and never back; repeated Finished transitions are recorded again.
type Lifecycle string

const (
	LifecycleStarted  Lifecycle = "started"
	LifecycleFinished Lifecycle = "finished"
)

// LifecycleOf maps an event kind onto the lifecycle state it produces.
func LifecycleOf(kind EventKind) Lifecycle {
	if kind == EventNew {
		return LifecycleStarted
	}
	return LifecycleFinished
}

// BuildState is the last transition a reporter pushed for a build.
type BuildState struct {
	ID          int64     `db:"id" json:"id"`
	Reporter    string    `db:"reporter" json:"reporter"`
	BuildID     int64     `db:"build_id" json:"build_id"`
	BuilderName string    `db:"builder_name" json:"builder_name"`
	BuildNumber int       `db:"build_number" json:"build_number"`
	Lifecycle   Lifecycle `db:"lifecycle" json:"lifecycle"`
	RemoteState string    `db:"remote_state" json:"remote_state"`
	Revision    string    `db:"revision" json:"revision"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
