package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimerState is the explicit state of an active timer. The storage
// representation is a nullable pause timestamp; the state accessor keeps the
// legality checks in the lifecycle engine readable.
type TimerState string

const (
	TimerStateRunning TimerState = "running"
	TimerStatePaused  TimerState = "paused"
)

// ActiveTimer is the single in-flight tracking session for a user within a
// workspace. At most one row exists per (UserID, WorkspaceID); the engine is
// its only writer.
type ActiveTimer struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"userId"`
	WorkspaceID        int32      `json:"workspaceId"`
	TaskID             *int32     `json:"taskId,omitempty"`
	CategoryID         *int32     `json:"categoryId,omitempty"`
	StartTime          time.Time  `json:"startTime"`
	LastPauseTime      *time.Time `json:"lastPauseTime,omitempty"`
	TotalPausedSeconds int64      `json:"totalPausedSeconds"`
	PauseReason        *string    `json:"pauseReason,omitempty"`
	IsBreak            bool       `json:"isBreak"`
	Description        *string    `json:"description,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// State reports whether the timer is running or paused
func (t *ActiveTimer) State() TimerState {
	if t.LastPauseTime != nil {
		return TimerStatePaused
	}
	return TimerStateRunning
}

// IsPaused reports whether a pause interval is currently open
func (t *ActiveTimer) IsPaused() bool {
	return t.LastPauseTime != nil
}

// ElapsedSeconds returns whole seconds since the timer started, floored
func (t *ActiveTimer) ElapsedSeconds(now time.Time) int64 {
	elapsed := int64(now.Sub(t.StartTime) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// CurrentPauseSeconds returns the length of the in-progress pause interval,
// or 0 if the timer is running
func (t *ActiveTimer) CurrentPauseSeconds(now time.Time) int64 {
	if t.LastPauseTime == nil {
		return 0
	}
	paused := int64(now.Sub(*t.LastPauseTime) / time.Second)
	if paused < 0 {
		return 0
	}
	return paused
}

// EffectivePausedSeconds returns completed pauses plus the in-progress pause
func (t *ActiveTimer) EffectivePausedSeconds(now time.Time) int64 {
	return t.TotalPausedSeconds + t.CurrentPauseSeconds(now)
}

// ActiveSeconds returns elapsed time minus all paused time, clamped at zero
// to tolerate clock skew and double-pause races
func (t *ActiveTimer) ActiveSeconds(now time.Time) int64 {
	active := t.ElapsedSeconds(now) - t.EffectivePausedSeconds(now)
	if active < 0 {
		return 0
	}
	return active
}

// AlreadyRunningError is returned when a start request collides with an
// existing timer. It carries the existing timer's ID so callers can offer
// a stop-then-start flow.
type AlreadyRunningError struct {
	ExistingID uuid.UUID
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("a timer is already running (id %s)", e.ExistingID)
}

// ActiveTimerUpdate carries the mutable fields of an active timer
type ActiveTimerUpdate struct {
	LastPauseTime      *time.Time
	ClearLastPauseTime bool
	TotalPausedSeconds *int64
	PauseReason        *string
	ClearPauseReason   bool
	Description        *string
}

// ActiveTimerRepository defines keyed storage for active timers.
// Create must return *AlreadyRunningError when a row already exists for the
// (userID, workspaceID) key; this is the storage-level enforcement of the
// single-active-timer invariant.
type ActiveTimerRepository interface {
	GetByUserAndWorkspace(userID uuid.UUID, workspaceID int32) (*ActiveTimer, error)
	Create(timer *ActiveTimer, event *LifecycleEvent) (*ActiveTimer, error)
	Update(id uuid.UUID, update *ActiveTimerUpdate) (*ActiveTimer, error)
	Delete(id uuid.UUID) error
	// StopAtomic inserts the time entry, deletes the timer row and appends the
	// stopped event in a single transaction.
	StopAtomic(timerID uuid.UUID, entry *TimeEntry, event *LifecycleEvent) (*TimeEntry, error)
	// ListRunningLongerThan returns timers whose start time is before the
	// cutoff, for the stale-timer sweeper.
	ListRunningLongerThan(cutoff time.Time) ([]*ActiveTimer, error)
}
