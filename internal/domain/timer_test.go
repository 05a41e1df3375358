package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var baseTime = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func runningTimer(start time.Time) *ActiveTimer {
	return &ActiveTimer{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		WorkspaceID: 1,
		StartTime:   start,
	}
}

func TestElapsedSeconds_FloorsWholeSeconds(t *testing.T) {
	timer := runningTimer(baseTime)

	elapsed := timer.ElapsedSeconds(baseTime.Add(90*time.Second + 900*time.Millisecond))
	if elapsed != 90 {
		t.Errorf("Expected 90 elapsed seconds, got %d", elapsed)
	}
}

func TestElapsedSeconds_ClockSkewClampsToZero(t *testing.T) {
	timer := runningTimer(baseTime)

	if elapsed := timer.ElapsedSeconds(baseTime.Add(-5 * time.Second)); elapsed != 0 {
		t.Errorf("Expected 0 for now before start, got %d", elapsed)
	}
}

func TestCurrentPauseSeconds_RunningTimerIsZero(t *testing.T) {
	timer := runningTimer(baseTime)

	if paused := timer.CurrentPauseSeconds(baseTime.Add(time.Minute)); paused != 0 {
		t.Errorf("Expected 0 current pause for running timer, got %d", paused)
	}
}

func TestEffectivePausedSeconds_IncludesInProgressPause(t *testing.T) {
	timer := runningTimer(baseTime)
	pausedAt := baseTime.Add(30 * time.Second)
	timer.LastPauseTime = &pausedAt
	timer.TotalPausedSeconds = 10

	paused := timer.EffectivePausedSeconds(baseTime.Add(50 * time.Second))
	if paused != 30 { // 10 completed + 20 in progress
		t.Errorf("Expected 30 effective paused seconds, got %d", paused)
	}
}

func TestActiveSeconds_NoPauses(t *testing.T) {
	timer := runningTimer(baseTime)

	if active := timer.ActiveSeconds(baseTime.Add(90 * time.Second)); active != 90 {
		t.Errorf("Expected 90 active seconds, got %d", active)
	}
}

func TestActiveSeconds_CompletedPauseSubtracted(t *testing.T) {
	timer := runningTimer(baseTime)
	timer.TotalPausedSeconds = 10

	if active := timer.ActiveSeconds(baseTime.Add(100 * time.Second)); active != 90 {
		t.Errorf("Expected 90 active seconds, got %d", active)
	}
}

func TestActiveSeconds_StopWhilePaused(t *testing.T) {
	// Pause began at T0+20s; at T0+60s only the pre-pause window counts
	timer := runningTimer(baseTime)
	pausedAt := baseTime.Add(20 * time.Second)
	timer.LastPauseTime = &pausedAt

	if active := timer.ActiveSeconds(baseTime.Add(60 * time.Second)); active != 20 {
		t.Errorf("Expected 20 active seconds, got %d", active)
	}
}

func TestActiveSeconds_ClampedToZero(t *testing.T) {
	// Paused total exceeding elapsed time (double-pause race) clamps to zero
	timer := runningTimer(baseTime)
	timer.TotalPausedSeconds = 120

	if active := timer.ActiveSeconds(baseTime.Add(60 * time.Second)); active != 0 {
		t.Errorf("Expected clamp to 0, got %d", active)
	}
}

func TestState_TaggedByPauseTimestamp(t *testing.T) {
	timer := runningTimer(baseTime)
	if timer.State() != TimerStateRunning {
		t.Errorf("Expected running state, got %s", timer.State())
	}
	if timer.IsPaused() {
		t.Error("Expected IsPaused false for running timer")
	}

	pausedAt := baseTime.Add(time.Second)
	timer.LastPauseTime = &pausedAt
	if timer.State() != TimerStatePaused {
		t.Errorf("Expected paused state, got %s", timer.State())
	}
	if !timer.IsPaused() {
		t.Error("Expected IsPaused true after pause timestamp set")
	}
}

func TestBillableAmount_RateTimesHours(t *testing.T) {
	entry := &TimeEntry{DurationSeconds: 5400} // 1.5h

	amount := entry.BillableAmount(decimal.NewFromInt(80), true)
	if !amount.Equal(decimal.NewFromInt(120)) {
		t.Errorf("Expected 120, got %s", amount)
	}
}

func TestBillableAmount_NonBillableAndBreaksAreZero(t *testing.T) {
	entry := &TimeEntry{DurationSeconds: 3600}

	if amount := entry.BillableAmount(decimal.NewFromInt(80), false); !amount.IsZero() {
		t.Errorf("Expected zero for non-billable, got %s", amount)
	}

	entry.IsBreak = true
	if amount := entry.BillableAmount(decimal.NewFromInt(80), true); !amount.IsZero() {
		t.Errorf("Expected zero for break entry, got %s", amount)
	}
}
