package service

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tempora-app/tempora-backend/internal/domain"
	"github.com/tempora-app/tempora-backend/internal/testutil"
)

type timerServiceFixture struct {
	service      *TimerService
	timerRepo    *testutil.MockActiveTimerRepository
	taskRepo     *testutil.MockTaskRepository
	memberRepo   *testutil.MockWorkspaceMemberRepository
	categoryRepo *testutil.MockCategoryRepository
	activityRepo *testutil.MockActivityLogRepository
	publisher    *testutil.CapturePublisher
	clock        *testutil.FakeClock
	userID       uuid.UUID
	workspaceID  int32
}

func newTimerServiceFixture(t *testing.T) *timerServiceFixture {
	t.Helper()

	f := &timerServiceFixture{
		timerRepo:    testutil.NewMockActiveTimerRepository(),
		taskRepo:     testutil.NewMockTaskRepository(),
		memberRepo:   testutil.NewMockWorkspaceMemberRepository(),
		categoryRepo: testutil.NewMockCategoryRepository(),
		activityRepo: testutil.NewMockActivityLogRepository(),
		publisher:    testutil.NewCapturePublisher(),
		clock:        testutil.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
		userID:       uuid.New(),
		workspaceID:  1,
	}
	f.memberRepo.AddMember(f.userID, f.workspaceID)
	f.service = NewTimerService(
		f.timerRepo,
		f.taskRepo,
		f.memberRepo,
		f.categoryRepo,
		f.activityRepo,
		NewCategoryResolver(f.categoryRepo),
		f.clock,
	)
	f.service.SetEventPublisher(f.publisher)
	return f
}

func (f *timerServiceFixture) start(t *testing.T, params StartParams) *ActiveTimerView {
	t.Helper()
	view, err := f.service.Start(f.userID, f.workspaceID, params)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return view
}

func TestTimerService_StartCreatesRunningTimer(t *testing.T) {
	f := newTimerServiceFixture(t)
	description := "morning standup notes"

	view := f.start(t, StartParams{Description: &description})

	if view.IsPaused {
		t.Error("Expected new timer to be running")
	}
	if view.ElapsedSeconds != 0 {
		t.Errorf("Expected 0 elapsed seconds at start, got %d", view.ElapsedSeconds)
	}
	if view.Description == nil || *view.Description != description {
		t.Errorf("Expected description %q, got %v", description, view.Description)
	}
	if !view.StartTime.Equal(f.clock.Now()) {
		t.Errorf("Expected start time %v, got %v", f.clock.Now(), view.StartTime)
	}

	// Started event is bound into the insert, not the best-effort log
	events := f.timerRepo.Events()
	if len(events) != 1 {
		t.Fatalf("Expected 1 transactional event, got %d", len(events))
	}
	if events[0].Action != domain.ActionStarted {
		t.Errorf("Expected started action, got %s", events[0].Action)
	}
	if events[0].EntityID != view.ID {
		t.Errorf("Expected event entity %s, got %s", view.ID, events[0].EntityID)
	}

	types := f.publisher.EventTypes()
	if len(types) != 1 || types[0] != "timer.started" {
		t.Errorf("Expected [timer.started] published, got %v", types)
	}
}

func TestTimerService_StartSecondTimerReturnsExistingID(t *testing.T) {
	f := newTimerServiceFixture(t)
	first := f.start(t, StartParams{})

	_, err := f.service.Start(f.userID, f.workspaceID, StartParams{})
	var alreadyRunning *domain.AlreadyRunningError
	if !errors.As(err, &alreadyRunning) {
		t.Fatalf("Expected AlreadyRunningError, got %v", err)
	}
	if alreadyRunning.ExistingID != first.ID {
		t.Errorf("Expected existing ID %s, got %s", first.ID, alreadyRunning.ExistingID)
	}
}

func TestTimerService_StartIndependentPerWorkspace(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.memberRepo.AddMember(f.userID, 2)

	first := f.start(t, StartParams{})

	second, err := f.service.Start(f.userID, 2, StartParams{})
	if err != nil {
		t.Fatalf("Start in second workspace failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("Expected distinct timers per workspace")
	}
	if f.timerRepo.TimerCount() != 2 {
		t.Errorf("Expected 2 active timers, got %d", f.timerRepo.TimerCount())
	}
}

func TestTimerService_StartValidation(t *testing.T) {
	f := newTimerServiceFixture(t)

	longDescription := strings.Repeat("a", domain.MaxDescriptionLength+1)
	if _, err := f.service.Start(f.userID, f.workspaceID, StartParams{Description: &longDescription}); !errors.Is(err, domain.ErrDescriptionTooLong) {
		t.Errorf("Expected ErrDescriptionTooLong, got %v", err)
	}

	missingTask := int32(99)
	if _, err := f.service.Start(f.userID, f.workspaceID, StartParams{TaskID: &missingTask}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}

	missingCategory := int32(42)
	if _, err := f.service.Start(f.userID, f.workspaceID, StartParams{CategoryID: &missingCategory}); !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}

	stranger := uuid.New()
	if _, err := f.service.Start(stranger, f.workspaceID, StartParams{}); !errors.Is(err, domain.ErrNotWorkspaceMember) {
		t.Errorf("Expected ErrNotWorkspaceMember, got %v", err)
	}

	if f.timerRepo.TimerCount() != 0 {
		t.Errorf("Expected no timers after failed starts, got %d", f.timerRepo.TimerCount())
	}
}

func TestTimerService_ConcurrentStartsExactlyOneWins(t *testing.T) {
	f := newTimerServiceFixture(t)

	const attempts = 20
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.service.Start(f.userID, f.workspaceID, StartParams{})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var alreadyRunning *domain.AlreadyRunningError
		if !errors.As(err, &alreadyRunning) {
			t.Errorf("Expected AlreadyRunningError for loser, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("Expected exactly 1 successful start, got %d", succeeded)
	}
	if f.timerRepo.TimerCount() != 1 {
		t.Errorf("Expected exactly 1 active timer, got %d", f.timerRepo.TimerCount())
	}
}

func TestTimerService_StopWithoutPauses(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})
	f.clock.Advance(90 * time.Second)

	entry, err := f.service.Stop(f.userID, f.workspaceID, nil)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if entry.DurationSeconds != 90 {
		t.Errorf("Expected 90s duration, got %d", entry.DurationSeconds)
	}
	if f.timerRepo.TimerCount() != 0 {
		t.Error("Expected timer slot freed after stop")
	}
	if entry.Status != domain.TimeEntryStatusCompleted {
		t.Errorf("Expected completed status, got %s", entry.Status)
	}
}

func TestTimerService_StopExcludesPausedTime(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})

	f.clock.Advance(30 * time.Second)
	if _, err := f.service.Pause(f.userID, f.workspaceID, nil); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	f.clock.Advance(10 * time.Second)
	if _, err := f.service.Resume(f.userID, f.workspaceID); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	f.clock.Advance(60 * time.Second)

	entry, err := f.service.Stop(f.userID, f.workspaceID, nil)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// 100s wall time minus 10s paused
	if entry.DurationSeconds != 90 {
		t.Errorf("Expected 90s duration, got %d", entry.DurationSeconds)
	}
}

func TestTimerService_StopWhilePausedFoldsOpenInterval(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})

	f.clock.Advance(20 * time.Second)
	if _, err := f.service.Pause(f.userID, f.workspaceID, nil); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	f.clock.Advance(40 * time.Second)

	entry, err := f.service.Stop(f.userID, f.workspaceID, nil)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// Only the 20s before the pause counts
	if entry.DurationSeconds != 20 {
		t.Errorf("Expected 20s duration, got %d", entry.DurationSeconds)
	}
}

func TestTimerService_StopClampsToOneSecond(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})

	entry, err := f.service.Stop(f.userID, f.workspaceID, nil)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if entry.DurationSeconds != 1 {
		t.Errorf("Expected zero-length session clamped to 1s, got %d", entry.DurationSeconds)
	}
}

func TestTimerService_StopResolvesWellKnownCategory(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{IsBreak: true})
	f.clock.Advance(5 * time.Minute)

	entry, err := f.service.Stop(f.userID, f.workspaceID, nil)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	category, err := f.categoryRepo.GetByID(f.workspaceID, entry.CategoryID)
	if err != nil {
		t.Fatalf("Category lookup failed: %v", err)
	}
	if category.Name != BreakCategoryName {
		t.Errorf("Expected break category, got %q", category.Name)
	}
	if !entry.IsBreak {
		t.Error("Expected entry flagged as break")
	}
}

func TestTimerService_StopKeepsExplicitCategory(t *testing.T) {
	f := newTimerServiceFixture(t)
	chosen := f.categoryRepo.AddCategory(&domain.Category{WorkspaceID: f.workspaceID, Name: "Consulting"})
	f.start(t, StartParams{CategoryID: &chosen.ID})
	f.clock.Advance(time.Minute)

	entry, err := f.service.Stop(f.userID, f.workspaceID, nil)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if entry.CategoryID != chosen.ID {
		t.Errorf("Expected category %d, got %d", chosen.ID, entry.CategoryID)
	}
}

func TestTimerService_StopFinalDescriptionOverrides(t *testing.T) {
	f := newTimerServiceFixture(t)
	initial := "draft"
	f.start(t, StartParams{Description: &initial})
	f.clock.Advance(time.Minute)

	final := "reviewed API proposal"
	entry, err := f.service.Stop(f.userID, f.workspaceID, &final)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if entry.Description == nil || *entry.Description != final {
		t.Errorf("Expected final description %q, got %v", final, entry.Description)
	}
}

func TestTimerService_StopPublishesEntryEvents(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})
	f.clock.Advance(time.Minute)

	if _, err := f.service.Stop(f.userID, f.workspaceID, nil); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	types := f.publisher.EventTypes()
	want := []string{"timer.started", "timer.stopped", "time_entry.created"}
	if len(types) != len(want) {
		t.Fatalf("Expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Expected event %d to be %s, got %s", i, want[i], types[i])
		}
	}
}

func TestTimerService_StopWithoutTimer(t *testing.T) {
	f := newTimerServiceFixture(t)

	_, err := f.service.Stop(f.userID, f.workspaceID, nil)
	if !errors.Is(err, domain.ErrNoActiveTimer) {
		t.Errorf("Expected ErrNoActiveTimer, got %v", err)
	}
}

func TestTimerService_PauseResumeStateMachine(t *testing.T) {
	f := newTimerServiceFixture(t)

	if _, err := f.service.Pause(f.userID, f.workspaceID, nil); !errors.Is(err, domain.ErrNoActiveTimer) {
		t.Errorf("Expected ErrNoActiveTimer pausing empty slot, got %v", err)
	}

	f.start(t, StartParams{})

	if _, err := f.service.Resume(f.userID, f.workspaceID); !errors.Is(err, domain.ErrTimerNotPaused) {
		t.Errorf("Expected ErrTimerNotPaused resuming running timer, got %v", err)
	}

	reason := "lunch"
	result, err := f.service.Pause(f.userID, f.workspaceID, &reason)
	if err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if !result.PausedAt.Equal(f.clock.Now()) {
		t.Errorf("Expected paused at %v, got %v", f.clock.Now(), result.PausedAt)
	}

	if _, err := f.service.Pause(f.userID, f.workspaceID, nil); !errors.Is(err, domain.ErrTimerAlreadyPaused) {
		t.Errorf("Expected ErrTimerAlreadyPaused, got %v", err)
	}

	f.clock.Advance(15 * time.Second)
	resumed, err := f.service.Resume(f.userID, f.workspaceID)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.PausedSeconds != 15 {
		t.Errorf("Expected 15s pause interval, got %d", resumed.PausedSeconds)
	}
	if resumed.TotalPausedSeconds != 15 {
		t.Errorf("Expected 15s total paused, got %d", resumed.TotalPausedSeconds)
	}
}

func TestTimerService_RepeatedPauseCyclesAccumulate(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})

	for i := 0; i < 3; i++ {
		f.clock.Advance(10 * time.Second)
		if _, err := f.service.Pause(f.userID, f.workspaceID, nil); err != nil {
			t.Fatalf("Pause %d failed: %v", i, err)
		}
		f.clock.Advance(5 * time.Second)
		if _, err := f.service.Resume(f.userID, f.workspaceID); err != nil {
			t.Fatalf("Resume %d failed: %v", i, err)
		}
	}
	f.clock.Advance(10 * time.Second)

	entry, err := f.service.Stop(f.userID, f.workspaceID, nil)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	// 55s wall time, 15s paused
	if entry.DurationSeconds != 40 {
		t.Errorf("Expected 40s duration, got %d", entry.DurationSeconds)
	}
}

func TestTimerService_PauseEventsAreBestEffort(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})
	f.activityRepo.AppendFn = func(event *domain.LifecycleEvent) error {
		return domain.ErrStorageUnavailable
	}

	if _, err := f.service.Pause(f.userID, f.workspaceID, nil); err != nil {
		t.Fatalf("Expected pause to succeed despite audit failure, got %v", err)
	}
}

func TestTimerService_PauseReasonValidation(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})

	tooLong := strings.Repeat("r", domain.MaxPauseReasonLength+1)
	if _, err := f.service.Pause(f.userID, f.workspaceID, &tooLong); !errors.Is(err, domain.ErrPauseReasonTooLong) {
		t.Errorf("Expected ErrPauseReasonTooLong, got %v", err)
	}

	blank := "   "
	result, err := f.service.Pause(f.userID, f.workspaceID, &blank)
	if err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if result.Reason != nil {
		t.Errorf("Expected blank reason dropped, got %v", result.Reason)
	}
}

func TestTimerService_CancelDiscardsWithoutEntry(t *testing.T) {
	f := newTimerServiceFixture(t)
	view := f.start(t, StartParams{})
	f.clock.Advance(time.Hour)

	result, err := f.service.Cancel(f.userID, f.workspaceID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if result.CancelledID != view.ID {
		t.Errorf("Expected cancelled ID %s, got %s", view.ID, result.CancelledID)
	}
	if f.timerRepo.TimerCount() != 0 {
		t.Error("Expected timer removed after cancel")
	}
	if len(f.timerRepo.Entries()) != 0 {
		t.Error("Expected no time entry from cancel")
	}

	cancelled := false
	for _, event := range f.activityRepo.Events() {
		if event.Action == domain.ActionCancelled {
			cancelled = true
		}
	}
	if !cancelled {
		t.Error("Expected cancelled event in activity log")
	}

	if _, err := f.service.Cancel(f.userID, f.workspaceID); !errors.Is(err, domain.ErrNoActiveTimer) {
		t.Errorf("Expected ErrNoActiveTimer on second cancel, got %v", err)
	}
}

func TestTimerService_StatusReflectsLiveDurations(t *testing.T) {
	f := newTimerServiceFixture(t)

	status, err := f.service.Status(f.userID, f.workspaceID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.HasActiveTimer {
		t.Error("Expected empty slot before start")
	}

	f.start(t, StartParams{})
	f.clock.Advance(30 * time.Second)

	status, err = f.service.Status(f.userID, f.workspaceID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.HasActiveTimer || status.Timer == nil {
		t.Fatal("Expected active timer in status")
	}
	if status.Timer.ElapsedSeconds != 30 {
		t.Errorf("Expected 30s elapsed, got %d", status.Timer.ElapsedSeconds)
	}
	if status.Timer.ActiveSeconds != 30 {
		t.Errorf("Expected 30s active, got %d", status.Timer.ActiveSeconds)
	}

	if _, err := f.service.Pause(f.userID, f.workspaceID, nil); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	f.clock.Advance(30 * time.Second)

	status, err = f.service.Status(f.userID, f.workspaceID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !status.Timer.IsPaused {
		t.Error("Expected paused status")
	}
	if status.Timer.ActiveSeconds != 30 {
		t.Errorf("Expected active seconds frozen at 30, got %d", status.Timer.ActiveSeconds)
	}
	if status.Timer.TotalPausedSeconds != 30 {
		t.Errorf("Expected 30s paused, got %d", status.Timer.TotalPausedSeconds)
	}
}

func TestTimerService_StatusMonotonicWhileRunning(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})

	previous := int64(-1)
	for i := 0; i < 5; i++ {
		f.clock.Advance(7 * time.Second)
		status, err := f.service.Status(f.userID, f.workspaceID)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if status.Timer.ActiveSeconds <= previous {
			t.Errorf("Expected active seconds to grow, got %d after %d", status.Timer.ActiveSeconds, previous)
		}
		previous = status.Timer.ActiveSeconds
	}
}

func TestTimerService_UpdateDescription(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})

	view, err := f.service.UpdateDescription(f.userID, f.workspaceID, "  refine onboarding flow  ")
	if err != nil {
		t.Fatalf("UpdateDescription failed: %v", err)
	}
	if view.Description == nil || *view.Description != "refine onboarding flow" {
		t.Errorf("Expected trimmed description, got %v", view.Description)
	}

	tooLong := strings.Repeat("d", domain.MaxDescriptionLength+1)
	if _, err := f.service.UpdateDescription(f.userID, f.workspaceID, tooLong); !errors.Is(err, domain.ErrDescriptionTooLong) {
		t.Errorf("Expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestTimerService_ForceStopAnnotatesEntry(t *testing.T) {
	f := newTimerServiceFixture(t)
	description := "long-running deploy"
	f.start(t, StartParams{Description: &description})
	f.clock.Advance(13 * time.Hour)

	timer, err := f.timerRepo.GetByUserAndWorkspace(f.userID, f.workspaceID)
	if err != nil {
		t.Fatalf("Timer lookup failed: %v", err)
	}

	entry, err := f.service.ForceStop(timer)
	if err != nil {
		t.Fatalf("ForceStop failed: %v", err)
	}
	if entry.Description == nil || *entry.Description != "long-running deploy (auto-stopped)" {
		t.Errorf("Expected annotated description, got %v", entry.Description)
	}
	if f.timerRepo.TimerCount() != 0 {
		t.Error("Expected timer removed after force stop")
	}
}

func TestTimerService_ListActivityRequiresMembership(t *testing.T) {
	f := newTimerServiceFixture(t)
	f.start(t, StartParams{})
	if _, err := f.service.Pause(f.userID, f.workspaceID, nil); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}

	events, err := f.service.ListActivity(f.userID, f.workspaceID, 50)
	if err != nil {
		t.Fatalf("ListActivity failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 best-effort event, got %d", len(events))
	}
	if events[0].Action != domain.ActionPaused {
		t.Errorf("Expected paused event, got %s", events[0].Action)
	}

	if _, err := f.service.ListActivity(uuid.New(), f.workspaceID, 50); !errors.Is(err, domain.ErrNotWorkspaceMember) {
		t.Errorf("Expected ErrNotWorkspaceMember, got %v", err)
	}
}
