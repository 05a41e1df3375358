package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tempora-app/tempora-backend/internal/domain"
	"github.com/tempora-app/tempora-backend/internal/websocket"
)

// TimerService is the timer lifecycle engine. It serializes all mutations
// for a (user, workspace) key behind an in-process lock, checks every
// precondition after acquiring it, and reports transitions to the audit
// trail and websocket subscribers.
type TimerService struct {
	timerRepo      domain.ActiveTimerRepository
	taskRepo       domain.TaskRepository
	memberRepo     domain.WorkspaceMemberRepository
	categoryRepo   domain.CategoryRepository
	activityRepo   domain.ActivityLogRepository
	resolver       *CategoryResolver
	clock          Clock
	locks          *keyedLock
	eventPublisher websocket.EventPublisher
}

// NewTimerService creates a new TimerService
func NewTimerService(
	timerRepo domain.ActiveTimerRepository,
	taskRepo domain.TaskRepository,
	memberRepo domain.WorkspaceMemberRepository,
	categoryRepo domain.CategoryRepository,
	activityRepo domain.ActivityLogRepository,
	resolver *CategoryResolver,
	clock Clock,
) *TimerService {
	if clock == nil {
		clock = RealClock{}
	}
	return &TimerService{
		timerRepo:    timerRepo,
		taskRepo:     taskRepo,
		memberRepo:   memberRepo,
		categoryRepo: categoryRepo,
		activityRepo: activityRepo,
		resolver:     resolver,
		clock:        clock,
		locks:        newKeyedLock(),
	}
}

// SetEventPublisher sets the WebSocket event publisher
func (s *TimerService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TimerService) publishEvent(workspaceID int32, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(workspaceID, event)
	}
}

// StartParams carries the optional attributes of a new timer
type StartParams struct {
	TaskID      *int32
	CategoryID  *int32
	Description *string
	IsBreak     bool
}

// ActiveTimerView is an active timer with live-computed durations
type ActiveTimerView struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"userId"`
	WorkspaceID        int32      `json:"workspaceId"`
	TaskID             *int32     `json:"taskId,omitempty"`
	CategoryID         *int32     `json:"categoryId,omitempty"`
	StartTime          time.Time  `json:"startTime"`
	Description        *string    `json:"description,omitempty"`
	IsBreak            bool       `json:"isBreak"`
	IsPaused           bool       `json:"isPaused"`
	PausedAt           *time.Time `json:"pausedAt,omitempty"`
	PauseReason        *string    `json:"pauseReason,omitempty"`
	ElapsedSeconds     int64      `json:"elapsedSeconds"`
	ActiveSeconds      int64      `json:"activeSeconds"`
	TotalPausedSeconds int64      `json:"totalPausedSeconds"`
}

// TimerStatus is the polling view of a user's timer slot
type TimerStatus struct {
	HasActiveTimer bool             `json:"hasActiveTimer"`
	Timer          *ActiveTimerView `json:"timer,omitempty"`
}

// PauseResult reports a successful pause
type PauseResult struct {
	PausedAt time.Time `json:"pausedAt"`
	Reason   *string   `json:"reason,omitempty"`
}

// ResumeResult reports a successful resume
type ResumeResult struct {
	PausedSeconds      int64 `json:"pausedSeconds"`
	TotalPausedSeconds int64 `json:"totalPausedSeconds"`
}

// CancelResult reports a successful cancel
type CancelResult struct {
	CancelledID uuid.UUID `json:"cancelledId"`
}

func (s *TimerService) toView(timer *domain.ActiveTimer, now time.Time) *ActiveTimerView {
	return &ActiveTimerView{
		ID:                 timer.ID,
		UserID:             timer.UserID,
		WorkspaceID:        timer.WorkspaceID,
		TaskID:             timer.TaskID,
		CategoryID:         timer.CategoryID,
		StartTime:          timer.StartTime,
		Description:        timer.Description,
		IsBreak:            timer.IsBreak,
		IsPaused:           timer.IsPaused(),
		PausedAt:           timer.LastPauseTime,
		PauseReason:        timer.PauseReason,
		ElapsedSeconds:     timer.ElapsedSeconds(now),
		ActiveSeconds:      timer.ActiveSeconds(now),
		TotalPausedSeconds: timer.EffectivePausedSeconds(now),
	}
}

// checkMembership rejects operations by non-members before any mutation
func (s *TimerService) checkMembership(userID uuid.UUID, workspaceID int32) error {
	isMember, err := s.memberRepo.IsMember(userID, workspaceID)
	if err != nil {
		return err
	}
	if !isMember {
		return domain.ErrNotWorkspaceMember
	}
	return nil
}

func validateDescription(description *string) (*string, error) {
	if description == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > domain.MaxDescriptionLength {
		return nil, domain.ErrDescriptionTooLong
	}
	return &trimmed, nil
}

// Start creates a new active timer for the (user, workspace) key.
// Fails with *domain.AlreadyRunningError when one already exists.
func (s *TimerService) Start(userID uuid.UUID, workspaceID int32, params StartParams) (*ActiveTimerView, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}

	description, err := validateDescription(params.Description)
	if err != nil {
		return nil, err
	}

	if params.TaskID != nil {
		exists, err := s.taskRepo.Exists(*params.TaskID, workspaceID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, domain.ErrTaskNotFound
		}
	}

	if params.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(workspaceID, *params.CategoryID); err != nil {
			return nil, err
		}
	}

	key := timerKey{userID: userID, workspaceID: workspaceID}
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	existing, err := s.timerRepo.GetByUserAndWorkspace(userID, workspaceID)
	if err == nil {
		return nil, &domain.AlreadyRunningError{ExistingID: existing.ID}
	}
	if !errors.Is(err, domain.ErrNoActiveTimer) {
		return nil, err
	}

	now := s.clock.Now()
	timer := &domain.ActiveTimer{
		ID:          uuid.New(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		TaskID:      params.TaskID,
		CategoryID:  params.CategoryID,
		StartTime:   now,
		IsBreak:     params.IsBreak,
		Description: description,
	}

	event := s.newEvent(timer, domain.ActionStarted, map[string]any{
		"startTime": now,
		"isBreak":   params.IsBreak,
	})
	if params.TaskID != nil {
		event.Details["taskId"] = *params.TaskID
	}

	created, err := s.timerRepo.Create(timer, event)
	if err != nil {
		return nil, err
	}

	view := s.toView(created, now)
	s.publishEvent(workspaceID, websocket.TimerStarted(view))
	return view, nil
}

// Pause opens a pause interval on a running timer
func (s *TimerService) Pause(userID uuid.UUID, workspaceID int32, reason *string) (*PauseResult, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}

	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		if trimmed == "" {
			reason = nil
		} else if len(trimmed) > domain.MaxPauseReasonLength {
			return nil, domain.ErrPauseReasonTooLong
		} else {
			reason = &trimmed
		}
	}

	key := timerKey{userID: userID, workspaceID: workspaceID}
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	timer, err := s.timerRepo.GetByUserAndWorkspace(userID, workspaceID)
	if err != nil {
		return nil, err
	}
	if timer.IsPaused() {
		return nil, domain.ErrTimerAlreadyPaused
	}

	now := s.clock.Now()
	update := &domain.ActiveTimerUpdate{LastPauseTime: &now}
	if reason != nil {
		update.PauseReason = reason
	}
	updated, err := s.timerRepo.Update(timer.ID, update)
	if err != nil {
		return nil, err
	}

	details := map[string]any{"pausedAt": now}
	if reason != nil {
		details["reason"] = *reason
	}
	s.appendBestEffort(s.newEvent(updated, domain.ActionPaused, details))

	s.publishEvent(workspaceID, websocket.TimerPaused(s.toView(updated, now)))
	return &PauseResult{PausedAt: now, Reason: reason}, nil
}

// Resume closes the open pause interval, folding it into the paused total
func (s *TimerService) Resume(userID uuid.UUID, workspaceID int32) (*ResumeResult, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}

	key := timerKey{userID: userID, workspaceID: workspaceID}
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	timer, err := s.timerRepo.GetByUserAndWorkspace(userID, workspaceID)
	if err != nil {
		return nil, err
	}
	if !timer.IsPaused() {
		return nil, domain.ErrTimerNotPaused
	}

	now := s.clock.Now()
	pausedSeconds := timer.CurrentPauseSeconds(now)
	total := timer.TotalPausedSeconds + pausedSeconds

	updated, err := s.timerRepo.Update(timer.ID, &domain.ActiveTimerUpdate{
		ClearLastPauseTime: true,
		ClearPauseReason:   true,
		TotalPausedSeconds: &total,
	})
	if err != nil {
		return nil, err
	}

	s.appendBestEffort(s.newEvent(updated, domain.ActionResumed, map[string]any{
		"pausedSeconds":      pausedSeconds,
		"totalPausedSeconds": total,
	}))

	s.publishEvent(workspaceID, websocket.TimerResumed(s.toView(updated, now)))
	return &ResumeResult{PausedSeconds: pausedSeconds, TotalPausedSeconds: total}, nil
}

// Stop finalizes the timer into an immutable time entry. Works from both
// running and paused states; an open pause interval is folded into the
// paused total before the duration is computed.
func (s *TimerService) Stop(userID uuid.UUID, workspaceID int32, finalDescription *string) (*domain.TimeEntry, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}

	description, err := validateDescription(finalDescription)
	if err != nil {
		return nil, err
	}

	key := timerKey{userID: userID, workspaceID: workspaceID}
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.stopLocked(userID, workspaceID, description, false)
}

// stopLocked performs the stop transition. The caller must hold the key lock.
func (s *TimerService) stopLocked(userID uuid.UUID, workspaceID int32, description *string, autoStopped bool) (*domain.TimeEntry, error) {
	timer, err := s.timerRepo.GetByUserAndWorkspace(userID, workspaceID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	duration := timer.ActiveSeconds(now)
	if duration < 1 {
		// Zero-length sessions are still recorded
		duration = 1
	}
	pausedSeconds := timer.EffectivePausedSeconds(now)

	categoryID, err := s.resolveCategory(timer)
	if err != nil {
		return nil, err
	}

	if description == nil {
		description = timer.Description
	}

	entry := &domain.TimeEntry{
		ID:              uuid.New(),
		UserID:          timer.UserID,
		WorkspaceID:     timer.WorkspaceID,
		TaskID:          timer.TaskID,
		CategoryID:      categoryID,
		StartTime:       timer.StartTime,
		EndTime:         now,
		DurationSeconds: duration,
		Description:     description,
		IsBreak:         timer.IsBreak,
		Status:          domain.TimeEntryStatusCompleted,
	}

	details := map[string]any{
		"timeEntryId":        entry.ID,
		"durationSeconds":    duration,
		"totalPausedSeconds": pausedSeconds,
	}
	if autoStopped {
		details["autoStopped"] = true
	}
	event := s.newEvent(timer, domain.ActionStopped, details)

	created, err := s.timerRepo.StopAtomic(timer.ID, entry, event)
	if err != nil {
		return nil, err
	}

	s.publishEvent(workspaceID, websocket.TimerStopped(map[string]any{
		"timerId":            timer.ID,
		"timeEntryId":        created.ID,
		"durationSeconds":    created.DurationSeconds,
		"totalPausedSeconds": pausedSeconds,
	}))
	s.publishEvent(workspaceID, websocket.TimeEntryCreated(created))
	return created, nil
}

// resolveCategory prefers the category chosen at start, falling back to the
// well-known category for the timer's kind
func (s *TimerService) resolveCategory(timer *domain.ActiveTimer) (int32, error) {
	if timer.CategoryID != nil {
		return *timer.CategoryID, nil
	}
	category, err := s.resolver.Resolve(timer.WorkspaceID, KindForTimer(timer))
	if err != nil {
		return 0, err
	}
	return category.ID, nil
}

// Cancel discards the active timer without creating a time entry
func (s *TimerService) Cancel(userID uuid.UUID, workspaceID int32) (*CancelResult, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}

	key := timerKey{userID: userID, workspaceID: workspaceID}
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	timer, err := s.timerRepo.GetByUserAndWorkspace(userID, workspaceID)
	if err != nil {
		return nil, err
	}

	if err := s.timerRepo.Delete(timer.ID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	s.appendBestEffort(s.newEvent(timer, domain.ActionCancelled, map[string]any{
		"cancelledAt":    now,
		"elapsedSeconds": timer.ElapsedSeconds(now),
	}))

	s.publishEvent(workspaceID, websocket.TimerCancelled(map[string]any{"timerId": timer.ID}))
	return &CancelResult{CancelledID: timer.ID}, nil
}

// UpdateDescription mutates the description of the active timer. The
// description stays mutable until the timer is stopped.
func (s *TimerService) UpdateDescription(userID uuid.UUID, workspaceID int32, description string) (*ActiveTimerView, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}

	validated, err := validateDescription(&description)
	if err != nil {
		return nil, err
	}

	key := timerKey{userID: userID, workspaceID: workspaceID}
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	timer, err := s.timerRepo.GetByUserAndWorkspace(userID, workspaceID)
	if err != nil {
		return nil, err
	}

	updated, err := s.timerRepo.Update(timer.ID, &domain.ActiveTimerUpdate{Description: validated})
	if err != nil {
		return nil, err
	}
	return s.toView(updated, s.clock.Now()), nil
}

// Status returns a live snapshot of the user's timer slot. It takes no lock:
// the read is advisory and the duration math tolerates momentary skew.
func (s *TimerService) Status(userID uuid.UUID, workspaceID int32) (*TimerStatus, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}

	timer, err := s.timerRepo.GetByUserAndWorkspace(userID, workspaceID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveTimer) {
			return &TimerStatus{HasActiveTimer: false}, nil
		}
		return nil, err
	}

	return &TimerStatus{
		HasActiveTimer: true,
		Timer:          s.toView(timer, s.clock.Now()),
	}, nil
}

// ForceStop stops a timer on behalf of the sweeper, annotating the entry
// so auto-stopped sessions are distinguishable
func (s *TimerService) ForceStop(timer *domain.ActiveTimer) (*domain.TimeEntry, error) {
	annotated := "(auto-stopped)"
	if timer.Description != nil && *timer.Description != "" {
		annotated = *timer.Description + " (auto-stopped)"
	}

	key := timerKey{userID: timer.UserID, workspaceID: timer.WorkspaceID}
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	return s.stopLocked(timer.UserID, timer.WorkspaceID, &annotated, true)
}

// ListActivity returns the most recent lifecycle events for a workspace
func (s *TimerService) ListActivity(userID uuid.UUID, workspaceID int32, limit int32) ([]*domain.LifecycleEvent, error) {
	if err := s.checkMembership(userID, workspaceID); err != nil {
		return nil, err
	}
	return s.activityRepo.ListByWorkspace(workspaceID, limit)
}

func (s *TimerService) newEvent(timer *domain.ActiveTimer, action domain.LifecycleAction, details map[string]any) *domain.LifecycleEvent {
	return &domain.LifecycleEvent{
		ID:          uuid.New(),
		EntityType:  domain.EntityTypeTimer,
		EntityID:    timer.ID,
		Action:      action,
		PerformedBy: timer.UserID,
		WorkspaceID: timer.WorkspaceID,
		Details:     details,
		CreatedAt:   s.clock.Now(),
	}
}

// appendBestEffort records an audit event without failing the transition.
// Start and stop bind their events into the state-mutation transaction
// instead; pause/resume/cancel tolerate a lost audit row.
func (s *TimerService) appendBestEffort(event *domain.LifecycleEvent) {
	if err := s.activityRepo.Append(event); err != nil {
		log.Error().
			Err(err).
			Str("action", string(event.Action)).
			Str("entity_id", event.EntityID.String()).
			Int32("workspace_id", event.WorkspaceID).
			Msg("Failed to append lifecycle event")
	}
}
