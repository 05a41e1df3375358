package testutil

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tempora-app/tempora-backend/internal/domain"
	"github.com/tempora-app/tempora-backend/internal/websocket"
)

// FakeClock is a manually advanced clock for deterministic duration tests
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a FakeClock pinned to the given instant
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set pins the clock to a specific instant
func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// MockActiveTimerRepository is an in-memory ActiveTimerRepository
type MockActiveTimerRepository struct {
	mu      sync.Mutex
	timers  map[uuid.UUID]*domain.ActiveTimer
	entries map[uuid.UUID]*domain.TimeEntry
	events  []*domain.LifecycleEvent

	GetByUserAndWorkspaceFn func(userID uuid.UUID, workspaceID int32) (*domain.ActiveTimer, error)
	CreateFn                func(timer *domain.ActiveTimer, event *domain.LifecycleEvent) (*domain.ActiveTimer, error)
	UpdateFn                func(id uuid.UUID, update *domain.ActiveTimerUpdate) (*domain.ActiveTimer, error)
	DeleteFn                func(id uuid.UUID) error
	StopAtomicFn            func(timerID uuid.UUID, entry *domain.TimeEntry, event *domain.LifecycleEvent) (*domain.TimeEntry, error)
	ListRunningLongerThanFn func(cutoff time.Time) ([]*domain.ActiveTimer, error)
}

// NewMockActiveTimerRepository creates an empty mock timer repository
func NewMockActiveTimerRepository() *MockActiveTimerRepository {
	return &MockActiveTimerRepository{
		timers:  make(map[uuid.UUID]*domain.ActiveTimer),
		entries: make(map[uuid.UUID]*domain.TimeEntry),
	}
}

// AddTimer seeds a timer into the mock store
func (m *MockActiveTimerRepository) AddTimer(timer *domain.ActiveTimer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *timer
	m.timers[timer.ID] = &copied
}

// Entries returns the time entries written by StopAtomic
func (m *MockActiveTimerRepository) Entries() []*domain.TimeEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.TimeEntry, 0, len(m.entries))
	for _, e := range m.entries {
		result = append(result, e)
	}
	return result
}

// Events returns the lifecycle events bound into Create/StopAtomic transactions
func (m *MockActiveTimerRepository) Events() []*domain.LifecycleEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.LifecycleEvent(nil), m.events...)
}

// TimerCount returns the number of stored active timers
func (m *MockActiveTimerRepository) TimerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *MockActiveTimerRepository) GetByUserAndWorkspace(userID uuid.UUID, workspaceID int32) (*domain.ActiveTimer, error) {
	if m.GetByUserAndWorkspaceFn != nil {
		return m.GetByUserAndWorkspaceFn(userID, workspaceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timers {
		if t.UserID == userID && t.WorkspaceID == workspaceID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, domain.ErrNoActiveTimer
}

func (m *MockActiveTimerRepository) Create(timer *domain.ActiveTimer, event *domain.LifecycleEvent) (*domain.ActiveTimer, error) {
	if m.CreateFn != nil {
		return m.CreateFn(timer, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.timers {
		if t.UserID == timer.UserID && t.WorkspaceID == timer.WorkspaceID {
			return nil, &domain.AlreadyRunningError{ExistingID: t.ID}
		}
	}
	copied := *timer
	copied.CreatedAt = timer.StartTime
	copied.UpdatedAt = timer.StartTime
	m.timers[timer.ID] = &copied
	m.events = append(m.events, event)
	result := copied
	return &result, nil
}

func (m *MockActiveTimerRepository) Update(id uuid.UUID, update *domain.ActiveTimerUpdate) (*domain.ActiveTimer, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(id, update)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	timer, ok := m.timers[id]
	if !ok {
		return nil, domain.ErrNoActiveTimer
	}
	if update.LastPauseTime != nil {
		timer.LastPauseTime = update.LastPauseTime
	}
	if update.ClearLastPauseTime {
		timer.LastPauseTime = nil
	}
	if update.TotalPausedSeconds != nil {
		timer.TotalPausedSeconds = *update.TotalPausedSeconds
	}
	if update.PauseReason != nil {
		timer.PauseReason = update.PauseReason
	}
	if update.ClearPauseReason {
		timer.PauseReason = nil
	}
	if update.Description != nil {
		timer.Description = update.Description
	}
	copied := *timer
	return &copied, nil
}

func (m *MockActiveTimerRepository) Delete(id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timers[id]; !ok {
		return domain.ErrNoActiveTimer
	}
	delete(m.timers, id)
	return nil
}

func (m *MockActiveTimerRepository) StopAtomic(timerID uuid.UUID, entry *domain.TimeEntry, event *domain.LifecycleEvent) (*domain.TimeEntry, error) {
	if m.StopAtomicFn != nil {
		return m.StopAtomicFn(timerID, entry, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timers[timerID]; !ok {
		return nil, domain.ErrNoActiveTimer
	}
	delete(m.timers, timerID)
	copied := *entry
	copied.CreatedAt = entry.EndTime
	m.entries[entry.ID] = &copied
	m.events = append(m.events, event)
	result := copied
	return &result, nil
}

func (m *MockActiveTimerRepository) ListRunningLongerThan(cutoff time.Time) ([]*domain.ActiveTimer, error) {
	if m.ListRunningLongerThanFn != nil {
		return m.ListRunningLongerThanFn(cutoff)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.ActiveTimer
	for _, t := range m.timers {
		if t.StartTime.Before(cutoff) {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

// MockTimeEntryRepository is an in-memory TimeEntryRepository
type MockTimeEntryRepository struct {
	mu      sync.Mutex
	entries []*domain.TimeEntry

	GetByIDFn        func(workspaceID int32, id uuid.UUID) (*domain.TimeEntry, error)
	GetByWorkspaceFn func(workspaceID int32, filters *domain.TimeEntryFilters) (*domain.PaginatedTimeEntries, error)
	ListByRangeFn    func(workspaceID int32, from, to time.Time) ([]*domain.TimeEntry, error)
}

// NewMockTimeEntryRepository creates an empty mock entry repository
func NewMockTimeEntryRepository() *MockTimeEntryRepository {
	return &MockTimeEntryRepository{}
}

// AddEntry seeds a time entry into the mock store
func (m *MockTimeEntryRepository) AddEntry(entry *domain.TimeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *MockTimeEntryRepository) GetByID(workspaceID int32, id uuid.UUID) (*domain.TimeEntry, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(workspaceID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.WorkspaceID == workspaceID && e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, domain.ErrTimeEntryNotFound
}

func (m *MockTimeEntryRepository) GetByWorkspace(workspaceID int32, filters *domain.TimeEntryFilters) (*domain.PaginatedTimeEntries, error) {
	if m.GetByWorkspaceFn != nil {
		return m.GetByWorkspaceFn(workspaceID, filters)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*domain.TimeEntry
	for _, e := range m.entries {
		if e.WorkspaceID != workspaceID {
			continue
		}
		if filters.UserID != nil && e.UserID != *filters.UserID {
			continue
		}
		if filters.From != nil && e.StartTime.Before(*filters.From) {
			continue
		}
		if filters.To != nil && !e.StartTime.Before(*filters.To) {
			continue
		}
		copied := *e
		matched = append(matched, &copied)
	}
	totalPages := int32(1)
	if filters.PageSize > 0 {
		totalPages = int32((int64(len(matched)) + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	}
	return &domain.PaginatedTimeEntries{
		Data:       matched,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalItems: int64(len(matched)),
		TotalPages: totalPages,
	}, nil
}

func (m *MockTimeEntryRepository) ListByRange(workspaceID int32, from, to time.Time) ([]*domain.TimeEntry, error) {
	if m.ListByRangeFn != nil {
		return m.ListByRangeFn(workspaceID, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.TimeEntry
	for _, e := range m.entries {
		if e.WorkspaceID == workspaceID && !e.StartTime.Before(from) && e.StartTime.Before(to) {
			copied := *e
			result = append(result, &copied)
		}
	}
	return result, nil
}

// MockCategoryRepository is an in-memory CategoryRepository
type MockCategoryRepository struct {
	mu         sync.Mutex
	categories map[int32]*domain.Category
	nextID     int32

	CreateFn            func(category *domain.Category) (*domain.Category, error)
	GetByIDFn           func(workspaceID, id int32) (*domain.Category, error)
	GetByNameFn         func(workspaceID int32, name string) (*domain.Category, error)
	GetAllByWorkspaceFn func(workspaceID int32) ([]*domain.Category, error)
}

// NewMockCategoryRepository creates an empty mock category repository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		categories: make(map[int32]*domain.Category),
		nextID:     1,
	}
}

// AddCategory seeds a category, assigning it an ID
func (m *MockCategoryRepository) AddCategory(category *domain.Category) *domain.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *category
	copied.ID = m.nextID
	m.nextID++
	m.categories[copied.ID] = &copied
	result := copied
	return &result
}

func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	if m.CreateFn != nil {
		return m.CreateFn(category)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.WorkspaceID == category.WorkspaceID && c.Name == category.Name && c.DeletedAt == nil {
			return nil, domain.ErrCategoryExists
		}
	}
	copied := *category
	copied.ID = m.nextID
	m.nextID++
	m.categories[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (m *MockCategoryRepository) GetByID(workspaceID, id int32) (*domain.Category, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(workspaceID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok || c.WorkspaceID != workspaceID || c.DeletedAt != nil {
		return nil, domain.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *MockCategoryRepository) GetByName(workspaceID int32, name string) (*domain.Category, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(workspaceID, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.WorkspaceID == workspaceID && c.Name == name && c.DeletedAt == nil {
			copied := *c
			return &copied, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) GetAllByWorkspace(workspaceID int32) ([]*domain.Category, error) {
	if m.GetAllByWorkspaceFn != nil {
		return m.GetAllByWorkspaceFn(workspaceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Category
	for _, c := range m.categories {
		if c.WorkspaceID == workspaceID && c.DeletedAt == nil {
			copied := *c
			result = append(result, &copied)
		}
	}
	return result, nil
}

// MockActivityLogRepository is an in-memory ActivityLogRepository
type MockActivityLogRepository struct {
	mu     sync.Mutex
	events []*domain.LifecycleEvent

	AppendFn          func(event *domain.LifecycleEvent) error
	ListByWorkspaceFn func(workspaceID int32, limit int32) ([]*domain.LifecycleEvent, error)
}

// NewMockActivityLogRepository creates an empty mock activity log
func NewMockActivityLogRepository() *MockActivityLogRepository {
	return &MockActivityLogRepository{}
}

// Events returns the appended events
func (m *MockActivityLogRepository) Events() []*domain.LifecycleEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.LifecycleEvent(nil), m.events...)
}

func (m *MockActivityLogRepository) Append(event *domain.LifecycleEvent) error {
	if m.AppendFn != nil {
		return m.AppendFn(event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockActivityLogRepository) ListByWorkspace(workspaceID int32, limit int32) ([]*domain.LifecycleEvent, error) {
	if m.ListByWorkspaceFn != nil {
		return m.ListByWorkspaceFn(workspaceID, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.LifecycleEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].WorkspaceID == workspaceID {
			result = append(result, m.events[i])
			if limit > 0 && int32(len(result)) >= limit {
				break
			}
		}
	}
	return result, nil
}

// MockWorkspaceMemberRepository is an in-memory WorkspaceMemberRepository
type MockWorkspaceMemberRepository struct {
	mu      sync.Mutex
	members map[uuid.UUID]map[int32]bool

	IsMemberFn func(userID uuid.UUID, workspaceID int32) (bool, error)
}

// NewMockWorkspaceMemberRepository creates an empty mock membership repository
func NewMockWorkspaceMemberRepository() *MockWorkspaceMemberRepository {
	return &MockWorkspaceMemberRepository{
		members: make(map[uuid.UUID]map[int32]bool),
	}
}

// AddMember grants userID membership of workspaceID
func (m *MockWorkspaceMemberRepository) AddMember(userID uuid.UUID, workspaceID int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[userID] == nil {
		m.members[userID] = make(map[int32]bool)
	}
	m.members[userID][workspaceID] = true
}

func (m *MockWorkspaceMemberRepository) IsMember(userID uuid.UUID, workspaceID int32) (bool, error) {
	if m.IsMemberFn != nil {
		return m.IsMemberFn(userID, workspaceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[userID][workspaceID], nil
}

// MockTaskRepository is an in-memory TaskRepository
type MockTaskRepository struct {
	mu    sync.Mutex
	tasks map[int32]int32 // taskID -> workspaceID

	ExistsFn func(taskID, workspaceID int32) (bool, error)
}

// NewMockTaskRepository creates an empty mock task repository
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{tasks: make(map[int32]int32)}
}

// AddTask registers a task in a workspace
func (m *MockTaskRepository) AddTask(taskID, workspaceID int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[taskID] = workspaceID
}

func (m *MockTaskRepository) Exists(taskID, workspaceID int32) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(taskID, workspaceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.tasks[taskID]
	return ok && ws == workspaceID, nil
}

// MockWorkspaceRepository is an in-memory WorkspaceRepository
type MockWorkspaceRepository struct {
	mu         sync.Mutex
	workspaces map[int32]*domain.Workspace
	defaults   map[string]int32 // auth0ID -> workspaceID

	GetByIDFn              func(id int32) (*domain.Workspace, error)
	GetDefaultForUserFn    func(userID uuid.UUID) (*domain.Workspace, error)
	GetDefaultForAuth0IDFn func(auth0ID string) (*domain.Workspace, error)
	ListAllFn              func() ([]*domain.Workspace, error)
}

// NewMockWorkspaceRepository creates an empty mock workspace repository
func NewMockWorkspaceRepository() *MockWorkspaceRepository {
	return &MockWorkspaceRepository{
		workspaces: make(map[int32]*domain.Workspace),
		defaults:   make(map[string]int32),
	}
}

// AddWorkspace seeds a workspace
func (m *MockWorkspaceRepository) AddWorkspace(ws *domain.Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *ws
	m.workspaces[ws.ID] = &copied
}

// SetDefault maps an Auth0 subject to their default workspace
func (m *MockWorkspaceRepository) SetDefault(auth0ID string, workspaceID int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults[auth0ID] = workspaceID
}

func (m *MockWorkspaceRepository) GetByID(id int32) (*domain.Workspace, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	copied := *ws
	return &copied, nil
}

func (m *MockWorkspaceRepository) GetDefaultForUser(userID uuid.UUID) (*domain.Workspace, error) {
	if m.GetDefaultForUserFn != nil {
		return m.GetDefaultForUserFn(userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ws := range m.workspaces {
		if ws.OwnerID == userID {
			copied := *ws
			return &copied, nil
		}
	}
	return nil, domain.ErrWorkspaceNotFound
}

func (m *MockWorkspaceRepository) GetDefaultForAuth0ID(auth0ID string) (*domain.Workspace, error) {
	if m.GetDefaultForAuth0IDFn != nil {
		return m.GetDefaultForAuth0IDFn(auth0ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.defaults[auth0ID]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	ws, ok := m.workspaces[id]
	if !ok {
		return nil, domain.ErrWorkspaceNotFound
	}
	copied := *ws
	return &copied, nil
}

func (m *MockWorkspaceRepository) ListAll() ([]*domain.Workspace, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		copied := *ws
		result = append(result, &copied)
	}
	return result, nil
}

// MockUserRepository is an in-memory UserRepository
type MockUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User

	GetByIDFn              func(id uuid.UUID) (*domain.User, error)
	GetByAuth0IDFn         func(auth0ID string) (*domain.User, error)
	CreateOrGetByAuth0IDFn func(auth0ID, email string, name *string) (*domain.User, error)
}

// NewMockUserRepository creates an empty mock user repository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

// AddUser seeds a user
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *user
	m.users[user.ID] = &copied
}

func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockUserRepository) GetByAuth0ID(auth0ID string) (*domain.User, error) {
	if m.GetByAuth0IDFn != nil {
		return m.GetByAuth0IDFn(auth0ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Auth0ID == auth0ID {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) CreateOrGetByAuth0ID(auth0ID, email string, name *string) (*domain.User, error) {
	if m.CreateOrGetByAuth0IDFn != nil {
		return m.CreateOrGetByAuth0IDFn(auth0ID, email, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Auth0ID == auth0ID {
			copied := *u
			return &copied, nil
		}
	}
	u := &domain.User{ID: uuid.New(), Auth0ID: auth0ID, Email: email, Name: name}
	m.users[u.ID] = u
	copied := *u
	return &copied, nil
}

// CapturePublisher records published websocket events for assertions
type CapturePublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

// PublishedEvent pairs an event with the workspace it was sent to
type PublishedEvent struct {
	WorkspaceID int32
	Event       websocket.Event
}

// NewCapturePublisher creates an empty capture publisher
func NewCapturePublisher() *CapturePublisher {
	return &CapturePublisher{}
}

func (p *CapturePublisher) Publish(workspaceID int32, event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{WorkspaceID: workspaceID, Event: event})
}

// Events returns the captured events in publish order
func (p *CapturePublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

// EventTypes returns just the type strings of captured events
func (p *CapturePublisher) EventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.Event.Type
	}
	return types
}
