package service

import (
	"github.com/google/uuid"
	"github.com/tempora-app/tempora-backend/internal/domain"
)

// IdentityService resolves Auth0 subjects to local users and their default
// workspace. User rows are provisioned on first login.
type IdentityService struct {
	userRepo      domain.UserRepository
	workspaceRepo domain.WorkspaceRepository
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(userRepo domain.UserRepository, workspaceRepo domain.WorkspaceRepository) *IdentityService {
	return &IdentityService{
		userRepo:      userRepo,
		workspaceRepo: workspaceRepo,
	}
}

// ResolvedIdentity is the local identity behind an Auth0 subject
type ResolvedIdentity struct {
	UserID      uuid.UUID
	WorkspaceID int32
}

// Resolve provisions the user if needed and returns their default workspace
func (s *IdentityService) Resolve(auth0ID, email string, name *string) (*ResolvedIdentity, error) {
	user, err := s.userRepo.CreateOrGetByAuth0ID(auth0ID, email, name)
	if err != nil {
		return nil, err
	}

	workspace, err := s.workspaceRepo.GetDefaultForUser(user.ID)
	if err != nil {
		return nil, err
	}

	return &ResolvedIdentity{
		UserID:      user.ID,
		WorkspaceID: workspace.ID,
	}, nil
}

// GetWorkspaceByAuth0ID returns the default workspace for an Auth0 subject,
// used by the WebSocket token validator
func (s *IdentityService) GetWorkspaceByAuth0ID(auth0ID string) (int32, error) {
	workspace, err := s.workspaceRepo.GetDefaultForAuth0ID(auth0ID)
	if err != nil {
		return 0, err
	}
	return workspace.ID, nil
}
