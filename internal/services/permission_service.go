package services

import (
	"context"
	"errors"

	"github.com/eventbook/auth-service/internal/apperr"
	"github.com/eventbook/auth-service/internal/dto"
	"github.com/eventbook/auth-service/internal/repository"
	"github.com/google/uuid"
)

// PermissionService answers capability checks from the de-duplicated union of
// permissions across every role a user holds, and manages role assignment.
type PermissionService struct {
	store repository.Store
}

func NewPermissionService(store repository.Store) *PermissionService {
	return &PermissionService{store: store}
}

// GetUserPermissions returns the user's effective permissions: the union
// across all assigned roles with duplicates removed.
func (s *PermissionService) GetUserPermissions(ctx context.Context, userID uuid.UUID) (*dto.UserPermissionsResponse, error) {
	const op = "permission lookup failed"

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if user == nil {
		return nil, apperr.E(apperr.ErrNotFound, op, errors.New("user not found"))
	}

	permissions, err := s.store.Permissions().FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}

	seen := make(map[uuid.UUID]bool, len(permissions))
	out := make([]dto.PermissionResponse, 0, len(permissions))
	for _, p := range permissions {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, dto.PermissionResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Resource:    p.Resource,
			Action:      p.Action,
		})
	}

	return &dto.UserPermissionsResponse{
		User:        dto.NewUserResponse(user),
		Permissions: out,
	}, nil
}

// HasPermission reports whether any of the user's roles grants the named
// permission.
func (s *PermissionService) HasPermission(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	permissions, err := s.store.Permissions().FindByUser(ctx, userID)
	if err != nil {
		return false, apperr.Internal("permission check failed", err)
	}
	for _, p := range permissions {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// HasResourcePermission reports whether the user may perform action on
// resource.
func (s *PermissionService) HasResourcePermission(ctx context.Context, userID uuid.UUID, resource, action string) (bool, error) {
	permissions, err := s.store.Permissions().FindByUser(ctx, userID)
	if err != nil {
		return false, apperr.Internal("permission check failed", err)
	}
	for _, p := range permissions {
		if p.Resource == resource && p.Action == action {
			return true, nil
		}
	}
	return false, nil
}

// GetUserRoles lists the roles assigned to the user.
func (s *PermissionService) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]dto.RoleResponse, error) {
	const op = "role lookup failed"

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if user == nil {
		return nil, apperr.E(apperr.ErrNotFound, op, errors.New("user not found"))
	}

	roles, err := s.store.Roles().FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	out := make([]dto.RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, dto.RoleResponse{ID: r.ID, Name: r.Name, Description: r.Description})
	}
	return out, nil
}

// AssignRoleToUser binds a role to a user; assigning twice is a conflict.
func (s *PermissionService) AssignRoleToUser(ctx context.Context, userID, roleID uuid.UUID) (*dto.RoleResponse, error) {
	const op = "role assignment failed"

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if user == nil {
		return nil, apperr.E(apperr.ErrNotFound, op, errors.New("user not found"))
	}

	role, err := s.store.Roles().FindByID(ctx, roleID)
	if err != nil {
		return nil, apperr.Internal(op, err)
	}
	if role == nil {
		return nil, apperr.E(apperr.ErrNotFound, op, errors.New("role not found"))
	}

	if err := s.store.Roles().AssignToUser(ctx, userID, roleID); err != nil {
		// The unique (user_id, role_id) pair turns a repeat into a conflict.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.E(apperr.ErrConflict, op, errors.New("user already has this role"))
		}
		return nil, apperr.Internal(op, err)
	}

	return &dto.RoleResponse{ID: role.ID, Name: role.Name, Description: role.Description}, nil
}

// RemoveRoleFromUser unbinds a role; removing an unassigned role is NotFound.
func (s *PermissionService) RemoveRoleFromUser(ctx context.Context, userID, roleID uuid.UUID) error {
	const op = "role removal failed"

	rows, err := s.store.Roles().RemoveFromUser(ctx, userID, roleID)
	if err != nil {
		return apperr.Internal(op, err)
	}
	if rows == 0 {
		return apperr.E(apperr.ErrNotFound, op, errors.New("user does not have this role"))
	}
	return nil
}
