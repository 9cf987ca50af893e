package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/domain"
)

// Resources and actions checked by the API.
const (
	ResourceAgenda    = "agenda"
	ResourceAssistant = "assistant"
	ResourceProviders = "providers"

	ActionRead  = "read"
	ActionWrite = "write"
	ActionUse   = "use"
)

// Permission represents a single resource-action pair.
type Permission struct {
	Resource string
	Action   string
}

// RBACService provides role-based access control by mapping roles
// to their allowed permissions (resource + action combinations).
type RBACService struct {
	permissions map[string][]Permission
	log         *zap.Logger
}

// NewRBACService creates a new RBACService with predefined team role permissions.
//
// Roles:
//   - "admin"   : agenda, assistant and direct provider access
//   - "manager" : agenda, assistant and direct provider access
//   - "sales"   : agenda and assistant only
//
// Resources: agenda, assistant, providers
// Actions:   read, write, use
func NewRBACService(log *zap.Logger) *RBACService {
	permissions := map[string][]Permission{
		string(domain.TeamRoleAdmin): {
			{Resource: ResourceAgenda, Action: ActionRead},
			{Resource: ResourceAgenda, Action: ActionWrite},
			{Resource: ResourceAssistant, Action: ActionUse},
			{Resource: ResourceProviders, Action: ActionUse},
		},
		string(domain.TeamRoleManager): {
			{Resource: ResourceAgenda, Action: ActionRead},
			{Resource: ResourceAgenda, Action: ActionWrite},
			{Resource: ResourceAssistant, Action: ActionUse},
			{Resource: ResourceProviders, Action: ActionUse},
		},
		string(domain.TeamRoleSales): {
			{Resource: ResourceAgenda, Action: ActionRead},
			{Resource: ResourceAssistant, Action: ActionUse},
		},
	}

	log.Info("RBAC service initialized",
		zap.Int("roles", len(permissions)),
	)

	return &RBACService{
		permissions: permissions,
		log:         log,
	}
}

// CheckPermission verifies whether the given role has permission to perform
// the specified action on the specified resource.
func (s *RBACService) CheckPermission(ctx context.Context, role, resource, action string) bool {
	perms, exists := s.permissions[role]
	if !exists {
		s.log.Warn("unknown role attempted access",
			zap.String("role", role),
			zap.String("resource", resource),
			zap.String("action", action),
		)
		return false
	}

	for _, p := range perms {
		if p.Resource == resource && p.Action == action {
			s.log.Debug("permission granted",
				zap.String("role", role),
				zap.String("resource", resource),
				zap.String("action", action),
			)
			return true
		}
	}

	s.log.Warn("permission denied",
		zap.String("role", role),
		zap.String("resource", resource),
		zap.String("action", action),
	)
	return false
}

// GetPermissions returns all permissions assigned to the given role.
// Returns nil if the role does not exist.
func (s *RBACService) GetPermissions(role string) []Permission {
	perms, exists := s.permissions[role]
	if !exists {
		s.log.Warn("requested permissions for unknown role",
			zap.String("role", role),
		)
		return nil
	}

	// Return a copy to prevent external mutation
	result := make([]Permission, len(perms))
	copy(result, perms)
	return result
}
