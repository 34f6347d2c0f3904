package tracker

import (
	"context"
	"strings"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
	"github.com/Devindin/Issue-Tracker-sub001/internal/ids"
)

// CreateIdentityInput creates a member account inside the caller's tenant.
// When Capabilities is nil the role's default set seeds the record; an
// explicit set replaces the defaults wholesale.
type CreateIdentityInput struct {
	Email        string              `json:"email"`
	DisplayName  string              `json:"display_name"`
	Password     string              `json:"password"`
	Role         string              `json:"role"`
	Capabilities *auth.CapabilitySet `json:"capabilities,omitempty"`
}

// IdentityUpdate is a partial identity update. Capabilities, when present,
// replaces the whole stored set; there is no per-flag merge.
type IdentityUpdate struct {
	Email        *string             `json:"email,omitempty"`
	DisplayName  *string             `json:"display_name,omitempty"`
	Password     *string             `json:"password,omitempty"`
	Role         *string             `json:"role,omitempty"`
	Status       *string             `json:"status,omitempty"`
	Capabilities *auth.CapabilitySet `json:"capabilities,omitempty"`
}

// CreateIdentity adds a member to the caller's tenant. Requires manage-users.
func (s *Service) CreateIdentity(ctx context.Context, ac auth.AuthContext, input CreateIdentityInput) (*Identity, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapManageUsers); err != nil {
		return nil, err
	}
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, invalidf("password", "password is required")
	}
	role, err := auth.ParseRole(input.Role)
	if err != nil {
		return nil, invalidf("role", "unsupported role %q", input.Role)
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	capabilities := auth.DefaultCapabilities(role)
	if input.Capabilities != nil {
		capabilities = *input.Capabilities
	}

	now := s.now().UTC()
	identity := &Identity{
		ID:           ids.New(),
		TenantID:     ac.TenantID,
		Email:        email,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: hash,
		Role:         role,
		Capabilities: capabilities,
		Status:       IdentityStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateIdentity(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// Identity returns one account from the caller's tenant. Reading someone
// else's record requires manage-users; reading your own does not.
func (s *Service) Identity(ctx context.Context, ac auth.AuthContext, id string) (*Identity, error) {
	if id != ac.IdentityID {
		if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapManageUsers); err != nil {
			return nil, err
		}
	}
	return s.store.Identity(ctx, ac.TenantID, id)
}

// ListIdentities returns the caller tenant's accounts. Requires manage-users.
func (s *Service) ListIdentities(ctx context.Context, ac auth.AuthContext) ([]*Identity, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapManageUsers); err != nil {
		return nil, err
	}
	return s.store.ListIdentities(ctx, ac.TenantID)
}

// UpdateIdentity applies a partial update to a tenant account. Requires
// manage-users. Self-protection rules run even when the resolver grants:
// an admin cannot change its own role away from admin.
func (s *Service) UpdateIdentity(ctx context.Context, ac auth.AuthContext, id string, upd IdentityUpdate) (*Identity, error) {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapManageUsers); err != nil {
		return nil, err
	}
	identity, err := s.store.Identity(ctx, ac.TenantID, id)
	if err != nil {
		return nil, err
	}

	if upd.Role != nil {
		role, err := auth.ParseRole(*upd.Role)
		if err != nil {
			return nil, invalidf("role", "unsupported role %q", *upd.Role)
		}
		if err := CheckSelfDemotion(ac.IdentityID, identity, role); err != nil {
			return nil, err
		}
		identity.Role = role
	}
	if upd.Email != nil {
		email, err := NormalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		identity.Email = email
	}
	if upd.DisplayName != nil {
		identity.DisplayName = strings.TrimSpace(*upd.DisplayName)
	}
	if upd.Password != nil {
		if strings.TrimSpace(*upd.Password) == "" {
			return nil, invalidf("password", "password is required")
		}
		hash, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		identity.PasswordHash = hash
	}
	if upd.Status != nil {
		status := strings.TrimSpace(strings.ToLower(*upd.Status))
		if status != IdentityStatusActive && status != IdentityStatusInactive {
			return nil, invalidf("status", "unsupported status %q", *upd.Status)
		}
		identity.Status = status
	}
	if upd.Capabilities != nil {
		identity.Capabilities = *upd.Capabilities
	}

	identity.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateIdentity(ctx, identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// ReplaceCapabilities swaps the whole eight-flag set of an account. Requires
// manage-users.
func (s *Service) ReplaceCapabilities(ctx context.Context, ac auth.AuthContext, id string, set auth.CapabilitySet) (*Identity, error) {
	return s.UpdateIdentity(ctx, ac, id, IdentityUpdate{Capabilities: &set})
}

// DeleteIdentity removes a tenant account. Requires manage-users; deleting
// your own account is rejected regardless of role or capabilities.
func (s *Service) DeleteIdentity(ctx context.Context, ac auth.AuthContext, id string) error {
	if err := s.Authorize(ctx, ac, auth.ModeAll, auth.CapManageUsers); err != nil {
		return err
	}
	if err := CheckSelfDelete(ac.IdentityID, id); err != nil {
		return err
	}
	return s.store.DeleteIdentity(ctx, ac.TenantID, id)
}
