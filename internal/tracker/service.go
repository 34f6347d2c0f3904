package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Devindin/Issue-Tracker-sub001/internal/auth"
	"github.com/Devindin/Issue-Tracker-sub001/internal/ids"
	"github.com/Devindin/Issue-Tracker-sub001/internal/obs"
)

// Service is the authorization-aware core of the tracker. Every operation
// takes the immutable auth.AuthContext produced by the authentication gate
// and scopes its store access to that caller's tenant.
type Service struct {
	store  Store
	tokens *auth.Tokens
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService wires the domain service.
func NewService(store Store, tokens *auth.Tokens, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if tokens == nil {
		return nil, errors.New("token signer is required")
	}
	s := &Service{store: store, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Identity  *Identity `json:"identity"`
}

// Login verifies a credential pair and mints a session token. When a tenant
// id is claimed, the member domain is tried first and the global owner domain
// second; without one, only owners can log in (members are ambiguous across
// tenants). Every failure collapses to ErrInvalidCredentials so the response
// never reveals which half of the pair was wrong.
func (s *Service) Login(ctx context.Context, email, password, tenantID string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	tenantID = strings.TrimSpace(tenantID)
	if email == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	var (
		identity *Identity
		err      error
	)
	if tenantID != "" {
		identity, err = s.store.MemberByEmail(ctx, tenantID, email)
		if errors.Is(err, ErrNotFound) {
			identity, err = s.store.OwnerByEmail(ctx, email)
			if err == nil && identity.TenantID != tenantID {
				return nil, auth.ErrInvalidCredentials
			}
		}
	} else {
		identity, err = s.store.OwnerByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if !identity.Active() {
		return nil, auth.ErrInvalidCredentials
	}
	if err := auth.VerifyPassword(identity.PasswordHash, password); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(identity.ID, identity.TenantID, identity.Role)
	if err != nil {
		return nil, err
	}

	// Best-effort side channel: a failed stamp must not abort the login.
	now := s.now().UTC()
	if err := s.store.TouchLastLogin(ctx, identity.ID, now); err != nil {
		obs.LogError("touch last login failed", map[string]any{"identity_id": identity.ID, "error": err.Error()})
	} else {
		identity.LastLoginAt = &now
	}

	return &Session{Token: token, ExpiresAt: expiresAt, Identity: identity}, nil
}

// Authorize is the single permission resolver. It loads the caller's role and
// capability set fresh from the store (token claims can be stale for
// fine-grained flags), applies the admin bypass, and evaluates the requested
// capabilities in the given mode. A missing or inactive identity denies, it
// never allows.
func (s *Service) Authorize(ctx context.Context, ac auth.AuthContext, mode auth.Mode, caps ...auth.Capability) error {
	identity, err := s.store.Identity(ctx, ac.TenantID, ac.IdentityID)
	if err != nil {
		obs.ObserveAuthzDecision(false)
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: identity not found", auth.ErrPermissionDenied)
		}
		return err
	}
	if !identity.Active() {
		obs.ObserveAuthzDecision(false)
		return fmt.Errorf("%w: identity inactive", auth.ErrPermissionDenied)
	}
	err = auth.Decide(identity.Role, identity.Capabilities, mode, caps...)
	obs.ObserveAuthzDecision(err == nil)
	return err
}

// RegisterTenantInput creates a new company and its owner account in one step.
type RegisterTenantInput struct {
	TenantName  string `json:"tenant_name"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

// RegisterTenant provisions a tenant with its owner identity. The owner gets
// the admin role; its email lives in the global uniqueness domain.
func (s *Service) RegisterTenant(ctx context.Context, input RegisterTenantInput) (*Tenant, *Identity, error) {
	name := strings.TrimSpace(input.TenantName)
	if name == "" {
		return nil, nil, invalidf("tenant_name", "tenant name is required")
	}
	email, err := NormalizeEmail(input.Email)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, nil, invalidf("password", "password is required")
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	tenant := &Tenant{
		ID:        ids.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := &Identity{
		ID:           ids.New(),
		TenantID:     tenant.ID,
		Email:        email,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: hash,
		Role:         auth.RoleAdmin,
		Owner:        true,
		Capabilities: auth.DefaultCapabilities(auth.RoleAdmin),
		Status:       IdentityStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		return nil, nil, err
	}
	if err := s.store.CreateIdentity(ctx, owner); err != nil {
		return nil, nil, err
	}
	return tenant, owner, nil
}
