package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"funilzap_backend/internal/auth/domain"
	"funilzap_backend/internal/auth/password"
	"funilzap_backend/internal/auth/repository"
	"funilzap_backend/internal/auth/session"
	"funilzap_backend/internal/config"
	"funilzap_backend/platform/apperr"
	"funilzap_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenType = "access"

type Service struct {
	repo     *repository.Repository
	sessions *session.Store
	cfg      *config.Config
	log      *logger.Logger
}

func New(repo *repository.Repository, sessions *session.Store, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{repo: repo, sessions: sessions, cfg: cfg, log: log}
}

// Login verifies credentials, opens the session scope and issues an access
// token. Deactivated accounts are rejected with the same message as bad
// credentials.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (string, domain.SessionUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.log.AuthEvent("login", email, false, "unknown email")
		return "", domain.SessionUser{}, apperr.Unauthorized("invalid credentials")
	}

	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		s.log.AuthEvent("login", email, false, "wrong password")
		return "", domain.SessionUser{}, apperr.Unauthorized("invalid credentials")
	}

	if !user.Active {
		s.log.AuthEvent("login", email, false, "account deactivated")
		return "", domain.SessionUser{}, apperr.Unauthorized("invalid credentials")
	}

	sessionUser := domain.SessionUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
	if err := s.sessions.Put(ctx, sessionUser); err != nil {
		return "", domain.SessionUser{}, apperr.Wrap(apperr.KindInternal, "could not open session", err)
	}

	accessToken, err := s.signJWT(user.ID, user.Role)
	if err != nil {
		return "", domain.SessionUser{}, apperr.Wrap(apperr.KindInternal, "could not issue token", err)
	}

	s.log.AuthEvent("login", email, true, "")
	return accessToken, sessionUser, nil
}

// Logout clears the whole session scope. The access token becomes useless
// immediately since every authenticated request checks the session marker.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.Clear(ctx, userID); err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not close session", err)
	}
	s.log.AuthEvent("logout", userID.String(), true, "")
	return nil
}

// Me returns the session user record for the authenticated caller.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (domain.SessionUser, error) {
	user, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return domain.SessionUser{}, apperr.Wrap(apperr.KindInternal, "could not read session", err)
	}
	if user == nil {
		return domain.SessionUser{}, apperr.Unauthorized("session expired")
	}
	return *user, nil
}

func (s *Service) signJWT(userID uuid.UUID, role domain.Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": accessTokenType,
		"role": string(role),
		"exp":  now.Add(s.cfg.AccessTokenTTL).Unix(),
		"iat":  now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.JWTSecret))
}

// ListUsers returns every account. Admin-only, enforced at the router.
func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not list users", err)
	}
	return users, nil
}

// CreateUser provisions an account. The actor can only grant roles at or
// below its own rank, so an admin cannot mint dev accounts.
func (s *Service) CreateUser(ctx context.Context, actorRole domain.Role, email, name, plainPassword string, role domain.Role) (domain.User, error) {
	if !role.AtLeast(domain.RoleVendedor) {
		return domain.User{}, apperr.Validation("unknown role")
	}
	if role.Rank() > actorRole.Rank() {
		return domain.User{}, apperr.Forbidden("cannot grant a role at or above your own")
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return domain.User{}, apperr.Wrap(apperr.KindInternal, "could not hash password", err)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.Create(ctx, email, name, hash, role)
	if err != nil {
		return domain.User{}, apperr.Wrap(apperr.KindInternal, "could not create user", err)
	}
	return user, nil
}

// SetUserRole changes an account's role, subject to the same rank rule as
// CreateUser. Any live session of the target is cleared so the new role
// takes effect on the next login.
func (s *Service) SetUserRole(ctx context.Context, actorRole domain.Role, userID uuid.UUID, role domain.Role) error {
	if !role.AtLeast(domain.RoleVendedor) {
		return apperr.Validation("unknown role")
	}
	if role.Rank() > actorRole.Rank() {
		return apperr.Forbidden("cannot grant a role at or above your own")
	}

	target, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return userError(err)
	}
	if target.Role.Rank() > actorRole.Rank() {
		return apperr.Forbidden("cannot manage a user at or above your own rank")
	}

	if err := s.repo.SetRole(ctx, userID, role); err != nil {
		return userError(err)
	}
	return s.sessions.Clear(ctx, userID)
}

// SetUserActive activates or deactivates an account. Deactivation clears
// any live session immediately.
func (s *Service) SetUserActive(ctx context.Context, actorRole domain.Role, userID uuid.UUID, active bool) error {
	target, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return userError(err)
	}
	if target.Role.Rank() > actorRole.Rank() {
		return apperr.Forbidden("cannot manage a user at or above your own rank")
	}

	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return userError(err)
	}
	if !active {
		return s.sessions.Clear(ctx, userID)
	}
	return nil
}

// UpdateProfile lets the authenticated user change their own name and email.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string) (domain.SessionUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.repo.UpdateProfile(ctx, userID, name, email); err != nil {
		return domain.SessionUser{}, userError(err)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return domain.SessionUser{}, userError(err)
	}

	sessionUser := domain.SessionUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
	if err := s.sessions.Put(ctx, sessionUser); err != nil {
		return domain.SessionUser{}, apperr.Wrap(apperr.KindInternal, "could not refresh session", err)
	}
	return sessionUser, nil
}

// ChangePassword verifies the current password before writing the new hash.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return userError(err)
	}

	if err := password.Compare(user.PasswordHash, currentPassword); err != nil {
		return apperr.Unauthorized("current password is incorrect")
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "could not hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return userError(err)
	}
	return nil
}

func userError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("user not found")
	}
	return apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
}
