package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, id string, role models.UserRole) error
	Deactivate(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ProfileService serves the caller's own profile and admin user management.
type ProfileService struct {
	repo      profileRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfileService creates an instance of ProfileService.
func NewProfileService(repo profileRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Get returns the profile of the session user.
func (s *ProfileService) Get(ctx context.Context, session models.Session) (*models.Profile, error) {
	user, err := s.load(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	profile := models.ProfileFromUser(*user)
	return &profile, nil
}

// Update applies the non-nil fields of req to the session user's profile.
func (s *ProfileService) Update(ctx context.Context, session models.Session, req models.UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid profile payload")
	}
	user, err := s.load(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "full_name cannot be blank")
		}
		user.FullName = name
	}
	if req.Username != nil {
		user.Username = blankToNil(*req.Username)
	}
	if req.Department != nil {
		user.Department = blankToNil(*req.Department)
	}
	if req.Phone != nil {
		user.Phone = blankToNil(*req.Phone)
	}
	if req.Bio != nil {
		user.Bio = blankToNil(*req.Bio)
	}
	if req.AvatarURL != nil {
		user.AvatarURL = blankToNil(*req.AvatarURL)
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, appErrors.Internal(err, "failed to update profile")
	}
	profile := models.ProfileFromUser(*user)
	return &profile, nil
}

// List returns paginated users and pagination metadata.
func (s *ProfileService) List(ctx context.Context, filter models.UserFilter) ([]models.Profile, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}

	profiles := make([]models.Profile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, models.ProfileFromUser(u))
	}
	return profiles, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// UpdateRole changes the role of another user. Admins cannot demote themselves.
func (s *ProfileService) UpdateRole(ctx context.Context, actor models.Session, userID string, req models.UpdateRoleRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid role payload")
	}
	if actor.UserID == userID && req.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "administrators cannot demote themselves")
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := models.NormalizeRole(string(user.Role))
	if err := s.repo.UpdateRole(ctx, userID, req.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update role")
	}
	user.Role = req.Role

	// Tokens carry the role, so existing sessions must sign in again.
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke tokens after role change", zap.String("user_id", userID), zap.Error(err))
	}
	s.cache.Delete(ctx, DashboardKey(previous, userID))
	s.audit(ctx, actor, models.AuditActionRoleChange, userID, fmt.Sprintf(`{"role":%q}`, previous), fmt.Sprintf(`{"role":%q}`, req.Role))

	profile := models.ProfileFromUser(*user)
	return &profile, nil
}

// Deactivate soft deletes a user and revokes their sessions.
func (s *ProfileService) Deactivate(ctx context.Context, actor models.Session, userID string) error {
	if actor.UserID == userID {
		return appErrors.Clone(appErrors.ErrForbidden, "administrators cannot deactivate themselves")
	}
	if err := s.repo.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to deactivate user")
	}
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke tokens after deactivation", zap.String("user_id", userID), zap.Error(err))
	}
	s.audit(ctx, actor, models.AuditActionUserDeactivate, userID, `{"active":true}`, `{"active":false}`)
	return nil
}

func (s *ProfileService) load(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

func (s *ProfileService) audit(ctx context.Context, actor models.Session, action, userID, oldValues, newValues string) {
	entry := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "user",
		ResourceID: &userID,
		OldValues:  []byte(oldValues),
		NewValues:  []byte(newValues),
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func blankToNil(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
