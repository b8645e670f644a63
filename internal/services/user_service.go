package services

import (
	"context"
	"fmt"

	"github.com/tuanvn/tourbook/internal/models"
	"github.com/tuanvn/tourbook/pkg/logger"
)

// UserAdminStore extends UserStore with the listing and removal operations
// the admin area needs.
type UserAdminStore interface {
	UserStore
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Filter(ctx context.Context, role, keyword string) ([]*models.User, error)
	Delete(ctx context.Context, id int64) error
	CountByRole(ctx context.Context, role string) (int, error)
	Count(ctx context.Context) (int, error)
}

// UserService is the admin-facing account management surface.
type UserService struct {
	users UserAdminStore
	audit *logger.AuditLogger
}

func NewUserService(users UserAdminStore, audit *logger.AuditLogger) *UserService {
	return &UserService{users: users, audit: audit}
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers pages through all accounts.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.List(ctx, limit, offset)
}

// FilterUsers lists accounts matching an optional role and keyword.
func (s *UserService) FilterUsers(ctx context.Context, role, keyword string) ([]*models.User, error) {
	if role != "" && role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("unknown role %q: %w", role, models.ErrBadRequest)
	}
	return s.users.Filter(ctx, role, keyword)
}

// SetRole promotes or demotes an account. An admin cannot change their own
// role, so the last admin cannot lock everyone out by accident.
func (s *UserService) SetRole(ctx context.Context, admin *models.User, userID int64, role string) (*models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("unknown role %q: %w", role, models.ErrBadRequest)
	}
	if admin.ID == userID {
		return nil, fmt.Errorf("cannot change your own role: %w", models.ErrForbidden)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	updated, err := s.users.Update(ctx, userID, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.audit.LogAccountAction("role_changed", userID, "", map[string]string{
		"role":     role,
		"admin_id": fmt.Sprintf("%d", admin.ID),
	})

	return updated, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, admin *models.User, userID int64) error {
	if admin.ID == userID {
		return fmt.Errorf("cannot delete your own account: %w", models.ErrForbidden)
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.audit.LogAccountAction("user_deleted", userID, "", map[string]string{
		"admin_id": fmt.Sprintf("%d", admin.ID),
	})
	return nil
}

// Counts returns total and admin account counts for the dashboard.
func (s *UserService) Counts(ctx context.Context) (total, admins int, err error) {
	if total, err = s.users.Count(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to count users: %w", err)
	}
	if admins, err = s.users.CountByRole(ctx, models.RoleAdmin); err != nil {
		return 0, 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return total, admins, nil
}
