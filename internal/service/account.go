package service

import (
	"context"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
)

// PromoteUser назначает пользователю роль администратора.
// Собственную роль менять нельзя.
func (s *Service) PromoteUser(ctx context.Context, callerID, targetID int64) (*model.User, error) {
	if callerID == targetID {
		return nil, ErrCannotTargetSelf
	}
	return s.repo.SetUserRole(ctx, targetID, model.RoleAdmin)
}

// DemoteUser снимает с пользователя роль администратора.
// Последнего администратора и самого себя понизить нельзя.
func (s *Service) DemoteUser(ctx context.Context, callerID, targetID int64) (*model.User, error) {
	if callerID == targetID {
		return nil, ErrCannotTargetSelf
	}
	return s.repo.SetUserRole(ctx, targetID, model.RoleUser)
}

// RestrictUser блокирует учётную запись пользователя.
func (s *Service) RestrictUser(ctx context.Context, targetID int64) (*model.User, error) {
	return s.repo.SetUserStatus(ctx, targetID, model.StatusRestricted)
}

// UnrestrictUser снимает блокировку учётной записи.
func (s *Service) UnrestrictUser(ctx context.Context, targetID int64) (*model.User, error) {
	return s.repo.SetUserStatus(ctx, targetID, model.StatusActive)
}

// VerifyUser подтверждает документы пользователя.
func (s *Service) VerifyUser(ctx context.Context, targetID int64) (*model.User, error) {
	return s.repo.SetVerificationStatus(ctx, targetID, model.VerificationVerified)
}

// RejectUser отклоняет документы пользователя.
func (s *Service) RejectUser(ctx context.Context, targetID int64) (*model.User, error) {
	return s.repo.SetVerificationStatus(ctx, targetID, model.VerificationRejected)
}

// DeleteUser удаляет учётную запись пользователя.
// Свою запись и запись последнего администратора удалить нельзя.
func (s *Service) DeleteUser(ctx context.Context, callerID, targetID int64) error {
	if callerID == targetID {
		return ErrCannotDeleteSelf
	}
	return s.repo.DeleteUser(ctx, targetID)
}

// ListUsers возвращает пользователей по фильтру.
func (s *Service) ListUsers(ctx context.Context, filter repository.UserFilter) ([]model.User, error) {
	return s.repo.ListUsers(ctx, filter)
}

// GetUserStats возвращает статистику по пользователям.
func (s *Service) GetUserStats(ctx context.Context) (*repository.UserStats, error) {
	return s.repo.GetUserStats(ctx)
}
