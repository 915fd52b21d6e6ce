package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
)

// SubmitMessage сохраняет обращение с формы обратной связи.
// Уведомления по почте отправляются по возможности: сбой почты не должен
// терять само обращение.
func (s *Service) SubmitMessage(ctx context.Context, m *model.ContactMessage) (*model.ContactMessage, error) {
	saved, err := s.repo.CreateMessage(ctx, m)
	if err != nil {
		return nil, err
	}

	if s.adminEmail != "" {
		body := fmt.Sprintf("New message from %s <%s>:\n\n%s", saved.Name, saved.Email, saved.Body)
		if err := s.sendMail(ctx, s.adminEmail, "New contact message: "+saved.Subject, body); err != nil {
			s.logger.Warn("не удалось уведомить администратора об обращении",
				zap.Int64("message_id", saved.ID), zap.Error(err))
		}
	}
	ack := fmt.Sprintf("Hello %s,\n\nWe received your message and will get back to you soon.", saved.Name)
	if err := s.sendMail(ctx, saved.Email, "We received your message", ack); err != nil {
		s.logger.Warn("не удалось отправить подтверждение отправителю",
			zap.Int64("message_id", saved.ID), zap.Error(err))
	}
	return saved, nil
}

// ListMessages возвращает обращения по фильтру.
func (s *Service) ListMessages(ctx context.Context, filter repository.MessageFilter) ([]model.ContactMessage, error) {
	return s.repo.ListMessages(ctx, filter)
}

// GetMessage возвращает обращение и помечает его прочитанным.
func (s *Service) GetMessage(ctx context.Context, id int64) (*model.ContactMessage, error) {
	m, err := s.repo.GetMessageByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsRead {
		return s.repo.MarkMessageRead(ctx, id, true)
	}
	return m, nil
}

// SetMessageRead помечает обращение прочитанным или непрочитанным.
func (s *Service) SetMessageRead(ctx context.Context, id int64, read bool) (*model.ContactMessage, error) {
	return s.repo.MarkMessageRead(ctx, id, read)
}

// MarkAllMessagesRead помечает все обращения прочитанными.
func (s *Service) MarkAllMessagesRead(ctx context.Context) error {
	return s.repo.MarkAllMessagesRead(ctx)
}

// ReplyToMessage сохраняет ответ и отправляет его автору обращения.
// Ответ остаётся сохранённым даже при сбое почты, но сбой возвращается
// вызывающему: без письма операция не завершена.
func (s *Service) ReplyToMessage(ctx context.Context, id int64, reply string) (*model.ContactMessage, error) {
	m, err := s.repo.SetMessageReply(ctx, id, reply)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Hello %s,\n\nRe: %s\n\n%s", m.Name, m.Subject, reply)
	if err := s.sendMail(ctx, m.Email, "Re: "+m.Subject, body); err != nil {
		return m, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return m, nil
}

// DeleteMessage удаляет обращение.
func (s *Service) DeleteMessage(ctx context.Context, id int64) error {
	return s.repo.DeleteMessage(ctx, id)
}

// GetMessageStats возвращает статистику по обращениям.
func (s *Service) GetMessageStats(ctx context.Context) (*repository.MessageStats, error) {
	return s.repo.GetMessageStats(ctx)
}
