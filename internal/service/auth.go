package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bmitiku/grocery-system/internal/model"
	"github.com/bmitiku/grocery-system/internal/repository"
)

// otpTTL задаёт время жизни одноразового кода восстановления пароля.
const otpTTL = 5 * time.Minute

// Register регистрирует нового покупателя и сразу выдаёт ему токен.
func (s *Service) Register(ctx context.Context, name, email, phone, password string) (*model.User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, name, email, phone, hash)
	if err != nil {
		return nil, "", err
	}

	t, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, t, nil
}

// Login проверяет учётные данные и выдаёт токен.
// Учётные данные проверяются до статуса: ErrAccountRestricted получает
// только тот, кто знает пароль.
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	if user.IsRestricted() {
		return nil, "", ErrAccountRestricted
	}

	t, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, t, nil
}

// AdminLogin проверяет учётные данные и дополнительно требует роль admin.
// Порядок проверок тот же, что и у Login: сначала блокировка, потом роль.
func (s *Service) AdminLogin(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	if user.IsRestricted() {
		return nil, "", ErrAccountRestricted
	}
	if !user.IsAdmin() {
		return nil, "", ErrInsufficientRole
	}

	t, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, t, nil
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Refresh выдаёт новый токен по ещё действующему или недавно истёкшему.
// Роль и статус берутся из базы заново, поэтому снятие прав или блокировка
// вступают в силу не позже следующего обновления токена.
func (s *Service) Refresh(ctx context.Context, tokenString string) (*model.User, string, error) {
	claims, err := s.tokens.ParseForRefresh(tokenString)
	if err != nil {
		return nil, "", err
	}

	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, "", err
	}
	if user.IsRestricted() {
		return nil, "", ErrAccountRestricted
	}

	t, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, t, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UpdateProfile обновляет профиль пользователя.
func (s *Service) UpdateProfile(ctx context.Context, id int64, name, email, phone, address string) (*model.User, error) {
	return s.repo.UpdateProfile(ctx, id, name, email, phone, address)
}

// ForgotPassword генерирует одноразовый код и отправляет его на почту.
// Для неизвестного email возвращается ошибка: так ведёт себя и страница
// восстановления, и это осознанный выбор продукта.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsRestricted() {
		return ErrAccountRestricted
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}
	if err := s.repo.SetOTP(ctx, user.ID, hash, time.Now().Add(otpTTL)); err != nil {
		return err
	}

	body := fmt.Sprintf("Your password reset code is %s. It expires in 5 minutes.", otp)
	if err := s.sendMail(ctx, user.Email, "Password reset code", body); err != nil {
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return nil
}

// VerifyOTP проверяет одноразовый код, не сбрасывая пароль.
func (s *Service) VerifyOTP(ctx context.Context, email, otp string) error {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	return checkOTP(user, otp)
}

// ResetPassword устанавливает новый пароль по действующему одноразовому коду
// и сразу выдаёт токен. Код одноразовый: после успешного сброса он очищается.
func (s *Service) ResetPassword(ctx context.Context, email, otp, password string) (*model.User, string, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if err := checkOTP(user, otp); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.SetPasswordHash(ctx, user.ID, hash); err != nil {
		return nil, "", err
	}

	t, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, t, nil
}

func checkOTP(user *model.User, otp string) error {
	if len(user.OTPHash) == 0 || user.OTPExpiresAt == nil {
		return ErrOTPNotRequested
	}
	if time.Now().After(*user.OTPExpiresAt) {
		return ErrOTPExpired
	}
	if err := bcrypt.CompareHashAndPassword(user.OTPHash, []byte(otp)); err != nil {
		return ErrOTPInvalid
	}
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// sendMail отправляет письмо, если почта настроена.
func (s *Service) sendMail(ctx context.Context, to, subject, body string) error {
	if s.mailer == nil {
		s.logger.Debug("почта не настроена, письмо пропущено", zap.String("to", to))
		return nil
	}
	return s.mailer.Send(ctx, to, subject, body)
}
