package service

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"signal-net/internal/domain"
	"signal-net/internal/repository"
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

const minPasswordLength = 8

// ErrInvalidCredentials no es un error de dominio: el handler lo traduce a 401.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserService coordina reglas de negocio para usuarios.
type UserService struct {
	logger *zap.Logger
	store  repository.Store
	clock  clockwork.Clock
}

func NewUserService(logger *zap.Logger, store repository.Store, clock clockwork.Clock) *UserService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &UserService{logger: logger, store: store, clock: clock}
}

type RegisterInput struct {
	Handle   string
	Email    string
	Name     string
	Password string
}

// Register crea la cuenta con 100 puntos diarios y aplica el bono inicial de credibilidad
// en la misma transaccion, dejando una entrada "Account creation" en el historial.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	handle := strings.ToLower(strings.TrimSpace(input.Handle))
	if !handlePattern.MatchString(handle) {
		return domain.User{}, ErrInvalidHandle
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return domain.User{}, ErrInvalidEmail
	}
	name := strings.TrimSpace(input.Name)
	if name == "" || utf8.RuneCountInString(name) > 100 {
		return domain.User{}, ErrInvalidName
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	now := s.clock.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Handle:       handle,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		DailyPoints:  domain.InitialDailyPoints,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		exists, err := repos.Users.ExistsByHandleOrEmail(ctx, handle, email)
		if err != nil {
			return err
		}
		if exists {
			return ErrHandleTaken
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrHandleTaken
			}
			return err
		}
		entry, err := adjustCredibility(ctx, repos, now, user.ID, domain.InitialCredibility, domain.ReasonAccountCreation)
		if err != nil {
			return err
		}
		user.CredibilityScore = entry.Score
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("handle", user.Handle))
	return user, nil
}

// Authenticate valida email y password y registra el ultimo login.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	users := s.store.Repos().Users
	user, err := users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	now := s.clock.Now().UTC()
	if err := users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("touch last login failed", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.store.Repos().Users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, notFoundAs(err, ErrUserNotFound)
	}
	return user, nil
}

// normalizeEmail devuelve "" si la direccion no es valida.
func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ""
	}
	return email
}
