package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/mentors-mantra/internal/auth/jwt"
	"github.com/gokatarajesh/mentors-mantra/internal/db/queries"
	"github.com/gokatarajesh/mentors-mantra/internal/db/repository"
)

type userRepository interface {
	Create(ctx context.Context, params queries.CreateUserParams) (queries.User, error)
	GetByUsername(ctx context.Context, username string) (queries.User, error)
	GetByID(ctx context.Context, id string) (queries.User, error)
}

// Service handles student accounts and access tokens.
type Service struct {
	userRepo   userRepository
	tokenMgr   *jwt.Manager
	bcryptCost int
	now        func() time.Time
	logger     zerolog.Logger
}

// ServiceOptions configures the auth service.
type ServiceOptions struct {
	TokenConfig jwt.TokenConfig
	BcryptCost  int
	Now         func() time.Time
}

// NewService creates an authentication service.
func NewService(userRepo userRepository, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		userRepo:   userRepo,
		tokenMgr:   jwt.NewManager(opts.TokenConfig),
		bcryptCost: opts.BcryptCost,
		now:        opts.Now,
		logger:     logger.With().Str("component", "auth").Logger(),
	}
}

// Register creates a student account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Student, *Token, error) {
	username := strings.TrimSpace(req.Username)
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil, nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("lookup username: %w", err)
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	row, err := s.userRepo.Create(ctx, queries.CreateUserParams{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Email:        strings.TrimSpace(req.Email),
		CreatedAt:    s.now().UnixMilli(),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	student := toStudent(row)
	token, err := s.issue(student)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("student_id", student.ID).Str("username", student.Username).Msg("student registered")
	return student, token, nil
}

// Authenticate returns the account matching username and password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Student, error) {
	row, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := VerifyPassword(row.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return toStudent(row), nil
}

// Login authenticates and issues an access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Student, *Token, error) {
	student, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, nil, err
	}

	token, err := s.issue(student)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().Str("student_id", student.ID).Msg("student logged in")
	return student, token, nil
}

// ValidateToken validates a JWT access token.
func (s *Service) ValidateToken(token string) (*jwt.Claims, error) {
	return s.tokenMgr.ValidateAccessToken(token)
}

// Student loads an account by id.
func (s *Service) Student(ctx context.Context, studentID string) (*Student, error) {
	row, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("lookup student: %w", err)
	}
	return toStudent(row), nil
}

func (s *Service) issue(student *Student) (*Token, error) {
	access, err := s.tokenMgr.GenerateAccessToken(jwt.Subject{
		StudentID: student.ID,
		Username:  student.Username,
		Email:     student.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Token{
		AccessToken: access,
		ExpiresIn:   int64(s.tokenMgr.AccessTTL().Seconds()),
	}, nil
}

func toStudent(row queries.User) *Student {
	return &Student{ID: row.ID, Username: row.Username, Email: row.Email}
}
