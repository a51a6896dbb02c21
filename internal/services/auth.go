package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
	"github.com/classquest/classquest-backend/internal/utils"
)

// Claims is the JWT payload carried by every authenticated request.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResult bundles the issued token with the safe redirect target for
// the user's role.
type LoginResult struct {
	Token    string      `json:"token"`
	User     *types.User `json:"user"`
	Redirect string      `json:"redirect"`
}

type SignupTeacherInput struct {
	Username   string
	Email      string
	Password   string
	FirstName  string
	LastName   string
	AccessCode string
}

type AuthService interface {
	SignupTeacher(ctx context.Context, input SignupTeacherInput) (*types.User, error)
	Login(ctx context.Context, username, password, redirect, ip string) (*LoginResult, error)
	ParseToken(token string) (*Claims, error)
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	auditService AuditService
	secret       []byte
	accessCode   string
	tokenTTL     time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	auditService AuditService,
	secret, accessCode string,
	tokenTTL time.Duration,
) AuthService {
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		auditService: auditService,
		secret:       []byte(secret),
		accessCode:   accessCode,
		tokenTTL:     tokenTTL,
	}
}

func (s *authService) SignupTeacher(ctx context.Context, input SignupTeacherInput) (*types.User, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, apperr.Validationf("username, email and password are required")
	}
	if input.AccessCode != s.accessCode {
		return nil, apperr.Permissionf("invalid access code")
	}
	var created *types.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.userRepo.UsernameExists(ctx, tx, input.Username)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Validationf("username is already taken")
		}
		taken, err = s.userRepo.EmailExists(ctx, tx, input.Email)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Validationf("email is already registered")
		}
		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			return err
		}
		u := &types.User{
			Username:  input.Username,
			Email:     input.Email,
			Password:  hashed,
			Role:      types.RoleTeacher,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			IsActive:  true,
		}
		if _, err := s.userRepo.Create(ctx, tx, []*types.User{u}); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *authService) Login(ctx context.Context, username, password, redirect, ip string) (*LoginResult, error) {
	u, err := s.userRepo.GetByUsername(ctx, nil, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Rulef(apperr.CodeInvalidCredentials, "invalid username or password")
		}
		return nil, err
	}
	if !u.IsActive || !utils.CheckPassword(u.Password, password) {
		return nil, apperr.Rulef(apperr.CodeInvalidCredentials, "invalid username or password")
	}

	now := time.Now().UTC()
	claims := Claims{
		UserID: u.ID.String(),
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	if err := s.auditService.Record(ctx, nil, AuditEntry{
		EventType: types.EventLogin,
		UserID:    &u.ID,
		IPAddress: ip,
	}); err != nil {
		s.log.Warn("failed to record login event", "user_id", u.ID, "error", err)
	}

	return &LoginResult{
		Token:    token,
		User:     u,
		Redirect: utils.SanitizeRedirect(redirect, u.Role),
	}, nil
}

func (s *authService) ParseToken(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperr.Permissionf("invalid or expired token")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, apperr.Permissionf("invalid or expired token")
	}
	return &claims, nil
}
