package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chicpos/internal/config"
	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
	// DeleteUser removes the account for good and records who did it. The
	// removal and its audit entry succeed together or a ConsistencyError is returned.
	DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) error
}

var ErrInvalidCredentials = errors.New("credenciais inválidas")

type authService struct {
	repo  repository.UserRepository
	audit AuditService
	cfg   *config.Config
}

func NewAuthService(repo repository.UserRepository, audit AuditService, cfg *config.Config) AuthService {
	return &authService{repo: repo, audit: audit, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	entry := &model.AuditLog{
		Action:      model.AuditLogin,
		Description: fmt.Sprintf("Login de %s (%s)", user.Name, user.Role),
		PerformedBy: user.Name,
	}
	if err := s.audit.RecordTx(ctx, nil, entry); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("auth: login not audited")
	}
	return resp, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("refresh token inválido ou expirado")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims inválidos")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("token mal formado")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("token mal formado")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, errors.New("usuário não encontrado")
	}
	return s.issue(user)
}

func (s *authService) CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = "ACTIVE"
	}
	user := &model.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         req.Role,
		Status:       status,
		AvatarSeed:   strings.ToLower(strings.Fields(req.Name + " x")[0]),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	entry := &model.AuditLog{
		Action:      model.AuditUserCreated,
		Description: fmt.Sprintf("Cadastro de %s (%s)", user.Name, user.Role),
		PerformedBy: actor.Name,
	}
	if err := s.audit.RecordTx(ctx, nil, entry); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("auth: user creation not audited")
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(&users[i])
	}
	return resp, nil
}

// ── DeleteUser ────────────────────────────────────────────────────────────────
// 1. Load the user (NotFoundError when absent)
// 2. BEGIN TX: delete row, append USER_DELETED audit entry
// 3. COMMIT
// Without a transactional store the delete stands even when the audit write
// fails, so that case is reported as a ConsistencyError.

func (s *authService) DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) error {
	if id == actor.UserID {
		return invalid("id", "não é possível excluir o próprio usuário")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "usuário", id.String())
	}

	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Delete(ctx, tx, id); err != nil {
			return notFoundOr(err, "usuário", id.String())
		}
		entry := &model.AuditLog{
			Action:      model.AuditUserDeleted,
			Description: fmt.Sprintf("Exclusão definitiva de %s (%s)", user.Name, user.Role),
			PerformedBy: actor.Name,
		}
		if err := s.audit.RecordTx(ctx, tx, entry); err != nil {
			log.Error().Err(err).Str("user_id", id.String()).Msg("auth: user removal audit failed")
			return &ConsistencyError{Op: "user_removal_audit", Err: err}
		}
		return nil
	})
}

// ── Tokens ────────────────────────────────────────────────────────────────────

func (s *authService) issue(user *model.User) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         userToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.User, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"name":    user.Name,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
