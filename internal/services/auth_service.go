package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/student-records-service/internal/auth"
	"github.com/SAP-F-2025/student-records-service/internal/config"
	"github.com/SAP-F-2025/student-records-service/internal/events"
	"github.com/SAP-F-2025/student-records-service/internal/models"
	"github.com/SAP-F-2025/student-records-service/internal/repositories"
	"github.com/SAP-F-2025/student-records-service/internal/utils"
)

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	// LoginWithGoogleToken verifies a Google ID token and creates or links
	// the local account.
	LoginWithGoogleToken(ctx context.Context, idToken string) (string, *models.User, error)
	// LoginWithIdentity creates or links a local account from an already
	// verified external identity assertion (OAuth callback path).
	LoginWithIdentity(ctx context.Context, identity *auth.GoogleIdentity, provider models.AuthProvider) (string, *models.User, error)
	Me(ctx context.Context, userID uint) (*models.User, error)
	SetPassword(ctx context.Context, callerID uint, newPassword string) error
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}

type authService struct {
	cfg       *config.Config
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	publisher events.EventPublisher
	verifier  auth.GoogleVerifier
}

func NewAuthService(
	cfg *config.Config,
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	publisher events.EventPublisher,
	verifier auth.GoogleVerifier,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		verifier:  verifier,
	}
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// Self-registration never grants an elevated role; elevation is an
	// admin action on the user record. Admin bootstrap happens via the
	// configured email list.
	role := models.RoleStudent
	if req.Role != "" {
		requested, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not admin, scolarite or student", ErrInvalidRole, req.Role)
		}
		if requested != models.RoleStudent {
			return nil, NewValidationError("role", "self-registration is limited to the student role", req.Role)
		}
	}
	if s.cfg.IsAdminEmail(req.Email) {
		role = models.RoleAdmin
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.repo.User().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
		Provider:     models.ProviderLocal,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		// The ExistsByEmail check above can race a concurrent registration;
		// the unique index is the authority.
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID, "role", user.Role)
	s.publishRegistered(ctx, user)

	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Fails closed for pure-OAuth accounts with no local password set.
	if !user.HasLocalPassword() {
		return "", nil, ErrInvalidCredentials
	}
	if err := auth.CheckPassword(*user.PasswordHash, password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	return s.issueToken(ctx, user)
}

func (s *authService) LoginWithGoogleToken(ctx context.Context, idToken string) (string, *models.User, error) {
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.logger.Warn("Google token verification failed", "error", err)
		return "", nil, fmt.Errorf("%w: %v", ErrUpstreamIdentity, err)
	}
	return s.LoginWithIdentity(ctx, identity, models.ProviderGoogle)
}

func (s *authService) LoginWithIdentity(ctx context.Context, identity *auth.GoogleIdentity, provider models.AuthProvider) (string, *models.User, error) {
	email := strings.ToLower(strings.TrimSpace(identity.Email))

	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil && !repositories.IsNotFoundError(err) {
		return "", nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user == nil || repositories.IsNotFoundError(err) {
		user, err = s.createOAuthUser(ctx, identity, provider, email)
		if err != nil {
			return "", nil, err
		}
	} else if user.Provider != provider {
		// Link the OAuth identity to an existing local account. The local
		// password hash, if any, is kept: dual-auth.
		user.Provider = provider
		if identity.Picture != "" && user.AvatarURL == nil {
			user.AvatarURL = &identity.Picture
		}
		if err := s.repo.User().Update(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to link provider: %w", err)
		}
	}

	return s.issueToken(ctx, user)
}

func (s *authService) createOAuthUser(ctx context.Context, identity *auth.GoogleIdentity, provider models.AuthProvider, email string) (*models.User, error) {
	name := identity.Name
	if name == "" {
		name = "Google User"
	}

	// OAuth accounts still get a random local hash so the column is never
	// a guessable constant; the user may replace it via set-password.
	random, err := randomSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := auth.HashPassword(random)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleStudent
	if s.cfg.IsAdminEmail(email) {
		role = models.RoleAdmin
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: &hash,
		Role:         role,
		Provider:     provider,
	}
	if identity.Picture != "" {
		user.AvatarURL = &identity.Picture
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created from external identity", "user_id", user.ID, "provider", provider, "role", role)
	s.publishRegistered(ctx, user)

	return user, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (s *authService) SetPassword(ctx context.Context, callerID uint, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return NewValidationError("password", "must be at least 6 characters", nil)
	}

	user, err := s.repo.User().GetByID(ctx, callerID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = &hash
	if err := s.repo.User().Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("Password updated", "user_id", callerID)
	return nil
}

// issueToken signs an access token and stamps the login time. The role in
// the token is a snapshot; it stays valid until expiry even if the record
// changes server-side.
func (s *authService) issueToken(ctx context.Context, user *models.User) (string, *models.User, error) {
	token, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.TokenTTL, auth.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		Email:  user.Email,
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	now := time.Now().UTC()
	if err := s.repo.User().UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to record last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}

	return token, user, nil
}

func (s *authService) publishRegistered(ctx context.Context, user *models.User) {
	event := events.NewNotificationEvent(events.EventUserRegistered, events.UserRegisteredEvent{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     string(user.Role),
		Provider: string(user.Provider),
	})
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish registration event", "user_id", user.ID, "error", err)
	}
}

func randomSecret() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
