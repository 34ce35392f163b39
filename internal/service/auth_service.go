package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/Baaaki/procurehub/internal/models"
	"github.com/Baaaki/procurehub/internal/repository"
	"github.com/Baaaki/procurehub/internal/session"
	"github.com/Baaaki/procurehub/internal/utils"
	"github.com/Baaaki/procurehub/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgAllFieldsRequired = "All fields are required"
	msgPasswordTooShort  = "Password must be at least 6 characters long"
	msgPasswordTooLong   = "Password must be at most 72 bytes long"
	msgInvalidUserType   = "Invalid user type"
	msgEmailExists       = "Email already exists"
	msgUsernameExists    = "Username already exists"
	msgRegistrationFail  = "Registration failed. Please try again."
	msgSigninRequired    = "Email and password are required"
	msgUserNotFound      = "User not found"
	msgInvalidCreds      = "Invalid credentials"
	msgLoginFail         = "Login failed. Please try again."
	msgWelcomeBack       = "Welcome back! You have successfully logged in."

	// bcrypt ignores input past this many bytes
	maxPasswordBytes = 72
	googlePassLength = 16
	usernameSuffix   = 8
)

type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	BcryptCost  int
	Environment string
}

type AuthService struct {
	users    repository.UserStore
	denylist session.Denylist
	cfg      AuthConfig
}

func NewAuthService(users repository.UserStore, denylist session.Denylist, cfg AuthConfig) *AuthService {
	if denylist == nil {
		denylist = session.NoopDenylist{}
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &AuthService{users: users, denylist: denylist, cfg: cfg}
}

// IsProduction returns true if running in production environment
func (s *AuthService) IsProduction() bool {
	return s.cfg.Environment == "production"
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.cfg.TokenTTL
}

type SignupInput struct {
	Username string `validate:"required"`
	Email    string `validate:"required"`
	Password string `validate:"required,min=6"`
	UserType string `validate:"user_type"`
}

// AuthResult is what a successful signup, signin or google login yields.
type AuthResult struct {
	User    *models.User
	Token   string
	Message string
}

func welcomeMessage(t models.UserType) string {
	switch t {
	case models.UserTypeRetailer:
		return "Retailer registered successfully! Welcome to your dashboard."
	case models.UserTypeGovernment:
		return "Government official registered successfully! Welcome to your dashboard."
	default:
		return "User registered successfully"
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	start := time.Now()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.UserType == "" {
		in.UserType = string(models.UserTypeCustomer)
	}

	logger.Log.Debug("Processing user registration",
		zap.String("username", in.Username),
		zap.String("email", in.Email),
		zap.String("user_type", in.UserType),
	)

	// 1. Validate input
	if err := s.validateSignupInput(in); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("username", in.Username),
			zap.String("email", in.Email),
			zap.Error(err),
		)
		return nil, err
	}

	// 2. Check if email or username already exists
	existing, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		logger.Log.Error("Failed to check email existence", zap.String("email", in.Email), zap.Error(err))
		return nil, apperr.Internal(msgRegistrationFail, err)
	}
	if existing != nil {
		logger.Log.Warn("Email already exists", zap.String("email", in.Email))
		return nil, apperr.Conflict(msgEmailExists)
	}

	existing, err = s.users.GetUserByUsername(ctx, in.Username)
	if err != nil {
		logger.Log.Error("Failed to check username existence", zap.String("username", in.Username), zap.Error(err))
		return nil, apperr.Internal(msgRegistrationFail, err)
	}
	if existing != nil {
		logger.Log.Warn("Username already exists", zap.String("username", in.Username))
		return nil, apperr.Conflict(msgUsernameExists)
	}

	// 3. Hash password
	hashStart := time.Now()
	hashedPassword, err := utils.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, apperr.Internal(msgRegistrationFail, err)
	}
	hashDuration := time.Since(hashStart)

	// 4. Create user
	user := &models.User{
		ID:             uuid.New(),
		Username:       in.Username,
		Email:          in.Email,
		Password:       hashedPassword,
		ProfilePicture: models.DefaultProfilePicture,
		UserType:       models.UserType(in.UserType),
		IsShopCreated:  false,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		// lost a race against a concurrent signup with the same identity
		if errors.Is(err, repository.ErrDuplicateKey) {
			logger.Log.Warn("Duplicate key on user insert",
				zap.String("field", repository.DuplicateField(err)),
				zap.String("email", in.Email),
			)
			return nil, duplicateUserError(err)
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("username", in.Username),
			zap.String("email", in.Email),
			zap.Error(err),
		)
		return nil, apperr.Internal(msgRegistrationFail, err)
	}

	// 5. Generate JWT token
	token, err := utils.GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, apperr.Internal(msgRegistrationFail, err)
	}

	logger.Log.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("user_type", string(user.UserType)),
		zap.Duration("hash_duration", hashDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return &AuthResult{User: user, Token: token, Message: welcomeMessage(user.UserType)}, nil
}

func duplicateUserError(err error) error {
	switch repository.DuplicateField(err) {
	case "email":
		return apperr.Conflict(msgEmailExists)
	case "username":
		return apperr.Conflict(msgUsernameExists)
	default:
		return apperr.Conflict("User already exists")
	}
}

func (s *AuthService) validateSignupInput(in SignupInput) error {
	if err := validate.Struct(in); err != nil {
		if hasTag(err, "required") {
			return apperr.Validation(msgAllFieldsRequired)
		}
		fe := firstFieldError(err)
		if fe != nil && fe.Field() == "Password" {
			return apperr.Validation(msgPasswordTooShort)
		}
		if fe != nil && fe.Field() == "UserType" {
			return apperr.Validation(msgInvalidUserType)
		}
		return apperr.Validation(err.Error())
	}
	if len(in.Password) > maxPasswordBytes {
		return apperr.Validation(msgPasswordTooLong)
	}
	return nil
}

func (s *AuthService) Signin(ctx context.Context, email, password string) (*AuthResult, error) {
	start := time.Now()
	email = normalizeEmail(email)

	logger.Log.Debug("Processing user login", zap.String("email", email))

	if email == "" || password == "" {
		return nil, apperr.Validation(msgSigninRequired)
	}

	// 1. Get user by email
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, apperr.Internal(msgLoginFail, err)
	}
	if user == nil {
		logger.Log.Warn("Login failed: user not found", zap.String("email", email))
		return nil, apperr.NotFound(msgUserNotFound)
	}

	// 2. Verify password
	verifyStart := time.Now()
	valid, err := utils.VerifyPassword(password, user.Password)
	if err != nil {
		logger.Log.Error("Failed to verify password", zap.String("email", email), zap.Error(err))
		return nil, apperr.Internal(msgLoginFail, err)
	}
	verifyDuration := time.Since(verifyStart)

	if !valid {
		logger.Log.Warn("Login failed: invalid password",
			zap.String("email", email),
			zap.String("user_id", user.ID.String()),
		)
		return nil, apperr.Authentication(msgInvalidCreds)
	}

	// 3. Generate JWT token
	token, err := utils.GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, apperr.Internal(msgLoginFail, err)
	}

	logger.Log.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.Duration("password_verify_duration", verifyDuration),
		zap.Duration("total_duration", time.Since(start)),
	)

	return &AuthResult{User: user, Token: token, Message: msgWelcomeBack}, nil
}

type GoogleInput struct {
	Email string
	Name  string
	Photo string
}

// Google signs in the user with the given email, creating a customer
// account with a generated username and password on first sight.
func (s *AuthService) Google(ctx context.Context, in GoogleInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" {
		return nil, apperr.Validation("Email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Log.Error("Failed to look up google user", zap.String("email", email), zap.Error(err))
		return nil, apperr.Internal("Google sign-in failed", err)
	}

	if user == nil {
		user, err = s.createGoogleUser(ctx, email, in)
		if err != nil {
			return nil, err
		}
	}

	token, err := utils.GenerateToken(user.ID, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		logger.Log.Error("Failed to generate JWT token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return nil, apperr.Internal("Google sign-in failed", err)
	}

	logger.Log.Info("Google sign-in completed", zap.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Token: token, Message: msgWelcomeBack}, nil
}

func (s *AuthService) createGoogleUser(ctx context.Context, email string, in GoogleInput) (*models.User, error) {
	password, err := utils.RandomString(googlePassLength)
	if err != nil {
		return nil, apperr.Internal("Google sign-in failed", err)
	}
	hashed, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperr.Internal("Google sign-in failed", err)
	}

	suffix, err := utils.RandomString(usernameSuffix)
	if err != nil {
		return nil, apperr.Internal("Google sign-in failed", err)
	}
	base := strings.ToLower(strings.Join(strings.Fields(in.Name), ""))
	if base == "" {
		base = strings.SplitN(email, "@", 2)[0]
	}

	picture := in.Photo
	if picture == "" {
		picture = models.DefaultProfilePicture
	}

	user := &models.User{
		ID:             uuid.New(),
		Username:       base + suffix,
		Email:          email,
		Password:       hashed,
		ProfilePicture: picture,
		UserType:       models.UserTypeCustomer,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// a concurrent first login created the account already
			if existing, lookupErr := s.users.GetUserByEmail(ctx, email); lookupErr == nil && existing != nil {
				return existing, nil
			}
		}
		logger.Log.Error("Failed to create google user", zap.String("email", email), zap.Error(err))
		return nil, apperr.Internal("Google sign-in failed", err)
	}

	logger.Log.Info("Google user created",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	return user, nil
}

// Signout revokes the presented token if it is still valid. Revocation is
// best effort: a missing, invalid or unrevokable token still signs the
// client out, so Signout never fails.
func (s *AuthService) Signout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	claims, err := utils.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		logger.Log.Error("Failed to revoke token, token stays valid until expiry",
			zap.String("user_id", claims.UserID.String()),
			zap.Time("expires_at", claims.ExpiresAt.Time),
			zap.Error(err),
		)
		return
	}
	logger.Log.Info("User signed out", zap.String("user_id", claims.UserID.String()))
}

// Authenticate validates a session token and checks it has not been
// revoked.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*utils.Claims, error) {
	if token == "" {
		return nil, apperr.Authentication("Authentication required")
	}
	claims, err := utils.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, apperr.Authentication("Invalid or expired token")
	}
	revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.Log.Error("Failed to check token denylist", zap.Error(err))
		return nil, apperr.Internal("Failed to verify session", err)
	}
	if revoked {
		return nil, apperr.Authentication("Session has been signed out")
	}
	return claims, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("Failed to load user", err)
	}
	if user == nil {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	return user, nil
}
