package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/repositories"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when a login names an unknown account, so
// the miss costs the same bcrypt work as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-user"), bcrypt.DefaultCost)

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginInput struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

type AuthService interface {
	Signup(ctx context.Context, input SignupInput) (*models.User, string, error)
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
	LoginFederated(ctx context.Context, externalToken string) (*models.User, string, error)
}

type authService struct {
	userRepo repositories.UserRepository
	tokens   TokenService
	verifier FederationVerifier
}

func NewAuthService(userRepo repositories.UserRepository, tokens TokenService, verifier FederationVerifier) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		verifier: verifier,
	}
}

func (s *authService) Signup(ctx context.Context, input SignupInput) (*models.User, string, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, "", fmt.Errorf("%w: username, email and password are required", ErrValidationFailed)
	}

	// Only student and teacher can be self-assigned; anything else, including
	// admin, defaults to student.
	role := models.RoleStudent
	if input.Role == string(models.RoleTeacher) {
		role = models.RoleTeacher
	}

	// Fast-path pre-check for a friendly conflict message. The unique
	// indexes remain the arbiter under concurrent signups.
	if _, err := s.userRepo.GetByUsername(ctx, input.Username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashed),
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent signup can slip past the pre-check; the constraint
		// violation still degrades to the same conflict error.
		switch {
		case errors.Is(err, repositories.ErrUserUsernameConflict):
			return nil, "", ErrUsernameTaken
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	if input.UsernameOrEmail == "" || input.Password == "" {
		return nil, "", fmt.Errorf("%w: usernameOrEmail and password are required", ErrValidationFailed)
	}

	user, err := s.userRepo.GetByUsernameOrEmail(ctx, input.UsernameOrEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(input.Password))
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

// LoginFederated exchanges an external identity token for a session token,
// creating a local account on first login. An existing account with the
// verified email is reused as-is; oracle name claims never overwrite stored
// profile fields.
func (s *authService) LoginFederated(ctx context.Context, externalToken string) (*models.User, string, error) {
	identity, err := s.verifier.Verify(ctx, externalToken)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrFederationUnavailable, err)
	}

	user, err := s.userRepo.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		// Existing account, reused unconditionally.
	case errors.Is(err, repositories.ErrUserNotFound):
		user, err = s.createFederatedUser(ctx, identity)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("failed to look up user by email: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) createFederatedUser(ctx context.Context, identity *FederatedIdentity) (*models.User, error) {
	firstName, lastName := splitDisplayName(identity.DisplayName)

	// The account gets a random hash no password can match; it can only ever
	// authenticate through federation.
	unusable, err := unusablePasswordHash()
	if err != nil {
		return nil, err
	}

	username := usernameFromEmail(identity.Email)
	for attempt := 0; ; attempt++ {
		user := &models.User{
			Username:     username,
			Email:        identity.Email,
			PasswordHash: unusable,
			Role:         models.RoleStudent,
			FirstName:    firstName,
			LastName:     lastName,
		}

		err = s.userRepo.Create(ctx, user)
		if err == nil {
			return user, nil
		}

		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			// Lost a race against another first login for the same email;
			// the winner's account is the one to reuse.
			return s.userRepo.GetByEmail(ctx, identity.Email)
		case errors.Is(err, repositories.ErrUserUsernameConflict) && attempt < 3:
			suffix, sErr := randomSuffix(2)
			if sErr != nil {
				return nil, sErr
			}
			username = usernameFromEmail(identity.Email) + suffix
		default:
			return nil, fmt.Errorf("failed to create federated user: %w", err)
		}
	}
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if local == "" {
		return email
	}
	return local
}

func splitDisplayName(name string) (first, last *string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return nil, nil
	}
	first = &fields[0]
	if len(fields) > 1 {
		rest := strings.Join(fields[1:], " ")
		last = &rest
	}
	return first, last
}

func unusablePasswordHash() (string, error) {
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("failed to generate random password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(random)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash random password: %w", err)
	}
	return string(hash), nil
}

func randomSuffix(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
