package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nexora-club/membership-backend/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

func newAuthFixture(verifier FederationVerifier) (AuthService, *fakeUserRepo, TokenService) {
	userRepo := newFakeUserRepo()
	tokens := NewTokenService("test-secret")
	return NewAuthService(userRepo, tokens, verifier), userRepo, tokens
}

func TestSignupValidation(t *testing.T) {
	auth, _, _ := newAuthFixture(nil)

	for _, input := range []SignupInput{
		{Email: "a@x.com", Password: "pw"},
		{Username: "alice", Password: "pw"},
		{Username: "alice", Email: "a@x.com"},
	} {
		_, _, err := auth.Signup(context.Background(), input)
		require.ErrorIs(t, err, ErrValidationFailed)
	}
}

func TestSignupRoleDefaulting(t *testing.T) {
	auth, _, _ := newAuthFixture(nil)

	tests := []struct {
		requested string
		want      models.UserRole
	}{
		{"", models.RoleStudent},
		{"student", models.RoleStudent},
		{"teacher", models.RoleTeacher},
		{"admin", models.RoleStudent}, // admin cannot be self-assigned
		{"wizard", models.RoleStudent},
	}
	for i, tc := range tests {
		user, token, err := auth.Signup(context.Background(), SignupInput{
			Username: "user" + string(rune('a'+i)),
			Email:    "user" + string(rune('a'+i)) + "@x.com",
			Password: "pw",
			Role:     tc.requested,
		})
		require.NoError(t, err)
		require.Equal(t, tc.want, user.Role)
		require.NotEmpty(t, token)
		require.Empty(t, user.PasswordHash)
	}
}

func TestSignupCaseInsensitiveConflicts(t *testing.T) {
	auth, _, _ := newAuthFixture(nil)

	_, _, err := auth.Signup(context.Background(), SignupInput{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, _, err = auth.Signup(context.Background(), SignupInput{Username: "ALICE", Email: "b@x.com", Password: "pw2"})
	require.ErrorIs(t, err, ErrUsernameTaken)

	_, _, err = auth.Signup(context.Background(), SignupInput{Username: "bob", Email: "A@X.COM", Password: "pw2"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignupConcurrentCollision(t *testing.T) {
	auth, userRepo, _ := newAuthFixture(nil)

	var mu sync.Mutex
	var errs []error

	var g errgroup.Group
	for i := 0; i < 2; i++ {
		email := []string{"a@x.com", "b@x.com"}[i]
		g.Go(func() error {
			_, _, err := auth.Signup(context.Background(), SignupInput{Username: "alice", Email: email, Password: "pw"})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	// Exactly one signup wins; the loser sees a clean conflict, not a
	// generic fault or a duplicate row.
	var conflicts, successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrUsernameTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, conflicts)
	require.Len(t, userRepo.users, 1)
}

func TestLoginSucceedsWithUsernameOrEmail(t *testing.T) {
	auth, _, tokens := newAuthFixture(nil)

	created, _, err := auth.Signup(context.Background(), SignupInput{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	for _, login := range []string{"alice", "ALICE", "a@x.com", "A@X.com"} {
		user, signed, err := auth.Login(context.Background(), LoginInput{UsernameOrEmail: login, Password: "pw1"})
		require.NoError(t, err)
		require.Equal(t, created.ID, user.ID)
		require.Empty(t, user.PasswordHash)

		claims, err := tokens.Verify(signed)
		require.NoError(t, err)
		require.Equal(t, created.ID, claims.UserID)
		require.Equal(t, created.Role, claims.Role)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	auth, _, _ := newAuthFixture(nil)

	_, _, err := auth.Signup(context.Background(), SignupInput{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, _, wrongPassword := auth.Login(context.Background(), LoginInput{UsernameOrEmail: "alice", Password: "nope"})
	_, _, unknownUser := auth.Login(context.Background(), LoginInput{UsernameOrEmail: "mallory", Password: "nope"})

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestLoginFederatedCreatesStudentOnFirstLogin(t *testing.T) {
	verifier := &fakeVerifier{identity: &FederatedIdentity{Email: "jane.doe@school.edu", DisplayName: "Jane van Doe"}}
	auth, userRepo, tokens := newAuthFixture(verifier)

	user, signed, err := auth.LoginFederated(context.Background(), "opaque-token")
	require.NoError(t, err)
	require.Equal(t, "jane.doe", user.Username)
	require.Equal(t, "jane.doe@school.edu", user.Email)
	require.Equal(t, models.RoleStudent, user.Role)
	require.NotNil(t, user.FirstName)
	require.Equal(t, "Jane", *user.FirstName)
	require.NotNil(t, user.LastName)
	require.Equal(t, "van Doe", *user.LastName)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)

	// The generated hash must not match any guessable password.
	stored, err := userRepo.GetByEmail(context.Background(), "jane.doe@school.edu")
	require.NoError(t, err)
	require.NotEmpty(t, stored.PasswordHash)
	require.Error(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("")))

	_, _, err = auth.Login(context.Background(), LoginInput{UsernameOrEmail: "jane.doe", Password: ""})
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestLoginFederatedReusesExistingAccountWithoutDrift(t *testing.T) {
	verifier := &fakeVerifier{identity: &FederatedIdentity{Email: "a@x.com", DisplayName: "Totally Different"}}
	auth, userRepo, _ := newAuthFixture(verifier)

	created, _, err := auth.Signup(context.Background(), SignupInput{Username: "alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	user, _, err := auth.LoginFederated(context.Background(), "opaque-token")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)
	require.Equal(t, 1, verifier.calls)
	require.Len(t, userRepo.users, 1)

	// The oracle's current name claim does not overwrite stored fields.
	stored, err := userRepo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Nil(t, stored.FirstName)
}

func TestLoginFederatedOracleFailure(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("oracle unreachable")}
	auth, _, _ := newAuthFixture(verifier)

	_, _, err := auth.LoginFederated(context.Background(), "opaque-token")
	require.ErrorIs(t, err, ErrFederationUnavailable)
}
