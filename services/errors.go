package services

import "errors"

// Shared error taxonomy, mapped to HTTP statuses in handlers.
var (
	// Validation and business rules
	ErrValidationFailed = errors.New("validation failed")
	ErrAlreadyInTeam    = errors.New("user already has a team")
	ErrNotTeamMember    = errors.New("user is not a member of this team")

	// Conflicts
	ErrUsernameTaken = errors.New("username is already taken")
	ErrEmailTaken    = errors.New("email address is already in use")

	// Authentication and authorization. Bad password and unknown user both
	// surface as ErrInvalidCredentials so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")

	// Missing resources
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrAnnouncementNotFound = errors.New("announcement not found")

	// Infrastructure
	ErrFederationUnavailable = errors.New("federated identity verification unavailable")
)
