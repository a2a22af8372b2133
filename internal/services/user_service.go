package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dulceria/api/internal/repositories"
)

const (
	userIDPrefix      = "usr_"
	minPasswordLength = 6
)

var (
	// ErrUserInvalidInput signals the caller provided invalid data.
	ErrUserInvalidInput = errors.New("user: invalid input")
	// ErrUserNotFound indicates the user could not be located.
	ErrUserNotFound = errors.New("user: not found")
	// ErrUserForbidden indicates the account is disabled.
	ErrUserForbidden = errors.New("user: forbidden")
	// ErrUserConflict indicates the email is already registered.
	ErrUserConflict = errors.New("user: conflict")
	// ErrUserInvalidCredentials indicates the identity token failed verification.
	ErrUserInvalidCredentials = errors.New("user: invalid credentials")
	// ErrUserUnavailable indicates a transient store or provider failure.
	ErrUserUnavailable = errors.New("user: store unavailable")

	// ErrAccountAlreadyExists is returned by AccountProvider implementations
	// when the identity provider already holds the email.
	ErrAccountAlreadyExists = errors.New("account provider: email already exists")
)

// AccountRecord is the identity-provider account backing a user profile.
type AccountRecord struct {
	UID   string
	Email string
}

// IdentityToken carries the verified claims of an identity-provider token.
type IdentityToken struct {
	UID   string
	Email string
}

// AccountProvider abstracts the external identity provider (Firebase Auth in
// production) so the service can be exercised without network access.
type AccountProvider interface {
	CreateUser(ctx context.Context, email, password string) (AccountRecord, error)
	VerifyIDToken(ctx context.Context, idToken string) (IdentityToken, error)
}

// SessionIssuer mints session tokens for authenticated profiles.
type SessionIssuer interface {
	Issue(userID, email string, admin, active bool) (string, time.Time, error)
}

// UserServiceDeps bundles collaborators required to construct the user service.
type UserServiceDeps struct {
	Users       repositories.UserRepository
	Accounts    AccountProvider
	Sessions    SessionIssuer
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type userService struct {
	users    repositories.UserRepository
	accounts AccountProvider
	sessions SessionIssuer
	clock    func() time.Time
	newID    func() string
	logger   func(context.Context, string, map[string]any)
}

// NewUserService wires dependencies into a concrete UserService implementation.
func NewUserService(deps UserServiceDeps) (UserService, error) {
	if deps.Users == nil {
		return nil, errors.New("user service: user repository is required")
	}
	if deps.Accounts == nil {
		return nil, errors.New("user service: account provider is required")
	}
	if deps.Sessions == nil {
		return nil, errors.New("user service: session issuer is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &userService{
		users:    deps.Users,
		accounts: deps.Accounts,
		sessions: deps.Sessions,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *userService) Register(ctx context.Context, cmd RegisterUserCommand) (UserProfile, error) {
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.Lastname = strings.TrimSpace(cmd.Lastname)
	cmd.Email = strings.ToLower(strings.TrimSpace(cmd.Email))

	if cmd.Name == "" {
		return UserProfile{}, fmt.Errorf("%w: name is required", ErrUserInvalidInput)
	}
	if cmd.Email == "" || !strings.Contains(cmd.Email, "@") {
		return UserProfile{}, fmt.Errorf("%w: a valid email is required", ErrUserInvalidInput)
	}
	if len(cmd.Password) < minPasswordLength {
		return UserProfile{}, fmt.Errorf("%w: password must be at least %d characters", ErrUserInvalidInput, minPasswordLength)
	}

	if _, err := s.users.FindByEmail(ctx, cmd.Email); err == nil {
		return UserProfile{}, fmt.Errorf("%w: email %s is already registered", ErrUserConflict, cmd.Email)
	} else if !isRepoNotFound(err) {
		return UserProfile{}, s.mapRepositoryError(err)
	}

	account, err := s.accounts.CreateUser(ctx, cmd.Email, cmd.Password)
	if err != nil {
		if errors.Is(err, ErrAccountAlreadyExists) {
			return UserProfile{}, fmt.Errorf("%w: email %s is already registered", ErrUserConflict, cmd.Email)
		}
		return UserProfile{}, fmt.Errorf("%w: creating account: %v", ErrUserUnavailable, err)
	}

	now := s.clock()
	profile := UserProfile{
		ID:          userIDPrefix + s.newID(),
		FirebaseUID: account.UID,
		Name:        cmd.Name,
		Lastname:    cmd.Lastname,
		Email:       cmd.Email,
		Active:      true,
		Admin:       false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.users.Insert(ctx, profile); err != nil {
		return UserProfile{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "user.registered", map[string]any{"user": profile.ID})
	return profile, nil
}

func (s *userService) Login(ctx context.Context, idToken string) (LoginResult, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return LoginResult{}, fmt.Errorf("%w: id token is required", ErrUserInvalidInput)
	}

	token, err := s.accounts.VerifyIDToken(ctx, idToken)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", ErrUserInvalidCredentials, err)
	}

	profile, err := s.ResolveIdentity(ctx, token.UID, token.Email)
	if err != nil {
		return LoginResult{}, err
	}
	if !profile.Active {
		return LoginResult{}, fmt.Errorf("%w: account %s is disabled", ErrUserForbidden, profile.ID)
	}

	sessionToken, expiresAt, err := s.sessions.Issue(profile.ID, profile.Email, profile.Admin, profile.Active)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: issuing session: %v", ErrUserUnavailable, err)
	}

	s.logger(ctx, "user.logged_in", map[string]any{"user": profile.ID})
	return LoginResult{
		Token:     sessionToken,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		Profile:   profile,
	}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID string) (UserProfile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return UserProfile{}, fmt.Errorf("%w: user id is required", ErrUserInvalidInput)
	}
	profile, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return UserProfile{}, s.mapRepositoryError(err)
	}
	return profile, nil
}

func (s *userService) ResolveIdentity(ctx context.Context, firebaseUID string, email string) (UserProfile, error) {
	firebaseUID = strings.TrimSpace(firebaseUID)
	email = strings.ToLower(strings.TrimSpace(email))
	if firebaseUID == "" && email == "" {
		return UserProfile{}, fmt.Errorf("%w: firebase uid or email is required", ErrUserInvalidInput)
	}

	if firebaseUID != "" {
		profile, err := s.users.FindByFirebaseUID(ctx, firebaseUID)
		if err == nil {
			return profile, nil
		}
		if !isRepoNotFound(err) {
			return UserProfile{}, s.mapRepositoryError(err)
		}
	}

	if email != "" {
		profile, err := s.users.FindByEmail(ctx, email)
		if err == nil {
			return profile, nil
		}
		if !isRepoNotFound(err) {
			return UserProfile{}, s.mapRepositoryError(err)
		}
	}

	return UserProfile{}, fmt.Errorf("%w: no profile for identity", ErrUserNotFound)
}

func (s *userService) mapRepositoryError(err error) error {
	return mapRepoError(err, ErrUserNotFound, ErrUserConflict, ErrUserUnavailable)
}
