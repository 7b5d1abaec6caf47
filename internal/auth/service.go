package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/models"
	"ms-reservation/internal/settings"
	"ms-reservation/internal/store"
	"ms-reservation/internal/utils"
	"ms-reservation/internal/venue"
)

type AuthDBLayer interface {
	store.UserRepository
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error
}

type Options struct {
	SignupHorizonDays    int
	DefaultVenueCapacity int
	BcryptCost           int
}

type AuthService struct {
	DB       AuthDBLayer
	Sessions SessionStore
	Tokens   *TokenIssuer
	Logger   *logger.Logger
	Clock    utils.Clock
	Options  Options
}

func NewAuthService(db AuthDBLayer, sessions SessionStore, tokens *TokenIssuer, log *logger.Logger, clock utils.Clock, opts Options) *AuthService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if clock == nil {
		clock = utils.NewRealClock(nil)
	}
	if opts.SignupHorizonDays <= 0 {
		opts.SignupHorizonDays = 10
	}
	if opts.DefaultVenueCapacity <= 0 {
		opts.DefaultVenueCapacity = 50
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{DB: db, Sessions: sessions, Tokens: tokens, Logger: log, Clock: clock, Options: opts}
}

func validateSignup(req models.SignupRequest) error {
	if strings.TrimSpace(req.LoginID) == "" {
		return models.Validationf("userId is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return models.Validationf("email %q is not valid", req.Email)
	}
	if len(req.Password) < 6 {
		return models.Validationf("password must be at least 6 characters")
	}
	if strings.TrimSpace(req.Name) == "" {
		return models.Validationf("name is required")
	}
	return nil
}

func (s *AuthService) newUser(req models.SignupRequest, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.Options.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return &models.User{
		ID:           utils.GenerateUserID(),
		LoginID:      strings.TrimSpace(req.LoginID),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    s.Clock.Now(),
	}, nil
}

func (s *AuthService) SignupCustomer(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	if err := validateSignup(req); err != nil {
		return nil, err
	}
	u, err := s.newUser(req, models.RoleCustomer)
	if err != nil {
		return nil, err
	}
	if err := s.DB.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.LogSecurity("SIGNUP", fmt.Sprintf("customer %s registered", u.LoginID))
	return u, nil
}

// SignupOwner creates the venue, its provisioned settings and the owner
// account together. Nothing is kept if any step fails.
func (s *AuthService) SignupOwner(ctx context.Context, req models.OwnerSignupRequest) (*models.User, *models.Venue, error) {
	if err := validateSignup(req.SignupRequest); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(req.VenueName) == "" {
		return nil, nil, models.Validationf("restaurantName is required")
	}
	if req.Capacity < 0 {
		return nil, nil, models.Validationf("capacity must not be negative")
	}
	u, err := s.newUser(req.SignupRequest, models.RoleOwner)
	if err != nil {
		return nil, nil, err
	}

	v := venue.NewOwnerVenue(req, s.Options.DefaultVenueCapacity, s.Clock.Now())
	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.CreateVenue(ctx, &v); err != nil {
			return fmt.Errorf("failed to create venue: %w", err)
		}
		if err := tx.CreateSettings(ctx, settings.NewProvisionedSettings(v.ID, s.Options.SignupHorizonDays, s.Clock)); err != nil {
			return fmt.Errorf("failed to create venue settings: %w", err)
		}
		u.VenueID = &v.ID
		return tx.CreateUser(ctx, u)
	})
	if err != nil {
		u.VenueID = nil
		return nil, nil, err
	}

	s.Logger.LogSecurity("SIGNUP", fmt.Sprintf("owner %s registered with venue %d", u.LoginID, v.ID))
	return u, &v, nil
}

func (s *AuthService) Login(ctx context.Context, loginID, password string) (*models.LoginResponse, error) {
	u, err := s.DB.GetUserByLoginID(ctx, strings.TrimSpace(loginID))
	if errors.Is(err, models.ErrNotFound) {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("unknown login id %q", loginID))
		return nil, models.ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		s.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("bad password for %q", loginID))
		return nil, models.ErrInvalidCredentials
	}

	session := models.Session{
		ID:     utils.GenerateSessionID(),
		UserID: u.ID,
	}
	token, exp, err := s.Tokens.Issue(u.ID, session.ID)
	if err != nil {
		return nil, err
	}
	session.ExpiresAt = exp
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	s.Logger.Info("AUTH", fmt.Sprintf("User %s logged in", u.LoginID))
	return &models.LoginResponse{Token: token, ExpiresAt: exp, User: *u}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.Sessions.Delete(ctx, sessionID)
}

// Authenticate resolves a bearer token to its user. Revoked or expired
// sessions are Unauthorized.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (*models.User, *Claims, error) {
	claims, err := s.Tokens.Parse(rawToken)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.Sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: session expired or revoked", models.ErrUnauthorized)
	} else if err != nil {
		return nil, nil, err
	}
	if session.UserID != claims.UserID {
		return nil, nil, fmt.Errorf("%w: session does not belong to token subject", models.ErrUnauthorized)
	}
	u, err := s.DB.GetUser(ctx, claims.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: user no longer exists", models.ErrUnauthorized)
	} else if err != nil {
		return nil, nil, err
	}
	return u, claims, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.User, error) {
	if patch.Email != nil {
		if _, err := mail.ParseAddress(*patch.Email); err != nil {
			return nil, models.Validationf("email %q is not valid", *patch.Email)
		}
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, models.Validationf("name must not be empty")
	}

	var updated *models.User
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if patch.Name != nil {
			u.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Email != nil {
			u.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
		}
		if patch.Phone != nil {
			u.Phone = strings.TrimSpace(*patch.Phone)
		}
		if err := tx.UpdateUser(ctx, u); err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < 6 {
		return models.Validationf("password must be at least 6 characters")
	}
	return s.DB.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
			s.Logger.LogSecurity("PASSWORD_CHANGE_FAILED", fmt.Sprintf("bad current password for %s", u.LoginID))
			return models.ErrInvalidCredentials
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(next), s.Options.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = string(hash)
		return tx.UpdateUser(ctx, u)
	})
}
