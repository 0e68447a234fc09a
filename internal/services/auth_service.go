package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elitetransport/booking-backend/internal/config"
	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/elitetransport/booking-backend/pkg/password"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
)

// SessionTTL is how long an issued session token stays valid.
const SessionTTL = 7 * 24 * time.Hour

// AuthService runs registration, sign-in, federated Google auth, and
// session issuance. Tokens are opaque database rows, not JWTs; the only
// JWT handling here is decoding the Google ID token's claims.
type AuthService struct {
	userRepo      *database.UserRepository
	sessionRepo   *database.SessionRepository
	passengerRepo *database.PassengerRepository
	admin         *config.AdminConfig
	logger        *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo *database.UserRepository,
	sessionRepo *database.SessionRepository,
	passengerRepo *database.PassengerRepository,
	admin *config.AdminConfig,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		passengerRepo: passengerRepo,
		admin:         admin,
		logger:        logger,
	}
}

// newToken builds an opaque session token: the user id and issue time as a
// readable prefix, then 24 random bytes, base64 encoded with the URL-unsafe
// characters stripped
func newToken(userID int64) (string, error) {
	random := make([]byte, 24)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	raw := fmt.Sprintf("%d.%d.", userID, time.Now().Unix())
	token := base64.StdEncoding.EncodeToString(append([]byte(raw), random...))
	token = strings.NewReplacer("+", "", "/", "", "=", "").Replace(token)

	return token, nil
}

// deviceLabel condenses a User-Agent header into "Browser on OS" for the
// session audit trail
func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}

	ua := user_agent.New(rawUA)
	browser, _ := ua.Browser()
	os := ua.OS()

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "unknown"
	}
}

// issueSession creates and stores a session for the user
func (s *AuthService) issueSession(user *models.User, rawUA string) (*models.AuthResponse, error) {
	token, err := newToken(user.ID)
	if err != nil {
		return nil, err
	}

	session := &models.AuthSession{
		Token:     token,
		UserID:    user.ID,
		UserAgent: deviceLabel(rawUA),
		ExpiresAt: time.Now().Add(SessionTTL),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token:     token,
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		IsAdmin:   s.admin.IsAdmin(user.Email),
	}, nil
}

// SignUp registers an email/password account and signs it in
func (s *AuthService) SignUp(req *models.SignUpRequest, rawUA string) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInputInvalid)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrInputInvalid)
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: an account with this email already exists", ErrInputInvalid)
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: &hash,
		AuthMethod:   models.AuthMethodEmail,
	}
	user, err = s.userRepo.Create(user)
	if err != nil {
		return nil, err
	}

	s.seedPassenger(user, req.NokName, req.NokPhone)

	s.logger.WithField("user_id", user.ID).Info("User registered")

	return s.issueSession(user, rawUA)
}

// SignIn authenticates an email/password account. Legacy password hashes
// are upgraded in place after a successful match.
func (s *AuthService) SignIn(req *models.SignInRequest, rawUA string) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == nil {
		return nil, fmt.Errorf("%w: invalid email or password", ErrAuthRequired)
	}

	legacy, err := password.Verify(req.Password, *user.PasswordHash)
	if err != nil {
		if errors.Is(err, password.ErrMismatch) || errors.Is(err, password.ErrMalformedHash) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrAuthRequired)
		}
		return nil, err
	}

	if legacy {
		if hash, err := password.Hash(req.Password); err == nil {
			if err := s.userRepo.UpdatePasswordHash(user.ID, hash); err != nil {
				s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to upgrade password hash")
			}
		}
	}

	return s.issueSession(user, rawUA)
}

// GoogleAuth handles federated sign-in and sign-up. When a credential is
// posted its claims override the loose fields; the token is decoded without
// signature verification since it arrives from Google's own widget over TLS
// and identity is anchored on the google_id column.
func (s *AuthService) GoogleAuth(req *models.GoogleAuthRequest, rawUA string) (*models.AuthResponse, error) {
	if req.Credential != "" {
		s.applyCredentialClaims(req)
	}

	if req.GoogleID == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: google identity is incomplete", ErrInputInvalid)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByGoogleID(req.GoogleID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		// Link to an existing email account before treating this as new
		user, err = s.userRepo.GetByEmail(email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			if err := s.userRepo.AttachGoogleID(user.ID, req.GoogleID, req.Picture); err != nil {
				return nil, err
			}
			googleID := req.GoogleID
			user.GoogleID = &googleID
			user.Verified = true
		}
	}

	if user == nil {
		if req.Mode != "signup" {
			return nil, fmt.Errorf("%w: no account for this google identity", ErrNotFound)
		}
		if strings.TrimSpace(req.Phone) == "" {
			return nil, fmt.Errorf("%w: phone is required to sign up", ErrInputInvalid)
		}

		googleID := req.GoogleID
		newUser := &models.User{
			Email:      email,
			FirstName:  strings.TrimSpace(req.FirstName),
			LastName:   strings.TrimSpace(req.LastName),
			Phone:      strings.TrimSpace(req.Phone),
			GoogleID:   &googleID,
			AuthMethod: models.AuthMethodGoogle,
			Verified:   true,
		}
		if req.Picture != "" {
			picture := req.Picture
			newUser.PictureURL = &picture
		}

		user, err = s.userRepo.Create(newUser)
		if err != nil {
			return nil, err
		}

		s.seedPassenger(user, req.NokName, req.NokPhone)

		s.logger.WithField("user_id", user.ID).Info("Google user registered")
	}

	return s.issueSession(user, rawUA)
}

// applyCredentialClaims decodes the Google ID token and overwrites the
// loose request fields with its claims
func (s *AuthService) applyCredentialClaims(req *models.GoogleAuthRequest) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(req.Credential, claims); err != nil {
		s.logger.WithError(err).Warn("Failed to decode google credential")
		return
	}

	if sub, ok := claims["sub"].(string); ok && sub != "" {
		req.GoogleID = sub
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		req.Email = email
	}
	if given, ok := claims["given_name"].(string); ok && given != "" {
		req.FirstName = given
	}
	if family, ok := claims["family_name"].(string); ok && family != "" {
		req.LastName = family
	}
	if picture, ok := claims["picture"].(string); ok && picture != "" {
		req.Picture = picture
	}
}

// seedPassenger writes the initial passenger row so a fresh account shows
// up in passenger-keyed reports. Best-effort.
func (s *AuthService) seedPassenger(user *models.User, nokName, nokPhone string) {
	_, err := s.passengerRepo.Create(&models.Passenger{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Phone:     user.Phone,
		NokName:   optionalString(nokName),
		NokPhone:  optionalString(nokPhone),
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to seed passenger profile")
	}
}

// Verify resolves a bearer token to its user. Expired sessions are reaped
// on sight and rejected.
func (s *AuthService) Verify(token string) (*models.User, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}

	session, err := s.sessionRepo.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrAuthRequired
	}

	if time.Now().After(session.ExpiresAt) {
		if err := s.sessionRepo.Delete(token); err != nil {
			s.logger.WithError(err).Warn("Failed to reap expired session")
		}
		return nil, ErrAuthRequired
	}

	user, err := s.userRepo.GetByID(session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAuthRequired
	}

	return user, nil
}

// SignOut revokes the session. Revoking an unknown token is a no-op.
func (s *AuthService) SignOut(token string) error {
	if token == "" {
		return nil
	}
	return s.sessionRepo.Delete(token)
}

// IsAdmin reports whether the user's email is on the admin allow-list
func (s *AuthService) IsAdmin(user *models.User) bool {
	return s.admin.IsAdmin(user.Email)
}
