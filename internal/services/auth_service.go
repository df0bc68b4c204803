package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"warung/internal/models"
	"warung/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// DefaultLineProfileURL is the LINE profile endpoint used when none is
// configured (tests point this at a stub server).
const DefaultLineProfileURL = "https://api.line.me/v2/profile"

// AuthService handles registration, both login paths (username/password and
// LINE) and token validation. Tokens of both account kinds carry the same
// claim shape, so downstream code only ever sees one session descriptor.
type AuthService struct {
	userRepo       repositories.UserRepository
	jwtSecret      []byte
	tokenDurat     time.Duration // Duration for which JWT is valid
	lineProfileURL string
	httpClient     *http.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret, lineProfileURL string) *AuthService {
	if lineProfileURL == "" {
		lineProfileURL = DefaultLineProfileURL
	}
	return &AuthService{
		userRepo:       userRepo,
		jwtSecret:      []byte(jwtSecret),
		tokenDurat:     24 * time.Hour, // Token valid for 24 hours
		lineProfileURL: lineProfileURL,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

// RegisterUser registers a new password-based user, hashes their password,
// and saves them to the database.
func (s *AuthService) RegisterUser(username, email, password string) (*models.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("username, email and password are required")
	}

	// Check if username or email already exists
	if existingUser, err := s.userRepo.GetByUsername(username); err == nil && existingUser != nil {
		return nil, fmt.Errorf("username '%s' already taken", username)
	}
	if existingUser, err := s.userRepo.GetByEmail(email); err == nil && existingUser != nil {
		return nil, fmt.Errorf("email '%s' already registered", email)
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: &username,
		Email:    &email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// LoginUser authenticates a password-based user and returns a JWT token.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// Do not reveal whether the username exists
		return "", fmt.Errorf("invalid credentials")
	}

	// Federated accounts have no password to compare against
	if user.Password == "" {
		return "", fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	return s.issueToken(user)
}

// lineProfile is the subset of the LINE profile response we use.
type lineProfile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl"`
	Email       string `json:"email"`
}

// LoginWithLine exchanges a LINE access token for a session: it fetches the
// LINE profile, finds or creates the federated user row keyed by the LINE
// subject, and issues the same JWT shape as a password login. LINE accounts
// may carry no email at all.
func (s *AuthService) LoginWithLine(accessToken string) (string, error) {
	if accessToken == "" {
		return "", fmt.Errorf("LINE access token is required")
	}

	profile, err := s.fetchLineProfile(accessToken)
	if err != nil {
		return "", fmt.Errorf("failed to fetch LINE profile: %w", err)
	}
	if profile.UserID == "" {
		return "", fmt.Errorf("LINE profile has no user id")
	}

	user, err := s.userRepo.GetByLineUserID(profile.UserID)
	if err != nil {
		// First login for this LINE subject: create the federated account.
		user = &models.User{
			LineUserID:  &profile.UserID,
			DisplayName: profile.DisplayName,
		}
		if profile.Email != "" {
			user.Email = &profile.Email
		}
		if err := s.userRepo.Create(user); err != nil {
			return "", fmt.Errorf("failed to create LINE user: %w", err)
		}
		log.Printf("Created federated account for LINE subject %s", profile.UserID)
	}

	return s.issueToken(user)
}

func (s *AuthService) fetchLineProfile(accessToken string) (*lineProfile, error) {
	req, err := http.NewRequest(http.MethodGet, s.lineProfileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LINE profile endpoint returned status %d", resp.StatusCode)
	}

	var profile lineProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode LINE profile: %w", err)
	}
	return &profile, nil
}

// issueToken generates the JWT carried by both account kinds. Empty claims
// are included as empty strings so the session descriptor round-trips.
func (s *AuthService) issueToken(user *models.User) (string, error) {
	username := ""
	if user.Username != nil {
		username = *user.Username
	}
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	lineUserID := ""
	if user.LineUserID != nil {
		lineUserID = *user.LineUserID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":      user.ID,
		"username":     username,
		"email":        email,
		"line_user_id": lineUserID,
		"exp":          time.Now().Add(s.tokenDurat).Unix(), // Token expiration time
		"iat":          time.Now().Unix(),                   // Issued at time
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the session
// descriptor it carries.
func (s *AuthService) ValidateToken(tokenString string) (models.Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return models.Session{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Session{}, fmt.Errorf("invalid token")
	}

	return models.Session{
		UserID:     claimString(claims, "user_id"),
		Username:   claimString(claims, "username"),
		Email:      claimString(claims, "email"),
		LineUserID: claimString(claims, "line_user_id"),
	}, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
