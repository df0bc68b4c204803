package services_test

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"warung/internal/models"
	"warung/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	log.SetOutput(os.Stdout)
	code := m.Run()
	os.Exit(code)
}

const testJWTSecret = "test_jwt_secret"

func TestAuthService_RegisterUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, "")

	// Test successful registration
	mockRepo.On("GetByUsername", "testuser").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("GetByEmail", "test@example.com").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	user, err := authService.RegisterUser("testuser", "test@example.com", "password123")
	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, "testuser", *user.Username)
	assert.NotEqual(t, "password123", user.Password) // Stored hashed
	mockRepo.AssertExpectations(t)

	// Test username already taken
	mockRepo.On("GetByUsername", "testuser").Return(&models.User{ID: "1"}, nil).Once()
	_, err = authService.RegisterUser("testuser", "test@example.com", "password123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "username 'testuser' already taken")
	mockRepo.AssertExpectations(t)

	// Test email already registered
	mockRepo.On("GetByUsername", "testuser").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("GetByEmail", "test@example.com").Return(&models.User{ID: "1"}, nil).Once()
	_, err = authService.RegisterUser("testuser", "test@example.com", "password123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "email 'test@example.com' already registered")
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, "")

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	username := "testuser"
	email := "test@example.com"
	user := &models.User{
		ID:       "user-123",
		Username: &username,
		Email:    &email,
		Password: string(hashedPassword),
	}

	// Test successful login
	mockRepo.On("GetByUsername", "testuser").Return(user, nil).Once()
	token, err := authService.LoginUser("testuser", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	// The token must carry the full session descriptor.
	session, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", session.UserID)
	assert.Equal(t, "testuser", session.Username)
	assert.Equal(t, "test@example.com", session.Email)
	assert.Empty(t, session.LineUserID)
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByUsername", "testuser").Return(user, nil).Once()
	_, err = authService.LoginUser("testuser", "wrongpassword")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	mockRepo.AssertExpectations(t)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByUsername", "nonexistentuser").Return(nil, fmt.Errorf("user with username nonexistentuser not found")).Once()
	_, err = authService.LoginUser("nonexistentuser", "password123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
	mockRepo.AssertExpectations(t)

	// Federated accounts have no password and must not pass password login.
	lineID := "U1234"
	federated := &models.User{ID: "user-456", Username: &username, LineUserID: &lineID}
	mockRepo.On("GetByUsername", "testuser").Return(federated, nil).Once()
	_, err = authService.LoginUser("testuser", "password123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestAuthService_LoginWithLine(t *testing.T) {
	// Stub the LINE profile endpoint.
	profileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer line-access-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"userId":"U1234567890","displayName":"Taro"}`)
	}))
	defer profileServer.Close()

	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, profileServer.URL)

	// First login creates the federated account (no email on the profile).
	mockRepo.On("GetByLineUserID", "U1234567890").Return(nil, fmt.Errorf("not found")).Once()
	mockRepo.On("Create", mock.MatchedBy(func(u *models.User) bool {
		return u.LineUserID != nil && *u.LineUserID == "U1234567890" && u.Email == nil
	})).Return(nil).Once()

	token, err := authService.LoginWithLine("line-access-token")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	session, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "U1234567890", session.LineUserID)
	assert.Empty(t, session.Email)
	mockRepo.AssertExpectations(t)

	// Subsequent logins reuse the existing row.
	lineID := "U1234567890"
	existing := &models.User{ID: "user-789", LineUserID: &lineID, DisplayName: "Taro"}
	mockRepo.On("GetByLineUserID", "U1234567890").Return(existing, nil).Once()
	token, err = authService.LoginWithLine("line-access-token")
	assert.NoError(t, err)
	session, err = authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-789", session.UserID)
	mockRepo.AssertExpectations(t)

	// A rejected access token fails the login.
	_, err = authService.LoginWithLine("wrong-token")
	assert.Error(t, err)
}

func TestAuthService_ValidateToken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, "")

	// Generate a valid token
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":      "user-123",
		"username":     "testuser",
		"email":        "test@example.com",
		"line_user_id": "",
		"exp":          jwt.TimeFunc().Add(time.Hour).Unix(), // Expires in 1 hour
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	// Test valid token
	session, err := authService.ValidateToken(validTokenString)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", session.UserID)
	assert.Equal(t, "test@example.com", session.Email)
	assert.True(t, session.HasIdentity())

	// Test invalid token (garbage)
	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	// Test expired token
	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     jwt.TimeFunc().Add(-time.Hour).Unix(), // Expired 1 hour ago
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")
}

func TestPrincipalResolver_Resolve(t *testing.T) {
	mockRepo := new(MockUserRepository)
	resolver := services.NewPrincipalResolver(mockRepo)

	// A password session resolves through its email only: the LINE clause
	// is passed empty and the repository excludes it from the match.
	email := "a@x.com"
	user := &models.User{ID: "user-1", Email: &email}
	mockRepo.On("FindByIdentity", "a@x.com", "").Return(user, nil).Once()

	resolved, err := resolver.Resolve(models.Session{Email: "a@x.com"})
	assert.NoError(t, err)
	assert.Equal(t, "user-1", resolved.ID)
	mockRepo.AssertExpectations(t)

	// A federated session resolves through its LINE subject only.
	lineID := "U42"
	lineUser := &models.User{ID: "user-2", LineUserID: &lineID}
	mockRepo.On("FindByIdentity", "", "U42").Return(lineUser, nil).Once()

	resolved, err = resolver.Resolve(models.Session{LineUserID: "U42"})
	assert.NoError(t, err)
	assert.Equal(t, "user-2", resolved.ID)
	mockRepo.AssertExpectations(t)

	// No identity at all is unauthenticated, resolved before any lookup.
	_, err = resolver.Resolve(models.Session{UserID: "user-3"})
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
	mockRepo.AssertNotCalled(t, "FindByIdentity", "", "")
}
