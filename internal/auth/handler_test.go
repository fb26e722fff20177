package auth_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moe10k/word-game/internal/auth"
	"github.com/moe10k/word-game/internal/domain"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) VerifyToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) GenerateToken(id string) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

func TestSignupHandler(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	exErr := errors.New("example error")

	testCases := []struct {
		description   string
		body          string
		setupMocks    func(m *MockAuthService)
		expectedCode  int
		expectedBody  string
		expectedToken string
	}{
		{
			description: "normal success",
			body:        `{"username":"oussama", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "oussama", "pass1234").Return("tokenhaha", nil)
			},
			expectedCode:  http.StatusCreated,
			expectedToken: "tokenhaha",
		},
		{
			description: "username already exists",
			body:        `{"username":"oussama", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "oussama", "pass1234").Return("", domain.ErrDuplicateUsername)
			},
			expectedCode: http.StatusConflict,
			expectedBody: auth.ErrUsernameAlreadyExistsStr,
		},
		{
			description: "weak password",
			body:        `{"username":"oussama", "password":"123"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "oussama", "123").Return("", auth.ErrWeakPassword)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrWeakPasswordStr,
		},
		{
			description: "password too long",
			body:        `{"username":"oussama", "password":"longpass"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "oussama", "longpass").Return("", auth.ErrPasswordTooLong)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrPasswordTooLongStr,
		},
		{
			description: "invalid username format",
			body:        `{"username":"bad format", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "bad format", "pass1234").Return("", auth.ErrInvalidUsernameFormat)
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrInvalidUsernameFormatStr,
		},
		{
			description:  "non json request",
			body:         `{`,
			setupMocks:   func(m *MockAuthService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrInvalidRequestFormatStr,
		},
		{
			description: "database failure",
			body:        `{"username":"oussama", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "oussama", "pass1234").
					Return("", errors.Join(domain.UnexpectedDatabaseError, exErr))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: auth.ErrUnknownStr,
		},
		{
			description: "timeout error",
			body:        `{"username":"oussama", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "oussama", "pass1234").Return("", context.DeadlineExceeded)
			},
			expectedCode: http.StatusGatewayTimeout,
			expectedBody: auth.ErrServerTimeoutStr,
		},
		{
			description: "client closed request",
			body:        `{"username":"oussama", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Signup", mock.Anything, "oussama", "pass1234").Return("", context.Canceled)
			},
			expectedCode: 499,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()
			mockService := new(MockAuthService)
			tc.setupMocks(mockService)

			authHandler := auth.NewAuthHandler(mockService, 197*time.Second)
			server := gin.New()
			server.POST("/signup", authHandler.SignupHandler)

			req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			res := httptest.NewRecorder()

			server.ServeHTTP(res, req)

			cookies := res.Result().Cookies()
			token := ""
			if len(cookies) > 0 {
				assert.Equal(t, "token", cookies[0].Name)
				assert.Equal(t, "/", cookies[0].Path)
				assert.Equal(t, 197, cookies[0].MaxAge)
				token = cookies[0].Value
			}

			assert.Equal(t, tc.expectedCode, res.Code)
			assert.Equal(t, tc.expectedBody, res.Body.String())
			assert.Equal(t, tc.expectedToken, token)
			mockService.AssertExpectations(t)
		})
	}
}

func TestLoginHandler(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	exErr := errors.New("example error")

	testCases := []struct {
		description   string
		body          string
		setupMocks    func(m *MockAuthService)
		expectedCode  int
		expectedBody  string
		expectedToken string
	}{
		{
			description: "successful login",
			body:        `{"username":"oussama", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "oussama", "pass1234").Return("loginToken123", nil)
			},
			expectedCode:  http.StatusOK,
			expectedToken: "loginToken123",
		},
		{
			description: "user not found",
			body:        `{"username":"ghost", "password":"pass1234"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "ghost", "pass1234").Return("", domain.ErrUserNotFound)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: auth.ErrInvalidCredentialsStr,
		},
		{
			description: "incorrect password",
			body:        `{"username":"oussama", "password":"wrong"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "oussama", "wrong").Return("", auth.ErrIncorrectPassword)
			},
			expectedCode: http.StatusUnauthorized,
			expectedBody: auth.ErrInvalidCredentialsStr,
		},
		{
			description:  "non json request",
			body:         `{`,
			setupMocks:   func(m *MockAuthService) {},
			expectedCode: http.StatusBadRequest,
			expectedBody: auth.ErrInvalidRequestFormatStr,
		},
		{
			description: "database failure",
			body:        `{"username":"oussama", "password":"pass"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "oussama", "pass").
					Return("", errors.Join(domain.UnexpectedDatabaseError, exErr))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: auth.ErrUnknownStr,
		},
		{
			description: "timeout error",
			body:        `{"username":"oussama", "password":"pass"}`,
			setupMocks: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "oussama", "pass").Return("", context.DeadlineExceeded)
			},
			expectedCode: http.StatusGatewayTimeout,
			expectedBody: auth.ErrServerTimeoutStr,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()
			mockService := new(MockAuthService)
			tc.setupMocks(mockService)

			authHandler := auth.NewAuthHandler(mockService, 100*time.Second)
			server := gin.New()
			server.POST("/login", authHandler.LoginHandler)

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			res := httptest.NewRecorder()

			server.ServeHTTP(res, req)

			cookies := res.Result().Cookies()
			token := ""
			if len(cookies) > 0 {
				assert.Equal(t, "token", cookies[0].Name)
				assert.Equal(t, 100, cookies[0].MaxAge)
				token = cookies[0].Value
			}

			assert.Equal(t, tc.expectedCode, res.Code)
			assert.Equal(t, tc.expectedBody, res.Body.String())
			assert.Equal(t, tc.expectedToken, token)
			mockService.AssertExpectations(t)
		})
	}
}

func TestRefreshSessionHandler(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	testCases := []struct {
		description   string
		cookieValue   string
		setupMocks    func(m *MockAuthService)
		expectedCode  int
		expectedToken string
	}{
		{
			description:  "missing token cookie",
			setupMocks:   func(m *MockAuthService) {},
			expectedCode: http.StatusUnauthorized,
		},
		{
			description: "invalid or expired token",
			cookieValue: "bad-token",
			setupMocks: func(m *MockAuthService) {
				m.On("VerifyToken", "bad-token").Return("", domain.ErrExpiredToken)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			description: "token generation failure",
			cookieValue: "valid-token",
			setupMocks: func(m *MockAuthService) {
				m.On("VerifyToken", "valid-token").Return("user-123", nil)
				m.On("GenerateToken", "user-123").Return("", domain.UnexpectedTokenGenerationError)
			},
			expectedCode: http.StatusInternalServerError,
		},
		{
			description: "successful refresh",
			cookieValue: "valid-token",
			setupMocks: func(m *MockAuthService) {
				m.On("VerifyToken", "valid-token").Return("user-123", nil)
				m.On("GenerateToken", "user-123").Return("new-refreshed-token", nil)
			},
			expectedCode:  http.StatusOK,
			expectedToken: "new-refreshed-token",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.description, func(t *testing.T) {
			t.Parallel()
			mockService := new(MockAuthService)
			tc.setupMocks(mockService)

			authHandler := auth.NewAuthHandler(mockService, 24*time.Hour)
			server := gin.New()
			server.GET("/refresh", authHandler.RefreshSessionHandler)

			req := httptest.NewRequest(http.MethodGet, "/refresh", nil)
			if tc.cookieValue != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tc.cookieValue})
			}
			res := httptest.NewRecorder()

			server.ServeHTTP(res, req)

			assert.Equal(t, tc.expectedCode, res.Code)
			if tc.expectedToken != "" {
				cookies := res.Result().Cookies()
				if assert.NotEmpty(t, cookies) {
					assert.Equal(t, "token", cookies[0].Name)
					assert.Equal(t, tc.expectedToken, cookies[0].Value)
				}
			} else {
				assert.Empty(t, res.Result().Cookies())
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestLogoutHandler(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)
	authHandler := auth.NewAuthHandler(new(MockAuthService), 4*time.Second)
	server := gin.New()
	server.POST("/logout", authHandler.LogoutHandler)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	res := httptest.NewRecorder()
	server.ServeHTTP(res, req)

	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, "token", cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0, "token age must be negative so the cookie gets deleted")
}
