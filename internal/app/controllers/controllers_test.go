package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/oguzk/studentdesk/internal/app/controllers"
	"github.com/oguzk/studentdesk/internal/app/models"
	"github.com/oguzk/studentdesk/internal/app/repositories"
	"github.com/oguzk/studentdesk/internal/app/routes"
	"github.com/oguzk/studentdesk/internal/app/services"
	"github.com/oguzk/studentdesk/internal/middleware"
	"github.com/oguzk/studentdesk/internal/pkg/auth"
)

// testApp wires the full request path over a fresh in-memory store, the
// same way the bootstrap does for the real server.
type testApp struct {
	router *gin.Engine
	store  repositories.Store
	auth   *services.AuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repositories.NewMemoryStore()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "studentdesk.test",
	})
	logger := zerolog.Nop()

	authService := services.NewAuthService(store, jwtService, logger)
	studentService := services.NewStudentService(store, logger)

	authController := controllers.NewAuthController(authService, 3600, false, logger)
	studentController := controllers.NewStudentController(studentService, logger)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	router := gin.New()
	routes.SetupRouter(router, authController, studentController, authMiddleware)

	return &testApp{router: router, store: store, auth: authService}
}

// tokenFor registers an account with the given role and logs it in,
// returning a bearer token for request headers.
func (a *testApp) tokenFor(t *testing.T, username string, role models.RoleType) string {
	t.Helper()

	hashed, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)
	_, err = a.store.CreateUser(context.Background(), &models.User{
		Username: username,
		Password: hashed,
		RoleType: role,
	})
	require.NoError(t, err)

	res := a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"username": username,
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Token struct {
			AccessToken string `json:"accessToken"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token.AccessToken)
	return body.Token.AccessToken
}

// do performs a request against the wired router. An empty token sends
// the request unauthenticated.
func (a *testApp) do(t *testing.T, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func createStudentPayload(email string) map[string]interface{} {
	return map[string]interface{}{
		"firstName": "Ayse",
		"lastName":  "Yilmaz",
		"email":     email,
		"grade":     9,
	}
}
