package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitetransport/booking-backend/internal/config"
	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/services"
)

func newAuthRouter(t *testing.T, adminEmails ...string) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mockDB := &mockDatabase{db: sqlx.NewDb(db, "sqlmock")}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	auth := services.NewAuthService(
		database.NewUserRepository(mockDB),
		database.NewSessionRepository(mockDB),
		database.NewPassengerRepository(mockDB),
		&config.AdminConfig{Emails: adminEmails},
		logger,
	)

	router := gin.New()
	router.GET("/me", RequireAuth(auth), func(c *gin.Context) {
		user := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	router.GET("/admin", RequireAuth(auth), RequireAdmin(auth), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return router, mock
}

func expectSession(mock sqlmock.Sqlmock, token string, userID int64, email string) {
	mock.ExpectQuery(`SELECT (.+) FROM auth_sessions`).
		WithArgs(token).
		WillReturnRows(sqlmock.NewRows([]string{
			"token", "user_id", "user_agent", "expires_at", "created_at",
		}).AddRow(token, userID, "Chrome on Linux", time.Now().Add(time.Hour), time.Now()))
	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "first_name", "last_name", "phone", "password_hash",
			"google_id", "picture_url", "auth_method", "verified", "created_at",
		}).AddRow(userID, email, "Ama", "Owusu", "0209876543", nil,
			nil, nil, "email", false, time.Now()))
}

func get(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		router, _ := newAuthRouter(t)

		w := get(router, "/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Unknown Token", func(t *testing.T) {
		router, mock := newAuthRouter(t)

		mock.ExpectQuery(`SELECT (.+) FROM auth_sessions`).
			WithArgs("bogus").
			WillReturnError(sql.ErrNoRows)

		w := get(router, "/me", "bogus")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Valid Token", func(t *testing.T) {
		router, mock := newAuthRouter(t)

		expectSession(mock, "tok123", 5, "ama@example.com")

		w := get(router, "/me", "tok123")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ama@example.com")
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Run("Not On Allow List", func(t *testing.T) {
		router, mock := newAuthRouter(t, "boss@example.com")

		expectSession(mock, "tok123", 5, "ama@example.com")

		w := get(router, "/admin", "tok123")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Admin Allowed", func(t *testing.T) {
		router, mock := newAuthRouter(t, "ama@example.com")

		expectSession(mock, "tok123", 5, "ama@example.com")

		w := get(router, "/admin", "tok123")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

// mockDatabase adapts sqlmock to the DB interface through sqlx
type mockDatabase struct {
	db *sqlx.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return m.db.Get(dest, query, args...)
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return m.db.Select(dest, query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
