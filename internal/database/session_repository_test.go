package database

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetByToken(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewSessionRepository(mockDB)

	now := time.Now()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM auth_sessions`).
			WithArgs("tok123").
			WillReturnRows(sqlmock.NewRows([]string{
				"token", "user_id", "user_agent", "expires_at", "created_at",
			}).AddRow("tok123", 5, "Chrome on Linux", now.Add(time.Hour), now))

		session, err := repo.GetByToken("tok123")
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, int64(5), session.UserID)
	})

	t.Run("Unknown Token", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM auth_sessions`).
			WithArgs("nope").
			WillReturnError(sql.ErrNoRows)

		session, err := repo.GetByToken("nope")
		require.NoError(t, err)
		assert.Nil(t, session)
	})
}

func TestDeleteExpiredSessions(t *testing.T) {
	mockDB, mock := newMockDB(t)
	repo := NewSessionRepository(mockDB)

	mock.ExpectExec(`DELETE FROM auth_sessions`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	rows, err := repo.DeleteExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)
}
