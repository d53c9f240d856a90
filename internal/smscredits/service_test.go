package smscredits

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSmsCreditsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`
CREATE TABLE IF NOT EXISTS sms_credits (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return conn
}

func TestGrantIsAdditive(t *testing.T) {
	conn := setupSmsCreditsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	userID := uuid.New()

	balance, err := svc.Balance(t.Context(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, balance)

	require.NoError(t, svc.Grant(t.Context(), userID, 5000))
	require.NoError(t, svc.Grant(t.Context(), userID, 10000))

	balance, err = svc.Balance(t.Context(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 15000, balance)
}

func TestGrantValidation(t *testing.T) {
	conn := setupSmsCreditsTestDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)

	require.Error(t, svc.Grant(t.Context(), uuid.Nil, 10))
	require.Error(t, svc.Grant(t.Context(), uuid.New(), 0))
	require.Error(t, svc.Grant(t.Context(), uuid.New(), -5))
}
