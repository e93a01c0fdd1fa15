package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentdesk/internal/infrastructure/monitoring/logging"
)

func TestClient_PingAndClose(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewClientWithRDB(db, logging.NewNopLogger())

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, c.Check(context.Background()))
	assert.Equal(t, "redis", c.Name())

	require.NoError(t, c.Close())
	assert.NoError(t, c.Close(), "close is idempotent")
	assert.Equal(t, ErrClientClosed, c.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_AcquireAndRelease(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewLocker(NewClientWithRDB(db, logging.NewNopLogger()), logging.NewNopLogger()).(*redisLocker)
	l.newValue = func() string { return "owner-1" }

	mock.ExpectSetNX("lock:mutex:sweep", "owner-1", time.Minute).SetVal(true)
	mock.ExpectEval(mutexUnlockScript, []string{"lock:mutex:sweep"}, "owner-1").SetVal(int64(1))

	unlock, ok, err := l.TryLock(context.Background(), "sweep", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NoError(t, unlock(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocker_Held(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewLocker(NewClientWithRDB(db, logging.NewNopLogger()), logging.NewNopLogger()).(*redisLocker)
	l.newValue = func() string { return "owner-2" }

	mock.ExpectSetNX("lock:mutex:sweep", "owner-2", time.Minute).SetVal(false)

	unlock, ok, err := l.TryLock(context.Background(), "sweep", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, unlock)
}

func TestLocker_ExpiredBeforeRelease(t *testing.T) {
	db, mock := redismock.NewClientMock()
	l := NewLocker(NewClientWithRDB(db, logging.NewNopLogger()), logging.NewNopLogger()).(*redisLocker)
	l.newValue = func() string { return "owner-3" }

	mock.ExpectSetNX("lock:mutex:sweep", "owner-3", time.Second).SetVal(true)
	mock.ExpectEval(mutexUnlockScript, []string{"lock:mutex:sweep"}, "owner-3").SetVal(int64(0))

	unlock, ok, err := l.TryLock(context.Background(), "sweep", time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ErrLockNotHeld, unlock(context.Background()))
}

func TestLocalLocker(t *testing.T) {
	unlock, ok, err := NewLocalLocker().TryLock(context.Background(), "x", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, unlock(context.Background()))
}
