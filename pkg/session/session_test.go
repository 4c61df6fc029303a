package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	_, err := s.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	cookie := &http.Cookie{Name: "SAP_SESSIONID_DEV_100", Value: "abc"}
	require.NoError(t, s.Save(ctx, "k", State{CSRFToken: "tok", Cookies: []*http.Cookie{cookie}}, time.Minute))

	st, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "tok", st.CSRFToken)
	require.Len(t, st.Cookies, 1)
	assert.Equal(t, "abc", st.Cookies[0].Value)

	now = now.Add(time.Minute)
	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "k", State{CSRFToken: "forever"}, 0))
	now = now.Add(24 * time.Hour)
	st, err = s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "forever", st.CSRFToken)

	require.NoError(t, s.Invalidate(ctx, "k"))
	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	s := NewRedisStore(db, "")

	state := State{CSRFToken: "tok"}
	data, err := json.Marshal(state)
	require.NoError(t, err)

	mock.ExpectSet("adt:session:dev", data, 30*time.Minute).SetVal("OK")
	require.NoError(t, s.Save(ctx, "dev", state, 30*time.Minute))

	mock.ExpectGet("adt:session:dev").SetVal(string(data))
	got, err := s.Load(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.CSRFToken)

	mock.ExpectGet("adt:session:gone").RedisNil()
	_, err = s.Load(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectGet("adt:session:bad").SetVal("{not json")
	_, err = s.Load(ctx, "bad")
	assert.Error(t, err)

	mock.ExpectGet("adt:session:down").SetErr(errors.New("connection refused"))
	_, err = s.Load(ctx, "down")
	assert.EqualError(t, err, "connection refused")

	mock.ExpectDel("adt:session:dev").SetVal(1)
	require.NoError(t, s.Invalidate(ctx, "dev"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisStore_Nil(t *testing.T) {
	s := NewRedisStore(nil, "x")
	assert.Nil(t, s)
	_, err := s.Load(context.Background(), "k")
	assert.Error(t, err)
}
