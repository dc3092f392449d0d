package chat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/localmart/localmart-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPresence(t *testing.T) (*Presence, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewPresence(rdb), mr
}

func TestPresenceOnlineOffline(t *testing.T) {
	p, _ := newTestPresence(t)
	ctx := context.Background()
	ident := auth.Identity{Role: model.RoleUser, ID: 42}

	online, err := p.IsOnline(ctx, ident)
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, p.Online(ctx, ident))
	online, err = p.IsOnline(ctx, ident)
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, p.Offline(ctx, ident))
	online, err = p.IsOnline(ctx, ident)
	require.NoError(t, err)
	assert.False(t, online)
}

func TestPresenceExpires(t *testing.T) {
	p, mr := newTestPresence(t)
	ctx := context.Background()
	ident := auth.Identity{Role: model.RoleSeller, ID: 7}

	require.NoError(t, p.Online(ctx, ident))
	mr.FastForward(presenceTTL + time.Second)

	online, err := p.IsOnline(ctx, ident)
	require.NoError(t, err)
	assert.False(t, online)
}

func TestPresenceKeysAreRoleScoped(t *testing.T) {
	p, _ := newTestPresence(t)
	ctx := context.Background()

	require.NoError(t, p.Online(ctx, auth.Identity{Role: model.RoleUser, ID: 7}))

	online, err := p.IsOnline(ctx, auth.Identity{Role: model.RoleSeller, ID: 7})
	require.NoError(t, err)
	assert.False(t, online)
}
