package chat

import (
	"context"
	"time"

	"github.com/localmart/localmart-backend/internal/auth"
	"github.com/redis/go-redis/v9"
)

const presenceTTL = 90 * time.Second

// Presence tracks which participants currently hold a live connection, as
// TTL keys in Redis so entries expire on their own if a process dies without
// cleaning up.
type Presence struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPresence(rdb *redis.Client) *Presence {
	return &Presence{rdb: rdb, ttl: presenceTTL}
}

func presenceKey(ident auth.Identity) string {
	return "presence:" + ident.String()
}

func (p *Presence) Online(ctx context.Context, ident auth.Identity) error {
	return p.rdb.Set(ctx, presenceKey(ident), "1", p.ttl).Err()
}

func (p *Presence) Offline(ctx context.Context, ident auth.Identity) error {
	return p.rdb.Del(ctx, presenceKey(ident)).Err()
}

func (p *Presence) IsOnline(ctx context.Context, ident auth.Identity) (bool, error) {
	n, err := p.rdb.Exists(ctx, presenceKey(ident)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
