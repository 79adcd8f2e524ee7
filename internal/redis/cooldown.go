package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const cooldownKeyPrefix = "alerts:cooldown:"

// CooldownGate shares the per-user alert suppression window between instances.
type CooldownGate struct {
	client goredis.Cmdable
}

func NewCooldownGate(client goredis.Cmdable) *CooldownGate {
	return &CooldownGate{client: client}
}

func (g *CooldownGate) Acquire(ctx context.Context, userID string, window time.Duration) (bool, error) {
	return g.client.SetNX(ctx, cooldownKeyPrefix+userID, 1, window).Result()
}
