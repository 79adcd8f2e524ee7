package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/igraphixwebpreview/RoadReportHub/internal/domain"
)

const (
	activeIncidentsKey  = "incidents:active"
	activeGenerationKey = "incidents:active:gen"
)

// setIfGeneration stores the snapshot only while the generation it was read
// under is still current.
var setIfGeneration = goredis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// IncidentCache keeps the serialized active set so proximity checks do not hit
// the database on every position sample.
type IncidentCache struct {
	client goredis.Cmdable
	key    string
	genKey string
}

func NewIncidentCache(client goredis.Cmdable) *IncidentCache {
	return &IncidentCache{
		client: client,
		key:    activeIncidentsKey,
		genKey: activeGenerationKey,
	}
}

// GetActive returns ok=false on a cache miss.
func (c *IncidentCache) GetActive(ctx context.Context) ([]*domain.Incident, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var incidents []*domain.Incident
	if err := json.Unmarshal(data, &incidents); err != nil {
		return nil, false, err
	}

	return incidents, true, nil
}

// Generation is 0 until the first Invalidate.
func (c *IncidentCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return gen, nil
}

// SetActive reports false when the active set changed after gen was read.
func (c *IncidentCache) SetActive(ctx context.Context, gen int64, incidents []*domain.Incident, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	if incidents == nil {
		incidents = []*domain.Incident{}
	}
	b, err := json.Marshal(incidents)
	if err != nil {
		return false, err
	}
	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{c.key, c.genKey},
		strconv.FormatInt(gen, 10), b, ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate drops the snapshot and retires every in-flight fill.
func (c *IncidentCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	return err
}
