package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lock is a best-effort cross-process mutex on a Redis key.
type Lock struct {
	rdb *redis.Client
}

func NewLock(rdb *redis.Client) *Lock { return &Lock{rdb: rdb} }

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Acquire takes name for at most ttl. ok is false when someone else holds it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error) {
	token := uuid.NewString()
	k := fmt.Sprintf("lock:%s", name)
	ok, err = l.rdb.SetNX(ctx, k, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, ok, err
	}
	return func() {
		_ = releaseScript.Run(context.Background(), l.rdb, []string{k}, token).Err()
	}, true, nil
}
