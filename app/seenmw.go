// app/seenmw.go
package app

import (
	"time"

	"library_borrowing_service/db"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// TouchLastSeen updates last_seen_at at most once per throttle window per user.
func TouchLastSeen(repo *db.Repo, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(CtxUserID)
		if uid == "" {
			c.Next()
			return
		}

		key := "user:lastseen:" + uid
		ctx := c.Request.Context()
		if ok, _ := rdb.SetNX(ctx, key, "1", throttle).Result(); ok {
			_ = repo.TouchUserSeen(ctx, uid) // 忽略错误，不阻塞请求
		}
		c.Next()
	}
}
