package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const UsersFollowersCountRedisKey = "users_followers_count"
const UsersFollowingCountRedisKey = "users_following_count"

// UserStatistics holds the hot counters served without touching the
// document store. Counters expire and are rebuilt from writes, so a miss
// reads as zero rather than an error.
type UserStatistics struct {
	UserID         string
	FollowersCount int64
	FollowingCount int64
}

type UsersCache struct {
	redisClient *redis.Client
	expiration  time.Duration
}

func NewUsersCache(redisConnection *redis.Client, expiration time.Duration) UsersCache {
	return UsersCache{
		redisClient: redisConnection,
		expiration:  expiration,
	}
}

func (c *UsersCache) GetUserStatistics(userID string) UserStatistics {
	ctx := context.Background()

	followersCount, _ := c.redisClient.HGet(ctx, UsersFollowersCountRedisKey, userID).Int64()
	followingCount, _ := c.redisClient.HGet(ctx, UsersFollowingCountRedisKey, userID).Int64()

	return UserStatistics{
		UserID:         userID,
		FollowersCount: followersCount,
		FollowingCount: followingCount,
	}
}

func (c *UsersCache) UpdateFollowCounts(userID string, followersDelta int64, followingDelta int64) {
	ctx := context.Background()

	for redisKey, delta := range map[string]int64{
		UsersFollowersCountRedisKey: followersDelta,
		UsersFollowingCountRedisKey: followingDelta,
	} {
		if delta != 0 {
			c.redisClient.HIncrBy(ctx, redisKey, userID, delta)
			c.redisClient.HExpire(ctx, redisKey, c.expiration, userID)
		}
	}
}

func (c *UsersCache) DeleteUser(userID string) {
	ctx := context.Background()
	c.redisClient.HDel(ctx, UsersFollowersCountRedisKey, userID)
	c.redisClient.HDel(ctx, UsersFollowingCountRedisKey, userID)
}
