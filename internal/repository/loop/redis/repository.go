package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type repo struct {
	rc                  *redis.Client
	softDeleteScript    string
	restoreScript       string
	removeScript        string
	incrPlayCountScript string
}

func NewRepo(rc *redis.Client) *repo {
	return &repo{
		rc: rc,
		// KEYS: loops, trash, loop. ARGV: loop id, deleted at.
		softDeleteScript: rc.ScriptLoad(context.Background(), `
		if not redis.call('ZSCORE', KEYS[1], ARGV[1]) then
			return 0
		end
		if redis.call('EXISTS', KEYS[3]) == 0 then
			redis.call('ZREM', KEYS[1], ARGV[1])
			return 0
		end
		redis.call('HSET', KEYS[3], 'deleted_at', ARGV[2], 'updated_at', ARGV[2])
		redis.call('ZREM', KEYS[1], ARGV[1])
		redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
		return 1
	`).Val(),
		// KEYS: trash, loops, loop. ARGV: loop id, updated at.
		restoreScript: rc.ScriptLoad(context.Background(), `
		if not redis.call('ZSCORE', KEYS[1], ARGV[1]) then
			return 0
		end
		local createdAt = redis.call('HGET', KEYS[3], 'created_at')
		if not createdAt then
			redis.call('ZREM', KEYS[1], ARGV[1])
			return 0
		end
		redis.call('HDEL', KEYS[3], 'deleted_at')
		redis.call('HSET', KEYS[3], 'updated_at', ARGV[2])
		redis.call('ZREM', KEYS[1], ARGV[1])
		redis.call('ZADD', KEYS[2], createdAt, ARGV[1])
		return 1
	`).Val(),
		// KEYS: trash, loop. ARGV: loop id.
		removeScript: rc.ScriptLoad(context.Background(), `
		if redis.call('ZREM', KEYS[1], ARGV[1]) == 0 then
			return 0
		end
		redis.call('DEL', KEYS[2])
		return 1
	`).Val(),
		incrPlayCountScript: rc.ScriptLoad(context.Background(), `
		if redis.call('EXISTS', KEYS[1]) == 0 then
			return -1
		end
		return redis.call('HINCRBY', KEYS[1], 'play_count', 1)
	`).Val(),
	}
}
