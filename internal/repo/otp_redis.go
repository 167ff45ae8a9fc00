package repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/content_auth/internal/models"
)

// RedisOTPRepo keeps one hash per user under keyPrefix+userID. Keys expire
// with the code, so stale codes vanish without a sweep.
type RedisOTPRepo struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisOTPRepo(client *redis.Client, keyPrefix string) *RedisOTPRepo {
	if keyPrefix == "" {
		keyPrefix = "otp:"
	}
	return &RedisOTPRepo{client: client, keyPrefix: keyPrefix}
}

func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisOTPRepo) key(userID string) string { return r.keyPrefix + userID }

func (r *RedisOTPRepo) SaveOTP(ctx context.Context, userID, code string, expiresAt time.Time) error {
	key := r.key(userID)
	now := time.Now().UTC()
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key,
			"code", code,
			"attempts", 0,
			"consumed", 0,
			"expires_at", expiresAt.UnixMilli(),
			"created_at", now.UnixMilli(),
		)
		p.PExpireAt(ctx, key, expiresAt)
		return nil
	})
	return err
}

func (r *RedisOTPRepo) FindActiveOTP(ctx context.Context, userID string, now time.Time, maxAttempts int) (*models.OTP, error) {
	vals, err := r.client.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrNotFound
	}

	rec, err := otpFromHash(userID, vals)
	if err != nil {
		return nil, err
	}
	if rec.Consumed || rec.Attempts >= maxAttempts || !now.Before(rec.ExpiresAt) {
		return nil, ErrNotFound
	}
	return rec, nil
}

// consumeScript returns 1 when the code was consumed, 0 otherwise. A wrong
// code on a live record bumps its attempts.
var consumeScript = redis.NewScript(`
	local h = redis.call('HMGET', KEYS[1], 'code', 'attempts', 'consumed', 'expires_at')
	if not h[1] then
		return 0
	end
	if h[3] == '1' or tonumber(h[4]) <= tonumber(ARGV[2]) then
		return 0
	end
	if tonumber(h[2]) >= tonumber(ARGV[3]) then
		return 0
	end
	if h[1] == ARGV[1] then
		redis.call('HSET', KEYS[1], 'consumed', 1)
		return 1
	end
	redis.call('HINCRBY', KEYS[1], 'attempts', 1)
	return 0
`)

func (r *RedisOTPRepo) ConsumeOTP(ctx context.Context, userID, code string, now time.Time, maxAttempts int) (bool, error) {
	n, err := consumeScript.Run(ctx, r.client, []string{r.key(userID)}, code, now.UnixMilli(), maxAttempts).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func otpFromHash(userID string, vals map[string]string) (*models.OTP, error) {
	attempts, err := strconv.Atoi(vals["attempts"])
	if err != nil {
		return nil, fmt.Errorf("otp attempts: %w", err)
	}
	expMs, err := strconv.ParseInt(vals["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("otp expires_at: %w", err)
	}
	createdMs, _ := strconv.ParseInt(vals["created_at"], 10, 64)
	return &models.OTP{
		UserID:    userID,
		Code:      vals["code"],
		Attempts:  attempts,
		Consumed:  vals["consumed"] == "1",
		ExpiresAt: time.UnixMilli(expMs).UTC(),
		CreatedAt: time.UnixMilli(createdMs).UTC(),
	}, nil
}
