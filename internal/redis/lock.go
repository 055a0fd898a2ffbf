package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

// guardTTL caps how long a submission key stays locked if the owner dies
// before releasing it.
const guardTTL = 30 * time.Second

// AcquireSubmission takes the in-flight guard for one checkout form.
// Returns false when another identical submission is already being
// processed (the double-click case).
func (r *Redis) AcquireSubmission(ctx context.Context, key string) (bool, error) {
	ok, err := r.Client.SetNX(ctx, "submit_lock:"+key, "1", guardTTL).Result()
	return ok, err
}

// ReleaseSubmission frees the guard after a rejected attempt so the
// customer can correct the form and resubmit right away. Successful
// bookings keep the guard up for the TTL.
func (r *Redis) ReleaseSubmission(ctx context.Context, key string) error {
	err := r.Client.Del(ctx, "submit_lock:"+key).Err()
	if err == redis.Nil {
		return nil
	}
	return err
}
