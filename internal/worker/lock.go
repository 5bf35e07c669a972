package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker provides mutual exclusion for scheduled jobs across service
// instances. Acquire reports ok=false when the lock is already held;
// the returned release function must be called when the run finishes.
type Locker interface {
	Acquire(ctx context.Context, name string, maxHold time.Duration) (release func(ctx context.Context), ok bool, err error)
}

// redisLocker implements Locker with a TTL'd redis key. The key expires
// after maxHold so a stuck run cannot block later ticks forever, and on
// release it is kept alive until minRearm has elapsed since acquisition
// so a second instance with a skewed clock cannot rerun the job
// immediately.
type redisLocker struct {
	client   *redis.Client
	minRearm time.Duration
	now      func() time.Time
}

// NewRedisLocker builds a redis-backed Locker.
func NewRedisLocker(client *redis.Client, minRearm time.Duration) Locker {
	return &redisLocker{client: client, minRearm: minRearm, now: time.Now}
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  local rearm = tonumber(ARGV[2])
  if rearm > 0 then
    return redis.call("pexpire", KEYS[1], rearm)
  end
  return redis.call("del", KEYS[1])
end
return 0`)

func (l *redisLocker) Acquire(ctx context.Context, name string, maxHold time.Duration) (func(ctx context.Context), bool, error) {
	token := uuid.NewString()
	acquiredAt := l.now()

	ok, err := l.client.SetNX(ctx, name, token, maxHold).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) {
		remaining := l.minRearm - l.now().Sub(acquiredAt)
		var rearmMs int64
		if remaining > 0 {
			rearmMs = remaining.Milliseconds()
		}
		_ = releaseScript.Run(ctx, l.client, []string{name}, token, rearmMs).Err()
	}
	return release, true, nil
}

// memoryLocker is a single-process Locker used when redis is not
// configured, and in tests.
type memoryLocker struct {
	mu       sync.Mutex
	until    map[string]time.Time
	held     map[string]bool
	minRearm time.Duration
	now      func() time.Time
}

// NewMemoryLocker builds an in-process Locker.
func NewMemoryLocker(minRearm time.Duration) Locker {
	return NewMemoryLockerWithClock(minRearm, time.Now)
}

// NewMemoryLockerWithClock injects the clock.
func NewMemoryLockerWithClock(minRearm time.Duration, now func() time.Time) Locker {
	return &memoryLocker{
		until:    make(map[string]time.Time),
		held:     make(map[string]bool),
		minRearm: minRearm,
		now:      now,
	}
}

func (l *memoryLocker) Acquire(_ context.Context, name string, maxHold time.Duration) (func(ctx context.Context), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.held[name] && now.Before(l.until[name]) {
		return nil, false, nil
	}
	if rearm, ok := l.until[name]; ok && !l.held[name] && now.Before(rearm) {
		return nil, false, nil
	}

	l.held[name] = true
	l.until[name] = now.Add(maxHold)
	acquiredAt := now

	release := func(context.Context) {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.held[name] = false
		rearmUntil := acquiredAt.Add(l.minRearm)
		if rearmUntil.After(l.now()) {
			l.until[name] = rearmUntil
		} else {
			delete(l.until, name)
		}
	}
	return release, true, nil
}
