package telegram

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const throttleIdle = 10 * time.Minute

// visitor pairs a user's limiter with their last activity so idle users can be dropped.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// throttle limits how fast each user may fire commands and button presses.
type throttle struct {
	mu       sync.Mutex
	visitors map[int64]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
	lastGC   time.Time
}

func newThrottle(perSecond float64, burst int) *throttle {
	return &throttle{
		visitors: make(map[int64]*visitor),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

// allow reports whether the user may act now. A nil throttle allows everything.
func (t *throttle) allow(userID int64) bool {
	if t == nil {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if now.Sub(t.lastGC) > throttleIdle {
		for id, v := range t.visitors {
			if now.Sub(v.lastSeen) > throttleIdle {
				delete(t.visitors, id)
			}
		}
		t.lastGC = now
	}

	v, ok := t.visitors[userID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[userID] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}
