package repo

import (
	"sync/atomic"
	"time"
)

var lastStamp int64

// nextCreatedAt returns a UTC timestamp strictly greater than any previous
// one handed out by this process, so entities created back to back keep a
// stable creation order.
func nextCreatedAt() time.Time {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastStamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastStamp, last, now) {
			return time.Unix(0, now).UTC()
		}
	}
}
