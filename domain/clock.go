package domain

import (
	"sync/atomic"
	"time"
)

var lastStamp int64

// Now returns the current time truncated to milliseconds. Each call returns a
// value strictly later than every previous call within this process, so
// updatedAt always advances even when two writes share a millisecond.
func Now() time.Time {
	for {
		ms := time.Now().UnixMilli()
		last := atomic.LoadInt64(&lastStamp)
		if ms <= last {
			ms = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastStamp, last, ms) {
			return time.UnixMilli(ms).UTC()
		}
	}
}

// NewTask builds a task with both timestamps set to the same instant.
func NewTask(id, content string, status Status) Task {
	ts := Now()
	return Task{ID: id, Content: content, Status: status, CreatedAt: ts, UpdatedAt: ts}
}
