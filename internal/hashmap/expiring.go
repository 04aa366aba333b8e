package hashmap

import (
	"time"

	"github.com/skybi/metaview/internal/task"
)

type expiringEntry[T any] struct {
	raw      T
	inserted time.Time
}

// ExpiringMap wraps a NormalMap in order to implement value expiration.
// Expired values are never returned; they are removed from memory once ScheduleCleanupTask was called.
type ExpiringMap[K comparable, V any] struct {
	normal      *NormalMap[K, *expiringEntry[V]]
	lifetime    time.Duration
	cleanupTask *task.RepeatingTask
	now         func() time.Time
}

// NewExpiring creates a new expiring map whose values exist for a specific lifetime
func NewExpiring[K comparable, V any](lifetime time.Duration) *ExpiringMap[K, V] {
	return &ExpiringMap[K, V]{
		normal:   NewNormal[K, *expiringEntry[V]](),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// ScheduleCleanupTask schedules the task that cleans up expired values in a specific interval.
// A call to StopCleanupTask as soon as the map is no longer needed is required because it would not be
// garbage collected otherwise.
func (obj *ExpiringMap[K, V]) ScheduleCleanupTask(tick time.Duration) {
	if obj.cleanupTask != nil {
		return
	}
	obj.cleanupTask = task.NewRepeating(obj.cleanup, tick)
	obj.cleanupTask.Start()
}

// StopCleanupTask stops the cleanup task
func (obj *ExpiringMap[K, V]) StopCleanupTask() {
	if obj.cleanupTask == nil {
		return
	}
	obj.cleanupTask.Stop(false)
	obj.cleanupTask = nil
}

// Size returns the amount of stored key-value pairs, including expired ones not cleaned up yet
func (obj *ExpiringMap[K, V]) Size() int {
	return obj.normal.Size()
}

// Lookup returns the value assigned to the given key and a boolean indicating whether it is set and not expired
func (obj *ExpiringMap[K, V]) Lookup(key K) (V, bool) {
	val, ok := obj.normal.Lookup(key)
	if !ok || obj.expired(val) {
		var zero V
		return zero, false
	}
	return val.raw, true
}

// Set sets a key-value pair and resets its lifetime
func (obj *ExpiringMap[K, V]) Set(key K, value V) {
	obj.normal.Set(key, &expiringEntry[V]{
		raw:      value,
		inserted: obj.now(),
	})
}

// Unset deletes the value assigned to given key
func (obj *ExpiringMap[K, V]) Unset(key K) {
	obj.normal.Unset(key)
}

// Clear clears the whole map
func (obj *ExpiringMap[K, V]) Clear() {
	obj.normal.Clear()
}

func (obj *ExpiringMap[K, V]) expired(entry *expiringEntry[V]) bool {
	return obj.now().Sub(entry.inserted) > obj.lifetime
}

func (obj *ExpiringMap[K, V]) cleanup() {
	obj.normal.BootstrappedManipulation(func(raw map[K]*expiringEntry[V]) {
		for key, val := range raw {
			if obj.expired(val) {
				delete(raw, key)
			}
		}
	})
}
