package val

import (
	"fmt"
	"sync"
	"time"
)

// RunTracker keeps per-source bookkeeping between passes: consecutive error
// counts, last run times, and a lock so overlapping continuous-mode passes
// can't run the same source twice.
type RunTracker struct {
	locker      map[string]bool
	errorCount  map[string]int
	lastRunTime map[string]int64
	mutex       *sync.Mutex
}

func NewRunTracker(names []string) *RunTracker {
	tracker := new(RunTracker)
	tracker.locker = make(map[string]bool)
	tracker.errorCount = make(map[string]int)
	tracker.lastRunTime = make(map[string]int64)
	tracker.mutex = &sync.Mutex{}

	for _, name := range names {
		tracker.locker[name] = false
		tracker.errorCount[name] = 0
	}

	return tracker
}

// Error records a failed run; returns the consecutive error count.
func (t *RunTracker) Error(name string, err error) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.lastRunTime[name] = time.Now().Unix()

	prevErrorCount, ok := t.errorCount[name]
	if !ok {
		panic(fmt.Errorf("Name not found in run tracker: %s", name))
	}

	t.errorCount[name] = prevErrorCount + 1

	return t.errorCount[name]
}

// Finish records a successful run and releases the source's lock.
func (t *RunTracker) Finish(name string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if _, ok := t.locker[name]; !ok {
		return
	}

	t.locker[name] = false
	t.errorCount[name] = 0
	t.lastRunTime[name] = time.Now().Unix()
}

// Unlock releases the source's lock without touching the error count, for
// runs that failed after locking.
func (t *RunTracker) Unlock(name string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.locker[name] = false
}

func (t *RunTracker) Lock(name string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	locked, ok := t.locker[name]
	if !ok || locked {
		return false
	}

	t.locker[name] = true

	return true
}

func (t *RunTracker) LastRun(name string) int64 {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	lastRunTime, ok := t.lastRunTime[name]
	if ok {
		return lastRunTime
	}

	return 0
}
