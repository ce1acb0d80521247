package val

import (
	"fmt"
	"testing"
)

func TestRunTrackerLocking(t *testing.T) {
	tracker := NewRunTracker([]string{"source_a", "source_b"})

	if !tracker.Lock("source_a") {
		t.Errorf("Expected to acquire the lock")
		return
	}

	if tracker.Lock("source_a") {
		t.Errorf("Expected second lock to fail while held")
		return
	}

	if !tracker.Lock("source_b") {
		t.Errorf("Expected independent lock per source")
		return
	}

	tracker.Unlock("source_a")
	if !tracker.Lock("source_a") {
		t.Errorf("Expected to re-acquire after unlock")
		return
	}

	if tracker.Lock("unknown") {
		t.Errorf("Expected lock on unknown source to fail")
		return
	}
}

func TestRunTrackerErrorCount(t *testing.T) {
	tracker := NewRunTracker([]string{"source_a"})

	err := fmt.Errorf("boom")

	if count := tracker.Error("source_a", err); count != 1 {
		t.Errorf("Expected error count 1, got %d", count)
		return
	}

	if count := tracker.Error("source_a", err); count != 2 {
		t.Errorf("Expected consecutive error count 2, got %d", count)
		return
	}

	//a successful run resets the streak
	tracker.Finish("source_a")

	if count := tracker.Error("source_a", err); count != 1 {
		t.Errorf("Expected error count reset by Finish, got %d", count)
		return
	}
}

func TestRunTrackerLastRun(t *testing.T) {
	tracker := NewRunTracker([]string{"source_a"})

	if lastRun := tracker.LastRun("source_a"); lastRun != 0 {
		t.Errorf("Expected zero last run before any pass, got %d", lastRun)
		return
	}

	tracker.Lock("source_a")
	tracker.Finish("source_a")

	if lastRun := tracker.LastRun("source_a"); lastRun == 0 {
		t.Errorf("Expected last run recorded after Finish")
		return
	}

	//Finish releases the lock too
	if !tracker.Lock("source_a") {
		t.Errorf("Expected lock released by Finish")
		return
	}
}
