package service

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	detectionDomain "github.com/fieldsrv/guardpost/internal/detection/domain"
)

// suspicionEntry is one address's decaying accumulator state. The decay is
// applied lazily: the stored value is exact as of updatedAt and halves
// every half-life after that.
type suspicionEntry struct {
	value     float64
	updatedAt time.Time
}

// EventLog is the in-memory record of intrusion events plus the blocked
// address set and the per-address suspicion accumulator.
//
// The event list is bounded: once capacity is reached the oldest events
// are dropped. Blocking state and suspicion are independent of that bound.
type EventLog struct {
	mu        sync.RWMutex
	events    []*detectionDomain.IntrusionEvent
	capacity  int
	blocked   map[string]bool
	suspicion map[string]*suspicionEntry
	halfLife  time.Duration
	now       func() time.Time
}

// NewEventLog creates an EventLog bounded to capacity events, with the
// suspicion accumulator decaying over halfLife.
func NewEventLog(capacity int, halfLife time.Duration) *EventLog {
	return &EventLog{
		events:    make([]*detectionDomain.IntrusionEvent, 0, 64),
		capacity:  capacity,
		blocked:   make(map[string]bool),
		suspicion: make(map[string]*suspicionEntry),
		halfLife:  halfLife,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record appends an event, feeds its score into the source address's
// suspicion accumulator, and applies the blocking policy: with automatic
// blocking enabled and the score at or above the blocking threshold, the
// address is blocked synchronously and the event marked accordingly.
func (l *EventLog) Record(
	event *detectionDomain.IntrusionEvent,
	cfg detectionDomain.DetectionConfig,
) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cfg.AutomaticBlocking && event.SuspiciousScore >= cfg.BlockingThreshold {
		l.blocked[event.SourceAddress] = true
		event.Blocked = true
	}

	l.addSuspicionLocked(event.SourceAddress, float64(event.SuspiciousScore))

	l.events = append(l.events, event)
	if l.capacity > 0 && len(l.events) > l.capacity {
		l.events = l.events[len(l.events)-l.capacity:]
	}
}

// Events returns events matching the filter, newest first, up to
// filter.Limit (unlimited when zero).
func (l *EventLog) Events(filter detectionDomain.EventFilter) []*detectionDomain.IntrusionEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*detectionDomain.IntrusionEvent, 0)
	for i := len(l.events) - 1; i >= 0; i-- {
		if !filter.Matches(l.events[i]) {
			continue
		}
		out = append(out, l.events[i])
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// Resolve marks an event resolved. Returns ErrEventNotFound for unknown IDs.
func (l *EventLog) Resolve(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, event := range l.events {
		if event.ID == id {
			event.Resolved = true
			return nil
		}
	}
	return detectionDomain.ErrEventNotFound
}

// Len returns the number of retained events.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// IsBlocked reports whether the address is currently blocked.
func (l *EventLog) IsBlocked(addr string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.blocked[addr]
}

// Block adds an address to the blocked set directly, outside the scoring
// path. Used by operators.
func (l *EventLog) Block(addr string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocked[addr] = true
}

// Unblock removes an address from the blocked set and clears its suspicion
// accumulator. Returns whether the address had actually been blocked;
// unblocking an unknown address is a no-op, not an error.
func (l *EventLog) Unblock(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	wasBlocked := l.blocked[addr]
	delete(l.blocked, addr)
	delete(l.suspicion, addr)
	return wasBlocked
}

// Blocked returns all currently blocked addresses.
func (l *EventLog) Blocked() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, 0, len(l.blocked))
	for addr := range l.blocked {
		out = append(out, addr)
	}
	return out
}

// Suspicion returns the decayed per-address accumulator values, dropping
// entries that have decayed below one point.
func (l *EventLog) Suspicion() map[string]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	now := l.now()
	out := make(map[string]int)
	for addr, entry := range l.suspicion {
		value := l.decayedValue(entry, now)
		if value >= 1 {
			out[addr] = int(math.Round(value))
		}
	}
	return out
}

// addSuspicionLocked decays the entry to now then adds score.
func (l *EventLog) addSuspicionLocked(addr string, score float64) {
	now := l.now()

	entry, ok := l.suspicion[addr]
	if !ok {
		l.suspicion[addr] = &suspicionEntry{value: score, updatedAt: now}
		return
	}

	entry.value = l.decayedValue(entry, now) + score
	entry.updatedAt = now
}

func (l *EventLog) decayedValue(entry *suspicionEntry, now time.Time) float64 {
	if l.halfLife <= 0 {
		return entry.value
	}
	elapsed := now.Sub(entry.updatedAt)
	if elapsed <= 0 {
		return entry.value
	}
	return entry.value * math.Pow(0.5, elapsed.Seconds()/l.halfLife.Seconds())
}
