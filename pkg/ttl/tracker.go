package ttl

import (
	"errors"
	"sync"
	"time"
)

// ErrNotTracked is returned when cancelling an unknown command.
var ErrNotTracked = errors.New("command not tracked")

type commandKey struct {
	deviceID      string
	correlationID string
}

// Scheduled is a command the hub keeps pending until its time-to-live ends.
type Scheduled struct {
	DeviceID      string
	CorrelationID string
	Href          string
	StartTime     time.Time
	TTL           TTL

	timer *time.Timer
}

// ExpiresAt returns when the hub drops the command. Infinite commands
// return the zero time.
func (s *Scheduled) ExpiresAt() time.Time {
	if s.TTL.Infinite() {
		return time.Time{}
	}
	return s.StartTime.Add(s.TTL.Duration())
}

// Remaining returns the time until expiry, 0 once expired.
func (s *Scheduled) Remaining() time.Duration {
	if s.TTL.Infinite() {
		return 0
	}
	remaining := s.TTL.Duration() - time.Since(s.StartTime)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Scheduled) snapshot() *Scheduled {
	return &Scheduled{
		DeviceID:      s.DeviceID,
		CorrelationID: s.CorrelationID,
		Href:          s.Href,
		StartTime:     s.StartTime,
		TTL:           s.TTL,
	}
}

// Tracker follows scheduled commands and fires a callback when one expires.
type Tracker struct {
	mu       sync.RWMutex
	commands map[commandKey]*Scheduled
	onExpiry func(cmd *Scheduled)
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		commands: make(map[commandKey]*Scheduled),
	}
}

// Track starts following a command. A command with the same key replaces
// the previous one. Infinite commands are kept until cancelled.
func (t *Tracker) Track(deviceID, correlationID, href string, ttl TTL) error {
	if err := ttl.Validate(); err != nil {
		return err
	}

	key := commandKey{deviceID: deviceID, correlationID: correlationID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.commands[key]; ok && existing.timer != nil {
		existing.timer.Stop()
	}

	cmd := &Scheduled{
		DeviceID:      deviceID,
		CorrelationID: correlationID,
		Href:          href,
		StartTime:     time.Now(),
		TTL:           ttl,
	}
	if !ttl.Infinite() {
		cmd.timer = time.AfterFunc(ttl.Duration(), func() {
			t.expire(key, cmd)
		})
	}
	t.commands[key] = cmd
	return nil
}

// Resolve stops following a command, typically because the device
// answered or the command was cancelled on the hub.
func (t *Tracker) Resolve(deviceID, correlationID string) error {
	key := commandKey{deviceID: deviceID, correlationID: correlationID}

	t.mu.Lock()
	defer t.mu.Unlock()

	cmd, ok := t.commands[key]
	if !ok {
		return ErrNotTracked
	}
	if cmd.timer != nil {
		cmd.timer.Stop()
	}
	delete(t.commands, key)
	return nil
}

// ResolveDevice drops every command of a device, e.g. after its pending
// commands were cancelled in bulk.
func (t *Tracker) ResolveDevice(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, cmd := range t.commands {
		if key.deviceID == deviceID {
			if cmd.timer != nil {
				cmd.timer.Stop()
			}
			delete(t.commands, key)
		}
	}
}

// Get returns a copy of the tracked command, or nil.
func (t *Tracker) Get(deviceID, correlationID string) *Scheduled {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if cmd, ok := t.commands[commandKey{deviceID: deviceID, correlationID: correlationID}]; ok {
		return cmd.snapshot()
	}
	return nil
}

// Device returns copies of all commands tracked for a device.
func (t *Tracker) Device(deviceID string) []*Scheduled {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []*Scheduled
	for key, cmd := range t.commands {
		if key.deviceID == deviceID {
			result = append(result, cmd.snapshot())
		}
	}
	return result
}

// Count returns the number of tracked commands.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.commands)
}

// OnExpiry sets the callback invoked when a command expires.
func (t *Tracker) OnExpiry(fn func(cmd *Scheduled)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpiry = fn
}

func (t *Tracker) expire(key commandKey, cmd *Scheduled) {
	t.mu.Lock()

	current, ok := t.commands[key]
	if !ok || current != cmd {
		t.mu.Unlock()
		return
	}
	delete(t.commands, key)
	callback := t.onExpiry
	snapshot := cmd.snapshot()

	t.mu.Unlock()

	if callback != nil {
		callback(snapshot)
	}
}
