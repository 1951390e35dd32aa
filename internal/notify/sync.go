package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"campushub/portal/internal/api"
	"campushub/portal/internal/model"
)

// Syncer keeps a local mirror of the current Principal's notifications. The
// mirror is replaced wholesale on every poll and only ever advanced after
// the backend acknowledges a mutation; there are no optimistic updates to
// roll back.
type Syncer struct {
	api      *api.Client
	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	items  []model.Notification
	unread int
}

func NewSyncer(client *api.Client, interval, timeout time.Duration) *Syncer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Syncer{api: client, interval: interval, timeout: timeout}
}

// Start performs one immediate fetch and then polls on a constant interval
// until ctx is cancelled. Poll failures are logged and swallowed; the mirror
// simply stays stale until the next successful poll. Overlapping fetches are
// not deduplicated; the last completed replace wins.
func (s *Syncer) Start(ctx context.Context) {
	run := func() {
		tickCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		if err := s.Refresh(tickCtx); err != nil {
			log.Printf("notification poll error: %v", err)
		}
	}

	go func() {
		run()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}

// Refresh fetches the notification list and replaces the mirror wholesale,
// preserving server order. Unlike the timer-driven fetch, failures are
// surfaced to the caller.
func (s *Syncer) Refresh(ctx context.Context) error {
	var items []model.Notification
	if err := s.api.Get(ctx, "/notifications", &items); err != nil {
		return fmt.Errorf("fetch notifications: %w", err)
	}

	s.mu.Lock()
	s.items = items
	s.recountLocked()
	s.mu.Unlock()
	return nil
}

// MarkRead confirms one notification as read with the backend, then patches
// the matching mirror entry. On failure the mirror is left unchanged.
func (s *Syncer) MarkRead(ctx context.Context, id string) error {
	if err := s.api.Put(ctx, "/notifications/"+id+"/read", nil, nil); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			break
		}
	}
	s.recountLocked()
	s.mu.Unlock()
	return nil
}

// MarkAllRead flips every entry with a single bulk request.
func (s *Syncer) MarkAllRead(ctx context.Context) error {
	if err := s.api.Put(ctx, "/notifications/mark-all-read", nil, nil); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}

	s.mu.Lock()
	for i := range s.items {
		s.items[i].Read = true
	}
	s.recountLocked()
	s.mu.Unlock()
	return nil
}

// Delete removes one notification from the backend and then from the mirror.
func (s *Syncer) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, "/notifications/"+id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}

	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.recountLocked()
	s.mu.Unlock()
	return nil
}

// ClearAll empties the mirror once the backend confirms.
func (s *Syncer) ClearAll(ctx context.Context) error {
	if err := s.api.Delete(ctx, "/notifications/clear-all"); err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}

	s.mu.Lock()
	s.items = nil
	s.recountLocked()
	s.mu.Unlock()
	return nil
}

// UnreadCount returns the derived unread count without triggering a fetch.
func (s *Syncer) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// Notifications returns a copy of the mirror in server order.
func (s *Syncer) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// The unread count is always recomputed from the mirror, never tracked
// independently.
func (s *Syncer) recountLocked() {
	count := 0
	for _, item := range s.items {
		if !item.Read {
			count++
		}
	}
	s.unread = count
}
