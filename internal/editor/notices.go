package editor

import (
	"slices"
	"time"
)

// NoticeLifetime is how long a notice stays visible.
const NoticeLifetime = 3 * time.Second

// NoticeKind classifies a notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Notice is a transient, user-facing message about the outcome of an operation.
type Notice struct {
	ID        int64      `json:"id"`
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Notices returns the notices that have not expired yet, oldest first.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneNoticesLocked()
	return slices.Clone(s.notices)
}

func (s *Session) noticeLocked(kind NoticeKind, message string) Notice {
	s.pruneNoticesLocked()
	now := s.now()
	s.nextNotice++
	n := Notice{
		ID:        s.nextNotice,
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(NoticeLifetime),
	}
	s.notices = append(s.notices, n)
	s.publishLocked(Event{Kind: EventNotice, Notice: &n})
	return n
}

func (s *Session) pruneNoticesLocked() {
	now := s.now()
	s.notices = slices.DeleteFunc(s.notices, func(n Notice) bool {
		return !now.Before(n.ExpiresAt)
	})
}
