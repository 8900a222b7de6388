package editor

// EventKind names what an Event carries.
type EventKind string

const (
	EventState  EventKind = "state"
	EventNotice EventKind = "notice"
)

// Event is pushed to subscribers whenever the state changes or a notice is raised.
type Event struct {
	Kind   EventKind
	State  *State
	Notice *Notice
}

const listenerBuffer = 16

// Subscribe registers a listener and returns its channel and a function that
// unregisters it. A listener that falls behind misses events; the next state
// event carries the full state again.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListener
	s.nextListener++
	ch := make(chan Event, listenerBuffer)
	s.listeners[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if ch, ok := s.listeners[id]; ok {
			delete(s.listeners, id)
			close(ch)
		}
	}
}

func (s *Session) publishStateLocked() {
	if len(s.listeners) == 0 {
		return
	}
	st := s.stateLocked()
	s.publishLocked(Event{Kind: EventState, State: &st})
}

func (s *Session) publishLocked(ev Event) {
	for _, ch := range s.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}
