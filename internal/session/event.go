package session

// EventKind identifies a transport event.
type EventKind int

const (
	EventEstablish EventKind = iota
	EventData
	EventEnd
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventEstablish:
		return "establish"
	case EventData:
		return "data"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the event ends the session.
func (k EventKind) Terminal() bool { return k == EventEnd || k == EventError }

// Event is one occurrence on a connection.
type Event struct {
	Kind EventKind
	Data []byte // EventData only
	Err  error  // EventError only
}

// Establish is the first event of every session.
func Establish() Event { return Event{Kind: EventEstablish} }

// Data wraps a received chunk.
func Data(chunk []byte) Event { return Event{Kind: EventData, Data: chunk} }

// End marks a graceful close.
func End() Event { return Event{Kind: EventEnd} }

// Fault marks a transport failure.
func Fault(err error) Event { return Event{Kind: EventError, Err: err} }
