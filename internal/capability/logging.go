package capability

import (
	"strings"

	"greetlog/internal/session"
)

// Log lines written by the capabilities below.
const (
	MsgNewConnection = "A new connection has been established."
	MsgDataReceived  = "Data received from client: "
	MsgReceived      = "Received: "
	MsgClosing       = "Closing connection with the client"
	MsgError         = "Error: "
)

// Greet writes Message to the peer before anything is read.  An empty
// Message sends nothing.
type Greet struct {
	Nop
	Message string
}

func (g Greet) OnEstablish(s *session.Session) error {
	if g.Message == "" {
		return nil
	}
	return s.Greet(g.Message)
}

// Announce logs that a connection was accepted.  Quiet demotes the line
// to verbose level.
type Announce struct {
	Nop
	Quiet bool
}

func (a Announce) OnEstablish(s *session.Session) error {
	if a.Quiet {
		s.Logger.Verbose(MsgNewConnection)
	} else {
		s.Logger.Info(MsgNewConnection)
	}
	return nil
}

// DataLog logs every chunk after decoding, less one trailing line
// ending so the line's fields stay on the same row.
type DataLog struct{ Nop }

func (DataLog) OnData(s *session.Session, chunk []byte) {
	text := s.Decode(chunk)
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	s.Logger.Info("%s%s", MsgDataReceived, text)
}

// StrippedDataLog logs every chunk with its newlines removed and a
// trailing space, so "test\n" becomes "Received: test ".
type StrippedDataLog struct{ Nop }

func (StrippedDataLog) OnData(s *session.Session, chunk []byte) {
	s.Logger.Info("%s%s ", MsgReceived, strings.ReplaceAll(s.Decode(chunk), "\n", ""))
}

// Teardown logs the session's terminal event.
type Teardown struct{ Nop }

func (Teardown) OnEnd(s *session.Session) {
	s.Logger.Info(MsgClosing)
}

func (Teardown) OnError(s *session.Session, err error) {
	s.Logger.Error("%s%v", MsgError, err)
}
