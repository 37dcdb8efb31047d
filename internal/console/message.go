package console

import (
	"fmt"
	"time"
)

// Kind tags the origin of a console line.
type Kind int

const (
	System Kind = iota
	Stdout
	Stderr
)

func (k Kind) String() string {
	switch k {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "system"
	}
}

// Message is one line of console text. Messages are values and are never
// mutated after creation.
type Message struct {
	Kind Kind
	Text string
	At   time.Time
}

func New(kind Kind, text string) Message {
	return Message{Kind: kind, Text: text, At: time.Now()}
}

func Systemf(format string, args ...any) Message {
	return New(System, fmt.Sprintf(format, args...))
}

// Line renders the message the way the console view shows it.
func (m Message) Line() string {
	return m.At.Format("15:04:05") + " " + m.Text
}
