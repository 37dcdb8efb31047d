package console

import (
	"bufio"
	"bytes"
	"io"
)

// Relay reads r line by line and forwards every complete line to q tagged as
// kind. When tee is non-nil each line is also written to it. Relay returns
// when r reaches EOF (for a child process: when its pipe closes). A final
// line without a trailing newline is dropped.
func Relay(r io.Reader, kind Kind, q *Queue, tee io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Split(scanCompleteLines)
	for sc.Scan() {
		line := sc.Text()
		if tee != nil {
			_, _ = io.WriteString(tee, line+"\n")
		}
		q.Send(New(kind, line))
	}
	return sc.Err()
}

// scanCompleteLines is bufio.ScanLines except that unterminated data at EOF
// is consumed without producing a token.
func scanCompleteLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) > 0 && bytes.IndexByte(data, '\n') < 0 {
		return len(data), nil, nil
	}
	return bufio.ScanLines(data, atEOF)
}
