package sse

import (
	"bufio"
	"io"
	"iter"
	"strings"
)

// Events parses an event stream lazily. Comment lines are skipped; multiple
// data lines within one event are joined with newlines.
func Events(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)

		var eventType string
		var data []string
		for scanner.Scan() {
			line := scanner.Text()

			switch {
			case line == "":
				if len(data) > 0 {
					if eventType == "" {
						eventType = "message"
					}
					if !yield(Event{Type: eventType, Data: []byte(strings.Join(data, "\n"))}, nil) {
						return
					}
				}
				eventType, data = "", nil
			case strings.HasPrefix(line, ":"):
			case strings.HasPrefix(line, "event:"):
				eventType = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			}
		}

		if err := scanner.Err(); err != nil {
			yield(Event{}, err)
		}
	}
}
