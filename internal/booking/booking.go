// Package booking decides when a demo conversation should surface the
// "book a call" prompt and builds the scheduling link it points to.
package booking

import (
	"net/url"
	"strings"
)

// Threshold is the number of completed exchanges after which the prompt is offered.
const Threshold = 6

const DefaultCalLink = "cove.dev"

// Trigger is per-conversation state held by whoever renders the conversation.
// It is not safe for concurrent use.
type Trigger struct {
	shown     bool
	dismissed bool
}

// NewTrigger returns a trigger for a conversation. Pass shown=true when
// resuming a session that already presented the prompt.
func NewTrigger(shown bool) *Trigger {
	return &Trigger{shown: shown}
}

// Observe reports whether the prompt should be presented now, given the
// session's completed exchange count. It returns true at most once.
func (t *Trigger) Observe(messageCount int) bool {
	if t.shown || t.dismissed || messageCount < Threshold {
		return false
	}
	t.shown = true
	return true
}

// Dismiss suppresses the prompt for the rest of the conversation.
func (t *Trigger) Dismiss() {
	t.dismissed = true
}

func (t *Trigger) Shown() bool {
	return t.shown
}

// URL returns the scheduling link with the visitor's email prefilled.
func URL(calLink, email string) string {
	calLink = strings.Trim(calLink, "/")
	if calLink == "" {
		calLink = DefaultCalLink
	}
	return "https://cal.com/" + calLink + "?email=" + url.QueryEscape(email)
}
