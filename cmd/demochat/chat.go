package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cove/agent-demo/internal/booking"
	"github.com/cove/agent-demo/internal/client"
	"github.com/cove/agent-demo/internal/model"
	"github.com/cove/agent-demo/internal/prompt"
)

const failureLine = "Sorry, something went wrong. Please try again."

type chatAPI interface {
	Chat(ctx context.Context, sessionID, message string) (*client.ChatResponse, error)
	ChatStream(ctx context.Context, sessionID, message string, onDelta func(string)) (*client.ChatResponse, error)
	MarkBookingShown(ctx context.Context, sessionID string) error
}

type chatOptions struct {
	api    chatAPI
	stream bool
}

type chatState struct {
	sessionID    string
	companyName  string
	agentType    model.AgentType
	bookingURL   string
	bookingShown bool
	history      []model.Message
	messageCount int
}

// runChat reads visitor lines from in until EOF or /quit and prints the
// conversation to out. The greeting is shown locally and never sent.
func runChat(ctx context.Context, in io.Reader, out io.Writer, o chatOptions, st chatState) error {
	agent := st.companyName
	trigger := booking.NewTrigger(st.bookingShown)

	fmt.Fprintf(out, "%s: %s\n", agent, prompt.Greeting(st.agentType, st.companyName))
	for _, m := range st.history {
		speaker := "you"
		if m.Role == model.RoleAssistant {
			speaker = agent
		}
		fmt.Fprintf(out, "%s: %s\n", speaker, m.Content)
	}
	offerBooking(ctx, out, o, st, trigger, st.messageCount)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/dismiss":
			trigger.Dismiss()
			continue
		}

		var res *client.ChatResponse
		var err error
		if o.stream {
			fmt.Fprintf(out, "%s: ", agent)
			res, err = o.api.ChatStream(ctx, st.sessionID, line, func(fragment string) {
				fmt.Fprint(out, fragment)
			})
			fmt.Fprintln(out)
		} else {
			res, err = o.api.Chat(ctx, st.sessionID, line)
			if err == nil {
				fmt.Fprintf(out, "%s: %s\n", agent, res.Response)
			}
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %s\n", agent, failureLine)
			continue
		}

		offerBooking(ctx, out, o, st, trigger, res.MessageCount)
	}
}

func offerBooking(ctx context.Context, out io.Writer, o chatOptions, st chatState, trigger *booking.Trigger, count int) {
	if !trigger.Observe(count) {
		return
	}

	fmt.Fprintf(out, "\nLike what you see? Book a call: %s\n(type /dismiss to hide this)\n\n", st.bookingURL)

	// Best effort: the prompt has already been shown locally.
	_ = o.api.MarkBookingShown(ctx, st.sessionID)
}
