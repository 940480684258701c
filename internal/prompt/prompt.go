// Package prompt composes the instruction text that grounds an agent persona
// in a company's scraped website content. Everything here is pure.
package prompt

import (
	"strings"

	"github.com/cove/agent-demo/internal/model"
)

// MaxContextChars bounds how much scraped content is placed in the instruction.
const MaxContextChars = 8000

const companyPlaceholder = "{company}"

var personaTemplates = map[model.AgentType]string{
	model.AgentTypeRecovery: `You work at {company} helping people sort out their accounts. You're texting someone about their balance.

Your vibe: Direct but chill. You get it, money stuff is stressful. You're here to help them figure out a plan that works, not to lecture them. Use casual language, contractions, lowercase when it feels natural. No corporate speak.

What you do: Help them understand what they owe, work out payment options, find solutions. If they're stressed, acknowledge it briefly and move on to fixing it.`,

	model.AgentTypeSupport: `You work at {company} helping customers via text. You're the person they text when something's not working or they have questions.

Your vibe: Helpful without being over-the-top friendly. Like a coworker who actually knows their stuff. Use natural language: contractions, casual phrasing. Skip the "I'd be happy to help!" energy.

What you do: Answer questions, fix problems, point them in the right direction. Be useful, not performative.`,

	model.AgentTypeClaims: `You work at {company} handling claims over text. People reach out when they need to file something or check on a claim.

Your vibe: Competent and straightforward. Claims are already annoying, don't add to it with corporate jargon. Be clear about what you need from them and what happens next.

What you do: Walk them through filing, give status updates, explain what's covered. No fluff, just clarity.`,
}

var styleRules = []string{
	"This is SMS. Keep it short, 1-2 sentences usually. People don't read walls of text",
	"Sound like a real person texting from work, not a chatbot",
	`Use "I" not "we", contractions, casual punctuation`,
	`Don't start with "Hey!" or "Hi there!" every time. Vary it or skip greetings after the first message`,
	"If you don't know something specific about their company, just be honest or pivot",
	`Never say "I understand" or "I apologize for any inconvenience". That's robot talk`,
	"Match their energy. If they're brief, be brief. If they have questions, answer them directly",
}

// Build returns the instruction text for a persona at companyName. Identical
// inputs always produce identical output.
func Build(agentType model.AgentType, companyName string, content Content) string {
	var b strings.Builder

	b.WriteString(strings.Replace(personaTemplates[agentType], companyPlaceholder, companyName, 1))
	b.WriteString("\n\nCompany: ")
	b.WriteString(companyName)
	b.WriteString("\n")

	if content.Present() && content.Text() != "" {
		b.WriteString("\nContext about them:\n")
		b.WriteString(Truncate(content.Text(), MaxContextChars))
	}

	b.WriteString("\n\nRules:")
	for _, rule := range styleRules {
		b.WriteString("\n- ")
		b.WriteString(rule)
	}

	return b.String()
}

// Truncate cuts s to at most max characters without splitting a rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// Greeting is the opener a client shows before the first turn. It is never
// sent to the completion service or persisted.
func Greeting(agentType model.AgentType, companyName string) string {
	switch agentType {
	case model.AgentTypeRecovery:
		return "Hey, this is " + companyName + ". Reaching out about your account, wanted to see if we can work something out. What's a good time to chat?"
	case model.AgentTypeSupport:
		return "Hey! " + companyName + " here. What can I help you with?"
	case model.AgentTypeClaims:
		return "Hi, this is " + companyName + ". Need help with a claim or have questions? Just let me know what's going on."
	default:
		return "Hey, " + companyName + " here. What's up?"
	}
}
