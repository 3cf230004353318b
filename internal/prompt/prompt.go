// Package prompt flattens a conversation into a single completion prompt.
package prompt

import (
	"strings"

	"github.com/ram70099/ChatBot/internal/history"
)

const (
	userLabel = "User:"
	aiLabel   = "AI:"
)

// Build renders every exchange of h followed by input and an open AI label.
// Labels inside message text are not escaped.
func Build(h history.History, input string) string {
	var b strings.Builder
	for _, e := range h {
		writeLine(&b, userLabel, e.User)
		writeLine(&b, aiLabel, e.AI)
	}
	b.WriteString(userLabel + " " + input + "\n")
	b.WriteString(aiLabel)
	return b.String()
}

func writeLine(b *strings.Builder, label, text string) {
	b.WriteString(label)
	b.WriteByte(' ')
	b.WriteString(text)
	b.WriteByte('\n')
}

// Builder builds prompts from at most MaxExchanges of the most recent
// exchanges. MaxExchanges <= 0 keeps the whole history.
type Builder struct {
	MaxExchanges int
}

// Build is Build over the windowed history.
func (b Builder) Build(h history.History, input string) string {
	return Build(b.Window(h), input)
}

// Window returns the tail of h that goes into the prompt.
func (b Builder) Window(h history.History) history.History {
	if b.MaxExchanges <= 0 || len(h) <= b.MaxExchanges {
		return h
	}
	return h[len(h)-b.MaxExchanges:]
}
