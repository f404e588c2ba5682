package llm

import "strings"

// personaPreamble is the fixed persona prepended to every request.
// The model depends on the stable ordering preamble, instructions,
// separator, user content to disambiguate role from content.
const personaPreamble = "You are a clinical documentation assistant. " +
	"You write precise, factual prose grounded only in the material provided. " +
	"You never invent clinical findings, medication names, or dates."

// promptSeparator divides feature instructions from user content.
const promptSeparator = "\n\n---\n\n"

// ComposePrompt assembles the persona preamble, the feature's system
// instructions, and the user content into one text blob in stable order.
func ComposePrompt(systemPrompt, userContent string) string {
	var b strings.Builder
	b.WriteString(personaPreamble)

	if s := strings.TrimSpace(systemPrompt); s != "" {
		b.WriteString("\n\n")
		b.WriteString(s)
	}

	b.WriteString(promptSeparator)
	b.WriteString(strings.TrimSpace(userContent))

	return b.String()
}
