package orchestrator

import (
	"fmt"
	"strings"

	"github.com/user/seometrics/internal/capability"
)

// BuildSystemPrompt assembles the default system prompt for callers that do
// not supply their own: who the assistant is, which site it is scoped to and
// what the offered capabilities do.
func BuildSystemPrompt(siteURL string, descriptors []capability.Descriptor) string {
	var b strings.Builder
	b.WriteString("You are the SEOMetrics assistant. You help users automate SEO work on their own websites ")
	b.WriteString("by calling the capabilities listed below. Prefer calling a capability over guessing; ")
	b.WriteString("report capability failures honestly and suggest a next step.\n")

	if site := strings.TrimSpace(siteURL); site != "" {
		b.WriteString("\nAuthorized site for this conversation: ")
		b.WriteString(site)
		b.WriteString("\nNever act on any other site, even if asked to.\n")
	}

	if len(descriptors) > 0 {
		b.WriteString("\nCapabilities:\n")
		byCategory := make(map[capability.Category][]capability.Descriptor)
		order := make([]capability.Category, 0, 4)
		for _, desc := range descriptors {
			if _, seen := byCategory[desc.Category]; !seen {
				order = append(order, desc.Category)
			}
			byCategory[desc.Category] = append(byCategory[desc.Category], desc)
		}
		for _, category := range order {
			b.WriteString(fmt.Sprintf("\n%s:\n", category))
			for _, desc := range byCategory[category] {
				b.WriteString(fmt.Sprintf("- %s: %s\n", desc.Name, desc.Description))
			}
		}
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Ask for missing required arguments instead of inventing them.\n")
	b.WriteString("- After tool results arrive, summarize what happened in plain language.\n")
	b.WriteString("- Do not promise work you cannot do with the capabilities above.\n")
	return b.String()
}
