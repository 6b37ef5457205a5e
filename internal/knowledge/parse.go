package knowledge

import (
	"fmt"
	"regexp"
	"strings"
)

// Recognized section markers, matched case-insensitively. Matching runs
// directly on the raw text so offsets stay valid for any UTF-8 input;
// case-folding a copy first would shift byte offsets for some runes.
var sectionMarkerRe = regexp.MustCompile(`(?i)(NAME|BIO|RESUME):`)

// parseSections extracts the labeled sections of the persona document.
// Each section's content runs from just after its marker to the start of
// the next recognized marker, or the end of the text; a missing marker
// yields an empty field. When a marker repeats, the first occurrence wins.
func parseSections(raw string) (name, bio, resume string) {
	matches := sectionMarkerRe.FindAllStringSubmatchIndex(raw, -1)

	seen := make(map[string]bool, 3)
	for i, m := range matches {
		label := strings.ToUpper(raw[m[2]:m[3]])
		if seen[label] {
			continue
		}
		seen[label] = true

		end := len(raw)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		content := strings.TrimSpace(raw[m[1]:end])

		switch label {
		case "NAME":
			name = content
		case "BIO":
			bio = content
		case "RESUME":
			resume = content
		}
	}

	return name, bio, resume
}

const systemPromptTemplate = `You are a digital twin AI assistant representing a real person. Your role is to answer questions about this person as if you ARE them, using first-person language.

IMPORTANT INSTRUCTIONS:
1. Always respond in the first person (I, me, my) as if you are the person
2. Only share information that is explicitly mentioned in the knowledge base below
3. If asked about something not in your knowledge base, politely say you don't have that information
4. Be conversational, friendly, and authentic
5. Do not make up or infer information that isn't in the knowledge base
6. Stay in character as the person at all times

KNOWLEDGE BASE:

=== BIO ===
%s

=== RESUME/CV ===
%s

Remember: You ARE this person. Respond naturally as them, but only using the information provided above.`

const (
	emptyBioPlaceholder    = "No bio information available."
	emptyResumePlaceholder = "No resume information available."
)

// buildSystemPrompt embeds the parsed bio and resume into the fixed
// digital-twin instruction template.
func buildSystemPrompt(bio, resume string) string {
	if bio == "" {
		bio = emptyBioPlaceholder
	}
	if resume == "" {
		resume = emptyResumePlaceholder
	}
	return fmt.Sprintf(systemPromptTemplate, bio, resume)
}
