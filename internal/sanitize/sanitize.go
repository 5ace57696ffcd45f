// Package sanitize normalizes raw model output before it reaches the voice.
package sanitize

import "strings"

// DefaultReply replaces a reply that sanitizes down to nothing.
const DefaultReply = "Hola! Como estas?"

// Role labels and emphasis markers models like to prepend despite the prompt.
var leadingPrefixes = []string{"Osito:", "osito:", "**"}

// Inclusive codepoint ranges the voice must never carry: emoticons,
// pictographs, transport, flags, dingbats, enclosed characters and the
// supplemental/extended symbol blocks.
var symbolRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // symbols & pictographs
	{0x1F680, 0x1F6FF}, // transport & map
	{0x1F1E0, 0x1F1FF}, // flags
	{0x2702, 0x27B0},   // dingbats
	{0x24C2, 0x1F251},  // enclosed characters
	{0x1F900, 0x1F9FF}, // supplemental symbols
	{0x1FA00, 0x1FA6F}, // chess symbols
	{0x1FA70, 0x1FAFF}, // symbols extended
	{0x2600, 0x26FF},   // misc symbols
}

func isSymbol(r rune) bool {
	for _, rng := range symbolRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return false
}

func stripSymbols(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !isSymbol(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Clean strips role-label prefixes, emphasis markers and symbolic emoji,
// collapses whitespace and falls back to DefaultReply when nothing is left.
// Clean(Clean(s)) == Clean(s) for all s.
func Clean(raw string) string {
	text := strings.TrimSpace(raw)

	// Emphasis or emoji removal can expose a fresh role label at the start,
	// so the strip passes repeat until the text stops changing.
	for {
		prev := text
		for _, p := range leadingPrefixes {
			if strings.HasPrefix(text, p) {
				text = strings.TrimSpace(text[len(p):])
			}
		}
		text = strings.ReplaceAll(text, "*", "")
		text = strings.TrimSpace(stripSymbols(text))
		if text == prev {
			break
		}
	}

	text = strings.Join(strings.Fields(text), " ")

	if text == "" {
		return DefaultReply
	}
	return text
}
