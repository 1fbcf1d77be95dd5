package state

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const (
	adhocMaxPromptLen = 50
	adhocMaxSlugWords = 3
)

// AdHocChangeID derives a change identifier from free-form prompt text:
// "ad-hoc-<slug>-<millisecond timestamp>", or "ad-hoc-<timestamp>" when the
// prompt yields no usable words. The function is pure so it can be tested
// without touching the clock or the filesystem.
func AdHocChangeID(prompt string, now time.Time) string {
	ts := now.UnixMilli()

	trimmed := prompt
	if len(trimmed) > adhocMaxPromptLen {
		trimmed = trimmed[:adhocMaxPromptLen]
	}

	var b strings.Builder
	for _, r := range trimmed {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case unicode.Is(unicode.Han, r):
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	if len(words) > adhocMaxSlugWords {
		words = words[:adhocMaxSlugWords]
	}
	if len(words) == 0 {
		return fmt.Sprintf("ad-hoc-%d", ts)
	}
	return fmt.Sprintf("ad-hoc-%s-%d", strings.Join(words, "-"), ts)
}
