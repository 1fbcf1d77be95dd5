package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"tiny budget is all ellipsis", "hello", 3, "..."},
		{"zero budget is all ellipsis", "hello", 0, "..."},
		{"empty string unchanged", "", 10, ""},
		{"runes counted, not bytes", "日本語テスト", 5, "日本..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateANSI(t *testing.T) {
	if got := TruncateANSI("hello", 10); got != "hello" {
		t.Errorf("short string should be unchanged, got %q", got)
	}
	if got := TruncateANSI("hello world", 8); got != "hello..." {
		t.Errorf("plain truncation = %q, want hello...", got)
	}
	if got := TruncateANSI("hello", 2); got != "..." {
		t.Errorf("tiny budget = %q, want ...", got)
	}

	styled := lipgloss.NewStyle().Bold(true).Render("hello world")
	got := TruncateANSI(styled, 8)
	if w := lipgloss.Width(got); w > 8 {
		t.Errorf("styled result width %d exceeds 8", w)
	}

	wide := "日本語テスト"
	if w := lipgloss.Width(TruncateANSI(wide, 8)); w > 8 {
		t.Errorf("wide-character result width %d exceeds 8", w)
	}
}
