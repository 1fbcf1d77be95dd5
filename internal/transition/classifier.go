package transition

import "strings"

// Outcome is the verdict extracted from a delegation's result text.
type Outcome int

const (
	// OutcomeInconclusive means no verdict keyword was found; the phase is
	// left unchanged.
	OutcomeInconclusive Outcome = iota
	// OutcomePositive means the result approves or passes.
	OutcomePositive
	// OutcomeNegative means the result rejects or fails.
	OutcomeNegative
)

// Classifier extracts an Outcome from free-form result text.
type Classifier interface {
	Classify(text string) Outcome
}

// KeywordClassifier matches verdict keywords case-insensitively. Negative
// keywords win over positive ones: a result saying "tests fail, otherwise
// approved" must not advance the workflow.
type KeywordClassifier struct {
	positive []string
	negative []string
}

// NewKeywordClassifier returns a classifier with the built-in keyword sets,
// which cover English verdicts, common emoji, and the CJK verdicts used by
// the bundled agent prompts.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		positive: []string{
			"approve", "approved", "lgtm",
			"pass", "passed", "all tests pass",
			"✅", "通過", "通过", "合格",
		},
		negative: []string{
			"reject", "rejected", "request changes",
			"fail", "failed", "failing",
			"❌", "不通過", "不通过", "失敗", "失败", "問題", "问题",
		},
	}
}

// Classify implements Classifier.
func (c *KeywordClassifier) Classify(text string) Outcome {
	lower := strings.ToLower(text)
	for _, kw := range c.negative {
		if strings.Contains(lower, kw) {
			return OutcomeNegative
		}
	}
	for _, kw := range c.positive {
		if strings.Contains(lower, kw) {
			return OutcomePositive
		}
	}
	return OutcomeInconclusive
}
