package eventlog

import "fmt"

// Pending summarizes unreviewed and untested work derived by replaying the
// unexpired event stream. Counters never go negative; a completion with no
// matching pending work is ignored rather than underflowing.
type Pending struct {
	// Edits is the number of edits since the last reviewer or tester pass.
	Edits int
	// Developers is the number of developer completions awaiting review.
	Developers int
	// Reviewers is the number of reviewer completions awaiting test.
	Reviewers int
	// Files are the distinct files touched by the pending edits, in first
	// touch order.
	Files []string
}

// Fold replays events in order and returns the resulting pending counters.
func Fold(events []Event) Pending {
	var p Pending
	seen := make(map[string]bool)

	for _, e := range events {
		switch e.Kind {
		case KindEdit:
			p.Edits++
			if e.File != "" && !seen[e.File] {
				seen[e.File] = true
				p.Files = append(p.Files, e.File)
			}
		case KindDeveloperComplete:
			p.Developers++
		case KindReviewerComplete:
			p.Edits = 0
			p.Files = nil
			seen = make(map[string]bool)
			if p.Developers > 0 {
				p.Developers--
			}
			p.Reviewers++
		case KindTesterComplete:
			p.Edits = 0
			p.Files = nil
			seen = make(map[string]bool)
			if p.Reviewers > 0 {
				p.Reviewers--
			}
		}
	}
	return p
}

// Pending folds the current unexpired event stream.
func (l *Log) Pending() Pending {
	return Fold(l.ReadRecent())
}

// CheckMissingReview inspects the pending counters and, when unreviewed
// edits exceed the configured threshold, records and returns a
// missing_review violation. Returns nil when within threshold.
func (l *Log) CheckMissingReview() *Violation {
	p := l.Pending()
	if p.Edits <= l.opts.WarnThresholdEdits {
		return nil
	}

	v := Violation{
		Type:     ViolationMissingReview,
		Severity: "warning",
		Message: fmt.Sprintf("%d edits since the last review; delegate to a reviewer before continuing",
			p.Edits),
		PendingEdits: p.Edits,
		Files:        p.Files,
	}
	l.AppendViolation(v)
	return &v
}
