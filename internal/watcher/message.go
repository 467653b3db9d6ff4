package watcher

import (
	"fmt"
	"strings"

	"github.com/bassista/go_pagewatch/internal/detector"
)

// message builds the notification body for an outcome. ok is false when the
// policy says the outcome stays silent.
func (w *Watcher) message(outcome detector.Outcome, snap Snapshot) (body string, ok bool) {
	content := strings.TrimSpace(string(snap.Content))
	var b strings.Builder

	switch outcome {
	case detector.Changed:
		b.WriteString("The monitored site has been updated.\n\n")
		fmt.Fprintf(&b, "New content:\n%s\n\n", content)
	case detector.Unchanged:
		if !w.policy.NotifyUnchanged {
			return "", false
		}
		b.WriteString("The monitored site was checked today and has no changes.\n\n")
		fmt.Fprintf(&b, "Current content:\n%s\n\n", content)
		b.WriteString("Monitoring continues.\n\n")
	case detector.NoBaseline:
		if !w.policy.NotifyFirstRun {
			return "", false
		}
		b.WriteString("Monitoring started. The current content is now the baseline.\n\n")
		fmt.Fprintf(&b, "Fingerprint: %s\n\n", snap.Fingerprint)
	default:
		return "", false
	}

	fmt.Fprintf(&b, "Site link: %s\n", w.target.URL)
	return b.String(), true
}
