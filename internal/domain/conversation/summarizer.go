package conversation

import (
	"fmt"
	"strings"
)

// Summarizer condenses older messages into a single line of text. It must
// be deterministic: the same input always produces the same summary, so a
// degraded context never flaps between requests.
type Summarizer interface {
	Summarize(older []Message) string
}

// KeywordSummarizer scans message text for task activity verbs and emits
// a fixed-format digest. No model call is involved.
type KeywordSummarizer struct{}

var activityBuckets = []struct {
	label string
	verbs []string
}{
	{"created", []string{"created", "added", "add "}},
	{"completed", []string{"completed", "done", "finished"}},
	{"deleted", []string{"deleted", "removed"}},
}

// Summarize counts user and assistant turns and task activity mentions in
// the older slice. Empty input yields an empty string.
func (KeywordSummarizer) Summarize(older []Message) string {
	if len(older) == 0 {
		return ""
	}

	var users, assistants int
	counts := make(map[string]int, len(activityBuckets))
	for _, msg := range older {
		switch msg.Role {
		case RoleUser:
			users++
		case RoleAssistant:
			assistants++
		}
		lowered := strings.ToLower(msg.Content)
		for _, bucket := range activityBuckets {
			for _, verb := range bucket.verbs {
				if strings.Contains(lowered, verb) {
					counts[bucket.label]++
					break
				}
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Earlier in this conversation: %d user and %d assistant messages.", users, assistants)
	for _, bucket := range activityBuckets {
		if n := counts[bucket.label]; n > 0 {
			fmt.Fprintf(&sb, " Tasks %s were mentioned in %d messages.", bucket.label, n)
		}
	}
	return sb.String()
}
