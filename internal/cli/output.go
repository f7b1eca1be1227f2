package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"repost.dev/repost/internal/actions/repost"
	"repost.dev/repost/internal/tui"
)

// outcomeJSON is the --json rendering of an outcome
type outcomeJSON struct {
	Outcome    string   `json:"outcome"`
	State      string   `json:"state"`
	Number     int      `json:"number"`
	URL        string   `json:"url,omitempty"`
	NewNumber  int      `json:"new_number,omitempty"`
	Existing   bool     `json:"existing,omitempty"`
	Branch     string   `json:"branch,omitempty"`
	BaseRemote string   `json:"base_remote,omitempty"`
	Conflicts  []string `json:"conflicts,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	WorkDir    string   `json:"work_dir,omitempty"`
	States     []string `json:"states"`
}

func newOutcomeJSON(o *repost.Outcome, trail []repost.Transition) outcomeJSON {
	out := outcomeJSON{
		Outcome:    o.Kind.String(),
		State:      o.State.String(),
		Number:     o.Number,
		URL:        o.URL,
		NewNumber:  o.NewNumber,
		Existing:   o.Existing,
		BaseRemote: o.BaseRemote,
		Conflicts:  o.Conflicts,
		Reason:     o.Reason,
		States:     make([]string, 0, len(trail)+1),
	}
	if o.Kind == repost.OutcomePublished {
		out.Branch = o.Branch
	}
	if o.WorkDirKept {
		out.WorkDir = o.WorkDir
	}
	out.States = append(out.States, repost.StateStart.String())
	for _, t := range trail {
		out.States = append(out.States, t.To.String())
	}
	return out
}

// printOutcome writes exactly one outcome line (or JSON object) to w
func printOutcome(w io.Writer, o *repost.Outcome, trail []repost.Transition, asJSON bool) error {
	if asJSON {
		data, err := json.Marshal(newOutcomeJSON(o, trail))
		if err != nil {
			return fmt.Errorf("failed to encode outcome: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	line := o.String()
	if isTerminalWriter(w) {
		line = styleOutcome(o)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func styleOutcome(o *repost.Outcome) string {
	switch o.Kind {
	case repost.OutcomePublished:
		return tui.Success("Published:") + " " + tui.URL(o.URL)
	case repost.OutcomeConflicts:
		return tui.Warning("Conflicts require manual intervention:") + " " + strings.Join(o.Conflicts, ", ")
	}
	return tui.Failure("Failed:") + " " + o.Reason
}
