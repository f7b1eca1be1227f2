package cli

import (
	"context"
	"fmt"

	"repost.dev/repost/internal/actions/repost"
	"repost.dev/repost/internal/tui"
)

// confirmPublish asks before anything is pushed, offering to edit the title
// and, when askNote is set, to compose a note in $EDITOR.
func confirmPublish(splog *tui.Splog, askNote bool) repost.ConfirmFunc {
	return func(_ context.Context, plan repost.PublishPlan) (repost.PublishPlan, bool, error) {
		splog.SetQuiet(true)
		defer splog.SetQuiet(false)

		detail := fmt.Sprintf("Branch %s (%s) -> %s\nTitle  %s\n", plan.Branch, shortCommit(plan.Commit), plan.Base, plan.Title)
		ok, err := tui.PromptConfirm(fmt.Sprintf("Push %s and open the pull request?", plan.Branch), detail, true)
		if err != nil || !ok {
			return plan, false, err
		}

		title, err := tui.PromptTextInput("Title:", plan.Title)
		if err != nil {
			return plan, false, err
		}
		plan.Title = title

		if askNote {
			note, err := tui.PromptNote("Add a note to the description?")
			if err != nil {
				return plan, false, err
			}
			plan.Note = note
		}
		return plan, true, nil
	}
}

func shortCommit(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
