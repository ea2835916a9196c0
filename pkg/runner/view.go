package runner

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

// PlainIndicator renders the indicator as a single line,
// e.g. "Step 2/4 · Property type · 25%".
func PlainIndicator(ind domain.IndicatorView) string {
	total := len(ind.Entries)
	for _, e := range ind.Entries {
		if e.Status == domain.StepCurrent {
			return fmt.Sprintf("Step %d/%d · %s · %.0f%%", e.Index+1, total, e.Title, ind.Progress)
		}
	}
	return fmt.Sprintf("%d/%d · %.0f%%", total, total, ind.Progress)
}

// ViewMarkdown renders the active step of view as markdown.
func ViewMarkdown(view *domain.View) string {
	var b strings.Builder

	if view.Completed {
		b.WriteString("## Thank you!\n\n")
		if view.Lead != nil {
			fmt.Fprintf(&b, "We have everything we need, %s. Your offers are on the way.\n", view.Lead.Name)
		}
		return b.String()
	}

	fmt.Fprintf(&b, "## %s\n\n", view.Step.Heading())
	if view.Step.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", view.Step.Description)
	}

	switch {
	case view.Auth != nil:
		writeAuth(&b, view.Auth)
	case view.Choice != nil:
		writeChoice(&b, view.Choice)
	case view.Amount != nil:
		writeAmount(&b, view.Amount)
	}
	return b.String()
}

func writeAuth(b *strings.Builder, a *domain.AuthView) {
	switch a.Phase {
	case domain.PhaseCollectingDetails:
		b.WriteString("Enter your name, then your 10-digit mobile number.\n")
		if a.CodeSentTo != "" {
			fmt.Fprintf(b, "\nA code was sent to **%s**.\n", a.CodeSentTo)
		}
	case domain.PhaseAwaitingOTP:
		fmt.Fprintf(b, "We've sent a verification code to **%s**.\n\n", a.CodeSentTo)
		fmt.Fprintf(b, "Type the 6-digit code, `%s` for a new one or `%s` to change your details.\n", CmdTextResend, CmdTextBack)
	case domain.PhaseAuthenticated:
		fmt.Fprintf(b, "Verified as %s. Press Enter to continue.\n", a.Name)
	}
	writeErrors(b, a.Errors)
}

func writeChoice(b *strings.Builder, c *domain.ChoiceView) {
	for i, opt := range c.Options {
		marker := " "
		if opt.Selected {
			marker = "x"
		}
		fmt.Fprintf(b, "%d. [%s] %s\n", i+1, marker, opt.Label)
	}
	if c.OtherSelected {
		label := c.OtherLabel
		if label == "" {
			label = "Please specify"
		}
		fmt.Fprintf(b, "\n%s:", label)
		if c.OtherText != "" {
			fmt.Fprintf(b, " %s", c.OtherText)
		}
		b.WriteString("\n")
	}
	if c.ShowBack {
		fmt.Fprintf(b, "\n`%s` returns to the previous step.\n", CmdTextBack)
	}
	writeErrors(b, c.Errors)
}

func writeAmount(b *strings.Builder, a *domain.AmountView) {
	if a.Hint != "" {
		fmt.Fprintf(b, "%s\n", a.Hint)
	}
	if a.Value != "" {
		fmt.Fprintf(b, "\nCurrent: %s\n", a.Value)
	}
	b.WriteString("\nLeave empty to skip.\n")
	if a.ShowBack {
		fmt.Fprintf(b, "`%s` returns to the previous step.\n", CmdTextBack)
	}
	writeErrors(b, a.Errors)
}

func writeErrors(b *strings.Builder, errs map[string]string) {
	if len(errs) == 0 {
		return
	}
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	b.WriteString("\n")
	for _, f := range fields {
		fmt.Fprintf(b, "> **%s**: %s\n", f, errs[f])
	}
}
