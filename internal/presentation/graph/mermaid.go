package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/leadflow/pkg/domain"
)

// Overlay marks session progress on the rendered flow.
type Overlay struct {
	Visited []string
	Current string
}

// OverlayFromState builds an overlay from a session state.
// A completed session has no current step.
func OverlayFromState(state *domain.State, steps []domain.Step) *Overlay {
	if state == nil {
		return nil
	}
	o := &Overlay{Visited: state.History}
	if state.Status != domain.StatusCompleted && state.Position >= 0 && state.Position < len(steps) {
		o.Current = steps[state.Position].ID
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the step sequence.
// Shapes follow the step kind:
// - Auth: [[Subroutine]]
// - Choice: [/Parallelogram/]
// - Amount: [Rectangle]
// Choice steps with an "other" option get a self-loop for the free-text detour.
func GenerateMermaid(steps []domain.Step, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    start((\"start\"))\n")
	sb.WriteString("    done((\"lead\"))\n")

	prev := "start"
	for _, step := range steps {
		id := sanitizeMermaidID(step.ID)

		opener, closer := "[", "]"
		switch step.Kind {
		case domain.StepKindAuth:
			opener, closer = "[[", "]]"
		case domain.StepKindChoice:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escapeLabel(step.Title), closer)

		if prev == "start" {
			fmt.Fprintf(&sb, "    %s --> %s\n", prev, id)
		} else {
			fmt.Fprintf(&sb, "    %s -- \"next\" --> %s\n", prev, id)
			fmt.Fprintf(&sb, "    %s -. \"back\" .-> %s\n", id, prev)
		}
		if step.AllowsOther() {
			label := step.OtherLabel
			if label == "" {
				label = domain.OtherOptionValue
			}
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", id, escapeLabel(label), id)
		}
		prev = id
	}
	fmt.Fprintf(&sb, "    %s --> done\n", prev)

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, stepID := range overlay.Visited {
			safeID := sanitizeMermaidID(stepID)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(id)
}
