package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

const banner = `
 _                _  __ _
| | ___  __ _  __| |/ _| | _____      __
| |/ _ \/ _' |/ _' | |_| |/ _ \ \ /\ / /
| |  __/ (_| | (_| |  _| | (_) \ V  V /
|_|\___|\__,_|\__,_|_| |_|\___/ \_/\_/
`

// PrintBanner writes the leadflow ASCII banner and version line to w.
// Colours degrade to plain text when w is not a colour-capable terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	primary := out.String(banner).Foreground(out.Color("#7D56F4")).Bold()
	fmt.Fprintln(w, primary)

	if version != "" {
		sub := out.String("  lead capture wizard v" + version).Foreground(out.Color("#626262"))
		fmt.Fprintln(w, sub)
	}
	fmt.Fprintln(w)
}
