package logging

import (
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// forceColorEnv enables color on non-terminal output, e.g. CI logs.
const forceColorEnv = "FORCE_COLOR"

// IsTTY reports whether w is a terminal. Any writer with an Fd method is
// checked, so wrapped *os.File values work too.
func IsTTY(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// SupportsColor reports whether ANSI colors should be written to w.
// NO_COLOR (https://no-color.org) always disables color, FORCE_COLOR
// enables it, TERM=dumb disables it, and otherwise w must be a terminal.
func SupportsColor(w io.Writer) bool {
	return colorEnabled(IsTTY(w), os.LookupEnv)
}

// SyncColor points fatih/color's global switch at w, so command output
// written with color.* follows the same rules as the log handler.
func SyncColor(w io.Writer) {
	color.NoColor = !SupportsColor(w)
}

func colorEnabled(isTTY bool, lookup func(string) (string, bool)) bool {
	if _, ok := lookup("NO_COLOR"); ok {
		return false
	}
	if v, ok := lookup(forceColorEnv); ok && v != "" && v != "0" && v != "false" {
		return true
	}
	if v, _ := lookup("TERM"); v == "dumb" {
		return false
	}
	return isTTY
}
