package cli

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"
)

// errNotTerminal is returned when the interactive quiz is started without a TTY.
var errNotTerminal = errors.New("play needs an interactive terminal")

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

func defaultIsTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if file, ok := w.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := w.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}
