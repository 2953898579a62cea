package app

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/term"
)

// LineEntered returns a channel closed once r yields a line or ends
func LineEntered(r io.Reader) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = bufio.NewReader(r).ReadString('\n')
	}()
	return done
}

// StdinIsTerminal reports whether an operator can type into stdin
func StdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
