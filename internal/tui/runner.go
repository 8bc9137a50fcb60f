package tui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm asks a yes/no question on out and reads the answer from in.
// Anything other than y or yes counts as no.
func Confirm(in io.Reader, out io.Writer, message string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", message)

	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// Status prints one line per step of a CLI command.
type Status struct {
	out io.Writer
}

func NewStatus(out io.Writer) *Status {
	return &Status{out: out}
}

func (s *Status) Start(message string) {
	fmt.Fprintf(s.out, "%s %s\n", SymbolSpinner, message)
}

func (s *Status) Success(message string) {
	fmt.Fprintf(s.out, "%s %s\n", SymbolCheck, message)
}

func (s *Status) Error(message string) {
	fmt.Fprintf(s.out, "%s %s\n", SymbolCross, message)
}
