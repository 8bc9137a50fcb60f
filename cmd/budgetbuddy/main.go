package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/budgetbuddy/internal/cli"
	"github.com/vvka-141/budgetbuddy/pkg/budgetbuddy"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(budgetbuddy.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(budgetbuddy.ExitCodeForError(err))
	}
}
