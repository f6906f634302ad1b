package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// main builds the CLI; the default command runs the HTTP service.
func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
