package main

import (
	"fmt"
	"os"

	"github.com/vflow-stack/flowcat/cmd/flowcat/cmd"
	ferrors "github.com/vflow-stack/flowcat/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ferrors.ExitCode(err))
	}
}
