package main

import (
	"fmt"
	"followtrack/internal/command"
	"os"
)

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
