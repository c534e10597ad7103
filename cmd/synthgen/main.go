package main

import (
	"fmt"
	"os"
)

const (
	exitOK    = 0
	exitError = 1
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitError)
	}
	os.Exit(exitOK)
}
