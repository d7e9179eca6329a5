// Package main provides the entry point for the freelog CLI application.
package main

import (
	"fmt"
	"os"

	"fjacquet/freelog/cmd/emit"
	"fjacquet/freelog/cmd/replay"
	"fjacquet/freelog/cmd/root"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(emit.Cmd)
	root.Cmd.AddCommand(replay.Cmd)
}

func main() {
	err := root.Cmd.Execute()
	if closeErr := root.Teardown(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
