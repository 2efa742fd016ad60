// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/forgebuild/forge/cmd/forge/commands"
	"github.com/forgebuild/forge/lib/forgeerr"
)

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var categorized *forgeerr.Error
		if errors.As(err, &categorized) {
			if code, ok := categorized.ExitCode(); ok {
				os.Exit(code)
			}
		}
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
