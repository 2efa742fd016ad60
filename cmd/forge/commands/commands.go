// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the forge CLI command tree: the boot
// pipeline that processes startup options and rc-files, then demos
// the analysis environment against the resulting command line.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/forgebuild/forge/lib/cli"
	"github.com/forgebuild/forge/lib/logging"
)

// version is the demo binary's own version string, separate from the
// version of any workspace it analyzes.
const version = "0.1.0"

// Root builds the forge command tree. "version" and "info" are
// registered Subcommands dispatched by name in the usual way; any
// other command word (build, query, and so on) isn't pre-enumerated
// here because forge's own startup flags (--output_base, --batch, and
// so on) must be recognized ahead of the command word, and the word
// itself is only resolved once the rc-file and argv layering pipeline
// runs. Root.Run is the fallback Command.Execute takes for exactly
// that case.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "forge",
		Summary: "A build system front end",
		Description: `forge: startup-option processing and per-target analysis.

Boots by layering rc-files and command-line startup flags, then runs
the requested build command's analysis phase.`,
		Usage: "forge [startup flags] <command> [args]",
		Examples: []cli.Example{
			{
				Description: "Build a target",
				Command:     "forge build //x:y",
			},
			{
				Description: "Override the install base for this invocation",
				Command:     "forge --install_base=/tmp/forge-install build //x:y",
			},
			{
				Description: "Print version information",
				Command:     "forge version",
			},
		},
		Subcommands: []*cli.Command{
			versionCommand(),
			infoCommand(),
		},
		Run: func(args []string) error {
			logger := logging.New()
			argv := append([]string{"forge"}, args...)
			workspaceDir, err := os.Getwd()
			if err != nil {
				return err
			}
			return Boot(argv, workspaceDir, logger)
		},
	}
}

// versionCommand prints the binary's own version, optionally
// shortened to just the version number for scripting.
func versionCommand() *cli.Command {
	var short bool
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flags.BoolVar(&short, "short", false, "print only the version number")
			return flags
		},
		Run: func(args []string) error {
			if short {
				fmt.Println(version)
				return nil
			}
			fmt.Printf("forge %s (analysis + option processing demo)\n", version)
			return nil
		},
	}
}

// infoCommand is reserved for printing resolved startup options
// outside of a build; not yet implemented.
func infoCommand() *cli.Command {
	return &cli.Command{
		Name:    "info",
		Summary: "Print resolved startup options",
		Run: func(args []string) error {
			return cli.ErrNotImplemented("info")
		},
	}
}
