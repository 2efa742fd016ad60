// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/forgebuild/forge/internal/analysis"
	"github.com/forgebuild/forge/internal/optionprocessor"
	"github.com/forgebuild/forge/lib/clock"
)

// demoOwner is a minimal ArtifactOwner for the analysis demo: the
// label given as the build command's first positional argument.
type demoOwner struct{ label string }

func (o demoOwner) Label() string { return o.label }

// Boot runs the full startup pipeline: layer rc-files and argv into a
// StartupOptions, assemble the server-bound argument vector, and, for
// a "build" command, drive one CachingAnalysisEnvironment for the
// requested target as a concrete demonstration of the analysis
// facade end to end.
func Boot(argv []string, workspaceDir string, logger *slog.Logger) error {
	processor := optionprocessor.NewProcessor(logger)
	if err := processor.ProcessOptions(argv, workspaceDir); err != nil {
		return err
	}

	command := processor.GetCommand()
	commandArgs := processor.GetCommandArguments()
	serverArgs := processor.AddRcfileArgsAndOptions()

	parsedServerArgs, err := parseServerArgv(serverArgs)
	if err != nil {
		return err
	}

	logger.Info("boot complete",
		"invocation_id", processor.InvocationID().String(),
		"command", command,
		"command_args", commandArgs,
		"isatty", mustGetBool(parsedServerArgs, "isatty"),
		"client_cwd", mustGetString(parsedServerArgs, "client_cwd"),
	)
	for _, arg := range serverArgs {
		fmt.Println(arg)
	}
	fmt.Println(command)
	for _, arg := range commandArgs {
		fmt.Println(arg)
	}

	if command != "build" || len(commandArgs) == 0 {
		return nil
	}
	return runAnalysisDemo(commandArgs[0], processor, logger)
}

// parseServerArgv re-parses the flags AddRcfileArgsAndOptions
// assembled, the way the server process itself would on the other end
// of the pipe, and is the concrete stand-in for that re-parsing
// surface in this single-binary demo.
func parseServerArgv(serverArgs []string) (*pflag.FlagSet, error) {
	flags := pflag.NewFlagSet("server", pflag.ContinueOnError)
	flags.String("invocation_id", "", "")
	flags.StringArray("rc_source", nil, "")
	flags.StringArray("default_override", nil, "")
	flags.Bool("isatty", false, "")
	flags.Int("terminal_columns", 0, "")
	flags.Bool("ignore_client_env", false, "")
	flags.StringArray("client_env", nil, "")
	flags.String("client_cwd", "", "")
	flags.Bool("emacs", false, "")

	if err := flags.Parse(serverArgs); err != nil {
		return nil, fmt.Errorf("re-parsing server argv: %w", err)
	}
	return flags, nil
}

func mustGetBool(flags *pflag.FlagSet, name string) bool {
	value, _ := flags.GetBool(name)
	return value
}

func mustGetString(flags *pflag.FlagSet, name string) string {
	value, _ := flags.GetString(name)
	return value
}

func runAnalysisDemo(label string, processor *optionprocessor.Processor, logger *slog.Logger) error {
	invocation := analysis.NewInvocationContext(logger, clock.Real())
	invocation.InvocationID = processor.InvocationID()
	owner := demoOwner{label: label}

	job := analysis.TargetJob{
		Target: analysis.Target{Label: label, Kind: "genrule"},
		NewConfig: func() analysis.Config {
			return analysis.Config{
				Factory:              analysis.NewArtifactFactory(),
				Owner:                owner,
				Invocation:           invocation,
				AllowRegisterActions: true,
			}
		},
		Analyze: func(env *analysis.CachingAnalysisEnvironment) error {
			output, err := env.GetDerivedArtifact("out/demo.txt", analysis.Root{Name: "bin"})
			if err != nil {
				return err
			}
			return env.RegisterAction(analysis.Action{
				Mnemonic: "Demo",
				Class:    "GenruleAction",
				Outputs:  []analysis.Artifact{output},
			})
		},
	}

	if err := analysis.RunTargets(context.Background(), []analysis.TargetJob{job}, 1); err != nil {
		return err
	}
	logger.Info("analysis sealed cleanly", "target", label)
	return nil
}
