// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package optionprocessor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/forgebuild/forge/internal/rcfile"
	"github.com/forgebuild/forge/lib/forgeerr"
)

// Processor discovers rc-files, layers startup options from them and
// argv, and assembles the argument vector passed to the server.
type Processor struct {
	logger *slog.Logger

	startupOptions *StartupOptions
	invocationID   uuid.UUID

	rcFiles      []string
	optionMap    *rcfile.RcOptionMap
	command      string
	commandArgs  []string
	startupArgsN int

	// isTTY and terminalSize back --isatty/--terminal_columns. They
	// default to the real golang.org/x/term queries against stdout;
	// tests substitute fixed values instead of faking a terminal.
	isTTY        func() bool
	terminalSize func() (columns int, ok bool)
}

// NewProcessor constructs a Processor. logger is forwarded to the
// rc-file parser for its "Reading 'startup' options" notices.
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{
		logger:         logger,
		startupOptions: NewStartupOptions(),
		isTTY:          func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
		terminalSize: func() (int, bool) {
			columns, _, err := term.GetSize(int(os.Stdout.Fd()))
			return columns, err == nil
		},
	}
}

// discoveryConfig names the explicit --blazerc overrides and the
// nomaster flag observed while scanning argv for discovery purposes,
// before any flag has been otherwise processed.
type discoveryConfig struct {
	explicitBlazerc string
	noMasterBlazerc bool
}

func scanForDiscoveryFlags(argv []string) discoveryConfig {
	var cfg discoveryConfig
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if value, ok := stripPrefix(arg, "--blazerc="); ok {
			cfg.explicitBlazerc = value
			continue
		}
		if arg == "--blazerc" {
			if i+1 < len(argv) {
				cfg.explicitBlazerc = argv[i+1]
				i++
			}
			continue
		}
		if arg == "--nomaster_blazerc" {
			cfg.noMasterBlazerc = true
		}
	}
	return cfg
}

// discoverRcFiles implements the rc-file search: unless
// --nomaster_blazerc was given, the depot rc is found at
// tools/blaze.blazerc under the workspace, falling back to a sibling
// READONLY tree; the user rc is the explicit --blazerc file if one was
// given, else the workspace's own .blazerc, falling back to
// $HOME/.blazerc. An explicit --blazerc file that does not exist is
// left out here; ProcessOptions rejects it before discovery runs.
func discoverRcFiles(workspaceDir string, cfg discoveryConfig) []string {
	var files []string

	if !cfg.noMasterBlazerc {
		depot := filepath.Join(workspaceDir, "tools", "blaze.blazerc")
		if _, err := os.Stat(depot); err != nil {
			depot = filepath.Join(workspaceDir, "..", "READONLY", "google3", "tools", "blaze.blazerc")
		}
		if _, err := os.Stat(depot); err == nil {
			files = append(files, depot)
		}
	}

	if cfg.explicitBlazerc != "" {
		if _, err := os.Stat(cfg.explicitBlazerc); err == nil {
			files = append(files, cfg.explicitBlazerc)
		}
		return files
	}

	userRc := filepath.Join(workspaceDir, ".blazerc")
	if _, err := os.Stat(userRc); err != nil {
		if home, homeErr := os.UserHomeDir(); homeErr == nil {
			userRc = filepath.Join(home, ".blazerc")
		}
	}
	if _, err := os.Stat(userRc); err == nil {
		files = append(files, userRc)
	}

	return files
}

// ProcessOptions runs the full boot pipeline: discovers rc-files,
// parses them, mints the invocation's identity, layers startup
// options from rc-files then argv, and records the command and its
// remaining arguments.
func (p *Processor) ProcessOptions(argv []string, workspaceDir string) error {
	if len(argv) == 0 {
		return fmt.Errorf("empty argument vector")
	}

	p.startupOptions.InitDefaults(argv[0])
	p.invocationID = uuid.New()

	cfg := scanForDiscoveryFlags(argv[1:])
	if cfg.explicitBlazerc != "" {
		if _, err := os.Stat(cfg.explicitBlazerc); err != nil {
			return forgeerr.UserConfigError("cannot read --blazerc file %s: %v", cfg.explicitBlazerc, err)
		}
	}
	p.rcFiles = discoverRcFiles(workspaceDir, cfg)

	parser := rcfile.NewParser(p.logger)
	optionMap, err := mergeRcFiles(parser, p.rcFiles)
	if err != nil {
		return err
	}
	p.optionMap = optionMap
	p.rcFiles = parser.RcFiles()

	p.layerStartupOptions(argv)

	return nil
}

// mergeRcFiles parses every discovered rc-file through the same
// Parser instance and into one shared RcOptionMap, so rcfile_index is
// assigned across all of them in discovery order and their per-command
// option lists fold together in that same order.
func mergeRcFiles(parser *rcfile.Parser, files []string) (*rcfile.RcOptionMap, error) {
	combined := rcfile.NewOptionMap()
	for _, file := range files {
		if err := parser.ParseInto(file, combined); err != nil {
			return nil, err
		}
	}
	return combined, nil
}

// layerStartupOptions reproduces the off-by-one-aware pairwise walk:
// first over every "startup" RcOption but the last one, then over the
// final one guarded by IsArg, then over argv[1:] with the same
// pairwise protocol until the first non-flag argument.
func (p *Processor) layerStartupOptions(argv []string) {
	startupOptions := p.optionMap.Get("startup")

	i := 0
	for i < len(startupOptions)-1 {
		opt := startupOptions[i]
		next := startupOptions[i+1]
		if p.startupOptions.ProcessArg(opt.OptionText, next.OptionText, p.rcfileName(opt.RcfileIndex)) {
			i += 2
		} else {
			i++
		}
	}
	if i == len(startupOptions)-1 {
		last := startupOptions[i]
		if IsArg(last.OptionText) {
			p.startupOptions.ProcessArg(last.OptionText, "", p.rcfileName(last.RcfileIndex))
		} else {
			p.logger.Debug("dropping trailing startup value that is not a flag", "value", last.OptionText)
		}
	}

	argvRest := argv[1:]
	j := 0
	for j < len(argvRest) {
		arg := argvRest[j]
		if !IsArg(arg) {
			break
		}
		var next string
		if j+1 < len(argvRest) {
			next = argvRest[j+1]
		}
		if p.startupOptions.ProcessArg(arg, next, "") {
			j += 2
		} else {
			j++
		}
		p.startupArgsN = j
	}

	if j < len(argvRest) {
		p.command = argvRest[j]
		p.commandArgs = append([]string(nil), argvRest[j+1:]...)
	}
}

func (p *Processor) rcfileName(index int) string {
	if index < 0 || index >= len(p.rcFiles) {
		return ""
	}
	return p.rcFiles[index]
}

// AddRcfileArgsAndOptions assembles the flags injected ahead of the
// user's own command arguments: invocation id first, then rc_source
// entries, default_override entries, isatty/terminal_columns,
// client_env or ignore_client_env, client_cwd, and an optional emacs
// flag. terminal_columns is left out when the terminal size cannot be
// read. The command word and the user's own command arguments are
// read separately via GetCommand and GetCommandArguments; the full
// server-bound argv is their concatenation in that order.
func (p *Processor) AddRcfileArgsAndOptions() []string {
	var args []string

	args = append(args, "--invocation_id="+p.invocationID.String())

	for _, file := range p.rcFiles {
		args = append(args, "--rc_source="+file)
	}

	for _, command := range p.optionMap.Commands() {
		if command == "startup" {
			continue
		}
		for _, opt := range p.optionMap.Get(command) {
			args = append(args, fmt.Sprintf("--default_override=%d:%s=%s", opt.RcfileIndex, command, opt.OptionText))
		}
	}

	if p.isTTY() {
		args = append(args, "--isatty=1")
	} else {
		args = append(args, "--isatty=0")
	}
	if columns, ok := p.terminalSize(); ok {
		args = append(args, "--terminal_columns="+strconv.Itoa(columns))
	}

	if p.startupOptions.Batch {
		args = append(args, "--ignore_client_env")
	} else {
		for _, kv := range os.Environ() {
			args = append(args, "--client_env="+kv)
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		args = append(args, "--client_cwd="+cwd)
	}

	if os.Getenv("EMACS") == "t" {
		args = append(args, "--emacs")
	}

	return args
}

// GetCommand returns the command word (e.g. "build") following the
// consumed startup flags.
func (p *Processor) GetCommand() string { return p.command }

// GetCommandArguments returns the command's own arguments, after the
// command word.
func (p *Processor) GetCommandArguments() []string {
	return append([]string(nil), p.commandArgs...)
}

// GetParsedStartupOptions returns the fully layered startup options.
func (p *Processor) GetParsedStartupOptions() *StartupOptions { return p.startupOptions }

// InvocationID returns the invocation identity minted at the start of
// ProcessOptions.
func (p *Processor) InvocationID() uuid.UUID { return p.invocationID }

// StartupArgsConsumed returns the count of argv[1:] elements consumed
// as startup flags before the command word was found.
func (p *Processor) StartupArgsConsumed() int { return p.startupArgsN }
