// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package optionprocessor implements the boot-time pipeline that
// discovers and layers rc-files and command-line arguments into a
// StartupOptions value and a server-bound argument vector.
package optionprocessor

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forgebuild/forge/lib/installconfig"
)

// Extra lets an embedder add option flags beyond the fixed set below
// without subclassing StartupOptions. A nil Extra means no additional
// flags are recognized.
type Extra interface {
	// ProcessArg mirrors StartupOptions.ProcessArg's contract: return
	// (true, true) if arg was recognized and nextArg was consumed,
	// (true, false) if arg was recognized and nextArg was not consumed,
	// (false, false) if arg was not recognized at all.
	ProcessArg(arg, nextArg, rcfile string) (recognized, consumedNext bool)
}

// StartupOptions is the full set of boot-time settings a process is
// configured with before the server starts, plus a record of where
// each one came from.
type StartupOptions struct {
	OutputBase     string
	InstallBase    string
	OutputRoot     string
	OutputUserRoot string

	BlockForLock bool

	HostJVMDebug   bool
	HostJVMProfile string
	HostJavabase   string
	HostJVMArgs    []string

	Use64BitArchitecture bool

	Batch              bool
	BatchCPUScheduling bool
	IONiceLevel        int
	MaxIdleSecs        int

	SkyframeMode string

	AllowConfigurableAttributes bool
	FatalEventBusExceptions     bool

	// BlazercPath and NoMasterBlazerc mirror the --blazerc/
	// --nomaster_blazerc flags already resolved by the discovery scan
	// that runs before layering; they're recognized here too so the
	// layering loop consumes them like any other flag instead of
	// misreading their value as the command word.
	BlazercPath     string
	NoMasterBlazerc bool

	// OptionSources maps each option name that has been set to the
	// rcfile path it came from: nil means "not present" (never
	// explicitly recorded), empty string means "command line", any
	// other value names the rcfile.
	OptionSources map[string]*string

	// Extra recognizes flags beyond the fixed set above. May be nil.
	Extra Extra
}

func NewStartupOptions() *StartupOptions {
	return &StartupOptions{OptionSources: make(map[string]*string)}
}

// InitDefaults seeds OutputUserRoot and InstallBase from the static
// install-config file (or its built-in defaults when none is loaded),
// falls back to argv0's directory for an InstallBase the config leaves
// empty, and seeds an unset OutputBase from InstallBase.
func (s *StartupOptions) InitDefaults(argv0 string) {
	cfg, err := installconfig.Load()
	if err != nil {
		cfg = installconfig.Default()
	}

	s.OutputUserRoot = cfg.OutputUserRoot
	s.InstallBase = cfg.InstallBase
	if s.InstallBase == "" {
		s.InstallBase = filepath.Dir(argv0)
	}
	if s.OutputBase == "" {
		s.OutputBase = s.InstallBase
	}

	s.MaxIdleSecs = 10800
	s.Use64BitArchitecture = true
	s.SkyframeMode = "default"
}

func (s *StartupOptions) recordSource(name, rcfile string) {
	if rcfile == "" {
		s.OptionSources[name] = new(string)
		return
	}
	source := rcfile
	s.OptionSources[name] = &source
}

// ProcessArg recognizes one startup flag. rcfile is the file the
// option came from, or "" for a command-line argument. It returns
// whether nextArg was consumed as this flag's value.
func (s *StartupOptions) ProcessArg(arg, nextArg, rcfile string) bool {
	// A recognized unary flag consumes nextArg only in its two-token
	// form; the --flag=value form carries its own value.
	unaryConsumedNext := !strings.Contains(arg, "=")
	switch {
	case consumeUnary(arg, "--output_base", &s.OutputBase, nextArg):
		s.recordSource("output_base", rcfile)
		return unaryConsumedNext
	case consumeUnary(arg, "--install_base", &s.InstallBase, nextArg):
		s.recordSource("install_base", rcfile)
		return unaryConsumedNext
	case consumeUnary(arg, "--output_root", &s.OutputRoot, nextArg):
		s.recordSource("output_root", rcfile)
		return unaryConsumedNext
	case consumeUnary(arg, "--output_user_root", &s.OutputUserRoot, nextArg):
		s.recordSource("output_user_root", rcfile)
		return unaryConsumedNext
	case consumeUnary(arg, "--host_jvm_profile", &s.HostJVMProfile, nextArg):
		s.recordSource("host_jvm_profile", rcfile)
		return unaryConsumedNext
	case consumeUnary(arg, "--host_javabase", &s.HostJavabase, nextArg):
		s.recordSource("host_javabase", rcfile)
		return unaryConsumedNext
	case consumeUnary(arg, "--skyframe", &s.SkyframeMode, nextArg):
		s.recordSource("skyframe", rcfile)
		return unaryConsumedNext
	case consumeUnary(arg, "--blazerc", &s.BlazercPath, nextArg):
		s.recordSource("blazerc", rcfile)
		return unaryConsumedNext
	}

	if arg == "--nomaster_blazerc" {
		s.NoMasterBlazerc = true
		s.recordSource("nomaster_blazerc", rcfile)
		return false
	}

	if value, ok := stripPrefix(arg, "--host_jvm_args="); ok {
		s.HostJVMArgs = append(s.HostJVMArgs, value)
		s.recordSource("host_jvm_args", rcfile)
		return false
	}

	if consumedNext, ok := consumeIntFlag(arg, "--io_nice_level", &s.IONiceLevel, nextArg); ok {
		s.recordSource("io_nice_level", rcfile)
		return consumedNext
	}
	if consumedNext, ok := consumeIntFlag(arg, "--max_idle_secs", &s.MaxIdleSecs, nextArg); ok {
		s.recordSource("max_idle_secs", rcfile)
		return consumedNext
	}

	if consumeBool(arg, "block_for_lock", &s.BlockForLock, rcfile, s.recordSource) {
		return false
	}
	if consumeBool(arg, "host_jvm_debug", &s.HostJVMDebug, rcfile, s.recordSource) {
		return false
	}
	if consumeBool(arg, "use64bit", &s.Use64BitArchitecture, rcfile, s.recordSource) {
		return false
	}
	if consumeBool(arg, "batch", &s.Batch, rcfile, s.recordSource) {
		return false
	}
	if consumeBool(arg, "batch_cpu_scheduling", &s.BatchCPUScheduling, rcfile, s.recordSource) {
		return false
	}
	if consumeBool(arg, "allow_configurable_attributes", &s.AllowConfigurableAttributes, rcfile, s.recordSource) {
		return false
	}
	if consumeBool(arg, "fatal_event_bus_exceptions", &s.FatalEventBusExceptions, rcfile, s.recordSource) {
		return false
	}

	if s.Extra != nil {
		if recognized, consumedNext := s.Extra.ProcessArg(arg, nextArg, rcfile); recognized {
			return consumedNext
		}
	}

	return false
}

// IsArg reports whether arg looks like a flag rather than a
// positional value: it starts with "-" and is not one of the help
// spellings.
func IsArg(arg string) bool {
	if arg == "--help" || arg == "-help" || arg == "-h" {
		return false
	}
	return strings.HasPrefix(arg, "-")
}

// consumeUnary stores the value of flag into dest and reports whether
// arg is flag, in either its --flag=value or its two-token form.
func consumeUnary(arg, flag string, dest *string, nextArg string) bool {
	if value, ok := stripPrefix(arg, flag+"="); ok {
		*dest = value
		return true
	}
	if arg == flag {
		*dest = nextArg
		return true
	}
	return false
}

func consumeIntFlag(arg, flag string, dest *int, nextArg string) (consumedNext, matched bool) {
	if value, ok := stripPrefix(arg, flag+"="); ok {
		if n, err := strconv.Atoi(value); err == nil {
			*dest = n
		}
		return false, true
	}
	if arg == flag {
		if n, err := strconv.Atoi(nextArg); err == nil {
			*dest = n
		}
		return true, true
	}
	return false, false
}

// consumeBool recognizes --name, --noname, and --name=BOOL, the
// standard nullary boolean flag triad, for the given bare name.
func consumeBool(arg, name string, dest *bool, rcfile string, record func(name, rcfile string)) bool {
	switch {
	case arg == "--"+name:
		*dest = true
	case arg == "--no"+name:
		*dest = false
	default:
		if value, ok := stripPrefix(arg, "--"+name+"="); ok {
			*dest = value == "1" || value == "true" || value == "yes"
		} else {
			return false
		}
	}
	record(name, rcfile)
	return true
}

func stripPrefix(arg, prefix string) (string, bool) {
	if strings.HasPrefix(arg, prefix) {
		return arg[len(prefix):], true
	}
	return "", false
}
