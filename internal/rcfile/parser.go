// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package rcfile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/forgebuild/forge/lib/forgeerr"
)

// RcOption is one option word contributed by a single rc-file line,
// tagged with the index of the rc-file it came from (in discovery /
// import order) so diagnostics can name the originating file.
type RcOption struct {
	RcfileIndex int
	OptionText  string
}

// RcOptionMap accumulates RcOptions per command, preserving the order
// in which each command's options were encountered across a file and
// its imports.
type RcOptionMap struct {
	commandOrder []string
	options      map[string][]RcOption
}

// NewOptionMap constructs an empty RcOptionMap, for callers that need
// to fold several files into one map via ParseInto.
func NewOptionMap() *RcOptionMap {
	return &RcOptionMap{options: make(map[string][]RcOption)}
}

func (m *RcOptionMap) add(command, optionText string, rcfileIndex int) {
	if _, seen := m.options[command]; !seen {
		m.commandOrder = append(m.commandOrder, command)
	}
	m.options[command] = append(m.options[command], RcOption{RcfileIndex: rcfileIndex, OptionText: optionText})
}

// Get returns the options recorded for command, in encounter order.
func (m *RcOptionMap) Get(command string) []RcOption {
	return m.options[command]
}

// Commands returns every command name that had at least one option,
// in first-seen order.
func (m *RcOptionMap) Commands() []string {
	return append([]string(nil), m.commandOrder...)
}

// Parser walks one rc-file and its import tree, building an
// RcOptionMap and a discovery-ordered list of the files it read.
type Parser struct {
	logger  *slog.Logger
	rcFiles []string
}

// NewParser constructs a Parser. logger receives the "Reading
// 'startup' options" notice for every file that declares startup
// options.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// RcFiles returns every file read so far, in discovery order; index i
// is the rcfile_index carried by RcOptions read from that file.
func (p *Parser) RcFiles() []string {
	return append([]string(nil), p.rcFiles...)
}

// Parse reads path and every file it transitively imports, returning
// the combined option map.
func (p *Parser) Parse(path string) (*RcOptionMap, error) {
	m := NewOptionMap()
	if err := p.ParseInto(path, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseInto reads path and every file it transitively imports into an
// existing option map, continuing the parser's rcfile_index sequence.
// Use this to fold several independently discovered rc-files (depot,
// user) into one map while keeping a single discovery-ordered
// rcfile_index space across all of them.
func (p *Parser) ParseInto(path string, m *RcOptionMap) error {
	return p.parseFile(path, m, nil)
}

func (p *Parser) parseFile(path string, m *RcOptionMap, importStack []string) error {
	for _, seen := range importStack {
		if seen == path {
			chain := append(append([]string(nil), importStack...), path)
			return forgeerr.UserConfigError("Import loop detected:\n%s", strings.Join(chain, "\n"))
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return forgeerr.UserConfigError("cannot read rc-file %s: %v", path, err)
	}

	index := len(p.rcFiles)
	p.rcFiles = append(p.rcFiles, path)

	var startupBuffer []string
	for _, line := range joinContinuations(string(content)) {
		tokens := tokenize(line)
		if len(tokens) == 0 {
			continue
		}
		command, args := tokens[0], tokens[1:]

		if command == "import" {
			if len(args) != 1 {
				return forgeerr.UserConfigError("Invalid import declaration in %s: expected exactly one file argument, got %d", path, len(args))
			}
			importPath := resolveImportPath(path, args[0])
			if err := p.parseFile(importPath, m, append(importStack, path)); err != nil {
				return err
			}
			continue
		}

		for _, arg := range args {
			m.add(command, arg, index)
			if command == "startup" {
				startupBuffer = append(startupBuffer, arg)
			}
		}
	}

	if len(startupBuffer) > 0 {
		p.logger.Info(fmt.Sprintf("Reading 'startup' options from %s: %s", path, strings.Join(startupBuffer, " ")))
	}
	return nil
}

// resolveImportPath resolves an import directive's argument relative
// to the directory of the file that declared it, unless it is already
// absolute.
func resolveImportPath(fromFile, importArg string) string {
	if filepath.IsAbs(importArg) {
		return importArg
	}
	return filepath.Join(filepath.Dir(fromFile), importArg)
}
