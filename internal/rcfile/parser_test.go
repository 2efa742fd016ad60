// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package rcfile

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgebuild/forge/lib/forgeerr"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
	return path
}

func TestTokenizeQuotesAndComments(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{`build --foo=1 --bar=2`, []string{"build", "--foo=1", "--bar=2"}},
		{`build --foo=1 # a trailing comment`, []string{"build", "--foo=1"}},
		{`build "--foo=has space"`, []string{"build", "--foo=has space"}},
		{`build --foo=\ escaped`, []string{"build", "--foo= escaped"}},
	}
	for _, c := range cases {
		if got := tokenize(c.line); !equalSlices(got, c.want) {
			t.Errorf("tokenize(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

// Bug-compatible: a dangling backslash or an unterminated quote does
// not produce an error, it is silently accepted.
func TestTokenizeDanglingEscapesAccepted(t *testing.T) {
	if got := tokenize(`build --foo=bar\`); !equalSlices(got, []string{"build", "--foo=bar"}) {
		t.Errorf("dangling backslash: got %v", got)
	}
	if got := tokenize(`build "unterminated`); !equalSlices(got, []string{"build", "unterminated"}) {
		t.Errorf("unterminated quote: got %v", got)
	}
}

func TestJoinContinuations(t *testing.T) {
	got := joinContinuations("build --foo=1 \\\n  --bar=2\nquery --baz=3")
	want := []string{"build --foo=1   --bar=2", "query --baz=3"}
	if !equalSlices(got, want) {
		t.Errorf("joinContinuations = %v, want %v", got, want)
	}
}

func TestJoinContinuationsCRLF(t *testing.T) {
	got := joinContinuations("build --foo=1 \\\r\n  --bar=2\r\nquery --baz=3\r\n")
	want := []string{"build --foo=1   --bar=2", "query --baz=3", ""}
	if !equalSlices(got, want) {
		t.Errorf("joinContinuations(CRLF) = %v, want %v", got, want)
	}
}

func TestParseCRLFLineEndings(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.blazerc", "build --foo=1\r\nstartup --max_idle_secs=10\r\n")

	parser := NewParser(slog.Default())
	options, err := parser.Parse(root)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	build := options.Get("build")
	if len(build) != 1 || build[0].OptionText != "--foo=1" {
		t.Errorf("build options = %v, want a single --foo=1 entry with no stray carriage return", build)
	}

	startup := options.Get("startup")
	if len(startup) != 1 || startup[0].OptionText != "--max_idle_secs=10" {
		t.Errorf("startup options = %v, want a single --max_idle_secs=10 entry", startup)
	}
}

func TestParseBasicCommandsAndImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "imported.blazerc", "build --imported_flag=1\n")
	root := writeFile(t, dir, "root.blazerc", "build --foo=1 --bar=2\nimport imported.blazerc\nstartup --max_idle_secs=10\n")

	parser := NewParser(slog.Default())
	options, err := parser.Parse(root)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	build := options.Get("build")
	if len(build) != 3 {
		t.Fatalf("build options = %v, want 3 entries", build)
	}
	if build[2].OptionText != "--imported_flag=1" {
		t.Errorf("imported option = %q, want --imported_flag=1", build[2].OptionText)
	}
	if build[2].RcfileIndex != 1 {
		t.Errorf("imported option rcfile index = %d, want 1", build[2].RcfileIndex)
	}

	startup := options.Get("startup")
	if len(startup) != 1 || startup[0].OptionText != "--max_idle_secs=10" {
		t.Errorf("startup options = %v", startup)
	}

	if got := parser.RcFiles(); len(got) != 2 {
		t.Errorf("RcFiles() = %v, want 2 entries", got)
	}
}

func TestImportRequiresExactlyOneArgument(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.blazerc", "import\n")

	_, err := NewParser(slog.Default()).Parse(root)
	if err == nil {
		t.Fatal("Parse should fail on a zero-argument import")
	}
	var forgeErr *forgeerr.Error
	if !errors.As(err, &forgeErr) || forgeErr.Category != forgeerr.CategoryUserConfig {
		t.Errorf("expected a UserConfigError, got %v", err)
	}
}

// S3 — import cycle.
func TestImportLoopDetected(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.blazerc")
	bPath := filepath.Join(dir, "b.blazerc")
	writeFile(t, dir, "a.blazerc", "import b.blazerc\n")
	writeFile(t, dir, "b.blazerc", "import a.blazerc\n")

	_, err := NewParser(slog.Default()).Parse(aPath)
	if err == nil {
		t.Fatal("Parse should fail on an import cycle")
	}

	var forgeErr *forgeerr.Error
	if !errors.As(err, &forgeErr) || forgeErr.Category != forgeerr.CategoryUserConfig {
		t.Fatalf("expected a UserConfigError (BAD_ARGV), got %v", err)
	}
	if code, ok := forgeErr.ExitCode(); !ok || code != forgeerr.ExitBadArgv {
		t.Errorf("ExitCode() = (%d, %v), want (%d, true)", code, ok, forgeerr.ExitBadArgv)
	}

	msg := err.Error()
	if !strings.Contains(msg, "Import loop detected") {
		t.Errorf("message %q should contain 'Import loop detected'", msg)
	}
	if !strings.Contains(msg, aPath) || !strings.Contains(msg, bPath) {
		t.Errorf("message %q should name both %s and %s", msg, aPath, bPath)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
