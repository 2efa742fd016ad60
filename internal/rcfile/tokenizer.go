// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package rcfile

import "strings"

// joinContinuations collapses a file's raw lines, joining any line
// ending in a backslash with the line that follows it. A trailing
// backslash on the file's last line has nothing left to join with; it
// is kept as a literal backslash rather than rejected.
//
// CRLF line endings are normalized to LF first, so a line such as
// "build --foo=1\r\n" doesn't carry a stray '\r' into the option text,
// and a continuation backslash immediately followed by "\r\n" is still
// recognized as a continuation.
func joinContinuations(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	rawLines := strings.Split(content, "\n")

	var joined []string
	var buf strings.Builder
	for i, line := range rawLines {
		if i < len(rawLines)-1 && strings.HasSuffix(line, `\`) {
			buf.WriteString(strings.TrimSuffix(line, `\`))
			continue
		}
		buf.WriteString(line)
		joined = append(joined, buf.String())
		buf.Reset()
	}
	if buf.Len() > 0 {
		joined = append(joined, buf.String())
	}
	return joined
}

// tokenize splits a single (already continuation-joined) line into
// whitespace-separated words, honoring '#' comments, single/double
// quote grouping, and '\' escapes.
//
// A dangling backslash at end of line, or a quote left unterminated at
// end of line, is accepted silently rather than rejected: this
// function is bug-compatible with the tokenizer it was ported from,
// which carries the same behavior under a deliberate TODO.
func tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inToken := false
	var quote rune

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		c := runes[i]

		if quote == 0 && c == '#' {
			break
		}

		if c == '\\' {
			if i+1 < len(runes) {
				i++
				cur.WriteRune(runes[i])
				inToken = true
			}
			// Dangling backslash: silently dropped.
			continue
		}

		if quote != 0 {
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
			inToken = true
		case ' ', '\t':
			if inToken {
				tokens = append(tokens, cur.String())
				cur.Reset()
				inToken = false
			}
		default:
			cur.WriteRune(c)
			inToken = true
		}
	}

	if inToken {
		tokens = append(tokens, cur.String())
	}
	return tokens
}
