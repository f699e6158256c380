// Package metadata parses SAIL's codec metadata files (spec §4.3, §6): a
// simple key=value, line-oriented grammar with a single (ignored) section
// name, semicolons and comments permitted. It is grounded on the teacher's
// config.Config struct-of-defaults style, generalized into a parser since
// the teacher never parses an external file format itself.
//
// No general-purpose INI/properties library appears anywhere in the
// retrieved pack (checked every go.mod under _examples/), and the grammar
// is narrower than INI — notably the "layout must be the first key"
// ordering invariant, which a generic key/value parser would not enforce
// for free. A small hand-written scanner is the idiomatic choice here,
// matching the teacher's own preference for plain structs over config
// frameworks.
package metadata

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/sail-img/sail/errors"
)

// MinLayout and MaxLayout bound the layout versions this parser
// understands (spec §4.3: "rejected if outside the range the
// implementation understands — currently {1, 2}").
const (
	MinLayout = 1
	MaxLayout = 2
)

// Parsed is the metadata file's raw, parsed fields (spec §4.3's five
// recognized keys). Feature descriptors are not part of this grammar —
// they come from the bound codec.Plugin once loaded (see registry.Build).
type Parsed struct {
	Layout      int
	Version     string
	Description string
	Extensions  []string // lowercase, no leading dot, source order
	MimeTypes   []string // lowercase, source order
}

// knownKeys are the only keys recognized at layout versions 1 and 2
// (spec §4.3). Any other key fails the parse.
var knownKeys = map[string]bool{
	"layout":      true,
	"version":     true,
	"description": true,
	"extensions":  true,
	"mime-types":  true,
}

// ParseFile opens path and parses it as a codec metadata file.
func ParseFile(path string) (*Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FileOpenError, "metadata.parsefile", err)
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		// The partially-built record is simply discarded (Go's GC makes
		// the "must be released" requirement in spec §4.3 automatic).
		return nil, err
	}
	return p, nil
}

// Parse reads a codec metadata file from r (spec §4.3, §6).
//
// Rules enforced:
//   - the first logical key (ignoring blank lines, comments, and the
//     optional bracketed section header) must be "layout";
//   - layout's value must be an integer in [MinLayout, MaxLayout];
//   - every other key must be one of knownKeys;
//   - extensions / mime-types values are semicolon-separated, each token
//     trimmed and lowercased, empty tokens from consecutive separators
//     skipped, order preserved.
func Parse(r io.Reader) (*Parsed, error) {
	scanner := bufio.NewScanner(r)
	out := &Parsed{}
	sawLayout := false
	sawAnyKey := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			// Section header; section name is ignored (spec §4.3).
			continue
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			return nil, parseErr(lineNo)
		}

		if !sawAnyKey {
			if key != "layout" {
				return nil, parseErr(lineNo)
			}
			sawAnyKey = true
		}

		switch key {
		case "layout":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, parseErr(lineNo)
			}
			if n < MinLayout || n > MaxLayout {
				return nil, apperrors.New(apperrors.UnsupportedPluginLayout, "metadata.parse", nil)
			}
			out.Layout = n
			sawLayout = true
		case "version":
			out.Version = value
		case "description":
			out.Description = value
		case "extensions":
			out.Extensions = splitSemicolonList(value)
		case "mime-types":
			out.MimeTypes = splitSemicolonList(value)
		default:
			return nil, parseErr(lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.FileParseError, "metadata.parse", err)
	}
	if !sawLayout {
		return nil, parseErr(lineNo)
	}
	return out, nil
}

func parseErr(lineNo int) error {
	return apperrors.New(apperrors.FileParseError, "metadata.parse",
		&lineError{line: lineNo})
}

type lineError struct{ line int }

func (e *lineError) Error() string {
	return "parse error at line " + strconv.Itoa(e.line)
}

// stripComment blanks a whole-line comment (a line whose first non-space
// character is ';' or '#'). A ';' or '#' later in the line is kept as part
// of the value — extensions/mime-types values use ';' as a list separator,
// not a comment marker — so trailing comments are not removed.
func stripComment(line string) string {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	return line
}

// splitKeyValue splits "key = value" / "key=value" on the first '='.
func splitKeyValue(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

// splitSemicolonList splits a semicolon-separated value per spec §4.3/§6:
// each token trimmed, lowercased, preserved in source order; consecutive
// separators yield (and discard) empty tokens rather than erroring
// (spec §4.7 edge cases).
func splitSemicolonList(value string) []string {
	parts := strings.Split(value, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
