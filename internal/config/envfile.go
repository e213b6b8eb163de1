package config

import (
	"bufio"
	"os"
	"strings"
	"unicode"
)

// ReadEnvFile reads KEY=VALUE lines. Blank lines and lines starting with '#'
// are skipped, an optional "export " prefix is dropped, and values may be
// wrapped in single or double quotes.
func ReadEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = unquote(strings.TrimSpace(value))
	}
	return out, sc.Err()
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// SplitCommand splits a shell-like command string into argv. It handles
// single quotes, double quotes and backslash escapes outside single quotes.
func SplitCommand(s string) []string {
	var out []string
	var cur []rune
	inSingle, inDouble, escaped := false, false, false
	quoted := false

	flush := func() {
		if len(cur) == 0 && !quoted {
			return
		}
		out = append(out, string(cur))
		cur = cur[:0]
		quoted = false
	}

	for _, r := range s {
		switch {
		case escaped:
			cur = append(cur, r)
			escaped = false
		case r == '\\' && !inSingle:
			escaped = true
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			quoted = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			quoted = true
		case !inSingle && !inDouble && unicode.IsSpace(r):
			flush()
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return out
}
