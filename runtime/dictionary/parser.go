package dictionary

import (
	"fmt"
	"strings"

	"github.com/aledsdavies/teng/runtime/fs"
)

// ErrIncludeCycle is returned when a "%include" chain revisits a path
// already being loaded. The original C++ implementation bounds recursion
// by depth only; tracking visited paths catches a cycle before it burns
// through that budget.
type ErrIncludeCycle struct{ Path string }

func (e *ErrIncludeCycle) Error() string {
	return fmt.Sprintf("dictionary: include cycle at %q", e.Path)
}

// loader carries the state shared across one Load call's %include chain.
type loader struct {
	reader  fs.Reader
	visited map[string]bool
}

// Load reads path via reader and parses it into a fresh Dictionary,
// following every "%include" directive it encounters.
func Load(reader fs.Reader, path string) (*Dictionary, error) {
	d := New()
	l := &loader{reader: reader, visited: map[string]bool{}}
	if err := l.loadInto(d, path); err != nil {
		return nil, err
	}
	if d.Expand {
		expandAll(d)
	}
	return d, nil
}

// LoadString parses text directly into a fresh Dictionary, with no
// filesystem access: used for inline-string-sourced dictionaries, the same
// inline form templates support, extended to dictionaries. A "%include"
// directive inside text still resolves against reader, since an inline
// dictionary body may still pull in file-backed fragments.
func LoadString(reader fs.Reader, text string) (*Dictionary, error) {
	d := New()
	l := &loader{reader: reader, visited: map[string]bool{}}
	if err := l.parse(d, text); err != nil {
		return nil, err
	}
	if d.Expand {
		expandAll(d)
	}
	return d, nil
}

func (l *loader) loadInto(d *Dictionary, path string) error {
	if l.visited[path] {
		return &ErrIncludeCycle{Path: path}
	}
	l.visited[path] = true
	defer delete(l.visited, path)

	body, err := l.reader.Read(path)
	if err != nil {
		return fmt.Errorf("dictionary: reading %q: %w", path, err)
	}
	if st, statErr := l.reader.Stat(path); statErr == nil {
		d.Sources.Add(path, st)
	}
	return l.parse(d, string(body))
}

// parse implements the dictionary line format: "#" comments, "%" directives
// at column zero, "NAME VALUE" pairs, and indented continuation lines.
func (l *loader) parse(d *Dictionary, text string) error {
	lines := strings.Split(text, "\n")
	var curName string
	var curValue strings.Builder
	haveCur := false

	flush := func() {
		if haveCur {
			d.Set(curName, curValue.String())
			haveCur = false
			curValue.Reset()
		}
	}

	for _, raw := range lines {
		if raw == "" {
			continue
		}
		if raw[0] == '#' {
			continue
		}
		if raw[0] == ' ' || raw[0] == '\t' {
			if haveCur {
				curValue.WriteByte('\n')
				curValue.WriteString(strings.TrimLeft(raw, " \t"))
			}
			continue
		}
		flush()

		if raw[0] == '%' {
			if err := l.directive(d, raw[1:]); err != nil {
				return err
			}
			continue
		}

		name, value, ok := splitEntry(raw)
		if !ok {
			continue
		}
		curName = name
		curValue.WriteString(value)
		haveCur = true
	}
	flush()
	return nil
}

// splitEntry parses one "NAME VALUE" line, unquoting VALUE if it is
// double-quoted.
func splitEntry(line string) (name, value string, ok bool) {
	i := 0
	for i < len(line) && line[i] != ' ' && line[i] != '\t' {
		i++
	}
	if i == 0 {
		return "", "", false
	}
	name = line[:i]
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	value = line[i:]
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = unquote(value[1 : len(value)-1])
	}
	return name, value, true
}

func unquote(s string) string {
	var buf []byte
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				buf = append(buf, '\n')
			case 't':
				buf = append(buf, '\t')
			default:
				buf = append(buf, s[i])
			}
			continue
		}
		buf = append(buf, s[i])
	}
	return string(buf)
}

func (l *loader) directive(d *Dictionary, rest string) error {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "include":
		if len(fields) < 2 {
			return fmt.Errorf("dictionary: %%include requires a path")
		}
		return l.loadInto(d, fields[1])
	case "expand":
		d.Expand = len(fields) > 1 && isYes(fields[1])
	case "replace":
		d.Replace = len(fields) > 1 && isYes(fields[1])
	}
	return nil
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "on" || s == "true" || s == "1"
}

// expandAll interpolates "#{KEY}" references in every value against the
// dictionary's own entries, applying "%expand yes". A bounded number of
// passes lets one expansion reveal another nested reference without
// looping forever on a cyclic reference.
func expandAll(d *Dictionary) {
	const maxPasses = 8
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, name := range d.order {
			v := d.entries[name]
			nv := expandOnce(d, v)
			if nv != v {
				d.entries[name] = nv
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func expandOnce(d *Dictionary, s string) string {
	var buf strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '#' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end >= 0 {
				key := s[i+2 : i+2+end]
				if v, ok := d.Get(key); ok {
					buf.WriteString(v)
				}
				i = i + 2 + end + 1
				continue
			}
		}
		buf.WriteByte(s[i])
		i++
	}
	return buf.String()
}
