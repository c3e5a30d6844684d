package dictionary

import (
	"strconv"
	"strings"

	"github.com/aledsdavies/teng/runtime/fs"
)

// Flag names a boolean configuration feature toggled by "%enable"/
// "%disable".
type Flag string

const (
	FlagDebug          Flag = "debug"
	FlagErrorFragment  Flag = "errorfragment"
	FlagLogToOutput    Flag = "logtooutput"
	FlagBytecode       Flag = "bytecode"
	FlagWatchFiles     Flag = "watchfiles"
	FlagFormat         Flag = "format"
	FlagAlwaysEscape   Flag = "alwaysescape"
	FlagPrintEscape    Flag = "printescape"
	FlagShortTag       Flag = "shorttag"
)

// defaultFlags carries the stated defaults: watchfiles, alwaysescape,
// format and printescape default on; every other flag defaults off.
var defaultFlags = map[Flag]bool{
	FlagWatchFiles:   true,
	FlagAlwaysEscape: true,
	FlagFormat:       true,
	FlagPrintEscape:  true,
}

// Default numeric directive values. maxdebugvallength has no canonically
// stated value beyond "a numeric default" — 256 is chosen here as a
// conservative default for the `<?teng debug ?>` dump truncation length;
// an Open Question decision recorded in DESIGN.md.
const (
	DefaultMaxIncludeDepth   = 10
	DefaultMaxDebugValLength = 256
)

// Config extends Dictionary with Teng's typed configuration directives:
// numeric settings and boolean feature flags, on top of the same
// line-oriented key/value format a plain dictionary uses.
type Config struct {
	*Dictionary

	MaxIncludeDepth   int
	MaxDebugValLength int
	flags             map[Flag]bool
}

// NewConfig creates a Config with the stated defaults.
func NewConfig() *Config {
	flags := make(map[Flag]bool, len(defaultFlags))
	for k, v := range defaultFlags {
		flags[k] = v
	}
	return &Config{
		Dictionary:        New(),
		MaxIncludeDepth:   DefaultMaxIncludeDepth,
		MaxDebugValLength: DefaultMaxDebugValLength,
		flags:             flags,
	}
}

// Enabled reports whether f is currently toggled on.
func (c *Config) Enabled(f Flag) bool { return c.flags[f] }

// LoadConfig reads path via reader into a fresh Config, applying every
// "%enable"/"%disable" and numeric directive on top of the plain
// dictionary format.
func LoadConfig(reader fs.Reader, path string) (*Config, error) {
	c := NewConfig()
	l := &configLoader{loader: loader{reader: reader, visited: map[string]bool{}}, cfg: c}
	if err := l.loadInto(c.Dictionary, path); err != nil {
		return nil, err
	}
	if c.Expand {
		expandAll(c.Dictionary)
	}
	return c, nil
}

// LoadConfigString parses text directly into a fresh Config, with no
// filesystem access for the top-level body: used for inline-string-sourced
// configurations, the same inline form templates support, extended to
// configurations. A "%include" inside text still resolves against reader.
func LoadConfigString(reader fs.Reader, text string) (*Config, error) {
	c := NewConfig()
	l := &configLoader{loader: loader{reader: reader, visited: map[string]bool{}}, cfg: c}
	if err := l.parse(c.Dictionary, text); err != nil {
		return nil, err
	}
	if c.Expand {
		expandAll(c.Dictionary)
	}
	return c, nil
}

// configLoader extends the plain dictionary loader with the extra
// directives a configuration file carries.
type configLoader struct {
	loader
	cfg *Config
}

func (l *configLoader) loadInto(d *Dictionary, path string) error {
	if l.visited[path] {
		return &ErrIncludeCycle{Path: path}
	}
	l.visited[path] = true
	defer delete(l.visited, path)

	body, err := l.reader.Read(path)
	if err != nil {
		return err
	}
	if st, statErr := l.reader.Stat(path); statErr == nil {
		d.Sources.Add(path, st)
	}
	return l.parse(d, string(body))
}

// parse is a line-compatible superset of loader.parse, additionally
// recognizing "%enable"/"%disable" and the numeric directives.
func (l *configLoader) parse(d *Dictionary, text string) error {
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
		if raw == "" || raw[0] == '#' {
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
			if err := l.configDirective(d, raw[1:]); err != nil {
				return err
			}
			continue
		}

		name, value, ok := splitEntry(raw)
		if !ok {
			continue
		}
		if l.numericDirective(name, value) {
			continue
		}
		curName = name
		curValue.WriteString(value)
		haveCur = true
	}
	flush()
	return nil
}

func (l *configLoader) numericDirective(name, value string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return false
	}
	switch strings.ToLower(name) {
	case "maxincludedepth":
		l.cfg.MaxIncludeDepth = n
		return true
	case "maxdebugvallength":
		l.cfg.MaxDebugValLength = n
		return true
	}
	return false
}

func (l *configLoader) configDirective(d *Dictionary, rest string) error {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "include":
		if len(fields) < 2 {
			return nil
		}
		return l.loadInto(d, fields[1])
	case "expand":
		d.Expand = len(fields) > 1 && isYes(fields[1])
	case "replace":
		d.Replace = len(fields) > 1 && isYes(fields[1])
	case "enable":
		if len(fields) > 1 {
			l.cfg.flags[Flag(strings.ToLower(fields[1]))] = true
		}
	case "disable":
		if len(fields) > 1 {
			l.cfg.flags[Flag(strings.ToLower(fields[1]))] = false
		}
	}
	return nil
}
