package engine

import (
	"encoding/binary"
	"hash/fnv"
	"io"

	"github.com/aledsdavies/teng/core/source"
	"github.com/aledsdavies/teng/core/value"
	"github.com/aledsdavies/teng/runtime/bytecode"
	"github.com/aledsdavies/teng/runtime/dictionary"
	"github.com/aledsdavies/teng/runtime/errlog"
	"github.com/aledsdavies/teng/runtime/escape"
	"github.com/aledsdavies/teng/runtime/format"
	"github.com/aledsdavies/teng/runtime/frame"
	"github.com/aledsdavies/teng/runtime/interp"
	"github.com/aledsdavies/teng/runtime/parser"
)

// Default cache keys for a render that supplies no dictionary or
// configuration source (engine.Default): every such render shares one
// cached empty Dictionary / default Config rather than rebuilding on
// every call.
const (
	defaultConfigKey = "\x00default-config"
	defaultDictKey   = "\x00default-dictionary"
)

// combineSerial folds a dictionary's and a configuration's serials into
// the single dependency_serial a cached Program's entry carries. Programs
// record the combined config+dict serial so either source going stale
// invalidates the compiled program; order-sensitive inputs are mixed
// through fnv64a rather than e.g. XORed, so swapping which serial bumped
// still produces a different combined value.
func combineSerial(dictSerial, cfgSerial uint64) uint64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], dictSerial)
	binary.BigEndian.PutUint64(buf[8:], cfgSerial)
	h := fnv.New64a()
	_, _ = h.Write(buf[:])
	return h.Sum64()
}

func (e *Engine) resolveConfig(src Source) (*dictionary.Config, func(), uint64, error) {
	key := defaultConfigKey
	if !src.isDefault() {
		key = src.key()
	}
	h, err := e.Caches.Configs.GetOrBuild(key, nil, e.Reader, true, func() (*dictionary.Config, uint64, error) {
		switch {
		case src.isDefault():
			return dictionary.NewConfig(), 0, nil
		case src.kind == sourceInline:
			c, err := dictionary.LoadConfigString(e.Reader, src.text)
			return c, 0, err
		default:
			c, err := dictionary.LoadConfig(e.Reader, src.text)
			return c, 0, err
		}
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return h.Value(), h.Release, h.Serial(), nil
}

func (e *Engine) resolveDictionary(src Source, cfgSerial uint64, staleCheck bool) (*dictionary.Dictionary, func(), uint64, error) {
	key := defaultDictKey
	if !src.isDefault() {
		key = src.key()
	}
	dep := cfgSerial
	h, err := e.Caches.Dictionaries.GetOrBuild(key, &dep, e.Reader, staleCheck, func() (*dictionary.Dictionary, uint64, error) {
		switch {
		case src.isDefault():
			return dictionary.New(), cfgSerial, nil
		case src.kind == sourceInline:
			d, err := dictionary.LoadString(e.Reader, src.text)
			return d, cfgSerial, err
		default:
			d, err := dictionary.Load(e.Reader, src.text)
			return d, cfgSerial, err
		}
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return h.Value(), h.Release, h.Serial(), nil
}

func (e *Engine) resolveProgram(src Source, dict *dictionary.Dictionary, cfg *dictionary.Config, log *errlog.Log, depSerial uint64, staleCheck bool) (*bytecode.Program, func(), error) {
	key := src.key() // templates have no "default" source; Render requires one
	dep := depSerial
	h, err := e.Caches.Programs.GetOrBuild(key, &dep, e.Reader, staleCheck, func() (*bytecode.Program, uint64, error) {
		c := parser.NewCompiler(e.Reader, dict, cfg, e.CTReg, e.Builtins, log)
		var (
			prog *bytecode.Program
			cErr error
		)
		if src.kind == sourceInline {
			prog, cErr = c.CompileString("<inline>", src.text)
		} else {
			prog, cErr = c.CompileFile(src.text)
		}
		return prog, depSerial, cErr
	})
	if err != nil {
		return nil, nil, err
	}
	return h.Value(), h.Release, nil
}

// Render implements the engine's rendering API: compile (or fetch from
// cache) template against dict and cfg, then evaluate the program against
// dataRoot, writing escaped/formatted output to w and diagnostics to log.
// It returns true iff no FATAL entry was appended to log — a recoverable
// error never aborts rendering, so output up to and including the point of
// a fatal one is still flushed and kept.
func (e *Engine) Render(template, dict, cfg Source, contentType, encoding string, dataRoot *value.Fragment, w io.Writer, log *errlog.Log) (bool, error) {
	if dataRoot == nil {
		dataRoot = value.NewFragment()
	}

	cfgVal, cfgRelease, cfgSerial, err := e.resolveConfig(cfg)
	if err != nil {
		return false, err
	}
	defer cfgRelease()

	staleCheck := cfgVal.Enabled(dictionary.FlagWatchFiles)

	dictVal, dictRelease, dictSerial, err := e.resolveDictionary(dict, cfgSerial, staleCheck)
	if err != nil {
		return false, err
	}
	defer dictRelease()

	progDep := combineSerial(dictSerial, cfgSerial)
	prog, progRelease, err := e.resolveProgram(template, dictVal, cfgVal, log, progDep, staleCheck)
	if err != nil {
		return false, err
	}
	defer progRelease()

	ct, ctErr := e.CTReg.Lookup(contentType)
	if ctErr != nil {
		log.Append(errlog.Warning, source.Position{}, ctErr.Error())
	}

	fr := frame.New(dataRoot)
	escStack := escape.NewStack(ct)
	fmtr := format.New(w)

	m := interp.New(fr, escStack, fmtr, dictVal, cfgVal, e.CTReg, e.Builtins, log, encoding)
	if err := m.Run(prog); err != nil {
		return false, err
	}

	return log.MaxLevel() != errlog.Fatal, nil
}
