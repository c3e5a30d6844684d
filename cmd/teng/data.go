package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aledsdavies/teng/core/value"
)

// loadDataRoot parses a JSON object file into a value.Fragment tree feeding
// Render's data root. The object at the root and every nested object
// become a Fragment; a JSON array of objects becomes a FragmentList;
// scalars map onto the matching Value kind. This is ordinary CLI input
// parsing, not the template language's own json()/repr() builtin, so
// stdlib encoding/json is the right tool — core/value's hand-rolled writer
// exists only for the byte-exact escaping its own JSON output requires,
// not for reading arbitrary host JSON in.
func loadDataRoot(path string) (*value.Fragment, error) {
	if path == "" {
		return value.NewFragment(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parsing data file as a JSON object: %w", err)
	}
	root := value.NewFragment()
	populateFragment(root, obj)
	return root, nil
}

func populateFragment(f *value.Fragment, obj map[string]any) {
	for name, v := range obj {
		f.Set(name, toFragmentValue(v))
	}
}

func toFragmentValue(v any) *value.FragmentValue {
	switch t := v.(type) {
	case string:
		return value.NewStringValue(t)
	case float64:
		if t == float64(int64(t)) {
			return value.NewIntValue(int64(t))
		}
		return value.NewRealValue(t)
	case bool:
		if t {
			return value.NewIntValue(1)
		}
		return value.NewIntValue(0)
	case nil:
		return value.NewStringValue("")
	case map[string]any:
		nested := value.NewFragment()
		populateFragment(nested, t)
		return value.NewFragmentValue(nested)
	case []any:
		list := value.NewFragmentList()
		for _, item := range t {
			nested := value.NewFragment()
			if m, ok := item.(map[string]any); ok {
				populateFragment(nested, m)
			} else {
				nested.Set("_value", toFragmentValue(item))
			}
			list.Append(nested)
		}
		return value.NewListValue(list)
	default:
		return value.NewStringValue(fmt.Sprint(t))
	}
}
