package escape

import "github.com/lithammer/fuzzysearch/fuzzy"

// Registry holds every registered ContentType, keyed by name and alias.
// It is built once at engine startup and treated as immutable thereafter,
// so concurrent readers need no synchronization.
type Registry struct {
	byName map[string]*ContentType
	names  []string // every registered name/alias, for Lookup's suggestion
}

// DefaultName is the fallback content type for unknown names.
const DefaultName = "text/plain"

// NewDefaultRegistry builds the registry with every content type the
// external contract lists.
func NewDefaultRegistry() *Registry {
	r := &Registry{byName: map[string]*ContentType{}}

	html := Table{'&': "&amp;", '<': "&lt;", '>': "&gt;", '"': "&quot;"}
	r.register(&ContentType{Name: "text/html", Aliases: []string{"html"}, Escape: html})
	r.register(&ContentType{Name: "text/xhtml", Aliases: []string{"xhtml"}, Escape: html})
	r.register(&ContentType{Name: "text/xml", Aliases: []string{"xml"}, Escape: html})

	r.register(&ContentType{
		Name:    "application/x-sh",
		Aliases: []string{"x-sh"},
		Escape:  Table{'"': "\\\"", '\\': "\\\\", '$': "\\$", '`': "\\`"},
	})

	r.register(&ContentType{
		Name:        "text/csrc",
		Aliases:     []string{"csrc"},
		LineComment: "//",
		BlockComment: [2]string{"/*", "*/"},
		Escape: Table{
			'\\': "\\\\", '"': "\\\"", '\n': "\\n", '\t': "\\t", '\r': "\\r",
		},
	})

	r.register(&ContentType{
		Name:   "quoted-string",
		Escape: Table{'\\': "\\\\", '"': "\\\"", '\n': "\\n", '\t': "\\t"},
	})

	jsEscape := Table{
		'\\': "\\\\", '\'': "\\'", '"': "\\\"",
		'\n': "\\n", '\r': "\\r", '<': "\\x3C",
	}
	r.register(&ContentType{Name: "application/x-javascript", Aliases: []string{"js"}, Escape: jsEscape})
	r.register(&ContentType{Name: "jshtml", Escape: jsEscape})

	r.register(&ContentType{
		Name:    "application/json",
		Aliases: []string{"json"},
		Escape: Table{
			'\\': "\\\\", '"': "\\\"", '\n': "\\n", '\r': "\\r", '\t': "\\t",
		},
	})

	r.register(&ContentType{Name: DefaultName, Aliases: []string{"text"}, Escape: nil})

	return r
}

// register compiles ct's unescaper and indexes it by name and every alias.
func (r *Registry) register(ct *ContentType) {
	ct.unescaper = buildUnescaper(ct.Escape)
	r.byName[ct.Name] = ct
	r.names = append(r.names, ct.Name)
	for _, a := range ct.Aliases {
		r.byName[a] = ct
		r.names = append(r.names, a)
	}
}

// Lookup resolves name to its ContentType. Unknown names produce an error
// and fall back to the default text/plain type; the error carries a
// closest-match suggestion among every registered name/alias.
func (r *Registry) Lookup(name string) (*ContentType, error) {
	if ct, ok := r.byName[name]; ok {
		return ct, nil
	}
	return r.byName[DefaultName], &ErrUnknownContentType{Name: name, Suggestion: closestName(name, r.names)}
}

// closestName finds the nearest registered name/alias to name, grounded on
// the teacher's own findClosestMatch (runtime/planner/planner.go). When no
// candidate contains name's letters in order (a transposition such as
// "hmtl"), it falls back to the candidate with the smallest Levenshtein
// distance, the earliest registered one winning a tie.
func closestName(name string, candidates []string) string {
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		best, bestDist := "", -1
		for _, c := range candidates {
			if d := fuzzy.LevenshteinDistance(name, c); bestDist < 0 || d < bestDist {
				best, bestDist = c, d
			}
		}
		return best
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}
