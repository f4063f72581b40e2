package pmrs

import "github.com/synduce/synduce/internal/term"

// IsMR reports whether t is maximally reducible under p: t reduces, within
// limit steps, to a normal form containing no application of any of p's
// non-terminals (spec.md §4.1: "a term is maximally reducible under p iff
// every recursive subterm reduces to a value not containing applications
// of p").
func IsMR(p *PMRS, t *term.Term, limit int) (bool, *term.Term) {
	reduced, complete := Reduce(p, t, limit)
	if !complete {
		return false, reduced
	}

	for _, nt := range p.NTs {
		if term.ContainsApp(reduced, nt.Name) {
			return false, reduced
		}
	}

	return true, reduced
}

// IsMRAll holds when every term in ts is MR under p.
func IsMRAll(p *PMRS, ts []*term.Term, limit int) bool {
	for _, t := range ts {
		if ok, _ := IsMR(p, t, limit); !ok {
			return false
		}
	}

	return true
}
