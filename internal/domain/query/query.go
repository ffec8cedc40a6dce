// Package query decodes the comma-separated "key:value" query spec passed on the command line.
//
// The ordered term list is canonical. Map is a last-value-wins view meant only for
// single-valued lookups such as the organization name; repeated keys (several
// resource filters, several catalog terms) must be read from Terms.
package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/catalog-query/internal/domain"
	"github.com/kailas-cloud/catalog-query/internal/domain/resource/filter"
)

// KeyOrganization names the organization by display name.
const KeyOrganization = "name"

// Term is one "key:value" pair of a query spec.
type Term struct {
	Key   string
	Value string
}

// String renders the term as "key:value".
func (t Term) String() string { return t.Key + ":" + t.Value }

// IsResourceFilter reports whether the term filters nested resources.
func (t Term) IsResourceFilter() bool { return strings.HasPrefix(t.Key, filter.Prefix) }

// Spec is a decoded, immutable query spec.
type Spec struct {
	terms []Term
	index map[string]string
}

// Decode splits raw on "," and each term on its first ":".
// An empty string decodes to an empty spec.
func Decode(raw string) (Spec, error) {
	s := Spec{index: map[string]string{}}
	if raw == "" {
		return s, nil
	}

	for i, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return Spec{}, fmt.Errorf("%w: term %d %q has no ':' separator", domain.ErrInvalidQuerySpec, i+1, part)
		}
		if key == "" {
			return Spec{}, fmt.Errorf("%w: term %d %q has an empty key", domain.ErrInvalidQuerySpec, i+1, part)
		}
		s.terms = append(s.terms, Term{Key: key, Value: value})
		s.index[key] = value
	}
	return s, nil
}

// Terms returns the terms in input order, repeats included.
func (s Spec) Terms() []Term {
	return append([]Term(nil), s.terms...)
}

// Map returns the last value of every key.
func (s Spec) Map() map[string]string {
	out := make(map[string]string, len(s.index))
	for k, v := range s.index {
		out[k] = v
	}
	return out
}

// Lookup returns the last value given for key.
func (s Spec) Lookup(key string) (string, bool) {
	v, ok := s.index[key]
	return v, ok
}

// Organization returns the organization display name, if any.
func (s Spec) Organization() (string, bool) {
	return s.Lookup(KeyOrganization)
}

// Require fails unless every key is present with a non-blank value.
func (s Spec) Require(keys ...string) error {
	if len(s.terms) == 0 && len(keys) > 0 {
		return fmt.Errorf("%w: query spec is empty, required: %s", domain.ErrInvalidQuerySpec, strings.Join(keys, ", "))
	}
	var missing, empty []string
	for _, k := range keys {
		v, ok := s.index[k]
		switch {
		case !ok:
			missing = append(missing, k)
		case strings.TrimSpace(v) == "":
			empty = append(empty, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required term(s): %s", domain.ErrInvalidQuerySpec, strings.Join(missing, ", "))
	}
	if len(empty) > 0 {
		return fmt.Errorf("%w: required term(s) have no value: %s", domain.ErrInvalidQuerySpec, strings.Join(empty, ", "))
	}
	return nil
}

// SearchTerms returns the "key:value" terms sent to the catalog: everything
// except the organization name and resource filters, in input order.
func (s Spec) SearchTerms() []string {
	var out []string
	for _, t := range s.terms {
		if t.Key == KeyOrganization || t.IsResourceFilter() {
			continue
		}
		out = append(out, t.String())
	}
	return out
}

// ResourcePredicates builds the resource filter from every resource_* term, repeats included.
func (s Spec) ResourcePredicates() (filter.Set, error) {
	var preds []filter.Predicate
	for _, t := range s.terms {
		if !t.IsResourceFilter() {
			continue
		}
		p, err := filter.ParseTerm(t.Key, t.Value)
		if err != nil {
			return filter.Set{}, err
		}
		preds = append(preds, p)
	}
	return filter.New(preds...), nil
}

// String re-joins the terms; Decode(s.String()) reproduces s.
func (s Spec) String() string {
	parts := make([]string, len(s.terms))
	for i, t := range s.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}
