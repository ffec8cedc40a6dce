package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// Prefix marks query terms that filter resources instead of datasets.
const Prefix = "resource_"

// Attribute is a resource field a predicate can test.
type Attribute string

// Known CKAN resource attributes.
const (
	AttrID            Attribute = "id"
	AttrName          Attribute = "name"
	AttrFormat        Attribute = "format"
	AttrURL           Attribute = "url"
	AttrDescription   Attribute = "description"
	AttrMimetype      Attribute = "mimetype"
	AttrMimetypeInner Attribute = "mimetype_inner"
	AttrResourceType  Attribute = "resource_type"
	AttrState         Attribute = "state"
	AttrPackageID     Attribute = "package_id"
	AttrURLType       Attribute = "url_type"
	AttrPosition      Attribute = "position"
)

var knownAttributes = map[Attribute]struct{}{
	AttrID: {}, AttrName: {}, AttrFormat: {}, AttrURL: {},
	AttrDescription: {}, AttrMimetype: {}, AttrMimetypeInner: {},
	AttrResourceType: {}, AttrState: {}, AttrPackageID: {},
	AttrURLType: {}, AttrPosition: {},
}

// ParseAttribute validates an attribute name against the resource schema.
func ParseAttribute(s string) (Attribute, error) {
	a := Attribute(s)
	if _, ok := knownAttributes[a]; !ok {
		return "", fmt.Errorf("%w: unknown resource attribute %q", domain.ErrInvalidQuerySpec, s)
	}
	return a, nil
}

// Predicate requires one resource attribute to equal a value.
type Predicate struct {
	attr  Attribute
	value string
}

// NewPredicate validates and creates a predicate.
func NewPredicate(attr, value string) (Predicate, error) {
	a, err := ParseAttribute(attr)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{attr: a, value: value}, nil
}

// ParseTerm builds a predicate from a "resource_<attr>" key.
func ParseTerm(key, value string) (Predicate, error) {
	attr, ok := strings.CutPrefix(key, Prefix)
	if !ok {
		return Predicate{}, fmt.Errorf("%w: %q is not a resource filter", domain.ErrInvalidQuerySpec, key)
	}
	return NewPredicate(attr, value)
}

// Match reports whether the resource carries the attribute with the expected value.
func (p Predicate) Match(r domain.ResourceRecord) bool {
	v, ok := r.Attr(string(p.attr))
	return ok && v == p.value
}

// String renders the predicate as its query term.
func (p Predicate) String() string {
	return Prefix + string(p.attr) + ":" + p.value
}

// Set is a conjunction of predicates. The zero Set admits every resource.
type Set struct {
	preds []Predicate
}

// New creates a predicate set.
func New(preds ...Predicate) Set {
	return Set{preds: append([]Predicate(nil), preds...)}
}

// IsEmpty reports whether the set has no predicates.
func (s Set) IsEmpty() bool { return len(s.preds) == 0 }

// Match reports whether the resource satisfies every predicate.
func (s Set) Match(r domain.ResourceRecord) bool {
	for _, p := range s.preds {
		if !p.Match(r) {
			return false
		}
	}
	return true
}

// Select returns the matching resources in input order.
func (s Set) Select(resources []domain.ResourceRecord) []domain.ResourceRecord {
	if s.IsEmpty() {
		return append([]domain.ResourceRecord(nil), resources...)
	}
	var out []domain.ResourceRecord
	for _, r := range resources {
		if s.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// String renders the set as comma-separated query terms.
func (s Set) String() string {
	parts := make([]string, len(s.preds))
	for i, p := range s.preds {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
