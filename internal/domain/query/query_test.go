package query

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

func TestDecode_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"name:AOOS",
		"name:NANOOS,resource_format:ERDDAP,resource_name:OPeNDAP",
		"res_format:OPeNDAP,res_format:WMS",
		"name:AOOS,name:NANOOS",
		"url:http://example.org:8080/thredds",
		"tags:",
	}
	for _, in := range inputs {
		s, err := Decode(in)
		if err != nil {
			t.Fatalf("Decode(%q): %v", in, err)
		}
		if got := s.String(); got != in {
			t.Errorf("round trip %q -> %q", in, got)
		}
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"no separator", "AOOS"},
		{"second term without separator", "name:AOOS,OPeNDAP"},
		{"empty key", ":AOOS"},
		{"trailing comma", "name:AOOS,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.in)
			if !errors.Is(err, domain.ErrInvalidQuerySpec) {
				t.Fatalf("err = %v, want ErrInvalidQuerySpec", err)
			}
		})
	}
}

func TestDecode_FirstColonSplits(t *testing.T) {
	s, err := Decode("url:http://host:8080/path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := s.Lookup("url")
	if !ok || v != "http://host:8080/path" {
		t.Errorf("url = %q, %v", v, ok)
	}
}

func TestMap_LastValueWins(t *testing.T) {
	s, err := Decode("name:AOOS,name:NANOOS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Map()["name"]; got != "NANOOS" {
		t.Errorf("map name = %q, want NANOOS", got)
	}
	if len(s.Terms()) != 2 {
		t.Errorf("terms = %v, want both kept", s.Terms())
	}
}

func TestRequire(t *testing.T) {
	empty, _ := Decode("")
	if err := empty.Require(KeyOrganization); !errors.Is(err, domain.ErrInvalidQuerySpec) {
		t.Errorf("empty spec: err = %v", err)
	}

	s, _ := Decode("resource_format:OPeNDAP")
	if err := s.Require(KeyOrganization); !errors.Is(err, domain.ErrInvalidQuerySpec) {
		t.Errorf("missing name: err = %v", err)
	}

	for _, raw := range []string{"name:,resource_format:OPeNDAP", "name:  "} {
		s, _ = Decode(raw)
		if err := s.Require(KeyOrganization); !errors.Is(err, domain.ErrInvalidQuerySpec) {
			t.Errorf("%q: blank name accepted, err = %v", raw, err)
		}
	}

	s, _ = Decode("name:AOOS")
	if err := s.Require(KeyOrganization); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := empty.Require(); err != nil {
		t.Errorf("no required keys: %v", err)
	}
}

func TestSearchTerms(t *testing.T) {
	s, err := Decode("name:AOOS,res_format:OPeNDAP,resource_format:ERDDAP,tags:ocean,res_format:WMS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := s.SearchTerms()
	want := []string{"res_format:OPeNDAP", "tags:ocean", "res_format:WMS"}
	if len(got) != len(want) {
		t.Fatalf("SearchTerms() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SearchTerms()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResourcePredicates_KeepsRepeats(t *testing.T) {
	s, err := Decode("name:NANOOS,resource_format:ERDDAP,resource_name:OPeNDAP,resource_format:ERDDAP")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set, err := s.ResourcePredicates()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "resource_format:ERDDAP, resource_name:OPeNDAP, resource_format:ERDDAP"
	if set.String() != want {
		t.Errorf("predicates = %s, want %s", set, want)
	}
}

func TestResourcePredicates_UnknownAttribute(t *testing.T) {
	s, _ := Decode("resource_colour:red")
	if _, err := s.ResourcePredicates(); !errors.Is(err, domain.ErrInvalidQuerySpec) {
		t.Errorf("err = %v, want ErrInvalidQuerySpec", err)
	}
}
