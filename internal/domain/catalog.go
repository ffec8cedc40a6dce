package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
)

// Organization is a catalog owner used to scope searches.
type Organization struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Title       string `json:"title"`
}

// Extra is one free-form key/value metadata pair of a catalog record.
type Extra struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CatalogRecord is one dataset returned by the catalog search API.
type CatalogRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	Organization struct {
		Title string `json:"title"`
	} `json:"organization"`
	NumResources int              `json:"num_resources"`
	NumTags      int              `json:"num_tags"`
	Extras       []Extra          `json:"extras"`
	Resources    []ResourceRecord `json:"resources"`
}

// Extra returns the value of the first extra with the given key.
func (r CatalogRecord) Extra(key string) (string, bool) {
	for _, e := range r.Extras {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// ResourceRecord is one data-access endpoint nested under a catalog record.
// Every scalar attribute the provider sent is addressable by name via Attr.
type ResourceRecord struct {
	ID     string
	Name   string
	Format string
	URL    string

	attrs map[string]string
}

// NewResourceRecord builds a resource from its raw attributes.
func NewResourceRecord(attrs map[string]string) ResourceRecord {
	r := ResourceRecord{attrs: maps.Clone(attrs)}
	if r.attrs == nil {
		r.attrs = map[string]string{}
	}
	r.ID = r.attrs["id"]
	r.Name = r.attrs["name"]
	r.Format = r.attrs["format"]
	r.URL = r.attrs["url"]
	return r
}

// Attr returns the named attribute. ok is false when the provider did not send it.
func (r ResourceRecord) Attr(name string) (value string, ok bool) {
	value, ok = r.attrs[name]
	return value, ok
}

// UnmarshalJSON keeps string, number and boolean attributes. Null, object and array values are dropped.
func (r *ResourceRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode resource: %w", err)
	}

	attrs := make(map[string]string, len(raw))
	for k, v := range raw {
		v = bytes.TrimSpace(v)
		if len(v) == 0 {
			continue
		}
		switch v[0] {
		case '"':
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("decode resource attribute %q: %w", k, err)
			}
			attrs[k] = s
		case '{', '[', 'n':
			// objects, arrays and null
		default:
			attrs[k] = string(v)
		}
	}

	*r = NewResourceRecord(attrs)
	return nil
}

// MarshalJSON writes the attributes back as a flat string map.
func (r ResourceRecord) MarshalJSON() ([]byte, error) {
	if r.attrs == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.attrs)
}

// String identifies the resource in logs.
func (r ResourceRecord) String() string {
	parts := []string{r.ID}
	if r.Format != "" {
		parts = append(parts, r.Format)
	}
	if r.URL != "" {
		parts = append(parts, r.URL)
	}
	return strings.Join(parts, " ")
}
