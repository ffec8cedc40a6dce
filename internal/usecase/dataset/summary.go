// Package dataset flattens catalog records into dataset listing rows.
package dataset

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

// Extra keys read from catalog records.
const (
	ExtraHarvestObjectID = "harvest_object_id"
	ExtraWAFLocation     = "waf_location"
	ExtraSpatial         = "spatial"
)

// Summarizer builds dataset rows with links on the catalog's web host.
type Summarizer struct {
	site string
}

// NewSummarizer derives the web host from the catalog API base URL.
func NewSummarizer(catalogURL string) (*Summarizer, error) {
	u, err := url.Parse(catalogURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("catalog url %q has no scheme or host", catalogURL)
	}
	return &Summarizer{site: u.Scheme + "://" + u.Host}, nil
}

// Summarize flattens one record. Missing extras become empty strings.
func (s *Summarizer) Summarize(rec domain.CatalogRecord) domain.DatasetSummary {
	sum := domain.DatasetSummary{
		ID:           rec.ID,
		Name:         rec.Name,
		DatasetURL:   s.site + "/dataset/" + rec.Name,
		Title:        rec.Title,
		Organization: rec.Organization.Title,
		Type:         rec.Type,
		NumResources: rec.NumResources,
		NumTags:      rec.NumTags,
	}
	if id, ok := rec.Extra(ExtraHarvestObjectID); ok {
		sum.HarvestObjectURL = s.site + "/harvest/object/" + id
	}
	sum.WAFLocation, _ = rec.Extra(ExtraWAFLocation)
	sum.BBox, _ = rec.Extra(ExtraSpatial)

	formats := make([]string, 0, len(rec.Resources))
	for _, r := range rec.Resources {
		formats = append(formats, r.Format)
	}
	sum.Formats = strings.Join(formats, "-")
	return sum
}
