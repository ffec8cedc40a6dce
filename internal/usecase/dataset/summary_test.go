package dataset

import (
	"testing"

	"github.com/kailas-cloud/catalog-query/internal/domain"
)

func TestSummarize(t *testing.T) {
	s, err := NewSummarizer("https://data.ioos.us/api/3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := domain.CatalogRecord{
		ID: "d1", Name: "sst-daily", Title: "SST Daily", Type: "dataset",
		NumResources: 2, NumTags: 5,
		Extras: []domain.Extra{
			{Key: "harvest_object_id", Value: "h-123"},
			{Key: "spatial", Value: `{"type": "Polygon"}`},
		},
		Resources: []domain.ResourceRecord{
			domain.NewResourceRecord(map[string]string{"format": "OPeNDAP"}),
			domain.NewResourceRecord(map[string]string{"format": "WMS"}),
		},
	}
	rec.Organization.Title = "AOOS"

	got := s.Summarize(rec)
	want := domain.DatasetSummary{
		ID:               "d1",
		Name:             "sst-daily",
		DatasetURL:       "https://data.ioos.us/dataset/sst-daily",
		Title:            "SST Daily",
		Organization:     "AOOS",
		HarvestObjectURL: "https://data.ioos.us/harvest/object/h-123",
		Type:             "dataset",
		NumResources:     2,
		NumTags:          5,
		Formats:          "OPeNDAP-WMS",
		BBox:             `{"type": "Polygon"}`,
	}
	if got != want {
		t.Errorf("Summarize() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestSummarize_NoExtras(t *testing.T) {
	s, _ := NewSummarizer("http://localhost:5000/api/3")
	got := s.Summarize(domain.CatalogRecord{Name: "x"})
	if got.HarvestObjectURL != "" || got.WAFLocation != "" || got.BBox != "" || got.Formats != "" {
		t.Errorf("row = %+v", got)
	}
	if got.DatasetURL != "http://localhost:5000/dataset/x" {
		t.Errorf("dataset_url = %q", got.DatasetURL)
	}
}

func TestNewSummarizer_Invalid(t *testing.T) {
	for _, raw := range []string{"", "data.ioos.us/api/3", "://bad"} {
		if _, err := NewSummarizer(raw); err == nil {
			t.Errorf("NewSummarizer(%q) should fail", raw)
		}
	}
}
