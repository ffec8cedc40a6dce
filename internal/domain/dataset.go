package domain

// DatasetSummary is the flattened view of a catalog record written by the dataset list actions.
type DatasetSummary struct {
	ID               string
	Name             string
	DatasetURL       string
	Title            string
	Organization     string
	HarvestObjectURL string
	WAFLocation      string
	Type             string
	NumResources     int
	NumTags          int
	Formats          string
	BBox             string
}
