package model

import "github.com/guregu/null/v6"

// TickerInfo is the descriptive record a provider returns for one ticker.
// Empty strings mean the provider did not report the field.
type TickerInfo struct {
	Symbol     string
	LongName   string
	ShortName  string
	FundFamily string
	Issuer     string
	Category   string
	// FundInceptionDate is passed through untouched (normally epoch seconds).
	FundInceptionDate any
}

// DisplayName returns longName, then shortName, then "" when neither is set.
func (i *TickerInfo) DisplayName() string {
	if i.LongName != "" {
		return i.LongName
	}
	return i.ShortName
}

// MetadataRecord is one row of benchmark_metadata.json.
type MetadataRecord struct {
	Ticker        string      `json:"ticker"`
	Name          null.String `json:"name"`
	FundFamily    null.String `json:"fund_family"`
	Provider      null.String `json:"provider"`
	Category      null.String `json:"category"`
	InceptionDate null.String `json:"inception_date"`
	Segment       string      `json:"segment"`

	// RawInception holds the provider value until the collector normalises it.
	RawInception any `json:"-"`
}
