package model

// FilingRecord identifies one quarterly ownership disclosure by one institution.
type FilingRecord struct {
	Institution     string `json:"institution,omitempty"`
	CIK             string `json:"cik"`
	Accession       string `json:"accession"`
	ReportDate      string `json:"report_date"`
	PrimaryDocument string `json:"primary_document"`
}

// PositionSnapshot is the tracked issuer's aggregate position within one
// filing. A zero snapshot means the filing parsed and holds nothing; a
// missing snapshot means the filing could not be resolved at all.
type PositionSnapshot struct {
	Shares   int64 `json:"shares"`
	ValueUSD int64 `json:"value_usd"`
}

// HoldingsRow is one institution's line in the holdings table.
// SharesDelta is nil unless both the latest and previous quarter resolved.
type HoldingsRow struct {
	Institution string `json:"institution"`
	CIK         string `json:"cik"`
	ReportDate  string `json:"report_date"`
	Shares      int64  `json:"shares"`
	ValueUSD    int64  `json:"value_usd"`
	SharesDelta *int64 `json:"shares_delta"`
}
