package edgar

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
)

// LineItem is one holding row extracted from an information table.
// Shares and ValueUSD are nil when the source field is missing or
// malformed; a bad number never fails the whole item.
type LineItem struct {
	Issuer   string
	CUSIP    string
	Shares   *int64
	ValueUSD *int64
}

// ExtractInformationTable cuts the <informationTable> element out of raw
// document text. Filings delivered as .txt wrap the XML in a larger
// submission envelope, so the boundaries are located by scanning for the
// table tags before any structured parsing happens.
func ExtractInformationTable(raw string) string {
	lower := strings.ToLower(raw)
	start := strings.Index(lower, "<informationtable")
	if start < 0 {
		return raw
	}
	const closing = "</informationtable>"
	end := strings.LastIndex(lower, closing)
	if end < start {
		return raw
	}
	return raw[start : end+len(closing)]
}

var (
	xmlnsDecl = regexp.MustCompile(`\sxmlns(:\w+)?="[^"]*"`)
	tagPrefix = regexp.MustCompile(`(</?)\w+:`)
)

// StripNamespaces removes namespace declarations and element-name
// prefixes. Namespace usage varies by filer and otherwise breaks plain
// tag-name lookups.
func StripNamespaces(xmlText string) string {
	xmlText = xmlnsDecl.ReplaceAllString(xmlText, "")
	return tagPrefix.ReplaceAllString(xmlText, "$1")
}

type infoTableDoc struct {
	Entries []infoTableEntry `xml:"infoTable"`
}

type infoTableEntry struct {
	NameOfIssuer string `xml:"nameOfIssuer"`
	CUSIP        string `xml:"cusip"`
	Value        string `xml:"value"`
	ShrsOrPrnAmt struct {
		SshPrnamt string `xml:"sshPrnamt"`
	} `xml:"shrsOrPrnAmt"`
}

// parseAmount reads an integer field, tolerating comma separators and
// surrounding whitespace. Returns nil when the field is empty or not a
// number.
func parseAmount(s string) *int64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ParseInfoTable extracts holdings line items from raw document text
// (XML or text-wrapped XML). A structurally malformed document yields
// zero items, which the caller treats the same as an empty table.
func ParseInfoTable(raw string) []LineItem {
	xmlText := StripNamespaces(ExtractInformationTable(raw))

	var doc infoTableDoc
	if err := xml.Unmarshal([]byte(xmlText), &doc); err != nil {
		return nil
	}

	items := make([]LineItem, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		item := LineItem{
			Issuer: strings.TrimSpace(e.NameOfIssuer),
			CUSIP:  strings.TrimSpace(e.CUSIP),
			Shares: parseAmount(e.ShrsOrPrnAmt.SshPrnamt),
		}
		// The provider reports value in thousands of dollars.
		if v := parseAmount(e.Value); v != nil {
			usd := *v * 1000
			item.ValueUSD = &usd
		}
		items = append(items, item)
	}
	return items
}
