// Package archive talks to the Common Crawl CDX index: collection listing,
// page counts, and page fetches, plus extraction of board tokens from
// captured URLs.
package archive

// Collection is one crawl collection as listed by collinfo.json.
type Collection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CdxRecord is one capture line from a CDX index page.
type CdxRecord struct {
	URL          string `json:"url"`
	Timestamp    string `json:"timestamp"`
	Status       string `json:"status"`
	Mime         string `json:"mime"`
	MimeDetected string `json:"mime-detected"`
	Filename     string `json:"filename"`
	Offset       string `json:"offset"`
	Length       string `json:"length"`
}

// DiscoveredBoard is a deduplicated board capture: one token with its most
// recent capture.
type DiscoveredBoard struct {
	Token     string
	URL       string
	Timestamp string
}

// PageResult carries the records of one index page together with its page
// number, so a fan-out can be reduced in page order.
type PageResult struct {
	Page    int
	Records []CdxRecord
}
