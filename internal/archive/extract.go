package archive

import (
	"sort"
	"strings"

	"github.com/catherinevee/boardmgr/internal/provider"
)

// reservedTokens are path segments that are never board tokens.
var reservedTokens = map[string]struct{}{
	"api":         {},
	"static":      {},
	"favicon.ico": {},
	"robots.txt":  {},
	"sitemap.xml": {},
	"jobs":        {},
}

// ExtractToken pulls the board token out of a captured URL: the first path
// segment after the provider host, lowercased, with any query or fragment
// stripped. Returns false for URLs that carry no usable token.
func ExtractToken(rawURL string, p provider.Provider) (string, bool) {
	trimmed := strings.TrimRight(rawURL, "/")
	marker := p.Host() + "/"

	idx := strings.Index(trimmed, marker)
	if idx < 0 {
		return "", false
	}

	rest := trimmed[idx+len(marker):]
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		rest = rest[:slash]
	}
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		rest = rest[:q]
	}
	if h := strings.IndexByte(rest, '#'); h >= 0 {
		rest = rest[:h]
	}

	token := strings.ToLower(rest)
	if token == "" {
		return "", false
	}
	if _, reserved := reservedTokens[token]; reserved {
		return "", false
	}
	return token, true
}

// ExtractBoards reduces index records to one board per token, keeping the
// capture with the largest timestamp. Output is sorted by token.
func ExtractBoards(records []CdxRecord, p provider.Provider) []DiscoveredBoard {
	best := make(map[string]DiscoveredBoard)
	for _, rec := range records {
		token, ok := ExtractToken(rec.URL, p)
		if !ok {
			continue
		}
		if prev, seen := best[token]; seen && prev.Timestamp >= rec.Timestamp {
			continue
		}
		best[token] = DiscoveredBoard{
			Token:     token,
			URL:       rec.URL,
			Timestamp: rec.Timestamp,
		}
	}

	boards := make([]DiscoveredBoard, 0, len(best))
	for _, b := range best {
		boards = append(boards, b)
	}
	sort.Slice(boards, func(i, j int) bool { return boards[i].Token < boards[j].Token })
	return boards
}
