package naming

import (
	"regexp"
	"strconv"
	"strings"
)

// Placement classifications produced by the taxonomy parser.
const (
	TypeDisplay = "Display"
	TypeVideo   = "Video"
	TypeNative  = "Native"

	CompatibilityDisplay       = "DISPLAY"
	CompatibilityInStreamVideo = "IN_STREAM_VIDEO"
)

// Token positions in brand-iso_site_campaign_channel_funnel_tech_device_format_size_.
const (
	formatTokenIndex = 4
	techTokenIndex   = 5
)

var sizePattern = regexp.MustCompile(`(?i)(\d+)\s*[x×]\s*(\d+)`)

// DefaultTechVocabulary lists the buying platforms recognised in the tech
// position when no vocabulary is configured.
var DefaultTechVocabulary = []string{
	"dv360", "ttd", "tradedesk", "amazon", "amazondsp", "xandr", "meta",
	"google", "youtube", "tiktok", "snapchat", "linkedin", "pinterest",
	"criteo", "taboola", "outbrain", "teads", "adform", "direct",
}

// Vocabulary is the controlled vocabulary a line is parsed against.
type Vocabulary struct {
	Sites []SiteRef
	Tech  []string
}

func (v Vocabulary) isTech(token string) bool {
	n := Normalize(token)
	if n == "" {
		return false
	}
	for _, t := range v.Tech {
		if Normalize(t) == n {
			return true
		}
	}
	return false
}

// ParsedRow is the structured form of one pasted naming line.
type ParsedRow struct {
	// Line is the input exactly as pasted.
	Line string `json:"line"`
	// Name is Line with a guaranteed trailing underscore.
	Name          string `json:"name"`
	Size          string `json:"size,omitempty"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	Type          string `json:"type"`
	Compatibility string `json:"compatibility"`
	TechToken     string `json:"techToken,omitempty"`
	SiteID        string `json:"siteId,omitempty"`
	SiteName      string `json:"siteName,omitempty"`
	SiteScore     int    `json:"siteScore,omitempty"`
	UsedFallback  bool   `json:"usedFallback,omitempty"`
	Valid         bool   `json:"isValid"`
}

// HasSize reports whether a WxH size was detected.
func (r ParsedRow) HasSize() bool { return r.Size != "" }

// SiteResolved reports whether the fuzzy matcher found a site.
func (r ParsedRow) SiteResolved() bool { return r.SiteID != "" && !r.UsedFallback }

// ParseLine parses a single taxonomy line. The result is valid only when a
// size was found and a site resolved; ParseText additionally considers a
// fallback site.
func ParseLine(line string, vocab Vocabulary) ParsedRow {
	name := strings.TrimSpace(line)
	if !strings.HasSuffix(name, "_") {
		name += "_"
	}
	row := ParsedRow{Line: line, Name: name}

	if m := sizePattern.FindStringSubmatch(name); m != nil {
		w, errW := strconv.Atoi(m[1])
		h, errH := strconv.Atoi(m[2])
		if errW == nil && errH == nil {
			row.Width, row.Height = w, h
			row.Size = m[1] + "x" + m[2]
		}
	}

	tokens := strings.Split(name, "_")
	row.Type, row.Compatibility = classifyFormat(tokenAt(tokens, formatTokenIndex))
	row.TechToken = techToken(tokens, vocab)

	if row.TechToken != "" {
		if site, score, ok := MatchSite(row.TechToken, vocab.Sites); ok {
			row.SiteID, row.SiteName, row.SiteScore = site.ID, site.Name, score
		}
	}
	row.Valid = row.HasSize() && row.SiteID != ""
	return row
}

func tokenAt(tokens []string, i int) string {
	if i < len(tokens) {
		return tokens[i]
	}
	return ""
}

func classifyFormat(token string) (string, string) {
	t := strings.ToLower(token)
	switch {
	case strings.Contains(t, "vid"), strings.Contains(t, "instream"):
		return TypeVideo, CompatibilityInStreamVideo
	case strings.Contains(t, "nat"):
		return TypeNative, CompatibilityDisplay
	default:
		return TypeDisplay, CompatibilityDisplay
	}
}

// techToken prefers the token in the tech position. When that token is not a
// known platform, the first token anywhere in the line that is wins.
func techToken(tokens []string, vocab Vocabulary) string {
	candidate := strings.TrimSpace(tokenAt(tokens, techTokenIndex))
	if vocab.isTech(candidate) {
		return candidate
	}
	for _, tok := range tokens {
		if vocab.isTech(tok) {
			return strings.TrimSpace(tok)
		}
	}
	return candidate
}

// TextResult is the outcome of parsing a pasted block of lines.
type TextResult struct {
	Rows []ParsedRow `json:"rows"`
	// Remaining holds the verbatim invalid lines, newline separated, so the
	// operator can correct and resubmit them.
	Remaining string `json:"remaining"`
}

// Valid returns the rows that can be turned into placements.
func (t TextResult) Valid() []ParsedRow {
	out := make([]ParsedRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Valid {
			out = append(out, r)
		}
	}
	return out
}

// ParseText parses every non-blank line of text. Rows with a size but no
// resolved site become valid when fallbackSite is set, and take its id.
func ParseText(text string, vocab Vocabulary, fallbackSite *SiteRef) TextResult {
	var res TextResult
	var remaining []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		row := ParseLine(line, vocab)
		if !row.Valid && row.HasSize() && row.SiteID == "" && fallbackSite != nil && fallbackSite.ID != "" {
			row.SiteID, row.SiteName = fallbackSite.ID, fallbackSite.Name
			row.UsedFallback = true
			row.Valid = true
		}
		if !row.Valid {
			remaining = append(remaining, line)
		}
		res.Rows = append(res.Rows, row)
	}
	res.Remaining = strings.Join(remaining, "\n")
	return res
}
