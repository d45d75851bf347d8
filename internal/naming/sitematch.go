package naming

import (
	"strings"
	"unicode"
)

// Match scores used by MatchSite, highest first.
const (
	ScoreExact         = 100
	ScoreSitePrefix    = 90
	ScoreSiteContains  = 70
	ScoreTokenContains = 60
)

// SiteRef is the slice of a site the matcher needs.
type SiteRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Normalize lowercases s and strips everything that is not a letter or digit.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ScoreSite scores how well token identifies siteName. Both are normalised
// before comparison; an empty side never matches.
func ScoreSite(token, siteName string) int {
	t, s := Normalize(token), Normalize(siteName)
	if t == "" || s == "" {
		return 0
	}
	switch {
	case s == t:
		return ScoreExact
	case strings.HasPrefix(s, t):
		return ScoreSitePrefix
	case strings.Contains(s, t):
		return ScoreSiteContains
	case strings.Contains(t, s):
		return ScoreTokenContains
	default:
		return 0
	}
}

// MatchSite returns the best scoring site for token. Equal scores keep the
// earliest site in the list. ok is false when every site scores zero.
func MatchSite(token string, sites []SiteRef) (best SiteRef, score int, ok bool) {
	for _, s := range sites {
		if sc := ScoreSite(token, s.Name); sc > score {
			best, score = s, sc
		}
	}
	return best, score, score > 0
}
