package identity

import (
	"regexp"
	"strings"
)

// Legal-entity suffixes stripped during name normalization, longest
// variants first so "incorporated" wins over "inc".
var legalSuffixes = []string{
	"incorporated", "corporation", "limited", "private", "company",
	"gmbh", "corp", "inc", "ltd", "pvt", "llc", "plc", "sas", "bv", "ag", "co",
}

var (
	punctRe = regexp.MustCompile(`[.,;:!?]`)
	spaceRe = regexp.MustCompile(`\s+`)
)

var suffixRes = buildSuffixRes()

func buildSuffixRes() []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(legalSuffixes))
	for _, s := range legalSuffixes {
		res = append(res, regexp.MustCompile(`\b`+s+`\.?\b`))
	}
	return res
}

// NormalizeName lowercases, strips punctuation and legal-entity suffixes,
// and collapses whitespace. "Acme Inc." and "Acme Incorporated" both
// normalize to "acme".
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	n := strings.ToLower(strings.TrimSpace(name))
	n = punctRe.ReplaceAllString(n, "")
	for _, re := range suffixRes {
		n = strings.TrimSpace(re.ReplaceAllString(n, ""))
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(n, " "))
}
