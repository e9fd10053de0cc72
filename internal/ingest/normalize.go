package ingest

import (
	"strings"

	"revstrux/internal/money"
)

// detectThreshold is the minimum header-overlap confidence for a
// dataset type to be accepted.
const detectThreshold = 0.6

// HeaderMapping records one header rename applied during normalization.
type HeaderMapping struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
}

// EnumNormalization records one cell value rewritten to its canonical
// enum form.
type EnumNormalization struct {
	Row      int    `json:"row"`
	Field    string `json:"field"`
	Original string `json:"original"`
	Value    string `json:"value"`
}

func canonicalHeader(h string) string {
	key := strings.ToLower(strings.TrimSpace(h))
	if alias, ok := headerAliases[key]; ok {
		return alias
	}
	return key
}

// DetectFileType scores the table headers against every dataset schema
// and returns the best match. Confidence is the share of that dataset's
// required columns present after alias resolution, capped at 1.
// aliasApplied reports whether any header needed renaming.
func DetectFileType(headers []string) (fileType string, confidence float64, aliasApplied bool) {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		canonical := canonicalHeader(h)
		present[canonical] = true
		if canonical != strings.TrimSpace(h) {
			aliasApplied = true
		}
	}

	best, bestScore := "", 0.0
	for _, ft := range FileTypes {
		matched := 0
		for _, col := range requiredColumns[ft] {
			if present[col] {
				matched++
			}
		}
		for _, col := range optionalColumns[ft] {
			if present[col] {
				matched++
			}
		}
		score := float64(matched) / float64(len(requiredColumns[ft]))
		if score > 1 {
			score = 1
		}
		if score > bestScore {
			best, bestScore = ft, score
		}
	}
	if bestScore < detectThreshold {
		return "", money.Round2(bestScore), aliasApplied
	}
	return best, money.Round2(bestScore), aliasApplied
}

// NormalizeHeaders rewrites every aliased or mixed-case header to its
// canonical column name, in both the header list and each row's keys.
func NormalizeHeaders(t Table) (Table, []HeaderMapping) {
	var mappings []HeaderMapping
	rename := make(map[string]string, len(t.Headers))
	out := Table{Headers: make([]string, len(t.Headers))}
	for i, h := range t.Headers {
		canonical := canonicalHeader(h)
		out.Headers[i] = canonical
		rename[h] = canonical
		if canonical != h {
			mappings = append(mappings, HeaderMapping{Original: h, Normalized: canonical})
		}
	}
	for _, row := range t.Rows {
		normalized := make(Row, len(row))
		for k, v := range row {
			key := k
			if to, ok := rename[k]; ok {
				key = to
			}
			normalized[key] = v
		}
		out.Rows = append(out.Rows, normalized)
	}
	return out, mappings
}

// NormalizeEnums rewrites vendor enum spellings to canonical values for
// the given dataset type. Values already canonical pass through; unknown
// values are left alone for validation to report. Row numbers in the
// change log are 1-based spreadsheet rows (header is row 1).
func NormalizeEnums(fileType string, t Table) (Table, []EnumNormalization) {
	columns := enumAliases[fileType]
	canonical := validEnums[fileType]
	if columns == nil && canonical == nil {
		return t, nil
	}

	var changes []EnumNormalization
	for i, row := range t.Rows {
		for field := range canonical {
			raw, ok := row[field]
			if !ok || raw == "" {
				continue
			}
			value := strings.ToLower(strings.TrimSpace(raw))
			if alias, ok := columns[field][value]; ok {
				value = alias
			}
			if value != raw {
				row[field] = value
				changes = append(changes, EnumNormalization{
					Row: i + 2, Field: field, Original: raw, Value: value,
				})
			}
		}
	}
	return t, changes
}
