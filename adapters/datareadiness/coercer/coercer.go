package coercer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"datalens/domain/dataset"
)

// InferenceThreshold is the share of non-null values that must satisfy a
// type predicate for the column to take that type.
const InferenceThreshold = 0.8

// TypeCoercer handles deterministic value coercion and type inference
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold float64 `json:"numeric_threshold"`
	DateThreshold    float64 `json:"date_threshold"`
	BooleanThreshold float64 `json:"boolean_threshold"`
	// LenientNumbers accepts currency symbols, percent signs, (123) negatives
	// and 1,234 thousands grouping.
	LenientNumbers bool `json:"lenient_numbers"`
}

// DefaultCoercionConfig returns the 80% thresholds for every type
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold: InferenceThreshold,
		DateThreshold:    InferenceThreshold,
		BooleanThreshold: InferenceThreshold,
		LenientNumbers:   true,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// Default is the coercer behind the package-level predicates
var Default = NewTypeCoercer(DefaultCoercionConfig())

var thousandsGrouping = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)

var currencySymbols = []string{"USD", "EUR", "GBP", "JPY", "$", "€", "£", "¥"}

// ParseNumber coerces a raw value to a finite float64
func (c *TypeCoercer) ParseNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsInf(n, 0) && !math.IsNaN(n)
	case float32:
		f := float64(n)
		return f, !math.IsInf(f, 0) && !math.IsNaN(f)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		return c.parseNumericString(n)
	default:
		return 0, false
	}
}

func (c *TypeCoercer) parseNumericString(s string) (float64, bool) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return 0, false
	}
	if f, ok := parseFinite(clean); ok {
		return f, true
	}
	if !c.config.LenientNumbers {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")") {
		clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
		negative = true
	}
	clean = trimCurrency(strings.TrimSpace(clean))
	clean = strings.TrimSpace(strings.TrimSuffix(clean, "%"))
	if thousandsGrouping.MatchString(clean) {
		clean = strings.ReplaceAll(clean, ",", "")
	}
	if clean == "" {
		return 0, false
	}

	f, ok := parseFinite(clean)
	if !ok {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// trimCurrency removes one currency symbol or code from either end.
// A symbol between digits is left in place so the value fails to parse.
func trimCurrency(s string) string {
	for _, symbol := range currencySymbols {
		if strings.HasPrefix(s, symbol) {
			s = strings.TrimSpace(strings.TrimPrefix(s, symbol))
			break
		}
		if strings.HasPrefix(s, "-"+symbol) {
			s = "-" + strings.TrimSpace(strings.TrimPrefix(s, "-"+symbol))
			break
		}
	}
	for _, symbol := range currencySymbols {
		if strings.HasSuffix(s, symbol) {
			s = strings.TrimSpace(strings.TrimSuffix(s, symbol))
			break
		}
	}
	return s
}

// parseFinite rejects the Inf and NaN spellings strconv accepts
func parseFinite(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// dateLayouts are tried in order; the first that parses wins
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"01-02-06",
	"02-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
	"Mon Jan 2 2006",
	"2006-01",
}

// ParseDate coerces a raw value to a time. Only strings and time values
// qualify; bare numbers are never read as epochs.
func (c *TypeCoercer) ParseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// ParseBoolean accepts true/false/yes/no/1/0, case-insensitively
func (c *TypeCoercer) ParseBoolean(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		switch b {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "1":
			return true, true
		case "false", "no", "0":
			return false, true
		}
	}
	return false, false
}

// ToString renders a raw value the way it is shown and compared as text
func ToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return ""
	}
}

// AnalyzeTypeDistribution counts how many non-null values satisfy each predicate
func (c *TypeCoercer) AnalyzeTypeDistribution(nonNull []any) TypeAnalysis {
	analysis := TypeAnalysis{ValidCount: len(nonNull)}
	for _, v := range nonNull {
		if c.IsNumeric(v) {
			analysis.NumericCount++
		}
		if c.IsDate(v) {
			analysis.DateCount++
		}
		if c.IsBoolean(v) {
			analysis.BooleanCount++
		}
	}
	if analysis.ValidCount > 0 {
		n := float64(analysis.ValidCount)
		analysis.NumericRatio = float64(analysis.NumericCount) / n
		analysis.DateRatio = float64(analysis.DateCount) / n
		analysis.BooleanRatio = float64(analysis.BooleanCount) / n
	}
	analysis.RecommendedType = c.determineRecommendedType(analysis)
	return analysis
}

// InferType picks the column type for a set of non-null values
func (c *TypeCoercer) InferType(nonNull []any) dataset.ColumnType {
	return c.AnalyzeTypeDistribution(nonNull).RecommendedType
}

// determineRecommendedType checks number, then date, then boolean. The order
// is fixed: a column of "0"/"1" meets the number threshold first.
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) dataset.ColumnType {
	if analysis.ValidCount == 0 {
		return dataset.TypeString
	}
	if ReachesThreshold(analysis.NumericCount, analysis.ValidCount, c.config.NumericThreshold) {
		return dataset.TypeNumber
	}
	if ReachesThreshold(analysis.DateCount, analysis.ValidCount, c.config.DateThreshold) {
		return dataset.TypeDate
	}
	if ReachesThreshold(analysis.BooleanCount, analysis.ValidCount, c.config.BooleanThreshold) {
		return dataset.TypeBoolean
	}
	return dataset.TypeString
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	ValidCount      int                `json:"valid_count"`
	NumericCount    int                `json:"numeric_count"`
	DateCount       int                `json:"date_count"`
	BooleanCount    int                `json:"boolean_count"`
	NumericRatio    float64            `json:"numeric_ratio"`
	DateRatio       float64            `json:"date_ratio"`
	BooleanRatio    float64            `json:"boolean_ratio"`
	RecommendedType dataset.ColumnType `json:"recommended_type"`
}
