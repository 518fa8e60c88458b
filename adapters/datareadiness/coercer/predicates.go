package coercer

// IsNumeric reports whether v parses as a finite number
func (c *TypeCoercer) IsNumeric(v any) bool {
	_, ok := c.ParseNumber(v)
	return ok
}

// IsDate reports whether v parses with one of the known date layouts
func (c *TypeCoercer) IsDate(v any) bool {
	_, ok := c.ParseDate(v)
	return ok
}

// IsBoolean reports whether v is one of true/false/yes/no/1/0
func (c *TypeCoercer) IsBoolean(v any) bool {
	_, ok := c.ParseBoolean(v)
	return ok
}

// ReachesThreshold reports whether matched/total is at least threshold.
// An empty set never reaches it.
func ReachesThreshold(matched, total int, threshold float64) bool {
	return total > 0 && float64(matched)/float64(total) >= threshold
}
