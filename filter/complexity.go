package filter

import (
	"strings"

	"github.com/samber/lo"
)

// ComplexityLimits defines limits for search request complexity.
// A value of 0 means no limit for that metric.
type ComplexityLimits struct {
	MaxFilters   int // Maximum number of filters
	MaxSorts     int // Maximum number of sorts
	MaxPathDepth int // Maximum number of segments in a filter or sort key
	MaxValues    int // Maximum number of values in a single IN or LIKE_ANY filter
	MaxJoins     int // Maximum number of distinct relation prefixes
}

// ComplexityResult contains the calculated complexity metrics of a search request.
type ComplexityResult struct {
	Filters   int
	Sorts     int
	PathDepth int // Deepest key
	Values    int // Largest Values slice
	Joins     int // Distinct relation prefixes across filters and sorts
}

// Predefined complexity limits
var (
	// DefaultLimits provides reasonable defaults for most use cases.
	DefaultLimits = &ComplexityLimits{
		MaxFilters:   20,
		MaxSorts:     5,
		MaxPathDepth: 3,
		MaxValues:    100,
		MaxJoins:     5,
	}

	// StrictLimits provides tighter limits for security-sensitive contexts.
	StrictLimits = &ComplexityLimits{
		MaxFilters:   10,
		MaxSorts:     3,
		MaxPathDepth: 2,
		MaxValues:    50,
		MaxJoins:     2,
	}

	// RelaxedLimits provides looser limits for trusted/internal use.
	RelaxedLimits = &ComplexityLimits{
		MaxFilters:   50,
		MaxSorts:     10,
		MaxPathDepth: 5,
		MaxValues:    1000,
		MaxJoins:     10,
	}
)

// CheckComplexity validates that a request doesn't exceed the specified limits.
// If limits is nil, no validation is performed.
func CheckComplexity(filters []*FilterRequest, sorts []*SortRequest, limits *ComplexityLimits) error {
	if limits == nil {
		return nil
	}

	result := CalculateComplexity(filters, sorts)

	if limits.MaxFilters > 0 && result.Filters > limits.MaxFilters {
		return Errorf(ErrComplexityExceeded, "", "filter count %d exceeds limit %d", result.Filters, limits.MaxFilters)
	}
	if limits.MaxSorts > 0 && result.Sorts > limits.MaxSorts {
		return Errorf(ErrComplexityExceeded, "", "sort count %d exceeds limit %d", result.Sorts, limits.MaxSorts)
	}
	if limits.MaxPathDepth > 0 && result.PathDepth > limits.MaxPathDepth {
		return Errorf(ErrComplexityExceeded, "", "key depth %d exceeds limit %d", result.PathDepth, limits.MaxPathDepth)
	}
	if limits.MaxValues > 0 && result.Values > limits.MaxValues {
		return Errorf(ErrComplexityExceeded, "", "value count %d exceeds limit %d", result.Values, limits.MaxValues)
	}
	if limits.MaxJoins > 0 && result.Joins > limits.MaxJoins {
		return Errorf(ErrComplexityExceeded, "", "join count %d exceeds limit %d", result.Joins, limits.MaxJoins)
	}

	return nil
}

// CalculateComplexity analyzes a search request and returns its complexity metrics.
func CalculateComplexity(filters []*FilterRequest, sorts []*SortRequest) *ComplexityResult {
	result := &ComplexityResult{}
	prefixes := map[string]struct{}{}

	visitKey := func(key string) {
		segments := SplitKey(key)
		if len(segments) > result.PathDepth {
			result.PathDepth = len(segments)
		}
		for i := 1; i < len(segments); i++ {
			prefixes[strings.ToLower(strings.Join(segments[:i], "."))] = struct{}{}
		}
	}

	for _, f := range lo.Compact(filters) {
		result.Filters++
		visitKey(f.Key)
		if len(f.Values) > result.Values {
			result.Values = len(f.Values)
		}
	}
	for _, s := range lo.Compact(sorts) {
		result.Sorts++
		visitKey(s.Key)
	}

	result.Joins = len(prefixes)
	return result
}
