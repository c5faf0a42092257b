package filter

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/theplant/searchspec/internal/hook"
)

// KeyType represents where a key appears in a search request
type KeyType string

const (
	// KeyTypeFilter represents the key of a FilterRequest
	KeyTypeFilter KeyType = "FILTER"

	// KeyTypeSort represents the key of a SortRequest
	KeyTypeSort KeyType = "SORT"
)

// TransformInput provides input information for transformation
type TransformInput struct {
	Key     string
	KeyType KeyType
	// Filter is set when KeyType is KeyTypeFilter.
	Filter *FilterRequest
	// Sort is set when KeyType is KeyTypeSort.
	Sort *SortRequest
}

// TransformOutput represents the result of transformation.
// An empty Key drops the filter or sort.
type TransformOutput struct {
	Key string
}

// TransformFunc is a function that transforms keys.
type TransformFunc func(input *TransformInput) (*TransformOutput, error)

// IdentityTransform keeps every key as is.
func IdentityTransform(input *TransformInput) (*TransformOutput, error) {
	return &TransformOutput{Key: input.Key}, nil
}

// ChainTransform wraps IdentityTransform with hooks, the first hook being the outermost.
func ChainTransform(hooks ...func(next TransformFunc) TransformFunc) TransformFunc {
	h := hook.Chain(hooks...)
	if h == nil {
		return IdentityTransform
	}
	return h(IdentityTransform)
}

// Transform applies transform to the keys of filters and sorts.
// The inputs are never modified; transformed entries are clones.
func Transform(filters []*FilterRequest, sorts []*SortRequest, transform TransformFunc) ([]*FilterRequest, []*SortRequest, error) {
	outFilters := make([]*FilterRequest, 0, len(filters))
	for i, f := range lo.Compact(filters) {
		output, err := transform(&TransformInput{Key: f.Key, KeyType: KeyTypeFilter, Filter: f})
		if err != nil {
			return nil, nil, errors.Wrapf(err, "transform filter %d key %s", i, f.Key)
		}
		if output == nil || output.Key == "" {
			continue
		}
		c := f.Clone()
		c.Key = output.Key
		outFilters = append(outFilters, c)
	}

	outSorts := make([]*SortRequest, 0, len(sorts))
	for i, s := range lo.Compact(sorts) {
		output, err := transform(&TransformInput{Key: s.Key, KeyType: KeyTypeSort, Sort: s})
		if err != nil {
			return nil, nil, errors.Wrapf(err, "transform sort %d key %s", i, s.Key)
		}
		if output == nil || output.Key == "" {
			continue
		}
		c := s.Clone()
		c.Key = output.Key
		outSorts = append(outSorts, c)
	}
	return outFilters, outSorts, nil
}

// SmartPascalCase converts camelCase to PascalCase with proper handling of common acronyms
func SmartPascalCase(s string) string {
	if s == "" {
		return s
	}

	acronyms := map[string]bool{
		"id":    true,
		"url":   true,
		"uri":   true,
		"api":   true,
		"http":  true,
		"https": true,
		"html":  true,
		"xml":   true,
		"json":  true,
		"sql":   true,
		"uuid":  true,
		"uid":   true,
		"ip":    true,
		"tcp":   true,
		"udp":   true,
		"rpc":   true,
		"grpc":  true,
		"oauth": true,
		"jwt":   true,
		"ssh":   true,
		"tls":   true,
		"ssl":   true,
		"ui":    true,
		"ux":    true,
		"seo":   true,
		"cms":   true,
		"db":    true,
		"os":    true,
		"io":    true,
		"pdf":   true,
		"csv":   true,
		"svg":   true,
		"png":   true,
		"jpg":   true,
		"gif":   true,
		"ftp":   true,
		"smtp":  true,
		"pop":   true,
		"imap":  true,
		"dns":   true,
		"cdn":   true,
		"cpu":   true,
		"gpu":   true,
		"ram":   true,
		"rom":   true,
		"ssd":   true,
		"hdd":   true,
		"usb":   true,
		"lan":   true,
		"wan":   true,
		"vpn":   true,
		"nat":   true,
	}

	var words []string
	var currentWord strings.Builder

	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			if currentWord.Len() > 0 {
				words = append(words, strings.ToLower(currentWord.String()))
				currentWord.Reset()
			}
		}
		currentWord.WriteRune(r)
	}
	if currentWord.Len() > 0 {
		words = append(words, strings.ToLower(currentWord.String()))
	}

	var result strings.Builder
	for _, word := range words {
		if acronyms[word] {
			result.WriteString(strings.ToUpper(word))
		} else {
			if word != "" {
				result.WriteString(strings.ToUpper(word[:1]) + word[1:])
			}
		}
	}

	return result.String()
}

// WithSmartPascalCase creates a transform hook that applies SmartPascalCase to every key segment
func WithSmartPascalCase() func(next TransformFunc) TransformFunc {
	return func(next TransformFunc) TransformFunc {
		return func(input *TransformInput) (*TransformOutput, error) {
			output, err := next(input)
			if err != nil || output == nil || output.Key == "" {
				return output, err
			}
			segments := SplitKey(output.Key)
			for i, seg := range segments {
				segments[i] = SmartPascalCase(lo.CamelCase(seg))
			}
			output.Key = strings.Join(segments, ".")
			return output, nil
		}
	}
}

// WithKeyAliases creates a transform hook that renames keys found in aliases.
// Lookup is case-insensitive.
func WithKeyAliases(aliases map[string]string) func(next TransformFunc) TransformFunc {
	lower := lo.MapKeys(aliases, func(_ string, k string) string { return strings.ToLower(k) })
	return func(next TransformFunc) TransformFunc {
		return func(input *TransformInput) (*TransformOutput, error) {
			output, err := next(input)
			if err != nil || output == nil {
				return output, err
			}
			if alias, ok := lower[strings.ToLower(output.Key)]; ok {
				output.Key = alias
			}
			return output, nil
		}
	}
}

// WithAllowedKeys creates a transform hook that rejects keys outside of allowed.
// Lookup is case-insensitive. A rejected key is an InvalidFieldReference.
func WithAllowedKeys(allowed ...string) func(next TransformFunc) TransformFunc {
	set := lo.SliceToMap(allowed, func(k string) (string, struct{}) { return strings.ToLower(k), struct{}{} })
	return func(next TransformFunc) TransformFunc {
		return func(input *TransformInput) (*TransformOutput, error) {
			if _, ok := set[strings.ToLower(input.Key)]; !ok {
				return nil, Errorf(ErrInvalidFieldReference, input.Key, "key is not allowed")
			}
			return next(input)
		}
	}
}
