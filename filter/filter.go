package filter

import (
	"strings"
)

// Operator is the comparison a FilterRequest applies to its field.
type Operator string

const (
	OperatorEqual     Operator = "EQUAL"
	OperatorNotEqual  Operator = "NOT_EQUAL"
	OperatorLike      Operator = "LIKE"
	OperatorLikeAny   Operator = "LIKE_ANY"
	OperatorIn        Operator = "IN"
	OperatorBetween   Operator = "BETWEEN"
	OperatorIsNull    Operator = "IS_NULL"
	OperatorIsNotNull Operator = "IS_NOT_NULL"
)

// Operators lists every supported operator.
var Operators = []Operator{
	OperatorEqual,
	OperatorNotEqual,
	OperatorLike,
	OperatorLikeAny,
	OperatorIn,
	OperatorBetween,
	OperatorIsNull,
	OperatorIsNotNull,
}

func (op Operator) Normalize() Operator {
	return Operator(strings.ToUpper(strings.TrimSpace(string(op))))
}

// SortDirection is the ordering of a SortRequest.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "ASC"
	SortDirectionDesc SortDirection = "DESC"
)

// Normalize upper-cases the direction and defaults an empty one to ASC.
func (d SortDirection) Normalize() SortDirection {
	d = SortDirection(strings.ToUpper(strings.TrimSpace(string(d))))
	if d == "" {
		return SortDirectionAsc
	}
	return d
}

// FilterRequest is a single condition on a dot-separated field path.
type FilterRequest struct {
	Key       string     `json:"key"`
	Operator  Operator   `json:"operator"`
	FieldType *FieldType `json:"field_type,omitempty"`
	Value     any        `json:"value,omitempty"`
	// ValueTo is the inclusive upper bound of BETWEEN.
	ValueTo any `json:"value_to,omitempty"`
	// Values holds the candidates of IN and LIKE_ANY.
	Values []any `json:"values,omitempty"`
}

// SortRequest orders results by a dot-separated field path.
type SortRequest struct {
	Key       string        `json:"key"`
	Direction SortDirection `json:"direction"`
}

// Clone returns a shallow copy whose Values slice is not shared.
func (f *FilterRequest) Clone() *FilterRequest {
	if f == nil {
		return nil
	}
	c := *f
	if f.FieldType != nil {
		ft := *f.FieldType
		c.FieldType = &ft
	}
	if f.Values != nil {
		c.Values = append([]any(nil), f.Values...)
	}
	return &c
}

func (s *SortRequest) Clone() *SortRequest {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// SplitKey splits a dot-separated key into its segments.
func SplitKey(key string) []string {
	return strings.Split(key, ".")
}
