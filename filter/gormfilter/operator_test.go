package gormfilter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theplant/searchspec/filter"
)

func TestOperatorsAreExhaustive(t *testing.T) {
	require.Len(t, operators, len(filter.Operators))
	for _, op := range filter.Operators {
		require.NotNil(t, operators[op], op)
	}
}

func TestLookupOperator(t *testing.T) {
	fn, err := lookupOperator(&filter.FilterRequest{Key: "name", Operator: " like_any "})
	require.NoError(t, err)
	require.NotNil(t, fn)

	_, err = lookupOperator(&filter.FilterRequest{Key: "name", Operator: "GREATER_THAN"})
	require.ErrorContains(t, err, `InvalidRequest "name": unknown operator "GREATER_THAN"`)
}
