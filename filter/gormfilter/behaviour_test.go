package gormfilter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theplant/searchspec/filter"
	"github.com/theplant/searchspec/filter/gormfilter"
)

func TestScopeRequestResults(t *testing.T) {
	db := openSQLite(t)

	find := func(t *testing.T, filters []*filter.FilterRequest, sorts ...*filter.SortRequest) []uint {
		t.Helper()
		var employees []*Employee
		err := db.Model(&Employee{}).Scopes(gormfilter.ScopeRequest(filters, sorts)).Find(&employees).Error
		require.NoError(t, err)
		return employeeIDs(employees)
	}

	t.Run("equal and not equal partition the rows", func(t *testing.T) {
		eq := find(t, []*filter.FilterRequest{
			{Key: "age", Operator: filter.OperatorEqual, FieldType: fieldType(filter.FieldTypeInteger), Value: "42"},
		})
		neq := find(t, []*filter.FilterRequest{
			{Key: "age", Operator: filter.OperatorNotEqual, FieldType: fieldType(filter.FieldTypeInteger), Value: "42"},
		})
		require.ElementsMatch(t, []uint{1, 3}, eq)
		require.ElementsMatch(t, []uint{2, 4}, neq)
	})

	t.Run("like is case-insensitive", func(t *testing.T) {
		require.ElementsMatch(t, []uint{1, 3}, find(t, []*filter.FilterRequest{
			{Key: "name", Operator: filter.OperatorLike, Value: "SMITH"},
		}))
	})

	t.Run("like matches the text of a numeric column", func(t *testing.T) {
		require.ElementsMatch(t, []uint{1, 3}, find(t, []*filter.FilterRequest{
			{Key: "age", Operator: filter.OperatorLike, Value: "4"},
		}))
	})

	t.Run("lenient fallback matches nothing instead of failing", func(t *testing.T) {
		require.Empty(t, find(t, []*filter.FilterRequest{
			{Key: "age", Operator: filter.OperatorEqual, FieldType: fieldType(filter.FieldTypeInteger), Value: "forty"},
		}))
		require.ElementsMatch(t, []uint{1, 3}, find(t, []*filter.FilterRequest{
			{Key: "age", Operator: filter.OperatorIn, FieldType: fieldType(filter.FieldTypeInteger), Values: []any{"42", "forty"}},
		}))
	})

	t.Run("like any", func(t *testing.T) {
		require.ElementsMatch(t, []uint{2, 4}, find(t, []*filter.FilterRequest{
			{Key: "name", Operator: filter.OperatorLikeAny, Values: []any{"DOE", "max"}},
		}))
	})

	t.Run("in is order invariant", func(t *testing.T) {
		a := find(t, []*filter.FilterRequest{
			{Key: "age", Operator: filter.OperatorIn, FieldType: fieldType(filter.FieldTypeInteger), Values: []any{"42", "25"}},
		})
		b := find(t, []*filter.FilterRequest{
			{Key: "age", Operator: filter.OperatorIn, FieldType: fieldType(filter.FieldTypeInteger), Values: []any{"25", "42"}},
		})
		require.ElementsMatch(t, []uint{1, 3, 4}, a)
		require.ElementsMatch(t, a, b)
	})

	t.Run("between dates is inclusive", func(t *testing.T) {
		require.ElementsMatch(t, []uint{1, 2}, find(t, []*filter.FilterRequest{
			{Key: "hiredOn", Operator: filter.OperatorBetween, FieldType: fieldType(filter.FieldTypeDate), Value: "2023-01-01", ValueTo: "2023-12-31"},
		}))
	})

	t.Run("boolean", func(t *testing.T) {
		require.ElementsMatch(t, []uint{1, 3, 4}, find(t, []*filter.FilterRequest{
			{Key: "active", Operator: filter.OperatorEqual, FieldType: fieldType(filter.FieldTypeBoolean), Value: "TRUE"},
		}))
	})

	t.Run("null checks", func(t *testing.T) {
		require.ElementsMatch(t, []uint{1, 2, 3}, find(t, []*filter.FilterRequest{
			{Key: "nickname", Operator: filter.OperatorIsNull},
		}))
		require.ElementsMatch(t, []uint{4}, find(t, []*filter.FilterRequest{
			{Key: "nickname", Operator: filter.OperatorIsNotNull},
		}))
	})

	t.Run("nested relation with sort", func(t *testing.T) {
		require.Equal(t, []uint{2, 1}, find(t,
			[]*filter.FilterRequest{
				{Key: "department.manager.name", Operator: filter.OperatorEqual, Value: "Alice"},
			},
			&filter.SortRequest{Key: "salary", Direction: filter.SortDirectionDesc},
		))
	})

	t.Run("sort through a relation", func(t *testing.T) {
		require.Equal(t, []uint{1, 2, 3, 4}, find(t, nil,
			&filter.SortRequest{Key: "department.code"},
			&filter.SortRequest{Key: "id"},
		))
	})

	t.Run("many to many", func(t *testing.T) {
		require.ElementsMatch(t, []uint{1, 2}, find(t, []*filter.FilterRequest{
			{Key: "skills.name", Operator: filter.OperatorEqual, Value: "Go"},
		}))
	})
}
