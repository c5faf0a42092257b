package gormfilter_test

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/theplant/searchspec/filter"
	"github.com/theplant/searchspec/filter/gormfilter"
)

func fieldType(ft filter.FieldType) *filter.FieldType {
	return &ft
}

func TestScopeRequest(t *testing.T) {
	db := openSQLite(t)

	tests := []struct {
		name       string
		filters    []*filter.FilterRequest
		sorts      []*filter.SortRequest
		opts       []gormfilter.Option
		wantSQL    string
		wantVars   []any
		wantErrMsg string
	}{
		{
			name:    "identity",
			wantSQL: "SELECT * FROM `employees`",
		},
		{
			name: "equal infers string",
			filters: []*filter.FilterRequest{
				{Key: "name", Operator: filter.OperatorEqual, Value: "John"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE `employees`.`name` = ?",
			wantVars: []any{"John"},
		},
		{
			name: "not equal integer",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: filter.OperatorNotEqual, FieldType: fieldType(filter.FieldTypeInteger), Value: "42"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE `employees`.`age` <> ?",
			wantVars: []any{int32(42)},
		},
		{
			name: "lower-case field type and operator",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: "equal", FieldType: fieldType("long"), Value: "42"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE `employees`.`age` = ?",
			wantVars: []any{int64(42)},
		},
		{
			name: "equal date",
			filters: []*filter.FilterRequest{
				{Key: "hired_on", Operator: filter.OperatorEqual, FieldType: fieldType(filter.FieldTypeDate), Value: "2024-01-02"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE `employees`.`hired_on` = ?",
			wantVars: []any{date(2024, 1, 2)},
		},
		{
			name: "like is case-insensitive",
			filters: []*filter.FilterRequest{
				{Key: "name", Operator: filter.OperatorLike, Value: "SMITH"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE LOWER(`employees`.`name`) LIKE ?",
			wantVars: []any{"%smith%"},
		},
		{
			name: "like any",
			filters: []*filter.FilterRequest{
				{Key: "name", Operator: filter.OperatorLikeAny, Values: []any{"Al", "bo"}},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE (LOWER(`employees`.`name`) LIKE ? OR LOWER(`employees`.`name`) LIKE ?)",
			wantVars: []any{"%al%", "%bo%"},
		},
		{
			name: "like any with a single value stays conjoined",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: filter.OperatorIsNotNull},
				{Key: "name", Operator: filter.OperatorLikeAny, Values: []any{"Al"}},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE `employees`.`age` IS NOT NULL AND LOWER(`employees`.`name`) LIKE ?",
			wantVars: []any{"%al%"},
		},
		{
			name: "in coerces each value",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: filter.OperatorIn, FieldType: fieldType(filter.FieldTypeInteger), Values: []any{"3", "1", "2"}},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE `employees`.`age` IN (?,?,?)",
			wantVars: []any{int32(3), int32(1), int32(2)},
		},
		{
			name: "in infers from the first value",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: filter.OperatorIn, Values: []any{float64(1), "2"}},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE `employees`.`age` IN (?,?)",
			wantVars: []any{int64(1), int64(2)},
		},
		{
			name: "between",
			filters: []*filter.FilterRequest{
				{Key: "salary", Operator: filter.OperatorBetween, FieldType: fieldType(filter.FieldTypeDouble), Value: "1000", ValueTo: "2000"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE `employees`.`salary` >= ? AND `employees`.`salary` <= ?",
			wantVars: []any{float64(1000), float64(2000)},
		},
		{
			name: "filters are conjoined in order",
			filters: []*filter.FilterRequest{
				{Key: "name", Operator: filter.OperatorEqual, Value: "John"},
				{Key: "salary", Operator: filter.OperatorBetween, FieldType: fieldType(filter.FieldTypeDouble), Value: "1000", ValueTo: "2000"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE `employees`.`name` = ? AND (`employees`.`salary` >= ? AND `employees`.`salary` <= ?)",
			wantVars: []any{"John", float64(1000), float64(2000)},
		},
		{
			name: "null checks",
			filters: []*filter.FilterRequest{
				{Key: "nickname", Operator: filter.OperatorIsNull},
				{Key: "department_id", Operator: filter.OperatorIsNotNull},
			},
			wantSQL: "SELECT * FROM `employees` WHERE `employees`.`nickname` IS NULL AND `employees`.`department_id` IS NOT NULL",
		},
		{
			name: "between boolean is ignored in lenient mode",
			filters: []*filter.FilterRequest{
				{Key: "active", Operator: filter.OperatorBetween, FieldType: fieldType(filter.FieldTypeBoolean), Value: "false", ValueTo: "true"},
			},
			wantSQL: "SELECT * FROM `employees`",
		},
		{
			name: "between boolean is rejected in strict mode",
			filters: []*filter.FilterRequest{
				{Key: "active", Operator: filter.OperatorBetween, FieldType: fieldType(filter.FieldTypeBoolean), Value: "false", ValueTo: "true"},
			},
			opts:       []gormfilter.Option{gormfilter.WithCoercion(filter.CoercionStrict)},
			wantErrMsg: `UnsupportedOperatorForType "active"`,
		},
		{
			name: "lenient integer falls back to raw string",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: filter.OperatorEqual, FieldType: fieldType(filter.FieldTypeInteger), Value: "abc"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE CAST(`employees`.`age` AS TEXT) = ?",
			wantVars: []any{"abc"},
		},
		{
			name: "lenient fallback in a list compares every value as text",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: filter.OperatorIn, FieldType: fieldType(filter.FieldTypeInteger), Values: []any{"42", "abc"}},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE CAST(`employees`.`age` AS TEXT) IN (?,?)",
			wantVars: []any{"42", "abc"},
		},
		{
			name: "lenient double bounds on an integer column compare as text",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: filter.OperatorBetween, FieldType: fieldType(filter.FieldTypeDouble), Value: "1", ValueTo: "x"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE CAST(`employees`.`age` AS TEXT) >= ? AND CAST(`employees`.`age` AS TEXT) <= ?",
			wantVars: []any{"1", "x"},
		},
		{
			name: "string value on a boolean column compares as text",
			filters: []*filter.FilterRequest{
				{Key: "active", Operator: filter.OperatorNotEqual, Value: "yes"},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE CAST(`employees`.`active` AS TEXT) <> ?",
			wantVars: []any{"yes"},
		},
		{
			name: "like casts non-text columns",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: filter.OperatorLike, Value: 4},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE LOWER(CAST(`employees`.`age` AS TEXT)) LIKE ?",
			wantVars: []any{"%4%"},
		},
		{
			name: "like any casts non-text columns",
			filters: []*filter.FilterRequest{
				{Key: "hired_on", Operator: filter.OperatorLikeAny, Values: []any{"2023", "-12-"}},
			},
			wantSQL:  "SELECT * FROM `employees` WHERE (LOWER(CAST(`employees`.`hired_on` AS TEXT)) LIKE ? OR LOWER(CAST(`employees`.`hired_on` AS TEXT)) LIKE ?)",
			wantVars: []any{"%2023%", "%-12-%"},
		},
		{
			name: "strict integer fails",
			filters: []*filter.FilterRequest{
				{Key: "age", Operator: filter.OperatorEqual, FieldType: fieldType(filter.FieldTypeInteger), Value: "abc"},
			},
			opts:       []gormfilter.Option{gormfilter.WithCoercion(filter.CoercionStrict)},
			wantErrMsg: `CoercionFailure "age": cannot parse "abc" as INTEGER`,
		},
		{
			name: "lenient date failure never becomes IS NULL",
			filters: []*filter.FilterRequest{
				{Key: "hired_on", Operator: filter.OperatorEqual, FieldType: fieldType(filter.FieldTypeDate), Value: "someday"},
			},
			wantErrMsg: `CoercionFailure "hired_on"`,
		},
		{
			name: "sorts",
			sorts: []*filter.SortRequest{
				{Key: "name", Direction: filter.SortDirectionDesc},
				{Key: "Age"},
			},
			wantSQL: "SELECT * FROM `employees` ORDER BY `employees`.`name` DESC,`employees`.`age`",
		},
		{
			name: "unknown field",
			filters: []*filter.FilterRequest{
				{Key: "title", Operator: filter.OperatorIsNull},
			},
			wantErrMsg: `InvalidFieldReference "title"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := db.Model(&Employee{}).
				Scopes(gormfilter.ScopeRequest(tt.filters, tt.sorts, tt.opts...)).
				Session(&gorm.Session{DryRun: true}).
				Find(&[]Employee{})

			if tt.wantErrMsg != "" {
				require.ErrorContains(t, stmt.Error, tt.wantErrMsg)
				require.True(t, filter.IsFilterError(stmt.Error))
				return
			}

			require.NoError(t, stmt.Error)

			sql := stmt.Statement.SQL.String()
			vars := stmt.Statement.Vars

			require.Equal(t, tt.wantSQL, sql)
			if len(tt.wantVars) == 0 {
				require.Empty(t, vars)
			} else {
				require.Equal(t, tt.wantVars, vars)
			}
		})
	}
}

func TestScopeRequestJoins(t *testing.T) {
	db := openSQLite(t)

	stmt := db.Model(&Employee{}).
		Scopes(gormfilter.ScopeRequest(
			[]*filter.FilterRequest{
				{Key: "department.name", Operator: filter.OperatorLike, Value: "ENG"},
				{Key: "Department.Manager.name", Operator: filter.OperatorEqual, Value: "Alice"},
				{Key: "department.manager.id", Operator: filter.OperatorIsNotNull},
			},
			[]*filter.SortRequest{{Key: "department.code", Direction: "desc"}},
		)).
		Session(&gorm.Session{DryRun: true}).
		Find(&[]Employee{})
	require.NoError(t, stmt.Error)

	sql := stmt.Statement.SQL.String()
	require.Contains(t, sql, "FROM `employees` "+
		"INNER JOIN `departments` `Department` ON `employees`.`department_id` = `Department`.`id` "+
		"INNER JOIN `managers` `Department__Manager` ON `Department`.`manager_id` = `Department__Manager`.`id` "+
		"WHERE LOWER(`Department`.`name`) LIKE ? AND `Department__Manager`.`name` = ? AND `Department__Manager`.`id` IS NOT NULL "+
		"ORDER BY `Department`.`code` DESC")
	require.Equal(t, 2, strings.Count(sql, "INNER JOIN"))
	require.Equal(t, []any{"%eng%", "Alice"}, stmt.Statement.Vars)
}

func TestBuildJoinReuse(t *testing.T) {
	sch := parseSchema(t, &Employee{})

	spec, err := gormfilter.NewBuilder().Build(sch,
		[]*filter.FilterRequest{
			{Key: "dept.manager.id", Operator: filter.OperatorIsNull},
		},
		nil,
	)
	require.Nil(t, spec)
	kind, ok := filter.KindOf(err)
	require.True(t, ok)
	require.Equal(t, filter.ErrInvalidFieldReference, kind)

	spec, err = gormfilter.NewBuilder().Build(sch,
		[]*filter.FilterRequest{
			{Key: "department.manager.id", Operator: filter.OperatorIsNotNull},
			{Key: "department.manager.name", Operator: filter.OperatorLikeAny, Values: []any{"a", "b"}},
			{Key: "age", Operator: filter.OperatorIsNotNull},
		},
		[]*filter.SortRequest{
			{Key: "department.name"},
			{Key: "department.manager.name", Direction: filter.SortDirectionDesc},
		},
	)
	require.NoError(t, err)
	require.Len(t, spec.Joins, 2)
	require.Equal(t, clause.Table{Name: "departments", Alias: "Department"}, spec.Joins[0].Table)
	require.Equal(t, clause.Table{Name: "managers", Alias: "Department__Manager"}, spec.Joins[1].Table)
	require.Len(t, spec.Where.Exprs(), 3)
	require.Equal(t, []clause.OrderByColumn{
		{Column: clause.Column{Table: "Department", Name: "name"}},
		{Column: clause.Column{Table: "Department__Manager", Name: "name"}, Desc: true},
	}, spec.Orders)
}

func TestBuildRelationKinds(t *testing.T) {
	t.Run("many to many", func(t *testing.T) {
		spec, err := gormfilter.NewBuilder().Build(parseSchema(t, &Employee{}),
			[]*filter.FilterRequest{{Key: "skills.name", Operator: filter.OperatorEqual, Value: "Go"}},
			nil,
		)
		require.NoError(t, err)
		require.Len(t, spec.Joins, 2)
		require.Equal(t, clause.Table{Name: "employee_skills", Alias: "Skills__employee_skills"}, spec.Joins[0].Table)
		require.Equal(t, []clause.Expression{clause.Eq{
			Column: clause.Column{Table: "employees", Name: "id"},
			Value:  clause.Column{Table: "Skills__employee_skills", Name: "employee_id"},
		}}, spec.Joins[0].ON.Exprs)
		require.Equal(t, clause.Table{Name: "skills", Alias: "Skills"}, spec.Joins[1].Table)
		require.Equal(t, []clause.Expression{clause.Eq{
			Column: clause.Column{Table: "Skills__employee_skills", Name: "skill_id"},
			Value:  clause.Column{Table: "Skills", Name: "id"},
		}}, spec.Joins[1].ON.Exprs)
	})

	t.Run("has many", func(t *testing.T) {
		spec, err := gormfilter.NewBuilder().Build(parseSchema(t, &Department{}),
			[]*filter.FilterRequest{{Key: "employees.name", Operator: filter.OperatorLike, Value: "smith"}},
			nil,
		)
		require.NoError(t, err)
		require.Len(t, spec.Joins, 1)
		require.Equal(t, clause.InnerJoin, spec.Joins[0].Type)
		require.Equal(t, []clause.Expression{clause.Eq{
			Column: clause.Column{Table: "departments", Name: "id"},
			Value:  clause.Column{Table: "Employees", Name: "department_id"},
		}}, spec.Joins[0].ON.Exprs)
	})
}

func TestBuildKeyLookup(t *testing.T) {
	sch := parseSchema(t, &Employee{})
	for _, key := range []string{"hired_on", "HiredOn", "hiredOn", "HIRED_ON"} {
		spec, err := gormfilter.NewBuilder().Build(sch, nil, []*filter.SortRequest{{Key: key}})
		require.NoError(t, err, key)
		require.Equal(t, clause.Column{Table: "employees", Name: "hired_on"}, spec.Orders[0].Column, key)
	}
}

func TestBuildErrors(t *testing.T) {
	sch := parseSchema(t, &Employee{})

	tests := []struct {
		name     string
		filters  []*filter.FilterRequest
		sorts    []*filter.SortRequest
		opts     []gormfilter.Option
		wantKind filter.ErrorKind
	}{
		{
			name:     "empty key",
			filters:  []*filter.FilterRequest{{Key: "", Operator: filter.OperatorIsNull}},
			wantKind: filter.ErrInvalidFieldReference,
		},
		{
			name:     "empty segment",
			filters:  []*filter.FilterRequest{{Key: "department..name", Operator: filter.OperatorIsNull}},
			wantKind: filter.ErrInvalidFieldReference,
		},
		{
			name:     "column used as relation",
			filters:  []*filter.FilterRequest{{Key: "salary.amount", Operator: filter.OperatorIsNull}},
			wantKind: filter.ErrInvalidFieldReference,
		},
		{
			name:     "relation used as column",
			filters:  []*filter.FilterRequest{{Key: "department", Operator: filter.OperatorIsNull}},
			wantKind: filter.ErrInvalidFieldReference,
		},
		{
			name:     "unknown nested column",
			sorts:    []*filter.SortRequest{{Key: "department.budget"}},
			wantKind: filter.ErrInvalidFieldReference,
		},
		{
			name:     "unknown operator",
			filters:  []*filter.FilterRequest{{Key: "name", Operator: "STARTS_WITH", Value: "a"}},
			wantKind: filter.ErrInvalidRequest,
		},
		{
			name:     "unknown field type",
			filters:  []*filter.FilterRequest{{Key: "name", Operator: filter.OperatorEqual, FieldType: fieldType("UUID"), Value: "a"}},
			wantKind: filter.ErrInvalidRequest,
		},
		{
			name:     "unknown sort direction",
			sorts:    []*filter.SortRequest{{Key: "name", Direction: "SIDEWAYS"}},
			wantKind: filter.ErrInvalidRequest,
		},
		{
			name:     "equal without value",
			filters:  []*filter.FilterRequest{{Key: "name", Operator: filter.OperatorEqual}},
			wantKind: filter.ErrMissingRequiredValue,
		},
		{
			name:     "like without value",
			filters:  []*filter.FilterRequest{{Key: "name", Operator: filter.OperatorLike}},
			wantKind: filter.ErrMissingRequiredValue,
		},
		{
			name:     "in without values",
			filters:  []*filter.FilterRequest{{Key: "age", Operator: filter.OperatorIn, Values: []any{}}},
			wantKind: filter.ErrMissingRequiredValue,
		},
		{
			name:     "like any without values",
			filters:  []*filter.FilterRequest{{Key: "name", Operator: filter.OperatorLikeAny}},
			wantKind: filter.ErrMissingRequiredValue,
		},
		{
			name:     "between without value_to",
			filters:  []*filter.FilterRequest{{Key: "age", Operator: filter.OperatorBetween, FieldType: fieldType(filter.FieldTypeInteger), Value: "1"}},
			wantKind: filter.ErrMissingRequiredValue,
		},
		{
			name:     "between without field type",
			filters:  []*filter.FilterRequest{{Key: "age", Operator: filter.OperatorBetween, Value: "1", ValueTo: "2"}},
			wantKind: filter.ErrMissingRequiredValue,
		},
		{
			name:     "strict in with a bad element",
			filters:  []*filter.FilterRequest{{Key: "age", Operator: filter.OperatorIn, FieldType: fieldType(filter.FieldTypeInteger), Values: []any{"1", "x"}}},
			opts:     []gormfilter.Option{gormfilter.WithCoercion(filter.CoercionStrict)},
			wantKind: filter.ErrCoercionFailure,
		},
		{
			name:     "strict boolean typo",
			filters:  []*filter.FilterRequest{{Key: "active", Operator: filter.OperatorEqual, FieldType: fieldType(filter.FieldTypeBoolean), Value: "ture"}},
			opts:     []gormfilter.Option{gormfilter.WithCoercion(filter.CoercionStrict)},
			wantKind: filter.ErrCoercionFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := gormfilter.NewBuilder(tt.opts...).Build(sch, tt.filters, tt.sorts)
			require.Nil(t, spec)
			require.Error(t, err)
			kind, ok := filter.KindOf(err)
			require.True(t, ok, err.Error())
			require.Equal(t, tt.wantKind, kind, err.Error())
		})
	}
}

func TestPredicate(t *testing.T) {
	var p gormfilter.Predicate
	require.True(t, p.IsIdentity())
	require.Nil(t, p.Expression())
	require.Equal(t, p, p.And(nil))

	a := p.And(clause.Eq{Column: "a", Value: 1})
	b := a.And(clause.Eq{Column: "b", Value: 2})
	c := a.And(clause.Eq{Column: "c", Value: 3})
	require.True(t, p.IsIdentity())
	require.Len(t, a.Exprs(), 1)
	require.Equal(t, "b", b.Exprs()[1].(clause.Eq).Column)
	require.Equal(t, "c", c.Exprs()[1].(clause.Eq).Column)
	require.Equal(t, clause.Eq{Column: "a", Value: 1}, a.Expression())
	require.IsType(t, clause.AndConditions{}, b.Expression())
}

func TestBuildIsDeterministic(t *testing.T) {
	sch := parseSchema(t, &Employee{})
	filters := []*filter.FilterRequest{
		{Key: "skills.name", Operator: filter.OperatorIn, Values: []any{"Go", "SQL"}},
		{Key: "department.manager.name", Operator: filter.OperatorLike, Value: "a"},
	}
	sorts := []*filter.SortRequest{{Key: "department.code"}}

	first, err := gormfilter.NewBuilder().Build(sch, filters, sorts)
	require.NoError(t, err)
	for range lo.Range(5) {
		again, err := gormfilter.NewBuilder().Build(sch, filters, sorts)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}
