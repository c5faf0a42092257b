package gormfilter

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/theplant/searchspec/filter"
)

// operatorFunc builds the fragment of a single filter on an already resolved path.
// A nil expression without error leaves the accumulated predicate unchanged.
type operatorFunc func(e *evaluation, path *ResolvedPath, f *filter.FilterRequest) (clause.Expression, error)

var operators = map[filter.Operator]operatorFunc{
	filter.OperatorEqual:     evalEqual,
	filter.OperatorNotEqual:  evalNotEqual,
	filter.OperatorLike:      evalLike,
	filter.OperatorLikeAny:   evalLikeAny,
	filter.OperatorIn:        evalIn,
	filter.OperatorBetween:   evalBetween,
	filter.OperatorIsNull:    evalIsNull,
	filter.OperatorIsNotNull: evalIsNotNull,
}

type evaluation struct {
	coercion filter.Coercion
	logger   logrus.FieldLogger
}

func lookupOperator(f *filter.FilterRequest) (operatorFunc, error) {
	op := f.Operator.Normalize()
	fn, ok := operators[op]
	if !ok {
		return nil, filter.Errorf(filter.ErrInvalidRequest, f.Key, "unknown operator %q", string(f.Operator))
	}
	return fn, nil
}

// fieldType returns the declared field type, or ok=false when none is declared.
func fieldType(f *filter.FilterRequest) (ft filter.FieldType, ok bool, err error) {
	if f.FieldType == nil || *f.FieldType == "" {
		return "", false, nil
	}
	ft = f.FieldType.Normalize()
	if !ft.Valid() {
		return "", false, filter.Errorf(filter.ErrInvalidRequest, f.Key, "unknown field type %q", string(*f.FieldType))
	}
	return ft, true, nil
}

func (e *evaluation) coerce(key string, ft filter.FieldType, raw any) (any, error) {
	text := filter.Stringify(raw)
	v, parseErr, err := ft.Coerce(text, e.coercion)
	if err != nil {
		return nil, filter.WithKey(err, key)
	}
	if parseErr != nil {
		e.logger.WithError(parseErr).WithFields(logrus.Fields{
			"key":        key,
			"field_type": ft,
			"value":      text,
		}).Info("lenient coercion fallback")
	}
	if v == nil {
		return nil, filter.Errorf(filter.ErrCoercionFailure, key, "cannot parse %q as %s", text, ft)
	}
	return v, nil
}

func (e *evaluation) coerceValue(f *filter.FilterRequest) (any, error) {
	if f.Value == nil {
		return nil, filter.Errorf(filter.ErrMissingRequiredValue, f.Key, "%s requires value", f.Operator.Normalize())
	}
	ft, ok, err := fieldType(f)
	if err != nil {
		return nil, err
	}
	if !ok {
		ft = filter.InferFieldType(f.Value)
	}
	return e.coerce(f.Key, ft, f.Value)
}

// textType is the SQL type a column is cast to when compared as text.
const textType = "TEXT"

func castText(column clause.Column) clause.Expr {
	return clause.Expr{SQL: "CAST(? AS " + textType + ")", Vars: []any{column}}
}

// fits reports whether v can be bound against a column of the field's type
// without the database rejecting the comparison.
func fits(field *schema.Field, v any) bool {
	if field == nil {
		return true
	}
	switch field.DataType {
	case schema.Bool:
		_, ok := v.(bool)
		return ok
	case schema.Int, schema.Uint, schema.Float:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	case schema.String:
		_, ok := v.(string)
		return ok
	case schema.Time, "date":
		switch v.(type) {
		case time.Time, datatypes.Date:
			return true
		}
		return false
	}
	return true
}

// comparand returns the left-hand side to compare values against. When any
// value does not fit the column, as a lenient fallback string on an integer
// column, the column is cast to text and every value is compared as its text.
func comparand(path *ResolvedPath, values ...any) (any, []any) {
	for _, v := range values {
		if fits(path.Field, v) {
			continue
		}
		texts := make([]any, len(values))
		for i, v := range values {
			texts[i] = filter.Stringify(v)
		}
		return castText(path.Column), texts
	}
	return path.Column, values
}

func evalEqual(e *evaluation, path *ResolvedPath, f *filter.FilterRequest) (clause.Expression, error) {
	v, err := e.coerceValue(f)
	if err != nil {
		return nil, err
	}
	column, values := comparand(path, v)
	return clause.Eq{Column: column, Value: values[0]}, nil
}

func evalNotEqual(e *evaluation, path *ResolvedPath, f *filter.FilterRequest) (clause.Expression, error) {
	v, err := e.coerceValue(f)
	if err != nil {
		return nil, err
	}
	column, values := comparand(path, v)
	return clause.Neq{Column: column, Value: values[0]}, nil
}

// lower folds the column for a case-insensitive match, casting non-text columns first.
func lower(path *ResolvedPath) clause.Expr {
	var column any = path.Column
	if path.Field != nil && path.Field.DataType != schema.String {
		column = castText(path.Column)
	}
	return clause.Expr{SQL: "LOWER(?)", Vars: []any{column}}
}

func containsPattern(v any) string {
	return "%" + strings.ToLower(filter.Stringify(v)) + "%"
}

func evalLike(_ *evaluation, path *ResolvedPath, f *filter.FilterRequest) (clause.Expression, error) {
	if f.Value == nil {
		return nil, filter.Errorf(filter.ErrMissingRequiredValue, f.Key, "LIKE requires value")
	}
	return clause.Like{Column: lower(path), Value: containsPattern(f.Value)}, nil
}

func evalLikeAny(_ *evaluation, path *ResolvedPath, f *filter.FilterRequest) (clause.Expression, error) {
	if len(f.Values) == 0 {
		return nil, filter.Errorf(filter.ErrMissingRequiredValue, f.Key, "LIKE_ANY requires values")
	}
	exprs := make([]clause.Expression, 0, len(f.Values))
	for i, v := range f.Values {
		if v == nil {
			return nil, filter.Errorf(filter.ErrMissingRequiredValue, f.Key, "LIKE_ANY value %d is null", i)
		}
		exprs = append(exprs, clause.Like{Column: lower(path), Value: containsPattern(v)})
	}
	// a single OrConditions would be joined with OR by its parent
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return clause.Or(exprs...), nil
}

func evalIn(e *evaluation, path *ResolvedPath, f *filter.FilterRequest) (clause.Expression, error) {
	if len(f.Values) == 0 {
		return nil, filter.Errorf(filter.ErrMissingRequiredValue, f.Key, "IN requires values")
	}
	ft, ok, err := fieldType(f)
	if err != nil {
		return nil, err
	}
	if !ok {
		ft = filter.InferFieldType(f.Values[0])
	}
	values := make([]any, 0, len(f.Values))
	for i, raw := range f.Values {
		if raw == nil {
			return nil, filter.Errorf(filter.ErrMissingRequiredValue, f.Key, "IN value %d is null", i)
		}
		v, err := e.coerce(f.Key, ft, raw)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	column, values := comparand(path, values...)
	return clause.IN{Column: column, Values: values}, nil
}

func evalBetween(e *evaluation, path *ResolvedPath, f *filter.FilterRequest) (clause.Expression, error) {
	ft, ok, err := fieldType(f)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, filter.Errorf(filter.ErrMissingRequiredValue, f.Key, "BETWEEN requires field_type")
	}
	if f.Value == nil || f.ValueTo == nil {
		return nil, filter.Errorf(filter.ErrMissingRequiredValue, f.Key, "BETWEEN requires value and value_to")
	}
	if ft == filter.FieldTypeBoolean {
		if e.coercion == filter.CoercionStrict {
			return nil, filter.Errorf(filter.ErrUnsupportedOperatorForType, f.Key, "BETWEEN is not supported for %s", ft)
		}
		e.logger.WithField("key", f.Key).Info("BETWEEN is not supported for BOOLEAN, filter ignored")
		return nil, nil
	}

	from, err := e.coerce(f.Key, ft, f.Value)
	if err != nil {
		return nil, err
	}
	to, err := e.coerce(f.Key, ft, f.ValueTo)
	if err != nil {
		return nil, err
	}
	column, bounds := comparand(path, from, to)
	return clause.And(
		clause.Gte{Column: column, Value: bounds[0]},
		clause.Lte{Column: column, Value: bounds[1]},
	), nil
}

func evalIsNull(_ *evaluation, path *ResolvedPath, _ *filter.FilterRequest) (clause.Expression, error) {
	return clause.Eq{Column: path.Column, Value: nil}, nil
}

func evalIsNotNull(_ *evaluation, path *ResolvedPath, _ *filter.FilterRequest) (clause.Expression, error) {
	return clause.Neq{Column: path.Column, Value: nil}, nil
}
