package gormsearch

import (
	"context"
	"reflect"
	"strconv"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/theplant/searchspec/filter"
)

func parseSchema(db *gorm.DB, model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, errors.Wrap(err, "failed to parse schema for model")
	}
	return stmt.Schema, nil
}

// If T is not a struct or struct pointer, we need to use db.Statement.Model to find or count
func shouldBasedOnModel[T any](db *gorm.DB) (bool, error) {
	if db.Statement.Model != nil {
		return true, nil
	}
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() == reflect.Struct || (rt.Kind() == reflect.Ptr && rt.Elem().Kind() == reflect.Struct) {
		return false, nil
	}
	return false, errors.New("invalid model type: db.Statement.Model is nil and T is not a struct or struct pointer")
}

func applyModel[T any](db *gorm.DB) *gorm.DB {
	var t T
	modelType := reflect.TypeOf(t)
	if modelType.Kind() == reflect.Ptr && reflect.ValueOf(t).IsNil() {
		t = reflect.New(modelType.Elem()).Interface().(T)
	}
	return db.Model(t)
}

func primaryField(s *schema.Schema) (*schema.Field, error) {
	if s.PrioritizedPrimaryField == nil {
		return nil, errors.Errorf("schema %s has no primary key", s.Name)
	}
	return s.PrioritizedPrimaryField, nil
}

// primaryKeyValue parses the textual id of a path parameter into the type of the primary key.
func primaryKeyValue(field *schema.Field, id string) (any, error) {
	switch field.DataType {
	case schema.Int:
		v, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, filter.Errorf(filter.ErrCoercionFailure, field.Name, "invalid id %q", id)
		}
		return v, nil
	case schema.Uint:
		v, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			return nil, filter.Errorf(filter.ErrCoercionFailure, field.Name, "invalid id %q", id)
		}
		return v, nil
	}
	return id, nil
}

func primaryKeyEq(s *schema.Schema, field *schema.Field, value any) clause.Expression {
	return clause.Eq{Column: clause.Column{Table: s.Table, Name: field.DBName}, Value: value}
}

func primaryKeyOf(ctx context.Context, field *schema.Field, entity any) (any, bool) {
	return field.ValueOf(ctx, reflect.Indirect(reflect.ValueOf(entity)))
}
