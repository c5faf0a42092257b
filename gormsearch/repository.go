package gormsearch

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/theplant/searchspec"
	"github.com/theplant/searchspec/filter/gormfilter"
)

// Repository provides search and CRUD operations for the entity T, a struct type.
type Repository[T any] struct {
	db       *gorm.DB
	searcher searchspec.Searcher[T]
}

func NewRepository[T any](db *gorm.DB, opts ...Option[T]) *Repository[T] {
	return &Repository[T]{
		db:       db,
		searcher: NewSearcher[T](db, opts...),
	}
}

func (r *Repository[T]) session(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *Repository[T]) schema() (*schema.Schema, error) {
	return parseSchema(r.db, new(T))
}

// Search runs a filtered, sorted and paged search.
func (r *Repository[T]) Search(ctx context.Context, req *searchspec.SearchRequest) (*searchspec.Page[T], error) {
	return r.searcher.Search(ctx, req)
}

// FindAll returns the zero-based page of all entities. Negative values are taken by
// absolute value and a size of 0 is searchspec.DefaultPageSize.
func (r *Repository[T]) FindAll(ctx context.Context, page, size int) (*searchspec.Page[T], error) {
	// the search request is 1-based
	p := searchspec.Abs(page)
	if p < math.MaxInt {
		p++
	}
	return r.searcher.Search(ctx, &searchspec.SearchRequest{Page: &p, Size: &size})
}

// List returns all entities.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	var nodes []T
	if err := r.session(ctx).Find(&nodes).Error; err != nil {
		return nil, searchspec.WrapDataAccess(err, "find")
	}
	if nodes == nil {
		nodes = []T{}
	}
	return nodes, nil
}

// FindByID returns the entity whose primary key is id, or an error wrapping searchspec.ErrNotFound.
func (r *Repository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	s, err := r.schema()
	if err != nil {
		return nil, err
	}
	pk, err := primaryField(s)
	if err != nil {
		return nil, err
	}
	value, err := primaryKeyValue(pk, id)
	if err != nil {
		return nil, err
	}
	return r.first(ctx, s, pk, value)
}

func (r *Repository[T]) first(ctx context.Context, s *schema.Schema, pk *schema.Field, value any) (*T, error) {
	var node T
	err := r.session(ctx).Where(primaryKeyEq(s, pk, value)).Take(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(searchspec.ErrNotFound, "%s with %s %v", s.Name, pk.Name, value)
	}
	if err != nil {
		return nil, searchspec.WrapDataAccess(err, "find by id")
	}
	return &node, nil
}

// Save inserts entity.
func (r *Repository[T]) Save(ctx context.Context, entity *T) (*T, error) {
	if err := r.session(ctx).Create(entity).Error; err != nil {
		return nil, searchspec.WrapDataAccess(err, "save")
	}
	return entity, nil
}

// Update writes the non-zero fields of entity onto the stored entity with the same
// primary key and returns the result. The entity must exist.
func (r *Repository[T]) Update(ctx context.Context, entity *T) (*T, error) {
	s, err := r.schema()
	if err != nil {
		return nil, err
	}
	pk, err := primaryField(s)
	if err != nil {
		return nil, err
	}
	value, zero := primaryKeyOf(ctx, pk, entity)
	if zero {
		return nil, errors.Wrapf(searchspec.ErrNotFound, "%s without %s", s.Name, pk.Name)
	}

	var updated *T
	err = r.session(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &Repository[T]{db: tx, searcher: r.searcher}
		if _, err := txRepo.first(ctx, s, pk, value); err != nil {
			return err
		}
		if err := tx.Model(entity).Omit(clause.Associations).Updates(entity).Error; err != nil {
			return searchspec.WrapDataAccess(err, "update")
		}
		updated, err = txRepo.first(ctx, s, pk, value)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the entity whose primary key is id. The entity must exist.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	s, err := r.schema()
	if err != nil {
		return err
	}
	pk, err := primaryField(s)
	if err != nil {
		return err
	}
	value, err := primaryKeyValue(pk, id)
	if err != nil {
		return err
	}

	return r.session(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &Repository[T]{db: tx, searcher: r.searcher}
		node, err := txRepo.first(ctx, s, pk, value)
		if err != nil {
			return err
		}
		if err := tx.Delete(node).Error; err != nil {
			return searchspec.WrapDataAccess(err, "delete")
		}
		return nil
	})
}

// DistinctValues returns the distinct values of the column key refers to, in ascending order.
// The key is resolved like a filter key, so it may traverse relations.
func (r *Repository[T]) DistinctValues(ctx context.Context, key string) ([]any, error) {
	s, err := r.schema()
	if err != nil {
		return nil, err
	}

	joins, path, err := gormfilter.NewResolver(s).Resolve(gormfilter.JoinSet{}, key)
	if err != nil {
		return nil, err
	}

	tx := r.session(ctx).Model(new(T))
	if len(joins.Joins()) > 0 {
		tx = tx.Clauses(clause.From{Joins: joins.Joins()})
	}
	rows, err := tx.
		Clauses(
			clause.Select{Distinct: true, Columns: []clause.Column{path.Column}},
			clause.OrderBy{Columns: []clause.OrderByColumn{{Column: path.Column}}},
		).
		Rows()
	if err != nil {
		return nil, searchspec.WrapDataAccess(err, "distinct values")
	}
	defer rows.Close()

	values := []any{}
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, searchspec.WrapDataAccess(err, "scan distinct value")
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, searchspec.WrapDataAccess(err, "distinct values")
	}
	return values, nil
}
