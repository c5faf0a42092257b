package gormfilter

import (
	"cmp"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/theplant/searchspec/filter"
)

// Specification is the query form of a search request: a predicate, the joins its
// paths need and the orderings, all against one root schema.
type Specification struct {
	Where  Predicate
	Joins  []clause.Join
	Orders []clause.OrderByColumn
}

// Apply adds the joins, the predicate and the orderings of s to db.
func (s *Specification) Apply(db *gorm.DB) *gorm.DB {
	if s == nil {
		return db
	}
	if len(s.Joins) > 0 {
		db = db.Clauses(clause.From{Joins: s.Joins})
	}
	if expr := s.Where.Expression(); expr != nil {
		db = db.Where(expr)
	}
	if len(s.Orders) > 0 {
		db = db.Clauses(clause.OrderBy{Columns: s.Orders})
	}
	return db
}

// ApplyFilter is Apply without the orderings, as needed by count queries.
func (s *Specification) ApplyFilter(db *gorm.DB) *gorm.DB {
	if s == nil {
		return db
	}
	return (&Specification{Where: s.Where, Joins: s.Joins}).Apply(db)
}

type Option func(*Builder)

// WithCoercion selects how values that do not parse as their field type are treated.
func WithCoercion(c filter.Coercion) Option {
	return func(b *Builder) {
		b.coercion = c
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// Builder builds specifications. It is immutable and safe for concurrent use.
type Builder struct {
	coercion filter.Coercion
	logger   logrus.FieldLogger
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		coercion: filter.CoercionLenient,
		logger:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Coercion() filter.Coercion {
	return b.coercion
}

// Build folds filters into a predicate and resolves sorts, sharing one join set.
// Any failure aborts the build; no partial specification is returned.
func (b *Builder) Build(sch *schema.Schema, filters []*filter.FilterRequest, sorts []*filter.SortRequest) (*Specification, error) {
	if sch == nil {
		return nil, errors.New("schema is nil")
	}

	r := NewResolver(sch)
	e := &evaluation{coercion: b.coercion, logger: b.logger}

	var (
		joins JoinSet
		where Predicate
	)
	for _, f := range lo.Compact(filters) {
		op, err := lookupOperator(f)
		if err != nil {
			return nil, err
		}
		var path *ResolvedPath
		joins, path, err = r.Resolve(joins, f.Key)
		if err != nil {
			return nil, err
		}
		expr, err := op(e, path, f)
		if err != nil {
			return nil, err
		}
		where = where.And(expr)
	}

	var orders []clause.OrderByColumn
	for _, s := range lo.Compact(sorts) {
		var (
			order clause.OrderByColumn
			err   error
		)
		joins, order, err = r.resolveSort(joins, s)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	b.logger.WithFields(logrus.Fields{
		"table":      sch.Table,
		"predicates": len(where.Exprs()),
		"sorts":      len(orders),
		"joins":      joins.Len(),
	}).Debug("search specification built")

	return &Specification{
		Where:  where,
		Joins:  joins.Joins(),
		Orders: orders,
	}, nil
}

// ParseSchema parses the schema of the model or destination of db.
func ParseSchema(db *gorm.DB) (*schema.Schema, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	model := cmp.Or(db.Statement.Model, db.Statement.Dest)
	if model == nil {
		return nil, errors.New("model is nil")
	}
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, errors.Wrap(err, "parse schema with db")
	}
	return stmt.Schema, nil
}

// Scope applies an already built specification.
func Scope(spec *Specification) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if db == nil {
			return nil
		}
		return spec.Apply(db)
	}
}

// ScopeRequest builds a specification against the model of db and applies it.
// Failures are added to db.
func ScopeRequest(filters []*filter.FilterRequest, sorts []*filter.SortRequest, opts ...Option) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if db == nil {
			return nil
		}
		sch, err := ParseSchema(db)
		if err != nil {
			db.AddError(err)
			return db
		}
		spec, err := NewBuilder(opts...).Build(sch, filters, sorts)
		if err != nil {
			db.AddError(err)
			return db
		}
		return spec.Apply(db)
	}
}
