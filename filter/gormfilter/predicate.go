package gormfilter

import (
	"gorm.io/gorm/clause"
)

// Predicate is an immutable conjunction of expressions.
// The zero value is the identity-true predicate.
type Predicate struct {
	exprs []clause.Expression
}

// And returns a predicate that also requires expr. A nil expr returns p itself.
func (p Predicate) And(expr clause.Expression) Predicate {
	if expr == nil {
		return p
	}
	return Predicate{exprs: append(p.exprs[:len(p.exprs):len(p.exprs)], expr)}
}

func (p Predicate) IsIdentity() bool {
	return len(p.exprs) == 0
}

// Exprs returns the conjoined expressions in the order they were added.
func (p Predicate) Exprs() []clause.Expression {
	return p.exprs
}

// Expression returns the conjunction, or nil for the identity predicate.
func (p Predicate) Expression() clause.Expression {
	if p.IsIdentity() {
		return nil
	}
	return clause.And(p.exprs...)
}

func (p Predicate) Build(builder clause.Builder) {
	if p.IsIdentity() {
		_, _ = builder.WriteString("1 = 1")
		return
	}
	p.Expression().Build(builder)
}
