package gormfilter

import (
	"strings"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/theplant/searchspec/filter"
)

// AliasSeparator joins relation names into the alias of a nested join.
const AliasSeparator = "__"

// ResolvedPath is a column reference usable in predicates and orderings.
type ResolvedPath struct {
	Column clause.Column
	Field  *schema.Field
}

type joinHandle struct {
	alias  string
	schema *schema.Schema
}

// JoinSet maps relation prefixes to the joins created for them.
// It is a value: With returns a new set and never modifies the receiver.
type JoinSet struct {
	byPrefix map[string]joinHandle
	joins    []clause.Join
}

// Joins returns the joins in creation order.
func (s JoinSet) Joins() []clause.Join {
	return s.joins
}

// Len returns the number of distinct relation prefixes joined.
func (s JoinSet) Len() int {
	return len(s.byPrefix)
}

func (s JoinSet) lookup(prefix string) (joinHandle, bool) {
	h, ok := s.byPrefix[prefix]
	return h, ok
}

func (s JoinSet) with(prefix string, h joinHandle, joins ...clause.Join) JoinSet {
	byPrefix := make(map[string]joinHandle, len(s.byPrefix)+1)
	for k, v := range s.byPrefix {
		byPrefix[k] = v
	}
	byPrefix[prefix] = h
	return JoinSet{
		byPrefix: byPrefix,
		joins:    append(s.joins[:len(s.joins):len(s.joins)], joins...),
	}
}

// Resolver turns dot-separated keys into column references on a root schema.
type Resolver struct {
	root *schema.Schema
}

func NewResolver(root *schema.Schema) *Resolver {
	return &Resolver{root: root}
}

// Resolve folds the segments of key over joins. Every segment but the last must name a
// relation; prefixes already present in joins are reused, new ones are inner-joined.
// The last segment must name a column.
func (r *Resolver) Resolve(joins JoinSet, key string) (JoinSet, *ResolvedPath, error) {
	segments := filter.SplitKey(key)
	if lo.Contains(segments, "") {
		return joins, nil, filter.Errorf(filter.ErrInvalidFieldReference, key, "empty path segment")
	}

	current := joinHandle{alias: r.root.Table, schema: r.root}
	var names []string
	for _, seg := range segments[:len(segments)-1] {
		rel := lookupRelation(current.schema, seg)
		if rel == nil {
			return joins, nil, filter.Errorf(filter.ErrInvalidFieldReference, key, "%q is not a relation of %s", seg, current.schema.Name)
		}
		names = append(names, rel.Name)

		prefix := strings.Join(names, ".")
		if h, ok := joins.lookup(prefix); ok {
			current = h
			continue
		}

		next := joinHandle{alias: strings.Join(names, AliasSeparator), schema: rel.FieldSchema}
		created, err := joinRelation(current.alias, next.alias, rel)
		if err != nil {
			return joins, nil, filter.WithKey(err, key)
		}
		joins = joins.with(prefix, next, created...)
		current = next
	}

	last := segments[len(segments)-1]
	field := lookupField(current.schema, last)
	if field == nil || field.DBName == "" {
		return joins, nil, filter.Errorf(filter.ErrInvalidFieldReference, key, "%q is not a column of %s", last, current.schema.Name)
	}
	return joins, &ResolvedPath{
		Column: clause.Column{Table: current.alias, Name: field.DBName},
		Field:  field,
	}, nil
}

func candidateNames(seg string) []string {
	return lo.Uniq([]string{seg, filter.SmartPascalCase(lo.CamelCase(seg))})
}

func lookupField(s *schema.Schema, seg string) *schema.Field {
	for _, name := range candidateNames(seg) {
		if f := s.LookUpField(name); f != nil {
			return f
		}
	}
	for _, f := range s.Fields {
		if strings.EqualFold(f.Name, seg) || (f.DBName != "" && strings.EqualFold(f.DBName, seg)) {
			return f
		}
	}
	return nil
}

func lookupRelation(s *schema.Schema, seg string) *schema.Relationship {
	for _, name := range candidateNames(seg) {
		if rel, ok := s.Relationships.Relations[name]; ok {
			return rel
		}
	}
	for name, rel := range s.Relationships.Relations {
		if strings.EqualFold(name, seg) {
			return rel
		}
	}
	return nil
}

func joinRelation(parentAlias, alias string, rel *schema.Relationship) ([]clause.Join, error) {
	if rel.FieldSchema == nil {
		return nil, filter.Errorf(filter.ErrInvalidFieldReference, "", "relation %s has no schema", rel.Name)
	}

	if rel.JoinTable != nil {
		joinTableAlias := alias + AliasSeparator + rel.JoinTable.Table
		var toJoinTable, toTarget []clause.Expression
		for _, ref := range rel.References {
			switch {
			case ref.OwnPrimaryKey:
				toJoinTable = append(toJoinTable, clause.Eq{
					Column: clause.Column{Table: parentAlias, Name: ref.PrimaryKey.DBName},
					Value:  clause.Column{Table: joinTableAlias, Name: ref.ForeignKey.DBName},
				})
			case ref.PrimaryValue != "":
				toJoinTable = append(toJoinTable, clause.Eq{
					Column: clause.Column{Table: joinTableAlias, Name: ref.ForeignKey.DBName},
					Value:  ref.PrimaryValue,
				})
			default:
				toTarget = append(toTarget, clause.Eq{
					Column: clause.Column{Table: joinTableAlias, Name: ref.ForeignKey.DBName},
					Value:  clause.Column{Table: alias, Name: ref.PrimaryKey.DBName},
				})
			}
		}
		return []clause.Join{
			innerJoin(rel.JoinTable.Table, joinTableAlias, toJoinTable),
			innerJoin(rel.FieldSchema.Table, alias, toTarget),
		}, nil
	}

	on := make([]clause.Expression, 0, len(rel.References))
	for _, ref := range rel.References {
		switch {
		case ref.OwnPrimaryKey:
			on = append(on, clause.Eq{
				Column: clause.Column{Table: parentAlias, Name: ref.PrimaryKey.DBName},
				Value:  clause.Column{Table: alias, Name: ref.ForeignKey.DBName},
			})
		case ref.PrimaryValue == "":
			on = append(on, clause.Eq{
				Column: clause.Column{Table: parentAlias, Name: ref.ForeignKey.DBName},
				Value:  clause.Column{Table: alias, Name: ref.PrimaryKey.DBName},
			})
		default:
			on = append(on, clause.Eq{
				Column: clause.Column{Table: alias, Name: ref.ForeignKey.DBName},
				Value:  ref.PrimaryValue,
			})
		}
	}
	return []clause.Join{innerJoin(rel.FieldSchema.Table, alias, on)}, nil
}

func innerJoin(table, alias string, on []clause.Expression) clause.Join {
	return clause.Join{
		Type:  clause.InnerJoin,
		Table: clause.Table{Name: table, Alias: alias},
		ON:    clause.Where{Exprs: on},
	}
}
