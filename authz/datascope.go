// authz/datascope.go
package authz

import (
	"fmt"
	"strings"

	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/model"
)

// Predicate is a compiled row filter applied by the query layer as an
// additional WHERE clause (gorm: db.Where(p.SQL, p.Args...)).
type Predicate struct {
	SQL  string
	Args []any
}

// Universal is the no-filtering predicate
var Universal = Predicate{SQL: "1 = 1"}

// IsUniversal reports whether the predicate filters nothing
func (p Predicate) IsUniversal() bool {
	return p.SQL == Universal.SQL
}

// CompilePredicate builds the data-scope row filter for one target model.
// Superusers and identities with no rules get the universal predicate.
// Rules are deduplicated across roles, each is validated against the static
// model registry, and the atomic conditions combine as
// (AND-group) OR (OR-group): AND-marked rules conjoin, OR-marked rules
// disjoin, and the two groups join with OR at the top level. That top-level
// OR is deliberate and load-bearing; changing it to AND silently alters
// authorization outcomes.
func (e *Engine) CompilePredicate(ident *identity.Snapshot, targetModel string) (Predicate, error) {
	if ident.IsSuperuser {
		return Universal, nil
	}

	seen := make(map[int64]struct{})
	var rules []identity.RuleView
	for _, role := range ident.Roles {
		for _, rule := range role.Rules {
			if _, dup := seen[rule.ID]; dup {
				continue
			}
			seen[rule.ID] = struct{}{}
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 {
		return Universal, nil
	}

	// Every collected rule is validated, not only the ones matching the
	// target: a rule referencing an unregistered model or column is corrupt
	// configuration and must fail the query rather than silently widen it.
	for _, rule := range rules {
		desc, ok := e.registry.Lookup(rule.Model)
		if !ok {
			return Predicate{}, fmt.Errorf("%w: %q", aegis_errors.ErrRuleModelNotFound, rule.Model)
		}
		if !desc.HasColumn(rule.Column) {
			return Predicate{}, fmt.Errorf("%w: %s.%s", aegis_errors.ErrRuleColumnNotFound, rule.Model, rule.Column)
		}
	}

	var andParts, orParts []string
	var andArgs, orArgs []any

	for _, rule := range rules {
		if rule.Model != targetModel {
			continue
		}
		sql, arg, ok := buildCondition(rule)
		if !ok {
			continue
		}
		switch rule.Operator {
		case model.RuleOperatorAnd:
			andParts = append(andParts, sql)
			andArgs = append(andArgs, arg)
		case model.RuleOperatorOr:
			orParts = append(orParts, sql)
			orArgs = append(orArgs, arg)
		}
	}

	var groups []string
	var args []any
	if len(andParts) > 0 {
		groups = append(groups, "("+strings.Join(andParts, " AND ")+")")
		args = append(args, andArgs...)
	}
	if len(orParts) > 0 {
		groups = append(groups, "("+strings.Join(orParts, " OR ")+")")
		args = append(args, orArgs...)
	}
	if len(groups) == 0 {
		return Universal, nil
	}
	return Predicate{SQL: strings.Join(groups, " OR "), Args: args}, nil
}

// buildCondition turns one rule into an atomic SQL condition. Column names
// are registry-validated by the caller, so interpolating them is safe;
// values always go through placeholders.
func buildCondition(rule identity.RuleView) (string, any, bool) {
	switch rule.Expression {
	case model.RuleExprEq:
		return rule.Column + " = ?", rule.Value, true
	case model.RuleExprNe:
		return rule.Column + " <> ?", rule.Value, true
	case model.RuleExprGt:
		return rule.Column + " > ?", rule.Value, true
	case model.RuleExprGe:
		return rule.Column + " >= ?", rule.Value, true
	case model.RuleExprLt:
		return rule.Column + " < ?", rule.Value, true
	case model.RuleExprLe:
		return rule.Column + " <= ?", rule.Value, true
	case model.RuleExprIn:
		return rule.Column + " IN ?", splitValues(rule.Value), true
	case model.RuleExprNotIn:
		return rule.Column + " NOT IN ?", splitValues(rule.Value), true
	default:
		return "", nil, false
	}
}

func splitValues(value string) []string {
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
