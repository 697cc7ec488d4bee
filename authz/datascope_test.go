// authz/datascope_test.go
package authz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/config"
	aegis_errors "github.com/aegis-admin/aegis/errors"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/model"
)

func scopeEngine() *authz.Engine {
	registry := authz.NewModelRegistry([]string{"id", "del_flag"})
	registry.Register("User", "sys_user", []string{"id", "username", "dept_id", "status"})
	registry.Register("Dept", "sys_dept", []string{"id", "name", "parent_id"})
	return authz.NewEngine(config.RBACConfiguration{Mode: authz.ModeMenuPerm}, registry, nil)
}

func identWithRules(rules ...identity.RuleView) *identity.Snapshot {
	return &identity.Snapshot{
		ID: 1,
		Roles: []identity.RoleView{
			{ID: 1, Status: model.StatusEnabled, Rules: rules},
		},
	}
}

func TestCompilePredicateSuperuserIsUniversal(t *testing.T) {
	engine := scopeEngine()
	ident := &identity.Snapshot{ID: 1, IsSuperuser: true}

	pred, err := engine.CompilePredicate(ident, "User")
	require.NoError(t, err)
	assert.True(t, pred.IsUniversal())
	assert.Equal(t, "1 = 1", pred.SQL)
}

func TestCompilePredicateNoRulesIsUniversal(t *testing.T) {
	engine := scopeEngine()

	pred, err := engine.CompilePredicate(identWithRules(), "User")
	require.NoError(t, err)
	assert.True(t, pred.IsUniversal())
}

func TestCompilePredicateSingleRule(t *testing.T) {
	engine := scopeEngine()
	ident := identWithRules(identity.RuleView{
		ID: 1, Model: "User", Column: "dept_id",
		Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "5",
	})

	pred, err := engine.CompilePredicate(ident, "User")
	require.NoError(t, err)
	assert.Equal(t, "(dept_id = ?)", pred.SQL)
	assert.Equal(t, []any{"5"}, pred.Args)
}

func TestCompilePredicateCombinesAndOrGroups(t *testing.T) {
	engine := scopeEngine()
	ident := identWithRules(
		identity.RuleView{ID: 1, Model: "User", Column: "dept_id", Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "5"},
		identity.RuleView{ID: 2, Model: "User", Column: "status", Operator: model.RuleOperatorAnd, Expression: model.RuleExprNe, Value: "0"},
		identity.RuleView{ID: 3, Model: "User", Column: "username", Operator: model.RuleOperatorOr, Expression: model.RuleExprEq, Value: "alice"},
	)

	pred, err := engine.CompilePredicate(ident, "User")
	require.NoError(t, err)
	// AND-marked rules conjoin, OR-marked rules disjoin, groups join with OR
	assert.Equal(t, "(dept_id = ? AND status <> ?) OR (username = ?)", pred.SQL)
	assert.Equal(t, []any{"5", "0", "alice"}, pred.Args)
}

func TestCompilePredicateDeduplicatesAcrossRoles(t *testing.T) {
	engine := scopeEngine()
	shared := identity.RuleView{
		ID: 1, Model: "User", Column: "dept_id",
		Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "5",
	}
	ident := &identity.Snapshot{
		ID: 1,
		Roles: []identity.RoleView{
			{ID: 1, Status: model.StatusEnabled, Rules: []identity.RuleView{shared}},
			{ID: 2, Status: model.StatusEnabled, Rules: []identity.RuleView{shared}},
		},
	}

	pred, err := engine.CompilePredicate(ident, "User")
	require.NoError(t, err)
	assert.Equal(t, "(dept_id = ?)", pred.SQL)
	assert.Len(t, pred.Args, 1, "a rule attached to several roles contributes once")
}

func TestCompilePredicateSkipsOtherModelConditions(t *testing.T) {
	engine := scopeEngine()
	ident := identWithRules(
		identity.RuleView{ID: 1, Model: "Dept", Column: "parent_id", Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "3"},
	)

	// A valid rule for another registered model contributes no condition to
	// this query, but it still passed validation above.
	pred, err := engine.CompilePredicate(ident, "User")
	require.NoError(t, err)
	assert.True(t, pred.IsUniversal())
}

func TestCompilePredicateValidatesEveryRuleRegardlessOfTarget(t *testing.T) {
	engine := scopeEngine()

	// A rule referencing an unregistered model fails compilation for any
	// target, even one the rule would never filter; it must not be skipped
	// into a universal predicate.
	ident := identWithRules(identity.RuleView{
		ID: 1, Model: "Ghost", Column: "dept_id",
		Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "5",
	})
	_, err := engine.CompilePredicate(ident, "User")
	assert.ErrorIs(t, err, aegis_errors.ErrRuleModelNotFound)

	// Same for a bad column on a rule targeting another registered model
	ident = identWithRules(identity.RuleView{
		ID: 2, Model: "Dept", Column: "secret",
		Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "x",
	})
	_, err = engine.CompilePredicate(ident, "User")
	assert.ErrorIs(t, err, aegis_errors.ErrRuleColumnNotFound)
}

func TestCompilePredicateMembershipSplitsValues(t *testing.T) {
	engine := scopeEngine()
	ident := identWithRules(identity.RuleView{
		ID: 1, Model: "User", Column: "dept_id",
		Operator: model.RuleOperatorOr, Expression: model.RuleExprIn, Value: "1, 2,3",
	})

	pred, err := engine.CompilePredicate(ident, "User")
	require.NoError(t, err)
	assert.Equal(t, "(dept_id IN ?)", pred.SQL)
	require.Len(t, pred.Args, 1)
	assert.Equal(t, []string{"1", "2", "3"}, pred.Args[0])
}

func TestCompilePredicateComparisonExpressions(t *testing.T) {
	engine := scopeEngine()
	cases := []struct {
		expression int
		wantSQL    string
	}{
		{model.RuleExprNe, "(dept_id <> ?)"},
		{model.RuleExprGt, "(dept_id > ?)"},
		{model.RuleExprGe, "(dept_id >= ?)"},
		{model.RuleExprLt, "(dept_id < ?)"},
		{model.RuleExprLe, "(dept_id <= ?)"},
	}

	for _, tc := range cases {
		ident := identWithRules(identity.RuleView{
			ID: 1, Model: "User", Column: "dept_id",
			Operator: model.RuleOperatorAnd, Expression: tc.expression, Value: "5",
		})
		pred, err := engine.CompilePredicate(ident, "User")
		require.NoError(t, err)
		assert.Equal(t, tc.wantSQL, pred.SQL)
	}
}

func TestCompilePredicateRejectsUnknownModel(t *testing.T) {
	engine := scopeEngine()
	ident := identWithRules(identity.RuleView{
		ID: 1, Model: "Order", Column: "dept_id",
		Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "5",
	})

	_, err := engine.CompilePredicate(ident, "Order")
	assert.ErrorIs(t, err, aegis_errors.ErrRuleModelNotFound)
}

func TestCompilePredicateRejectsUnknownColumn(t *testing.T) {
	engine := scopeEngine()
	ident := identWithRules(identity.RuleView{
		ID: 1, Model: "User", Column: "password",
		Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "x",
	})

	_, err := engine.CompilePredicate(ident, "User")
	assert.ErrorIs(t, err, aegis_errors.ErrRuleColumnNotFound)
}

func TestCompilePredicateRejectsExcludedColumn(t *testing.T) {
	// del_flag is globally excluded at registration, so a stored rule that
	// references it fails compilation even though the physical column exists
	engine := scopeEngine()
	ident := identWithRules(identity.RuleView{
		ID: 1, Model: "User", Column: "del_flag",
		Operator: model.RuleOperatorAnd, Expression: model.RuleExprEq, Value: "0",
	})

	_, err := engine.CompilePredicate(ident, "User")
	assert.ErrorIs(t, err, aegis_errors.ErrRuleColumnNotFound)
}

func TestModelRegistryFiltersExcludedColumns(t *testing.T) {
	registry := authz.NewModelRegistry([]string{"id"})
	registry.Register("User", "sys_user", []string{"id", "username"})

	desc, ok := registry.Lookup("User")
	require.True(t, ok)
	assert.Equal(t, []string{"username"}, desc.ColumnNames())
	assert.False(t, desc.HasColumn("id"))
	assert.Equal(t, []string{"User"}, registry.ModelNames())
}
