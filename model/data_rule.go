// model/data_rule.go
package model

// DataRule operators: how a rule combines with its siblings
const (
	RuleOperatorAnd = 0
	RuleOperatorOr  = 1
)

// DataRule expressions
const (
	RuleExprEq = iota
	RuleExprNe
	RuleExprGt
	RuleExprGe
	RuleExprLt
	RuleExprLe
	RuleExprIn
	RuleExprNotIn
)

// DataRule is one row-filtering predicate template. Model and Column are
// validated against the static model registry at compile time, not only at
// creation time, because the registry can change independently of stored
// rules.
type DataRule struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"size:255;uniqueIndex" json:"name"`
	Model      string `gorm:"size:50" json:"model"`
	Column     string `gorm:"size:20" json:"column"`
	Operator   int    `json:"operator"`
	Expression int    `json:"expression"`
	Value      string `gorm:"size:255" json:"value"`

	Roles []Role `gorm:"many2many:sys_role_data_rule" json:"-"`
}

func (DataRule) TableName() string { return "sys_data_rule" }
