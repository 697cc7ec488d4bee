// errors/entity_errors.go
package errors

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserConflict     = errors.New("user already registered")
	ErrNicknameConflict = errors.New("nickname already registered")
	ErrEmailConflict    = errors.New("email already registered")

	ErrRoleNotFound = errors.New("role not found")
	ErrRoleConflict = errors.New("role already exists")

	ErrMenuNotFound    = errors.New("menu not found")
	ErrMenuConflict    = errors.New("menu title already exists")
	ErrMenuHasChildren = errors.New("menu has sub-menus, cannot delete")

	ErrDeptNotFound = errors.New("department not found")
	ErrDeptConflict = errors.New("department name already exists")
	ErrDeptHasUsers = errors.New("department has users, cannot delete")

	ErrDataRuleNotFound = errors.New("data rule not found")
	ErrDataRuleConflict = errors.New("data rule name already exists")

	// Data-scope compilation: referenced model or column is absent from the
	// static registry. This indicates corrupted rule configuration, not user
	// error, and is surfaced as a server-side failure mid-authorization.
	ErrRuleModelNotFound  = errors.New("data rule model does not exist")
	ErrRuleColumnNotFound = errors.New("data rule model column does not exist")

	ErrTaskNotFound = errors.New("task not found")

	ErrForbiddenOperation = errors.New("illegal operation")
	ErrDatabaseOperation  = errors.New("database operation failed")
)
