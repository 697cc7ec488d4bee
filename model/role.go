// model/role.go
package model

// Role bundles menu permissions and data rules. Role name is unique.
type Role struct {
	ID     int64  `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:20;uniqueIndex" json:"name"`
	Status int    `gorm:"default:1" json:"status"`
	Remark string `gorm:"type:text" json:"remark"`

	Users []User     `gorm:"many2many:sys_user_role" json:"-"`
	Menus []Menu     `gorm:"many2many:sys_role_menu" json:"menus,omitempty"`
	Rules []DataRule `gorm:"many2many:sys_role_data_rule" json:"rules,omitempty"`
}

func (Role) TableName() string { return "sys_role" }
