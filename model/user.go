// model/user.go
package model

import "time"

// User statuses
const (
	StatusDisabled = 0
	StatusEnabled  = 1
)

// User is the admin-panel account record
type User struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	UUID          string     `gorm:"size:50;uniqueIndex" json:"uuid"`
	Username      string     `gorm:"size:20;uniqueIndex" json:"username"`
	Nickname      string     `gorm:"size:20;unique" json:"nickname"`
	Password      string     `gorm:"size:255" json:"-"`
	Email         string     `gorm:"size:50;uniqueIndex" json:"email"`
	IsSuperuser   bool       `gorm:"default:false" json:"is_superuser"`
	IsStaff       bool       `gorm:"default:false" json:"is_staff"`
	Status        int        `gorm:"default:1;index" json:"status"`
	IsMultiLogin  bool       `gorm:"default:false" json:"is_multi_login"`
	Avatar        string     `gorm:"size:255" json:"avatar"`
	Phone         string     `gorm:"size:11" json:"phone"`
	JoinTime      time.Time  `gorm:"autoCreateTime" json:"join_time"`
	LastLoginTime *time.Time `json:"last_login_time"`

	DeptID *int64 `json:"dept_id"`
	Dept   *Dept  `gorm:"constraint:OnDelete:SET NULL" json:"dept,omitempty"`

	Roles []Role `gorm:"many2many:sys_user_role" json:"roles,omitempty"`
}

func (User) TableName() string { return "sys_user" }
