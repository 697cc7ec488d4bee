// model/menu.go
package model

// Menu types
const (
	MenuTypeDirectory = 0
	MenuTypeMenu      = 1
	MenuTypeButton    = 2
)

// Menu is a node in the permission tree. Only enabled menus with a non-empty
// Perms string contribute to the allowed-permission set.
type Menu struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	Title     string `gorm:"size:50" json:"title"`
	Name      string `gorm:"size:50" json:"name"`
	Path      string `gorm:"size:200" json:"path"`
	Sort      int    `gorm:"default:0" json:"sort"`
	Icon      string `gorm:"size:100" json:"icon"`
	Type      int    `gorm:"default:0" json:"type"`
	Component string `gorm:"size:255" json:"component"`
	Perms     string `gorm:"size:100" json:"perms"`
	Status    int    `gorm:"default:1" json:"status"`
	Display   int    `gorm:"default:1" json:"display"`
	Remark    string `gorm:"type:text" json:"remark"`

	ParentID *int64  `gorm:"index" json:"parent_id"`
	Children []*Menu `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"children,omitempty"`

	Roles []Role `gorm:"many2many:sys_role_menu" json:"-"`
}

func (Menu) TableName() string { return "sys_menu" }
