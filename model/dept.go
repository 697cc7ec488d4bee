// model/dept.go
package model

// Dept is a node in the department tree
type Dept struct {
	ID      int64  `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:50" json:"name"`
	Sort    int    `gorm:"default:0" json:"sort"`
	Leader  string `gorm:"size:20" json:"leader"`
	Phone   string `gorm:"size:11" json:"phone"`
	Email   string `gorm:"size:50" json:"email"`
	Status  int    `gorm:"default:1" json:"status"`
	DelFlag bool   `gorm:"default:false" json:"del_flag"`

	ParentID *int64  `gorm:"index" json:"parent_id"`
	Children []*Dept `gorm:"foreignKey:ParentID;constraint:OnDelete:SET NULL" json:"children,omitempty"`

	Users []User `gorm:"foreignKey:DeptID" json:"-"`
}

func (Dept) TableName() string { return "sys_dept" }
