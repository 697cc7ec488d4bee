// model/log.go
package model

import "time"

// Login log statuses
const (
	LoginLogSuccess = 0
	LoginLogFail    = 1
)

// Operation log statuses
const (
	OperaLogSuccess = 0
	OperaLogFail    = 1
)

// LoginLog records one login attempt
type LoginLog struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserUUID    string    `gorm:"size:50" json:"user_uuid"`
	Username    string    `gorm:"size:20" json:"username"`
	Status      int       `gorm:"default:0" json:"status"`
	IP          string    `gorm:"size:50" json:"ip"`
	UserAgent   string    `gorm:"size:255" json:"user_agent"`
	OS          string    `gorm:"size:50" json:"os"`
	Browser     string    `gorm:"size:50" json:"browser"`
	Device      string    `gorm:"size:50" json:"device"`
	Msg         string    `gorm:"type:text" json:"msg"`
	LoginTime   time.Time `json:"login_time"`
	CreatedTime time.Time `gorm:"autoCreateTime" json:"created_time"`
}

func (LoginLog) TableName() string { return "sys_login_log" }

// OperaLog records one backend mutation request
type OperaLog struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	TraceID     string    `gorm:"size:32" json:"trace_id"`
	Username    string    `gorm:"size:20" json:"username"`
	Method      string    `gorm:"size:20" json:"method"`
	Title       string    `gorm:"size:255" json:"title"`
	Path        string    `gorm:"size:500" json:"path"`
	IP          string    `gorm:"size:50" json:"ip"`
	UserAgent   string    `gorm:"size:255" json:"user_agent"`
	Args        string    `gorm:"type:text" json:"args"`
	Status      int       `json:"status"`
	Code        string    `gorm:"size:20;default:200" json:"code"`
	Msg         string    `gorm:"type:text" json:"msg"`
	CostTime    float64   `gorm:"default:0" json:"cost_time"`
	OperaTime   time.Time `json:"opera_time"`
	CreatedTime time.Time `gorm:"autoCreateTime" json:"created_time"`
}

func (OperaLog) TableName() string { return "sys_opera_log" }
