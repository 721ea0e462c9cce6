package model

import "time"

// User 后台用户表 — 对应 users
type User struct {
	ID           int64     `gorm:"primaryKey"                        json:"id"`
	Email        string    `gorm:"type:varchar(255);not null;unique" json:"email"`
	FullName     *string   `gorm:"type:varchar(255)"                 json:"full_name,omitempty"`
	PasswordHash string    `gorm:"type:varchar(255);not null"        json:"-"`
	IsActive     bool      `gorm:"not null;default:true"             json:"is_active"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// 关联
	Roles []Role `gorm:"many2many:user_roles" json:"roles,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// HasRole 判断用户是否拥有指定角色
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames 返回用户角色名列表
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// Role 角色表 — 对应 roles
type Role struct {
	ID   int64  `gorm:"primaryKey"                       json:"id"`
	Name string `gorm:"type:varchar(50);not null;unique" json:"name"`

	// 关联
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }

// Permission 权限表 — 对应 permissions
type Permission struct {
	ID          int64   `gorm:"primaryKey"               json:"id"`
	Code        string  `gorm:"type:varchar(100);unique" json:"code"`
	Description *string `gorm:"type:text"                json:"description,omitempty"`
}

// TableName 指定表名
func (Permission) TableName() string { return "permissions" }

// RefreshToken 刷新令牌表 — 对应 refresh_tokens
// 每次刷新都会吊销旧 jti 并签发新记录（轮换）
type RefreshToken struct {
	ID        int64      `gorm:"primaryKey"                        json:"id"`
	JTI       string     `gorm:"type:varchar(128);not null;unique;column:jti" json:"jti"`
	UserID    int64      `gorm:"not null"                          json:"user_id"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Revoked   bool       `gorm:"not null;default:false"            json:"revoked"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (RefreshToken) TableName() string { return "refresh_tokens" }
