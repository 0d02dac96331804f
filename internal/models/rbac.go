package models

import (
	"time"

	"github.com/google/uuid"
)

// Default role names seeded at startup.
const (
	RoleAdmin        = "admin"
	RoleOrganization = "organization"
	RoleIndividual   = "individual"
)

// Role groups a set of permissions under a name.
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission is a resource+action capability, e.g. {users, update}.
type Permission struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Resource    string    `gorm:"size:100;not null;index:idx_permissions_resource_action" json:"resource"`
	Action      string    `gorm:"size:50;not null;index:idx_permissions_resource_action" json:"action"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserRole binds a user to a role; the pair is unique.
type UserRole struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_pair" json:"user_id"`
	RoleID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_pair" json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Role      Role      `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
}

// RolePermission binds a role to a permission; the pair is unique.
type RolePermission struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RoleID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_role_permissions_pair" json:"role_id"`
	PermissionID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_role_permissions_pair" json:"permission_id"`
	CreatedAt    time.Time  `json:"created_at"`
	Role         Role       `gorm:"foreignKey:RoleID;constraint:OnDelete:CASCADE" json:"-"`
	Permission   Permission `gorm:"foreignKey:PermissionID;constraint:OnDelete:CASCADE" json:"-"`
}
