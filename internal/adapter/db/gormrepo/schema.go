package gormrepo

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"users-api/internal/domain/user"
)

// UserSchema represents the database schema for the users table.
// CreatedAt is assigned by the column default and never written by the application.
type UserSchema struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"size:100;not null"`
	Email     string    `gorm:"size:120;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;autoCreateTime:false;<-:false"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func (m UserSchema) toDomain() user.User {
	return user.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		CreatedAt: m.CreatedAt,
	}
}

// AutoMigrate creates the users table and its unique email index when the
// table is absent. An existing table is left exactly as it is. It must succeed
// before the service accepts requests.
func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB")
	}

	m := db.Migrator()
	if m.HasTable(&UserSchema{}) {
		return nil
	}
	if err := m.CreateTable(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to bootstrap users table: %w", err)
	}
	return nil
}
