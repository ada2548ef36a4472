package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户表（身份管理属于外部协作方，这里仅保留核心字段）
type User struct {
	UserID       string     `gorm:"primaryKey;column:user_id;size:64" json:"user_id"`
	Username     string     `gorm:"column:username;size:100;uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"column:email;size:200;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;size:255;not null" json:"-"`
	Region       string     `gorm:"column:region;size:10" json:"region"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	LastActiveAt *time.Time `gorm:"column:last_active_at" json:"last_active_at"`
}

func (User) TableName() string {
	return "users"
}

// HashPassword 生成密码哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword 校验密码
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
