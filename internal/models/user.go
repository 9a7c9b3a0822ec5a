package models

import "time"

// User maps to the `users` table.
// Telegram chat IDs are kept in tg_id; the numeric primary key is the
// internal identity every other table references.
type User struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TgID      int64     `gorm:"column:tg_id;uniqueIndex;not null" json:"tg_id"`
	FirstName string    `gorm:"column:first_name;size:300" json:"first_name"`
	Username  string    `gorm:"column:username;size:300" json:"username"`
	IsAdmin   bool      `gorm:"column:is_admin;default:false" json:"is_admin"`
	Referrer  *uint     `gorm:"column:referrer" json:"referrer,omitempty"`
	// UTM is the campaign keyword the user arrived with, frozen at
	// first /start. Orders copy it so buys attribute to the campaign.
	UTM      string    `gorm:"column:utm;size:100" json:"utm,omitempty"`
	JoinedAt time.Time `gorm:"column:joined_at;autoCreateTime" json:"joined_at"`
}

func (User) TableName() string {
	return "users"
}

// AdminUser maps to the `admin_users` table used by the web panel login.
type AdminUser struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"column:username;size:50;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;type:text;not null" json:"-"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}
