package models

import "time"

// Setting maps to the `settings` table (key-value config).
type Setting struct {
	Key string `gorm:"column:key;primaryKey;size:100" json:"key"`
	Val string `gorm:"column:val;type:text" json:"val"`
}

func (Setting) TableName() string {
	return "settings"
}

// Card maps to the `cards` table: bank transfer targets shown to
// buyers. Independent of the order flow.
type Card struct {
	ID         uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Title      string    `gorm:"column:title;size:200;not null" json:"title"`
	CardNumber string    `gorm:"column:card_number;size:50;not null" json:"card_number"`
	Active     bool      `gorm:"column:active;default:true;index" json:"active"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Card) TableName() string {
	return "cards"
}

// UtmStat maps to the `utm_stats` table, keyed by campaign keyword.
// All three counters are monotonically non-decreasing.
type UtmStat struct {
	Keyword string `gorm:"column:keyword;primaryKey;size:100" json:"keyword"`
	Starts  int64  `gorm:"column:starts;default:0" json:"starts"`
	Buys    int64  `gorm:"column:buys;default:0" json:"buys"`
	Amount  int64  `gorm:"column:amount;default:0" json:"amount"`
}

func (UtmStat) TableName() string {
	return "utm_stats"
}
