package models

// Wallet maps to the `wallets` table, one row per user. All amounts
// are non-negative and in the smallest currency unit.
type Wallet struct {
	ID             uint  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID         uint  `gorm:"column:user_id;uniqueIndex;not null" json:"user_id"`
	Balance        int64 `gorm:"column:balance;default:0" json:"balance"`
	FreeCredit     int64 `gorm:"column:free_credit;default:0" json:"free_credit"`
	ReferralEarned int64 `gorm:"column:referral_earned;default:0" json:"referral_earned"`
}

func (Wallet) TableName() string {
	return "wallets"
}
