package models

import "time"

// Seat status values.
const (
	SeatStatusActive   = "active"
	SeatStatusInactive = "inactive"
)

// Seat maps to the `seats` table: one shared VPN account with a fixed
// number of device slots. Credentials are stored as opaque ciphertext.
type Seat struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"column:email;size:300;uniqueIndex;not null" json:"email"`
	PassEnc   []byte    `gorm:"column:pass_enc;type:blob" json:"-"`
	SecretEnc []byte    `gorm:"column:secret_enc;type:blob" json:"-"`
	MaxSlots  int       `gorm:"column:max_slots;default:15" json:"max_slots"`
	Sold      int       `gorm:"column:sold;default:0" json:"sold"`
	Status    string    `gorm:"column:status;size:20;default:active" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Seat) TableName() string {
	return "seats"
}

// FreeSlots returns remaining capacity.
func (s *Seat) FreeSlots() int {
	return s.MaxSlots - s.Sold
}
