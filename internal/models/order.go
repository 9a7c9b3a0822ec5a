package models

import "time"

// Order status values. The set is closed: unknown values are rejected
// at the deserialization boundary.
const (
	OrderStatusPending  = "pending"
	OrderStatusReceipt  = "receipt"
	OrderStatusApproved = "approved"
	OrderStatusRejected = "rejected"
)

// ValidOrderStatus reports whether s is a member of the status enum.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusReceipt, OrderStatusApproved, OrderStatusRejected:
		return true
	}
	return false
}

// Order maps to the `orders` table. Amount is kept in the smallest
// currency unit; no floating point anywhere in the money path.
type Order struct {
	ID            uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID        uint       `gorm:"column:user_id;index;not null" json:"user_id"`
	Amount        int64      `gorm:"column:amount;not null" json:"amount"`
	Currency      string     `gorm:"column:currency;size:10;default:IRT" json:"currency"`
	Status        string     `gorm:"column:status;size:20;default:pending;index" json:"status"`
	SeatID        *uint      `gorm:"column:seat_id;index" json:"seat_id,omitempty"`
	UTMKeyword    string     `gorm:"column:utm_keyword;size:100" json:"utm_keyword"`
	TwofaCount    int        `gorm:"column:twofa_count;default:0" json:"twofa_count"`
	TwofaLast     *time.Time `gorm:"column:twofa_last" json:"twofa_last,omitempty"`
	TwofaDisabled bool       `gorm:"column:twofa_disabled;default:false" json:"twofa_disabled"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
	ApprovedAt    *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// Terminal reports whether the order reached a final status.
func (o *Order) Terminal() bool {
	return o.Status == OrderStatusApproved || o.Status == OrderStatusRejected
}

// Receipt maps to the `receipts` table, one per order. It points at
// the uploaded proof-of-payment file and the message that carried it.
type Receipt struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID      uint      `gorm:"column:order_id;uniqueIndex;not null" json:"order_id"`
	TgFileID     string    `gorm:"column:tg_file_id;size:300" json:"tg_file_id"`
	OrigChatID   int64     `gorm:"column:orig_chat_id" json:"orig_chat_id"`
	ChannelMsgID int       `gorm:"column:channel_msg_id" json:"channel_msg_id"`
	Tracking     string    `gorm:"column:tracking;size:64" json:"tracking"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Receipt) TableName() string {
	return "receipts"
}

// OrderLog maps to the append-only `order_log` table. OrderID is
// nullable: broadcast and operator events are not tied to an order.
type OrderLog struct {
	ID      uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID *uint     `gorm:"column:order_id;index" json:"order_id,omitempty"`
	Event   string    `gorm:"column:event;type:text;not null" json:"event"`
	TS      time.Time `gorm:"column:ts;autoCreateTime" json:"ts"`
}

func (OrderLog) TableName() string {
	return "order_log"
}
