package audit

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is the trail left by a successful transfer.
type Record struct {
	ID        int             `json:"transferId" db:"id"`
	FromID    int             `json:"fromId" db:"from_id"`
	ToID      int             `json:"toId" db:"to_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

func New(fromID, toID int, amount decimal.Decimal, at time.Time) Record {
	return Record{
		FromID:    fromID,
		ToID:      toID,
		Amount:    amount,
		CreatedAt: at,
	}
}

// SelfTransfer reports whether the record moved funds within one account.
func (r Record) SelfTransfer() bool {
	return r.FromID == r.ToID
}
