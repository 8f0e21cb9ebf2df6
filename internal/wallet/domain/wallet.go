package domain

import "time"

// Wallet is a user's on-ledger wallet. One wallet per user.
type Wallet struct {
	ID        string
	UserID    string
	Address   string // 0x-prefixed hex
	CreatedAt time.Time
}
