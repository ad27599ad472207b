package entity

import "database/sql"

// User is a read-only view of the platform users table. Wallets are
// provisioned by another service, this one only reads the address.
type User struct {
	Base
	Name          string
	WalletAddress sql.NullString `gorm:"size:42"`
}
