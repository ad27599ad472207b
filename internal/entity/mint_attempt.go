package entity

import (
	"database/sql"
	"fmt"

	"github.com/questx-lab/badge-minter/pkg/enum"
)

type MintAttemptStatus string

var (
	MintAttemptPending = enum.New(MintAttemptStatus("pending"), "pending")
	MintAttemptSuccess = enum.New(MintAttemptStatus("success"), "success")
	MintAttemptFailed  = enum.New(MintAttemptStatus("failed"), "failed")
)

type MintErrorCategory string

var (
	MintErrorNoWallet       = enum.New(MintErrorCategory("NoWallet"), "NoWallet")
	MintErrorChainRejected  = enum.New(MintErrorCategory("ChainRejected"), "ChainRejected")
	MintErrorUnresolvable   = enum.New(MintErrorCategory("Unresolvable"), "Unresolvable")
	MintErrorTransient      = enum.New(MintErrorCategory("Transient"), "Transient")
	MintErrorInvalidRequest = enum.New(MintErrorCategory("InvalidRequest"), "InvalidRequest")
)

// MintAttempt is one attempt to mint the collectible of an achievement for a
// user. Rows are never deleted. A pair may own many rows across retries, the
// most recent one wins.
type MintAttempt struct {
	Base

	UserID        string `gorm:"index:idx_mint_attempts_user_achievement;size:64;not null"`
	AchievementID string `gorm:"index:idx_mint_attempts_user_achievement;size:64;not null"`

	Status MintAttemptStatus `gorm:"index;size:16;not null"`

	// ClaimKey is set while this row owns the pair: when it is pending and
	// alive, or when it succeeded. The unique index allows at most one owner.
	ClaimKey sql.NullString `gorm:"uniqueIndex;size:160"`

	TokenID     string         `gorm:"size:80"`
	Recipient   sql.NullString `gorm:"size:42"`
	TxReference sql.NullString `gorm:"index;size:66"`
	BlockHeight sql.NullInt64

	ErrorCategory sql.NullString `gorm:"size:32"`
	ErrorDetail   sql.NullString `gorm:"type:text"`
}

// MintClaimKey is prefixed by the length of userID, so that no two different
// pairs share a key.
func MintClaimKey(userID, achievementID string) string {
	return fmt.Sprintf("%d:%s:%s", len(userID), userID, achievementID)
}
