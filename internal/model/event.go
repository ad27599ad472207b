package model

// BadgeEarnedEvent is published by the quest platform each time a user earns
// an achievement. The same event may be delivered more than once.
type BadgeEarnedEvent struct {
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
}

type NftMintedEvent struct {
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
	LedgerID      string `json:"ledger_id"`
	TxReference   string `json:"tx_reference"`
	BlockHeight   uint64 `json:"block_height"`
	TokenID       string `json:"token_id"`
}
