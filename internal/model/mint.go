package model

type MintAttempt struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
	Status        string `json:"status"`
	TokenID       string `json:"token_id"`
	Recipient     string `json:"recipient,omitempty"`
	TxReference   string `json:"tx_reference,omitempty"`
	BlockHeight   uint64 `json:"block_height,omitempty"`
	ErrorCategory string `json:"error_category,omitempty"`
	ErrorDetail   string `json:"error_detail,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type RequestMintRequest struct {
	UserID        string `json:"user_id"`
	AchievementID string `json:"achievement_id"`
}

type RequestMintResponse struct {
	Status      string `json:"status"`
	LedgerID    string `json:"ledger_id,omitempty"`
	TxReference string `json:"tx_reference,omitempty"`
	BlockHeight uint64 `json:"block_height,omitempty"`
	TokenID     string `json:"token_id,omitempty"`
	Category    string `json:"category,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Retryable   bool   `json:"retryable"`
}

type GetMintAttemptRequest struct {
	ID string `form:"id"`
}

type GetMintAttemptResponse struct {
	Attempt MintAttempt `json:"attempt"`
}

type GetMintAttemptsRequest struct {
	UserID        string `form:"user_id"`
	AchievementID string `form:"achievement_id"`
	Status        string `form:"status"`
	Offset        int    `form:"offset"`
	Limit         int    `form:"limit"`
}

type GetMintAttemptsResponse struct {
	Attempts []MintAttempt `json:"attempts"`
}
