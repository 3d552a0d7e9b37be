/*
dto.go - Request/response data structures

PURPOSE:
  JSON shapes for the HTTP API, kept separate from domain types so the
  wire format can evolve without touching the engine.
*/
package api

// =============================================================================
// REDEMPTION
// =============================================================================

type RedeemRequest struct {
	Code string `json:"code"`
}

// RedeemResponse is the 200 body for both outcomes. Rejection is a
// normal business outcome, not a transport error.
type RedeemResponse struct {
	Result        string   `json:"result"` // "accepted" | "rejected"
	PointsAwarded *float64 `json:"points_awarded,omitempty"`
	NewBalance    *float64 `json:"new_balance,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// =============================================================================
// WALLET / LEDGER
// =============================================================================

type WalletDTO struct {
	UserID    string  `json:"user_id"`
	Balance   float64 `json:"balance"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

type LedgerEntryDTO struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	RefID     string  `json:"ref_id,omitempty"`
	Delta     float64 `json:"delta"`
	Reason    string  `json:"reason,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type ReconcileDTO struct {
	UserID     string  `json:"user_id"`
	Cached     float64 `json:"cached_balance"`
	Recomputed float64 `json:"recomputed_balance"`
	InSync     bool    `json:"in_sync"`
}

// =============================================================================
// SCANS
// =============================================================================

type ScanEventDTO struct {
	ID           string `json:"id"`
	CodeID       string `json:"code_id"`
	Submitted    string `json:"submitted_code"`
	Result       string `json:"result"`
	RejectReason string `json:"reject_reason,omitempty"`
	ScannedAt    string `json:"scanned_at"`
}

// =============================================================================
// LEADERBOARD
// =============================================================================

type LeaderboardRowDTO struct {
	Rank   int     `json:"rank"`
	UserID string  `json:"user_id"`
	Points float64 `json:"points"`
}

// =============================================================================
// SOCIAL
// =============================================================================

type SocialSubmissionRequest struct {
	Platform      string `json:"platform"` // "x" | "instagram"
	PostURL       string `json:"post_url"`
	ScreenshotURL string `json:"screenshot_url,omitempty"`
}

type SocialSubmissionDTO struct {
	ID        string `json:"id"`
	Platform  string `json:"platform"`
	PostURL   string `json:"post_url"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// =============================================================================
// ADMIN
// =============================================================================

type AdjustRequest struct {
	UserID string  `json:"user_id"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

type CreateCodeRequest struct {
	Token    string  `json:"token"`
	Label    string  `json:"label,omitempty"`
	Value    float64 `json:"points_value"`
	IsUnique bool    `json:"is_unique"`
	StartsAt string  `json:"starts_at,omitempty"` // RFC3339
	EndsAt   string  `json:"ends_at,omitempty"`   // RFC3339
}

type CodeDTO struct {
	ID       string  `json:"id"`
	Token    string  `json:"token"`
	Label    string  `json:"label,omitempty"`
	Value    float64 `json:"points_value"`
	IsUnique bool    `json:"is_unique"`
	StartsAt string  `json:"starts_at,omitempty"`
	EndsAt   string  `json:"ends_at,omitempty"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
