package dto

// RegisterRequest is the request body for account registration.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,safe_id"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the request body for account login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the response body for successful registration.
type RegisterResponse struct {
	AccountID    string   `json:"account_id"`
	Username     string   `json:"username"`
	Capabilities []string `json:"capabilities"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token  string `json:"token"`
	Expiry int64  `json:"expiry"` // Unix timestamp
}

// MovementRequest is the request body for deposits and withdrawals. Amount
// is a decimal integer string in the asset's smallest unit; JSON numbers
// cannot carry 256-bit values.
type MovementRequest struct {
	Asset  string `json:"asset" binding:"required,max=50,safe_id"`
	Amount string `json:"amount" binding:"required,amount"`
}

// MovementResponse is the response body for a recorded fund movement.
type MovementResponse struct {
	ID        string `json:"id"`
	Asset     string `json:"asset"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Value     string `json:"value"` // unit-of-account minor units (6 decimals)
	CreatedAt string `json:"created_at"`
}

// BalanceResponse is the response for a single-asset balance query.
type BalanceResponse struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// PortfolioResponse is the response for the full-portfolio valuation.
type PortfolioResponse struct {
	Value string `json:"value"` // unit-of-account minor units (6 decimals)
}

// MovementListResponse wraps a paginated movement history.
type MovementListResponse struct {
	Items    []MovementResponse `json:"items"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// StatusResponse is the response for the vault status query.
type StatusResponse struct {
	Paused                 bool  `json:"paused"`
	StalenessWindowSeconds int64 `json:"staleness_window_seconds"`
	DepositCount           int64 `json:"deposit_count"`
	WithdrawCount          int64 `json:"withdraw_count"`
}

// AddAssetRequest is the request body for registering a new asset.
type AddAssetRequest struct {
	Asset         string `json:"asset" binding:"required,max=50,safe_id"`
	OracleBinding string `json:"oracle_binding" binding:"required,max=50,safe_id"`
}

// UpdateOracleRequest is the request body for rebinding an asset's oracle.
type UpdateOracleRequest struct {
	OracleBinding string `json:"oracle_binding" binding:"required,max=50,safe_id"`
}

// AssetResponse is the response body for asset registry entries.
type AssetResponse struct {
	Asset          string `json:"asset"`
	OracleBinding  string `json:"oracle_binding"`
	AssetDecimals  int32  `json:"asset_decimals"`
	OracleDecimals int32  `json:"oracle_decimals"`
	CreatedAt      string `json:"created_at"`
}

// StalenessWindowRequest is the request body for updating the staleness window.
type StalenessWindowRequest struct {
	Seconds int64 `json:"seconds" binding:"required,gt=0"`
}
