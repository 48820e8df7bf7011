package apperror

import (
	"fmt"
	"math/big"
	"net/http"
	"time"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New("VAL_001", "Invalid amount", http.StatusBadRequest)
}

func ErrAssetNotSupported(asset string) *AppError {
	return New("VAL_002", fmt.Sprintf("Asset %s is not supported", asset), http.StatusNotFound)
}

func ErrAssetAlreadySupported(asset string) *AppError {
	return New("VAL_003", fmt.Sprintf("Asset %s is already supported", asset), http.StatusConflict)
}

// ---- Economic policy (ECO) ----

func ErrInsufficientBalance(requested, available *big.Int) *AppError {
	return New("ECO_001",
		fmt.Sprintf("Insufficient balance: requested %s, available %s", requested, available),
		http.StatusPaymentRequired)
}

func ErrWithdrawExceedsLimit(value, limit *big.Int) *AppError {
	return New("ECO_002",
		fmt.Sprintf("Withdrawal value %s exceeds operation limit %s", value, limit),
		http.StatusUnprocessableEntity)
}

// ---- Oracle (ORC) ----

func ErrOracleInvalid(err error) *AppError {
	return Wrap("ORC_001", "Oracle returned an invalid quote", http.StatusBadGateway, err)
}

func ErrOracleStale(age, window time.Duration) *AppError {
	return New("ORC_002",
		fmt.Sprintf("Oracle quote is stale: age %s exceeds window %s", age, window),
		http.StatusBadGateway)
}

// ---- Safety guards (SAFE) ----

func ErrAssetHasFunds(asset string, held *big.Int) *AppError {
	return New("SAFE_001",
		fmt.Sprintf("Asset %s still has %s units in custody", asset, held),
		http.StatusConflict)
}

func ErrReentrancyRejected() *AppError {
	return New("SAFE_002", "Re-entrant call rejected", http.StatusConflict)
}

func ErrVaultPaused() *AppError {
	return New("SAFE_003", "Vault is paused", http.StatusServiceUnavailable)
}

func ErrNativeAssetProtected() *AppError {
	return New("SAFE_004", "Native asset cannot be removed", http.StatusForbidden)
}

// ---- External transfers (XFER) ----

func ErrTransferFailed(err error) *AppError {
	return Wrap("XFER_001", "Asset transfer failed", http.StatusBadGateway, err)
}

// ---- Authentication & capabilities (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrUsernameExists() *AppError {
	return New("AUTH_002", "Username already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrCapabilityRequired(capability string) *AppError {
	return New("AUTH_004",
		fmt.Sprintf("Caller does not hold the %s capability", capability),
		http.StatusForbidden)
}

func ErrAccountSuspended() *AppError {
	return New("AUTH_005", "Account is suspended", http.StatusForbidden)
}

// ---- Rate limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & infrastructure (SYS) ----

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001-style validation error with a custom message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
