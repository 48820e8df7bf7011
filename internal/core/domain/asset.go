package domain

import "time"

// AssetID is the opaque key identifying a supported asset. Comparison is
// exact string equality; there is no aliasing.
type AssetID string

// NativeAsset is the reserved identifier for the native currency. It is
// registered at bootstrap and can never be removed.
const NativeAsset AssetID = "native"

// IsNative reports whether the asset is the reserved native currency.
func (a AssetID) IsNative() bool {
	return a == NativeAsset
}

func (a AssetID) String() string {
	return string(a)
}

// AssetRecord binds a supported asset to its price oracle and decimal
// metadata. A record exists if and only if the asset is currently supported.
// AssetDecimals is read once at registration and never changes; the oracle
// binding and its decimals are replaced together on an oracle update.
type AssetRecord struct {
	Asset          AssetID   `json:"asset"`
	OracleBinding  string    `json:"oracle_binding"`
	AssetDecimals  int32     `json:"asset_decimals"`
	OracleDecimals int32     `json:"oracle_decimals"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
