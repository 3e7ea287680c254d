package domain

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shieldpay/shieldpay-sdk/pkg/mathutil"
	"github.com/shopspring/decimal"
)

const (
	// StealthAddressBalance is value held by a one-time on-chain address.
	StealthAddressBalance BalanceKind = "stealth-address"
	// VaultBalance is value held by the pooled vault contract on behalf of a
	// stealth address.
	VaultBalance BalanceKind = "vault"
	// NoteBalance is a shielded note held inside the aggregator.
	NoteBalance BalanceKind = "note"
	// UnifiedContractBalance is value held by the cross-chain settlement
	// contract (CSUC).
	UnifiedContractBalance BalanceKind = "unified-contract"
)

// BalanceKind tags the custody type of a BalanceEntry.
type BalanceKind string

func (k BalanceKind) IsValid() bool {
	switch k {
	case StealthAddressBalance, VaultBalance, NoteBalance, UnifiedContractBalance:
		return true
	default:
		return false
	}
}

func (k BalanceKind) String() string {
	return string(k)
}

// NoteOwner is the cryptographic owner of a note. It is opaque to the SDK and
// only forwarded to the crypto core.
type NoteOwner struct {
	PublicKey    string `json:"public_key"`
	SharedSecret string `json:"shared_secret"`
}

// DeliveryTag lets the recipient of a note find it cheaply.
type DeliveryTag struct {
	EphemeralKey string `json:"ephemeral_key"`
	ViewTag      string `json:"view_tag"`
}

// BalanceKey identifies a stored BalanceEntry. Refreshing an entry replaces
// the one with the same key.
type BalanceKey struct {
	Source          string
	Kind            BalanceKind
	CurrencyAddress string
	NetworkSlug     string
}

func (k BalanceKey) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.NetworkSlug, k.Kind, k.CurrencyAddress, k.Source)
}

// BalanceEntry is a snapshot of one spendable unit of a currency at one
// custody location. It's a tagged union on Kind:
//   - StealthAddress, Vault and UnifiedContract carry Source.
//   - Vault and Note carry VaultTokenID.
//   - Note carries NoteID, Owner and DeliveryTag.
//
// Entries are values, use the With* methods to derive updated copies.
type BalanceEntry struct {
	Kind            BalanceKind
	WalletID        string
	NetworkSlug     string
	Environment     Environment
	CurrencyAddress string
	Symbol          string
	Decimals        uint8
	Balance         *big.Int
	LastUpdated     time.Time

	Source       string
	VaultTokenID string
	NoteID       string
	Owner        *NoteOwner
	DeliveryTag  *DeliveryTag
}

// Validate checks the entry has the fields required by its variant.
func (e BalanceEntry) Validate() error {
	if !e.Kind.IsValid() {
		return ErrUnknownBalanceKind
	}
	if e.Balance != nil && e.Balance.Sign() < 0 {
		return ErrNegativeBalance
	}
	if len(e.NetworkSlug) <= 0 {
		return ErrMissingNetwork
	}
	if len(e.CurrencyAddress) <= 0 {
		return ErrMissingCurrency
	}

	switch e.Kind {
	case StealthAddressBalance, UnifiedContractBalance:
		if len(e.Source) <= 0 {
			return ErrMissingSource
		}
	case VaultBalance:
		if len(e.Source) <= 0 {
			return ErrMissingSource
		}
		if len(e.VaultTokenID) <= 0 {
			return ErrMissingVaultToken
		}
	case NoteBalance:
		if len(e.NoteID) <= 0 {
			return ErrMissingNoteID
		}
		if len(e.VaultTokenID) <= 0 {
			return ErrMissingVaultToken
		}
		if e.Owner == nil {
			return ErrMissingNoteOwner
		}
	}
	return nil
}

// Key returns the storage key of the entry. Notes are keyed by their id.
func (e BalanceEntry) Key() BalanceKey {
	source := e.Source
	if e.Kind == NoteBalance {
		source = e.NoteID
	}
	return BalanceKey{
		Source:          source,
		Kind:            e.Kind,
		CurrencyAddress: e.CurrencyAddress,
		NetworkSlug:     e.NetworkSlug,
	}
}

// Amount returns a copy of the entry balance, never nil.
func (e BalanceEntry) Amount() *big.Int {
	return mathutil.Copy(e.Balance)
}

// IsEmpty returns whether the entry holds no value.
func (e BalanceEntry) IsEmpty() bool {
	return !mathutil.IsPositive(e.Balance)
}

// FormattedBalance returns the balance in human readable units.
func (e BalanceEntry) FormattedBalance() decimal.Decimal {
	return mathutil.FromUnits(e.Balance, e.Decimals)
}

// WithBalance returns a copy of the entry with the given balance.
func (e BalanceEntry) WithBalance(balance *big.Int, at time.Time) BalanceEntry {
	e.Balance = mathutil.Copy(balance)
	e.LastUpdated = at
	return e
}

// WithKind returns a copy of the entry moved to another custody type. Fields
// that don't belong to the new variant are cleared.
func (e BalanceEntry) WithKind(kind BalanceKind) BalanceEntry {
	e.Kind = kind
	switch kind {
	case StealthAddressBalance, UnifiedContractBalance:
		e.VaultTokenID = ""
		e.NoteID = ""
		e.Owner = nil
		e.DeliveryTag = nil
	case VaultBalance:
		e.NoteID = ""
		e.Owner = nil
		e.DeliveryTag = nil
	case NoteBalance:
		e.Source = ""
	}
	return e
}

// Valuate returns the counter value of the entry given the currency
// metadata, zero if the currency has no known price.
func Valuate(e BalanceEntry, c Currency) decimal.Decimal {
	return mathutil.Value(e.Balance, e.Decimals, c.PriceUSD)
}

// TotalBalance returns the sum of the balances of the given entries.
func TotalBalance(entries []BalanceEntry) *big.Int {
	total := new(big.Int)
	for _, e := range entries {
		if e.Balance != nil {
			total.Add(total, e.Balance)
		}
	}
	return total
}
