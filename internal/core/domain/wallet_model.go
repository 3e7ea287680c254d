package domain

import (
	"strings"
	"time"
)

// WalletAddress is an address owned by a wallet whose balances are refreshed
// by the address scan.
type WalletAddress struct {
	WalletID      string
	Address       string
	Kind          ChainKind
	LastScannedAt map[Environment]time.Time
}

func (a WalletAddress) IsEVM() bool {
	return a.Kind == EVMChain || (len(a.Kind) <= 0 && chainAddressRegexp.MatchString(a.Address))
}

// ScannedAt returns when the address was last scanned for the given
// environment, the zero time if never.
func (a WalletAddress) ScannedAt(env Environment) time.Time {
	if a.LastScannedAt == nil {
		return time.Time{}
	}
	return a.LastScannedAt[env]
}

func (a *WalletAddress) MarkScanned(env Environment, at time.Time) {
	if a.LastScannedAt == nil {
		a.LastScannedAt = make(map[Environment]time.Time)
	}
	a.LastScannedAt[env] = at
}

// Key returns the storage key of the address.
func (a WalletAddress) Key() string {
	return a.WalletID + "/" + strings.ToLower(a.Address)
}

// ScanCursor holds the sync markers of the note scan of a wallet on a
// network. Latest is the most recent note seen, Oldest the first one.
type ScanCursor struct {
	WalletID    string
	NetworkSlug string
	Latest      string
	Oldest      string
	UpdatedAt   time.Time
}

func (c ScanCursor) Key() string {
	return c.WalletID + "/" + c.NetworkSlug
}

// Advance moves the cursor forward after the notes from first to last have
// been scanned.
func (c *ScanCursor) Advance(first, last string, at time.Time) {
	if len(last) <= 0 {
		return
	}
	if len(c.Oldest) <= 0 {
		c.Oldest = first
	}
	c.Latest = last
	c.UpdatedAt = at
}
