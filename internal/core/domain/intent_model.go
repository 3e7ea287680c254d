package domain

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var (
	chainAddressRegexp = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	handleRegexp       = regexp.MustCompile(`^@?[a-zA-Z0-9][a-zA-Z0-9_.-]{1,63}$`)
)

// Recipient is either a protocol handle, resolved to a fresh stealth
// destination at execution time, or a raw chain address.
type Recipient struct {
	Handle  string
	Address string
}

// ParseRecipient tells apart a raw chain address from a protocol handle.
func ParseRecipient(str string) (Recipient, error) {
	str = strings.TrimSpace(str)
	if len(str) <= 0 {
		return Recipient{}, ErrMissingRecipient
	}
	if chainAddressRegexp.MatchString(str) {
		return Recipient{Address: str}, nil
	}
	if strings.HasPrefix(str, "0x") || !handleRegexp.MatchString(str) {
		return Recipient{}, fmt.Errorf("%w: %s", ErrInvalidRecipient, str)
	}
	return Recipient{Handle: strings.TrimPrefix(str, "@")}, nil
}

// IsRawAddress returns whether funds must leave the shielded pool to reach the
// recipient.
func (r Recipient) IsRawAddress() bool {
	return len(r.Address) > 0
}

func (r Recipient) IsZero() bool {
	return len(r.Address) <= 0 && len(r.Handle) <= 0
}

func (r Recipient) String() string {
	if r.IsRawAddress() {
		return r.Address
	}
	return "@" + r.Handle
}

// Intent is a user payment goal: send Amount of Currency on Network to
// Recipient, optionally bridging the funds to ExitNetwork.
type Intent struct {
	Amount      *big.Int
	Recipient   Recipient
	Currency    string
	Network     string
	ExitNetwork string
}

func (i Intent) Validate() error {
	if i.Amount == nil || i.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if i.Recipient.IsZero() {
		return ErrMissingRecipient
	}
	if len(i.Currency) <= 0 {
		return ErrMissingCurrency
	}
	if len(i.Network) <= 0 {
		return ErrMissingNetwork
	}
	return nil
}

// RequiresExit returns whether the recipient wants the funds settled on a
// chain other than the one where the intent is satisfied.
func (i Intent) RequiresExit() bool {
	return len(i.ExitNetwork) > 0 && i.ExitNetwork != i.Network
}

func (i Intent) String() string {
	str := fmt.Sprintf(
		"%s of %s on %s to %s", i.Amount, i.Currency, i.Network, i.Recipient,
	)
	if i.RequiresExit() {
		str += fmt.Sprintf(" via %s", i.ExitNetwork)
	}
	return str
}
