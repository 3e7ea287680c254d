package domain

import "math/big"

// Payload is the data flowing along a plan: either a single BalanceEntry or
// a list of them.
type Payload struct {
	entries []BalanceEntry
	multi   bool
}

// SinglePayload wraps one entry.
func SinglePayload(entry BalanceEntry) Payload {
	return Payload{entries: []BalanceEntry{entry}}
}

// MultiPayload wraps a list of entries.
func MultiPayload(entries []BalanceEntry) Payload {
	list := make([]BalanceEntry, len(entries))
	copy(list, entries)
	return Payload{entries: list, multi: true}
}

// IsMulti returns whether the payload is a list of entries.
func (p Payload) IsMulti() bool {
	return p.multi
}

// IsEmpty returns whether the payload carries no entry at all.
func (p Payload) IsEmpty() bool {
	return len(p.entries) <= 0
}

// Entry returns the wrapped entry of a single payload.
func (p Payload) Entry() (BalanceEntry, bool) {
	if p.multi || len(p.entries) != 1 {
		return BalanceEntry{}, false
	}
	return p.entries[0], true
}

// Entries returns all the entries carried by the payload, whatever its shape.
func (p Payload) Entries() []BalanceEntry {
	list := make([]BalanceEntry, len(p.entries))
	copy(list, p.entries)
	return list
}

// Total returns the sum of the balances carried by the payload.
func (p Payload) Total() *big.Int {
	return TotalBalance(p.entries)
}
