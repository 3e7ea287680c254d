package ports

import (
	"context"
	"math/big"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
)

// ViewingKeys are the private scan keys of a wallet. They are opaque to the
// SDK and only forwarded to the CryptoCore.
type ViewingKeys struct {
	WalletID       string `json:"wallet_id"`
	ScanKey        string `json:"scan_key"`
	SpendPublicKey string `json:"spend_public_key"`
}

// PublicNote is a note as announced by the backend, before ownership
// matching.
type PublicNote struct {
	ID           string `json:"id"`
	NetworkSlug  string `json:"network"`
	Commitment   string `json:"commitment"`
	EphemeralKey string `json:"ephemeral_key"`
	ViewTag      string `json:"view_tag"`
	Ciphertext   string `json:"ciphertext"`
}

// OwnedNote is a public note matched as owned by a wallet.
type OwnedNote struct {
	PublicNote
	Owner domain.NoteOwner `json:"owner"`
}

// OwnershipProof is a zk-proof of the ownership of a batch of notes.
type OwnershipProof struct {
	NoteIDs       []string `json:"note_ids"`
	Proof         string   `json:"proof"`
	PublicSignals []string `json:"public_signals"`
}

// Destination is a fresh one-time destination funds can be sent to.
type Destination struct {
	Address     string             `json:"address"`
	Owner       domain.NoteOwner   `json:"owner"`
	DeliveryTag domain.DeliveryTag `json:"delivery_tag"`
}

// NoteOutput is a note to be created by an aggregation.
type NoteOutput struct {
	Destination Destination `json:"destination"`
	Amount      *big.Int    `json:"amount"`
}

// AggregationProof proves that an aggregation consumes the given notes and
// produces the given outputs.
type AggregationProof struct {
	Proof         string   `json:"proof"`
	PublicSignals []string `json:"public_signals"`
}

// MetaTransaction is an off-chain signed action relayed to a contract by the
// backend.
type MetaTransaction struct {
	NetworkSlug string            `json:"network"`
	Action      string            `json:"action"`
	From        string            `json:"from"`
	Params      map[string]string `json:"params"`
}

type SignedMetaTransaction struct {
	MetaTransaction
	Signature string `json:"signature"`
}

// Transaction is an unsigned on-chain transaction.
type Transaction struct {
	NetworkSlug string   `json:"network"`
	From        string   `json:"from"`
	To          string   `json:"to"`
	Value       *big.Int `json:"value"`
	Data        string   `json:"data"`
}

// CryptoCore exposes the cryptographic capabilities of the protocol: stealth
// address derivation, note matching, zk-proof generation and signing.
type CryptoCore interface {
	ViewingKeys(ctx context.Context, walletID string) (*ViewingKeys, error)
	// ScanNotes returns the subset of candidates owned by the keys.
	ScanNotes(
		ctx context.Context, keys ViewingKeys, candidates []PublicNote,
	) ([]OwnedNote, error)
	GenerateOwnershipProof(
		ctx context.Context, keys ViewingKeys, owned []OwnedNote,
	) (*OwnershipProof, error)
	ProveAggregation(
		ctx context.Context, walletID string,
		inputs []domain.BalanceEntry, outputs []NoteOutput,
	) (*AggregationProof, error)
	// DeriveStealthDestination resolves a protocol handle to a fresh
	// destination owned by its holder.
	DeriveStealthDestination(ctx context.Context, handle string) (*Destination, error)
	// DeriveOwnDestination returns a fresh destination owned by the wallet.
	DeriveOwnDestination(ctx context.Context, walletID string) (*Destination, error)
	SignMetaTransaction(
		ctx context.Context, walletID string, tx MetaTransaction,
	) (*SignedMetaTransaction, error)
	// SignTransaction returns the raw signed transaction, hex encoded.
	SignTransaction(
		ctx context.Context, walletID string, tx Transaction,
	) (string, error)
}
