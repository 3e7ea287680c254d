package ports

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
)

const (
	OperationPending OperationState = iota
	OperationDone
	OperationFailed
)

// OperationState is the state of an asynchronous backend operation.
type OperationState int

func (s OperationState) String() string {
	switch s {
	case OperationPending:
		return "pending"
	case OperationDone:
		return "done"
	case OperationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s OperationState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OperationState) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "pending":
		*s = OperationPending
	case "done":
		*s = OperationDone
	case "failed":
		*s = OperationFailed
	default:
		return fmt.Errorf("unknown operation state %q", text)
	}
	return nil
}

// NoteData is the authenticated content of a note.
type NoteData struct {
	ID              string             `json:"id"`
	NetworkSlug     string             `json:"network"`
	VaultTokenID    string             `json:"vault_token_id"`
	CurrencyAddress string             `json:"currency"`
	Amount          *big.Int           `json:"amount"`
	Owner           domain.NoteOwner   `json:"owner"`
	DeliveryTag     domain.DeliveryTag `json:"delivery_tag"`
}

// ToBalanceEntry returns the note balance entry of the given wallet.
func (n NoteData) ToBalanceEntry(
	walletID string, env domain.Environment, currency domain.Currency,
	at time.Time,
) domain.BalanceEntry {
	owner := n.Owner
	tag := n.DeliveryTag
	amount := new(big.Int)
	if n.Amount != nil {
		amount.Set(n.Amount)
	}
	return domain.BalanceEntry{
		Kind:            domain.NoteBalance,
		WalletID:        walletID,
		NetworkSlug:     n.NetworkSlug,
		Environment:     env,
		CurrencyAddress: n.CurrencyAddress,
		Symbol:          currency.Symbol,
		Decimals:        currency.Decimals,
		Balance:         amount,
		LastUpdated:     at,
		VaultTokenID:    n.VaultTokenID,
		NoteID:          n.ID,
		Owner:           &owner,
		DeliveryTag:     &tag,
	}
}

// OperationStatus is the status of an aggregator request, a CSUC action or
// a meta-transaction. Notes are the notes created by the operation, if any.
type OperationStatus struct {
	ID     string         `json:"id"`
	State  OperationState `json:"state"`
	Reason string         `json:"reason"`
	TxHash string         `json:"tx_hash"`
	Notes  []NoteData     `json:"notes"`
}

// AggregatorRequest asks the aggregator to consume some notes and create
// others, or to withdraw them to the vault when Recipient is set.
type AggregatorRequest struct {
	Kind        string           `json:"kind"`
	NetworkSlug string           `json:"network"`
	Inputs      []string         `json:"inputs"`
	Outputs     []NoteOutput     `json:"outputs"`
	Recipient   string           `json:"recipient,omitempty"`
	Proof       AggregationProof `json:"proof"`
}

const (
	AggregateRequest       = "aggregate"
	WithdrawToVaultRequest = "withdraw-to-vault"
)

type FeeRequest struct {
	Command         string   `json:"command"`
	NetworkSlug     string   `json:"network"`
	CurrencyAddress string   `json:"currency"`
	Amount          *big.Int `json:"amount"`
	Inputs          int      `json:"inputs"`
}

// BackendApi is the protocol backend: note announcements, proof verification
// and relaying of aggregator requests, CSUC actions and meta-transactions.
type BackendApi interface {
	// ListNotes returns a page of public notes announced after the given
	// note id, oldest first. An empty page means there are no more notes.
	ListNotes(ctx context.Context, networkSlug, after string) ([]PublicNote, error)
	// SubmitNoteProof returns the authenticated data of the proven notes.
	SubmitNoteProof(
		ctx context.Context, networkSlug string, proof OwnershipProof,
	) ([]NoteData, error)

	SubmitAggregatorRequest(ctx context.Context, req AggregatorRequest) (string, error)
	AggregatorRequestStatus(ctx context.Context, id string) (*OperationStatus, error)

	SubmitCsucAction(ctx context.Context, action SignedMetaTransaction) (string, error)
	CsucActionStatus(ctx context.Context, id string) (*OperationStatus, error)

	SubmitMetaTransaction(ctx context.Context, tx SignedMetaTransaction) (string, error)
	MetaTransactionStatus(ctx context.Context, id string) (*OperationStatus, error)

	EstimateFee(ctx context.Context, req FeeRequest) (*Fee, error)
}
