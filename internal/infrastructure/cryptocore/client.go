// Package cryptocoreclient implements the CryptoCore port over the JSON/HTTP
// API of the prover sidecar that holds the wallet keys.
package cryptocoreclient

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/shieldpay/shieldpay-sdk/internal/core/domain"
	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/httputil"
)

// Proof generation can take a while.
const DefaultTimeout = 5 * time.Minute

type client struct {
	http *httputil.Client
}

func NewClient(baseURL string, timeout time.Duration) (ports.CryptoCore, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid prover url: %s", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &client{httputil.NewClient(
		baseURL,
		httputil.WithTimeout(timeout),
		httputil.WithCircuitBreaker("prover"),
	)}, nil
}

type scanNotesRequest struct {
	Keys       ports.ViewingKeys  `json:"keys"`
	Candidates []ports.PublicNote `json:"candidates"`
}

type ownedNotesResponse struct {
	Notes []ports.OwnedNote `json:"notes"`
}

type ownershipProofRequest struct {
	Keys  ports.ViewingKeys `json:"keys"`
	Notes []ports.OwnedNote `json:"notes"`
}

type aggregationProofRequest struct {
	Inputs  []domain.BalanceEntry `json:"inputs"`
	Outputs []ports.NoteOutput    `json:"outputs"`
}

type stealthDestinationRequest struct {
	Handle string `json:"handle"`
}

type signedTransactionResponse struct {
	RawTx string `json:"raw_tx"`
}

func (c *client) ViewingKeys(
	ctx context.Context, walletID string,
) (*ports.ViewingKeys, error) {
	keys := &ports.ViewingKeys{}
	if err := c.http.Get(ctx, walletPath(walletID, "viewing-keys"), keys); err != nil {
		return nil, fmt.Errorf("failed to get viewing keys: %w", err)
	}
	if len(keys.WalletID) <= 0 {
		keys.WalletID = walletID
	}
	return keys, nil
}

func (c *client) ScanNotes(
	ctx context.Context, keys ports.ViewingKeys, candidates []ports.PublicNote,
) ([]ports.OwnedNote, error) {
	if len(candidates) <= 0 {
		return nil, nil
	}

	resp := &ownedNotesResponse{}
	req := scanNotesRequest{keys, candidates}
	if err := c.http.Post(ctx, "v1/notes/scan", req, resp); err != nil {
		return nil, fmt.Errorf("failed to scan notes: %w", err)
	}
	return resp.Notes, nil
}

func (c *client) GenerateOwnershipProof(
	ctx context.Context, keys ports.ViewingKeys, owned []ports.OwnedNote,
) (*ports.OwnershipProof, error) {
	proof := &ports.OwnershipProof{}
	req := ownershipProofRequest{keys, owned}
	if err := c.http.Post(ctx, "v1/proofs/ownership", req, proof); err != nil {
		return nil, fmt.Errorf("failed to generate ownership proof: %w", err)
	}
	return proof, nil
}

func (c *client) ProveAggregation(
	ctx context.Context, walletID string,
	inputs []domain.BalanceEntry, outputs []ports.NoteOutput,
) (*ports.AggregationProof, error) {
	proof := &ports.AggregationProof{}
	req := aggregationProofRequest{inputs, outputs}
	path := walletPath(walletID, "proofs/aggregation")
	if err := c.http.Post(ctx, path, req, proof); err != nil {
		return nil, fmt.Errorf("failed to prove aggregation: %w", err)
	}
	return proof, nil
}

func (c *client) DeriveStealthDestination(
	ctx context.Context, handle string,
) (*ports.Destination, error) {
	dest := &ports.Destination{}
	req := stealthDestinationRequest{handle}
	if err := c.http.Post(ctx, "v1/destinations/stealth", req, dest); err != nil {
		return nil, fmt.Errorf("failed to derive destination of %s: %w", handle, err)
	}
	return dest, nil
}

func (c *client) DeriveOwnDestination(
	ctx context.Context, walletID string,
) (*ports.Destination, error) {
	dest := &ports.Destination{}
	if err := c.http.Post(ctx, walletPath(walletID, "destinations"), nil, dest); err != nil {
		return nil, fmt.Errorf("failed to derive own destination: %w", err)
	}
	return dest, nil
}

func (c *client) SignMetaTransaction(
	ctx context.Context, walletID string, tx ports.MetaTransaction,
) (*ports.SignedMetaTransaction, error) {
	signed := &ports.SignedMetaTransaction{}
	path := walletPath(walletID, "meta-transactions/sign")
	if err := c.http.Post(ctx, path, tx, signed); err != nil {
		return nil, fmt.Errorf("failed to sign %s meta-transaction: %w", tx.Action, err)
	}
	return signed, nil
}

func (c *client) SignTransaction(
	ctx context.Context, walletID string, tx ports.Transaction,
) (string, error) {
	resp := &signedTransactionResponse{}
	path := walletPath(walletID, "transactions/sign")
	if err := c.http.Post(ctx, path, tx, resp); err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}
	if len(resp.RawTx) <= 0 {
		return "", fmt.Errorf("prover returned an empty signed transaction")
	}
	return resp.RawTx, nil
}

func walletPath(walletID, resource string) string {
	return fmt.Sprintf("v1/wallets/%s/%s", url.PathEscape(walletID), resource)
}
