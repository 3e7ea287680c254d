// Package backendclient implements the BackendApi port over the JSON/HTTP
// API of the protocol backend.
package backendclient

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shieldpay/shieldpay-sdk/internal/core/ports"
	"github.com/shieldpay/shieldpay-sdk/pkg/httputil"
)

const (
	// DefaultRateLimit is the default max number of requests per second.
	DefaultRateLimit = 10

	apiVersion = "v1"
)

type client struct {
	http *httputil.Client
}

// NewClient returns a BackendApi sending requests to the given url, limited
// to rateLimit requests per second. An api key is optional.
func NewClient(baseURL, apiKey string, rateLimit int) (ports.BackendApi, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend url: %s", baseURL)
	}
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}

	opts := []httputil.Option{
		httputil.WithRateLimit(rateLimit),
		httputil.WithCircuitBreaker("backend"),
	}
	if len(apiKey) > 0 {
		opts = append(opts, httputil.WithHeader("X-Api-Key", apiKey))
	}

	return &client{httputil.NewClient(baseURL, opts...)}, nil
}

type notesResponse struct {
	Notes []ports.PublicNote `json:"notes"`
}

type noteDataResponse struct {
	Notes []ports.NoteData `json:"notes"`
}

type idResponse struct {
	ID string `json:"id"`
}

func (c *client) ListNotes(
	ctx context.Context, networkSlug, after string,
) ([]ports.PublicNote, error) {
	path := fmt.Sprintf(
		"%s/networks/%s/notes", apiVersion, url.PathEscape(networkSlug),
	)
	if len(after) > 0 {
		path += "?after=" + url.QueryEscape(after)
	}

	resp := &notesResponse{}
	if err := c.http.Get(ctx, path, resp); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return resp.Notes, nil
}

func (c *client) SubmitNoteProof(
	ctx context.Context, networkSlug string, proof ports.OwnershipProof,
) ([]ports.NoteData, error) {
	path := fmt.Sprintf(
		"%s/networks/%s/notes/proof", apiVersion, url.PathEscape(networkSlug),
	)

	resp := &noteDataResponse{}
	if err := c.http.Post(ctx, path, proof, resp); err != nil {
		return nil, fmt.Errorf("failed to submit ownership proof: %w", err)
	}
	return resp.Notes, nil
}

func (c *client) SubmitAggregatorRequest(
	ctx context.Context, req ports.AggregatorRequest,
) (string, error) {
	return c.submit(ctx, "aggregator/requests", req)
}

func (c *client) AggregatorRequestStatus(
	ctx context.Context, id string,
) (*ports.OperationStatus, error) {
	return c.status(ctx, "aggregator/requests", id)
}

func (c *client) SubmitCsucAction(
	ctx context.Context, action ports.SignedMetaTransaction,
) (string, error) {
	return c.submit(ctx, "csuc/actions", action)
}

func (c *client) CsucActionStatus(
	ctx context.Context, id string,
) (*ports.OperationStatus, error) {
	return c.status(ctx, "csuc/actions", id)
}

func (c *client) SubmitMetaTransaction(
	ctx context.Context, tx ports.SignedMetaTransaction,
) (string, error) {
	return c.submit(ctx, "meta-transactions", tx)
}

func (c *client) MetaTransactionStatus(
	ctx context.Context, id string,
) (*ports.OperationStatus, error) {
	return c.status(ctx, "meta-transactions", id)
}

func (c *client) EstimateFee(
	ctx context.Context, req ports.FeeRequest,
) (*ports.Fee, error) {
	fee := &ports.Fee{}
	if err := c.http.Post(ctx, apiVersion+"/fees/estimate", req, fee); err != nil {
		return nil, fmt.Errorf("failed to estimate %s fee: %w", req.Command, err)
	}
	return fee, nil
}

func (c *client) submit(
	ctx context.Context, resource string, body interface{},
) (string, error) {
	resp := &idResponse{}
	if err := c.http.Post(ctx, apiVersion+"/"+resource, body, resp); err != nil {
		return "", fmt.Errorf("failed to submit to %s: %w", resource, err)
	}
	if len(resp.ID) <= 0 {
		return "", fmt.Errorf("missing operation id in %s response", resource)
	}
	return resp.ID, nil
}

func (c *client) status(
	ctx context.Context, resource, id string,
) (*ports.OperationStatus, error) {
	path := fmt.Sprintf("%s/%s/%s", apiVersion, resource, url.PathEscape(id))

	status := &ports.OperationStatus{}
	if err := c.http.Get(ctx, path, status); err != nil {
		return nil, fmt.Errorf("failed to get %s status: %w", resource, err)
	}
	if len(status.ID) <= 0 {
		status.ID = id
	}
	return status, nil
}
