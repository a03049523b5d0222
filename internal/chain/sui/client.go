// Package sui is a JSON-RPC client for a Sui full node. Transactions are built
// server side with unsafe_moveCall so no BCS encoder is needed here.
package sui

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"kycgate/internal/chain"
	"kycgate/pkg/platform/sentinel"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ErrExecutionFailed is returned when a transaction executed but its effects
// report failure (abort, out of gas).
var ErrExecutionFailed = errors.New("transaction execution failed")

// maxResponseBytes bounds node responses; object change lists are small.
const maxResponseBytes = 4 << 20

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client talks to a single node endpoint.
type Client struct {
	url    string
	http   HTTPDoer
	nextID atomic.Uint64
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

// DefaultTimeout bounds a single RPC round trip. Transaction execution waits
// for local execution, so it is generous.
const DefaultTimeout = 60 * time.Second

// New creates a client for url.
func New(url string, opts ...Option) *Client {
	c := &Client{url: url}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: DefaultTimeout}
	}
	return c
}

var _ chain.Client = (*Client)(nil)

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, result any, params ...any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	var envelope rpcResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("%s: %w", method, envelope.Error)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

type objectResponse struct {
	Data *struct {
		ObjectID string `json:"objectId"`
		Version  string `json:"version"`
		Digest   string `json:"digest"`
		Type     string `json:"type"`
		Content  *struct {
			Fields json.RawMessage `json:"fields"`
		} `json:"content"`
	} `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// GetObject reads an object. Missing or deleted objects map to sentinel.ErrNotFound.
func (c *Client) GetObject(ctx context.Context, id chain.ObjectID) (*chain.ObjectSnapshot, error) {
	var resp objectResponse
	options := map[string]bool{"showType": true, "showContent": true}
	if err := c.call(ctx, "sui_getObject", &resp, id.String(), options); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		if resp.Error != nil {
			return nil, fmt.Errorf("object %s %s: %w", id, resp.Error.Code, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("object %s: %w", id, sentinel.ErrNotFound)
	}
	snap := &chain.ObjectSnapshot{
		ObjectID: chain.ObjectID(resp.Data.ObjectID),
		Version:  resp.Data.Version,
		Digest:   resp.Data.Digest,
		Type:     resp.Data.Type,
	}
	if resp.Data.Content != nil {
		snap.Fields = resp.Data.Content.Fields
	}
	return snap, nil
}

type moveCallResponse struct {
	TxBytes string `json:"txBytes"`
}

// BuildMoveCall asks the node to assemble transaction bytes for call. Gas
// coins are selected by the node from the sender's balance.
func (c *Client) BuildMoveCall(ctx context.Context, sender string, call chain.MoveCall, gasBudget uint64) ([]byte, error) {
	typeArgs := call.TypeArgs
	if typeArgs == nil {
		typeArgs = []string{}
	}
	args := call.Args
	if args == nil {
		args = []any{}
	}

	var resp moveCallResponse
	err := c.call(ctx, "unsafe_moveCall", &resp,
		sender,
		call.Package,
		call.Module,
		call.Function,
		typeArgs,
		args,
		nil,
		strconv.FormatUint(gasBudget, 10),
	)
	if err != nil {
		return nil, err
	}
	txBytes, err := base64.StdEncoding.DecodeString(resp.TxBytes)
	if err != nil {
		return nil, fmt.Errorf("decode txBytes: %w", err)
	}
	if len(txBytes) == 0 {
		return nil, errors.New("node returned empty txBytes")
	}
	return txBytes, nil
}

type executeResponse struct {
	Digest  string `json:"digest"`
	Effects *struct {
		Status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"status"`
	} `json:"effects"`
	ObjectChanges []struct {
		Type       string `json:"type"`
		ObjectID   string `json:"objectId"`
		ObjectType string `json:"objectType"`
	} `json:"objectChanges"`
}

// ExecuteTransaction submits signed bytes and blocks until local execution.
func (c *Client) ExecuteTransaction(ctx context.Context, txBytes []byte, signatures []string) (*chain.TransactionResult, error) {
	var resp executeResponse
	options := map[string]bool{"showEffects": true, "showObjectChanges": true}
	err := c.call(ctx, "sui_executeTransactionBlock", &resp,
		base64.StdEncoding.EncodeToString(txBytes),
		signatures,
		options,
		"WaitForLocalExecution",
	)
	if err != nil {
		return nil, err
	}
	if resp.Effects != nil && resp.Effects.Status.Status != "success" {
		return nil, fmt.Errorf("%w: digest %s: %s", ErrExecutionFailed, resp.Digest, resp.Effects.Status.Error)
	}

	result := &chain.TransactionResult{Digest: resp.Digest}
	for _, change := range resp.ObjectChanges {
		if change.Type != "created" {
			continue
		}
		result.Created = append(result.Created, chain.CreatedObject{
			ObjectID:   chain.ObjectID(change.ObjectID),
			ObjectType: change.ObjectType,
		})
	}
	return result, nil
}

// Ping checks that the node answers JSON-RPC.
func (c *Client) Ping(ctx context.Context) error {
	var chainID string
	return c.call(ctx, "sui_getChainIdentifier", &chainID)
}
