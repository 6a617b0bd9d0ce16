package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client reads from and submits to an XRPL node over JSON-RPC. Signing stays
// with the wallet holder; the server only handles signed blobs and queries.
type Client interface {
	Submit(ctx context.Context, txBlob string) (*SubmitResult, error)
	Tx(ctx context.Context, hash string) (*TxResult, error)
	AccountEscrows(ctx context.Context, account string) ([]EscrowObject, error)
	AccountInfo(ctx context.Context, account string) (*AccountInfo, error)
	ServerState(ctx context.Context) (*ServerState, error)
}

// SubmitResult is the provisional outcome of a submit call
type SubmitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultMessage string `json:"engine_result_message"`
	TxHash              string `json:"tx_hash"`
}

// TxResult is a validated transaction lookup
type TxResult struct {
	Hash      string `json:"hash"`
	Validated bool   `json:"validated"`
	Result    string `json:"result"`
}

// EscrowObject is an escrow ledger entry on an account
type EscrowObject struct {
	Account         string `json:"Account"`
	Destination     string `json:"Destination"`
	Amount          string `json:"Amount"`
	Condition       string `json:"Condition,omitempty"`
	CancelAfter     int64  `json:"CancelAfter,omitempty"`
	FinishAfter     int64  `json:"FinishAfter,omitempty"`
	PreviousTxnID   string `json:"PreviousTxnID"`
	OwnerNode       string `json:"OwnerNode"`
	LedgerEntryType string `json:"LedgerEntryType"`
}

// AccountInfo is the subset of account_info the marketplace needs
type AccountInfo struct {
	Account  string `json:"Account"`
	Balance  string `json:"Balance"`
	Sequence uint32 `json:"Sequence"`
}

// ServerState reports node health and the validated ledger position
type ServerState struct {
	BuildVersion    string `json:"build_version"`
	NetworkID       uint32 `json:"network_id"`
	ValidatedLedger uint64 `json:"validated_ledger"`
	LedgerTime      int64  `json:"ledger_time"`
}

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
}

type rpcStatus struct {
	Status       string `json:"status"`
	Error        string `json:"error"`
	ErrorMessage string `json:"error_message"`
}

type jsonRPCClient struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient builds a JSON-RPC client for the configured node
func NewClient(rpcURL string, timeout time.Duration, logger *zap.Logger) Client {
	return &jsonRPCClient{
		http: resty.New().
			SetBaseURL(rpcURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		logger: logger,
	}
}

func (c *jsonRPCClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	var envelope rpcResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rpcRequest{Method: method, Params: []interface{}{params}}).
		SetResult(&envelope).
		Post("/")
	if err != nil {
		return fmt.Errorf("ledger rpc %s failed: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("ledger rpc %s failed: %s", method, resp.Status())
	}

	var status rpcStatus
	if err := json.Unmarshal(envelope.Result, &status); err != nil {
		return fmt.Errorf("ledger rpc %s returned malformed result: %w", method, err)
	}
	if status.Status == "error" {
		return fmt.Errorf("ledger rpc %s: %s (%s)", method, status.ErrorMessage, status.Error)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("ledger rpc %s returned malformed result: %w", method, err)
		}
	}
	return nil
}

func (c *jsonRPCClient) Submit(ctx context.Context, txBlob string) (*SubmitResult, error) {
	var result struct {
		EngineResult        string `json:"engine_result"`
		EngineResultMessage string `json:"engine_result_message"`
		TxJSON              struct {
			Hash string `json:"hash"`
		} `json:"tx_json"`
	}
	err := c.call(ctx, "submit", map[string]string{"tx_blob": txBlob}, &result)
	if err != nil {
		return nil, err
	}

	submit := &SubmitResult{
		EngineResult:        result.EngineResult,
		EngineResultMessage: result.EngineResultMessage,
		TxHash:              result.TxJSON.Hash,
	}
	if result.EngineResult != "tesSUCCESS" {
		c.logger.Warn("ledger submission rejected",
			zap.String("engine_result", result.EngineResult),
			zap.String("message", result.EngineResultMessage))
		return submit, NewSubmitError(result.EngineResult)
	}
	return submit, nil
}

func (c *jsonRPCClient) Tx(ctx context.Context, hash string) (*TxResult, error) {
	var result struct {
		Hash      string `json:"hash"`
		Validated bool   `json:"validated"`
		Meta      struct {
			TransactionResult string `json:"TransactionResult"`
		} `json:"meta"`
	}
	if err := c.call(ctx, "tx", map[string]string{"transaction": hash}, &result); err != nil {
		return nil, err
	}
	return &TxResult{
		Hash:      result.Hash,
		Validated: result.Validated,
		Result:    result.Meta.TransactionResult,
	}, nil
}

func (c *jsonRPCClient) AccountEscrows(ctx context.Context, account string) ([]EscrowObject, error) {
	var result struct {
		AccountObjects []EscrowObject `json:"account_objects"`
	}
	params := map[string]string{
		"account": account,
		"type":    "escrow",
	}
	if err := c.call(ctx, "account_objects", params, &result); err != nil {
		return nil, err
	}
	return result.AccountObjects, nil
}

func (c *jsonRPCClient) ServerState(ctx context.Context) (*ServerState, error) {
	var result struct {
		State struct {
			BuildVersion    string `json:"build_version"`
			NetworkID       uint32 `json:"network_id"`
			Time            int64  `json:"time"`
			ValidatedLedger struct {
				Seq uint64 `json:"seq"`
			} `json:"validated_ledger"`
		} `json:"state"`
	}
	if err := c.call(ctx, "server_state", map[string]string{}, &result); err != nil {
		return nil, err
	}
	return &ServerState{
		BuildVersion:    result.State.BuildVersion,
		NetworkID:       result.State.NetworkID,
		ValidatedLedger: result.State.ValidatedLedger.Seq,
		LedgerTime:      result.State.Time,
	}, nil
}

func (c *jsonRPCClient) AccountInfo(ctx context.Context, account string) (*AccountInfo, error) {
	var result struct {
		AccountData AccountInfo `json:"account_data"`
	}
	if err := c.call(ctx, "account_info", map[string]string{"account": account}, &result); err != nil {
		return nil, err
	}
	return &result.AccountData, nil
}
