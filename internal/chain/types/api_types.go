package types

import (
	"encoding/json"
)

const (
	EntryFunctionPayloadType = "entry_function_payload"
	Ed25519SignatureType     = "ed25519_signature"

	TxTypePending = "pending_transaction"
	TxTypeUser    = "user_transaction"
)

type AccountData struct {
	SequenceNumber string `json:"sequence_number"`
	AuthKey        string `json:"authentication_key"`
}

type MoveResource struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type GasEstimate struct {
	DeprioritizedGasEstimate uint64 `json:"deprioritized_gas_estimate"`
	GasEstimate              uint64 `json:"gas_estimate"`
	PrioritizedGasEstimate   uint64 `json:"prioritized_gas_estimate"`
}

// EntryFunctionPayload is the JSON form of an entry function call.
// Arguments are JSON values; u64 amounts are passed as decimal strings.
type EntryFunctionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// NewEntryFunction builds an entry function payload.
func NewEntryFunction(function string, typeArgs []string, args ...any) *EntryFunctionPayload {
	if typeArgs == nil {
		typeArgs = []string{}
	}
	if args == nil {
		args = []any{}
	}
	return &EntryFunctionPayload{
		Type:          EntryFunctionPayloadType,
		Function:      function,
		TypeArguments: typeArgs,
		Arguments:     args,
	}
}

// ViewRequest is the body of POST /view.
type ViewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []any    `json:"arguments"`
}

// RawTransaction is the unsigned transaction body accepted by /transactions/encode_submission.
type RawTransaction struct {
	Sender                  string                `json:"sender"`
	SequenceNumber          string                `json:"sequence_number"`
	MaxGasAmount            string                `json:"max_gas_amount"`
	GasUnitPrice            string                `json:"gas_unit_price"`
	ExpirationTimestampSecs string                `json:"expiration_timestamp_secs"`
	Payload                 *EntryFunctionPayload `json:"payload"`
}

type Signature struct {
	Type      string `json:"type"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
}

// SignedTransaction is the body of POST /transactions.
type SignedTransaction struct {
	RawTransaction
	Signature Signature `json:"signature"`
}

type PendingTransaction struct {
	Hash string `json:"hash"`
	Type string `json:"type"`
}

// Event is a raw emitted event as returned by the node.
type Event struct {
	Type           string          `json:"type"`
	SequenceNumber string          `json:"sequence_number"`
	Data           json.RawMessage `json:"data"`
}

// Transaction is the subset of a committed (or pending) transaction the pipeline reads.
type Transaction struct {
	Type     string  `json:"type"`
	Hash     string  `json:"hash"`
	Version  string  `json:"version"`
	Success  bool    `json:"success"`
	VMStatus string  `json:"vm_status"`
	GasUsed  string  `json:"gas_used"`
	Sender   string  `json:"sender"`
	Events   []Event `json:"events"`
}

// Committed reports whether the transaction left the mempool.
func (t *Transaction) Committed() bool {
	return t != nil && t.Type != "" && t.Type != TxTypePending
}

// FungibleAssetBalance is a row of the indexer's current_fungible_asset_balances.
type FungibleAssetBalance struct {
	AssetType string  `json:"asset_type"`
	Amount    FlexInt `json:"amount"`
}

// FungibleAssetMetadata is a row of the indexer's fungible_asset_metadata.
type FungibleAssetMetadata struct {
	AssetType string `json:"asset_type"`
	Name      string `json:"name"`
	Symbol    string `json:"symbol"`
	Decimals  uint8  `json:"decimals"`
}
