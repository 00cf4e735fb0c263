package service

import (
	"context"
	"strconv"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"aptos-swap/internal/chain/types"
	"aptos-swap/internal/models"
)

var log = logging.Logger("executor")

// TxState 交易流水线状态
type TxState string

const (
	StateBuilt     TxState = "BUILT"
	StateSigned    TxState = "SIGNED"
	StateSubmitted TxState = "SUBMITTED"
	StateConfirmed TxState = "CONFIRMED"
	StateFailed    TxState = "FAILED"
)

// TxOptions 交易构造与等待参数
type TxOptions struct {
	MaxGasAmount uint64
	Expiration   time.Duration
	WaitTimeout  time.Duration
	PollInterval time.Duration
}

// TransactionResult is the settled outcome of a committed transaction.
// Success=false means the VM rejected its effects; VMStatus carries the reason.
type TransactionResult struct {
	Success  bool
	Hash     string
	Version  string
	VMStatus string
	GasUsed  uint64
	Events   []types.ParsedEvent
}

type Executor struct {
	node    ChainNode
	wallets Wallets
	opts    TxOptions
	locks   *keyedMutex
	now     func() time.Time
}

func NewExecutor(node ChainNode, wallets Wallets, opts TxOptions) *Executor {
	log.Info("NewExecutor: creating new executor instance")
	return &Executor{node: node, wallets: wallets, opts: opts, locks: newKeyedMutex(), now: time.Now}
}

// SignAndBroadcast builds, signs and submits payload from w, then waits for finality.
// The wallet's lock is held from the sequence number read until the wait returns,
// so transactions of one wallet never race for a sequence number.
func (e *Executor) SignAndBroadcast(ctx context.Context, w *models.Wallet, payload *types.EntryFunctionPayload) (*TransactionResult, error) {
	unlock := e.locks.Lock(w.Address)
	defer unlock()

	signer, err := e.wallets.Signer(w)
	if err != nil {
		return nil, &SubmissionError{Stage: StageKey, Err: err}
	}
	defer signer.Wipe()

	seq, err := e.node.SequenceNumber(ctx, signer.Address)
	if err != nil {
		log.Errorf("SignAndBroadcast: failed to read sequence number of %s: %v", signer.Address, err)
		return nil, &SubmissionError{Stage: StageAccount, Err: err}
	}
	gasPrice, err := e.node.EstimateGasPrice(ctx)
	if err != nil {
		return nil, &SubmissionError{Stage: StageGas, Err: err}
	}

	raw := &types.RawTransaction{
		Sender:                  signer.Address.String(),
		SequenceNumber:          strconv.FormatUint(seq, 10),
		MaxGasAmount:            strconv.FormatUint(e.opts.MaxGasAmount, 10),
		GasUnitPrice:            strconv.FormatUint(gasPrice, 10),
		ExpirationTimestampSecs: strconv.FormatInt(e.now().Add(e.opts.Expiration).Unix(), 10),
		Payload:                 payload,
	}
	log.Infof("SignAndBroadcast: %s %s seq=%d", StateBuilt, payload.Function, seq)

	msg, err := e.node.EncodeSubmission(ctx, raw)
	if err != nil {
		return nil, &SubmissionError{Stage: StageEncode, Err: err}
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return nil, &SubmissionError{Stage: StageSign, Err: err}
	}
	log.Infof("SignAndBroadcast: %s %s seq=%d", StateSigned, payload.Function, seq)

	pending, err := e.node.SubmitTransaction(ctx, &types.SignedTransaction{
		RawTransaction: *raw,
		Signature: types.Signature{
			Type:      types.Ed25519SignatureType,
			PublicKey: types.EncodeHex(signer.PublicKey),
			Signature: types.EncodeHex(sig),
		},
	})
	if err != nil {
		return nil, &SubmissionError{Stage: StageSubmit, Err: err}
	}
	log.Infof("SignAndBroadcast: %s hash=%s", StateSubmitted, pending.Hash)

	tx, err := e.node.WaitForTransaction(ctx, pending.Hash, e.opts.WaitTimeout, e.opts.PollInterval)
	if err != nil {
		log.Errorf("SignAndBroadcast: wait for %s failed, outcome unknown: %v", pending.Hash, err)
		return nil, &SubmissionError{Stage: StageWait, Hash: pending.Hash, Err: err}
	}

	res := &TransactionResult{
		Success:  tx.Success,
		Hash:     tx.Hash,
		Version:  tx.Version,
		VMStatus: tx.VMStatus,
		Events:   types.ParseEvents(tx.Events),
	}
	if res.Hash == "" {
		res.Hash = pending.Hash
	}
	if gas, err := strconv.ParseUint(tx.GasUsed, 10, 64); err == nil {
		res.GasUsed = gas
	}

	if res.Success {
		log.Infof("SignAndBroadcast: %s hash=%s version=%s gas=%d", StateConfirmed, res.Hash, res.Version, res.GasUsed)
	} else {
		log.Warnf("SignAndBroadcast: %s hash=%s vm_status=%q", StateFailed, res.Hash, res.VMStatus)
	}
	return res, nil
}
