package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation 请求参数不合法，未发起任何网络调用
	ErrValidation = errors.New("validation failed")
	// ErrQuoteUnavailable 没有可用的流动性路径
	ErrQuoteUnavailable = errors.New("quote unavailable")
)

// ValidationError describes a rejected request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Stage is the pipeline step a submission failed in.
type Stage string

const (
	StageKey     Stage = "key"
	StageAccount Stage = "account"
	StageGas     Stage = "gas"
	StageEncode  Stage = "encode"
	StageSign    Stage = "sign"
	StageSubmit  Stage = "submit"
	StageWait    Stage = "wait"
)

// SubmissionError is a failure before a committed result was observed. The
// outcome is unknown: Hash is set once the node accepted the transaction and
// the transaction may still commit.
type SubmissionError struct {
	Stage Stage
	Hash  string
	Err   error
}

func (e *SubmissionError) Error() string {
	if e.Hash != "" {
		return fmt.Sprintf("submission failed at %s (tx %s, outcome unknown): %v", e.Stage, e.Hash, e.Err)
	}
	return fmt.Sprintf("submission failed at %s: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// OnChainFailure is a transaction that was included but rejected by the VM.
type OnChainFailure struct {
	Op       string
	Hash     string
	VMStatus string
}

func (e *OnChainFailure) Error() string {
	return fmt.Sprintf("%s transaction %s failed on chain: %s", e.Op, e.Hash, e.VMStatus)
}
