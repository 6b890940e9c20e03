package vm

import "errors"

// List of invocation errors. Every failure is returned to the immediate caller
// as a value; the runtime never retries and never aborts the enclosing frame on
// its own.
var (
	ErrCodeNotFound          = errors.New("code not found")
	ErrContractNotFound      = errors.New("contract not found")
	ErrEntryPointNotFound    = errors.New("entry point not found")
	ErrResourceLimitExceeded = errors.New("resource limit exceeded")
	ErrConflictingTailCall   = errors.New("storage mutated after tail call")
	ErrReentranceDenied      = errors.New("reentrance denied")
	ErrMaxCallDepth          = errors.New("max call depth exceeded")
	ErrDuplicateContract     = errors.New("contract already exists")
	ErrInsufficientBalance   = errors.New("insufficient balance for transfer")
	ErrNotPayable            = errors.New("value transferred to non-payable entry point")
	ErrNoCallerFrame         = errors.New("delegate call requires a contract frame")
	ErrInputForwarded        = errors.New("input already forwarded")
	ErrInvalidFlags          = errors.New("invalid call flags")
	ErrDecodingFailed        = errors.New("decoding failed")
	ErrContractTrapped       = errors.New("contract trapped")
	ErrInvalidCode           = errors.New("invalid code")
)

// ErrorKind classifies an invocation failure.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindCodeNotFound
	KindContractNotFound
	KindEntryPointNotFound
	KindResourceLimitExceeded
	KindConflictingTailCall
	KindReentranceDenied
	KindMaxCallDepth
	KindDuplicateContract
	KindInsufficientBalance
	KindNotPayable
	KindNoCallerFrame
	KindInputForwarded
	KindInvalidFlags
	KindDecodingFailed
	KindContractTrapped
	KindInvalidCode
	KindOther
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrCodeNotFound, KindCodeNotFound},
	{ErrContractNotFound, KindContractNotFound},
	{ErrEntryPointNotFound, KindEntryPointNotFound},
	{ErrResourceLimitExceeded, KindResourceLimitExceeded},
	{ErrConflictingTailCall, KindConflictingTailCall},
	{ErrReentranceDenied, KindReentranceDenied},
	{ErrMaxCallDepth, KindMaxCallDepth},
	{ErrDuplicateContract, KindDuplicateContract},
	{ErrInsufficientBalance, KindInsufficientBalance},
	{ErrNotPayable, KindNotPayable},
	{ErrNoCallerFrame, KindNoCallerFrame},
	{ErrInputForwarded, KindInputForwarded},
	{ErrInvalidFlags, KindInvalidFlags},
	{ErrDecodingFailed, KindDecodingFailed},
	{ErrContractTrapped, KindContractTrapped},
	{ErrInvalidCode, KindInvalidCode},
}

// KindOf returns the kind of the first sentinel error found in err's chain.
// Errors produced by contract code itself are reported as KindOther.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindOther
}

// String returns a human-readable string for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindCodeNotFound:
		return "code_not_found"
	case KindContractNotFound:
		return "contract_not_found"
	case KindEntryPointNotFound:
		return "entry_point_not_found"
	case KindResourceLimitExceeded:
		return "resource_limit_exceeded"
	case KindConflictingTailCall:
		return "conflicting_tail_call"
	case KindReentranceDenied:
		return "reentrance_denied"
	case KindMaxCallDepth:
		return "max_call_depth"
	case KindDuplicateContract:
		return "duplicate_contract"
	case KindInsufficientBalance:
		return "insufficient_balance"
	case KindNotPayable:
		return "not_payable"
	case KindNoCallerFrame:
		return "no_caller_frame"
	case KindInputForwarded:
		return "input_forwarded"
	case KindInvalidFlags:
		return "invalid_flags"
	case KindDecodingFailed:
		return "decoding_failed"
	case KindContractTrapped:
		return "contract_trapped"
	case KindInvalidCode:
		return "invalid_code"
	case KindOther:
		return "other"
	}
	return "unknown"
}
