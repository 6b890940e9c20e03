package core

import (
	"fmt"
	"time"

	"github.com/clydemeng/xcall/core/vm"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

const largeMsgRefTime = 10_000_000 // messages above this are timed

// ProcessResult contains the values computed by Process.
type ProcessResult struct {
	Receipts       []*vm.Receipt
	Touched        mapset.Set[common.Address]
	Used           vm.Weight
	StorageDeposit *uint256.Int
	Failed         int
	Hazards        int
}

// Processor runs batches of messages, one after another, through a
// MessageExecutor.
type Processor struct {
	executor MessageExecutor
}

// NewProcessor initialises a new Processor.
func NewProcessor(executor MessageExecutor) *Processor {
	return &Processor{executor: executor}
}

// Process executes msgs in order. A message that fails is recorded in its
// receipt and processing continues; a message that cannot be executed at all
// aborts the batch. State changes of messages already executed are kept.
func (p *Processor) Process(msgs []*Message) (*ProcessResult, error) {
	log.Debug("Processing messages", "engine", p.executor.Engine(), "count", len(msgs))

	result := &ProcessResult{
		Receipts:       make([]*vm.Receipt, 0, len(msgs)),
		Touched:        mapset.NewThreadUnsafeSet[common.Address](),
		StorageDeposit: new(uint256.Int),
	}
	for i, msg := range msgs {
		start := time.Now()
		receipt, err := p.executor.ExecuteMsg(msg)
		if err != nil {
			return nil, fmt.Errorf("could not apply message %d from %s: %w", i, msg.From.Hex(), err)
		}
		if receipt.Used.RefTime > largeMsgRefTime {
			log.Info("Large message execution time", "index", i, "from", msg.From, "reftime", receipt.Used.RefTime, "elapsed", time.Since(start))
		}
		if receipt.Failed() {
			result.Failed++
			log.Debug("Message failed", "index", i, "from", msg.From, "kind", vm.KindOf(receipt.Err), "err", receipt.Err)
		}
		for _, hazard := range receipt.Hazards {
			log.Warn("Message reported a hazard", "index", i, "from", msg.From, "err", hazard)
		}
		result.Hazards += len(receipt.Hazards)
		result.Used = result.Used.Add(receipt.Used)
		result.StorageDeposit.Add(result.StorageDeposit, receipt.StorageDeposit)
		result.Touched.Append(receipt.Touched...)
		result.Receipts = append(result.Receipts, receipt)
	}
	log.Debug("Processed messages", "count", len(msgs), "failed", result.Failed, "hazards", result.Hazards, "reftime", result.Used.RefTime, "touched", result.Touched.Cardinality())
	return result, nil
}
