package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/clydemeng/xcall/contracts/flipper"
	"github.com/clydemeng/xcall/contracts/other"
	"github.com/clydemeng/xcall/core"
	"github.com/clydemeng/xcall/core/vm"
	"github.com/clydemeng/xcall/core/xcall"
	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/holiman/uint256"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var demoOrigin = common.HexToAddress("0x00000000000000000000000000000000000a11ce")

// demoStep is one message of the scenario, sent to the deployed flipper.
type demoStep struct {
	name  string
	input *vm.Input
}

func demoSteps(otherCode common.Hash) []demoStep {
	return []demoStep{
		{"get_value", vm.NewInput(flipper.SelectorGetValue)},
		{"delegate_flip", vm.NewInput(flipper.SelectorDelegateFlip)},
		{"delegate_flip_tail_call", vm.NewInput(flipper.SelectorDelegateFlipTailCall)},
		{"flip", vm.NewInput(flipper.SelectorFlip)},
		{"get", vm.NewInput(flipper.SelectorGet)},
		{"delegate_flip_and_set(true)", vm.NewInput(flipper.SelectorDelegateFlipAndSet).PushArg(true)},
		{"delegate_invoke(unknown code)", vm.NewInput(flipper.SelectorDelegateInvoke).
			PushArg(common.Hash{0x01}).PushArg(other.SelectorFlip).PushArg(uint64(0))},
		{"delegate_invoke(unknown selector)", vm.NewInput(flipper.SelectorDelegateInvoke).
			PushArg(otherCode).PushArg(vm.NewSelector("missing")).PushArg(uint64(0))},
	}
}

// demo is the in-memory deployment the scenario runs against.
type demo struct {
	sdb       *state.StateDB
	processor *core.Processor
	limits    vm.Limits
	otherCode common.Hash
	flipper   common.Address
}

func newDemo(cfg RuntimeConfig) (*demo, error) {
	sdb, err := state.New(types.EmptyRootHash, state.NewDatabaseForTesting())
	if err != nil {
		return nil, err
	}
	sdb.AddBalance(demoOrigin, uint256.NewInt(1_000_000_000), tracing.BalanceChangeUnspecified)

	registry := vm.NewRegistry()
	exec, err := core.NewMessageExecutor(sdb, registry, cfg.vmConfig())
	if err != nil {
		return nil, err
	}
	d := &demo{
		sdb:       sdb,
		processor: core.NewProcessor(exec),
		limits:    cfg.limits(),
		otherCode: registry.Upload(other.Code),
	}
	flipperCode := registry.Upload(flipper.Code)

	inv, err := xcall.Create(flipperCode).
		ExecInput(vm.NewInput(flipper.SelectorNew).PushArg(d.otherCode)).
		Invocation()
	if err != nil {
		return nil, err
	}
	res, err := d.processor.Process([]*core.Message{{From: demoOrigin, Invocation: inv, Limits: d.limits}})
	if err != nil {
		return nil, err
	}
	if receipt := res.Receipts[0]; receipt.Failed() {
		return nil, fmt.Errorf("deploy flipper: %w", receipt.Err)
	}
	d.flipper = res.Receipts[0].Account
	log.Info("Deployed flipper", "account", d.flipper, "code", flipperCode, "other", d.otherCode)
	return d, nil
}

func (d *demo) send(input *vm.Input) (*vm.Receipt, error) {
	inv, err := xcall.Call(d.flipper).ExecInput(input).Invocation()
	if err != nil {
		return nil, err
	}
	res, err := d.processor.Process([]*core.Message{{From: demoOrigin, Invocation: inv, Limits: d.limits}})
	if err != nil {
		return nil, err
	}
	return res.Receipts[0], nil
}

// value reads the flipper's own cell straight from the state database.
func (d *demo) value() bool {
	return d.sdb.GetState(d.flipper, flipper.SlotValue) != (common.Hash{})
}

func runDemo(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	d, err := newDemo(cfg.Runtime)
	if err != nil {
		return err
	}
	out := ctx.App.Writer

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Message", "Outcome", "V", "Ref time", "Proof size", "Hazards"})
	var receipts []*vm.Receipt
	for i, step := range demoSteps(d.otherCode) {
		receipt, err := d.send(step.input)
		if err != nil {
			return err
		}
		receipts = append(receipts, receipt)
		result, hazards := outcome(receipt), strconv.Itoa(len(receipt.Hazards))
		if receipt.Failed() {
			result = color.RedString(result)
		}
		if len(receipt.Hazards) > 0 {
			hazards = color.YellowString(hazards)
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			step.name,
			result,
			strconv.FormatBool(d.value()),
			strconv.FormatUint(receipt.Used.RefTime, 10),
			strconv.FormatUint(receipt.Used.ProofSize, 10),
			hazards,
		})
	}
	fmt.Fprintf(out, "flipper %s running %s\n", d.flipper.Hex(), flipper.Code.Hash().Hex())
	table.Render()

	if ctx.Bool(flushesFlag.Name) {
		for i, receipt := range receipts {
			fmt.Fprintf(out, "\nmessage %d\n", i+1)
			printFlushes(out, receipt.Flushes)
		}
	}
	if ctx.Bool(dumpFlag.Name) {
		for i, receipt := range receipts {
			fmt.Fprintf(out, "\nreceipt %d\n", i+1)
			spew.Fdump(out, receipt)
		}
	}
	return nil
}

func outcome(r *vm.Receipt) string {
	if r.Failed() {
		return vm.KindOf(r.Err).String()
	}
	if len(r.Output) == 0 {
		return "ok"
	}
	return hexutil.Encode(r.Output)
}

func printFlushes(out io.Writer, flushes []vm.FlushRecord) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Frame", "Depth", "Style", "Entry", "Account", "Reason", "Writes"})
	for _, rec := range flushes {
		writes := ""
		for _, w := range rec.Writes {
			writes += fmt.Sprintf("%s: %s -> %s\n", w.Slot.TerminalString(), w.Prev.TerminalString(), w.Value.TerminalString())
		}
		table.Append([]string{
			strconv.Itoa(rec.Frame),
			strconv.Itoa(rec.Depth),
			rec.Style.String(),
			rec.Entry,
			rec.Account.Hex(),
			rec.Reason.String(),
			writes,
		})
	}
	table.Render()
}

func printSelectors(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return fmt.Errorf("no entry-point names given")
	}
	table := tablewriter.NewWriter(ctx.App.Writer)
	table.SetHeader([]string{"Name", "Selector"})
	for _, name := range ctx.Args().Slice() {
		table.Append([]string{name, vm.NewSelector(name).Hex()})
	}
	table.Render()
	return nil
}
