// Package router decides, per user instruction, whether the instruction
// can be satisfied deterministically against the live grid or must be
// delegated to the remote analysis capability. It applies at most one
// dataset mutation per instruction and keeps history consistent across
// both local and remote mutation paths.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tabloom/internal/dataset"
	"github.com/KaramelBytes/tabloom/internal/grid"
	"github.com/KaramelBytes/tabloom/internal/history"
	"github.com/KaramelBytes/tabloom/internal/remote"
)

// Decision names the pipeline stage that resolved an instruction.
type Decision string

const (
	DecisionLocal        Decision = "local"
	DecisionBackend      Decision = "backend"
	DecisionFallback     Decision = "fallback"
	DecisionUnrecognized Decision = "unrecognized"
)

// Outcome is the result of routing one instruction.
type Outcome struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Decision  Decision `json:"routing_decision"`
	ElapsedMs int64    `json:"elapsed_ms"`
}

// RemoteService is the slice of the remote client the router needs.
type RemoteService interface {
	Process(ctx context.Context, req remote.Request) (*remote.Response, error)
}

// Saver persists the current dataset for the save/export commands.
type Saver interface {
	Save(ds *dataset.Dataset) error
	Export(ds *dataset.Dataset) (string, error)
}

// Router orchestrates the ordered resolution pipeline: control commands,
// the duplicate-removal remote special case, local deterministic match,
// backend-necessity classification, remote delegation, legacy fallback,
// unrecognized. First matching stage wins.
type Router struct {
	grid    grid.Adapter
	history *history.Manager
	remote  RemoteService
	saver   Saver
	logger  *zap.Logger

	// single-flight discipline: one instruction runs to completion
	// before the next is accepted. No queueing, no cancellation.
	inFlight atomic.Bool
}

// New wires a router. remote and saver may be nil; the corresponding
// stages then resolve to user-visible failures instead of panics.
func New(g grid.Adapter, h *history.Manager, rs RemoteService, saver Saver, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{grid: g, history: h, remote: rs, saver: saver, logger: logger}
}

// Execute routes one instruction through the pipeline and returns its
// outcome. It never panics and never leaves the dataset or history
// partially mutated.
func (r *Router) Execute(ctx context.Context, instruction string) Outcome {
	started := time.Now()
	if !r.inFlight.CompareAndSwap(false, true) {
		return Outcome{
			Success:  false,
			Message:  "another command is still running; wait for it to finish",
			Decision: DecisionUnrecognized,
		}
	}
	defer r.inFlight.Store(false)

	out := r.route(ctx, instruction)
	out.ElapsedMs = time.Since(started).Milliseconds()
	r.logger.Info("instruction routed",
		zap.String("decision", string(out.Decision)),
		zap.Bool("success", out.Success),
		zap.Int64("elapsed_ms", out.ElapsedMs))
	return out
}

func (r *Router) route(ctx context.Context, instruction string) Outcome {
	norm := strings.ToLower(strings.TrimSpace(instruction))
	if norm == "" {
		return Outcome{Success: false, Message: "empty instruction", Decision: DecisionUnrecognized}
	}

	// Stage 1: control commands, exact match against a fixed vocabulary.
	if isControlCommand(norm) {
		return r.runControl(norm)
	}

	// Stage 2: duplicate removal always delegates remotely, even though
	// a local duplicate detector exists in the quality analyzer; the
	// removal policy lives on the backend.
	if isDuplicateRemoval(norm) {
		return r.runDuplicateRemoval(ctx, instruction)
	}

	// Stage 3: local deterministic grammar. A matched operation that
	// fails degrades to the next stage instead of surfacing.
	if op := r.matchLocal(norm); op != nil {
		if out, ok := r.runLocal(op); ok {
			return out
		}
	}

	// Stage 4: backend-necessity classification.
	if opType := classifyOperation(norm); opType != "" {
		current := r.grid.Snapshot()
		if current.Empty() {
			return Outcome{
				Success:  false,
				Message:  "no data loaded; load a dataset before asking for " + opType,
				Decision: DecisionBackend,
			}
		}
		// Stage 5: remote delegation.
		return r.runRemote(ctx, instruction, opType, current)
	}

	// Stage 6: legacy fallback keyword triggers.
	if out, ok := r.runFallback(norm); ok {
		return out
	}

	// Stage 7: unrecognized.
	return Outcome{
		Success:  false,
		Message:  fmt.Sprintf("could not understand %q; try rephrasing or ask for analysis", instruction),
		Decision: DecisionUnrecognized,
	}
}

func (r *Router) runControl(norm string) Outcome {
	switch norm {
	case "undo":
		if r.history.Undo() {
			return Outcome{Success: true, Message: "undid last change", Decision: DecisionLocal}
		}
		return Outcome{Success: false, Message: "nothing to undo", Decision: DecisionLocal}
	case "redo":
		if r.history.Redo() {
			return Outcome{Success: true, Message: "redid last undone change", Decision: DecisionLocal}
		}
		return Outcome{Success: false, Message: "nothing to redo", Decision: DecisionLocal}
	case "save":
		if r.saver == nil {
			return Outcome{Success: false, Message: "no workspace configured for saving", Decision: DecisionLocal}
		}
		if err := r.saver.Save(r.grid.Snapshot()); err != nil {
			return Outcome{Success: false, Message: "save failed: " + err.Error(), Decision: DecisionLocal}
		}
		return Outcome{Success: true, Message: "workspace saved", Decision: DecisionLocal}
	case "export":
		if r.saver == nil {
			return Outcome{Success: false, Message: "no workspace configured for export", Decision: DecisionLocal}
		}
		path, err := r.saver.Export(r.grid.Snapshot())
		if err != nil {
			return Outcome{Success: false, Message: "export failed: " + err.Error(), Decision: DecisionLocal}
		}
		return Outcome{Success: true, Message: "exported to " + path, Decision: DecisionLocal}
	}
	return Outcome{Success: false, Message: "unknown control command", Decision: DecisionLocal}
}

// runDuplicateRemoval pushes the pre-mutation dataset explicitly so the
// prior state survives the remote mutation, then applies the remote
// result without a second push.
func (r *Router) runDuplicateRemoval(ctx context.Context, instruction string) Outcome {
	pre := r.grid.Snapshot()
	if pre.Empty() {
		return Outcome{Success: false, Message: "no data loaded; nothing to deduplicate", Decision: DecisionBackend}
	}
	if r.remote == nil {
		return Outcome{Success: false, Message: "remote analysis service not configured", Decision: DecisionBackend}
	}
	headers, rows := pre.ToRows()
	resp, err := r.remote.Process(ctx, remote.Request{
		Instruction: instruction,
		Operation:   OpRemoveDuplicates,
		Headers:     headers,
		Rows:        rows,
	})
	if err != nil {
		return remoteFailure(err)
	}
	if !resp.Success {
		return Outcome{Success: false, Message: orDefault(resp.Message, "duplicate removal failed"), Decision: DecisionBackend}
	}
	r.history.Push(pre, "before duplicate removal")
	if resp.UpdatedData != nil {
		ds := updatedDataset(resp.UpdatedData)
		if err := r.grid.LoadData(ds, true); err != nil {
			return Outcome{Success: false, Message: "apply result: " + err.Error(), Decision: DecisionBackend}
		}
	}
	return Outcome{Success: true, Message: orDefault(resp.Message, "duplicates removed"), Decision: DecisionBackend}
}

// runLocal executes a matched local operation. Only a pre/post dataset
// difference pushes history, so presentation-only operations (widths,
// formats) never churn the snapshot stack. A failed operation returns
// ok=false so the pipeline can keep going.
func (r *Router) runLocal(op *localOp) (Outcome, bool) {
	pre := r.grid.Snapshot()
	if err := op.run(); err != nil {
		r.logger.Debug("local operation failed, falling through",
			zap.String("op", op.label), zap.Error(err))
		return Outcome{}, false
	}
	post := r.grid.Snapshot()
	if !pre.Equal(post) {
		r.history.Push(post, op.label)
	}
	return Outcome{Success: true, Message: "applied " + op.label, Decision: DecisionLocal}, true
}

// runRemote delegates the instruction plus the serialized dataset. A
// returned action is replayed against the grid; a returned dataset
// replaces the current one and is pushed to history. Informational
// responses leave data and history untouched.
func (r *Router) runRemote(ctx context.Context, instruction, opType string, current *dataset.Dataset) Outcome {
	if r.remote == nil {
		return Outcome{Success: false, Message: "remote analysis service not configured", Decision: DecisionBackend}
	}
	headers, rows := current.ToRows()
	resp, err := r.remote.Process(ctx, remote.Request{
		Instruction: instruction,
		Operation:   opType,
		Headers:     headers,
		Rows:        rows,
	})
	if err != nil {
		return remoteFailure(err)
	}
	if !resp.Success {
		return Outcome{Success: false, Message: orDefault(resp.Message, "the analysis service rejected the request"), Decision: DecisionBackend}
	}
	if resp.Action != nil {
		if err := r.replayAction(resp.Action); err != nil {
			r.logger.Warn("action replay failed", zap.String("type", resp.Action.Type), zap.Error(err))
		}
	}
	if resp.DataUpdated && resp.UpdatedData != nil {
		ds := updatedDataset(resp.UpdatedData)
		if err := r.grid.LoadData(ds, true); err != nil {
			return Outcome{Success: false, Message: "apply result: " + err.Error(), Decision: DecisionBackend}
		}
		r.history.Push(ds, opType)
	}
	return Outcome{Success: true, Message: orDefault(resp.Message, "done"), Decision: DecisionBackend}
}

// replayAction applies a remote-issued grid directive locally.
func (r *Router) replayAction(a *remote.Action) error {
	switch a.Type {
	case "format":
		var p struct {
			Style string `json:"style"`
		}
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return fmt.Errorf("decode format payload: %w", err)
		}
		return r.grid.ApplyFormat(p.Style)
	case "autofit":
		return r.grid.AutoFitColumns()
	case "set_formula":
		var p struct {
			Row     int    `json:"row"`
			Col     int    `json:"col"`
			Formula string `json:"formula"`
		}
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return fmt.Errorf("decode formula payload: %w", err)
		}
		return r.grid.SetFormula(p.Row, p.Col, p.Formula)
	default:
		return fmt.Errorf("unsupported action type %q", a.Type)
	}
}

func (r *Router) runFallback(norm string) (Outcome, bool) {
	if r.saver == nil {
		return Outcome{}, false
	}
	if strings.Contains(norm, "save") {
		if err := r.saver.Save(r.grid.Snapshot()); err != nil {
			return Outcome{Success: false, Message: "save failed: " + err.Error(), Decision: DecisionFallback}, true
		}
		return Outcome{Success: true, Message: "workspace saved", Decision: DecisionFallback}, true
	}
	if strings.Contains(norm, "export") {
		path, err := r.saver.Export(r.grid.Snapshot())
		if err != nil {
			return Outcome{Success: false, Message: "export failed: " + err.Error(), Decision: DecisionFallback}, true
		}
		return Outcome{Success: true, Message: "exported to " + path, Decision: DecisionFallback}, true
	}
	return Outcome{}, false
}

// remoteFailure maps a remote error to a terminal, user-visible outcome.
// Malformed responses degrade to a generic no-op message.
func remoteFailure(err error) Outcome {
	var mal *remote.MalformedResponseError
	if errors.As(err, &mal) {
		return Outcome{Success: false, Message: "the analysis service returned an unreadable response; nothing was changed", Decision: DecisionBackend}
	}
	return Outcome{Success: false, Message: err.Error(), Decision: DecisionBackend}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func updatedDataset(u *remote.UpdatedData) *dataset.Dataset {
	recs := make([]dataset.Record, len(u.Data))
	for i, m := range u.Data {
		recs[i] = dataset.Record(m)
	}
	return dataset.New(u.Columns, recs)
}
