package core

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Digital-Shane/folder-tidy/internal/log"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultReservedStem is the stem of the tool's own executable or script.
// Files with this stem are never moved so the tool cannot organize itself.
const DefaultReservedStem = "organize"

// CompleteMessage is the final event a Stream sends after a completed run.
const CompleteMessage = "Organization complete!"

// errStopped marks a run whose consumer stopped iterating mid-entry.
var errStopped = errors.New("organize run stopped")

// ProgressEvent reports one step of an organize run.
type ProgressEvent struct {
	Percent int
	Message string
}

// Outcome aggregates per-file results of a run.
type Outcome struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// RunState is the lifecycle stage of a Run.
type RunState int32

const (
	RunIdle RunState = iota
	RunRunning
	RunCompleted
	RunCancelled
)

func (s RunState) String() string {
	switch s {
	case RunIdle:
		return "idle"
	case RunRunning:
		return "running"
	case RunCompleted:
		return "completed"
	case RunCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Functions bundles the filesystem and session callbacks used by the
// organizer. Tests can override any subset of these handlers.
type Functions struct {
	CreateStemDir  func(dirPath string) error
	MoveFile       func(src, dst string) error
	StartSession   func(folder string, args []string) (string, error)
	EndSession     func() error
	// DiscardPending drops logged renames when Start refuses a run.
	DiscardPending func()
}

func (f Functions) withDefaults() Functions {
	if f.CreateStemDir == nil {
		f.CreateStemDir = CreateStemDir
	}
	if f.MoveFile == nil {
		f.MoveFile = MoveFile
	}
	if f.StartSession == nil {
		f.StartSession = log.StartSession
	}
	if f.EndSession == nil {
		f.EndSession = log.EndSession
	}
	if f.DiscardPending == nil {
		f.DiscardPending = log.DiscardPending
	}
	return f
}

// Option configures an Organizer during construction.
type Option func(*Organizer)

// WithReservedStem overrides the stem that is skipped during a run.
func WithReservedStem(stem string) Option {
	return func(o *Organizer) {
		if strings.TrimSpace(stem) != "" {
			o.reservedStem = stem
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Organizer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFunctions overrides filesystem and session handlers.
func WithFunctions(fns Functions) Option {
	return func(o *Organizer) {
		o.fns = fns
	}
}

// WithLockDir enables cross-process run locking with lock files in dir.
func WithLockDir(dir string) Option {
	return func(o *Organizer) {
		o.lockDir = dir
	}
}

// WithCommandArgs records the invoking command line in each run's session log.
func WithCommandArgs(args []string) Option {
	return func(o *Organizer) {
		o.commandArgs = args
	}
}

// Organizer moves every file of a folder into a subfolder named after its stem.
type Organizer struct {
	reservedStem string
	logger       *zap.Logger
	fns          Functions
	lockDir      string
	commandArgs  []string
	guard        *runGuard
}

// NewOrganizer builds an Organizer with the supplied options applied.
func NewOrganizer(opts ...Option) *Organizer {
	o := &Organizer{
		reservedStem: DefaultReservedStem,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.fns = o.fns.withDefaults()
	o.guard = newRunGuard(o.lockDir)
	return o
}

// ReservedStem returns the stem skipped during runs.
func (o *Organizer) ReservedStem() string { return o.reservedStem }

// Running reports whether folderRoot has a run in flight in this process.
func (o *Organizer) Running(folderRoot string) bool {
	abs, err := filepath.Abs(folderRoot)
	if err != nil {
		return false
	}
	return o.guard.running(abs)
}

// Start claims folderRoot and prepares a run over a snapshot of entries. The
// caller's entries are never modified by the run; Run.Entries reports where
// each file ended up. The caller must consume the run's events or call Close
// so the claim is released.
func (o *Organizer) Start(entries []*FileEntry, folderRoot string) (run *Run, err error) {
	defer func() {
		if err != nil {
			o.fns.DiscardPending()
		}
	}()

	if folderRoot == "" {
		return nil, ErrNoFolder
	}
	if len(entries) == 0 {
		return nil, ErrNoFiles
	}
	root, err := filepath.Abs(folderRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", folderRoot, err)
	}

	release, err := o.guard.claim(root)
	if err != nil {
		return nil, err
	}

	snapshot := make([]*FileEntry, len(entries))
	for i, e := range entries {
		cp := *e
		snapshot[i] = &cp
	}

	return &Run{
		org:     o,
		root:    root,
		entries: snapshot,
		release: release,
	}, nil
}

// Run is a single, non-restartable organize pass over a fixed entry list.
type Run struct {
	org     *Organizer
	root    string
	entries []*FileEntry
	release func()
	once    sync.Once
	state   atomic.Int32

	mu      sync.Mutex
	id      string
	outcome Outcome
}

// ID returns the session id of a started run.
func (r *Run) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// State returns the current lifecycle stage.
func (r *Run) State() RunState { return RunState(r.state.Load()) }

// Outcome returns the per-file tally accumulated so far.
func (r *Run) Outcome() Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// Entries returns copies of the run's entries with their current paths.
func (r *Run) Entries() []FileEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FileEntry, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
	}
	return out
}

// Close abandons a run that was never started and releases its folder claim.
func (r *Run) Close() {
	r.state.CompareAndSwap(int32(RunIdle), int32(RunCancelled))
	r.releaseClaim()
}

func (r *Run) releaseClaim() {
	r.once.Do(r.release)
}

// Events returns the lazy, ordered event sequence of the run. Iteration
// performs the work; only the first iteration does anything. Cancellation
// through ctx, or stopping iteration early, is observed between entries and
// never in the middle of a move.
func (r *Run) Events(ctx context.Context) iter.Seq[ProgressEvent] {
	return func(yield func(ProgressEvent) bool) {
		if !r.state.CompareAndSwap(int32(RunIdle), int32(RunRunning)) {
			return
		}
		defer r.releaseClaim()

		r.startSession()
		defer r.endSession()

		if r.process(ctx, yield) {
			r.state.Store(int32(RunCompleted))
		} else {
			r.state.Store(int32(RunCancelled))
		}

		out := r.Outcome()
		r.org.logger.Info("organize run finished",
			zap.String("run_id", r.ID()),
			zap.String("folder", r.root),
			zap.Stringer("state", r.State()),
			zap.Int("succeeded", out.Succeeded),
			zap.Int("failed", out.Failed),
			zap.Int("skipped", out.Skipped))
	}
}

// process walks the entries and reports whether every entry was visited.
func (r *Run) process(ctx context.Context, yield func(ProgressEvent) bool) bool {
	total := len(r.entries)
	processed := 0
	r.mu.Lock()
	r.outcome.Total = total
	r.mu.Unlock()

	for i, e := range r.entries {
		if err := ctx.Err(); err != nil {
			yield(ProgressEvent{
				Percent: percent(processed, total),
				Message: fmt.Sprintf("Cancelled: %d file(s) not processed", total-i),
			})
			return false
		}

		stem := e.Stem()
		if strings.EqualFold(stem, r.org.reservedStem) {
			processed++
			r.tally(func(o *Outcome) { o.Skipped++ })
			r.org.logger.Debug("skipping reserved file", zap.String("file", e.Name()))
			continue
		}

		fileName := e.Name()
		pct := percent(processed, total)
		if !yield(ProgressEvent{Percent: pct, Message: "Creating folder: " + stem}) {
			return false
		}

		if err := r.organizeEntry(e, stem, pct, yield); err != nil {
			if errors.Is(err, errStopped) {
				return false
			}
			oe := &OrganizeError{FileName: fileName, Stem: stem, Err: err}
			r.tally(func(o *Outcome) { o.Failed++ })
			r.org.logger.Warn("organize failed",
				zap.String("file", fileName),
				zap.String("stem", stem),
				zap.Error(oe))
			if !yield(ProgressEvent{Percent: pct, Message: "Error: " + oe.Error()}) {
				return false
			}
			continue
		}

		processed++
		r.tally(func(o *Outcome) { o.Succeeded++ })
		if !yield(ProgressEvent{
			Percent: percent(processed, total),
			Message: fmt.Sprintf("Success: %s moved to %s", fileName, stem),
		}) {
			return false
		}
	}
	return true
}

// organizeEntry creates the stem folder and moves the entry into it. A
// consumer that stops between the two steps surfaces as errStopped.
func (r *Run) organizeEntry(e *FileEntry, stem string, pct int, yield func(ProgressEvent) bool) error {
	fileName := e.Name()
	if stem == "" {
		return fmt.Errorf("cannot derive a folder name from %s", fileName)
	}

	target := filepath.Join(r.root, stem)
	if err := r.org.fns.CreateStemDir(target); err != nil {
		return err
	}

	if !yield(ProgressEvent{Percent: pct, Message: fmt.Sprintf("Moving %s to %s", fileName, stem)}) {
		return errStopped
	}

	dst := filepath.Join(target, fileName)
	if err := r.org.fns.MoveFile(e.CurrentPath, dst); err != nil {
		return err
	}
	r.mu.Lock()
	e.CurrentPath = dst
	r.mu.Unlock()
	return nil
}

func (r *Run) tally(fn func(*Outcome)) {
	r.mu.Lock()
	fn(&r.outcome)
	r.mu.Unlock()
}

func (r *Run) startSession() {
	id, err := r.org.fns.StartSession(r.root, r.org.commandArgs)
	if err != nil {
		r.org.logger.Warn("failed to start operation log", zap.Error(err))
	}
	if id == "" {
		id = uuid.NewString()
	}
	r.mu.Lock()
	r.id = id
	r.mu.Unlock()
	r.org.logger.Info("organize run started",
		zap.String("run_id", id),
		zap.String("folder", r.root),
		zap.Int("entries", len(r.entries)))
}

func (r *Run) endSession() {
	if err := r.org.fns.EndSession(); err != nil {
		r.org.logger.Warn("failed to save operation log", zap.Error(err))
	}
}

// Stream runs the organize pass on a worker goroutine. Events arrive in
// emission order; a completed run ends with a 100% CompleteMessage event.
// The channel is closed exactly once when the run is over.
func (r *Run) Stream(ctx context.Context) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 16)
	go func() {
		defer close(ch)
		for ev := range r.Events(ctx) {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
		if r.State() == RunCompleted {
			ch <- ProgressEvent{Percent: 100, Message: CompleteMessage}
		}
	}()
	return ch
}

func percent(processed, total int) int {
	if total <= 0 {
		return 0
	}
	return processed * 100 / total
}
