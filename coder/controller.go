package coder

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/martinemde/simplecoder/llm"
)

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeStopToken       Outcome = "stop_token"
	OutcomeBudgetExhausted Outcome = "budget_exhausted"
)

// EpochRecord is what happened in one epoch.
type EpochRecord struct {
	Epoch      int            `json:"epoch"`
	Messages   int            `json:"messages"`
	ResponseID string         `json:"response_id,omitempty"`
	Parse      ParseKind      `json:"parse"`
	Grammar    Grammar        `json:"grammar,omitempty"`
	StopToken  bool           `json:"stop_token"`
	Persist    *PersistResult `json:"persist,omitempty"`
}

// Result summarises a finished run.
type Result struct {
	RunID      string
	Target     string
	Outcome    Outcome
	Epoch      int // index of the final epoch
	Path       string
	Content    *CodeBlock
	LastOutput string
	Epochs     []EpochRecord
	Usage      llm.Usage
}

// Controller runs the epoch loop for one RunState.
type Controller struct {
	state     *RunState
	model     llm.Completer
	persister Persister
	pipeline  *Pipeline
	parser    *Parser

	stopToken string
	maxEpoch  int
	modelID   string
	logger    *zap.Logger
	events    *EventEmitter

	history []EpochRecord
	usage   llm.Usage
}

// Option configures a Controller.
type Option func(*Controller)

// WithStopToken overrides DefaultStopToken.
func WithStopToken(token string) Option {
	return func(c *Controller) {
		if token != "" {
			c.stopToken = token
		}
	}
}

// WithMaxEpoch overrides DefaultMaxEpoch.
func WithMaxEpoch(n int) Option {
	return func(c *Controller) {
		if n >= 0 {
			c.maxEpoch = n
		}
	}
}

// WithModel sets the model ID sent with every request.
func WithModel(model string) Option {
	return func(c *Controller) {
		c.modelID = model
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEvents attaches an event emitter.
func WithEvents(e *EventEmitter) Option {
	return func(c *Controller) {
		c.events = e
	}
}

// NewController takes ownership of state. files resolves reference names
// when composing.
func NewController(state *RunState, model llm.Completer, persister Persister, files FileReader, opts ...Option) *Controller {
	c := &Controller{
		state:     state,
		model:     model,
		persister: persister,
		parser:    NewParser(),
		stopToken: DefaultStopToken,
		maxEpoch:  DefaultMaxEpoch,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pipeline = NewPipeline(files, c.stopToken)
	if state != nil {
		c.logger = c.logger.With(zap.String("run_id", state.ID), zap.String("target", state.TargetName))
	}
	return c
}

// State returns a copy of the current run state, or the zero value when the
// controller was built without one.
func (c *Controller) State() RunState {
	if c.state == nil {
		return RunState{}
	}
	return c.state.clone()
}

// History returns a copy of the epoch records so far.
func (c *Controller) History() []EpochRecord {
	h := make([]EpochRecord, len(c.history))
	copy(h, c.history)
	return h
}

// Run drives epochs until the stop token is accepted or the budget runs out.
// Compose, transport, validation and filesystem failures abort the run.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	if c.state == nil {
		return nil, &PreconditionError{Field: "state"}
	}
	s := c.state
	c.emit(EventRunStart, map[string]interface{}{"max_epoch": c.maxEpoch})
	c.logger.Info("run started", zap.Int("max_epoch", c.maxEpoch), zap.Int("references", len(s.ReferenceNames)))

	for {
		if err := ctx.Err(); err != nil {
			return nil, c.fail(err)
		}
		outcome, path, err := c.step(ctx)
		if err != nil {
			return nil, c.fail(err)
		}
		if outcome != "" {
			c.emit(EventRunEnd, map[string]interface{}{"outcome": string(outcome), "path": path})
			c.logger.Info("run finished", zap.String("outcome", string(outcome)), zap.Int("epoch", s.Epoch), zap.String("path", path))
			return &Result{
				RunID:      s.ID,
				Target:     s.TargetName,
				Outcome:    outcome,
				Epoch:      s.Epoch,
				Path:       path,
				Content:    s.clone().CurrentContent,
				LastOutput: s.LastOutput,
				Epochs:     c.History(),
				Usage:      c.usage,
			}, nil
		}
		s.Epoch++
	}
}

// step runs one epoch and reports the outcome once the run is DONE.
func (c *Controller) step(ctx context.Context) (Outcome, string, error) {
	s := c.state
	rec := EpochRecord{Epoch: s.Epoch}
	defer func() { c.history = append(c.history, rec) }()

	c.emit(EventEpochStart, nil)
	log := c.logger.With(zap.Int("epoch", s.Epoch))
	log.Debug("epoch started")

	messages, err := c.pipeline.Compose(s)
	if err != nil {
		return "", "", err
	}
	rec.Messages = len(messages)

	if len(messages) > 0 {
		resp, err := c.model.Complete(ctx, llm.Request{Model: c.modelID, Messages: messages})
		if err != nil {
			return "", "", &TransportError{Epoch: s.Epoch, Cause: err}
		}
		rec.ResponseID = resp.ID
		c.usage = c.usage.Add(resp.Usage)
		c.emit(EventReply, map[string]interface{}{"response_id": resp.ID, "length": len(resp.Text)})

		c.absorb(resp.Text, &rec, log)

		if strings.Contains(resp.Text, c.stopToken) {
			rec.StopToken = true
			if s.Epoch == 0 {
				log.Info("stop token ignored in first epoch")
			} else {
				c.emit(EventStopToken, nil)
				res, err := c.persist(ctx)
				rec.Persist = &res
				if err != nil {
					return "", "", err
				}
				if res.Outcome == Persisted {
					return OutcomeStopToken, res.Path, nil
				}
				log.Info("stop token not accepted", zap.String("reason", res.Reason))
			}
		}
	}

	if s.Epoch > c.maxEpoch {
		c.emit(EventBudgetExhausted, nil)
		log.Warn("epoch budget exhausted", zap.Int("max_epoch", c.maxEpoch))
		res, err := c.persist(ctx)
		rec.Persist = &res
		if err != nil {
			return "", "", err
		}
		return OutcomeBudgetExhausted, res.Path, nil
	}
	return "", "", nil
}

// absorb applies a reply to the state: the first block becomes the current
// content unless it is the stop token; anything else is kept as last output.
func (c *Controller) absorb(reply string, rec *EpochRecord, log *zap.Logger) {
	s := c.state
	parsed := c.parser.Interpret(reply)
	rec.Parse = parsed.Kind
	rec.Grammar = parsed.Grammar

	block, ok := parsed.First()
	if !ok {
		s.LastOutput = reply
		s.HasLastOutput = true
		c.emit(EventFreeformOutput, map[string]interface{}{"parse": parsed.Kind.String()})
		log.Info("no code block in reply", zap.String("parse", parsed.Kind.String()))
		return
	}

	log.Info("code block extracted",
		zap.String("grammar", string(parsed.Grammar)),
		zap.String("kind", block.Kind),
		zap.String("file_name", block.FileName),
		zap.Int("blocks", len(parsed.Blocks)))
	c.emit(EventBlockExtracted, map[string]interface{}{
		"grammar": string(parsed.Grammar),
		"kind":    block.Kind,
		"blocks":  len(parsed.Blocks),
	})
	if block.Body != c.stopToken {
		s.CurrentContent = &block
	}
}

// persist writes the current content. Declines come back as results, an
// invalid payload as *PersistValidationError.
func (c *Controller) persist(ctx context.Context) (PersistResult, error) {
	s := c.state
	if s.CurrentContent == nil {
		res := PersistResult{Outcome: PolicyDeclined, Reason: "no content produced yet"}
		c.emit(EventPersistDeclined, map[string]interface{}{"reason": res.Reason})
		return res, nil
	}

	res, err := c.persister.Persist(ctx, s.TargetName, PayloadFromBlock(s.CurrentContent))
	if err != nil {
		return res, fmt.Errorf("persisting %s: %w", s.TargetName, err)
	}
	switch res.Outcome {
	case Invalid:
		return res, &PersistValidationError{Target: s.TargetName, Reason: res.Reason}
	case PolicyDeclined:
		c.emit(EventPersistDeclined, map[string]interface{}{"reason": res.Reason, "path": res.Path})
		c.logger.Info("persist declined", zap.Int("epoch", s.Epoch), zap.String("reason", res.Reason), zap.String("path", res.Path))
	default:
		c.emit(EventPersisted, map[string]interface{}{"path": res.Path, "wrote": res.Wrote})
		c.logger.Info("persisted", zap.Int("epoch", s.Epoch), zap.String("path", res.Path), zap.Bool("wrote", res.Wrote))
	}
	return res, nil
}

func (c *Controller) fail(err error) error {
	c.emit(EventError, map[string]interface{}{"error": err.Error()})
	c.logger.Error("run aborted", zap.Int("epoch", c.state.Epoch), zap.Error(err))
	return err
}

func (c *Controller) emit(kind EventKind, data map[string]interface{}) {
	if c.events == nil {
		return
	}
	c.events.Emit(Event{Kind: kind, RunID: c.state.ID, Epoch: c.state.Epoch, Data: data})
}
