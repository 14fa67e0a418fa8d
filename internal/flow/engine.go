// Package flow runs multi-step conversational state machines. The
// engine itself holds no per-conversation state: callers persist State
// between turns (it serializes to JSON on the session row) and hand it
// back with each input. Step behaviors are code, never serialized.
package flow

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/wantokjobs/jean/internal/actions"
	"github.com/wantokjobs/jean/internal/models"
)

// Step is one question in a flow.
type Step struct {
	Key          string
	Prompt       string
	PromptFunc   func(c *Context) string // overrides Prompt when set
	Field        string                  // collected key; defaults to Key
	Fields       []string                // multi-field steps collect a map
	Validate     func(input string) string
	Transform    func(input string, c *Context) any
	Skip         func(c *Context) bool
	MultiEntry   bool
	IsDone       func(input string) bool
	QuickReplies []string
}

func (s *Step) prompt(c *Context) string {
	if s.PromptFunc != nil {
		return s.PromptFunc(c)
	}
	return s.Prompt
}

func (s *Step) field() string {
	if s.Field != "" {
		return s.Field
	}
	return s.Key
}

// StartResult is what an OnStart hook reports.
type StartResult struct {
	Message string
	Done    bool // flow should not activate (e.g. nothing to collect)
}

// Outcome is what an OnComplete hook produces for the user.
type Outcome struct {
	Message         string
	QuickReplies    []string
	AwaitingDraftID int64 // set when a draft waits for approval
}

// Definition is a registered flow.
type Definition struct {
	Name       string
	Steps      []Step
	OnStart    func(c *Context) (*StartResult, error)
	OnComplete func(c *Context, collected map[string]any) (*Outcome, error)
}

// State is the serializable progress of one active flow.
type State struct {
	Flow        string           `json:"flow"`
	StepIndex   int              `json:"step_index"`
	Collected   map[string]any   `json:"collected"`
	MultiBuffer map[string][]any `json:"multi_buffer,omitempty"`
}

// DecodeState restores a State persisted on a session.
func DecodeState(blob []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(blob, &st); err != nil {
		return nil, fmt.Errorf("decode flow state: %w", err)
	}
	if st.Collected == nil {
		st.Collected = map[string]any{}
	}
	if st.MultiBuffer == nil {
		st.MultiBuffer = map[string][]any{}
	}
	return &st, nil
}

// Encode serializes the state for persistence.
func (s *State) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Context carries per-turn dependencies into step behaviors and hooks.
type Context struct {
	Ctx       context.Context
	Exec      actions.Executor
	User      *models.User
	UserID    int64
	SessionID int64

	profile *actions.Profile
}

// Profile lazily loads the acting user's profile; several steps consult
// it to decide whether they can be skipped.
func (c *Context) Profile() *actions.Profile {
	if c.profile != nil {
		return c.profile
	}
	if c.UserID == 0 {
		return nil
	}
	p, err := c.Exec.GetProfile(c.Ctx, c.UserID)
	if err != nil {
		return nil
	}
	c.profile = p
	return p
}

// Result is one engine turn.
type Result struct {
	Message         string
	QuickReplies    []string
	Done            bool
	State           *State
	AwaitingDraftID int64
}

// Engine dispatches turns to registered flow definitions.
type Engine struct {
	defs   map[string]*Definition
	logger *zap.Logger
}

// New builds an engine with the standard flow registry.
func New(logger *zap.Logger) *Engine {
	e := &Engine{defs: make(map[string]*Definition), logger: logger}
	for _, def := range builtinFlows() {
		e.Register(def)
	}
	return e
}

func (e *Engine) Register(def *Definition) {
	e.defs[def.Name] = def
}

// Definition returns a registered flow by name, or nil.
func (e *Engine) Definition(name string) *Definition {
	return e.defs[name]
}

// Start begins a flow. A Done result means the flow never activated
// and there is no state to persist.
func (e *Engine) Start(c *Context, name string) (*Result, error) {
	def := e.defs[name]
	if def == nil {
		return nil, fmt.Errorf("unknown flow %q", name)
	}

	state := &State{
		Flow:        name,
		Collected:   map[string]any{},
		MultiBuffer: map[string][]any{},
	}

	var intro string
	if def.OnStart != nil {
		res, err := def.OnStart(c)
		if err != nil {
			return nil, err
		}
		if res.Done {
			return &Result{Message: res.Message, Done: true}, nil
		}
		intro = res.Message
	}

	state.StepIndex = nextStep(def, state.StepIndex, c)
	if state.StepIndex >= len(def.Steps) {
		msg := intro
		if msg != "" {
			msg += "\n\n"
		}
		return &Result{Message: msg + "Looks like everything is already filled in!", Done: true}, nil
	}

	step := &def.Steps[state.StepIndex]
	msg := step.prompt(c)
	if intro != "" {
		msg = intro + "\n\n" + msg
	}
	return &Result{Message: msg, QuickReplies: step.QuickReplies, State: state}, nil
}

// ProcessInput feeds one user answer into the active flow.
func (e *Engine) ProcessInput(c *Context, state *State, input string) (*Result, error) {
	def := e.defs[state.Flow]
	if def == nil {
		return nil, fmt.Errorf("unknown flow %q", state.Flow)
	}
	if state.StepIndex >= len(def.Steps) {
		return e.complete(c, def, state)
	}

	step := &def.Steps[state.StepIndex]

	if step.MultiEntry {
		if step.IsDone != nil && step.IsDone(input) {
			if buf := state.MultiBuffer[step.Key]; len(buf) > 0 {
				state.Collected[step.field()] = buf
			}
		} else {
			value := any(input)
			if step.Transform != nil {
				value = step.Transform(input, c)
			}
			state.MultiBuffer[step.Key] = append(state.MultiBuffer[step.Key], value)
			return &Result{Message: morePrompt(), State: state}, nil
		}
	} else {
		if step.Validate != nil {
			if msg := step.Validate(input); msg != "" {
				// Re-prompt without advancing.
				return &Result{Message: "⚠️ " + msg, QuickReplies: step.QuickReplies, State: state}, nil
			}
		}
		value := any(input)
		if step.Transform != nil {
			value = step.Transform(input, c)
		}
		if len(step.Fields) > 0 {
			state.Collected[step.Key] = value
		} else {
			state.Collected[step.field()] = value
		}
	}

	state.StepIndex = nextStep(def, state.StepIndex+1, c)
	if state.StepIndex >= len(def.Steps) {
		return e.complete(c, def, state)
	}

	next := &def.Steps[state.StepIndex]
	return &Result{Message: next.prompt(c), QuickReplies: next.QuickReplies, State: state}, nil
}

// SkipStep abandons the current question and moves on.
func (e *Engine) SkipStep(c *Context, state *State) (*Result, error) {
	def := e.defs[state.Flow]
	if def == nil {
		return nil, fmt.Errorf("unknown flow %q", state.Flow)
	}

	state.StepIndex = nextStep(def, state.StepIndex+1, c)
	if state.StepIndex >= len(def.Steps) {
		return e.complete(c, def, state)
	}
	next := &def.Steps[state.StepIndex]
	return &Result{Message: next.prompt(c), QuickReplies: next.QuickReplies, State: state}, nil
}

// complete flattens collected answers and runs OnComplete. The flow is
// over either way: even a failed OnComplete produces Done so the
// session never wedges on a finished flow.
func (e *Engine) complete(c *Context, def *Definition, state *State) (*Result, error) {
	flat := make(map[string]any, len(state.Collected))
	for key, val := range state.Collected {
		if m, ok := val.(map[string]any); ok {
			for k, v := range m {
				flat[k] = v
			}
			continue
		}
		flat[key] = val
	}

	if def.OnComplete == nil {
		return &Result{Message: "Done! ✅", Done: true}, nil
	}
	outcome, err := def.OnComplete(c, flat)
	if err != nil {
		e.logger.Error("flow completion failed",
			zap.String("flow", def.Name),
			zap.Int64("user_id", c.UserID),
			zap.Error(err))
		return &Result{Done: true}, err
	}
	return &Result{
		Message:         outcome.Message,
		QuickReplies:    outcome.QuickReplies,
		Done:            true,
		AwaitingDraftID: outcome.AwaitingDraftID,
	}, nil
}

// nextStep returns the first step index at or after idx that should not
// be skipped for this user.
func nextStep(def *Definition, idx int, c *Context) int {
	for idx < len(def.Steps) {
		step := &def.Steps[idx]
		if step.Skip != nil && step.Skip(c) {
			idx++
			continue
		}
		break
	}
	return idx
}
