package chat

import (
	"context"
	"fmt"

	"github.com/qmuntal/stateless"

	"github.com/ram70099/ChatBot/internal/history"
	"github.com/ram70099/ChatBot/internal/llm"
	"github.com/ram70099/ChatBot/internal/logger"
)

// Turn states
const (
	stateIdle           = "Idle"
	stateBuildingPrompt = "BuildingPrompt"
	stateAwaitingModel  = "AwaitingModel"
	stateRecording      = "Recording" // append + save
	stateDiscarded      = "Discarded" // terminal: failed reply kept out of history
	stateDone           = "Done"      // terminal: exchange persisted
)

// Turn triggers
const (
	triggerSubmit       = "Submit"
	triggerPromptBuilt  = "PromptBuilt"
	triggerModelReplied = "ModelReplied"
	triggerModelFailed  = "ModelFailed"
	triggerRecorded     = "Recorded"
)

// Turn is the outcome of one submission.
type Turn struct {
	Exchange  history.Exchange
	Result    llm.Result
	Persisted bool
}

// turnContext is the data carried across one run of the turn machine.
type turnContext struct {
	input  string
	prompt string
	result llm.Result
	next   history.History
}

// runTurn drives a single submission through
// Idle -> BuildingPrompt -> AwaitingModel -> Recording -> Done.
// A failed reply goes to Discarded instead of Recording when failures are
// not persisted. The caller holds s.mu.
func (s *Session) runTurn(ctx context.Context, input string) (Turn, error) {
	tc := &turnContext{input: input}
	fsm := stateless.NewStateMachine(stateIdle)

	fsm.Configure(stateIdle).
		Permit(triggerSubmit, stateBuildingPrompt)

	fsm.Configure(stateBuildingPrompt).
		OnEntry(func(ctx context.Context, args ...any) error {
			tc.prompt = s.builder.Build(s.history, tc.input)
			logger.L.Debug("prompt built", "session", s.id, "bytes", len(tc.prompt), "window", len(s.builder.Window(s.history)))
			return nil
		}).
		Permit(triggerPromptBuilt, stateAwaitingModel)

	fsm.Configure(stateAwaitingModel).
		OnEntry(func(ctx context.Context, args ...any) error {
			tc.result = s.model.Generate(ctx, tc.prompt)
			return nil
		}).
		Permit(triggerModelReplied, stateRecording).
		Permit(triggerModelFailed, stateRecording, func(context.Context, ...any) bool { return s.persistFailures }).
		Permit(triggerModelFailed, stateDiscarded, func(context.Context, ...any) bool { return !s.persistFailures })

	fsm.Configure(stateRecording).
		OnEntry(func(ctx context.Context, args ...any) error {
			next := s.history.Append(history.Exchange{User: tc.input, AI: tc.result.Text()})
			if err := s.store.Save(next); err != nil {
				return fmt.Errorf("save history: %w", err)
			}
			tc.next = next
			return nil
		}).
		Permit(triggerRecorded, stateDone)

	fsm.Configure(stateDiscarded)
	fsm.Configure(stateDone)

	if err := fsm.FireCtx(ctx, triggerSubmit); err != nil {
		return Turn{}, err
	}
	if err := fsm.FireCtx(ctx, triggerPromptBuilt); err != nil {
		return Turn{}, err
	}

	reply := triggerModelReplied
	if tc.result.Failed() {
		reply = triggerModelFailed
	}
	if err := fsm.FireCtx(ctx, reply); err != nil {
		return Turn{}, err
	}

	turn := Turn{
		Exchange: history.Exchange{User: tc.input, AI: tc.result.Text()},
		Result:   tc.result,
	}
	if fsm.MustState() == stateDiscarded {
		logger.L.Warn("model failure not persisted", "session", s.id, "reason", tc.result.Reason())
		return turn, nil
	}

	if err := fsm.FireCtx(ctx, triggerRecorded); err != nil {
		return Turn{}, err
	}
	s.history = tc.next
	turn.Persisted = true
	return turn, nil
}
