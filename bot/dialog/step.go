// Package dialog runs the multi-step onboarding waterfall. The engine is a
// generic driver over an ordered list of steps; only step content differs.
// Progress is persisted between turns, so each user reply resumes the run
// exactly where it suspended.
package dialog

import (
	"actubot/bot/session"
	"actubot/bot/turn"
)

// Input is the raw user reply handed to a step's validator.
type Input struct {
	Text        string
	Attachments []turn.Attachment
}

// Validation is a validator's verdict on one reply. Rejection keeps the
// dialog on the same step and sends Retry verbatim. Ack, when set, is sent
// before advancing.
type Validation struct {
	Accepted bool
	Value    any
	Ack      string
	Retry    string
}

// Validator checks one reply and coerces it to the step's value type.
// Validators are pure; they never touch conversation state.
type Validator func(in Input) Validation

// Advance is the tagged result of a step's prompt function. Skip means the
// step answers itself with Value and the run continues to the following step
// within the same turn, without waiting for user input.
type Advance struct {
	Skip  bool
	Value any
}

// Step is one unit of the waterfall: it prompts, waits for one reply, and
// validates it. The prompt function receives the running values so it can
// acknowledge the previous answer.
type Step struct {
	Name     string
	Prompt   func(tc *turn.Context, st *session.DialogState) Advance
	Validate Validator
}

func prompt() Advance        { return Advance{} }
func skipWith(v any) Advance { return Advance{Skip: true, Value: v} }

func (s Step) input(tc *turn.Context) Input {
	return Input{Text: tc.Text(), Attachments: tc.Activity.Attachments}
}
