package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"actubot/bot/profile"
	"actubot/bot/session"
	"actubot/bot/turn"
	"actubot/core/logger"
)

// ErrNoActiveDialog reports a Resume call with no dialog in progress. The
// dispatcher's gating should make this unreachable, so it fails loudly
// instead of silently doing nothing.
var ErrNoActiveDialog = errors.New("dialog: no active dialog for conversation")

// ProfileWriter commits a completed profile. Satisfied by *profile.Repository.
type ProfileWriter interface {
	Save(ctx context.Context, p *profile.Profile) error
}

// Engine drives an ordered list of steps across turns. It persists progress
// through the session manager after each prompt and resumes on the next user
// reply; there is no blocking wait within a turn.
type Engine struct {
	sessions *session.Manager
	profiles ProfileWriter
	steps    []Step
}

// NewOnboarding builds the engine with the profile onboarding waterfall.
func NewOnboarding(sessions *session.Manager, profiles ProfileWriter) *Engine {
	return &Engine{
		sessions: sessions,
		profiles: profiles,
		steps:    onboardingSteps(),
	}
}

// Active reports whether a dialog is in progress for the conversation.
func (e *Engine) Active(ctx context.Context, conversationID string) (bool, error) {
	_, ok, err := e.sessions.Dialog(ctx, conversationID)
	return ok, err
}

// Start begins a new run for the conversation and emits the first prompt.
// Any previous run for the same conversation is overwritten.
func (e *Engine) Start(ctx context.Context, tc *turn.Context) error {
	logger.Debug(ctx, "dialog", "dialog.start",
		slog.String("conversation_id", tc.ConversationID()),
	)
	_, err := e.run(ctx, tc, session.NewDialogState(), 0)
	return err
}

// Resume feeds one user reply into the current step. It returns done=true
// when the run ended this turn, either committed or declined at the final
// confirmation.
func (e *Engine) Resume(ctx context.Context, tc *turn.Context) (bool, error) {
	st, ok, err := e.sessions.Dialog(ctx, tc.ConversationID())
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNoActiveDialog, tc.ConversationID())
	}
	if st.StepIndex < 0 || st.StepIndex >= len(e.steps) {
		return false, fmt.Errorf("dialog: step index %d out of range for %s", st.StepIndex, tc.ConversationID())
	}

	step := e.steps[st.StepIndex]
	v := step.Validate(step.input(tc))
	if !v.Accepted {
		tc.Send(v.Retry)
		logger.Debug(ctx, "dialog", "dialog.step",
			slog.String("status", "rejected"),
			slog.String("step", step.Name),
			slog.Int("step_index", st.StepIndex),
		)
		return false, nil
	}
	if v.Ack != "" {
		tc.Send(v.Ack)
	}
	if err := st.SetValue(step.Name, v.Value); err != nil {
		return false, err
	}
	logger.Debug(ctx, "dialog", "dialog.step",
		slog.String("status", "ok"),
		slog.String("step", step.Name),
		slog.Int("step_index", st.StepIndex),
	)
	return e.run(ctx, tc, st, st.StepIndex+1)
}

// Abort discards any in-progress run without committing a profile.
func (e *Engine) Abort(ctx context.Context, conversationID string) error {
	logger.Debug(ctx, "dialog", "dialog.abort",
		slog.String("conversation_id", conversationID),
	)
	return e.sessions.ClearDialog(ctx, conversationID)
}

// run walks the step list from index i, prompting or consuming skip results
// until a step needs user input or the list is exhausted.
func (e *Engine) run(ctx context.Context, tc *turn.Context, st *session.DialogState, i int) (bool, error) {
	for i < len(e.steps) {
		adv := e.steps[i].Prompt(tc, st)
		if !adv.Skip {
			st.StepIndex = i
			if err := e.sessions.SaveDialog(ctx, tc.ConversationID(), st); err != nil {
				return false, err
			}
			return false, nil
		}
		if err := st.SetValue(e.steps[i].Name, adv.Value); err != nil {
			return false, err
		}
		i++
	}
	if err := e.finish(ctx, tc, st); err != nil {
		return false, err
	}
	return true, e.sessions.ClearDialog(ctx, tc.ConversationID())
}

// finish is the terminal step: commit the profile if the user confirmed,
// discard otherwise. The profile write happens before the dialog state is
// cleared, so a failed write leaves the run resumable.
func (e *Engine) finish(ctx context.Context, tc *turn.Context, st *session.DialogState) error {
	confirmed, _ := st.BoolValue(stepConfirm)
	if !confirmed {
		tc.Send("Thanks. Your profile will not be kept.")
		logger.Info(ctx, "dialog", "dialog.finish",
			slog.String("outcome", "rejected"),
			slog.String("conversation_id", tc.ConversationID()),
		)
		return nil
	}

	p := &profile.Profile{UserID: tc.UserID(), Age: profile.AgeNotGiven}
	p.Transport, _ = st.StringValue(stepTransport)
	p.Name, _ = st.StringValue(stepName)
	p.City, _ = st.StringValue(stepCity)
	if age, ok := st.IntValue(stepAge); ok {
		p.Age = age
	}
	if att, ok := st.AttachmentValue(stepPicture); ok {
		pic := profile.Picture(att)
		p.Picture = &pic
	}
	if err := e.profiles.Save(ctx, p); err != nil {
		return err
	}

	msg := fmt.Sprintf("I have your mode of transport as %s, %s is your City and your name as %s.",
		p.Transport, p.City, p.Name)
	if p.HasAge() {
		msg += fmt.Sprintf(" And age as %d.", p.Age)
	}
	tc.Send(msg)
	if att, ok := p.PictureAttachment(); ok {
		tc.SendAttachment(att, "This is your profile picture.")
	}
	logger.Info(ctx, "dialog", "dialog.finish",
		slog.String("outcome", "ok"),
		slog.String("conversation_id", tc.ConversationID()),
		slog.String("user_id", p.UserID),
	)
	return nil
}
