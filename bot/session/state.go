package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"actubot/bot/turn"
)

// Feature identifies which top-level bot mode a conversation is in.
type Feature string

const (
	// FeatureNone indicates the conversation is at the main menu.
	FeatureNone Feature = ""
	// FeatureProfile is the profile view/edit/delete sub-flow.
	FeatureProfile Feature = "profile"
	// FeatureNews is the news-by-topic lookup sub-flow.
	FeatureNews Feature = "news"
	// FeatureTranslation is the translation sub-flow.
	FeatureTranslation Feature = "translation"
)

// Flags is the per-conversation routing state consulted on every text turn.
type Flags struct {
	ActiveFeature     Feature `json:"activeFeature"`
	OnboardingPending bool    `json:"onboardingPending"`
}

// DialogState is the scratch state of one in-progress waterfall run. It
// exists only while a dialog is active and is discarded on completion or
// cancellation.
type DialogState struct {
	StepIndex int                        `json:"stepIndex"`
	Values    map[string]json.RawMessage `json:"values"`
}

// NewDialogState returns an empty state positioned at the first step.
func NewDialogState() *DialogState {
	return &DialogState{Values: make(map[string]json.RawMessage)}
}

// SetValue stores a collected answer under the step's key.
func (d *DialogState) SetValue(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode dialog value %s: %w", key, err)
	}
	if d.Values == nil {
		d.Values = make(map[string]json.RawMessage)
	}
	d.Values[key] = raw
	return nil
}

// StringValue returns a collected string answer.
func (d *DialogState) StringValue(key string) (string, bool) {
	raw, ok := d.Values[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// IntValue returns a collected integer answer.
func (d *DialogState) IntValue(key string) (int, bool) {
	raw, ok := d.Values[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// BoolValue returns a collected yes/no answer.
func (d *DialogState) BoolValue(key string) (bool, bool) {
	raw, ok := d.Values[key]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

// AttachmentValue returns a collected attachment answer. A stored null or
// absent key yields ok=false.
func (d *DialogState) AttachmentValue(key string) (turn.Attachment, bool) {
	raw, ok := d.Values[key]
	if !ok || string(raw) == "null" {
		return turn.Attachment{}, false
	}
	var att turn.Attachment
	if err := json.Unmarshal(raw, &att); err != nil {
		return turn.Attachment{}, false
	}
	if att.ContentType == "" && att.ContentURL == "" {
		return turn.Attachment{}, false
	}
	return att, true
}

// Manager reads and writes typed conversation state through a Store.
type Manager struct {
	store Store
}

// NewManager wraps a Store with typed accessors.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Flags loads routing flags for a conversation, returning the zero value when
// none have been saved yet.
func (m *Manager) Flags(ctx context.Context, conversationID string) (Flags, error) {
	var flags Flags
	raw, found, err := m.store.Get(ctx, FlagsKey(conversationID))
	if err != nil {
		return flags, err
	}
	if !found {
		return flags, nil
	}
	if err := json.Unmarshal(raw, &flags); err != nil {
		return Flags{}, fmt.Errorf("session: decode flags for %s: %w", conversationID, err)
	}
	return flags, nil
}

// SaveFlags persists routing flags for a conversation.
func (m *Manager) SaveFlags(ctx context.Context, conversationID string, flags Flags) error {
	raw, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("session: encode flags for %s: %w", conversationID, err)
	}
	return m.store.Set(ctx, FlagsKey(conversationID), raw)
}

// Dialog loads in-progress waterfall state, returning ok=false when no dialog
// is active for the conversation.
func (m *Manager) Dialog(ctx context.Context, conversationID string) (*DialogState, bool, error) {
	raw, found, err := m.store.Get(ctx, DialogKey(conversationID))
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	state := NewDialogState()
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, false, fmt.Errorf("session: decode dialog state for %s: %w", conversationID, err)
	}
	return state, true, nil
}

// SaveDialog persists waterfall progress for a conversation.
func (m *Manager) SaveDialog(ctx context.Context, conversationID string, state *DialogState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: encode dialog state for %s: %w", conversationID, err)
	}
	return m.store.Set(ctx, DialogKey(conversationID), raw)
}

// ClearDialog discards any in-progress waterfall state.
func (m *Manager) ClearDialog(ctx context.Context, conversationID string) error {
	return m.store.Delete(ctx, DialogKey(conversationID))
}

// Clear removes all transient state for a conversation. Profile rows are
// never touched here.
func (m *Manager) Clear(ctx context.Context, conversationID string) error {
	if err := m.store.Delete(ctx, DialogKey(conversationID)); err != nil {
		return err
	}
	return m.store.Delete(ctx, FlagsKey(conversationID))
}
