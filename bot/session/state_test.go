package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actubot/bot/turn"
)

func newTestManager() *Manager {
	return NewManager(NewMemoryStore(time.Hour))
}

func TestFlagsAbsentIsZero(t *testing.T) {
	m := newTestManager()

	flags, err := m.Flags(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Equal(t, Flags{}, flags)
}

func TestFlagsRoundTrip(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	want := Flags{ActiveFeature: FeatureNews, OnboardingPending: true}
	require.NoError(t, m.SaveFlags(ctx, "conv-1", want))

	got, err := m.Flags(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	other, err := m.Flags(ctx, "conv-2")
	require.NoError(t, err)
	assert.Equal(t, Flags{}, other, "conversations must not share flags")
}

func TestDialogStateValues(t *testing.T) {
	st := NewDialogState()
	require.NoError(t, st.SetValue("transport", "Bus"))
	require.NoError(t, st.SetValue("age", 30))
	require.NoError(t, st.SetValue("giveAge", true))
	require.NoError(t, st.SetValue("picture", turn.Attachment{
		ContentType: "image/png",
		ContentURL:  "http://x/p.png",
	}))
	require.NoError(t, st.SetValue("none", nil))

	s, ok := st.StringValue("transport")
	require.True(t, ok)
	assert.Equal(t, "Bus", s)

	n, ok := st.IntValue("age")
	require.True(t, ok)
	assert.Equal(t, 30, n)

	b, ok := st.BoolValue("giveAge")
	require.True(t, ok)
	assert.True(t, b)

	att, ok := st.AttachmentValue("picture")
	require.True(t, ok)
	assert.Equal(t, "image/png", att.ContentType)

	_, ok = st.AttachmentValue("none")
	assert.False(t, ok, "a stored null is no attachment")
	_, ok = st.StringValue("missing")
	assert.False(t, ok)
}

func TestDialogSaveResumeClear(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, active, err := m.Dialog(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, active)

	st := NewDialogState()
	st.StepIndex = 3
	require.NoError(t, st.SetValue("name", "Alice"))
	require.NoError(t, m.SaveDialog(ctx, "conv-1", st))

	loaded, active, err := m.Dialog(ctx, "conv-1")
	require.NoError(t, err)
	require.True(t, active)
	assert.Equal(t, 3, loaded.StepIndex)
	name, ok := loaded.StringValue("name")
	require.True(t, ok)
	assert.Equal(t, "Alice", name)

	require.NoError(t, m.ClearDialog(ctx, "conv-1"))
	_, active, err = m.Dialog(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestClearRemovesFlagsAndDialog(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	require.NoError(t, m.SaveFlags(ctx, "conv-1", Flags{OnboardingPending: true}))
	require.NoError(t, m.SaveDialog(ctx, "conv-1", NewDialogState()))
	require.NoError(t, m.Clear(ctx, "conv-1"))

	flags, err := m.Flags(ctx, "conv-1")
	require.NoError(t, err)
	assert.Equal(t, Flags{}, flags)
	_, active, err := m.Dialog(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, active)
}
