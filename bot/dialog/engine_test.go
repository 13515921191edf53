package dialog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actubot/bot/profile"
	"actubot/bot/session"
	"actubot/bot/turn"
)

type fakeProfiles struct {
	saved []profile.Profile
	err   error
}

func (f *fakeProfiles) Save(_ context.Context, p *profile.Profile) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *p)
	return nil
}

type harness struct {
	t        *testing.T
	engine   *Engine
	sessions *session.Manager
	profiles *fakeProfiles
	channel  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	sessions := session.NewManager(session.NewMemoryStore(time.Hour))
	profiles := &fakeProfiles{}
	return &harness{
		t:        t,
		engine:   NewOnboarding(sessions, profiles),
		sessions: sessions,
		profiles: profiles,
		channel:  "webchat",
	}
}

func (h *harness) turn(text string, atts ...turn.Attachment) *turn.Context {
	return turn.NewContext(turn.Activity{
		Type:           turn.TypeMessage,
		ConversationID: "conv-1",
		UserID:         "user-1",
		ChannelID:      h.channel,
		Text:           text,
		Attachments:    atts,
	})
}

func (h *harness) start() *turn.Context {
	h.t.Helper()
	tc := h.turn("")
	require.NoError(h.t, h.engine.Start(context.Background(), tc))
	return tc
}

func (h *harness) resume(text string, atts ...turn.Attachment) (*turn.Context, bool) {
	h.t.Helper()
	tc := h.turn(text, atts...)
	done, err := h.engine.Resume(context.Background(), tc)
	require.NoError(h.t, err)
	return tc, done
}

func texts(tc *turn.Context) []string {
	var out []string
	for _, r := range tc.Replies() {
		out = append(out, r.Text)
	}
	return out
}

func (h *harness) stepIndex() int {
	h.t.Helper()
	st, ok, err := h.sessions.Dialog(context.Background(), "conv-1")
	require.NoError(h.t, err)
	require.True(h.t, ok)
	return st.StepIndex
}

func (h *harness) dialogGone() bool {
	h.t.Helper()
	_, ok, err := h.sessions.Dialog(context.Background(), "conv-1")
	require.NoError(h.t, err)
	return !ok
}

func TestFullRunCommitsOneProfile(t *testing.T) {
	h := newHarness(t)

	tc := h.start()
	assert.Contains(t, texts(tc), "Quel est votre moyen de transport.")

	h.resume("Bus")
	h.resume("Alice")
	h.resume("Oui")
	h.resume("30")
	h.resume("Lyon")
	h.resume("", turn.Attachment{ContentType: "image/png", ContentURL: "http://x/p.png"})
	tc, done := h.resume("Oui")

	require.True(t, done)
	require.Len(t, h.profiles.saved, 1)
	p := h.profiles.saved[0]
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, profile.TransportBus, p.Transport)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, 30, p.Age)
	assert.Equal(t, "Lyon", p.City)
	require.NotNil(t, p.Picture)
	assert.Equal(t, "image/png", p.Picture.ContentType)

	assert.True(t, h.dialogGone(), "dialog state must be cleared after commit")

	summary := strings.Join(texts(tc), "\n")
	assert.Contains(t, summary, "I have your mode of transport as Bus")
	assert.Contains(t, summary, "And age as 30.")
	assert.Contains(t, summary, "This is your profile picture.")
}

func TestDeclinedAgeSkipsNumberPrompt(t *testing.T) {
	h := newHarness(t)

	h.start()
	h.resume("Voiture")
	h.resume("Bob")
	tc, _ := h.resume("Non")

	assert.Contains(t, texts(tc), "No age given.")
	assert.Contains(t, texts(tc), "Quel est votre ville ?")
	assert.NotContains(t, texts(tc), "Entrez votre age.")

	h.resume("Paris")
	h.resume("")
	_, done := h.resume("Oui")

	require.True(t, done)
	require.Len(t, h.profiles.saved, 1)
	assert.Equal(t, profile.AgeNotGiven, h.profiles.saved[0].Age)
	assert.False(t, h.profiles.saved[0].HasAge())
}

func TestRejectionKeepsStepAndRepeatsRetryVerbatim(t *testing.T) {
	h := newHarness(t)

	h.start()
	h.resume("Bus")
	h.resume("Alice")
	h.resume("Oui")
	idx := h.stepIndex()

	for _, bad := range []string{"0", "150", "-5", "abc"} {
		tc, done := h.resume(bad)
		assert.False(t, done)
		assert.Equal(t, []string{"The value entered must be greater than 0 and less than 150."}, texts(tc))
		assert.Equal(t, idx, h.stepIndex(), "step index must not advance on rejection")
	}

	tc, _ := h.resume("149")
	assert.Contains(t, texts(tc), "I have your age as 149.")
}

func TestAgeBounds(t *testing.T) {
	v := AgeValidator()
	for _, n := range []string{"1", "149", "75"} {
		assert.True(t, v(Input{Text: n}).Accepted, "age %s should be accepted", n)
	}
	for _, n := range []string{"0", "150", "-1", "douze", ""} {
		assert.False(t, v(Input{Text: n}).Accepted, "age %s should be rejected", n)
	}
}

func TestPictureValidatorAsymmetry(t *testing.T) {
	v := PictureValidator()

	empty := v(Input{})
	require.True(t, empty.Accepted, "no attachments is acceptance, not rejection")
	assert.Nil(t, empty.Value)
	assert.Equal(t, "No attachments received. Proceeding without a profile picture...", empty.Ack)

	gif := v(Input{Attachments: []turn.Attachment{{ContentType: "image/gif"}}})
	assert.False(t, gif.Accepted)
	assert.Equal(t, "The attachment must be a jpeg/png image file.", gif.Retry)

	png := v(Input{Attachments: []turn.Attachment{{ContentType: "image/png", ContentURL: "http://x/p.png"}}})
	require.True(t, png.Accepted)
	att, ok := png.Value.(turn.Attachment)
	require.True(t, ok)
	assert.Equal(t, "image/png", att.ContentType)
}

func TestTeamsSkipsAttachmentPrompt(t *testing.T) {
	h := newHarness(t)
	h.channel = turn.ChannelMSTeams

	h.start()
	h.resume("Bus")
	h.resume("Alice")
	h.resume("Non")
	tc, _ := h.resume("Lille")

	assert.Contains(t, texts(tc), "Skipping attachment prompt in Teams channel...")
	assert.Contains(t, texts(tc), "Is this ok?")

	_, done := h.resume("Oui")
	require.True(t, done)
	require.Len(t, h.profiles.saved, 1)
	assert.Nil(t, h.profiles.saved[0].Picture)
}

func TestFinalDeclineDiscardsWithoutCommit(t *testing.T) {
	h := newHarness(t)

	h.start()
	h.resume("Bus")
	h.resume("Alice")
	h.resume("Non")
	h.resume("Paris")
	h.resume("")
	tc, done := h.resume("Non")

	require.True(t, done)
	assert.Empty(t, h.profiles.saved, "declined confirmation must not write a profile")
	assert.Contains(t, texts(tc), "Thanks. Your profile will not be kept.")
	assert.True(t, h.dialogGone())
}

func TestResumeWithoutStateFailsLoudly(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.Resume(context.Background(), h.turn("hello"))
	require.ErrorIs(t, err, ErrNoActiveDialog)
}

func TestAbortDiscardsState(t *testing.T) {
	h := newHarness(t)

	h.start()
	h.resume("Bus")
	require.NoError(t, h.engine.Abort(context.Background(), "conv-1"))
	assert.True(t, h.dialogGone())
	assert.Empty(t, h.profiles.saved)
}
