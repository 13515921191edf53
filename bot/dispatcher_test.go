package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"actubot/bot/dialog"
	"actubot/bot/profile"
	"actubot/bot/session"
	"actubot/bot/turn"
	"actubot/providers"
)

type memProfiles struct {
	mu   sync.Mutex
	rows map[string]profile.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{rows: map[string]profile.Profile{}}
}

func (m *memProfiles) Get(_ context.Context, userID string) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	out := p
	return &out, nil
}

func (m *memProfiles) Save(_ context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.UserID] = *p
	return nil
}

func (m *memProfiles) Delete(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[userID]
	delete(m.rows, userID)
	return ok, nil
}

type fakeNews struct {
	digest string
	err    error
	topics []string
}

func (f *fakeNews) Get(_ context.Context, topic string) (string, error) {
	f.topics = append(f.topics, topic)
	return f.digest, f.err
}

type fakeTranslate struct {
	out string
	err error
}

func (f *fakeTranslate) Translate(_ context.Context, _ string) (string, error) {
	return f.out, f.err
}

type fakeWeather struct {
	report providers.WeatherReport
	err    error
	cities []string
}

func (f *fakeWeather) Current(_ context.Context, city string) (providers.WeatherReport, error) {
	f.cities = append(f.cities, city)
	return f.report, f.err
}

type fakeAudio struct {
	url string
	err error
}

func (f *fakeAudio) For(_ context.Context, _ string) (string, error) {
	return f.url, f.err
}

type botHarness struct {
	t         *testing.T
	processor *Processor
	sessions  *session.Manager
	profiles  *memProfiles
	news      *fakeNews
	translate *fakeTranslate
	weather   *fakeWeather
	audio     *fakeAudio
}

func newBotHarness(t *testing.T) *botHarness {
	t.Helper()
	sessions := session.NewManager(session.NewMemoryStore(time.Hour))
	profiles := newMemProfiles()
	news := &fakeNews{digest: "Première phrase. Deuxième phrase. Troisième"}
	translate := &fakeTranslate{out: "translated"}
	weather := &fakeWeather{report: providers.WeatherReport{
		City:        "Paris",
		Temperature: "21°C",
		Forecast:    "Ensoleillé",
	}}
	audio := &fakeAudio{url: "http://media/voice.mp3"}

	engine := dialog.NewOnboarding(sessions, profiles)
	dispatcher := NewDispatcher(sessions, profiles, engine, news, translate, weather, audio)
	return &botHarness{
		t:         t,
		processor: NewProcessor(dispatcher, sessions),
		sessions:  sessions,
		profiles:  profiles,
		news:      news,
		translate: translate,
		weather:   weather,
		audio:     audio,
	}
}

func (h *botHarness) message(text string) []turn.Activity {
	h.t.Helper()
	replies, err := h.processor.Process(context.Background(), turn.Activity{
		Type:           turn.TypeMessage,
		ConversationID: "conv-1",
		UserID:         "user-1",
		ChannelID:      "webchat",
		Text:           text,
	})
	require.NoError(h.t, err)
	return replies
}

func (h *botHarness) welcome() []turn.Activity {
	h.t.Helper()
	replies, err := h.processor.Process(context.Background(), turn.Activity{
		Type:           turn.TypeConversationUpdate,
		ConversationID: "conv-1",
		UserID:         "user-1",
		ChannelID:      "webchat",
	})
	require.NoError(h.t, err)
	return replies
}

func (h *botHarness) flags() session.Flags {
	h.t.Helper()
	flags, err := h.sessions.Flags(context.Background(), "conv-1")
	require.NoError(h.t, err)
	return flags
}

func replyTexts(replies []turn.Activity) []string {
	var out []string
	for _, r := range replies {
		out = append(out, r.Text)
	}
	return out
}

func hasText(replies []turn.Activity, want string) bool {
	for _, r := range replies {
		if r.Text == want {
			return true
		}
	}
	return false
}

const menuText = "Quelle fonctionnalité souhaitez-vous utiliser ?"

func TestNewsScenario(t *testing.T) {
	h := newBotHarness(t)

	replies := h.message(labelNews)
	assert.True(t, hasText(replies, "Quelle actualité souhaitez-vous voir ?"))
	assert.Equal(t, session.FeatureNews, h.flags().ActiveFeature)

	replies = h.message("Cinéma")
	require.Equal(t, []string{"Cinéma"}, h.news.topics)
	assert.True(t, hasText(replies, "Voici les actualités du jour sur la thématique : Cinéma."))
	assert.True(t, hasText(replies, "Première phrase."))
	assert.True(t, hasText(replies, "Deuxième phrase."))
	assert.True(t, hasText(replies, "Troisième."))

	var audioCount int
	for _, r := range replies {
		for _, att := range r.Attachments {
			if att.ContentType == "audio/mpeg" {
				audioCount++
			}
		}
	}
	assert.Equal(t, 1, audioCount, "news must carry one audio side message")

	assert.True(t, hasText(replies, menuText))
	assert.Equal(t, session.FeatureNone, h.flags().ActiveFeature)
}

func TestNewsProviderFailureApologizes(t *testing.T) {
	h := newBotHarness(t)
	h.news.err = errors.New("upstream down")

	h.message(labelNews)
	replies := h.message("Sport")

	assert.True(t, hasText(replies, providerApology))
	assert.True(t, hasText(replies, menuText))
	assert.Equal(t, session.FeatureNone, h.flags().ActiveFeature)
}

func TestTranslationPassthrough(t *testing.T) {
	h := newBotHarness(t)

	h.message(labelTranslation)
	replies := h.message("bonjour tout le monde")

	assert.True(t, hasText(replies, "translated"))
	assert.True(t, hasText(replies, menuText))
	assert.Equal(t, session.FeatureNone, h.flags().ActiveFeature)
}

func TestMenuKeywordCancelsDialogMidFlight(t *testing.T) {
	h := newBotHarness(t)

	h.welcome()
	h.message("Oui")
	h.message("Bus")

	replies := h.message("menu")
	assert.True(t, hasText(replies, menuText))

	_, active, err := h.sessions.Dialog(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.False(t, active, "dialog state must be discarded on menu keyword")
	_, err = h.profiles.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, profile.ErrNotFound, "no partial profile may be committed")
}

func TestOnboardingCompletesThenMenus(t *testing.T) {
	h := newBotHarness(t)

	replies := h.welcome()
	assert.True(t, hasText(replies, "Souhaitez-vous personneliser l'expérience ?"))
	assert.True(t, h.flags().OnboardingPending)

	h.message("Oui")
	h.message("Voiture")
	h.message("Alice")
	h.message("Non")
	h.message("Nantes")
	h.message("une réponse sans pièce jointe")
	replies = h.message("Oui")

	assert.True(t, hasText(replies, menuText), "menu must show in the finishing turn")
	assert.False(t, h.flags().OnboardingPending)

	p, err := h.profiles.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "Nantes", p.City)
	assert.False(t, p.HasAge())
}

func TestOnboardingDeclinedWithoutStartingDialog(t *testing.T) {
	h := newBotHarness(t)

	h.welcome()
	replies := h.message("Non")

	assert.True(t, hasText(replies, "C'est noté ! Commençons la discussion !"))
	assert.True(t, hasText(replies, menuText))
	assert.False(t, h.flags().OnboardingPending)

	_, active, err := h.sessions.Dialog(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.False(t, active, "declining must never start the dialog")
}

func TestEditDeletesRowAndRestartsWaterfall(t *testing.T) {
	h := newBotHarness(t)
	require.NoError(t, h.profiles.Save(context.Background(), &profile.Profile{
		UserID: "user-1", Name: "Alice", Age: 30, City: "Lyon", Transport: profile.TransportBus,
	}))

	h.message(labelProfile)
	replies := h.message(actionEdit)

	_, err := h.profiles.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, profile.ErrNotFound, "edit must delete the stored row")
	assert.True(t, hasText(replies, "Quel est votre moyen de transport."),
		"edit must restart the waterfall at the transport step")
	assert.True(t, h.flags().OnboardingPending)
	assert.Equal(t, session.FeatureNone, h.flags().ActiveFeature)
}

func TestViewProfileIdempotent(t *testing.T) {
	h := newBotHarness(t)
	require.NoError(t, h.profiles.Save(context.Background(), &profile.Profile{
		UserID: "user-1", Name: "Alice", Age: 30, City: "Lyon", Transport: profile.TransportBus,
	}))

	h.message(labelProfile)
	first := replyTexts(h.message(actionView))
	h.message(labelProfile)
	second := replyTexts(h.message(actionView))

	assert.Equal(t, first, second, "two consecutive views must render identically")
}

func TestViewWithoutProfile(t *testing.T) {
	h := newBotHarness(t)

	h.message(labelProfile)
	replies := h.message(actionView)

	assert.True(t, hasText(replies, "Vous n'avez pas encore de profil !"))
	assert.True(t, hasText(replies, menuText))
}

func TestDeleteProfile(t *testing.T) {
	h := newBotHarness(t)
	require.NoError(t, h.profiles.Save(context.Background(), &profile.Profile{
		UserID: "user-1", Name: "Alice", City: "Lyon", Transport: profile.TransportBus,
	}))

	h.message(labelProfile)
	replies := h.message(actionDelete)
	assert.True(t, hasText(replies, "Votre profil a bien été supprimé !"))

	h.message(labelProfile)
	replies = h.message(actionDelete)
	assert.True(t, hasText(replies, "Il n'y a aucun profil à supprimer !"))
}

func TestWelcomeBackGreetsByName(t *testing.T) {
	h := newBotHarness(t)
	pic := profile.Picture{ContentType: "image/png", ContentURL: "http://x/p.png"}
	require.NoError(t, h.profiles.Save(context.Background(), &profile.Profile{
		UserID: "user-1", Name: "Alice", Age: 30, City: "Lyon",
		Transport: profile.TransportBus, Picture: &pic,
	}))

	replies := h.welcome()

	assert.True(t, hasText(replies, "Bonjour Alice, Ravi de vous revoir !"))
	assert.False(t, h.flags().OnboardingPending, "returning users skip onboarding")
	assert.Equal(t, []string{"Lyon"}, h.weather.cities, "weather uses the stored city")

	var pictureShown bool
	for _, r := range replies {
		for _, att := range r.Attachments {
			if att.ContentURL == "http://x/p.png" {
				pictureShown = true
			}
		}
	}
	assert.True(t, pictureShown)
}

func TestWelcomeWeatherDefaultsToParis(t *testing.T) {
	h := newBotHarness(t)

	h.welcome()
	assert.Equal(t, []string{"Paris"}, h.weather.cities)
}

func TestUnhandledErrorClearsTransientStateOnly(t *testing.T) {
	h := newBotHarness(t)
	require.NoError(t, h.profiles.Save(context.Background(), &profile.Profile{
		UserID: "user-1", Name: "Alice", City: "Lyon", Transport: profile.TransportBus,
	}))

	require.NoError(t, h.sessions.SaveFlags(context.Background(), "conv-1",
		session.Flags{ActiveFeature: session.FeatureNews}))
	h.processor.dispatcher.news = panicNews{}
	replies := h.message("Sport")

	assert.Equal(t, []string{turnApology}, replyTexts(replies),
		"only the apology may reach the user")
	assert.Equal(t, session.Flags{}, h.flags(), "transient state must be cleared")

	p, err := h.profiles.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name, "committed profiles survive unhandled errors")
}

type panicNews struct{}

func (panicNews) Get(context.Context, string) (string, error) {
	panic("boom")
}
