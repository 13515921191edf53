// Package bot routes inbound chat turns: reserved keywords escape to the
// main menu, pending onboarding is forwarded into the waterfall dialog, and
// everything else is dispatched to the active feature handler.
package bot

import (
	"context"
	"log/slog"
	"strings"

	"actubot/bot/dialog"
	"actubot/bot/profile"
	"actubot/bot/session"
	"actubot/bot/turn"
	"actubot/core/logger"
	"actubot/providers"
)

// Reserved keywords always return to the main menu, even mid-dialog or
// mid-feature. Matching is case-sensitive.
var menuKeywords = map[string]struct{}{
	"menu":  {},
	"help":  {},
	"info":  {},
	"aide":  {},
	"intro": {},
	"exit":  {},
	"quit":  {},
}

// Feature entry labels shown on the main menu.
const (
	labelNews        = "Actualité"
	labelTranslation = "Traduction"
	labelProfile     = "Profil"
)

// Profile sub-menu action labels.
const (
	actionEdit   = "Modifier le profil"
	actionView   = "Afficher le profil"
	actionDelete = "Supprimer le profil"
)

const providerApology = "Désolé, le service est momentanément indisponible. Veuillez réessayer plus tard."

// ProfileStore is the durable profile access the handlers need. Satisfied by
// *profile.Repository.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Save(ctx context.Context, p *profile.Profile) error
	Delete(ctx context.Context, userID string) (bool, error)
}

// NewsProvider returns a sentence-delimited digest for a topic keyword.
type NewsProvider interface {
	Get(ctx context.Context, topic string) (string, error)
}

// TranslationProvider translates raw text, opaque passthrough.
type TranslationProvider interface {
	Translate(ctx context.Context, text string) (string, error)
}

// WeatherProvider fetches current conditions for a city.
type WeatherProvider interface {
	Current(ctx context.Context, city string) (providers.WeatherReport, error)
}

// AudioProvider renders text to speech and returns a media URL.
type AudioProvider interface {
	For(ctx context.Context, text string) (string, error)
}

// Dispatcher owns the per-turn routing decision. All conversation state is
// loaded and saved through the session manager each turn; the dispatcher
// itself holds nothing mutable.
type Dispatcher struct {
	sessions  *session.Manager
	profiles  ProfileStore
	engine    *dialog.Engine
	news      NewsProvider
	translate TranslationProvider
	weather   WeatherProvider
	audio     AudioProvider
}

// NewDispatcher wires the router to its collaborators.
func NewDispatcher(
	sessions *session.Manager,
	profiles ProfileStore,
	engine *dialog.Engine,
	news NewsProvider,
	translate TranslationProvider,
	weather WeatherProvider,
	audio AudioProvider,
) *Dispatcher {
	return &Dispatcher{
		sessions:  sessions,
		profiles:  profiles,
		engine:    engine,
		news:      news,
		translate: translate,
		weather:   weather,
		audio:     audio,
	}
}

// Route handles one text turn. Precedence: reserved keywords, then pending
// onboarding, then feature entry labels, then the active feature handler.
func (d *Dispatcher) Route(ctx context.Context, tc *turn.Context) error {
	text := tc.Text()
	flags, err := d.sessions.Flags(ctx, tc.ConversationID())
	if err != nil {
		return err
	}

	if _, ok := menuKeywords[text]; ok {
		// Global cancel: discard any in-progress dialog without commit.
		if err := d.engine.Abort(ctx, tc.ConversationID()); err != nil {
			return err
		}
		flags.ActiveFeature = session.FeatureNone
		if err := d.sessions.SaveFlags(ctx, tc.ConversationID(), flags); err != nil {
			return err
		}
		logger.Debug(ctx, "bot", "route.menu", slog.String("keyword", text))
		d.sendMenu(tc)
		return nil
	}

	if flags.OnboardingPending {
		return d.onboardingTurn(ctx, tc, flags)
	}

	if feature, ok := featureForLabel(text); ok {
		flags.ActiveFeature = feature
		if err := d.sessions.SaveFlags(ctx, tc.ConversationID(), flags); err != nil {
			return err
		}
		logger.Debug(ctx, "bot", "route.feature",
			slog.String("feature", string(feature)),
		)
		d.sendFeatureOpening(tc, feature)
		return nil
	}

	switch flags.ActiveFeature {
	case session.FeatureNews:
		return d.handleNews(ctx, tc, flags)
	case session.FeatureTranslation:
		return d.handleTranslation(ctx, tc, flags)
	case session.FeatureProfile:
		return d.handleProfile(ctx, tc, flags)
	}

	d.sendMenu(tc)
	return nil
}

// onboardingTurn forwards a turn into the waterfall while onboarding is
// pending. A "Non" before the dialog has started declines onboarding without
// ever starting the engine; once the dialog ends either way, the pending flag
// clears and the menu shows in the same turn.
func (d *Dispatcher) onboardingTurn(ctx context.Context, tc *turn.Context, flags session.Flags) error {
	active, err := d.engine.Active(ctx, tc.ConversationID())
	if err != nil {
		return err
	}

	if !active {
		if strings.EqualFold(tc.Text(), "non") {
			flags.OnboardingPending = false
			if err := d.sessions.SaveFlags(ctx, tc.ConversationID(), flags); err != nil {
				return err
			}
			logger.Info(ctx, "bot", "onboarding.declined",
				slog.String("conversation_id", tc.ConversationID()),
			)
			tc.Send("C'est noté ! Commençons la discussion !")
			d.sendMenu(tc)
			return nil
		}
		return d.engine.Start(ctx, tc)
	}

	done, err := d.engine.Resume(ctx, tc)
	if err != nil {
		return err
	}
	if done {
		flags.OnboardingPending = false
		if err := d.sessions.SaveFlags(ctx, tc.ConversationID(), flags); err != nil {
			return err
		}
		d.sendMenu(tc)
	}
	return nil
}

func featureForLabel(text string) (session.Feature, bool) {
	switch text {
	case labelNews:
		return session.FeatureNews, true
	case labelTranslation:
		return session.FeatureTranslation, true
	case labelProfile:
		return session.FeatureProfile, true
	}
	return session.FeatureNone, false
}

func (d *Dispatcher) sendFeatureOpening(tc *turn.Context, feature session.Feature) {
	switch feature {
	case session.FeatureNews:
		tc.Send("Quelle actualité souhaitez-vous voir ?")
	case session.FeatureTranslation:
		tc.Send("Que souhaitez-vous traduire ?")
	case session.FeatureProfile:
		tc.SendWithActions("Que souhaitez-vous faire ?", actionEdit, actionView, actionDelete)
	}
}

func (d *Dispatcher) sendMenu(tc *turn.Context) {
	tc.SendWithActions("Quelle fonctionnalité souhaitez-vous utiliser ?",
		labelProfile, labelNews, labelTranslation)
}

// resetFeature clears the active feature then shows the menu.
func (d *Dispatcher) resetFeature(ctx context.Context, tc *turn.Context, flags session.Flags) error {
	flags.ActiveFeature = session.FeatureNone
	if err := d.sessions.SaveFlags(ctx, tc.ConversationID(), flags); err != nil {
		return err
	}
	d.sendMenu(tc)
	return nil
}
