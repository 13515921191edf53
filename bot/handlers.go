package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"actubot/bot/profile"
	"actubot/bot/session"
	"actubot/bot/turn"
	"actubot/core/logger"
)

// handleNews treats the turn text as a topic keyword, announces it, fetches
// the digest, and delivers it one sentence per message plus an audio side
// message. Provider failure becomes an apology, never a crashed turn.
func (d *Dispatcher) handleNews(ctx context.Context, tc *turn.Context, flags session.Flags) error {
	topic := tc.Text()
	tc.Send(fmt.Sprintf("Voici les actualités du jour sur la thématique : %s.", topic))

	digest, err := d.news.Get(ctx, topic)
	if err != nil {
		logger.Warn(ctx, "bot", "news.get",
			slog.String("status", "fail"),
			slog.String("topic", logger.Sanitize(topic)),
			slog.String("err", err.Error()),
		)
		tc.Send(providerApology)
		return d.resetFeature(ctx, tc, flags)
	}

	d.sendAudio(ctx, tc, topic)

	sentences := splitSentences(digest)
	for _, s := range sentences {
		tc.Send(s)
	}
	logger.Info(ctx, "bot", "news.get",
		slog.String("status", "ok"),
		slog.String("topic", logger.Sanitize(topic)),
		slog.Int("sentences", len(sentences)),
	)
	return d.resetFeature(ctx, tc, flags)
}

// handleTranslation forwards the raw text to the translation provider,
// opaque passthrough, and emits the result plus an audio rendering.
func (d *Dispatcher) handleTranslation(ctx context.Context, tc *turn.Context, flags session.Flags) error {
	out, err := d.translate.Translate(ctx, tc.Text())
	if err != nil {
		logger.Warn(ctx, "bot", "translate",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		tc.Send(providerApology)
		return d.resetFeature(ctx, tc, flags)
	}

	tc.Send(out)
	d.sendAudio(ctx, tc, out)
	logger.Info(ctx, "bot", "translate", slog.String("status", "ok"))
	return d.resetFeature(ctx, tc, flags)
}

// handleProfile serves the profile sub-menu: edit restarts onboarding after
// deleting the row, view renders the stored summary, delete removes the row.
func (d *Dispatcher) handleProfile(ctx context.Context, tc *turn.Context, flags session.Flags) error {
	switch tc.Text() {
	case actionEdit:
		if _, err := d.profiles.Delete(ctx, tc.UserID()); err != nil {
			return err
		}
		flags.ActiveFeature = session.FeatureNone
		flags.OnboardingPending = true
		if err := d.sessions.SaveFlags(ctx, tc.ConversationID(), flags); err != nil {
			return err
		}
		logger.Info(ctx, "bot", "profile.edit",
			slog.String("user_id", tc.UserID()),
		)
		return d.engine.Start(ctx, tc)

	case actionView:
		p, err := d.profiles.Get(ctx, tc.UserID())
		if errors.Is(err, profile.ErrNotFound) {
			tc.Send("Vous n'avez pas encore de profil !")
			return d.resetFeature(ctx, tc, flags)
		}
		if err != nil {
			return err
		}
		if att, ok := p.PictureAttachment(); ok {
			tc.SendAttachment(att, profileSummary(p))
		} else {
			tc.Send(profileSummary(p))
		}
		return d.resetFeature(ctx, tc, flags)

	case actionDelete:
		existed, err := d.profiles.Delete(ctx, tc.UserID())
		if err != nil {
			return err
		}
		if existed {
			tc.Send("Votre profil a bien été supprimé !")
		} else {
			tc.Send("Il n'y a aucun profil à supprimer !")
		}
		return d.resetFeature(ctx, tc, flags)
	}

	// Unknown reply: show the action card again.
	tc.SendWithActions("Que souhaitez-vous faire ?", actionEdit, actionView, actionDelete)
	return nil
}

// Welcome runs on first contact in a conversation. A returning user is
// greeted by name with their stored picture; a new user gets the weather
// intro card and the personalize question that arms onboarding.
func (d *Dispatcher) Welcome(ctx context.Context, tc *turn.Context) error {
	p, err := d.profiles.Get(ctx, tc.UserID())
	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		// Treat a failed read like an absent profile so the welcome still goes out.
		logger.Warn(ctx, "bot", "welcome.lookup",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		p = nil
	}

	city := "Paris"
	if p != nil && p.City != "" {
		city = p.City
	}
	d.sendIntroCard(ctx, tc, city)

	if p != nil {
		if att, ok := p.PictureAttachment(); ok {
			tc.SendAttachment(att, "")
		}
		tc.Send(fmt.Sprintf("Bonjour %s, Ravi de vous revoir !", p.Name))
		logger.Info(ctx, "bot", "welcome",
			slog.String("status", "ok"),
			slog.String("user_id", tc.UserID()),
		)
		d.sendMenu(tc)
		return nil
	}

	flags, err := d.sessions.Flags(ctx, tc.ConversationID())
	if err != nil {
		return err
	}
	flags.OnboardingPending = true
	if err := d.sessions.SaveFlags(ctx, tc.ConversationID(), flags); err != nil {
		return err
	}
	logger.Info(ctx, "bot", "welcome",
		slog.String("status", "ok"),
		slog.String("user_id", tc.UserID()),
	)
	tc.SendWithActions("Souhaitez-vous personneliser l'expérience ?", "Oui", "Non")
	return nil
}

// sendIntroCard renders the welcome banner with current weather for the
// city. Weather failure degrades to the banner alone.
func (d *Dispatcher) sendIntroCard(ctx context.Context, tc *turn.Context, city string) {
	const banner = "Bienvenue sur le bot de synthèse d'actualités !"

	report, err := d.weather.Current(ctx, city)
	if err != nil {
		logger.Warn(ctx, "bot", "welcome.weather",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		tc.Send(banner)
		return
	}

	text := fmt.Sprintf("%s\nTempérature actuelle à %s : %s\nPrévision du jour : %s",
		banner, city, report.Temperature, report.Forecast)
	if report.IconURL != "" {
		tc.SendAttachment(turn.Attachment{ContentType: "image/png", ContentURL: report.IconURL}, text)
		return
	}
	tc.Send(text)
}

// sendAudio emits a text-to-speech side message. Audio is best effort; a
// failed rendering never spoils the turn.
func (d *Dispatcher) sendAudio(ctx context.Context, tc *turn.Context, text string) {
	url, err := d.audio.For(ctx, text)
	if err != nil {
		logger.Warn(ctx, "bot", "audio.render",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	tc.SendAttachment(turn.Attachment{ContentType: "audio/mpeg", ContentURL: url}, "")
}

func profileSummary(p *profile.Profile) string {
	var b strings.Builder
	b.WriteString("Profil utilisateur\n")
	fmt.Fprintf(&b, "Nom : %s\n", p.Name)
	if p.HasAge() {
		fmt.Fprintf(&b, "Age : %d\n", p.Age)
	}
	fmt.Fprintf(&b, "Ville : %s\n", p.City)
	fmt.Fprintf(&b, "Moyen de transport : %s", p.Transport)
	return b.String()
}

// splitSentences cuts a digest on ". " for multi-message delivery, restoring
// the trailing period each cut removes.
func splitSentences(digest string) []string {
	parts := strings.Split(digest, ". ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasSuffix(p, ".") {
			p += "."
		}
		out = append(out, p)
	}
	return out
}
