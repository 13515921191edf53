// Package telegram adapts Telegram chats to the bot's turn model. Updates
// become inbound activities, outbound activities become Telegram messages
// with reply keyboards for suggested actions.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"actubot/bot/turn"
	"actubot/core/config"
	"actubot/core/logger"
	"actubot/core/netutil"
)

const channelID = "telegram"

const turnTimeout = 30 * time.Second

// Processor handles one decoded inbound activity to completion.
type Processor interface {
	Process(ctx context.Context, a turn.Activity) ([]turn.Activity, error)
}

// Channel runs a long-polling Telegram bot in front of the processor.
type Channel struct {
	bot       *tele.Bot
	processor Processor
}

// New builds the Telegram channel from config. The token must be set when
// the channel is enabled.
func New(cfg *config.Config, processor Processor) (*Channel, error) {
	timeout := cfg.Telegram.LongPollTimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}

	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: time.Duration(timeout) * time.Second},
		Client: netutil.BuildClient(60 * time.Second),
	}
	bot, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	ch := &Channel{bot: bot, processor: processor}
	bot.Handle("/start", ch.onStart)
	bot.Handle(tele.OnText, ch.onText)
	bot.Handle(tele.OnPhoto, ch.onPhoto)
	return ch, nil
}

// Run polls until the context is done.
func (ch *Channel) Run(ctx context.Context) error {
	logger.Info(ctx, "channel.tg", "mode",
		slog.String("mode", "polling"),
	)
	done := make(chan struct{})
	go func() {
		ch.bot.Start()
		close(done)
	}()

	select {
	case <-ctx.Done():
		ch.bot.Stop()
		<-done
		return nil
	case <-done:
		return nil
	}
}

// onStart maps /start to the conversation-update welcome path.
func (ch *Channel) onStart(c tele.Context) error {
	a := ch.activity(c)
	a.Type = turn.TypeConversationUpdate
	return ch.dispatch(c, a)
}

func (ch *Channel) onText(c tele.Context) error {
	a := ch.activity(c)
	a.Text = c.Text()
	return ch.dispatch(c, a)
}

// onPhoto feeds an uploaded photo into the turn as an image attachment, with
// the caption as text.
func (ch *Channel) onPhoto(c tele.Context) error {
	a := ch.activity(c)
	a.Text = c.Message().Caption

	photo := c.Message().Photo
	if photo != nil {
		url, err := ch.fileURL(photo.FileID)
		if err != nil {
			logger.Warn(logger.Background(), "channel.tg", "photo.resolve",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		} else {
			a.Attachments = []turn.Attachment{{
				ContentType: "image/jpeg",
				ContentURL:  url,
			}}
		}
	}
	return ch.dispatch(c, a)
}

func (ch *Channel) activity(c tele.Context) turn.Activity {
	return turn.Activity{
		Type:           turn.TypeMessage,
		ID:             strconv.Itoa(c.Message().ID),
		ConversationID: strconv.FormatInt(c.Chat().ID, 10),
		UserID:         strconv.FormatInt(c.Sender().ID, 10),
		ChannelID:      channelID,
	}
}

func (ch *Channel) fileURL(fileID string) (string, error) {
	file, err := ch.bot.FileByID(fileID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", ch.bot.Token, file.FilePath), nil
}

func (ch *Channel) dispatch(c tele.Context, a turn.Activity) error {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	replies, err := ch.processor.Process(ctx, a)
	if err != nil {
		return fmt.Errorf("telegram: process turn: %w", err)
	}
	for _, r := range replies {
		if err := ch.send(c, r); err != nil {
			logger.Warn(ctx, "channel.tg", "send",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}
	return nil
}

// send renders one outbound activity: media first, then the text with a
// reply keyboard when suggested actions are present.
func (ch *Channel) send(c tele.Context, r turn.Activity) error {
	text := r.Text
	for _, att := range r.Attachments {
		switch {
		case strings.HasPrefix(att.ContentType, "image/"):
			if err := c.Send(&tele.Photo{File: tele.FromURL(att.ContentURL), Caption: text}); err != nil {
				return err
			}
			text = ""
		case strings.HasPrefix(att.ContentType, "audio/"):
			if err := c.Send(&tele.Audio{File: tele.FromURL(att.ContentURL)}); err != nil {
				return err
			}
		}
	}
	if text == "" {
		return nil
	}
	if len(r.SuggestedActions) > 0 {
		markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
		var rows []tele.Row
		for _, action := range r.SuggestedActions {
			rows = append(rows, markup.Row(markup.Text(action)))
		}
		markup.Reply(rows...)
		return c.Send(text, markup)
	}
	return c.Send(text)
}
