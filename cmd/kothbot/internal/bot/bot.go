// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package bot implements the core logic of kothbot.
//
// It verifies LINE webhooks, parses every text message into a command,
// keeps per-conversation settings and replies with translations.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.astrophena.name/kothbot/internal/command"
	"go.astrophena.name/kothbot/internal/line"
	"go.astrophena.name/kothbot/internal/logger"
	"go.astrophena.name/kothbot/internal/settings"
	"go.astrophena.name/kothbot/internal/translate"
	"go.astrophena.name/kothbot/internal/web"
)

// DefaultMaxEventAge is the recommended value of [Opts.MaxEventAge].
const DefaultMaxEventAge = 60 * time.Second

// LINE doesn't document a limit; this is far above any real payload.
const maxBodySize = 1 << 20

var errBadSignature = fmt.Errorf("%w: signature mismatch", web.ErrUnauthorized)

// Translator translates text.
type Translator interface {
	Translate(ctx context.Context, r translate.Request) (translate.Result, error)
}

// Replier sends a reply to an event.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Bot handles LINE webhooks.
type Bot struct {
	secret      string
	settings    *settings.Store
	translator  Translator
	replier     Replier
	maxEventAge time.Duration
	now         func() time.Time
}

// Opts is the options for creating a new Bot.
type Opts struct {
	// Secret is the LINE channel secret used to verify webhook signatures.
	Secret string
	// Settings holds per-conversation settings.
	Settings *settings.Store
	// Translator translates messages.
	Translator Translator
	// Replier sends replies.
	Replier Replier
	// MaxEventAge is the age after which events are skipped, so events
	// redelivered after a long outage don't get answered. Zero disables the
	// check.
	MaxEventAge time.Duration
	// Now returns the current time. Defaults to time.Now. Used in tests.
	Now func() time.Time
}

// New creates a new Bot instance.
func New(opts Opts) *Bot {
	b := &Bot{
		secret:      opts.Secret,
		settings:    opts.Settings,
		translator:  opts.Translator,
		replier:     opts.Replier,
		maxEventAge: opts.MaxEventAge,
		now:         opts.Now,
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

var ok = map[string]string{
	"status": "ok",
}

// HandleVerify answers the GET probe that LINE may send to the webhook URL.
func (b *Bot) HandleVerify(w http.ResponseWriter, r *http.Request) {
	web.RespondText(w, "OK")
}

// HandleWebhook handles a LINE webhook request.
//
// Requests with a bad signature are rejected with 401. Once the signature is
// verified, events are processed one by one in order and the response is
// always 200: failures of individual events are only logged.
func (b *Bot) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		web.RespondJSONError(w, r, fmt.Errorf("%w: %v", web.ErrBadRequest, err))
		return
	}

	if !line.ValidateSignature(b.secret, body, r.Header.Get(line.SignatureHeader)) {
		logger.Warn(r.Context(), "rejected webhook with bad signature",
			slog.String("remote_addr", r.RemoteAddr),
		)
		web.RespondJSONError(w, r, errBadSignature)
		return
	}

	var payload line.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		web.RespondJSONError(w, r, fmt.Errorf("%w: %v", web.ErrBadRequest, err))
		return
	}

	// LINE may drop the connection before replies are sent. Outbound calls
	// are bounded by their own timeouts instead.
	ctx := context.WithoutCancel(r.Context())
	for i := range payload.Events {
		b.handleEvent(ctx, &payload.Events[i])
	}

	web.RespondJSON(w, ok)
}

func (b *Bot) handleEvent(ctx context.Context, ev *line.Event) {
	id := ev.Source.ConversationID()
	ctx = logger.Put(ctx, logger.Get(ctx).With(
		slog.String("event", ev.WebhookEventID),
		slog.String("conversation", id),
	))

	text, isText := ev.Text()
	if !isText {
		logger.Debug(ctx, "skipping non-text event", slog.String("type", ev.Type))
		return
	}
	if age := b.now().Sub(ev.Time()); b.maxEventAge > 0 && ev.Timestamp > 0 && age > b.maxEventAge {
		logger.Info(ctx, "skipping stale event", slog.Duration("age", age))
		return
	}
	if ev.ReplyToken == "" || id == "" {
		logger.Debug(ctx, "skipping event without reply token or source")
		return
	}

	reply, send := b.dispatch(ctx, id, command.Parse(text))
	if !send {
		return
	}
	if err := b.replier.Reply(ctx, ev.ReplyToken, reply); err != nil {
		logger.Error(ctx, "sending reply failed", slog.Any("err", err))
	}
}

// dispatch executes cmd in the conversation id and returns the reply, if any.
func (b *Bot) dispatch(ctx context.Context, id string, cmd command.Command) (reply string, send bool) {
	switch c := cmd.(type) {
	case command.ForceTranslate:
		st := b.settings.Get(ctx, id)
		return b.translate(ctx, st, translate.Request{
			Text:      c.Text,
			Mode:      st.Mode,
			Direction: &c.Direction,
			Formality: st.Formality,
		})
	case command.PlainText:
		st := b.settings.Get(ctx, id)
		if st.Mode == settings.ModeOff {
			return "", false
		}
		return b.translate(ctx, st, translate.Request{
			Text:      c.Text,
			Mode:      st.Mode,
			Formality: st.Formality,
		})
	case command.UpdateSetting:
		st, err := b.settings.Update(ctx, id, c.Field, c.Value)
		switch {
		case errors.Is(err, settings.ErrInvalidValue):
			return invalidValueText(err), true
		case err != nil:
			logger.Error(ctx, "updating settings failed", slog.Any("err", err))
			return persistFailedText, true
		}
		logger.Info(ctx, "settings updated",
			slog.String("field", string(c.Field)),
			slog.String("value", c.Value),
		)
		return confirmationText(c.Field, st), true
	case command.ShowSettings:
		return summaryText(b.settings.Get(ctx, id)), true
	case command.ShowHelp:
		return helpText, true
	}
	logger.Error(ctx, "unhandled command", slog.String("type", fmt.Sprintf("%T", cmd)))
	return "", false
}

func (b *Bot) translate(ctx context.Context, st settings.Settings, req translate.Request) (reply string, send bool) {
	res, err := b.translator.Translate(ctx, req)
	switch {
	case errors.Is(err, translate.ErrNoDirection):
		logger.Debug(ctx, "no translation direction, staying silent")
		return "", false
	case err != nil:
		logger.Error(ctx, "translation failed", slog.Any("err", err))
		return apologyText, true
	}
	return compose(res, req.Text, st), true
}
