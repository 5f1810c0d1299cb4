// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/kothbot/cmd/kothbot/internal/bot"
	"go.astrophena.name/kothbot/internal/api/google/gemini"
	"go.astrophena.name/kothbot/internal/api/openai"
	"go.astrophena.name/kothbot/internal/cli"
	"go.astrophena.name/kothbot/internal/cli/envflag"
	"go.astrophena.name/kothbot/internal/httplogger"
	"go.astrophena.name/kothbot/internal/line"
	"go.astrophena.name/kothbot/internal/logger"
	"go.astrophena.name/kothbot/internal/request"
	"go.astrophena.name/kothbot/internal/settings"
	"go.astrophena.name/kothbot/internal/store"
	"go.astrophena.name/kothbot/internal/syncx"
	"go.astrophena.name/kothbot/internal/systemd"
	"go.astrophena.name/kothbot/internal/translate"
	"go.astrophena.name/kothbot/internal/web"
)

func main() { cli.Main(new(engine)) }

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"
)

const (
	defaultAddr        = "localhost:3000"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.0-flash"
	selfPingInterval   = 10 * time.Minute
	translateRetries   = 1
)

type engine struct {
	init syncx.Lazy[error] // main initialization

	// initialized by doInit
	bot      *bot.Bot
	kv       store.Store
	mux      *http.ServeMux
	scrubber *strings.Replacer
	settings *settings.Store

	// configuration, read-only after initialization
	addr                  string
	databaseURL           string
	dataDir               string
	geminiKey             string
	geminiModel           string
	lineSecret            string
	lineToken             string
	maxEventAge           time.Duration
	onRender              bool
	openaiKey             string
	openaiModel           string
	openaiURL             string
	pingURL               string
	provider              string
	replyConnectTimeout   time.Duration
	replyReadTimeout      time.Duration
	replyRetryReadTimeout time.Duration
	sqliteDB              string
	stderr                io.Writer
	translateTimeout      time.Duration
	verbose               bool
	// for tests
	httpc         *http.Client // used for every outgoing request if set
	noServerStart bool
	ready         func() // see web.ListenAndServeConfig.Ready
}

func (e *engine) Flags(fs *flag.FlagSet, getenv func(string) string) {
	envflag.Var(&e.addr, "addr", "ADDR", defaultAddr, "Listen on `host:port`.", fs, getenv)
	envflag.Var(&e.lineSecret, "line-secret", "LINE_CHANNEL_SECRET", "", "LINE channel secret.", fs, getenv)
	envflag.Var(&e.lineToken, "line-token", "LINE_CHANNEL_ACCESS_TOKEN", "", "LINE channel access token.", fs, getenv)
	envflag.Var(&e.provider, "provider", "LLM_PROVIDER", defaultProvider(getenv), "Translation `provider` (openai or gemini).", fs, getenv)
	envflag.Var(&e.openaiKey, "openai-key", "OPENAI_API_KEY", "", "OpenAI API key.", fs, getenv)
	envflag.Var(&e.openaiURL, "openai-url", "OPENAI_BASE_URL", openai.DefaultBaseURL, "OpenAI-compatible API endpoint.", fs, getenv)
	envflag.Var(&e.openaiModel, "openai-model", "OPENAI_MODEL", defaultOpenAIModel, "OpenAI model.", fs, getenv)
	envflag.Var(&e.geminiKey, "gemini-key", "GEMINI_KEY", "", "Gemini API key.", fs, getenv)
	envflag.Var(&e.geminiModel, "gemini-model", "GEMINI_MODEL", defaultGeminiModel, "Gemini model.", fs, getenv)
	envflag.Var(&e.dataDir, "data-dir", "DATA_DIR", "", "Keep settings in a JSON file inside this `directory`.", fs, getenv)
	envflag.Var(&e.sqliteDB, "sqlite-db", "SQLITE_DB", "", "Keep settings in this SQLite database `file`.", fs, getenv)
	envflag.Var(&e.databaseURL, "database-url", "DATABASE_URL", "", "Keep settings in this PostgreSQL database.", fs, getenv)
	envflag.Var(&e.translateTimeout, "translate-timeout", "TRANSLATE_TIMEOUT", translate.DefaultTimeout, "Timeout of a single translation call.", fs, getenv)
	envflag.Var(&e.replyConnectTimeout, "reply-connect-timeout", "REPLY_CONNECT_TIMEOUT", line.DefaultConnectTimeout, "Timeout for connecting to the LINE API.", fs, getenv)
	envflag.Var(&e.replyReadTimeout, "reply-read-timeout", "REPLY_READ_TIMEOUT", line.DefaultReadTimeout, "Timeout for the LINE API response.", fs, getenv)
	envflag.Var(&e.replyRetryReadTimeout, "reply-retry-read-timeout", "REPLY_RETRY_READ_TIMEOUT", line.DefaultRetryReadTimeout, "Timeout for the LINE API response on retry.", fs, getenv)
	envflag.Var(&e.maxEventAge, "max-event-age", "MAX_EVENT_AGE", bot.DefaultMaxEventAge, "Skip events older than this. Zero disables the check.", fs, getenv)
	envflag.Var(&e.verbose, "verbose", "VERBOSE", false, "Log debug messages and outgoing HTTP requests.", fs, getenv)
	envflag.Var(&e.pingURL, "ping-url", "PING_URL", "", "Send a heartbeat to this `URL` every 10 minutes.", fs, getenv)
}

func defaultProvider(getenv func(string) string) string {
	if getenv("OPENAI_API_KEY") != "" {
		return providerOpenAI
	}
	return providerGemini
}

func (e *engine) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	e.stderr = env.Stderr
	e.onRender = env.Getenv("RENDER") == "true"
	ctx = logger.Put(ctx, logger.New(e.stderr, e.verbose))

	// Initialize internal state.
	if err := e.init.Get(func() error {
		return e.doInit(ctx)
	}); err != nil {
		return err
	}
	defer e.kv.Close()

	// Used in tests.
	if e.noServerStart {
		return nil
	}

	// If running on Render, try to look up port to listen on and start
	// goroutine that prevents kothbot from sleeping.
	if e.onRender {
		logger.Info(ctx, "running on Render, starting self-ping")
		// https://docs.render.com/environment-variables#all-runtimes-1
		if port := env.Getenv("PORT"); port != "" {
			e.addr = ":" + port
		}
		go e.selfPing(ctx, selfPingInterval)
	}

	if e.pingURL != "" {
		go e.ping(ctx, selfPingInterval)
	}

	go systemd.WatchdogLoop(ctx, env.Getenv)
	defer systemd.Notify(ctx, env.Getenv, systemd.Stopping)

	return web.ListenAndServe(ctx, &web.ListenAndServeConfig{
		Addr: e.addr,
		Mux:  e.mux,
		Ready: func() {
			systemd.Notify(ctx, env.Getenv, systemd.Ready)
			if e.ready != nil {
				e.ready()
			}
		},
	})
}

func (e *engine) doInit(ctx context.Context) error {
	if e.lineSecret == "" {
		return fmt.Errorf("%w: LINE channel secret is not set; pass it with -line-secret flag or LINE_CHANNEL_SECRET environment variable", cli.ErrInvalidArgs)
	}
	if e.lineToken == "" {
		return fmt.Errorf("%w: LINE channel access token is not set; pass it with -line-token flag or LINE_CHANNEL_ACCESS_TOKEN environment variable", cli.ErrInvalidArgs)
	}
	switch e.provider {
	case providerOpenAI:
		if e.openaiKey == "" {
			return fmt.Errorf("%w: OpenAI API key is not set; pass it with -openai-key flag or OPENAI_API_KEY environment variable", cli.ErrInvalidArgs)
		}
	case providerGemini:
		if e.geminiKey == "" {
			return fmt.Errorf("%w: Gemini API key is not set; pass it with -gemini-key flag or GEMINI_KEY environment variable", cli.ErrInvalidArgs)
		}
	default:
		return fmt.Errorf("%w: unknown provider %q (want %s or %s)", cli.ErrInvalidArgs, e.provider, providerOpenAI, providerGemini)
	}

	var scrubPairs []string
	for _, val := range []string{
		e.lineSecret,
		e.lineToken,
		e.openaiKey,
		e.geminiKey,
		e.databaseURL,
	} {
		if val != "" {
			scrubPairs = append(scrubPairs, val, "[EXPUNGED]")
		}
	}
	e.scrubber = strings.NewReplacer(scrubPairs...)

	kv, err := store.Open(ctx, store.Config{
		DatabaseURL: e.databaseURL,
		SQLiteDB:    e.sqliteDB,
		DataDir:     e.dataDir,
	})
	if err != nil {
		return request.ScrubErr(err, e.scrubber)
	}
	e.kv = kv
	e.settings = settings.NewStore(kv)
	if !e.settings.Persistent() {
		logger.Warn(ctx, "settings are kept in memory and will be lost on restart; set DATA_DIR, SQLITE_DB or DATABASE_URL to keep them")
	}

	llmc := e.httpClient(&http.Client{})
	var provider translate.Provider
	switch e.provider {
	case providerOpenAI:
		provider = &translate.OpenAI{
			Client: &openai.Client{
				APIKey:     e.openaiKey,
				BaseURL:    e.openaiURL,
				HTTPClient: llmc,
				Scrubber:   e.scrubber,
			},
			Model: e.openaiModel,
		}
	case providerGemini:
		provider = &translate.Gemini{
			Client: &gemini.Client{
				APIKey:     e.geminiKey,
				HTTPClient: llmc,
				Scrubber:   e.scrubber,
			},
			Model: e.geminiModel,
		}
	}
	logger.Info(ctx, "translation provider selected",
		slog.String("provider", e.provider),
		slog.Bool("persistent_settings", e.settings.Persistent()),
	)

	e.bot = bot.New(bot.Opts{
		Secret:   e.lineSecret,
		Settings: e.settings,
		Translator: &translate.Client{
			Provider: provider,
			Timeout:  e.translateTimeout,
			Retries:  translateRetries,
		},
		Replier: &line.Client{
			Token:            e.lineToken,
			HTTPClient:       e.httpClient(line.NewHTTPClient(e.replyConnectTimeout)),
			ReadTimeout:      e.replyReadTimeout,
			RetryReadTimeout: e.replyRetryReadTimeout,
			Scrubber:         e.scrubber,
		},
		MaxEventAge: e.maxEventAge,
	})

	e.initRoutes()
	return nil
}

// httpClient returns the client used for outgoing requests, falling back to
// def. In verbose mode requests are traced.
func (e *engine) httpClient(def *http.Client) *http.Client {
	c := def
	if e.httpc != nil {
		c = e.httpc
	}
	if !e.verbose {
		return c
	}
	traced := *c
	traced.Transport = httplogger.New(c.Transport)
	return &traced
}
