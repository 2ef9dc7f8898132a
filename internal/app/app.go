// Package app wires all Sonara subsystems into one running application.
//
// The App owns a single current conversation at a time, in one of two modes:
// voice (the realtime session controller) or text (request/response chat with
// optimistic transcript updates and per-message speech synthesis). Switching
// modes, stopping a voice session, logging out and loading a saved
// conversation all hand the finalized transcript to the history store.
//
// All App methods are safe for concurrent use.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sonara-voice/sonara/internal/auth"
	"github.com/sonara-voice/sonara/internal/health"
	"github.com/sonara-voice/sonara/internal/history"
	"github.com/sonara-voice/sonara/internal/observe"
	"github.com/sonara-voice/sonara/internal/session"
	"github.com/sonara-voice/sonara/internal/transcript"
	"github.com/sonara-voice/sonara/internal/transcript/phonetic"
	"github.com/sonara-voice/sonara/pkg/audio"
	"github.com/sonara-voice/sonara/pkg/device"
	"github.com/sonara-voice/sonara/pkg/provider/chat"
	"github.com/sonara-voice/sonara/pkg/provider/live"
	"github.com/sonara-voice/sonara/pkg/provider/tts"
)

// saveTimeout bounds history writes triggered by internal teardown paths,
// which have no caller context to inherit.
const saveTimeout = 10 * time.Second

// Config holds the conversation defaults the App applies to every session.
type Config struct {
	// ListenAddr is the address of the operational HTTP server (health,
	// metrics).
	ListenAddr string

	// InputLanguage is the language code the user speaks.
	InputLanguage string

	// OutputLanguage is the language code the model replies in.
	OutputLanguage string

	// Voice is the live-session reply voice. Empty selects the default.
	Voice string

	// TTSVoice is the on-demand synthesis voice. Empty selects the
	// provider default.
	TTSVoice string

	// Vocabulary lists domain terms corrected in finalized user entries.
	Vocabulary []string
}

// Providers holds one interface value per remote surface. Populated by
// cmd/sonara from the configuration.
type Providers struct {
	Live    live.Provider
	Chat    chat.Provider
	TTS     tts.Provider
	Devices device.Platform
}

// Option is a functional option for [New]. Use these to inject test doubles
// or operational extras.
type Option func(*App)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) { a.log = logger }
}

// WithMetrics sets the metrics instance. Defaults to
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithChecker adds a readiness checker served on /readyz.
func WithChecker(c health.Checker) Option {
	return func(a *App) { a.checkers = append(a.checkers, c) }
}

// App owns the conversation lifecycle and the operational HTTP server.
type App struct {
	cfg       Config
	providers Providers
	authn     auth.Authenticator
	store     history.Store
	merger    *transcript.Merger
	session   *session.Controller
	metrics   *observe.Metrics
	log       *slog.Logger
	checkers  []health.Checker

	mu        sync.Mutex
	user      auth.User
	loggedIn  bool
	mode      history.Mode
	convID    string
	lastErr   error
	state     session.State
	statusMsg string
}

// New assembles an App from providers and storage. The transcript corrector
// is built from cfg.Vocabulary; an empty vocabulary disables correction.
func New(cfg Config, providers Providers, authn auth.Authenticator, store history.Store, opts ...Option) *App {
	a := &App{
		cfg:       cfg,
		providers: providers,
		authn:     authn,
		store:     store,
		log:       slog.Default(),
		state:     session.StateIdle,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	var mergerOpts []transcript.MergerOption
	if len(cfg.Vocabulary) > 0 {
		mergerOpts = append(mergerOpts, transcript.WithCorrector(phonetic.New(cfg.Vocabulary)))
	}
	a.merger = transcript.NewMerger(mergerOpts...)

	a.session = session.NewController(providers.Live, providers.Devices, a.merger,
		session.WithLogger(a.log),
		session.WithStateListener(a.onSessionState),
		session.WithErrorListener(a.onSessionError),
	)
	return a
}

// ─── Auth ────────────────────────────────────────────────────────────────────

// Register creates a user account and logs it in.
func (a *App) Register(ctx context.Context, email, name, password string) (auth.User, error) {
	u, err := a.authn.Register(ctx, email, name, password)
	if err != nil {
		return auth.User{}, err
	}
	a.setUser(u)
	return u, nil
}

// Login verifies credentials and makes the user current.
func (a *App) Login(ctx context.Context, email, password string) (auth.User, error) {
	u, err := a.authn.Login(ctx, email, password)
	if err != nil {
		return auth.User{}, err
	}
	a.setUser(u)
	return u, nil
}

// Logout ends any live session, saves the current conversation and clears
// the user.
func (a *App) Logout(ctx context.Context) {
	a.session.Stop()
	a.saveCurrent(ctx)
	a.merger.Reset()

	a.mu.Lock()
	a.user = auth.User{}
	a.loggedIn = false
	a.mode = ""
	a.convID = ""
	a.lastErr = nil
	a.mu.Unlock()
}

// CurrentUser returns the logged-in user, if any.
func (a *App) CurrentUser() (auth.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user, a.loggedIn
}

func (a *App) setUser(u auth.User) {
	a.mu.Lock()
	a.user = u
	a.loggedIn = true
	a.mode = ""
	a.convID = ""
	a.lastErr = nil
	a.mu.Unlock()
	a.merger.Reset()
}

// ─── Voice mode ──────────────────────────────────────────────────────────────

// StartVoice opens a live voice session with the configured languages and
// voice. Switching from text mode saves the text conversation first.
func (a *App) StartVoice(ctx context.Context) error {
	if !a.authenticated() {
		return ErrNotAuthenticated
	}
	a.switchMode(ctx, history.ModeVoice)
	a.clearError()

	start := time.Now()
	err := a.session.Start(ctx, session.StartConfig{
		InputLanguage:  a.cfg.InputLanguage,
		OutputLanguage: a.cfg.OutputLanguage,
		Voice:          a.cfg.Voice,
	})
	if err != nil {
		a.metrics.RecordProviderError(ctx, "live", "connect")
		a.setError(err)
		return err
	}
	a.metrics.ConnectDuration.Record(ctx, time.Since(start).Seconds())
	return nil
}

// StopVoice ends the live session and saves the conversation.
func (a *App) StopVoice(ctx context.Context) {
	a.session.Stop()
	a.saveCurrent(ctx)
}

// SetMuted toggles microphone muting on the live session.
func (a *App) SetMuted(muted bool) { a.session.SetMuted(muted) }

// Muted reports the mute flag.
func (a *App) Muted() bool { return a.session.Muted() }

// SessionState returns the voice session lifecycle state.
func (a *App) SessionState() session.State { return a.session.State() }

// Status returns the last reported session state and progress message.
func (a *App) Status() (session.State, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.statusMsg
}

// onSessionState tracks progress updates and maintains the active-session
// gauge across both explicit stops and remote teardown.
func (a *App) onSessionState(state session.State, message string) {
	a.mu.Lock()
	prev := a.state
	a.state = state
	a.statusMsg = message
	a.mu.Unlock()

	ctx := context.Background()
	if state == session.StateLive && prev != session.StateLive {
		a.metrics.ActiveSessions.Add(ctx, 1)
	}
	if state == session.StateIdle && prev == session.StateLive {
		a.metrics.ActiveSessions.Add(ctx, -1)
	}
}

// onSessionError records failures of an already-live session. The session
// has torn itself down by the time this fires, so the transcript is final
// and worth persisting.
func (a *App) onSessionError(err error) {
	a.setError(err)
	a.log.Warn("voice session ended with error", "error", err)

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	a.saveCurrent(ctx)
}

// ─── Text mode ───────────────────────────────────────────────────────────────

// SendText submits one user message in text mode and returns the model's
// reply. The user message is appended to the transcript optimistically and
// rolled back if the request fails. Switching from voice mode ends the live
// session and saves its transcript first.
func (a *App) SendText(ctx context.Context, text string) (string, error) {
	if !a.authenticated() {
		return "", ErrNotAuthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("app: empty message")
	}
	a.switchMode(ctx, history.ModeText)
	a.clearError()

	hist := toChatHistory(a.merger.Messages())
	a.merger.Append(transcript.Message{Speaker: transcript.SpeakerUser, Text: text})

	start := time.Now()
	reply, err := a.providers.Chat.Send(ctx, hist, text)
	a.metrics.ChatDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.merger.RemoveLast()
		a.metrics.RecordProviderError(ctx, "chat", "send")
		wrapped := fmt.Errorf("%w: %v", ErrChatRequestFailed, err)
		a.setError(wrapped)
		return "", wrapped
	}
	a.metrics.RecordProviderRequest(ctx, "chat", "send", "ok")

	a.merger.Append(transcript.Message{Speaker: transcript.SpeakerModel, Text: reply})
	a.saveCurrent(ctx)
	return reply, nil
}

// Speak synthesises text as speech and returns a complete WAV artifact.
func (a *App) Speak(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()
	pcm, err := a.providers.TTS.Synthesize(ctx, text, a.cfg.TTSVoice)
	a.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordProviderError(ctx, "tts", "synthesize")
		wrapped := fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
		a.setError(wrapped)
		return nil, wrapped
	}
	a.metrics.RecordProviderRequest(ctx, "tts", "synthesize", "ok")
	a.clearError()
	return audio.EncodeWAVMono16(pcm, tts.SampleRate), nil
}

// toChatHistory converts finalized transcript messages into chat history.
// Partial entries are skipped; they belong to an unfinished voice turn.
func toChatHistory(msgs []transcript.Message) []chat.Message {
	out := make([]chat.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Partial {
			continue
		}
		role := chat.RoleUser
		if m.Speaker == transcript.SpeakerModel {
			role = chat.RoleModel
		}
		out = append(out, chat.Message{Role: role, Text: m.Text})
	}
	return out
}

// ─── Conversation management ─────────────────────────────────────────────────

// Transcript returns a snapshot of the current conversation.
func (a *App) Transcript() []transcript.Message { return a.merger.Messages() }

// NewConversation saves the current conversation and starts a fresh one.
func (a *App) NewConversation(ctx context.Context) {
	a.session.Stop()
	a.saveCurrent(ctx)
	a.merger.Reset()

	a.mu.Lock()
	a.mode = ""
	a.convID = ""
	a.mu.Unlock()
}

// Conversations lists the user's saved conversations, newest first.
func (a *App) Conversations(ctx context.Context) ([]history.Conversation, error) {
	user, ok := a.CurrentUser()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return a.store.List(ctx, user.Email)
}

// LoadConversation makes a saved conversation current, replacing the
// transcript. Any live session is stopped and its conversation saved first.
func (a *App) LoadConversation(ctx context.Context, id string) (history.Conversation, error) {
	user, ok := a.CurrentUser()
	if !ok {
		return history.Conversation{}, ErrNotAuthenticated
	}
	a.session.Stop()
	a.saveCurrent(ctx)

	conv, err := a.store.Get(ctx, user.Email, id)
	if err != nil {
		return history.Conversation{}, err
	}
	a.merger.SetMessages(conv.Transcripts)

	a.mu.Lock()
	a.mode = conv.Mode
	a.convID = conv.ID
	a.mu.Unlock()
	return conv, nil
}

// DeleteConversation removes a saved conversation. Deleting the current one
// also clears the transcript.
func (a *App) DeleteConversation(ctx context.Context, id string) error {
	user, ok := a.CurrentUser()
	if !ok {
		return ErrNotAuthenticated
	}
	if err := a.store.Delete(ctx, user.Email, id); err != nil {
		return err
	}

	a.mu.Lock()
	current := a.convID == id
	if current {
		a.convID = ""
		a.mode = ""
	}
	a.mu.Unlock()
	if current {
		a.merger.Reset()
	}
	return nil
}

// switchMode saves and resets the current conversation when mode changes.
// The first operation after login sets the mode without a save; the
// transcript is empty anyway.
func (a *App) switchMode(ctx context.Context, mode history.Mode) {
	a.mu.Lock()
	cur := a.mode
	a.mode = mode
	a.mu.Unlock()
	if cur == mode || cur == "" {
		return
	}

	if cur == history.ModeVoice {
		a.session.Stop()
	}
	a.saveCurrentAs(ctx, cur)
	a.merger.Reset()

	a.mu.Lock()
	a.convID = ""
	a.mu.Unlock()
}

// saveCurrent persists the current transcript under the current mode.
func (a *App) saveCurrent(ctx context.Context) {
	a.mu.Lock()
	mode := a.mode
	a.mu.Unlock()
	a.saveCurrentAs(ctx, mode)
}

// saveCurrentAs persists the current transcript as a conversation of the
// given mode, assigning an ID on first save. Empty transcripts are skipped.
func (a *App) saveCurrentAs(ctx context.Context, mode history.Mode) {
	a.mu.Lock()
	user, ok := a.user, a.loggedIn
	id := a.convID
	a.mu.Unlock()
	if !ok || mode == "" {
		return
	}
	msgs := a.merger.Messages()
	if len(msgs) == 0 {
		return
	}

	conv := history.New(id, user.Email, mode, msgs)
	if id == "" {
		a.mu.Lock()
		a.convID = conv.ID
		a.mu.Unlock()
	}
	if err := a.store.Save(ctx, conv); err != nil {
		a.log.Warn("failed to save conversation", "id", conv.ID, "error", err)
		a.setError(err)
	}
}

// ─── Error slot ──────────────────────────────────────────────────────────────

// Err returns the most recent error, or nil. The slot is cleared by the next
// successful voice start or text send.
func (a *App) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

func (a *App) setError(err error) {
	a.mu.Lock()
	a.lastErr = err
	a.mu.Unlock()
}

func (a *App) clearError() {
	a.mu.Lock()
	a.lastErr = nil
	a.mu.Unlock()
}

func (a *App) authenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

// Close ends any live session, saves the conversation and releases devices
// and storage.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	a.session.Stop()
	a.saveCurrent(ctx)

	var errs []error
	if a.providers.Devices != nil {
		if err := a.providers.Devices.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close devices: %w", err))
		}
	}
	if err := a.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close history store: %w", err))
	}
	for _, err := range errs {
		a.log.Warn("close error", "error", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("app: close: %w", errs[0])
	}
	return nil
}
