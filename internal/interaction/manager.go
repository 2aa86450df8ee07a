// Package interaction drives the exclusion workflow: one state machine per
// session, fed by component events, bounded by a fixed deadline.
package interaction

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hunterjsb/fftournament/internal/bracket"
	"github.com/hunterjsb/fftournament/internal/metrics"
	"github.com/hunterjsb/fftournament/internal/render"
	"github.com/hunterjsb/fftournament/internal/session"
	"github.com/hunterjsb/fftournament/internal/tournament"
	"github.com/hunterjsb/fftournament/pkg/logger"
)

const (
	DefaultSimpleWindow  = 300 * time.Second
	DefaultBracketWindow = 840 * time.Second

	retireTimeout = 10 * time.Second
	// storeGrace keeps a session readable after its deadline so the expiry
	// handler can still inspect its state.
	storeGrace = time.Minute
)

// outcomeVanished marks a session the store no longer knows.
const outcomeVanished = "vanished"

// EventKind names a component event.
type EventKind string

const (
	EventSelect        EventKind = "select"
	EventNavigate      EventKind = "navigate"
	EventGenerate      EventKind = "generate"
	EventRedraw        EventKind = "redraw"
	EventConfirm       EventKind = "confirm"
	EventUpdateResults EventKind = "update_results"
)

// blocking events hold the session busy until handled.
func (k EventKind) blocking() bool {
	return k == EventGenerate || k == EventUpdateResults || k == EventConfirm
}

// Event is one user action on a session's message.
type Event struct {
	Kind      EventKind
	SessionID string
	UserID    string
	Values    []string
	Page      int
	Out       Responder
}

// StartRequest opens a session for a fetched tournament.
type StartRequest struct {
	UserID      string
	GuildID     string
	ChannelID   string
	Kind        tournament.Kind
	Snapshot    *tournament.Snapshot
	TextVersion bool
	ClanFilter  string
	Surface     Surface
}

// Options configures a Manager.
type Options struct {
	Store         session.Store
	Generator     render.Generator
	BattleLogs    bracket.BattleLogSource
	Logger        logger.Logger
	Metrics       *metrics.Recorder
	SimpleWindow  time.Duration
	BracketWindow time.Duration
	// Rand returns a uniform integer in [0, n). Defaults to math/rand/v2.
	Rand func(n int) int
}

// Manager owns every live session's runner.
type Manager struct {
	store   session.Store
	gen     render.Generator
	logs    bracket.BattleLogSource
	log     logger.Logger
	metrics *metrics.Recorder
	simple  time.Duration
	brack   time.Duration
	rand    func(n int) int
	now     func() time.Time

	mu      sync.Mutex
	runners map[string]*runner
	wg      sync.WaitGroup
}

type envelope struct {
	ctx   context.Context
	ev    Event
	reply chan error
}

type runner struct {
	id       string
	userID   string
	kind     tournament.Kind
	surface  Surface
	deadline time.Time

	events   chan envelope
	done     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	busy     atomic.Bool
}

func (r *runner) stop() {
	r.quitOnce.Do(func() { close(r.quit) })
}

// NewManager builds a manager. Zero windows fall back to the defaults.
func NewManager(opts Options) *Manager {
	m := &Manager{
		store:   opts.Store,
		gen:     opts.Generator,
		logs:    opts.BattleLogs,
		log:     opts.Logger,
		metrics: opts.Metrics,
		simple:  opts.SimpleWindow,
		brack:   opts.BracketWindow,
		rand:    opts.Rand,
		now:     time.Now,
		runners: make(map[string]*runner),
	}
	if m.log == nil {
		m.log = logger.Nop()
	}
	if m.simple <= 0 {
		m.simple = DefaultSimpleWindow
	}
	if m.brack <= 0 {
		m.brack = DefaultBracketWindow
	}
	if m.rand == nil {
		m.rand = rand.IntN
	}
	return m
}

func (m *Manager) window(kind tournament.Kind) time.Duration {
	if kind == tournament.KindBracket {
		return m.brack
	}
	return m.simple
}

// Start validates the snapshot, stores a new session and shows its first
// view on the request's surface. It returns the session id.
func (m *Manager) Start(ctx context.Context, req StartRequest) (string, error) {
	if req.Snapshot == nil || len(req.Snapshot.Members) == 0 {
		return "", tournament.ErrEmptyResult
	}
	if req.Kind == tournament.KindBracket {
		if err := tournament.RequireParticipants(req.Snapshot.Members, bracket.Seeds); err != nil {
			return "", err
		}
	}

	now := m.now()
	deadline := now.Add(m.window(req.Kind))
	sess := &session.Session{
		UserID:      req.UserID,
		GuildID:     req.GuildID,
		ChannelID:   req.ChannelID,
		Kind:        req.Kind,
		State:       session.StateSelecting,
		Snapshot:    req.Snapshot,
		Excluded:    tournament.NewTagSet(),
		TextVersion: req.TextVersion,
		ClanFilter:  req.ClanFilter,
		CreatedAt:   now,
		ExpiresAt:   deadline.Add(storeGrace),
	}
	if req.Kind == tournament.KindPassWinner {
		sess.State = session.StateDrawing
		m.draw(sess)
	}

	id, err := m.store.Create(ctx, sess)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	r := &runner{
		id:       id,
		userID:   req.UserID,
		kind:     req.Kind,
		surface:  req.Surface,
		deadline: deadline,
		events:   make(chan envelope),
		done:     make(chan struct{}),
		quit:     make(chan struct{}),
	}
	m.mu.Lock()
	m.runners[id] = r
	m.mu.Unlock()
	m.wg.Add(1)
	go m.run(r)
	m.metrics.SessionStarted(string(req.Kind))

	if sess.State == session.StateDrawing {
		err = req.Surface.ShowDraw(ctx, DrawView(sess))
	} else {
		err = req.Surface.ShowPage(ctx, PageView(sess))
	}
	if err != nil {
		r.stop()
		return "", fmt.Errorf("show session %s: %w", id, err)
	}

	m.log.Debug(ctx, "session started",
		logger.String("session_id", id),
		logger.String("kind", string(req.Kind)),
		logger.String("user_id", req.UserID),
		logger.Int("members", len(req.Snapshot.Members)))
	return id, nil
}

// Dispatch hands an event to its session and waits for it to be handled.
func (m *Manager) Dispatch(ctx context.Context, ev Event) error {
	m.mu.Lock()
	r, ok := m.runners[ev.SessionID]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	if ev.UserID != r.userID {
		return ErrForeignUser
	}

	if ev.Kind.blocking() {
		if !r.busy.CompareAndSwap(false, true) {
			return ErrBusy
		}
	} else if r.busy.Load() {
		return ErrBusy
	}

	env := envelope{ctx: ctx, ev: ev, reply: make(chan error, 1)}
	select {
	case r.events <- env:
	case <-r.done:
		r.busy.Store(false)
		return ErrSessionExpired
	case <-ctx.Done():
		r.busy.Store(false)
		return ctx.Err()
	}

	select {
	case err := <-env.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Active returns the number of live sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runners)
}

// Shutdown stops every runner and waits for them to exit.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, r := range m.runners {
		r.stop()
	}
	m.mu.Unlock()

	waited := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run(r *runner) {
	defer m.wg.Done()

	timer := time.NewTimer(time.Until(r.deadline))
	defer timer.Stop()

	for {
		select {
		case env := <-r.events:
			outcome, err := m.safeHandle(r, env)
			if env.ev.Kind.blocking() {
				r.busy.Store(false)
			}
			switch outcome {
			case "":
			case outcomeVanished:
				m.expire(r)
			default:
				m.finish(r, outcome)
			}
			env.reply <- err
			if outcome != "" {
				return
			}
		case <-timer.C:
			m.expire(r)
			return
		case <-r.quit:
			m.finish(r, "aborted")
			return
		}
	}
}

// finish unregisters the runner and drops its session.
func (m *Manager) finish(r *runner, outcome string) {
	m.mu.Lock()
	delete(m.runners, r.id)
	m.mu.Unlock()
	close(r.done)

	ctx, cancel := context.WithTimeout(context.Background(), retireTimeout)
	defer cancel()
	if err := m.store.Delete(ctx, r.id); err != nil {
		m.log.Warn(ctx, "failed to delete session", logger.String("session_id", r.id), logger.Error(err))
	}
	m.metrics.SessionEnded(string(r.kind), outcome)
	m.log.Debug(ctx, "session ended", logger.String("session_id", r.id), logger.String("outcome", outcome))
}

func (m *Manager) expire(r *runner) {
	ctx, cancel := context.WithTimeout(context.Background(), retireTimeout)
	defer cancel()

	keep := false
	if sess, err := m.store.Get(ctx, r.id); err == nil {
		keep = sess.State == session.StateTracking
	}
	m.finish(r, "expired")

	if err := r.surface.Retire(ctx, TimeoutNotice, keep); err != nil {
		m.log.Warn(ctx, "failed to retire expired session", logger.String("session_id", r.id), logger.Error(err))
	}
}

// safeHandle runs the handler, turning errors and panics into a
// HandlingError that is logged and reported privately to the user.
func (m *Manager) safeHandle(r *runner, env envelope) (outcome string, err error) {
	ev := env.ev
	defer func() {
		if p := recover(); p != nil {
			outcome, err = "", fmt.Errorf("panic: %v", p)
		}
		if err == nil || errors.Is(err, ErrSessionNotFound) {
			return
		}
		herr := &HandlingError{SessionID: r.id, Event: ev.Kind, Err: err}
		m.metrics.InteractionError(string(ev.Kind))
		m.log.Error(env.ctx, "interaction handler failed",
			logger.String("session_id", r.id),
			logger.String("event", string(ev.Kind)),
			logger.String("user_id", ev.UserID),
			logger.Error(err))
		if ev.Out != nil {
			if ferr := ev.Out.Fail(env.ctx, GenericFailureNotice); ferr != nil {
				m.log.Warn(env.ctx, "failed to report handler error", logger.Error(ferr))
			}
		}
		err = herr
	}()

	sess, err := m.store.Get(env.ctx, r.id)
	if errors.Is(err, session.ErrNotFound) {
		return outcomeVanished, ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return m.handle(env.ctx, sess, ev)
}

// handle applies one event to a freshly loaded session. A non-empty outcome
// ends the session.
func (m *Manager) handle(ctx context.Context, sess *session.Session, ev Event) (string, error) {
	switch {
	case ev.Kind == EventSelect && sess.State == session.StateSelecting:
		return "", m.onSelect(ctx, sess, ev)
	case ev.Kind == EventNavigate && sess.State == session.StateSelecting:
		return "", m.onNavigate(ctx, sess, ev)
	case ev.Kind == EventGenerate && sess.State == session.StateSelecting:
		return m.onGenerate(ctx, sess, ev)
	case ev.Kind == EventRedraw && sess.State == session.StateDrawing:
		return m.onRedraw(ctx, sess, ev)
	case ev.Kind == EventConfirm && sess.State == session.StateDrawing:
		return m.onConfirm(ctx, sess, ev)
	case ev.Kind == EventUpdateResults && sess.State == session.StateTracking:
		return m.onUpdateResults(ctx, sess, ev)
	default:
		m.log.Debug(ctx, "event ignored in current state",
			logger.String("session_id", sess.ID),
			logger.String("event", string(ev.Kind)),
			logger.String("state", string(sess.State)))
		return "", ev.Out.Ack(ctx)
	}
}

// onSelect replaces the exclusion set with the selection made on the current
// page. Values that are not on the page are ignored.
func (m *Manager) onSelect(ctx context.Context, sess *session.Session, ev Event) error {
	onPage := tournament.NewTagSet()
	for _, p := range tournament.Page(sess.Snapshot.Members, sess.Page) {
		onPage.Add(p.Tag)
	}

	excluded := tournament.NewTagSet()
	for _, v := range ev.Values {
		if onPage.Has(v) {
			excluded.Add(v)
		}
	}
	sess.Excluded = excluded

	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}
	return ev.Out.Ack(ctx)
}

func (m *Manager) onNavigate(ctx context.Context, sess *session.Session, ev Event) error {
	page := ev.Page
	if last := tournament.TotalPages(len(sess.Snapshot.Members)) - 1; page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	sess.Page = page

	if err := m.store.Save(ctx, sess); err != nil {
		return err
	}
	return ev.Out.ShowPage(ctx, PageView(sess))
}

func (m *Manager) onGenerate(ctx context.Context, sess *session.Session, ev Event) (string, error) {
	if err := ev.Out.ShowNotice(ctx, GeneratingNotice(sess.Kind)); err != nil {
		return "", err
	}

	filtered := sess.Snapshot.Without(sess.Excluded)
	if len(filtered.Members) == 0 {
		return "empty", ev.Out.ShowNotice(ctx, NoPlayersRemaining)
	}

	req := render.Request{Kind: sess.Kind, Snapshot: filtered, Text: sess.TextVersion}
	controls := Controls{SessionID: sess.ID}

	if sess.Kind == tournament.KindBracket {
		if err := tournament.RequireParticipants(filtered.Members, bracket.Seeds); err != nil {
			var insufficient *tournament.InsufficientParticipantsError
			if errors.As(err, &insufficient) {
				return "insufficient", ev.Out.ShowNotice(ctx, InsufficientNotice(insufficient))
			}
			return "", err
		}
		b, err := bracket.New(tournament.Top(filtered.Members, bracket.Seeds), sess.ClanFilter)
		if err != nil {
			return "", err
		}
		sess.Bracket = b
		sess.State = session.StateTracking
		if err := m.store.Save(ctx, sess); err != nil {
			return "", err
		}
		req.Bracket = b
		controls.UpdateResults = true
	}

	out, err := m.generate(ctx, req)
	if errors.Is(err, tournament.ErrEmptyResult) {
		return "empty", ev.Out.ShowNotice(ctx, NoPlayersRemaining)
	}
	if err != nil {
		if sess.Kind != tournament.KindBracket {
			_ = ev.Out.ShowPage(ctx, PageView(sess))
		}
		return "", fmt.Errorf("generate %s: %w", sess.Kind, err)
	}

	if err := ev.Out.ShowOutput(ctx, out, controls); err != nil {
		return "", err
	}
	if sess.Kind == tournament.KindBracket {
		return "", nil
	}
	return "generated", nil
}

// draw picks the next pass-winner candidate uniformly among the remaining
// members and excludes it so it is never drawn again. It reports false when
// nobody is left.
func (m *Manager) draw(sess *session.Session) bool {
	remaining := sess.Remaining()
	if len(remaining) == 0 {
		sess.Winner = nil
		return false
	}
	pick := remaining[m.rand(len(remaining))]
	sess.Winner = &pick
	sess.Excluded.Add(pick.Tag)
	return true
}

func (m *Manager) onRedraw(ctx context.Context, sess *session.Session, ev Event) (string, error) {
	if !m.draw(sess) {
		return "exhausted", ev.Out.ShowNotice(ctx, NoMorePlayersNotice)
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return "", err
	}
	return "", ev.Out.ShowDraw(ctx, DrawView(sess))
}

func (m *Manager) onConfirm(ctx context.Context, sess *session.Session, ev Event) (string, error) {
	if sess.Winner == nil {
		return "exhausted", ev.Out.ShowNotice(ctx, NoMorePlayersNotice)
	}
	if err := ev.Out.ShowNotice(ctx, GeneratingNotice(tournament.KindWinner)); err != nil {
		return "", err
	}

	out, err := m.gen.Generate(ctx, render.Request{
		Kind:     tournament.KindWinner,
		Snapshot: sess.Snapshot.WithMembers(*sess.Winner),
		Text:     sess.TextVersion,
	})
	if err != nil {
		_ = ev.Out.ShowDraw(ctx, DrawView(sess))
		return "", fmt.Errorf("generate winner: %w", err)
	}
	if err := ev.Out.ShowOutput(ctx, out, Controls{SessionID: sess.ID}); err != nil {
		return "", err
	}
	return "generated", nil
}

func (m *Manager) onUpdateResults(ctx context.Context, sess *session.Session, ev Event) (string, error) {
	if err := ev.Out.Ack(ctx); err != nil {
		return "", err
	}

	report := sess.Bracket.Update(ctx, m.logs, m.log)
	m.metrics.MatchesResolved(report.NewlyClosed)

	done := sess.Bracket.Champion() != nil
	if done {
		sess.State = session.StateResolved
	}
	if err := m.store.Save(ctx, sess); err != nil {
		return "", err
	}

	out, err := m.generate(ctx, render.Request{
		Kind:     tournament.KindBracket,
		Snapshot: sess.Snapshot,
		Bracket:  sess.Bracket,
		Text:     sess.TextVersion,
	})
	if err != nil {
		return "", err
	}
	if done {
		out.Description = joinNotice(out.Description, BracketCompleteNotice)
	}

	if err := ev.Out.ShowOutput(ctx, out, Controls{SessionID: sess.ID, UpdateResults: !done}); err != nil {
		return "", err
	}
	if done {
		return "resolved", nil
	}
	return "", nil
}

// generate renders a request. A bracket that fails to render falls back to
// its text form so the tracking controls stay usable.
func (m *Manager) generate(ctx context.Context, req render.Request) (*render.Output, error) {
	out, err := m.gen.Generate(ctx, req)
	if err == nil || req.Kind != tournament.KindBracket || req.Bracket == nil {
		return out, err
	}
	m.log.Warn(ctx, "bracket render failed, using text", logger.Error(err))
	return &render.Output{
		Title:       render.Title(req),
		Description: render.BracketText(req.Bracket),
		Color:       render.ColorDefault,
	}, nil
}

func joinNotice(text, notice string) string {
	if text == "" {
		return notice
	}
	return text + "\n\n" + notice
}
