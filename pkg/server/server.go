package server

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/osku/freeshiamy/internal/logger"
	"github.com/osku/freeshiamy/pkg/compose"
	"github.com/osku/freeshiamy/pkg/config"
	"github.com/osku/freeshiamy/pkg/dictionary"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// DefaultSession is used by requests without a session id.
	DefaultSession = "default"

	// sessions idle this long are dropped during cleanup
	sessionIdle     = 30 * time.Minute
	cleanupInterval = 100
)

var errMalformedRequest = errors.New("malformed request")

// Server handles the IPC for input sessions.
type Server struct {
	loader     *dictionary.Loader
	config     *config.Config
	configPath string
	reader     io.Reader
	writer     io.Writer
	logger     *log.Logger

	sessions     map[string]*session
	requestCount int
}

type session struct {
	composer *compose.Composer
	editor   *compose.Recorder
	lastUsed time.Time
}

type inbound struct {
	req Request
	err error
}

// Option configures a Server.
type Option func(*Server)

// WithIO replaces stdin and stdout.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(s *Server) {
		s.reader = r
		s.writer = w
	}
}

// NewServer creates a server over stdin/stdout. configPath is where config
// changes are saved; "" keeps them in memory.
func NewServer(loader *dictionary.Loader, cfg *config.Config, configPath string, opts ...Option) *Server {
	s := &Server{
		loader:     loader,
		config:     cfg,
		configPath: configPath,
		reader:     os.Stdin,
		writer:     os.Stdout,
		logger:     logger.New("ipc"),
		sessions:   make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start serves requests until the input ends, which returns nil, or ctx
// is done. Requests and the dictionary load notification are handled one
// at a time on the calling goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Debug("Starting server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan inbound)
	go s.readLoop(ctx, in)

	s.send(StatusMessage{Status: "ready"})

	loaded := s.loader.Done()
	select {
	case <-loaded:
		s.handleLoaded()
		loaded = nil
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-loaded:
			s.handleLoaded()
			loaded = nil
		case msg := <-in:
			if msg.err != nil {
				if errors.Is(msg.err, errMalformedRequest) {
					s.sendError("", msg.err.Error(), 400)
					continue
				}
				if errors.Is(msg.err, io.EOF) {
					s.logger.Debug("Input closed, stopping server")
					return nil
				}
				s.logger.Errorf("Reading requests: %v", msg.err)
				return msg.err
			}
			s.handleRequest(msg.req)
		}
	}
}

// readLoop decodes one msgpack value at a time so that a request with
// wrong field types does not desync the stream.
func (s *Server) readLoop(ctx context.Context, out chan<- inbound) {
	dec := msgpack.NewDecoder(bufio.NewReader(s.reader))
	for {
		var msg inbound
		raw, err := dec.DecodeRaw()
		if err != nil {
			msg.err = err
		} else if err := msgpack.Unmarshal(raw, &msg.req); err != nil {
			msg.err = errors.Mark(errors.Wrap(err, "decode request"), errMalformedRequest)
		}

		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
		if msg.err != nil && !errors.Is(msg.err, errMalformedRequest) {
			return
		}
	}
}

func (s *Server) handleRequest(req Request) {
	start := time.Now()
	s.requestCount++
	if s.requestCount%cleanupInterval == 0 {
		s.pruneSessions(start)
	}

	switch req.Kind {
	case "stats":
		s.handleStats(req)
		return
	case "config":
		s.handleConfig(req)
		return
	case "":
		s.sendError(req.ID, "missing kind", 400)
		return
	}

	sid := req.Session
	if sid == "" {
		sid = DefaultSession
	}
	sess := s.session(sid, start)

	switch req.Kind {
	case "view":
	case "moved":
		if len(req.Selection) != 3 {
			s.sendError(req.ID, "moved needs sel [start, end, composingEnd]", 400)
			return
		}
		sess.composer.SelectionMoved(req.Selection[0], req.Selection[1], req.Selection[2])
	case "close":
		sess.composer.Cancel()
		delete(s.sessions, sid)
	default:
		ev, err := s.toEvent(req)
		if err != nil {
			s.sendError(req.ID, err.Error(), 400)
			return
		}
		sess.composer.Handle(ev)
	}

	resp := s.view(req.ID, sid, sess)
	resp.TimeTaken = time.Since(start).Microseconds()
	s.send(resp)
}

func (s *Server) toEvent(req Request) (compose.Event, error) {
	kind, ok := compose.ParseKind(req.Kind)
	if !ok {
		return compose.Event{}, errors.Newf("unknown kind: %s", req.Kind)
	}

	ev := compose.Event{
		Kind:      kind,
		Text:      req.Text,
		Shifted:   req.Shifted,
		Sensitive: req.Sensitive && s.config.Input.DisableInSensitiveFields,
		Literal:   req.Literal,
		Repeat:    req.Repeat,
		Index:     req.Index,
	}
	if kind == compose.KindChar {
		r, size := utf8.DecodeRuneInString(req.Rune)
		if size == 0 || r == utf8.RuneError || size != len(req.Rune) {
			return compose.Event{}, errors.Newf("char needs a single character, got %q", req.Rune)
		}
		ev.Rune = r
	}
	return ev, nil
}

func (s *Server) session(sid string, now time.Time) *session {
	sess, ok := s.sessions[sid]
	if !ok {
		editor := &compose.Recorder{}
		sess = &session{
			editor: editor,
			composer: compose.New(s.loader, editor,
				compose.WithShortestCodeHint(s.config.Hint.ShowShortestCode),
				compose.WithLogger(s.logger.WithPrefix(sid)),
			),
		}
		s.sessions[sid] = sess
		s.logger.Debugf("New session %s", sid)
	}
	sess.lastUsed = now
	return sess
}

func (s *Server) pruneSessions(now time.Time) {
	for sid, sess := range s.sessions {
		if now.Sub(sess.lastUsed) > sessionIdle {
			delete(s.sessions, sid)
			s.logger.Debugf("Dropped idle session %s", sid)
		}
	}
}

// view builds the response for a session, draining its editor operations.
func (s *Server) view(id, sid string, sess *session) Response {
	v := sess.composer.View()

	candidates := v.Candidates
	if len(candidates) > s.config.Candidates.MoreLimit {
		candidates = candidates[:s.config.Candidates.MoreLimit]
	}
	resp := Response{
		ID:         id,
		Session:    sid,
		Raw:        v.RawText,
		Candidates: make([]Candidate, len(candidates)),
		Inline:     min(len(candidates), s.config.Candidates.InlineLimit),
		Hint:       v.HintText,
		State:      sess.composer.State().String(),
	}
	for i, c := range candidates {
		resp.Candidates[i] = Candidate{Value: c.Value, Code: c.Code, Exact: c.IsExact}
	}
	for _, op := range sess.editor.Drain() {
		resp.Ops = append(resp.Ops, EditorOp{Op: string(op.Kind), Text: op.Text})
	}
	return resp
}

// handleLoaded refreshes sessions that typed while the tables were loading.
func (s *Server) handleLoaded() {
	stats := s.loader.Stats()
	s.logger.Debug("Dictionary load finished", "codes", stats.CodeEntries, "spells", stats.SpellEntries)

	msg := StatusMessage{Status: "loaded"}
	if len(stats.Errors) > 0 {
		msg.Errors = stats.Errors
	}
	for sid, sess := range s.sessions {
		if sess.composer.RawText() == "" {
			continue
		}
		sess.composer.Refresh()
		msg.Views = append(msg.Views, s.view("", sid, sess))
	}
	s.send(msg)
}

func (s *Server) handleStats(req Request) {
	stats := s.loader.Stats()
	resp := StatsResponse{
		ID:           req.ID,
		Status:       "ok",
		Sessions:     len(s.sessions),
		CodeEntries:  stats.CodeEntries,
		SpellEntries: stats.SpellEntries,
		CodeLoaded:   stats.CodeLoaded,
		SpellLoaded:  stats.SpellLoaded,
		Loading:      stats.IsLoading,
		Cache:        s.loader.CodeIndex().Stats(),
	}
	if len(stats.Errors) > 0 {
		resp.Errors = stats.Errors
	}
	s.send(resp)
}

func (s *Server) handleConfig(req Request) {
	resp := ConfigResponse{ID: req.ID, Status: "ok"}
	if req.Config != nil {
		changes := config.Changes{
			InlineLimit:              req.Config.InlineLimit,
			MoreLimit:                req.Config.MoreLimit,
			ShowShortestCode:         req.Config.ShowShortestCode,
			DisableInSensitiveFields: req.Config.DisableInSensitiveFields,
		}
		if err := s.config.Update(s.configPath, changes); err != nil {
			s.logger.Errorf("Failed to save config: %v", err)
			resp.Status = "unsaved"
			resp.Error = err.Error()
		}
		if changes.ShowShortestCode != nil {
			for _, sess := range s.sessions {
				sess.composer.SetShortestCodeHint(s.config.Hint.ShowShortestCode)
			}
		}
	}

	resp.InlineLimit = s.config.Candidates.InlineLimit
	resp.MoreLimit = s.config.Candidates.MoreLimit
	resp.ShowShortestCode = s.config.Hint.ShowShortestCode
	resp.DisableInSensitiveFields = s.config.Input.DisableInSensitiveFields
	s.send(resp)
}

func (s *Server) send(v any) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		s.logger.Errorf("Marshaling response: %v", err)
		return
	}
	if _, err := s.writer.Write(data); err != nil {
		s.logger.Errorf("Writing response: %v", err)
	}
}

func (s *Server) sendError(id, message string, code int) {
	s.logger.Debug("Request failed", "id", id, "error", message)
	s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
