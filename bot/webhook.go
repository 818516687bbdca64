package bot

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"appstore-bot/bot/application"
	"appstore-bot/bot/domain"
)

// BurstLimiter is the in-process pre-gate consulted before any work is
// done for an identity.
type BurstLimiter interface {
	Allow(identity string) bool
}

type Options struct {
	// Token signs the platform's verification handshake.
	Token    string
	Router   *application.Router
	Handlers *application.Handlers
	// Burst, when set, drops over-burst messages before routing.
	Burst BurstLimiter
	// Slots, when set, bounds concurrently processed messages.
	Slots domain.SlotPool
	// Deadline is the per-message processing budget. On expiry the
	// reply is empty — the platform's own retry machinery piles up
	// duplicate work on anything slower or louder.
	Deadline time.Duration
	Logger   *zap.Logger

	Now func() time.Time
}

// Server is the webhook endpoint. One short-lived invocation per
// inbound message; the only shared state is read-only wiring.
type Server struct {
	opts Options
}

func NewServer(opts Options) *Server {
	if opts.Deadline <= 0 {
		opts.Deadline = 4 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{opts: opts}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleVerification(w, r)
	case http.MethodPost:
		s.handleMessage(w, r)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleVerification answers the platform's signature handshake. A bad
// signature still gets a 200 with an empty body; anything else makes
// the platform mark the endpoint broken.
func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if validSignature(s.opts.Token, q.Get("signature"), q.Get("timestamp"), q.Get("nonce")) {
		_, _ = io.WriteString(w, q.Get("echostr"))
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	logger := s.opts.Logger.With(zap.String("msg_id", uuid.NewString()))

	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	if err != nil {
		logger.Warn("read body failed", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	msg, err := decodeInbound(raw)
	if err != nil {
		logger.Warn("envelope decode failed", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	identity := msg.FromUserName

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.Deadline)
	defer cancel()

	if s.opts.Slots != nil {
		release, ok := s.opts.Slots.Acquire(ctx)
		if !ok {
			logger.Warn("no processing slot", zap.String("identity", identity))
			w.WriteHeader(http.StatusOK)
			return
		}
		defer release()
	}

	if s.opts.Burst != nil && !s.opts.Burst.Allow(identity) {
		logger.Info("burst limit", zap.String("identity", identity))
		w.WriteHeader(http.StatusOK)
		return
	}

	reply := s.process(ctx, logger, msg)
	if reply == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	out, err := encodeTextReply(msg.FromUserName, msg.ToUserName, reply, s.opts.Now())
	if err != nil {
		logger.Error("envelope encode failed", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(out)
}

func (s *Server) process(ctx context.Context, logger *zap.Logger, msg inboundMessage) string {
	switch msg.MsgType {
	case "event":
		if msg.Event == "subscribe" && s.opts.Handlers != nil {
			return s.opts.Handlers.Welcome(ctx, msg.FromUserName)
		}
		return ""
	case "text":
		if s.opts.Router == nil {
			return ""
		}
		reply, err := s.opts.Router.Dispatch(ctx, msg.FromUserName, msg.Content)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				// cooperative cancellation: log, answer nothing,
				// never feed an error string back to the caller
				logger.Warn("message deadline exceeded")
				return ""
			}
			logger.Error("dispatch failed", zap.Error(err))
			return ""
		}
		return reply
	}
	return ""
}
