package realtime

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/fasthttp/websocket"
	"github.com/trutim/api/data/events"
	"github.com/trutim/api/data/structures"
	"github.com/trutim/api/internal/errors"
	"github.com/trutim/api/internal/global"
	"github.com/trutim/api/internal/svc/auth"
	"github.com/trutim/api/internal/svc/presences"
	"github.com/trutim/api/internal/utils"
	"github.com/valyala/fasthttp"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type Server struct {
	listener net.Listener
	router   *router.Router

	gctx     global.Context
	registry *GroupRegistry
	dispatch *Dispatcher
	upgrader websocket.FastHTTPUpgrader

	presence *PresenceChannel
	chat     *ChatChannel
	call     *CallChannel
}

// New binds the realtime listener and serves the three event streams until
// the global context is canceled.
func New(gctx global.Context) error {
	port := utils.Ternary(gctx.Config().Http.Ports.Realtime == 0, 80, gctx.Config().Http.Ports.Realtime)

	registry := NewGroupRegistry()
	if prom := gctx.Inst().Prometheus; prom != nil {
		registry.dropped = prom.DroppedSends()
	}

	s := Server{
		gctx:     gctx,
		registry: registry,
		upgrader: websocket.FastHTTPUpgrader{
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
				return true
			},
		},
	}

	var err error

	s.listener, err = net.Listen("tcp", fmt.Sprintf("%s:%d", gctx.Config().Http.Addr, port))
	if err != nil {
		return err
	}

	s.dispatch, err = NewDispatcher(gctx, s.registry)
	if err != nil {
		return err
	}

	inst := gctx.Inst()

	s.presence = NewPresenceChannel(presences.New(presences.Options{
		Store:     inst.Mutate,
		Online:    inst.Query,
		Modelizer: inst.Modelizer,
		Dispatch:  s.dispatch,
	}), time.Second*time.Duration(gctx.Config().Realtime.SnapshotTimeout))
	s.chat = NewChatChannel(inst.Mutate, inst.Query, inst.Modelizer, s.dispatch)
	s.call = NewCallChannel(inst.Modelizer, s.dispatch)

	s.router = router.New()
	s.router.GET("/ws/presence", s.handleStream("presence", s.presence, false))
	s.router.GET("/ws/chat/{room_id}", s.handleStream("chat", s.chat, true))
	s.router.GET("/ws/call/{room_id}", s.handleStream("call", s.call, true))

	srv := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			start := time.Now()

			defer func() {
				if err := recover(); err != nil {
					zap.S().Errorw("panic in realtime request handler",
						"panic", err,
						"path", utils.B2S(ctx.Path()),
						"ip", ctx.RemoteIP().String(),
					)
				} else {
					zap.S().Debugw("realtime request",
						"status", ctx.Response.StatusCode(),
						"duration", int(time.Since(start)/time.Millisecond),
						"path", utils.B2S(ctx.Path()),
						"ip", ctx.RemoteIP().String(),
					)
				}
			}()

			s.router.Handler(ctx)
		},
		ReadTimeout:      time.Second * 600,
		IdleTimeout:      time.Second * 10,
		ReadBufferSize:   int(16 * 1024),
		CloseOnShutdown:  true,
		DisableKeepalive: false,
	}

	go func() {
		<-gctx.Done()

		_ = srv.Shutdown()
	}()

	zap.S().Infow("realtime enabled",
		"addr", s.listener.Addr().String(),
	)

	return srv.Serve(s.listener)
}

// handleStream upgrades the request and drives a session for one endpoint.
// Identity is resolved before the upgrade; a failed handshake still upgrades
// so the browser client receives a meaningful close code, but the session is
// refused before any group join.
func (s *Server) handleStream(endpoint string, channel Channel, roomScoped bool) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		actor, authErr := s.resolveIdentity(ctx)

		var roomID primitive.ObjectID

		roomErr := false
		if roomScoped {
			var err error

			roomID, err = primitive.ObjectIDFromHex(fmt.Sprint(ctx.UserValue("room_id")))
			if err != nil {
				roomErr = true
			}
		}

		err := s.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
			if authErr != nil {
				closeWithCode(conn, events.CloseCodeAuthFailure)

				return
			}

			if roomErr {
				closeWithCode(conn, events.CloseCodeUnknownRoute)

				return
			}

			if n := s.gctx.Config().Realtime.ReadLimitBytes; n > 0 {
				conn.SetReadLimit(int64(n))
			}

			session := newSession(actor, roomID, conn, channel, s.registry, s.gctx.Config().Realtime.SendBufferSize)

			if prom := s.gctx.Inst().Prometheus; prom != nil {
				prom.Sessions().WithLabelValues(endpoint).Inc()
				defer prom.Sessions().WithLabelValues(endpoint).Dec()
			}

			session.run(s.gctx)
		})
		if err != nil {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
		}
	}
}

// resolveIdentity finds the caller's token (query parameter, bearer header or
// cookie, in that order) and resolves it to a user document.
func (s *Server) resolveIdentity(ctx *fasthttp.RequestCtx) (structures.User, errors.APIError) {
	token := utils.B2S(ctx.QueryArgs().Peek("token"))

	if token == "" {
		h := utils.B2S(ctx.Request.Header.Peek("Authorization"))
		if sp := strings.Split(h, "Bearer "); len(sp) == 2 {
			token = sp[1]
		}
	}

	if token == "" && s.gctx.Config().Http.Cookie.Name != "" {
		token = utils.B2S(ctx.Request.Header.Cookie(s.gctx.Config().Http.Cookie.Name))
	}

	if token == "" {
		return structures.DeletedUser, errors.ErrUnauthorized()
	}

	claims := &auth.JWTClaimUser{}
	if _, err := s.gctx.Inst().Auth.VerifyJWT(token, claims); err != nil {
		return structures.DeletedUser, errors.ErrUnauthorized().SetDetail(err.Error())
	}

	if claims.UserID == "" {
		return structures.DeletedUser, errors.ErrBadToken()
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return structures.DeletedUser, errors.ErrBadToken().SetDetail(err.Error())
	}

	user, apiErr := s.gctx.Inst().Query.UserByID(ctx, userID)
	if apiErr != nil {
		return structures.DeletedUser, errors.ErrUnauthorized()
	}

	return user, nil
}
