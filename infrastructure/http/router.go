package http

import (
	"context"
	"log/slog"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/infrastructure/ws"
	"chat-relay/services"

	"github.com/gin-gonic/gin"
)

// Server carries the companion REST surface and the WebSocket entry
// point. Everything below /register and /login requires a session
// token.
type Server struct {
	log         *slog.Logger
	authSvc     services.IAuthService
	messageSvc  services.IMessageService
	connections contract.IConnectionRegistry
	presence    contract.IPresenceBroadcaster
	wsCtl       *ws.Controller
}

func NewServer(
	log *slog.Logger,
	authSvc services.IAuthService,
	messageSvc services.IMessageService,
	connections contract.IConnectionRegistry,
	presence contract.IPresenceBroadcaster,
	wsCtl *ws.Controller,
) *Server {
	return &Server{
		log:         log,
		authSvc:     authSvc,
		messageSvc:  messageSvc,
		connections: connections,
		presence:    presence,
		wsCtl:       wsCtl,
	}
}

func (s *Server) SetupRouter(ctx context.Context, mode string) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.POST("/register", s.handleRegister)
	r.POST("/login", s.handleLogin)
	r.GET("/connected-users", s.handleConnectedUsers)

	authed := r.Group("/", auth.Middleware())
	authed.POST("/logout", s.handleLogout)
	authed.POST("/message-send/:from/:to", s.handleMessageSend)
	authed.GET("/messages/search/:phone", s.handleSearch)
	authed.GET("/messages/:phone", s.handleHistory)
	authed.GET("/messages/:phone/:partner", s.handleConversation)
	authed.GET("/conversations/:phone", s.handlePartners)

	authed.GET("/ws", func(c *gin.Context) {
		s.wsCtl.HandleWS(ctx, c)
	})

	return r
}
