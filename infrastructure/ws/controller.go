package ws

import (
	"context"
	"log/slog"
	"net/http"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller upgrades authenticated HTTP requests into relay sessions.
type Controller struct {
	log         *slog.Logger
	connections contract.IConnectionRegistry
	rooms       contract.IRoomRegistry
	presence    contract.IPresenceBroadcaster
	router      contract.IMessageRouter
	sendBuffer  int
}

func NewController(
	log *slog.Logger,
	connections contract.IConnectionRegistry,
	rooms contract.IRoomRegistry,
	presence contract.IPresenceBroadcaster,
	router contract.IMessageRouter,
	sendBuffer int,
) *Controller {
	return &Controller{
		log:         log,
		connections: connections,
		rooms:       rooms,
		presence:    presence,
		router:      router,
		sendBuffer:  sendBuffer,
	}
}

// HandleWS runs one connection to completion. The auth middleware has
// already verified the token; its phone claim pins what this session
// may log in as.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	authPhone := domain.Identity(c.GetString(auth.PhoneKey))

	socket, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctl.log.Error("ws upgrade failed", "error", err)
		return
	}

	log := ctl.log.With("remote", socket.RemoteAddr().String())
	conn := NewConn(socket, ctl.sendBuffer)
	session := NewSession(log, NewSink(log, conn), ctl.connections,
		ctl.rooms, ctl.presence, ctl.router, authPhone)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		conn.readPump(ctx, log, session)
	}()
	go conn.writePump(ctx, log)
}
