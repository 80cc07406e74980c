package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/teamhub/relay-server/internal/auth"
	"github.com/teamhub/relay-server/internal/core"
	"github.com/teamhub/relay-server/internal/proto"
	"github.com/teamhub/relay-server/internal/store"
)

// WSHandler authenticates upgrade requests and bridges each accepted
// connection to a core.Session.
type WSHandler struct {
	verifier  *auth.Verifier
	registry  *core.Registry
	directory *core.Directory
	router    *core.Router
	relay     *core.Relay
	presence  *core.Presence
	messages  store.MessageStore
	queueSize int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(
	verifier *auth.Verifier,
	registry *core.Registry,
	directory *core.Directory,
	router *core.Router,
	relay *core.Relay,
	presence *core.Presence,
	messages store.MessageStore,
	queueSize int,
	logger *zerolog.Logger,
) *WSHandler {
	return &WSHandler{
		verifier:  verifier,
		registry:  registry,
		directory: directory,
		router:    router,
		relay:     relay,
		presence:  presence,
		messages:  messages,
		queueSize: queueSize,
		log:       logger,
	}
}

// Handle upgrades the connection. The bearer token is checked before the
// upgrade: a missing or invalid credential refuses the connection with 401
// and no relay state is touched.
func (h *WSHandler) Handle(c *gin.Context) {
	claims, err := h.verifier.Verify(bearerToken(c.Request))
	if err != nil {
		h.log.Debug().Err(err).Msg("ws auth refused")
		c.JSON(stdhttp.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	identity := core.Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Avatar:   claims.Avatar,
	}
	client := core.NewClient(uuid.NewString(), identity, h.queueSize)
	session := core.NewSession(client, h.registry, h.directory, h.router, h.relay, h.presence, h.messages, h.log)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	session.Start(ctx)
	// Cleanup runs on a fresh context; the request context is already
	// canceled by the time the disconnect path needs the status store.
	defer session.Close(context.WithoutCancel(ctx))

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("user_id", identity.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		protoErr := dispatch(ctx, session, inbound)
		if protoErr != nil {
			h.log.Debug().
				Str("user_id", session.Client().Identity.ID).
				Str("type", inbound.Type).
				Str("code", protoErr.Code).
				Msg("rejected inbound message")
			if err := wsjson.Write(ctx, conn, proto.Outbound{
				Event: proto.EventError,
				Error: protoErr,
			}); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events():
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("user_id", client.Identity.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// bearerToken extracts the credential from the handshake: the "token" query
// parameter or an Authorization: Bearer header.
func bearerToken(r *stdhttp.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
