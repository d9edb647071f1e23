package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/rentitout/backend/internal/database"
	"github.com/rentitout/backend/internal/messaging"
	"github.com/rentitout/backend/internal/models"
	"github.com/rentitout/backend/pkg/logger"
	"github.com/rentitout/backend/pkg/utils"
)

var SocketServer *socketio.Server

// socketSession is the per-connection state: who is connected and the one
// thread they have open.
type socketSession struct {
	userID string
	bridge *messaging.Bridge
}

var (
	sessions   = make(map[string]*socketSession) // socket id -> session
	sessionsMu sync.Mutex
)

// emitter is the part of socketio.Conn the thread handlers need.
type emitter interface {
	Emit(event string, v ...interface{})
}

func newSocketSession(conn emitter, userID string) *socketSession {
	return &socketSession{
		userID: userID,
		bridge: messaging.NewBridge(Messaging, Feed, userID, messaging.OnAppend(func(msg models.ChatMessage) {
			conn.Emit("receive_message", gin.H{"message": msg})
		})),
	}
}

// openThread loads the thread and switches the live subscription to it.
func (s *socketSession) openThread(ctx context.Context, conn emitter, data map[string]interface{}) {
	listingID, err := parseListingID(data["listingId"])
	if err != nil {
		conn.Emit("thread_error", gin.H{"error": "Invalid listing id"})
		return
	}
	counterpart, _ := data["counterpartId"].(string)

	listing, err := Messaging.ResolveListing(ctx, listingID)
	if err != nil {
		conn.Emit("thread_error", gin.H{"listingId": listingID, "error": socketErrorMessage(err)})
		return
	}

	msgs, err := s.bridge.Open(ctx, listing, counterpart)
	if err != nil {
		logger.Warn().Err(err).Uint("listing_id", listingID).Str("user_id", s.userID).Msg("Failed to open thread")
		conn.Emit("thread_error", gin.H{"listingId": listingID, "error": socketErrorMessage(err)})
		return
	}
	conn.Emit("thread", gin.H{"listing": listing, "messages": msgs})
}

func socketErrorMessage(err error) string {
	if errors.Is(err, messaging.ErrListingNotFound) {
		return "Listing not found"
	}
	return "Failed to load messages"
}

func parseListingID(v interface{}) (uint, error) {
	switch id := v.(type) {
	case float64:
		if id > 0 && id == float64(uint(id)) {
			return uint(id), nil
		}
	case string:
		n, err := strconv.ParseUint(id, 10, 64)
		if err == nil && n > 0 {
			return uint(n), nil
		}
	}
	return 0, fmt.Errorf("invalid listing id %v", v)
}

func sessionFor(s socketio.Conn) *socketSession {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	return sessions[s.ID()]
}

// socketToken reads the JWT from the handshake query, ?token= or ?auth_token=.
func socketToken(u url.URL) string {
	query := u.Query()
	if token := query.Get("token"); token != "" {
		return token
	}
	return query.Get("auth_token")
}

func InitSocketServer() *socketio.Server {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		token := socketToken(s.URL())
		if token == "" {
			logger.Debug().Str("socket_id", s.ID()).Msg("Socket connection rejected: no token")
			return fmt.Errorf("authentication required")
		}

		claims, err := utils.ValidateToken(token)
		if err != nil || database.IsTokenBlacklisted(claims.GetJTI()) {
			logger.Debug().Str("socket_id", s.ID()).Msg("Socket connection rejected: invalid token")
			return fmt.Errorf("invalid token")
		}

		s.SetContext(claims.UserID)
		sessionsMu.Lock()
		sessions[s.ID()] = newSocketSession(s, claims.UserID)
		sessionsMu.Unlock()

		s.Join(claims.UserID)
		logger.Debug().Str("socket_id", s.ID()).Str("user_id", claims.UserID).Msg("Socket authenticated")
		return nil
	})

	server.OnEvent("/", "open_thread", func(s socketio.Conn, data map[string]interface{}) {
		sess := sessionFor(s)
		if sess == nil {
			s.Emit("thread_error", gin.H{"error": "authentication required"})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sess.openThread(ctx, s, data)
	})

	server.OnEvent("/", "close_thread", func(s socketio.Conn, _ string) {
		if sess := sessionFor(s); sess != nil {
			sess.bridge.Close()
		}
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		sessionsMu.Lock()
		sess := sessions[s.ID()]
		delete(sessions, s.ID())
		sessionsMu.Unlock()

		if sess != nil {
			sess.bridge.Close()
		}
		logger.Debug().Str("socket_id", s.ID()).Str("reason", reason).Msg("Socket closed")
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logger.Warn().Err(e).Msg("Socket error")
	})

	go func() {
		if err := server.Serve(); err != nil {
			logger.Error().Err(err).Msg("Socket server stopped")
		}
	}()
	SocketServer = server
	return server
}

// SocketHandler mounts the socket.io server on gin.
func SocketHandler(server *socketio.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		server.ServeHTTP(c.Writer, c.Request)
	}
}
