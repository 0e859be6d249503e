package ws

import (
	"encoding/json"
	"sync"

	"github.com/banknote-app/banknote-services/internal/comm"
	"github.com/banknote-app/banknote-services/internal/socketsvc/broker"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Ws struct {
	connMap    sync.Map // to keep track of socket connection with socketId
	sessionMap sync.Map // socketId -> gameId; at most one game session per socket
	Broker     *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage handles a message from the web client. Ledger operations are
// relayed to the ledger service; session bookkeeping stays here.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "init", "create-game", "join-game", "start-game", "make-transaction",
		"kick-player", "get-recent-games", "get-user-stats":
		s.forward(socketId, message)
	case "watch-game":
		s.handleWatchGame(socketId, message)
	case "unwatch-game":
		s.EndSession(socketId)
	case "leave-game", "disband-game":
		s.forward(socketId, message)
		s.EndSession(socketId)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

// handleWatchGame replaces the socket's game session with the requested game
// and asks the ledger for one immediate snapshot, so the client never waits
// for the first change event.
func (s *Ws) handleWatchGame(socketId string, msg *comm.WSMessage) {
	var payload struct {
		GameID string `json:"game_id"`
	}

	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: malformed watch-game payload %s", err)
		return
	}

	if payload.GameID == "" {
		log.Error("Invalid watch-game payload: missing game id")
		return
	}

	s.StartSession(socketId, payload.GameID)
	s.forward(socketId, msg)
}

// forward stamps the socket id and relays the message to the ledger service.
func (s *Ws) forward(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	topic := "socket.service"
	if err := s.Broker.Publish(topic, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", topic, err)
		return
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// StartSession scopes the socket to one game, tearing down any previous
// session first.
func (s *Ws) StartSession(socketId string, gameId string) {
	s.sessionMap.Store(socketId, gameId)
}

func (s *Ws) EndSession(socketId string) {
	s.sessionMap.Delete(socketId)
}

func (s *Ws) GetSession(socketId string) (string, bool) {
	game, ok := s.sessionMap.Load(socketId)
	if !ok {
		return "", false
	}
	return game.(string), true
}

// GetGameSockets lists every socket currently watching gameId.
func (s *Ws) GetGameSockets(gameId string) ([]string, bool) {
	var sockets []string
	found := false

	s.sessionMap.Range(func(key, value interface{}) bool {
		if value.(string) == gameId {
			sockets = append(sockets, key.(string))
			found = true
		}
		return true // continue iterating
	})

	return sockets, found
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.sessionMap.Delete(socketId)
}
