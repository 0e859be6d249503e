package broker

import (
	"encoding/json"

	"github.com/banknote-app/banknote-services/internal/comm"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (*websocket.Conn, bool)
	GetGameSockets func(string) ([]string, bool)
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (*websocket.Conn, bool), fncGetGameSockets func(string) ([]string, bool)) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		GetGameSockets: fncGetGameSockets,
	}
}

// consume message from ledger service
func (b *Broker) Subscribe(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessages)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// publish message to ledger service
func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

// handleMessages receives replies and snapshots from the ledger service
func (b *Broker) handleMessages(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, &message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	switch message.Type {
	case "game-snapshot":
		if message.SocketId != "" {
			// initial fetch reply for one watcher
			b.sendMessage(message)
			return
		}
		b.broadcastSnapshot(message)
	case "init-response", "create-game-response", "join-game-response",
		"start-game-response", "make-transaction-response", "leave-game-response",
		"kick-player-response", "disband-game-response",
		"get-recent-games-response", "get-user-stats-response":
		b.sendMessage(message)
	default:
		log.Errorf("Unknown message type %s", message.Type)
	}
}

// broadcastSnapshot fans a full-row game event out to every socket whose
// session is that game.
func (b *Broker) broadcastSnapshot(m *comm.WSMessage) {
	var snapshot comm.GameSnapshot
	if err := json.Unmarshal(m.Data, &snapshot); err != nil {
		log.Errorf("Error decoding game snapshot: %s", err)
		return
	}

	sockets, ok := b.GetGameSockets(snapshot.GameID)
	if !ok {
		return // nobody watching
	}

	for _, socketId := range sockets {
		if conn, ok := b.GetConnection(socketId); ok {
			if err := conn.WriteJSON(m); err != nil {
				log.Println(err)
			}
		}
	}
}

// send socket message to the web client
func (b *Broker) sendMessage(m *comm.WSMessage) {
	socketId := m.SocketId
	if conn, ok := b.GetConnection(socketId); ok {
		if err := conn.WriteJSON(m); err != nil {
			log.Println(err)
		}
	}
}
