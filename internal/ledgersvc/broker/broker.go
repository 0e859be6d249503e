package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/banknote-app/banknote-services/internal/comm"
	"github.com/banknote-app/banknote-services/internal/ledgersvc/models"
	"github.com/banknote-app/banknote-services/internal/ledgersvc/service"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// topic the socket service listens on for replies and snapshots
const ledgerTopic = "ledger.service"

type Broker struct {
	Conn        *nats.Conn
	Ledger      *service.LedgerService
	UserService *service.UserService
}

func NewBroker(nc *nats.Conn, ledger *service.LedgerService, userService *service.UserService) *Broker {
	return &Broker{
		Conn:        nc,
		Ledger:      ledger,
		UserService: userService,
	}
}

// handleMessage dispatches requests relayed from the socket service.
func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch msg.Type {
	case "init":
		var request struct {
			UserID    string `json:"user_id"`
			Name      string `json:"name"`
			Anonymous bool   `json:"anonymous"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding init request: %s", err)
			return
		}

		user, err := b.UserService.GetOrCreateUser(ctx, request.UserID, request.Name, request.Anonymous)
		if err != nil {
			log.Errorf("Error [UserService.GetOrCreateUser] %s", err)
			return
		}

		b.publish("init-response", comm.PlayerData{
			UserID: user.UserID,
			Name:   user.Name,
			Avatar: user.Avatar,
		}, msg.SocketId)

	case "create-game":
		var request struct {
			Settings service.GameSettings `json:"settings"`
			UserID   string               `json:"user_id"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding create-game request: %s", err)
			return
		}

		game, err := b.Ledger.CreateGame(ctx, request.Settings, request.UserID)
		b.publishResult("create-game-response", game, err, msg.SocketId)
		if err == nil {
			b.PublishSnapshot(game.ID, game)
		}

	case "join-game":
		var request struct {
			GameID string `json:"game_id"`
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding join-game request: %s", err)
			return
		}

		game, err := b.Ledger.JoinGame(ctx, request.GameID, request.UserID, false)
		b.publishResult("join-game-response", game, err, msg.SocketId)
		if err == nil {
			b.PublishSnapshot(game.ID, game)
		}

	case "watch-game":
		// initial level-triggered fetch; the socket service already switched
		// the socket's session to this game id
		var request struct {
			GameID string `json:"game_id"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding watch-game request: %s", err)
			return
		}

		game, err := b.Ledger.GameByID(ctx, request.GameID)
		if err != nil {
			log.Errorf("Error fetching game %s: %s", request.GameID, err)
			return
		}
		b.publish("game-snapshot", comm.GameSnapshot{
			GameID:  request.GameID,
			Deleted: game == nil,
			Game:    game,
		}, msg.SocketId)

	case "start-game":
		var request struct {
			GameID string `json:"game_id"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding start-game request: %s", err)
			return
		}

		game, err := b.Ledger.StartGame(ctx, request.GameID)
		b.publishResult("start-game-response", game, err, msg.SocketId)
		if err == nil {
			b.PublishSnapshot(game.ID, game)
		}

	case "make-transaction":
		var request service.TransactionRequest
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding make-transaction request: %s", err)
			return
		}

		game, err := b.Ledger.MakeTransaction(ctx, request)
		b.publishResult("make-transaction-response", game, err, msg.SocketId)
		if err == nil {
			b.PublishSnapshot(game.ID, game)
		}

	case "leave-game":
		var request struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding leave-game request: %s", err)
			return
		}

		game, deleted, err := b.Ledger.LeaveGame(ctx, request.UserID)
		b.publishResult("leave-game-response", game, err, msg.SocketId)
		if err == nil && game != nil {
			if deleted {
				b.PublishSnapshot(game.ID, nil)
			} else {
				b.PublishSnapshot(game.ID, game)
			}
		}

	case "kick-player":
		var request struct {
			GameID       string `json:"game_id"`
			UserID       string `json:"user_id"` // caller
			TargetUserID string `json:"target_user_id"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding kick-player request: %s", err)
			return
		}

		game, err := b.Ledger.KickPlayer(ctx, request.GameID, request.UserID, request.TargetUserID)
		b.publishResult("kick-player-response", game, err, msg.SocketId)
		if err == nil {
			b.PublishSnapshot(game.ID, game)
		}

	case "disband-game":
		var request struct {
			GameID string `json:"game_id"`
			UserID string `json:"user_id"` // caller
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding disband-game request: %s", err)
			return
		}

		err := b.Ledger.DisbandGame(ctx, request.GameID, request.UserID)
		b.publishResult("disband-game-response", nil, err, msg.SocketId)
		if err == nil {
			b.PublishSnapshot(request.GameID, nil)
		}

	case "get-recent-games":
		var request struct {
			Limit int `json:"limit"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding get-recent-games request: %s", err)
			return
		}

		games, err := b.Ledger.RecentGames(ctx, request.Limit)
		if err != nil {
			log.Errorf("Error [Ledger.RecentGames] %s", err)
			return
		}
		b.publish("get-recent-games-response", comm.RecentGamesData{Games: games}, msg.SocketId)

	case "get-user-stats":
		var request struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding get-user-stats request: %s", err)
			return
		}

		stats, err := b.Ledger.UserStats(ctx, request.UserID)
		if err != nil {
			log.Errorf("Error [Ledger.UserStats] %s", err)
			return
		}
		b.publish("get-user-stats-response", comm.UserStatsData{
			TotalGames:      stats.TotalGames,
			WonGames:        stats.WonGames,
			TotalPlayTimeMs: stats.TotalPlayTime.Milliseconds(),
		}, msg.SocketId)

	default:
		log.Errorf("Unknown message type %s", msg.Type)
	}
}

// publishResult sends the {success, error} shaped reply to the requesting
// socket only.
func (b *Broker) publishResult(msgType string, game *models.Game, opErr error, socketId string) {
	result := comm.LedgerResult{Success: opErr == nil}
	if opErr != nil {
		result.Error = opErr.Error()
	}
	if game != nil {
		result.GameID = game.ID
		result.Game = game
	}
	b.publish(msgType, result, socketId)
}

// PublishSnapshot broadcasts the full new row (or a delete marker when game
// is nil) to every socket watching gameID.
func (b *Broker) PublishSnapshot(gameID string, game *models.Game) {
	b.publish("game-snapshot", comm.GameSnapshot{
		GameID:  gameID,
		Deleted: game == nil,
		Game:    game,
	}, "")
}

func (b *Broker) publish(msgType string, payload any, socketId string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("[%s] unable to marshal payload: %s", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	}

	out, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	b.Publish(ledgerTopic, out)
}

// consume requests relayed by the socket service
func (b *Broker) SubscribeSocketService(topic string) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(topic, b.handleMessage)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
