package handlers

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"crypto-crash-backend/internal/models"
	"crypto-crash-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	redisService *services.RedisService
	hub          *WebSocketHub

	mu          sync.RWMutex
	gameManager *services.RoundManager
}

type WebSocketHub struct {
	mu         sync.RWMutex
	clients    map[string]*wsClient
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan *Message
}

type wsClient struct {
	PlayerID string
	Conn     *websocket.Conn
	send     sync.Mutex
}

type Message struct {
	Type     string      `json:"type"`
	PlayerID string      `json:"player_id,omitempty"`
	Data     interface{} `json:"data"`
}

func NewWebSocketHandler(ctx context.Context, redisService *services.RedisService) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]*wsClient),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan *Message, 256),
	}

	go hub.run(ctx)

	return &WebSocketHandler{
		redisService: redisService,
		hub:          hub,
	}
}

// SetGameManager breaks the construction cycle: the hub is the manager's
// broadcaster, so it exists first.
func (h *WebSocketHandler) SetGameManager(manager *services.RoundManager) {
	h.mu.Lock()
	h.gameManager = manager
	h.mu.Unlock()
}

func (h *WebSocketHandler) manager() *services.RoundManager {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gameManager
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	playerID := c.GetString("player_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &wsClient{
		PlayerID: playerID,
		Conn:     conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendBalance(client)
	h.sendGameState(client)

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *wsClient, msg *Message) {
	switch msg.Type {
	case "PING":
		client.write(&Message{
			Type: "PONG",
			Data: gin.H{"timestamp": time.Now().Unix()},
		})
	case "GET_STATE":
		h.sendGameState(client)
	case "GET_BALANCE":
		h.sendBalance(client)
	}
}

func (h *WebSocketHandler) sendBalance(client *wsClient) {
	wallet, err := h.redisService.GetWallet(client.PlayerID)
	if err != nil {
		log.Printf("Failed to get wallet for WS: %v", err)
		return
	}

	client.write(&Message{
		Type: "BALANCE_UPDATE",
		Data: gin.H{
			"balances":      wallet.Balances,
			"total_wagered": wallet.TotalWagered,
			"total_won":     wallet.TotalWon,
		},
	})
}

func (h *WebSocketHandler) sendGameState(client *wsClient) {
	manager := h.manager()
	if manager == nil {
		return
	}

	client.write(&Message{
		Type: "GAME_STATE",
		Data: manager.GetGameState(),
	})
}

// write serializes access to the connection; gorilla connections do not
// tolerate concurrent writers.
func (c *wsClient) write(msg *Message) {
	c.send.Lock()
	defer c.send.Unlock()
	if err := c.Conn.WriteJSON(msg); err != nil {
		log.Printf("WebSocket write to %s failed: %v", c.PlayerID, err)
	}
}

func (hub *WebSocketHub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			hub.closeAll()
			return

		case client := <-hub.register:
			hub.mu.Lock()
			hub.clients[client.PlayerID] = client
			hub.mu.Unlock()
			log.Printf("Client registered: %s", client.PlayerID)

		case client := <-hub.unregister:
			hub.mu.Lock()
			if current, ok := hub.clients[client.PlayerID]; ok && current == client {
				delete(hub.clients, client.PlayerID)
				log.Printf("Client unregistered: %s", client.PlayerID)
			}
			hub.mu.Unlock()

		case message := <-hub.broadcast:
			hub.dispatch(message)
		}
	}
}

// closeAll drops every client on shutdown; closing the connections unblocks
// their read loops.
func (hub *WebSocketHub) closeAll() {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for _, client := range hub.clients {
		client.Conn.Close()
	}
	hub.clients = make(map[string]*wsClient)
}

func (hub *WebSocketHub) dispatch(message *Message) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if message.PlayerID != "" {
		if client, ok := hub.clients[message.PlayerID]; ok {
			client.write(message)
		}
		return
	}

	for _, client := range hub.clients {
		client.write(message)
	}
}

// enqueue drops the message when the hub is saturated rather than blocking
// the round tick.
func (hub *WebSocketHub) enqueue(msg *Message) {
	select {
	case hub.broadcast <- msg:
	default:
		log.Printf("WebSocket broadcast queue full, dropping %s", msg.Type)
	}
}

// The handler implements services.Broadcaster for the round manager.

func (h *WebSocketHandler) BroadcastBettingOpen(roundID string, duration time.Duration) {
	h.hub.enqueue(&Message{
		Type: "BETTING_OPEN",
		Data: gin.H{
			"round_id":    roundID,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

func (h *WebSocketHandler) BroadcastRoundStart(roundID, seedHash string) {
	h.hub.enqueue(&Message{
		Type: "ROUND_START",
		Data: gin.H{
			"round_id":   roundID,
			"multiplier": 1.0,
			"seed_hash":  seedHash,
		},
	})
}

func (h *WebSocketHandler) BroadcastMultiplier(roundID string, multiplier float64) {
	h.hub.enqueue(&Message{
		Type: "MULTIPLIER_UPDATE",
		Data: gin.H{
			"round_id":   roundID,
			"multiplier": multiplier,
		},
	})
}

func (h *WebSocketHandler) BroadcastCrash(roundID string, crashPoint float64, seed string) {
	h.hub.enqueue(&Message{
		Type: "ROUND_CRASH",
		Data: gin.H{
			"round_id":    roundID,
			"crash_point": crashPoint,
			"seed":        seed,
		},
	})
}

func (h *WebSocketHandler) BroadcastPlayerBet(bet *models.Bet) {
	h.hub.enqueue(&Message{
		Type: "PLAYER_BET",
		Data: gin.H{
			"player_id":   bet.PlayerID,
			"round_id":    bet.RoundID,
			"usd_amount":  bet.USDAmount,
			"crypto_type": bet.CryptoType,
		},
	})
}

func (h *WebSocketHandler) BroadcastPlayerCashout(cashout *models.Cashout) {
	h.hub.enqueue(&Message{
		Type: "PLAYER_CASHOUT",
		Data: gin.H{
			"player_id":   cashout.PlayerID,
			"multiplier":  cashout.Multiplier,
			"payout":      cashout.Payout,
			"usd_payout":  cashout.USDPayout,
			"crypto_type": cashout.CryptoType,
		},
	})
}

func (h *WebSocketHandler) NotifyCashoutSuccess(playerID string, cashout *models.Cashout) {
	h.hub.enqueue(&Message{
		Type:     "CASHOUT_SUCCESS",
		PlayerID: playerID,
		Data:     cashout,
	})
}
