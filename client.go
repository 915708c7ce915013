package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aryipc/trenchsurvivors-sub000/sim"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120
	requestTimeout    = 5 * time.Second
	maxSettingKeyLen  = 64
	maxSettingValLen  = 1024
	leaderboardSize   = 10
)

// binary joystick message: [0x01, mx_hi, mx_lo, my_hi, my_lo, flags],
// axes are int16 in thousandths.
const (
	binInputTag = 0x01
	binInputLen = 6
	binFlagUse  = 0x01
)

// Client is one websocket connection: either a run owner or a phone
// controller attached to someone else's run.
type Client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	runID        string
	remoteAddr   string
	isController bool
	msgCount     int
	msgResetAt   time.Time
	identity     *Identity // nil until auth, login, register or the first start
	log          *zap.Logger
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
		log:        hub.log.With(zap.String("remote", remoteAddr)),
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("ws read", zap.Error(err))
			}
			break
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.log.Warn("rate limit exceeded, disconnecting")
			break
		}

		if msgType == websocket.BinaryMessage && len(message) == binInputLen && message[0] == binInputTag {
			c.handleBinaryInput(message)
		} else {
			c.handleMessage(message)
		}
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF marks frames queued by SendBinary
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal", zap.Error(err))
		return
	}
	c.enqueue(data)
}

// SendBinary queues a binary websocket message.
func (c *Client) SendBinary(data []byte) {
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	c.enqueue(msg)
}

// enqueue drops the message if the client is too slow or already gone.
func (c *Client) enqueue(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

func (c *Client) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope)
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.log.Debug("unmarshal", zap.Error(err))
		return
	}

	switch env.T {
	case MsgStart:
		c.handleStart(env.D)
	case MsgInput:
		c.handleInput(env.D)
	case MsgPause:
		c.withRun(func(r *Run) error { return r.Pause() })
	case MsgResume:
		c.withRun(func(r *Run) error { return r.Resume() })
	case MsgUpgrade:
		c.handleUpgrade(env.D)
	case MsgLeaderboard:
		c.handleLeaderboard()
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgSettingsGet:
		c.handleSettingsGet(env.D)
	case MsgSettingsSet:
		c.handleSettingsSet(env.D)
	case MsgProfile:
		c.handleProfile()
	case MsgControl:
		c.handleControl(env.D)
	}
}

// ownRun returns the run this client owns, or nil.
func (c *Client) ownRun() *Run {
	if c.runID == "" || c.isController {
		return nil
	}
	return c.hub.runs.Get(c.runID)
}

func (c *Client) withRun(fn func(*Run) error) {
	r := c.ownRun()
	if r == nil {
		c.sendError("no active run")
		return
	}
	if err := fn(r); err != nil {
		c.sendError(err.Error())
	}
}

func (c *Client) handleStart(data json.RawMessage) {
	if c.isController {
		return
	}
	var msg StartMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("bad start message")
			return
		}
	}

	if c.identity == nil {
		ctx, cancel := c.ctx()
		id, token, err := c.hub.auth.Guest(ctx)
		cancel()
		if err != nil {
			c.log.Error("guest identity", zap.Error(err))
			c.sendError("could not create guest")
			return
		}
		c.setIdentity(id, token)
	}

	if c.runID != "" {
		c.hub.runs.Remove(c.runID)
		c.runID = ""
	}

	view := c.hub.view
	if msg.Viewport.W > 0 && msg.Viewport.H > 0 {
		view = sim.Viewport{Width: msg.Viewport.W, Height: msg.Viewport.H, Zoom: msg.Viewport.Zoom}
	}
	r, err := c.hub.runs.Create(*c.identity, c, view, msg.Seed)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.runID = r.ID
	c.SendJSON(Envelope{T: MsgStarted, Data: StartedMsg{RunID: r.ID, Seed: r.Seed}})
}

func (c *Client) handleInput(data json.RawMessage) {
	r := c.ownRun()
	if r == nil {
		return
	}
	var msg InputMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	r.SetInput(msg)
}

// handleBinaryInput decodes the compact joystick message sent by phone
// controllers and touch clients.
func (c *Client) handleBinaryInput(msg []byte) {
	if c.runID == "" {
		return
	}
	r := c.hub.runs.Get(c.runID)
	if r == nil {
		return
	}
	mx := float64(int16(uint16(msg[1])<<8|uint16(msg[2]))) / 1000
	my := float64(int16(uint16(msg[3])<<8|uint16(msg[4]))) / 1000
	r.SetRemoteInput(mx, my, msg[5]&binFlagUse != 0)
}

func (c *Client) handleUpgrade(data json.RawMessage) {
	var msg UpgradeMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	c.withRun(func(r *Run) error { return r.ChooseUpgrade(msg.Index) })
}

func (c *Client) handleLeaderboard() {
	if r := c.ownRun(); r != nil {
		if err := r.ShowLeaderboard(); err != nil && !errors.Is(err, sim.ErrWrongStatus) {
			c.sendError(err.Error())
			return
		}
	}
	entries := []LeaderboardEntry{}
	if c.hub.db != nil {
		ctx, cancel := c.ctx()
		defer cancel()
		top, err := c.hub.db.TopScores(ctx, leaderboardSize)
		if err != nil {
			c.log.Error("top scores", zap.Error(err))
			c.sendError("leaderboard unavailable")
			return
		}
		if top != nil {
			entries = top
		}
	}
	c.SendJSON(Envelope{T: MsgScores, Data: ScoresMsg{Entries: entries}})
}

func (c *Client) setIdentity(id Identity, token string) {
	c.identity = &id
	c.log = c.hub.log.With(zap.String("remote", c.remoteAddr), zap.String("user", id.Username))
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{Token: token, Identity: id}})
}

func (c *Client) handleRegister(data json.RawMessage) {
	var msg RegisterMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	id, token, err := c.hub.auth.Register(ctx, msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.setIdentity(id, token)
}

func (c *Client) handleLogin(data json.RawMessage) {
	var msg LoginMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	id, token, err := c.hub.auth.Login(ctx, msg.Username, msg.Password, c.remoteAddr)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.setIdentity(id, token)
}

func (c *Client) handleAuth(data json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	id, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError(ErrInvalidToken.Error())
		return
	}
	c.setIdentity(id, msg.Token)
}

// storedUser returns the user ID settings and profiles are keyed by, or 0
// when the client has nothing stored.
func (c *Client) storedUser() int64 {
	if c.hub.db == nil || c.identity == nil {
		return 0
	}
	return c.identity.UserID
}

func (c *Client) handleSettingsGet(data json.RawMessage) {
	var msg SettingMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	uid := c.storedUser()
	if uid == 0 {
		c.sendError("not authenticated")
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	v, err := c.hub.db.GetSetting(ctx, uid, msg.Key)
	if err != nil {
		c.log.Error("get setting", zap.String("key", msg.Key), zap.Error(err))
		c.sendError("settings unavailable")
		return
	}
	c.SendJSON(Envelope{T: MsgSettings, Data: SettingMsg{Key: msg.Key, Value: v}})
}

func (c *Client) handleSettingsSet(data json.RawMessage) {
	var msg SettingMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	uid := c.storedUser()
	if uid == 0 {
		c.sendError("not authenticated")
		return
	}
	if msg.Key == "" || len(msg.Key) > maxSettingKeyLen || len(msg.Value) > maxSettingValLen {
		c.sendError("invalid setting")
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	if err := c.hub.db.SetSetting(ctx, uid, msg.Key, msg.Value); err != nil {
		c.log.Error("set setting", zap.String("key", msg.Key), zap.Error(err))
		c.sendError("settings unavailable")
		return
	}
	c.SendJSON(Envelope{T: MsgSettings, Data: msg})
}

func (c *Client) handleProfile() {
	uid := c.storedUser()
	if uid == 0 {
		c.sendError("not authenticated")
		return
	}
	ctx, cancel := c.ctx()
	defer cancel()
	p, err := c.hub.db.GetProfile(ctx, uid)
	if err != nil {
		c.log.Error("get profile", zap.Error(err))
		c.sendError("profile unavailable")
		return
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: p})
}

func (c *Client) handleControl(data json.RawMessage) {
	var msg ControlMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if c.runID != "" && !c.isController {
		c.sendError("already driving a run")
		return
	}
	r := c.hub.runs.Get(msg.RunID)
	if r == nil {
		c.sendError("run not found")
		return
	}
	c.runID = r.ID
	c.isController = true
	r.SetController(c)
	c.SendJSON(Envelope{T: MsgControlOK, Data: ControlMsg{RunID: r.ID}})
}
