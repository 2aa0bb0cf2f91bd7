package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/ChatJet/internal/app/orch"
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/dkeye/ChatJet/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

var errUnknownEvent = errors.New("unknown event")

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Msg("writePump ping")
				c.Close()
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				c.Close()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				c.Close()
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, id domain.ConnID, token string, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		c.Close()
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
				}
				return
			}
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			ctl.handleSignal(ctx, id, token, c, data)
		}
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, id domain.ConnID, token string, c *WsSignalConn, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad json")
		ctl.sendError(c, "Malformed event")
		return
	}

	switch env.Type {
	case protocol.Ping:
		ctl.handlePing(c)
		return
	case protocol.CreateRoom, protocol.JoinRoom:
		if ctl.Limiter != nil && !ctl.Limiter.Allow(token) {
			log.Warn().Str("module", "signal").Str("conn", string(id)).Str("client", token).Msg("join rate limited")
			ctl.sendError(c, "Too many attempts, please slow down")
			return
		}
	}

	cmd, err := DecodeCommand(id, env)
	if err != nil {
		if errors.Is(err, errUnknownEvent) {
			log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
			return
		}
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad payload")
		ctl.sendError(c, "Malformed event")
		return
	}
	if err := ctl.Orch.Submit(ctx, cmd); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("submit")
	}
}

// DecodeCommand maps one wire event from connection id onto a dispatch command.
func DecodeCommand(id domain.ConnID, env protocol.Envelope) (orch.Command, error) {
	switch env.Type {
	case protocol.CreateRoom:
		var p protocol.CreateRoomPayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.CreateRoom{ID: id, Name: p.Name, RoomID: p.RoomID, Secret: p.Secret}, nil
	case protocol.JoinRoom:
		var p protocol.JoinRoomPayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.JoinRoom{ID: id, Name: p.Name, RoomID: p.RoomID, Secret: p.Secret}, nil
	case protocol.JoinPublic:
		var p protocol.JoinPublicPayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.JoinPublic{ID: id, Name: p.Name}, nil
	case protocol.JoinDM:
		var p protocol.JoinDMPayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.JoinDM{ID: id, RoomID: p.RoomID, Name: p.Name}, nil
	case protocol.LeaveRoom:
		return orch.LeaveRoom{ID: id}, nil
	case protocol.SetName:
		var p protocol.SetNamePayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.SetName{ID: id, Name: p.Name}, nil
	case protocol.RequestUsers:
		return orch.RequestUsers{ID: id}, nil
	case protocol.Typing:
		return orch.Typing{ID: id}, nil
	case protocol.StopTyping:
		return orch.Typing{ID: id, Stopped: true}, nil
	case protocol.ChatMessage:
		var p protocol.ChatMessagePayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.SendMessage{ID: id, Text: p.Text, Attachment: p.Attachment}, nil
	case protocol.DeleteMessage:
		var p protocol.DeleteMessagePayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.DeleteMessage{ID: id, MsgID: p.MsgID, RoomID: p.RoomID}, nil
	case protocol.CreatePoll:
		var p protocol.CreatePollPayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.CreatePoll{ID: id, RoomID: p.RoomID, Question: p.Question, Options: p.Options}, nil
	case protocol.VotePoll:
		var p protocol.VotePollPayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.VotePoll{ID: id, PollID: p.PollID, OptionIndex: p.OptionIndex, VoterKey: p.VoterKey}, nil
	case protocol.SendDMRequest:
		var p protocol.DMRequestPayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.DMRequest{ID: id, TargetID: p.TargetID}, nil
	case protocol.DMAccepted:
		var p protocol.DMAcceptedPayload
		if err := env.Unmarshal(&p); err != nil {
			return nil, err
		}
		return orch.DMAccepted{ID: id, FromID: p.FromID, ToID: p.ToID}, nil
	default:
		return nil, errUnknownEvent
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, name string, payload any) {
	b, err := protocol.Encode(name, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
