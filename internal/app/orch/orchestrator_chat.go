package orch

import (
	"github.com/dkeye/ChatJet/internal/app"
	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/dkeye/ChatJet/internal/protocol"
	"github.com/rs/zerolog/log"
)

var errNotInRoom = domain.State("You are not in a room")

func (o *Orchestrator) typing(c Typing) {
	roomID, ok := o.Rooms.RoomOf(c.ID)
	if !ok {
		return
	}
	event := protocol.UserTyping
	if c.Stopped {
		event = protocol.UserStopTyping
	}
	o.broadcast(roomID, event, protocol.TypingPayload{Name: o.Registry.Name(c.ID)}, c.ID)
}

func (o *Orchestrator) sendMessage(c SendMessage) error {
	roomID, ok := o.Rooms.RoomOf(c.ID)
	if !ok {
		return errNotInRoom
	}
	attachment, err := app.CheckAttachment(c.Attachment, o.maxAttachment)
	if err != nil {
		return err
	}
	text, ephemeral := app.ParseEphemeral(c.Text)
	if text == "" && attachment == nil {
		return domain.Validation("Message is empty")
	}
	conn, _ := o.Registry.Connection(c.ID)
	msg := domain.Message{
		ID:         domain.MessageID(o.newID()),
		RoomID:     roomID,
		Name:       conn.DisplayName(),
		Text:       text,
		Attachment: attachment,
		Color:      conn.Color,
		Ephemeral:  ephemeral,
		Timestamp:  o.now(),
	}
	log.Debug().Str("module", "orch").Str("conn", string(c.ID)).Str("room", string(roomID)).Int64("ephemeral", ephemeral).Msg("chat message")
	o.broadcast(roomID, protocol.ChatMessage, msg, "")
	return nil
}

// memberOf resolves a room named by the client and checks the caller is in it.
func (o *Orchestrator) memberOf(id domain.ConnID, roomID string) (domain.RoomID, error) {
	cur, ok := o.Rooms.RoomOf(id)
	if !ok {
		return "", errNotInRoom
	}
	if roomID != "" && domain.RoomID(roomID) != cur {
		return "", domain.State("You are not in that room")
	}
	return cur, nil
}

func (o *Orchestrator) deleteMessage(c DeleteMessage) error {
	roomID, err := o.memberOf(c.ID, c.RoomID)
	if err != nil {
		return err
	}
	if c.MsgID == "" {
		return domain.Validation("Message id is required")
	}
	o.broadcast(roomID, protocol.MessageDeleted, c.MsgID, "")
	return nil
}
