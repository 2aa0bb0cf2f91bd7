package signal

import "github.com/dkeye/ChatJet/internal/protocol"

// ClientTokenKey is the gin context key holding the client token.
const ClientTokenKey = "client_token"

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, protocol.Pong, nil)
}

func (ctl *SignalWSController) sendError(conn *WsSignalConn, text string) {
	ctl.sendJSON(conn, protocol.Error, text)
}
