package domain

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"
)

// PublicRoomID is the immortal room every connection can join without a secret.
const PublicRoomID RoomID = "Public"

type RoomID string

type RoomKind int

const (
	KindPublic RoomKind = iota
	KindPrivate
	KindDirect
)

func (k RoomKind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindPrivate:
		return "private"
	case KindDirect:
		return "direct"
	default:
		return "unknown"
	}
}

func (k RoomKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

type Room struct {
	ID        RoomID
	Kind      RoomKind
	Secret    string
	CreatedAt time.Time
}

// NewPublicRoom builds the room behind PublicRoomID.
func NewPublicRoom() *Room {
	return &Room{ID: PublicRoomID, Kind: KindPublic, CreatedAt: time.Now()}
}

// Immortal reports whether the room survives an empty member set.
func (r *Room) Immortal() bool { return r.Kind == KindPublic }

// CheckSecret compares in constant time. Public rooms accept anything.
func (r *Room) CheckSecret(secret string) bool {
	if r.Kind == KindPublic {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(r.Secret), []byte(secret)) == 1
}

// IsReservedRoomID matches "public" in any letter case.
func IsReservedRoomID(id string) bool {
	return strings.EqualFold(id, string(PublicRoomID))
}

// DirectRoomPrefix starts every direct room id.
const DirectRoomPrefix = "DM-"

// DirectRoomID is a pure function of the two connection ids: the same pair
// always converges on the same room, whoever initiated.
func DirectRoomID(a, b ConnID) RoomID {
	if b < a {
		a, b = b, a
	}
	return RoomID(fmt.Sprintf("%s%s-%s", DirectRoomPrefix, a, b))
}

// DirectPeer returns the other party of a direct room built for id. Ids may
// contain '-' themselves, so callers must still check that the peer is a live
// connection.
func DirectPeer(room RoomID, id ConnID) (ConnID, bool) {
	rest, ok := strings.CutPrefix(string(room), DirectRoomPrefix)
	if !ok || id == "" {
		return "", false
	}
	s := string(id)
	for _, other := range []string{strings.TrimPrefix(rest, s+"-"), strings.TrimSuffix(rest, "-"+s)} {
		if other == rest || other == "" {
			continue
		}
		if DirectRoomID(id, ConnID(other)) == room {
			return ConnID(other), true
		}
	}
	return "", false
}
