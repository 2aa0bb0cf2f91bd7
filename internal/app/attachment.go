package app

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dkeye/ChatJet/internal/domain"
	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxAttachmentBytes caps one decoded attachment.
const DefaultMaxAttachmentBytes = 5 << 20

// CheckAttachment validates a data URL attachment against maxBytes and
// returns a copy whose Type is the sniffed content type.
func CheckAttachment(a *domain.Attachment, maxBytes int) (*domain.Attachment, error) {
	if a == nil {
		return nil, nil
	}
	tooLarge := domain.Validation(fmt.Sprintf("Attachment too large (max %dMB)", maxBytes>>20))

	header, payload, ok := strings.Cut(a.Data, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, domain.Validation("Attachment must be a base64 data URL")
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return nil, tooLarge
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.Validation("Attachment is not valid base64")
	}
	if len(raw) > maxBytes {
		return nil, tooLarge
	}

	out := *a
	out.Name = strings.TrimSpace(a.Name)
	out.Type = mimetype.Detect(raw).String()
	return &out, nil
}
