package api

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/obralex/obralex/internal/types"
	"github.com/oklog/ulid/v2"
)

const defaultMediaType = "application/octet-stream"

// EncodeEvidence builds an Evidence record from an uploaded payload.
// data may be a full data-URI or bare base64; either way the stored form
// is a self-describing data-URI and the size reflects the decoded bytes.
func EncodeEvidence(name, mediaType, data string) (types.Evidence, error) {
	b64 := data
	if strings.HasPrefix(data, "data:") {
		rest, ok := strings.CutPrefix(data, "data:")
		if !ok {
			return types.Evidence{}, fmt.Errorf("malformed data URI")
		}
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return types.Evidence{}, fmt.Errorf("data URI must be base64-encoded")
		}
		if mediaType == "" {
			mediaType = strings.TrimSuffix(meta, ";base64")
		}
		b64 = payload
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return types.Evidence{}, fmt.Errorf("decode evidence content: %w", err)
	}
	if mediaType == "" {
		mediaType = defaultMediaType
	}

	return types.Evidence{
		ID:        ulid.Make().String(),
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(raw)),
		Data:      fmt.Sprintf("data:%s;base64,%s", mediaType, b64),
	}, nil
}
