package photos

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/anoixa/event-gallery/database/models"
)

// ErrBadCursor 调用方传入了无法解析的分页游标
var ErrBadCursor = errors.New("invalid pagination cursor")

// Cursor 指向上一页的最后一条记录
// 对调用方完全不透明，只能原样回传
type Cursor struct {
	UploadedAt time.Time
	ID         uint
}

// EncodeCursor 编码为不透明字符串
func EncodeCursor(p *models.Photo) string {
	raw := fmt.Sprintf("%d:%d", p.UploadedAt.UnixMicro(), p.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor 解码游标，空字符串表示第一页
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrBadCursor
	}

	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return nil, ErrBadCursor
	}

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, ErrBadCursor
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, ErrBadCursor
	}

	return &Cursor{
		UploadedAt: time.UnixMicro(micros).UTC(),
		ID:         uint(id),
	}, nil
}
