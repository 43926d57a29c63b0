package utils

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/speps/go-hashids/v2"
)

var ErrInvalidHashID = errors.New("invalid hash id")

func PanicTrace(err interface{}) string {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "%v\n", err)
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fmt.Fprintf(buf, "%s:%d (0x%x)\n", file, line, pc)
	}
	return buf.String()
}

// HashID 数字ID与公开分享码互转
type HashID struct {
	h *hashids.HashID
}

func NewHashID(salt string) (*HashID, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 12
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, err
	}
	return &HashID{h: h}, nil
}

func (h *HashID) Encode(id uint64) (string, error) {
	return h.h.EncodeInt64([]int64{int64(id)})
}

func (h *HashID) Decode(code string) (uint64, error) {
	if code == "" {
		return 0, ErrInvalidHashID
	}
	ids, err := h.h.DecodeInt64WithError(code)
	if err != nil || len(ids) != 1 || ids[0] <= 0 {
		return 0, ErrInvalidHashID
	}
	return uint64(ids[0]), nil
}

// TruncateRunes 按字符截断
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// CleanTitle 去掉模型返回标题里的引号、换行和句末标点，并截断
func CleanTitle(s string, max int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, " \t\"'“”‘’《》「」【】#*")
	s = strings.TrimPrefix(s, "标题：")
	s = strings.TrimPrefix(s, "标题:")
	s = strings.TrimRight(s, "。.！!？?，,；;")
	return TruncateRunes(strings.TrimSpace(s), max)
}
