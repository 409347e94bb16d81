package service

import (
	"crypto/rand"
	"path"
	"strings"
	"sync"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// pathGenerator 生成项目内唯一的对象键：<prefix>/<project>/<ulid>/<文件名>.
// 同一毫秒内的 ULID 单调递增.
type pathGenerator struct {
	prefix string
	now    Clock

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newPathGenerator(prefix string, now Clock) *pathGenerator {
	return &pathGenerator{
		prefix:  strings.Trim(prefix, "/"),
		now:     now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// Next 返回新的对象键.
func (g *pathGenerator) Next(projectID, filename string) string {
	g.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
	g.mu.Unlock()

	return path.Join(g.prefix, sanitizeSegment(projectID), id.String(), sanitizeFilename(filename))
}

// sanitizeFilename 去掉目录部分并替换对象键中不安全的字符.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)

	name = sanitizeSegment(name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}

	return name
}

func sanitizeSegment(s string) string {
	var b strings.Builder

	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '/' || r == '\\' || r == '?' || r == '#' || r == '%':
			b.WriteRune('_')
		case unicode.IsControl(r):
		case unicode.IsSpace(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}
