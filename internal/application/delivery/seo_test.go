package delivery

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	t.Run("ShortStringsPassThrough", func(t *testing.T) {
		assert.Equal(t, "short excerpt", truncate("short excerpt", 160))
	})

	t.Run("CutsOnWordBoundary", func(t *testing.T) {
		assert.Equal(t, "hello…", truncate("hello wonderful world", 12))
	})

	t.Run("NeverSplitsMultibyteRunes", func(t *testing.T) {
		long := strings.Repeat("é", 100)

		out := truncate(long, 161)

		assert.True(t, utf8.ValidString(out), "truncation must land on a rune boundary")
		assert.True(t, strings.HasSuffix(out, "…"))
		assert.Equal(t, strings.Repeat("é", 80)+"…", out)
	})
}
