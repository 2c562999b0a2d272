package obslog_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomctl/loom/internal/obslog"
)

func TestTruncateRespectsUTF8Boundaries(t *testing.T) {
	s := strings.Repeat("🦀", 10)
	got := obslog.Truncate(s, 3)
	assert.Equal(t, strings.Repeat("🦀", 3), got)
	assert.Equal(t, 3, len([]rune(got)))
}

func TestTruncateLeavesShortStringsUntouched(t *testing.T) {
	assert.Equal(t, "hi", obslog.Truncate("hi", 10))
}

func TestDebugLongAppendsOriginalRuneCount(t *testing.T) {
	s := strings.Repeat("🦀", 10)
	got := obslog.DebugLong(s, 3)
	assert.Equal(t, strings.Repeat("🦀", 3)+" (10)", got)
}

func TestParseLevelDefaultsToWarnOnUnknown(t *testing.T) {
	level, err := obslog.ParseLevel("nonsense")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestParseLevelRecognizesKnownNames(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		level, err := obslog.ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, level, name)
	}
}
