package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLogger_WritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.log")
	l := NewIsolatedLogger(path)

	l.Debug("StreamHandler", "dropped below file level", nil)
	l.Info("StreamHandler", "client connected", map[string]interface{}{"session_id": "s1"})
	l.Error("StreamHandler", "write failed", map[string]interface{}{"error": errors.New("broken pipe")})
	_ = l.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}

	require.Len(t, entries, 2)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "client connected", entries[0]["message"])
	assert.Equal(t, "StreamHandler", entries[0]["module"])
	assert.Equal(t, "broken pipe", entries[1]["error_ref"])
}

func TestNopLogger(t *testing.T) {
	var l ILogger = NewNopLogger()
	l.Warn("Test", "ignored", nil)
	assert.NoError(t, l.Sync())
}
