package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONToProjectLog(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Init(root))
	t.Cleanup(func() { _ = Close() })

	Info("cycle complete", "items", 2)
	require.NoError(t, Close())

	data, err := os.ReadFile(filepath.Join(root, ConfigDir, LogFileName))
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	require.Equal(t, "cycle complete", entry["msg"])
	require.Equal(t, "INFO", entry["level"])
	require.EqualValues(t, 2, entry["items"])
}

func TestStateMachineComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(func() { InitWriter(io.Discard) })

	StateMachine().Debug("transition", "item", "A", "from", "queued", "to", "assigned")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "state_machine", entry["component"])
	require.Equal(t, "A", entry["item"])
}
