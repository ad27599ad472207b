package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, DEBUG, ParseLevel("debug"))
	require.Equal(t, WARNING, ParseLevel("warn"))
	require.Equal(t, ERROR, ParseLevel("error"))
	require.Equal(t, SILENCE, ParseLevel("silence"))
	require.Equal(t, INFO, ParseLevel(""))
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minter.log")
	l := NewLogger(Options{Level: WARNING, File: path, MaxSizeMB: 1})

	l.Infof("hidden %d", 1)
	l.Warnf("shown %d", 2)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(b), "hidden 1")
	require.Contains(t, string(b), `"msg":"shown 2"`)
}
