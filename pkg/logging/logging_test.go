// Copyright (c) 2025 Broadcom. All Rights Reserved.
// Broadcom Confidential. The term "Broadcom" refers to Broadcom Inc.
// and/or its subsidiaries.

package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenWritesErrorPrefix(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := Open(Options{Dir: t.TempDir(), ConsoleOut: &console})
	require.NoError(t, err)
	defer closer.Close()

	logger.Error().Err(errors.New("boom")).Msg("install failed on node1")

	out := console.String()
	require.Contains(t, out, "ERROR:")
	require.Contains(t, out, "install failed on node1")
}

func TestOpenDuplicatesConsoleIntoFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	logger, closer, err := Open(Options{Dir: dir, ConsoleOut: &console})
	require.NoError(t, err)

	logger.Info().Msg("phase install finished")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	require.Contains(t, string(data), "phase install finished")
	require.Contains(t, string(data), "INFO:")
}

func TestOpenAppendsWithRunSeparator(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 2; i++ {
		var console bytes.Buffer
		_, closer, err := Open(Options{Dir: dir, ConsoleOut: &console})
		require.NoError(t, err)
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(data), "----- run "))
}

func TestVerboseEnablesDebug(t *testing.T) {
	var console bytes.Buffer

	logger, closer, err := Open(Options{Dir: t.TempDir(), ConsoleOut: &console})
	require.NoError(t, err)
	logger.Debug().Msg("hidden")
	closer.Close()
	require.NotContains(t, console.String(), "hidden")

	console.Reset()
	logger, closer, err = Open(Options{Verbose: true, Dir: t.TempDir(), ConsoleOut: &console})
	require.NoError(t, err)
	logger.Debug().Msg("visible")
	closer.Close()
	require.Contains(t, console.String(), "visible")
}
