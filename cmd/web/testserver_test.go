package main

import (
	"context"
	"io"
	"testing"

	"github.com/myrjola/teamcheck/internal/e2etest"
	"github.com/stretchr/testify/require"
)

// testLookupEnv serves the demo roster on a random port. overrides replace single variables.
func testLookupEnv(overrides map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := overrides[key]; ok {
			return v, true
		}
		switch key {
		case "TEAMCHECK_ADDR":
			return "localhost:0", true
		case "TEAMCHECK_SQLITE_URL":
			return ":memory:", true
		default:
			return "", false
		}
	}
}

// startTestServer starts the server with lookupEnv and stops it when the test ends.
func startTestServer(t *testing.T, lookupEnv func(string) (string, bool)) *e2etest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	server, err := e2etest.StartServer(ctx, io.Discard, lookupEnv, run)
	require.NoError(t, err)
	return server
}
