package main

import (
	"bytes"
	"context"
	"io"
	"kiosk/internal/config"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunLoad_Success(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<rss><channel><title>Kiosk</title><item><title>One</title><pubDate>Mon, 15 May 2017 16:26:10 GMT</pubDate></item></channel></rss>`))
	}))
	defer feed.Close()
	var out bytes.Buffer

	err := runLoad(context.Background(), config.New(), discardLogger(), feed.URL, &out)

	require.NoError(t, err)
	assert.Contains(t, out.String(), `"type": "channels"`)
	assert.Contains(t, out.String(), `"title": "Kiosk"`)
	assert.Contains(t, out.String(), `"pub_date": "May 15, 2017 4:26:10 PM"`)
}

func TestRunLoad_FailureExitCode(t *testing.T) {
	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer feed.Close()
	var out bytes.Buffer

	err := runLoad(context.Background(), config.New(), discardLogger(), feed.URL, &out)

	require.Error(t, err)
	exitErr, ok := err.(cli.ExitCoder)
	require.True(t, ok)
	assert.Equal(t, 1, exitErr.ExitCode())
	assert.Contains(t, out.String(), `"type": "message"`)
	assert.Contains(t, out.String(), feed.URL)
}

func TestRootApp_Commands(t *testing.T) {
	app := rootApp()

	names := make([]string, 0, len(app.Commands))
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"load", "serve", "migrate"}, names)
}
