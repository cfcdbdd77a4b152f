package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GuyPaddock/json-service-framework-sub001/internal/testutil"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/client"
	"github.com/GuyPaddock/json-service-framework-sub001/pkg/jsonapi"
)

type Reward struct {
	jsonapi.Entity

	Name   string `jsonapi:"attr:name,required"`
	Points int64  `jsonapi:"attr:points,required"`
	Active bool   `jsonapi:"attr:active"`
}

func (*Reward) ResourceType() string { return "rewards" }

func seedRewards(server *testutil.Server, n int) {
	for i := 1; i <= n; i++ {
		server.Seed("rewards", itoa(i), map[string]any{
			"name":   "reward " + itoa(i),
			"points": i * 10,
			"active": i%2 == 1,
		})
	}
}

func itoa(i int) string {
	return jsonapi.NewIntIdentifier(int64(i)).String()
}

func newTestClient(t *testing.T, server *testutil.Server, mutate func(*client.Config)) *client.Client {
	t.Helper()

	config := &client.Config{
		BaseURL:  server.URL,
		PageSize: 2,
	}
	if mutate != nil {
		mutate(config)
	}

	c, err := client.New(config)
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.log("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.log("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.log("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.log("error", msg, fields) }

func (l *recordingLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var msgs []string

	for _, e := range l.entries {
		if e.level == level {
			msgs = append(msgs, e.msg)
		}
	}

	return msgs
}

type MockTokenManager struct {
	mu    sync.Mutex
	token string
}

func (m *MockTokenManager) GetToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.token, nil
}

func (m *MockTokenManager) RefreshToken(context.Context) error {
	return nil
}

func (m *MockTokenManager) SetToken(token string, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
}
