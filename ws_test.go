package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/data.json"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readVehicles(t *testing.T, conn *websocket.Conn) []Vehicle {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out []Vehicle
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestHub_SendsSnapshotOnConnectAndRedraw(t *testing.T) {
	env := newTestEnv(t, false)
	env.api.store.Merge([]RawRecord{rec("V1", "A", 51.1, 17.0)})

	conn := dialHub(t, env)
	defer conn.Close()

	initial := readVehicles(t, conn)
	require.Len(t, initial, 1)
	assert.Equal(t, "V1", initial[0].ID)

	env.api.store.Merge([]RawRecord{rec("V1", "A", 51.2, 17.1), rec("V2", "D", 51.0, 17.0)})
	env.api.hub.Redraw()

	updated := readVehicles(t, conn)
	require.Len(t, updated, 2)
	assert.Equal(t, []Position{{51.1, 17.0}, {51.2, 17.1}}, updated[0].History)
	assert.Equal(t, "V2", updated[1].ID)
}

func TestHub_EmptyStoreSendsEmptyList(t *testing.T) {
	env := newTestEnv(t, false)

	conn := dialHub(t, env)
	defer conn.Close()

	assert.Empty(t, readVehicles(t, conn))
}

func TestHub_FollowClientsDrivesVisibility(t *testing.T) {
	env := newTestEnv(t, true)
	env.api.visibility.Set(false)

	first := dialHub(t, env)
	readVehicles(t, first)
	assert.Eventually(t, env.api.visibility.Visible, 2*time.Second, 5*time.Millisecond)

	second := dialHub(t, env)
	readVehicles(t, second)
	assert.Eventually(t, func() bool { return env.api.hub.count() == 2 }, 2*time.Second, 5*time.Millisecond)

	first.Close()
	assert.Eventually(t, func() bool { return env.api.hub.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, env.api.visibility.Visible())

	second.Close()
	assert.Eventually(t, func() bool { return !env.api.visibility.Visible() }, 2*time.Second, 5*time.Millisecond)
}

func TestNewHub_FollowClientsStartsHidden(t *testing.T) {
	tests := []struct {
		name          string
		followClients bool
		want          bool
	}{
		{name: "follow clients", followClients: true, want: false},
		{name: "manual", followClients: false, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			vis := NewVisibility(true)
			newHub(NewStore(10), vis, tc.followClients)
			assert.Equal(t, tc.want, vis.Visible())
		})
	}
}

func TestHub_ManualVisibilityUntouchedByClients(t *testing.T) {
	env := newTestEnv(t, false)
	env.api.visibility.Set(false)

	conn := dialHub(t, env)
	readVehicles(t, conn)
	assert.False(t, env.api.visibility.Visible())
	conn.Close()
}
