package ws

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionPerSocket(t *testing.T) {
	s := NewWs()

	s.StartSession("sock-1", "AAAA")
	s.StartSession("sock-2", "AAAA")
	s.StartSession("sock-3", "BBBB")

	game, ok := s.GetSession("sock-1")
	require.True(t, ok)
	require.Equal(t, "AAAA", game)

	sockets, ok := s.GetGameSockets("AAAA")
	require.True(t, ok)
	require.ElementsMatch(t, []string{"sock-1", "sock-2"}, sockets)

	// watching another game replaces the previous session
	s.StartSession("sock-1", "BBBB")
	sockets, ok = s.GetGameSockets("AAAA")
	require.True(t, ok)
	require.ElementsMatch(t, []string{"sock-2"}, sockets)

	s.EndSession("sock-2")
	_, ok = s.GetGameSockets("AAAA")
	require.False(t, ok)
}

func TestDisconnectClearsSession(t *testing.T) {
	s := NewWs()

	s.StartSession("sock-1", "AAAA")
	s.HandleDisconnect("sock-1")

	_, ok := s.GetSession("sock-1")
	require.False(t, ok)
	_, ok = s.GetGameSockets("AAAA")
	require.False(t, ok)
}
