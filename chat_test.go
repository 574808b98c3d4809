package main

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendChatAppends(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "classic", 3)

	require.NoError(t, sendChat(cfg, st, "TACO", ids[0], "hola a todos"))
	require.NoError(t, sendChat(cfg, st, "TACO", ids[1], "  buenas  "))

	var msgs []ChatMessage
	ok, err := readAs(st, chatPath("TACO"), &msgs)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, msgs, 2)

	assert.Equal(t, "hola a todos", msgs[0].Text)
	assert.Equal(t, "buenas", msgs[1].Text, "whitespace is trimmed")
	assert.NotEmpty(t, msgs[0].ID)
	assert.Equal(t, "Jugador0", msgs[0].Name)
}

func TestSendChatTrimsHistory(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	ids := setupRoom(t, cfg, st, "TACO", "classic", 3)

	for i := 0; i < chatHistory+5; i++ {
		require.NoError(t, sendChat(cfg, st, "TACO", ids[0], "mensaje "+strconv.Itoa(i)))
	}

	var msgs []ChatMessage
	_, err := readAs(st, chatPath("TACO"), &msgs)
	require.NoError(t, err)
	require.Len(t, msgs, chatHistory)
	assert.Equal(t, "mensaje 14", msgs[len(msgs)-1].Text, "newest messages survive")
}

func TestSendChatIgnoresOutsiders(t *testing.T) {
	cfg, st := testConfig(), newMemoryStore()
	setupRoom(t, cfg, st, "TACO", "classic", 3)

	require.NoError(t, sendChat(cfg, st, "TACO", "ghost", "fantasma"))
	require.NoError(t, sendChat(cfg, st, "TACO", "player-0", "   "))

	v, err := st.Read(chatPath("TACO"))
	require.NoError(t, err)
	assert.Nil(t, v)
}
