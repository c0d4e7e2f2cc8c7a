package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatbot_store/internal/storage"
)

func TestParseExchanges(t *testing.T) {
	history, err := parseExchanges([]string{"hi::hello", "bye::goodbye"})
	require.NoError(t, err)
	assert.Equal(t, []storage.Exchange{
		{UserInput: "hi", BotResponse: "hello"},
		{UserInput: "bye", BotResponse: "goodbye"},
	}, history)
}

func TestParseExchangesKeepsSeparatorInResponse(t *testing.T) {
	history, err := parseExchanges([]string{"a::b::c"})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a", history[0].UserInput)
	assert.Equal(t, "b::c", history[0].BotResponse)
}

func TestParseExchangesMalformed(t *testing.T) {
	_, err := parseExchanges([]string{"no separator"})
	require.Error(t, err)
}
