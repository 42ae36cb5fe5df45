package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizer(t *testing.T) {
	en, err := NewLocalizer("en")
	require.NoError(t, err)
	assert.Equal(t, "Pong! Gateway latency: 42ms", en.Localize("ping.pong", map[string]any{"Latency": "42ms"}))
	assert.Equal(t, "missing.key", en.Localize("missing.key", nil))

	ru, err := NewLocalizer("ru")
	require.NoError(t, err)
	assert.Equal(t, "Ошибка", ru.Localize("error", nil))
	assert.Equal(t, "ru", ru.Language().String())

	_, err = NewLocalizer("not a language!")
	assert.Error(t, err)
}
