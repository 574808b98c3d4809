package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillAnswerWithoutGeneratorUsesFallback(t *testing.T) {
	text := fillAnswer(context.Background(), nil, "¿Qué dirías?")
	assert.Contains(t, fallbackResponses, text)
}

func TestFillAnswerOnErrorUsesFallback(t *testing.T) {
	gen := staticGenerator{err: errors.New("boom")}
	text := fillAnswer(context.Background(), gen, "¿Qué dirías?")
	assert.Contains(t, fallbackResponses, text)
}

func TestFillAnswerTrimsAndCaps(t *testing.T) {
	gen := staticGenerator{text: `  "una respuesta decente"  `}
	assert.Equal(t, "una respuesta decente", fillAnswer(context.Background(), gen, "p"))

	gen = staticGenerator{text: "primera línea\nsegunda línea"}
	assert.Equal(t, "primera línea", fillAnswer(context.Background(), gen, "p"))

	long := strings.Repeat("ñ", 120)
	capped := fillAnswer(context.Background(), staticGenerator{text: long}, "p")
	assert.Equal(t, 80, len([]rune(capped)))
	assert.True(t, strings.HasSuffix(capped, "..."))
}

func TestFillAnswerTooShortFallsBack(t *testing.T) {
	text := fillAnswer(context.Background(), staticGenerator{text: " a "}, "p")
	assert.Contains(t, fallbackResponses, text)
}

func TestHTTPGeneratorRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secreto", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": "respuesta del modelo"}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.generateURL = srv.URL
	cfg.generateToken = "secreto"

	gen := newGenerator(cfg)
	require.NotNil(t, gen)

	text, err := gen.Generate(context.Background(), "¿Qué dirías?")
	require.NoError(t, err)
	assert.Equal(t, "respuesta del modelo", text)
}

func TestNewGeneratorWithoutURL(t *testing.T) {
	assert.Nil(t, newGenerator(testConfig()))
}
