package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"strings"
)

// Generator produces a stand-in answer for a prompt a player left blank.
// Implementations are best effort: any failure is answered with a literal
// filler downstream, never an error the phase machine has to care about.
type Generator interface {
	Generate(ctx context.Context, promptText string) (string, error)
}

// fallbackResponses are the literal fillers used when generation fails or
// is not configured.
var fallbackResponses = []string{
	"Mi cerebro ha explotado... literalmente",
	"Error 404: Creatividad no encontrada",
	"La IA se ha ido a tomar un café",
	"Ups, el hámster que genera mis ideas se durmió",
	"¿Y si simplemente fingimos que esto no pasó?",
	"Mi respuesta era tan buena que el servidor la rechazó",
	"La inspiración está de vacaciones",
	"Un unicornio me robó la respuesta",
	"Técnicamente, esto es arte moderno",
	"Mi abuela responde mejor que yo",
	"Se me olvidó pensar, perdón",
	"El WiFi se comió mi respuesta",
	"Esto es muy profundo para mí",
	"Mi perro escribiría algo mejor",
}

func randomFallback() string {
	buf := make([]byte, 1)
	if _, err := rand.Read(buf); err != nil {
		return fallbackResponses[0]
	}
	return fallbackResponses[int(buf[0])%len(fallbackResponses)]
}

// fillAnswer runs one generation attempt and always comes back with usable
// text. No retries: the filler string is an acceptable final outcome.
func fillAnswer(ctx context.Context, gen Generator, promptText string) string {
	if gen == nil {
		return randomFallback()
	}

	text, err := gen.Generate(ctx, promptText)
	if err != nil {
		return randomFallback()
	}

	text = strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"'«»`))
	if line, _, found := strings.Cut(text, "\n"); found {
		text = strings.TrimSpace(line)
	}
	if len([]rune(text)) < 2 {
		return randomFallback()
	}
	if runes := []rune(text); len(runes) > 80 {
		text = string(runes[:77]) + "..."
	}
	return text
}

// httpGenerator calls a text-generation endpoint with a JSON POST carrying
// the prompt, expecting {"response": "..."} back.
type httpGenerator struct {
	endpoint string
	token    string
	client   *http.Client
}

func newGenerator(cfg *Config) Generator {
	// No credentials means every empty field gets filler text.
	if cfg.generateURL == "" {
		return nil
	}
	return &httpGenerator{
		endpoint: cfg.generateURL,
		token:    cfg.generateToken,
		client:   &http.Client{Timeout: cfg.generateTimeout},
	}
}

func (g *httpGenerator) Generate(ctx context.Context, promptText string) (string, error) {
	body, err := json.Marshal(map[string]string{"promptText": promptText})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// staticGenerator returns canned text; used by tests.
type staticGenerator struct {
	text string
	err  error
}

func (g staticGenerator) Generate(context.Context, string) (string, error) {
	return g.text, g.err
}
