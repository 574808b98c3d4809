package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var defaultPrompts = []string{
	"El peor nombre posible para una peluquería",
	"Algo que no deberías decir en una entrevista de trabajo",
	"El superpoder más inútil del mundo",
	"Lo último que querrías encontrar en tu sopa",
	"Un mal eslogan para una funeraria",
	"El título de la película de tu vida",
	"Algo que nunca dirías en voz alta en un ascensor",
	"El peor regalo de cumpleaños imaginable",
	"Un uso alternativo para un paraguas roto",
	"Lo que realmente piensa tu gato de ti",
	"El peor consejo que le darías a un recién casado",
	"Algo prohibido en el manual del astronauta",
	"La excusa más absurda para llegar tarde al trabajo",
	"Un deporte olímpico que deberían inventar",
	"Lo que dirías si te despertaras siendo presidente",
	"El ingrediente secreto de la paella de tu suegra",
	"Un mal nombre para un perfume de lujo",
	"Lo primero que harías si fueras invisible por un día",
	"El mensaje más raro que podrías dejar en un contestador",
	"Algo que no esperas escuchar de tu dentista",
	"El peor título para un libro de autoayuda",
	"Una norma absurda que pondrías si fueras profesor",
	"Lo que nunca debería decir un piloto por megafonía",
	"El plato estrella de un restaurante en la Luna",
	"Algo que no deberías tatuarte jamás",
	"El final alternativo más decepcionante para un cuento clásico",
	"Una mala idea para un parque de atracciones",
	"Lo que gritarías al ganar la lotería en la iglesia",
	"El anuncio de televisión más inquietante posible",
	"Algo que los aliens dirían al ver la Tierra",
	"El nombre de tu grupo de música imaginario",
	"La peor frase para empezar un discurso de boda",
	"Un invento que nadie pidió pero todos comprarían",
	"Lo que esconde tu vecino en el trastero",
	"El peor lema para una marca de coches",
	"Algo que nunca querrías oír de tu cirujano",
	"La asignatura que falta en todos los colegios",
	"El olor que debería estar prohibido por ley",
	"Lo que haría tu abuela con un millón de euros",
	"El peor nombre para una mascota heredada",
}

var spicyPrompts = []string{
	"Lo peor que podrías decir en pleno acto sexual",
	"Un mensaje de texto que enviarías a tu ex a las 3 de la mañana borracho/a",
	"La excusa más creativa para salir de una cita que va fatal",
	"La frase que menos querrías escuchar de tu suegra en la cena de Navidad",
	"Un tatuaje íntimo que nunca deberías hacerte",
	"Lo más vergonzoso que has hecho por ligar",
	"La peor frase para ligar en un funeral",
	"Un piropo que te garantiza una bofetada",
	"Un mensaje de Tinder que te asegura el block inmediato",
	"La frase que menos quieres oír en la primera cita",
	"Una bio de Tinder que grita 'red flag'",
	"El halago más inquietante que podrías hacer",
	"Algo que nunca le contarías a tu psicólogo",
	"El secreto más oscuro de tu grupo de WhatsApp familiar",
	"Lo que realmente haces cuando dices que 'estás trabajando desde casa'",
	"Una confesión que arruinaría cualquier cena familiar",
	"Algo por lo que deberías ir al infierno pero no te arrepientes",
	"Lo que NUNCA admitirías haber buscado en Google",
	"Algo que hiciste en la universidad que tus padres NUNCA pueden saber",
	"La mentira más grande que has dicho para salir de una situación incómoda",
}

// shufflePrompts is a Fisher-Yates over a copy, drawing from crypto/rand.
func shufflePrompts(prompts []string) []string {
	out := make([]string, len(prompts))
	copy(out, prompts)

	buf := make([]byte, 2)
	for i := len(out) - 1; i > 0; i-- {
		if _, err := rand.Read(buf); err != nil {
			continue
		}
		j := (int(buf[0])<<8 | int(buf[1])) % (i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// promptsForGame picks n prompts: from a loaded custom library if one is
// set, else from the mode's pool. Short pools wrap around rather than fail.
func promptsForGame(n int, mode string, library *PromptLibrary) []string {
	pool := defaultPrompts
	if cfg, ok := gameModes[mode]; ok && cfg.SpicyPrompts {
		pool = spicyPrompts
	}
	if library != nil && len(library.Prompts) > 0 {
		pool = library.Prompts
	}

	shuffled := shufflePrompts(pool)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, shuffled[i%len(shuffled)])
	}
	return out
}

// distributePrompts builds the round's matches as a ring: match i pairs
// player i with player i+1 (mod N), so everyone authors exactly two answers
// and never faces themselves. Requires at least 2 players; the lobby
// enforces 3 so every match has a voting pool.
func distributePrompts(playerIDs []string, prompts []string) []Match {
	n := len(playerIDs)
	matches := make([]Match, 0, n)

	count := min(n, len(prompts))
	for i := 0; i < count; i++ {
		matches = append(matches, Match{
			PromptText:  prompts[i],
			PromptIndex: i,
			PlayerA:     playerIDs[i%n],
			PlayerB:     playerIDs[(i+1)%n],
			VotesA:      []string{},
			VotesB:      []string{},
		})
	}
	return matches
}

// PlayerPrompt is one of the two prompts assigned to a player this round.
type PlayerPrompt struct {
	PromptIndex int    `json:"promptIndex"`
	PromptText  string `json:"promptText"`
	IsPlayerA   bool   `json:"isPlayerA"`
}

func playerPrompts(playerID string, matches []Match) []PlayerPrompt {
	var out []PlayerPrompt
	for i, m := range matches {
		switch playerID {
		case m.PlayerA:
			out = append(out, PlayerPrompt{PromptIndex: i, PromptText: m.PromptText, IsPlayerA: true})
		case m.PlayerB:
			out = append(out, PlayerPrompt{PromptIndex: i, PromptText: m.PromptText, IsPlayerA: false})
		}
	}
	return out
}

// PromptLibrary is a user-curated prompt pool, addressed by a short code.
type PromptLibrary struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"passwordHash,omitempty"`
	CreatedAt    int64    `json:"createdAt"`
	UpdatedAt    int64    `json:"updatedAt"`
	Prompts      []string `json:"prompts"`
	PlayCount    int      `json:"playCount"`
}

var (
	errLibraryNotFound = errors.New("biblioteca no encontrada")
	errLibraryPassword = errors.New("contraseña incorrecta")
)

// libraryHash is the original's non-cryptographic edit-protection hash.
// It gates accidental edits, not attackers.
func libraryHash(s string) string {
	var h int32
	for _, r := range s {
		h = (h<<5 - h) + int32(r)
	}
	if h < 0 {
		h = -h
	}
	return strconv.FormatInt(int64(h), 36)
}

// newLibraryCode generates a 6-char code, skipping confusable characters.
func newLibraryCode() string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, 6)
	for i := range out {
		out[i] = chars[int(buf[i])%len(chars)]
	}
	return string(out)
}

func createLibrary(st StateStore, name string, prompts []string, password string) (string, error) {
	kept := make([]string, 0, len(prompts))
	for _, p := range prompts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", errors.New("la biblioteca necesita al menos una pregunta")
	}

	code := newLibraryCode()
	lib := PromptLibrary{
		ID:        code,
		Name:      strings.TrimSpace(name),
		CreatedAt: nowMillis(),
		UpdatedAt: nowMillis(),
		Prompts:   kept,
	}
	if password != "" {
		lib.PasswordHash = libraryHash(password)
	}

	if err := st.Write(libraryPath(code), lib); err != nil {
		return "", fmt.Errorf("creating library: %w", err)
	}
	return code, nil
}

func getLibrary(st StateStore, code string) (*PromptLibrary, error) {
	var lib PromptLibrary
	ok, err := readAs(st, libraryPath(strings.ToUpper(code)), &lib)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errLibraryNotFound
	}
	return &lib, nil
}

func checkLibraryPassword(lib *PromptLibrary, password string) error {
	if lib.PasswordHash == "" {
		return nil
	}
	if password == "" || libraryHash(password) != lib.PasswordHash {
		return errLibraryPassword
	}
	return nil
}

func updateLibrary(st StateStore, code, name string, prompts []string, password string) error {
	lib, err := getLibrary(st, code)
	if err != nil {
		return err
	}
	if err := checkLibraryPassword(lib, password); err != nil {
		return err
	}

	fields := map[string]any{"updatedAt": nowMillis()}
	if name != "" {
		fields["name"] = strings.TrimSpace(name)
	}
	if prompts != nil {
		kept := make([]string, 0, len(prompts))
		for _, p := range prompts {
			if strings.TrimSpace(p) != "" {
				kept = append(kept, p)
			}
		}
		fields["prompts"] = kept
	}
	return st.Patch(libraryPath(strings.ToUpper(code)), fields)
}

func deleteLibrary(st StateStore, code, password string) error {
	lib, err := getLibrary(st, code)
	if err != nil {
		return err
	}
	if err := checkLibraryPassword(lib, password); err != nil {
		return err
	}
	return st.Delete(libraryPath(strings.ToUpper(code)))
}

func incrementLibraryPlayCount(st StateStore, code string) error {
	lib, err := getLibrary(st, code)
	if err != nil {
		return err
	}
	return st.Patch(libraryPath(strings.ToUpper(code)), map[string]any{
		"playCount": lib.PlayCount + 1,
	})
}
