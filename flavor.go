package main

import (
	"crypto/rand"
	"strconv"
	"strings"
)

// flavorTexts are the one-liners the TV shows under each phase. Templates
// may reference {round}; nothing else is substituted.
var flavorTexts = map[GameStatus][]string{
	StatusLobby: {
		"Escanead el QR y entrad, que esto no se juega solo",
		"Cuantos más seáis, peor para vuestra amistad",
		"Se buscan valientes sin vergüenza",
	},
	StatusInput: {
		"Ronda {round}: a escribir sin filtro",
		"Ronda {round}. Lo primero que se os ocurra suele ser lo mejor",
		"El tiempo corre y la vergüenza no puntúa",
	},
	StatusVoting: {
		"Votad con el corazón, o con la maldad",
		"Dos respuestas, un solo superviviente",
		"Que gane la menos decente",
	},
	StatusResults: {
		"Y el público ha hablado...",
		"Esto va a doler",
		"Hay amistades que no sobreviven a esto",
	},
	StatusPodium: {
		"Se acabó. Mirad quién tiene menos filtro",
		"Aplausos para el podio, pañuelos para el resto",
	},
}

// phaseFlavor picks one line for the phase and substitutes the round.
func phaseFlavor(status GameStatus, round int) string {
	pool := flavorTexts[status]
	if len(pool) == 0 {
		return ""
	}

	buf := make([]byte, 1)
	idx := 0
	if _, err := rand.Read(buf); err == nil {
		idx = int(buf[0]) % len(pool)
	}
	return strings.ReplaceAll(pool[idx], "{round}", strconv.Itoa(round))
}
