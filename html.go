package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
)

// The TV and phone clients are deliberately tiny: all state lives in the
// room snapshot pushed over the websocket, and the pages just render it.

const homeHTML = `<!DOCTYPE html>
<html lang="es"><head><meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SINFILTRO</title>
<style>body{font-family:sans-serif;background:#1a1a2e;color:#eee;text-align:center;padding:4rem 1rem}
a{display:inline-block;margin:1rem;padding:1rem 2rem;background:#e94560;color:#fff;border-radius:8px;text-decoration:none;font-size:1.5rem}</style>
</head><body>
<h1>SINFILTRO</h1>
<p>Respuestas sin filtro. Una tele, muchos móviles.</p>
<a href="tv">Abrir pantalla de TV</a>
</body></html>`

const tvHTML = `<!DOCTYPE html>
<html lang="es"><head><meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SINFILTRO - TV</title>
<style>body{font-family:sans-serif;background:#1a1a2e;color:#eee;padding:2rem}
h1{color:#e94560}.code{font-size:3rem;letter-spacing:.5rem}
.prompt{font-size:2rem;margin:2rem 0}.answer{background:#16213e;padding:1rem;margin:.5rem;border-radius:8px;font-size:1.5rem}
img.qr{background:#fff;padding:8px;border-radius:8px}</style>
</head><body>
<h1>SINFILTRO</h1>
<div id="app">Conectando...</div>
<script>
const room = location.pathname.split("/").filter(Boolean).pop().toUpperCase();
const proto = location.protocol === "https:" ? "wss" : "ws";
const base = location.pathname.replace(/\/tv\/.*$/, "");
const ws = new WebSocket(proto + "://" + location.host + base + "/rooms/" + room + "/ws?role=tv");
ws.onopen = () => ws.send(JSON.stringify({type: "claim"}));
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type !== "room_state") return;
  render(msg.room);
};
function esc(s){const d=document.createElement("div");d.textContent=s??"";return d.innerHTML}
function render(r) {
  const app = document.getElementById("app");
  if (!r || r.isClosed) { app.innerHTML = "<p>Sala cerrada. <a href='" + base + "/tv'>Nueva sala</a></p>"; return; }
  const players = Object.values(r.players || {});
  const gs = r.gameState;
  let html = "<p class='code'>" + esc(r.id) + "</p>";
  if (gs.status === "LOBBY") {
    html += "<img class='qr' src='" + base + "/rooms/" + r.id + "/qr' alt='QR'>";
    html += "<ul>" + players.map(p => "<li>" + esc(p.name) + (p.isHost ? " 👑" : "") + "</li>").join("") + "</ul>";
    html += "<p>Esperando jugadores (mínimo 3)...</p>";
  } else if (gs.status === "INPUT") {
    const done = players.filter(p => !p.isSpectator && p.submittedRound === gs.currentRound).length;
    html += "<h2>Ronda " + gs.currentRound + " de " + gs.totalRounds + "</h2>";
    html += "<p>¡Escribid vuestras respuestas en el móvil!</p>";
    html += "<p>" + done + " listos</p>" + countdown(gs.phaseEndTime);
  } else if (gs.status === "VOTING" || gs.status === "RESULTS") {
    const m = (r.matches || [])[gs.currentMatchIndex];
    if (m) {
      html += "<p class='prompt'>" + esc(m.promptText) + "</p>";
      const reveal = m.revealed;
      html += "<div class='answer'>" + esc(m.responseA) + (reveal ? " — " + esc((r.players[m.playerA]||{}).name) + " (" + (m.votesA||[]).length + ")" : "") + "</div>";
      html += "<div class='answer'>" + esc(m.responseB) + (reveal ? " — " + esc((r.players[m.playerB]||{}).name) + " (" + (m.votesB||[]).length + ")" : "") + "</div>";
      if (!reveal) html += countdown(gs.phaseEndTime);
    }
  } else if (gs.status === "PODIUM") {
    const ranked = players.filter(p => !p.isSpectator).sort((a, b) => b.score - a.score);
    html += "<h2>Podio</h2><ol>" + ranked.map(p => "<li>" + esc(p.name) + " — " + p.score + "</li>").join("") + "</ol>";
  }
  if (gs.flavorText) html += "<p><em>" + esc(gs.flavorText) + "</em></p>";
  app.innerHTML = html;
}
function countdown(end) {
  if (!end) return "";
  const left = Math.max(0, Math.round((end - Date.now()) / 1000));
  setTimeout(() => { const el = document.getElementById("clock"); if (el) el.textContent = left - 1; }, 1000);
  return "<p id='clock'>" + left + "</p>";
}
</script>
</body></html>`

const joinHTML = `<!DOCTYPE html>
<html lang="es"><head><meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SINFILTRO</title>
<style>body{font-family:sans-serif;background:#1a1a2e;color:#eee;padding:1rem;text-align:center}
input,button,textarea{font-size:1.2rem;padding:.6rem;margin:.4rem;border-radius:8px;border:none;width:90%}
button{background:#e94560;color:#fff}.answer{background:#16213e;padding:1rem;margin:.5rem;border-radius:8px}</style>
</head><body>
<div id="app">Conectando...</div>
<script>
const room = location.pathname.split("/").filter(Boolean).pop().toUpperCase();
const proto = location.protocol === "https:" ? "wss" : "ws";
const base = location.pathname.replace(/\/join\/.*$/, "");
const ws = new WebSocket(proto + "://" + location.host + base + "/rooms/" + room + "/ws");
let me = null, state = null;
ws.onmessage = (ev) => {
  const msg = JSON.parse(ev.data);
  if (msg.type === "joined") me = msg.join;
  if (msg.type === "error") alert(msg.message);
  if (msg.type === "room_state") state = msg.room;
  render();
};
function send(m){ws.send(JSON.stringify(m))}
function esc(s){const d=document.createElement("div");d.textContent=s??"";return d.innerHTML}
function render() {
  const app = document.getElementById("app");
  if (!state || state.isClosed) { app.innerHTML = "<p>Sala cerrada.</p>"; return; }
  if (!me) {
    app.innerHTML = "<h2>Sala " + esc(state.id) + "</h2>" +
      "<input id='name' maxlength='15' placeholder='Tu nombre'>" +
      "<button onclick='send({type:\"join\",name:document.getElementById(\"name\").value})'>Entrar</button>";
    return;
  }
  const gs = state.gameState;
  const self = (state.players || {})[me.playerId] || {};
  let html = "<p>" + esc(self.name) + " — " + (self.score || 0) + " puntos</p>";
  if (gs.status === "LOBBY") {
    html += "<p>Esperando al anfitrión...</p>";
    if (self.isHost) html += "<button onclick='send({type:\"start_game\"})'>Empezar</button>";
  } else if (gs.status === "INPUT") {
    if (self.submittedRound === gs.currentRound) {
      html += "<p>Respuestas enviadas. Espera...</p>";
    } else {
      const mine = (state.matches || []).map((m, i) => ({m, i}))
        .filter(x => x.m.playerA === me.playerId || x.m.playerB === me.playerId);
      html += mine.map(x => "<p>" + esc(x.m.promptText) + "</p><textarea maxlength='80' data-idx='" + x.i + "'></textarea>").join("");
      html += "<button onclick='submitAll()'>Enviar</button>";
    }
  } else if (gs.status === "VOTING" || gs.status === "RESULTS") {
    const m = (state.matches || [])[gs.currentMatchIndex];
    if (!m) { html += "<p>...</p>"; }
    else if (m.playerA === me.playerId || m.playerB === me.playerId) {
      html += "<p>¡Os toca a vosotros! Mirad la tele.</p>";
    } else if ((m.votesA||[]).concat(m.votesB||[]).includes(me.playerId) || m.revealed) {
      html += "<p>Voto registrado. Mirad la tele.</p>";
    } else {
      html += "<p>" + esc(m.promptText) + "</p>" +
        "<button class='answer' onclick='vote(\"A\")'>" + esc(m.responseA) + "</button>" +
        "<button class='answer' onclick='vote(\"B\")'>" + esc(m.responseB) + "</button>";
    }
  } else if (gs.status === "PODIUM") {
    html += "<p>¡Se acabó! Mirad la tele.</p>";
    if (self.isHost) html += "<button onclick='send({type:\"play_again\"})'>Jugar otra vez</button>";
  }
  app.innerHTML = html;
}
function submitAll() {
  const responses = {};
  document.querySelectorAll("textarea[data-idx]").forEach(t => responses[t.dataset.idx] = t.value);
  send({type: "submit", responses});
}
function vote(choice) {
  send({type: "vote", matchIndex: state.gameState.currentMatchIndex, choice});
}
</script>
</body></html>`

func servePage(cfg *Config, html string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write([]byte(html))
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}
