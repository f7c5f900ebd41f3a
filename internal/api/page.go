// Package api serves the embedded chat page.
package api

import (
	"log/slog"
	"net/http"
)

func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(chatPage)); err != nil {
		slog.Error("Server.pageHandler: failed to write page", "error", err)
	}
}

// chatPage is the single-page chat UI. It posts turns, renders the transcript,
// shows the current phase, and enables the download link once Builder mode has
// produced blueprint content.
const chatPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Idea &rarr; Business Blueprint</title>
<style>
  body { font-family: system-ui, sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; }
  h1 { font-size: 1.4rem; }
  #phase { font-size: 0.85rem; color: #555; margin-bottom: 1rem; }
  #transcript { border: 1px solid #ddd; border-radius: 6px; padding: 1rem; min-height: 320px; }
  .turn { margin: 0.5rem 0; white-space: pre-wrap; }
  .turn.user { color: #1a4f8b; }
  .turn.assistant { color: #222; }
  .turn.error { color: #a33; }
  form { display: flex; gap: 0.5rem; margin-top: 1rem; }
  input[type=text] { flex: 1; padding: 0.5rem; }
  #export { display: none; margin-top: 1rem; }
</style>
</head>
<body>
<h1>Idea &rarr; Business Blueprint</h1>
<div id="phase">Phase: RECOGNITION</div>
<div id="transcript"></div>
<form id="turn-form">
  <input type="text" id="turn-text" placeholder="Share your idea in plain words." autocomplete="off">
  <button type="submit">Send</button>
  <button type="button" id="reset">Reset</button>
</form>
<a id="export" href="/blueprint.md" download>Download blueprint.md</a>
<script>
const transcript = document.getElementById('transcript');
const phaseEl = document.getElementById('phase');
const exportEl = document.getElementById('export');
const code = new URLSearchParams(window.location.search).get('code') || '';

function headers() {
  const h = {'Content-Type': 'application/json'};
  if (code) h['X-Access-Code'] = code;
  return h;
}

function addTurn(cls, text) {
  const div = document.createElement('div');
  div.className = 'turn ' + cls;
  div.textContent = text;
  transcript.appendChild(div);
  transcript.scrollTop = transcript.scrollHeight;
}

document.getElementById('turn-form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const input = document.getElementById('turn-text');
  const text = input.value.trim();
  if (!text) return;
  addTurn('user', text);
  input.value = '';
  try {
    const res = await fetch('/api/turn', {method: 'POST', headers: headers(), body: JSON.stringify({text})});
    const body = await res.json();
    if (body.status !== 'ok') {
      addTurn('error', body.message || 'Turn failed; retry.');
      return;
    }
    addTurn('assistant', body.result.message);
    phaseEl.textContent = 'Phase: ' + body.result.phase;
    if (body.result.blueprint_ready) {
      exportEl.style.display = 'inline';
      if (code) exportEl.href = '/blueprint.md?code=' + encodeURIComponent(code);
    }
  } catch (err) {
    addTurn('error', 'Request failed: ' + err);
  }
});

document.getElementById('reset').addEventListener('click', async () => {
  await fetch('/api/reset', {method: 'POST', headers: headers()});
  transcript.innerHTML = '';
  phaseEl.textContent = 'Phase: RECOGNITION';
  exportEl.style.display = 'none';
});
</script>
</body>
</html>
`
