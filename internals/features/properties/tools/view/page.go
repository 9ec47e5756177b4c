// Package view renders the admin tools page.
package view

import (
	"html/template"
	"io"
)

type PageData struct {
	APIBase     string
	NonceHeader string
	Slugs       []string
	DraftSize   int
	DeleteSize  int
	Actions     []string
}

var page = template.Must(template.New("tools").Parse(pageHTML))

func Render(w io.Writer, d PageData) error {
	return page.Execute(w, d)
}

const pageHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Property Tools</title>
<style>
body{font-family:-apple-system,Segoe UI,Roboto,sans-serif;margin:24px;color:#1d2327;max-width:1100px}
h1{font-size:23px}h2{font-size:18px;margin-top:32px}
button{padding:6px 14px;margin-right:6px;cursor:pointer}
.log{background:#f6f7f7;border:1px solid #dcdcde;padding:8px;height:140px;overflow:auto;font:12px monospace;white-space:pre-wrap}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(150px,1fr));gap:10px;margin-top:10px}
.card{border:1px solid #dcdcde;padding:6px;font-size:12px;word-break:break-all}
.card img{width:100%;height:110px;object-fit:cover;background:#eee}
.notice{padding:8px 12px;border-left:4px solid #72aee6;background:#fff;margin:8px 0}
textarea{width:100%}
</style>
</head>
<body>
<h1>Property Tools</h1>
<p>Status tags targeted: <code>{{range $i, $s := .Slugs}}{{if $i}}, {{end}}{{$s}}{{end}}</code></p>

<h2>Draft Properties</h2>
<p>Moves published properties with a closed-out status to draft, {{.DraftSize}} per batch.</p>
<button id="draft-start">Start</button><button id="draft-stop">Stop</button>
<div id="draft-log" class="log"></div>

<h2>Delete Draft Properties</h2>
<p>Permanently deletes draft properties with a closed-out status, {{.DeleteSize}} per batch. Attached media is kept and detached.</p>
<button id="delete-start">Start</button><button id="delete-stop">Stop</button>
<div id="delete-log" class="log"></div>

<h2>Orphaned Media</h2>
<p>Images not referenced by any post, featured image or gallery field.</p>
<button id="orphans-scan">Scan</button><button id="orphans-delete">Delete All Orphans</button>
<div id="orphans-info" class="notice">Not scanned yet.</div>
<div id="orphans-grid" class="grid"></div>

<h2>Notification Recipients</h2>
<p>One or more email addresses, comma or line separated. If left blank, all site Administrators receive the digests.</p>
<textarea id="recipients" rows="4"></textarea>
<p><button id="recipients-save">Save Recipients</button></p>

<h2>Digests</h2>
<button id="notify-check">Check and Notify Now</button>
<button id="notify-run">Run Cron Job Now</button>
<button id="notify-test">Send Test Email</button>
<div id="notify-info" class="notice"></div>

<script>
(function () {
  const API = {{.APIBase}};
  const NONCE_HEADER = {{.NonceHeader}};
  const ACTIONS = {{.Actions}};
  const DELAY_MS = 2000;
  let nonces = {};

  function $(id) { return document.getElementById(id); }

  function log(el, msg) {
    el.textContent += new Date().toLocaleTimeString() + "  " + msg + "\n";
    el.scrollTop = el.scrollHeight;
  }

  async function call(method, path, action, body) {
    const headers = { "Content-Type": "application/json" };
    if (action) headers[NONCE_HEADER] = nonces[action] || "";
    const res = await fetch(API + path, {
      method: method,
      credentials: "same-origin",
      headers: headers,
      body: body ? JSON.stringify(body) : undefined
    });
    const json = await res.json().catch(function () { return {}; });
    if (!res.ok || json.success === false) {
      throw new Error(json.message || ("HTTP " + res.status));
    }
    return json;
  }

  async function loadNonces() {
    const res = await call("POST", "/nonces", null, { actions: ACTIONS });
    nonces = res.data.nonces;
  }

  function batchRunner(kind, path, action, countKey) {
    const logEl = $(kind + "-log");
    let running = false;

    async function step(page, cursor) {
      if (!running) { log(logEl, "Stopped."); return; }
      try {
        const res = await call("POST", path, action, { page: page, cursor: cursor });
        const d = res.data;
        log(logEl, "Batch " + d.page + ": " + d[countKey] + " " + countKey);
        if (d.has_more) {
          setTimeout(function () { step(d.next, d.cursor); }, DELAY_MS);
        } else {
          running = false;
          log(logEl, "Done.");
        }
      } catch (e) {
        running = false;
        log(logEl, "Error: " + e.message);
      }
    }

    $(kind + "-start").addEventListener("click", function () {
      if (running) return;
      running = true;
      logEl.textContent = "";
      step(1, 0);
    });
    $(kind + "-stop").addEventListener("click", function () { running = false; });
  }

  function renderOrphans(data) {
    const grid = $("orphans-grid");
    grid.textContent = "";
    $("orphans-info").textContent = data.total + " orphaned image(s) found.";
    data.orphans.forEach(function (o) {
      const card = document.createElement("div");
      card.className = "card";
      const img = document.createElement("img");
      img.loading = "lazy";
      img.src = o.guid;
      img.alt = o.title;
      const cap = document.createElement("div");
      cap.textContent = "#" + o.id + " " + o.title;
      card.appendChild(img);
      card.appendChild(cap);
      grid.appendChild(card);
    });
  }

  async function scanOrphans() {
    $("orphans-info").textContent = "Scanning...";
    try {
      const res = await call("GET", "/media/orphans");
      renderOrphans(res.data);
    } catch (e) {
      $("orphans-info").textContent = "Error: " + e.message;
    }
  }

  async function notify(path, action) {
    $("notify-info").textContent = "Working...";
    try {
      const res = await call("POST", path, action, {});
      $("notify-info").textContent = res.message;
    } catch (e) {
      $("notify-info").textContent = "Error: " + e.message;
    }
  }

  batchRunner("draft", "/properties/draft-batch", "wts_draft_props_nonce", "changed");
  batchRunner("delete", "/properties/delete-batch", "wts_delete_props_nonce", "deleted");

  $("orphans-scan").addEventListener("click", scanOrphans);
  $("orphans-delete").addEventListener("click", async function () {
    if (!confirm("Permanently delete all orphaned images? This cannot be undone.")) return;
    try {
      const res = await call("DELETE", "/media/orphans", "wts_delete_orphans_action", {});
      $("orphans-info").textContent = res.data.deleted + " orphaned image(s) deleted.";
      $("orphans-grid").textContent = "";
    } catch (e) {
      $("orphans-info").textContent = "Error: " + e.message;
    }
  });

  $("recipients-save").addEventListener("click", async function () {
    try {
      const res = await call("PUT", "/notifications/recipients", "wts_save_notification_recipients_action",
        { recipients: $("recipients").value });
      $("notify-info").textContent = res.message;
    } catch (e) {
      $("notify-info").textContent = "Error: " + e.message;
    }
  });
  $("notify-check").addEventListener("click", function () { notify("/notifications/check", "wts_notification_check_action"); });
  $("notify-run").addEventListener("click", function () { notify("/notifications/run", "wts_notification_cron_action"); });
  $("notify-test").addEventListener("click", function () { notify("/notifications/test", "wts_send_test_email_action"); });

  loadNonces()
    .then(function () { return call("GET", "/notifications/recipients"); })
    .then(function (res) { $("recipients").value = res.data.raw || ""; })
    .catch(function (e) { $("notify-info").textContent = "Error: " + e.message; });
})();
</script>
</body>
</html>`
