package view

const stylesheet = `
:root { --bg:#f5f6f8; --fg:#1f2328; --muted:#656d76; --card:#ffffff; --border:#d0d7de;
  --danger:#cf222e; --success:#1a7f37; --warning:#9a6700; --info:#0969da; }
body.theme-dark { --bg:#0d1117; --fg:#e6edf3; --muted:#8d96a0; --card:#161b22; --border:#30363d;
  --danger:#f85149; --success:#3fb950; --warning:#d29922; --info:#58a6ff; }
* { box-sizing:border-box; }
body { margin:0; background:var(--bg); color:var(--fg); font:14px/1.45 system-ui, sans-serif; }
.shell { max-width:1200px; margin:0 auto; padding:16px; }
.topbar { display:flex; justify-content:space-between; align-items:flex-start; gap:12px; flex-wrap:wrap; }
.page-title { margin:0; font-size:22px; }
.toolbar { display:flex; gap:8px; align-items:center; flex-wrap:wrap; }
form.inline { display:inline-flex; gap:6px; align-items:center; margin:0; }
.card { background:var(--card); border:1px solid var(--border); border-radius:8px; padding:12px; margin-bottom:12px; }
.stats-grid { display:grid; grid-template-columns:repeat(3, 1fr); gap:12px; margin-top:12px; }
.stat-card { text-align:center; }
.stat-value { font-size:28px; font-weight:700; }
.stat-label { color:var(--muted); }
.stat-failed .stat-value { color:var(--danger); }
.stat-succeeded .stat-value { color:var(--success); }
.stat-rate .stat-value { color:var(--info); }
.filters { display:flex; gap:12px; align-items:flex-end; flex-wrap:wrap; }
.filters label { display:flex; flex-direction:column; gap:4px; }
.filters label.check { flex-direction:row; align-items:center; }
input, select, .btn { font:inherit; padding:4px 8px; border:1px solid var(--border); border-radius:6px; background:var(--card); color:var(--fg); }
.btn { cursor:pointer; }
.btn-primary { background:var(--info); color:#fff; border-color:var(--info); }
.btn-small { padding:2px 6px; font-size:12px; }
.muted { color:var(--muted); }
.small { font-size:12px; }
.job-row { display:grid; grid-template-columns:4fr 2fr 3fr 3fr; gap:8px; align-items:center; }
.job-name h2 { font-size:15px; margin:0; }
.job-timing { display:flex; flex-direction:column; }
.job-actions { display:flex; gap:6px; justify-content:flex-end; }
.badge { display:inline-block; padding:2px 8px; border-radius:10px; font-size:12px; color:#fff; }
.badge-success { background:var(--success); }
.badge-danger { background:var(--danger); }
.badge-warning { background:var(--warning); }
.badge-info { background:var(--info); }
.badge-muted { background:var(--muted); }
.trend-slower { color:var(--warning); }
.trend-faster { color:var(--success); }
.alert { padding:6px 10px; border-radius:6px; margin:8px 0; border:1px solid var(--border); }
.alert-danger { border-color:var(--danger); color:var(--danger); }
.alert-warning { border-color:var(--warning); color:var(--warning); }
.alert-info { border-color:var(--info); color:var(--info); }
.panel { margin-top:8px; border-top:1px solid var(--border); padding-top:8px; }
.table { width:100%; border-collapse:collapse; }
.table th, .table td { text-align:left; padding:4px 6px; border-bottom:1px solid var(--border); vertical-align:top; }
.message-cell { max-width:400px; overflow:hidden; text-overflow:ellipsis; }
.step-actions { display:flex; gap:4px; }
.history-run { margin-bottom:8px; }
.history-head { display:flex; gap:8px; align-items:center; }
.pagination ul { list-style:none; display:flex; gap:4px; padding:0; justify-content:center; }
.page-item.active .page-link { background:var(--info); color:#fff; }
.page-item.disabled span { color:var(--muted); padding:4px 8px; display:inline-block; }
.page-link { font:inherit; padding:4px 8px; border:1px solid var(--border); border-radius:6px; background:var(--card); color:var(--fg); cursor:pointer; }
.modal-backdrop { position:fixed; inset:0; background:rgba(0,0,0,.45); display:flex; align-items:flex-start; justify-content:center; padding:40px 16px; overflow:auto; }
.modal { width:min(960px, 100%); }
.modal-head { display:flex; justify-content:space-between; align-items:center; }
.modal-head h2 { font-size:17px; margin:0; }
.script { white-space:pre-wrap; background:var(--bg); padding:8px; border-radius:6px; overflow:auto; }
.messages { list-style:none; padding:0; }
.message { display:grid; grid-template-columns:80px 110px 1fr; gap:8px; padding:3px 0; border-bottom:1px solid var(--border); }
.message-error .message-type { color:var(--danger); }
.message-warning .message-type { color:var(--warning); }
`

// pollScript keeps the countdown current, reloads after a refresh cycle and
// beeps when the alert sequence advances.
const pollScript = `
(function () {
  var body = document.body;
  var lastRefresh = body.dataset.lastRefresh || "";
  var alertSeq = parseInt(body.dataset.alertSeq || "0", 10);
  var countdown = document.getElementById("refresh-countdown");

  function beep() {
    var Ctx = window.AudioContext || window.webkitAudioContext;
    if (!Ctx) { return; }
    var ctx = new Ctx();
    var osc = ctx.createOscillator();
    var gain = ctx.createGain();
    osc.connect(gain);
    gain.connect(ctx.destination);
    osc.frequency.value = 800;
    osc.type = "sine";
    gain.gain.setValueAtTime(0.3, ctx.currentTime);
    gain.gain.exponentialRampToValueAtTime(0.01, ctx.currentTime + 0.5);
    osc.start(ctx.currentTime);
    osc.stop(ctx.currentTime + 0.5);
  }

  function poll() {
    fetch(body.dataset.stateUrl, { cache: "no-store" })
      .then(function (res) { return res.ok ? res.json() : null; })
      .then(function (state) {
        if (!state) { return; }
        if (countdown) {
          countdown.textContent = state.auto_refresh && state.countdown > 0 ? "(" + state.countdown + "s)" : "";
        }
        var delay = 0;
        if (state.alert_seq > alertSeq) {
          alertSeq = state.alert_seq;
          if (state.sound_enabled) { beep(); delay = 600; }
        }
        if ((state.last_refresh || "") !== lastRefresh) {
          setTimeout(function () { window.location.reload(); }, delay);
        }
      })
      .catch(function () {});
  }

  setInterval(poll, 1000);
})();
`
