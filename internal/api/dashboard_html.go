package api

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Whitelist Console</title>
<style>
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
:root{
  --bg:#0f1117;--bg-card:#161b22;--bg-input:#0d1117;
  --border:#30363d;--text:#e1e4e8;--text-muted:#8b949e;
  --primary:#58a6ff;--green:#3fb950;--red:#f85149;--yellow:#d29922;
  --radius:8px;--radius-sm:4px;
}
body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Helvetica,Arial,sans-serif;background:var(--bg);color:var(--text);line-height:1.5}
button{cursor:pointer;font:inherit;background:var(--bg-input);color:var(--text);border:1px solid var(--border);border-radius:var(--radius-sm);padding:4px 10px}
button.primary{background:var(--primary);color:#0d1117;border-color:var(--primary)}
button.danger{color:var(--red);border-color:var(--red)}
input,select,textarea{font:inherit;background:var(--bg-input);color:var(--text);border:1px solid var(--border);border-radius:var(--radius-sm);padding:4px 8px}
textarea{width:100%;min-height:80px}
header{background:var(--bg-card);border-bottom:1px solid var(--border);padding:12px 24px;display:flex;gap:16px;align-items:center;flex-wrap:wrap}
header h1{font-size:18px}
.stats{display:flex;gap:12px;margin-left:auto;font-size:13px;color:var(--text-muted)}
.stats b{color:var(--text)}
.stats.down b{color:var(--red)}
.container{max-width:1300px;margin:0 auto;padding:16px 24px 48px}
.nav{display:flex;gap:8px;margin-bottom:12px}
.nav button.active,.tabs button.active{border-color:var(--primary);color:var(--primary)}
.tabs{display:flex;gap:8px;margin-bottom:12px}
.toolbar{display:flex;gap:8px;align-items:center;flex-wrap:wrap;margin-bottom:8px}
.toolbar .spacer{flex:1}
table{width:100%;border-collapse:collapse;background:var(--bg-card);border:1px solid var(--border);border-radius:var(--radius)}
th,td{padding:6px 10px;border-bottom:1px solid var(--border);text-align:left;font-size:13px;vertical-align:top}
th[data-key]{cursor:pointer;user-select:none}
th .arrow{color:var(--primary)}
td.domains{white-space:pre-line;color:var(--text-muted)}
.pager{display:flex;gap:8px;align-items:center;margin-top:8px;font-size:13px;color:var(--text-muted)}
.toast-stack{position:fixed;top:16px;right:16px;display:flex;flex-direction:column;gap:8px;z-index:300}
.toast{padding:10px 14px;border-radius:var(--radius);background:var(--bg-card);border:1px solid var(--green);cursor:pointer}
.toast-error{border-color:var(--red)}
.overlay{position:fixed;inset:0;background:rgba(0,0,0,.6);display:none;align-items:center;justify-content:center;z-index:200}
.overlay.open{display:flex}
.modal{background:var(--bg-card);border:1px solid var(--border);border-radius:var(--radius);padding:20px;width:560px;max-width:95vw;max-height:90vh;overflow:auto}
.modal h2{font-size:16px;margin-bottom:12px}
.modal label{display:block;font-size:12px;color:var(--text-muted);margin:8px 0 2px}
.modal input[type=text],.modal input[type=date]{width:100%}
.modal .actions{display:flex;gap:8px;justify-content:flex-end;margin-top:16px}
.picker{max-height:140px;overflow:auto;border:1px solid var(--border);border-radius:var(--radius-sm);padding:4px 8px;margin-top:4px}
.hidden{display:none}
</style>
</head>
<body>
<header>
  <h1>Whitelist Console</h1>
  <input id="apiKey" type="password" placeholder="API key" size="18">
  <div class="stats" id="stats">
    <span>CPU <b id="cpu">-</b></span>
    <span>RAM <b id="ram">-</b></span>
    <span>Bandwidth <b id="bw">-</b></span>
  </div>
</header>
<div class="toast-stack" id="toasts"></div>

<div class="container">
  <div class="nav">
    <button data-screen="clients" class="active">Clients</button>
    <button data-screen="whitelist">Whitelist</button>
  </div>

  <div class="tabs hidden" id="tabs">
    <button data-tab="domains">Domains</button>
    <button data-tab="ips">IPs</button>
    <button data-tab="templates">Templates</button>
  </div>

  <div class="toolbar">
    <input id="search" type="text" placeholder="Search">
    <select id="field"></select>
    <button id="resetBtn">Reset</button>
    <span class="spacer"></span>
    <span id="selCount"></span>
    <button id="bulkBtn" class="danger">Delete selected</button>
    <button id="addBtn" class="primary">Add</button>
    <span id="wlTools" class="hidden">
      <input id="importFile" type="file">
      <label><input id="importOverwrite" type="checkbox"> Overwrite existing</label>
      <button id="importBtn">Import</button>
      <button id="exportBtn">Export</button>
    </span>
  </div>

  <table>
    <thead id="thead"></thead>
    <tbody id="tbody"></tbody>
  </table>
  <div class="pager">
    <button id="prevBtn">Prev</button>
    <span id="label"></span>
    <button id="nextBtn">Next</button>
    <select id="pageSize">
      <option>10</option><option>25</option><option>50</option><option>100</option>
    </select>
  </div>
</div>

<div class="overlay" id="clientOverlay">
  <div class="modal">
    <h2 id="clientTitle"></h2>
    <label>IP</label><input type="text" id="cIP">
    <label>DNS <button id="lookupBtn" type="button">Lookup</button></label><input type="text" id="cDNS">
    <label><input type="checkbox" id="cAny"> Unrestricted (any domain)</label>
    <label>Domains</label><textarea id="cDomains"></textarea>
    <label>Templates</label>
    <input type="text" id="tplSearch" placeholder="Filter templates">
    <div class="picker" id="tplList"></div>
    <button id="tplApply" type="button">Apply templates</button>
    <label>Expiration</label><input type="date" id="cExp">
    <div><button type="button" data-days="7">+7d</button> <button type="button" data-days="30">+30d</button> <button type="button" data-days="90">+90d</button></div>
    <label>Ticket</label><input type="text" id="cTicket">
    <label>Notes</label><textarea id="cNotes"></textarea>
    <div class="actions"><button id="clientCancel">Cancel</button><button id="clientSave" class="primary">Save</button></div>
  </div>
</div>

<div class="overlay" id="wlOverlay">
  <div class="modal">
    <h2 id="wlTitle"></h2>
    <div id="wlValueRow"><label id="wlValueLabel">Value</label><input type="text" id="wValue"></div>
    <div id="wlTplRows">
      <label>Name</label><input type="text" id="wName">
      <label>Domains</label><textarea id="wDomains"></textarea>
    </div>
    <label>Description</label><input type="text" id="wDesc">
    <div class="actions"><button id="wlCancel">Cancel</button><button id="wlSave" class="primary">Save</button></div>
  </div>
</div>

<script>
(function() {
  'use strict';
  var g = function(id) { return document.getElementById(id); };

  var screens = {
    clients: {
      fields: ['ip', 'dns', 'ticket', 'notes', 'domains'],
      columns: [['ip', 'IP'], ['dns', 'DNS'], [null, 'Domains'], ['ticket', 'Ticket'], ['expiration', 'Expiration'], ['added', 'Added'], ['days', 'Days']],
      row: function(c) { return [c.ip, c.dns, {cls: 'domains', text: (c.domains || []).join('\n')}, c.ticket, c.expiration, c.added_iso, c.days]; }
    },
    domains: {
      fields: ['', 'domain', 'description'],
      columns: [['domain', 'Domain'], ['description', 'Description']],
      row: function(d) { return [d.domain, d.description]; }
    },
    ips: {
      fields: ['', 'ip_address', 'description'],
      columns: [['ip_address', 'IP address'], ['description', 'Description']],
      row: function(d) { return [d.ip_address, d.description]; }
    },
    templates: {
      fields: ['', 'name', 'description', 'domains'],
      columns: [['name', 'Name'], ['description', 'Description'], ['domains', 'Domains']],
      row: function(d) { return [d.name, d.description, {cls: 'domains', text: (d.domains || []).join('\n')}]; }
    }
  };

  var current = 'clients';
  var view = null;
  var selectedTemplates = [];
  g('apiKey').value = localStorage.getItem('wlconsole_api_key') || '';
  g('apiKey').onchange = function() { localStorage.setItem('wlconsole_api_key', this.value); refresh(); };

  function headers(json) {
    var h = {};
    var key = g('apiKey').value;
    if (key) h['Authorization'] = 'Bearer ' + key;
    if (json) h['Content-Type'] = 'application/json';
    return h;
  }

  function api(method, path, body) {
    var opts = {method: method, headers: headers(body !== undefined)};
    if (body !== undefined) opts.body = JSON.stringify(body);
    return fetch(path, opts).then(function(resp) {
      return resp.json().then(function(data) {
        if (!resp.ok) throw new Error(data.error || ('HTTP ' + resp.status));
        return data;
      });
    });
  }

  function base() { return current === 'clients' ? '/api/clients' : '/api/whitelist'; }
  function screen() { return current === 'clients' ? screens.clients : screens[view ? view.tab : 'domains']; }
  function page() {
    if (!view) return null;
    if (current === 'clients') return view.page;
    return view[view.tab];
  }

  function alertError(err) { window.alert(err.message); }

  function show(v) {
    if (v && v.view) v = v.view;
    view = v;
    render();
    pollNotifications();
  }

  function act(method, path, body) {
    return api(method, base() + path, body).then(show).catch(alertError);
  }

  function refresh() { return api('GET', base()).then(show).catch(alertError); }

  // --- Rendering ---
  function render() {
    var sc = screen();
    var p = page() || {items: []};
    var st = view ? view.state : {};

    g('tabs').classList.toggle('hidden', current !== 'whitelist');
    g('wlTools').classList.toggle('hidden', current !== 'whitelist');
    document.querySelectorAll('.tabs button').forEach(function(b) {
      b.classList.toggle('active', view && b.dataset.tab === view.tab);
    });

    var field = g('field');
    if (field.dataset.screen !== current + (view ? view.tab : '')) {
      field.innerHTML = '';
      sc.fields.forEach(function(f) {
        var o = document.createElement('option');
        o.value = f;
        o.textContent = f || 'all fields';
        field.appendChild(o);
      });
      field.dataset.screen = current + (view ? view.tab : '');
    }
    field.value = st.field || sc.fields[0];
    if (document.activeElement !== g('search')) g('search').value = st.query || '';
    g('pageSize').value = String(st.page_size || 10);

    var head = '<tr><th><input type="checkbox" id="selAll"></th>';
    sc.columns.forEach(function(c) {
      var arrow = c[0] && st.sort_key === c[0] ? '<span class="arrow">' + (st.ascending ? ' ▲' : ' ▼') + '</span>' : '';
      head += '<th' + (c[0] ? ' data-key="' + c[0] + '"' : '') + '>' + c[1] + arrow + '</th>';
    });
    g('thead').innerHTML = head + '<th></th></tr>';

    var sel = view ? view.selection : {selected: [], header: 'unchecked'};
    var selAll = g('selAll');
    selAll.checked = sel.header === 'checked';
    selAll.indeterminate = sel.header === 'indeterminate';
    selAll.onchange = function() { act('POST', '/select-all', {checked: this.checked}); };

    var tbody = g('tbody');
    tbody.innerHTML = '';
    (p.items || []).forEach(function(item) {
      var id = String(item.id);
      var tr = document.createElement('tr');
      var cb = document.createElement('input');
      cb.type = 'checkbox';
      cb.checked = (sel.selected || []).indexOf(id) >= 0;
      cb.onchange = function() { act('POST', '/select', {id: id, checked: cb.checked}); };
      var td = document.createElement('td');
      td.appendChild(cb);
      tr.appendChild(td);
      sc.row(item).forEach(function(cell) {
        var c = document.createElement('td');
        if (cell && typeof cell === 'object') { c.className = cell.cls; c.textContent = cell.text; }
        else c.textContent = cell == null ? '' : cell;
        tr.appendChild(c);
      });
      var ops = document.createElement('td');
      ops.appendChild(button('Edit', function() { openForm('edit', id); }));
      if (current === 'clients') ops.appendChild(button('Clone', function() { openForm('clone', id); }));
      ops.appendChild(button('Delete', function() {
        if (window.confirm('Delete this entry?')) act('DELETE', '/' + id);
      }));
      tr.appendChild(ops);
      tbody.appendChild(tr);
    });

    g('label').textContent = view ? view.label : '';
    g('selCount').textContent = sel.count ? sel.count + ' selected' : '';
    g('prevBtn').disabled = !p.page || p.page <= 1;
    g('nextBtn').disabled = !p.page || p.page >= p.total_pages;

    document.querySelectorAll('th[data-key]').forEach(function(th) {
      th.onclick = function() { act('POST', '/sort', {key: th.dataset.key}); };
    });
  }

  function button(text, fn) {
    var b = document.createElement('button');
    b.textContent = text;
    b.onclick = fn;
    return b;
  }

  // --- Toolbar ---
  var searchTimer = null;
  g('search').oninput = function() {
    clearTimeout(searchTimer);
    searchTimer = setTimeout(function() {
      act('POST', '/search', {query: g('search').value, field: g('field').value});
    }, 250);
  };
  g('field').onchange = function() { act('POST', '/search', {query: g('search').value, field: this.value}); };
  g('resetBtn').onclick = function() { act('POST', '/reset'); };
  g('prevBtn').onclick = function() { act('POST', '/prev'); };
  g('nextBtn').onclick = function() { act('POST', '/next'); };
  g('pageSize').onchange = function() { act('POST', '/page-size', {size: parseInt(this.value, 10)}); };

  g('bulkBtn').onclick = function() {
    api('POST', base() + '/bulk-delete').then(function(res) {
      var text = window.prompt('Delete ' + res.pending + ' item(s)? Type "confirm" to proceed.');
      if (text === null) return act('DELETE', '/bulk-delete');
      return act('POST', '/bulk-delete/confirm', {confirm: text});
    }).catch(alertError);
  };

  document.querySelectorAll('.nav button').forEach(function(b) {
    b.onclick = function() {
      current = b.dataset.screen;
      document.querySelectorAll('.nav button').forEach(function(x) { x.classList.toggle('active', x === b); });
      view = null;
      refresh();
    };
  });
  document.querySelectorAll('.tabs button').forEach(function(b) {
    b.onclick = function() { api('POST', '/api/whitelist/tab', {tab: b.dataset.tab}).then(show).catch(alertError); };
  });

  g('importBtn').onclick = function() {
    var f = g('importFile').files[0];
    if (!f) { window.alert('Please choose a file to import.'); return; }
    var data = new FormData();
    data.append('file', f);
    if (g('importOverwrite').checked) data.append('overwrite', 'on');
    fetch('/api/whitelist/import', {method: 'POST', headers: headers(false), body: data})
      .then(function(resp) { return resp.json(); })
      .then(function(res) { g('importFile').value = ''; show(res); })
      .catch(alertError);
  };
  g('exportBtn').onclick = function() {
    fetch('/api/whitelist/export', {headers: headers(false)}).then(function(resp) {
      if (!resp.ok) throw new Error('Export failed');
      var name = 'export';
      var cd = resp.headers.get('Content-Disposition') || '';
      var m = cd.match(/filename="([^"]+)"/);
      if (m) name = m[1];
      return resp.blob().then(function(blob) {
        var a = document.createElement('a');
        a.href = URL.createObjectURL(blob);
        a.download = name;
        a.click();
        URL.revokeObjectURL(a.href);
      });
    }).catch(alertError);
  };

  // --- Dialogs ---
  g('addBtn').onclick = function() { openForm('add', ''); };

  function openForm(mode, id) {
    api('POST', base() + '/form', {mode: mode, id: id}).then(function(fv) {
      if (current === 'clients') { fillClient(fv); loadTemplates(); g('clientOverlay').classList.add('open'); }
      else { fillWhitelist(fv); g('wlOverlay').classList.add('open'); }
    }).catch(alertError);
  }

  function fillClient(fv) {
    var d = fv.draft;
    g('clientTitle').textContent = fv.title;
    g('cIP').value = d.ip; g('cDNS').value = d.dns; g('cDomains').value = d.domains;
    g('cExp').value = d.expiration; g('cTicket').value = d.ticket; g('cNotes').value = d.notes;
    g('cAny').checked = fv.unrestricted;
    g('cDomains').disabled = fv.unrestricted;
  }

  function clientDraft() {
    return {ip: g('cIP').value, dns: g('cDNS').value, domains: g('cDomains').value,
      expiration: g('cExp').value, ticket: g('cTicket').value, notes: g('cNotes').value};
  }

  function syncClient() { return api('PUT', '/api/clients/form', clientDraft()); }

  g('cIP').onblur = function() {
    syncClient().then(function() { return api('POST', '/api/clients/form/auto-lookup'); })
      .then(function(res) { fillClient(res.form); }).catch(function() {});
  };
  g('lookupBtn').onclick = function() {
    syncClient().then(function() { return api('POST', '/api/clients/form/lookup'); })
      .then(function(res) { fillClient(res.form); }).catch(alertError);
  };
  g('cAny').onchange = function() {
    var on = this.checked;
    syncClient().then(function() { return api('POST', '/api/clients/form/unrestricted', {on: on}); })
      .then(fillClient).catch(alertError);
  };
  document.querySelectorAll('[data-days]').forEach(function(b) {
    b.onclick = function() {
      syncClient().then(function() { return api('POST', '/api/clients/form/add-days', {days: parseInt(b.dataset.days, 10)}); })
        .then(fillClient).catch(alertError);
    };
  });

  function loadTemplates() {
    var q = '?search=' + encodeURIComponent(g('tplSearch').value);
    selectedTemplates.forEach(function(n) { q += '&selected=' + encodeURIComponent(n); });
    api('GET', '/api/clients/templates' + q).then(function(p) {
      var list = g('tplList');
      list.innerHTML = '';
      (p.names || []).forEach(function(name) {
        var l = document.createElement('label');
        var cb = document.createElement('input');
        cb.type = 'checkbox';
        cb.checked = selectedTemplates.indexOf(name) >= 0;
        cb.onchange = function() {
          if (cb.checked) selectedTemplates.push(name);
          else selectedTemplates = selectedTemplates.filter(function(n) { return n !== name; });
        };
        l.appendChild(cb);
        l.appendChild(document.createTextNode(' ' + name + ' (' + (p.groups[name] || []).length + ')'));
        list.appendChild(l);
      });
    }).catch(function() {});
  }
  g('tplSearch').oninput = loadTemplates;
  g('tplApply').onclick = function() {
    syncClient().then(function() { return api('POST', '/api/clients/form/templates', {selected: selectedTemplates}); })
      .then(fillClient).catch(alertError);
  };

  g('clientCancel').onclick = function() {
    api('DELETE', '/api/clients/form').catch(function() {});
    selectedTemplates = [];
    g('clientOverlay').classList.remove('open');
  };
  g('clientSave').onclick = function() {
    syncClient().then(function() { return api('POST', '/api/clients/form/submit'); }).then(function(res) {
      if (res.type !== 'error') { selectedTemplates = []; g('clientOverlay').classList.remove('open'); }
      show(res);
    }).catch(function(err) { pollNotifications(); alertError(err); });
  };

  function fillWhitelist(fv) {
    var d = fv.draft;
    var tpl = fv.resource === 'templates';
    g('wlTitle').textContent = fv.title;
    g('wlValueRow').classList.toggle('hidden', tpl);
    g('wlTplRows').classList.toggle('hidden', !tpl);
    g('wlValueLabel').textContent = fv.resource === 'ips' ? 'IP address' : 'Domain';
    g('wValue').value = d.value; g('wDesc').value = d.description;
    g('wName').value = d.template_name; g('wDomains').value = d.template_domains;
  }

  g('wlCancel').onclick = function() {
    api('DELETE', '/api/whitelist/form').catch(function() {});
    g('wlOverlay').classList.remove('open');
  };
  g('wlSave').onclick = function() {
    var d = {value: g('wValue').value, description: g('wDesc').value,
      template_name: g('wName').value, template_domains: g('wDomains').value};
    api('PUT', '/api/whitelist/form', d).then(function() { return api('POST', '/api/whitelist/form/submit'); }).then(function(res) {
      if (res.type !== 'error') g('wlOverlay').classList.remove('open');
      show(res);
    }).catch(function(err) { pollNotifications(); alertError(err); });
  };

  // --- Notifications & stats ---
  var shown = {};
  function pollNotifications() {
    api('GET', '/api/notifications').then(function(items) {
      var stack = g('toasts');
      var live = {};
      (items || []).forEach(function(n) {
        live[n.id] = true;
        if (shown[n.id]) return;
        var el = document.createElement('div');
        el.className = 'toast toast-' + n.type;
        el.textContent = n.message;
        el.onclick = function() { api('DELETE', '/api/notifications/' + n.id).catch(function() {}); el.remove(); delete shown[n.id]; };
        stack.appendChild(el);
        shown[n.id] = el;
      });
      Object.keys(shown).forEach(function(id) {
        if (!live[id]) { shown[id].remove(); delete shown[id]; }
      });
    }).catch(function() {});
  }

  function pollStats() {
    api('GET', '/api/stats').then(function(s) {
      g('stats').classList.toggle('down', s.status === 'unreachable');
      if (!s.last_success || s.last_success.indexOf('0001-') === 0) return;
      g('cpu').textContent = s.cpu_percent.toFixed(1) + '%';
      g('ram').textContent = s.ram_percent.toFixed(1) + '%';
      g('bw').textContent = s.bandwidth || (s.bandwidth_mbps.toFixed(2) + ' Mbps');
    }).catch(function() {});
  }

  refresh();
  pollStats();
  setInterval(pollStats, 5000);
  setInterval(pollNotifications, 1000);
})();
</script>
</body>
</html>
`
