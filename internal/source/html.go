package source

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/wlconsole/wlconsole/internal/entity"
)

const (
	clientRowClass  = "client-row"
	whitelistDataID = "whitelist-data"
	attrPrefix      = "data-"
)

// ParseClientRows reads every element carrying the client-row class and maps
// its data attributes onto a ClientRow. Rows keep document order.
func ParseClientRows(r io.Reader) ([]entity.ClientRow, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing clients page: %w", err)
	}

	var rows []entity.ClientRow
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, clientRowClass) {
			rows = append(rows, ClientRowFromDataset(dataset(n)))
			return false
		}
		return true
	})
	return rows, nil
}

// ClientRowFromDataset builds a ClientRow from data attribute values keyed
// without their "data-" prefix (ip, dns, urls, ...).
func ClientRowFromDataset(ds map[string]string) entity.ClientRow {
	return entity.ClientRow{
		ID:         ds["id"],
		IP:         ds["ip"],
		DNS:        ds["dns"],
		Domains:    parseURLs(ds["urls"]),
		Expiration: ds["expiration"],
		Ticket:     ds["ticket"],
		Notes:      ds["notes"],
		AddedISO:   ds["added-iso"],
		Days:       ds["days"],
	}
}

// parseURLs decodes data-urls, which is either a JSON array, a JSON string,
// or a bare newline-separated string.
func parseURLs(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return entity.SplitDomains(strings.Join(list, "\n"))
	}

	var single string
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		return entity.SplitDomains(single)
	}

	if strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "{") {
		slog.Warn("malformed data-urls attribute", "value", raw)
		return nil
	}
	return entity.SplitDomains(raw)
}

// ParseWhitelistData extracts the whitelist snapshot embedded in the
// whitelist-data script tag. A missing tag or malformed JSON yields an empty
// snapshot; each collection falls back to empty on its own.
func ParseWhitelistData(r io.Reader) entity.Snapshot {
	doc, err := html.Parse(r)
	if err != nil {
		slog.Error("error parsing whitelist page", "err", err)
		return entity.Snapshot{}
	}

	var payload string
	found := false
	walk(doc, func(n *html.Node) bool {
		if found {
			return false
		}
		if n.Type == html.ElementNode && n.Data == "script" && attr(n, "id") == whitelistDataID {
			payload = textContent(n)
			found = true
			return false
		}
		return true
	})
	if !found {
		slog.Warn("whitelist data element not found")
		return entity.Snapshot{}
	}
	return DecodeSnapshot([]byte(payload))
}

// DecodeSnapshot decodes a whitelist JSON payload. Fields that are absent or
// not arrays of the expected shape are left empty.
func DecodeSnapshot(data []byte) entity.Snapshot {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		slog.Error("error parsing whitelist data", "err", err)
		return entity.Snapshot{}
	}

	var snap entity.Snapshot
	decodeField(fields, "domains", &snap.Domains)
	decodeField(fields, "ips", &snap.IPs)
	decodeField(fields, "templates", &snap.Templates)
	return snap
}

func decodeField[T any](fields map[string]json.RawMessage, key string, dst *[]T) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		slog.Warn("ignoring malformed whitelist field", "field", key, "err", err)
		*dst = nil
	}
}

// walk visits n and its descendants depth-first. Returning false from visit
// skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func dataset(n *html.Node) map[string]string {
	ds := make(map[string]string)
	for _, a := range n.Attr {
		if strings.HasPrefix(a.Key, attrPrefix) {
			ds[strings.TrimPrefix(a.Key, attrPrefix)] = a.Val
		}
	}
	return ds
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}
