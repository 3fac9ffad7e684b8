package entity

import "strings"

// AnyDomain is the reserved domain-list value meaning "no domain restriction".
const AnyDomain = "ANY"

// ClientRow is one proxy client as rendered by the backend's clients page.
type ClientRow struct {
	ID         string   `json:"id"`
	IP         string   `json:"ip"`
	DNS        string   `json:"dns"`
	Domains    []string `json:"domains"`
	Expiration string   `json:"expiration"`
	Ticket     string   `json:"ticket"`
	Notes      string   `json:"notes"`
	AddedISO   string   `json:"added_iso"`
	Days       string   `json:"days"`
}

// Unrestricted reports whether the client may reach any domain.
func (c ClientRow) Unrestricted() bool {
	return len(c.Domains) == 1 && c.Domains[0] == AnyDomain
}

// DomainText returns the domain list in the newline-separated form used by
// the client form.
func (c ClientRow) DomainText() string {
	return strings.Join(c.Domains, "\n")
}

// DomainEntry is a globally whitelisted domain.
type DomainEntry struct {
	ID          int    `json:"id"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
}

// IPEntry is a globally whitelisted IP address.
type IPEntry struct {
	ID          int    `json:"id"`
	IPAddress   string `json:"ip_address"`
	Description string `json:"description"`
}

// TemplateEntry is a named group of domains that can be merged into a
// client's domain list.
type TemplateEntry struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Domains     []string `json:"domains"`
}

// Snapshot is the whitelist payload injected into the whitelist page.
type Snapshot struct {
	Domains   []DomainEntry   `json:"domains"`
	IPs       []IPEntry       `json:"ips"`
	Templates []TemplateEntry `json:"templates"`
}

// SplitDomains turns newline-separated domain text into trimmed, non-empty lines.
func SplitDomains(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
