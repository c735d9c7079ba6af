package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// QueryBool returns nil when key is absent, otherwise whether it equals "true".
func QueryBool(r *http.Request, key string) *bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	b := strings.EqualFold(v, "true")
	return &b
}

// ClientIP keys a request by its remote host. X-Forwarded-For is read only
// when the remote host is a trusted proxy; the rightmost hop that is not a
// trusted proxy is the client.
func ClientIP(r *http.Request, trusted []netip.Prefix) string {
	client := remoteHost(r)
	if !isTrusted(client, trusted) {
		return client
	}
	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !isTrusted(hop, trusted) {
			return hop
		}
		client = hop
	}
	return client
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// ParsePrefixes reads a comma separated list of CIDRs or bare IPs. Invalid
// entries are returned separately so callers can report them.
func ParsePrefixes(list string) (prefixes []netip.Prefix, invalid []string) {
	for _, raw := range strings.Split(list, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if p, err := netip.ParsePrefix(raw); err == nil {
			prefixes = append(prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(raw); err == nil {
			a = a.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(a, a.BitLen()))
			continue
		}
		invalid = append(invalid, raw)
	}
	return prefixes, invalid
}
