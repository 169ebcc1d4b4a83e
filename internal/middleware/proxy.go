package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ParseProxies разбирает адреса и подсети доверенных прокси
func ParseProxies(entries []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if ip := net.ParseIP(entry); ip != nil {
			bits := 8 * net.IPv4len
			if ip.To4() == nil {
				bits = 8 * net.IPv6len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, ipnet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		nets = append(nets, ipnet)
	}
	return nets, nil
}

// RealIP подставляет в RemoteAddr адрес клиента из X-Forwarded-For,
// если соединение пришло от доверенного прокси. Цепочка читается справа,
// клиентом считается первый адрес, не принадлежащий прокси.
func RealIP(trusted []*net.IPNet) func(http.Handler) http.Handler {
	if len(trusted) == 0 {
		return passthrough
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isTrusted(trusted, ClientIP(r)) {
				next.ServeHTTP(w, r)
				return
			}
			if ip := forwardedClient(trusted, r.Header.Values("X-Forwarded-For")); ip != "" {
				r = r.WithContext(r.Context())
				r.RemoteAddr = ip
			}
			next.ServeHTTP(w, r)
		})
	}
}

// forwardedClient возвращает ближайший к серверу адрес, не являющийся прокси
func forwardedClient(trusted []*net.IPNet, headers []string) string {
	var hops []string
	for _, header := range headers {
		for _, hop := range strings.Split(header, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}

	first := ""
	for i := len(hops) - 1; i >= 0; i-- {
		ip := net.ParseIP(hops[i])
		if ip == nil {
			// мусор в цепочке, дальше доверять нельзя
			return first
		}
		first = ip.String()
		if !isTrusted(trusted, first) {
			return first
		}
	}
	return first
}

func isTrusted(trusted []*net.IPNet, addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range trusted {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
