package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"net/netip"

	"github.com/go-chi/chi/v5"

	"github.com/pct1089547896/games-marketplace-sub000/pkg/httputil"
)

// RegisterPprof mounts the profiling endpoints under /debug/pprof. Only peers
// inside allowedCIDRs reach them; an empty list closes them entirely.
func RegisterPprof(r chi.Router, allowedCIDRs []string, logger *slog.Logger) {
	r.Route("/debug/pprof", func(r chi.Router) {
		r.Use(IPAllowlist(allowedCIDRs, logger))
		r.HandleFunc("/cmdline", pprof.Cmdline)
		r.HandleFunc("/profile", pprof.Profile)
		r.HandleFunc("/symbol", pprof.Symbol)
		r.HandleFunc("/trace", pprof.Trace)
		r.HandleFunc("/*", pprof.Index)
	})
}

// ParseCIDRs parses cidrs into prefixes and returns the entries it rejected.
func ParseCIDRs(cidrs []string) (prefixes []netip.Prefix, invalid []string) {
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(c)
		if err != nil {
			invalid = append(invalid, c)
			continue
		}
		prefixes = append(prefixes, p.Masked())
	}
	return prefixes, invalid
}

// IPAllowlist admits only peers inside one of cidrs. Malformed CIDRs are
// logged and ignored.
func IPAllowlist(cidrs []string, logger *slog.Logger) func(http.Handler) http.Handler {
	prefixes, invalid := ParseCIDRs(cidrs)
	for _, c := range invalid {
		logger.Warn("ignoring invalid allowlist CIDR", slog.String("cidr", c))
	}

	allowed := func(addr netip.Addr) bool {
		for _, p := range prefixes {
			if p.Contains(addr) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := peerAddr(r.RemoteAddr)
			if ok && allowed(addr) {
				next.ServeHTTP(w, r)
				return
			}
			logger.Warn("blocked by ip allowlist",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("path", r.URL.Path),
			)
			httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "access restricted by IP allowlist"},
			})
		})
	}
}

// peerAddr extracts the peer address, accepting both host:port and a bare
// host. IPv4-mapped IPv6 addresses are unmapped so v4 prefixes match them.
func peerAddr(remote string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
