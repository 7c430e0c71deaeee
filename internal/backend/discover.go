package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const DefaultService = "_jobdash._tcp"

var ErrNoBackendFound = errors.New("no backend answered mdns query")

type DiscoverOptions struct {
	Service string
	Domain  string
	Timeout time.Duration
}

// Candidate is a backend instance found on the local network.
type Candidate struct {
	Name string
	Host string
	Addr net.IP
	Port int
	URL  string
}

// Discover browses mDNS for the backend service and returns the preferred
// responder: IPv4 before IPv6, then by instance name.
func Discover(ctx context.Context, opts DiscoverOptions) (Candidate, error) {
	if opts.Service == "" {
		opts.Service = DefaultService
	}
	if opts.Domain == "" {
		opts.Domain = "local"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < opts.Timeout {
			opts.Timeout = left
		}
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	var found []*mdns.ServiceEntry
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			found = append(found, entry)
		}
	}()

	params := mdns.DefaultParams(opts.Service)
	params.Domain = opts.Domain
	params.Timeout = opts.Timeout
	params.Entries = entries
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return Candidate{}, fmt.Errorf("query mdns %s: %w", opts.Service, err)
	}
	if ctx.Err() != nil {
		return Candidate{}, ctx.Err()
	}

	candidate, ok := pickCandidate(found)
	if !ok {
		return Candidate{}, fmt.Errorf("%w: service=%s", ErrNoBackendFound, opts.Service)
	}
	slog.Info("backend discovered via mdns", "service", opts.Service, "name", candidate.Name, "url", candidate.URL)
	return candidate, nil
}

func pickCandidate(entries []*mdns.ServiceEntry) (Candidate, bool) {
	var out []Candidate
	for _, entry := range entries {
		if c, ok := candidateFromEntry(entry); ok {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return Candidate{}, false
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai := out[i].Addr != nil && out[i].Addr.To4() != nil
		aj := out[j].Addr != nil && out[j].Addr.To4() != nil
		if ai != aj {
			return ai
		}
		return out[i].Name < out[j].Name
	})
	return out[0], true
}

func candidateFromEntry(entry *mdns.ServiceEntry) (Candidate, bool) {
	if entry == nil || entry.Port <= 0 {
		return Candidate{}, false
	}
	c := Candidate{
		Name: entry.Name,
		Host: strings.TrimSuffix(entry.Host, "."),
		Port: entry.Port,
	}
	switch {
	case entry.AddrV4 != nil:
		c.Addr = entry.AddrV4
	case entry.AddrV6 != nil:
		c.Addr = entry.AddrV6
	}
	host := c.Host
	if c.Addr != nil {
		host = c.Addr.String()
	}
	if host == "" {
		return Candidate{}, false
	}
	scheme := "http"
	path := ""
	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "scheme":
			if v := strings.TrimSpace(value); v == "https" || v == "http" {
				scheme = v
			}
		case "path":
			path = "/" + strings.Trim(strings.TrimSpace(value), "/")
			if path == "/" {
				path = ""
			}
		}
	}
	c.URL = scheme + "://" + net.JoinHostPort(host, strconv.Itoa(c.Port)) + path
	return c, true
}
