package server

import (
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/mdns"
)

const defaultMDNSService = "_jobdash-ui._tcp"

// startMDNSAdvertiser publishes the dashboard address and returns a function
// that withdraws it. Setup failures are logged and advertising is skipped.
func startMDNSAdvertiser(serverAddr, service, instance, version string) func() {
	port, err := strconv.Atoi(listenPortFromAddr(serverAddr))
	if err != nil || port <= 0 {
		slog.Warn("mdns advertise skipped; no usable port", "addr", serverAddr)
		return func() {}
	}
	if strings.TrimSpace(service) == "" {
		service = defaultMDNSService
	}
	instance = advertiseInstance(instance)

	meta := []string{
		"name=jobdash",
		"scheme=http",
		"path=/",
		"version=" + version,
	}
	zone, err := mdns.NewMDNSService(instance, service, "", "", port, discoverAdvertiseIPs(), meta)
	if err != nil {
		slog.Error("mdns advertise service setup failed", "error", err)
		return func() {}
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		slog.Error("mdns advertise start failed", "error", err)
		return func() {}
	}
	slog.Info("mdns advertising enabled", "service", service, "instance", instance, "port", port)

	return func() {
		server.Shutdown()
	}
}

func advertiseInstance(instance string) string {
	if instance = strings.TrimSpace(instance); instance != "" {
		return instance
	}
	host, _ := os.Hostname()
	if host = strings.TrimSpace(host); host == "" {
		return "jobdash"
	}
	return "jobdash-" + host
}

func discoverAdvertiseIPs() []net.IP {
	ifAddrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	return filterAdvertiseIPs(ifAddrs)
}

// filterAdvertiseIPs keeps routable unicast addresses, IPv4 first.
func filterAdvertiseIPs(addrs []net.Addr) []net.IP {
	seen := map[string]struct{}{}
	var out []net.IP
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet == nil || ipNet.IP == nil {
			continue
		}
		ip := ipNet.IP
		if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			continue
		}
		key := ip.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, ip.To16())
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := out[i].To4() != nil, out[j].To4() != nil
		if ai != aj {
			return ai
		}
		return out[i].String() < out[j].String()
	})
	return out
}

func listenPortFromAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = defaultListenAddr
	}
	if !strings.Contains(addr, ":") {
		return addr
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return ""
	}
	return port
}
