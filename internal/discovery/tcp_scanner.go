// internal/discovery/tcp_scanner.go
package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"label-service/internal/model"
)

// TCPScannerConfig configures the network probe
type TCPScannerConfig struct {
	NetworkRanges []string      `json:"network_ranges"`
	Ports         []int         `json:"ports"`
	DialTimeout   time.Duration `json:"dial_timeout"`
	Concurrency   int           `json:"concurrency"`
}

// TCPScanner walks configured CIDR ranges and probes the printer ports on
// every host. A host answering on 9100 becomes a raw-socket candidate; one
// answering on 21 becomes an FTP candidate.
type TCPScanner struct {
	logger *zap.Logger
	config *TCPScannerConfig
}

// NewTCPScanner creates a network scanner
func NewTCPScanner(logger *zap.Logger, config *TCPScannerConfig) *TCPScanner {
	if config == nil {
		config = &TCPScannerConfig{}
	}
	if len(config.Ports) == 0 {
		config.Ports = []int{9100, 21}
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 2 * time.Second
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 64
	}

	return &TCPScanner{
		logger: logger.With(zap.String("scanner", "tcp")),
		config: config,
	}
}

// ScannerType returns the scanner type identifier
func (s *TCPScanner) ScannerType() string {
	return "tcp"
}

// IsAvailable reports whether network scanning can run
func (s *TCPScanner) IsAvailable() bool {
	return len(s.config.NetworkRanges) > 0
}

// Scan probes every host in the configured ranges
func (s *TCPScanner) Scan(ctx context.Context) ([]*Candidate, error) {
	s.logger.Info("Starting network scan",
		zap.Strings("ranges", s.config.NetworkRanges),
		zap.Ints("ports", s.config.Ports),
	)
	startTime := time.Now()

	var hosts []string
	for _, cidr := range s.config.NetworkRanges {
		expanded, err := ExpandCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid network range %q: %w", cidr, err)
		}
		hosts = append(hosts, expanded...)
	}

	type probe struct {
		host string
		port int
	}

	probes := make(chan probe)
	results := make(chan *Candidate)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range probes {
				if c := s.probeHost(ctx, p.host, p.port); c != nil {
					results <- c
				}
			}
		}()
	}

	go func() {
		defer close(probes)
		for _, host := range hosts {
			for _, port := range s.config.Ports {
				select {
				case probes <- probe{host, port}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var discovered []*Candidate
	for c := range results {
		discovered = append(discovered, c)
	}

	s.logger.Info("Network scan completed",
		zap.Int("hosts_probed", len(hosts)),
		zap.Int("printers_found", len(discovered)),
		zap.Duration("scan_duration", time.Since(startTime)),
	)
	return discovered, ctx.Err()
}

func (s *TCPScanner) probeHost(ctx context.Context, host string, port int) *Candidate {
	d := net.Dialer{Timeout: s.config.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil
	}
	conn.Close()

	s.logger.Debug("Host answered", zap.String("host", host), zap.Int("port", port))

	connType := model.ConnectionTypeTCP
	confidence := 0.7
	if port == 21 {
		connType = model.ConnectionTypeFTP
		confidence = 0.5
	}

	return &Candidate{
		ConnectionType: connType,
		ConnectionConfig: model.ConnectionConfig{
			Host: host,
			Port: port,
		},
		Confidence: confidence,
		Source:     "tcp",
	}
}

// ExpandCIDR lists the host addresses of an IPv4 network, excluding the
// network and broadcast addresses for prefixes shorter than /31
func ExpandCIDR(cidr string) ([]string, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	ip = ip.To4()
	if ip == nil {
		return nil, fmt.Errorf("not an IPv4 network: %s", cidr)
	}

	ones, bits := ipnet.Mask.Size()
	if bits != 32 {
		return nil, fmt.Errorf("not an IPv4 network: %s", cidr)
	}

	var hosts []string
	for cur := ip.Mask(ipnet.Mask); ipnet.Contains(cur); cur = nextIP(cur) {
		hosts = append(hosts, cur.String())
	}

	// Drop network and broadcast addresses
	if ones < 31 && len(hosts) > 2 {
		hosts = hosts[1 : len(hosts)-1]
	}
	return hosts, nil
}

func nextIP(ip net.IP) net.IP {
	next := make(net.IP, len(ip))
	copy(next, ip)
	for i := len(next) - 1; i >= 0; i-- {
		next[i]++
		if next[i] != 0 {
			break
		}
	}
	return next
}
