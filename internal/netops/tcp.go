package netops

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/MrWong99/netscout/internal/envelope"
)

// TCPResult is the classified outcome of a single TCP connect probe.
type TCPResult struct {
	// Open reports whether the connection was established.
	Open bool

	// ConnectTime is the time from dial start to established connection.
	// Only meaningful when Open is true.
	ConnectTime time.Duration

	// ErrCode classifies the failure when Open is false: one of timeout,
	// connection_failed, dns_resolution or unreachable.
	ErrCode envelope.ErrorCode

	// Err is the underlying dial error, nil on success.
	Err error
}

// ProbeTCP attempts a TCP connection to host:port bounded by timeout and
// classifies the outcome. The connection is closed immediately on success;
// the probe observes reachability, not protocol behaviour.
func ProbeTCP(ctx context.Context, host string, port int, timeout time.Duration) TCPResult {
	dialer := net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return TCPResult{ErrCode: ClassifyDialError(err), Err: err}
	}
	connectTime := time.Since(start)
	_ = conn.Close()

	return TCPResult{Open: true, ConnectTime: connectTime}
}

// ClassifyDialError maps a dial error onto the network error taxonomy.
func ClassifyDialError(err error) envelope.ErrorCode {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return envelope.CodeDNSResolution
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return envelope.CodeTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return envelope.CodeTimeout
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return envelope.CodeConnectionFailed
	}
	if errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return envelope.CodeUnreachable
	}

	return envelope.CodeConnectionFailed
}

// LocalAddrViaUDP reports the local interface address the OS would use to
// reach probeAddr, using the connected-UDP trick: no packet is sent, the
// kernel just selects a route and source address.
func LocalAddrViaUDP(probeAddr string) (string, error) {
	conn, err := net.Dial("udp", probeAddr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", errors.New("netops: unexpected local address type")
	}
	return localAddr.IP.String(), nil
}
