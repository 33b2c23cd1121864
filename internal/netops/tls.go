package netops

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"net"
	"strconv"
	"time"
)

// CertSummary is the extracted summary of a server TLS certificate.
type CertSummary struct {
	Subject            string    `json:"subject"`
	Issuer             string    `json:"issuer"`
	SerialNumber       string    `json:"serial_number"`
	NotBefore          time.Time `json:"not_before"`
	NotAfter           time.Time `json:"not_after"`
	DNSNames           []string  `json:"dns_names"`
	SignatureAlgorithm string    `json:"signature_algorithm"`
	KeyBits            int       `json:"key_bits"`
	SelfSigned         bool      `json:"self_signed"`
	DaysUntilExpiry    int       `json:"days_until_expiry"`
}

// PeekTLS opens a TLS session to host:port, captures the peer certificate
// summary, and closes the connection. Verification is skipped so expired and
// self-signed certificates can still be inspected; the protocol floor is
// TLS 1.2.
func PeekTLS(ctx context.Context, host string, port int, timeout time.Duration) (*CertSummary, string, error) {
	dialer := &net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		// Inspection, not trust: the probe reports on whatever the server
		// presents, including broken chains.
		InsecureSkipVerify: true,
		MinVersion:         tls.VersionTLS12,
		ServerName:         host,
	})
	if err != nil {
		return nil, "", err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, tls.VersionName(state.Version), net.ErrClosed
	}

	return summarizeCert(state.PeerCertificates[0]), tls.VersionName(state.Version), nil
}

// summarizeCert converts an x509 certificate to its probe summary.
func summarizeCert(cert *x509.Certificate) *CertSummary {
	return &CertSummary{
		Subject:            cert.Subject.String(),
		Issuer:             cert.Issuer.String(),
		SerialNumber:       cert.SerialNumber.String(),
		NotBefore:          cert.NotBefore,
		NotAfter:           cert.NotAfter,
		DNSNames:           cert.DNSNames,
		SignatureAlgorithm: cert.SignatureAlgorithm.String(),
		KeyBits:            publicKeyBits(cert),
		SelfSigned:         cert.Subject.String() == cert.Issuer.String(),
		DaysUntilExpiry:    int(time.Until(cert.NotAfter).Hours() / 24),
	}
}

// publicKeyBits reports the certificate's public key size in bits, or 0 for
// unrecognized key types.
func publicKeyBits(cert *x509.Certificate) int {
	switch key := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return key.N.BitLen()
	case *ecdsa.PublicKey:
		return key.Curve.Params().BitSize
	case ed25519.PublicKey:
		return len(key) * 8
	default:
		return 0
	}
}
