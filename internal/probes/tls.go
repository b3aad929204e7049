package probes

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// TLSProbe checks whether a TLS handshake on port 443 succeeds with the
// default trust store. No further chain validation: the feature is "has a
// working certificate", and any failure mode (timeout, refused, hostname
// mismatch) collapses to 0.
type TLSProbe struct {
	Timeout time.Duration
}

func NewTLSProbe(timeout time.Duration) *TLSProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TLSProbe{Timeout: timeout}
}

func (p *TLSProbe) Check(ctx context.Context, host string) int {
	dialer := &net.Dialer{Timeout: p.Timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", net.JoinHostPort(host, "443"), &tls.Config{ServerName: host})
	if err != nil {
		return 0
	}
	defer conn.Close()

	if len(conn.ConnectionState().PeerCertificates) == 0 {
		return 0
	}
	return 1
}
