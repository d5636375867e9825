package probe

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// CertPayload describes the presented certificate chain.
type CertPayload struct {
	Subject         string   `json:"subject"`
	Issuer          string   `json:"issuer"`
	NotBefore       string   `json:"not_before"`
	NotAfter        string   `json:"not_after"`
	DaysUntilExpiry int      `json:"days_until_expiry"`
	DNSNames        []string `json:"dns_names,omitempty"`
	SerialNumber    string   `json:"serial_number"`
	SignatureAlg    string   `json:"signature_algorithm"`
	FingerprintSHA  string   `json:"fingerprint_sha256"`
	SelfSigned      bool     `json:"self_signed"`
	Expired         bool     `json:"expired"`
	ChainLength     int      `json:"chain_length"`
	Warnings        []string `json:"warnings,omitempty"`
}

// CertProber opens a TLS connection and extracts certificate fields.
// A chain that fails verification (expired, self-signed, wrong host) is
// still retrieved and reported as a partial success with warnings.
type CertProber struct {
	Timeout time.Duration
	Port    string // default "443"
}

func (c *CertProber) Kind() Kind { return KindCertificate }

func (c *CertProber) Probe(ctx context.Context, target Target) Result {
	port := c.Port
	if port == "" {
		port = "443"
	}
	if target.Port != "" {
		port = target.Port
	}
	addr := net.JoinHostPort(target.Host, port)

	chain, warnings, err := fetchChain(ctx, addr, target.Host, c.Timeout)
	if err != nil {
		return failedResult(KindCertificate, fmt.Errorf("tls handshake failed: %w", err))
	}
	if len(chain) == 0 {
		return failedResult(KindCertificate, errors.New("server presented no certificates"))
	}

	payload := describeCert(chain[0], len(chain))
	payload.Warnings = warnings
	if payload.Expired {
		payload.Warnings = append(payload.Warnings, "certificate is expired")
	}
	if payload.SelfSigned {
		payload.Warnings = append(payload.Warnings, "certificate is self-signed")
	}

	res := Result{Status: StatusSuccess, Cert: payload}
	if len(payload.Warnings) > 0 {
		res.Status = StatusPartial
	}
	return res
}

// fetchChain performs a verifying handshake first and falls back to an
// insecure handshake when verification is the only failure, so expired
// or self-signed chains are still inspectable.
func fetchChain(ctx context.Context, addr, serverName string, timeout time.Duration) ([]*x509.Certificate, []string, error) {
	dial := func(insecure bool) ([]*x509.Certificate, error) {
		dialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: timeout},
			Config: &tls.Config{
				ServerName:         serverName,
				InsecureSkipVerify: insecure,
			},
		}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		return conn.(*tls.Conn).ConnectionState().PeerCertificates, nil
	}

	chain, err := dial(false)
	if err == nil {
		return chain, nil, nil
	}
	verifyErr := err

	if !isVerificationError(verifyErr) {
		return nil, nil, verifyErr
	}

	chain, err = dial(true)
	if err != nil {
		return nil, nil, verifyErr
	}
	return chain, []string{classifyVerifyError(verifyErr)}, nil
}

func isVerificationError(err error) bool {
	var (
		invalidErr  x509.CertificateInvalidError
		unknownErr  x509.UnknownAuthorityError
		hostnameErr x509.HostnameError
		certErr     *tls.CertificateVerificationError
	)
	return errors.As(err, &certErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &unknownErr) ||
		errors.As(err, &hostnameErr)
}

func classifyVerifyError(err error) string {
	var invalidErr x509.CertificateInvalidError
	if errors.As(err, &invalidErr) && invalidErr.Reason == x509.Expired {
		return "chain verification failed: certificate expired"
	}
	var unknownErr x509.UnknownAuthorityError
	if errors.As(err, &unknownErr) {
		return "chain verification failed: unknown certificate authority"
	}
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) {
		return "chain verification failed: certificate not valid for this host"
	}
	return "chain verification failed: " + err.Error()
}

func describeCert(cert *x509.Certificate, chainLen int) *CertPayload {
	sum := sha256.Sum256(cert.Raw)
	return &CertPayload{
		Subject:         cert.Subject.String(),
		Issuer:          cert.Issuer.String(),
		NotBefore:       cert.NotBefore.Format(time.RFC3339),
		NotAfter:        cert.NotAfter.Format(time.RFC3339),
		DaysUntilExpiry: int(time.Until(cert.NotAfter).Hours() / 24),
		DNSNames:        cert.DNSNames,
		SerialNumber:    cert.SerialNumber.String(),
		SignatureAlg:    cert.SignatureAlgorithm.String(),
		FingerprintSHA:  formatFingerprint(sum[:]),
		SelfSigned:      cert.Subject.String() == cert.Issuer.String(),
		Expired:         time.Now().After(cert.NotAfter),
		ChainLength:     chainLen,
	}
}

func formatFingerprint(sum []byte) string {
	hexed := hex.EncodeToString(sum)
	parts := make([]string, 0, len(hexed)/2)
	for i := 0; i+1 < len(hexed); i += 2 {
		parts = append(parts, hexed[i:i+2])
	}
	return strings.ToUpper(strings.Join(parts, ":"))
}
