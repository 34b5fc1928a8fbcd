package fetch

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// TLSPolicy mirrors the per-source ssl knobs: verify strictly by
// default, optionally trust a custom CA bundle, and only with an
// explicit opt-in retry unverified after a verification failure.
type TLSPolicy struct {
	// skips certificate verification entirely. only honored together
	// with InsecureFallback gating; left here for completeness of the
	// config surface.
	SkipVerify bool `json:"skip_verify"`
	// path to a PEM bundle to use as the root CA pool.
	CABundle string `json:"ca_bundle"`
	// retry a request without verification after a TLS verification
	// failure. never enabled by default.
	InsecureFallback bool `json:"insecure_fallback"`
}

func (p TLSPolicy) config(insecure bool) (*tls.Config, error) {
	if insecure || p.SkipVerify {
		return &tls.Config{InsecureSkipVerify: true}, nil
	}
	if p.CABundle == "" {
		return &tls.Config{}, nil
	}

	pem, err := os.ReadFile(p.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca bundle: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("ca bundle %s contains no usable certificates", p.CABundle)
	}
	return &tls.Config{RootCAs: pool}, nil
}

// TLSVerificationError is the error kind surfaced when certificate
// verification fails and the unverified fallback is not enabled. It is
// distinct from other transport failures so callers can tell the two
// apart.
type TLSVerificationError struct {
	URL string
	Err error
}

func (e *TLSVerificationError) Error() string {
	return fmt.Sprintf("tls verification failed for %s: %s", e.URL, e.Err)
}

func (e *TLSVerificationError) Unwrap() error {
	return e.Err
}

func isTLSVerificationFailure(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var hostname x509.HostnameError
	if errors.As(err, &hostname) {
		return true
	}
	var invalid x509.CertificateInvalidError
	return errors.As(err, &invalid)
}
