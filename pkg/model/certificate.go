package model

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// ErrNoCertificate is returned when a PEM bundle holds no certificate.
var ErrNoCertificate = errors.New("no certificate in PEM data")

// Credential is a signed certificate chain.
type Credential struct {
	Date           NanoTime `json:"date,omitempty"`
	CertificatePEM string   `json:"certificatePem"`
	ValidUntilDate NanoTime `json:"validUntilDate,omitempty"`
}

// Certificates parses the PEM chain, leaf first.
func (c *Credential) Certificates() ([]*x509.Certificate, error) {
	return ParseCertificatesPEM([]byte(c.CertificatePEM))
}

// SigningRecord is a certificate issued by the hub certificate authority.
type SigningRecord struct {
	ID           string     `json:"id"`
	Owner        string     `json:"owner,omitempty"`
	CommonName   string     `json:"commonName"`
	DeviceID     string     `json:"deviceId,omitempty"`
	PublicKey    string     `json:"publicKey,omitempty"`
	CreationDate NanoTime   `json:"creationDate,omitempty"`
	Credential   Credential `json:"credential"`
}

// ParseCertificatesPEM decodes every CERTIFICATE block in data.
func ParseCertificatesPEM(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, ErrNoCertificate
	}
	return certs, nil
}
