package model

// X509Attestation configures certificate based enrollment.
type X509Attestation struct {
	CertificateChain          string `json:"certificateChain"`
	LeadCertificateName       string `json:"leadCertificateName,omitempty"`
	ExpiredCertificateEnabled bool   `json:"expiredCertificateEnabled,omitempty"`
}

// AttestationMechanism selects how devices prove group membership.
type AttestationMechanism struct {
	X509 *X509Attestation `json:"x509,omitempty"`
}

// EnrollmentGroup groups devices provisioned with the same attestation.
type EnrollmentGroup struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	Owner                string               `json:"owner,omitempty"`
	HubIDs               []string             `json:"hubIds,omitempty"`
	PreSharedKey         string               `json:"preSharedKey,omitempty"`
	AttestationMechanism AttestationMechanism `json:"attestationMechanism"`
}

// GRPCClient is the address of a gRPC endpoint.
type GRPCClient struct {
	Address string `json:"address"`
}

// CertificateAuthority points a linked hub at its certificate authority.
type CertificateAuthority struct {
	GRPC GRPCClient `json:"grpc"`
}

// AuthorizationProvider is the OAuth client used for device onboarding.
type AuthorizationProvider struct {
	Name      string `json:"name,omitempty"`
	ClientID  string `json:"clientId,omitempty"`
	Authority string `json:"authority,omitempty"`
}

// Authorization configures owner claims for a linked hub.
type Authorization struct {
	OwnerClaim string                `json:"ownerClaim,omitempty"`
	Provider   AuthorizationProvider `json:"provider"`
}

// LinkedHub is a hub the provisioning service can onboard devices into.
type LinkedHub struct {
	ID                   string               `json:"id"`
	HubID                string               `json:"hubId"`
	Name                 string               `json:"name"`
	Owner                string               `json:"owner,omitempty"`
	Gateways             []string             `json:"gateways,omitempty"`
	CertificateAuthority CertificateAuthority `json:"certificateAuthority"`
	Authorization        Authorization        `json:"authorization"`
}

// X509Evidence is the certificate a device presented while provisioning.
type X509Evidence struct {
	CertificatePEM string `json:"certificatePem,omitempty"`
	CommonName     string `json:"commonName,omitempty"`
}

// Attestation is the provisioning attestation result.
type Attestation struct {
	Date NanoTime      `json:"date,omitempty"`
	X509 *X509Evidence `json:"x509,omitempty"`
}

// ProvisioningRecord is the log of one device provisioning.
type ProvisioningRecord struct {
	ID                string      `json:"id"`
	DeviceID          string      `json:"deviceId"`
	EnrollmentGroupID string      `json:"enrollmentGroupId"`
	Owner             string      `json:"owner,omitempty"`
	CreationDate      NanoTime    `json:"creationDate,omitempty"`
	Attestation       Attestation `json:"attestation"`
	Credential        *Credential `json:"credential,omitempty"`
}
