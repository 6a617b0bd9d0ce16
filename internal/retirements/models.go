package retirements

import "time"

// RetirementCertificate is the API representation of a permanent retirement
type RetirementCertificate struct {
	CertificateID string    `json:"certificateId"`
	MPTIssuanceID string    `json:"mptIssuanceId"`
	Currency      string    `json:"currency"`
	Issuer        string    `json:"issuer"`
	OwnerAddress  string    `json:"ownerAddress"`
	Amount        string    `json:"amount"`
	RetiredAt     time.Time `json:"retiredAt"`
	TxHash        string    `json:"txHash"`
	Reason        string    `json:"reason,omitempty"`
}

// CertificateRecord is the database row for a retirement certificate
type CertificateRecord struct {
	ID            int64     `json:"-" db:"id"`
	CertificateID string    `json:"certificate_id" db:"certificate_id"`
	MPTIssuanceID string    `json:"mpt_issuance_id" db:"mpt_issuance_id"`
	Currency      string    `json:"currency" db:"currency"`
	IssuerAddress string    `json:"issuer_address" db:"issuer_address"`
	OwnerAddress  string    `json:"owner_address" db:"owner_address"`
	Amount        string    `json:"amount" db:"amount"`
	RetiredAt     time.Time `json:"retired_at" db:"retired_at"`
	TxHash        string    `json:"tx_hash" db:"tx_hash"`
	Reason        string    `json:"reason" db:"reason"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ToRecord converts the API representation to a database row
func (c *RetirementCertificate) ToRecord() *CertificateRecord {
	return &CertificateRecord{
		CertificateID: c.CertificateID,
		MPTIssuanceID: c.MPTIssuanceID,
		Currency:      c.Currency,
		IssuerAddress: c.Issuer,
		OwnerAddress:  c.OwnerAddress,
		Amount:        c.Amount,
		RetiredAt:     c.RetiredAt,
		TxHash:        c.TxHash,
		Reason:        c.Reason,
	}
}

// ToAPI converts a database row to the API representation
func (r *CertificateRecord) ToAPI() *RetirementCertificate {
	return &RetirementCertificate{
		CertificateID: r.CertificateID,
		MPTIssuanceID: r.MPTIssuanceID,
		Currency:      r.Currency,
		Issuer:        r.IssuerAddress,
		OwnerAddress:  r.OwnerAddress,
		Amount:        r.Amount,
		RetiredAt:     r.RetiredAt,
		TxHash:        r.TxHash,
		Reason:        r.Reason,
	}
}
