package tokens

import "time"

// TokenMetadata is the project metadata attached to an issuance
type TokenMetadata struct {
	ProjectName    string `json:"projectName"`
	CreditType     string `json:"creditType"`
	Vintage        string `json:"vintage"`
	Certification  string `json:"certification"`
	Location       string `json:"location"`
	Description    string `json:"description"`
	PricePerCredit string `json:"pricePerCredit"`
}

// MintedToken is the API representation of one issuance lifecycle entry
type MintedToken struct {
	IssuanceID  string        `json:"issuanceId"`
	Address     string        `json:"address"`
	Metadata    TokenMetadata `json:"metadata"`
	Amount      int64         `json:"amount"`
	Timestamp   time.Time     `json:"timestamp"`
	TxHash      string        `json:"txHash"`
	ExplorerURL string        `json:"explorerUrl"`
	IPFSHash    string        `json:"ipfsHash"`
	IsAvailable bool          `json:"isAvailable"`
}

// TokenRecord is the flat database row for a minted token
type TokenRecord struct {
	ID             int64     `json:"-" db:"id"`
	IssuanceID     string    `json:"issuance_id" db:"issuance_id"`
	IssuerAddress  string    `json:"issuer_address" db:"issuer_address"`
	ProjectName    string    `json:"project_name" db:"project_name"`
	CreditType     string    `json:"credit_type" db:"credit_type"`
	Vintage        string    `json:"vintage" db:"vintage"`
	Certification  string    `json:"certification" db:"certification"`
	Location       string    `json:"location" db:"location"`
	Description    string    `json:"description" db:"description"`
	PricePerCredit string    `json:"price_per_credit" db:"price_per_credit"`
	Amount         int64     `json:"amount" db:"amount"`
	TxHash         string    `json:"tx_hash" db:"tx_hash"`
	ExplorerURL    string    `json:"explorer_url" db:"explorer_url"`
	IPFSHash       string    `json:"ipfs_hash" db:"ipfs_hash"`
	IsAvailable    bool      `json:"is_available" db:"is_available"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ToRecord converts the API representation to a database row
func (t *MintedToken) ToRecord() *TokenRecord {
	return &TokenRecord{
		IssuanceID:     t.IssuanceID,
		IssuerAddress:  t.Address,
		ProjectName:    t.Metadata.ProjectName,
		CreditType:     t.Metadata.CreditType,
		Vintage:        t.Metadata.Vintage,
		Certification:  t.Metadata.Certification,
		Location:       t.Metadata.Location,
		Description:    t.Metadata.Description,
		PricePerCredit: t.Metadata.PricePerCredit,
		Amount:         t.Amount,
		TxHash:         t.TxHash,
		ExplorerURL:    t.ExplorerURL,
		IPFSHash:       t.IPFSHash,
		IsAvailable:    true,
		CreatedAt:      t.Timestamp,
	}
}

// ToAPI converts a database row to the API representation
func (r *TokenRecord) ToAPI() *MintedToken {
	return &MintedToken{
		IssuanceID: r.IssuanceID,
		Address:    r.IssuerAddress,
		Metadata: TokenMetadata{
			ProjectName:    r.ProjectName,
			CreditType:     r.CreditType,
			Vintage:        r.Vintage,
			Certification:  r.Certification,
			Location:       r.Location,
			Description:    r.Description,
			PricePerCredit: r.PricePerCredit,
		},
		Amount:      r.Amount,
		Timestamp:   r.CreatedAt,
		TxHash:      r.TxHash,
		ExplorerURL: r.ExplorerURL,
		IPFSHash:    r.IPFSHash,
		IsAvailable: r.IsAvailable,
	}
}
