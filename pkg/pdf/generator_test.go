package pdf

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetirementCertificate(t *testing.T) {
	generator := NewGenerator()

	reader, err := generator.RetirementCertificate(CertificateData{
		CertificateID: "RET-1",
		IssuanceID:    "MPT-1",
		Currency:      "CARBON",
		Issuer:        "rIssuer",
		OwnerAddress:  "rOwner",
		Amount:        "150",
		RetiredAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		TxHash:        "BEEF",
		Reason:        "Corporate offset 2025",
	})
	require.NoError(t, err)

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}
