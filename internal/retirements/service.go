package retirements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carbon-exchange/marketplace-backend/pkg/pdf"
	"carbon-exchange/marketplace-backend/pkg/storage"
)

// ErrMissingFields indicates a create request without the required identifiers
var ErrMissingFields = errors.New("certificateId, mptIssuanceId and txHash are required")

// Service records retirements and produces downloadable certificates
type Service struct {
	repo   Repository
	pdf    pdf.Generator
	s3     storage.S3Client
	bucket string
	logger *zap.Logger
}

func NewService(repo Repository, pdfGen pdf.Generator, s3 storage.S3Client, bucket string, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		pdf:    pdfGen,
		s3:     s3,
		bucket: bucket,
		logger: logger,
	}
}

// CreateCertificate persists a retirement and renders its PDF certificate
func (s *Service) CreateCertificate(ctx context.Context, cert *RetirementCertificate) (*RetirementCertificate, error) {
	if cert.CertificateID == "" || cert.MPTIssuanceID == "" || cert.TxHash == "" {
		return nil, ErrMissingFields
	}
	if cert.RetiredAt.IsZero() {
		cert.RetiredAt = time.Now().UTC()
	}

	record := cert.ToRecord()
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("retirement recorded",
		zap.String("certificate_id", record.CertificateID),
		zap.String("owner", record.OwnerAddress),
		zap.String("amount", record.Amount))

	if s.s3 != nil {
		if err := s.uploadCertificatePDF(ctx, record); err != nil {
			// The retirement itself is durable; the PDF can be regenerated
			// on download, so log and carry on.
			s.logger.Warn("failed to upload certificate PDF",
				zap.String("certificate_id", record.CertificateID), zap.Error(err))
		}
	}

	return record.ToAPI(), nil
}

// ListCertificates returns certificates matching the filter
func (s *Service) ListCertificates(ctx context.Context, filter Filter) ([]*RetirementCertificate, error) {
	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*RetirementCertificate, 0, len(records))
	for i := range records {
		out = append(out, records[i].ToAPI())
	}
	return out, nil
}

// CertificateURL returns a presigned download link for the rendered PDF,
// regenerating it when necessary
func (s *Service) CertificateURL(ctx context.Context, certificateID string) (string, error) {
	record, err := s.repo.GetByCertificateID(ctx, certificateID)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", ErrNotFound
	}
	if s.s3 == nil {
		return "", errors.New("certificate storage is not configured")
	}
	if err := s.uploadCertificatePDF(ctx, record); err != nil {
		return "", err
	}
	return s.s3.GetPresignedURL(ctx, s.bucket, certificateKey(record.CertificateID), 15*time.Minute)
}

func (s *Service) uploadCertificatePDF(ctx context.Context, record *CertificateRecord) error {
	reader, err := s.pdf.RetirementCertificate(pdf.CertificateData{
		CertificateID: record.CertificateID,
		IssuanceID:    record.MPTIssuanceID,
		Currency:      record.Currency,
		Issuer:        record.IssuerAddress,
		OwnerAddress:  record.OwnerAddress,
		Amount:        record.Amount,
		RetiredAt:     record.RetiredAt,
		TxHash:        record.TxHash,
		Reason:        record.Reason,
	})
	if err != nil {
		return err
	}
	return s.s3.Upload(ctx, s.bucket, certificateKey(record.CertificateID), reader)
}

func certificateKey(certificateID string) string {
	return fmt.Sprintf("certificates/%s.pdf", certificateID)
}
