package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/platform/sentinel"
)

// PostgresStore persists document metadata in the loan_documents table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const documentColumns = `
	id, application_id, type, file_name, extracted_data,
	verified, verified_by, verified_at, uploaded_by, uploaded_at`

func (s *PostgresStore) Add(ctx context.Context, doc *Document) error {
	extracted, err := marshalExtracted(doc.ExtractedData)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO loan_documents (` + documentColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err = s.pool.Exec(ctx, query,
		doc.ID.String(), doc.ApplicationID.String(), doc.Type.String(), doc.FileName, extracted,
		doc.Verified, nullable(doc.VerifiedBy), doc.VerifiedAt, doc.UploadedBy, doc.UploadedAt,
	)
	if err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.DocumentID) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM loan_documents WHERE id = $1`
	return scanDocument(s.pool.QueryRow(ctx, query, id.String()))
}

func (s *PostgresStore) ListByApplication(ctx context.Context, applicationID domain.ApplicationID) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM loan_documents WHERE application_id = $1 ORDER BY uploaded_at, id`
	rows, err := s.pool.Query(ctx, query, applicationID.String())
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, doc *Document) error {
	extracted, err := marshalExtracted(doc.ExtractedData)
	if err != nil {
		return err
	}

	query := `
		UPDATE loan_documents SET
			extracted_data = $2, verified = $3, verified_by = $4, verified_at = $5
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		doc.ID.String(), extracted, doc.Verified, nullable(doc.VerifiedBy), doc.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Counts(ctx context.Context, applicationID domain.ApplicationID) (int, int, error) {
	var total, verified int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE verified)
		FROM loan_documents WHERE application_id = $1
	`, applicationID.String()).Scan(&total, &verified)
	if err != nil {
		return 0, 0, fmt.Errorf("count documents: %w", err)
	}
	return total, verified, nil
}

func scanDocument(row interface{ Scan(dest ...any) error }) (*Document, error) {
	var (
		doc          Document
		idStr        string
		appStr       string
		docType      string
		extractedRaw []byte
		verifiedBy   *string
	)
	err := row.Scan(
		&idStr, &appStr, &docType, &doc.FileName, &extractedRaw,
		&doc.Verified, &verifiedBy, &doc.VerifiedAt, &doc.UploadedBy, &doc.UploadedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	docID, err := domain.ParseDocumentID(idStr)
	if err != nil {
		return nil, fmt.Errorf("stored document id: %w", err)
	}
	appID, err := domain.ParseApplicationID(appStr)
	if err != nil {
		return nil, fmt.Errorf("stored application id: %w", err)
	}
	doc.ID = docID
	doc.ApplicationID = appID
	doc.Type = domain.DocumentType(docType)
	if len(extractedRaw) > 0 {
		if err := json.Unmarshal(extractedRaw, &doc.ExtractedData); err != nil {
			return nil, fmt.Errorf("unmarshal extracted data: %w", err)
		}
	}
	if verifiedBy != nil {
		doc.VerifiedBy = *verifiedBy
	}
	return &doc, nil
}

func marshalExtracted(extracted map[string]string) ([]byte, error) {
	if len(extracted) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(extracted)
	if err != nil {
		return nil, fmt.Errorf("marshal extracted data: %w", err)
	}
	return raw, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
