// Package analyzer runs a statement document through the whole pipeline:
// loading, classification, installment detection, projection, totals and
// the law-deduction cross-check.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"card-statement-analyzer/internal/installment"
	"card-statement-analyzer/internal/loader"
	"card-statement-analyzer/internal/models"
	"card-statement-analyzer/internal/parsers"
	"card-statement-analyzer/internal/pending"
	"card-statement-analyzer/internal/reconciler"
	"card-statement-analyzer/pkg/errors"
	"card-statement-analyzer/pkg/logger"

	"github.com/shopspring/decimal"
)

// Config holds configuration options for the analyzer service
type Config struct {
	// Largest document accepted, in bytes
	MaxDocumentSize int64

	// Reconciliation options
	Tolerance decimal.Decimal

	// Drop emitted transactions that fail models.Transaction.Validate
	ValidateTransactions bool
}

// DefaultConfig returns a default configuration for the analyzer service
func DefaultConfig() *Config {
	return &Config{
		MaxDocumentSize:      20 << 20,
		Tolerance:            reconciler.DefaultTolerance,
		ValidateTransactions: true,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.MaxDocumentSize <= 0 {
		return fmt.Errorf("max document size must be positive, got %d", c.MaxDocumentSize)
	}
	if c.Tolerance.IsNegative() {
		return fmt.Errorf("tolerance cannot be negative, got %s", c.Tolerance)
	}
	return nil
}

// Request is one document submitted for analysis
type Request struct {
	Data     []byte
	Filename string
	Password string
	// Bank is optional; spreadsheets are BROU and PDFs are detected from
	// their text when it is empty
	Bank models.Bank
}

// Validate validates the request against the service limits
func (r *Request) Validate(config *Config) error {
	if len(r.Data) == 0 {
		return errors.InvalidDocument(r.Filename, fmt.Errorf("document is empty"))
	}
	if int64(len(r.Data)) > config.MaxDocumentSize {
		return errors.InvalidDocument(r.Filename,
			fmt.Errorf("document is %d bytes, limit is %d", len(r.Data), config.MaxDocumentSize))
	}
	if r.Bank != "" && !r.Bank.IsValid() {
		return errors.ConfigurationError(errors.CodeUnknownBank, "bank", r.Bank.String(), nil)
	}
	return nil
}

// Service orchestrates the complete analysis of a statement document
type Service struct {
	config    *Config
	tables    *parsers.TableParser
	validator *reconciler.Validator
	pending   *pending.Store
	now       func() time.Time
	logger    logger.Logger
}

// NewService creates a service. store keeps password-protected documents
// between Submit and Resubmit; a nil store gets a private one with the
// default time-to-live.
func NewService(config *Config, store *pending.Store) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "analyzer", nil, err)
	}

	validator, err := reconciler.NewValidator(&reconciler.Config{Tolerance: config.Tolerance})
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "tolerance", config.Tolerance.String(), err)
	}

	if store == nil {
		store = pending.NewStore(pending.DefaultConfig().TTL)
	}

	log := logger.WithComponent("analyzer")
	log.WithFields(logger.Fields{
		"max_document_size": config.MaxDocumentSize,
		"tolerance":         config.Tolerance.String(),
		"pending_ttl":       store.TTL().String(),
	}).Debug("Created analyzer service")

	return &Service{
		config:    config,
		tables:    parsers.NewTableParser(),
		validator: validator,
		pending:   store,
		now:       time.Now,
		logger:    log,
	}, nil
}

// Pending returns the store holding documents that wait for a password
func (s *Service) Pending() *pending.Store {
	return s.pending
}

// Process analyzes one document. Loader and classifier failures return a
// *errors.StatementError and no partial result. A document without
// movements is a successful result with NoTransactions set.
func (s *Service) Process(ctx context.Context, req Request) (*models.ProcessingResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	log := s.logger.WithField("filename", req.Filename)

	if err := req.Validate(s.config); err != nil {
		return nil, err
	}

	format, err := loader.DetectFormat(req.Filename)
	if err != nil {
		log.WithError(err).Warn("Unsupported document")
		return nil, err
	}

	metadata := models.DocumentMetadata{
		Filename: req.Filename,
		Format:   string(format),
	}

	var extraction *parsers.Extraction
	if format.IsTabular() {
		extraction, err = s.processTable(ctx, req, format)
	} else {
		extraction, err = s.processPDF(ctx, req, &metadata)
	}
	if err != nil {
		log.WithError(err).Warn("Document analysis failed")
		return nil, err
	}

	result := s.buildResult(extraction, metadata)

	log.WithFields(logger.Fields{
		"bank":          result.Bank,
		"format":        format,
		"transactions":  len(result.Transactions),
		"installments":  len(result.InstallmentTransactions()),
		"warning":       result.HasWarning(),
		"duration":      time.Since(start).String(),
		"discard_stats": extraction.Stats.String(),
	}).Info("Document analyzed")

	return result, nil
}

func (s *Service) processTable(ctx context.Context, req Request, format loader.Format) (*parsers.Extraction, error) {
	if req.Bank != "" && req.Bank != s.tables.Bank() {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "bank", req.Bank.String(),
			fmt.Errorf("%s statements are not read from spreadsheets", req.Bank.DisplayName())).
			WithSuggestion("spreadsheet exports are supported for brou only")
	}
	return s.tables.ParseWorkbook(ctx, req.Data, format)
}

func (s *Service) processPDF(ctx context.Context, req Request, metadata *models.DocumentMetadata) (*parsers.Extraction, error) {
	doc, err := loader.OpenPDF(req.Data, req.Filename, req.Password)
	if err != nil {
		return nil, err
	}
	metadata.PageCount = doc.PageCount()
	metadata.Encrypted = doc.Encrypted()

	text, err := doc.Text()
	if err != nil {
		return nil, err
	}

	bank := req.Bank
	if bank == "" {
		detected, ok := parsers.Detect(text)
		if !ok {
			return nil, errors.BankNotDetected(req.Filename)
		}
		bank = detected
		s.logger.WithFields(logger.Fields{
			"filename": req.Filename,
			"bank":     bank,
		}).Debug("Detected issuer from document text")
	}

	parser, err := parsers.New(bank)
	if err != nil {
		return nil, err
	}
	return parser.Parse(ctx, text)
}

// buildResult runs the post-classification stages over an extraction
func (s *Service) buildResult(extraction *parsers.Extraction, metadata models.DocumentMetadata) *models.ProcessingResult {
	txns := append(make([]models.Transaction, 0, len(extraction.Transactions)), extraction.Transactions...)
	installment.Annotate(txns)

	if s.config.ValidateTransactions {
		txns = s.validTransactions(txns)
	}

	check := s.validator.Reconcile(txns, extraction.DeclaredTotal, extraction.LawPhrases)

	metadata.Summary = extraction.Summary
	metadata.DeclaredDeductions = extraction.DeclaredTotal

	return &models.ProcessingResult{
		Bank:           extraction.Bank,
		Transactions:   txns,
		Totals:         ComputeTotals(txns, extraction.Summary.PreviousBalance),
		Projection:     installment.Project(txns),
		Warning:        check.Warning,
		Metadata:       metadata,
		NoTransactions: len(txns) == 0,
		ProcessedAt:    s.now(),
	}
}

func (s *Service) validTransactions(txns []models.Transaction) []models.Transaction {
	valid := txns[:0]
	for _, tx := range txns {
		if err := tx.Validate(); err != nil {
			s.logger.WithError(err).WithField("description", tx.Description).Debug("Dropped invalid transaction")
			continue
		}
		valid = append(valid, tx)
	}
	return valid
}

// Submit behaves like Process, and additionally parks a password-protected
// document in the pending store. The returned error then carries the
// "token" context key to pass to Resubmit.
func (s *Service) Submit(ctx context.Context, req Request) (*models.ProcessingResult, error) {
	result, err := s.Process(ctx, req)
	if err == nil {
		return result, nil
	}

	if statementErr, ok := errors.AsStatementError(err); ok && statementErr.Code == errors.CodePasswordRequired {
		token := s.pending.Put(req.Data, req.Filename, req.Bank)
		s.logger.WithFields(logger.Fields{
			"filename": req.Filename,
			"token":    token,
		}).Info("Document parked until its password is supplied")
		return nil, statementErr.WithContext("token", token)
	}
	return nil, err
}

// Resubmit retries a parked document with password. Unknown or expired
// tokens fail with PasswordRequired and the "expired" context key. The
// entry survives password failures so the caller can try again, and is
// removed on success or any other failure.
func (s *Service) Resubmit(ctx context.Context, token, password string) (*models.ProcessingResult, error) {
	entry, ok := s.pending.Get(token)
	if !ok {
		return nil, errors.PasswordRequired(fmt.Sprintf("pending document %s", token)).
			WithSuggestion("the pending document expired; upload it again").
			WithContext("token", token).
			WithContext("expired", true)
	}

	result, err := s.Process(ctx, Request{
		Data:     entry.Data,
		Filename: entry.Filename,
		Password: password,
		Bank:     entry.Bank,
	})
	if err != nil {
		if statementErr, ok := errors.AsStatementError(err); ok && statementErr.Recoverable() {
			return nil, statementErr.WithContext("token", token)
		}
	}

	s.pending.Delete(token)
	return result, err
}
