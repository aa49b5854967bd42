package storage

import (
	"os"
	"path/filepath"
	"time"

	"bitbucket.org/mmdatafocus/loanops_backend/models"
	"bitbucket.org/mmdatafocus/loanops_backend/utils"
)

const (
	TransactionsFile  = "transactions.json"
	ReplayResultsFile = "replay_results.json"
	ExportFile        = "transactions.xlsx"
	CorrectedFile     = "transactions_corrected.xlsx"
)

type transactionsDocument struct {
	Timestamp    string                      `json:"timestamp"`
	Transactions []models.TransactionOutcome `json:"transactions"`
}

type replayDocument struct {
	Timestamp     string                      `json:"timestamp"`
	ReplayResults []models.TransactionOutcome `json:"replay_results"`
	Summary       models.ReplaySummary        `json:"summary"`
}

// Store reads and writes one session's record documents. Undo history and
// replay results live in separate files so neither run overwrites the other.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) TransactionsPath() string {
	return filepath.Join(s.dir, TransactionsFile)
}

func (s *Store) ReplayResultsPath() string {
	return filepath.Join(s.dir, ReplayResultsFile)
}

func (s *Store) ExportPath() string {
	return filepath.Join(s.dir, ExportFile)
}

func (s *Store) CorrectedPath() string {
	return filepath.Join(s.dir, CorrectedFile)
}

func (s *Store) SaveTransactions(records []models.TransactionOutcome) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	doc := transactionsDocument{
		Timestamp:    time.Now().Format(time.RFC3339),
		Transactions: records,
	}
	return utils.WriteJSONFile(s.TransactionsPath(), doc)
}

// LoadTransactions returns the stored record list. A missing or corrupt file
// loads as an empty list rather than an error.
func (s *Store) LoadTransactions() ([]models.TransactionOutcome, error) {
	var doc transactionsDocument
	if err := utils.ReadJSONFile(s.TransactionsPath(), &doc); err != nil {
		return []models.TransactionOutcome{}, nil
	}
	if doc.Transactions == nil {
		return []models.TransactionOutcome{}, nil
	}
	return doc.Transactions, nil
}

func (s *Store) SaveReplayResults(records []models.TransactionOutcome, summary models.ReplaySummary) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	doc := replayDocument{
		Timestamp:     time.Now().Format(time.RFC3339),
		ReplayResults: records,
		Summary:       summary,
	}
	return utils.WriteJSONFile(s.ReplayResultsPath(), doc)
}

func (s *Store) LoadReplayResults() ([]models.TransactionOutcome, models.ReplaySummary, error) {
	var doc replayDocument
	if err := utils.ReadJSONFile(s.ReplayResultsPath(), &doc); err != nil {
		return []models.TransactionOutcome{}, models.ReplaySummary{}, nil
	}
	if doc.ReplayResults == nil {
		doc.ReplayResults = []models.TransactionOutcome{}
	}
	return doc.ReplayResults, doc.Summary, nil
}
