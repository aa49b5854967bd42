package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/loanops_backend/config"
	"bitbucket.org/mmdatafocus/loanops_backend/models"
	"bitbucket.org/mmdatafocus/loanops_backend/storage"
	"bitbucket.org/mmdatafocus/loanops_backend/utils"
	"github.com/sirupsen/logrus"
)

type ReplayResult struct {
	Results      []models.TransactionOutcome
	SuccessCount int
	FailureCount int
}

// ReplayTransactions re-creates the given repayments on the ledger in
// ascending date order (stable: ties keep their input order) and persists the
// per-record results plus summary to the session's replay file, separate from
// the undo history. Individual failures never abort the run.
func ReplayTransactions(ctx context.Context, gateway LedgerGateway, store *storage.Store, records []models.TransactionOutcome) (*ReplayResult, error) {
	logger := config.GetLogger()

	type datedRecord struct {
		record models.TransactionOutcome
		date   time.Time
	}

	dated := make([]datedRecord, 0, len(records))
	for _, rec := range records {
		parsed, err := utils.ParseDateString(rec.TransactionDate)
		if err != nil {
			// An unparseable date means the corrected set is unusable as a
			// whole; the caller gets the error before any write happens.
			return nil, fmt.Errorf("transaction %d: %w", rec.TransactionId, err)
		}
		dated = append(dated, datedRecord{record: rec, date: parsed})
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].date.Before(dated[j].date)
	})

	result := &ReplayResult{Results: make([]models.TransactionOutcome, 0, len(dated))}

	for i, dr := range dated {
		rec := dr.record
		logger.WithFields(logrus.Fields{
			"progress":      fmt.Sprintf("%d/%d", i+1, len(dated)),
			"transactionId": rec.TransactionId,
			"date":          rec.TransactionDate,
		}).Info("replaying transaction")

		newId, err := gateway.CreateRepayment(ctx, rec.LoanId, rec.TransactionAmount, rec.TransactionDate, rec.PaymentTypeId, rec.ChannelTypeId)
		if err != nil {
			rec.ReplayStatus = models.ReplayFailed
			rec.ReplayError = utils.ErrorText(err)
			result.FailureCount++
			config.LogError(logger, "workflow", "ReplayTransactions", "create repayment", rec.TransactionId, err)
		} else {
			rec.ReplayStatus = models.ReplaySuccess
			rec.NewTransactionId = newId
			result.SuccessCount++
		}
		result.Results = append(result.Results, rec)
	}

	summary := models.ReplaySummary{
		Total:      len(result.Results),
		Successful: result.SuccessCount,
		Failed:     result.FailureCount,
	}
	if err := store.SaveReplayResults(result.Results, summary); err != nil {
		return result, fmt.Errorf("save replay results: %w", err)
	}

	return result, nil
}
