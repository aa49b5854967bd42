package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/loanops_backend/config"
	"bitbucket.org/mmdatafocus/loanops_backend/models"
	"bitbucket.org/mmdatafocus/loanops_backend/storage"
	"bitbucket.org/mmdatafocus/loanops_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// LedgerGateway is the remote ledger surface the orchestrators need. The
// production implementation is fineract.Client; tests use a fake.
type LedgerGateway interface {
	FetchLoan(ctx context.Context, loanId int) (*models.LoanDetails, error)
	ReverseTransaction(ctx context.Context, loanId int, transactionId int, transactionDate time.Time) error
	CreateRepayment(ctx context.Context, loanId int, amount decimal.Decimal, transactionDate string, paymentTypeId int, channelTypeId int) (int, error)
}

type UndoResult struct {
	Outcomes     []models.TransactionOutcome
	SuccessCount int
	FailureCount int
}

// UndoTransactionsByDate reverses every unreversed repayment dated on or after
// cutoffDate (day granularity) and persists the outcomes to the session store.
//
// Design:
//   - The target set is computed ONCE from a single snapshot and tracked by
//     transaction id. Ids are stable; dates are not — the ledger recalculates
//     them after every write.
//   - Each iteration re-fetches the loan and reverses the remaining target
//     with the latest current date (larger id wins a date tie). Reversing an
//     older record first can shift the recalculated dates of newer ones, so
//     the run always goes newest-remaining-first.
//   - A rejected reversal is recorded as a failed outcome and the run moves
//     on; connectivity retries already happened inside the gateway.
func UndoTransactionsByDate(ctx context.Context, gateway LedgerGateway, store *storage.Store, loanId int, cutoffDate string) (*UndoResult, error) {
	logger := config.GetLogger()

	cutoff, err := utils.ParseDateString(cutoffDate)
	if err != nil {
		return nil, fmt.Errorf("parse cutoff date %q: %w", cutoffDate, err)
	}

	loan, err := gateway.FetchLoan(ctx, loanId)
	if err != nil {
		return nil, fmt.Errorf("fetch loan %d: %w", loanId, err)
	}

	targetIds := IdentifyTargets(loan, cutoff)
	logger.WithFields(logrus.Fields{
		"loanId":  loanId,
		"cutoff":  utils.DayOf(cutoff).Format("2006-01-02"),
		"targets": len(targetIds),
	}).Info("identified transactions to undo")

	remaining := make(map[int]bool, len(targetIds))
	for _, id := range targetIds {
		remaining[id] = true
	}

	result := &UndoResult{Outcomes: []models.TransactionOutcome{}}

	for len(remaining) > 0 {
		// Re-fetch: prior reversals may have shifted every derived field.
		loan, err := gateway.FetchLoan(ctx, loanId)
		if err != nil {
			config.LogError(logger, "workflow", "UndoTransactionsByDate", "re-fetch loan", loanId, err)
			break
		}

		next, nextDate, ok := selectNextTarget(loan.Transactions, remaining)
		if !ok {
			// Remaining ids are gone from the ledger; the data moved out from
			// under the run. Halt rather than guess.
			logger.WithFields(logrus.Fields{
				"loanId":    loanId,
				"abandoned": len(remaining),
			}).Warn("no remaining target transactions found in snapshot, halting")
			break
		}

		outcome := models.TransactionOutcome{
			LoanId:            loanId,
			TransactionId:     next.Id,
			TransactionDate:   utils.FormatAPIDate(nextDate),
			TransactionAmount: next.Amount,
			PaymentTypeId:     next.PaymentTypeId(),
			ChannelTypeId:     next.ChannelTypeId(),
		}

		if err := gateway.ReverseTransaction(ctx, loanId, next.Id, nextDate); err != nil {
			outcome.Status = models.StatusFailed
			outcome.Error = utils.ErrorText(err)
			result.FailureCount++
			config.LogError(logger, "workflow", "UndoTransactionsByDate", "reverse transaction", next.Id, err)
		} else {
			outcome.Status = models.StatusUndone
			result.SuccessCount++
			logger.WithFields(logrus.Fields{
				"loanId":        loanId,
				"transactionId": next.Id,
				"remaining":     len(remaining) - 1,
			}).Info("transaction undone")
		}

		result.Outcomes = append(result.Outcomes, outcome)
		// Failures are not retried here; remove the id either way so the run
		// always terminates.
		delete(remaining, next.Id)
	}

	if err := store.SaveTransactions(result.Outcomes); err != nil {
		return result, fmt.Errorf("save undo outcomes: %w", err)
	}

	return result, nil
}

// IdentifyTargets selects, from one snapshot, the ids of every repayment that
// is not already reversed and is dated on or after cutoff (day granularity).
// Records with missing or unparseable dates are skipped.
func IdentifyTargets(loan *models.LoanDetails, cutoff time.Time) []int {
	cutoffDay := utils.DayOf(cutoff)

	var targetIds []int
	for i := range loan.Transactions {
		txn := &loan.Transactions[i]
		if !txn.IsRepayment() {
			continue
		}
		if txn.ManuallyReversed {
			continue
		}
		txnDate, err := utils.ParseDateValue(txn.Date)
		if err != nil {
			continue
		}
		if !utils.DayOf(txnDate).Before(cutoffDay) {
			targetIds = append(targetIds, txn.Id)
		}
	}
	return targetIds
}

// selectNextTarget picks, among the remaining target ids present in this
// snapshot, the transaction with the latest date; a date tie goes to the
// larger id.
func selectNextTarget(transactions []models.TransactionRecord, remaining map[int]bool) (*models.TransactionRecord, time.Time, bool) {
	var best *models.TransactionRecord
	var bestDate time.Time

	for i := range transactions {
		txn := &transactions[i]
		if !remaining[txn.Id] {
			continue
		}
		txnDate, err := utils.ParseDateValue(txn.Date)
		if err != nil {
			continue
		}
		if best == nil || txnDate.After(bestDate) || (txnDate.Equal(bestDate) && txn.Id > best.Id) {
			best = txn
			bestDate = txnDate
		}
	}

	if best == nil {
		return nil, time.Time{}, false
	}
	return best, bestDate, true
}
