package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/loanops_backend/config"
	"bitbucket.org/mmdatafocus/loanops_backend/fineract"
	"bitbucket.org/mmdatafocus/loanops_backend/storage"
	"bitbucket.org/mmdatafocus/loanops_backend/utils"
	"bitbucket.org/mmdatafocus/loanops_backend/workflow"
)

func main() {
	loanId := flag.Int("loan-id", 0, "Required: loan id whose repayments to reverse")
	cutoff := flag.String("cutoff", "", "Required: cutoff date, e.g. \"01 December 2025\"")
	dataDir := flag.String("data-dir", config.DataDir(), "Session folder root")
	dryRun := flag.Bool("dry-run", true, "Identify targets only (no writes)")
	confirm := flag.String("confirm", "", "Type UNDO to proceed when dry-run=false")
	flag.Parse()

	if *loanId <= 0 || strings.TrimSpace(*cutoff) == "" {
		fmt.Fprintln(os.Stderr, "--loan-id and --cutoff are required")
		os.Exit(1)
	}
	if !*dryRun && strings.TrimSpace(*confirm) != "UNDO" {
		fmt.Fprintln(os.Stderr, "set --confirm=UNDO to proceed")
		os.Exit(1)
	}

	cfg := config.GetLedgerConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	gateway := fineract.NewClient(cfg)

	if *dryRun {
		printTargets(ctx, gateway, *loanId, *cutoff)
		return
	}

	sessionDir, err := storage.NewSessionDir(*dataDir, *loanId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create session: %v\n", err)
		os.Exit(1)
	}

	result, err := workflow.UndoTransactionsByDate(ctx, gateway, storage.NewStore(sessionDir), *loanId, *cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "undo failed: %v\n", err)
		os.Exit(1)
	}

	for _, outcome := range result.Outcomes {
		line := fmt.Sprintf("id=%d date=%s amount=%s status=%s",
			outcome.TransactionId, outcome.TransactionDate, outcome.TransactionAmount.String(), outcome.Status)
		if outcome.Error != "" {
			line += " error=" + outcome.Error
		}
		fmt.Println(line)
	}
	fmt.Printf("undone=%d failed=%d session=%s\n", result.SuccessCount, result.FailureCount, sessionDir)
}

func printTargets(ctx context.Context, gateway *fineract.Client, loanId int, cutoff string) {
	cutoffDate, err := utils.ParseDateString(cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	loan, err := gateway.FetchLoan(ctx, loanId)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch loan: %v\n", err)
		os.Exit(1)
	}

	targets := workflow.IdentifyTargets(loan, cutoffDate)
	fmt.Printf("loan=%d transactions=%d targets=%d\n", loanId, len(loan.Transactions), len(targets))
	for _, id := range targets {
		fmt.Printf("would undo transaction %d\n", id)
	}
}
