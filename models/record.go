package models

import (
	"github.com/shopspring/decimal"
)

type OutcomeStatus string

const (
	StatusUndone OutcomeStatus = "undone"
	StatusFailed OutcomeStatus = "failed"
)

type ReplayStatus string

const (
	ReplaySuccess ReplayStatus = "success"
	ReplayFailed  ReplayStatus = "failed"
)

// TransactionOutcome is one processed record of an undo run and, after the
// later replay run, its replay result. The json names match the session file
// and spreadsheet layout that operators hand-correct between the two runs.
type TransactionOutcome struct {
	LoanId            int             `json:"loan_id" validate:"required,gt=0"`
	TransactionId     int             `json:"transaction_id"`
	TransactionDate   string          `json:"transaction_date" validate:"required"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	PaymentTypeId     int             `json:"payment_type_id" validate:"gte=0"`
	ChannelTypeId     int             `json:"channel_type_id" validate:"gte=0"`
	Status            OutcomeStatus   `json:"status,omitempty"`
	Error             string          `json:"error,omitempty"`
	ReplayStatus      ReplayStatus    `json:"replay_status,omitempty"`
	ReplayError       string          `json:"replay_error,omitempty"`
	NewTransactionId  int             `json:"new_transaction_id,omitempty"`
}

type ReplaySummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}
