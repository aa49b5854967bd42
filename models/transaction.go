package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

const (
	RepaymentTypeCode  = "loanTransactionType.repayment"
	RepaymentTypeValue = "Repayment"
)

type TransactionType struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

type PaymentType struct {
	Id int `json:"id"`
}

type ChannelType struct {
	Id int `json:"id"`
}

type PaymentDetailData struct {
	PaymentType PaymentType `json:"paymentType"`
	ChannelType ChannelType `json:"channelType"`
}

// TransactionRecord is a transaction as the ledger reports it. The numeric id
// is stable and never reused; every other field, the date in particular, may
// change between reads because the ledger recalculates the loan after each
// write. Date stays raw JSON since the API emits either a numeric array or a
// formatted string.
type TransactionRecord struct {
	Id                int                `json:"id"`
	Type              TransactionType    `json:"type"`
	Amount            decimal.Decimal    `json:"amount"`
	Date              json.RawMessage    `json:"date,omitempty"`
	ManuallyReversed  bool               `json:"manuallyReversed"`
	PaymentDetailData *PaymentDetailData `json:"paymentDetailData,omitempty"`
}

// IsRepayment requires both the machine code and the display value to match,
// the same double check the ledger UI applies.
func (t *TransactionRecord) IsRepayment() bool {
	return t.Type.Code == RepaymentTypeCode && t.Type.Value == RepaymentTypeValue
}

func (t *TransactionRecord) PaymentTypeId() int {
	if t.PaymentDetailData == nil {
		return 0
	}
	return t.PaymentDetailData.PaymentType.Id
}

func (t *TransactionRecord) ChannelTypeId() int {
	if t.PaymentDetailData == nil {
		return 0
	}
	return t.PaymentDetailData.ChannelType.Id
}

type LoanDetails struct {
	Id           int                 `json:"id"`
	Transactions []TransactionRecord `json:"transactions"`
}
