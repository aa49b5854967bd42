package reports

import (
	"path/filepath"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/loanops_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleRecords() []models.TransactionOutcome {
	return []models.TransactionOutcome{
		{
			LoanId:            1,
			TransactionId:     11,
			TransactionDate:   "01 December 2025 08:15:00",
			TransactionAmount: decimal.NewFromFloat(150.50),
			PaymentTypeId:     8,
			ChannelTypeId:     1,
		},
		{
			LoanId:            1,
			TransactionId:     13,
			TransactionDate:   "06 December 2025 00:00:00",
			TransactionAmount: decimal.NewFromInt(300),
			PaymentTypeId:     0,
			ChannelTypeId:     0,
		},
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.xlsx")
	records := sampleRecords()

	if err := ExportExcel(records, path); err != nil {
		t.Fatalf("export: %v", err)
	}
	imported, err := ImportExcel(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(imported) != len(records) {
		t.Fatalf("imported = %d records, want %d", len(imported), len(records))
	}
	for i, want := range records {
		got := imported[i]
		if got.LoanId != want.LoanId ||
			got.TransactionId != want.TransactionId ||
			got.TransactionDate != want.TransactionDate ||
			got.PaymentTypeId != want.PaymentTypeId ||
			got.ChannelTypeId != want.ChannelTypeId {
			t.Errorf("record %d = %+v, want %+v", i, got, want)
		}
		if !got.TransactionAmount.Equal(want.TransactionAmount) {
			t.Errorf("record %d amount = %s, want %s", i, got.TransactionAmount, want.TransactionAmount)
		}
	}
}

func TestImportAcceptsSnakeCaseHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snake.xlsx")

	f := excelize.NewFile()
	headers := []string{"loan_id", "transaction_id", "transaction_date", "transaction_amount", "payment_type_id", "channel_type_id"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Sheet1", cell, h)
	}
	row := []interface{}{1, 11, "01 December 2025", 150.5, 8, 1}
	for i, v := range row {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue("Sheet1", cell, v)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	imported, err := ImportExcel(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(imported) != 1 || imported[0].TransactionId != 11 || imported[0].LoanId != 1 {
		t.Errorf("imported = %+v", imported)
	}
}

func TestImportRejectsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.xlsx")

	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Loan ID")
	f.SetCellValue("Sheet1", "B1", "Transaction Date")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err := ImportExcel(path)
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "transaction_amount") {
		t.Errorf("err = %v, want the missing column named", err)
	}
}

func TestValidateRecord(t *testing.T) {
	valid := sampleRecords()[0]
	if !ValidateRecord(valid) {
		t.Error("expected sample record to be valid")
	}

	noLoan := valid
	noLoan.LoanId = 0
	if ValidateRecord(noLoan) {
		t.Error("record without loan id must be invalid")
	}

	noDate := valid
	noDate.TransactionDate = ""
	if ValidateRecord(noDate) {
		t.Error("record without date must be invalid")
	}

	zeroAmount := valid
	zeroAmount.TransactionAmount = decimal.Zero
	if ValidateRecord(zeroAmount) {
		t.Error("record without a positive amount must be invalid")
	}
}
