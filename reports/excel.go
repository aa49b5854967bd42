package reports

import (
	"fmt"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/loanops_backend/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Sheet1"

// Export column order. Import accepts these readable headers or their
// snake_case equivalents.
var exportColumns = []struct {
	header string
	field  string
}{
	{"Loan ID", "loan_id"},
	{"Transaction ID", "transaction_id"},
	{"Transaction Date", "transaction_date"},
	{"Transaction Amount", "transaction_amount"},
	{"Payment Type ID", "payment_type_id"},
	{"Channel Type ID", "channel_type_id"},
}

var requiredColumns = []string{
	"loan_id",
	"transaction_date",
	"transaction_amount",
	"payment_type_id",
	"channel_type_id",
}

var validate = validator.New()

// ExportExcel writes the record set to an xlsx file for manual correction.
func ExportExcel(records []models.TransactionOutcome, filePath string) error {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	for col, c := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheetName, cell, c.header)
	}

	for i, rec := range records {
		row := i + 2
		f.SetCellValue(sheetName, "A"+fmt.Sprint(row), rec.LoanId)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(row), rec.TransactionId)
		f.SetCellValue(sheetName, "C"+fmt.Sprint(row), rec.TransactionDate)
		f.SetCellValue(sheetName, "D"+fmt.Sprint(row), rec.TransactionAmount.InexactFloat64())
		f.SetCellValue(sheetName, "E"+fmt.Sprint(row), rec.PaymentTypeId)
		f.SetCellValue(sheetName, "F"+fmt.Sprint(row), rec.ChannelTypeId)
	}

	return f.SaveAs(filePath)
}

// ImportExcel reads a corrected record set back from an xlsx file. Cell
// coercion is lenient (blank or malformed cells become zero values) so a
// partially broken row surfaces through ValidateRecord instead of aborting
// the whole import; a missing required column does abort it.
func ImportExcel(filePath string) ([]models.TransactionOutcome, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("spreadsheet has no header row")
	}

	colIndex := map[string]int{}
	for i, header := range rows[0] {
		colIndex[normalizeHeader(header)] = i
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := colIndex[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	records := make([]models.TransactionOutcome, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(field string) string {
			idx, ok := colIndex[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rec := models.TransactionOutcome{
			LoanId:          parseIntCell(cell("loan_id")),
			TransactionId:   parseIntCell(cell("transaction_id")),
			TransactionDate: cell("transaction_date"),
			PaymentTypeId:   parseIntCell(cell("payment_type_id")),
			ChannelTypeId:   parseIntCell(cell("channel_type_id")),
		}
		if amount, err := decimal.NewFromString(cell("transaction_amount")); err == nil {
			rec.TransactionAmount = amount
		}
		records = append(records, rec)
	}

	return records, nil
}

// ValidateRecord reports whether a record carries everything needed to
// recreate a repayment: a loan, a date, and a positive amount.
func ValidateRecord(rec models.TransactionOutcome) bool {
	if err := validate.Struct(rec); err != nil {
		return false
	}
	return rec.TransactionAmount.IsPositive()
}

func normalizeHeader(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

func parseIntCell(value string) int {
	if value == "" {
		return 0
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	// Spreadsheets hand back integers as floats after manual edits.
	if fl, err := strconv.ParseFloat(value, 64); err == nil {
		return int(fl)
	}
	return 0
}
