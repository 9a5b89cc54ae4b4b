package data

import (
	"database/sql"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// csvDateLayout matches the dataset's 16-Feb-06 style dates.
const csvDateLayout = "2-Jan-06"

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	Imported int `json:"imported" yaml:"imported"`
	Skipped  int `json:"skipped" yaml:"skipped"`
}

var requiredColumns = []string{
	"LoanNr_ChkDgt", "Term", "DisbursementDate", "GrAppv", "SBA_Appv",
	"Default", "Selected",
}

// ImportCSV loads the SBA case CSV into the loan table. Currency columns
// are stripped of $ and thousand separators before parsing. Rows missing
// a required value are skipped and counted, not fatal: the dataset has
// known gaps and the encoder enforces completeness downstream.
func ImportCSV(db *sql.DB, path string) (*ImportResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening CSV file: %s", path)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "error reading CSV header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, errors.Errorf("CSV is missing required column: %s", name)
		}
	}

	res := &ImportResult{}
	batch := make([]*Loan, 0, 512)

	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error reading CSV line %d", line)
		}

		loan, err := parseLoan(row, cols)
		if err != nil {
			slog.Debug("skipping CSV row", "line", line, "error", err)
			res.Skipped++
			continue
		}
		batch = append(batch, loan)
		res.Imported++
	}

	if err := SaveLoans(db, batch); err != nil {
		return nil, err
	}

	slog.Info("CSV import complete", "imported", res.Imported, "skipped", res.Skipped)
	return res, nil
}

func parseLoan(row []string, cols map[string]int) (*Loan, error) {
	get := func(name string) (string, error) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", errors.Errorf("missing column %s", name)
		}
		return strings.TrimSpace(row[i]), nil
	}

	id, err := get("LoanNr_ChkDgt")
	if err != nil || id == "" {
		return nil, errors.New("missing loan number")
	}

	term, err := intColumn(get, "Term")
	if err != nil {
		return nil, err
	}
	grAppv, err := currencyColumn(get, "GrAppv")
	if err != nil {
		return nil, err
	}
	sbaAppv, err := currencyColumn(get, "SBA_Appv")
	if err != nil {
		return nil, err
	}
	def, err := intColumn(get, "Default")
	if err != nil {
		return nil, err
	}
	selected, err := intColumn(get, "Selected")
	if err != nil {
		return nil, err
	}

	rawDate, err := get("DisbursementDate")
	if err != nil || rawDate == "" {
		return nil, errors.New("missing disbursement date")
	}
	date, err := time.Parse(csvDateLayout, rawDate)
	if err != nil {
		return nil, errors.Wrapf(err, "bad disbursement date %q", rawDate)
	}

	loan := &Loan{
		LoanID:           id,
		Term:             term,
		DisbursementDate: date,
		GrAppv:           grAppv,
		SBAAppv:          sbaAppv,
		Selected:         selected == 1,
		Defaulted:        def == 1,
	}

	// Optional descriptive columns.
	if v, err := get("State"); err == nil {
		loan.State = v
	}
	if v, err := get("NAICS"); err == nil {
		loan.NAICS = v
	}
	if v, err := intColumn(get, "NewExist"); err == nil {
		loan.NewExist = v
	}
	if v, err := currencyColumn(get, "DisbursementGross"); err == nil {
		loan.DisbursementGross = v
	}

	return loan, nil
}

func intColumn(get func(string) (string, error), name string) (int, error) {
	raw, err := get(name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "bad integer in column %s", name)
	}
	return v, nil
}

func currencyColumn(get func(string) (string, error), name string) (float64, error) {
	raw, err := get(name)
	if err != nil {
		return 0, err
	}
	v, err := parseCurrency(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "bad amount in column %s", name)
	}
	return v, nil
}

// parseCurrency strips $ signs, thousand separators, and whitespace.
func parseCurrency(s string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if clean == "" {
		return 0, errors.New("empty amount")
	}
	return strconv.ParseFloat(clean, 64)
}
