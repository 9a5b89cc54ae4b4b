package data

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"sbarisk/pkg/encode"
)

const (
	insertLoanSQL = `INSERT INTO loan (
			loan_id, state, naics, new_exist, term, disbursement_date,
			disbursement_gross, gr_appv, sba_appv, selected, defaulted
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (loan_id) DO UPDATE SET
			state = excluded.state,
			naics = excluded.naics,
			new_exist = excluded.new_exist,
			term = excluded.term,
			disbursement_date = excluded.disbursement_date,
			disbursement_gross = excluded.disbursement_gross,
			gr_appv = excluded.gr_appv,
			sba_appv = excluded.sba_appv,
			selected = excluded.selected,
			defaulted = excluded.defaulted
	`

	selectLoansSQL = `SELECT loan_id, state, naics, new_exist, term,
			disbursement_date, disbursement_gross, gr_appv, sba_appv,
			selected, defaulted
		FROM loan
		WHERE selected = COALESCE(?, selected)
		ORDER BY loan_id
	`

	countLoansSQL = `SELECT COUNT(*) FROM loan`

	dateLayout = "2006-01-02"
)

// Loan is one historical application as stored. Rows are immutable once
// imported; re-import replaces them wholesale.
type Loan struct {
	LoanID            string    `json:"loan_id" yaml:"loan_id"`
	State             string    `json:"state" yaml:"state"`
	NAICS             string    `json:"naics" yaml:"naics"`
	NewExist          int       `json:"new_exist" yaml:"new_exist"`
	Term              int       `json:"term" yaml:"term"`
	DisbursementDate  time.Time `json:"disbursement_date" yaml:"disbursement_date"`
	DisbursementGross float64   `json:"disbursement_gross" yaml:"disbursement_gross"`
	GrAppv            float64   `json:"gr_appv" yaml:"gr_appv"`
	SBAAppv           float64   `json:"sba_appv" yaml:"sba_appv"`
	Selected          bool      `json:"selected" yaml:"selected"`
	Defaulted         bool      `json:"defaulted" yaml:"defaulted"`
}

// SaveLoans upserts loans in a single transaction.
func SaveLoans(db *sql.DB, loans []*Loan) error {
	if db == nil {
		return errDBNotInitialized
	}
	if len(loans) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "error starting loan save transaction")
	}

	stmt, err := tx.Prepare(insertLoanSQL)
	if err != nil {
		rollbackTransaction(tx)
		return errors.Wrap(err, "error preparing loan insert")
	}

	for _, l := range loans {
		if _, err := stmt.Exec(
			l.LoanID, l.State, l.NAICS, l.NewExist, l.Term,
			l.DisbursementDate.Format(dateLayout), l.DisbursementGross,
			l.GrAppv, l.SBAAppv, boolToInt(l.Selected), boolToInt(l.Defaulted),
		); err != nil {
			rollbackTransaction(tx)
			return errors.Wrapf(err, "error inserting loan %s", l.LoanID)
		}
	}

	return errors.Wrap(tx.Commit(), "error committing loan save transaction")
}

// CountLoans returns the number of stored loans.
func CountLoans(db *sql.DB) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	var n int
	if err := db.QueryRow(countLoansSQL).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "error counting loans")
	}
	return n, nil
}

// GetLoans returns stored loans; selected filters on the train/holdout
// flag when non-nil.
func GetLoans(db *sql.DB, selected *bool) ([]*Loan, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var sel any
	if selected != nil {
		sel = boolToInt(*selected)
	}

	rows, err := db.Query(selectLoansSQL, sel)
	if err != nil {
		return nil, errors.Wrap(err, "error querying loans")
	}
	defer rows.Close()

	list := make([]*Loan, 0)
	for rows.Next() {
		var l Loan
		var date string
		var sel, def int
		if err := rows.Scan(
			&l.LoanID, &l.State, &l.NAICS, &l.NewExist, &l.Term, &date,
			&l.DisbursementGross, &l.GrAppv, &l.SBAAppv, &sel, &def,
		); err != nil {
			return nil, errors.Wrap(err, "error scanning loan row")
		}
		ts, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing stored date for loan %s", l.LoanID)
		}
		l.DisbursementDate = ts
		l.Selected = sel == 1
		l.Defaulted = def == 1
		list = append(list, &l)
	}
	return list, rows.Err()
}

// LoadRecords returns stored loans as encoder records, field names
// matching the default feature specifications.
func LoadRecords(db *sql.DB, selected *bool) ([]encode.Record, error) {
	loans, err := GetLoans(db, selected)
	if err != nil {
		return nil, err
	}

	records := make([]encode.Record, 0, len(loans))
	for _, l := range loans {
		records = append(records, l.Record())
	}
	return records, nil
}

// Record converts a loan to the encoder's field mapping.
func (l *Loan) Record() encode.Record {
	var def float64
	if l.Defaulted {
		def = 1
	}
	return encode.Record{
		"state":              l.State,
		"naics":              l.NAICS,
		"new_exist":          float64(l.NewExist),
		"term":               float64(l.Term),
		"disbursement_date":  l.DisbursementDate,
		"disbursement_gross": l.DisbursementGross,
		"gr_appv":            l.GrAppv,
		"sba_appv":           l.SBAAppv,
		"defaulted":          def,
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
