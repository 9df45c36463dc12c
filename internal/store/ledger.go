package store

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/renameio"
	"github.com/xuri/excelize/v2"
)

// Ledger column headers, in order.
var ledgerHeader = []string{"Name", "Date", "Time"}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Record is one attendance row.
type Record struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
}

// Ledger is the append-only attendance table kept in a spreadsheet file.
// Every append reads the whole table and rewrites it.
type Ledger struct {
	path string
	loc  *time.Location
	mu   sync.Mutex
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// Location returns the timezone records are written in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Append adds one row for name at ts, converted to the ledger's timezone, and
// rewrites the ledger file. A missing file starts an empty table.
func (l *Ledger) Append(name string, ts time.Time) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return Record{}, err
	}

	local := ts.In(l.loc)
	rec := Record{
		Name: name,
		Date: local.Format(dateLayout),
		Time: local.Format(timeLayout),
	}
	records = append(records, rec)

	if err := l.write(records); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Records returns all rows in append order. A missing ledger has no rows.
func (l *Ledger) Records() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// Export returns the path of the ledger file, or ErrNoAttendance if nothing
// has been recorded yet.
func (l *Ledger) Export() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := os.Stat(l.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoAttendance
		}
		return "", err
	}
	return l.path, nil
}

func (l *Ledger) read() ([]Record, error) {
	f, err := excelize.OpenFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}

	var records []Record
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		// Trailing empty cells are not returned.
		for len(row) < len(ledgerHeader) {
			row = append(row, "")
		}
		records = append(records, Record{Name: row[0], Date: row[1], Time: row[2]})
	}
	return records, nil
}

func (l *Ledger) write(records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(ledgerHeader))
	for i, h := range ledgerHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.Name, r.Date, r.Time}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write ledger row %d: %w", i+1, err)
		}
	}

	pending, err := renameio.TempFile("", l.path)
	if err != nil {
		return fmt.Errorf("create ledger temp file: %w", err)
	}
	defer pending.Cleanup()

	if err := f.Write(pending); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
