package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/exp/slog"

	"github.com/kassabot/raffle-backend/internal/models"
	"github.com/kassabot/raffle-backend/internal/utils"
)

// The export carries the timestamp in column A, the counterparty name in
// column B and the signed major-unit amount in column D; other columns are
// ignored. CSV exports without the padding column carry the amount third.
const (
	colTimestamp = 0
	colName      = 1
	colAmount    = 3
)

// Timestamp layouts seen in MobilePay-style exports, tried in order
var ledgerTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02.01.2006 15:04:05",
	"02.01.2006 15:04",
	"2.1.2006 15:04",
}

// Compile-time check to ensure LedgerServiceImpl implements LedgerService
var _ LedgerService = (*LedgerServiceImpl)(nil)

// LedgerServiceImpl parses spreadsheet payment exports into normalized
// ledger rows. It has no dependencies on other components.
type LedgerServiceImpl struct{}

// NewLedgerService creates a new LedgerServiceImpl
func NewLedgerService() *LedgerServiceImpl {
	return &LedgerServiceImpl{}
}

// Validate reports whether the file at path is a well-formed ledger export
func (s *LedgerServiceImpl) Validate(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("%w: read ledger file %s: %v", models.ErrNotFound, path, err)
	}
	return s.ValidateBytes(data)
}

// ValidateBytes checks the tabular shape: at least one row, a parseable
// timestamp and a numeric amount in every row. A shape mismatch is
// (false, nil) so callers can present an "invalid file" outcome instead of
// crashing; undecodable bytes are the not-found/unreadable error class.
func (s *LedgerServiceImpl) ValidateBytes(data []byte) (bool, error) {
	records, err := parseTable(data)
	if err != nil {
		return false, fmt.Errorf("%w: unreadable ledger file: %v", models.ErrNotFound, err)
	}
	if len(records) == 0 {
		return false, nil
	}

	for _, cells := range records {
		tsCell, nameCell, amountCell, ok := pickColumns(cells)
		if !ok || nameCell == "" {
			return false, nil
		}
		if _, err := parseLedgerTime(tsCell); err != nil {
			return false, nil
		}
		if _, err := parseLedgerAmount(amountCell); err != nil {
			return false, nil
		}
	}
	return true, nil
}

// Ingest parses the file at path and filters to the inclusive window
func (s *LedgerServiceImpl) Ingest(path string, windowStart, windowEnd time.Time) ([]models.LedgerRow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read ledger file %s: %v", models.ErrNotFound, path, err)
	}
	return s.IngestBytes(data, windowStart, windowEnd)
}

// IngestBytes parses raw export bytes, drops non-positive amounts and rows
// outside [windowStart, windowEnd], and converts amounts to minor units.
// Dropped rows are not an error. Output ordering is whatever the export
// had; the analytics engine sorts.
func (s *LedgerServiceImpl) IngestBytes(data []byte, windowStart, windowEnd time.Time) ([]models.LedgerRow, error) {
	records, err := parseTable(data)
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable ledger file: %v", models.ErrNotFound, err)
	}

	rows := make([]models.LedgerRow, 0, len(records))
	dropped := 0
	for _, cells := range records {
		tsCell, nameCell, amountCell, ok := pickColumns(cells)
		if !ok {
			return nil, models.ErrInvalidFile
		}
		ts, err := parseLedgerTime(tsCell)
		if err != nil {
			return nil, models.ErrInvalidFile
		}
		amount, err := parseLedgerAmount(amountCell)
		if err != nil {
			return nil, models.ErrInvalidFile
		}

		if amount <= 0 || ts.Before(windowStart) || ts.After(windowEnd) {
			dropped++
			continue
		}
		rows = append(rows, models.LedgerRow{
			Timestamp: ts,
			Entrant:   strings.TrimSpace(nameCell),
			Amount:    utils.ToMinorUnits(amount),
		})
	}

	slog.Info("Ingested ledger file", "rows", len(rows), "dropped", dropped)
	return rows, nil
}

// parseTable decodes xlsx or csv bytes into raw cell rows. xlsx archives
// start with the zip magic; everything else is treated as csv.
func parseTable(data []byte) ([][]string, error) {
	if bytes.HasPrefix(data, []byte("PK")) {
		return parseXLSX(data)
	}
	return parseCSV(data)
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func parseCSV(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// pickColumns maps a raw row onto (timestamp, name, amount) cells
func pickColumns(cells []string) (string, string, string, bool) {
	if len(cells) > colAmount {
		return cells[colTimestamp], cells[colName], cells[colAmount], true
	}
	if len(cells) == 3 {
		return cells[0], cells[1], cells[2], true
	}
	return "", "", "", false
}

func parseLedgerTime(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	for _, layout := range ledgerTimeLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", cell)
}

func parseLedgerAmount(cell string) (float64, error) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", ".")
	return strconv.ParseFloat(cell, 64)
}
