package spiir

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// Header is the exact first line of a Spiir export. A file whose header
// differs in any way — column names, order, or count — is not a Spiir export.
const Header = `"Id";"AccountId";"AccountName";"AccountType";"Date";"Description";"OriginalDescription";"MainCategoryId";"MainCategoryName";"CategoryId";"CategoryName";"CategoryType";"ExpenseType";"Amount";"Balance";"CounterEntryId";"Comment";"Tags";"Extraordinary";"SplitGroupId";"CustomDate";"Currency";"OriginalAmount";"OriginalCurrency"`

// ErrNotSpiir marks a file that does not carry the expected header. Discovery
// mode skips such files; single-file mode reports the error.
var ErrNotSpiir = errors.New("not a spiir export (header mismatch)")

var headerColumns = parseHeaderColumns()

func parseHeaderColumns() []string {
	r := csv.NewReader(strings.NewReader(Header))
	r.Comma = ';'
	cols, err := r.Read()
	if err != nil {
		panic(fmt.Sprintf("spiir: malformed header constant: %v", err))
	}
	return cols
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parser reads Spiir CSVs. Stateless, safe for concurrent use.
type Parser struct{}

// NewParser returns the shared parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Name returns the parser identifier.
func (p *Parser) Name() string {
	return "spiir-csv"
}

// CanParse checks extension and header. The header bytes are the first chunk
// of the file as read by the scanner; a byte-order mark is tolerated.
func (p *Parser) CanParse(path string, header []byte) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}
	header = bytes.TrimPrefix(header, utf8BOM)
	line, _, _ := bytes.Cut(header, []byte("\n"))
	line = bytes.TrimRight(line, "\r")
	return string(line) == Header
}

// Parse reads all rows of one export file. The header must match exactly
// (ErrNotSpiir otherwise); any malformed date or amount is fatal for the file,
// since a row that fails to parse indicates a structurally wrong export and
// silently dropping financial records is worse than failing loudly.
func (p *Parser) Parse(r io.Reader, file string) ([]Record, error) {
	br := bufio.NewReader(r)
	if err := skipBOM(br); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	cr := csv.NewReader(br)
	cr.Comma = ';'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read header: %w", file, err)
	}
	if !headerMatches(header) {
		return nil, fmt.Errorf("%s: %w", file, ErrNotSpiir)
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read row: %w", file, err)
		}

		line, _ := cr.FieldPos(0)
		rec, err := p.parseRow(row, file, line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", file, line, err)
		}
		records = append(records, *rec)
	}

	return records, nil
}

func headerMatches(cols []string) bool {
	if len(cols) != len(headerColumns) {
		return false
	}
	for i, c := range cols {
		if c != headerColumns[i] {
			return false
		}
	}
	return true
}

// Column indices into a row, in header order.
const (
	colID = iota
	colAccountID
	colAccountName
	colAccountType
	colDate
	colDescription
	colOriginalDescription
	colMainCategoryID
	colMainCategoryName
	colCategoryID
	colCategoryName
	colCategoryType
	colExpenseType
	colAmount
	colBalance
	colCounterEntryID
	colComment
	colTags
	colExtraordinary
	colSplitGroupID
	colCustomDate
	colCurrency
	colOriginalAmount
	colOriginalCurrency
)

func (p *Parser) parseRow(row []string, file string, line int) (*Record, error) {
	primaryDate, err := parseDate(row[colDate])
	if err != nil {
		return nil, err
	}

	// CustomDate, when present, overrides the primary date for ordering and
	// year partitioning. The primary date stays on the record.
	effective := primaryDate
	var customDate time.Time
	if s := strings.TrimSpace(row[colCustomDate]); s != "" {
		customDate, err = parseDate(s)
		if err != nil {
			return nil, fmt.Errorf("custom date: %w", err)
		}
		effective = customDate
	}

	amount, err := parseDecimal(row[colAmount])
	if err != nil {
		return nil, err
	}
	balance, err := parseDecimal(row[colBalance])
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	originalAmount, err := parseDecimal(row[colOriginalAmount])
	if err != nil {
		return nil, fmt.Errorf("original amount: %w", err)
	}

	rawDescription := strings.TrimSpace(row[colDescription])

	return &Record{
		ID:             row[colID],
		AccountID:      foldCase(row[colAccountID]),
		AccountName:    foldCase(row[colAccountName]),
		RawAccountName: row[colAccountName],
		AccountType:    foldCase(row[colAccountType]),

		Date:        effective,
		PrimaryDate: primaryDate,
		CustomDate:  customDate,

		Description:         foldCase(rawDescription),
		RawDescription:      rawDescription,
		OriginalDescription: foldCase(row[colOriginalDescription]),

		MainCategoryID:   row[colMainCategoryID],
		MainCategoryName: foldCase(row[colMainCategoryName]),
		CategoryID:       row[colCategoryID],
		CategoryName:     foldCase(row[colCategoryName]),
		CategoryType:     foldCase(row[colCategoryType]),
		ExpenseType:      foldCase(row[colExpenseType]),

		Amount:  amount,
		Balance: balance,

		CounterEntryID: row[colCounterEntryID],
		Comment:        foldCase(row[colComment]),
		Tags:           strings.TrimSpace(row[colTags]),
		Extraordinary:  foldCase(row[colExtraordinary]),
		SplitGroupID:   row[colSplitGroupID],

		Currency:         row[colCurrency],
		OriginalAmount:   originalAmount,
		OriginalCurrency: row[colOriginalCurrency],

		File: file,
		Line: line,
	}, nil
}

func skipBOM(br *bufio.Reader) error {
	peeked, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file start: %w", err)
	}
	if bytes.Equal(peeked, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return fmt.Errorf("failed to skip BOM: %w", err)
		}
	}
	return nil
}
