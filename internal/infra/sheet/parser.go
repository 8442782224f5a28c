// Package sheet reads member spreadsheets (xlsx or csv) into drafts.
package sheet

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/adapter"
)

var _ adapter.SheetParser = (*Parser)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Parser struct {
	log *zerolog.Logger
}

func NewParser(logger *zerolog.Logger) *Parser {
	return &Parser{log: logger}
}

// Parse reads the first sheet. The first row holds the headers; data rows
// are numbered from 2 as in the spreadsheet.
func (p *Parser) Parse(ctx context.Context, r io.Reader, filename string) ([]model.MemberDraft, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, 0, domain.Invalid("file", "only .xlsx and .csv files are supported")
	}
	if err != nil {
		p.log.Warn().Err(err).Str("file", filename).Msg("unreadable spreadsheet")
		return nil, 0, domain.Invalid("file", "could not be read as a spreadsheet")
	}
	if len(rows) < 2 {
		return nil, 0, domain.ErrEmptySheet
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}

	var (
		drafts  []model.MemberDraft
		dropped int
	)
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		rec := make(record, len(header))
		for j, h := range header {
			if h != "" && j < len(cells) {
				rec[h] = cells[j]
			}
		}
		d, ok := rec.draft(i + 2)
		if !ok {
			dropped++
			continue
		}
		drafts = append(drafts, d)
	}
	p.log.Debug().Str("file", filename).Int("rows", len(drafts)).Int("dropped", dropped).Msg("spreadsheet parsed")
	return drafts, dropped, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	// raw values keep date cells as serial numbers
	return f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
}

func readCSV(r io.Reader) ([][]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(b, utf8BOM)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
