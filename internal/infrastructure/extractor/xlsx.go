package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

// extractXLSX renders every non-empty row as one sentence. The first sheet
// name becomes the title.
func extractXLSX(raw []byte) (domain.ExtractedText, error) {
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "open xlsx", err)
	}
	defer func() { _ = book.Close() }()

	var (
		title string
		rows  []string
	)
	for i, sheet := range book.GetSheetList() {
		if i == 0 {
			title = sheet
		}
		cells, err := book.GetRows(sheet)
		if err != nil {
			return domain.ExtractedText{}, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range cells {
			line := strings.Join(strings.Fields(strings.Join(row, " ")), " ")
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, ".") {
				line += "."
			}
			rows = append(rows, line)
		}
	}
	if len(rows) == 0 {
		return domain.ExtractedText{Title: title}, nil
	}
	return domain.ExtractedText{
		Title:       title,
		OpeningText: rows[0],
		Body:        strings.Join(rows, " "),
	}, nil
}
