package extractor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/dialogue-qa/internal/core/domain"
)

func extractPDF(raw []byte) (domain.ExtractedText, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return domain.ExtractedText{}, domain.WrapError(domain.ErrInvalidInput, "open pdf", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("read pdf text: %w", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return domain.ExtractedText{}, fmt.Errorf("read pdf text: %w", err)
	}
	return fromParagraphs("", splitParagraphs(string(text))), nil
}
