package portal

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/helper"
)

// MaxPDFPages bounds how many pages of a PDF are read.
const MaxPDFPages = 8

// PDFText returns the normalized text of the first MaxPDFPages pages.
// A PDF without a text layer yields an empty string and no error.
func PDFText(body []byte) (content string, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			content, err = "", helper.NewError("read pdf", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", helper.NewError("open pdf", err)
	}

	parts := []string{}
	for i := 1; i <= reader.NumPage() && i <= MaxPDFPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		plain, err := page.GetPlainText(nil)
		if err != nil {
			return "", helper.NewError(fmt.Sprintf("page %d text", i), err)
		}
		if normalized := text.Normalize(plain); len(normalized) > 0 {
			parts = append(parts, normalized)
		}
	}

	return text.Normalize(strings.Join(parts, " ")), nil
}
