package portal

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/siherrmann/civicgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentText(t *testing.T) {
	t.Run("HTML", func(t *testing.T) {
		content, status := DocumentText("Minutes", "https://portal.test/document/1", "text/html; charset=utf-8", []byte(minutesFixture))
		assert.Equal(t, model.TextStatusOK, status)
		assert.Contains(t, content, "The Enclave Apartments, LLC appeared before Mayor Jane Smith.")
		assert.NotContains(t, content, "track()")
		assert.NotContains(t, content, "color")
		assert.True(t, strings.HasPrefix(content, "Minutes "), "Expected the missing title to be prepended")
	})

	t.Run("Aspose export served as text", func(t *testing.T) {
		body := `<!-- Generated by Aspose.Words --><div><p>Walnut Ridge plat</p></div>`
		content, status := DocumentText("Walnut Ridge plat", "https://portal.test/document/2", "text/plain", []byte(body))
		assert.Equal(t, model.TextStatusOK, status)
		assert.Equal(t, "Walnut Ridge plat", content, "Expected the title not to be repeated")
	})

	t.Run("Empty HTML", func(t *testing.T) {
		content, status := DocumentText("Report", "https://portal.test/document/3", "text/html", []byte("<html><body></body></html>"))
		assert.Equal(t, model.TextStatusHTMLParseEmpty, status)
		assert.Empty(t, content)
	})

	t.Run("Plain text", func(t *testing.T) {
		content, status := DocumentText("", "https://portal.test/document/4", "text/plain", []byte("  Ordinance\n2026-14  "))
		assert.Equal(t, model.TextStatusOK, status)
		assert.Equal(t, "Ordinance 2026-14", content)
	})

	t.Run("PDF", func(t *testing.T) {
		content, status := DocumentText("Staff Report", "https://portal.test/document/5/report.pdf", "", pdfFixture(pdfFixtureLine))
		assert.Equal(t, model.TextStatusOK, status)
		assert.Equal(t, pdfFixtureLine, content)
	})

	t.Run("PDF without the title", func(t *testing.T) {
		content, status := DocumentText("Site Plan", "https://portal.test/document/5", "application/pdf", pdfFixture("Walnut Ridge"))
		assert.Equal(t, model.TextStatusOK, status)
		assert.Equal(t, "Site Plan Walnut Ridge", content)
	})

	t.Run("PDF recognized by magic bytes", func(t *testing.T) {
		content, status := DocumentText("", "https://portal.test/document/5/?handle=ABC", "application/octet-stream", pdfFixture("Walnut Ridge"))
		assert.Equal(t, model.TextStatusOK, status)
		assert.Equal(t, "Walnut Ridge", content)
	})

	t.Run("Broken PDF", func(t *testing.T) {
		content, status := DocumentText("Staff Report", "https://portal.test/document/5/report.pdf", "", []byte("%PDF-1.7"))
		assert.Equal(t, model.TextStatusPDFParseFailed, status)
		assert.Empty(t, content)
	})

	t.Run("Unsupported", func(t *testing.T) {
		content, status := DocumentText("Image", "https://portal.test/document/6", "image/png", []byte("   "))
		assert.Equal(t, model.TextStatusUnsupportedContent, status)
		assert.Empty(t, content)
	})

	t.Run("Bounded", func(t *testing.T) {
		content, _ := DocumentText("", "https://portal.test/document/7", "text/plain", []byte(strings.Repeat("word ", 2000)))
		assert.Len(t, []rune(content), MaxDocumentTextLength)
	})
}

func TestPDFText(t *testing.T) {
	t.Run("Reads every page up to the limit", func(t *testing.T) {
		content, err := PDFText(pdfFixture("Mayor Jane Smith called the meeting to order."))
		require.NoError(t, err)
		assert.Equal(t, "Mayor Jane Smith called the meeting to order.", content)
	})

	t.Run("Not a PDF", func(t *testing.T) {
		content, err := PDFText([]byte("<html>not a pdf</html>"))
		assert.Error(t, err)
		assert.Empty(t, content)
	})
}

func TestExtractDocumentText(t *testing.T) {
	ctx := context.Background()

	t.Run("PDF download", func(t *testing.T) {
		setupHTTPMock(t)
		httpmock.RegisterResponder("GET", "https://portal.test/document/2280/packet", func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewBytesResponse(http.StatusOK, pdfFixture(pdfFixtureLine))
			resp.Header.Set("Content-Type", "application/pdf")
			return resp, nil
		})

		content, status := newTestClient().ExtractDocumentText(ctx, "Staff Report", "https://portal.test/document/2280/packet")
		assert.Equal(t, model.TextStatusOK, status)
		assert.Equal(t, pdfFixtureLine, content)
	})

	t.Run("Corrupt PDF download", func(t *testing.T) {
		setupHTTPMock(t)
		httpmock.RegisterResponder("GET", "https://portal.test/document/2281/packet", func(req *http.Request) (*http.Response, error) {
			resp := httpmock.NewBytesResponse(http.StatusOK, []byte("%PDF-1.7 truncated"))
			resp.Header.Set("Content-Type", "application/pdf")
			return resp, nil
		})

		content, status := newTestClient().ExtractDocumentText(ctx, "Staff Report", "https://portal.test/document/2281/packet")
		assert.Equal(t, model.TextStatusPDFParseFailed, status)
		assert.Empty(t, content)
	})

	t.Run("Missing URL", func(t *testing.T) {
		_, status := newTestClient().ExtractDocumentText(ctx, "Staff Report", "  ")
		assert.Equal(t, model.TextStatusMissingURL, status)
	})
}
