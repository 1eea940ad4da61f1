package portal

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/k3a/html2text"
	"github.com/siherrmann/civicgraph/core/text"
	"github.com/siherrmann/civicgraph/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MaxDocumentTextLength bounds the stored document text.
const MaxDocumentTextLength = 5000

// ExtractDocumentText downloads a document and returns its normalized text
// with an extraction status. Download failures are a status, not an error.
func (c *Client) ExtractDocumentText(ctx context.Context, title string, rawURL string) (string, model.DocumentTextStatus) {
	rawURL = text.Normalize(rawURL)
	if len(rawURL) == 0 {
		return "", model.TextStatusMissingURL
	}

	body, contentType, err := c.get(ctx, rawURL)
	if err != nil {
		c.logger.Warn("Document download failed", slog.String("url", rawURL), slog.String("error", err.Error()))
		return "", model.TextStatusDownloadFailed
	}

	content, status := DocumentText(title, rawURL, contentType, body)
	return content, status
}

// DocumentText turns a downloaded body into normalized text. HTML bodies,
// including Aspose exports served as text, go through html2text. PDFs are
// read up to MaxPDFPages and are recognized by content type, URL suffix or
// magic bytes.
func DocumentText(title string, rawURL string, contentType string, body []byte) (string, model.DocumentTextStatus) {
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	title = text.Normalize(title)

	content := ""
	status := model.TextStatusUnsupportedContent
	if strings.Contains(contentType, "pdf") || strings.HasSuffix(strings.ToLower(rawURL), ".pdf") || bytes.HasPrefix(body, []byte("%PDF-")) {
		parsed, err := PDFText(body)
		if err != nil {
			status = model.TextStatusPDFParseFailed
		} else {
			content = parsed
			status = model.TextStatusOK
		}
	} else {
		decoded := strings.ToValidUTF8(string(body), "")
		lower := strings.ToLower(decoded)
		if strings.Contains(lower, "<html") || strings.Contains(contentType, "text/html") || strings.Contains(lower, "aspose.words") {
			content = text.Normalize(html2text.HTML2Text(stripNonContent(decoded)))
			status = model.TextStatusHTMLParseEmpty
			if len(content) > 0 {
				status = model.TextStatusOK
			}
		} else if normalized := text.Normalize(decoded); len(normalized) > 0 {
			content = normalized
			status = model.TextStatusOK
		}
	}

	if status == model.TextStatusOK && len(title) > 0 && !strings.Contains(content, title) {
		content = strings.TrimSpace(title + " " + content)
	}

	return text.Truncate(content, MaxDocumentTextLength), status
}

// stripNonContent removes comments and script, style or noscript elements.
func stripNonContent(document string) string {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return document
	}

	var remove []*html.Node
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.CommentNode || (n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style || n.DataAtom == atom.Noscript)) {
			remove = append(remove, n)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}
	traverse(root)
	for _, n := range remove {
		n.Parent.RemoveChild(n)
	}

	var buf bytes.Buffer
	err = html.Render(&buf, root)
	if err != nil {
		return document
	}
	return buf.String()
}
