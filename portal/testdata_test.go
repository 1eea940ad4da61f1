package portal

import (
	"bytes"
	"fmt"
)

const agendaFixture = `<html><body>
<table>
  <tr><td><strong>CONSENT AGENDA</strong></td></tr>
  <tr><td>6.1.</td><td>Ordinance 2026-14 for 10841 Douglas Avenue <a href="/document/2271/Staff%20Report.pdf?handle=ABC123">Staff Report</a></td></tr>
  <tr><td>6.2</td><td>Approve the minutes <a href="https://portal.test/document/2272/?handle=DEF456">Meeting Minutes February 4, 2026</a></td></tr>
  <tr><td>Header</td><td>No key in this row</td></tr>
</table>
<table>
  <tr><td><b>Agenda</b></td></tr>
  <tr><td>7.1</td><td>Preliminary plat for Walnut Ridge <a href="/document/2273">Plat</a> <a href="/meetings/1408">Back</a></td></tr>
  <tr><td>7.2</td><td>Public hearing <a href="/document/2271/Staff%20Report.pdf?handle=ABC123"></a></td></tr>
</table>
</body></html>`

const minutesFixture = `<html><head><style>p { color: red; }</style></head><body>
<script>track()</script>
<p>The Enclave Apartments, LLC appeared before Mayor Jane Smith.</p>
</body></html>`

const pdfFixtureLine = "Staff Report for Ordinance 2026-14 at 10841 Douglas Avenue"

// pdfFixture builds a one page PDF showing line in Helvetica.
func pdfFixture(line string) []byte {
	stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", line)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, object := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, object)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}
