package document

import (
	"bytes"
	"fmt"
	"strings"
)

// GeneratePDF builds a minimal multi-page PDF with one line of text per page.
// The sandbox serves these as stand-ins for scanned statements; they are real
// enough for page counting and for external viewers.
func GeneratePDF(title string, numPages int) []byte {
	if numPages < 1 {
		numPages = 1
	}

	// Objects: 1 catalog, 2 page tree, then numPages page objects, numPages
	// content streams, and one shared font.
	total := 2*numPages + 3
	fontNum := total
	offsets := make([]int, total+1)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	obj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, numPages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), numPages))

	for i := 0; i < numPages; i++ {
		contentNum := 3 + numPages + i
		obj(3+i, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>",
			contentNum, fontNum))
	}

	for i := 0; i < numPages; i++ {
		stream := fmt.Sprintf("BT /F1 14 Tf 72 720 Td (%s - page %d of %d) Tj ET",
			escapeText(title), i+1, numPages)
		obj(3+numPages+i, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}

	obj(fontNum, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", total+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= total; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", total+1, xrefStart)

	return buf.Bytes()
}

func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
