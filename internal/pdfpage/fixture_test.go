package pdfpage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// pageSpec describes one page of a generated test PDF. A zero size means the
// page inherits the media box from the page tree root.
type pageSpec struct {
	w, h float64
}

// writePDF writes a minimal, well-formed PDF with one page per spec and
// returns its path. inherited, when non-nil, is set as the media box on the
// Pages node.
func writePDF(t *testing.T, dir, name string, inherited *pageSpec, pages ...pageSpec) string {
	t.Helper()

	var objs []string
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	pagesDict := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d", kids, len(pages))
	if inherited != nil {
		pagesDict += fmt.Sprintf(" /MediaBox [0 0 %g %g]", inherited.w, inherited.h)
	}
	pagesDict += " >>"

	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>", pagesDict)
	for i, p := range pages {
		box := ""
		if p.w != 0 || p.h != 0 {
			box = fmt.Sprintf(" /MediaBox [0 0 %g %g]", p.w, p.h)
		}
		objs = append(objs, fmt.Sprintf("<< /Type /Page /Parent 2 0 R%s /Resources << >> /Contents %d 0 R >>", box, 4+2*i))
		content := "0 0 m 10 10 l S"
		objs = append(objs, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// chdir switches into dir for the rest of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
