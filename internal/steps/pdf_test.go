package steps

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a one-page document with a correct cross-reference table.
func minimalPDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << >> >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// TestCombinePDFs merges pages in order.
func TestCombinePDFs(t *testing.T) {
	one := minimalPDF()
	n, err := PageCount(one)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	merged, err := CombinePDFs([][]byte{one, minimalPDF(), minimalPDF()})
	require.NoError(t, err)

	n, err = PageCount(merged)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// TestCombinePDFsEdgeCases covers empty, single and broken input.
func TestCombinePDFsEdgeCases(t *testing.T) {
	_, err := CombinePDFs(nil)
	require.Error(t, err)

	single := minimalPDF()
	out, err := CombinePDFs([][]byte{single})
	require.NoError(t, err)
	assert.Equal(t, single, out)

	_, err = CombinePDFs([][]byte{single, []byte("not a pdf")})
	require.Error(t, err)
}
