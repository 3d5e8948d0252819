package document

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASCII(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Top 10 jobs\n- Go", want: "Top 10 jobs\n- Go"},
		{name: "accents", in: "Café São Paulo", want: "Cafe Sao Paulo"},
		{name: "typography", in: "“Senior” – it’s…", want: `"Senior" - it's...`},
		{name: "currency", in: "₹1,200,000", want: "INR 1,200,000"},
		{name: "emoji", in: "🚀 Launch 💼", want: " Launch "},
		{name: "control", in: "a\tb\rc", want: "a\tbc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ASCII(tt.in))
		})
	}
}

func TestPDFRenderer(t *testing.T) {
	text := "# Job Report\n\n## Primary output\n- Go Developer at Acme\n  * Kochi\nPlain paragraph with **bold** text.\n"

	var buf bytes.Buffer
	require.NoError(t, NewPDFRenderer().Render(&buf, text))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}

func TestPDFRendererUnknownFont(t *testing.T) {
	r := &PDFRenderer{FontFamily: "NoSuchFont", FontSize: 12}

	var buf bytes.Buffer
	assert.Error(t, r.Render(&buf, "text"))
}
