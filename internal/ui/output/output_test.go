package output_test

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

func TestColorProfile_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, output.ColorProfile())
}

func TestPrinter_NoColorIsPlain(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	p := output.New(&buf)
	require.NoError(t, p.Println(p.Paint("built", style.Ember), " ", p.Bold("answer", style.Green)))
	require.NoError(t, p.Printf("%d entries\n", 2))

	assert.Equal(t, "built answer\n2 entries\n", buf.String())
}

func TestPrinter_Colors(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("COLORTERM", "truecolor")
	t.Setenv("TERM", "xterm-256color")

	p := output.New(&bytes.Buffer{})
	painted := p.Paint("x", style.Red)
	if output.ColorProfile() == termenv.Ascii {
		t.Skip("environment forces the Ascii profile")
	}
	assert.NotEqual(t, "x", painted)
	assert.Contains(t, painted, "x")
}

func TestNew_Nil(t *testing.T) {
	assert.NotNil(t, output.New(nil).Writer())
}
