//go:build integration

package export

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jonathan/cv-builder/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChromePrinter_PrintsPDF(t *testing.T) {
	printer := NewChromePrinter(os.Getenv("CHROME_PATH"), 60*time.Second, logger.Nop())
	e := New(printer, nil, logger.Nop())

	art, err := e.Export(context.Background(), sampleDocument(), FormatPDF, "")
	require.NoError(t, err)

	assert.Equal(t, "%PDF", string(art.Data[:4]))
	assert.Greater(t, len(art.Data), 1000)
}
