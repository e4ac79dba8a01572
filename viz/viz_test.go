package viz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confideleapcrm/irdesk/models"
)

func TestRenderFunnelDOT(t *testing.T) {
	counts := models.Counts{Interested: 6, NotInterested: 2, Meetings: 2, Meeting: 2, Followups: 1}

	dot, err := RenderFunnel(context.Background(), counts, FormatDOT)
	require.NoError(t, err)
	assert.Contains(t, dot, "Contacted (10)")
	assert.Contains(t, dot, "Interested (8)")
	assert.Contains(t, dot, "Meeting (2)")
	assert.Contains(t, dot, "25%")
}

func TestRenderFunnelRejectsUnknownFormat(t *testing.T) {
	_, err := RenderFunnel(context.Background(), models.Counts{}, Format("gif"))
	assert.Error(t, err)
}

func TestConversion(t *testing.T) {
	assert.Equal(t, "-", conversion(0, 3))
	assert.Equal(t, "50%", conversion(4, 2))
}

func TestRenderCounts(t *testing.T) {
	out := RenderCounts(models.Counts{Interested: 4, Followups: 2})
	assert.Contains(t, out, "Interested")
	assert.Contains(t, out, "██████████")
	assert.Contains(t, out, "6 rows across 4 lists")
}
