// ABOUTME: Outreach funnel graph built from list counts
// ABOUTME: Renders interested, meeting and followup stages as DOT or SVG
package viz

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/confideleapcrm/irdesk/models"
)

// Format selects the rendered output.
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
)

func (f Format) graphviz() (graphviz.Format, error) {
	switch f {
	case FormatDOT, "":
		return graphviz.XDOT, nil
	case FormatSVG:
		return graphviz.SVG, nil
	}
	return "", fmt.Errorf("unsupported format %q (want dot or svg)", f)
}

type stage struct {
	key   string
	label string
	count int
	color string
}

// conversion renders to as a share of from.
func conversion(from, to int) string {
	if from == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", to*100/from)
}

// RenderFunnel draws the outreach funnel. Contacted is the sum of the
// interested, not interested and meeting lists.
func RenderFunnel(ctx context.Context, counts models.Counts, format Format) (string, error) {
	out, err := format.graphviz()
	if err != nil {
		return "", err
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() {
		if err := gv.Close(); err != nil {
			slog.Warn("failed to close graphviz", "error", err)
		}
	}()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() {
		if err := graph.Close(); err != nil {
			slog.Warn("failed to close graph", "error", err)
		}
	}()

	graph.SetLabel("Investor outreach funnel")
	graph.SetRankDir(cgraph.LRRank)

	contacted := counts.Interested + counts.NotInterested + counts.Meetings
	stages := []stage{
		{"contacted", "Contacted", contacted, "lightgrey"},
		{"interested", "Interested", counts.Interested + counts.Meetings, "lightblue"},
		{"not_interested", "Not Interested", counts.NotInterested, "mistyrose"},
		{"meeting", "Meeting", counts.Meetings, "lightgreen"},
		{"followups", "Followups", counts.Followups, "lightyellow"},
	}

	nodes := make(map[string]*cgraph.Node, len(stages))
	for _, s := range stages {
		node, err := graph.CreateNodeByName(s.key)
		if err != nil {
			return "", fmt.Errorf("failed to create node %s: %w", s.key, err)
		}
		node.SetLabel(fmt.Sprintf("%s (%d)", s.label, s.count))
		node.SetShape(cgraph.BoxShape)
		node.SetStyle(cgraph.FilledNodeStyle)
		node.SetFillColor(s.color)
		nodes[s.key] = node
	}

	edges := []struct{ from, to string }{
		{"contacted", "interested"},
		{"contacted", "not_interested"},
		{"interested", "meeting"},
		{"meeting", "followups"},
	}
	byKey := make(map[string]int, len(stages))
	for _, s := range stages {
		byKey[s.key] = s.count
	}
	for _, e := range edges {
		edge, err := graph.CreateEdgeByName(e.from+"_"+e.to, nodes[e.from], nodes[e.to])
		if err != nil {
			return "", fmt.Errorf("failed to create edge %s->%s: %w", e.from, e.to, err)
		}
		edge.SetLabel(conversion(byKey[e.from], byKey[e.to]))
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, out, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
