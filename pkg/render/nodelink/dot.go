package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/topostack/pkg/classify"
	"github.com/matzehuels/topostack/pkg/layout"
	"github.com/matzehuels/topostack/pkg/registry"
	"github.com/matzehuels/topostack/pkg/topology"
)

// Default projection parameters.
const (
	DefaultScale        = 1.2
	DefaultLayerSpacing = 1.5
	DefaultSkew         = 0.5
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the position name and parse method to node labels.
	Detailed bool
	// HidePairs omits the dotted HA pair edges.
	HidePairs bool
	// Scale converts layout units to inches. Zero means DefaultScale.
	Scale float64
	// LayerSpacing stretches the z axis. Zero means DefaultLayerSpacing.
	LayerSpacing float64
	// Skew controls how far the y axis leans into the picture. Zero means
	// DefaultSkew; use a negative value for a straight front view.
	Skew float64
}

func (o Options) withDefaults() Options {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.LayerSpacing == 0 {
		o.LayerSpacing = DefaultLayerSpacing
	}
	switch {
	case o.Skew == 0:
		o.Skew = DefaultSkew
	case o.Skew < 0:
		o.Skew = 0
	}
	return o
}

// Project maps a 3D point onto the drawing plane. Lanes run left to right,
// layers bottom to top, and y is drawn as an oblique depth axis.
func (o Options) Project(p layout.Point) (x, y float64) {
	o = o.withDefaults()
	x = (p.X + p.Y*o.Skew) * o.Scale
	y = (p.Z*o.LayerSpacing + p.Y*o.Skew*0.5) * o.Scale
	return x, y
}

// ToDOT converts a laid out topology to Graphviz DOT. Every node is pinned
// to its projected coordinate, so the output must be rendered with the
// neato engine (as [RenderSVG] does). Only nodes present in l are drawn.
//
// Device icons and edge styles come from the registry: physical links,
// FHRP groups and BGP sessions each use the registry link style of their
// relation, and HA pairs use the "ha" style drawn dotted.
func ToDOT(g *topology.Graph, l layout.Layout, reg *registry.Registry, opts Options) string {
	opts = opts.withDefaults()

	var buf bytes.Buffer
	buf.WriteString("graph topology {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  node [style=filled, fontname=\"Helvetica\", fontsize=10, fixedsize=false];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8];\n")
	buf.WriteString("\n")

	for _, id := range g.NodeIDs() {
		p, ok := l.Positions[id]
		if !ok {
			continue
		}
		ident := l.Placements[id].Identity
		x, y := opts.Project(p)
		attrs := nodeAttrs(reg, ident, id, opts.Detailed)
		attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", num(x), num(y)))
		fmt.Fprintf(&buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if _, ok := l.Positions[e.Source]; !ok {
			continue
		}
		if _, ok := l.Positions[e.Target]; !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(reg, e), ", "))
	}

	if !opts.HidePairs && len(l.HAPairs) > 0 {
		buf.WriteString("\n")
		style, _ := reg.LinkStyle("ha")
		for _, p := range l.HAPairs {
			fmt.Fprintf(&buf, "  %q -- %q [color=%q, penwidth=%d, style=dotted, tooltip=\"HA pair\"];\n",
				p.A, p.B, colorOr(style.Color, "#FF6B6B"), max(style.Width, 1))
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(reg *registry.Registry, ident classify.Identity, id string, detailed bool) []string {
	typ, _ := ident.DeviceType()
	icon := reg.Icon(typ)

	label := id
	if detailed {
		label = id + "\n" + positionName(reg, ident) + " (" + string(ident.Method()) + ")"
	}
	shape, filled := dotShape(icon.Symbol)
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		"shape=" + shape,
		fmt.Sprintf("width=%s", num(float64(icon.Size)/20)),
		fmt.Sprintf("tooltip=%q", tooltip(reg, ident, icon)),
	}
	if filled {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", colorOr(icon.Color, "#AAAAAA")))
	} else {
		attrs = append(attrs, "style=bold", fmt.Sprintf("color=%q", colorOr(icon.Color, "#AAAAAA")))
	}
	return attrs
}

func positionName(reg *registry.Registry, ident classify.Identity) string {
	if pos, ok := ident.Position(); ok {
		return reg.DisplayName(pos)
	}
	return "Unknown"
}

func tooltip(reg *registry.Registry, ident classify.Identity, icon registry.Icon) string {
	parts := []string{ident.Hostname}
	if dc, ok := ident.Datacenter(); ok {
		parts = append(parts, "DC: "+strings.ToUpper(dc))
	}
	parts = append(parts, "Position: "+positionName(reg, ident))
	if icon.Description != "" {
		parts = append(parts, "Type: "+icon.Description)
	}
	return strings.Join(parts, " | ")
}

func edgeAttrs(reg *registry.Registry, e topology.Edge) []string {
	style, ok := reg.LinkStyle(string(e.Relation()))
	if !ok {
		style = registry.LinkStyle{Color: "#CCCCCC", Width: 1, Dash: "solid"}
	}
	attrs := []string{
		fmt.Sprintf("color=%q", colorOr(style.Color, "#CCCCCC")),
		fmt.Sprintf("penwidth=%d", max(style.Width, 1)),
		"style=" + dotDash(style.Dash),
	}
	if tip := edgeTooltip(e); tip != "" {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", tip))
	}
	return attrs
}

func edgeTooltip(e topology.Edge) string {
	switch a := e.Attrs.(type) {
	case topology.PhysicalAttrs:
		if a.SourceInterface == "" && a.TargetInterface == "" {
			return "physical"
		}
		return fmt.Sprintf("%s - %s", a.SourceInterface, a.TargetInterface)
	case topology.FHRPAttrs:
		tip := strings.TrimSpace(a.Protocol + " group " + a.Group)
		if a.VirtualIP != "" {
			tip += " VIP " + a.VirtualIP
		}
		return tip
	case topology.BGPAttrs:
		return fmt.Sprintf("%s AS%s -> AS%s", a.PeeringType, a.LocalAS, a.RemoteAS)
	}
	return ""
}

// dotShape maps a registry symbol to a Graphviz shape. Symbols ending in
// "-open" are drawn as outlines.
func dotShape(symbol string) (shape string, filled bool) {
	base, open := strings.CutSuffix(symbol, "-open")
	switch base {
	case "square":
		shape = "box"
	case "diamond":
		shape = "diamond"
	case "triangle", "triangle-up":
		shape = "triangle"
	case "cross", "x":
		shape = "Mcircle"
	default:
		shape = "circle"
	}
	return shape, !open
}

func dotDash(dash string) string {
	switch dash {
	case "dash":
		return "dashed"
	case "dot":
		return "dotted"
	}
	return "solid"
}

func colorOr(c, fallback string) string {
	if c == "" {
		return fallback
	}
	return c
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) }

// RenderSVG renders DOT produced by [ToDOT] to SVG with the neato engine,
// which honours the pinned node positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT produced by [ToDOT] to PNG.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
