// Package nodelink draws a laid out topology as a flat node-link diagram.
//
// # Overview
//
// The 3D coordinates from package layout are projected onto a plane (lanes
// left to right, layers bottom to top, y as an oblique depth axis) and
// pinned with Graphviz "pos" attributes, so Graphviz only routes edges and
// never moves a device.
//
// # Usage
//
//	dot := nodelink.ToDOT(g, l, reg, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Styling
//
// Node shape, size and colour come from the registry icon of the device
// type; devices without a known type use the default icon. Edges use the
// registry link style of their relation, HA pairs the "ha" style drawn
// dotted.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz] in process with the neato
// engine. SVG and PNG need no external tools.
package nodelink
