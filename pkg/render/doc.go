// Package render groups the visual outputs of topostack.
//
// The [nodelink] subpackage projects a 3D layout onto a pinned Graphviz
// diagram and renders it to SVG or PNG:
//
//	dot := nodelink.ToDOT(g, l, reg, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// The interactive 3D view is produced by external tools from the JSON
// document in package graph.
//
// [nodelink]: github.com/matzehuels/topostack/pkg/render/nodelink
package render
