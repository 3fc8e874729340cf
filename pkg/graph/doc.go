// Package graph provides the JSON wire formats of topostack.
//
// # Datasets
//
// Each relation (physical, fhrp, bgp) is exchanged as one file of flat
// records, the format written by "topostack ingest":
//
//	{
//	  "nodes": [{"name": "npccosr01", "type": "core"}],
//	  "edges": [
//	    {"source": "npccosr01", "target": "npccosr02", "link_type": "physical",
//	     "source_interface": "Gi1/0/1", "target_interface": "Gi1/0/1"}
//	  ]
//	}
//
// "nodes" is optional (endpoints become implicit nodes) and may list bare
// hostnames. Relation-specific keys are read according to "link_type", or
// the relation the file is loaded as. AS numbers and group IDs may be JSON
// strings or numbers. NX-OS style keys ("group_id", "vip") are accepted.
//
//	d, err := graph.ReadDatasetFile("bgp_topology.json", topology.BGP)
//
// A missing file yields an error with code FILE_NOT_FOUND.
//
// # Documents
//
// [Document] is the output of a layout run for one view: positioned nodes
// with their identity and icon, edges in the dataset record format, HA
// pairs, layer buckets and a [topology.Summary].
//
//	doc := graph.NewDocument(g, l, reg)
//	data, _ := graph.MarshalDocument(doc)
//
// [UnmarshalDocument] rejects documents whose edges reference unknown
// nodes. [Document.Graph] and [Document.Layout] rebuild the in-memory
// types so cached documents can be rendered again.
package graph
