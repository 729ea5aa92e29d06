// Package scene provides the serialization format for computed layouts.
//
// A [Layout] is the flattened, renderer-ready output of a layout pass: the
// canvas, the positioned circles with their display attributes and the color
// legend. It is the wire format for JSON files, API responses and the render
// cache, and the only input the sinks in pkg/render/sink need.
//
//	{
//	  "width": 1600,
//	  "height": 1200,
//	  "max_depth": 9,
//	  "encoding": "type",
//	  "nodes": [
//	    {"path": "", "depth": 0, "x": 800, "y": 600, "r": 590, "kind": "folder", "children": 2},
//	    {"path": "src", "label": "src", "depth": 1, "x": 700, "y": 580, "r": 310,
//	     "kind": "folder", "color": "#00add8", "parent": "", "children": 12}
//	  ],
//	  "legend": {"encoding": "type", "entries": [{"extension": "go", "color": "#00ADD8"}]}
//	}
//
// Common operations:
//
//	l := scene.FromResult(res, legend, opts)   // layout pass → Layout
//	data, _ := scene.MarshalLayout(l)          // Layout → []byte
//	l, _ = scene.UnmarshalLayout(data)         // []byte → Layout
//	_ = scene.WriteLayoutFile(l, "out.json")   // Layout → file
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package scene
