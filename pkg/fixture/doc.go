// Package fixture reads view trees from YAML or JSON documents.
//
// A document holds one view or a sequence of frames. Each node has exactly
// one of text, tag, map or lazy:
//
//	name: todo
//	frames:
//	  - tag: ul
//	    attrs: {class: items}
//	    keyed:
//	      - key: a
//	        tag: li
//	        events: {click: select}
//	        children: [{text: write}]
//	  - map:
//	      mapper: page
//	      node: {tag: p, children: [{text: done}]}
//
// Mappers and decoders are referenced by name and resolved through a
// Registry, which hands out one pointer per name so that equal names in two
// frames compare as the same handler.
package fixture
