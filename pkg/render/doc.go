// Package render serialises trees to HTML.
//
// A Renderer writes either a view tree (vdom.Node) or an in-memory host
// tree (memhost.Node). Both walks share one attribute model, so a view and
// the host tree rendered or patched from it serialise to the same bytes.
// The CLI uses this to print results, the snapshot store to persist them
// and the inspector to show the live tree.
//
// # Basic Usage
//
//	r := render.NewRenderer(render.RendererConfig{Pretty: true})
//	html, err := r.ViewString(view)
//	html, err = r.HostString(root)
//
// # Attributes
//
// Attributes, namespaced attributes, reflected properties and styles are
// merged into one list sorted by name:
//
//   - className and htmlFor properties reflect to class and for
//   - boolean attributes (checked, disabled, ...) are bare when true
//   - xlink and xml namespaced attributes get their usual prefix
//   - styles collapse into a single style attribute
//   - with EventMarkers, each handled event adds data-on-<event>="true"
//
// All text and attribute values are escaped.
package render
