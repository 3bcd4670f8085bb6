package errors

import "sort"

// Template defines a registered error code.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]Template{
	// Patch and host (E100-E199)
	"E101": {
		Category: CategoryPatch,
		Message:  "Patch application failed",
		Detail:   "A host operation failed while applying patches. The host tree is partially patched and must be mounted again.",
	},
	"E102": {
		Category: CategoryPatch,
		Message:  "Unknown patch kind",
		Detail:   "The patch list contains a kind the patcher does not implement.",
	},
	"E103": {
		Category: CategoryPatch,
		Message:  "Render failed",
		Detail:   "The view could not be rendered into the host.",
	},
	"E104": {
		Category: CategoryPatch,
		Message:  "Patched tree differs from direct render",
		Detail:   "Applying the diff to the old tree did not produce the same host tree as rendering the new view directly.",
	},
	"E105": {
		Category: CategoryPatch,
		Message:  "Engine is stale",
		Detail:   "A previous update failed part way. Mount the view again before updating.",
	},

	// Fixtures (E200-E299)
	"E201": {
		Category: CategoryFixture,
		Message:  "Invalid fixture node",
		Detail:   "A fixture node must have exactly one of text, tag, map or lazy.",
	},
	"E202": {
		Category: CategoryFixture,
		Message:  "Fixture parse error",
		Detail:   "The fixture file is not valid YAML or JSON.",
	},
	"E203": {
		Category: CategoryFixture,
		Message:  "Unknown handler kind",
		Detail:   "Event handler kinds are normal, stopPropagation, preventDefault and custom.",
	},
	"E204": {
		Category: CategoryFixture,
		Message:  "Fixture has no frames",
		Detail:   "The document must contain a view or at least one frame.",
	},
	"E205": {
		Category: CategoryFixture,
		Message:  "Fixture file not found",
		Detail:   "The fixture file could not be read.",
	},

	// Configuration (E300-E399)
	"E301": {
		Category: CategoryConfig,
		Message:  "Config parse error",
		Detail:   "The configuration file is not valid YAML or JSON.",
	},
	"E302": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "One or more configuration values failed validation.",
	},

	// Snapshot stores (E400-E499)
	"E401": {
		Category: CategorySnapshot,
		Message:  "Snapshot not found",
		Detail:   "No snapshot is stored under this name. Run `vtree snapshot save` first.",
	},
	"E402": {
		Category: CategorySnapshot,
		Message:  "Snapshot mismatch",
		Detail:   "The rendered HTML differs from the stored snapshot.",
	},
	"E403": {
		Category: CategorySnapshot,
		Message:  "Snapshot store unavailable",
		Detail:   "The snapshot store could not be opened or accessed.",
	},
}

// Codes returns all registered codes in order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the template for a code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds or replaces a template.
func Register(code string, template Template) {
	registry[code] = template
}
