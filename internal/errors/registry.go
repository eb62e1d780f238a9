package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Runtime errors (R001-R039)

	"R001": {
		Category: CategoryRuntime,
		Message:  "Circular update detected",
		Detail:   "A watcher re-queued itself more than 100 times in a single flush. A watch handler or updated hook is probably writing the value it depends on.",
		DocURL:   "https://reflow.dev/docs/errors/R001",
	},
	"R002": {
		Category: CategoryRuntime,
		Message:  "Unhandled watcher error",
		Detail:   "A watcher callback panicked or returned an error and no error handler was installed.",
		DocURL:   "https://reflow.dev/docs/errors/R002",
	},
	"R003": {
		Category: CategoryRuntime,
		Message:  "Duplicate keys in children",
		Detail:   "Two sibling nodes carry the same key. Reconciliation degrades to best-effort; moves and state preservation are unreliable until the keys are unique.",
		DocURL:   "https://reflow.dev/docs/errors/R003",
	},
	"R004": {
		Category: CategoryRuntime,
		Message:  "Session not found",
		Detail:   "The session ID is invalid or the session has expired.",
		DocURL:   "https://reflow.dev/docs/errors/R004",
	},
	"R005": {
		Category: CategoryRuntime,
		Message:  "Handler not found",
		Detail:   "No event handler is installed on the target node. The component may have re-rendered with different handlers.",
		DocURL:   "https://reflow.dev/docs/errors/R005",
	},
	"R006": {
		Category: CategoryRuntime,
		Message:  "Render failed",
		Detail:   "The component's render function panicked while producing the page.",
		DocURL:   "https://reflow.dev/docs/errors/R006",
	},

	// Hydration errors (R040-R059)

	"R040": {
		Category: CategoryHydration,
		Message:  "Hydration mismatch",
		Detail:   "The server-rendered markup doesn't match the tree the component produced. The mismatched subtree was discarded and rebuilt.",
		DocURL:   "https://reflow.dev/docs/errors/R040",
	},

	// Protocol errors (R060-R079)

	"R060": {
		Category: CategoryProtocol,
		Message:  "WebSocket upgrade failed",
		Detail:   "The HTTP connection could not be upgraded to a WebSocket.",
		DocURL:   "https://reflow.dev/docs/errors/R060",
	},
	"R061": {
		Category: CategoryProtocol,
		Message:  "Invalid frame",
		Detail:   "The received frame could not be decoded.",
		DocURL:   "https://reflow.dev/docs/errors/R061",
	},
	"R062": {
		Category: CategoryProtocol,
		Message:  "Unknown event type",
		Detail:   "The event type is not recognized by the server.",
		DocURL:   "https://reflow.dev/docs/errors/R062",
	},
	"R063": {
		Category: CategoryProtocol,
		Message:  "Unknown target node",
		Detail:   "The node ID referenced by an event doesn't exist in the session's document.",
		DocURL:   "https://reflow.dev/docs/errors/R063",
	},

	// Configuration errors (R120-R139)

	"R120": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration could not be parsed.",
		DocURL:   "https://reflow.dev/docs/errors/R120",
	},
	"R121": {
		Category: CategoryConfig,
		Message:  "Invalid listen address",
		Detail:   "The configured listen address is invalid or already in use.",
		DocURL:   "https://reflow.dev/docs/errors/R121",
	},

	// CLI errors (R140-R159)

	"R140": {
		Category: CategoryCLI,
		Message:  "Unknown component",
		Detail:   "No registered component matches the requested name.",
		DocURL:   "https://reflow.dev/docs/errors/R140",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
