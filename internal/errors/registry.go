package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Sync Errors (E001-E019)
	// ============================================

	"E001": {
		Category: CategorySync,
		Message:  "Resource has no locator",
		Detail:   "A model was read or released but could not produce the locator the server routes pushes by.",
	},
	"E002": {
		Category: CategorySync,
		Message:  "View already cleaned",
		Detail:   "A view node was rendered after it had been torn down.",
	},

	// ============================================
	// Protocol Errors (E020-E039)
	// ============================================

	"E020": {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
		Detail:   "A frame is not a JSON object in the expected shape.",
	},
	"E021": {
		Category:   CategoryProtocol,
		Message:    "Frame too large",
		Detail:     "An inbound frame exceeded the configured maximum frame size.",
		Suggestion: "Raise transport.max_frame_size if the server legitimately sends large resources",
	},

	// ============================================
	// Cache Errors (E040-E059)
	// ============================================

	"E040": {
		Category: CategoryCache,
		Message:  "Cache backend unavailable",
		Detail:   "The cache backend could not be opened.",
	},
	"E041": {
		Category: CategoryCache,
		Message:  "Cache entry not found",
		Detail:   "The cache holds no entry for this locator.",
	},
	"E042": {
		Category: CategoryCache,
		Message:  "Cache operation failed",
		Detail:   "The cache backend returned an error.",
	},

	// ============================================
	// Transport Errors (E060-E079)
	// ============================================

	"E060": {
		Category:   CategoryTransport,
		Message:    "WebSocket connection failed",
		Detail:     "Could not establish a WebSocket connection to the game server.",
		Suggestion: "Check server.url and that the server is reachable",
	},
	"E061": {
		Category: CategoryTransport,
		Message:  "Connection lost",
		Detail:   "The WebSocket connection to the game server was closed unexpectedly.",
	},

	// ============================================
	// Config Errors (E120-E139)
	// ============================================

	"E120": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "Could not find dippy.json or dippy.toml in the given directory.",
		Suggestion: "Run 'dippy config init' to create one",
	},
	"E121": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration contains an invalid value.",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Configuration parse error",
		Detail:   "The configuration file could not be parsed.",
	},
	"E123": {
		Category: CategoryConfig,
		Message:  "Invalid environment override",
		Detail:   "A DIPPY_* environment variable could not be applied.",
	},
	"E124": {
		Category: CategoryConfig,
		Message:  "Configuration write failed",
		Detail:   "The configuration file could not be written.",
	},

	// ============================================
	// CLI Errors (E140-E159)
	// ============================================

	"E140": {
		Category:   CategoryCLI,
		Message:    "Invalid locator",
		Detail:     "Locators are absolute resource paths such as /games/1.",
		Suggestion: "Prefix the locator with a slash",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Invalid JSON payload",
		Detail:   "The payload argument is not valid JSON.",
	},
	"E142": {
		Category: CategoryCLI,
		Message:  "Debug server failed",
		Detail:   "The metrics and debug HTTP server could not be started.",
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
