package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Tree Errors (E100-E109)
	// ============================================

	"E100": {
		Category: CategoryTree,
		Message:  "Render function returned no node",
		Detail:   "A function component must return exactly one *vdom.VNode. The render cycle is aborted before any host mutation.",
	},
	"E101": {
		Category: CategoryTree,
		Message:  "Malformed virtual node",
		Detail:   "The tree contains a nil child or a node whose kind is neither an element, a text node nor a component.",
	},
	"E102": {
		Category: CategoryTree,
		Message:  "Render function panicked",
		Detail:   "A function component panicked while rendering. The render cycle is aborted before any host mutation.",
	},

	// ============================================
	// Scheduler and Host Errors (E110-E119)
	// ============================================

	"E110": {
		Category: CategoryScheduler,
		Message:  "Render cycle abandoned",
		Detail:   "A newer render request replaced this work-in-progress tree before it reached commit.",
	},
	"E111": {
		Category: CategoryHost,
		Message:  "Host adapter failed during commit",
		Detail:   "A host mutation failed while committing. The commit pass stopped; mutations already applied are not rolled back.",
	},
	"E112": {
		Category: CategoryHost,
		Message:  "Host adapter failed to create node",
		Detail:   "The host adapter could not materialise a node for an element or text unit.",
	},
	"E113": {
		Category: CategoryScheduler,
		Message:  "Scheduler is busy",
		Detail:   "The scheduler was re-entered from inside a render or commit.",
	},
	"E114": {
		Category: CategoryScheduler,
		Message:  "Invalid render container",
		Detail:   "Render needs a non-nil, comparable host node as its container.",
	},

	// ============================================
	// Hook Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryHooks,
		Message:  "Hook order changed: kind mismatch",
		Detail:   "Hook cells are identified by call order. A cell at this index was requested with a different type than in the previous render.",
	},
	"E121": {
		Category: CategoryHooks,
		Message:  "Hook order changed: extra hook",
		Detail:   "The component requested more hook cells than in the previous render. Hooks must not be requested conditionally.",
	},
	"E122": {
		Category: CategoryHooks,
		Message:  "Hook order changed: missing hook",
		Detail:   "The component requested fewer hook cells than in the previous render. Hooks must not be requested conditionally.",
	},
	"E123": {
		Category: CategoryHooks,
		Message:  "Hook requested outside render",
		Detail:   "Hook cells can only be requested while the owning component is rendering.",
	},
	"E124": {
		Category: CategoryHooks,
		Message:  "Too many re-renders",
		Detail:   "A component keeps calling a state setter while it renders, so the cycle never completes.",
	},

	// ============================================
	// Config Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No fibertree.json was found in the given directory.",
	},
	"E131": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "fibertree.json could not be read or parsed.",
	},
	"E132": {
		Category: CategoryConfig,
		Message:  "Config value out of range",
	},

	// ============================================
	// Server, Snapshot and CLI Errors (E140-E169)
	// ============================================

	"E140": {
		Category: CategoryServer,
		Message:  "Live preview server failed",
	},
	"E141": {
		Category: CategoryServer,
		Message:  "Invalid client message",
		Detail:   "A websocket client sent a message that could not be decoded.",
	},
	"E150": {
		Category: CategorySnapshot,
		Message:  "Snapshot export failed",
	},
	"E160": {
		Category: CategoryCLI,
		Message:  "Unknown demo",
		Detail:   "The requested demo component does not exist.",
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
