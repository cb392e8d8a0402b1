package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

var registry = map[string]ErrorTemplate{
	// Decoding and encoding (D001-D049)

	"D001": {
		Category:   CategoryDecode,
		Message:    "Truncated input",
		Detail:     "The packet ended before all of its fields were read.",
		Suggestion: "Check that the whole websocket frame was captured",
	},
	"D002": {
		Category: CategoryDecode,
		Message:  "Unterminated string",
		Detail:   "A string field has no terminating zero byte before the end of the packet.",
	},
	"D003": {
		Category:   CategoryDecode,
		Message:    "Unknown name",
		Detail:     "A tank, stat or color name or index is not in the name tables.",
		Suggestion: "List the known names with 'diepwire tables'",
	},
	"D004": {
		Category: CategoryEncode,
		Message:  "Unsupported tag",
		Detail:   "The packet has no encoder for this tag, or its payload does not match the tag.",
	},
	"D005": {
		Category: CategoryDecode,
		Message:  "Decompression failed",
		Detail:   "The LZ4 block of a compressed packet is corrupt or does not match its declared length.",
	},
	"D006": {
		Category: CategoryDecode,
		Message:  "Varint overflow",
		Detail:   "A variable-length integer continues past five bytes.",
	},
	"D007": {
		Category: CategoryDecode,
		Message:  "Invalid value",
		Detail:   "A field holds a value outside its allowed range.",
	},
	"D008": {
		Category: CategoryDecode,
		Message:  "Limit exceeded",
		Detail:   "A length or count is larger than the configured safety limit.",
	},
	"D009": {
		Category:   CategoryEncode,
		Message:    "Invalid party id",
		Detail:     "Party ids must be an even number of hex digits.",
		Suggestion: "Copy the code exactly as it appears in the party link",
	},

	// Captures and transports (D050-D079)

	"D050": {
		Category:   CategoryCapture,
		Message:    "Capture not found",
		Suggestion: "List stored captures with 'diepwire replay --list'",
	},
	"D051": {
		Category: CategoryCapture,
		Message:  "Invalid capture file",
		Detail:   "The data is not a diepwire capture or is truncated.",
	},
	"D052": {
		Category: CategoryCapture,
		Message:  "Invalid capture id",
		Detail:   "Capture ids are 27 character KSUIDs.",
	},
	"D053": {
		Category: CategoryCapture,
		Message:  "Capture storage failed",
	},
	"D060": {
		Category: CategoryTransport,
		Message:  "WebSocket connection failed",
		Detail:   "The tap could not connect to or read from the game server.",
	},

	// Configuration (D100-D119)

	"D100": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create diepwire.json or set DIEPWIRE_CONFIG",
	},
	"D101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
	},
	"D102": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// Command line input (D120-D149)

	"D120": {
		Category:   CategoryCLI,
		Message:    "Invalid direction",
		Suggestion: "Use clientbound or serverbound",
	},
	"D121": {
		Category: CategoryCLI,
		Message:  "Invalid hex input",
	},
	"D122": {
		Category:   CategoryCLI,
		Message:    "Unknown packet variant",
		Suggestion: "Run 'diepwire encode --help' for the list of variants",
	},
	"D123": {
		Category: CategoryCLI,
		Message:  "Unknown name table",
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
