package docs

import "embed"

// FS contains long-form Markdown guides bundled with the d2ldates binary.
//
//go:embed *.md
var FS embed.FS
