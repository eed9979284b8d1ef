package catalog

// Fallbacks used when a _meta field is absent, null or of the wrong type.
// This table is the only place these values are defined. The name and
// author placeholders read "unnamed" and "unknown" in the vFlow app's locale.
const (
	DefaultName        = "未命名"
	DefaultDescription = ""
	DefaultAuthor      = "未知"
	DefaultVersion     = "1.0.0"
	DefaultLevel       = 1
	DefaultHomepage    = ""
	DefaultUpdatedAt   = ""
)

// DefaultTags returns a fresh empty tag list so entries never serialize "tags": null.
func DefaultTags() []string {
	return []string{}
}
