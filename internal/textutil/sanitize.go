package textutil

import "strings"

// displayNameStripper removes characters that are unsafe in library folder
// and file names on common filesystems.
var displayNameStripper = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	"\"", "",
	"/", "",
	"\\", "",
	"|", "",
	"?", "",
	"*", "",
)

// SanitizeDisplayName strips <>:"/\|?* from name, collapses whitespace runs
// to a single space, and trims the result.
func SanitizeDisplayName(name string) string {
	return strings.Join(strings.Fields(displayNameStripper.Replace(name)), " ")
}
