package relq

import "strings"

var likeEscaper = strings.NewReplacer(
	"[", "[[]",
	"]", "[]]",
	"%", "[%]",
	"_", "[_]",
)

// LikeEscape brackets every LIKE metacharacter so value matches literally.
func LikeEscape(value string) string {
	return likeEscaper.Replace(value)
}

// LikeContains matches value anywhere in the column.
func LikeContains(value string) string {
	return "%" + LikeEscape(value) + "%"
}

// LikeStartsWith matches columns beginning with value.
func LikeStartsWith(value string) string {
	return LikeEscape(value) + "%"
}

// LikeEndsWith matches columns ending with value.
func LikeEndsWith(value string) string {
	return "%" + LikeEscape(value)
}

// LikePiped matches value as a token of a pipe-delimited column (|a|b|c|).
func LikePiped(value string) string {
	return "%|" + LikeEscape(value) + "|%"
}
