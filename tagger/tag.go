package tagger

import "strings"

// Category is the catalog's numeric category code. The codes are
// catalog-specific and non-contiguous; they must match the tags file exactly
// and are never renumbered.
type Category int

const (
	CategoryGeneral   Category = 0
	CategoryCharacter Category = 4
	CategoryRating    Category = 9
)

// Tag describes one entry of the tag catalog. ID is the stable catalog
// position, Count is popularity metadata carried through unused.
type Tag struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// kaomojiNames are tag names that are textual faces. Their underscores are
// part of the face and must survive display-name normalization.
var kaomojiNames = map[string]struct{}{
	"0_0":     {},
	"(o)_(o)": {},
	"+_+":     {},
	"+_-":     {},
	"._.":     {},
	"<o>_<o>": {},
	"<|>_<|>": {},
	"=_=":     {},
	">_<":     {},
	"3_3":     {},
	"6_9":     {},
	">_o":     {},
	"@_@":     {},
	"^_^":     {},
	"o_o":     {},
	"u_u":     {},
	"x_x":     {},
	"|_|":     {},
	"||_||":   {},
}

// displayName turns a raw catalog name into its display form, replacing
// underscores with spaces unless the name is a kaomoji.
func displayName(raw string) string {
	if _, ok := kaomojiNames[raw]; ok {
		return raw
	}
	return strings.ReplaceAll(raw, "_", " ")
}
