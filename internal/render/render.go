// Package render substitutes {placeholder} tokens in user-authored
// templates with values from the current snapshot and estimate. Rendering is
// pure, never fails, and must be safe with no beatmap loaded.
package render

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nowplaybot/nowplay/pkg/models"
)

var (
	placeholderRegex = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)
	spaceRunRegex    = regexp.MustCompile(` {2,}`)
)

// Context holds the resolved value for every known placeholder. Known
// placeholders with missing data resolve to the empty string.
type Context struct {
	values map[string]string
}

// NewContext builds the placeholder table from a snapshot and an optional
// estimate. Both may be nil.
func NewContext(gs *models.GameState, est *models.PPEstimate) Context {
	values := map[string]string{
		"id":      "",
		"artist":  "",
		"title":   "",
		"diff":    "",
		"creator": "",
		"status":  "",
		"link":    "",
		"mods":    "",
	}
	for _, bp := range models.Breakpoints {
		values["pp_"+strconv.Itoa(bp)] = ""
	}

	if gs != nil {
		values["mods"] = gs.Mods.String()
		if values["mods"] == "" && gs.ModsKnown {
			values["mods"] = "NoMod"
		}
		if b := gs.Beatmap; b != nil {
			if b.ID > 0 {
				values["id"] = strconv.FormatInt(b.ID, 10)
			}
			values["artist"] = b.Artist
			values["title"] = b.Title
			values["diff"] = b.DifficultyName
			values["creator"] = b.Creator
			values["status"] = string(b.Status)
			values["link"] = b.Link()
		}
	}

	if est != nil && !est.Unavailable {
		for _, bp := range models.Breakpoints {
			if v, ok := est.At(bp); ok {
				values["pp_"+strconv.Itoa(bp)] = strconv.FormatFloat(v, 'f', 0, 64)
			}
		}
	}

	return Context{values: values}
}

// Lookup returns the value for a known placeholder.
func (c Context) Lookup(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Render substitutes known placeholders and collapses the whitespace runs
// that empty substitutions leave behind. Unknown tokens pass through
// verbatim.
func Render(template string, ctx Context) string {
	out := placeholderRegex.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		if value, ok := ctx.values[name]; ok {
			return value
		}
		return token
	})

	out = spaceRunRegex.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
