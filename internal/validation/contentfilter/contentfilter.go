// Package contentfilter rejects name values that look like SQL or script
// payloads. It is a denylist: matching values are refused, everything else
// passes. Queries are parameterized and templates escape output, so the filter
// only narrows what ends up in the users table.
package contentfilter

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Category groups patterns by the kind of payload they target.
type Category string

const (
	SQL      Category = "sql"
	Script   Category = "script"
	Markup   Category = "markup"
	Encoding Category = "encoding"
)

// Finding describes the first rule a value tripped.
type Finding struct {
	Category Category
	Pattern  string
}

var sqlKeywords = []string{
	"select", "insert", "update", "delete", "drop", "create", "alter", "table", "database",
	"union", "where", "from", "into", "values", "set", "having", "group", "order", "by",
	"and", "or", "not", "like", "in", "exists", "between", "is", "null",
	"exec", "execute",
}

var scriptKeywords = []string{
	"script", "javascript", "vbscript", "jscript",
	"alert", "confirm", "prompt", "document", "window",
	"location", "href", "src",
	"expression", "url", "data", "text", "html", "css", "style",
}

var eventHandlers = []string{
	"onload", "onerror", "onclick", "onmouseover", "onfocus", "onblur",
	"onchange", "onsubmit", "onreset", "onselect", "onkeydown",
	"onkeyup", "onkeypress", "onmousedown", "onmouseup",
	"onmousemove", "onmouseout", "onmouseenter", "onmouseleave",
	"oncontextmenu", "ondblclick", "onwheel", "onresize",
	"onscroll", "onbeforeunload", "onunload", "onloadstart",
	"onloadend", "onprogress", "onabort", "oncanplay",
	"oncanplaythrough", "ondurationchange", "onemptied",
	"onended", "onloadeddata", "onloadedmetadata",
	"onpause", "onplay", "onplaying", "onratechange",
	"onseeked", "onseeking", "onstalled", "onsuspend",
	"ontimeupdate", "onvolumechange", "onwaiting",
}

var tagNames = []string{
	"iframe", "object", "embed", "applet", "form",
	"input", "textarea", "button", "select", "option",
	"optgroup", "fieldset", "legend", "label", "img",
	"svg", "canvas", "audio", "video", "source",
	"track", "map", "area", "link", "meta",
	"title", "base", "head", "body", "html",
	"div", "span", "p", "h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li", "dl", "dt", "dd", "table",
	"tr", "td", "th", "thead", "tbody", "tfoot",
	"caption", "col", "colgroup",
}

var openingTags = []string{
	"iframe", "object", "embed", "applet", "form", "input", "textarea", "button",
	"select", "img", "svg", "canvas", "audio", "video", "link", "meta", "style",
}

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

type rule struct {
	category Category
	re       *regexp.Regexp
}

var rules = compileRules()

func compileRules() []rule {
	var out []rule
	add := func(c Category, pattern string) {
		out = append(out, rule{category: c, re: regexp.MustCompile(pattern)})
	}

	add(SQL, words(sqlKeywords))
	add(SQL, `['"]\s*;`)
	add(SQL, `['"]\s*--`)
	add(SQL, `(?i)['"]\s*(?:drop|insert|update|delete|union)`)
	add(SQL, `;`)
	add(SQL, `--`)
	add(SQL, `/\*.*\*/`)

	add(Script, words(scriptKeywords))
	add(Script, words(eventHandlers))
	add(Script, `(?i)javascript\s*:`)
	add(Script, `(?i)vbscript\s*:`)
	add(Script, `(?i)data\s*:\s*text\s*/\s*html`)
	add(Script, `(?i)expression\s*\(`)
	add(Script, `(?i)url\s*\(\s*javascript`)
	add(Script, `(?i)on\w+\s*=`)

	add(Markup, words(tagNames))
	add(Markup, `(?i)<script`)
	add(Markup, `(?i)</script>`)
	add(Markup, `(?i)<(?:`+strings.Join(openingTags, "|")+`)`)

	add(Encoding, `(?i)&#x?[0-9a-f]+;`)
	add(Encoding, `(?i)&[a-z]+;`)
	add(Encoding, `(?i)\\x[0-9a-f]{2}`)
	add(Encoding, `(?i)\\u[0-9a-f]{4}`)

	return out
}

// words builds a case-insensitive whole-word alternation.
func words(list []string) string {
	quoted := make([]string, len(list))
	for i, w := range list {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return `(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`
}

// Filter checks values against the denylist. It is safe for concurrent use.
type Filter struct {
	policy *bluemonday.Policy
}

// New returns a Filter with the built-in rules.
func New() *Filter {
	return &Filter{policy: bluemonday.StrictPolicy()}
}

// Match reports the first rule value trips, if any.
func (f *Filter) Match(value string) (Finding, bool) {
	if value == "" {
		return Finding{}, false
	}
	for _, r := range rules {
		if r.re.MatchString(value) {
			return Finding{Category: r.category, Pattern: r.re.String()}, true
		}
	}
	// Anything the strict policy strips is markup, even if no pattern caught it.
	// The tokenizer folds line endings, so compare with them folded too.
	plain := lineEndings.Replace(value)
	if lineEndings.Replace(html.UnescapeString(f.policy.Sanitize(plain))) != plain {
		return Finding{Category: Markup, Pattern: "bluemonday.StrictPolicy"}, true
	}
	return Finding{}, false
}

// Contains reports whether value trips any rule.
func (f *Filter) Contains(value string) bool {
	_, ok := f.Match(value)
	return ok
}
