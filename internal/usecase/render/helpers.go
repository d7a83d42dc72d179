package render

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/tangzero/inflector"

	"github.com/kailas-cloud/rollup/internal/domain/item"
)

// Date layouts used by the helpers.
const (
	LongDateLayout  = "Jan 2, 2006 3:04 PM"
	ShortDateLayout = "Jan 2, 2006"
)

// relativeLimit is the age beyond which relativeDate falls back to a short date.
const relativeLimit = 30 * 24 * time.Hour

var fileIcons = map[string]string{
	"pdf":  "file-pdf",
	"doc":  "file-word",
	"docx": "file-word",
	"xls":  "file-excel",
	"xlsx": "file-excel",
	"csv":  "file-excel",
	"ppt":  "file-powerpoint",
	"pptx": "file-powerpoint",
	"txt":  "file-text",
	"md":   "file-text",
	"png":  "file-image",
	"jpg":  "file-image",
	"jpeg": "file-image",
	"gif":  "file-image",
	"svg":  "file-image",
	"zip":  "file-archive",
	"7z":   "file-archive",
	"mp4":  "file-video",
	"mov":  "file-video",
	"aspx": "file-web",
	"html": "file-web",
	"htm":  "file-web",
}

func helpers(now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"formatDate": func(v any) string {
			t, ok := toTime(v)
			if !ok {
				return ""
			}
			return t.Format(LongDateLayout)
		},
		"shortDate": func(v any) string {
			t, ok := toTime(v)
			if !ok {
				return ""
			}
			return t.Format(ShortDateLayout)
		},
		"relativeDate": func(v any) string {
			t, ok := toTime(v)
			if !ok {
				return ""
			}
			return relative(now(), t)
		},
		"truncate":  truncate,
		"ifEquals":  ifEquals,
		"equals":    func(a, b any) bool { return toText(a) == toText(b) },
		"fileIcon":  FileIcon,
		"pluralize": pluralize,
		"field": func(it item.Item, name string) string {
			return it.Field(name).Text()
		},
	}
}

// FileIcon maps a file extension (with or without the dot) to an icon name.
func FileIcon(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if icon, ok := fileIcons[ext]; ok {
		return icon
	}
	return "file"
}

func relative(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		if d < -time.Minute {
			return t.Format(ShortDateLayout)
		}
		return "just now"
	case d < time.Hour:
		return ago(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return ago(int(d/time.Hour), "hour")
	case d <= relativeLimit:
		return ago(int(d/(24*time.Hour)), "day")
	default:
		return t.Format(ShortDateLayout)
	}
}

func ago(n int, unit string) string {
	return pluralize(n, unit) + " ago"
}

// pluralize renders "1 file" or "3 files".
func pluralize(n any, word string) string {
	count, _ := strconv.Atoi(toText(n))
	if count == 1 {
		return "1 " + word
	}
	return strconv.Itoa(count) + " " + inflector.Pluralize(word)
}

// truncate shortens s to n runes, appending an ellipsis when cut.
func truncate(n int, v any) string {
	s := toText(v)
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimRight(string(runes[:n]), " ") + "…"
}

func ifEquals(a, b any, yes, no string) string {
	if toText(a) == toText(b) {
		return yes
	}
	return no
}

func toText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case item.Value:
		return x.Text()
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case item.Value:
		return x.Time()
	case string:
		return item.ParseTime(x)
	default:
		return time.Time{}, false
	}
}
