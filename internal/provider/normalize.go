package provider

import (
	"bytes"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reBrackets = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	rePromo    = regexp.MustCompile(`(?i)\b(scriptblox|rscripts|wearedevs|universal|best|free|working|202\d)\b`)
	reBrand    = regexp.MustCompile(`(?i)\b(scriptblox|rscripts|wearedevs|universal)\b`)
)

// CleanTitle removes bracketed tags and promotional words from a script title.
func CleanTitle(title string) string {
	title = reBrackets.ReplaceAllString(title, " ")
	title = rePromo.ReplaceAllString(title, " ")
	return collapse(title)
}

// CleanText removes provider names and "universal" from game names and descriptions.
func CleanText(text string) string {
	return collapse(reBrand.ReplaceAllString(text, " "))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ResolveURL resolves ref against base. Empty refs return fallback.
func ResolveURL(base, ref, fallback string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return fallback
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	b, err := url.Parse(base)
	if err != nil {
		return fallback
	}
	r, err := url.Parse(ref)
	if err != nil {
		return fallback
	}

	return b.ResolveReference(r).String()
}

// Loadstring builds a loader snippet for a remote script location.
func Loadstring(remote string) string {
	return `loadstring(game:HttpGet("` + remote + `"))()`
}

// payloadFrom returns inline code when present, otherwise a loader for the remote
// pointer. Absolute pointers are used as is, "/raw/..." paths resolve against base.
func payloadFrom(base, inline, remote string) string {
	if strings.TrimSpace(inline) != "" {
		return inline
	}
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return ""
	}
	if strings.HasPrefix(remote, "http") {
		return Loadstring(remote)
	}
	if strings.HasPrefix(remote, "/") {
		return Loadstring(strings.TrimRight(base, "/") + remote)
	}

	// Anything else is treated as code.
	return remote
}

// flexString accepts JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// flexInt accepts JSON numbers and numeric strings. Anything else reads as zero.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// parseTime reads RFC 3339 timestamps, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// executorNames accepts a list of strings or of {"name": ...} objects.
func executorNames(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var plain []string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain
	}

	var objects []struct {
		Name  string `json:"name"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &objects); err != nil {
		return nil
	}

	var names []string
	for _, o := range objects {
		if o.Name != "" {
			names = append(names, o.Name)
		} else if o.Title != "" {
			names = append(names, o.Title)
		}
	}

	return names
}
