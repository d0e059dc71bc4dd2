package forge

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/assignctl/internal/foundation/errors"
)

// Response is a fully buffered API response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	URL        string
	Method     string
	body       []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return errors.ForgeError("failed to decode response").
			WithCause(err).
			WithContext("url", r.URL).
			WithContext("status", r.StatusCode).
			Build()
	}
	return nil
}

// Snippet returns up to 512 bytes of the body on a single line, for diagnostics.
func (r *Response) Snippet() string {
	b := r.body
	if len(b) > 512 {
		cut := 512
		for cut > 0 && !utf8.RuneStart(b[cut]) {
			cut--
		}
		b = b[:cut]
	}
	return strings.ReplaceAll(string(b), "\n", " ")
}

// NextPage returns the target of the rel="next" Link relation, if any.
func (r *Response) NextPage() (string, bool) {
	next, ok := ParseLinkHeader(r.Header.Values("Link"))["next"]
	return next, ok && next != ""
}

// ParseLinkHeader parses RFC 8288 style Link header values into a map keyed
// by relation. Only the first target seen for each relation is kept.
func ParseLinkHeader(values []string) map[string]string {
	links := make(map[string]string)
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			segments := strings.Split(part, ";")
			target := strings.TrimSpace(segments[0])
			if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
				continue
			}
			target = strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
			for _, param := range segments[1:] {
				key, val, ok := strings.Cut(strings.TrimSpace(param), "=")
				if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
					continue
				}
				for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(val), `"`)) {
					if _, seen := links[rel]; !seen {
						links[rel] = target
					}
				}
			}
		}
	}
	return links
}
