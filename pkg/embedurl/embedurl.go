package embedurl

import "net/url"

// Clean returns the embed link with the hosted navigation pane suppressed.
// The URL is otherwise treated as opaque; anything unparseable is returned
// unchanged so the viewer can still attempt to render it.
func Clean(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Set("navContentPaneEnabled", "false")
	u.RawQuery = q.Encode()
	return u.String()
}
