package platform

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

// fallbackFamilies maps an endpoint substring to a fixture key, in match order.
var fallbackFamilies = []struct {
	match string
	key   string
}{
	{"/forums/categories", "forum_categories"},
	{"/events", "events"},
	{"/mentors", "mentors"},
	{"/stats", "stats"},
	{"/search", "search"},
}

var fallbackData = mustLoadFallback(fallbackYAML)

func mustLoadFallback(src []byte) map[string][]byte {
	data, err := loadFallback(src)
	if err != nil {
		panic(err)
	}
	return data
}

// loadFallback decodes the YAML fixtures and re-encodes each family as JSON.
func loadFallback(src []byte) (map[string][]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("parse fallback fixtures: %w", err)
	}
	out := make(map[string][]byte, len(doc))
	for key, v := range doc {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode fallback %q: %w", key, err)
		}
		out[key] = b
	}
	return out, nil
}

// fallbackFor returns the family name and JSON fixture for endpoint. Unknown
// endpoints get an empty array.
func fallbackFor(endpoint string) (string, []byte) {
	for _, f := range fallbackFamilies {
		if strings.Contains(endpoint, f.match) {
			if data, ok := fallbackData[f.key]; ok {
				return f.key, data
			}
		}
	}
	return "none", []byte("[]")
}
