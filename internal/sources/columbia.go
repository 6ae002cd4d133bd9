// internal/sources/columbia.go
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/xeipuuv/gojsonschema"

	"dining-aggregator/internal/catalog"
	"dining-aggregator/internal/common/config"
	dinerrors "dining-aggregator/internal/common/errors"
	dinhttp "dining-aggregator/internal/common/http"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/menu"
)

// The dining site embeds the menu as a JSON document inside a backtick
// template literal in an inline script tag.
var menuDataPattern = regexp.MustCompile("(?s)var menu_data = `(.+?)`;")

// dynamicPayloadSchema is the minimal shape contract for the embedded
// document. Anything structurally off is rejected up front so the mapping
// code below never has to guard against type surprises.
const dynamicPayloadSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"date_range_fields": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"date_from": {"type": ["string", "null"]},
						"date_to": {"type": ["string", "null"]},
						"menu_type": {"type": "array", "items": {"type": "string"}},
						"stations": {"type": "array", "items": {"type": "object"}}
					}
				}
			}
		}
	}
}`

// ColumbiaSource scrapes venues whose menus are embedded in their page HTML.
type ColumbiaSource struct {
	baseURL string
	client  *dinhttp.Client
	schema  *gojsonschema.Schema
	log     logger.Logger
}

func NewColumbiaSource(cfg config.ColumbiaSourceConfig, log logger.Logger) *ColumbiaSource {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(dynamicPayloadSchema))
	if err != nil {
		// The schema is a compile-time constant; failing to parse it is a bug.
		panic(fmt.Sprintf("sources: bad dynamic payload schema: %v", err))
	}

	return &ColumbiaSource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  dinhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		schema:  schema,
		log:     log.WithFields(map[string]interface{}{"component": "columbia_source"}),
	}
}

// Upstream document shapes. Fields not listed are ignored.
type dynamicMenuEntry struct {
	DateRangeFields []dynamicDateRange `json:"date_range_fields"`
}

type dynamicDateRange struct {
	DateFrom string           `json:"date_from"`
	DateTo   string           `json:"date_to"`
	MenuType []string         `json:"menu_type"`
	Stations []dynamicStation `json:"stations"`
}

type dynamicStation struct {
	Station        []string           `json:"station"`
	MealsParagraph []dynamicMealEntry `json:"meals_paragraph"`
}

type dynamicMealEntry struct {
	Title     string   `json:"title"`
	MealText  string   `json:"meal_text"`
	Allergens []string `json:"allergens"`
	Prefs     []string `json:"prefs"`
}

// Fetch downloads the venue page and extracts its embedded menu document. A
// page without a payload, or with one that fails schema validation, yields no
// fragments and no error: the venue still reports as open_no_menu or closed
// from its schedule rather than as broken.
func (s *ColumbiaSource) Fetch(ctx context.Context, v *catalog.Venue, _ time.Time) ([]menu.RawFragment, *dinerrors.UpstreamError) {
	url := s.baseURL + v.Path

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, dinerrors.NewNetworkError(v.Source, err)
	}

	resp, err := s.client.DoWithContext(ctx, req)
	if err != nil {
		return nil, dinerrors.NewNetworkError(v.Source, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, dinerrors.NewServiceUnavailableError(v.Source)
	case resp.StatusCode != http.StatusOK:
		return nil, dinerrors.NewUpstreamHTTPError(v.Source, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dinerrors.NewNetworkError(v.Source, err)
	}

	entries, perr := s.extractPayload(body, v)
	if perr != nil {
		s.log.Warn("unusable menu payload", map[string]interface{}{
			"venue": v.Name,
			"code":  string(perr.Code),
			"error": perr.Details,
		})
		return nil, nil
	}

	return mapDynamicEntries(entries), nil
}

// extractPayload pulls the embedded document out of the page HTML and decodes
// it. The document arrives with its non-ASCII characters escaped; the raw
// text is kept as a fallback for pages that stop escaping.
func (s *ColumbiaSource) extractPayload(body []byte, v *catalog.Venue) ([]dynamicMenuEntry, *dinerrors.UpstreamError) {
	m := menuDataPattern.FindSubmatch(body)
	if m == nil {
		return nil, dinerrors.NewPayloadNotFoundError(v.Source, "no menu_data script block on "+v.Path)
	}

	raw := string(m[1])

	decoded, err := s.decodeEntries(unescapeUnicode(raw))
	if err != nil {
		decoded, err = s.decodeEntries(raw)
	}
	if err != nil {
		return nil, dinerrors.NewPayloadInvalidError(v.Source, err)
	}
	return decoded, nil
}

func (s *ColumbiaSource) decodeEntries(doc string) ([]dynamicMenuEntry, error) {
	result, err := s.schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		return nil, fmt.Errorf("schema violation: %v", result.Errors()[0])
	}

	var entries []dynamicMenuEntry
	if err := json.Unmarshal([]byte(doc), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func mapDynamicEntries(entries []dynamicMenuEntry) []menu.RawFragment {
	var fragments []menu.RawFragment
	for _, entry := range entries {
		for _, dr := range entry.DateRangeFields {
			if len(dr.MenuType) == 0 {
				continue
			}

			stations := make([]menu.RawStation, 0, len(dr.Stations))
			for _, st := range dr.Stations {
				rs := menu.RawStation{}
				if len(st.Station) > 0 {
					rs.ID = st.Station[0]
				}
				for _, me := range st.MealsParagraph {
					rs.Items = append(rs.Items, menu.RawItem{
						Name:         me.Title,
						Description:  me.MealText,
						Allergens:    me.Allergens,
						DietaryPrefs: me.Prefs,
					})
				}
				stations = append(stations, rs)
			}

			fragments = append(fragments, menu.RawFragment{
				DateFrom: dr.DateFrom,
				DateTo:   dr.DateTo,
				MealType: dr.MenuType[0],
				Stations: stations,
			})
		}
	}
	return fragments
}

// unescapeUnicode resolves backslash escapes in the embedded document:
// \uXXXX sequences (including surrogate pairs) and the usual single-character
// escapes. Unknown escapes pass through untouched.
func unescapeUnicode(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}

		switch s[i+1] {
		case 'u':
			r, n := decodeHexRune(s[i:])
			if n == 0 {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteRune(r)
			i += n
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case '"', '\'', '/', '\\':
			b.WriteByte(s[i+1])
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// decodeHexRune decodes a \uXXXX sequence at the start of s, consuming a
// following low surrogate when present. Returns the rune and bytes consumed,
// or n=0 when the sequence is malformed.
func decodeHexRune(s string) (rune, int) {
	if len(s) < 6 {
		return 0, 0
	}
	hi, err := strconv.ParseUint(s[2:6], 16, 32)
	if err != nil {
		return 0, 0
	}

	r := rune(hi)
	if !utf16.IsSurrogate(r) {
		return r, 6
	}

	if len(s) >= 12 && s[6] == '\\' && s[7] == 'u' {
		if lo, err := strconv.ParseUint(s[8:12], 16, 32); err == nil {
			if combined := utf16.DecodeRune(r, rune(lo)); combined != 0xFFFD {
				return combined, 12
			}
		}
	}
	return 0xFFFD, 6
}
