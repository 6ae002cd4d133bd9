// Package nutrition enriches canonical menu items with macro estimates from
// the USDA FoodData Central API.
package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"dining-aggregator/internal/common/config"
	dinhttp "dining-aggregator/internal/common/http"
	"dining-aggregator/internal/common/logger"
	"dining-aggregator/internal/menu"
)

// Manual values for foods the USDA search routinely mismatches (it tends to
// return the shells, dough or patties instead of the assembled dish).
var overrides = map[string]menu.Nutrition{
	"taco":       {Calories: 210, Protein: 9, Carbs: 13, Fat: 13, Sodium: 450, Source: "override"},
	"pizza":      {Calories: 285, Protein: 12, Carbs: 36, Fat: 10, Sodium: 640, Source: "override"},
	"burger":     {Calories: 354, Protein: 20, Carbs: 30, Fat: 16, Sodium: 497, Source: "override"},
	"burrito":    {Calories: 400, Protein: 18, Carbs: 50, Fat: 14, Sodium: 900, Source: "override"},
	"quesadilla": {Calories: 380, Protein: 16, Carbs: 35, Fat: 18, Sodium: 750, Source: "override"},
}

// Client looks up nutrition facts by food name, caching results for the
// process lifetime: dining menus repeat heavily day to day.
type Client struct {
	baseURL string
	apiKey  string
	http    *dinhttp.Client
	log     logger.Logger

	mu    sync.RWMutex
	cache map[string]*menu.Nutrition // nil value = known miss
}

func NewClient(cfg config.NutritionConfig, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    dinhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		log:     log.WithFields(map[string]interface{}{"component": "nutrition"}),
		cache:   make(map[string]*menu.Nutrition),
	}
}

// Lookup returns the best nutrition match for a food name, or nil when no
// trustworthy match exists. Lookup failures are soft: menus render fine
// without macros.
func (c *Client) Lookup(ctx context.Context, name string) *menu.Nutrition {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil
	}

	for fragment, n := range overrides {
		if strings.Contains(key, fragment) {
			val := n
			return &val
		}
	}

	c.mu.RLock()
	cached, hit := c.cache[key]
	c.mu.RUnlock()
	if hit {
		return cached
	}

	result := c.search(ctx, name)

	c.mu.Lock()
	c.cache[key] = result
	c.mu.Unlock()
	return result
}

type usdaSearchResponse struct {
	Foods []usdaFood `json:"foods"`
}

type usdaFood struct {
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	FoodNutrients []usdaNutrient `json:"foodNutrients"`
}

type usdaNutrient struct {
	NutrientName string  `json:"nutrientName"`
	Value        float64 `json:"value"`
}

func (c *Client) search(ctx context.Context, name string) *menu.Nutrition {
	endpoint := fmt.Sprintf("%s/foods/search?%s", c.baseURL, url.Values{
		"api_key":  {c.apiKey},
		"query":    {name},
		"pageSize": {"20"},
		"dataType": {"Survey (FNDDS)", "Foundation", "SR Legacy"},
	}.Encode())

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}

	resp, err := c.http.DoWithContext(ctx, req)
	if err != nil {
		c.log.Warn("usda lookup failed", map[string]interface{}{"food": name, "error": err.Error()})
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("usda lookup rejected", map[string]interface{}{"food": name, "status": resp.StatusCode})
		return nil
	}

	var payload usdaSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}

	return bestMatch(name, payload.Foods)
}

// bestMatch scores every candidate and returns the winner, filtering out
// entries whose numbers fail the plausibility checks.
func bestMatch(query string, foods []usdaFood) *menu.Nutrition {
	type scored struct {
		score int
		n     menu.Nutrition
	}

	queryLower := strings.ToLower(query)
	var candidates []scored

	for _, food := range foods {
		n := extractNutrients(food.FoodNutrients)
		if n.Calories == 0 || !isRealistic(n) {
			continue
		}

		score := 0
		desc := strings.ToLower(food.Description)
		if desc == queryLower {
			score += 100
		}
		if strings.Contains(desc, queryLower) || strings.Contains(queryLower, desc) {
			score += 50
		}
		if food.DataType == "Survey (FNDDS)" {
			score += 30
		}
		if n.Calories > 50 && n.Calories < 1000 {
			score += 20
		}
		if n.Protein > 0 && n.Carbs > 0 && n.Fat > 0 {
			score += 10
		}

		n.Source = "usda"
		candidates = append(candidates, scored{score: score, n: n})
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	best := candidates[0].n
	return &best
}

func extractNutrients(nutrients []usdaNutrient) menu.Nutrition {
	var n menu.Nutrition
	for _, nutrient := range nutrients {
		name := strings.ToLower(nutrient.NutrientName)
		switch {
		case strings.Contains(name, "energy"):
			n.Calories = nutrient.Value
		case strings.Contains(name, "protein"):
			n.Protein = nutrient.Value
		case strings.Contains(name, "carbohydrate"):
			n.Carbs = nutrient.Value
		case strings.Contains(name, "total lipid"), strings.Contains(name, "fat"):
			n.Fat = nutrient.Value
		case strings.Contains(name, "sodium"):
			n.Sodium = nutrient.Value
		}
	}
	return n
}

// isRealistic rejects entries with data quality problems: calorie counts that
// do not roughly match the macros, or a single macro dominating implausibly.
func isRealistic(n menu.Nutrition) bool {
	if n.Calories < 5 || n.Calories > 2000 {
		return false
	}

	calculated := n.Protein*4 + n.Carbs*4 + n.Fat*9
	if calculated > 0 {
		ratio := n.Calories / calculated
		if ratio < 0.5 || ratio > 2.0 {
			return false
		}
	}

	total := n.Protein + n.Carbs + n.Fat
	if total > 0 {
		maxMacro := n.Protein
		if n.Carbs > maxMacro {
			maxMacro = n.Carbs
		}
		if n.Fat > maxMacro {
			maxMacro = n.Fat
		}
		if maxMacro/total > 0.95 {
			return false
		}
	}

	return true
}

// Enricher walks a cycle's records and attaches nutrition facts to every item
// that resolves. Items without a match stay bare.
type Enricher struct {
	client  *Client
	enabled bool
}

func NewEnricher(cfg config.NutritionConfig, log logger.Logger) *Enricher {
	return &Enricher{
		client:  NewClient(cfg, log),
		enabled: cfg.Enabled && cfg.APIKey != "",
	}
}

func (e *Enricher) Enrich(ctx context.Context, records []menu.Record) {
	if !e.enabled {
		return
	}

	for ri := range records {
		for mi := range records[ri].Meals {
			for si := range records[ri].Meals[mi].Stations {
				items := records[ri].Meals[mi].Stations[si].Items
				for ii := range items {
					if ctx.Err() != nil {
						return
					}
					items[ii].Nutrition = e.client.Lookup(ctx, items[ii].Name)
				}
			}
		}
	}
}
