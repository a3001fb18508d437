package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bobmcallan/horizon/internal/models"
)

// ParseNarrative decodes the model's JSON output into a Narrative, running
// the repair pass so downstream code can assume a valid schema.
func ParseNarrative(text string) (*models.Narrative, error) {
	cleaned := stripMarkdownFences(text)

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse narrative JSON: %w", err)
	}

	raw = unwrapSingleKey(raw)
	return repairNarrative(raw), nil
}

// stripMarkdownFences removes ```json fences the model sometimes wraps its
// output in.
func stripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// unwrapSingleKey peels wrappers like {"analysis": {...}} that models add
// despite schema instructions.
func unwrapSingleKey(raw map[string]any) map[string]any {
	for len(raw) == 1 {
		for _, v := range raw {
			inner, ok := v.(map[string]any)
			if !ok {
				return raw
			}
			raw = inner
		}
	}
	return raw
}

func repairNarrative(raw map[string]any) *models.Narrative {
	n := &models.Narrative{
		ExecutiveSummary: coerceText(raw["executive_summary"]),
		OptionsFNO:       coerceText(raw["options_fno"]),
		Horizons:         make(map[string]*models.HorizonPerspective, len(models.HorizonNames)),
	}

	for _, name := range models.HorizonNames {
		if h, ok := raw[name].(map[string]any); ok {
			n.Horizons[name] = repairHorizon(h)
		}
	}
	// Some outputs nest the horizons under a "horizons" object.
	if group, ok := raw["horizons"].(map[string]any); ok {
		for _, name := range models.HorizonNames {
			if h, ok := group[name].(map[string]any); ok {
				n.Horizons[name] = repairHorizon(h)
			}
		}
	}

	if s, ok := raw["market_sentiment"].(map[string]any); ok {
		n.Sentiment = &models.MarketSentiment{
			Overall:   coerceText(s["overall"]),
			Score:     coerceFloat(s["score"]),
			NewsScore: coerceFloat(s["news_score"]),
			Summary:   coerceText(s["summary"]),
		}
	}

	return n
}

func repairHorizon(h map[string]any) *models.HorizonPerspective {
	p := &models.HorizonPerspective{
		Action:     strings.ToUpper(coerceText(h["action"])),
		Confidence: coerceFloat(h["confidence"]),
		Entry:      coerceFloat(h["entry"]),
		Target:     coerceFloat(h["target"]),
		StopLoss:   coerceFloat(h["stop_loss"]),
		Rationale:  coerceText(h["rationale"]),
	}

	if signals, ok := h["signals"].([]any); ok {
		for _, s := range signals {
			sig, ok := s.(map[string]any)
			if !ok {
				continue
			}
			// Signals with no observed value are hallucination bait.
			value, ok := sig["value_at_analysis"].(float64)
			if !ok {
				continue
			}
			p.Signals = append(p.Signals, models.NarrativeSignal{
				Name:            coerceText(sig["name"]),
				ValueAtAnalysis: models.Float(value),
				Interpretation:  coerceText(sig["interpretation"]),
			})
		}
	}

	return p
}

// coerceText stringifies values that should be text but sometimes arrive as
// nested objects.
func coerceText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		for _, key := range []string{"text", "summary", "value", "content"} {
			if s, ok := t[key].(string); ok {
				return s
			}
		}
		data, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// coerceFloat repairs numeric fields that arrive as strings or are missing
// entirely; the repair contract maps those to 0.
func coerceFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		var f float64
		if _, err := fmt.Sscanf(t, "%f", &f); err == nil {
			return f
		}
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	}
	return 0
}
