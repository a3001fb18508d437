package gemini

import (
	"testing"
)

func TestParseNarrativeFenced(t *testing.T) {
	payload := "```json\n{\"executive_summary\": \"Constructive setup\", \"swing\": {\"action\": \"buy\", \"confidence\": 62, \"entry\": 100.5, \"target\": 106, \"stop_loss\": 97, \"rationale\": \"Trend intact\"}}\n```"

	n, err := ParseNarrative(payload)
	if err != nil {
		t.Fatalf("ParseNarrative: %v", err)
	}
	if n.ExecutiveSummary != "Constructive setup" {
		t.Errorf("summary = %q", n.ExecutiveSummary)
	}
	swing := n.Horizons["swing"]
	if swing == nil {
		t.Fatal("missing swing horizon")
	}
	if swing.Action != "BUY" || swing.Confidence != 62 {
		t.Errorf("swing = %+v", swing)
	}
}

func TestParseNarrativeUnwrapsSingleKeyWrapper(t *testing.T) {
	payload := `{"analysis": {"executive_summary": "Wrapped", "intraday": {"action": "WAIT", "confidence": 30}}}`

	n, err := ParseNarrative(payload)
	if err != nil {
		t.Fatalf("ParseNarrative: %v", err)
	}
	if n.ExecutiveSummary != "Wrapped" {
		t.Errorf("summary = %q, wrapper not unwrapped", n.ExecutiveSummary)
	}
	if n.Horizons["intraday"] == nil {
		t.Error("missing intraday horizon after unwrap")
	}
}

func TestParseNarrativeRepairsMalformedFields(t *testing.T) {
	payload := `{
		"executive_summary": {"text": "Dict-valued summary"},
		"positional": {
			"action": "HOLD",
			"confidence": "55",
			"rationale": "ok",
			"signals": [
				{"name": "rsi", "value_at_analysis": 58.2, "interpretation": "neutral"},
				{"name": "cci", "value_at_analysis": null, "interpretation": "dropped"}
			]
		},
		"market_sentiment": {"overall": "neutral", "score": "0.1", "news_score": 12}
	}`

	n, err := ParseNarrative(payload)
	if err != nil {
		t.Fatalf("ParseNarrative: %v", err)
	}
	if n.ExecutiveSummary != "Dict-valued summary" {
		t.Errorf("summary = %q, dict not stringified", n.ExecutiveSummary)
	}

	pos := n.Horizons["positional"]
	if pos == nil {
		t.Fatal("missing positional horizon")
	}
	if pos.Confidence != 55 {
		t.Errorf("confidence = %v, string not coerced", pos.Confidence)
	}
	if pos.Entry != 0 || pos.Target != 0 {
		t.Errorf("missing numeric fields must repair to 0, got entry=%v target=%v", pos.Entry, pos.Target)
	}
	if len(pos.Signals) != 1 || pos.Signals[0].Name != "rsi" {
		t.Errorf("null-valued signals must be dropped, got %+v", pos.Signals)
	}

	if n.Sentiment == nil || n.Sentiment.Score != 0.1 {
		t.Errorf("sentiment score not coerced: %+v", n.Sentiment)
	}
}

func TestParseNarrativeHorizonsGroup(t *testing.T) {
	payload := `{"executive_summary": "g", "horizons": {"longterm": {"action": "BUY", "confidence": 70}}}`

	n, err := ParseNarrative(payload)
	if err != nil {
		t.Fatalf("ParseNarrative: %v", err)
	}
	if n.Horizons["longterm"] == nil {
		t.Error("horizons group not flattened")
	}
}

func TestParseNarrativeRejectsGarbage(t *testing.T) {
	if _, err := ParseNarrative("not json at all"); err == nil {
		t.Error("expected error for non-JSON input")
	}
}
