package validator

import "testing"

func TestParse_VariableBounds(t *testing.T) {
	log := `"a": ok min-value-hit
"b": ok max-value-hit
`
	ov := Parse(log)
	if !ov.Variables["a"].HitMin || ov.Variables["a"].HitMax {
		t.Fatalf("a = %+v", ov.Variables["a"])
	}
	if ov.Variables["b"].HitMin || !ov.Variables["b"].HitMax {
		t.Fatalf("b = %+v", ov.Variables["b"])
	}
}

func TestParse_Features(t *testing.T) {
	log := `feature "uses-negative": hit
feature "uses-zero": not hit
`
	ov := Parse(log)
	if !ov.Features["uses-negative"] {
		t.Fatal("expected uses-negative feature hit")
	}
	if ov.Features["uses-zero"] {
		t.Fatal("expected uses-zero feature not hit")
	}
}

func TestOverview_MsgpRoundTrip(t *testing.T) {
	ov := Overview{
		Variables: map[string]VarBound{
			"a": {HitMin: true, HitMax: false},
			"b": {HitMin: false, HitMax: true},
		},
		Features: map[string]bool{"x": true, "y": false},
	}
	b, err := ov.MarshalMsg(nil)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	var decoded Overview
	rest, err := decoded.UnmarshalMsg(b)
	if err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected trailing bytes: %d", len(rest))
	}
	if decoded.Variables["a"] != ov.Variables["a"] || decoded.Variables["b"] != ov.Variables["b"] {
		t.Fatalf("got %+v, want %+v", decoded.Variables, ov.Variables)
	}
	if decoded.Features["x"] != true || decoded.Features["y"] != false {
		t.Fatalf("got %+v", decoded.Features)
	}
}

func TestParse_Empty(t *testing.T) {
	ov := Parse("")
	if len(ov.Variables) != 0 || len(ov.Features) != 0 {
		t.Fatalf("got %+v", ov)
	}
}
