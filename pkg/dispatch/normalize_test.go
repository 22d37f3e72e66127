package dispatch

import (
	"reflect"
	"strings"
	"testing"
)

func TestNormalize_PassThrough(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want any
	}{
		{"string", "pong", "pong"},
		{"int", 42, 42},
		{"bool", true, true},
		{"nil", nil, nil},
		{"slice", []int{1, 2, 3}, []int{1, 2, 3}},
		{"map without ok key", map[string]any{"foo": "bar"}, map[string]any{"foo": "bar"}},
		{"struct", struct{ Name string }{Name: "x"}, struct{ Name string }{Name: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Normalize(tt.raw, nil)
			if !env.OK {
				t.Fatalf("dispatch:normalize_test - expected OK=true, got error %q", env.Error)
			}
			if !reflect.DeepEqual(env.Result, tt.want) {
				t.Errorf("dispatch:normalize_test - Result = %v, want %v", env.Result, tt.want)
			}
			if env.Extras != nil {
				t.Errorf("dispatch:normalize_test - expected no extras, got %v", env.Extras)
			}
			if env.Error != "" {
				t.Errorf("dispatch:normalize_test - expected empty error, got %q", env.Error)
			}
		})
	}
}

func TestNormalize_MalformedOk(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"ok is string", map[string]any{"ok": "true"}},
		{"ok is int", map[string]any{"ok": 1}},
		{"ok is nil", map[string]any{"ok": nil}},
		{"ok is map", map[string]any{"ok": map[string]any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Normalize(tt.raw, nil)
			if env.OK {
				t.Fatal("dispatch:normalize_test - expected OK=false")
			}
			if env.Error != errOkNotBoolean {
				t.Errorf("dispatch:normalize_test - Error = %q, want %q", env.Error, errOkNotBoolean)
			}
		})
	}
}

func TestNormalize_MissingErrorString(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"no error field", map[string]any{"ok": false}},
		{"error is int", map[string]any{"ok": false, "error": 500}},
		{"error is nil", map[string]any{"ok": false, "error": nil}},
		{"error is empty string", map[string]any{"ok": false, "error": ""}},
		{"typed envelope without error", Envelope{OK: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Normalize(tt.raw, nil)
			if env.OK {
				t.Fatal("dispatch:normalize_test - expected OK=false")
			}
			if env.Error != errMissingErrorStr {
				t.Errorf("dispatch:normalize_test - Error = %q, want %q", env.Error, errMissingErrorStr)
			}
		})
	}
}

func TestNormalize_OkShape(t *testing.T) {
	env := Normalize(map[string]any{"ok": true, "result": "fine"}, nil)
	if !env.OK {
		t.Fatal("dispatch:normalize_test - expected OK=true")
	}
	if env.Result != "fine" {
		t.Errorf("dispatch:normalize_test - Result = %v, want %q", env.Result, "fine")
	}
	if env.Extras != nil {
		t.Errorf("dispatch:normalize_test - expected no extras, got %v", env.Extras)
	}
}

func TestNormalize_ErrShape(t *testing.T) {
	env := Normalize(map[string]any{"ok": false, "error": "boom"}, nil)
	if env.OK {
		t.Fatal("dispatch:normalize_test - expected OK=false")
	}
	if env.Error != "boom" {
		t.Errorf("dispatch:normalize_test - Error = %q, want %q", env.Error, "boom")
	}
}

func TestNormalize_ExtrasPreserved(t *testing.T) {
	raw := map[string]any{
		"ok":      true,
		"result":  "fine",
		"info":    "loaded from cache",
		"details": map[string]any{"hits": 3},
	}

	env := Normalize(raw, nil)
	if !env.OK {
		t.Fatal("dispatch:normalize_test - expected OK=true")
	}
	if env.Result != "fine" {
		t.Errorf("dispatch:normalize_test - Result = %v, want %q", env.Result, "fine")
	}
	if len(env.Extras) != 2 {
		t.Fatalf("dispatch:normalize_test - Extras length = %d, want 2", len(env.Extras))
	}
	if env.Extras["info"] != "loaded from cache" {
		t.Errorf("dispatch:normalize_test - Extras[info] = %v", env.Extras["info"])
	}
	details, ok := env.Extras["details"].(map[string]any)
	if !ok || details["hits"] != 3 {
		t.Errorf("dispatch:normalize_test - Extras[details] = %v, want hits=3", env.Extras["details"])
	}
}

func TestNormalize_ErrWithAccidentalResult(t *testing.T) {
	env := Normalize(map[string]any{"ok": false, "error": "boom", "result": "leftover"}, nil)
	if env.OK {
		t.Fatal("dispatch:normalize_test - expected OK=false")
	}
	if env.Error != "boom" {
		t.Errorf("dispatch:normalize_test - Error = %q, want %q", env.Error, "boom")
	}
	if env.Result != nil {
		t.Errorf("dispatch:normalize_test - Result should be empty on error shape, got %v", env.Result)
	}
	if env.Extras["result"] != "leftover" {
		t.Errorf("dispatch:normalize_test - Extras[result] = %v, want %q", env.Extras["result"], "leftover")
	}
}

func TestNormalize_ExtrasWarnLogsKeysOnly(t *testing.T) {
	logger, logged := captureLogger()

	Normalize(map[string]any{
		"ok":     true,
		"result": "fine",
		"secret": "hunter2",
		"info":   "aux",
	}, logger)

	out := logged()
	if !strings.Contains(out, "secret") || !strings.Contains(out, "info") {
		t.Errorf("dispatch:normalize_test - expected warn naming extra keys, got %q", out)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("dispatch:normalize_test - extras warning must not include values")
	}
}

func TestNormalize_TypedEnvelope(t *testing.T) {
	env := Normalize(Envelope{OK: true, Result: 7}, nil)
	if !env.OK || env.Result != 7 {
		t.Errorf("dispatch:normalize_test - got %+v, want OK result 7", env)
	}

	env = Normalize(&Envelope{OK: false, Error: "nope"}, nil)
	if env.OK || env.Error != "nope" {
		t.Errorf("dispatch:normalize_test - got %+v, want error %q", env, "nope")
	}

	env = Normalize((*Envelope)(nil), nil)
	if !env.OK || env.Result != nil {
		t.Errorf("dispatch:normalize_test - nil *Envelope should pass through as empty success, got %+v", env)
	}
}

func TestNormalize_EnvelopeErrorOnOkShapeGoesToExtras(t *testing.T) {
	env := Normalize(Envelope{OK: true, Result: "r", Error: "stray"}, nil)
	if !env.OK {
		t.Fatal("dispatch:normalize_test - expected OK=true")
	}
	if env.Error != "" {
		t.Errorf("dispatch:normalize_test - Error = %q, want empty on ok shape", env.Error)
	}
	if env.Extras["error"] != "stray" {
		t.Errorf("dispatch:normalize_test - Extras[error] = %v, want %q", env.Extras["error"], "stray")
	}
}

func TestNormalize_ExtrasCopied(t *testing.T) {
	raw := map[string]any{"ok": true, "result": "r", "info": "a"}
	env := Normalize(raw, nil)

	raw["info"] = "mutated"
	delete(raw, "result")

	if env.Extras["info"] != "a" {
		t.Errorf("dispatch:normalize_test - Extras must be a copy, got %v", env.Extras["info"])
	}
	if env.Result != "r" {
		t.Errorf("dispatch:normalize_test - Result must be captured at normalize time, got %v", env.Result)
	}
}
