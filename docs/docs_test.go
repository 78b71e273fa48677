package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestSwaggerDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc()
	if err != nil {
		t.Fatalf("ReadDoc: %v", err)
	}
	var parsed struct {
		Info  map[string]string          `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}
	if parsed.Info["title"] != "IntelliInspect gateway API" {
		t.Fatalf("unexpected info: %v", parsed.Info)
	}
	for _, p := range []string{"/api/live/start", "/api/upload/dataset", "/api/live/history/events"} {
		if _, ok := parsed.Paths[p]; !ok {
			t.Fatalf("path %s missing", p)
		}
	}
}
