package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	actSchema := compile("act.schema.json")
	resultSchema := compile("result.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "player_id":"P1"
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "player_id":"P1",
	  "params":{"grid_width":9,"stamina_max":100,"capacity":50},
	  "view":{
	    "depth":-1,"max_depth":0,"cursor_x":4,
	    "stamina":100,"stamina_max":100,
	    "occupied":0,"capacity":50,"coins":0
	  }
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "id":"I1",
	  "action":"NAVIGATE",
	  "direction":"DOWN"
	}`), &act)
	validate(actSchema, act)

	var result any
	_ = json.Unmarshal([]byte(`{
	  "type":"RESULT",
	  "protocol_version":"1.0",
	  "ref":"I1",
	  "ok":false,
	  "code":"E_OUT_OF_STAMINA",
	  "message":"stamina exhausted",
	  "view":{
	    "depth":3,"max_depth":3,"cursor_x":4,
	    "stamina":0,"stamina_max":100,
	    "occupied":12,"capacity":50,"coins":140
	  }
	}`), &result)
	validate(resultSchema, result)
}
