package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// saveSchema guards against corrupted or hand-edited save files before
// they reach the merge step. It checks types and non-negativity of the
// fields the economy trusts; optional fields stay optional so old saves
// still validate.
const saveSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["level", "gold", "gems"],
	"properties": {
		"playerId":   {"type": "string"},
		"playerName": {"type": "string"},
		"level":      {"type": "integer", "minimum": 1},
		"exp":        {"type": "integer", "minimum": 0},
		"expToNext":  {"type": "integer", "minimum": 1},
		"gold":       {"type": "integer", "minimum": 0},
		"gems":       {"type": "integer", "minimum": 0},
		"magicPowder": {"type": "integer", "minimum": 0},
		"reputation":  {"type": "integer", "minimum": 0},
		"customerSatisfaction": {"type": "integer", "minimum": 0, "maximum": 100},
		"workshops": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id":    {"type": "string"},
					"level": {"type": "integer", "minimum": 0}
				}
			}
		},
		"inventory": {
			"type": "object",
			"properties": {
				"potions":      {"type": "integer", "minimum": 0},
				"enchantments": {"type": "integer", "minimum": 0},
				"crystals":     {"type": "integer", "minimum": 0},
				"rareItems":    {"type": "integer", "minimum": 0}
			}
		},
		"version":  {"type": "string"},
		"saveTime": {"type": "integer", "minimum": 0}
	}
}`

var compiledSaveSchema = jsonschema.MustCompileString("save.schema.json", saveSchema)

// ValidateSaveBlob rejects blobs that would corrupt the tree.
func ValidateSaveBlob(blob []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("save is not valid json: %w", err)
	}
	if err := compiledSaveSchema.Validate(doc); err != nil {
		return fmt.Errorf("save schema: %w", err)
	}
	return nil
}
