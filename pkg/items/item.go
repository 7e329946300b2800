package items

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Conditions commonly used by the marketplace. The API accepts free text.
const (
	ConditionNew  = "New"
	ConditionGood = "Good"
	ConditionUsed = "Used"
)

// Item is a marketplace listing as exchanged with the items API.
//
// Decoding is tolerant of the key spellings different server builds use
// ("id" or "_id", "CollectionLocation" or "Collection-Location", snake_case).
// Keys the client does not know about are kept in Extra and written back on
// encode.
type Item struct {
	ID                 string         `json:"id,omitempty"`
	FirstName          string         `json:"FirstName"`
	LastName           string         `json:"LastName"`
	Product            string         `json:"Product"`
	Quantity           int            `json:"Quantity"`
	Condition          string         `json:"Condition"`
	CollectionLocation string         `json:"CollectionLocation"`
	Extra              map[string]any `json:"-"`
}

// normalizeKey folds case and separators so "Collection-Location",
// "collection_location" and "CollectionLocation" compare equal.
func normalizeKey(key string) string {
	return strings.ToLower(keyFolder.Replace(strings.TrimSpace(key)))
}

var keyFolder = strings.NewReplacer("-", "", "_", "", " ", "")

// canonicalKeys are the spellings MarshalJSON writes.
var canonicalKeys = map[string]bool{
	"id":                 true,
	"FirstName":          true,
	"LastName":           true,
	"Product":            true,
	"Quantity":           true,
	"Condition":          true,
	"CollectionLocation": true,
}

// MarshalJSON encodes the known fields and merges Extra, never letting Extra
// shadow a known field.
func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	base, err := json.Marshal(plain(i))
	if err != nil || len(i.Extra) == 0 {
		return base, err
	}

	fields := make(map[string]json.RawMessage, len(i.Extra)+7)
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	for key, val := range i.Extra {
		if isKnownKey(key) {
			continue
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("encode item field %q: %w", key, err)
		}
		fields[key] = raw
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes an item object, accepting alternate key spellings.
func (i *Item) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	// Aliases are applied first in a fixed order; canonical keys last so they win.
	sort.Slice(keys, func(a, b int) bool {
		ca, cb := canonicalKeys[keys[a]], canonicalKeys[keys[b]]
		if ca != cb {
			return cb
		}
		return keys[a] < keys[b]
	})

	var out Item
	for _, key := range keys {
		raw := fields[key]
		var err error
		switch normalizeKey(key) {
		case "id":
			out.ID, err = decodeID(raw)
		case "firstname":
			err = json.Unmarshal(raw, &out.FirstName)
		case "lastname":
			err = json.Unmarshal(raw, &out.LastName)
		case "product":
			err = json.Unmarshal(raw, &out.Product)
		case "quantity":
			err = json.Unmarshal(raw, &out.Quantity)
		case "condition":
			err = json.Unmarshal(raw, &out.Condition)
		case "collectionlocation":
			err = json.Unmarshal(raw, &out.CollectionLocation)
		default:
			var v any
			if err = json.Unmarshal(raw, &v); err == nil {
				if out.Extra == nil {
					out.Extra = make(map[string]any)
				}
				out.Extra[key] = v
			}
		}
		if err != nil {
			return fmt.Errorf("decode item field %q: %w", key, err)
		}
	}

	*i = out
	return nil
}

// decodeID accepts string and numeric identifiers as well as the extended
// JSON form {"$oid": "..."}.
func decodeID(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return id, nil
	case float64:
		return fmt.Sprintf("%.0f", id), nil
	case map[string]any:
		if oid, ok := id["$oid"].(string); ok {
			return oid, nil
		}
	}
	return "", fmt.Errorf("unsupported id value %s", string(raw))
}

func isKnownKey(key string) bool {
	switch normalizeKey(key) {
	case "id", "firstname", "lastname", "product", "quantity", "condition", "collectionlocation":
		return true
	}
	return false
}

// SameFields reports whether a and b carry the same listing fields. IDs and
// Extra are ignored.
func SameFields(a, b Item) bool {
	return a.FirstName == b.FirstName &&
		a.LastName == b.LastName &&
		a.Product == b.Product &&
		a.Quantity == b.Quantity &&
		a.Condition == b.Condition &&
		a.CollectionLocation == b.CollectionLocation
}
