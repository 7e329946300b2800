package items

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestItemUnmarshalAcceptsAlternateKeys(t *testing.T) {
	raw := `{
		"_id": "64b7f1c2a9e1d2c3b4a59687",
		"first_name": "Mat",
		"LastName": "Motor",
		"product": "Energizer Battery",
		"Quantity": 15,
		"Condition": "Good",
		"Collection-Location": "123 Tampines Street 33"
	}`

	var it Item
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Item{
		ID:                 "64b7f1c2a9e1d2c3b4a59687",
		FirstName:          "Mat",
		LastName:           "Motor",
		Product:            "Energizer Battery",
		Quantity:           15,
		Condition:          "Good",
		CollectionLocation: "123 Tampines Street 33",
	}
	if it.ID != want.ID || !SameFields(it, want) {
		t.Fatalf("unexpected item %+v", it)
	}
	if len(it.Extra) != 0 {
		t.Fatalf("expected no extra fields, got %v", it.Extra)
	}
}

func TestItemUnmarshalIDForms(t *testing.T) {
	cases := map[string]string{
		`{"id": "abc"}`:                 "abc",
		`{"id": 42}`:                    "42",
		`{"_id": {"$oid": "deadbeef"}}`: "deadbeef",
		`{"id": null}`:                  "",
	}
	for raw, want := range cases {
		var it Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			t.Fatalf("Unmarshal(%s): %v", raw, err)
		}
		if it.ID != want {
			t.Fatalf("Unmarshal(%s): id = %q, want %q", raw, it.ID, want)
		}
	}

	var it Item
	if err := json.Unmarshal([]byte(`{"id": true}`), &it); err == nil {
		t.Fatalf("expected error for boolean id")
	}
}

func TestItemUnmarshalRejectsWrongTypes(t *testing.T) {
	var it Item
	if err := json.Unmarshal([]byte(`{"Quantity": "ten"}`), &it); err == nil {
		t.Fatalf("expected error for non-numeric quantity")
	}
}

func TestItemExtraRoundTrips(t *testing.T) {
	var it Item
	if err := json.Unmarshal([]byte(`{"id":"1","Product":"Cans","Price":2.5,"Tags":["metal"]}`), &it); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if it.Extra["Price"] != 2.5 {
		t.Fatalf("Price not kept in Extra: %v", it.Extra)
	}

	out, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("Unmarshal output: %v", err)
	}
	if fields["Price"] != 2.5 || fields["Product"] != "Cans" || fields["id"] != "1" {
		t.Fatalf("unexpected encoding %s", out)
	}
}

func TestItemMarshalExtraNeverShadowsKnownFields(t *testing.T) {
	it := Item{
		Product: "Paper",
		Extra: map[string]any{
			"product":             "Shadow",
			"Collection-Location": "Shadow",
			"Notes":               "fragile",
		},
	}
	out, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "Shadow") {
		t.Fatalf("extra shadowed a known field: %s", s)
	}
	if !strings.Contains(s, `"Notes":"fragile"`) {
		t.Fatalf("extra field missing: %s", s)
	}
}

func TestItemMarshalOmitsEmptyID(t *testing.T) {
	out, err := json.Marshal(Item{Product: "Paper"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(out), `"id"`) {
		t.Fatalf("empty id encoded: %s", out)
	}
	if !strings.Contains(string(out), `"CollectionLocation":""`) {
		t.Fatalf("expected canonical key: %s", out)
	}
}

func TestInsertedID(t *testing.T) {
	if got := insertedID([]byte(`{"InsertedID":"abc"}`)); got != "abc" {
		t.Fatalf("insertedID = %q", got)
	}
	if got := insertedID([]byte(`{"id":"abc","Product":"x"}`)); got != "" {
		t.Fatalf("item body mistaken for ack: %q", got)
	}
	if got := insertedID([]byte(`not json`)); got != "" {
		t.Fatalf("insertedID on garbage = %q", got)
	}
}

func TestItemUnmarshalCanonicalKeysWin(t *testing.T) {
	raw := `{
		"_id": "legacy",
		"id": "canonical",
		"collection_location": "alias b",
		"Collection-Location": "alias a",
		"CollectionLocation": "456 Orchard Road"
	}`

	for i := 0; i < 20; i++ {
		var it Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if it.ID != "canonical" || it.CollectionLocation != "456 Orchard Road" {
			t.Fatalf("canonical keys should win, got %+v", it)
		}
	}

	var aliasesOnly Item
	if err := json.Unmarshal([]byte(`{"collection_location":"b","Collection-Location":"a"}`), &aliasesOnly); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if aliasesOnly.CollectionLocation != "b" {
		t.Fatalf("aliases should apply in key order, got %q", aliasesOnly.CollectionLocation)
	}
}
