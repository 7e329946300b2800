// Package seed loads sample items from a file and creates the ones the
// remote API does not have yet.
package seed

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/marketplace-items/pkg/items"
)

// Entry is one item declared in a seed file.
type Entry struct {
	FirstName          string `json:"first_name" yaml:"first_name"`
	LastName           string `json:"last_name" yaml:"last_name"`
	Product            string `json:"product" yaml:"product"`
	Quantity           int    `json:"quantity" yaml:"quantity"`
	Condition          string `json:"condition" yaml:"condition"`
	CollectionLocation string `json:"collection_location" yaml:"collection_location"`
}

type seedFile struct {
	Items []Entry `json:"items" yaml:"items"`
}

// Item converts the entry into an API item.
func (e Entry) Item() items.Item {
	return items.Item{
		FirstName:          e.FirstName,
		LastName:           e.LastName,
		Product:            e.Product,
		Quantity:           e.Quantity,
		Condition:          e.Condition,
		CollectionLocation: e.CollectionLocation,
	}
}

// LoadFile reads seed entries from a YAML or JSON file.
func LoadFile(path string) ([]Entry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("seed file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	parsed, err := parseSeedFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Items) == 0 {
		return nil, errors.New("seed file contains no items")
	}

	out := make([]Entry, 0, len(parsed.Items))
	for i, e := range parsed.Items {
		e = sanitizeEntry(e)
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func parseSeedFile(data []byte, ext string) (seedFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		ext string
		fn  func([]byte, any) error
	}{
		{ext: ".yaml", fn: yaml.Unmarshal},
		{ext: ".yml", fn: yaml.Unmarshal},
		{ext: ".json", fn: json.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out seedFile
		err := d.fn(data, &out)
		if err == nil {
			return out, nil
		}
		lastErr = fmt.Errorf("decode %s seed file: %w", strings.TrimPrefix(d.ext, "."), err)
	}
	if lastErr == nil {
		return seedFile{}, errors.New("seed file format not recognized (expected YAML or JSON)")
	}
	return seedFile{}, fmt.Errorf("seed file format not recognized (expected YAML or JSON): %w", lastErr)
}

func sanitizeEntry(e Entry) Entry {
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.Product = strings.TrimSpace(e.Product)
	e.Condition = strings.TrimSpace(e.Condition)
	e.CollectionLocation = strings.TrimSpace(e.CollectionLocation)
	return e
}

func validateEntry(e Entry) error {
	if e.Product == "" {
		return errors.New("product is required")
	}
	if e.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative for %q", e.Product)
	}
	return nil
}

// fingerprint identifies an item for duplicate detection. Quantity and
// condition are left out so a seeded item that has since been edited still
// counts as present.
func fingerprint(it items.Item) string {
	parts := []string{it.FirstName, it.LastName, it.Product, it.CollectionLocation}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\x1f")
}
