package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/marketplace-items/pkg/items"
)

func newListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all items",
		Args:  cobra.NoArgs,
		RunE: rt.wrap(func(cmd *cobra.Command, _ []string) error {
			list, err := rt.marketplace.ListItems(cmd.Context())
			if err != nil {
				return fmt.Errorf("list items: %w", err)
			}
			return rt.printItems(cmd.OutOrStdout(), list)
		}),
	}
}

func newGetCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a single item",
		Args:  cobra.ExactArgs(1),
		RunE: rt.wrap(func(cmd *cobra.Command, args []string) error {
			it, err := rt.marketplace.GetItem(cmd.Context(), args[0])
			if err != nil {
				return itemError("get", args[0], err)
			}
			return rt.printItem(cmd.OutOrStdout(), it)
		}),
	}
}

func newCreateCmd(rt *runtime) *cobra.Command {
	in := &itemInput{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item from flags or a file",
		Args:  cobra.NoArgs,
		RunE: rt.wrap(func(cmd *cobra.Command, _ []string) error {
			it, err := in.build(cmd, items.Item{})
			if err != nil {
				return err
			}
			created, err := rt.marketplace.CreateItem(cmd.Context(), it)
			if err != nil {
				return fmt.Errorf("create item: %w", err)
			}
			return rt.printItem(cmd.OutOrStdout(), created)
		}),
	}
	in.register(cmd)
	return cmd
}

func newUpdateCmd(rt *runtime) *cobra.Command {
	in := &itemInput{}
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an item from flags or a file",
		Long: `Update replaces the item with ID. With --file the file content is sent as is.
With field flags the current item is fetched first and only the given fields change.`,
		Args: cobra.ExactArgs(1),
		RunE: rt.wrap(func(cmd *cobra.Command, args []string) error {
			id := args[0]
			var base items.Item
			if in.file == "" {
				current, err := rt.marketplace.GetItem(cmd.Context(), id)
				if err != nil {
					return itemError("get", id, err)
				}
				base = current
			}
			it, err := in.build(cmd, base)
			if err != nil {
				return err
			}
			updated, err := rt.marketplace.UpdateItem(cmd.Context(), id, it)
			if err != nil {
				return itemError("update", id, err)
			}
			return rt.printItem(cmd.OutOrStdout(), updated)
		}),
	}
	in.register(cmd)
	return cmd
}

func newDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: rt.wrap(func(cmd *cobra.Command, args []string) error {
			if err := rt.marketplace.DeleteItem(cmd.Context(), args[0]); err != nil {
				return itemError("delete", args[0], err)
			}
			if rt.output == outputJSON {
				return rt.printJSON(cmd.OutOrStdout(), map[string]any{"id": args[0], "deleted": true})
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Item %s deleted\n", args[0])
			return err
		}),
	}
}

// itemError names the id when the API reports it missing.
func itemError(op, id string, err error) error {
	if errors.Is(err, items.ErrNotFound) {
		return fmt.Errorf("item %q not found", id)
	}
	return fmt.Errorf("%s item %q: %w", op, id, err)
}

// itemInput collects item fields from flags or a JSON/YAML file.
type itemInput struct {
	file               string
	firstName          string
	lastName           string
	product            string
	quantity           int
	condition          string
	collectionLocation string
}

func (in *itemInput) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&in.file, "file", "f", "", "Read the item from a JSON or YAML file ('-' for stdin JSON)")
	f.StringVar(&in.firstName, "first-name", "", "Seller first name")
	f.StringVar(&in.lastName, "last-name", "", "Seller last name")
	f.StringVar(&in.product, "product", "", "Product name")
	f.IntVar(&in.quantity, "quantity", 0, "Quantity on offer")
	f.StringVar(&in.condition, "condition", "", fmt.Sprintf("Condition (%s, %s, %s or free text)", items.ConditionNew, items.ConditionGood, items.ConditionUsed))
	f.StringVar(&in.collectionLocation, "location", "", "Collection location")
	cmd.MarkFlagsMutuallyExclusive("file", "first-name")
	cmd.MarkFlagsMutuallyExclusive("file", "last-name")
	cmd.MarkFlagsMutuallyExclusive("file", "product")
	cmd.MarkFlagsMutuallyExclusive("file", "quantity")
	cmd.MarkFlagsMutuallyExclusive("file", "condition")
	cmd.MarkFlagsMutuallyExclusive("file", "location")
}

// build returns the item from --file, or base with every changed field flag applied.
func (in *itemInput) build(cmd *cobra.Command, base items.Item) (items.Item, error) {
	if in.file != "" {
		return readItemFile(in.file, cmd.InOrStdin())
	}

	f := cmd.Flags()
	changed := false
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
			changed = true
		}
	}
	set("first-name", func() { base.FirstName = in.firstName })
	set("last-name", func() { base.LastName = in.lastName })
	set("product", func() { base.Product = in.product })
	set("quantity", func() { base.Quantity = in.quantity })
	set("condition", func() { base.Condition = in.condition })
	set("location", func() { base.CollectionLocation = in.collectionLocation })

	if !changed {
		return items.Item{}, errors.New("no item fields given (use --file or field flags)")
	}
	return base, nil
}

func readItemFile(path string, stdin io.Reader) (items.Item, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return items.Item{}, fmt.Errorf("read item file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var fields map[string]any
		if err := yaml.Unmarshal(raw, &fields); err != nil {
			return items.Item{}, fmt.Errorf("decode item file: %w", err)
		}
		if raw, err = json.Marshal(fields); err != nil {
			return items.Item{}, fmt.Errorf("decode item file: %w", err)
		}
	}

	var it items.Item
	if err := json.Unmarshal(raw, &it); err != nil {
		return items.Item{}, fmt.Errorf("decode item file: %w", err)
	}
	return it, nil
}
