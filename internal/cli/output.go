package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/samvad-hq/marketplace-items/internal/domain"
	"github.com/samvad-hq/marketplace-items/pkg/items"
)

func (rt *runtime) printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (rt *runtime) printItems(w io.Writer, list []items.Item) error {
	if rt.output == outputJSON {
		return rt.printJSON(w, list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No items found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ID\tFIRST NAME\tLAST NAME\tPRODUCT\tQUANTITY\tCONDITION\tCOLLECTION LOCATION")
	for _, it := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			it.ID, it.FirstName, it.LastName, it.Product, it.Quantity, it.Condition, it.CollectionLocation)
	}
	return tw.Flush()
}

func (rt *runtime) printItem(w io.Writer, it items.Item) error {
	if rt.output == outputJSON {
		return rt.printJSON(w, it)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", it.ID},
		{"First name", it.FirstName},
		{"Last name", it.LastName},
		{"Product", it.Product},
		{"Quantity", strconv.Itoa(it.Quantity)},
		{"Condition", it.Condition},
		{"Collection location", it.CollectionLocation},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

func (rt *runtime) printChanges(w io.Writer, changes []domain.Change) error {
	if rt.output == outputJSON {
		if changes == nil {
			changes = []domain.Change{}
		}
		return rt.printJSON(w, changes)
	}
	if len(changes) == 0 {
		_, err := fmt.Fprintln(w, "No changes recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tITEM ID\tPRODUCT")
	for _, c := range changes {
		product := ""
		if c.Item != nil {
			product = c.Item.Product
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.OccurredAt.Local().Format(time.RFC3339), c.Action, c.ItemID, product)
	}
	return tw.Flush()
}
