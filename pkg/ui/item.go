package ui

import (
	"fmt"
	"strings"

	"github.com/vanderheijden86/showroom/pkg/model"
)

// RowItem wraps one catalog record to implement list.Item.
type RowItem struct {
	ID     model.RowID
	Record model.Record
	Score  int
	Saving bool // a queued save for this row has not drained yet
	Picked bool // manually selected for bulk operations
}

func (i RowItem) Title() string {
	if t := i.Record.Title(); t != "" {
		return t
	}
	return fmt.Sprintf("(untitled row %s)", i.ID)
}

func (i RowItem) Description() string {
	return fmt.Sprintf("%s • %s • %d", i.Record.SKU(), i.Record.Brand(), i.Score)
}

func (i RowItem) FilterValue() string {
	var sb strings.Builder
	sb.WriteString(i.Record.Title())
	sb.WriteString(" ")
	sb.WriteString(i.Record.SKU())
	sb.WriteString(" ")
	sb.WriteString(i.Record.Brand())
	if v := i.Record.Field(model.FieldVendor); v != "" {
		sb.WriteString(" ")
		sb.WriteString(v)
	}
	return sb.String()
}
