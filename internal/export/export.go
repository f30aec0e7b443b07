// Package export renders filtered issue selections as CSV, JSON, or
// Markdown. The selection is exactly what the list endpoint would return
// for the same filters, unpaginated and in the same order.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bugboard/bugboard/internal/issues"
	"github.com/bugboard/bugboard/internal/models"
	"github.com/bugboard/bugboard/internal/store"
)

// Format names a supported export serialization.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON, FormatMarkdown:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", models.ErrValidation, s)
}

// ContentType returns the MIME type for HTTP responses.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSON:
		return "application/json"
	default:
		return "text/markdown"
	}
}

// Exporter renders issue selections.
type Exporter struct {
	issues *issues.Service
	store  store.Store
}

// NewExporter creates an Exporter.
func NewExporter(svc *issues.Service, s store.Store) *Exporter {
	return &Exporter{issues: svc, store: s}
}

// Write renders every issue matching the filter to w in the given format,
// ordered by sortBy/order exactly as a listing would be.
func (e *Exporter) Write(ctx context.Context, w io.Writer, format Format, filter store.IssueListFilter, sortBy, order string) error {
	selection, err := e.issues.ListAll(ctx, filter, sortBy, order)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(selection)
	case FormatCSV:
		return e.writeCSV(ctx, w, selection)
	case FormatMarkdown:
		return e.writeMarkdown(ctx, w, selection)
	}
	return fmt.Errorf("%w: unknown export format %q", models.ErrValidation, format)
}

func (e *Exporter) writeCSV(ctx context.Context, w io.Writer, selection []*models.Issue) error {
	names := e.nameCache(ctx)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"ID", "Title", "Type", "Priority", "Status", "Created By", "Assigned To", "Created", "Archived"})
	for _, i := range selection {
		_ = cw.Write([]string{
			i.ID,
			i.Title,
			string(i.Type),
			string(i.Priority),
			string(i.Status),
			names(i.CreatedByID),
			names(i.AssignedToID),
			i.CreatedAt.Format(time.RFC3339),
			fmt.Sprintf("%t", i.Archived),
		})
	}
	cw.Flush()
	return cw.Error()
}

func (e *Exporter) writeMarkdown(ctx context.Context, w io.Writer, selection []*models.Issue) error {
	names := e.nameCache(ctx)

	fmt.Fprintln(w, "# Issues")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %d\n", len(selection))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "| Title | Type | Priority | Status | Created By | Assigned To |")
	fmt.Fprintln(w, "|-------|------|----------|--------|------------|-------------|")
	for _, i := range selection {
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
			i.Title, i.Type, i.Priority, i.Status, names(i.CreatedByID), names(i.AssignedToID))
	}
	return nil
}

// nameCache returns a lookup that resolves user ids to display names,
// caching per export run. Unknown or empty ids render empty.
func (e *Exporter) nameCache(ctx context.Context) func(string) string {
	cache := make(map[string]string)
	return func(id string) string {
		if id == "" {
			return ""
		}
		if name, ok := cache[id]; ok {
			return name
		}
		name := ""
		if u, err := e.store.GetUser(ctx, id); err == nil {
			name = u.Name
		}
		cache[id] = name
		return name
	}
}
