package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/surveyops/surveyctl/internal/models"
	"github.com/surveyops/surveyctl/internal/pagination"
	"github.com/surveyops/surveyctl/internal/util/sanitize"
)

// Output formats accepted by -o.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json, or yaml)", format)
}

// writeStructured writes v as indented JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	}
	return checkFormat(format)
}

// listOutput is the structured form of one page.
type listOutput struct {
	Page       int                   `json:"page" yaml:"page"`
	PageSize   int                   `json:"page_size" yaml:"page_size"`
	Total      int                   `json:"total" yaml:"total"`
	TotalPages int                   `json:"total_pages" yaml:"total_pages"`
	Search     string                `json:"search,omitempty" yaml:"search,omitempty"`
	Records    []models.SurveyRecord `json:"records" yaml:"records"`
}

func writeRecordTable(w io.Writer, out listOutput, windowSize int) error {
	if len(out.Records) == 0 {
		if out.Search != "" {
			_, err := fmt.Fprintf(w, "No submissions match %q\n", out.Search)
			return err
		}
		_, err := fmt.Fprintln(w, "No survey submissions yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tCITY\tSUBMITTED")
	for _, r := range out.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			sanitize.Cell(r.ID), sanitize.Cell(r.Name), sanitize.Cell(r.Email),
			sanitize.Cell(r.Phone), sanitize.Cell(r.City), humanize.Time(r.CreatedAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	from, to := pagination.Range(out.Page, out.PageSize, out.Total)
	fmt.Fprintf(w, "\nShowing %d to %d of %d results\n", from, to, out.Total)
	_, err := fmt.Fprintf(w, "Pages: %s\n", windowLine(out.Page, out.TotalPages, windowSize))
	return err
}

// windowLine renders the page window with the current page in brackets.
func windowLine(page, totalPages, windowSize int) string {
	markers := pagination.Window(page, totalPages, windowSize)
	parts := make([]string, len(markers))
	for i, m := range markers {
		if m.IsPage() && m.Page == page {
			parts[i] = "[" + m.Label() + "]"
		} else {
			parts[i] = m.Label()
		}
	}
	return strings.Join(parts, " ")
}

func writeRecordDetail(w io.Writer, r models.SurveyRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", r.ID},
		{"Name", r.Name},
		{"Gender", r.Gender},
		{"Nationality", r.Nationality},
		{"Email", r.Email},
		{"Phone", r.Phone},
		{"Street", r.StreetAddress},
		{"City", r.City},
		{"State", r.State},
		{"Pincode", r.Pincode},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], sanitize.Cell(row[1]))
	}
	submitted := "-"
	if !r.CreatedAt.IsZero() {
		submitted = r.CreatedAt.Local().Format(time.RFC1123) + " (" + humanize.Time(r.CreatedAt) + ")"
	}
	fmt.Fprintf(tw, "Submitted:\t%s\n", submitted)
	if err := tw.Flush(); err != nil {
		return err
	}

	msg := sanitize.Text(r.Message)
	if msg == "" {
		msg = "No message provided"
	}
	_, err := fmt.Fprintf(w, "\nMessage:\n%s\n", msg)
	return err
}
