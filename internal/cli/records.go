package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/surveyops/surveyctl/internal/api"
	"github.com/surveyops/surveyctl/internal/constants"
	"github.com/surveyops/surveyctl/internal/pagination"
)

// newRecordsCmd creates the 'records' command group.
func newRecordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "records",
		Aliases: []string{"surveys"},
		Short:   "List and inspect survey submissions",
		Long: `Commands for reading survey submissions.

Both commands require a valid session; run 'surveyctl login' first.`,
	}

	cmd.AddCommand(newRecordsListCmd())
	cmd.AddCommand(newRecordsGetCmd())

	return cmd
}

func newRecordsListCmd() *cobra.Command {
	var (
		page     int
		pageSize int
		search   string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of submissions",
		Long: `List one page of survey submissions, newest first.

Examples:
  # First page with the configured page size
  surveyctl records list

  # Third page of 25, searching for "pune"
  surveyctl records list --page 3 --size 25 --search pune

  # Machine-readable output
  surveyctl records list -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			if err := checkFormat(format); err != nil {
				return err
			}
			if page < constants.FirstPage {
				return fmt.Errorf("--page must be at least %d", constants.FirstPage)
			}

			client, cfg, err := getAPIClient()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("size") {
				pageSize = cfg.Browser.PageSize
			}
			if !constants.IsAllowedPageSize(pageSize) {
				return fmt.Errorf("--size must be one of %v", constants.AllowedPageSizes)
			}

			if err := requireSession(ctx, client); err != nil {
				return err
			}

			res, err := client.ListRecords(ctx, page, pageSize, search)
			if err != nil {
				return recordsError("failed to list records", err)
			}

			out := listOutput{
				Page:       page,
				PageSize:   pageSize,
				Total:      res.Total,
				TotalPages: pagination.TotalPages(res.Total, pageSize),
				Search:     search,
				Records:    res.Records,
			}
			if out.TotalPages > 0 && page > out.TotalPages {
				fmt.Fprintf(cmd.ErrOrStderr(), "Page %d is past the last page (%d)\n", page, out.TotalPages)
			}

			if format != formatTable {
				return writeStructured(cmd.OutOrStdout(), format, out)
			}
			return writeRecordTable(cmd.OutOrStdout(), out, cfg.Browser.WindowSize)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", constants.FirstPage, "Page number (1-based)")
	cmd.Flags().IntVarP(&pageSize, "size", "n", constants.DefaultPageSize, "Rows per page: 5, 10, 25, 50, or 100")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search term")
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "Output format: table, json, yaml")

	return cmd
}

func newRecordsGetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()

			if err := checkFormat(format); err != nil {
				return err
			}

			client, _, err := getAPIClient()
			if err != nil {
				return err
			}
			if err := requireSession(ctx, client); err != nil {
				return err
			}

			rec, err := client.GetRecord(ctx, args[0])
			if err != nil {
				return recordsError("failed to get record "+args[0], err)
			}

			if format != formatTable {
				return writeStructured(cmd.OutOrStdout(), format, rec)
			}
			return writeRecordDetail(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "Output format: table, json, yaml")

	return cmd
}

// recordsError reports a session that expired between the check and the
// call as ErrNotLoggedIn, so the user is pointed at login.
func recordsError(op string, err error) error {
	if api.IsUnauthorized(err) {
		return fmt.Errorf("%s: session expired: %w", op, ErrNotLoggedIn)
	}
	return fmt.Errorf("%s: %w", op, err)
}
