package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/surveyops/surveyctl/internal/api"
	"github.com/surveyops/surveyctl/internal/constants"
	"github.com/surveyops/surveyctl/internal/models"
	"github.com/surveyops/surveyctl/internal/progress"
	"github.com/surveyops/surveyctl/internal/util/sanitize"
)

// submitter is the part of *api.Client used by submit.
type submitter interface {
	CreateRecord(ctx context.Context, sub models.Submission) (string, error)
}

// newSubmitCmd creates the 'submit' command.
func newSubmitCmd() *cobra.Command {
	var (
		sub         models.Submission
		file        string
		concurrency int
		failFast    bool
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit survey entries",
		Long: `Submit one survey entry from flags, or many from a YAML or JSON file.

No login is needed. Only name and email are required; other fields are
passed to the backend as given.

The file holds a list of entries (or a single entry) using these keys:
  name, gender, nationality, email, phone, street_address, city, state,
  pincode, message

Examples:
  surveyctl submit --name "Asha Rao" --email asha@example.com --city Pune
  surveyctl submit --file entries.yaml --concurrency 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			out := cmd.OutOrStdout()

			var entries []models.Submission
			if file != "" {
				data, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				entries, err = parseSubmissions(data)
				if err != nil {
					return fmt.Errorf("failed to parse %s: %w", file, err)
				}
			} else {
				entries = []models.Submission{sub}
			}
			for i := range entries {
				entries[i] = cleanSubmission(entries[i])
			}
			if err := checkSubmissions(entries); err != nil {
				return err
			}

			client, _, err := getAPIClient()
			if err != nil {
				return err
			}

			if len(entries) == 1 {
				msg, err := client.CreateRecord(ctx, entries[0])
				if err != nil {
					return fmt.Errorf("submission failed: %w", err)
				}
				fmt.Fprintln(out, msg)
				return nil
			}

			reporter := progress.New(quiet)
			failures, err := submitAll(ctx, client, entries, concurrency, failFast, reporter)
			for _, f := range failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "entry %d: %v\n", f.index+1, f.err)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Submitted %d of %d entries\n", len(entries)-len(failures), len(entries))
			if len(failures) > 0 {
				return fmt.Errorf("%d of %d entries failed", len(failures), len(entries))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&sub.Name, "name", "", "Full name (required)")
	f.StringVar(&sub.Email, "email", "", "Email address (required)")
	f.StringVar(&sub.Gender, "gender", "", "Gender")
	f.StringVar(&sub.Nationality, "nationality", "", "Nationality")
	f.StringVar(&sub.Phone, "phone", "", "Phone number")
	f.StringVar(&sub.StreetAddress, "street", "", "Street address")
	f.StringVar(&sub.City, "city", "", "City")
	f.StringVar(&sub.State, "state", "", "State")
	f.StringVar(&sub.Pincode, "pincode", "", "Postal code")
	f.StringVar(&sub.Message, "message", "", "Message")
	f.StringVarP(&file, "file", "f", "", "YAML or JSON file of entries ('-' for stdin)")
	f.IntVar(&concurrency, "concurrency", constants.DefaultSubmitConcurrency, "Parallel submissions for --file")
	f.BoolVar(&failFast, "fail-fast", false, "Stop at the first failed entry")
	f.BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")

	cmd.MarkFlagsMutuallyExclusive("file", "name")
	cmd.MarkFlagsMutuallyExclusive("file", "email")

	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// parseSubmissions accepts a YAML or JSON list of entries, or one entry.
func parseSubmissions(data []byte) ([]models.Submission, error) {
	var list []models.Submission
	listErr := yaml.Unmarshal(data, &list)
	if listErr == nil {
		if len(list) == 0 {
			return nil, errors.New("no entries found")
		}
		return list, nil
	}

	var one models.Submission
	if err := yaml.Unmarshal(data, &one); err != nil {
		return nil, listErr
	}
	return []models.Submission{one}, nil
}

// cleanSubmission strips invisible characters and surrounding whitespace
// from every field.
func cleanSubmission(s models.Submission) models.Submission {
	for _, f := range []*string{
		&s.Name, &s.Gender, &s.Nationality, &s.Email, &s.Phone,
		&s.StreetAddress, &s.City, &s.State, &s.Pincode,
	} {
		*f = sanitize.Field(*f)
	}
	s.Message = sanitize.Text(s.Message)
	return s
}

// checkSubmissions rejects the batch before anything is sent if any entry
// is missing a required field.
func checkSubmissions(entries []models.Submission) error {
	var problems []string
	for i, e := range entries {
		if missing := e.MissingFields(); len(missing) > 0 {
			label := "entry"
			if len(entries) > 1 {
				label = fmt.Sprintf("entry %d", i+1)
			}
			problems = append(problems, fmt.Sprintf("%s: missing %s", label, strings.Join(missing, ", ")))
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type submitFailure struct {
	index int
	err   error
}

// submitAll sends entries with at most concurrency requests in flight.
// Without failFast every entry is attempted and failures are returned; with
// failFast the first failure cancels the rest and is returned as the error.
func submitAll(ctx context.Context, s submitter, entries []models.Submission, concurrency int, failFast bool, reporter progress.Reporter) ([]submitFailure, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > constants.MaxSubmitConcurrency {
		concurrency = constants.MaxSubmitConcurrency
	}

	var (
		mu       sync.Mutex
		failures []submitFailure
	)

	reporter.Start(len(entries), "submitting")
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, entry := range entries {
		i, entry := i, entry
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			_, err := s.CreateRecord(gctx, entry)
			reporter.Add(1)
			if err == nil {
				return nil
			}
			if failFast {
				return fmt.Errorf("entry %d: %w", i+1, err)
			}
			if api.IsRetryable(err) {
				GetLogger().Debug().Int("entry", i+1).Err(err).Msg("Submission failed with a retryable error")
			}
			mu.Lock()
			failures = append(failures, submitFailure{index: i, err: err})
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	reporter.Finish()
	if err == nil {
		err = ctx.Err()
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].index < failures[j].index })
	return failures, err
}
