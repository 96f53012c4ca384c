package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"assetgen/internal/domain"
)

// Report formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Render writes report to w in the given format.
func Render(w io.Writer, report *domain.Report, format string) error {
	if report == nil {
		return fmt.Errorf("batch: render: nil report")
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("batch: render yaml: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		return renderText(w, report)
	default:
		return fmt.Errorf("batch: render: unsupported format %q", format)
	}
}

// MarshalJSON returns the indented JSON form used for report files.
func MarshalJSON(report *domain.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("batch: marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

func renderText(w io.Writer, report *domain.Report) error {
	p := message.NewPrinter(language.English)
	title := cases.Title(language.English)
	c := report.Counts

	var b strings.Builder
	p.Fprintf(&b, "Run %s\n", report.RunID)
	if !report.StartedAt.IsZero() && !report.FinishedAt.IsZero() {
		p.Fprintf(&b, "Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	}
	p.Fprintf(&b, "Output: %s\n\n", report.OutputRoot)
	p.Fprintf(&b, "Entries: %d  Succeeded: %d  Failed: %d  Timed out: %d  Cancelled: %d  Submission errors: %d  Download errors: %d\n",
		c.Total, c.Succeeded, c.Failed, c.TimedOut, c.Cancelled, c.SubmissionErrors, c.DownloadErrors)
	if c.Pending > 0 {
		p.Fprintf(&b, "Still in flight: %d\n", c.Pending)
	}
	b.WriteString("\n")

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSET\tSTATE\tATTEMPTS\tDETAIL")
	for _, o := range report.Outcomes {
		state := title.String(strings.ReplaceAll(string(o.State), "_", " "))
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.AssetID, state, p.Sprintf("%d", o.Attempts), outcomeDetail(o))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func outcomeDetail(o domain.JobOutcome) string {
	switch {
	case o.State == domain.OutcomeSucceeded:
		return o.Path
	case o.State == domain.OutcomeDownloadError:
		return fmt.Sprintf("%s (retry from %s)", o.Error, o.ArtifactURL)
	case o.Error != "":
		return o.Error
	case o.RemoteJobID != "":
		return "job " + o.RemoteJobID
	}
	return ""
}
