package store

import (
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-msri/internal/runner"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SummaryFile is the run summary written next to the step exports.
const SummaryFile = "summary.yaml"

// WriteSummary writes the run summary as YAML into dir.
func WriteSummary(dir string, summary runner.Summary) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreExport, "failed to create directory", err)
	}

	data, err := yaml.Marshal(summary)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreExport, "failed to marshal run summary to YAML", err)
	}

	if err := os.WriteFile(filepath.Join(dir, SummaryFile), data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeStoreExport, "failed to write run summary to file", err)
	}

	return nil
}

// ReadSummary loads a summary written by WriteSummary.
func ReadSummary(dir string) (runner.Summary, error) {
	var summary runner.Summary

	data, err := os.ReadFile(filepath.Join(dir, SummaryFile))
	if err != nil {
		return summary, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to read run summary", err)
	}

	if err := yaml.Unmarshal(data, &summary); err != nil {
		return summary, errors.Wrap(errors.ErrCodeStoreQuery, "failed to parse run summary", err)
	}

	return summary, nil
}
