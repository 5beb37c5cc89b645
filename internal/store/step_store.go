// Package store keeps the steps of tracker runs in DuckDB and exports them.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-msri/internal/logger"
	"github.com/rxtech-lab/argo-msri/internal/tracker"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
	"go.uber.org/zap"
)

const (
	// StepsParquetFile is the Parquet export written by Write.
	StepsParquetFile = "steps.parquet"
	// StepsCSVFile is the CSV export written by Write.
	StepsCSVFile = "steps.csv"
)

// StepStore records tracker steps in an in-memory DuckDB database.
// It implements runner.Sink.
type StepStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewStepStore creates a new instance of StepStore.
func NewStepStore(logger *logger.Logger) (*StepStore, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to connect to database", err)
	}

	store := &StepStore{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := store.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return store, nil
}

// Record stores one step of a run.
func (s *StepStore) Record(runID string, sample tracker.Sample) error {
	if s == nil || s.db == nil {
		return errors.New(errors.ErrCodeStoreUnavailable, "step store or database is nil")
	}

	insertQuery := s.sq.
		Insert("steps").
		Columns("run_id", "step", "alpha", "price", "mu", "indicator").
		Values(runID, sample.Step, sample.Alpha, sample.Price, sample.Mu, sample.Indicator).
		RunWith(s.db)

	if _, err := insertQuery.Exec(); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreQuery, err, "failed to insert step %d", sample.Step)
	}

	return nil
}

// Steps returns the steps of a run ordered by step index.
func (s *StepStore) Steps(runID string) ([]tracker.Sample, error) {
	if s == nil || s.db == nil {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "step store or database is nil")
	}

	selectQuery := s.sq.
		Select("step", "alpha", "price", "mu", "indicator").
		From("steps").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("step ASC").
		RunWith(s.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to query steps", err)
	}
	defer rows.Close()

	samples := []tracker.Sample{}

	for rows.Next() {
		var sample tracker.Sample

		if err := rows.Scan(&sample.Step, &sample.Alpha, &sample.Price, &sample.Mu, &sample.Indicator); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to scan step", err)
		}

		samples = append(samples, sample)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "error iterating steps", err)
	}

	return samples, nil
}

// Runs returns the IDs of every recorded run.
func (s *StepStore) Runs() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New(errors.ErrCodeStoreUnavailable, "step store or database is nil")
	}

	rows, err := s.sq.
		Select("run_id").
		From("steps").
		GroupBy("run_id").
		OrderBy("run_id").
		RunWith(s.db).
		Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to query runs", err)
	}
	defer rows.Close()

	runs := []string{}

	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQuery, "failed to scan run id", err)
		}

		runs = append(runs, runID)
	}

	return runs, rows.Err()
}

// Write exports every recorded step to Parquet and CSV files in dir.
func (s *StepStore) Write(dir string) error {
	if s == nil || s.db == nil || s.logger == nil {
		return errors.New(errors.ErrCodeStoreUnavailable, "step store, database, or logger is nil")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreExport, "failed to create directory", err)
	}

	parquetPath := filepath.Join(dir, StepsParquetFile)
	csvPath := filepath.Join(dir, StepsCSVFile)

	const ordered = `SELECT run_id, step, alpha, price, mu, indicator FROM steps ORDER BY run_id, step`

	if _, err := s.db.Exec(fmt.Sprintf(`COPY (%s) TO %s (FORMAT PARQUET)`, ordered, quoteLiteral(parquetPath))); err != nil {
		return errors.Wrap(errors.ErrCodeStoreExport, "failed to export steps to Parquet", err)
	}

	if _, err := s.db.Exec(fmt.Sprintf(`COPY (%s) TO %s (HEADER, DELIMITER ',')`, ordered, quoteLiteral(csvPath))); err != nil {
		return errors.Wrap(errors.ErrCodeStoreExport, "failed to export steps to CSV", err)
	}

	s.logger.Info("Successfully exported steps",
		zap.String("parquet", parquetPath),
		zap.String("csv", csvPath),
	)

	return nil
}

// Cleanup resets the database state.
func (s *StepStore) Cleanup() error {
	if s == nil || s.db == nil {
		return errors.New(errors.ErrCodeStoreUnavailable, "step store or database is nil")
	}

	if _, err := s.db.Exec(`DROP TABLE IF EXISTS steps`); err != nil {
		return errors.Wrap(errors.ErrCodeStoreQuery, "failed to cleanup steps table", err)
	}

	return s.initialize()
}

// Close closes the database connection.
func (s *StepStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// initialize creates the steps table.
func (s *StepStore) initialize() error {
	if s == nil || s.db == nil {
		return errors.New(errors.ErrCodeStoreUnavailable, "step store or database is nil")
	}

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS steps (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			alpha DOUBLE,
			price DOUBLE,
			mu DOUBLE,
			indicator DOUBLE,
			PRIMARY KEY (run_id, step)
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreQuery, "failed to create steps table", err)
	}

	return nil
}

// quoteLiteral renders s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
