// Package run records the identity of one study execution. The manifest is
// written next to the result database so a result table can always be traced
// back to the exact configuration that produced it.
package run

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"mlstudy/domain/core"
)

// Fingerprint hashes the parameters that determine a run's outputs. Two runs
// with equal fingerprints over the same dataset produce identical result
// rows.
type Fingerprint struct {
	StudyLabel   string    `json:"study_label"`
	Model        string    `json:"model"`
	DataLabel    string    `json:"data_label"`
	Seed         int64     `json:"seed"`
	NoReplicates int       `json:"no_replicates"`
	NoTrials     int       `json:"no_trials"`
	Objective    string    `json:"objective"`
	Hash         core.Hash `json:"hash"`
}

// NewFingerprint computes the determinism fingerprint.
func NewFingerprint(label core.StudyLabel, model, dataLabel string, seed int64, replicates, trials int, objective string) Fingerprint {
	material := fmt.Sprintf("%s|%s|%s|%d|%d|%d|%s",
		label, model, dataLabel, seed, replicates, trials, objective)
	return Fingerprint{
		StudyLabel:   label.String(),
		Model:        model,
		DataLabel:    dataLabel,
		Seed:         seed,
		NoReplicates: replicates,
		NoTrials:     trials,
		Objective:    objective,
		Hash:         core.HashOf(material),
	}
}

// Manifest is the sidecar record of one run.
type Manifest struct {
	RunID       core.RunID  `json:"run_id"`
	Table       string      `json:"table"`
	Fingerprint Fingerprint `json:"fingerprint"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
}

// NewManifest stamps a manifest for a run that just finished.
func NewManifest(runID core.RunID, table string, fp Fingerprint, startedAt time.Time) *Manifest {
	return &Manifest{
		RunID:       runID,
		Table:       table,
		Fingerprint: fp,
		StartedAt:   startedAt.UTC(),
		FinishedAt:  time.Now().UTC(),
	}
}

// Validate checks the manifest is complete enough to trace back.
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return fmt.Errorf("run manifest: run_id cannot be empty")
	}
	if m.Table == "" {
		return fmt.Errorf("run manifest: table cannot be empty")
	}
	if m.Fingerprint.Hash == "" {
		return fmt.Errorf("run manifest: fingerprint cannot be empty")
	}
	return nil
}

// Write persists the manifest as indented JSON at path.
func (m *Manifest) Write(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run manifest: %w", err)
	}
	if err := os.WriteFile(path, append(buf, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing run manifest: %w", err)
	}
	return nil
}
