package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/ledger"
)

// Deployment is one ledger entry of a run.
type Deployment struct {
	RunID    string
	Unit     string
	Seq      int
	Contract string
	ledger.Result
}

// DeploymentRepo stores the ledgers of runs.
type DeploymentRepo struct {
	DB *sql.DB
}

// SaveLedger writes every entry of l under runID in one transaction, in
// ledger order. contractOf maps a unit name to its contract name.
func (r *DeploymentRepo) SaveLedger(ctx context.Context, runID string, l *ledger.Ledger, contractOf func(unit string) string) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	seq := 0
	for name, res := range l.All() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO deployments (run_id, unit, seq, contract, address, tx_hash, block_number, gas_used, deployed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, name, seq, contractOf(name), res.Address, nullString(res.TxHash),
			int64(res.BlockNumber), int64(res.GasUsed), formatTime(res.DeployedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return &ledger.DuplicateUnitError{Unit: name}
			}
			return fmt.Errorf("insert deployment %q: %w", name, err)
		}
		seq++
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListByRun returns the deployments of a run in ledger order.
func (r *DeploymentRepo) ListByRun(ctx context.Context, runID string) ([]Deployment, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT run_id, unit, seq, contract, address, tx_hash, block_number, gas_used, deployed_at
		 FROM deployments WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list deployments: %w", err)
	}
	defer rows.Close()

	var deployments []Deployment
	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, err
		}
		deployments = append(deployments, d)
	}
	return deployments, rows.Err()
}

// Ledger rebuilds the ledger of a persisted run.
func (r *DeploymentRepo) Ledger(ctx context.Context, runID string) (*ledger.Ledger, error) {
	deployments, err := r.ListByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	l := ledger.New()
	for _, d := range deployments {
		if err := l.Record(d.Unit, d.Result); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func scanDeployment(s scanner) (Deployment, error) {
	var (
		d                Deployment
		txHash           sql.NullString
		blockNumber, gas int64
		deployedAt       string
	)
	if err := s.Scan(&d.RunID, &d.Unit, &d.Seq, &d.Contract, &d.Address, &txHash, &blockNumber, &gas, &deployedAt); err != nil {
		return d, fmt.Errorf("scan deployment: %w", err)
	}
	d.TxHash = txHash.String
	d.BlockNumber = uint64(blockNumber)
	d.GasUsed = uint64(gas)
	t, err := parseTime("deployed_at", deployedAt)
	if err != nil {
		return d, err
	}
	d.DeployedAt = t
	return d, nil
}
