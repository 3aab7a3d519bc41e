package app

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/specialistvlad/deploygrid/internal/store"
)

// HistoryLimit caps the number of runs History lists.
const HistoryLimit = 50

// History prints the persisted runs, or the deployments of one run when
// runID is set.
func (a *App) History(ctx context.Context, runID string) error {
	ctx = a.withLogger(ctx)
	if a.config.StateDB == "" {
		return errors.New("history requires a state database (--state-db)")
	}
	db, err := store.Open(a.config.StateDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runs := &store.RunRepo{DB: db}
	if runID == "" {
		list, err := runs.List(ctx, HistoryLimit)
		if err != nil {
			return err
		}
		return a.printRuns(list)
	}

	run, err := runs.Get(ctx, runID)
	if err != nil {
		return err
	}
	deployments, err := (&store.DeploymentRepo{DB: db}).ListByRun(ctx, run.ID)
	if err != nil {
		return err
	}
	return a.printRun(run, deployments)
}

func (a *App) printRuns(runs []store.Run) error {
	if a.config.JSON {
		if runs == nil {
			runs = []store.Run{}
		}
		return printJSON(a.outW, runs)
	}
	w := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTATUS\tNETWORK\tGRID\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Status, r.Network, r.Grid, r.StartedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func (a *App) printRun(run store.Run, deployments []store.Deployment) error {
	if a.config.JSON {
		report := &Report{
			RunID:   run.ID,
			Grid:    run.Grid,
			Network: run.Network,
			Status:  run.Status,
			Error:   run.Error,
			Units:   make([]ReportUnit, 0, len(deployments)),
		}
		for _, d := range deployments {
			report.Units = append(report.Units, ReportUnit{
				Name:        d.Unit,
				Contract:    d.Contract,
				Address:     d.Address,
				TxHash:      d.TxHash,
				BlockNumber: d.BlockNumber,
				GasUsed:     d.GasUsed,
				DeployedAt:  d.DeployedAt,
			})
		}
		return report.WriteJSON(a.outW)
	}

	fmt.Fprintf(a.outW, "Run %s (%s) on %s\n", run.ID, run.Status, run.Network)
	if run.Error != "" {
		fmt.Fprintf(a.outW, "Error: %s\n", run.Error)
	}
	w := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UNIT\tCONTRACT\tADDRESS\tTX")
	for _, d := range deployments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Unit, d.Contract, d.Address, d.TxHash)
	}
	return w.Flush()
}
