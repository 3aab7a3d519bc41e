package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/specialistvlad/deploygrid/internal/dag"
	"github.com/specialistvlad/deploygrid/internal/ledger"
	"github.com/specialistvlad/deploygrid/internal/store"
)

// Report summarizes a deploy run.
type Report struct {
	RunID   string          `json:"run_id"`
	Grid    string          `json:"grid"`
	Network string          `json:"network"`
	Status  store.RunStatus `json:"status"`
	Error   string          `json:"error,omitempty"`
	Units   []ReportUnit    `json:"units"`
}

// ReportUnit is one deployed unit, in deployment order.
type ReportUnit struct {
	Name        string    `json:"name"`
	Contract    string    `json:"contract"`
	Address     string    `json:"address"`
	TxHash      string    `json:"tx_hash,omitempty"`
	BlockNumber uint64    `json:"block_number,omitempty"`
	GasUsed     uint64    `json:"gas_used,omitempty"`
	DeployedAt  time.Time `json:"deployed_at"`
}

func newReport(runID, grid, network string, status store.RunStatus, runErr error, l *ledger.Ledger, g *dag.Graph) *Report {
	r := &Report{
		RunID:   runID,
		Grid:    grid,
		Network: network,
		Status:  status,
		Units:   make([]ReportUnit, 0, l.Len()),
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	contract := contractOf(g)
	for name, res := range l.All() {
		r.Units = append(r.Units, ReportUnit{
			Name:        name,
			Contract:    contract(name),
			Address:     res.Address,
			TxHash:      res.TxHash,
			BlockNumber: res.BlockNumber,
			GasUsed:     res.GasUsed,
			DeployedAt:  res.DeployedAt,
		})
	}
	return r
}

// WriteText prints one "<name> contract address: <address>" line per unit.
func (r *Report) WriteText(w io.Writer) error {
	for _, u := range r.Units {
		if _, err := fmt.Fprintf(w, "%s contract address: %s\n", u.Name, u.Address); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON prints the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	return printJSON(w, r)
}

func (a *App) writeReport(r *Report) error {
	var err error
	if a.config.JSON {
		err = r.WriteJSON(a.outW)
	} else {
		err = r.WriteText(a.outW)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if a.config.ReportPath == "" {
		return nil
	}
	f, err := os.Create(a.config.ReportPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := r.WriteJSON(f); err != nil {
		f.Close()
		return fmt.Errorf("write report file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	a.logger.Debug("Report written.", "path", a.config.ReportPath)
	return nil
}

// printJSON outputs v as formatted JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
