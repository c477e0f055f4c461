package dashboard

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/ziadkadry99/deskmate/internal/audit"
	"github.com/ziadkadry99/deskmate/internal/intent"
)

//go:embed index.html
var indexHTML []byte

// ServeIndex serves the embedded HTML dashboard.
func (d *Dashboard) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// statsResponse is the JSON response for the stats endpoint.
type statsResponse struct {
	PendingDialogues int            `json:"pending_dialogues"`
	Journal          *audit.Summary `json:"journal,omitempty"`
}

// intentInfo describes one registry row.
type intentInfo struct {
	Tag        intent.Tag `json:"tag"`
	Summary    string     `json:"summary,omitempty"`
	Example    string     `json:"example,omitempty"`
	Actionable bool       `json:"actionable"`
	Slots      []string   `json:"slots,omitempty"`
	Required   []string   `json:"required,omitempty"`
}

func (d *Dashboard) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var resp statsResponse

	if d.pending != nil {
		n, err := d.pending.Count(ctx)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		resp.PendingDialogues = n
	}

	if d.journal != nil {
		sum, err := d.journal.Summarize(ctx)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		resp.Journal = &sum
	}

	writeJSON(w, http.StatusOK, resp)
}

func (d *Dashboard) handleIntents(w http.ResponseWriter, r *http.Request) {
	defs := d.registry.Definitions()
	out := make([]intentInfo, 0, len(defs))
	for _, def := range defs {
		info := intentInfo{
			Tag:        def.Tag,
			Summary:    def.Summary,
			Example:    def.Example,
			Actionable: def.Tag.Actionable(),
		}
		for _, s := range def.Slots {
			info.Slots = append(info.Slots, s.Name)
			if s.Required {
				info.Required = append(info.Required, s.Name)
			}
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
