package server

import (
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<title>pdfstitch</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #ddd; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; }
.done { color: #1a7f37; }
.error { color: #b42318; }
.running { color: #9a6700; }
</style>
</head>
<body>
<h1>pdfstitch</h1>
<p>Submit jobs with <code>POST /api/stitch</code>. Recent jobs:</p>
{{if .Jobs}}
<table>
<tr><th>Job</th><th>State</th><th>Inputs</th><th>Pages</th><th>Output</th><th>Started</th></tr>
{{range .Jobs}}
<tr>
<td><a href="/api/jobs/{{.ID}}">{{.ID}}</a></td>
<td class="{{.State}}">{{.State}}</td>
<td>{{.Inputs}}</td>
<td>{{.Pages}}</td>
<td>{{.Output}}</td>
<td>{{.Started}}</td>
</tr>
{{end}}
</table>
{{else}}
<p>No jobs yet.</p>
{{end}}
</body>
</html>`

type jobRow struct {
	ID      string
	State   string
	Inputs  int
	Pages   int
	Output  string
	Started string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	jobs, err := s.deps.Store.Recent(r.Context(), 20)
	if err != nil {
		http.Error(w, "status store unavailable", http.StatusInternalServerError)
		return
	}
	rows := make([]jobRow, 0, len(jobs))
	for _, st := range jobs {
		row := jobRow{
			ID:     st.JobID,
			State:  st.State,
			Inputs: st.Inputs,
			Pages:  st.Pages,
			Output: st.Output,
		}
		if st.Start != nil {
			row.Started = humanize.Time(*st.Start)
		}
		rows = append(rows, row)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, map[string]any{"Jobs": rows}); err != nil {
		log.Debug().Err(err).Msg("failed to render index")
	}
}
