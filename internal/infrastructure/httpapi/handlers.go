package httpapi

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sheetql/sheetql/internal/application/importer"
	"github.com/sheetql/sheetql/internal/domain"
)

const maxUploadBytes = 64 << 20

type queryRequestBody struct {
	Question string `json:"question"`
	Table    string `json:"table"`
	Schema   string `json:"schema,omitempty"`
	Actor    string `json:"actor,omitempty"`
}

type queryResponseBody struct {
	Success      bool           `json:"success"`
	Outcome      domain.Outcome `json:"outcome"`
	Columns      []string       `json:"columns,omitempty"`
	Rows         []domain.Row   `json:"rows,omitempty"`
	RowCount     int            `json:"row_count"`
	GeneratedSQL string         `json:"generated_sql,omitempty"`
	Error        string         `json:"error,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var body queryRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := domain.QueryRequest{
		Context:  r.Context(),
		Question: body.Question,
		Table:    body.Table,
		Schema:   body.Schema,
		Actor:    body.Actor,
		Origin:   clientAddr(r),
	}

	if wantsEventStream(r) {
		s.streamQuery(w, req)
		return
	}

	result, err := s.query.Execute(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, statusFor(result.Outcome), toResponseBody(result))
}

// streamQuery replays generated-text deltas to the client as SSE events,
// then sends the final result as a terminal event.
func (s *Server) streamQuery(w http.ResponseWriter, req domain.QueryRequest) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusNotAcceptable, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}

	req.OnFragment = func(fragment string) {
		writeEvent(map[string]string{"type": "token", "content": fragment})
	}

	result, err := s.query.Execute(req)
	if err != nil {
		writeEvent(map[string]string{"type": "error", "error": err.Error()})
	} else {
		writeEvent(map[string]any{"type": "result", "result": toResponseBody(result)})
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	var (
		logs []domain.QueryLog
		err  error
	)
	if actor := r.URL.Query().Get("actor"); actor != "" {
		logs, err = s.query.HistoryByActor(r.Context(), actor, limit)
	} else {
		logs, err = s.query.History(r.Context(), limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if logs == nil {
		logs = []domain.QueryLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleListSpreadsheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := s.importer.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sheets == nil {
		sheets = []domain.Spreadsheet{}
	}
	writeJSON(w, http.StatusOK, sheets)
}

func (s *Server) handleUploadSpreadsheet(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	hasHeader := true
	if raw := r.FormValue("has_header"); raw != "" {
		hasHeader = raw == "true" || raw == "1"
	}

	sheet, err := s.importer.Import(r.Context(), importer.Input{
		Reader:      file,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		FileSize:    header.Size,
		Description: r.FormValue("description"),
		TableName:   r.FormValue("table"),
		HasHeader:   hasHeader,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sheet)
}

func (s *Server) handleDeleteSpreadsheet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.importer.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toResponseBody(result domain.QueryResult) queryResponseBody {
	return queryResponseBody{
		Success:      result.Success,
		Outcome:      result.Outcome,
		Columns:      result.Columns,
		Rows:         result.Rows,
		RowCount:     len(result.Rows),
		GeneratedSQL: result.GeneratedSQL,
		Error:        result.Error,
	}
}

func statusFor(outcome domain.Outcome) int {
	switch outcome {
	case domain.OutcomeSuccess:
		return http.StatusOK
	case domain.OutcomePrecondition:
		return http.StatusBadRequest
	case domain.OutcomeRejected:
		return http.StatusUnprocessableEntity
	case domain.OutcomeProviderFailure:
		return http.StatusBadGateway
	case domain.OutcomeCancelled:
		return http.StatusRequestTimeout
	default:
		return http.StatusBadRequest
	}
}

func wantsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
