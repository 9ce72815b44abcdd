package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
	"github.com/KaramelBytes/gradeboard/internal/dashboard"
	"github.com/KaramelBytes/gradeboard/internal/parser"
)

const uploadField = "gradeFile"

// UploadSummary describes a freshly published dataset.
type UploadSummary struct {
	DatasetID                 string             `json:"datasetId"`
	Source                    string             `json:"source"`
	StudentCount              int                `json:"studentCount"`
	SubjectCount              int                `json:"subjectCount"`
	ClassCount                int                `json:"classCount"`
	HasAutoCalculatedRankings bool               `json:"hasAutoCalculatedRankings"`
	TableType                 analysis.TableType `json:"tableType"`
	Warnings                  []string           `json:"warnings,omitempty"`
}

// UploadResponse is the body of a successful upload.
type UploadResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    UploadSummary `json:"data"`
}

// RowsRequest carries an already decoded sheet.
type RowsRequest struct {
	Name    string           `json:"name"`
	Headers []string         `json:"headers" validate:"required,min=1,dive,required"`
	Rows    []map[string]any `json:"rows"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := fromError(err)
	level := slog.LevelWarn
	if apiErr.StatusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		"path", r.URL.Path,
		"status", apiErr.StatusCode,
		"error", err.Error(),
	)
	_ = render.Render(w, r, apiErr)
}

func (s *Server) uploadLimit() int64 {
	return int64(s.cfg.MaxUploadMB) << 20
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "ok"}
	if ds, err := s.store.Current(); err == nil {
		status["datasetId"] = ds.ID
		status["students"] = len(ds.Students)
	}
	render.JSON(w, r, status)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())
	file, hdr, err := r.FormFile(uploadField)
	if err != nil {
		s.metrics.upload("rejected")
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrMissingFile):
			s.fail(w, r, errNoFile)
		case errors.As(err, &tooLarge):
			s.fail(w, r, err)
		default:
			s.fail(w, r, NewAPIError(http.StatusBadRequest, "BAD_UPLOAD", err.Error()))
		}
		return
	}
	defer file.Close()

	sheet, err := parser.Decode(hdr.Filename, file, s.parseOpts)
	if err != nil {
		s.metrics.upload("rejected")
		s.fail(w, r, err)
		return
	}
	s.ingest(w, r, sheet)
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())
	var req RowsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.metrics.upload("rejected")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, r, err)
			return
		}
		s.fail(w, r, NewAPIError(http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.metrics.upload("rejected")
		s.fail(w, r, err)
		return
	}
	name := req.Name
	if name == "" {
		name = "rows"
	}
	sheet := analysis.Sheet{Name: name, Headers: req.Headers}
	for _, row := range req.Rows {
		sheet.Rows = append(sheet.Rows, analysis.RawRow(row))
	}
	s.ingest(w, r, sheet)
}

// ingest analyses a decoded sheet and publishes it. A failure leaves the
// current dataset in place.
func (s *Server) ingest(w http.ResponseWriter, r *http.Request, sheet analysis.Sheet) {
	ds, err := analysis.ClassifyAndNormalize(sheet, s.opts)
	if err != nil {
		s.metrics.upload("rejected")
		s.fail(w, r, err)
		return
	}
	s.store.Publish(ds)
	s.metrics.upload("accepted")
	s.metrics.students.Set(float64(len(ds.Students)))
	s.logger.InfoContext(r.Context(), "dataset published",
		"dataset_id", ds.ID,
		"source", ds.Source,
		"students", len(ds.Students),
		"subjects", len(ds.Subjects),
		"classes", len(ds.Classes),
		"warnings", len(ds.Warnings),
	)

	computed := ds.HasComputedRankings()
	msg := "文件上传成功"
	if computed {
		msg = "文件上传成功，系统已自动计算排名信息"
	}
	render.JSON(w, r, UploadResponse{
		Success: true,
		Message: msg,
		Data: UploadSummary{
			DatasetID:                 ds.ID,
			Source:                    ds.Source,
			StudentCount:              len(ds.Students),
			SubjectCount:              len(ds.Subjects),
			ClassCount:                len(ds.Classes),
			HasAutoCalculatedRankings: computed,
			TableType:                 ds.TableAnalysis.TableType,
			Warnings:                  ds.Warnings,
		},
	})
}

// dataset loads the published dataset or writes the error response.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*analysis.Dataset, bool) {
	ds, err := s.store.Current()
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return ds, true
}

// pathParam returns a decoded URL parameter. chi matches on RawPath when the
// request carried escapes, otherwise the value is already decoded.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw
	}
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, analysis.BuildOverallAnalysis(ds))
}

func (s *Server) handlePersonal(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	v, err := analysis.BuildPersonalAnalysis(ds, pathParam(r, "studentId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, v)
}

func (s *Server) handleClass(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	v, err := analysis.BuildClassAnalysis(ds, pathParam(r, "className"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, v)
}

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, analysis.ListStudents(ds))
}

func (s *Server) handleJoint(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	var req analysis.JointRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.fail(w, r, NewAPIError(http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, analysis.BuildJointAnalysis(ds, req))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, analysis.BuildSuggestions(ds))
}

// html renders a page into a buffer first so a render error still yields a
// clean error response.
func (s *Server) html(w http.ResponseWriter, r *http.Request, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	s.html(w, r, func(out io.Writer) error {
		return dashboard.RenderOverall(out, analysis.BuildOverallAnalysis(ds))
	})
}

func (s *Server) handleClassDashboard(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	v, err := analysis.BuildClassAnalysis(ds, pathParam(r, "className"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.html(w, r, func(out io.Writer) error { return dashboard.RenderClass(out, v) })
}

func (s *Server) handleStudentDashboard(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	v, err := analysis.BuildPersonalAnalysis(ds, pathParam(r, "studentId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.html(w, r, func(out io.Writer) error { return dashboard.RenderStudent(out, v) })
}
