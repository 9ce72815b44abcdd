package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/gradeboard/internal/config"
	"github.com/KaramelBytes/gradeboard/internal/logging"
	"github.com/KaramelBytes/gradeboard/internal/server"
	"github.com/KaramelBytes/gradeboard/internal/store"
)

const gradesCSV = "学号,姓名,班级,语文,数学\n1001,Alice,1班,90,80\n1002,Bob,1班,70,60\n1003,Cara,2班,85,95\n"

func newServer(t *testing.T, mutate func(*config.Global)) http.Handler {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	srv, err := server.New(cfg, store.New(), logging.New(io.Discard, "error", "text"))
	require.NoError(t, err)
	return srv.Routes()
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("gradeFile", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	return do(h, httptest.NewRequest(http.MethodGet, path, nil))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	code, _ := decode(t, rec)["error_code"].(string)
	return code
}

func TestQueriesBeforeUpload(t *testing.T) {
	h := newServer(t, nil)
	for _, path := range []string{"/analysis", "/students", "/suggestions", "/personal-analysis/1", "/dashboard"} {
		rec := get(h, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "NO_DATASET", errorCode(t, rec), path)
	}
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
}

func TestUploadAndQuery(t *testing.T) {
	h := newServer(t, nil)

	rec := do(h, uploadRequest(t, "grades.csv", []byte(gradesCSV)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var up server.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.True(t, up.Success)
	assert.Equal(t, "文件上传成功，系统已自动计算排名信息", up.Message)
	assert.True(t, up.Data.HasAutoCalculatedRankings)
	assert.Equal(t, 3, up.Data.StudentCount)
	assert.Equal(t, 2, up.Data.SubjectCount)
	assert.Equal(t, 2, up.Data.ClassCount)
	assert.NotEmpty(t, up.Data.DatasetID)

	rec = get(h, "/analysis")
	require.Equal(t, http.StatusOK, rec.Code)
	overall := decode(t, rec)
	assert.Equal(t, []any{"语文", "数学"}, overall["subjects"])

	rec = get(h, "/students")
	require.Equal(t, http.StatusOK, rec.Code)
	var students []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &students))
	assert.Len(t, students, 3)

	rec = get(h, "/personal-analysis/1002")
	require.Equal(t, http.StatusOK, rec.Code)
	personal := decode(t, rec)
	assert.Equal(t, "Bob", personal["student"].(map[string]any)["name"])

	rec = get(h, "/personal-analysis/9999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "STUDENT_NOT_FOUND", errorCode(t, rec))

	rec = get(h, "/class-analysis/"+url.PathEscape("1班"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	class := decode(t, rec)
	assert.Equal(t, "1班", class["classInfo"].(map[string]any)["name"])

	rec = get(h, "/class-analysis/"+url.PathEscape("9班"))
	assert.Equal(t, "CLASS_NOT_FOUND", errorCode(t, rec))

	rec = get(h, "/suggestions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["suggestions"])
}

func TestUploadDeclaredRankingsAreNotRecomputed(t *testing.T) {
	h := newServer(t, nil)
	declared := "学号,姓名,班级,语文,数学,年级排名\n1,A,1班,90,80,1\n2,B,1班,70,60,2\n"
	rec := do(h, uploadRequest(t, "ranked.csv", []byte(declared)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var up server.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.False(t, up.Data.HasAutoCalculatedRankings)
	assert.Equal(t, "文件上传成功", up.Message)

	mixed := declared + "3,C,2班,85,95,\n"
	rec = do(h, uploadRequest(t, "mixed.csv", []byte(mixed)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.True(t, up.Data.HasAutoCalculatedRankings)
}

func TestClassNameWithPercent(t *testing.T) {
	h := newServer(t, nil)
	csv := "学号,姓名,班级,语文\n1,A,3%41班,90\n2,B,1班,70\n"
	require.Equal(t, http.StatusOK, do(h, uploadRequest(t, "pct.csv", []byte(csv))).Code)

	rec := get(h, "/class-analysis/"+url.PathEscape("3%41班"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "3%41班", decode(t, rec)["classInfo"].(map[string]any)["name"])
}

func TestJointAnalysis(t *testing.T) {
	h := newServer(t, nil)
	require.Equal(t, http.StatusOK, do(h, uploadRequest(t, "grades.csv", []byte(gradesCSV))).Code)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/joint-analysis", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return do(h, req)
	}

	rec := post(`{"analysisType":"correlation","subjects":["语文","数学"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	corr := decode(t, rec)["correlations"].(map[string]any)
	assert.Contains(t, corr, "语文-数学")

	rec = post(`{"analysisType":"regression"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))

	rec = post(`not json`)
	assert.Equal(t, "INVALID_JSON", errorCode(t, rec))
}

func TestUploadErrorsKeepPublishedDataset(t *testing.T) {
	h := newServer(t, nil)
	require.Equal(t, http.StatusOK, do(h, uploadRequest(t, "grades.csv", []byte(gradesCSV))).Code)
	before := decode(t, get(h, "/healthz"))["datasetId"]

	rec := do(h, uploadRequest(t, "grades.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT", errorCode(t, rec))

	rec = do(h, uploadRequest(t, "empty.csv", []byte("学号,姓名,语文\n")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "EMPTY_DATASET", errorCode(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec = do(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, before, decode(t, get(h, "/healthz"))["datasetId"])
}

func TestUploadRows(t *testing.T) {
	h := newServer(t, nil)
	body := `{"name":"manual","headers":["姓名","语文"],"rows":[{"姓名":"A","语文":88},{"姓名":"B","语文":"61"}]}`
	req := httptest.NewRequest(http.MethodPost, "/rows", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := do(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var up server.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, 2, up.Data.StudentCount)
	assert.Equal(t, "manual", up.Data.Source)

	req = httptest.NewRequest(http.MethodPost, "/rows", strings.NewReader(`{"rows":[]}`))
	rec = do(h, req)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))
}

func TestUploadSizeLimit(t *testing.T) {
	h := newServer(t, func(c *config.Global) { c.MaxUploadMB = 1 })
	big := []byte("学号,姓名,语文\n" + strings.Repeat("1,A,90\n", 200_000))
	rec := do(h, uploadRequest(t, "big.csv", big))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE_TOO_LARGE", errorCode(t, rec))
}

func TestUploadRateLimit(t *testing.T) {
	h := newServer(t, func(c *config.Global) { c.UploadRatePerMin = 1 })
	require.Equal(t, http.StatusOK, do(h, uploadRequest(t, "grades.csv", []byte(gradesCSV))).Code)

	rec := do(h, uploadRequest(t, "grades.csv", []byte(gradesCSV)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))

	// queries are not throttled
	assert.Equal(t, http.StatusOK, get(h, "/analysis").Code)
}

func TestDashboardAndMetrics(t *testing.T) {
	h := newServer(t, nil)
	require.Equal(t, http.StatusOK, do(h, uploadRequest(t, "grades.csv", []byte(gradesCSV))).Code)

	for _, path := range []string{"/dashboard", "/dashboard/class/" + url.PathEscape("2班"), "/dashboard/student/1001"} {
		rec := get(h, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
		assert.Contains(t, rec.Body.String(), "echarts", path)
	}
	assert.Equal(t, http.StatusNotFound, get(h, "/dashboard/student/42").Code)

	rec := get(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gradeboard_uploads_total{outcome="accepted"} 1`)
	assert.Contains(t, body, "gradeboard_dataset_students 3")
	assert.Contains(t, body, `route="/dashboard/student/{studentId}"`)
}
