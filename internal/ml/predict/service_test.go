package predict

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic/clinic/internal/domain/history"
	"github.com/clinic/clinic/internal/platform/auth"
)

type memHistory struct {
	records []*history.Record
	fail    bool
}

func (m *memHistory) Append(_ context.Context, rec *history.Record) error {
	if m.fail {
		return fmt.Errorf("disk full")
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memHistory) ListByPatient(_ context.Context, patientID string) ([]*history.Record, error) {
	var out []*history.Record
	for _, r := range m.records {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func diabeticInput() *Input {
	return &Input{
		Age: "45", Gender: "Male", BMI: "32", SystolicBP: "110", DiastolicBP: "70",
		Glucose: "180", Cholesterol: "180", Smoking: "Never", Alcohol: "None",
		Activity: "Low", Diet: "Poor", SleepHours: "7", FamilyHistory: "Diabetes",
	}
}

var (
	patientSession = &auth.Session{Role: auth.RolePatient, Subject: "1500", PatientID: "1500"}
	adminSession   = &auth.Session{Role: auth.RoleAdmin, Subject: "admin"}
)

func TestInput_Record(t *testing.T) {
	r, err := diabeticInput().Record()
	require.NoError(t, err)
	assert.Equal(t, diabeticRecord(), r)
}

func TestInput_RecordParseError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *Input)
		field  string
	}{
		{"text age", func(in *Input) { in.Age = "forty" }, "age"},
		{"empty bmi", func(in *Input) { in.BMI = "" }, "bmi"},
		{"nan glucose", func(in *Input) { in.Glucose = "NaN" }, "glucose"},
		{"bad sleep", func(in *Input) { in.SleepHours = "7h" }, "sleep"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := diabeticInput()
			tt.mutate(in)
			_, err := in.Record()
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected ParseError, got %v", err)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestSummary(t *testing.T) {
	r := diabeticRecord()
	r.BMI = 32.4
	assert.Equal(t,
		"Age:45.0, BMI:32.4, BP:110.0/70.0, Gluc:180.0, Chol:180.0, Smoke:Never, Alc:None, Act:Low, Diet:Poor, Sleep:7.0",
		Summary(r))
}

func TestService_Unavailable(t *testing.T) {
	svc := NewService(nil, history.NewService(&memHistory{}), zerolog.Nop())
	_, err := svc.Predict(context.Background(), diabeticInput(), patientSession)
	assert.True(t, errors.Is(err, ErrModelUnavailable))
	assert.False(t, svc.Status().Available)
}

func TestService_PatientRecordsHistory(t *testing.T) {
	hist := &memHistory{}
	svc := NewService(testBundle(t, "run-1"), history.NewService(hist), zerolog.Nop())

	res, err := svc.Predict(context.Background(), diabeticInput(), patientSession)
	require.NoError(t, err)
	assert.True(t, res.Recorded)
	require.Len(t, hist.records, 1)

	rec := hist.records[0]
	assert.Equal(t, "1500", rec.PatientID)
	assert.Equal(t, res.Label, rec.Disease)
	assert.Equal(t, history.RiskScore(res.Probability), rec.RiskScore)
	assert.True(t, strings.HasPrefix(rec.Inputs, "Age:45.0, BMI:32.0"))
}

func TestService_AdminSkipsHistory(t *testing.T) {
	hist := &memHistory{}
	svc := NewService(testBundle(t, "run-1"), history.NewService(hist), zerolog.Nop())

	res, err := svc.Predict(context.Background(), diabeticInput(), adminSession)
	require.NoError(t, err)
	assert.False(t, res.Recorded)
	assert.Empty(t, hist.records)
	assert.Equal(t, history.RiskScore(res.Probability), res.RiskScore)
}

func TestService_ParseErrorWritesNothing(t *testing.T) {
	hist := &memHistory{}
	svc := NewService(testBundle(t, "run-1"), history.NewService(hist), zerolog.Nop())
	in := diabeticInput()
	in.Glucose = "high"

	_, err := svc.Predict(context.Background(), in, patientSession)
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
	assert.Empty(t, hist.records)
}

func TestService_HistoryFailureFailsRequest(t *testing.T) {
	svc := NewService(testBundle(t, "run-1"), history.NewService(&memHistory{fail: true}), zerolog.Nop())
	_, err := svc.Predict(context.Background(), diabeticInput(), patientSession)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history")
}

func TestService_Status(t *testing.T) {
	svc := NewService(testBundle(t, "run-1"), nil, zerolog.Nop())
	st := svc.Status()
	assert.True(t, st.Available)
	assert.Equal(t, "run-1", st.RunID)
	require.NotNil(t, st.TrainedAt)
	assert.Len(t, st.Classes, 8)
}

func newPredictRequest(body, contentType string, s *auth.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, contentType)
	req = req.WithContext(auth.WithSession(req.Context(), s))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const diabeticJSON = `{"age":45,"gender":"Male","bmi":"32","bp_sys":110,"bp_dia":70,"glucose":180,"chol":180,` +
	`"smoking":"Never","alcohol":"None","activity":"Low","diet":"Poor","sleep":7,"family_history":"Diabetes"}`

func TestHandler_PredictJSON(t *testing.T) {
	svc := NewService(testBundle(t, "run-1"), history.NewService(&memHistory{}), zerolog.Nop())
	h := NewHandler(svc, zerolog.Nop())
	c, rec := newPredictRequest(diabeticJSON, echo.MIMEApplicationJSON, patientSession)

	require.NoError(t, h.Predict(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"label"`)
	assert.Contains(t, body, `"run_id":"run-1"`)
	assert.Contains(t, body, `"recorded":true`)
}

func TestHandler_PredictForm(t *testing.T) {
	svc := NewService(testBundle(t, "run-1"), nil, zerolog.Nop())
	h := NewHandler(svc, zerolog.Nop())
	form := "age=45&gender=Male&bmi=32&bp_sys=110&bp_dia=70&glucose=180&chol=180" +
		"&smoking=Never&alcohol=None&activity=Low&diet=Poor&sleep=7&family_history=Diabetes"
	c, rec := newPredictRequest(form, echo.MIMEApplicationForm, adminSession)

	require.NoError(t, h.Predict(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_PredictParseError(t *testing.T) {
	svc := NewService(testBundle(t, "run-1"), nil, zerolog.Nop())
	h := NewHandler(svc, zerolog.Nop())
	c, _ := newPredictRequest(strings.Replace(diabeticJSON, `"bmi":"32"`, `"bmi":"heavy"`, 1), echo.MIMEApplicationJSON, adminSession)

	err := h.Predict(c)
	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Contains(t, httpErr.Message, "bmi")
}

func TestHandler_PredictUnavailable(t *testing.T) {
	h := NewHandler(NewService(nil, nil, zerolog.Nop()), zerolog.Nop())
	c, _ := newPredictRequest(diabeticJSON, echo.MIMEApplicationJSON, patientSession)

	err := h.Predict(c)
	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
}
