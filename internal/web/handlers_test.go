package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-lesionform/pkg/controller"
	"github.com/goliatone/go-lesionform/pkg/model"
	"github.com/goliatone/go-lesionform/pkg/render"
	"github.com/goliatone/go-lesionform/pkg/renderers/html"
)

// jsonRenderer encodes the view so tests can inspect what would be drawn.
type jsonRenderer struct{}

func (jsonRenderer) Name() string        { return "json" }
func (jsonRenderer) ContentType() string { return "application/json" }
func (jsonRenderer) Render(_ context.Context, view render.View) ([]byte, error) {
	return json.Marshal(view)
}

type recordingSubmitter struct {
	calls  atomic.Int32
	result model.PredictionResult
}

func (s *recordingSubmitter) Submit(_ context.Context, _ model.Draft) (model.PredictionResult, error) {
	s.calls.Add(1)
	return s.result, nil
}

func namePreview(_ context.Context, image model.ImageFile) (string, error) {
	return "data:test;base64," + image.Name, nil
}

func melanoma() model.PredictionResult {
	return model.PredictionResult{
		PredictedClass: "mel",
		ClassProbabilities: model.Probabilities{
			{Class: "mel", Value: 0.8},
			{Class: "nv", Value: 0.2},
		},
	}
}

func newTestServer(t *testing.T, submitter controller.Submitter, renderer render.Renderer, options ...Option) (*httptest.Server, *http.Client) {
	t.Helper()
	options = append(options, WithControllerOptions(controller.WithPreviewer(namePreview)))
	srv, err := New(submitter, renderer, options...)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return ts, &http.Client{Jar: jar}
}

func decodeView(t *testing.T, resp *http.Response) render.View {
	t.Helper()
	defer resp.Body.Close()
	var view render.View
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func postField(t *testing.T, client *http.Client, base string, field model.FieldName, value string) *http.Response {
	t.Helper()
	resp, err := client.PostForm(base+"/fields/"+string(field), url.Values{"value": {value}})
	if err != nil {
		t.Fatalf("post %s: %v", field, err)
	}
	return resp
}

func multipartBody(t *testing.T, fields map[string]string, imageName string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if imageName != "" {
		part, err := writer.CreateFormFile("image", imageName)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := part.Write([]byte("\x89PNG\r\n\x1a\n")); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func fillForm(t *testing.T, client *http.Client, base string) {
	t.Helper()
	body, contentType := multipartBody(t, nil, "lesion.png")
	resp, err := client.Post(base+"/fields/image", contentType, body)
	if err != nil {
		t.Fatalf("post image: %v", err)
	}
	resp.Body.Close()

	values := []struct {
		field model.FieldName
		value string
	}{
		{model.FieldSex, "female"},
		{model.FieldDxType, "histo"},
		{model.FieldLocalization, "back"},
		{model.FieldAge, "45"},
	}
	for _, v := range values {
		resp := postField(t, client, base, v.field, v.value)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("post %s: status %d", v.field, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestIndexStartsIdleSession(t *testing.T) {
	ts, client := newTestServer(t, &recordingSubmitter{}, jsonRenderer{})

	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	view := decodeView(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if view.Pending || view.HasResult || view.Error != nil {
		t.Fatalf("expected idle view, got %+v", view)
	}
	if view.SubmitCaption != render.CaptionIdle {
		t.Fatalf("unexpected caption %q", view.SubmitCaption)
	}

	base, _ := url.Parse(ts.URL)
	var found bool
	for _, c := range client.Jar.Cookies(base) {
		if c.Name == SessionCookie && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session cookie")
	}
}

func TestPredictFlow(t *testing.T) {
	sub := &recordingSubmitter{result: melanoma()}
	ts, client := newTestServer(t, sub, jsonRenderer{})
	fillForm(t, client, ts.URL)

	resp, err := client.PostForm(ts.URL+"/predict", url.Values{})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	view := decodeView(t, resp)

	if !view.HasResult || view.ResultLabel != render.Label("mel") {
		t.Fatalf("expected melanoma result, got %+v", view)
	}
	if diff := cmp.Diff([]string{"mel", "nv"}, []string{view.Rows[0].Class, view.Rows[1].Class}); diff != "" {
		t.Fatalf("row order mismatch (-want +got):\n%s", diff)
	}
	if sub.calls.Load() != 1 {
		t.Fatalf("expected one submission, got %d", sub.calls.Load())
	}

	// Any edit clears the outcome.
	view = decodeView(t, postField(t, client, ts.URL, model.FieldAge, "46"))
	if view.HasResult || view.Error != nil {
		t.Fatalf("expected outcome cleared after edit, got %+v", view)
	}
	if view.Age != "46" {
		t.Fatalf("expected age kept, got %q", view.Age)
	}
}

func TestPredictAppliesPostedFields(t *testing.T) {
	sub := &recordingSubmitter{result: melanoma()}
	ts, client := newTestServer(t, sub, jsonRenderer{})

	body, contentType := multipartBody(t, map[string]string{
		"sex":          "male",
		"dx_type":      "consensus",
		"localization": "face",
		"age":          "61",
	}, "mole.png")
	resp, err := client.Post(ts.URL+"/predict", contentType, body)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	view := decodeView(t, resp)

	if !view.HasResult {
		t.Fatalf("expected result, got error %+v", view.Error)
	}
	if view.ImageName != "mole.png" || view.Age != "61" {
		t.Fatalf("posted fields not applied: %+v", view)
	}
}

func TestPredictValidationNeverDispatches(t *testing.T) {
	sub := &recordingSubmitter{result: melanoma()}
	ts, client := newTestServer(t, sub, jsonRenderer{})

	resp, err := client.PostForm(ts.URL+"/predict", url.Values{})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	view := decodeView(t, resp)

	if view.Error == nil || view.Error.Message != model.MessageFieldsRequired {
		t.Fatalf("expected required-fields error, got %+v", view.Error)
	}
	if view.Pending {
		t.Fatalf("expected pending cleared")
	}
	if sub.calls.Load() != 0 {
		t.Fatalf("expected no submission")
	}
}

func TestPredictInFlightAnswersConflict(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var calls atomic.Int32
	sub := controller.SubmitterFunc(func(ctx context.Context, _ model.Draft) (model.PredictionResult, error) {
		calls.Add(1)
		once.Do(func() { close(entered) })
		<-release
		return melanoma(), nil
	})
	ts, client := newTestServer(t, sub, jsonRenderer{})
	defer func() {
		select {
		case <-release:
		default:
			close(release)
		}
	}()
	fillForm(t, client, ts.URL)

	first := make(chan *http.Response, 1)
	go func() {
		resp, err := client.PostForm(ts.URL+"/predict", url.Values{})
		if err != nil {
			close(first)
			return
		}
		first <- resp
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatalf("first submission never started")
	}

	resp, err := client.PostForm(ts.URL+"/predict", url.Values{})
	if err != nil {
		t.Fatalf("second predict: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	view := decodeView(t, resp)
	if !view.Pending || view.SubmitCaption != render.CaptionPending {
		t.Fatalf("expected pending view, got %+v", view)
	}

	view = decodeView(t, postField(t, client, ts.URL, model.FieldAge, "50"))
	if !view.Pending || view.Age != "50" {
		t.Fatalf("expected edit mid-flight to keep pending, got %+v", view)
	}

	close(release)
	firstResp, ok := <-first
	if !ok {
		t.Fatalf("first predict failed")
	}
	if firstResp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected first status %d", firstResp.StatusCode)
	}
	if !decodeView(t, firstResp).HasResult {
		t.Fatalf("expected first submission to succeed")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", calls.Load())
	}
}

func TestFieldUnknownIsNotFound(t *testing.T) {
	ts, client := newTestServer(t, &recordingSubmitter{}, jsonRenderer{})

	resp := postField(t, client, ts.URL, "height", "180")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	ts, client := newTestServer(t, &recordingSubmitter{}, jsonRenderer{})

	body, contentType := multipartBody(t, nil, "spot.png")
	resp, err := client.Post(ts.URL+"/fields/image", contentType, body)
	if err != nil {
		t.Fatalf("post image: %v", err)
	}
	resp.Body.Close()

	resp, err = client.Get(ts.URL + "/preview")
	if err != nil {
		t.Fatalf("get preview: %v", err)
	}
	defer resp.Body.Close()

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"preview": "data:test;base64,spot.png"}, got); diff != "" {
		t.Fatalf("preview mismatch (-want +got):\n%s", diff)
	}

	// Posting the image field without a file clears the selection.
	resp = postField(t, client, ts.URL, model.FieldImage, "")
	view := decodeView(t, resp)
	if view.ImageName != "" || view.Preview != "" {
		t.Fatalf("expected image cleared, got %+v", view)
	}
}

func TestStaticRoutes(t *testing.T) {
	assets := fstest.MapFS{"site.css": {Data: []byte("body{}")}}
	ts, client := newTestServer(t, &recordingSubmitter{}, jsonRenderer{},
		WithAssets(assets),
		WithContractDocument([]byte("openapi: 3.0.3\n")),
	)

	cases := []struct {
		path string
		want string
	}{
		{"/healthz", "ok"},
		{"/openapi.yaml", "openapi: 3.0.3\n"},
		{"/assets/site.css", "body{}"},
	}
	for _, tc := range cases {
		resp, err := client.Get(ts.URL + tc.path)
		if err != nil {
			t.Fatalf("get %s: %v", tc.path, err)
		}
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(data) != tc.want {
			t.Fatalf("%s: status %d body %q", tc.path, resp.StatusCode, data)
		}
	}
}

func TestHTMLPage(t *testing.T) {
	renderer, err := html.New()
	if err != nil {
		t.Fatalf("html renderer: %v", err)
	}
	ts, client := newTestServer(t, &recordingSubmitter{result: melanoma()}, renderer,
		WithViewOptions(render.WithTitle("Dermatology Triage")),
	)

	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != renderer.ContentType() {
		t.Fatalf("unexpected content type %q", got)
	}
	page := string(data)
	for _, want := range []string{"Dermatology Triage", render.CaptionIdle, `action="/predict"`} {
		if !strings.Contains(page, want) {
			t.Fatalf("page missing %q", want)
		}
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(nil, jsonRenderer{}); err == nil {
		t.Fatalf("expected error without submitter")
	}
	if _, err := New(&recordingSubmitter{}, nil); err == nil {
		t.Fatalf("expected error without renderer")
	}
}

func TestSweepClosesIdleSessions(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newSessionStore(func() *controller.Controller {
		return controller.New(&recordingSubmitter{}, controller.WithPreviewer(namePreview))
	})
	store.now = func() time.Time { return now }

	idle := store.resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	busy := store.resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	busy.inFlight.Store(true)
	store.release(idle)
	store.release(busy)

	now = now.Add(time.Hour)
	if got := store.sweep(30 * time.Minute); got != 1 {
		t.Fatalf("expected one session swept, got %d", got)
	}
	if store.len() != 1 {
		t.Fatalf("expected busy session kept")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: idle.id})
	if again := store.resolve(httptest.NewRecorder(), req); again == idle {
		t.Fatalf("expected swept session to be replaced")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: busy.id})
	if again := store.resolve(httptest.NewRecorder(), req); again != busy {
		t.Fatalf("expected busy session to be reused")
	}
	store.closeAll()
}

func TestSweepKeepsSessionHeldByRequest(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newSessionStore(func() *controller.Controller {
		return controller.New(&recordingSubmitter{}, controller.WithPreviewer(namePreview))
	})
	store.now = func() time.Time { return now }

	sess := store.resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	store.release(sess)

	// The session goes stale, then a request picks it up before the sweep runs.
	now = now.Add(time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.id})
	held := store.resolve(httptest.NewRecorder(), req)
	if held != sess {
		t.Fatalf("expected stale session to be reused")
	}
	now = now.Add(time.Hour)
	if got := store.sweep(30 * time.Minute); got != 0 {
		t.Fatalf("expected held session kept, swept %d", got)
	}

	if err := held.ctrl.Change(context.Background(), model.SetField(model.FieldAge, "42")); err != nil {
		t.Fatalf("change on held session: %v", err)
	}
	if got := held.ctrl.Draft().Age; got != "42" {
		t.Fatalf("expected draft age 42, got %q", got)
	}

	store.release(held)
	now = now.Add(time.Hour)
	if got := store.sweep(30 * time.Minute); got != 1 {
		t.Fatalf("expected released session swept, got %d", got)
	}
}
