package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-lesionform/pkg/model"
	"github.com/goliatone/go-lesionform/pkg/render"
)

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.resolve(w, r)
	defer s.sessions.release(sess)
	s.renderPage(w, r, sess, http.StatusOK)
}

func (s *Server) changeField(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.resolve(w, r)
	defer s.sessions.release(sess)
	name := model.FieldName(chi.URLParam(r, "name"))

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	var update model.FieldUpdate
	if name == model.FieldImage {
		image, err := uploadedImage(r)
		if err != nil {
			http.Error(w, "invalid image upload", http.StatusBadRequest)
			return
		}
		update = model.SetImage(image)
	} else {
		update = model.SetField(name, r.FormValue("value"))
	}

	if err := sess.ctrl.Change(r.Context(), update); err != nil {
		if errors.Is(err, model.ErrUnknownField) {
			http.Error(w, "unknown field", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderPage(w, r, sess, http.StatusOK)
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.resolve(w, r)
	defer s.sessions.release(sess)

	ctx, cancel := context.WithTimeout(r.Context(), s.previewTimeout)
	defer cancel()

	payload := map[string]string{}
	url, err := sess.ctrl.AwaitPreview(ctx)
	payload["preview"] = url
	if err != nil {
		payload["error"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// predict applies any fields posted with the form, then submits. A session
// with a submission already in flight gets 409 and the pending page.
func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.resolve(w, r)
	defer s.sessions.release(sess)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if !sess.inFlight.CompareAndSwap(false, true) {
		s.renderPage(w, r, sess, http.StatusConflict)
		return
	}
	defer sess.inFlight.Store(false)

	if err := s.applyPosted(r, sess); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess.ctrl.Submit(r.Context())
	s.renderPage(w, r, sess, http.StatusOK)
}

func (s *Server) applyPosted(r *http.Request, sess *session) error {
	if r.MultipartForm == nil && r.PostForm == nil {
		return nil
	}
	for _, field := range []model.FieldName{model.FieldSex, model.FieldDxType, model.FieldLocalization, model.FieldAge} {
		if _, ok := r.Form[string(field)]; !ok {
			continue
		}
		if err := sess.ctrl.Change(r.Context(), model.SetField(field, r.FormValue(string(field)))); err != nil {
			return err
		}
	}

	image, err := uploadedImage(r)
	if err != nil {
		return err
	}
	if image != nil {
		return sess.ctrl.Change(r.Context(), model.SetImage(image))
	}
	return nil
}

// uploadedImage returns the "image" file part, or nil when the request has
// none or it is empty.
func uploadedImage(r *http.Request) (*model.ImageFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(string(model.FieldImage))
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if header.Size == 0 {
		return nil, nil
	}
	return readImage(file, header)
}

func readImage(file multipart.File, header *multipart.FileHeader) (*model.ImageFile, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	image := model.ImageFromBytes(header.Filename, data)
	return &image, nil
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, sess *session, status int) {
	ctrl := sess.ctrl
	options := append([]render.ViewOption{render.WithPreviewError(ctrl.PreviewError())}, s.viewOptions...)
	view := render.NewView(ctrl.Draft(), ctrl.Preview(), ctrl.Store().Current(), options...)

	out, err := s.renderer.Render(r.Context(), view)
	if err != nil {
		s.logger.Printf("web: render page: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", s.renderer.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(out)
}
