// Package mockservice is a stand-in for the inference backend. It speaks the
// same multipart request and JSON response as the real service so the front
// ends can be exercised without a model.
package mockservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-lesionform/pkg/contract"
	"github.com/goliatone/go-lesionform/pkg/model"
)

// NoCancerLabel replaces the predicted class when no class reaches the
// confidence threshold.
const NoCancerLabel = "no cancer detected"

// DefaultThreshold is the top probability below which NoCancerLabel is
// reported.
const DefaultThreshold = 0.5

const maxUploadBytes = 10 << 20

// Option configures a Service.
type Option func(*Service)

// WithScorer replaces ImageScorer.
func WithScorer(scorer Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithLogger sets the logger used for rejected requests.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service answers POST /predict.
type Service struct {
	contract  *contract.Contract
	scorer    Scorer
	threshold float64
	logger    *log.Logger
}

// New builds a service that checks requests against c.
func New(c *contract.Contract, options ...Option) (*Service, error) {
	if c == nil {
		return nil, errors.New("mockservice: contract is required")
	}
	s := &Service{
		contract:  c,
		scorer:    ImageScorer{},
		threshold: DefaultThreshold,
		logger:    log.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// Handler returns the service routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(allowCORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(contract.Document())
	})
	r.Post(contract.PredictPath, s.predict)
	return r
}

func (s *Service) predict(w http.ResponseWriter, r *http.Request) {
	sample, err := s.decode(r)
	if err != nil {
		s.logger.Printf("mockservice: rejected request: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	probs, err := s.scorer.Score(r.Context(), sample)
	if err != nil {
		s.logger.Printf("mockservice: score: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, s.result(probs))
}

func (s *Service) result(probs model.Probabilities) model.PredictionResult {
	result := model.PredictionResult{ClassProbabilities: probs}
	best := -1.0
	for _, entry := range probs {
		if entry.Value > best {
			best = entry.Value
			result.PredictedClass = entry.Class
		}
	}
	if best < s.threshold {
		result.PredictedClass = NoCancerLabel
	}
	return result
}

func (s *Service) decode(r *http.Request) (Sample, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return Sample{}, fmt.Errorf("parse form: %w", err)
	}

	for _, field := range []model.FieldName{model.FieldSex, model.FieldDxType, model.FieldLocalization, model.FieldAge} {
		if err := s.contract.CheckValue(string(field), r.FormValue(string(field))); err != nil {
			return Sample{}, err
		}
	}

	file, _, err := r.FormFile(string(model.FieldImage))
	if err != nil {
		return Sample{}, fmt.Errorf("missing field %q", model.FieldImage)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Sample{}, fmt.Errorf("read image: %w", err)
	}

	age, _ := model.ParseAge(r.FormValue(string(model.FieldAge)))
	return Sample{
		Image:        data,
		Sex:          r.FormValue(string(model.FieldSex)),
		DxType:       r.FormValue(string(model.FieldDxType)),
		Localization: strings.TrimSpace(r.FormValue(string(model.FieldLocalization))),
		Age:          age,
	}, nil
}

func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
