package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/rainfall-etl/internal/domain"
)

var errBadParam = errors.New("bad parameter")

type correctedResponse struct {
	Year   int       `json:"year"`
	Factor float64   `json:"factor"`
	Values []float64 `json:"values"`
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	ds, year, err := s.datasetAndYear(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := ds.Year(year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	body, err := domain.MarshalYear(year, t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client may have gone away
}

func (s *Server) handleCorrected(w http.ResponseWriter, r *http.Request) {
	style, err := domain.ParseCorrectionStyle(r.URL.Query().Get("style"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ds, year, err := s.datasetAndYear(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	values, err := ds.Corrected(year, style)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, correctedResponse{
		Year:   year,
		Factor: domain.CorrectionFactor,
		Values: values,
	})
}

// handleMeans serves the annual-mean series. start and end default to the
// Dataset's own span when omitted.
func (s *Server) handleMeans(w http.ResponseWriter, r *http.Request) {
	ds, err := s.datasets.Load(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	span, _ := ds.Range()
	q := r.URL.Query()
	start, err := intParam(q.Get("start"), "start", span.Start)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := intParam(q.Get("end"), "end", span.End)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	means, err := ds.AnnualMeans(start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, means)
}

func (s *Server) datasetAndYear(r *http.Request) (domain.Dataset, int, error) {
	year, err := intParam(r.PathValue("year"), "year", 0)
	if err != nil {
		return nil, 0, err
	}
	ds, err := s.datasets.Load(r.PathValue("name"))
	if err != nil {
		return nil, 0, err
	}
	return ds, year, nil
}

func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errBadParam, name, raw)
	}
	return v, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrDatasetNotFound), errors.Is(err, domain.ErrYearNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidName),
		errors.Is(err, errBadParam),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrUnknownStyle):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyYear):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
