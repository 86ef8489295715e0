// Package generate exposes the three generation pathways over HTTP.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"devlog-ai/internal/domain/entity"
	"devlog-ai/internal/handler/http/requestid"
	"devlog-ai/internal/handler/http/respond"
)

// Generator produces a result for a validated request. generate.Service satisfies it.
type Generator interface {
	Generate(ctx context.Context, req entity.Request) (entity.Result, error)
}

// serve decodes the body as a request of kind, validates it and writes the result.
func serve(w http.ResponseWriter, r *http.Request, gen Generator, kind entity.Kind) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respond.JSON(w, http.StatusRequestEntityTooLarge, respond.ErrorBody{Error: "request body too large"})
			return
		}
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	req, err := entity.DecodeRequest(kind, body)
	if err != nil {
		if entity.IsValidation(err) {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid request body: malformed JSON"))
		return
	}
	if err := req.Validate(); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	res, err := gen.Generate(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "generation request failed",
			slog.String("kind", string(kind)),
			slog.String("request_id", requestid.FromContext(r.Context())),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", respond.SanitizeError(err)))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

type TitleHandler struct{ Gen Generator }

// ServeHTTP generates a title
// @Summary      Generate title
// @Description  Summarises a list of question/answer pairs into a title of at most 35 characters
// @Tags         generate
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body []entity.QnA true "Question/answer pairs"
// @Success      200 {object} entity.TitleResult
// @Failure      400 {object} respond.ErrorBody "Empty or malformed request"
// @Failure      401 {object} respond.ErrorBody "Missing or invalid bearer token"
// @Failure      500 {object} respond.ErrorBody "Generation failed"
// @Router       /generate/title [post]
func (h TitleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.Gen, entity.KindTitle)
}

type SummaryHandler struct{ Gen Generator }

// ServeHTTP generates a retrospective
// @Summary      Generate retrospective
// @Description  Writes a project retrospective from ordered daily dev logs
// @Tags         generate
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body []entity.DailyLog true "Daily logs"
// @Success      200 {object} entity.RetrospectiveResult
// @Failure      400 {object} respond.ErrorBody "Empty or malformed request"
// @Failure      401 {object} respond.ErrorBody "Missing or invalid bearer token"
// @Failure      500 {object} respond.ErrorBody "Generation failed"
// @Router       /generate/summary [post]
func (h SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.Gen, entity.KindRetrospective)
}

type ExperienceHandler struct{ Gen Generator }

// ServeHTTP extracts experiences
// @Summary      Extract experiences
// @Description  Extracts up to 4 experiences from retrospective text, labelled only with the supplied keywords
// @Tags         generate
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request body entity.ExperienceRequest true "Retrospective text and allowed keywords"
// @Success      200 {object} entity.ExperienceResult
// @Failure      400 {object} respond.ErrorBody "Malformed keywords or duplicate keyword ids"
// @Failure      401 {object} respond.ErrorBody "Missing or invalid bearer token"
// @Failure      500 {object} respond.ErrorBody "Generation failed"
// @Router       /generate/experience [post]
func (h ExperienceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.Gen, entity.KindExperience)
}
