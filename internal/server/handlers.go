package server

import (
	"fmt"
	"net/http"
	"strings"

	"jobcopilot/internal/answer"
	"jobcopilot/internal/errors"
	"jobcopilot/internal/observability"
	"jobcopilot/internal/store"
	"jobcopilot/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "jobcopilot.api"

// jobRoutes binds each job tracking path to the status it records
var jobRoutes = map[string]types.JobStatus{
	"/jobs/save":    types.JobStatusSaved,
	"/jobs/applied": types.JobStatusApplied,
}

// JobList is the listing shape for saved and applied jobs
type JobList struct {
	Items []types.JobRecord `json:"items"`
	Count int               `json:"count"`
}

// RecordedResponse acknowledges an appended event
type RecordedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// decodeAndValidate parses the body into v, checks it against schema when
// one is given and runs struct validation
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, span trace.Span, schema *gojsonschema.Schema, v any) bool {
	body, err := parseJSONRequest(r, v)
	if err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	if schema != nil {
		if err := checkSchema(schema, body); err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return false
		}
	}
	if err := s.validate.Struct(v); err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid request body", describeValidation(err), http.StatusBadRequest)
		return false
	}
	return true
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s is %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func failSpan(span trace.Span, err error, kind string) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", kind))
}

// loginHandler issues the development token or a signed JWT
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if !s.decodeAndValidate(w, r, trace.SpanFromContext(r.Context()), loginSchema, &req) {
		return
	}

	token, err := s.tokens.Issue(req.Email)
	if err != nil {
		s.Logger.LogError(err, "Failed to issue login token")
		writeErrorResponse(w, "Login failed", errors.MessageOf(err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, types.LoginResponse{AccessToken: token, TokenType: "bearer"})
}

// getProfileHandler returns the cached profile
func (s *Server) getProfileHandler(w http.ResponseWriter, r *http.Request) {
	if !s.profiles.Loaded() {
		writeErrorResponse(w, "Profile unavailable", "profile has not been loaded", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.profiles.Get())
}

// putProfileHandler replaces and persists the whole profile
func (s *Server) putProfileHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.profile.replace")
		defer span.End()

		body, err := readJSONBody(r)
		if err != nil {
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		profile, err := store.ParseProfile(body)
		if err != nil {
			failSpan(span, err, "validation")
			om.RecordProfileUpdate(ctx, "api", false)
			writeErrorResponse(w, "Invalid profile", errors.MessageOf(err), http.StatusBadRequest)
			return
		}

		saved, err := s.profiles.Replace(profile)
		if err != nil {
			failSpan(span, err, "persistence")
			om.RecordProfileUpdate(ctx, "api", false)
			s.Logger.LogError(err, "Failed to replace profile", "path", s.profiles.Path())
			status := http.StatusInternalServerError
			if errors.IsType(err, errors.ErrorTypeValidation) {
				status = http.StatusBadRequest
			}
			writeErrorResponse(w, "Failed to save profile", errors.MessageOf(err), status)
			return
		}

		om.RecordProfileUpdate(ctx, "api", true)
		writeJSON(w, http.StatusOK, saved)
	}
}

// resumeUploadHandler hands out an upload target for a resume file
func (s *Server) resumeUploadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.documents.resume")
		defer span.End()

		var req types.ResumeUploadRequest
		if !s.decodeAndValidate(w, r, span, resumeUploadSchema, &req) {
			return
		}
		span.SetAttributes(attribute.String("signer", s.signer.Name()))

		upload, err := s.signer.SignUpload(ctx, req.Filename)
		if err != nil {
			failSpan(span, err, "signing")
			om.RecordResumeUpload(ctx, s.signer.Name(), false)
			s.Logger.LogError(err, "Failed to sign resume upload", "filename", req.Filename)
			writeErrorResponse(w, "Failed to create upload URL", errors.MessageOf(err), http.StatusInternalServerError)
			return
		}

		om.RecordResumeUpload(ctx, s.signer.Name(), true)
		writeJSON(w, http.StatusOK, upload)
	}
}

// auditHandler records which fields a form fill touched
func (s *Server) auditHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.events.audit")
		defer span.End()

		var event types.AuditEvent
		if !s.decodeAndValidate(w, r, span, auditSchema, &event) {
			return
		}

		record, err := s.events.AppendAudit(ctx, event)
		if err != nil {
			failSpan(span, err, "persistence")
			s.Logger.LogError(err, "Failed to record audit event", "site", event.Site)
			writeErrorResponse(w, "Failed to record event", errors.MessageOf(err), http.StatusInternalServerError)
			return
		}

		om.RecordEvent(ctx, "audit")
		span.SetAttributes(attribute.String("event.id", record.ID))
		writeJSON(w, http.StatusOK, RecordedResponse{ID: record.ID, Status: "recorded"})
	}
}

// recordJobHandler appends a saved or applied job
func (s *Server) recordJobHandler(om *observability.ObservabilityManager, status types.JobStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.jobs."+string(status))
		defer span.End()

		var event types.JobEvent
		if !s.decodeAndValidate(w, r, span, jobSchema, &event) {
			return
		}

		record, err := s.events.AppendJob(ctx, status, event)
		if err != nil {
			failSpan(span, err, "persistence")
			s.Logger.LogError(err, "Failed to record job", "status", status, "site", event.Site)
			writeErrorResponse(w, "Failed to record job", errors.MessageOf(err), http.StatusInternalServerError)
			return
		}

		om.RecordEvent(ctx, "job_"+string(status))
		writeJSON(w, http.StatusOK, RecordedResponse{ID: record.ID, Status: string(status)})
	}
}

// listJobsHandler lists jobs of one status in insertion order
func (s *Server) listJobsHandler(status types.JobStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := s.events.ListJobs(r.Context(), status)
		if err != nil {
			s.Logger.LogError(err, "Failed to list jobs", "status", status)
			writeErrorResponse(w, "Failed to list jobs", errors.MessageOf(err), http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = []types.JobRecord{}
		}
		writeJSON(w, http.StatusOK, JobList{Items: items, Count: len(items)})
	}
}

// answerFieldsHandler proposes answers for scraped form fields. LLM problems
// never fail the request; they surface in the advisory message.
func (s *Server) answerFieldsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer(tracerName).Start(r.Context(), "api.answer_fields")
		defer span.End()

		var req types.AnswerRequest
		if !s.decodeAndValidate(w, r, span, nil, &req) {
			return
		}
		if id, dup := req.DuplicateFieldID(); dup {
			err := fmt.Errorf("duplicate field_id %q", id)
			failSpan(span, err, "validation")
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		profile, ok := s.requestProfile(w, span, req)
		if !ok {
			return
		}

		span.SetAttributes(
			attribute.String("request.site", req.Site),
			attribute.Int("request.fields", len(req.Fields)),
			attribute.Int("request.description_length", len(req.JobDescription)),
			attribute.Bool("request.profile_override", req.Profile != nil),
		)

		outcome := s.answers.Answer(ctx, req, profile)
		if s.answers.LLMAvailable() {
			om.RecordLLMCall(ctx, observability.LLMCall{
				Provider: s.llmProvider(),
				Model:    s.llmModel(outcome.Response.Model),
				Duration: outcome.Duration,
				Err:      outcome.LLMErr,
				Usage:    (*observability.TokenUsage)(outcome.Usage),
			})
		}
		if outcome.LLMErr != nil {
			span.RecordError(outcome.LLMErr)
		}
		om.RecordFieldsAnswered(ctx, answer.CountBySource(outcome.Response.Answers))

		span.SetAttributes(
			attribute.Int("response.answers", outcome.Response.Answers.Len()),
			attribute.Bool("response.used_llm", outcome.Response.UsedLLM),
		)
		writeJSON(w, http.StatusOK, outcome.Response)
	}
}

// requestProfile picks the request's profile override or the stored profile
func (s *Server) requestProfile(w http.ResponseWriter, span trace.Span, req types.AnswerRequest) (types.Profile, bool) {
	override, err := store.RequestProfile(req)
	if err != nil {
		failSpan(span, err, "validation")
		writeErrorResponse(w, "Invalid profile", errors.MessageOf(err), http.StatusBadRequest)
		return types.Profile{}, false
	}
	if override != nil {
		return *override, true
	}
	if !s.profiles.Loaded() {
		writeErrorResponse(w, "Profile unavailable", "profile has not been loaded", http.StatusInternalServerError)
		return types.Profile{}, false
	}
	return s.profiles.Get(), true
}

func (s *Server) llmProvider() string {
	if s.llm == nil {
		return ""
	}
	return s.llm.ProviderName()
}

func (s *Server) llmModel(replied string) string {
	if replied != "" || s.llm == nil {
		return replied
	}
	return s.llm.Model()
}
