package server

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/cv-builder/internal/editor"
	"github.com/jonathan/cv-builder/internal/export"
	"github.com/jonathan/cv-builder/internal/llm"
	"github.com/jonathan/cv-builder/internal/rendering"
	"github.com/jonathan/cv-builder/internal/types"
	"github.com/jonathan/cv-builder/internal/validation"
)

// maxBodyBytes caps request bodies, including imported documents.
const maxBodyBytes = 1 << 20

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

var scalarFields = []types.ScalarField{
	types.FieldName, types.FieldEmail, types.FieldPhone, types.FieldLinkedIn, types.FieldSummary,
}

var itemFields = map[types.ListName][]string{
	types.ListSkills: {
		string(types.SkillFieldName), string(types.SkillFieldLevel),
	},
	types.ListExperiences: {
		string(types.ExperienceCompany), string(types.ExperiencePosition), string(types.ExperiencePeriod),
		string(types.ExperienceDescription), string(types.ExperienceIsCurrent),
	},
	types.ListEducation: {
		string(types.EducationDegree), string(types.EducationInstitution), string(types.EducationStartDate),
		string(types.EducationEndDate), string(types.EducationDescription),
	},
}

type valueRequest struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

type saveRequest struct {
	Name string `json:"name" validate:"max=200"`
}

type enhanceRequest struct {
	ItemID string `json:"item_id"`
}

type keyRequest struct {
	Combo string `json:"combo" validate:"required"`
	editor.CommandArgs
}

type addItemResponse struct {
	ID    string       `json:"id"`
	State editor.State `json:"state"`
}

type documentsResponse struct {
	Names  []string `json:"names"`
	Active string   `json:"active"`
}

type artifactResponse struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Data        []byte `json:"data"`
}

type commandResponse struct {
	State    editor.State      `json:"state"`
	Artifact *artifactResponse `json:"artifact,omitempty"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.session.State())
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	field := types.ScalarField(r.PathValue("field"))
	if !slices.Contains(scalarFields, field) {
		s.failure(w, &ErrNotFound{What: "field " + string(field)})
		return
	}

	var req valueRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.failure(w, err)
		return
	}
	var value string
	if err := json.Unmarshal(req.Value, &value); err != nil {
		s.failure(w, &ErrValidation{Field: "value", Message: "must be a string"})
		return
	}

	s.jsonResponse(w, http.StatusOK, s.session.SetField(r.Context(), field, value))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	list := types.ListName(r.PathValue("list"))
	if !list.Valid() {
		s.failure(w, &ErrNotFound{What: "list " + string(list)})
		return
	}

	id, st := s.session.AddItem(r.Context(), list)
	s.jsonResponse(w, http.StatusCreated, addItemResponse{ID: id, State: st})
}

func (s *Server) handleSetItemField(w http.ResponseWriter, r *http.Request) {
	list := types.ListName(r.PathValue("list"))
	id, field := r.PathValue("id"), r.PathValue("field")
	if err := s.checkItem(list, id); err != nil {
		s.failure(w, err)
		return
	}
	if !slices.Contains(itemFields[list], field) {
		s.failure(w, &ErrNotFound{What: "field " + field})
		return
	}

	var req valueRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.failure(w, err)
		return
	}
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		s.failure(w, &ErrValidation{Field: "value", Message: err.Error()})
		return
	}

	s.jsonResponse(w, http.StatusOK, s.session.SetItemField(r.Context(), list, id, field, value))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	list := types.ListName(r.PathValue("list"))
	id := r.PathValue("id")
	if err := s.checkItem(list, id); err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.session.RemoveItem(r.Context(), list, id))
}

// checkItem reports ErrNotFound unless list exists and holds an item with id.
func (s *Server) checkItem(list types.ListName, id string) error {
	if !list.Valid() {
		return &ErrNotFound{What: "list " + string(list)}
	}
	doc := s.session.Document()
	var found bool
	switch list {
	case types.ListSkills:
		found = slices.ContainsFunc(doc.Skills, func(v types.Skill) bool { return v.ID == id })
	case types.ListExperiences:
		found = slices.ContainsFunc(doc.Experiences, func(v types.Experience) bool { return v.ID == id })
	case types.ListEducation:
		found = slices.ContainsFunc(doc.Education, func(v types.Education) bool { return v.ID == id })
	}
	if !found {
		return &ErrNotFound{What: "item " + id}
	}
	return nil
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.session.Undo(r.Context()))
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.session.Redo(r.Context()))
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.session.New(r.Context()))
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	names, err := s.session.Names(r.Context())
	if err != nil {
		s.log.Error("failed to list documents", "error", err)
		s.failure(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.jsonResponse(w, http.StatusOK, documentsResponse{Names: names, Active: s.session.State().ActiveName})
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.failure(w, err)
		return
	}
	st, err := s.session.Save(r.Context(), req.Name)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Load(r.Context(), r.PathValue("name"))
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	st, err := s.session.Delete(r.Context(), r.PathValue("name"))
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.failure(w, &ErrValidation{Message: "could not read body: " + err.Error()})
		return
	}
	st, err := s.session.Import(r.Context(), payload)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.failure(w, err)
		return
	}
	artifact, err := s.session.Export(r.Context(), format, r.URL.Query().Get("file_name"))
	if err != nil {
		s.failure(w, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		s.log.Warn("failed to write export", "file", artifact.FileName, "error", err)
	}
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.failure(w, err)
		return
	}
	st, err := s.session.Enhance(r.Context(), req.ItemID)
	if err != nil {
		s.failure(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, st)
}

func (s *Server) handlePreview(w http.ResponseWriter, _ *http.Request) {
	page, err := rendering.RenderHTML(s.session.Document())
	if err != nil {
		s.log.Error("preview rendering failed", "error", err)
		s.failure(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	advisories := validation.Check(s.session.Document())
	if advisories == nil {
		advisories = []validation.Advisory{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"advisories": advisories})
}

func (s *Server) handleNotices(w http.ResponseWriter, _ *http.Request) {
	notices := s.session.Notices()
	if notices == nil {
		notices = []editor.Notice{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"notices": notices})
}

func (s *Server) handleListCommands(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{"commands": editor.Commands()})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var args editor.CommandArgs
	if err := decodeJSON(r, &args, true); err != nil {
		s.failure(w, err)
		return
	}
	res, err := s.session.Dispatch(r.Context(), editor.Command(r.PathValue("name")), args)
	s.commandResult(w, res, err)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.failure(w, err)
		return
	}
	combo, err := editor.ParseKeyCombo(req.Combo)
	if err != nil {
		s.failure(w, &ErrValidation{Field: "combo", Message: err.Error()})
		return
	}
	res, err := s.session.HandleKey(r.Context(), combo, req.CommandArgs)
	s.commandResult(w, res, err)
}

func (s *Server) commandResult(w http.ResponseWriter, res editor.Result, err error) {
	if err != nil {
		s.failure(w, err)
		return
	}
	resp := commandResponse{State: res.State}
	if a := res.Artifact; a != nil {
		resp.Artifact = &artifactResponse{
			FileName:    a.FileName,
			ContentType: a.ContentType,
			Size:        len(a.Data),
			Data:        a.Data,
		}
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// failure writes err with the status HTTPStatus maps it to.
func (s *Server) failure(w http.ResponseWriter, err error) {
	var rateLimited *llm.RateLimitError
	if errors.As(err, &rateLimited) && rateLimited.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rateLimited.RetryAfter.Seconds()))))
	}
	s.errorResponse(w, HTTPStatus(err), err.Error())
}

// decodeJSON decodes and validates a request body. When optional is set an
// empty body leaves dst at its zero value.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return &ErrValidation{Message: "invalid JSON body: " + err.Error()}
	}

	if err := requestValidator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ErrValidation{Field: verrs[0].Field(), Message: "failed " + verrs[0].Tag() + " check"}
		}
		return &ErrValidation{Message: err.Error()}
	}
	return nil
}
