package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/obralex/obralex/internal/dataset"
	"github.com/obralex/obralex/internal/export"
	"github.com/obralex/obralex/internal/rules"
	"github.com/obralex/obralex/internal/search"
	"github.com/obralex/obralex/internal/store"
	"github.com/obralex/obralex/internal/types"
	"github.com/obralex/obralex/internal/validation"
	"github.com/oklog/ulid/v2"
)

// Handler implements the API handlers. The dataset and its indexes are
// injected once at startup and treated as immutable.
type Handler struct {
	store     store.Store
	ds        *dataset.Dataset
	reqIndex  *dataset.RequirementIndex
	searchIdx *search.Index
	apiKey    string
	version   string
}

// NewHandler creates a new Handler.
func NewHandler(s store.Store, ds *dataset.Dataset, apiKey, version string) *Handler {
	return &Handler{
		store:     s,
		ds:        ds,
		reqIndex:  dataset.NewRequirementIndex(ds.Legal),
		searchIdx: search.NewIndex(ds.Legal),
		apiKey:    apiKey,
		version:   version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	DatasetName    string `json:"dataset_name"`
	DatasetVersion string `json:"dataset_version"`
	ProjectCount   int64  `json:"project_count"`
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		Version:        h.version,
		DatasetName:    h.ds.Legal.Name,
		DatasetVersion: h.ds.Legal.Version,
		ProjectCount:   stats.ProjectCount,
	})
}

// DatasetInfo handles GET /api/v1/dataset
func (h *Handler) DatasetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                h.ds.Legal.ID,
		"nombre":            h.ds.Legal.Name,
		"version":           h.ds.Legal.Version,
		"fuente_url":        h.ds.Legal.SourceURL,
		"fecha_vigencia":    h.ds.Legal.EffectiveDate,
		"question_count":    len(h.ds.Rules.Wizard.Questions),
		"modality_count":    len(h.ds.Rules.Modalities),
		"stage_templates":   len(h.ds.Rules.StageTemplates),
		"requirement_count": h.reqIndex.Len(),
	})
}

// Sections handles GET /api/v1/dataset/sections
func (h *Handler) Sections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ds.Legal.Structure)
}

// RequirementByID handles GET /api/v1/dataset/requirements/{id}
func (h *Handler) RequirementByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	req, ok := h.reqIndex.Requirement(id)
	if !ok {
		WriteProblem(w, r, http.StatusNotFound, fmt.Sprintf("Requirement %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// Search handles GET /api/v1/search?q=&kind=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = search.KindAll
	}
	results := h.searchIdx.Search(q, kind)
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// WizardResolveRequest carries the wizard answers.
type WizardResolveRequest struct {
	Answers dataset.AnswerSet `json:"answers"`
}

// WizardResolveResponse reports the resolved modality.
type WizardResolveResponse struct {
	Modality         string `json:"modality"`
	Name             string `json:"nombre"`
	Description      string `json:"descripcion,omitempty"`
	RequirementCount int    `json:"requirement_count"`
}

// WizardResolve handles POST /api/v1/wizard/resolve
func (h *Handler) WizardResolve(w http.ResponseWriter, r *http.Request) {
	var req WizardResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	_, resp, err := h.resolveModality(req.Answers)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveModality normalizes answers, runs the decision table and joins
// the result with its modality definition.
func (h *Handler) resolveModality(answers dataset.AnswerSet) (string, *WizardResolveResponse, error) {
	normalized, err := dataset.NormalizeAnswers(h.ds.Rules, answers)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s", rules.ErrUndetermined, err.Error())
	}
	modalityID, err := rules.Resolve(h.ds.Rules, normalized)
	if err != nil {
		return "", nil, err
	}
	mod, ok := h.ds.Rules.Modality(modalityID)
	if !ok {
		return "", nil, &rules.ErrUnknownModality{ModalityID: modalityID}
	}

	// Applicable ids are a set; duplicates in the document collapse.
	uniq := make(map[string]struct{}, len(mod.RequirementIDs))
	for _, id := range mod.RequirementIDs {
		uniq[id] = struct{}{}
	}
	return modalityID, &WizardResolveResponse{
		Modality:         mod.ID,
		Name:             mod.Name,
		Description:      mod.Description,
		RequirementCount: len(uniq),
	}, nil
}

// ProjectCardRequest is the mutable metadata card of a project.
type ProjectCardRequest struct {
	Name       string  `json:"nombre"`
	Location   string  `json:"ubicacion"`
	District   string  `json:"distrito"`
	Province   string  `json:"provincia"`
	Department string  `json:"departamento"`
	Typology   string  `json:"tipologia"`
	AreaM2     float64 `json:"metrado_m2"`
	Floors     int     `json:"pisos"`
	DateStart  string  `json:"fecha_inicio"`
	DateTarget string  `json:"fecha_objetivo"`
}

func (req *ProjectCardRequest) validate() []validation.ValidationError {
	var c validation.Collector
	c.Add(validation.ValidateRequired("nombre", req.Name))
	c.Add(validation.ValidateMaxLength("nombre", req.Name, 200))
	c.Add(validation.ValidateNonNegative("metrado_m2", req.AreaM2))
	c.Add(validation.ValidateNonNegative("pisos", float64(req.Floors)))
	return c.Errors()
}

// CreateProject handles POST /api/v1/projects. The project starts with
// zero stages; the checklist appears after generate.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	now := time.Now().UTC()
	p := &types.Project{
		ID:         ulid.Make().String(),
		Name:       req.Name,
		Location:   req.Location,
		District:   req.District,
		Province:   req.Province,
		Department: req.Department,
		Typology:   req.Typology,
		AreaM2:     req.AreaM2,
		Floors:     req.Floors,
		Dates:      types.ProjectDates{Start: req.DateStart, Target: req.DateTarget},
		Stages:     []types.Stage{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.Dates.Start == "" {
		p.Dates.Start = now.Format("2006-01-02")
	}
	p.Log(types.ActionCreate, "Proyecto creado")

	if err := h.store.CreateProject(r.Context(), p); err != nil {
		slog.Error("create project failed", "error", err)
		MapDomainError(w, r, err)
		return
	}
	if err := h.store.SetActiveProject(r.Context(), p.ID); err != nil {
		slog.Error("set active project failed", "error", err, "project_id", p.ID)
	}

	writeJSON(w, http.StatusCreated, p)
}

// listedProject is one row of the project listing: the project plus its
// active flag and overall progress. Project has its own MarshalJSON, so
// embedding it would drop the extra keys; the fields are merged by hand.
type listedProject struct {
	Project  types.Project
	Active   bool
	Progress int
}

func (l listedProject) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(l.Project)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	m["active"] = l.Active
	m["progress"] = l.Progress
	return json.Marshal(m)
}

// ListProjects handles GET /api/v1/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.store.ListProjects(r.Context())
	if err != nil {
		slog.Error("list projects failed", "error", err)
		MapDomainError(w, r, err)
		return
	}
	if projects == nil {
		projects = []types.Project{}
	}

	activeID, err := h.store.ActiveProjectID(r.Context())
	if err != nil {
		slog.Error("active project lookup failed", "error", err)
	}

	out := make([]listedProject, len(projects))
	for i := range projects {
		out[i] = listedProject{
			Project:  projects[i],
			Active:   projects[i].ID == activeID,
			Progress: rules.ProjectProgress(&projects[i]),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": out})
}

// GetProject handles GET /api/v1/projects/{id}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateProject handles PUT /api/v1/projects/{id}; only the metadata
// card changes, never stages or modality.
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := req.validate(); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	p.Name = req.Name
	p.Location = req.Location
	p.District = req.District
	p.Province = req.Province
	p.Department = req.Department
	p.Typology = req.Typology
	p.AreaM2 = req.AreaM2
	p.Floors = req.Floors
	if req.DateStart != "" {
		p.Dates.Start = req.DateStart
	}
	p.Dates.Target = req.DateTarget
	p.Log(types.ActionEdit, "Ficha actualizada")

	if err := h.store.SaveProject(r.Context(), p); err != nil {
		slog.Error("save project failed", "error", err, "project_id", p.ID)
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ActivateProject handles POST /api/v1/projects/{id}/activate
func (h *Handler) ActivateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.SetActiveProject(r.Context(), id); err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active_project_id": id})
}

// ActiveProject handles GET /api/v1/projects/active
func (h *Handler) ActiveProject(w http.ResponseWriter, r *http.Request) {
	id, err := h.store.ActiveProjectID(r.Context())
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	if id == "" {
		WriteProblem(w, r, http.StatusNotFound, "No active project")
		return
	}
	p, err := h.store.GetProject(r.Context(), id)
	if err != nil {
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GenerateRequest triggers checklist generation, either from wizard
// answers or from an already-resolved modality id.
type GenerateRequest struct {
	Answers  dataset.AnswerSet `json:"answers,omitempty"`
	Modality string            `json:"modality,omitempty"`
}

// GenerateChecklist handles POST /api/v1/projects/{id}/generate
func (h *Handler) GenerateChecklist(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	modalityID := req.Modality
	if modalityID == "" {
		modalityID, _, err = h.resolveModality(req.Answers)
		if err != nil {
			MapDomainError(w, r, err)
			return
		}
	}

	stages, err := rules.Generate(h.ds.Rules, modalityID, time.Now().UTC())
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	p.Modality = modalityID
	p.Stages = stages
	p.Log(types.ActionChecklist, fmt.Sprintf("Checklist generado (modalidad %s)", modalityID))

	if err := h.store.SaveProject(r.Context(), p); err != nil {
		slog.Error("save project failed", "error", err, "project_id", p.ID)
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ItemUpdateRequest mutates one checklist item. Nil fields are left
// untouched.
type ItemUpdateRequest struct {
	State  *types.ItemState `json:"estado,omitempty"`
	Values map[string]any   `json:"valores,omitempty"`
	Notes  *string          `json:"notas,omitempty"`
}

// UpdateItem handles PUT /api/v1/projects/{id}/stages/{stageID}/items/{reqID}
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if req.State != nil && !types.ValidItemState(*req.State) {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", []validation.ValidationError{
			{Field: "estado", Message: fmt.Sprintf("unknown item state %q", *req.State)},
		})
		return
	}

	p, _, item, ok := h.lookupItem(w, r)
	if !ok {
		return
	}

	if req.State != nil {
		item.State = *req.State
	}
	if req.Values != nil {
		if item.Values == nil {
			item.Values = map[string]any{}
		}
		for k, v := range req.Values {
			item.Values[k] = v
		}
	}
	if req.Notes != nil {
		item.Notes = *req.Notes
	}
	item.UpdatedAt = time.Now().UTC()

	if err := h.store.SaveProject(r.Context(), p); err != nil {
		slog.Error("save project failed", "error", err, "project_id", p.ID)
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// EvidenceRequest attaches one encoded file to a checklist item.
type EvidenceRequest struct {
	Name      string `json:"name"`
	MediaType string `json:"type"`
	Data      string `json:"data"`
}

// AttachEvidence handles POST .../items/{reqID}/evidence. The payload
// arrives already read (base64 or data-URI); the append to the item's
// evidence list is a single synchronous mutation.
func (h *Handler) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	var req EvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}

	var c validation.Collector
	c.Add(validation.ValidateRequired("name", req.Name))
	c.Add(validation.ValidateRequired("data", req.Data))
	if c.HasErrors() {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", c.Errors())
		return
	}

	ev, err := EncodeEvidence(req.Name, req.MediaType, req.Data)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}

	p, _, item, ok := h.lookupItem(w, r)
	if !ok {
		return
	}

	item.Evidence = append(item.Evidence, ev)
	item.UpdatedAt = time.Now().UTC()

	if err := h.store.SaveProject(r.Context(), p); err != nil {
		slog.Error("save project failed", "error", err, "project_id", p.ID)
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// RemoveEvidence handles DELETE .../evidence/{evidenceID}
func (h *Handler) RemoveEvidence(w http.ResponseWriter, r *http.Request) {
	evidenceID := chi.URLParam(r, "evidenceID")

	p, _, item, ok := h.lookupItem(w, r)
	if !ok {
		return
	}

	kept := item.Evidence[:0]
	removed := false
	for _, ev := range item.Evidence {
		if ev.ID == evidenceID {
			removed = true
			continue
		}
		kept = append(kept, ev)
	}
	if !removed {
		WriteProblem(w, r, http.StatusNotFound, fmt.Sprintf("Evidence %q not found", evidenceID))
		return
	}
	item.Evidence = kept
	item.UpdatedAt = time.Now().UTC()

	if err := h.store.SaveProject(r.Context(), p); err != nil {
		slog.Error("save project failed", "error", err, "project_id", p.ID)
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// CommitChecklist handles POST /api/v1/projects/{id}/commit. Stage
// statuses are derived here, not on every item edit.
func (h *Handler) CommitChecklist(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	rules.CommitStageStatus(p)
	p.Log(types.ActionChecklist, "Checklist guardado")

	if err := h.store.SaveProject(r.Context(), p); err != nil {
		slog.Error("save project failed", "error", err, "project_id", p.ID)
		MapDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// StageProgressEntry pairs a stage with its progress numbers.
type StageProgressEntry struct {
	ID       string           `json:"id"`
	Name     string           `json:"nombre"`
	State    types.StageState `json:"estado"`
	Progress rules.Progress   `json:"progress"`
}

// ProjectProgress handles GET /api/v1/projects/{id}/progress
func (h *Handler) ProjectProgress(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	stages := make([]StageProgressEntry, len(p.Stages))
	for i := range p.Stages {
		stages[i] = StageProgressEntry{
			ID:       p.Stages[i].ID,
			Name:     p.Stages[i].Name,
			State:    p.Stages[i].State,
			Progress: rules.StageProgress(&p.Stages[i]),
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pct":    rules.ProjectProgress(p),
		"stages": stages,
	})
}

// ExportProject handles GET /api/v1/projects/{id}/export
func (h *Handler) ExportProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	data, err := export.ProjectJSON(p)
	if err != nil {
		slog.Error("export failed", "error", err, "project_id", p.ID)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "proyecto_"+p.ID+".json"))
	w.Write(data)
}

// ImportProject handles POST /api/v1/projects/import. A record without
// an id is rejected; nothing is mutated on failure.
func (h *Handler) ImportProject(w http.ResponseWriter, r *http.Request) {
	var p types.Project
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if p.ID == "" {
		WriteProblemWithErrors(w, r, "Imported record is missing identity", []validation.ValidationError{
			{Field: "id", Message: "is required"},
		})
		return
	}

	created, err := h.store.UpsertProject(r.Context(), &p)
	if err != nil {
		slog.Error("import failed", "error", err, "project_id", p.ID)
		MapDomainError(w, r, err)
		return
	}
	if err := h.store.SetActiveProject(r.Context(), p.ID); err != nil {
		slog.Error("set active project failed", "error", err, "project_id", p.ID)
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"id": p.ID, "created": created})
}

// Dossier handles GET /api/v1/projects/{id}/dossier
func (h *Handler) Dossier(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return
	}

	html, err := export.Dossier(p, h.reqIndex)
	if err != nil {
		slog.Error("dossier render failed", "error", err, "project_id", p.ID)
		WriteProblem(w, r, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// lookupItem loads the project and locates the addressed checklist item,
// writing a 404 problem when any hop is missing.
func (h *Handler) lookupItem(w http.ResponseWriter, r *http.Request) (*types.Project, *types.Stage, *types.ChecklistItem, bool) {
	p, err := h.store.GetProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		MapDomainError(w, r, err)
		return nil, nil, nil, false
	}

	stageID := chi.URLParam(r, "stageID")
	stage := p.Stage(stageID)
	if stage == nil {
		WriteProblem(w, r, http.StatusNotFound, fmt.Sprintf("Stage %q not found", stageID))
		return nil, nil, nil, false
	}

	reqID := chi.URLParam(r, "reqID")
	item := stage.Item(reqID)
	if item == nil {
		WriteProblem(w, r, http.StatusNotFound, fmt.Sprintf("Checklist item %q not found", reqID))
		return nil, nil, nil, false
	}
	return p, stage, item, true
}
