package models

import (
	"time"
)

type JobStatus string

const (
	StatusUnderstanding JobStatus = "understanding"
	StatusPlanning      JobStatus = "planning"
	StatusGenerating    JobStatus = "generating"
	StatusFinalizing    JobStatus = "finalizing"
	StatusCompleted     JobStatus = "completed"
	StatusError         JobStatus = "error"
)

// Ordre linéaire des phases ; error est atteignable depuis toute phase non terminale
var statusRank = map[JobStatus]int{
	StatusUnderstanding: 0,
	StatusPlanning:      1,
	StatusGenerating:    2,
	StatusFinalizing:    3,
	StatusCompleted:     4,
}

// IsTerminal retourne true si le statut est un état final
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Precedes indique si next peut suivre s dans la séquence des phases.
func (s JobStatus) Precedes(next JobStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusError {
		return true
	}
	cur, ok := statusRank[s]
	if !ok {
		return false
	}
	n, ok := statusRank[next]
	return ok && n >= cur
}

// Rank retourne la position de la phase, -1 pour error ou un statut inconnu
func (s JobStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Tâches reconnues par l'orchestrateur
const (
	TaskCreate = "create"
	TaskEdit   = "edit"
	TaskChat   = "chat"
)

// PhaseContent garde la sortie brute du LLM pour chaque phase (diagnostic)
type PhaseContent struct {
	Understanding string   `json:"understanding,omitempty"`
	Planning      string   `json:"planning,omitempty"`
	Generating    []string `json:"generating,omitempty"`
	Finalizing    string   `json:"finalizing,omitempty"`
}

// IsEmpty retourne true si aucune phase n'a encore produit de contenu
func (p *PhaseContent) IsEmpty() bool {
	return p == nil || (p.Understanding == "" && p.Planning == "" && len(p.Generating) == 0 && p.Finalizing == "")
}

func (p *PhaseContent) clone() *PhaseContent {
	if p == nil {
		return nil
	}
	c := *p
	if p.Generating != nil {
		c.Generating = append([]string(nil), p.Generating...)
	}
	return &c
}

// GenerationJob est l'état d'une génération suivi par le store en mémoire
type GenerationJob struct {
	ID           string        `json:"id"`
	Status       JobStatus     `json:"status"`
	Progress     int           `json:"progress"`
	Message      string        `json:"message"`
	Result       *string       `json:"result,omitempty"`
	Error        *string       `json:"error,omitempty"`
	PhaseContent *PhaseContent `json:"phaseContent,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// NewGenerationJob crée un job à l'état initial
func NewGenerationJob(id string) *GenerationJob {
	now := time.Now()
	return &GenerationJob{
		ID:        id,
		Status:    StatusUnderstanding,
		Progress:  0,
		Message:   "Request received",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsTerminal retourne true si le job est dans un état final
func (j *GenerationJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Clone retourne une copie profonde, les lecteurs ne partagent jamais l'état du store
func (j *GenerationJob) Clone() *GenerationJob {
	c := *j
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	if j.Error != nil {
		e := *j.Error
		c.Error = &e
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	c.PhaseContent = j.PhaseContent.clone()
	return &c
}

// SetPhase passe à une nouvelle phase ; la progression ne recule jamais
func (j *GenerationJob) SetPhase(status JobStatus, progress int, message string) {
	j.Status = status
	j.SetProgress(progress)
	j.Message = message
}

// SetProgress borne la progression à [0,100] sans jamais la faire reculer
func (j *GenerationJob) SetProgress(progress int) {
	if progress > 100 {
		progress = 100
	}
	if progress > j.Progress {
		j.Progress = progress
	}
}

// Complete marque le job comme terminé avec son résultat
func (j *GenerationJob) Complete(result, message string) {
	j.Status = StatusCompleted
	j.Progress = 100
	j.Message = message
	j.Result = &result
	j.Error = nil
	j.markDone()
}

// Fail marque le job en erreur ; la progression reste la dernière écrite
func (j *GenerationJob) Fail(errMsg, message string) {
	j.Status = StatusError
	j.Message = message
	j.Error = &errMsg
	j.Result = nil
	j.markDone()
}

// Phases retourne le contenu de phase, en l'initialisant si besoin
func (j *GenerationJob) Phases() *PhaseContent {
	if j.PhaseContent == nil {
		j.PhaseContent = &PhaseContent{}
	}
	return j.PhaseContent
}

func (j *GenerationJob) markDone() {
	now := time.Now()
	j.UpdatedAt = now
	if j.CompletedAt == nil {
		j.CompletedAt = &now
	}
}

// GenerationRequest est le corps de POST /generate
type GenerationRequest struct {
	UserPrompt      string `json:"userPrompt"`
	SlideContext    string `json:"slideContext,omitempty"`
	UserPersona     string `json:"userPersona,omitempty"`
	SlideGoal       string `json:"slideGoal,omitempty"`
	SlideConstraint string `json:"slideConstraint,omitempty"`
	Task            string `json:"task,omitempty"`
	GenerationID    string `json:"generationId,omitempty"`
}

// NeedsUnderstanding indique si la phase d'extraction des paramètres doit tourner
func (r *GenerationRequest) NeedsUnderstanding() bool {
	return r.UserPersona == "" || r.SlideGoal == "" || r.SlideConstraint == ""
}

// GenerationAccepted est la réponse immédiate de POST /generate
type GenerationAccepted struct {
	GenerationID string `json:"generationId"`
}
