package wizard

import (
	"net/http"
	"time"

	"github.com/elmerescandon/financy-v2-sub000/internal/apperr"
	"github.com/elmerescandon/financy-v2-sub000/internal/rest"
	"github.com/elmerescandon/financy-v2-sub000/internal/utils"
	"github.com/elmerescandon/financy-v2-sub000/pkg/budget"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type SummaryDTO struct {
	From            string          `json:"from"`
	To              string          `json:"to"`
	LookbackMonths  int             `json:"lookbackMonths"`
	MonthlyIncome   decimal.Decimal `json:"monthlyIncome"`
	MonthlyExpenses decimal.Decimal `json:"monthlyExpenses"`
	Available       decimal.Decimal `json:"available"`
	SavingsRate     decimal.Decimal `json:"savingsRate"`
}

type InsightDTO struct {
	CategoryId      int             `json:"categoryId"`
	CategoryName    string          `json:"categoryName"`
	MonthlyAverage  decimal.Decimal `json:"monthlyAverage"`
	Share           decimal.Decimal `json:"share"`
	ExpenseCount    int             `json:"expenseCount"`
	SuggestedAmount decimal.Decimal `json:"suggestedAmount"`
}

type AllocationDTO struct {
	CategoryId   int             `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Amount       decimal.Decimal `json:"amount"`
	Percentage   decimal.Decimal `json:"percentage"`
	Priority     budget.Priority `json:"priority"`
	Selected     bool            `json:"selected"`
}

type TotalsDTO struct {
	Available       decimal.Decimal `json:"available"`
	TotalAllocated  decimal.Decimal `json:"totalAllocated"`
	TotalPercentage decimal.Decimal `json:"totalPercentage"`
	Unallocated     decimal.Decimal `json:"unallocated"`
	OverAllocated   bool            `json:"overAllocated"`
}

type ExistingBudgetDTO struct {
	Id          int             `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	PeriodStart string          `json:"periodStart"`
	PeriodEnd   string          `json:"periodEnd"`
}

type ConflictDTO struct {
	CategoryId   int                 `json:"categoryId"`
	CategoryName string              `json:"categoryName"`
	Existing     []ExistingBudgetDTO `json:"existing"`
	Resolution   Resolution          `json:"resolution"`
}

type PartitionDTO struct {
	Created []int `json:"created"`
	Kept    []int `json:"kept"`
	Skipped []int `json:"skipped"`
}

type ResultDTO struct {
	Created  []CreatedBudgetDTO `json:"created"`
	Kept     []int              `json:"kept"`
	Skipped  []int              `json:"skipped"`
	Failures []FailureDTO       `json:"failures"`
}

type CreatedBudgetDTO struct {
	CategoryId       int   `json:"categoryId"`
	BudgetId         int   `json:"budgetId"`
	Replaced         []int `json:"replaced"`
	AssignedExpenses int   `json:"assignedExpenses"`
}

type FailureDTO struct {
	CategoryId   int          `json:"categoryId"`
	CategoryName string       `json:"categoryName"`
	Stage        FailureStage `json:"stage"`
	Message      string       `json:"message"`
}

type SessionDTO struct {
	Id               string          `json:"id"`
	Step             Step            `json:"step"`
	StepIndex        int             `json:"stepIndex"`
	PeriodStart      string          `json:"periodStart"`
	PeriodEnd        string          `json:"periodEnd"`
	Summary          SummaryDTO      `json:"summary"`
	Insights         []InsightDTO    `json:"insights"`
	Allocations      []AllocationDTO `json:"allocations"`
	Totals           TotalsDTO       `json:"totals"`
	Conflicts        []ConflictDTO   `json:"conflicts"`
	ConflictsSkipped bool            `json:"conflictsSkipped"`
	Partition        *PartitionDTO   `json:"partition,omitempty"`
	Result           *ResultDTO      `json:"result,omitempty"`
	ExpiresAt        time.Time       `json:"expiresAt"`
}

type PeriodDTO struct {
	PeriodStart string `json:"periodStart"`
	PeriodEnd   string `json:"periodEnd"`
}

type AllocationChangeDTO struct {
	Amount     *decimal.Decimal `json:"amount"`
	Percentage *decimal.Decimal `json:"percentage"`
	Priority   *budget.Priority `json:"priority"`
	Selected   *bool            `json:"selected"`
}

type ResolutionDTO struct {
	Resolution string `json:"resolution"`
}

type ConfirmDTO struct {
	AssignExisting bool `json:"assignExisting"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Start godoc
// @Summary Start the budget wizard
// @Description Summarizes the last full months and proposes an allocation per category
// @Tags Wizard
// @Produce json
// @Success 201 {object} SessionDTO
// @Router /api/wizard [post]
// @Security BearerAuth
func (h *Handler) Start(r *http.Request) (int, any, error) {
	log.Debug("Starting budget wizard")
	session, err := h.service.Start(r.Context())
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, sessionToDTO(session), nil
}

func (h *Handler) Get(r *http.Request) (int, any, error) {
	id, err := sessionId(r)
	if err != nil {
		return 0, nil, err
	}
	return respond(h.service.Get(r.Context(), id))
}

// Next godoc
// @Summary Advance the wizard
// @Description Leaving the allocation step skips conflict resolution when no existing budget overlaps
// @Tags Wizard
// @Produce json
// @Param id path string true "Session id"
// @Success 200 {object} SessionDTO
// @Failure 409 {object} rest.ErrorResponse "Not allowed in the current step"
// @Router /api/wizard/{id}/next [post]
// @Security BearerAuth
func (h *Handler) Next(r *http.Request) (int, any, error) {
	id, err := sessionId(r)
	if err != nil {
		return 0, nil, err
	}
	return respond(h.service.Next(r.Context(), id))
}

func (h *Handler) Back(r *http.Request) (int, any, error) {
	id, err := sessionId(r)
	if err != nil {
		return 0, nil, err
	}
	return respond(h.service.Back(r.Context(), id))
}

func (h *Handler) SetPeriod(r *http.Request) (int, any, error) {
	id, err := sessionId(r)
	if err != nil {
		return 0, nil, err
	}
	var dto PeriodDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		return 0, nil, err
	}
	fields := make(map[string]string)
	start, err := utils.ParseDate(dto.PeriodStart)
	if err != nil {
		fields["periodStart"] = "must be a date in YYYY-MM-DD format"
	}
	end, err := utils.ParseDate(dto.PeriodEnd)
	if err != nil {
		fields["periodEnd"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) > 0 {
		return 0, nil, apperr.Validation("Invalid period", fields)
	}
	return respond(h.service.SetPeriod(r.Context(), id, start, end))
}

func (h *Handler) SetAllocation(r *http.Request) (int, any, error) {
	id, err := sessionId(r)
	if err != nil {
		return 0, nil, err
	}
	categoryId, err := rest.PathId(r, "categoryId")
	if err != nil {
		return 0, nil, err
	}
	var dto AllocationChangeDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		return 0, nil, err
	}
	return respond(h.service.SetAllocation(r.Context(), id, categoryId, AllocationChange{
		Amount:     dto.Amount,
		Percentage: dto.Percentage,
		Priority:   dto.Priority,
		Selected:   dto.Selected,
	}))
}

func (h *Handler) SetResolution(r *http.Request) (int, any, error) {
	id, err := sessionId(r)
	if err != nil {
		return 0, nil, err
	}
	categoryId, err := rest.PathId(r, "categoryId")
	if err != nil {
		return 0, nil, err
	}
	var dto ResolutionDTO
	if err := rest.DecodeJSON(r, &dto); err != nil {
		return 0, nil, err
	}
	resolution, ok := ParseResolution(dto.Resolution)
	if !ok {
		return 0, nil, apperr.Validation("Invalid resolution", map[string]string{"resolution": "must be replace, keep or skip"})
	}
	return respond(h.service.SetResolution(r.Context(), id, categoryId, resolution))
}

// Confirm godoc
// @Summary Create the wizard's budgets
// @Description Failures are reported per category; budgets created before a failure are kept
// @Tags Wizard
// @Accept json
// @Produce json
// @Param id path string true "Session id"
// @Param confirm body ConfirmDTO false "Options"
// @Success 200 {object} SessionDTO
// @Router /api/wizard/{id}/confirm [post]
// @Security BearerAuth
func (h *Handler) Confirm(r *http.Request) (int, any, error) {
	id, err := sessionId(r)
	if err != nil {
		return 0, nil, err
	}
	var dto ConfirmDTO
	if r.ContentLength != 0 {
		if err := rest.DecodeJSON(r, &dto); err != nil {
			return 0, nil, err
		}
	}
	return respond(h.service.Confirm(r.Context(), id, dto.AssignExisting))
}

func (h *Handler) Discard(r *http.Request) (int, any, error) {
	id, err := sessionId(r)
	if err != nil {
		return 0, nil, err
	}
	if err := h.service.Discard(r.Context(), id); err != nil {
		return 0, nil, err
	}
	return http.StatusNoContent, nil, nil
}

func respond(session Session, err error) (int, any, error) {
	if err != nil {
		return 0, nil, err
	}
	return http.StatusOK, sessionToDTO(session), nil
}

func sessionId(r *http.Request) (string, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return "", apperr.NotFound("Wizard session not found", ErrSessionNotFound)
	}
	return id.String(), nil
}

func sessionToDTO(s Session) SessionDTO {
	dto := SessionDTO{
		Id:          s.Id,
		Step:        s.Step,
		StepIndex:   s.Step.Index(),
		PeriodStart: s.PeriodStart.Format(time.DateOnly),
		PeriodEnd:   s.PeriodEnd.Format(time.DateOnly),
		Summary: SummaryDTO{
			From:            s.Summary.From.Format(time.DateOnly),
			To:              s.Summary.To.Format(time.DateOnly),
			LookbackMonths:  s.Summary.LookbackMonths,
			MonthlyIncome:   s.Summary.MonthlyIncome,
			MonthlyExpenses: s.Summary.MonthlyExpenses,
			Available:       s.Summary.Available,
			SavingsRate:     s.Summary.SavingsRate,
		},
		Insights:         make([]InsightDTO, 0, len(s.Insights)),
		Allocations:      make([]AllocationDTO, 0, len(s.Allocations)),
		Conflicts:        make([]ConflictDTO, 0, len(s.Conflicts)),
		ConflictsSkipped: s.ConflictsSkipped,
		ExpiresAt:        s.ExpiresAt,
	}
	for _, i := range s.Insights {
		dto.Insights = append(dto.Insights, InsightDTO(i))
	}
	for _, a := range s.Allocations {
		dto.Allocations = append(dto.Allocations, AllocationDTO(a))
	}
	totals := s.Totals()
	dto.Totals = TotalsDTO(totals)
	for _, c := range s.Conflicts {
		existing := make([]ExistingBudgetDTO, 0, len(c.Existing))
		for _, b := range c.Existing {
			existing = append(existing, ExistingBudgetDTO{
				Id:          b.Id,
				Amount:      b.Amount,
				PeriodStart: b.PeriodStart.Format(time.DateOnly),
				PeriodEnd:   b.PeriodEnd.Format(time.DateOnly),
			})
		}
		dto.Conflicts = append(dto.Conflicts, ConflictDTO{
			CategoryId:   c.CategoryId,
			CategoryName: c.CategoryName,
			Existing:     existing,
			Resolution:   c.Resolution,
		})
	}
	if s.Step == StepConfirmation {
		p := s.Partition()
		partitionDTO := PartitionDTO{Created: []int{}, Kept: []int{}, Skipped: []int{}}
		for _, planned := range p.Created {
			partitionDTO.Created = append(partitionDTO.Created, planned.Allocation.CategoryId)
		}
		for _, a := range p.Kept {
			partitionDTO.Kept = append(partitionDTO.Kept, a.CategoryId)
		}
		for _, a := range p.Skipped {
			partitionDTO.Skipped = append(partitionDTO.Skipped, a.CategoryId)
		}
		dto.Partition = &partitionDTO
	}
	if s.Result != nil {
		result := ResultDTO{Kept: s.Result.Kept, Skipped: s.Result.Skipped, Created: []CreatedBudgetDTO{}, Failures: []FailureDTO{}}
		for _, c := range s.Result.Created {
			result.Created = append(result.Created, CreatedBudgetDTO(c))
		}
		for _, f := range s.Result.Failures {
			result.Failures = append(result.Failures, FailureDTO(f))
		}
		dto.Result = &result
	}
	return dto
}
