package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Self service
	GetMyEntries(w http.ResponseWriter, r *http.Request)
	GetPayslip(w http.ResponseWriter, r *http.Request)

	// Administration
	ListCompanyPayroll(w http.ResponseWriter, r *http.Request)
	AddRate(w http.ResponseWriter, r *http.Request)
	ListRates(w http.ResponseWriter, r *http.Request)
	GetSchedule(w http.ResponseWriter, r *http.Request)
	UpdateSchedule(w http.ResponseWriter, r *http.Request)

	// Runs
	CreateRun(w http.ResponseWriter, r *http.Request)
	Calculate(w http.ResponseWriter, r *http.Request)
	Finalize(w http.ResponseWriter, r *http.Request)
	ListRuns(w http.ResponseWriter, r *http.Request)
	GetRun(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

func requesterFromRequest(r *http.Request) (payroll.Requester, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return payroll.Requester{}, false
	}
	return payroll.Requester{UserID: claims.UserID, CompanyID: claims.CompanyID, Role: claims.Role}, true
}

// uuidParam reads a UUID path parameter, writing a 400 when it is missing or malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, key, label string) (string, bool) {
	id := chi.URLParam(r, key)
	if id == "" {
		response.BadRequest(w, label+" is required", nil)
		return "", false
	}
	if !validator.IsValidUUID(id) {
		response.BadRequest(w, label+" must be a valid UUID", nil)
		return "", false
	}
	return id, true
}

// ========== SELF SERVICE ==========

func (h *payrollHandlerImpl) GetMyEntries(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.payrollService.GetMyEntries(r.Context(), requester)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetPayslip(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	entryID, ok := uuidParam(w, r, "entryId", "Entry ID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetPayslip(r.Context(), requester, entryID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== ADMINISTRATION ==========

func (h *payrollHandlerImpl) ListCompanyPayroll(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.payrollService.ListCompanyPayroll(r.Context(), requester.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) AddRate(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	employeeID, ok := uuidParam(w, r, "employeeId", "Employee ID")
	if !ok {
		return
	}

	var req payroll.CreateRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.AddRate(r.Context(), requester.CompanyID, employeeID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Hourly rate added", result)
}

func (h *payrollHandlerImpl) ListRates(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	employeeID, ok := uuidParam(w, r, "employeeId", "Employee ID")
	if !ok {
		return
	}

	result, err := h.payrollService.ListRates(r.Context(), requester.CompanyID, employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetSchedule(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	result, err := h.payrollService.GetSchedule(r.Context(), requester.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req payroll.UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.UpdateSchedule(r.Context(), requester.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Pay schedule updated", result)
}

// ========== RUNS ==========

func (h *payrollHandlerImpl) CreateRun(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req payroll.CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateRun(r.Context(), requester.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll run ready", result)
}

func (h *payrollHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req payroll.CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.Calculate(r.Context(), requester.CompanyID, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) Finalize(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	runID, ok := uuidParam(w, r, "runId", "Run ID")
	if !ok {
		return
	}

	result, err := h.payrollService.Finalize(r.Context(), requester.CompanyID, runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll run finalized", result)
}

func (h *payrollHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var filter payroll.RunFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status := payroll.RunStatus(s)
		if status != payroll.RunStatusDraft && status != payroll.RunStatusFinalized {
			response.BadRequest(w, "status must be draft or finalized", nil)
			return
		}
		filter.Status = &status
	}
	if y := r.URL.Query().Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			response.BadRequest(w, "year must be a number", nil)
			return
		}
		filter.Year = &year
	}

	result, err := h.payrollService.ListRuns(r.Context(), requester.CompanyID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetRun(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}
	runID, ok := uuidParam(w, r, "runId", "Run ID")
	if !ok {
		return
	}

	result, err := h.payrollService.GetRun(r.Context(), requester.CompanyID, runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
