package services

import (
	"fmt"
	"net/http"
	"time"

	"esg_platform/esg_hub/schema"
	"esg_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActionPlanService struct {
	db *gorm.DB
	scopedService
}

func (s *ActionPlanService) Routes() chi.Router {
	r := s.scopedRouter()

	r.Get("/", s.List)
	r.Post("/", s.Create)

	r.Route("/{plan_id}", func(r chi.Router) {
		r.Get("/", s.Get)
		r.Put("/", s.Update)
		r.Delete("/", s.Delete)
	})

	return r
}

type actionPlanRequest struct {
	IroId       *uuid.UUID `json:"iroId"`
	Title       string     `json:"title" validate:"required,max=300"`
	Description string     `json:"description"`
	Responsible string     `json:"responsible" validate:"max=200"`
	Timeline    string     `json:"timeline" validate:"max=200"`
	Status      string     `json:"status" validate:"max=50"`
	Resources   string     `json:"resources"`
}

func (a *actionPlanRequest) apply(plan *schema.ActionPlan) {
	plan.IroId = a.IroId
	plan.Title = a.Title
	plan.Description = a.Description
	plan.Responsible = a.Responsible
	plan.Timeline = a.Timeline
	plan.Status = a.Status
	plan.Resources = a.Resources
}

func (s *ActionPlanService) List(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	plans, err := schema.ListActionPlans(org.Id, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing action plans: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, plans)
}

func (s *ActionPlanService) Create(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	var params actionPlanRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	plan := schema.ActionPlan{
		Id:             uuid.New(),
		OrganizationId: org.Id,
		CreatedAt:      time.Now().UTC(),
	}
	params.apply(&plan)

	err := s.db.Transaction(func(txn *gorm.DB) error {
		if err := checkIroBelongsTo(txn, org.Id, plan.IroId); err != nil {
			return err
		}
		if result := txn.Create(&plan); result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating action plan: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, plan)
}

func (s *ActionPlanService) Get(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	planId, err := utils.URLParamUUID(r, "plan_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := schema.GetActionPlan(org.Id, planId, s.db)
	if err != nil {
		err = schemaError(err, schema.ErrActionPlanNotFound)
		http.Error(w, fmt.Sprintf("error retrieving action plan: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, plan)
}

func (s *ActionPlanService) Update(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	planId, err := utils.URLParamUUID(r, "plan_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params actionPlanRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var plan schema.ActionPlan
	err = s.db.Transaction(func(txn *gorm.DB) error {
		var err error
		plan, err = schema.GetActionPlan(org.Id, planId, txn)
		if err != nil {
			return schemaError(err, schema.ErrActionPlanNotFound)
		}

		if err := checkIroBelongsTo(txn, org.Id, params.IroId); err != nil {
			return err
		}

		params.apply(&plan)
		if result := txn.Save(&plan); result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating action plan: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, plan)
}

func (s *ActionPlanService) Delete(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	planId, err := utils.URLParamUUID(r, "plan_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		return deleteOrgRecord(txn, &schema.ActionPlan{}, org.Id, planId, schema.ErrActionPlanNotFound, "delete action plan")
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting action plan: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
