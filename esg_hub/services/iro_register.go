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

type IroRegisterService struct {
	db *gorm.DB
	scopedService
}

func (s *IroRegisterService) Routes() chi.Router {
	r := s.scopedRouter()

	r.Get("/", s.List)
	r.Post("/", s.Create)

	r.Route("/{iro_id}", func(r chi.Router) {
		r.Get("/", s.Get)
		r.Put("/", s.Update)
		r.Delete("/", s.Delete)
	})

	return r
}

type iroRequest struct {
	IroType              string `json:"iroType" validate:"required,oneof=Impact Risk Opportunity"`
	Title                string `json:"title" validate:"required,max=300"`
	Description          string `json:"description"`
	Category             string `json:"category" validate:"max=200"`
	Likelihood           int    `json:"likelihood" validate:"omitempty,min=1,max=5"`
	Severity             int    `json:"severity" validate:"omitempty,min=1,max=5"`
	TimeHorizon          string `json:"timeHorizon" validate:"max=100"`
	AffectedStakeholders string `json:"affectedStakeholders"`
	ValueChainLocation   string `json:"valueChainLocation"`
	FinancialMateriality bool   `json:"financialMateriality"`
	ImpactMateriality    bool   `json:"impactMateriality"`
}

func (i *iroRequest) apply(entry *schema.IroRegisterEntry) {
	entry.IroType = i.IroType
	entry.Title = i.Title
	entry.Description = i.Description
	entry.Category = i.Category
	entry.Likelihood = i.Likelihood
	entry.Severity = i.Severity
	entry.TimeHorizon = i.TimeHorizon
	entry.AffectedStakeholders = i.AffectedStakeholders
	entry.ValueChainLocation = i.ValueChainLocation
	entry.FinancialMateriality = i.FinancialMateriality
	entry.ImpactMateriality = i.ImpactMateriality
}

func (s *IroRegisterService) List(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	iroType := r.URL.Query().Get("type")
	if iroType != "" {
		if err := schema.CheckValidIroType(iroType); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	}

	entries, err := schema.ListIroEntries(org.Id, iroType, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing iro entries: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, entries)
}

func (s *IroRegisterService) Create(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	var params iroRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	entry := schema.IroRegisterEntry{
		Id:             uuid.New(),
		OrganizationId: org.Id,
		CreatedAt:      time.Now().UTC(),
	}
	params.apply(&entry)

	if result := s.db.Create(&entry); result.Error != nil {
		http.Error(w, fmt.Sprintf("error creating iro entry: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, entry)
}

func (s *IroRegisterService) Get(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	iroId, err := utils.URLParamUUID(r, "iro_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := schema.GetIroEntry(org.Id, iroId, s.db)
	if err != nil {
		err = schemaError(err, schema.ErrIroEntryNotFound)
		http.Error(w, fmt.Sprintf("error retrieving iro entry: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, entry)
}

func (s *IroRegisterService) Update(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	iroId, err := utils.URLParamUUID(r, "iro_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params iroRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var entry schema.IroRegisterEntry
	err = s.db.Transaction(func(txn *gorm.DB) error {
		var err error
		entry, err = schema.GetIroEntry(org.Id, iroId, txn)
		if err != nil {
			return schemaError(err, schema.ErrIroEntryNotFound)
		}

		params.apply(&entry)
		if result := txn.Save(&entry); result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating iro entry: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, entry)
}

// Delete unlinks any action plans that reference the entry before removing it.
func (s *IroRegisterService) Delete(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	iroId, err := utils.URLParamUUID(r, "iro_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		result := txn.Model(&schema.ActionPlan{}).
			Where("organization_id = ? AND iro_id = ?", org.Id, iroId).
			Update("iro_id", nil)
		if result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		return deleteOrgRecord(txn, &schema.IroRegisterEntry{}, org.Id, iroId, schema.ErrIroEntryNotFound, "delete iro entry")
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting iro entry: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
