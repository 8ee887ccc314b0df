package services

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"esg_platform/esg_hub/schema"
	"esg_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DueDiligenceService struct {
	db *gorm.DB
	scopedService
}

func (s *DueDiligenceService) Routes() chi.Router {
	r := s.scopedRouter()

	r.Get("/", s.Get)
	r.Post("/", s.Save)
	r.Put("/{process_id}", s.Save)

	return r
}

type dueDiligenceRequest struct {
	Methodology           string `json:"methodology"`
	Scope                 string `json:"scope"`
	StakeholderEngagement string `json:"stakeholderEngagement"`
	RiskIdentification    string `json:"riskIdentification"`
	MonitoringProcess     string `json:"monitoringProcess"`
	Frequency             string `json:"frequency" validate:"max=100"`
}

func (s *DueDiligenceService) Get(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	process, err := schema.GetDueDiligenceProcess(org.Id, s.db)
	if err != nil {
		err = schemaError(err, schema.ErrDueDiligenceNotFound)
		http.Error(w, fmt.Sprintf("error retrieving due diligence process: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, process)
}

// Save is an upsert keyed by organization for both POST and PUT. A PUT must
// name the organization's existing process.
func (s *DueDiligenceService) Save(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	var processId *uuid.UUID
	if chi.URLParam(r, "process_id") != "" {
		id, err := utils.URLParamUUID(r, "process_id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		processId = &id
	}

	var params dueDiligenceRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	process := schema.DueDiligenceProcess{
		OrganizationId:        org.Id,
		Methodology:           params.Methodology,
		Scope:                 params.Scope,
		StakeholderEngagement: params.StakeholderEngagement,
		RiskIdentification:    params.RiskIdentification,
		MonitoringProcess:     params.MonitoringProcess,
		Frequency:             params.Frequency,
		UpdatedAt:             time.Now().UTC(),
	}

	var saved schema.DueDiligenceProcess
	err := s.db.Transaction(func(txn *gorm.DB) error {
		if processId != nil {
			existing, err := schema.GetDueDiligenceProcess(org.Id, txn)
			if err != nil {
				return schemaError(err, schema.ErrDueDiligenceNotFound)
			}
			if existing.Id != *processId {
				return CodedError(errors.New("due diligence process not found"), http.StatusNotFound)
			}
		}

		var err error
		saved, err = schema.UpsertDueDiligenceProcess(txn, process)
		if err != nil {
			return CodedError(err, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error saving due diligence process: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, saved)
}
