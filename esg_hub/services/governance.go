package services

import (
	"fmt"
	"net/http"
	"time"

	"esg_platform/esg_hub/schema"
	"esg_platform/utils"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type GovernanceService struct {
	db *gorm.DB
	scopedService
}

func (s *GovernanceService) Routes() chi.Router {
	r := s.scopedRouter()

	r.Get("/", s.Get)
	r.Put("/", s.Save)
	r.Post("/", s.Save)

	return r
}

type governanceRequest struct {
	BoardComposition          string   `json:"boardComposition"`
	SustainabilityOversight   string   `json:"sustainabilityOversight"`
	CommitteeResponsibilities []string `json:"committeeResponsibilities" validate:"dive,required"`
	ManagementRole            string   `json:"managementRole"`
	IncentiveSchemes          string   `json:"incentiveSchemes"`
}

func (s *GovernanceService) Get(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	gov, err := schema.GetGovernanceStructure(org.Id, s.db)
	if err != nil {
		err = schemaError(err, schema.ErrGovernanceStructureNotFound)
		http.Error(w, fmt.Sprintf("error retrieving governance structure: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, gov)
}

func (s *GovernanceService) Save(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	var params governanceRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	gov := schema.GovernanceStructure{
		OrganizationId:            org.Id,
		BoardComposition:          params.BoardComposition,
		SustainabilityOversight:   params.SustainabilityOversight,
		CommitteeResponsibilities: params.CommitteeResponsibilities,
		ManagementRole:            params.ManagementRole,
		IncentiveSchemes:          params.IncentiveSchemes,
		UpdatedAt:                 time.Now().UTC(),
	}
	if gov.CommitteeResponsibilities == nil {
		gov.CommitteeResponsibilities = []string{}
	}

	var saved schema.GovernanceStructure
	err := s.db.Transaction(func(txn *gorm.DB) error {
		var err error
		saved, err = schema.UpsertGovernanceStructure(txn, gov)
		if err != nil {
			return CodedError(err, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error saving governance structure: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, saved)
}
