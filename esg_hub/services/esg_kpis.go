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

type EsgKpiService struct {
	db *gorm.DB
	scopedService
}

func (s *EsgKpiService) Routes() chi.Router {
	r := s.scopedRouter()

	r.Get("/", s.List)
	r.Post("/", s.Create)

	r.Route("/{kpi_id}", func(r chi.Router) {
		r.Get("/", s.Get)
		r.Put("/", s.Update)
		r.Delete("/", s.Delete)
	})

	return r
}

type esgKpiRequest struct {
	EsrsTopic          string `json:"esrsTopic" validate:"required,max=50"`
	TopicTitle         string `json:"topicTitle" validate:"max=200"`
	Section            string `json:"section" validate:"max=200"`
	KpiName            string `json:"kpiName" validate:"required,max=300"`
	Unit               string `json:"unit" validate:"max=50"`
	CurrentValue       string `json:"currentValue" validate:"max=100"`
	BaselineValue      string `json:"baselineValue" validate:"max=100"`
	BaselineYear       int    `json:"baselineYear" validate:"omitempty,min=1900,max=2200"`
	TargetValue        string `json:"targetValue" validate:"max=100"`
	TargetYear         int    `json:"targetYear" validate:"omitempty,min=1900,max=2200"`
	DataSource         string `json:"dataSource"`
	CollectionMethod   string `json:"collectionMethod"`
	VerificationStatus string `json:"verificationStatus" validate:"max=100"`
	VerifiedBy         string `json:"verifiedBy" validate:"max=200"`
}

func (k *esgKpiRequest) apply(kpi *schema.EsgDataKpi) {
	kpi.EsrsTopic = k.EsrsTopic
	kpi.TopicTitle = k.TopicTitle
	kpi.Section = k.Section
	kpi.KpiName = k.KpiName
	kpi.Unit = k.Unit
	kpi.CurrentValue = k.CurrentValue
	kpi.BaselineValue = k.BaselineValue
	kpi.BaselineYear = k.BaselineYear
	kpi.TargetValue = k.TargetValue
	kpi.TargetYear = k.TargetYear
	kpi.DataSource = k.DataSource
	kpi.CollectionMethod = k.CollectionMethod
	kpi.VerificationStatus = k.VerificationStatus
	kpi.VerifiedBy = k.VerifiedBy
}

func (s *EsgKpiService) List(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	kpis, err := schema.ListEsgDataKpis(org.Id, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing esg data kpis: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, kpis)
}

func (s *EsgKpiService) Create(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	var params esgKpiRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	kpi := schema.EsgDataKpi{
		Id:             uuid.New(),
		OrganizationId: org.Id,
		CreatedAt:      time.Now().UTC(),
	}
	params.apply(&kpi)

	if result := s.db.Create(&kpi); result.Error != nil {
		http.Error(w, fmt.Sprintf("error creating esg data kpi: %v", schema.ErrDbAccessFailed), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, kpi)
}

func (s *EsgKpiService) Get(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	kpiId, err := utils.URLParamUUID(r, "kpi_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	kpi, err := schema.GetEsgDataKpi(org.Id, kpiId, s.db)
	if err != nil {
		err = schemaError(err, schema.ErrEsgDataKpiNotFound)
		http.Error(w, fmt.Sprintf("error retrieving esg data kpi: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, kpi)
}

func (s *EsgKpiService) Update(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	kpiId, err := utils.URLParamUUID(r, "kpi_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params esgKpiRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var kpi schema.EsgDataKpi
	err = s.db.Transaction(func(txn *gorm.DB) error {
		var err error
		kpi, err = schema.GetEsgDataKpi(org.Id, kpiId, txn)
		if err != nil {
			return schemaError(err, schema.ErrEsgDataKpiNotFound)
		}

		params.apply(&kpi)
		if result := txn.Save(&kpi); result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating esg data kpi: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, kpi)
}

func (s *EsgKpiService) Delete(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	kpiId, err := utils.URLParamUUID(r, "kpi_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		return deleteOrgRecord(txn, &schema.EsgDataKpi{}, org.Id, kpiId, schema.ErrEsgDataKpiNotFound, "delete esg data kpi")
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting esg data kpi: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
