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

type MaterialityService struct {
	db *gorm.DB
	scopedService
}

func (s *MaterialityService) Routes() chi.Router {
	r := s.scopedRouter()

	r.Get("/", s.List)
	r.Post("/", s.Upsert)
	r.Put("/{topic_id}", s.Update)
	r.Delete("/{topic_id}", s.Delete)

	return r
}

type materialityTopicRequest struct {
	Topic                string   `json:"topic" validate:"required,max=300"`
	Category             string   `json:"category" validate:"max=200"`
	Subcategory          string   `json:"subcategory" validate:"max=200"`
	Description          string   `json:"description"`
	FinancialImpact      int      `json:"financialImpact" validate:"min=0,max=5"`
	StakeholderImpact    int      `json:"stakeholderImpact" validate:"min=0,max=5"`
	ImpactedStakeholders []string `json:"impactedStakeholders" validate:"dive,required"`
}

func (m *materialityTopicRequest) toTopic(orgId uuid.UUID) schema.MaterialityTopic {
	stakeholders := m.ImpactedStakeholders
	if stakeholders == nil {
		stakeholders = []string{}
	}
	now := time.Now().UTC()
	return schema.MaterialityTopic{
		OrganizationId:       orgId,
		Topic:                m.Topic,
		Category:             m.Category,
		Subcategory:          m.Subcategory,
		Description:          m.Description,
		FinancialImpact:      m.FinancialImpact,
		StakeholderImpact:    m.StakeholderImpact,
		MaterialityIndex:     schema.MaterialityIndex(m.FinancialImpact, m.StakeholderImpact),
		IsMaterial:           schema.IsMaterial(m.FinancialImpact, m.StakeholderImpact),
		ImpactedStakeholders: stakeholders,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (s *MaterialityService) List(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	topics, err := schema.ListMaterialityTopics(org.Id, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing materiality topics: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, topics)
}

// Upsert creates the topic, or updates the organization's topic with the same
// name.
func (s *MaterialityService) Upsert(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	var params materialityTopicRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var saved schema.MaterialityTopic
	err := s.db.Transaction(func(txn *gorm.DB) error {
		var err error
		saved, err = schema.UpsertMaterialityTopic(txn, params.toTopic(org.Id))
		if err != nil {
			return CodedError(err, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error saving materiality topic: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, saved)
}

func (s *MaterialityService) Update(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	topicId, err := utils.URLParamUUID(r, "topic_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params materialityTopicRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	var saved schema.MaterialityTopic
	err = s.db.Transaction(func(txn *gorm.DB) error {
		existing, err := schema.GetMaterialityTopic(org.Id, topicId, txn)
		if err != nil {
			return schemaError(err, schema.ErrMaterialityTopicNotFound)
		}

		if existing.Topic != params.Topic {
			var conflicts int64
			result := txn.Model(&schema.MaterialityTopic{}).
				Where("organization_id = ? AND topic = ? AND id != ?", org.Id, params.Topic, topicId).
				Count(&conflicts)
			if result.Error != nil {
				return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
			}
			if conflicts > 0 {
				return CodedError(fmt.Errorf("materiality topic '%v' already exists", params.Topic), http.StatusConflict)
			}
		}

		updated := params.toTopic(org.Id)
		updated.Id = existing.Id
		updated.CreatedAt = existing.CreatedAt

		if result := txn.Save(&updated); result.Error != nil {
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		saved = updated
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating materiality topic: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, saved)
}

func (s *MaterialityService) Delete(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	topicId, err := utils.URLParamUUID(r, "topic_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		return deleteOrgRecord(txn, &schema.MaterialityTopic{}, org.Id, topicId, schema.ErrMaterialityTopicNotFound, "delete materiality topic")
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting materiality topic: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
