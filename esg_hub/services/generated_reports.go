package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"esg_platform/esg_hub/metrics"
	"esg_platform/esg_hub/report"
	"esg_platform/esg_hub/schema"
	"esg_platform/esg_hub/storage"
	"esg_platform/esg_hub/templates"
	"esg_platform/utils"
	"esg_platform/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrReportFinal = errors.New("report is final and can no longer be modified")

type GeneratedReportService struct {
	db      *gorm.DB
	storage storage.Storage
	catalog *templates.Catalog
	metrics *metrics.Metrics
	scopedService
}

func (s *GeneratedReportService) Routes() chi.Router {
	r := s.scopedRouter()

	r.Get("/", s.List)
	r.Post("/", s.Create)

	r.Route("/{report_id}", func(r chi.Router) {
		r.Get("/", s.Get)
		r.Put("/", s.Update)
		r.Delete("/", s.Delete)

		r.Post("/autofill", s.Autofill)
		r.With(checkSufficientStorage(s.storage)).Post("/finalize", s.Finalize)
		r.Get("/export", s.Export)
	})

	return r
}

type reportResponse struct {
	Id             uuid.UUID         `json:"id"`
	OrganizationId uuid.UUID         `json:"organizationId"`
	TemplateId     string            `json:"templateId"`
	Title          string            `json:"title"`
	Sections       report.Sections   `json:"sections"`
	Provenance     report.Provenance `json:"provenance"`
	Status         string            `json:"status"`
	LastModified   time.Time         `json:"lastModified"`
	FinalizedAt    *time.Time        `json:"finalizedAt"`
	CreatedAt      time.Time         `json:"createdAt"`
}

type autofillResponse struct {
	Report  reportResponse    `json:"report"`
	Filled  []report.FieldRef `json:"filled"`
	Skipped []report.FieldRef `json:"skipped"`
}

func decodeDocument(rpt schema.GeneratedReport) (report.Sections, report.Provenance, error) {
	sections, err := report.DecodeSections(rpt.Sections)
	if err != nil {
		slog.Error("invalid sections stored for report", "report_id", rpt.Id, "error", err)
		return report.Sections{}, nil, CodedError(fmt.Errorf("invalid sections stored for report %v", rpt.Id), http.StatusInternalServerError)
	}
	prov, err := report.DecodeProvenance(rpt.Provenance)
	if err != nil {
		slog.Error("invalid provenance stored for report", "report_id", rpt.Id, "error", err)
		return report.Sections{}, nil, CodedError(fmt.Errorf("invalid provenance stored for report %v", rpt.Id), http.StatusInternalServerError)
	}
	return sections, prov, nil
}

func encodeDocument(rpt *schema.GeneratedReport, sections report.Sections, prov report.Provenance) error {
	sectionsJson, err := json.Marshal(sections)
	if err != nil {
		return CodedError(fmt.Errorf("error encoding report sections: %w", err), http.StatusInternalServerError)
	}
	provJson, err := json.Marshal(prov)
	if err != nil {
		return CodedError(fmt.Errorf("error encoding report provenance: %w", err), http.StatusInternalServerError)
	}
	rpt.Sections = datatypes.JSON(sectionsJson)
	rpt.Provenance = datatypes.JSON(provJson)
	return nil
}

func newReportResponse(rpt schema.GeneratedReport) (reportResponse, error) {
	sections, prov, err := decodeDocument(rpt)
	if err != nil {
		return reportResponse{}, err
	}
	return reportResponse{
		Id:             rpt.Id,
		OrganizationId: rpt.OrganizationId,
		TemplateId:     rpt.TemplateId,
		Title:          rpt.Title,
		Sections:       sections,
		Provenance:     prov,
		Status:         rpt.Status,
		LastModified:   rpt.LastModified,
		FinalizedAt:    rpt.FinalizedAt,
		CreatedAt:      rpt.CreatedAt,
	}, nil
}

// archiveDir holds the finalized report snapshots of one organization.
func archiveDir(orgId uuid.UUID) string {
	return filepath.Join("reports", orgId.String())
}

func archivePath(rpt schema.GeneratedReport) string {
	return filepath.Join(archiveDir(rpt.OrganizationId), rpt.Id.String()+".json")
}

// getDraftReport loads the report and rejects it with a 409 if it is final.
func getDraftReport(txn *gorm.DB, orgId, reportId uuid.UUID) (schema.GeneratedReport, error) {
	rpt, err := schema.GetGeneratedReport(orgId, reportId, txn)
	if err != nil {
		return rpt, schemaError(err, schema.ErrReportNotFound)
	}
	if rpt.IsFinal() {
		return rpt, CodedError(ErrReportFinal, http.StatusConflict)
	}
	return rpt, nil
}

// assemble runs the section assembler over the report and persists the result
// if anything changed.
func (s *GeneratedReportService) assemble(txn *gorm.DB, rpt *schema.GeneratedReport) (report.Result, error) {
	sections, prov, err := decodeDocument(*rpt)
	if err != nil {
		return report.Result{}, err
	}

	data, err := report.LoadData(schema.NewOrganizationData(rpt.OrganizationId, txn))
	if err != nil {
		return report.Result{}, CodedError(err, http.StatusInternalServerError)
	}

	result := report.Assemble(sections, prov, data)
	if !result.Changed(prov) {
		return result, nil
	}

	if err := encodeDocument(rpt, result.Sections, result.Provenance); err != nil {
		return report.Result{}, err
	}
	rpt.LastModified = time.Now().UTC()
	if err := txn.Save(rpt).Error; err != nil {
		slog.Error("sql error saving autofilled report", "report_id", rpt.Id, "error", err)
		return report.Result{}, CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	return result, nil
}

func (s *GeneratedReportService) observeAutofill(result report.Result, err error) {
	switch {
	case err != nil:
		s.metrics.ObserveAutofill(metrics.AutofillFailed, 0, 0)
	case len(result.Filled) == 0:
		s.metrics.ObserveAutofill(metrics.AutofillNoop, 0, len(result.Skipped))
	default:
		s.metrics.ObserveAutofill(metrics.AutofillSucceeded, len(result.Filled), len(result.Skipped))
	}
}

// finalize marks the report final and archives a snapshot of it. The snapshot
// is written before the transaction commits so a failed write leaves the report
// a draft.
func (s *GeneratedReportService) finalize(txn *gorm.DB, rpt *schema.GeneratedReport) error {
	now := time.Now().UTC()
	rpt.Status = schema.ReportFinal
	rpt.FinalizedAt = &now
	rpt.LastModified = now

	if err := txn.Save(rpt).Error; err != nil {
		slog.Error("sql error finalizing report", "report_id", rpt.Id, "error", err)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}

	snapshot, err := newReportResponse(*rpt)
	if err != nil {
		return err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return CodedError(fmt.Errorf("error encoding report snapshot: %w", err), http.StatusInternalServerError)
	}

	path := archivePath(*rpt)
	if err := s.storage.Write(path, bytes.NewReader(data)); err != nil {
		slog.Error("error archiving report snapshot", "report_id", rpt.Id, "path", path, "error", err)
		return CodedError(errors.New("error archiving report snapshot"), http.StatusInternalServerError)
	}

	slog.Info("archived report snapshot", "report_id", rpt.Id, "path", path, "code", logging.REPORT_ARCHIVE)
	slog.Info("finalized report", "report_id", rpt.Id, "organization_id", rpt.OrganizationId, "code", logging.REPORT_FINALIZE)
	return nil
}

func (s *GeneratedReportService) List(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	reports, err := schema.ListGeneratedReports(org.Id, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing generated reports: %v", err), http.StatusInternalServerError)
		return
	}

	infos := make([]reportResponse, 0, len(reports))
	for _, rpt := range reports {
		info, err := newReportResponse(rpt)
		if err != nil {
			http.Error(w, fmt.Sprintf("error listing generated reports: %v", err), GetResponseCode(err))
			return
		}
		infos = append(infos, info)
	}

	utils.WriteJsonResponse(w, infos)
}

type createReportRequest struct {
	Title      string           `json:"title" validate:"required,max=300"`
	TemplateId string           `json:"templateId" validate:"required"`
	Sections   *report.Sections `json:"sections"`
	Autofill   bool             `json:"autofill"`
}

func (s *GeneratedReportService) Create(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	var params createReportRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if _, err := s.catalog.Get(params.TemplateId); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	sections := report.NewSections()
	if params.Sections != nil {
		sections = *params.Sections
	}
	// Anything submitted up front is the user's own text.
	prov := report.MarkUserEdits(report.NewSections(), sections, report.Provenance{})

	now := time.Now().UTC()
	rpt := schema.GeneratedReport{
		Id:             uuid.New(),
		OrganizationId: org.Id,
		TemplateId:     params.TemplateId,
		Title:          params.Title,
		Status:         schema.ReportDraft,
		LastModified:   now,
		CreatedAt:      now,
	}
	if err := encodeDocument(&rpt, sections, prov); err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}

	var result report.Result
	err := s.db.Transaction(func(txn *gorm.DB) error {
		if err := txn.Create(&rpt).Error; err != nil {
			slog.Error("sql error creating report", "organization_id", org.Id, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		if params.Autofill {
			var err error
			result, err = s.assemble(txn, &rpt)
			s.observeAutofill(result, err)
			return err
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating report: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("created report", "report_id", rpt.Id, "organization_id", org.Id, "template_id", rpt.TemplateId, "autofill", params.Autofill)

	info, err := newReportResponse(rpt)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}
	utils.WriteJsonResponse(w, info)
}

func (s *GeneratedReportService) Get(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	reportId, err := utils.URLParamUUID(r, "report_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rpt, err := schema.GetGeneratedReport(org.Id, reportId, s.db)
	if err != nil {
		err = schemaError(err, schema.ErrReportNotFound)
		http.Error(w, fmt.Sprintf("error retrieving report: %v", err), GetResponseCode(err))
		return
	}

	info, err := newReportResponse(rpt)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}
	utils.WriteJsonResponse(w, info)
}

// Sections in an update replace the stored document. Every field whose value
// differs from the stored one is recorded as a user edit.
type updateReportRequest struct {
	Title    *string          `json:"title" validate:"omitempty,min=1,max=300"`
	Sections *report.Sections `json:"sections"`
	Status   *string          `json:"status" validate:"omitempty,oneof=draft final"`
}

func (s *GeneratedReportService) Update(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	reportId, err := utils.URLParamUUID(r, "report_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateReportRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	finalizing := params.Status != nil && *params.Status == schema.ReportFinal
	if finalizing {
		if err := checkDiskUsage(s.storage); err != nil {
			http.Error(w, err.Error(), GetResponseCode(err))
			return
		}
	}

	var rpt schema.GeneratedReport
	err = s.db.Transaction(func(txn *gorm.DB) error {
		var err error
		rpt, err = getDraftReport(txn, org.Id, reportId)
		if err != nil {
			return err
		}

		if params.Title != nil {
			rpt.Title = *params.Title
		}

		if params.Sections != nil {
			before, prov, err := decodeDocument(rpt)
			if err != nil {
				return err
			}
			prov = report.MarkUserEdits(before, *params.Sections, prov)
			if err := encodeDocument(&rpt, *params.Sections, prov); err != nil {
				return err
			}
		}

		if finalizing {
			return s.finalize(txn, &rpt)
		}

		rpt.LastModified = time.Now().UTC()
		if err := txn.Save(&rpt).Error; err != nil {
			slog.Error("sql error updating report", "report_id", rpt.Id, "error", err)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error updating report: %v", err), GetResponseCode(err))
		return
	}

	info, err := newReportResponse(rpt)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}
	utils.WriteJsonResponse(w, info)
}

func (s *GeneratedReportService) Delete(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	reportId, err := utils.URLParamUUID(r, "report_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if _, err := getDraftReport(txn, org.Id, reportId); err != nil {
			return err
		}
		return deleteOrgRecord(txn, &schema.GeneratedReport{}, org.Id, reportId, schema.ErrReportNotFound, "delete report")
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting report: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}

func (s *GeneratedReportService) Autofill(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	reportId, err := utils.URLParamUUID(r, "report_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var rpt schema.GeneratedReport
	var result report.Result
	err = s.db.Transaction(func(txn *gorm.DB) error {
		var err error
		rpt, err = getDraftReport(txn, org.Id, reportId)
		if err != nil {
			return err
		}

		result, err = s.assemble(txn, &rpt)
		s.observeAutofill(result, err)
		return err
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error autofilling report: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("autofilled report", "report_id", rpt.Id, "filled", len(result.Filled), "skipped", len(result.Skipped), "code", logging.REPORT_AUTOFILL)

	info, err := newReportResponse(rpt)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}
	utils.WriteJsonResponse(w, autofillResponse{Report: info, Filled: result.Filled, Skipped: result.Skipped})
}

func (s *GeneratedReportService) Finalize(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	reportId, err := utils.URLParamUUID(r, "report_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var rpt schema.GeneratedReport
	err = s.db.Transaction(func(txn *gorm.DB) error {
		var err error
		rpt, err = getDraftReport(txn, org.Id, reportId)
		if err != nil {
			return err
		}
		return s.finalize(txn, &rpt)
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error finalizing report: %v", err), GetResponseCode(err))
		return
	}

	info, err := newReportResponse(rpt)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}
	utils.WriteJsonResponse(w, info)
}

// Export returns the archived snapshot of a final report, or the current
// document of a draft.
func (s *GeneratedReportService) Export(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	reportId, err := utils.URLParamUUID(r, "report_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rpt, err := schema.GetGeneratedReport(org.Id, reportId, s.db)
	if err != nil {
		err = schemaError(err, schema.ErrReportNotFound)
		http.Error(w, fmt.Sprintf("error exporting report: %v", err), GetResponseCode(err))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rpt.Id.String()+".json"))

	if rpt.IsFinal() {
		path := archivePath(rpt)
		archived, err := s.storage.Exists(path)
		if err != nil {
			http.Error(w, "error locating archived report snapshot", http.StatusInternalServerError)
			return
		}
		if archived {
			snapshot, err := s.storage.Read(path)
			if err != nil {
				http.Error(w, "error reading archived report snapshot", http.StatusInternalServerError)
				return
			}
			defer snapshot.Close()

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			if _, err := io.Copy(w, snapshot); err != nil {
				slog.Error("error streaming report snapshot", "report_id", rpt.Id, "error", err)
			}
			return
		}
		slog.Warn("archived snapshot missing for final report, exporting stored document", "report_id", rpt.Id, "path", path)
	}

	info, err := newReportResponse(rpt)
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}
	utils.WriteJsonResponse(w, info)
}
