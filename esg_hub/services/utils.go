package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/schema"
	"esg_platform/esg_hub/storage"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

// schemaError maps an error from a schema accessor to a coded error: the given
// not found sentinel becomes a 404 and everything else a 500.
func schemaError(err error, notFound error) error {
	if errors.Is(err, notFound) {
		return CodedError(err, http.StatusNotFound)
	}
	return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
}

// requestOrganization returns the organization resolved by auth.OrganizationScope.
func requestOrganization(w http.ResponseWriter, r *http.Request) (auth.OrganizationSummary, bool) {
	org, err := auth.OrganizationFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return auth.OrganizationSummary{}, false
	}
	return org, true
}

const dateLayout = "2006-01-02"

// parseDate accepts an empty string as no date. Payloads are validated with the
// matching datetime tag before this is called.
func parseDate(value string) (*datatypes.Date, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, CodedError(fmt.Errorf("invalid date '%v', expected format YYYY-MM-DD", value), http.StatusUnprocessableEntity)
	}
	date := datatypes.Date(t)
	return &date, nil
}

func checkDiskUsage(storage storage.Storage) error {
	stats, err := storage.Usage()
	if err != nil {
		slog.Error("unable to get disk usage from storage", "error", err)
		return CodedError(errors.New("unable to get disk usage"), http.StatusInternalServerError)
	}
	oneMib := uint64(1024 * 1024)
	// Either 5% of the disk or 1Gb must be free, whichever is smaller.
	threshold := min(stats.TotalBytes/20, 1024*oneMib)
	if stats.FreeBytes < threshold {
		used := (stats.TotalBytes - stats.FreeBytes) / oneMib
		total := stats.TotalBytes / oneMib
		return CodedError(fmt.Errorf("insufficient disk space available to archive report, usage: %d/%d Mib", used, total), http.StatusInsufficientStorage)
	}
	return nil
}

func checkSufficientStorage(storage storage.Storage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			if err := checkDiskUsage(storage); err != nil {
				slog.Error(err.Error())
				http.Error(w, err.Error(), GetResponseCode(err))
				return
			}
			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(handler)
	}
}

// checkIroBelongsTo rejects links from an action plan to an iro entry of a
// different organization.
func checkIroBelongsTo(txn *gorm.DB, orgId uuid.UUID, iroId *uuid.UUID) error {
	if iroId == nil {
		return nil
	}
	if _, err := schema.GetIroEntry(orgId, *iroId, txn); err != nil {
		if errors.Is(err, schema.ErrIroEntryNotFound) {
			return CodedError(fmt.Errorf("iro entry %v does not exist for organization", *iroId), http.StatusUnprocessableEntity)
		}
		return CodedError(err, http.StatusInternalServerError)
	}
	return nil
}

func deleteOrgRecord(txn *gorm.DB, model interface{}, orgId, id uuid.UUID, notFound error, action string) error {
	result := txn.Where("id = ? AND organization_id = ?", id, orgId).Delete(model)
	if result.Error != nil {
		slog.Error("sql error in "+action, "organization_id", orgId, "id", id, "error", result.Error)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	if result.RowsAffected == 0 {
		return CodedError(notFound, http.StatusNotFound)
	}
	return nil
}
