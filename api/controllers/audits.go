package controllers

import (
	"net/http"

	"github.com/dormledger/hostel-inventory/api/responses"
	"github.com/dormledger/hostel-inventory/api/validators"
	"github.com/dormledger/hostel-inventory/internal/audits"
	"github.com/dormledger/hostel-inventory/pkg/logger"
)

func AuditsCreate(svc audits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("audits"))
			return
		}

		audit, err := svc.CreateSnapshot(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, audit)
	}
}

func AuditsList(svc audits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("audits"))
			return
		}

		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func AuditsGet(svc audits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("audits"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "auditId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		audit, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, audit)
	}
}

func AuditsDelete(svc audits.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("audits"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "auditId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Delete(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
