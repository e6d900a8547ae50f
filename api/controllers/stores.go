package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/marketplace-backend/api/responses"
	"github.com/angelmondragon/marketplace-backend/api/validators"
	"github.com/angelmondragon/marketplace-backend/internal/search"
	"github.com/angelmondragon/marketplace-backend/internal/stores"
	"github.com/angelmondragon/marketplace-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/marketplace-backend/pkg/errors"
	"github.com/angelmondragon/marketplace-backend/pkg/logger"
)

type storeRegisterRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=255"`
	Slug         *string `json:"slug,omitempty" validate:"omitempty,max=255"`
	Description  *string `json:"description,omitempty"`
	Logo         *string `json:"logo,omitempty" validate:"omitempty,url"`
	ContactEmail string  `json:"contact_email" validate:"required,email"`
	ContactPhone *string `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
}

func (r storeRegisterRequest) toInput() stores.RegisterStoreInput {
	return stores.RegisterStoreInput{
		Name:         validators.SanitizeString(r.Name, 255),
		Slug:         r.Slug,
		Description:  r.Description,
		Logo:         r.Logo,
		ContactEmail: strings.TrimSpace(r.ContactEmail),
		ContactPhone: r.ContactPhone,
	}
}

type myStoreUpdateRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description  *string `json:"description,omitempty"`
	Logo         *string `json:"logo,omitempty" validate:"omitempty,url"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone,omitempty" validate:"omitempty,max=32"`
}

func (r myStoreUpdateRequest) toInput() stores.UpdateMyStoreInput {
	return stores.UpdateMyStoreInput{
		Name:         r.Name,
		Description:  r.Description,
		Logo:         r.Logo,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
	}
}

type adminStoreUpdateRequest struct {
	myStoreUpdateRequest
	Status *enums.StoreStatus `json:"status,omitempty"`
}

func (r adminStoreUpdateRequest) toInput() stores.UpdateStoreInput {
	return stores.UpdateStoreInput{
		Name:         r.Name,
		Description:  r.Description,
		Logo:         r.Logo,
		Status:       r.Status,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
	}
}

// StoreBySlug is the public storefront lookup.
func StoreBySlug(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, err := svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// StoreRegister creates the caller's storefront in PENDING_APPROVAL.
func StoreRegister(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload storeRegisterRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Register(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, store)
	}
}

func MyStore(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := svc.GetByOwner(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func MyStoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload myStoreUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.UpdateMine(r.Context(), userID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// StoreSearch pages stores matching the query filters. The public scope only
// ever returns ACTIVE stores whatever status is asked for.
func StoreSearch(svc search.Service, scope search.Scope, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		filter := stores.StoreFilter{
			Name:         q.Get("name"),
			Slug:         q.Get("slug"),
			ContactEmail: q.Get("contact_email"),
			ContactPhone: q.Get("contact_phone"),
			Search:       q.Get("q"),
		}
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			status, err := enums.ParseStoreStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
					WithDetails(map[string]any{"field": "status"}))
				return
			}
			filter.Status = &status
		}

		result, err := svc.SearchStores(r.Context(), search.StoreQuery{Filter: filter, Page: page.Page, Limit: page.Limit}, scope)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminStoreGet(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store, err := svc.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func AdminStoreUpdate(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminStoreUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		store, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

// Store lifecycle actions exposed to admins.
const (
	StoreActionApprove    = "approve"
	StoreActionReject     = "reject"
	StoreActionSuspend    = "suspend"
	StoreActionDeactivate = "deactivate"
)

// AdminStoreTransition applies one lifecycle action to a store.
func AdminStoreTransition(svc stores.Service, action string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var store *stores.StoreDTO
		switch action {
		case StoreActionApprove:
			store, err = svc.Approve(r.Context(), id)
		case StoreActionReject:
			store, err = svc.Reject(r.Context(), id)
		case StoreActionSuspend:
			store, err = svc.Suspend(r.Context(), id)
		case StoreActionDeactivate:
			store, err = svc.Deactivate(r.Context(), id)
		default:
			err = pkgerrors.Newf(pkgerrors.CodeInternal, "unknown store action %q", action)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, store)
	}
}

func AdminStoreRemove(svc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Remove(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
