package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/tylerkaska112/tripnav/pkg/util"
)

type envelope map[string]interface{}

func (api *navigationAPI) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(js)
	return nil
}

func (api *navigationAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := envelope{"error": map[string]interface{}{
		"code":    http.StatusText(status),
		"message": message,
	}}
	if err := api.writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *navigationAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (api *navigationAPI) NotFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusNotFound, err.Error())
}

func (api *navigationAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.log.Error("server error: " + err.Error())
	api.errorResponse(w, r, http.StatusInternalServerError, util.MessageInternalServerError)
}

// getStatusCode maps wrapped domain codes to HTTP statuses.
func (api *navigationAPI) getStatusCode(w http.ResponseWriter, r *http.Request, err error) {
	switch code := util.ErrorCode(err); {
	case errors.Is(code, util.ErrBadParamInput):
		api.BadRequestResponse(w, r, err)
	case errors.Is(code, util.ErrNoResult),
		errors.Is(code, util.ErrAddressNotFound),
		errors.Is(code, util.ErrNoRouteAvailable),
		errors.Is(code, util.ErrNotFound):
		api.NotFoundResponse(w, r, err)
	default:
		api.ServerErrorResponse(w, r, err)
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			errs = append(errs, fmt.Errorf("%s", e.Translate(trans)))
		}
	}
	return errs
}
