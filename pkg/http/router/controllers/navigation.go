package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	helper "github.com/tylerkaska112/tripnav/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type navigationAPI struct {
	navigationService NavigationService
	log               *zap.Logger
}

func New(navigationService NavigationService, log *zap.Logger) *navigationAPI {
	return &navigationAPI{
		navigationService: navigationService,
		log:               log,
	}
}

func (api *navigationAPI) Routes(group *helper.RouteGroup) {
	group.POST("/search/query", api.setQuery)
	group.GET("/search/candidates", api.candidates)
	group.POST("/search/select", api.selectCandidate)
	group.POST("/navigation/start", api.startNavigation)
	group.POST("/navigation/position", api.onPosition)
	group.GET("/navigation", api.snapshot)
	group.POST("/navigation/step", api.moveToStep)
	group.DELETE("/navigation", api.endNavigation)
	group.POST("/navigation/mute", api.setMuted)
}

func (api *navigationAPI) validateRequest(w http.ResponseWriter, r *http.Request, request interface{}) bool {
	validate := validator.New()
	if err := validate.Struct(request); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		api.BadRequestResponse(w, r, fmt.Errorf("validation error: %v", vvString))
		return false
	}
	return true
}

func (api *navigationAPI) setQuery(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request queryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	api.navigationService.SetQuery(request.Text)

	if err := api.writeJSON(w, http.StatusAccepted, envelope{"data": "ok"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *navigationAPI) candidates(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	cands := api.navigationService.Candidates()
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewCandidatesResponse(cands)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *navigationAPI) selectCandidate(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request selectCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if !api.validateRequest(w, r, request) {
		return
	}

	if err := api.navigationService.SelectCandidate(*request.Index); err != nil {
		api.getStatusCode(w, r, err)
		return
	}

	if err := api.writeJSON(w, http.StatusAccepted, envelope{"data": "ok"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *navigationAPI) startNavigation(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request startNavigationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if !api.validateRequest(w, r, request) {
		return
	}

	api.navigationService.StartNavigation(request.DestinationLat, request.DestinationLon, request.Label)

	if err := api.writeJSON(w, http.StatusAccepted, envelope{"data": "ok"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *navigationAPI) onPosition(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request positionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if !api.validateRequest(w, r, request) {
		return
	}

	snap := api.navigationService.OnPosition(request.Lat, request.Lon, request.SpeedMph)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": snap}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *navigationAPI) snapshot(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	snap := api.navigationService.Snapshot()
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": snap}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *navigationAPI) moveToStep(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request moveToStepRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if !api.validateRequest(w, r, request) {
		return
	}

	api.navigationService.MoveToStep(*request.Index)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": "ok"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *navigationAPI) endNavigation(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	api.navigationService.EndNavigation()
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": "ok"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *navigationAPI) setMuted(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request muteRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if !api.validateRequest(w, r, request) {
		return
	}

	api.navigationService.SetMuted(*request.Muted)

	if err := api.writeJSON(w, http.StatusOK, envelope{"data": "ok"}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
