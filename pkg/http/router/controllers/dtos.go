package controllers

import "github.com/tylerkaska112/tripnav/pkg/datastructure"

type queryRequest struct {
	Text string `json:"text"`
}

type selectCandidateRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

type startNavigationRequest struct {
	DestinationLat float64 `json:"destination_lat" validate:"min=-90,max=90"`
	DestinationLon float64 `json:"destination_lon" validate:"min=-180,max=180"`
	Label          string  `json:"label"`
}

type positionRequest struct {
	Lat      float64 `json:"lat" validate:"min=-90,max=90"`
	Lon      float64 `json:"lon" validate:"min=-180,max=180"`
	SpeedMph float64 `json:"speed_mph" validate:"min=0"`
}

type moveToStepRequest struct {
	Index *int `json:"index" validate:"required"`
}

type muteRequest struct {
	Muted *bool `json:"muted" validate:"required"`
}

type candidatesResponse struct {
	Candidates []datastructure.SearchCandidate `json:"candidates"`
}

func NewCandidatesResponse(cands []datastructure.SearchCandidate) candidatesResponse {
	if cands == nil {
		cands = []datastructure.SearchCandidate{}
	}
	return candidatesResponse{Candidates: cands}
}
