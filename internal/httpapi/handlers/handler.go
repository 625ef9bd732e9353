package handlers

import (
	"github.com/lexfield/contentpipe/internal/pipeline"
)

type Handler struct {
	Svc *pipeline.Service
}

func NewHandler(svc *pipeline.Service) *Handler {
	return &Handler{Svc: svc}
}
