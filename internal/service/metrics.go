package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	documentsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_created_total",
		Help: "Total number of documents stored, by type.",
	}, []string{"type"})

	documentsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_rejected_total",
		Help: "Total number of document creations aborted during admission, by reason.",
	}, []string{"reason"})

	imageTransformsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "image_transforms_total",
		Help: "Total number of image transforms, by outcome.",
	}, []string{"outcome"})
)
