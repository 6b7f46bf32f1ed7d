package trainer

import (
	"github.com/sirupsen/logrus"

	"github.com/openfluke/seqnet/nn"
)

// LogBlueprint logs the structure of model, one entry per layer
func LogBlueprint(log *logrus.Logger, id string, model nn.WeightVisitor) nn.ModelTelemetry {
	tel := nn.ExtractBlueprint(id, model)
	log.WithFields(logrus.Fields{
		"model":      tel.ID,
		"layers":     tel.TotalLayers,
		"parameters": tel.TotalParams,
	}).Info("Model blueprint")
	for _, l := range tel.Layers {
		log.WithFields(logrus.Fields{
			"path":       l.Path,
			"activation": l.Activation,
			"in":         l.InputSize,
			"out":        l.OutputSize,
			"stateful":   l.Stateful,
			"parameters": l.Parameters,
		}).Debug("Layer")
	}
	return tel
}
